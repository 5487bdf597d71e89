package userio

import (
	"context"
	"fmt"
	"io"

	"os/exec"

	"golang.org/x/sync/errgroup"
)

const chunkSize = 1024

// play pipes a raw PCM stream (24kHz 16-bit mono, the TTS output format)
// into ffplay and blocks until playback finishes. Chunks travel through a
// bounded channel so synthesis download and playback overlap.
func play(ctx context.Context, src io.Reader) error {
	cmd := exec.CommandContext(ctx, "ffplay",
		"-loglevel", "quiet",
		"-autoexit",
		"-nodisp",
		"-f", "s16le",
		"-ar", "24000",
		"-ac", "1",
		"-i", "-",
	)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("failed to create stdin pipe: %w", err)
	}

	if err = cmd.Start(); err != nil {
		return fmt.Errorf("failed to start ffplay: %w", err)
	}

	chunks := make(chan []byte, 64)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(chunks)

		for {
			buffer := make([]byte, chunkSize)

			n, err := src.Read(buffer)
			if n > 0 {
				select {
				case chunks <- buffer[:n]:
				case <-ctx.Done():
					return ctx.Err()
				}
			}
			if err == io.EOF {
				return nil
			}
			if err != nil {
				return fmt.Errorf("failed to read audio stream: %w", err)
			}
		}
	})

	g.Go(func() error {
		defer stdin.Close()

		for chunk := range chunks {
			if _, err := stdin.Write(chunk); err != nil {
				return fmt.Errorf("failed to write audio chunk: %w", err)
			}
		}

		return nil
	})

	if err = g.Wait(); err != nil {
		_ = cmd.Process.Kill()
		_ = cmd.Wait()
		return err
	}

	return cmd.Wait()
}
