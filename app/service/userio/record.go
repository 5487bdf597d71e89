package userio

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"runtime"
	"strings"

	"intakedesk/app/config"
)

// recordUntilSilence captures the default microphone to a temp wav file,
// stopping on the first detected silence window or at the max duration.
// Silence is spotted by scanning ffmpeg's silencedetect output, then the
// process is stopped and the flushed file returned.
func recordUntilSilence(ctx context.Context, cfg config.Audio) (string, error) {
	tmp, err := os.CreateTemp("", "intake-*.wav")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	_ = tmp.Close()

	format, device := micInput()

	args := []string{
		"-y",
		"-loglevel", "info",
		"-f", format,
		"-i", device,
		"-ac", "1",
		"-ar", "16000",
		"-t", fmt.Sprint(cfg.MaxDuration),
		"-af", fmt.Sprintf("silencedetect=noise=-%gdB:d=%g", cfg.SilenceThreshold, cfg.SilenceDuration),
		tmp.Name(),
	}

	cmd := exec.CommandContext(ctx, "ffmpeg", args...)
	slog.Debug("Recording", "cmd", "ffmpeg "+strings.Join(args, " "))

	stderr, err := cmd.StderrPipe()
	if err != nil {
		return "", fmt.Errorf("failed to create stderr pipe: %w", err)
	}

	if err = cmd.Start(); err != nil {
		return "", fmt.Errorf("failed to start ffmpeg: %w", err)
	}

	go func() {
		scanner := bufio.NewScanner(stderr)
		for scanner.Scan() {
			line := scanner.Text()
			slog.Debug("ffmpeg", "stderr", line)

			if strings.Contains(line, "silence_start") {
				// Trailing silence reached, stop the capture gracefully so
				// the wav header gets flushed.
				if cmd.Process != nil {
					_ = cmd.Process.Signal(os.Interrupt)
				}
				return
			}
		}
	}()

	if err = cmd.Wait(); err != nil && ctx.Err() != nil {
		return "", fmt.Errorf("recording cancelled: %w", ctx.Err())
	}

	return tmp.Name(), nil
}

func micInput() (format, device string) {
	switch runtime.GOOS {
	case "darwin":
		return "avfoundation", ":0"
	default:
		return "alsa", "default"
	}
}
