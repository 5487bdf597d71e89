package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"

	"intakedesk/app/client/localllm"
	"intakedesk/app/client/openaichat"
	"intakedesk/app/config"
	"intakedesk/app/llm"
	"intakedesk/app/service/intake"
	"intakedesk/app/service/store"
	"intakedesk/app/service/userio"
	"intakedesk/app/util/mylog"

	"github.com/gofiber/fiber/v2/log"
	"github.com/joho/godotenv"
	"github.com/samber/do"
)

func main() {
	_ = godotenv.Load()

	di := do.New()
	defer di.Shutdown()

	mylog.Preinit()

	appCtx, cancel := context.WithCancel(context.Background())
	defer cancel()
	do.ProvideValue(di, appCtx)

	cfg, err := config.Load("config.yaml")
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	runPreflight(cfg)

	if err = mylog.Init(cfg); err != nil {
		log.Fatalf("logging init failed: %v", err)
	}
	do.ProvideValue(di, cfg)

	do.Provide(di, openaichat.NewClient)
	do.Provide(di, localllm.NewClient)

	do.Provide(di, func(di *do.Injector) (llm.Chat, error) {
		if cfg.Backend == "local" {
			return do.MustInvoke[*localllm.Client](di), nil
		}
		return do.MustInvoke[*openaichat.Client](di), nil
	})
	do.Provide(di, func(di *do.Injector) (llm.Audio, error) {
		return do.MustInvoke[*openaichat.Client](di), nil
	})

	do.Provide(di, userio.New)
	do.Provide(di, store.New)
	do.Provide(di, intake.New)

	go func() {
		sigint := make(chan os.Signal, 1)
		signal.Notify(sigint, os.Interrupt)
		<-sigint

		log.Info("Shutting down...")

		cancel()
	}()

	slog.Info("Session starting",
		"mode", cfg.Mode,
		"lang", cfg.Lang,
		"backend", cfg.Backend,
		"audio", cfg.Audio.Enabled,
	)

	if err = do.MustInvoke[*intake.Service](di).Run(appCtx); err != nil {
		log.Fatalf("session failed: %v", err)
	}
}
