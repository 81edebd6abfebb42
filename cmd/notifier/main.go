package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	env "github.com/Netflix/go-env"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type Config struct {
	Port       string        `env:"PORT,default=8081"`
	AcceptRate float64       `env:"ACCEPT_RATE,default=1"`
	MinDelay   time.Duration `env:"MIN_DELAY,default=10ms"`
	MaxDelay   time.Duration `env:"MAX_DELAY,default=200ms"`
	GinMode    string        `env:"GIN_MODE,default=release"`
}

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	var cfg Config
	if _, err := env.UnmarshalFromEnviron(&cfg); err != nil {
		log.Fatal().Err(err).Msg("failed to read configuration")
	}

	log.Info().
		Str("port", cfg.Port).
		Float64("accept_rate", cfg.AcceptRate).
		Dur("min_delay", cfg.MinDelay).
		Dur("max_delay", cfg.MaxDelay).
		Msg("starting mock webhook receiver")

	receiver := NewReceiver(cfg.AcceptRate, cfg.MinDelay, cfg.MaxDelay)
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      SetupRouter(NewHandler(receiver), cfg.GinMode),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Msg("server started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}
	log.Info().Msg("server exited")
}
