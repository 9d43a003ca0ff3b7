package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"skoll/internal/config"
	"skoll/internal/engine"
	"skoll/internal/feed"
	"skoll/internal/net"
	"skoll/internal/registry"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	envPath := flag.String("env", "", "Path to an optional .env file")
	pretty := flag.Bool("pretty", false, "Human readable console logging")
	flag.Parse()

	if *pretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}

	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGTERM,
		syscall.SIGINT,
	)
	defer stop()

	cfg := config.LoadFromEnv(*envPath)

	// Compose the matching core and its collaborators.
	reg := registry.New()
	eng := engine.New(reg, engine.NewTradeLog(cfg.TradeLogCap))
	marketFeed := feed.New(cfg.FeedSymbols, cfg.FeedInterval)
	srv := net.New(cfg.ListenAddr, eng, marketFeed)

	if err := srv.Run(ctx); err != nil {
		log.Error().Err(err).Msg("server exited")
		os.Exit(1)
	}
}
