package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Netflix/go-env"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"

	"chat-relay/admin"
	"chat-relay/dispatch"
	"chat-relay/imagecodec"
	"chat-relay/internal"
	"chat-relay/moderation"
	"chat-relay/observability"
	"chat-relay/runtime"
	"chat-relay/runtime/workers"
	"chat-relay/transport"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// run initializes all components, manages the server lifecycle, and
// centralizes error reporting so deferred cleanup always executes before
// the process exits.
func run() error {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config internal.Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	// 2. Shared state
	registry := runtime.NewRegistry()
	fanout := runtime.NewDistributor(log, registry, config.SelfNotify)
	sessions := runtime.NewSessionManager(log, registry, fanout, config.SessionTimeout)

	// 3. Moderation (optional)
	var censor dispatch.Censor
	if config.CensorEnabled {
		replacement, err := internal.CharacterRune(config.CensorChar)
		if err != nil {
			return err
		}
		moderator, err := moderation.NewModerator(moderation.DefaultWords(), replacement)
		if err != nil {
			return fmt.Errorf("moderation setup failed: %w", err)
		}
		censor = moderator.Censor
	}

	// 4. Protocol core & transport
	dispatcher := dispatch.NewDispatcher(log, registry, sessions, fanout, imagecodec.New(), censor)
	server := transport.NewServer(log, dispatcher, sessions, config.Addr(), config.ShutdownGrace)
	if err := server.Listen(); err != nil {
		return err
	}

	// 5. Context & Signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 6. Operator console. Not supervised: a stdin read cannot be
	// interrupted, so it lives and dies with the process.
	console := admin.NewConsole(log, registry, sessions, fanout, os.Stdin, os.Stdout, stop)
	go func() {
		if err := console.Run(ctx); err != nil {
			log.Warn("console stopped", "err", err)
		}
	}()

	// 7. Supervised workers
	stats := observability.NewStatsWorker(log, registry, sessions, config.StatsInterval)
	sup := workers.NewSupervisor(log)
	sup.Add(server, stats)
	sup.Run(ctx)

	log.Info("Program stopped cleanly")
	return nil
}
