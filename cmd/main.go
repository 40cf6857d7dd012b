package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/honeycombio/otel-config-go/otelconfig"
	"github.com/urfave/cli/v2"

	acceptor "github.com/cratekit/cargo-acceptor"
	"github.com/cratekit/cargo-acceptor/exitcodes"
	"github.com/cratekit/cargo-acceptor/flags"
)

var (
	Version   = "v0.1.0"
	GitCommit = ""
	GitDate   = ""
)

func main() {
	app := cli.NewApp()
	app.Version = fmt.Sprintf("%s-%s-%s", Version, GitCommit, GitDate)
	app.Name = "cargo-acceptor"
	app.Usage = "Cargo Acceptance Tester Service"
	app.Description = "cargo-acceptor runs a project's cargo test suites and streams their results"
	app.Flags = flags.Flags
	app.Action = run
	app.ExitErrHandler = func(c *cli.Context, err error) {
		var exitErr cli.ExitCoder
		if errors.As(err, &exitErr) {
			cli.HandleExitCoder(exitErr)
		} else if err != nil {
			if acceptor.IsRuntimeError(err) {
				cli.HandleExitCoder(cli.Exit(err.Error(), exitcodes.RuntimeErr))
			} else {
				// Test failures and anything unspecified exit with code 1
				cli.HandleExitCoder(cli.Exit(err.Error(), exitcodes.TestFailure))
			}
		}
	}

	// Start telemetry
	otelShutdown, err := otelconfig.ConfigureOpenTelemetry(
		otelconfig.WithServiceName(app.Name),
		otelconfig.WithServiceVersion(app.Version),
	)
	if err != nil {
		log.Crit("Failed to setup open telemetry", "message", err)
	}
	defer otelShutdown()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.RunContext(ctx, os.Args); err != nil {
		log.Crit("Application failed", "message", err)
	}
}

func run(cliCtx *cli.Context) error {
	level, err := acceptor.LevelFromString(cliCtx.String(flags.LogLevel.Name))
	if err != nil {
		return acceptor.NewRuntimeError(err)
	}
	logger := log.NewLogger(log.NewTerminalHandlerWithLevel(os.Stderr, level, false))
	log.SetDefault(logger)

	cfg, err := acceptor.NewConfig(cliCtx, logger)
	if err != nil {
		return acceptor.NewRuntimeError(fmt.Errorf("failed to create config: %w", err))
	}

	svc, err := acceptor.New(cliCtx.Context, cfg, Version)
	if err != nil {
		return acceptor.NewRuntimeError(fmt.Errorf("failed to create service: %w", err))
	}

	startErr := svc.Start(cliCtx.Context)
	if startErr == nil && !cfg.RunOnce {
		// Continuous mode: keep scheduling runs until interrupted.
		<-cliCtx.Context.Done()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := svc.Stop(shutdownCtx); err != nil {
		logger.Error("Failed to stop service cleanly", "error", err)
	}
	return startErr
}
