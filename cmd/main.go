// FilePath: cmd/main.go
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	tm "github.com/buger/goterm"
	"github.com/joho/godotenv"
	"github.com/pondworks/pondgate/internal/config"
	"github.com/pondworks/pondgate/internal/connect"
	"github.com/pondworks/pondgate/internal/gateway"
	"github.com/pondworks/pondgate/internal/monitoring"
	"github.com/pondworks/pondgate/internal/server"
	nuts "github.com/vaudience/go-nuts"
)

func main() {
	// Clear console and draw logo
	ClearConsole()
	DrawLogo()
	// Initialize version info
	nuts.InitVersion()
	nuts.L.Infof("[Main] Starting PondGate v%s", nuts.GetVersion())

	// A .env file is optional; real deployments inject the environment.
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metrics := monitoring.NewService()
	conn := connect.NewManager(cfg.Gateway.MaxRetries, cfg.Gateway.RetryDelay)
	gw := gateway.New(cfg, conn, metrics)

	// All-or-nothing startup: transport, cache, and time-series store
	// must all report healthy before the loop consumes anything.
	if err := gw.Startup(ctx); err != nil {
		nuts.L.Errorf("[Main] Startup failed: %v", err)
		os.Exit(1)
	}

	srv := server.New(&cfg.Server, gw.StatusReader(), gw.MetricsReader(), metrics, gw.Dependencies())
	srvErrs := srv.Start()

	// The loop gets its own lifetime so that on a shutdown signal the
	// HTTP surface can drain first, while the gateway still holds live
	// cache and store clients. Only then is the loop told to stop.
	loopCtx, stopLoop := context.WithCancel(context.Background())
	defer stopLoop()

	runErrs := make(chan error, 1)
	go func() {
		runErrs <- gw.Run(loopCtx)
	}()

	if err := awaitShutdown(ctx, srv, stopLoop, srvErrs, runErrs); err != nil {
		nuts.L.Errorf("[Main] Shutdown error: %v", err)
		os.Exit(1)
	}
	nuts.L.Infof("[Main] Goodbye")
}

type shutdowner interface {
	Shutdown() error
}

// awaitShutdown blocks until the signal context fires or one of the two
// long-lived components fails, then tears down in order: HTTP server
// first, ingestion loop (and its clients) last.
func awaitShutdown(ctx context.Context, srv shutdowner, stopLoop context.CancelFunc, srvErrs, runErrs <-chan error) error {
	select {
	case <-ctx.Done():
		shutdownErr := srv.Shutdown()
		stopLoop()
		if err := <-runErrs; err != nil {
			return err
		}
		return shutdownErr
	case err := <-srvErrs:
		nuts.L.Errorf("[Main] HTTP server error: %v", err)
		stopLoop()
		<-runErrs
		return err
	case err := <-runErrs:
		if shutdownErr := srv.Shutdown(); err == nil {
			err = shutdownErr
		}
		return err
	}
}

// ClearConsole clears the console screen and draws the logo.
func ClearConsole() {
	tm.Clear()
	tm.MoveCursor(1, 1)
	tm.Flush()
}

func DrawLogo() {
	fmt.Println()
	lines := []string{
		"    ____                  ______      __     ",
		"   / __ \\____  ____  ____/ / ___/____/ /____ ",
		"  / /_/ / __ \\/ __ \\/ __  / / __/ __ `/ __/ _ \\",
		" / ____/ /_/ / / / / /_/ / /_/ / /_/ / /_/  __/",
		"/_/    \\____/_/ /_/\\__,_/\\____/\\__,_/\\__/\\___/ ",
		"..............................................  " + nuts.GetVersion(),
	}

	for _, line := range lines {
		fmt.Println(line)
	}
}
