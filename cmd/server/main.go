// The server command runs the relay: it wires the config, logger,
// database, and webhook bridge together and serves game connections
// until interrupted.
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/opencw/brazier/internal/bridge"
	"github.com/opencw/brazier/internal/core"
	"github.com/opencw/brazier/internal/core/data"
	"github.com/opencw/brazier/internal/core/debug"
	"github.com/opencw/brazier/internal/relay"
	"github.com/opencw/brazier/internal/web"
)

var configFlag = flag.String("config", "./", "Path to the directory containing the server config file")

func main() {
	flag.Parse()

	config := core.LoadConfig(*configFlag)
	fmt.Println("using configuration file:", *configFlag)

	logger, err := core.NewLogger(config)
	if err != nil {
		fmt.Println("error initializing logger:", err)
		os.Exit(1)
	}

	if config.Debugging.PprofEnabled {
		debug.StartPprofServer(logger, config.Debugging.PprofPort)
	}

	var dataSource string
	switch config.Database.Engine {
	case "sqlite":
		dataSource = config.Database.Filename
	case "postgres":
		dataSource = config.DatabaseURL()
	default:
		logger.Fatalf("unsupported database engine: %s", config.Database.Engine)
	}
	db, err := data.Initialize(config.Database.Engine, dataSource, config.Debugging.DatabaseLoggingEnabled)
	if err != nil {
		logger.Fatalf("error connecting to database: %v", err)
	}
	defer func() {
		if err := data.Shutdown(db); err != nil {
			logger.Errorf("error closing database: %v", err)
		}
	}()

	notifier := bridge.NewNotifier(config.Bridge.WebhookURL, config.Bridge.AdminWebhookURL, logger)
	defer notifier.Close()

	server := relay.NewServer(config, logger, db, notifier)
	web.Serve(logger, server, config.Web.HTTPPort)

	// Shut down on Ctrl-C so the deferred cleanup runs.
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)

	errs := make(chan error, 1)
	go func() { errs <- server.ListenAndServe() }()

	select {
	case err := <-errs:
		logger.Errorf("server exited: %v", err)
	case <-interrupt:
		logger.Info("shutting down")
	}
}
