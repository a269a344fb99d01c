/*
Cumulus demo: opens a window and drives the immediate-mode UI backend with
the testbed game.
*/
package main

import (
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/spaghettifunk/cumulus/engine"
	"github.com/spaghettifunk/cumulus/engine/core"
	"github.com/spaghettifunk/cumulus/testbed"
)

func main() {
	configPath := flag.String("config", "cumulus.toml", "path to the configuration file")
	flag.Parse()

	cfg, err := core.LoadConfig(*configPath)
	if err != nil {
		core.LogFatal("failed to load config: %s", err)
	}
	if err := core.SetLogLevel(cfg.Log.Level); err != nil {
		core.LogWarn("%s, keeping the default level", err)
	}

	tb, err := testbed.NewTestGame(cfg)
	if err != nil {
		core.LogFatal("failed to create testbed: %s", err)
	}

	engine, err := engine.New(tb.Game)
	if err != nil {
		core.LogFatal("failed to create engine: %s", err)
	}

	if err := engine.Initialize(); err != nil {
		core.LogError("failed to initialize engine: %s", err)
		if err := engine.Shutdown(); err != nil {
			core.LogError("shutdown: %s", err)
		}
		os.Exit(1)
	}

	// signal channel to capture system calls
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT, syscall.SIGQUIT)

	// glfw is main-thread only, so the handler just asks the loop to stop
	go func() {
		<-sigCh
		engine.Quit()
	}()

	runErr := engine.Run()
	if runErr != nil {
		core.LogError("engine stopped: %s", runErr)
	}
	if err := engine.Shutdown(); err != nil {
		core.LogError("shutdown: %s", err)
	}
	if runErr != nil {
		os.Exit(1)
	}
}
