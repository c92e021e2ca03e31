// lmchat - A terminal chat client for local Ollama models.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jeranaias/lmchat/internal/cli"
	"github.com/jeranaias/lmchat/internal/config"
	"github.com/jeranaias/lmchat/internal/index"
	"github.com/jeranaias/lmchat/internal/ollama"
	"github.com/jeranaias/lmchat/internal/session"
	"github.com/jeranaias/lmchat/internal/storage"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func main() {
	var (
		modelFlag   = flag.String("model", "", "model to chat with (overrides config)")
		serverFlag  = flag.String("server", "", "Ollama server URL (overrides config)")
		configFlag  = flag.String("config", "", "config file path (default ~/.lmchat/config.toml)")
		quietFlag   = flag.Bool("quiet", false, "minimal output")
		versionFlag = flag.Bool("version", false, "print version and exit")
	)
	flag.Parse()

	if *versionFlag {
		fmt.Printf("lmchat %s (%s, built %s)\n", Version, GitCommit, BuildDate)
		return
	}

	if err := run(*modelFlag, *serverFlag, *configFlag, *quietFlag); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(modelName, serverURL, configPath string, quiet bool) error {
	if configPath == "" {
		var err error
		configPath, err = config.Path()
		if err != nil {
			return err
		}
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if modelName != "" {
		cfg.DefaultModel = modelName
	}
	if serverURL != "" {
		cfg.Server.URL = serverURL
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	convDir, err := cfg.ConversationsDir()
	if err != nil {
		return err
	}
	store, err := storage.NewStore(convDir)
	if err != nil {
		return err
	}
	if cfg.Storage.MaxConversations > 0 {
		if _, err := store.Prune(cfg.Storage.MaxConversations); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: prune failed: %v\n", err)
		}
	}

	ix, err := index.Open(filepath.Join(filepath.Dir(configPath), "index.db"))
	if err != nil {
		return err
	}
	defer ix.Close()
	if convs, err := store.LoadAll(); err == nil {
		if err := ix.Rebuild(convs); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: index rebuild failed: %v\n", err)
		}
	}

	client := ollama.NewClient(ollama.ClientConfig{
		BaseURL:      cfg.Server.URL,
		DefaultModel: cfg.DefaultModel,
	})
	ctrl := session.NewController(client, store, cfg)

	// Pick up config edits while the REPL runs. The controller swaps the
	// config under its own lock, so the watcher goroutine never writes
	// into a struct a generation is reading.
	watcher, err := config.NewWatcher(configPath, func(next *config.Config) {
		ctrl.SetConfig(next)
	})
	if err == nil {
		if err := watcher.Watch(); err == nil {
			defer watcher.Close()
		} else {
			watcher.Close()
		}
	}

	app := &cli.App{
		Config: cfg,
		Client: client,
		Store:  store,
		Index:  ix,
		Ctrl:   ctrl,
		Quiet:  quiet,
	}
	return app.Run()
}
