package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/claude/liftplan/internal/config"
	"github.com/claude/liftplan/internal/logging"
	liftmcp "github.com/claude/liftplan/internal/mcp"
	"github.com/claude/liftplan/internal/profiles"
	"github.com/claude/liftplan/internal/storage"
	"github.com/mark3labs/mcp-go/server"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	configPath := flag.String("config", "", "path to config file (defaults apply when empty)")
	remoteURL := flag.String("url", "", "base URL of a running liftplan server; reads local storage when empty")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// stdout carries the MCP protocol; logs go to stderr.
	log, logCloser := logging.NewWithWriter(cfg.Log, os.Stderr)
	defer logCloser.Close()

	var ds liftmcp.DataSource
	if *remoteURL != "" {
		ds = liftmcp.NewHTTPClient(*remoteURL)
		log.Info("mcp using remote server", "url", *remoteURL)
	} else {
		store, err := storage.Open(context.Background(), storage.OptionsFromConfig(cfg))
		if err != nil {
			log.Error("failed to open storage", "error", err)
			os.Exit(1)
		}
		defer store.Close()
		ds = profiles.NewService(store, log)
		log.Info("mcp using local storage", "driver", cfg.Storage.Driver)
	}

	s := liftmcp.New(ds, Version, log)
	if err := server.ServeStdio(s); err != nil {
		log.Error("mcp server stopped", "error", err)
		os.Exit(1)
	}
}
