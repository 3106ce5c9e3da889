// Copyright 2025 The WordServe Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package main implements the index lookup server and CLI [DBG] application.

Note: This is a BETA release. APIs and functionality may rapidly change.

WordIndex answers uint32 key lookups against immutable sorted index sets. Each
set is a pair (or triple) of flat little-endian uint32 files: sorted keys,
values parallel to the keys and optionally a secondary values file. Lookups
are binary searches over the arrays, memory mapped by default.

# Usage

Start the server with default settings:

	wordindex

Use custom data directory and enable debug mode:

	wordindex -data /path/to/sets -d

Run in CLI mode for interactive testing:

	wordindex -c -set meanings.text -limit 10

The data directory holds sets such as meanings.text.valIds,
meanings.text.mainIds and meanings.text.parentIds. idxpack builds them from
text.

# Configuration

Runtime configuration is managed through a TOML file:

	[server]
	max_batch = 1024
	reload_every = 500
	metrics_addr = "127.0.0.1:9464"

	[index]
	data_dir = "data/"
	use_mmap = true
	max_open = 16

	[cli]
	default_limit = 24

The config file is automatically created with defaults if it doesn't exist.
Server mode reloads configuration periodically without restart.

# IPC Protocol

The server communicates via MessagePack over stdin/stdout:

	{"id": "req1", "action": "get_all", "set": "meanings.text", "k": 10}
	{"id": "req1", "vs": [1, 2, 3], "c": 3, "t": 6}

See package server for every action.

# Command Line Flags

	-data string
	    Directory containing index sets (default from config)
	-config string
	    Path to config.toml
	-d  Enable debug mode with detailed logging
	-c  Run in CLI mode instead of server mode
	-set string
	    Set used by CLI lookups without an explicit set
	-limit int
	    Number of values printed per lookup in CLI mode
	-mmap
	    Memory map index files (default from config)
	-rebuild-config
	    Overwrite the default config.toml with defaults and exit
*/
package main

import (
	"flag"
	"fmt"
	"maps"
	"os"
	"os/signal"
	"slices"
	"syscall"

	"github.com/bastiangx/wordindex/internal/cli"
	"github.com/bastiangx/wordindex/internal/logger"
	"github.com/bastiangx/wordindex/internal/utils"
	"github.com/bastiangx/wordindex/pkg/config"
	"github.com/bastiangx/wordindex/pkg/dictionary"
	"github.com/bastiangx/wordindex/pkg/metrics"
	"github.com/bastiangx/wordindex/pkg/server"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
)

const (
	Version = "0.3.0-beta"
	AppName = "wordindex"
	gh      = "https://github.com/bastiangx/wordindex"
)

// sigHandler is a simple handler for OS signals to exit normally.
func sigHandler(loader *dictionary.Loader) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		fmt.Fprintf(os.Stderr, "\nExiting...\n")
		if err := loader.Close(); err != nil {
			log.Warnf("Closing index sets: %v", err)
		}
		os.Exit(0)
	}()
}

// main calls other packages to initialize the server or CLI inputs.
// main() does not implement logic for them and only manages the flow.
func main() {
	showVersion := flag.Bool("version", false, "Show current version")
	dataDir := flag.String("data", "", "Directory containing the index sets")
	configFile := flag.String("config", "", "Path to config.toml")
	debugMode := flag.Bool("d", false, "Toggle debug mode")
	cliMode := flag.Bool("c", false, "Run CLI -- useful for testing and debugging")
	defaultSet := flag.String("set", "", "Set used by CLI lookups without an explicit set")
	limit := flag.Int("limit", 0, "Number of values printed per lookup (CLI)")
	useMmap := flag.Bool("mmap", true, "Memory map index files")
	rebuildConfig := flag.Bool("rebuild-config", false, "Overwrite the default config.toml with defaults and exit")

	flag.Parse()

	if *showVersion {
		printVersion()
		os.Exit(0)
	}

	logger.Setup(*debugMode)

	if *rebuildConfig {
		if err := config.RebuildConfigFile(); err != nil {
			log.Fatalf("Failed to rebuild config: %v", err)
		}
		path, _ := config.GetDefaultConfigPath()
		fmt.Fprintf(os.Stderr, "Rebuilt config at %s\n", path)
		return
	}

	appConfig, configPath, err := config.LoadConfigWithPriority(*configFile)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	log.Debugf("Using config file: (%s)", config.GetActiveConfigPath(configPath))

	// explicit flags win over the config file
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "data":
			appConfig.Index.DataDir = *dataDir
		case "mmap":
			appConfig.Index.UseMmap = *useMmap
		case "set":
			appConfig.CLI.DefaultSet = *defaultSet
		case "limit":
			appConfig.CLI.DefaultLimit = *limit
		}
	})
	appConfig.Sanitize()

	pathResolver, err := utils.NewPathResolver(appConfig.Index.KeysExt)
	if err != nil {
		log.Print("Either env is not set or system is not supported")
		log.Fatalf("Failed to initialize path resolver: %v", err)
	}
	if *debugMode {
		info := pathResolver.GetRuntimeInfo()
		kv := make([]any, 0, 2*len(info))
		for _, k := range slices.Sorted(maps.Keys(info)) {
			kv = append(kv, k, info[k])
		}
		log.Debug("Runtime info", kv...)
	}

	resolvedDataDir, err := pathResolver.GetDataDir(appConfig.Index.DataDir)
	if err != nil {
		log.Fatalf("Failed to resolve data dir:(%v)", err)
	}
	log.Debugf("Using data dir at: %s", resolvedDataDir)
	log.Debug("Loader options:",
		"mmap", appConfig.Index.UseMmap,
		"maxOpen", appConfig.Index.MaxOpen,
		"keysExt", appConfig.Index.KeysExt)

	loader := dictionary.NewLoader(resolvedDataDir, appConfig.Index.LoaderOptions())
	sigHandler(loader)
	defer loader.Close()

	sets, err := loader.GetAvailable()
	if err != nil {
		log.Warnf("Failed to scan data dir %s: %v", resolvedDataDir, err)
	} else if len(sets) == 0 {
		log.Warn("No index sets found, every lookup will fail until sets are added...")
	}

	// CLI would be mainly used for testing and dbg purposes.
	if *cliMode {
		log.SetReportTimestamp(false)
		log.Debug("Input info:",
			"set", appConfig.CLI.DefaultSet,
			"limit", appConfig.CLI.DefaultLimit)

		inputHandler := cli.NewInputHandler(loader, appConfig.CLI.DefaultSet, appConfig.CLI.DefaultLimit)
		if err := inputHandler.Start(); err != nil {
			log.Fatalf("CLI error: %v", err)
		}
		return
	}

	log.Debug("spawning IPC")
	srv := server.NewServer(loader, appConfig, configPath)

	if addr := appConfig.Server.MetricsAddr; addr != "" {
		m := metrics.New()
		srv.WithMetrics(m)
		go func() {
			if err := m.Serve(addr); err != nil {
				log.Errorf("Metrics listener on %s stopped: %v", addr, err)
			}
		}()
		log.Debugf("Serving metrics on http://%s/metrics", addr)
	}

	showStartupInfo(resolvedDataDir, len(sets))

	if err := srv.Start(); err != nil {
		log.Fatalf("Server stopped: %v", err)
	}
}

// printVersion prints the styled version banner.
func printVersion() {
	banner := logger.NewWithConfig("", log.InfoLevel, false, false, log.TextFormatter)

	styles := log.DefaultStyles()
	styles.Values["version"] = lipgloss.NewStyle().Bold(true).
		Foreground(lipgloss.AdaptiveColor{Light: "#575279", Dark: "#e0def4"})
	styles.Values["gh"] = lipgloss.NewStyle().Italic(true).
		Foreground(lipgloss.AdaptiveColor{Light: "#575279", Dark: "#e0def4"})
	banner.SetStyles(styles)

	banner.Print("")
	banner.Print("[ WordIndex ] Sorted uint32 index lookups")
	banner.Print("", "version", Version)
	banner.Print("")
	banner.Print("use -h or --help to see available options")
	banner.Print("Github Repo", "gh", gh)
}

// showStartupInfo displays some basic info about the init process on stderr.
func showStartupInfo(dataDir string, sets int) {
	currentLevel := log.GetLevel()
	log.SetLevel(log.InfoLevel)

	fmt.Fprintln(os.Stderr, "===========")
	fmt.Fprintln(os.Stderr, " WordIndex ")
	fmt.Fprintln(os.Stderr, "===========")
	log.Infof("Version: %s", Version)
	log.Infof("Process ID: [ %d ]", os.Getpid())
	log.Infof("data dir: ( %s )", dataDir)
	log.Infof("index sets: %d", sets)
	log.Info("status: ready")
	fmt.Fprintln(os.Stderr, "===========")
	fmt.Fprintln(os.Stderr, "Press Ctrl+C to exit")

	log.SetLevel(currentLevel)
}
