// Command uimap discovers the screen map of a web UI and exports it as
// a state/transition graph.
//
// Usage:
//
//	uimap -config uimap.yaml                 # full run from YAML config
//	uimap -url https://app.example           # quick run with defaults
//	uimap -url https://app.example -seed previous.json -out next.json
//	uimap -serve :8080 -config uimap.yaml    # run, then serve the graph API
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "modernc.org/sqlite"

	"github.com/hazyhaar/uimap/discovery"
	"github.com/hazyhaar/uimap/explore"
)

func main() {
	configPath := flag.String("config", "", "path to uimap.yaml config file")
	baseURL := flag.String("url", "", "base URL of the UI to discover")
	seedPath := flag.String("seed", "", "seed graph JSON from a previous run")
	outPath := flag.String("out", "", "output path for the exported graph")
	strategy := flag.String("strategy", "", "exploration strategy: dfs or bfs")
	maxStates := flag.Int("max-states", 0, "stop after discovering this many states")
	budget := flag.Duration("budget", 0, "wall-clock exploration budget")
	serveAddr := flag.String("serve", "", "serve the graph HTTP API on this address after the run")
	logLevel := flag.String("log-level", "info", "log level: debug, info, warn, error")
	flag.Parse()

	var level slog.Level
	switch *logLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := buildConfig(*configPath, *baseURL, *seedPath, *outPath, *strategy, *maxStates, *budget, *serveAddr)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		flag.Usage()
		os.Exit(2)
	}

	if err := run(ctx, logger, cfg); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("uimap: fatal", "error", err)
		os.Exit(1)
	}
}

// buildConfig merges config file and flags; flags win.
func buildConfig(configPath, baseURL, seedPath, outPath, strategy string, maxStates int, budget time.Duration, serveAddr string) (*discovery.Config, error) {
	var cfg *discovery.Config
	if configPath != "" {
		loaded, err := discovery.LoadConfigFile(configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	} else {
		cfg = &discovery.Config{}
	}

	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if seedPath != "" {
		cfg.SeedPath = seedPath
	}
	if outPath != "" {
		cfg.OutPath = outPath
	}
	if strategy != "" {
		cfg.Explore.Strategy = explore.Strategy(strategy)
	}
	if maxStates > 0 {
		cfg.Explore.MaxStates = maxStates
	}
	if budget > 0 {
		cfg.Explore.Budget = budget
	}
	if serveAddr != "" {
		cfg.HTTPAddr = serveAddr
	}

	if cfg.BaseURL == "" {
		return nil, errors.New("uimap: -url or a config file with base_url is required")
	}
	switch cfg.Explore.Strategy {
	case "", explore.StrategyDFS, explore.StrategyBFS:
	default:
		return nil, fmt.Errorf("uimap: unknown strategy %q", cfg.Explore.Strategy)
	}
	return cfg, nil
}

func run(ctx context.Context, logger *slog.Logger, cfg *discovery.Config) error {
	d, err := discovery.New(cfg, discovery.WithLogger(logger))
	if err != nil {
		return err
	}
	defer d.Close()

	rep, err := d.Run(ctx)
	if err != nil {
		return err
	}
	logger.Info("uimap: discovery finished",
		"status", string(rep.Status),
		"root", rep.RootID,
		"states", rep.StatesDiscovered,
		"transitions", rep.TransitionsAdded,
		"failed_actions", rep.ActionsFailed,
		"elapsed", rep.Elapsed.String())

	if cfg.HTTPAddr == "" {
		return nil
	}

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: d.Router()}
	go func() {
		<-ctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutCtx)
	}()

	logger.Info("uimap: serving graph API", "addr", cfg.HTTPAddr)
	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
