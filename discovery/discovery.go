// Package discovery wires the full pipeline: seed loading, browser
// driving, exploration, and persistence of the resulting UI graph.
// One Discovery owns one session; construct per run target, discard
// when done.
package discovery

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/hazyhaar/uimap/axdriver"
	"github.com/hazyhaar/uimap/discovery/internal/store"
	"github.com/hazyhaar/uimap/explore"
	"github.com/hazyhaar/uimap/graph"
	"github.com/hazyhaar/uimap/idgen"
	"github.com/hazyhaar/uimap/seed"
	"github.com/hazyhaar/uimap/similarity"
)

// DriverFactory produces a started Driver for a run and its teardown.
type DriverFactory func(ctx context.Context, startURL string) (explore.Driver, func() error, error)

// Discovery orchestrates discovery runs against one base URL.
type Discovery struct {
	cfg    *Config
	log    *slog.Logger
	st     *store.Store
	ids    idgen.Generator
	driver DriverFactory

	mu      sync.RWMutex
	lastDoc *seed.Document
	lastRun string
}

// Option configures a Discovery.
type Option func(*Discovery)

// WithLogger overrides the default slog logger.
func WithLogger(l *slog.Logger) Option {
	return func(d *Discovery) { d.log = l }
}

// WithStore injects an opened store. The caller keeps ownership.
func WithStore(s *store.Store) Option {
	return func(d *Discovery) { d.st = s }
}

// WithDriverFactory replaces the default Rod browser driver. Tests use
// it to explore scripted fakes.
func WithDriverFactory(f DriverFactory) Option {
	return func(d *Discovery) { d.driver = f }
}

// WithIDGenerator overrides run id generation.
func WithIDGenerator(g idgen.Generator) Option {
	return func(d *Discovery) { d.ids = g }
}

// New creates a Discovery. The store database is opened here unless one
// was injected.
func New(cfg *Config, opts ...Option) (*Discovery, error) {
	cfg.defaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	d := &Discovery{
		cfg: cfg,
		log: slog.Default(),
		ids: idgen.Prefixed("run_", idgen.UUIDv7()),
	}
	for _, o := range opts {
		o(d)
	}

	if d.st == nil {
		st, err := store.Open(cfg.DBPath)
		if err != nil {
			return nil, fmt.Errorf("discovery: open store: %w", err)
		}
		d.st = st
	}
	if d.driver == nil {
		d.driver = func(ctx context.Context, startURL string) (explore.Driver, func() error, error) {
			bcfg := cfg.Browser
			bcfg.Logger = d.log
			drv := axdriver.New(bcfg)
			if err := drv.Start(ctx, startURL); err != nil {
				return nil, nil, err
			}
			return drv, drv.Close, nil
		}
	}
	return d, nil
}

// Close releases the store.
func (d *Discovery) Close() error {
	return d.st.Close()
}

// Run executes one discovery run: build the (optionally seeded) graph,
// explore, persist, export. The partial graph is persisted even when
// the run aborts.
func (d *Discovery) Run(ctx context.Context) (*explore.Report, error) {
	g, err := d.buildGraph()
	if err != nil {
		return nil, err
	}

	drv, teardown, err := d.driver(ctx, d.cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("discovery: start driver: %w", err)
	}
	defer func() {
		if cerr := teardown(); cerr != nil {
			d.log.Warn("discovery: driver teardown failed", "error", cerr)
		}
	}()

	runID := d.ids()
	run := &store.Run{
		ID:        runID,
		BaseURL:   d.cfg.BaseURL,
		Strategy:  string(d.cfg.Explore.Strategy),
		Status:    string(explore.StatusExploring),
		StartedAt: time.Now().UTC(),
	}
	if run.Strategy == "" {
		run.Strategy = string(explore.StrategyDFS)
	}
	if err := d.st.CreateRun(ctx, run); err != nil {
		return nil, err
	}
	d.log.Info("discovery: run started",
		"run_id", runID, "base_url", d.cfg.BaseURL, "seeded", d.cfg.SeedPath != "")

	eng := explore.New(drv, g, d.cfg.Explore, d.log)
	rep, runErr := eng.Run(ctx)

	if err := d.persist(run, g, rep, runErr); err != nil {
		d.log.Error("discovery: persist failed", "run_id", runID, "error", err)
		if runErr == nil {
			runErr = err
		}
	}
	return rep, runErr
}

// buildGraph assembles the scoring stack and loads the seed when
// configured. Seed problems are fatal before any exploration.
func (d *Discovery) buildGraph() (*graph.Graph, error) {
	scorer, err := similarity.New(d.cfg.Weights)
	if err != nil {
		return nil, fmt.Errorf("discovery: weights: %w", err)
	}
	opts := []graph.Option{
		graph.WithScorer(scorer),
		graph.WithThreshold(d.cfg.Threshold),
		graph.WithLogger(d.log),
	}

	if d.cfg.SeedPath == "" {
		return graph.New(opts...), nil
	}
	g, err := seed.LoadFile(d.cfg.SeedPath, opts...)
	if err != nil {
		return nil, err
	}
	d.log.Info("discovery: seed loaded",
		"path", d.cfg.SeedPath, "states", g.StateCount(), "transitions", g.TransitionCount())
	return g, nil
}

func (d *Discovery) persist(run *store.Run, g *graph.Graph, rep *explore.Report, runErr error) error {
	// Persistence uses a fresh context: the run context may already be
	// cancelled and the partial graph must survive.
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	doc := seed.Serialize(g, d.cfg.BaseURL)
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("discovery: marshal graph: %w", err)
	}
	if err := d.st.SaveGraph(ctx, run.ID, d.cfg.BaseURL, string(data),
		g.StateCount(), g.TransitionCount()); err != nil {
		return err
	}

	now := time.Now().UTC()
	run.FinishedAt = &now
	run.Status = string(explore.StatusAborted)
	if rep != nil {
		run.Status = string(rep.Status)
		run.RootState = rep.RootID
		run.States = rep.StatesDiscovered
		run.Transitions = rep.TransitionsAdded
		run.ActionsAttempted = rep.ActionsAttempted
		run.ActionsFailed = rep.ActionsFailed
	}
	if runErr != nil {
		run.Error = runErr.Error()
	}
	if err := d.st.FinishRun(ctx, run); err != nil {
		return err
	}

	if d.cfg.OutPath != "" {
		if err := seed.WriteFile(d.cfg.OutPath, g, d.cfg.BaseURL); err != nil {
			return err
		}
	}

	d.mu.Lock()
	d.lastDoc = doc
	d.lastRun = run.ID
	d.mu.Unlock()

	d.log.Info("discovery: run persisted",
		"run_id", run.ID, "status", run.Status,
		"states", g.StateCount(), "transitions", g.TransitionCount(),
		"out", d.cfg.OutPath)
	return nil
}

// Document returns the latest exported graph, or nil before the first
// completed run.
func (d *Discovery) Document() *seed.Document {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.lastDoc
}

// LastRunID returns the id of the latest persisted run.
func (d *Discovery) LastRunID() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.lastRun
}
