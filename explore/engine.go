package explore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hazyhaar/uimap/fingerprint"
	"github.com/hazyhaar/uimap/graph"
)

// Strategy selects the frontier discipline.
type Strategy string

const (
	StrategyDFS Strategy = "dfs"
	StrategyBFS Strategy = "bfs"
)

// Status is the engine lifecycle. It only moves forward.
type Status string

const (
	StatusInit      Status = "init"
	StatusExploring Status = "exploring"
	StatusDone      Status = "done"
	StatusAborted   Status = "aborted"
)

// Config tunes a single exploration run.
type Config struct {
	Strategy  Strategy      `yaml:"strategy" json:"strategy"`
	MaxStates int           `yaml:"max_states" json:"max_states"`
	Budget    time.Duration `yaml:"budget" json:"budget"`

	// Safe overrides the action gate; nil means DefaultSafe.
	Safe SafePredicate `yaml:"-" json:"-"`
}

func (c *Config) defaults() {
	if c.Strategy == "" {
		c.Strategy = StrategyDFS
	}
	if c.MaxStates <= 0 {
		c.MaxStates = 50
	}
	if c.Budget <= 0 {
		c.Budget = 10 * time.Minute
	}
	if c.Safe == nil {
		c.Safe = DefaultSafe
	}
}

// Report summarises a finished run.
type Report struct {
	RootID           string        `json:"root_id"`
	Status           Status        `json:"status"`
	StatesDiscovered int           `json:"states_discovered"`
	TransitionsAdded int           `json:"transitions_added"`
	ActionsAttempted int           `json:"actions_attempted"`
	ActionsSkipped   int           `json:"actions_skipped"`
	ActionsFailed    int           `json:"actions_failed"`
	Elapsed          time.Duration `json:"elapsed"`
}

// Engine walks the UI via a Driver and grows a state graph.
type Engine struct {
	cfg    Config
	drv    Driver
	g      *graph.Graph
	logger *slog.Logger

	status Status
}

// New builds an engine over an already configured graph. The graph may
// carry seed states; the engine only ever adds to it.
func New(drv Driver, g *graph.Graph, cfg Config, logger *slog.Logger) *Engine {
	cfg.defaults()
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		cfg:    cfg,
		drv:    drv,
		g:      g,
		logger: logger,
		status: StatusInit,
	}
}

// Status reports the current lifecycle phase.
func (e *Engine) Status() Status { return e.status }

// Run explores from the driver's current screen until the frontier
// drains or a budget trips. Recoverable driver failures skip the action;
// anything else aborts with a partial graph still intact.
func (e *Engine) Run(ctx context.Context) (*Report, error) {
	start := time.Now()
	rep := &Report{Status: StatusAborted}

	baseStates := e.g.StateCount()
	baseTransitions := e.g.TransitionCount()
	finish := func() {
		rep.StatesDiscovered = e.g.StateCount() - baseStates
		rep.TransitionsAdded = e.g.TransitionCount() - baseTransitions
		rep.Elapsed = time.Since(start)
		rep.Status = e.status
	}

	snap, err := e.drv.CaptureSnapshot(ctx)
	if err != nil {
		e.status = StatusAborted
		finish()
		return rep, fmt.Errorf("explore: initial capture: %w", err)
	}
	root, _, _ := e.g.MatchOrCreate(fingerprint.Extract(snap), "")
	rep.RootID = root.ID

	// curID tracks which graph state the driver is presumed to be on;
	// empty means unknown and forces a reposition.
	curID := root.ID

	fr := newFrontier(e.cfg.Strategy)
	fr.Push(root.ID, snap.URL, e.candidates(snap, rep))
	e.status = StatusExploring
	e.logger.Info("explore: run started",
		"root", root.ID,
		"strategy", string(e.cfg.Strategy),
		"max_states", e.cfg.MaxStates)

	deadline := start.Add(e.cfg.Budget)

	for {
		cur := fr.Next()
		if cur == nil {
			e.status = StatusDone
			break
		}
		if e.g.StateCount() >= e.cfg.MaxStates {
			e.logger.Info("explore: state budget reached", "states", e.g.StateCount())
			e.status = StatusDone
			break
		}
		if time.Now().After(deadline) {
			e.logger.Info("explore: time budget exhausted", "elapsed", time.Since(start))
			e.status = StatusDone
			break
		}
		if err := ctx.Err(); err != nil {
			e.status = StatusAborted
			finish()
			return rep, fmt.Errorf("explore: %w", err)
		}

		if curID != cur.stateID {
			if _, err := e.drv.Navigate(ctx, cur.url); err != nil {
				var derr *DriverError
				if !errors.As(err, &derr) {
					e.status = StatusAborted
					finish()
					return rep, fmt.Errorf("explore: reposition on %s: %w", cur.stateID, err)
				}
				// Unreachable state: abandon its remaining actions.
				rep.ActionsFailed++
				e.logger.Warn("explore: reposition failed, abandoning state",
					"state", cur.stateID, "url", cur.url, "error", err)
				cur.next = len(cur.actions)
				curID = ""
				continue
			}
			curID = cur.stateID
		}

		act := cur.actions[cur.next]
		cur.next++
		fr.Rotate()

		rep.ActionsAttempted++
		resSnap, err := e.drv.Execute(ctx, act)
		if err != nil {
			var derr *DriverError
			if errors.As(err, &derr) {
				rep.ActionsFailed++
				e.logger.Warn("explore: action failed, skipping",
					"state", cur.stateID,
					"action", string(act.Type),
					"target", act.Target,
					"error", err)
				continue
			}
			e.status = StatusAborted
			finish()
			return rep, fmt.Errorf("explore: execute %s on %q: %w", act.Type, act.Target, err)
		}

		res, _, sim := e.g.MatchOrCreate(fingerprint.Extract(resSnap), "")
		tr := graph.Transition{
			From:       cur.stateID,
			To:         res.ID,
			Action:     act.Type,
			Target:     act.Target,
			Value:      act.Value,
			Similarity: sim,
		}
		if _, err := e.g.AddTransition(tr); err != nil {
			e.status = StatusAborted
			finish()
			return rep, fmt.Errorf("explore: record transition: %w", err)
		}
		// Seeded graphs resolve known screens to existing states; those
		// still enter the frontier so screens behind them are reachable.
		if !fr.Known(res.ID) {
			fr.Push(res.ID, resSnap.URL, e.candidates(resSnap, rep))
		}

		curID = res.ID
		if res.ID != cur.stateID {
			if _, err := e.drv.GoBack(ctx); err != nil {
				var derr *DriverError
				if !errors.As(err, &derr) {
					e.status = StatusAborted
					finish()
					return rep, fmt.Errorf("explore: go back from %s: %w", res.ID, err)
				}
				rep.ActionsFailed++
				e.logger.Warn("explore: go back failed", "from", res.ID, "error", err)
				curID = ""
				continue
			}
			curID = cur.stateID
		}
	}

	finish()
	e.logger.Info("explore: run finished",
		"status", string(e.status),
		"states", rep.StatesDiscovered,
		"transitions", rep.TransitionsAdded,
		"attempted", rep.ActionsAttempted,
		"failed", rep.ActionsFailed,
		"elapsed", rep.Elapsed.String())
	return rep, nil
}

// candidates filters the driver's action list through the safety gate.
func (e *Engine) candidates(snap *fingerprint.Snapshot, rep *Report) []Action {
	all := e.drv.ListCandidateActions(snap)
	out := make([]Action, 0, len(all))
	for _, act := range all {
		if !e.cfg.Safe(act) {
			rep.ActionsSkipped++
			e.logger.Debug("explore: action rejected as unsafe",
				"action", string(act.Type), "target", act.Target)
			continue
		}
		out = append(out, act)
	}
	return out
}
