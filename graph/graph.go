package graph

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/hazyhaar/uimap/fingerprint"
	"github.com/hazyhaar/uimap/similarity"
)

// Graph holds discovered states and transitions. States keep insertion
// order for deterministic tie-breaking; transitions keep an O(1) dedup
// index over their key tuple.
type Graph struct {
	states      []*State
	byID        map[string]*State
	transitions []*Transition
	seenEdges   map[string]struct{}

	scorer    *similarity.Scorer
	threshold float64
	slugSeq   map[string]int
	logger    *slog.Logger
	now       func() time.Time
}

// Option configures a Graph.
type Option func(*Graph)

// WithScorer overrides the default-weight scorer.
func WithScorer(s *similarity.Scorer) Option {
	return func(g *Graph) { g.scorer = s }
}

// WithThreshold sets the match threshold. Default: similarity.DefaultThreshold.
func WithThreshold(t float64) Option {
	return func(g *Graph) { g.threshold = t }
}

// WithLogger overrides the default slog logger.
func WithLogger(l *slog.Logger) Option {
	return func(g *Graph) { g.logger = l }
}

// WithClock overrides the timestamp source. Used in tests.
func WithClock(now func() time.Time) Option {
	return func(g *Graph) { g.now = now }
}

// New creates an empty graph.
func New(opts ...Option) *Graph {
	g := &Graph{
		byID:      map[string]*State{},
		seenEdges: map[string]struct{}{},
		scorer:    similarity.MustNew(similarity.DefaultWeights()),
		threshold: similarity.DefaultThreshold,
		slugSeq:   map[string]int{},
		logger:    slog.Default(),
		now:       time.Now,
	}
	for _, o := range opts {
		o(g)
	}
	return g
}

// Threshold returns the configured match threshold.
func (g *Graph) Threshold() float64 { return g.threshold }

// Scorer returns the configured scorer.
func (g *Graph) Scorer() *similarity.Scorer { return g.scorer }

// States returns the states in insertion order. Callers must not mutate
// the slice.
func (g *Graph) States() []*State { return g.states }

// Transitions returns the transitions in insertion order.
func (g *Graph) Transitions() []*Transition { return g.transitions }

// Get returns a state by id, or nil.
func (g *Graph) Get(id string) *State { return g.byID[id] }

// StateCount returns the number of states.
func (g *Graph) StateCount() int { return len(g.states) }

// TransitionCount returns the number of transitions.
func (g *Graph) TransitionCount() int { return len(g.transitions) }

// MatchOrCreate resolves a fingerprint to a state. It scans all existing
// states, picks the maximum score, and returns the match when it reaches
// the threshold (refreshing LastConfirmedAt and absorbing newly observed
// actionable elements). Otherwise it allocates a new state with a
// slug-derived id. Ties at the maximum are broken toward the
// earliest-inserted state and logged.
//
// O(states) per call. Discovered graphs stay in the tens-to-hundreds
// range, so no index is kept.
func (g *Graph) MatchOrCreate(fp fingerprint.Fingerprint, hint StateType) (*State, bool, float64) {
	var best *State
	bestScore := -1.0
	ties := 0

	for _, st := range g.states {
		score := g.scorer.Score(fp, st.Fingerprint)
		if score > bestScore {
			best = st
			bestScore = score
			ties = 1
		} else if score == bestScore {
			ties++
		}
	}

	if best != nil && bestScore >= g.threshold {
		if ties > 1 {
			g.logger.Warn("graph: ambiguous match, earliest state wins",
				"state_id", best.ID, "score", bestScore, "tied", ties)
		}
		best.LastConfirmedAt = g.now()
		best.absorbElements(fp.Functional.Elements())
		return best, false, bestScore
	}

	st := g.newState(fp, hint)
	if bestScore < 0 {
		bestScore = 0
	}
	return st, true, bestScore
}

// Match scans for the best-scoring state without creating one. ok is
// true when the best score reaches the threshold.
func (g *Graph) Match(fp fingerprint.Fingerprint) (st *State, score float64, ok bool) {
	for _, cand := range g.states {
		if s := g.scorer.Score(fp, cand.Fingerprint); s > score {
			st = cand
			score = s
		}
	}
	if st == nil || score < g.threshold {
		return nil, score, false
	}
	return st, score, true
}

func (g *Graph) newState(fp fingerprint.Fingerprint, hint StateType) *State {
	stype, slug := Classify(fp)
	if hint != "" && hint != StateUnknown {
		stype = hint
	}

	now := g.now()
	st := &State{
		ID:                 g.nextID(slug),
		Type:               stype,
		Fingerprint:        fp,
		ElementDescriptors: fp.Functional.Elements(),
		CreatedAt:          now,
		LastConfirmedAt:    now,
	}
	g.insertState(st)
	return st
}

// nextID allocates "V_<SLUG>" on first use of a slug, then suffixes a
// monotonic counter: V_DEVICES, V_DEVICES_2, V_DEVICES_3.
func (g *Graph) nextID(slug string) string {
	for {
		g.slugSeq[slug]++
		id := "V_" + slug
		if n := g.slugSeq[slug]; n > 1 {
			id = fmt.Sprintf("%s_%d", id, n)
		}
		if _, taken := g.byID[id]; !taken {
			return id
		}
		// Seeded graphs may already hold this id; keep counting.
	}
}

// InsertSeed inserts a state verbatim, preserving its id, type, metadata
// and discovered-manually flag. Used by seeding; the id must be free.
func (g *Graph) InsertSeed(st *State) error {
	if st.ID == "" {
		return fmt.Errorf("graph: seed state without id")
	}
	if _, exists := g.byID[st.ID]; exists {
		return fmt.Errorf("graph: duplicate seed state id %q", st.ID)
	}
	if st.CreatedAt.IsZero() {
		st.CreatedAt = g.now()
	}
	if st.LastConfirmedAt.IsZero() {
		st.LastConfirmedAt = st.CreatedAt
	}
	g.insertState(st)
	return nil
}

func (g *Graph) insertState(st *State) {
	g.states = append(g.states, st)
	g.byID[st.ID] = st
}

// AddTransition appends an edge. Duplicate dedup keys are a no-op and
// return (false, nil). Unknown endpoints are fatal (*IntegrityError).
func (g *Graph) AddTransition(t Transition) (bool, error) {
	if _, ok := g.byID[t.From]; !ok {
		return false, &IntegrityError{From: t.From, To: t.To, Missing: t.From}
	}
	if _, ok := g.byID[t.To]; !ok {
		return false, &IntegrityError{From: t.From, To: t.To, Missing: t.To}
	}

	key := t.DedupKey()
	if _, seen := g.seenEdges[key]; seen {
		return false, nil
	}
	g.seenEdges[key] = struct{}{}
	tc := t
	g.transitions = append(g.transitions, &tc)
	return true, nil
}

// HasTransition reports whether the dedup key is already present.
func (g *Graph) HasTransition(t Transition) bool {
	_, seen := g.seenEdges[t.DedupKey()]
	return seen
}

// StateTypeDistribution counts states per type. Read-only diagnostic.
func (g *Graph) StateTypeDistribution() map[StateType]int {
	dist := map[StateType]int{}
	for _, st := range g.states {
		dist[st.Type]++
	}
	return dist
}
