// Package graph owns the discovered state machine: UI states keyed by
// stable string ids, transitions keyed by their dedup tuple, and the
// match-or-create operation that keeps near-identical screens from
// producing duplicate states.
//
// The graph is additive. States and transitions are never removed during
// a run; pruning is a separate concern. Mutation happens from a single
// goroutine (the exploration engine, or the merger strictly after it),
// so the graph carries no locks.
package graph

import (
	"time"

	"github.com/hazyhaar/uimap/fingerprint"
)

// StateType classifies a discovered state.
type StateType string

const (
	StateForm        StateType = "form"
	StateDashboard   StateType = "dashboard"
	StateList        StateType = "list"
	StateDetail      StateType = "detail"
	StateError       StateType = "error"
	StateInteractive StateType = "interactive"
	StateUnknown     StateType = "unknown"
)

// ValidStateType reports whether s is a known state type.
func ValidStateType(s StateType) bool {
	switch s {
	case StateForm, StateDashboard, StateList, StateDetail,
		StateError, StateInteractive, StateUnknown:
		return true
	}
	return false
}

// State is one verifiable UI state. The id is unique and stable once
// assigned; only Metadata, ElementDescriptors and LastConfirmedAt are
// refreshed after creation.
type State struct {
	ID          string                  `json:"id"`
	Type        StateType               `json:"state_type"`
	Fingerprint fingerprint.Fingerprint `json:"fingerprint"`

	// DiscoveredManually is tri-state: seeded graphs may carry true,
	// false, or no value at all. Loads preserve it verbatim.
	DiscoveredManually *bool `json:"discovered_manually,omitempty"`

	// ElementDescriptors lists the actionable elements observed on this
	// state across all confirmations (self-healing: later visits append
	// elements the first capture missed).
	ElementDescriptors []fingerprint.Element `json:"element_descriptors,omitempty"`

	Metadata map[string]string `json:"metadata,omitempty"`

	CreatedAt       time.Time `json:"-"`
	LastConfirmedAt time.Time `json:"-"`
}

// absorbElements appends actionable elements not already recorded,
// keyed by (role, name).
func (s *State) absorbElements(els []fingerprint.Element) {
	known := make(map[string]bool, len(s.ElementDescriptors))
	for _, e := range s.ElementDescriptors {
		known[e.Role+"|"+e.Name] = true
	}
	for _, e := range els {
		if !known[e.Role+"|"+e.Name] {
			s.ElementDescriptors = append(s.ElementDescriptors, e)
			known[e.Role+"|"+e.Name] = true
		}
	}
}
