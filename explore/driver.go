// Package explore drives state-space traversal of a live UI. The engine
// walks a frontier of (state, pending action) pairs against an abstract
// Driver, using the state graph to recognise screens it has already seen
// and to decide when to stop.
//
// Exploration is single-threaded and cooperative: one Driver call is in
// flight at a time, and every call is a suspension point with a budget
// check in front of it. An action changes the live screen, so there is
// no useful concurrency to extract here.
package explore

import (
	"context"
	"fmt"

	"github.com/hazyhaar/uimap/fingerprint"
	"github.com/hazyhaar/uimap/graph"
)

// Action is one candidate interaction on a screen.
type Action struct {
	Type graph.ActionType `json:"type"`

	// Target identifies the element to act on, as the driver understands
	// it (accessible name or locator).
	Target string `json:"target"`

	// Value is the input for fill actions; nil otherwise.
	Value *string `json:"value,omitempty"`
}

// Driver abstracts the browser. The engine never inspects browser
// internals beyond this contract. Implementations live in adapter
// packages (axdriver, htmlsnap-based fakes in tests).
type Driver interface {
	// CaptureSnapshot captures the current screen.
	CaptureSnapshot(ctx context.Context) (*fingerprint.Snapshot, error)

	// Navigate loads a URL directly and captures the resulting screen.
	// The engine uses it to reposition on a frontier state before
	// running that state's next action.
	Navigate(ctx context.Context, url string) (*fingerprint.Snapshot, error)

	// ListCandidateActions enumerates interactions visible in the
	// snapshot, in a fixed deterministic order.
	ListCandidateActions(snap *fingerprint.Snapshot) []Action

	// Execute performs an action and captures the resulting screen.
	// Recoverable failures are reported as *DriverError.
	Execute(ctx context.Context, act Action) (*fingerprint.Snapshot, error)

	// GoBack restores the previous screen (history back or equivalent)
	// and captures it.
	GoBack(ctx context.Context) (*fingerprint.Snapshot, error)
}

// DriverError is a recoverable driver failure: the action is skipped and
// exploration continues.
type DriverError struct {
	Op  string // "execute", "capture", "goback", "navigate"
	Err error
}

func (e *DriverError) Error() string {
	return fmt.Sprintf("driver: %s: %v", e.Op, e.Err)
}

func (e *DriverError) Unwrap() error { return e.Err }
