package graph

import "fmt"

// IntegrityError reports a transition referencing a state id that is not
// in the graph. This is a fatal precondition violation: the caller's
// merge or add operation must abort.
type IntegrityError struct {
	From    string
	To      string
	Missing string
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("graph: transition %s -> %s references unknown state %q", e.From, e.To, e.Missing)
}
