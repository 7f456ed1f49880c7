package graph

import "strings"

// ActionType is the verb that triggered a transition.
type ActionType string

const (
	ActionClick    ActionType = "click"
	ActionFill     ActionType = "fill"
	ActionSubmit   ActionType = "submit"
	ActionNavigate ActionType = "navigate"
)

// ValidActionType reports whether a is a known action type.
func ValidActionType(a ActionType) bool {
	switch a {
	case ActionClick, ActionFill, ActionSubmit, ActionNavigate:
		return true
	}
	return false
}

// Transition is one edge: an action that moved the UI from one state to
// another. Re-adding an edge with the same dedup key is a no-op.
type Transition struct {
	From   string     `json:"source"`
	To     string     `json:"target"`
	Action ActionType `json:"action_type"`

	// Target identifies the acted-on element (accessible name or
	// locator); Value carries fill input, nil for value-less actions.
	Target string  `json:"action_target"`
	Value  *string `json:"action_value"`

	// Similarity is the match score observed when the destination state
	// was resolved at creation time.
	Similarity float64 `json:"similarity,omitempty"`
}

// DedupKey identifies the transition: (from, action, target, value).
// A nil Value and an empty-string Value produce distinct keys.
func (t Transition) DedupKey() string {
	var b strings.Builder
	b.WriteString(t.From)
	b.WriteByte('\x1f')
	b.WriteString(string(t.Action))
	b.WriteByte('\x1f')
	b.WriteString(t.Target)
	b.WriteByte('\x1f')
	if t.Value == nil {
		b.WriteString("\x00nil")
	} else {
		b.WriteString(*t.Value)
	}
	return b.String()
}
