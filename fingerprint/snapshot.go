// Package fingerprint turns abstract UI snapshots into multi-dimensional,
// comparable fingerprints. The accessibility tree is the primary identity
// source: semantic structure survives CSS and DOM restructuring, so two
// captures of the same screen fingerprint alike even after a redesign.
//
// The package is driver-agnostic. It consumes the Snapshot shape below;
// adapters (axdriver, htmlsnap) convert their native capture into it.
package fingerprint

// Snapshot is a captured view of one screen: the accessibility tree plus
// page-level properties. Adapters fill it; Extract consumes it.
type Snapshot struct {
	URL   string `json:"url"`
	Title string `json:"title"`
	Root  *Node  `json:"root,omitempty"`

	// HTML is the raw markup, used only for the low-weight style hash.
	// Optional; adapters that cannot capture it leave it nil.
	HTML []byte `json:"-"`
}

// Node is one accessibility-tree node. ARIA states are pointers so that
// "attribute absent" and "attribute false" stay distinguishable.
type Node struct {
	Role  string `json:"role"`
	Name  string `json:"name,omitempty"`
	Level int    `json:"level,omitempty"` // heading level, 0 otherwise
	Value string `json:"value,omitempty"`

	Expanded *bool `json:"expanded,omitempty"`
	Selected *bool `json:"selected,omitempty"`
	Checked  *bool `json:"checked,omitempty"`
	Disabled *bool `json:"disabled,omitempty"`
	Pressed  *bool `json:"pressed,omitempty"`
	Current  *bool `json:"current,omitempty"`

	Children []*Node `json:"children,omitempty"`
}

// landmarkRoles are the ARIA landmark roles used for semantic identity.
var landmarkRoles = map[string]bool{
	"banner":        true,
	"navigation":    true,
	"main":          true,
	"complementary": true,
	"contentinfo":   true,
	"search":        true,
	"form":          true,
	"region":        true,
}

// interactiveRoles are elements users can act on. Used for the interactive
// count and for actionable classification.
var interactiveRoles = map[string]bool{
	"button":     true,
	"link":       true,
	"textbox":    true,
	"searchbox":  true,
	"combobox":   true,
	"spinbutton": true,
	"checkbox":   true,
	"radio":      true,
	"switch":     true,
	"menuitem":   true,
	"tab":        true,
}

// inputRoles are the fill-affordance subset of interactiveRoles.
var inputRoles = map[string]bool{
	"textbox":    true,
	"searchbox":  true,
	"combobox":   true,
	"spinbutton": true,
	"checkbox":   true,
	"radio":      true,
	"switch":     true,
}
