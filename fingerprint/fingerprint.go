package fingerprint

// Fingerprint is an immutable multi-dimensional summary of one screen.
// Dimensions mirror the resilience hierarchy: semantic identity dominates,
// style is a tiebreaker only.
type Fingerprint struct {
	Semantic   Semantic   `json:"semantic"`
	Functional Functional `json:"functional"`

	// Structural identity: the normalized URL pattern with volatile
	// segments abstracted, plus any route parameters seen.
	URLPattern  string            `json:"url_pattern"`
	RouteParams map[string]string `json:"route_params,omitempty"`

	// Content identity.
	Title       string `json:"title"`
	MainHeading string `json:"main_heading"`

	// Style identity: skeleton hash of the raw markup. Optional.
	StyleHash string `json:"style_hash,omitempty"`
}

// Semantic captures accessibility-tree identity.
type Semantic struct {
	StructureHash    string          `json:"structure_hash"`
	Landmarks        []string        `json:"landmark_roles"`
	Headings         []string        `json:"heading_hierarchy"`
	AriaStates       map[string]bool `json:"aria_states,omitempty"`
	InteractiveCount int             `json:"interactive_count"`
}

// Functional captures the actionable surface: what a user could do here.
type Functional struct {
	Buttons []Element `json:"buttons"`
	Links   []Element `json:"links"`
	Inputs  []Element `json:"inputs"`
}

// Element is one actionable element signature.
type Element struct {
	Role    string            `json:"role"`
	Name    string            `json:"name"`
	Enabled bool              `json:"enabled"`
	Extra   map[string]string `json:"extra,omitempty"`
}

// Total returns the actionable element count across all classes.
func (f Functional) Total() int {
	return len(f.Buttons) + len(f.Links) + len(f.Inputs)
}

// Elements returns all actionable elements in capture order:
// buttons, then links, then inputs.
func (f Functional) Elements() []Element {
	out := make([]Element, 0, f.Total())
	out = append(out, f.Buttons...)
	out = append(out, f.Links...)
	out = append(out, f.Inputs...)
	return out
}

// Empty reports whether the fingerprint carries no structure at all.
// An empty fingerprint is itself meaningful: blank or still-loading screen.
func (fp Fingerprint) Empty() bool {
	return fp.Semantic.StructureHash == "" &&
		len(fp.Semantic.Landmarks) == 0 &&
		len(fp.Semantic.Headings) == 0 &&
		fp.Functional.Total() == 0
}
