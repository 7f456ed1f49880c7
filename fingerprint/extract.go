package fingerprint

import (
	"fmt"
	"strconv"
)

// Extract builds a Fingerprint from a snapshot. Pure and deterministic:
// the same snapshot always yields the same fingerprint, and no snapshot
// shape is an error. A nil or treeless snapshot produces a fingerprint
// with empty collections but intact URL/title identity.
func Extract(snap *Snapshot) Fingerprint {
	if snap == nil {
		return Fingerprint{}
	}

	fp := Fingerprint{
		URLPattern:  NormalizeURL(snap.URL),
		RouteParams: RouteParams(snap.URL),
		Title:       snap.Title,
	}
	if len(snap.HTML) > 0 {
		fp.StyleHash = SkeletonHash(snap.HTML)
	}
	if snap.Root == nil {
		return fp
	}

	fp.Semantic = extractSemantic(snap.Root)
	fp.Functional = extractFunctional(snap.Root)
	fp.MainHeading = mainHeading(snap.Root)
	return fp
}

func extractSemantic(root *Node) Semantic {
	sem := Semantic{
		StructureHash: StructureHash(root),
		AriaStates:    map[string]bool{},
	}

	walk(root, func(n *Node) {
		if landmarkRoles[n.Role] {
			sem.Landmarks = append(sem.Landmarks, n.Role)
		}
		if interactiveRoles[n.Role] {
			sem.InteractiveCount++
		}
		if n.Role == "heading" && n.Name != "" {
			sem.Headings = append(sem.Headings, fmt.Sprintf("h%d: %s", n.Level, n.Name))
		}
		for state, v := range nodeAriaStates(n) {
			sem.AriaStates[ariaKey(state, n)] = v
		}
	})

	if len(sem.AriaStates) == 0 {
		sem.AriaStates = nil
	}
	return sem
}

func extractFunctional(root *Node) Functional {
	var fn Functional
	walk(root, func(n *Node) {
		switch {
		case n.Role == "button":
			fn.Buttons = append(fn.Buttons, element(n))
		case n.Role == "link":
			fn.Links = append(fn.Links, element(n))
		case inputRoles[n.Role]:
			fn.Inputs = append(fn.Inputs, element(n))
		}
	})
	if fn.Buttons == nil {
		fn.Buttons = []Element{}
	}
	if fn.Links == nil {
		fn.Links = []Element{}
	}
	if fn.Inputs == nil {
		fn.Inputs = []Element{}
	}
	return fn
}

func element(n *Node) Element {
	e := Element{
		Role:    n.Role,
		Name:    n.Name,
		Enabled: n.Disabled == nil || !*n.Disabled,
	}
	extra := map[string]string{}
	for state, v := range nodeAriaStates(n) {
		if state == "disabled" {
			continue
		}
		extra[state] = strconv.FormatBool(v)
	}
	if n.Role == "link" && n.Value != "" {
		extra["href"] = n.Value
	}
	if len(extra) > 0 {
		e.Extra = extra
	}
	return e
}

// mainHeading returns the first level-1 heading, falling back to the first
// heading of any level.
func mainHeading(root *Node) string {
	var first, h1 string
	walk(root, func(n *Node) {
		if n.Role != "heading" || n.Name == "" {
			return
		}
		if first == "" {
			first = n.Name
		}
		if h1 == "" && n.Level == 1 {
			h1 = n.Name
		}
	})
	if h1 != "" {
		return h1
	}
	return first
}

// nodeAriaStates collects the set ARIA states of a single node.
func nodeAriaStates(n *Node) map[string]bool {
	out := map[string]bool{}
	put := func(name string, v *bool) {
		if v != nil {
			out[name] = *v
		}
	}
	put("expanded", n.Expanded)
	put("selected", n.Selected)
	put("checked", n.Checked)
	put("disabled", n.Disabled)
	put("pressed", n.Pressed)
	put("current", n.Current)
	return out
}

// ariaKey scopes an ARIA state to the element carrying it so that
// "menu expanded" and "row expanded" stay distinct dimensions.
func ariaKey(state string, n *Node) string {
	if n.Name != "" {
		return state + ":" + n.Role + ":" + n.Name
	}
	return state + ":" + n.Role
}

// walk visits nodes depth-first in document order.
func walk(n *Node, visit func(*Node)) {
	if n == nil {
		return
	}
	visit(n)
	for _, c := range n.Children {
		walk(c, visit)
	}
}
