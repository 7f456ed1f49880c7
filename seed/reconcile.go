package seed

import (
	"fmt"

	"github.com/hazyhaar/uimap/graph"
)

// Reconcile merges src into dst. dst is the authoritative graph (a
// seed-loaded one, or the survivor of a previous merge): src states
// whose fingerprint matches an existing dst state fold into it, the
// rest are inserted keeping their original id where free. Transitions
// are remapped through the resulting id mapping and deduplicated.
// Nothing is ever removed from dst.
//
// Merging a graph into itself, or re-merging an unchanged exploration
// result, adds zero states and zero transitions.
func Reconcile(dst, src *graph.Graph) error {
	idmap := make(map[string]string, src.StateCount())

	for _, st := range src.States() {
		if match, _, ok := dst.Match(st.Fingerprint); ok {
			idmap[st.ID] = match.ID
			continue
		}
		cp := *st
		cp.ID = freeID(dst, st.ID)
		if err := dst.InsertSeed(&cp); err != nil {
			return fmt.Errorf("seed: reconcile state %s: %w", st.ID, err)
		}
		idmap[st.ID] = cp.ID
	}

	for _, tr := range src.Transitions() {
		mapped := *tr
		mapped.From = idmap[tr.From]
		mapped.To = idmap[tr.To]
		if _, err := dst.AddTransition(mapped); err != nil {
			return fmt.Errorf("seed: reconcile transition %s->%s: %w", tr.From, tr.To, err)
		}
	}
	return nil
}

// freeID keeps the wanted id when unused, otherwise suffixes a counter.
func freeID(g *graph.Graph, want string) string {
	if g.Get(want) == nil {
		return want
	}
	for n := 2; ; n++ {
		id := fmt.Sprintf("%s_%d", want, n)
		if g.Get(id) == nil {
			return id
		}
	}
}
