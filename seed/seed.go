// Package seed persists and reloads discovery graphs. A serialized
// graph doubles as the seed for the next run: loading it first gives
// previously known screens authoritative ids, so re-exploration of an
// unchanged UI adds nothing.
package seed

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/hazyhaar/uimap/fingerprint"
	"github.com/hazyhaar/uimap/graph"
)

// GraphType tags every document this package writes.
const GraphType = "ui_fsm"

// Document is the persisted graph wire format.
type Document struct {
	BaseURL    string     `json:"base_url"`
	GraphType  string     `json:"graph_type"`
	Nodes      []Node     `json:"nodes"`
	Edges      []Edge     `json:"edges"`
	Statistics Statistics `json:"statistics"`
}

// Node is one persisted state. DiscoveredManually is a three-state
// field: true, false, or null. Whatever the seed carries is kept
// verbatim through load, reconcile and re-serialization; the loader
// never defaults it.
type Node struct {
	ID                 string                  `json:"id"`
	NodeType           string                  `json:"node_type"`
	StateType          string                  `json:"state_type"`
	Fingerprint        fingerprint.Fingerprint `json:"fingerprint"`
	DiscoveredManually *bool                   `json:"discovered_manually"`
	ElementDescriptors []fingerprint.Element   `json:"element_descriptors"`
}

// Edge is one persisted transition.
type Edge struct {
	Source       string  `json:"source"`
	Target       string  `json:"target"`
	EdgeType     string  `json:"edge_type"`
	ActionType   string  `json:"action_type"`
	ActionTarget string  `json:"action_target"`
	ActionValue  *string `json:"action_value"`
}

// Statistics summarises the persisted graph.
type Statistics struct {
	StateCount      int            `json:"state_count"`
	TransitionCount int            `json:"transition_count"`
	StateTypes      map[string]int `json:"state_types"`
}

// LoadError reports a malformed or incomplete seed. It is fatal: seed
// problems surface before any exploration begins.
type LoadError struct {
	Where string
	Msg   string
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("seed: %s: %s", e.Where, e.Msg)
}

// Load reads a serialized graph and reconstructs it, preserving ids,
// types, element descriptors and the discovered-manually flag verbatim.
// Graph options (scorer, threshold, logger) apply to the returned graph
// and govern matching during subsequent exploration.
func Load(r io.Reader, opts ...graph.Option) (*graph.Graph, error) {
	var doc Document
	dec := json.NewDecoder(r)
	if err := dec.Decode(&doc); err != nil {
		return nil, &LoadError{Where: "document", Msg: err.Error()}
	}
	return FromDocument(&doc, opts...)
}

// LoadFile reads a seed graph from disk.
func LoadFile(path string, opts ...graph.Option) (*graph.Graph, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("seed: open %s: %w", path, err)
	}
	defer f.Close()
	return Load(f, opts...)
}

// FromDocument validates a decoded document and builds the graph.
func FromDocument(doc *Document, opts ...graph.Option) (*graph.Graph, error) {
	g := graph.New(opts...)

	for i, n := range doc.Nodes {
		where := fmt.Sprintf("node %d", i)
		if n.ID != "" {
			where = fmt.Sprintf("node %s", n.ID)
		}
		if n.ID == "" {
			return nil, &LoadError{Where: where, Msg: "missing id"}
		}
		if n.NodeType != "state" {
			return nil, &LoadError{Where: where, Msg: fmt.Sprintf("unexpected node_type %q", n.NodeType)}
		}
		if n.StateType == "" {
			return nil, &LoadError{Where: where, Msg: "missing state_type"}
		}
		stype := graph.StateType(n.StateType)
		if !graph.ValidStateType(stype) {
			return nil, &LoadError{Where: where, Msg: fmt.Sprintf("unknown state_type %q", n.StateType)}
		}
		st := &graph.State{
			ID:                 n.ID,
			Type:               stype,
			Fingerprint:        n.Fingerprint,
			DiscoveredManually: n.DiscoveredManually,
			ElementDescriptors: n.ElementDescriptors,
		}
		if err := g.InsertSeed(st); err != nil {
			return nil, &LoadError{Where: where, Msg: err.Error()}
		}
	}

	for i, e := range doc.Edges {
		where := fmt.Sprintf("edge %d", i)
		if e.Source == "" || e.Target == "" {
			return nil, &LoadError{Where: where, Msg: "missing source or target"}
		}
		if e.EdgeType != "transition" {
			return nil, &LoadError{Where: where, Msg: fmt.Sprintf("unexpected edge_type %q", e.EdgeType)}
		}
		atype := graph.ActionType(e.ActionType)
		if !graph.ValidActionType(atype) {
			return nil, &LoadError{Where: where, Msg: fmt.Sprintf("unknown action_type %q", e.ActionType)}
		}
		tr := graph.Transition{
			From:   e.Source,
			To:     e.Target,
			Action: atype,
			Target: e.ActionTarget,
			Value:  e.ActionValue,
		}
		if _, err := g.AddTransition(tr); err != nil {
			return nil, fmt.Errorf("seed: %s: %w", where, err)
		}
	}

	return g, nil
}

// Serialize renders a graph into the wire document. Node and edge order
// follows insertion order, so serialize-load round trips preserve
// identity and ordering exactly.
func Serialize(g *graph.Graph, baseURL string) *Document {
	doc := &Document{
		BaseURL:   baseURL,
		GraphType: GraphType,
		Nodes:     make([]Node, 0, g.StateCount()),
		Edges:     make([]Edge, 0, g.TransitionCount()),
	}

	for _, st := range g.States() {
		doc.Nodes = append(doc.Nodes, Node{
			ID:                 st.ID,
			NodeType:           "state",
			StateType:          string(st.Type),
			Fingerprint:        st.Fingerprint,
			DiscoveredManually: st.DiscoveredManually,
			ElementDescriptors: st.ElementDescriptors,
		})
	}
	for _, tr := range g.Transitions() {
		doc.Edges = append(doc.Edges, Edge{
			Source:       tr.From,
			Target:       tr.To,
			EdgeType:     "transition",
			ActionType:   string(tr.Action),
			ActionTarget: tr.Target,
			ActionValue:  tr.Value,
		})
	}

	stats := Statistics{
		StateCount:      g.StateCount(),
		TransitionCount: g.TransitionCount(),
		StateTypes:      map[string]int{},
	}
	for stype, n := range g.StateTypeDistribution() {
		stats.StateTypes[string(stype)] = n
	}
	doc.Statistics = stats
	return doc
}

// Write serializes the graph as indented JSON.
func Write(w io.Writer, g *graph.Graph, baseURL string) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(Serialize(g, baseURL)); err != nil {
		return fmt.Errorf("seed: encode: %w", err)
	}
	return nil
}

// WriteFile serializes the graph to disk.
func WriteFile(path string, g *graph.Graph, baseURL string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("seed: create %s: %w", path, err)
	}
	if err := Write(f, g, baseURL); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("seed: close %s: %w", path, err)
	}
	return nil
}
