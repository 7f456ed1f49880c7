package axdriver

import (
	"testing"

	"github.com/hazyhaar/uimap/graph"
	"github.com/hazyhaar/uimap/htmlsnap"
)

func TestEnumerateActions(t *testing.T) {
	snap, err := htmlsnap.ParseString(`
	  <nav><a href="/">Home</a><a href="/devices">Devices</a></nav>
	  <main>
	    <h1>Search</h1>
	    <input type="search" placeholder="Find a device">
	    <button>Go</button>
	    <button disabled>Export</button>
	    <button>Go</button>
	  </main>`, "https://app.example/search")
	if err != nil {
		t.Fatalf("ParseString: %v", err)
	}

	acts := enumerate(snap, "probe")
	want := []struct {
		typ    graph.ActionType
		target string
	}{
		{graph.ActionClick, "Home"},
		{graph.ActionClick, "Devices"},
		{graph.ActionFill, "Find a device"},
		{graph.ActionClick, "Go"},
	}
	if len(acts) != len(want) {
		t.Fatalf("actions = %d, want %d: %+v", len(acts), len(want), acts)
	}
	for i, w := range want {
		if acts[i].Type != w.typ || acts[i].Target != w.target {
			t.Errorf("action[%d] = %s %q, want %s %q",
				i, acts[i].Type, acts[i].Target, w.typ, w.target)
		}
	}
	// Fill actions carry the configured probe value.
	if acts[2].Value == nil || *acts[2].Value != "probe" {
		t.Errorf("fill value = %v, want probe", acts[2].Value)
	}
	// The disabled Export button and the duplicate Go button are gone.
	for _, a := range acts {
		if a.Target == "Export" {
			t.Error("disabled button enumerated")
		}
	}
}

func TestEnumerateEmptySnapshot(t *testing.T) {
	if got := enumerate(nil, "x"); got != nil {
		t.Errorf("enumerate(nil) = %+v, want nil", got)
	}
}

func TestAttrSelectorEscapesQuotes(t *testing.T) {
	got := attrSelector("input", "placeholder", `Say "hi"`)
	want := `input[placeholder="Say \"hi\""]`
	if got != want {
		t.Errorf("selector = %s, want %s", got, want)
	}
}
