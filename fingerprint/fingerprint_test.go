package fingerprint

import (
	"testing"
)

func boolp(v bool) *bool { return &v }

// loginTree builds a small login screen: nav + form with two inputs.
func loginTree() *Node {
	return &Node{
		Role: "document",
		Children: []*Node{
			{Role: "navigation", Name: "Main", Children: []*Node{
				{Role: "link", Name: "Home", Value: "/"},
				{Role: "link", Name: "Help", Value: "/help"},
			}},
			{Role: "main", Children: []*Node{
				{Role: "heading", Level: 1, Name: "Sign in"},
				{Role: "form", Children: []*Node{
					{Role: "textbox", Name: "Username"},
					{Role: "textbox", Name: "Password"},
					{Role: "button", Name: "Login"},
				}},
			}},
		},
	}
}

func TestNormalizeURL(t *testing.T) {
	cases := []struct {
		url  string
		want string
	}{
		{"http://127.0.0.1:3000/", "root"},
		{"http://127.0.0.1:3000/devices", "devices"},
		{"http://host/device/17", "device/{id}"},
		{"http://host/device/42/config", "device/{id}/config"},
		{"http://host/item/550e8400-e29b-41d4-a716-446655440000", "item/{id}"},
		{"http://host/obj/deadbeef1234", "obj/{id}"},
		{"http://host/#!/admin/config", "admin/config"},
		{"http://host/#/devices?page=2", "devices"},
		{"http://host/feedback", "feedback"},
		{"://bad url", "root"},
	}
	for _, c := range cases {
		if got := NormalizeURL(c.url); got != c.want {
			t.Errorf("NormalizeURL(%q): got %q, want %q", c.url, got, c.want)
		}
	}
}

func TestNormalizeURLSameTemplate(t *testing.T) {
	a := NormalizeURL("http://host/device/17")
	b := NormalizeURL("http://host/device/42")
	if a != b {
		t.Errorf("same template should normalize identically: %q vs %q", a, b)
	}
}

func TestRouteParams(t *testing.T) {
	params := RouteParams("http://host/list?page=3&sort=name")
	if params["page"] != "3" || params["sort"] != "name" {
		t.Errorf("query params: got %v", params)
	}

	params = RouteParams("http://host/#/devices?filter=online")
	if params["filter"] != "online" {
		t.Errorf("fragment params: got %v", params)
	}

	if p := RouteParams("http://host/plain"); p != nil {
		t.Errorf("no params: got %v, want nil", p)
	}
}

func TestStructureHashIgnoresText(t *testing.T) {
	a := &Node{Role: "main", Children: []*Node{
		{Role: "heading", Level: 1, Name: "Dashboard"},
		{Role: "button", Name: "Save"},
	}}
	b := &Node{Role: "main", Children: []*Node{
		{Role: "heading", Level: 1, Name: "Tableau de bord"},
		{Role: "button", Name: "Enregistrer"},
	}}
	if StructureHash(a) != StructureHash(b) {
		t.Error("copy edits must not change the structure hash")
	}

	c := &Node{Role: "main", Children: []*Node{
		{Role: "heading", Level: 1, Name: "Dashboard"},
	}}
	if StructureHash(a) == StructureHash(c) {
		t.Error("different topology must change the structure hash")
	}
}

func TestSkeletonHashIgnoresTextAndAttributes(t *testing.T) {
	a := SkeletonHash([]byte(`<div class="x"><p>hello</p></div>`))
	b := SkeletonHash([]byte(`<div id="y"><p>goodbye world</p></div>`))
	if a != b {
		t.Error("text/attribute changes must not affect the skeleton hash")
	}

	c := SkeletonHash([]byte(`<div><p>hello</p><span>x</span></div>`))
	if a == c {
		t.Error("structural changes must affect the skeleton hash")
	}
}

func TestExtractEmptySnapshot(t *testing.T) {
	fp := Extract(nil)
	if !fp.Empty() {
		t.Error("nil snapshot: want empty fingerprint")
	}

	fp = Extract(&Snapshot{URL: "http://host/loading", Title: "Loading"})
	if !fp.Empty() {
		t.Error("treeless snapshot: want empty fingerprint")
	}
	if fp.URLPattern != "loading" {
		t.Errorf("URLPattern: got %q, want %q", fp.URLPattern, "loading")
	}
	if fp.Title != "Loading" {
		t.Errorf("Title preserved: got %q", fp.Title)
	}
}

func TestExtractLoginScreen(t *testing.T) {
	fp := Extract(&Snapshot{
		URL:   "http://127.0.0.1:3000/login",
		Title: "Login - App",
		Root:  loginTree(),
	})

	wantLandmarks := []string{"navigation", "main", "form"}
	if len(fp.Semantic.Landmarks) != len(wantLandmarks) {
		t.Fatalf("landmarks: got %v, want %v", fp.Semantic.Landmarks, wantLandmarks)
	}
	for i, l := range wantLandmarks {
		if fp.Semantic.Landmarks[i] != l {
			t.Errorf("landmark[%d]: got %q, want %q", i, fp.Semantic.Landmarks[i], l)
		}
	}

	if len(fp.Semantic.Headings) != 1 || fp.Semantic.Headings[0] != "h1: Sign in" {
		t.Errorf("headings: got %v", fp.Semantic.Headings)
	}
	if fp.MainHeading != "Sign in" {
		t.Errorf("main heading: got %q", fp.MainHeading)
	}
	if fp.Semantic.StructureHash == "" {
		t.Error("structure hash must be set for a non-empty tree")
	}

	// 2 links + 2 textboxes + 1 button.
	if fp.Semantic.InteractiveCount != 5 {
		t.Errorf("interactive count: got %d, want 5", fp.Semantic.InteractiveCount)
	}
	if len(fp.Functional.Buttons) != 1 || fp.Functional.Buttons[0].Name != "Login" {
		t.Errorf("buttons: got %v", fp.Functional.Buttons)
	}
	if len(fp.Functional.Links) != 2 {
		t.Errorf("links: got %v", fp.Functional.Links)
	}
	if len(fp.Functional.Inputs) != 2 {
		t.Errorf("inputs: got %v", fp.Functional.Inputs)
	}
	if !fp.Functional.Buttons[0].Enabled {
		t.Error("button without disabled state must be enabled")
	}
}

func TestExtractAriaStates(t *testing.T) {
	root := &Node{Role: "main", Children: []*Node{
		{Role: "button", Name: "Menu", Expanded: boolp(false)},
		{Role: "tab", Name: "General", Selected: boolp(true)},
		{Role: "button", Name: "Save", Disabled: boolp(true)},
	}}
	fp := Extract(&Snapshot{URL: "http://h/p", Root: root})

	if v, ok := fp.Semantic.AriaStates["expanded:button:Menu"]; !ok || v {
		t.Errorf("expanded state: got %v ok=%v", v, ok)
	}
	if v, ok := fp.Semantic.AriaStates["selected:tab:General"]; !ok || !v {
		t.Errorf("selected state: got %v ok=%v", v, ok)
	}

	var save Element
	for _, b := range fp.Functional.Buttons {
		if b.Name == "Save" {
			save = b
		}
	}
	if save.Enabled {
		t.Error("disabled button must report Enabled=false")
	}
}

func TestExtractDeterministic(t *testing.T) {
	snap := &Snapshot{URL: "http://h/a/1", Title: "T", Root: loginTree()}
	a := Extract(snap)
	b := Extract(snap)
	if a.Semantic.StructureHash != b.Semantic.StructureHash ||
		a.URLPattern != b.URLPattern ||
		a.Functional.Total() != b.Functional.Total() {
		t.Error("Extract must be deterministic")
	}
}
