package explore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/hazyhaar/uimap/fingerprint"
	"github.com/hazyhaar/uimap/graph"
)

const (
	destFail  = "!"  // recoverable driver failure
	destFatal = "!!" // non-recoverable failure
)

type route struct {
	act  Action
	dest string // page key, destFail or destFatal
}

type fakePage struct {
	snap   *fingerprint.Snapshot
	routes []route
}

// fakeDriver replays a scripted site: a map of pages with wired actions
// and a history stack for GoBack. It records every executed action so
// tests can assert traversal order.
type fakeDriver struct {
	pages   map[string]*fakePage
	bySnap  map[*fingerprint.Snapshot]*fakePage
	byURL   map[string]string
	cur     string
	history []string
	log     []string
}

func newFakeDriver(start string, pages map[string]*fakePage) *fakeDriver {
	d := &fakeDriver{
		pages:  pages,
		bySnap: make(map[*fingerprint.Snapshot]*fakePage, len(pages)),
		byURL:  make(map[string]string, len(pages)),
		cur:    start,
	}
	for key, p := range pages {
		d.bySnap[p.snap] = p
		d.byURL[p.snap.URL] = key
	}
	return d
}

func (d *fakeDriver) CaptureSnapshot(ctx context.Context) (*fingerprint.Snapshot, error) {
	return d.pages[d.cur].snap, nil
}

func (d *fakeDriver) Navigate(ctx context.Context, url string) (*fingerprint.Snapshot, error) {
	key, ok := d.byURL[url]
	if !ok {
		return nil, &DriverError{Op: "navigate", Err: fmt.Errorf("no page at %s", url)}
	}
	if key != d.cur {
		d.history = append(d.history, d.cur)
		d.cur = key
	}
	return d.pages[d.cur].snap, nil
}

func (d *fakeDriver) ListCandidateActions(snap *fingerprint.Snapshot) []Action {
	p := d.bySnap[snap]
	if p == nil {
		return nil
	}
	acts := make([]Action, len(p.routes))
	for i, r := range p.routes {
		acts[i] = r.act
	}
	return acts
}

func (d *fakeDriver) Execute(ctx context.Context, act Action) (*fingerprint.Snapshot, error) {
	d.log = append(d.log, d.cur+">"+act.Target)
	for _, r := range d.pages[d.cur].routes {
		if r.act.Target != act.Target {
			continue
		}
		switch r.dest {
		case destFail:
			return nil, &DriverError{Op: "execute", Err: errors.New("element detached")}
		case destFatal:
			return nil, errors.New("browser crashed")
		}
		if r.dest != d.cur {
			d.history = append(d.history, d.cur)
			d.cur = r.dest
		}
		return d.pages[d.cur].snap, nil
	}
	return nil, &DriverError{Op: "execute", Err: fmt.Errorf("no such element: %s", act.Target)}
}

func (d *fakeDriver) GoBack(ctx context.Context) (*fingerprint.Snapshot, error) {
	if n := len(d.history); n > 0 {
		d.cur = d.history[n-1]
		d.history = d.history[:n-1]
	}
	return d.pages[d.cur].snap, nil
}

func sitePage(url, title string, buttons ...string) *fakePage {
	children := []*fingerprint.Node{{Role: "heading", Name: title, Level: 1}}
	for _, b := range buttons {
		children = append(children, &fingerprint.Node{Role: "button", Name: b})
	}
	root := &fingerprint.Node{Role: "document", Children: []*fingerprint.Node{
		{Role: "navigation", Name: "Main"},
		{Role: "main", Children: children},
	}}
	return &fakePage{snap: &fingerprint.Snapshot{URL: url, Title: title, Root: root}}
}

func click(target, dest string) route {
	return route{act: Action{Type: graph.ActionClick, Target: target}, dest: dest}
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// linearSite is home -> devices -> detail plus a settings branch.
func linearSite() map[string]*fakePage {
	home := sitePage("https://app.example/home", "Home", "Devices", "Settings")
	home.routes = []route{click("Devices", "devices"), click("Settings", "settings")}

	devices := sitePage("https://app.example/devices", "Devices", "Open first")
	devices.routes = []route{click("Open first", "detail")}

	detail := sitePage("https://app.example/devices/42", "Device 42", "Back to list")
	detail.routes = []route{click("Back to list", "devices")}

	settings := sitePage("https://app.example/settings", "Settings", "Appearance")
	settings.routes = []route{click("Appearance", "settings")}

	return map[string]*fakePage{
		"home": home, "devices": devices, "detail": detail, "settings": settings,
	}
}

func TestRunDiscoversAllStates(t *testing.T) {
	drv := newFakeDriver("home", linearSite())
	g := graph.New()
	eng := New(drv, g, Config{}, quietLogger())

	if got := eng.Status(); got != StatusInit {
		t.Fatalf("initial status = %s, want %s", got, StatusInit)
	}
	rep, err := eng.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if rep.Status != StatusDone {
		t.Errorf("status = %s, want %s", rep.Status, StatusDone)
	}
	if rep.StatesDiscovered != 4 {
		t.Errorf("states discovered = %d, want 4", rep.StatesDiscovered)
	}
	if rep.RootID == "" {
		t.Error("report missing root id")
	}
	// home->devices, home->settings, devices->detail,
	// detail->devices, settings->settings.
	if rep.TransitionsAdded != 5 {
		t.Errorf("transitions = %d, want 5", rep.TransitionsAdded)
	}
	if rep.ActionsFailed != 0 {
		t.Errorf("failed actions = %d, want 0", rep.ActionsFailed)
	}
}

func TestDFSOrderDiffersFromBFS(t *testing.T) {
	pages := func() map[string]*fakePage {
		home := sitePage("https://app.example/", "Home", "To A", "To B")
		home.routes = []route{click("To A", "a"), click("To B", "b")}
		a := sitePage("https://app.example/a", "Alpha", "Refresh alpha")
		a.routes = []route{click("Refresh alpha", "a")}
		b := sitePage("https://app.example/b", "Beta", "Refresh beta")
		b.routes = []route{click("Refresh beta", "b")}
		return map[string]*fakePage{"home": home, "a": a, "b": b}
	}

	run := func(s Strategy) []string {
		drv := newFakeDriver("home", pages())
		eng := New(drv, graph.New(), Config{Strategy: s}, quietLogger())
		if _, err := eng.Run(context.Background()); err != nil {
			t.Fatalf("Run(%s): %v", s, err)
		}
		return drv.log
	}

	dfs := run(StrategyDFS)
	bfs := run(StrategyBFS)

	wantDFS := "home>To A,a>Refresh alpha,home>To B,b>Refresh beta"
	if got := strings.Join(dfs, ","); got != wantDFS {
		t.Errorf("dfs order = %s, want %s", got, wantDFS)
	}
	wantBFS := "home>To A,home>To B,a>Refresh alpha,b>Refresh beta"
	if got := strings.Join(bfs, ","); got != wantBFS {
		t.Errorf("bfs order = %s, want %s", got, wantBFS)
	}
}

func TestFailingActionIsSkipped(t *testing.T) {
	home := sitePage("https://app.example/", "Home", "B1", "B2", "B3", "B4", "B5")
	home.routes = []route{
		click("B1", "p1"),
		click("B2", "p2"),
		click("B3", destFail),
		click("B4", "p4"),
		click("B5", "p5"),
	}
	pages := map[string]*fakePage{"home": home}
	for _, n := range []string{"p1", "p2", "p4", "p5"} {
		p := sitePage("https://app.example/"+n, "Page "+n, "Loop "+n)
		p.routes = []route{click("Loop "+n, n)}
		pages[n] = p
	}

	drv := newFakeDriver("home", pages)
	g := graph.New()
	rep, err := New(drv, g, Config{}, quietLogger()).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if rep.Status != StatusDone {
		t.Fatalf("status = %s, want %s", rep.Status, StatusDone)
	}
	if rep.ActionsFailed != 1 {
		t.Errorf("failed actions = %d, want 1", rep.ActionsFailed)
	}
	if rep.StatesDiscovered != 5 {
		t.Errorf("states = %d, want 5", rep.StatesDiscovered)
	}
	// 4 reachable pages plus 4 self loops; the failed action records
	// nothing.
	if rep.TransitionsAdded != 8 {
		t.Errorf("transitions = %d, want 8", rep.TransitionsAdded)
	}
}

func TestFatalDriverErrorAborts(t *testing.T) {
	home := sitePage("https://app.example/", "Home", "Crash")
	home.routes = []route{click("Crash", destFatal)}
	drv := newFakeDriver("home", map[string]*fakePage{"home": home})

	eng := New(drv, graph.New(), Config{}, quietLogger())
	rep, err := eng.Run(context.Background())
	if err == nil {
		t.Fatal("Run returned nil error on fatal driver failure")
	}
	if rep.Status != StatusAborted {
		t.Errorf("status = %s, want %s", rep.Status, StatusAborted)
	}
	if eng.Status() != StatusAborted {
		t.Errorf("engine status = %s, want %s", eng.Status(), StatusAborted)
	}
	// The partial graph survives the abort.
	if rep.StatesDiscovered != 1 {
		t.Errorf("states = %d, want 1", rep.StatesDiscovered)
	}
}

func TestMaxStatesStopsExploration(t *testing.T) {
	pages := map[string]*fakePage{}
	prev := ""
	for i := 0; i < 6; i++ {
		key := fmt.Sprintf("c%d", i)
		p := sitePage("https://app.example/"+key, "Chain "+key, "Next")
		pages[key] = p
		if prev != "" {
			pages[prev].routes = []route{click("Next", key)}
		}
		prev = key
	}

	drv := newFakeDriver("c0", pages)
	g := graph.New()
	rep, err := New(drv, g, Config{MaxStates: 3}, quietLogger()).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if rep.Status != StatusDone {
		t.Errorf("status = %s, want %s", rep.Status, StatusDone)
	}
	if g.StateCount() != 3 {
		t.Errorf("state count = %d, want 3", g.StateCount())
	}
}

func TestUnsafeActionsAreNeverExecuted(t *testing.T) {
	home := sitePage("https://app.example/", "Home", "Delete account", "View profile")
	home.routes = []route{
		click("Delete account", "home"),
		click("View profile", "profile"),
	}
	profile := sitePage("https://app.example/profile", "Profile")
	drv := newFakeDriver("home", map[string]*fakePage{"home": home, "profile": profile})

	g := graph.New()
	rep, err := New(drv, g, Config{}, quietLogger()).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if rep.ActionsSkipped != 1 {
		t.Errorf("skipped = %d, want 1", rep.ActionsSkipped)
	}
	for _, line := range drv.log {
		if strings.Contains(line, "Delete account") {
			t.Fatalf("destructive action was executed: %s", line)
		}
	}
	for _, tr := range g.Transitions() {
		if tr.Target == "Delete account" {
			t.Fatalf("destructive action recorded as transition")
		}
	}
}

func TestContextCancellationAborts(t *testing.T) {
	drv := newFakeDriver("home", linearSite())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rep, err := New(drv, graph.New(), Config{}, quietLogger()).Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if rep.Status != StatusAborted {
		t.Errorf("status = %s, want %s", rep.Status, StatusAborted)
	}
}

func TestDeterministicTraversal(t *testing.T) {
	run := func() ([]string, []string) {
		drv := newFakeDriver("home", linearSite())
		g := graph.New()
		if _, err := New(drv, g, Config{}, quietLogger()).Run(context.Background()); err != nil {
			t.Fatalf("Run: %v", err)
		}
		var ids []string
		for _, st := range g.States() {
			ids = append(ids, st.ID)
		}
		return drv.log, ids
	}

	log1, ids1 := run()
	log2, ids2 := run()
	if strings.Join(log1, ",") != strings.Join(log2, ",") {
		t.Errorf("action order differs between runs:\n%v\n%v", log1, log2)
	}
	if strings.Join(ids1, ",") != strings.Join(ids2, ",") {
		t.Errorf("state ids differ between runs:\n%v\n%v", ids1, ids2)
	}
}

func TestDefaultSafeRejectsDestructiveVerbs(t *testing.T) {
	cases := []struct {
		target string
		safe   bool
	}{
		{"Save changes", true},
		{"Delete device", false},
		{"Remove member", false},
		{"Sign out", false},
		{"Log Out", false},
		{"Factory reset", false},
		{"Open settings", true},
		{"Search", true},
	}
	for _, tc := range cases {
		act := Action{Type: graph.ActionClick, Target: tc.target}
		if got := DefaultSafe(act); got != tc.safe {
			t.Errorf("DefaultSafe(%q) = %v, want %v", tc.target, got, tc.safe)
		}
	}
}

func TestConfigDefaults(t *testing.T) {
	var c Config
	c.defaults()
	if c.Strategy != StrategyDFS {
		t.Errorf("strategy = %s, want %s", c.Strategy, StrategyDFS)
	}
	if c.MaxStates != 50 {
		t.Errorf("max states = %d, want 50", c.MaxStates)
	}
	if c.Budget != 10*time.Minute {
		t.Errorf("budget = %v, want 10m", c.Budget)
	}
	if c.Safe == nil {
		t.Error("safe predicate not defaulted")
	}
}
