package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hazyhaar/uimap/dbopen"

	_ "modernc.org/sqlite"
)

func openTest(t *testing.T) *Store {
	t.Helper()
	return &Store{DB: dbopen.OpenMemory(t, dbopen.WithSchema(Schema))}
}

func TestRunLifecycle(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()

	started := time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC)
	run := &Run{
		ID: "run_1", BaseURL: "https://app.example", Strategy: "dfs",
		Status: "exploring", StartedAt: started,
	}
	if err := s.CreateRun(ctx, run); err != nil {
		t.Fatalf("CreateRun: %v", err)
	}

	finished := started.Add(3 * time.Minute)
	run.Status = "done"
	run.RootState = "V_ROOT"
	run.States = 12
	run.Transitions = 30
	run.ActionsAttempted = 44
	run.ActionsFailed = 2
	run.FinishedAt = &finished
	if err := s.FinishRun(ctx, run); err != nil {
		t.Fatalf("FinishRun: %v", err)
	}

	got, err := s.GetRun(ctx, "run_1")
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if got.Status != "done" || got.States != 12 || got.RootState != "V_ROOT" {
		t.Errorf("run = %+v", got)
	}
	if !got.StartedAt.Equal(started) {
		t.Errorf("started_at = %v, want %v", got.StartedAt, started)
	}
	if got.FinishedAt == nil || !got.FinishedAt.Equal(finished) {
		t.Errorf("finished_at = %v, want %v", got.FinishedAt, finished)
	}
}

func TestGetRunNotFound(t *testing.T) {
	s := openTest(t)
	if _, err := s.GetRun(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestFinishRunNotFound(t *testing.T) {
	s := openTest(t)
	err := s.FinishRun(context.Background(), &Run{ID: "ghost", Status: "done"})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestListRunsNewestFirst(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()

	base := time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC)
	for i, id := range []string{"run_a", "run_b", "run_c"} {
		r := &Run{
			ID: id, BaseURL: "https://app.example", Strategy: "dfs",
			Status: "done", StartedAt: base.Add(time.Duration(i) * time.Hour),
		}
		if err := s.CreateRun(ctx, r); err != nil {
			t.Fatalf("CreateRun %s: %v", id, err)
		}
	}

	runs, err := s.ListRuns(ctx, 2)
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("len = %d, want 2", len(runs))
	}
	if runs[0].ID != "run_c" || runs[1].ID != "run_b" {
		t.Errorf("order = %s, %s; want run_c, run_b", runs[0].ID, runs[1].ID)
	}
}

func TestGraphRoundTripAndLatest(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()

	for i, id := range []string{"run_1", "run_2"} {
		r := &Run{
			ID: id, BaseURL: "https://app.example", Strategy: "bfs",
			Status: "done",
			StartedAt: time.Date(2026, 8, 29, 10+i, 0, 0, 0, time.UTC),
		}
		if err := s.CreateRun(ctx, r); err != nil {
			t.Fatalf("CreateRun: %v", err)
		}
	}

	if err := s.SaveGraph(ctx, "run_1", "https://app.example", `{"v":1}`, 10, 20); err != nil {
		t.Fatalf("SaveGraph: %v", err)
	}
	time.Sleep(5 * time.Millisecond)
	if err := s.SaveGraph(ctx, "run_2", "https://app.example", `{"v":2}`, 12, 25); err != nil {
		t.Fatalf("SaveGraph: %v", err)
	}

	doc, err := s.GetGraph(ctx, "run_1")
	if err != nil {
		t.Fatalf("GetGraph: %v", err)
	}
	if doc != `{"v":1}` {
		t.Errorf("document = %s", doc)
	}

	latest, err := s.LatestGraph(ctx, "https://app.example")
	if err != nil {
		t.Fatalf("LatestGraph: %v", err)
	}
	if latest != `{"v":2}` {
		t.Errorf("latest = %s, want v2", latest)
	}

	if _, err := s.LatestGraph(ctx, "https://other.example"); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestSaveGraphUpsert(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()

	r := &Run{
		ID: "run_1", BaseURL: "https://app.example", Strategy: "dfs",
		Status: "done", StartedAt: time.Now().UTC(),
	}
	if err := s.CreateRun(ctx, r); err != nil {
		t.Fatalf("CreateRun: %v", err)
	}
	if err := s.SaveGraph(ctx, "run_1", "https://app.example", `{"v":1}`, 1, 0); err != nil {
		t.Fatalf("SaveGraph: %v", err)
	}
	if err := s.SaveGraph(ctx, "run_1", "https://app.example", `{"v":2}`, 2, 1); err != nil {
		t.Fatalf("SaveGraph upsert: %v", err)
	}
	doc, err := s.GetGraph(ctx, "run_1")
	if err != nil {
		t.Fatalf("GetGraph: %v", err)
	}
	if doc != `{"v":2}` {
		t.Errorf("document = %s, want v2", doc)
	}
}
