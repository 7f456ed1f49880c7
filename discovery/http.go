package discovery

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/hazyhaar/uimap/discovery/internal/store"
)

// Router builds the read-only HTTP API over runs and graphs.
func (d *Discovery) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	r.Get("/api/graph", d.handleGraph)
	r.Get("/api/stats", d.handleStats)
	r.Get("/api/states", d.handleStates)
	r.Get("/api/runs", d.handleRuns)
	r.Get("/api/runs/{id}", d.handleRun)
	r.Get("/api/runs/{id}/graph", d.handleRunGraph)

	return r
}

func (d *Discovery) handleGraph(w http.ResponseWriter, r *http.Request) {
	doc := d.Document()
	if doc == nil {
		http.Error(w, "no completed run yet", http.StatusNotFound)
		return
	}
	writeJSON(w, doc)
}

func (d *Discovery) handleStats(w http.ResponseWriter, r *http.Request) {
	doc := d.Document()
	if doc == nil {
		http.Error(w, "no completed run yet", http.StatusNotFound)
		return
	}
	writeJSON(w, doc.Statistics)
}

func (d *Discovery) handleStates(w http.ResponseWriter, r *http.Request) {
	doc := d.Document()
	if doc == nil {
		http.Error(w, "no completed run yet", http.StatusNotFound)
		return
	}
	filter := r.URL.Query().Get("state_type")
	if filter == "" {
		writeJSON(w, doc.Nodes)
		return
	}
	var out []any
	for _, n := range doc.Nodes {
		if n.StateType == filter {
			out = append(out, n)
		}
	}
	writeJSON(w, out)
}

func (d *Discovery) handleRuns(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = n
	}
	runs, err := d.st.ListRuns(r.Context(), limit)
	if err != nil {
		d.log.Error("discovery: list runs", "error", err)
		http.Error(w, "query failed", http.StatusInternalServerError)
		return
	}
	if runs == nil {
		runs = []*store.Run{}
	}
	writeJSON(w, runs)
}

func (d *Discovery) handleRun(w http.ResponseWriter, r *http.Request) {
	run, err := d.st.GetRun(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, store.ErrNotFound) {
		http.Error(w, "run not found", http.StatusNotFound)
		return
	}
	if err != nil {
		d.log.Error("discovery: get run", "error", err)
		http.Error(w, "query failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, run)
}

func (d *Discovery) handleRunGraph(w http.ResponseWriter, r *http.Request) {
	doc, err := d.st.GetGraph(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, store.ErrNotFound) {
		http.Error(w, "graph not found", http.StatusNotFound)
		return
	}
	if err != nil {
		d.log.Error("discovery: get graph", "error", err)
		http.Error(w, "query failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(doc))
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
