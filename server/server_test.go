package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/SusanAcharya/f1-simulation/sim"
	"github.com/SusanAcharya/f1-simulation/store"
)

func newTestServer(t *testing.T) (*Server, *sim.Coordinator, *store.Badger) {
	t.Helper()
	db, err := store.OpenInMemory()
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	coord := sim.NewCoordinator(db, db, nil)
	t.Cleanup(coord.Destroy)
	return New(coord, db), coord, db
}

func TestGetRaceWithoutRace(t *testing.T) {
	srv, _, _ := newTestServer(t)
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/race")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
}

func TestGetRaceReturnsState(t *testing.T) {
	srv, coord, _ := newTestServer(t)
	coord.InitializeRace(sim.RaceInfo{ID: "race-http"}, DemoEntrants(3))

	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/race")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var state sim.RaceState
	if err := json.NewDecoder(resp.Body).Decode(&state); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if state.ID != "race-http" || state.Status != sim.StatusWaiting {
		t.Fatalf("state = %q/%q, want race-http/waiting", state.ID, state.Status)
	}
	if len(state.Participants) != 3 {
		t.Fatalf("got %d participants, want 3", len(state.Participants))
	}
}

func TestHistoryEndpointsEmpty(t *testing.T) {
	srv, _, _ := newTestServer(t)
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/history")
	if err != nil {
		t.Fatalf("get history: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var entries []store.RaceHistoryEntry
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("got %d entries, want 0", len(entries))
	}

	statsResp, err := http.Get(ts.URL + "/history/u1/stats")
	if err != nil {
		t.Fatalf("get stats: %v", err)
	}
	defer statsResp.Body.Close()
	var stats store.UserStats
	if err := json.NewDecoder(statsResp.Body).Decode(&stats); err != nil {
		t.Fatalf("decode stats: %v", err)
	}
	if stats.TotalRaces != 0 {
		t.Fatalf("stats = %+v, want zero value", stats)
	}
}

func TestResetEndpoint(t *testing.T) {
	srv, coord, _ := newTestServer(t)
	coord.InitializeRace(sim.RaceInfo{ID: "race-reset"}, DemoEntrants(2))

	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/race/reset", "application/json", nil)
	if err != nil {
		t.Fatalf("post reset: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if coord.GetRaceState() != nil {
		t.Fatalf("race state not cleared by reset")
	}
}
