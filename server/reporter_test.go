package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/SusanAcharya/f1-simulation/sim"
)

func TestReportResultsPostsToBackend(t *testing.T) {
	var gotPath string
	var gotBody struct {
		Results []sim.Result `json:"results"`
	}
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer backend.Close()

	reporter := NewBackendReporter(backend.URL)
	results := []sim.Result{
		{UserID: "u1", Position: 1, Points: 25, Tokens: 50},
		{UserID: "u2", Position: 2, Points: 18, Tokens: 40},
	}
	if err := reporter.ReportResults("race-9", results); err != nil {
		t.Fatalf("report: %v", err)
	}

	if gotPath != "/races/race-9/complete" {
		t.Fatalf("posted to %q, want /races/race-9/complete", gotPath)
	}
	if len(gotBody.Results) != 2 || gotBody.Results[0].UserID != "u1" || gotBody.Results[0].Points != 25 {
		t.Fatalf("backend received %+v", gotBody.Results)
	}
}

func TestReportResultsBackendError(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer backend.Close()

	reporter := NewBackendReporter(backend.URL)
	if err := reporter.ReportResults("race-9", nil); err == nil {
		t.Fatalf("expected error for backend 500")
	}
}

func TestReportResultsDisabledWithoutBaseURL(t *testing.T) {
	reporter := NewBackendReporter("")
	if err := reporter.ReportResults("race-9", nil); err != nil {
		t.Fatalf("expected nil error with reporting disabled, got %v", err)
	}
}
