package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/SusanAcharya/f1-simulation/sim"
)

// BackendReporter posts final race results to the backend so leaderboard and
// profile totals stay consistent. Callers treat failures as non-fatal.
type BackendReporter struct {
	baseURL string
	client  *http.Client
}

func NewBackendReporter(baseURL string) *BackendReporter {
	return &BackendReporter{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 5 * time.Second},
	}
}

func (r *BackendReporter) ReportResults(raceID string, results []sim.Result) error {
	if r.baseURL == "" {
		return nil
	}

	body, err := json.Marshal(map[string]any{"results": results})
	if err != nil {
		return fmt.Errorf("failed to marshal race results: %w", err)
	}

	url := fmt.Sprintf("%s/races/%s/complete", r.baseURL, raceID)
	resp, err := r.client.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to post race results: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("backend rejected race results: %s", resp.Status)
	}
	return nil
}
