package api

import (
	"context"
	"encoding/json"
	"net/http"

	"coinbrief/internal/models"
	"coinbrief/internal/runner"
)

// BriefingRunner is the slice of the runner the control API needs: trigger
// a cycle and read back the most recent outcome.
type BriefingRunner interface {
	Run(ctx context.Context) (runner.Outcome, error)
	Last() (runner.Outcome, bool)
}

// writeJSON encodes v as JSON and writes it to the response with the given
// HTTP status code. Content-Type is always set to application/json.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		// At this point headers are already sent; log but cannot change status.
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
	}
}

// writeError writes a JSON error response with the given HTTP status code.
// The response body is {"error": "message"}.
func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// Healthz reports that the process is up.
func Healthz() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

// TriggerRun executes one briefing cycle on demand and returns its outcome.
// The message itself can be large, so only the summary fields go back.
func TriggerRun(br BriefingRunner) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		outcome, err := br.Run(r.Context())
		if err != nil {
			writeError(w, http.StatusBadGateway, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, runSummary(outcome))
	}
}

// GetLatestBriefing returns the most recent run's rendered briefing.
func GetLatestBriefing(br BriefingRunner) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		outcome, ok := br.Last()
		if !ok {
			writeError(w, http.StatusNotFound, "No briefing has been generated yet")
			return
		}
		writeJSON(w, http.StatusOK, outcome)
	}
}

// GetSources lists the configured feed sources.
func GetSources(sources []models.Source) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"sources": sources})
	}
}

func runSummary(o runner.Outcome) map[string]any {
	return map[string]any{
		"fetched":        o.Fetched,
		"failed_sources": o.FailedSources,
		"selected":       len(o.Digest.Articles),
		"delivered":      o.Delivered,
		"ran_at":         o.RanAt,
	}
}
