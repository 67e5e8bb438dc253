package handlers

import (
	"net/http"
)

// Compose runs one pass of the pipeline: claim the newest queued job, render
// its variants and persist them. An empty queue is a normal outcome and still
// answers 200 with ok=false; only a processing failure answers 500.
func (a *App) Compose(w http.ResponseWriter, r *http.Request) {
	result, err := a.Orchestrator.RunOnce(r.Context())
	if err != nil {
		a.Logger.Error().Err(err).Str("job_id", result.JobID).Msg("compose: run failed")
		a.json(w, http.StatusInternalServerError, result)
		return
	}
	a.json(w, http.StatusOK, result)
}
