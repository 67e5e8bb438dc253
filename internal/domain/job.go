package domain

import "time"

// JobStatus enumerates the composition job lifecycle states.
type JobStatus string

const (
	JobStatusQueued     JobStatus = "queued"
	JobStatusProcessing JobStatus = "processing"
	JobStatusDone       JobStatus = "done"
	JobStatusError      JobStatus = "error"
)

// Job is one unit of composition work: which product and scene photos to
// blend, under which style, tinted with which brand palette. Jobs are created
// by the upstream UI in status queued and are only ever mutated by the
// orchestrator (queued -> processing -> done|error).
type Job struct {
	ID             string
	ProductAssetID string
	SceneAssetID   string
	StyleKey       string
	Palette        []string
	Status         JobStatus
	ErrorMessage   string
	Meta           []byte
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
