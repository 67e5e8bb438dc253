package domain

import "context"

// JobStore defines persistence for composition jobs.
type JobStore interface {
	// ClaimQueued atomically claims the most recently created queued job,
	// flipping it to processing. Returns ErrNoJob when the queue is empty.
	ClaimQueued(ctx context.Context) (*Job, error)
	UpdateStatus(ctx context.Context, jobID string, status JobStatus, errMsg string) error
}

// AssetStore reads and records asset rows.
type AssetStore interface {
	GetByID(ctx context.Context, id string) (*Asset, error)
	Insert(ctx context.Context, asset *Asset) (string, error)
}

// StyleStore reads the style catalog.
type StyleStore interface {
	GetByKey(ctx context.Context, key string) (*Style, error)
}

// RenderStore records render rows.
type RenderStore interface {
	Insert(ctx context.Context, render *Render) (string, error)
}
