package domain

import "time"

// AssetKind enumerates asset origins.
type AssetKind string

const (
	AssetKindUpload AssetKind = "upload"
	AssetKindRender AssetKind = "render"
)

// Asset is an immutable reference to stored binary content, either an
// uploaded photo or a persisted render. Assets are never mutated after
// creation.
type Asset struct {
	ID        string
	Kind      AssetKind
	Bucket    string
	Path      string
	MIME      string
	SizeBytes int64
	Width     int
	Height    int
	CreatedAt time.Time
}
