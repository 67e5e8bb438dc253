package domain

import "time"

// RenderExt is the file extension of a produced image buffer.
type RenderExt string

const (
	RenderExtJPG RenderExt = "jpg"
	RenderExtPNG RenderExt = "png"
)

// MIME maps the extension to its content type.
func (e RenderExt) MIME() string {
	if e == RenderExtPNG {
		return "image/png"
	}
	return "image/jpeg"
}

// RenderResult is the transient in-memory unit handed from generation to
// persistence. It is never stored directly.
type RenderResult struct {
	Data []byte
	Ext  RenderExt
}

// Render is one stored output artifact of a job. The selected flag is
// flipped by an external reviewer action, never by this service.
type Render struct {
	ID            string
	JobID         string
	Variant       int
	RenderAssetID string
	Selected      bool
	Caption       string
	CreatedAt     time.Time
}
