package storage

import "context"

// ObjectStore is the narrow persistence contract the orchestrator depends
// on: upload bytes under bucket/path and derive a publicly fetchable URL.
// URL derivation is pure; no network round-trip is assumed.
type ObjectStore interface {
	Upload(ctx context.Context, bucket, path string, data []byte, contentType string) error
	PublicURL(bucket, path string) string
}
