package domain

import "errors"

var (
	ErrNotFound = errors.New("not found")
	ErrNoJob    = errors.New("no queued job")
)
