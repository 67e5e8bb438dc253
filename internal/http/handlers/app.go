package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"composer/internal/orchestrator"
)

// Runner is the single pipeline entry point the API exposes.
type Runner interface {
	RunOnce(ctx context.Context) (orchestrator.Result, error)
}

type App struct {
	Orchestrator Runner
	Logger       zerolog.Logger
}

func NewApp(orch Runner, logger zerolog.Logger) *App {
	return &App{Orchestrator: orch, Logger: logger}
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
