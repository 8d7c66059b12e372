package api

import (
	"context"

	"github.com/SherClockHolmes/webpush-go"

	"fleet-maintenance-backend/internal/pipeline"
	"fleet-maintenance-backend/internal/store"
)

// RunTrigger starts an out-of-schedule pipeline run and waits for its report.
type RunTrigger interface {
	Trigger(ctx context.Context) (*pipeline.Result, error)
}

// Handler holds shared dependencies for API handlers.
type Handler struct {
	store   store.Store
	webpush *webpush.Options
	trigger RunTrigger
}

// NewHandler creates a new API handler. trigger may be nil when the pipeline
// loop is disabled; POST /api/runs/trigger then returns 503.
func NewHandler(s store.Store, webpushOptions *webpush.Options, trigger RunTrigger) *Handler {
	return &Handler{
		store:   s,
		webpush: webpushOptions,
		trigger: trigger,
	}
}
