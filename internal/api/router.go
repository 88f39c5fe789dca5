// Package api routes inbound Shopify webhooks to the reconciler and exposes
// the admin/diagnostic endpoints.
package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/commercebridge/shopsync/internal/core"
	"github.com/commercebridge/shopsync/internal/eventlog"
	"github.com/commercebridge/shopsync/internal/shopify"
)

// Reconciler is the order entry points the dispatcher routes into.
type Reconciler interface {
	OrderCreated(ctx context.Context, o *shopify.Order) error
	OrderUpdated(ctx context.Context, o *shopify.Order) error
}

// EventSink receives a diagnostic copy of every inbound payload. Appends are
// best effort and must never block request processing.
type EventSink interface {
	Append(topic string, payload []byte) eventlog.Entry
	List() []eventlog.Entry
}

// Handler holds the dispatcher's collaborators.
type Handler struct {
	rec    Reconciler
	events EventSink
	mw     *core.Middleware
	logger *slog.Logger
}

// NewHandler creates the API handler.
func NewHandler(rec Reconciler, events EventSink, mw *core.Middleware, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		rec:    rec,
		events: events,
		mw:     mw,
		logger: logger.With("component", "api"),
	}
}

// Routes mounts the webhook and admin endpoints.
func (h *Handler) Routes(r chi.Router) {
	r.Route("/webhooks", func(r chi.Router) {
		// Anything but the body-carrying method is rejected outright,
		// with no body and no CRM calls.
		r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusMethodNotAllowed)
		})
		r.Post("/shopify", h.HandleWebhook)
	})

	r.Route("/admin", func(r chi.Router) {
		r.Get("/health", h.Health)
		r.Get("/events", h.ListEvents)
		r.Get("/requests", h.ListRequests)
	})
}

// Health is a liveness probe.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	core.JSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

// ListEvents returns the deduplicated diagnostic event log.
func (h *Handler) ListEvents(w http.ResponseWriter, _ *http.Request) {
	events := h.events.List()
	core.JSON(w, http.StatusOK, map[string]any{
		"events": events,
		"count":  len(events),
	})
}

// ListRequests returns the recent-request ring buffer.
func (h *Handler) ListRequests(w http.ResponseWriter, _ *http.Request) {
	entries := h.mw.ReqLog.Entries()
	core.JSON(w, http.StatusOK, map[string]any{
		"requests": entries,
		"count":    len(entries),
	})
}
