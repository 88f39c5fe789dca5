package api

import (
	"encoding/json"
	"io"
	"net/http"

	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/commercebridge/shopsync/internal/core"
	"github.com/commercebridge/shopsync/internal/shopify"
)

// maxBodyBytes bounds inbound webhook bodies. Shopify order payloads run to
// a few hundred KB at most.
const maxBodyBytes = 1 << 20

// HandleWebhook is the single inbound entry point. It extracts the topic,
// records the payload in the diagnostic event log, and routes to the
// reconciler. Unrecognized topics are acknowledged with success so the
// platform does not retry-storm us over events we deliberately ignore.
func (h *Handler) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	reqID := chimw.GetReqID(r.Context())

	topic := r.Header.Get(shopify.TopicHeader)
	if topic == "" {
		core.Error(w, r, http.StatusBadRequest, "missing "+shopify.TopicHeader+" header")
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		core.Error(w, r, http.StatusBadRequest, "reading request body: "+err.Error())
		return
	}

	// Diagnostic copy first; an in-memory append cannot fail, and routing
	// never waits on it beyond this call.
	h.events.Append(topic, body)

	log := h.logger.With("topic", topic, "request_id", reqID)

	switch topic {
	case shopify.TopicOrdersCreate, shopify.TopicOrdersUpdated:
		var order shopify.Order
		if err := json.Unmarshal(body, &order); err != nil {
			core.Error(w, r, http.StatusBadRequest, "malformed order payload")
			return
		}

		var rerr error
		if topic == shopify.TopicOrdersCreate {
			rerr = h.rec.OrderCreated(r.Context(), &order)
		} else {
			rerr = h.rec.OrderUpdated(r.Context(), &order)
		}
		if rerr != nil {
			log.Error("reconciliation failed", "order_id", order.ID, "err", rerr)
			core.Error(w, r, http.StatusInternalServerError, rerr.Error())
			return
		}

	case shopify.TopicProductsUpdate:
		// Catalog sync is a stub: product updates never touch deals.
		log.Debug("product update received, catalog sync is a no-op")

	case shopify.TopicRefundsCreate:
		// Deprecated topic: refunds arrive as orders/updated with a new
		// financial_status, so this delivery is acknowledged and dropped.
		log.Info("refunds/create received, refunds are processed via orders/updated")

	default:
		log.Info("ignoring unrecognized topic")
	}

	core.JSON(w, http.StatusOK, map[string]any{
		"ok":         true,
		"topic":      topic,
		"request_id": reqID,
	})
}
