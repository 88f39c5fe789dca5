// Package bitrix is a thin client for a Bitrix24-style CRM REST endpoint.
// All operations go through a single generic Call wrapper; the typed methods
// exist so the reconciler never builds raw RPC payloads itself.
package bitrix

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/commercebridge/shopsync/internal/shopify"
)

// Client talks to a CRM inbound-webhook REST endpoint, e.g.
// https://portal.example.com/rest/1/<token>.
type Client struct {
	base   string
	http   *http.Client
	logger *slog.Logger
}

// NewClient creates a Client for the given REST endpoint base URL.
func NewClient(base string, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		base:   strings.TrimRight(base, "/"),
		http:   &http.Client{Timeout: 30 * time.Second},
		logger: logger.With("component", "bitrix"),
	}
}

type callEnvelope struct {
	Result           json.RawMessage `json:"result"`
	Total            int             `json:"total"`
	Error            string          `json:"error"`
	ErrorDescription string          `json:"error_description"`
}

// Call invokes a CRM REST method with the given params and unmarshals the
// result payload into out (which may be nil when the result is ignored).
func (c *Client) Call(ctx context.Context, method string, params, out any) error {
	body, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("marshal %s params: %w", method, err)
	}

	url := fmt.Sprintf("%s/%s.json", c.base, method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create %s request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("call %s: %w", method, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read %s response: %w", method, err)
	}

	var env callEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("decode %s response (status %d): %w", method, resp.StatusCode, err)
	}
	if env.Error != "" {
		return &APIError{Code: env.Error, Description: env.ErrorDescription}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("call %s: status %d: %s", method, resp.StatusCode, raw)
	}

	if out != nil && len(env.Result) > 0 {
		if err := json.Unmarshal(env.Result, out); err != nil {
			return fmt.Errorf("decode %s result: %w", method, err)
		}
	}
	return nil
}

// DealList queries crm.deal.list. The CRM's filter matching is not trusted
// for exactness; callers re-check matches client-side. Results are truncated
// to limit.
func (c *Client) DealList(ctx context.Context, filter map[string]string, fields []string, order map[string]string, limit int) ([]Deal, error) {
	params := map[string]any{
		"filter": filter,
		"select": fields,
		"order":  order,
		"start":  0,
	}
	var deals []Deal
	if err := c.Call(ctx, "crm.deal.list", params, &deals); err != nil {
		return nil, err
	}
	if limit > 0 && len(deals) > limit {
		deals = deals[:limit]
	}
	return deals, nil
}

// DealAdd creates a deal via crm.deal.add and returns the assigned id.
// The CRM fails silently on some error classes, answering with a zero id;
// that is returned as "" so the caller can treat it as a hard failure.
func (c *Client) DealAdd(ctx context.Context, fields Fields) (string, error) {
	var id int64
	if err := c.Call(ctx, "crm.deal.add", map[string]any{"fields": fields}, &id); err != nil {
		return "", err
	}
	if id == 0 {
		return "", nil
	}
	return fmt.Sprintf("%d", id), nil
}

// DealUpdate updates deal fields via crm.deal.update.
func (c *Client) DealUpdate(ctx context.Context, id string, fields Fields) error {
	params := map[string]any{"id": id, "fields": fields}
	return c.Call(ctx, "crm.deal.update", params, nil)
}

// DealProductRowsSet replaces the deal's entire product row collection.
// An empty rows slice is a deliberate value: it clears previously set rows.
func (c *Client) DealProductRowsSet(ctx context.Context, id string, rows []ProductRow) error {
	if rows == nil {
		rows = []ProductRow{}
	}
	params := map[string]any{"id": id, "rows": rows}
	return c.Call(ctx, "crm.deal.productrows.set", params, nil)
}

type contactRecord struct {
	ID string `json:"ID"`
}

// ContactUpsert finds or creates a CRM contact for the order's customer and
// returns its id. It is best effort: an order without usable contact info
// yields "" with no error, and callers must tolerate both "" and errors.
func (c *Client) ContactUpsert(ctx context.Context, order *shopify.Order) (string, error) {
	email := order.Email
	var first, last, phone string
	if order.Customer != nil {
		first, last = order.Customer.FirstName, order.Customer.LastName
		if email == "" {
			email = order.Customer.Email
		}
		phone = order.Customer.Phone
	}
	if phone == "" {
		phone = order.Phone
	}
	if email == "" && phone == "" {
		return "", nil
	}

	if email != "" {
		var found []contactRecord
		params := map[string]any{
			"filter": map[string]string{"EMAIL": email},
			"select": []string{"ID"},
		}
		if err := c.Call(ctx, "crm.contact.list", params, &found); err != nil {
			return "", fmt.Errorf("contact lookup: %w", err)
		}
		if len(found) > 0 {
			return found[0].ID, nil
		}
	}

	fields := map[string]any{
		"NAME":      first,
		"LAST_NAME": last,
	}
	if email != "" {
		fields["EMAIL"] = []map[string]string{{"VALUE": email, "VALUE_TYPE": "WORK"}}
	}
	if phone != "" {
		fields["PHONE"] = []map[string]string{{"VALUE": phone, "VALUE_TYPE": "WORK"}}
	}

	var id int64
	if err := c.Call(ctx, "crm.contact.add", map[string]any{"fields": fields}, &id); err != nil {
		return "", fmt.Errorf("contact add: %w", err)
	}
	if id == 0 {
		return "", nil
	}
	return fmt.Sprintf("%d", id), nil
}
