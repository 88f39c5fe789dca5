package deal

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/commercebridge/shopsync/internal/bitrix"
	"github.com/commercebridge/shopsync/internal/shopify"
)

// Gateway is the CRM surface the reconciler drives. *bitrix.Client satisfies
// it; tests substitute fakes.
type Gateway interface {
	DealList(ctx context.Context, filter map[string]string, fields []string, order map[string]string, limit int) ([]bitrix.Deal, error)
	DealAdd(ctx context.Context, fields bitrix.Fields) (string, error)
	DealUpdate(ctx context.Context, id string, fields bitrix.Fields) error
	DealProductRowsSet(ctx context.Context, id string, rows []bitrix.ProductRow) error
	ContactUpsert(ctx context.Context, order *shopify.Order) (string, error)
}

// Config holds the reconciler's matching and category policy knobs.
type Config struct {
	// PreorderTags are the order tags (matched case-insensitively) that
	// route a deal into the pre-order pipeline category.
	PreorderTags []string

	StockCategoryID    int
	PreorderCategoryID int

	// LookupLimit bounds the primary filtered deal query; ScanLimit caps
	// the unfiltered fallback window so a degenerate lookup cannot scan
	// the whole CRM.
	LookupLimit int
	ScanLimit   int
}

// Reconciler keeps exactly one CRM deal per Shopify order current. The CRM's
// filtered lookup is the only synchronization mechanism: concurrent
// deliveries for the same order can race into duplicate deals, which the
// multi-match resolution below tolerates and recovers from.
type Reconciler struct {
	gw     Gateway
	cfg    Config
	logger *slog.Logger
}

// NewReconciler creates a Reconciler over the given gateway.
func NewReconciler(gw Gateway, cfg Config, logger *slog.Logger) *Reconciler {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.LookupLimit <= 0 {
		cfg.LookupLimit = 50
	}
	if cfg.ScanLimit <= 0 {
		cfg.ScanLimit = 200
	}
	return &Reconciler{gw: gw, cfg: cfg, logger: logger.With("component", "reconciler")}
}

var lookupFields = []string{
	bitrix.FieldID,
	bitrix.FieldTitle,
	bitrix.FieldCategoryID,
	bitrix.FieldStageID,
	bitrix.FieldDateCreate,
	bitrix.FieldOrderID,
}

// OrderCreated handles an orders/create delivery. The lookup runs here too:
// redelivered create events find the already-created deal and update it
// instead of creating a second one.
func (r *Reconciler) OrderCreated(ctx context.Context, o *shopify.Order) error {
	return r.reconcile(ctx, o)
}

// OrderUpdated handles an orders/updated delivery, the catch-all topic for
// refunds, cancellations, and financial-status changes. An order never seen
// before is created.
func (r *Reconciler) OrderUpdated(ctx context.Context, o *shopify.Order) error {
	return r.reconcile(ctx, o)
}

func (r *Reconciler) reconcile(ctx context.Context, o *shopify.Order) error {
	orderID := fmt.Sprintf("%d", o.ID)

	matches, err := r.lookup(ctx, orderID)
	if err != nil {
		return fmt.Errorf("deal lookup for order %s: %w", orderID, err)
	}

	switch len(matches) {
	case 0:
		return r.createDeal(ctx, o, orderID)
	case 1:
		return r.updateDeal(ctx, o, &matches[0])
	default:
		// Duplicate deals for one order: a known anomaly under
		// concurrent delivery. Update the most recently created match
		// and leave the rest as orphans for manual reconciliation.
		target := mostRecent(matches)
		ids := make([]string, len(matches))
		for i, m := range matches {
			ids[i] = m.ID
		}
		r.logger.Error("multiple deals match one order",
			"order_id", orderID,
			"deal_ids", strings.Join(ids, ","),
			"updating", target.ID,
		)
		return r.updateDeal(ctx, o, target)
	}
}

// lookup runs the two-phase match: a filtered, recency-sorted query first,
// then one bounded unfiltered window when the filter returned nothing. Both
// phases re-check candidates client-side because the CRM's filter matching
// and field typing are not trusted to be exact.
func (r *Reconciler) lookup(ctx context.Context, orderID string) ([]bitrix.Deal, error) {
	sortDesc := map[string]string{bitrix.FieldDateCreate: "DESC"}
	filter := map[string]string{"=" + bitrix.FieldOrderID: orderID}

	deals, err := r.gw.DealList(ctx, filter, lookupFields, sortDesc, r.cfg.LookupLimit)
	if err != nil {
		return nil, err
	}
	if matches := filterMatches(deals, orderID); len(matches) > 0 {
		return matches, nil
	}

	// The portal's user-field filter index occasionally misses fresh
	// records; scan the most recent window once before declaring the
	// order new.
	r.logger.Warn("filtered deal lookup empty, scanning recent window", "order_id", orderID, "scan_limit", r.cfg.ScanLimit)
	deals, err = r.gw.DealList(ctx, map[string]string{}, lookupFields, sortDesc, r.cfg.ScanLimit)
	if err != nil {
		return nil, err
	}
	return filterMatches(deals, orderID), nil
}

// canonicalKey normalizes a join-key value for comparison: trimmed, and
// rendered as a canonical integer string when numeric. This is an explicit,
// documented tolerance for a CRM that returns the field with inconsistent
// types.
func canonicalKey(s string) string {
	s = strings.TrimSpace(s)
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return strconv.FormatInt(n, 10)
	}
	return s
}

func filterMatches(deals []bitrix.Deal, orderID string) []bitrix.Deal {
	want := canonicalKey(orderID)
	var matches []bitrix.Deal
	for _, d := range deals {
		if canonicalKey(d.OrderIDString()) == want && want != "" {
			matches = append(matches, d)
		}
	}
	return matches
}

// mostRecent picks the match with the latest creation timestamp. Deals whose
// timestamp does not parse sort oldest, so a parseable timestamp always wins
// and the choice stays deterministic.
func mostRecent(matches []bitrix.Deal) *bitrix.Deal {
	sorted := make([]bitrix.Deal, len(matches))
	copy(sorted, matches)
	sort.SliceStable(sorted, func(i, j int) bool {
		return parseDealTime(sorted[i].DateCreate).After(parseDealTime(sorted[j].DateCreate))
	})
	return &sorted[0]
}

func parseDealTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}
	}
	return t
}

func (r *Reconciler) categoryFor(o *shopify.Order) int {
	return CategoryFor(o.TagList(), r.cfg.PreorderTags, r.cfg.StockCategoryID, r.cfg.PreorderCategoryID)
}

func (r *Reconciler) createDeal(ctx context.Context, o *shopify.Order, orderID string) error {
	category := r.categoryFor(o)
	fields, rows := MapOrder(o)

	// Force the routing fields regardless of what the mapper produced.
	fields[bitrix.FieldCategoryID] = category
	fields[bitrix.FieldOrderID] = orderID
	fields[bitrix.FieldPaymentStatus] = PaymentStatusFor(o.FinancialStatus)

	// Contact linkage is best effort: the deal is created either way.
	contactID, err := r.gw.ContactUpsert(ctx, o)
	if err != nil {
		r.logger.Warn("contact upsert failed, creating deal without contact", "order_id", orderID, "err", err)
	} else if contactID != "" {
		fields[bitrix.FieldContactID] = contactID
	}

	dealID, err := r.gw.DealAdd(ctx, fields)
	if err != nil {
		return fmt.Errorf("create deal for order %s: %w", orderID, err)
	}
	if dealID == "" {
		// The CRM acknowledged without assigning an id; a deal cannot
		// be half-created.
		return fmt.Errorf("create deal for order %s: crm returned no deal id", orderID)
	}

	r.logger.Info("deal created", "order_id", orderID, "deal_id", dealID, "category", category)

	if len(rows) > 0 {
		if err := r.gw.DealProductRowsSet(ctx, dealID, rows); err != nil {
			r.logger.Error("setting product rows on new deal failed", "order_id", orderID, "deal_id", dealID, "err", err)
		}
	}
	return nil
}

// updateDeal runs every sub-step on every delivery; no diff against previous
// state is kept. Field-update failures are fatal for the request; product
// row failures after a successful field update are logged and swallowed.
func (r *Reconciler) updateDeal(ctx context.Context, o *shopify.Order, existing *bitrix.Deal) error {
	orderID := fmt.Sprintf("%d", o.ID)
	mapped, rows := MapOrder(o)

	update := bitrix.Fields{
		bitrix.FieldOrderID:       orderID,
		bitrix.FieldPaymentStatus: PaymentStatusFor(o.FinancialStatus),
		bitrix.FieldAmount:        mapped[bitrix.FieldAmount],
		bitrix.FieldDiscount:      mapped[bitrix.FieldDiscount],
		bitrix.FieldTax:           mapped[bitrix.FieldTax],
		bitrix.FieldShipping:      mapped[bitrix.FieldShipping],
	}

	category := r.categoryFor(o)
	if strconv.Itoa(category) != strings.TrimSpace(existing.CategoryID) {
		update[bitrix.FieldCategoryID] = category
	}

	// A partial refund intentionally preserves the current stage; only full
	// refund/void/cancel outcomes drive a stage change.
	if o.FinancialStatus != shopify.StatusPartiallyRefunded {
		target := StageFor(o.FinancialStatus, category, existing.StageID)
		if target != existing.StageID {
			update[bitrix.FieldStageID] = target
		}
	}

	// Carry these over only when the order actually has values, so an
	// update never clobbers them with emptiness.
	if v, ok := mapped[bitrix.FieldOrderType]; ok {
		update[bitrix.FieldOrderType] = v
	}
	if v, ok := mapped[bitrix.FieldDeliveryMethod]; ok {
		update[bitrix.FieldDeliveryMethod] = v
	}

	updateErr := r.gw.DealUpdate(ctx, existing.ID, update)
	if updateErr == nil {
		r.logger.Info("deal updated", "order_id", orderID, "deal_id", existing.ID, "financial_status", o.FinancialStatus)
	}

	// Full replacement regardless of the field update's outcome, even with
	// zero rows: an order whose items were all removed must end up with no
	// remnant rows on the deal.
	if err := r.gw.DealProductRowsSet(ctx, existing.ID, rows); err != nil {
		r.logger.Error("replacing product rows failed", "order_id", orderID, "deal_id", existing.ID, "err", err)
	}

	if updateErr != nil {
		return fmt.Errorf("update deal %s for order %s: %w", existing.ID, orderID, updateErr)
	}
	return nil
}
