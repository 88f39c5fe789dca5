// Package deal contains the order-to-deal reconciliation core: the pure
// field mapper, the stage/status policy, and the reconciler that drives
// idempotent create-or-update against the CRM.
package deal

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/commercebridge/shopsync/internal/bitrix"
	"github.com/commercebridge/shopsync/internal/shopify"
)

// MapOrder transforms a Shopify order into CRM deal fields and product rows.
// It performs no I/O. Missing or unparseable monetary values map to nil, not
// zero, so "unknown" stays distinguishable from "free". An order without
// line items maps to an empty (non-nil) row slice, which downstream callers
// use to clear remnant rows.
func MapOrder(o *shopify.Order) (bitrix.Fields, []bitrix.ProductRow) {
	fields := bitrix.Fields{
		bitrix.FieldOrderID:  fmt.Sprintf("%d", o.ID),
		bitrix.FieldTitle:    orderTitle(o),
		bitrix.FieldAmount:   parseMoney(o.TotalPrice),
		bitrix.FieldTax:      parseMoney(o.TotalTax),
		bitrix.FieldDiscount: mapDiscount(o),
		bitrix.FieldShipping: parseMoney(o.ShippingTotal()),
	}

	if o.Currency != "" {
		fields[bitrix.FieldCurrency] = o.Currency
	}
	fields[bitrix.FieldCustomerName] = customerName(o)
	fields[bitrix.FieldBeginDate] = calendarDate(o.CreatedAt)

	if ot := strings.TrimSpace(o.SourceName); ot != "" {
		fields[bitrix.FieldOrderType] = ot
	}
	if dm := deliveryMethod(o); dm != "" {
		fields[bitrix.FieldDeliveryMethod] = dm
	}

	rows := make([]bitrix.ProductRow, 0, len(o.LineItems))
	for _, li := range o.LineItems {
		rows = append(rows, mapLineItem(li))
	}
	return fields, rows
}

func orderTitle(o *shopify.Order) string {
	if o.Name != "" {
		return o.Name
	}
	return fmt.Sprintf("Order #%d", o.ID)
}

// parseMoney parses a decimal-string amount. Empty or malformed input yields
// nil rather than zero.
func parseMoney(s string) any {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil
	}
	return d
}

// mapDiscount sums per-code discount amounts when the order carries discount
// codes, falling back to the aggregate total_discounts field otherwise. A
// computed or parsed value of exactly zero normalizes to nil: zero is
// treated as "no discount data", not as a factual free discount (see
// DESIGN.md for the recorded semantics decision).
func mapDiscount(o *shopify.Order) any {
	if len(o.DiscountCodes) > 0 {
		sum := decimal.Zero
		for _, dc := range o.DiscountCodes {
			d, err := decimal.NewFromString(strings.TrimSpace(dc.Amount))
			if err != nil {
				continue
			}
			sum = sum.Add(d)
		}
		if sum.IsZero() {
			return nil
		}
		return sum
	}

	v := parseMoney(o.TotalDiscounts)
	if d, ok := v.(decimal.Decimal); ok && d.IsZero() {
		return nil
	}
	return v
}

// customerName joins the customer's first and last name, falling back to the
// billing address, falling back to nil. Whitespace is trimmed and an empty
// result normalizes to nil.
func customerName(o *shopify.Order) any {
	if o.Customer != nil {
		if n := joinName(o.Customer.FirstName, o.Customer.LastName); n != "" {
			return n
		}
	}
	if o.BillingAddress != nil {
		if n := joinName(o.BillingAddress.FirstName, o.BillingAddress.LastName); n != "" {
			return n
		}
	}
	return nil
}

func joinName(first, last string) string {
	return strings.TrimSpace(strings.TrimSpace(first) + " " + strings.TrimSpace(last))
}

// calendarDate reduces an RFC 3339 timestamp to calendar-day granularity.
// Unparseable input yields nil, never an error.
func calendarDate(ts string) any {
	t, err := time.Parse(time.RFC3339, strings.TrimSpace(ts))
	if err != nil {
		return nil
	}
	return t.Format("2006-01-02")
}

func deliveryMethod(o *shopify.Order) string {
	if len(o.ShippingLines) == 0 {
		return ""
	}
	return strings.TrimSpace(o.ShippingLines[0].Title)
}

// mapLineItem maps one order line to a product row. The row name falls back
// from title to name to SKU; the product id prefers the catalog product id
// over the variant id.
func mapLineItem(li shopify.LineItem) bitrix.ProductRow {
	name := li.Title
	if name == "" {
		name = li.Name
	}
	if name == "" {
		name = li.SKU
	}

	productID := li.ProductID
	if productID == 0 {
		productID = li.VariantID
	}

	price := "0"
	if d, err := decimal.NewFromString(strings.TrimSpace(li.Price)); err == nil {
		price = d.String()
	}

	return bitrix.ProductRow{
		ProductID:   productID,
		ProductName: name,
		Price:       price,
		Quantity:    li.Quantity,
	}
}
