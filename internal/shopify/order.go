// Package shopify defines the order webhook payload types delivered by the
// Shopify platform and the webhook topics shopsync consumes. Payloads are
// treated as immutable input: nothing in this package mutates an order.
package shopify

import "strings"

// Webhook topics carried in the X-Shopify-Topic header.
const (
	TopicOrdersCreate   = "orders/create"
	TopicOrdersUpdated  = "orders/updated"
	TopicProductsUpdate = "products/update"

	// TopicRefundsCreate is deprecated upstream: refunds arrive as
	// orders/updated with a changed financial_status. Accepted but never
	// processed.
	TopicRefundsCreate = "refunds/create"
)

// TopicHeader is the request header carrying the webhook topic.
const TopicHeader = "X-Shopify-Topic"

// Financial statuses that drive pipeline stage transitions.
const (
	StatusPending           = "pending"
	StatusPaid              = "paid"
	StatusPartiallyPaid     = "partially_paid"
	StatusRefunded          = "refunded"
	StatusPartiallyRefunded = "partially_refunded"
	StatusVoided            = "voided"
	StatusCancelled         = "cancelled"
)

// Order is the webhook representation of a Shopify order. Monetary fields
// arrive as decimal strings; an absent value is an empty string, which is
// distinct from "0.00".
type Order struct {
	ID              int64          `json:"id"`
	Name            string         `json:"name"`
	FinancialStatus string         `json:"financial_status"`
	Currency        string         `json:"currency"`
	TotalPrice      string         `json:"total_price"`
	TotalTax        string         `json:"total_tax"`
	TotalDiscounts  string         `json:"total_discounts"`
	SourceName      string         `json:"source_name"`
	Tags            string         `json:"tags"`
	Email           string         `json:"email"`
	Phone           string         `json:"phone"`
	CreatedAt       string         `json:"created_at"`
	ProcessedAt     string         `json:"processed_at"`
	Customer        *Customer      `json:"customer"`
	BillingAddress  *Address       `json:"billing_address"`
	ShippingAddress *Address       `json:"shipping_address"`
	LineItems       []LineItem     `json:"line_items"`
	DiscountCodes   []DiscountCode `json:"discount_codes"`
	ShippingLines   []ShippingLine `json:"shipping_lines"`
	TotalShipping   *PriceSet      `json:"total_shipping_price_set"`
}

// LineItem is one purchased product line on an order.
type LineItem struct {
	ID        int64  `json:"id"`
	Title     string `json:"title"`
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	Price     string `json:"price"`
	SKU       string `json:"sku"`
	VariantID int64  `json:"variant_id"`
	ProductID int64  `json:"product_id"`
}

// DiscountCode is one applied discount with its monetary amount.
type DiscountCode struct {
	Code   string `json:"code"`
	Amount string `json:"amount"`
	Type   string `json:"type"`
}

// ShippingLine describes a chosen delivery method.
type ShippingLine struct {
	Title string `json:"title"`
	Price string `json:"price"`
	Code  string `json:"code"`
}

// Customer is the order's customer record, when Shopify attaches one.
type Customer struct {
	ID        int64  `json:"id"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// Address is a billing or shipping address.
type Address struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Address1  string `json:"address1"`
	City      string `json:"city"`
	Country   string `json:"country"`
	Zip       string `json:"zip"`
	Phone     string `json:"phone"`
}

// PriceSet wraps a money amount in shop currency.
type PriceSet struct {
	ShopMoney Money `json:"shop_money"`
}

// Money is a decimal-string amount with its currency code.
type Money struct {
	Amount       string `json:"amount"`
	CurrencyCode string `json:"currency_code"`
}

// TagList splits the order's comma-separated tag string into trimmed,
// non-empty tags.
func (o *Order) TagList() []string {
	if o.Tags == "" {
		return nil
	}
	parts := strings.Split(o.Tags, ",")
	tags := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

// ShippingTotal returns the order's total shipping amount as a decimal
// string, or "" when the order carries no shipping price set.
func (o *Order) ShippingTotal() string {
	if o.TotalShipping == nil {
		return ""
	}
	return o.TotalShipping.ShopMoney.Amount
}
