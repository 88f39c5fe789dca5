package bitrix

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Deal field names used by shopsync. UF_* fields are portal-defined user
// fields; FieldOrderID is the join key correlating a deal to its Shopify
// order.
const (
	FieldID         = "ID"
	FieldTitle      = "TITLE"
	FieldCategoryID = "CATEGORY_ID"
	FieldStageID    = "STAGE_ID"
	FieldAmount     = "OPPORTUNITY"
	FieldCurrency   = "CURRENCY_ID"
	FieldContactID  = "CONTACT_ID"
	FieldBeginDate  = "BEGINDATE"
	FieldDateCreate = "DATE_CREATE"

	FieldOrderID        = "UF_CRM_SHOPIFY_ORDER_ID"
	FieldPaymentStatus  = "UF_CRM_PAYMENT_STATUS"
	FieldOrderType      = "UF_CRM_ORDER_TYPE"
	FieldDeliveryMethod = "UF_CRM_DELIVERY_METHOD"
	FieldTax            = "UF_CRM_ORDER_TAX"
	FieldDiscount       = "UF_CRM_ORDER_DISCOUNT"
	FieldShipping       = "UF_CRM_ORDER_SHIPPING"
	FieldCustomerName   = "UF_CRM_CUSTOMER_NAME"
)

// Fields is a deal field payload for crm.deal.add / crm.deal.update.
// A nil value overwrites the stored field with an empty value, which is how
// "unknown" is written without collapsing it to zero.
type Fields map[string]any

// Deal is a CRM deal record as returned by crm.deal.list. The CRM serializes
// most scalar fields as strings; the join-key user field is kept as raw JSON
// because the portal may return it as either a string or a number, and order
// ids are too large to round-trip through float64.
type Deal struct {
	ID         string          `json:"ID"`
	Title      string          `json:"TITLE"`
	CategoryID string          `json:"CATEGORY_ID"`
	StageID    string          `json:"STAGE_ID"`
	DateCreate string          `json:"DATE_CREATE"`
	OrderID    json.RawMessage `json:"UF_CRM_SHOPIFY_ORDER_ID"`
}

// OrderIDString renders the deal's join-key field as a string regardless of
// the JSON type the CRM chose for it.
func (d *Deal) OrderIDString() string {
	s := strings.TrimSpace(string(d.OrderID))
	s = strings.TrimSpace(strings.Trim(s, `"`))
	if s == "null" {
		return ""
	}
	return s
}

// ProductRow is one entry of a deal's product row collection
// (crm.deal.productrows.set). Rows are replaced wholesale, never merged.
type ProductRow struct {
	ProductID   int64  `json:"PRODUCT_ID"`
	ProductName string `json:"PRODUCT_NAME"`
	Price       string `json:"PRICE"`
	Quantity    int    `json:"QUANTITY"`
}

// APIError is an error payload returned by the CRM REST endpoint.
type APIError struct {
	Code        string `json:"error"`
	Description string `json:"error_description"`
}

func (e *APIError) Error() string {
	if e.Description != "" {
		return fmt.Sprintf("bitrix: %s: %s", e.Code, e.Description)
	}
	return fmt.Sprintf("bitrix: %s", e.Code)
}
