package deal

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/commercebridge/shopsync/internal/bitrix"
	"github.com/commercebridge/shopsync/internal/shopify"
)

func testOrder() *shopify.Order {
	return &shopify.Order{
		ID:              820982911946154508,
		Name:            "#1001",
		FinancialStatus: shopify.StatusPaid,
		Currency:        "USD",
		TotalPrice:      "149.90",
		TotalTax:        "12.50",
		TotalDiscounts:  "10.00",
		SourceName:      "web",
		Tags:            "vip, repeat-buyer",
		Email:           "sarah@example.com",
		CreatedAt:       "2024-03-05T14:22:09-05:00",
		Customer: &shopify.Customer{
			ID: 115310627314723954, Email: "sarah@example.com",
			FirstName: "Sarah", LastName: "Connor",
		},
		LineItems: []shopify.LineItem{
			{ID: 1, Title: "Canvas Tote", Quantity: 2, Price: "24.95", SKU: "TOTE-01", ProductID: 632910392},
			{ID: 2, Title: "Enamel Mug", Quantity: 1, Price: "100.00", SKU: "MUG-02", ProductID: 632910393},
		},
		ShippingLines: []shopify.ShippingLine{{Title: "Standard Shipping", Price: "5.00"}},
	}
}

func wantDecimal(t *testing.T, fields bitrix.Fields, key, want string) {
	t.Helper()
	v, ok := fields[key].(decimal.Decimal)
	if !ok {
		t.Fatalf("field %s: expected decimal, got %T (%v)", key, fields[key], fields[key])
	}
	if !v.Equal(decimal.RequireFromString(want)) {
		t.Errorf("field %s: expected %s, got %s", key, want, v.String())
	}
}

func TestMapOrderMonetaryFields(t *testing.T) {
	fields, _ := MapOrder(testOrder())

	wantDecimal(t, fields, bitrix.FieldAmount, "149.9")
	wantDecimal(t, fields, bitrix.FieldTax, "12.5")
	wantDecimal(t, fields, bitrix.FieldDiscount, "10")
}

func TestMapOrderMissingMoneyIsNil(t *testing.T) {
	o := testOrder()
	o.TotalPrice = ""
	o.TotalTax = "not-a-number"

	fields, _ := MapOrder(o)

	if fields[bitrix.FieldAmount] != nil {
		t.Errorf("expected nil amount for missing total, got %v", fields[bitrix.FieldAmount])
	}
	if fields[bitrix.FieldTax] != nil {
		t.Errorf("expected nil tax for unparseable total, got %v", fields[bitrix.FieldTax])
	}
}

func TestMapOrderJoinKeyAlwaysSet(t *testing.T) {
	fields, _ := MapOrder(testOrder())
	if fields[bitrix.FieldOrderID] != "820982911946154508" {
		t.Errorf("expected stringified order id, got %v", fields[bitrix.FieldOrderID])
	}
}

func TestDiscountSumsCodes(t *testing.T) {
	o := testOrder()
	o.DiscountCodes = []shopify.DiscountCode{
		{Code: "SPRING", Amount: "5.00"},
		{Code: "LOYAL", Amount: "2.50"},
	}
	fields, _ := MapOrder(o)
	wantDecimal(t, fields, bitrix.FieldDiscount, "7.5")
}

func TestDiscountFallsBackToAggregate(t *testing.T) {
	o := testOrder()
	o.DiscountCodes = nil
	o.TotalDiscounts = "10.00"

	fields, _ := MapOrder(o)
	wantDecimal(t, fields, bitrix.FieldDiscount, "10")
}

func TestDiscountZeroNormalizesToNil(t *testing.T) {
	o := testOrder()
	o.DiscountCodes = []shopify.DiscountCode{{Code: "FREEBIE", Amount: "0.00"}}

	fields, _ := MapOrder(o)
	if fields[bitrix.FieldDiscount] != nil {
		t.Errorf("expected nil for zero code sum, got %v", fields[bitrix.FieldDiscount])
	}

	o.DiscountCodes = nil
	o.TotalDiscounts = "0.00"
	fields, _ = MapOrder(o)
	if fields[bitrix.FieldDiscount] != nil {
		t.Errorf("expected nil for zero aggregate, got %v", fields[bitrix.FieldDiscount])
	}
}

func TestCustomerNameFallbackChain(t *testing.T) {
	o := testOrder()
	fields, _ := MapOrder(o)
	if fields[bitrix.FieldCustomerName] != "Sarah Connor" {
		t.Errorf("expected customer name, got %v", fields[bitrix.FieldCustomerName])
	}

	o.Customer = nil
	o.BillingAddress = &shopify.Address{FirstName: " Kyle ", LastName: "Reese"}
	fields, _ = MapOrder(o)
	if fields[bitrix.FieldCustomerName] != "Kyle Reese" {
		t.Errorf("expected billing name fallback, got %v", fields[bitrix.FieldCustomerName])
	}

	o.BillingAddress = &shopify.Address{FirstName: "  ", LastName: ""}
	fields, _ = MapOrder(o)
	if fields[bitrix.FieldCustomerName] != nil {
		t.Errorf("expected nil for whitespace-only name, got %v", fields[bitrix.FieldCustomerName])
	}
}

func TestCalendarDateGranularity(t *testing.T) {
	fields, _ := MapOrder(testOrder())
	if fields[bitrix.FieldBeginDate] != "2024-03-05" {
		t.Errorf("expected calendar date, got %v", fields[bitrix.FieldBeginDate])
	}

	o := testOrder()
	o.CreatedAt = "yesterday-ish"
	fields, _ = MapOrder(o)
	if fields[bitrix.FieldBeginDate] != nil {
		t.Errorf("expected nil for unparseable date, got %v", fields[bitrix.FieldBeginDate])
	}
}

func TestLineItemRows(t *testing.T) {
	_, rows := MapOrder(testOrder())

	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0].ProductID != 632910392 || rows[0].ProductName != "Canvas Tote" {
		t.Errorf("unexpected first row: %+v", rows[0])
	}
	if rows[0].Price != "24.95" || rows[0].Quantity != 2 {
		t.Errorf("unexpected first row price/quantity: %+v", rows[0])
	}
}

func TestLineItemNameAndIDFallbacks(t *testing.T) {
	o := testOrder()
	o.LineItems = []shopify.LineItem{
		{ID: 3, Name: "Fallback Name", Quantity: 1, Price: "1.00", VariantID: 99},
		{ID: 4, SKU: "SKU-ONLY", Quantity: 1, Price: "bad"},
	}

	_, rows := MapOrder(o)
	if rows[0].ProductName != "Fallback Name" || rows[0].ProductID != 99 {
		t.Errorf("unexpected fallback row: %+v", rows[0])
	}
	if rows[1].ProductName != "SKU-ONLY" || rows[1].Price != "0" {
		t.Errorf("unexpected sku fallback row: %+v", rows[1])
	}
}

func TestZeroLineItemsMapsToEmptyRows(t *testing.T) {
	o := testOrder()
	o.LineItems = nil

	_, rows := MapOrder(o)
	if rows == nil || len(rows) != 0 {
		t.Errorf("expected empty non-nil rows, got %#v", rows)
	}
}

func TestOrderTypeAndDeliveryOnlyWhenPresent(t *testing.T) {
	o := testOrder()
	fields, _ := MapOrder(o)
	if fields[bitrix.FieldOrderType] != "web" {
		t.Errorf("expected order type web, got %v", fields[bitrix.FieldOrderType])
	}
	if fields[bitrix.FieldDeliveryMethod] != "Standard Shipping" {
		t.Errorf("expected delivery method, got %v", fields[bitrix.FieldDeliveryMethod])
	}

	o.SourceName = "  "
	o.ShippingLines = nil
	fields, _ = MapOrder(o)
	if _, ok := fields[bitrix.FieldOrderType]; ok {
		t.Error("expected order type to be absent for blank source")
	}
	if _, ok := fields[bitrix.FieldDeliveryMethod]; ok {
		t.Error("expected delivery method to be absent without shipping lines")
	}
}
