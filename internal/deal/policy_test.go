package deal

import (
	"testing"

	"github.com/commercebridge/shopsync/internal/shopify"
)

func TestStageForDefaultCategory(t *testing.T) {
	cases := []struct {
		status string
		want   string
	}{
		{shopify.StatusPending, "NEW"},
		{shopify.StatusPartiallyPaid, "PREPAYMENT_INVOICE"},
		{shopify.StatusPaid, "WON"},
		{shopify.StatusRefunded, "LOSE"},
		{shopify.StatusVoided, "LOSE"},
		{shopify.StatusCancelled, "LOSE"},
	}
	for _, tc := range cases {
		if got := StageFor(tc.status, 0, "EXECUTING"); got != tc.want {
			t.Errorf("StageFor(%q, 0): expected %q, got %q", tc.status, tc.want, got)
		}
	}
}

func TestStageForPrefixedCategory(t *testing.T) {
	if got := StageFor(shopify.StatusPaid, 1, "C1:NEW"); got != "C1:WON" {
		t.Errorf("expected C1:WON, got %q", got)
	}
	if got := StageFor(shopify.StatusCancelled, 7, "C7:NEW"); got != "C7:LOSE" {
		t.Errorf("expected C7:LOSE, got %q", got)
	}
}

func TestStageForUnknownStatusPreservesCurrent(t *testing.T) {
	if got := StageFor("authorized", 0, "EXECUTING"); got != "EXECUTING" {
		t.Errorf("unknown status must not move the deal, got %q", got)
	}
	if got := StageFor("", 1, "C1:NEW"); got != "C1:NEW" {
		t.Errorf("empty status must not move the deal, got %q", got)
	}
}

func TestStageForPartialRefundPreservesCurrent(t *testing.T) {
	if got := StageFor(shopify.StatusPartiallyRefunded, 0, "WON"); got != "WON" {
		t.Errorf("partial refund must preserve stage, got %q", got)
	}
}

func TestPaymentStatusFor(t *testing.T) {
	cases := map[string]string{
		shopify.StatusPaid:              PaymentPaid,
		shopify.StatusPending:           PaymentPending,
		shopify.StatusPartiallyPaid:     PaymentPartiallyPaid,
		shopify.StatusRefunded:          PaymentRefunded,
		shopify.StatusPartiallyRefunded: PaymentPartiallyRefunded,
		shopify.StatusVoided:            PaymentVoided,
		shopify.StatusCancelled:         PaymentCancelled,
		"authorized":                    "AUTHORIZED",
	}
	for status, want := range cases {
		if got := PaymentStatusFor(status); got != want {
			t.Errorf("PaymentStatusFor(%q): expected %q, got %q", status, want, got)
		}
	}
}

func TestCategoryForTagMatching(t *testing.T) {
	preorder := []string{"pre-order", "preorder"}

	cases := []struct {
		tags []string
		want int
	}{
		{[]string{"Pre-Order"}, 1},
		{[]string{"PREORDER"}, 1},
		{[]string{"vip", " pre-order "}, 1},
		{[]string{"vip", "wholesale"}, 0},
		{nil, 0},
	}
	for _, tc := range cases {
		if got := CategoryFor(tc.tags, preorder, 0, 1); got != tc.want {
			t.Errorf("CategoryFor(%v): expected %d, got %d", tc.tags, tc.want, got)
		}
	}
}
