package deal

import (
	"fmt"
	"strings"

	"github.com/commercebridge/shopsync/internal/shopify"
)

// Stage names within a pipeline category. Non-default categories use the
// CRM's "C{n}:NAME" identifier space; stageID applies the prefix.
const (
	stageNew        = "NEW"
	stagePrepayment = "PREPAYMENT_INVOICE"
	stageWon        = "WON"
	stageLose       = "LOSE"
)

// Payment status codes written to the deal's payment-status field.
const (
	PaymentPaid              = "PAID"
	PaymentPending           = "PENDING"
	PaymentPartiallyPaid     = "PARTIALLY_PAID"
	PaymentRefunded          = "REFUNDED"
	PaymentPartiallyRefunded = "PARTIALLY_REFUNDED"
	PaymentVoided            = "VOIDED"
	PaymentCancelled         = "CANCELLED"
)

// stageID renders a stage name in the identifier space of the given
// pipeline category. Category 0 is the CRM's default pipeline and carries
// no prefix.
func stageID(categoryID int, name string) string {
	if categoryID == 0 {
		return name
	}
	return fmt.Sprintf("C%d:%s", categoryID, name)
}

// StageFor maps an order's financial status to the target pipeline stage
// within the given category. Unrecognized statuses return currentStage
// unchanged so an unknown status can never silently move a deal.
func StageFor(status string, categoryID int, currentStage string) string {
	switch status {
	case shopify.StatusPending:
		return stageID(categoryID, stageNew)
	case shopify.StatusPartiallyPaid:
		return stageID(categoryID, stagePrepayment)
	case shopify.StatusPaid:
		return stageID(categoryID, stageWon)
	case shopify.StatusRefunded, shopify.StatusVoided, shopify.StatusCancelled:
		return stageID(categoryID, stageLose)
	case shopify.StatusPartiallyRefunded:
		// Partial refunds keep the deal where it is; only a full
		// refund/void/cancel moves it to the lost stage.
		return currentStage
	default:
		return currentStage
	}
}

// PaymentStatusFor maps a financial status to the payment-status code stored
// on the deal. Unknown statuses pass through uppercased so operators still
// see what the platform sent.
func PaymentStatusFor(status string) string {
	switch status {
	case shopify.StatusPaid:
		return PaymentPaid
	case shopify.StatusPending:
		return PaymentPending
	case shopify.StatusPartiallyPaid:
		return PaymentPartiallyPaid
	case shopify.StatusRefunded:
		return PaymentRefunded
	case shopify.StatusPartiallyRefunded:
		return PaymentPartiallyRefunded
	case shopify.StatusVoided:
		return PaymentVoided
	case shopify.StatusCancelled:
		return PaymentCancelled
	default:
		return strings.ToUpper(strings.TrimSpace(status))
	}
}

// CategoryFor derives the pipeline category from the order's tags: any
// case-insensitive match against preorderTags selects preorderCategoryID,
// otherwise stockCategoryID.
func CategoryFor(tags []string, preorderTags []string, stockCategoryID, preorderCategoryID int) int {
	for _, tag := range tags {
		for _, pt := range preorderTags {
			if strings.EqualFold(strings.TrimSpace(tag), strings.TrimSpace(pt)) {
				return preorderCategoryID
			}
		}
	}
	return stockCategoryID
}
