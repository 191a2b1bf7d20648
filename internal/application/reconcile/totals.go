package reconcile

import (
	"github.com/shopspring/decimal"

	"github.com/garyjia/workflow-reconciler/internal/domain/entity"
	"github.com/garyjia/workflow-reconciler/internal/domain/workflow"
)

// Totals are the computed money amounts of a request
type Totals struct {
	Freight    decimal.Decimal
	Discount   decimal.Decimal
	Subtotal   decimal.Decimal
	GrandTotal decimal.Decimal
}

// ComputeTotals sums line totals into the subtotal. The legacy grand total wins when
// present, otherwise it is subtotal + freight - discount.
func ComputeTotals(row Row, items []*entity.RequestItem) Totals {
	var t Totals
	t.Freight, _ = Decimal(row, pathFreight...)
	t.Discount, _ = Decimal(row, pathDiscount...)
	t.Freight = t.Freight.Round(moneyPlaces)
	t.Discount = t.Discount.Round(moneyPlaces)

	t.Subtotal = decimal.Zero
	for _, item := range items {
		if item.LineTotal.Valid {
			t.Subtotal = t.Subtotal.Add(item.LineTotal.Decimal)
		}
	}
	t.Subtotal = t.Subtotal.Round(moneyPlaces)

	if total, ok := Decimal(row, pathGrandTotal...); ok {
		t.GrandTotal = total.Round(moneyPlaces)
	} else {
		t.GrandTotal = t.Subtotal.Add(t.Freight).Sub(t.Discount).Round(moneyPlaces)
	}
	return t
}

// ProcessingStatus derives the fulfillment sub-status of a request
func ProcessingStatus(status string, hasBatch, batchFinal bool) string {
	switch {
	case hasBatch && batchFinal:
		return entity.ProcessingStatusServed
	case hasBatch:
		return entity.ProcessingStatusPartiallyServed
	case status == entity.RequestStatusApproved:
		return entity.ProcessingStatusForServing
	}
	return ""
}

// PostingStatus derives the downstream posting sub-status of a request
func PostingStatus(status string, legacy workflow.LegacyStatus) string {
	if status != entity.RequestStatusApproved {
		return ""
	}
	switch {
	case legacy.ImpliesPosting():
		return entity.PostingStatusPosted
	case legacy == workflow.LegacyForPosting:
		return entity.PostingStatusForPosting
	}
	return entity.PostingStatusUnposted
}
