package reconcile

import (
	"github.com/shopspring/decimal"

	"github.com/garyjia/workflow-reconciler/internal/domain/entity"
)

var (
	itemPathID          = []string{"id", "item_id"}
	itemPathCode        = []string{"item_code", "code", "item.code"}
	itemPathDescription = []string{"description", "item_description", "item.description", "particulars"}
	itemPathUnit        = []string{"uom", "unit", "unit_of_measure"}
	itemPathQuantity    = []string{"quantity", "qty"}
	itemPathUnitPrice   = []string{"unit_price", "price", "unit_cost"}
	itemPathLineTotal   = []string{"total", "line_total", "amount"}
	itemPathServed      = []string{"served_qty", "served_quantity", "qty_served"}
)

const (
	quantityPlaces = 3
	moneyPlaces    = 2
)

var quantityTolerance = decimal.NewFromFloat(entity.QuantityTolerance)

// NormalizeItems converts legacy line items into request items, dropping lines
// without a description, a unit or a positive quantity. When fulfilled is true,
// lines with nothing served are treated as fully served.
func NormalizeItems(raw []any, fulfilled bool) []*entity.RequestItem {
	items := make([]*entity.RequestItem, 0, len(raw))
	for _, v := range raw {
		row, ok := AsRow(v)
		if !ok {
			continue
		}
		item, ok := normalizeItem(row, fulfilled)
		if !ok {
			continue
		}
		item.LineNumber = len(items) + 1
		items = append(items, item)
	}
	return items
}

func normalizeItem(row Row, fulfilled bool) (*entity.RequestItem, bool) {
	description, _ := String(row, itemPathDescription...)
	unit, _ := String(row, itemPathUnit...)
	qty, ok := Decimal(row, itemPathQuantity...)
	if description == "" || unit == "" || !ok {
		return nil, false
	}
	qty = qty.Round(quantityPlaces)
	if !qty.IsPositive() {
		return nil, false
	}

	item := &entity.RequestItem{
		Description: description,
		Unit:        unit,
		Quantity:    qty,
	}
	item.LegacyItemID, _ = String(row, itemPathID...)
	item.ItemCode, _ = String(row, itemPathCode...)

	if price, ok := Decimal(row, itemPathUnitPrice...); ok {
		item.UnitPrice = decimal.NewNullDecimal(price.Round(moneyPlaces))
	}
	if total, ok := Decimal(row, itemPathLineTotal...); ok {
		item.LineTotal = decimal.NewNullDecimal(total.Round(moneyPlaces))
	} else if item.UnitPrice.Valid {
		item.LineTotal = decimal.NewNullDecimal(qty.Mul(item.UnitPrice.Decimal).Round(moneyPlaces))
	}

	served, _ := Decimal(row, itemPathServed...)
	served = clampServed(served.Round(quantityPlaces), qty)
	if fulfilled && served.LessThanOrEqual(quantityTolerance) {
		served = qty
	}
	item.ServedQuantity = served

	return item, true
}

// clampServed keeps served within [0, quantity]
func clampServed(served, quantity decimal.Decimal) decimal.Decimal {
	if served.IsNegative() {
		return decimal.Zero
	}
	if served.GreaterThan(quantity) {
		return quantity
	}
	return served
}

// anyServed reports whether at least one item has a served quantity above tolerance
func anyServed(items []*entity.RequestItem) bool {
	for _, item := range items {
		if item.ServedQuantity.GreaterThan(quantityTolerance) {
			return true
		}
	}
	return false
}

// fullyServed reports whether every item is served to its quantity within tolerance
func fullyServed(items []*entity.RequestItem) bool {
	if len(items) == 0 {
		return false
	}
	for _, item := range items {
		if item.Quantity.Sub(item.ServedQuantity).GreaterThan(quantityTolerance) {
			return false
		}
	}
	return true
}
