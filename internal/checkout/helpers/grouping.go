package helpers

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/kiranakart/kiranakart-backend/internal/pricing"
)

// SellerGroup is one seller's slice of a multi-seller order.
type SellerGroup struct {
	SellerID       uuid.UUID
	Items          []pricing.ValidatedItem
	Subtotal       decimal.Decimal
	DeliveryCharge decimal.Decimal
}

// GroupBySeller partitions validated line items by seller. The delivery
// charge is a flat per-seller charge taken from the seller's product config,
// not summed across items. An empty input yields an empty map.
func GroupBySeller(items []pricing.ValidatedItem) map[uuid.UUID]SellerGroup {
	grouped := make(map[uuid.UUID]SellerGroup, len(items))
	for _, item := range items {
		group, ok := grouped[item.SellerID]
		if !ok {
			group = SellerGroup{
				SellerID:       item.SellerID,
				Subtotal:       decimal.Zero,
				DeliveryCharge: item.DeliveryCharge,
			}
		}
		group.Items = append(group.Items, item)
		group.Subtotal = group.Subtotal.Add(item.LineTotal)
		grouped[item.SellerID] = group
	}
	return grouped
}

// OrderTotals carries the order-level sums derived from seller groups.
type OrderTotals struct {
	ItemsTotal    decimal.Decimal
	DeliveryTotal decimal.Decimal
	Total         decimal.Decimal
}

// ComputeOrderTotals sums per-seller subtotals and delivery charges into the
// order header amounts.
func ComputeOrderTotals(groups map[uuid.UUID]SellerGroup) OrderTotals {
	totals := OrderTotals{
		ItemsTotal:    decimal.Zero,
		DeliveryTotal: decimal.Zero,
	}
	for _, group := range groups {
		totals.ItemsTotal = totals.ItemsTotal.Add(group.Subtotal)
		totals.DeliveryTotal = totals.DeliveryTotal.Add(group.DeliveryCharge)
	}
	totals.Total = totals.ItemsTotal.Add(totals.DeliveryTotal)
	return totals
}
