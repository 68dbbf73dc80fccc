package models

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestUnitIsValid(t *testing.T) {
	valid := []Unit{UnitPieces, UnitMeters, UnitYards, UnitSet, UnitRoll, UnitSpool, UnitKilograms, UnitGrams}
	for _, u := range valid {
		if !u.IsValid() {
			t.Errorf("Expected unit %q to be valid", u)
		}
	}
	for _, u := range []Unit{"", "LITERS", "pcs"} {
		if u.IsValid() {
			t.Errorf("Expected unit %q to be invalid", u)
		}
	}
}

func TestStockReasonIsAdjustmentReason(t *testing.T) {
	if !ReasonDamaged.IsAdjustmentReason() || !ReasonManualAdjustment.IsAdjustmentReason() {
		t.Error("DAMAGED and MANUAL_ADJUSTMENT must be allowed for adjustments")
	}
	for _, r := range []StockReason{ReasonPurchase, ReasonOrderUsage, ReasonInitialStock, ReasonOrderCancelled, ReasonReturned} {
		if r.IsAdjustmentReason() {
			t.Errorf("Reason %q must not be allowed for adjustments", r)
		}
	}
}

func TestInventoryItemIsLowStock(t *testing.T) {
	item := InventoryItem{
		CurrentStock: decimal.NewFromInt(4),
		MinimumStock: decimal.NewFromInt(5),
	}
	if !item.IsLowStock() {
		t.Error("Expected item below threshold to be low stock")
	}

	// Exactly at the threshold is not low.
	item.CurrentStock = decimal.NewFromInt(5)
	if item.IsLowStock() {
		t.Error("Expected item at threshold to not be low stock")
	}

	item.CurrentStock = decimal.NewFromInt(6)
	if item.IsLowStock() {
		t.Error("Expected item above threshold to not be low stock")
	}
}

func TestOrderMaterialTotalCost(t *testing.T) {
	price := decimal.RequireFromString("12.50")
	m := OrderMaterial{Quantity: decimal.NewFromInt(4), UnitPrice: &price}
	if !m.TotalCost().Equal(decimal.NewFromInt(50)) {
		t.Errorf("Expected total cost 50, got %s", m.TotalCost())
	}

	m.UnitPrice = nil
	if !m.TotalCost().IsZero() {
		t.Errorf("Expected total cost 0 without a price snapshot, got %s", m.TotalCost())
	}
}
