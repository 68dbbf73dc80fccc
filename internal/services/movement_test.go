package services

import (
	"errors"
	"testing"

	"boutique_backend/internal/models"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestApplyStockIn(t *testing.T) {
	mv, err := applyStockIn(dec("10"), dec("4.5"), models.ReasonPurchase)
	if err != nil {
		t.Fatalf("applyStockIn failed: %v", err)
	}
	if !mv.NewBalance.Equal(dec("14.5")) {
		t.Errorf("Expected new balance 14.5, got %s", mv.NewBalance)
	}
	if mv.Entry.TransactionType != models.TransactionIn {
		t.Errorf("Expected transaction type IN, got %s", mv.Entry.TransactionType)
	}
	if mv.Entry.Reason != models.ReasonPurchase {
		t.Errorf("Expected reason PURCHASE, got %s", mv.Entry.Reason)
	}
	if !mv.Entry.StockAfter.Sub(mv.Entry.StockBefore).Equal(mv.Entry.Quantity) {
		t.Errorf("Expected stock_after - stock_before == quantity, got %s - %s != %s",
			mv.Entry.StockAfter, mv.Entry.StockBefore, mv.Entry.Quantity)
	}
}

func TestApplyStockIn_RejectsNonPositiveQuantity(t *testing.T) {
	for _, q := range []string{"0", "-1", "-0.01"} {
		if _, err := applyStockIn(dec("10"), dec(q), models.ReasonPurchase); !errors.Is(err, ErrInvalidQuantity) {
			t.Errorf("quantity %s: expected ErrInvalidQuantity, got %v", q, err)
		}
	}
}

func TestApplyAdjustment_Down(t *testing.T) {
	mv, err := applyAdjustment(dec("10"), dec("4"), models.ReasonDamaged)
	if err != nil {
		t.Fatalf("applyAdjustment failed: %v", err)
	}
	if !mv.NewBalance.Equal(dec("4")) {
		t.Errorf("Expected new balance 4, got %s", mv.NewBalance)
	}
	if mv.Entry.TransactionType != models.TransactionAdjustment {
		t.Errorf("Expected transaction type ADJUSTMENT, got %s", mv.Entry.TransactionType)
	}
	if !mv.Entry.Quantity.Equal(dec("6")) {
		t.Errorf("Expected recorded quantity 6 (absolute difference), got %s", mv.Entry.Quantity)
	}
	if !mv.Entry.StockBefore.Equal(dec("10")) || !mv.Entry.StockAfter.Equal(dec("4")) {
		t.Errorf("Expected snapshots 10 -> 4, got %s -> %s", mv.Entry.StockBefore, mv.Entry.StockAfter)
	}
}

func TestApplyAdjustment_Up(t *testing.T) {
	mv, err := applyAdjustment(dec("3"), dec("9.25"), models.ReasonManualAdjustment)
	if err != nil {
		t.Fatalf("applyAdjustment failed: %v", err)
	}
	if !mv.Entry.Quantity.Equal(dec("6.25")) {
		t.Errorf("Expected recorded quantity 6.25, got %s", mv.Entry.Quantity)
	}
	if mv.Entry.Quantity.IsNegative() {
		t.Errorf("Recorded quantity must never be negative, got %s", mv.Entry.Quantity)
	}
}

func TestApplyAdjustment_NoChange(t *testing.T) {
	mv, err := applyAdjustment(dec("7"), dec("7"), models.ReasonManualAdjustment)
	if err != nil {
		t.Fatalf("applyAdjustment failed: %v", err)
	}
	if !mv.Entry.Quantity.IsZero() {
		t.Errorf("Expected quantity 0 for a no-op adjustment, got %s", mv.Entry.Quantity)
	}
}

func TestApplyAdjustment_RejectsNegativeTarget(t *testing.T) {
	if _, err := applyAdjustment(dec("10"), dec("-1"), models.ReasonDamaged); !errors.Is(err, ErrInvalidQuantity) {
		t.Errorf("Expected ErrInvalidQuantity for negative target, got %v", err)
	}
}

func TestApplyDeduction(t *testing.T) {
	mv, err := applyDeduction(dec("10"), dec("4"))
	if err != nil {
		t.Fatalf("applyDeduction failed: %v", err)
	}
	if !mv.NewBalance.Equal(dec("6")) {
		t.Errorf("Expected new balance 6, got %s", mv.NewBalance)
	}
	if mv.Entry.TransactionType != models.TransactionOut {
		t.Errorf("Expected transaction type OUT, got %s", mv.Entry.TransactionType)
	}
	if mv.Entry.Reason != models.ReasonOrderUsage {
		t.Errorf("Expected reason ORDER_USAGE, got %s", mv.Entry.Reason)
	}
	if !mv.Entry.StockBefore.Sub(mv.Entry.StockAfter).Equal(mv.Entry.Quantity) {
		t.Errorf("Expected stock_before - stock_after == quantity, got %s - %s != %s",
			mv.Entry.StockBefore, mv.Entry.StockAfter, mv.Entry.Quantity)
	}
}

func TestApplyDeduction_ExactBalance(t *testing.T) {
	mv, err := applyDeduction(dec("5"), dec("5"))
	if err != nil {
		t.Fatalf("Deducting the exact balance must succeed, got: %v", err)
	}
	if !mv.NewBalance.IsZero() {
		t.Errorf("Expected new balance 0, got %s", mv.NewBalance)
	}
}

func TestApplyDeduction_InsufficientStock(t *testing.T) {
	if _, err := applyDeduction(dec("3"), dec("5")); !errors.Is(err, ErrInsufficientStock) {
		t.Errorf("Expected ErrInsufficientStock, got %v", err)
	}
}

func TestApplyDeduction_RejectsNonPositiveQuantity(t *testing.T) {
	for _, q := range []string{"0", "-2"} {
		if _, err := applyDeduction(dec("10"), dec(q)); !errors.Is(err, ErrInvalidQuantity) {
			t.Errorf("quantity %s: expected ErrInvalidQuantity, got %v", q, err)
		}
	}
}

func TestApplyRestoration(t *testing.T) {
	mv, err := applyRestoration(dec("2"), dec("8"))
	if err != nil {
		t.Fatalf("applyRestoration failed: %v", err)
	}
	if !mv.NewBalance.Equal(dec("10")) {
		t.Errorf("Expected new balance 10, got %s", mv.NewBalance)
	}
	if mv.Entry.TransactionType != models.TransactionIn {
		t.Errorf("Expected transaction type IN, got %s", mv.Entry.TransactionType)
	}
	if mv.Entry.Reason != models.ReasonOrderCancelled {
		t.Errorf("Expected reason ORDER_CANCELLED, got %s", mv.Entry.Reason)
	}
}

func TestApplyInitialStock(t *testing.T) {
	mv, err := applyInitialStock(dec("25"))
	if err != nil {
		t.Fatalf("applyInitialStock failed: %v", err)
	}
	if !mv.Entry.StockBefore.IsZero() {
		t.Errorf("Initial stock must start from 0, got stock_before=%s", mv.Entry.StockBefore)
	}
	if !mv.Entry.StockAfter.Equal(dec("25")) {
		t.Errorf("Expected stock_after 25, got %s", mv.Entry.StockAfter)
	}
	if mv.Entry.Reason != models.ReasonInitialStock {
		t.Errorf("Expected reason INITIAL_STOCK, got %s", mv.Entry.Reason)
	}
}

func TestApplyInitialStock_RejectsZero(t *testing.T) {
	if _, err := applyInitialStock(decimal.Zero); !errors.Is(err, ErrInvalidQuantity) {
		t.Errorf("Expected ErrInvalidQuantity for zero opening stock, got %v", err)
	}
}
