package services_test

import (
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"boutique_backend/internal/models"
	"boutique_backend/internal/services"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func TestStockIn(t *testing.T) {
	env := setupTestDB(t)
	item := createTestItem(t, env, "Silk Fabric", 0, 0)

	supplier := "Mulberry Mills"
	result, err := env.stock.StockIn(env.shopID, item.ID, services.StockInRequest{
		Quantity:     decimal.NewFromInt(10),
		SupplierName: &supplier,
	}, env.userID)
	if err != nil {
		t.Fatalf("StockIn failed: %v", err)
	}
	if !result.Item.CurrentStock.Equal(decimal.NewFromInt(10)) {
		t.Errorf("Expected current_stock=10, got %s", result.Item.CurrentStock)
	}
	if result.HistoryID == "" {
		t.Error("Expected a history entry id")
	}

	entries := getHistory(t, env, item.ID)
	if len(entries) != 1 {
		t.Fatalf("Expected 1 history entry, got %d", len(entries))
	}
	entry := entries[0]
	if entry.TransactionType != models.TransactionIn || entry.Reason != models.ReasonPurchase {
		t.Errorf("Expected IN/PURCHASE entry, got %s/%s", entry.TransactionType, entry.Reason)
	}
	if !entry.StockBefore.IsZero() || !entry.StockAfter.Equal(decimal.NewFromInt(10)) {
		t.Errorf("Expected snapshots 0 -> 10, got %s -> %s", entry.StockBefore, entry.StockAfter)
	}
	if entry.SupplierName == nil || *entry.SupplierName != supplier {
		t.Errorf("Expected supplier name %q on the entry, got %v", supplier, entry.SupplierName)
	}
	if entry.CreatedBy == nil || *entry.CreatedBy != env.userID {
		t.Errorf("Expected created_by %s, got %v", env.userID, entry.CreatedBy)
	}
}

func TestStockIn_InvalidQuantity(t *testing.T) {
	env := setupTestDB(t)
	item := createTestItem(t, env, "Buttons", 5, 0)

	for _, q := range []int64{0, -3} {
		_, err := env.stock.StockIn(env.shopID, item.ID, services.StockInRequest{
			Quantity: decimal.NewFromInt(q),
		}, env.userID)
		if !errors.Is(err, services.ErrInvalidQuantity) {
			t.Errorf("quantity %d: expected ErrInvalidQuantity, got %v", q, err)
		}
	}

	// Rejected movements leave no trace.
	if entries := getHistory(t, env, item.ID); len(entries) != 1 {
		t.Errorf("Expected only the initial-stock entry, got %d entries", len(entries))
	}
	if balance := getItem(t, env, item.ID).CurrentStock; !balance.Equal(decimal.NewFromInt(5)) {
		t.Errorf("Expected balance unchanged at 5, got %s", balance)
	}
}

func TestStockIn_UnknownItem(t *testing.T) {
	env := setupTestDB(t)

	_, err := env.stock.StockIn(env.shopID, uuid.NewString(), services.StockInRequest{
		Quantity: decimal.NewFromInt(1),
	}, env.userID)
	if !errors.Is(err, services.ErrItemNotFound) {
		t.Errorf("Expected ErrItemNotFound, got %v", err)
	}
}

func TestStockIn_CrossShopIsNotFound(t *testing.T) {
	env := setupTestDB(t)
	item := createTestItem(t, env, "Lace Trim", 10, 0)
	otherShop := env.seedShop(t, "Other Boutique")

	_, err := env.stock.StockIn(otherShop, item.ID, services.StockInRequest{
		Quantity: decimal.NewFromInt(1),
	}, env.userID)
	if !errors.Is(err, services.ErrItemNotFound) {
		t.Errorf("Expected ErrItemNotFound for another shop's item, got %v", err)
	}
}

func TestAdjustStock(t *testing.T) {
	env := setupTestDB(t)
	item := createTestItem(t, env, "Wool Yarn", 10, 0)

	result, err := env.stock.AdjustStock(env.shopID, item.ID, services.StockAdjustmentRequest{
		NewStock: decimal.NewFromInt(4),
		Reason:   models.ReasonDamaged,
	}, env.userID)
	if err != nil {
		t.Fatalf("AdjustStock failed: %v", err)
	}
	if !result.Item.CurrentStock.Equal(decimal.NewFromInt(4)) {
		t.Errorf("Expected current_stock=4, got %s", result.Item.CurrentStock)
	}

	entries := getHistory(t, env, item.ID)
	if len(entries) != 2 {
		t.Fatalf("Expected 2 history entries (initial + adjustment), got %d", len(entries))
	}
	entry := entries[0]
	if entry.TransactionType != models.TransactionAdjustment || entry.Reason != models.ReasonDamaged {
		t.Errorf("Expected ADJUSTMENT/DAMAGED entry, got %s/%s", entry.TransactionType, entry.Reason)
	}
	if !entry.Quantity.Equal(decimal.NewFromInt(6)) {
		t.Errorf("Expected recorded quantity 6 (absolute difference), got %s", entry.Quantity)
	}
	if !entry.StockBefore.Equal(decimal.NewFromInt(10)) || !entry.StockAfter.Equal(decimal.NewFromInt(4)) {
		t.Errorf("Expected snapshots 10 -> 4, got %s -> %s", entry.StockBefore, entry.StockAfter)
	}
}

func TestAdjustStock_RejectsInvalidReason(t *testing.T) {
	env := setupTestDB(t)
	item := createTestItem(t, env, "Zippers", 10, 0)

	_, err := env.stock.AdjustStock(env.shopID, item.ID, services.StockAdjustmentRequest{
		NewStock: decimal.NewFromInt(4),
		Reason:   models.ReasonPurchase,
	}, env.userID)
	if !errors.Is(err, services.ErrValidation) {
		t.Errorf("Expected ErrValidation for reason PURCHASE, got %v", err)
	}
}

func TestAdjustStock_RejectsNegativeTarget(t *testing.T) {
	env := setupTestDB(t)
	item := createTestItem(t, env, "Elastic Band", 10, 0)

	_, err := env.stock.AdjustStock(env.shopID, item.ID, services.StockAdjustmentRequest{
		NewStock: decimal.NewFromInt(-1),
		Reason:   models.ReasonManualAdjustment,
	}, env.userID)
	if !errors.Is(err, services.ErrInvalidQuantity) {
		t.Errorf("Expected ErrInvalidQuantity for negative target, got %v", err)
	}
}

func TestDeductRestoreRoundTrip(t *testing.T) {
	env := setupTestDB(t)
	item := createTestItem(t, env, "Cotton Fabric", 10, 0)

	tx, err := env.db.Begin()
	if err != nil {
		t.Fatalf("Failed to begin transaction: %v", err)
	}
	result, err := env.stock.DeductForOrderUsage(tx, env.shopID, item.ID, decimal.NewFromInt(4), env.orderID, nil, nil, env.userID)
	if err != nil {
		tx.Rollback()
		t.Fatalf("DeductForOrderUsage failed: %v", err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("Failed to commit deduction: %v", err)
	}
	if !result.Item.CurrentStock.Equal(decimal.NewFromInt(6)) {
		t.Errorf("Expected balance 6 after deduction, got %s", result.Item.CurrentStock)
	}

	tx, err = env.db.Begin()
	if err != nil {
		t.Fatalf("Failed to begin transaction: %v", err)
	}
	result, err = env.stock.RestoreForOrderCancellation(tx, env.shopID, item.ID, decimal.NewFromInt(4), env.orderID, nil, env.userID)
	if err != nil {
		tx.Rollback()
		t.Fatalf("RestoreForOrderCancellation failed: %v", err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("Failed to commit restoration: %v", err)
	}
	if !result.Item.CurrentStock.Equal(decimal.NewFromInt(10)) {
		t.Errorf("Expected balance 10 after restoration, got %s", result.Item.CurrentStock)
	}

	// Initial stock + deduction + restoration, nothing else.
	entries := getHistory(t, env, item.ID)
	if len(entries) != 3 {
		t.Fatalf("Expected 3 history entries, got %d", len(entries))
	}
	restore, deduct := entries[0], entries[1]
	if deduct.TransactionType != models.TransactionOut || deduct.Reason != models.ReasonOrderUsage {
		t.Errorf("Expected OUT/ORDER_USAGE entry, got %s/%s", deduct.TransactionType, deduct.Reason)
	}
	if restore.TransactionType != models.TransactionIn || restore.Reason != models.ReasonOrderCancelled {
		t.Errorf("Expected IN/ORDER_CANCELLED entry, got %s/%s", restore.TransactionType, restore.Reason)
	}
	if deduct.OrderID == nil || *deduct.OrderID != env.orderID {
		t.Errorf("Expected order id %s on the deduction entry, got %v", env.orderID, deduct.OrderID)
	}
}

func TestDeductForOrderUsage_InsufficientStock(t *testing.T) {
	env := setupTestDB(t)
	item := createTestItem(t, env, "Velvet Ribbon", 3, 0)

	tx, err := env.db.Begin()
	if err != nil {
		t.Fatalf("Failed to begin transaction: %v", err)
	}
	defer tx.Rollback()

	_, err = env.stock.DeductForOrderUsage(tx, env.shopID, item.ID, decimal.NewFromInt(5), env.orderID, nil, nil, env.userID)
	if !errors.Is(err, services.ErrInsufficientStock) {
		t.Fatalf("Expected ErrInsufficientStock, got %v", err)
	}
	if !strings.Contains(err.Error(), "available 3") {
		t.Errorf("Expected the error to report the available balance, got %q", err.Error())
	}
}

func TestDeductForOrderUsage_ConcurrentNeverNegative(t *testing.T) {
	env := setupTestDB(t)
	item := createTestItem(t, env, "Pearl Beads", 5, 0)

	const workers = 8
	var wg sync.WaitGroup
	var successes int64
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tx, err := env.db.Begin()
			if err != nil {
				t.Errorf("Failed to begin transaction: %v", err)
				return
			}
			_, err = env.stock.DeductForOrderUsage(tx, env.shopID, item.ID, decimal.NewFromInt(1), env.orderID, nil, nil, env.userID)
			if err != nil {
				tx.Rollback()
				if !errors.Is(err, services.ErrInsufficientStock) {
					t.Errorf("Expected ErrInsufficientStock for losing workers, got %v", err)
				}
				return
			}
			if err := tx.Commit(); err != nil {
				t.Errorf("Failed to commit deduction: %v", err)
				return
			}
			atomic.AddInt64(&successes, 1)
		}()
	}
	wg.Wait()

	if successes != 5 {
		t.Errorf("Expected exactly 5 of %d deductions to succeed, got %d", workers, successes)
	}
	balance := getItem(t, env, item.ID).CurrentStock
	if !balance.IsZero() {
		t.Errorf("Expected balance 0 after draining the item, got %s", balance)
	}
	// Initial stock + one entry per committed deduction.
	if entries := getHistory(t, env, item.ID); len(entries) != 6 {
		t.Errorf("Expected 6 history entries, got %d", len(entries))
	}
}

func TestGetItemHistory_CapsAtFifty(t *testing.T) {
	env := setupTestDB(t)
	item := createTestItem(t, env, "Sewing Needles", 1, 0)

	for i := 0; i < 55; i++ {
		if _, err := env.stock.StockIn(env.shopID, item.ID, services.StockInRequest{
			Quantity: decimal.NewFromInt(1),
		}, env.userID); err != nil {
			t.Fatalf("StockIn %d failed: %v", i, err)
		}
	}

	entries := getHistory(t, env, item.ID)
	if len(entries) != 50 {
		t.Fatalf("Expected history capped at 50 entries, got %d", len(entries))
	}
	// Newest first: the top entry carries the final balance.
	if !entries[0].StockAfter.Equal(decimal.NewFromInt(56)) {
		t.Errorf("Expected newest entry stock_after=56, got %s", entries[0].StockAfter)
	}
}

func TestGetItemHistory_UnknownItem(t *testing.T) {
	env := setupTestDB(t)

	_, err := env.stock.GetItemHistory(env.shopID, uuid.NewString())
	if !errors.Is(err, services.ErrItemNotFound) {
		t.Errorf("Expected ErrItemNotFound, got %v", err)
	}
}
