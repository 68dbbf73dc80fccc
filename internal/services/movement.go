package services

import (
	"errors"

	"boutique_backend/internal/models"

	"github.com/shopspring/decimal"
)

// Movement errors shared by the stock service and the order-material binder.
var (
	ErrInvalidQuantity   = errors.New("quantity must be a positive amount")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrConflict          = errors.New("stock balance changed concurrently, retry the operation")
)

// movement is the outcome of a balance transition: the new balance and the
// ledger entry skeleton describing it. Item and actor references are filled
// in by the caller before the entry is persisted.
type movement struct {
	NewBalance decimal.Decimal
	Entry      models.StockHistory
}

// applyStockIn increases the balance by quantity (restock/purchase).
func applyStockIn(balance, quantity decimal.Decimal, reason models.StockReason) (movement, error) {
	if quantity.LessThanOrEqual(decimal.Zero) {
		return movement{}, ErrInvalidQuantity
	}
	after := balance.Add(quantity)
	return movement{
		NewBalance: after,
		Entry: models.StockHistory{
			TransactionType: models.TransactionIn,
			Reason:          reason,
			Quantity:        quantity,
			StockBefore:     balance,
			StockAfter:      after,
		},
	}, nil
}

// applyAdjustment sets the balance to target and records the absolute
// difference as the movement quantity.
func applyAdjustment(balance, target decimal.Decimal, reason models.StockReason) (movement, error) {
	if target.IsNegative() {
		return movement{}, ErrInvalidQuantity
	}
	return movement{
		NewBalance: target,
		Entry: models.StockHistory{
			TransactionType: models.TransactionAdjustment,
			Reason:          reason,
			Quantity:        target.Sub(balance).Abs(),
			StockBefore:     balance,
			StockAfter:      target,
		},
	}, nil
}

// applyDeduction decreases the balance by quantity for order usage.
// The balance must cover the quantity; no partial deduction ever happens.
func applyDeduction(balance, quantity decimal.Decimal) (movement, error) {
	if quantity.LessThanOrEqual(decimal.Zero) {
		return movement{}, ErrInvalidQuantity
	}
	if balance.LessThan(quantity) {
		return movement{}, ErrInsufficientStock
	}
	after := balance.Sub(quantity)
	return movement{
		NewBalance: after,
		Entry: models.StockHistory{
			TransactionType: models.TransactionOut,
			Reason:          models.ReasonOrderUsage,
			Quantity:        quantity,
			StockBefore:     balance,
			StockAfter:      after,
		},
	}, nil
}

// applyRestoration returns previously deducted stock after an order
// cancellation or material removal.
func applyRestoration(balance, quantity decimal.Decimal) (movement, error) {
	mv, err := applyStockIn(balance, quantity, models.ReasonOrderCancelled)
	if err != nil {
		return movement{}, err
	}
	return mv, nil
}

// applyInitialStock records the opening balance of a freshly created item.
func applyInitialStock(quantity decimal.Decimal) (movement, error) {
	return applyStockIn(decimal.Zero, quantity, models.ReasonInitialStock)
}
