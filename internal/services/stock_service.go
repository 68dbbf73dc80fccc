package services

import (
	"database/sql"
	"errors"
	"fmt"

	"boutique_backend/internal/models"
	"boutique_backend/internal/repositories"

	"github.com/shopspring/decimal"
)

var (
	ErrItemNotFound = errors.New("inventory item not found")
)

// adjustRetryLimit bounds the compare-and-set loop in AdjustStock before the
// operation gives up with ErrConflict.
const adjustRetryLimit = 3

// historyPageLimit caps the item-detail history view. The full ledger stays
// in the database for audit and export.
const historyPageLimit = 50

// --- Stock DTOs ---

type StockInRequest struct {
	Quantity     decimal.Decimal `json:"quantity" binding:"required"`
	SupplierName *string         `json:"supplier_name"`
	Notes        *string         `json:"notes"`
}

type StockAdjustmentRequest struct {
	NewStock decimal.Decimal    `json:"new_stock"`
	Reason   models.StockReason `json:"reason" binding:"required"`
	Notes    *string            `json:"notes"`
}

// StockMovementResult reports the outcome of one movement: the item with its
// updated balance and the id of the ledger entry that recorded the change.
type StockMovementResult struct {
	Item      *models.InventoryItem `json:"item"`
	HistoryID string                `json:"history_id"`
}

// --- StockService Interface ---

// StockService is the movement engine: every balance change on an inventory
// item goes through one of these operations, and each of them writes the new
// balance and exactly one ledger entry in the same transaction.
//
// StockIn, AdjustStock and GetItemHistory own their transactions. The
// order-scoped operations and InitialStock run inside a transaction owned by
// the caller (the order-material binder or item creation) and therefore take
// an executor.
type StockService interface {
	StockIn(shopID, itemID string, req StockInRequest, actorID string) (*StockMovementResult, error)
	AdjustStock(shopID, itemID string, req StockAdjustmentRequest, actorID string) (*StockMovementResult, error)
	DeductForOrderUsage(executor repositories.SQLExecutor, shopID, itemID string, quantity decimal.Decimal, orderID string, orderMaterialID *string, notes *string, actorID string) (*StockMovementResult, error)
	RestoreForOrderCancellation(executor repositories.SQLExecutor, shopID, itemID string, quantity decimal.Decimal, orderID string, notes *string, actorID string) (*StockMovementResult, error)
	InitialStock(executor repositories.SQLExecutor, item *models.InventoryItem, actorID string) (*StockMovementResult, error)
	GetItemHistory(shopID, itemID string) ([]models.StockHistory, error)
}

type stockService struct {
	inventoryRepo repositories.InventoryRepository
	historyRepo   repositories.StockHistoryRepository
	db            *sql.DB
}

// NewStockService creates a new instance of StockService.
func NewStockService(
	ir repositories.InventoryRepository,
	hr repositories.StockHistoryRepository,
	db *sql.DB,
) StockService {
	return &stockService{
		inventoryRepo: ir,
		historyRepo:   hr,
		db:            db,
	}
}

// --- Method Implementations ---

// resolveActiveItem loads an item and treats soft-deleted ones as missing.
func (s *stockService) resolveActiveItem(shopID, itemID string) (*models.InventoryItem, error) {
	item, err := s.inventoryRepo.GetItemByID(shopID, itemID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrItemNotFound
		}
		return nil, fmt.Errorf("failed to fetch inventory item %s: %w", itemID, err)
	}
	if item.IsDeleted {
		return nil, ErrItemNotFound
	}
	return item, nil
}

func (s *stockService) StockIn(shopID, itemID string, req StockInRequest, actorID string) (*StockMovementResult, error) {
	item, err := s.resolveActiveItem(shopID, itemID)
	if err != nil {
		return nil, err
	}
	if _, err := applyStockIn(item.CurrentStock, req.Quantity, models.ReasonPurchase); err != nil {
		return nil, err
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to start stock-in transaction: %w", err)
	}
	defer tx.Rollback()

	// The atomic increment is the authoritative read-modify-write; the
	// balance snapshot for the ledger entry is derived from its result.
	newStock, err := s.inventoryRepo.AddToStock(tx, shopID, itemID, req.Quantity)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrItemNotFound
		}
		return nil, fmt.Errorf("failed to add stock for item %s: %w", itemID, err)
	}

	mv, err := applyStockIn(newStock.Sub(req.Quantity), req.Quantity, models.ReasonPurchase)
	if err != nil {
		return nil, err
	}
	entry := mv.Entry
	entry.InventoryItemID = itemID
	entry.SupplierName = req.SupplierName
	entry.Notes = req.Notes
	entry.CreatedBy = &actorID

	historyID, err := s.historyRepo.CreateEntry(tx, &entry)
	if err != nil {
		return nil, fmt.Errorf("failed to record stock-in movement for item %s: %w", itemID, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit stock-in transaction: %w", err)
	}

	item.CurrentStock = newStock
	item.LowStock = item.IsLowStock()
	return &StockMovementResult{Item: item, HistoryID: historyID}, nil
}

func (s *stockService) AdjustStock(shopID, itemID string, req StockAdjustmentRequest, actorID string) (*StockMovementResult, error) {
	if !req.Reason.IsAdjustmentReason() {
		return nil, fmt.Errorf("%w: reason %q is not valid for a stock adjustment", ErrValidation, req.Reason)
	}

	item, err := s.resolveActiveItem(shopID, itemID)
	if err != nil {
		return nil, err
	}

	expected := item.CurrentStock
	for attempt := 0; attempt < adjustRetryLimit; attempt++ {
		mv, err := applyAdjustment(expected, req.NewStock, req.Reason)
		if err != nil {
			return nil, err
		}

		tx, err := s.db.Begin()
		if err != nil {
			return nil, fmt.Errorf("failed to start adjustment transaction: %w", err)
		}

		ok, err := s.inventoryRepo.SetStockIf(tx, shopID, itemID, mv.NewBalance, expected)
		if err != nil {
			tx.Rollback()
			return nil, fmt.Errorf("failed to set stock for item %s: %w", itemID, err)
		}
		if !ok {
			// Another writer moved the balance between our read and the
			// compare-and-set. Re-read and try again.
			tx.Rollback()
			fresh, err := s.resolveActiveItem(shopID, itemID)
			if err != nil {
				return nil, err
			}
			expected = fresh.CurrentStock
			continue
		}

		entry := mv.Entry
		entry.InventoryItemID = itemID
		entry.Notes = req.Notes
		entry.CreatedBy = &actorID

		historyID, err := s.historyRepo.CreateEntry(tx, &entry)
		if err != nil {
			tx.Rollback()
			return nil, fmt.Errorf("failed to record adjustment movement for item %s: %w", itemID, err)
		}
		if err := tx.Commit(); err != nil {
			return nil, fmt.Errorf("failed to commit adjustment transaction: %w", err)
		}

		item.CurrentStock = mv.NewBalance
		item.LowStock = item.IsLowStock()
		return &StockMovementResult{Item: item, HistoryID: historyID}, nil
	}

	return nil, ErrConflict
}

func (s *stockService) DeductForOrderUsage(executor repositories.SQLExecutor, shopID, itemID string, quantity decimal.Decimal, orderID string, orderMaterialID *string, notes *string, actorID string) (*StockMovementResult, error) {
	if quantity.LessThanOrEqual(decimal.Zero) {
		return nil, ErrInvalidQuantity
	}

	newStock, ok, err := s.inventoryRepo.TryDeductStock(executor, shopID, itemID, quantity)
	if err != nil {
		return nil, fmt.Errorf("failed to deduct stock for item %s: %w", itemID, err)
	}
	if !ok {
		// The guard did not match: either the item is gone or the balance
		// cannot cover the quantity. Re-read to tell the two apart.
		item, err := s.resolveActiveItem(shopID, itemID)
		if err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: available %s %s", ErrInsufficientStock, item.CurrentStock.String(), item.Unit)
	}

	mv, err := applyDeduction(newStock.Add(quantity), quantity)
	if err != nil {
		return nil, err
	}
	entry := mv.Entry
	entry.InventoryItemID = itemID
	entry.OrderID = &orderID
	entry.OrderMaterialID = orderMaterialID
	entry.Notes = notes
	entry.CreatedBy = &actorID

	historyID, err := s.historyRepo.CreateEntry(executor, &entry)
	if err != nil {
		return nil, fmt.Errorf("failed to record order-usage movement for item %s: %w", itemID, err)
	}

	return &StockMovementResult{
		Item:      &models.InventoryItem{ID: itemID, ShopID: shopID, CurrentStock: newStock},
		HistoryID: historyID,
	}, nil
}

func (s *stockService) RestoreForOrderCancellation(executor repositories.SQLExecutor, shopID, itemID string, quantity decimal.Decimal, orderID string, notes *string, actorID string) (*StockMovementResult, error) {
	if quantity.LessThanOrEqual(decimal.Zero) {
		return nil, ErrInvalidQuantity
	}

	newStock, err := s.inventoryRepo.AddToStock(executor, shopID, itemID, quantity)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrItemNotFound
		}
		return nil, fmt.Errorf("failed to restore stock for item %s: %w", itemID, err)
	}

	mv, err := applyRestoration(newStock.Sub(quantity), quantity)
	if err != nil {
		return nil, err
	}
	entry := mv.Entry
	entry.InventoryItemID = itemID
	entry.OrderID = &orderID
	entry.Notes = notes
	entry.CreatedBy = &actorID

	historyID, err := s.historyRepo.CreateEntry(executor, &entry)
	if err != nil {
		return nil, fmt.Errorf("failed to record restoration movement for item %s: %w", itemID, err)
	}

	return &StockMovementResult{
		Item:      &models.InventoryItem{ID: itemID, ShopID: shopID, CurrentStock: newStock},
		HistoryID: historyID,
	}, nil
}

func (s *stockService) InitialStock(executor repositories.SQLExecutor, item *models.InventoryItem, actorID string) (*StockMovementResult, error) {
	mv, err := applyInitialStock(item.CurrentStock)
	if err != nil {
		return nil, err
	}

	entry := mv.Entry
	entry.InventoryItemID = item.ID
	notes := "Initial stock on item creation"
	entry.Notes = &notes
	entry.CreatedBy = &actorID

	historyID, err := s.historyRepo.CreateEntry(executor, &entry)
	if err != nil {
		return nil, fmt.Errorf("failed to record initial stock for item %s: %w", item.ID, err)
	}
	return &StockMovementResult{Item: item, HistoryID: historyID}, nil
}

func (s *stockService) GetItemHistory(shopID, itemID string) ([]models.StockHistory, error) {
	// History stays readable for soft-deleted items; only a cross-tenant or
	// truly unknown id is a miss.
	if _, err := s.inventoryRepo.GetItemByID(shopID, itemID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrItemNotFound
		}
		return nil, fmt.Errorf("failed to fetch inventory item %s: %w", itemID, err)
	}
	entries, err := s.historyRepo.GetHistoryByItem(shopID, itemID, historyPageLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch stock history for item %s: %w", itemID, err)
	}
	return entries, nil
}
