package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"boutique_backend/internal/models"

	"github.com/google/uuid"
)

// StockHistoryRepository persists the append-only movement ledger.
// There is intentionally no update or delete method: corrections are
// recorded as new entries.
type StockHistoryRepository interface {
	CreateEntry(executor SQLExecutor, entry *models.StockHistory) (string, error)
	GetHistoryByItem(shopID, itemID string, limit int) ([]models.StockHistory, error)
	CountByItem(shopID, itemID string) (int, error)
}

type stockHistoryRepository struct {
	db *sql.DB
}

// NewStockHistoryRepository creates a new instance of StockHistoryRepository.
func NewStockHistoryRepository(db *sql.DB) StockHistoryRepository {
	return &stockHistoryRepository{db: db}
}

func (r *stockHistoryRepository) CreateEntry(executor SQLExecutor, entry *models.StockHistory) (string, error) {
	query := `INSERT INTO stock_history
	          (id, inventory_item_id, transaction_type, reason, quantity, stock_before, stock_after,
	           order_id, order_material_id, supplier_name, notes, created_by, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	          RETURNING id`
	entry.ID = uuid.New().String()
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	err := executor.QueryRow(query,
		entry.ID, entry.InventoryItemID, entry.TransactionType, entry.Reason,
		entry.Quantity, entry.StockBefore, entry.StockAfter,
		entry.OrderID, entry.OrderMaterialID, entry.SupplierName, entry.Notes,
		entry.CreatedBy, entry.CreatedAt,
	).Scan(&entry.ID)
	if err != nil {
		return "", fmt.Errorf("%w: creating stock history entry: %v", ErrDatabaseError, err)
	}
	return entry.ID, nil
}

func (r *stockHistoryRepository) GetHistoryByItem(shopID, itemID string, limit int) ([]models.StockHistory, error) {
	entries := []models.StockHistory{}
	query := `SELECT
	            sh.id, sh.inventory_item_id, sh.transaction_type, sh.reason,
	            sh.quantity, sh.stock_before, sh.stock_after,
	            sh.order_id, sh.order_material_id, sh.supplier_name, sh.notes,
	            sh.created_by, sh.created_at,
	            u.full_name AS created_by_name,
	            i.name AS item_name
	          FROM stock_history sh
	          JOIN inventory_items i ON sh.inventory_item_id = i.id
	          LEFT JOIN users u ON sh.created_by = u.id
	          WHERE sh.inventory_item_id = $1 AND i.shop_id = $2
	          ORDER BY sh.created_at DESC, sh.id DESC
	          LIMIT $3`
	rows, err := r.db.Query(query, itemID, shopID, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: getting stock history for item %s: %v", ErrDatabaseError, itemID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var entry models.StockHistory
		var createdByName, itemName sql.NullString
		if err := rows.Scan(
			&entry.ID, &entry.InventoryItemID, &entry.TransactionType, &entry.Reason,
			&entry.Quantity, &entry.StockBefore, &entry.StockAfter,
			&entry.OrderID, &entry.OrderMaterialID, &entry.SupplierName, &entry.Notes,
			&entry.CreatedBy, &entry.CreatedAt,
			&createdByName, &itemName,
		); err != nil {
			return nil, fmt.Errorf("%w: scanning stock history entry: %v", ErrDatabaseError, err)
		}
		if createdByName.Valid {
			name := createdByName.String
			entry.CreatedByName = &name
		}
		if itemName.Valid {
			name := itemName.String
			entry.ItemName = &name
		}
		entries = append(entries, entry)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating stock history entries: %v", ErrDatabaseError, err)
	}
	return entries, nil
}

func (r *stockHistoryRepository) CountByItem(shopID, itemID string) (int, error) {
	var count int
	query := `SELECT COUNT(*)
	          FROM stock_history sh
	          JOIN inventory_items i ON sh.inventory_item_id = i.id
	          WHERE sh.inventory_item_id = $1 AND i.shop_id = $2`
	if err := r.db.QueryRow(query, itemID, shopID).Scan(&count); err != nil {
		return 0, fmt.Errorf("%w: counting stock history for item %s: %v", ErrDatabaseError, itemID, err)
	}
	return count, nil
}
