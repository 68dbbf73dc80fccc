package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"boutique_backend/internal/models"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// InventoryRepository defines the interface for category and item persistence,
// including the guarded balance primitives used by the stock service.
type InventoryRepository interface {
	// InventoryCategory methods
	CreateCategory(executor SQLExecutor, category *models.InventoryCategory) (string, error)
	GetCategoryByID(shopID, id string) (*models.InventoryCategory, error)
	GetCategories(shopID string, page, pageSize int) ([]models.InventoryCategory, int, error)
	UpdateCategory(executor SQLExecutor, category *models.InventoryCategory) error
	SoftDeleteCategory(executor SQLExecutor, shopID, id string) error

	// InventoryItem methods
	CreateItem(executor SQLExecutor, item *models.InventoryItem) (string, error)
	GetItemByID(shopID, id string) (*models.InventoryItem, error) // includes soft-deleted rows for audit lookups
	GetItems(shopID string, filters models.ItemFilters) ([]models.InventoryItem, int, error)
	UpdateItem(executor SQLExecutor, item *models.InventoryItem) error
	SoftDeleteItem(executor SQLExecutor, shopID, id string) error

	// Balance primitives. AddToStock applies a signed delta atomically and
	// returns the new balance. TryDeductStock only decrements when the balance
	// covers the quantity; ok=false means the guard did not match (missing,
	// deleted, or insufficient). SetStockIf is a compare-and-set on the balance.
	AddToStock(executor SQLExecutor, shopID, itemID string, delta decimal.Decimal) (decimal.Decimal, error)
	TryDeductStock(executor SQLExecutor, shopID, itemID string, quantity decimal.Decimal) (decimal.Decimal, bool, error)
	SetStockIf(executor SQLExecutor, shopID, itemID string, newStock, expected decimal.Decimal) (bool, error)

	// Dashboard rollups
	CountActiveItems(shopID string) (int, error)
	CountActiveCategories(shopID string) (int, error)
	CountLowStockItems(shopID string) (int, error)
	RecentlyUpdatedItems(shopID string, limit int) ([]models.InventoryItem, error)
	LowestStockItems(shopID string, limit int) ([]models.InventoryItem, error)
}

type inventoryRepository struct {
	db *sql.DB
}

// NewInventoryRepository creates a new instance of InventoryRepository.
func NewInventoryRepository(db *sql.DB) InventoryRepository {
	return &inventoryRepository{db: db}
}

// --- InventoryCategory Methods ---

func (r *inventoryRepository) CreateCategory(executor SQLExecutor, category *models.InventoryCategory) (string, error) {
	query := `INSERT INTO inventory_categories (id, shop_id, name, description, default_unit, is_active, is_deleted, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, FALSE, $7, $7)
	          RETURNING id`
	currentTime := time.Now()
	category.ID = uuid.New().String()
	err := executor.QueryRow(query,
		category.ID, category.ShopID, category.Name, category.Description,
		category.DefaultUnit, category.IsActive, currentTime,
	).Scan(&category.ID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return "", fmt.Errorf("%w: inventory category name '%s' already exists (constraint: %s)", ErrDuplicateKey, category.Name, pqErr.Constraint)
		}
		return "", fmt.Errorf("%w: creating inventory category: %v", ErrDatabaseError, err)
	}
	category.CreatedAt = currentTime
	category.UpdatedAt = currentTime
	return category.ID, nil
}

func (r *inventoryRepository) GetCategoryByID(shopID, id string) (*models.InventoryCategory, error) {
	category := &models.InventoryCategory{}
	query := `SELECT id, shop_id, name, description, default_unit, is_active, is_deleted, created_at, updated_at
	          FROM inventory_categories
	          WHERE id = $1 AND shop_id = $2 AND is_deleted = FALSE`
	err := r.db.QueryRow(query, id, shopID).Scan(
		&category.ID, &category.ShopID, &category.Name, &category.Description,
		&category.DefaultUnit, &category.IsActive, &category.IsDeleted,
		&category.CreatedAt, &category.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting inventory category by ID %s: %v", ErrDatabaseError, id, err)
	}
	return category, nil
}

func (r *inventoryRepository) GetCategories(shopID string, page, pageSize int) ([]models.InventoryCategory, int, error) {
	categories := []models.InventoryCategory{}
	totalCount := 0
	query := `SELECT id, shop_id, name, description, default_unit, is_active, is_deleted, created_at, updated_at,
	                 COUNT(*) OVER() AS total_count
	          FROM inventory_categories
	          WHERE shop_id = $1 AND is_deleted = FALSE
	          ORDER BY name
	          LIMIT $2 OFFSET $3`
	offset := (page - 1) * pageSize
	rows, err := r.db.Query(query, shopID, pageSize, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: getting inventory categories: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var category models.InventoryCategory
		if err := rows.Scan(
			&category.ID, &category.ShopID, &category.Name, &category.Description,
			&category.DefaultUnit, &category.IsActive, &category.IsDeleted,
			&category.CreatedAt, &category.UpdatedAt, &totalCount,
		); err != nil {
			return nil, 0, fmt.Errorf("%w: scanning inventory category: %v", ErrDatabaseError, err)
		}
		categories = append(categories, category)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: iterating inventory categories: %v", ErrDatabaseError, err)
	}
	return categories, totalCount, nil
}

func (r *inventoryRepository) UpdateCategory(executor SQLExecutor, category *models.InventoryCategory) error {
	query := `UPDATE inventory_categories
	          SET name = $1, description = $2, default_unit = $3, is_active = $4, updated_at = $5
	          WHERE id = $6 AND shop_id = $7 AND is_deleted = FALSE`
	result, err := executor.Exec(query,
		category.Name, category.Description, category.DefaultUnit, category.IsActive,
		time.Now(), category.ID, category.ShopID,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return fmt.Errorf("%w: inventory category name '%s' already exists (constraint: %s)", ErrDuplicateKey, category.Name, pqErr.Constraint)
		}
		return fmt.Errorf("%w: updating inventory category ID %s: %v", ErrDatabaseError, category.ID, err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *inventoryRepository) SoftDeleteCategory(executor SQLExecutor, shopID, id string) error {
	query := `UPDATE inventory_categories
	          SET is_deleted = TRUE, is_active = FALSE, updated_at = $1
	          WHERE id = $2 AND shop_id = $3 AND is_deleted = FALSE`
	result, err := executor.Exec(query, time.Now(), id, shopID)
	if err != nil {
		return fmt.Errorf("%w: soft-deleting inventory category ID %s: %v", ErrDatabaseError, id, err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// --- InventoryItem Methods ---

func (r *inventoryRepository) CreateItem(executor SQLExecutor, item *models.InventoryItem) (string, error) {
	query := `INSERT INTO inventory_items
	          (id, shop_id, category_id, name, description, sku, unit, current_stock, minimum_stock, notes, is_active, is_deleted, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, FALSE, $12, $12)
	          RETURNING id`
	currentTime := time.Now()
	item.ID = uuid.New().String()
	err := executor.QueryRow(query,
		item.ID, item.ShopID, item.CategoryID, item.Name, item.Description, item.SKU,
		item.Unit, item.CurrentStock, item.MinimumStock, item.Notes, item.IsActive, currentTime,
	).Scan(&item.ID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "foreign_key_violation" {
			return "", fmt.Errorf("%w: invalid category for inventory item (constraint: %s)", ErrNotFound, pqErr.Constraint)
		}
		return "", fmt.Errorf("%w: creating inventory item: %v", ErrDatabaseError, err)
	}
	item.CreatedAt = currentTime
	item.UpdatedAt = currentTime
	item.LowStock = item.IsLowStock()
	return item.ID, nil
}

const itemSelectColumns = `
	    i.id, i.shop_id, i.category_id, i.name, i.description, i.sku, i.unit,
	    i.current_stock, i.minimum_stock, i.notes, i.is_active, i.is_deleted,
	    i.created_at, i.updated_at,
	    c.id, c.name, c.default_unit`

func scanItemRow(scan func(dest ...interface{}) error, extra ...interface{}) (*models.InventoryItem, error) {
	item := &models.InventoryItem{}
	var catID, catName sql.NullString
	var catUnit sql.NullString

	dest := []interface{}{
		&item.ID, &item.ShopID, &item.CategoryID, &item.Name, &item.Description, &item.SKU, &item.Unit,
		&item.CurrentStock, &item.MinimumStock, &item.Notes, &item.IsActive, &item.IsDeleted,
		&item.CreatedAt, &item.UpdatedAt,
		&catID, &catName, &catUnit,
	}
	dest = append(dest, extra...)
	if err := scan(dest...); err != nil {
		return nil, err
	}

	if catID.Valid {
		item.Category = &models.InventoryCategory{
			ID:          catID.String,
			Name:        catName.String,
			DefaultUnit: models.Unit(catUnit.String),
		}
	}
	item.LowStock = item.IsLowStock()
	return item, nil
}

func (r *inventoryRepository) GetItemByID(shopID, id string) (*models.InventoryItem, error) {
	// Soft-deleted items stay resolvable here so history and audit views keep
	// working; listing queries filter them out.
	query := `SELECT ` + itemSelectColumns + `
	          FROM inventory_items i
	          LEFT JOIN inventory_categories c ON i.category_id = c.id
	          WHERE i.id = $1 AND i.shop_id = $2`
	row := r.db.QueryRow(query, id, shopID)
	item, err := scanItemRow(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting inventory item by ID %s: %v", ErrDatabaseError, id, err)
	}
	return item, nil
}

func (r *inventoryRepository) GetItems(shopID string, filters models.ItemFilters) ([]models.InventoryItem, int, error) {
	items := []models.InventoryItem{}
	totalCount := 0

	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT ` + itemSelectColumns + `,
	    COUNT(*) OVER() AS total_count
	  FROM inventory_items i
	  LEFT JOIN inventory_categories c ON i.category_id = c.id`)

	conditions := []string{"i.shop_id = $1", "i.is_deleted = FALSE"}
	args := []interface{}{shopID}
	argCount := 2

	if filters.CategoryID != nil {
		conditions = append(conditions, fmt.Sprintf("i.category_id = $%d", argCount))
		args = append(args, *filters.CategoryID)
		argCount++
	}
	if filters.LowStock {
		conditions = append(conditions, "i.current_stock < i.minimum_stock")
	}
	if filters.Search != nil && *filters.Search != "" {
		conditions = append(conditions, fmt.Sprintf("i.name ILIKE $%d", argCount))
		args = append(args, "%"+*filters.Search+"%")
		argCount++
	}

	queryBuilder.WriteString(" WHERE ")
	queryBuilder.WriteString(strings.Join(conditions, " AND "))
	queryBuilder.WriteString(" ORDER BY i.name")
	queryBuilder.WriteString(fmt.Sprintf(" LIMIT $%d OFFSET $%d", argCount, argCount+1))
	args = append(args, filters.PageSize, (filters.Page-1)*filters.PageSize)

	rows, err := r.db.Query(queryBuilder.String(), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: getting inventory items: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		item, err := scanItemRow(rows.Scan, &totalCount)
		if err != nil {
			return nil, 0, fmt.Errorf("%w: scanning inventory item: %v", ErrDatabaseError, err)
		}
		items = append(items, *item)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: iterating inventory items: %v", ErrDatabaseError, err)
	}
	return items, totalCount, nil
}

func (r *inventoryRepository) UpdateItem(executor SQLExecutor, item *models.InventoryItem) error {
	// current_stock is deliberately absent: balances only move through the
	// stock service so every change is paired with a ledger entry.
	query := `UPDATE inventory_items
	          SET category_id = $1, name = $2, description = $3, sku = $4, unit = $5,
	              minimum_stock = $6, notes = $7, is_active = $8, updated_at = $9
	          WHERE id = $10 AND shop_id = $11 AND is_deleted = FALSE`
	result, err := executor.Exec(query,
		item.CategoryID, item.Name, item.Description, item.SKU, item.Unit,
		item.MinimumStock, item.Notes, item.IsActive, time.Now(), item.ID, item.ShopID,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "foreign_key_violation" {
			return fmt.Errorf("%w: invalid category for inventory item (constraint: %s)", ErrNotFound, pqErr.Constraint)
		}
		return fmt.Errorf("%w: updating inventory item ID %s: %v", ErrDatabaseError, item.ID, err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *inventoryRepository) SoftDeleteItem(executor SQLExecutor, shopID, id string) error {
	query := `UPDATE inventory_items
	          SET is_deleted = TRUE, is_active = FALSE, updated_at = $1
	          WHERE id = $2 AND shop_id = $3 AND is_deleted = FALSE`
	result, err := executor.Exec(query, time.Now(), id, shopID)
	if err != nil {
		return fmt.Errorf("%w: soft-deleting inventory item ID %s: %v", ErrDatabaseError, id, err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// --- Balance Primitives ---

func (r *inventoryRepository) AddToStock(executor SQLExecutor, shopID, itemID string, delta decimal.Decimal) (decimal.Decimal, error) {
	var newStock decimal.Decimal
	query := `UPDATE inventory_items
	          SET current_stock = current_stock + $1, updated_at = $2
	          WHERE id = $3 AND shop_id = $4 AND is_deleted = FALSE
	          RETURNING current_stock`
	err := executor.QueryRow(query, delta, time.Now(), itemID, shopID).Scan(&newStock)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return decimal.Zero, ErrNotFound
		}
		return decimal.Zero, fmt.Errorf("%w: updating stock for item ID %s: %v", ErrDatabaseError, itemID, err)
	}
	return newStock, nil
}

func (r *inventoryRepository) TryDeductStock(executor SQLExecutor, shopID, itemID string, quantity decimal.Decimal) (decimal.Decimal, bool, error) {
	var newStock decimal.Decimal
	// The balance guard and the decrement are one statement; the row lock it
	// takes serializes concurrent writers on this item.
	query := `UPDATE inventory_items
	          SET current_stock = current_stock - $1, updated_at = $2
	          WHERE id = $3 AND shop_id = $4 AND is_deleted = FALSE AND current_stock >= $1
	          RETURNING current_stock`
	err := executor.QueryRow(query, quantity, time.Now(), itemID, shopID).Scan(&newStock)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return decimal.Zero, false, nil
		}
		return decimal.Zero, false, fmt.Errorf("%w: deducting stock for item ID %s: %v", ErrDatabaseError, itemID, err)
	}
	return newStock, true, nil
}

func (r *inventoryRepository) SetStockIf(executor SQLExecutor, shopID, itemID string, newStock, expected decimal.Decimal) (bool, error) {
	query := `UPDATE inventory_items
	          SET current_stock = $1, updated_at = $2
	          WHERE id = $3 AND shop_id = $4 AND is_deleted = FALSE AND current_stock = $5`
	result, err := executor.Exec(query, newStock, time.Now(), itemID, shopID, expected)
	if err != nil {
		return false, fmt.Errorf("%w: setting stock for item ID %s: %v", ErrDatabaseError, itemID, err)
	}
	rowsAffected, _ := result.RowsAffected()
	return rowsAffected == 1, nil
}

// --- Dashboard Rollups ---

func (r *inventoryRepository) countWhere(query, shopID string) (int, error) {
	var count int
	if err := r.db.QueryRow(query, shopID).Scan(&count); err != nil {
		return 0, fmt.Errorf("%w: counting inventory rows: %v", ErrDatabaseError, err)
	}
	return count, nil
}

func (r *inventoryRepository) CountActiveItems(shopID string) (int, error) {
	return r.countWhere(`SELECT COUNT(*) FROM inventory_items WHERE shop_id = $1 AND is_deleted = FALSE`, shopID)
}

func (r *inventoryRepository) CountActiveCategories(shopID string) (int, error) {
	return r.countWhere(`SELECT COUNT(*) FROM inventory_categories WHERE shop_id = $1 AND is_deleted = FALSE`, shopID)
}

func (r *inventoryRepository) CountLowStockItems(shopID string) (int, error) {
	return r.countWhere(`SELECT COUNT(*) FROM inventory_items
	                     WHERE shop_id = $1 AND is_deleted = FALSE AND current_stock < minimum_stock`, shopID)
}

func (r *inventoryRepository) listItems(query, shopID string, limit int) ([]models.InventoryItem, error) {
	rows, err := r.db.Query(query, shopID, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: listing inventory items for dashboard: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	items := []models.InventoryItem{}
	for rows.Next() {
		item, err := scanItemRow(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("%w: scanning dashboard inventory item: %v", ErrDatabaseError, err)
		}
		items = append(items, *item)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating dashboard inventory items: %v", ErrDatabaseError, err)
	}
	return items, nil
}

func (r *inventoryRepository) RecentlyUpdatedItems(shopID string, limit int) ([]models.InventoryItem, error) {
	query := `SELECT ` + itemSelectColumns + `
	          FROM inventory_items i
	          LEFT JOIN inventory_categories c ON i.category_id = c.id
	          WHERE i.shop_id = $1 AND i.is_deleted = FALSE
	          ORDER BY i.updated_at DESC
	          LIMIT $2`
	return r.listItems(query, shopID, limit)
}

func (r *inventoryRepository) LowestStockItems(shopID string, limit int) ([]models.InventoryItem, error) {
	query := `SELECT ` + itemSelectColumns + `
	          FROM inventory_items i
	          LEFT JOIN inventory_categories c ON i.category_id = c.id
	          WHERE i.shop_id = $1 AND i.is_deleted = FALSE AND i.current_stock < i.minimum_stock
	          ORDER BY i.current_stock ASC
	          LIMIT $2`
	return r.listItems(query, shopID, limit)
}
