package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"boutique_backend/internal/models"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// OrderMaterialRepository persists the order/item bindings, plus the
// order-existence lookup used to scope binder calls to a tenant.
type OrderMaterialRepository interface {
	CreateOrderMaterial(executor SQLExecutor, material *models.OrderMaterial) (string, error)
	GetOrderMaterialByID(shopID, id string) (*models.OrderMaterial, error)
	GetOrderMaterialsByOrder(shopID, orderID string) ([]models.OrderMaterial, error)
	DeleteOrderMaterial(executor SQLExecutor, id string) error
	CountByItem(itemID string) (int, error)
	OrderExists(shopID, orderID string) (bool, error)
}

type orderMaterialRepository struct {
	db *sql.DB
}

// NewOrderMaterialRepository creates a new instance of OrderMaterialRepository.
func NewOrderMaterialRepository(db *sql.DB) OrderMaterialRepository {
	return &orderMaterialRepository{db: db}
}

func (r *orderMaterialRepository) CreateOrderMaterial(executor SQLExecutor, material *models.OrderMaterial) (string, error) {
	query := `INSERT INTO order_materials
	          (id, order_id, inventory_item_id, quantity, unit_price, notes, added_by, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
	          RETURNING id`
	currentTime := time.Now()
	material.ID = uuid.New().String()
	err := executor.QueryRow(query,
		material.ID, material.OrderID, material.InventoryItemID, material.Quantity,
		material.UnitPrice, material.Notes, material.AddedBy, currentTime,
	).Scan(&material.ID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "foreign_key_violation" {
			return "", fmt.Errorf("%w: order or inventory item for material binding (constraint: %s)", ErrNotFound, pqErr.Constraint)
		}
		return "", fmt.Errorf("%w: creating order material: %v", ErrDatabaseError, err)
	}
	material.CreatedAt = currentTime
	material.UpdatedAt = currentTime
	return material.ID, nil
}

const orderMaterialColumns = `
	    om.id, om.order_id, om.inventory_item_id, om.quantity, om.unit_price,
	    om.notes, om.added_by, om.created_at, om.updated_at,
	    i.name AS item_name, i.unit AS item_unit`

func scanOrderMaterial(scan func(dest ...interface{}) error) (*models.OrderMaterial, error) {
	material := &models.OrderMaterial{}
	var itemName, itemUnit sql.NullString
	if err := scan(
		&material.ID, &material.OrderID, &material.InventoryItemID, &material.Quantity,
		&material.UnitPrice, &material.Notes, &material.AddedBy,
		&material.CreatedAt, &material.UpdatedAt,
		&itemName, &itemUnit,
	); err != nil {
		return nil, err
	}
	if itemName.Valid {
		name := itemName.String
		material.ItemName = &name
	}
	if itemUnit.Valid {
		unit := models.Unit(itemUnit.String)
		material.ItemUnit = &unit
	}
	return material, nil
}

func (r *orderMaterialRepository) GetOrderMaterialByID(shopID, id string) (*models.OrderMaterial, error) {
	// Scoping goes through the owning order; a binding from another shop
	// must be indistinguishable from a missing one.
	query := `SELECT ` + orderMaterialColumns + `
	          FROM order_materials om
	          JOIN orders o ON om.order_id = o.id
	          JOIN inventory_items i ON om.inventory_item_id = i.id
	          WHERE om.id = $1 AND o.shop_id = $2`
	row := r.db.QueryRow(query, id, shopID)
	material, err := scanOrderMaterial(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting order material by ID %s: %v", ErrDatabaseError, id, err)
	}
	return material, nil
}

func (r *orderMaterialRepository) GetOrderMaterialsByOrder(shopID, orderID string) ([]models.OrderMaterial, error) {
	materials := []models.OrderMaterial{}
	query := `SELECT ` + orderMaterialColumns + `
	          FROM order_materials om
	          JOIN orders o ON om.order_id = o.id
	          JOIN inventory_items i ON om.inventory_item_id = i.id
	          WHERE om.order_id = $1 AND o.shop_id = $2
	          ORDER BY om.created_at DESC`
	rows, err := r.db.Query(query, orderID, shopID)
	if err != nil {
		return nil, fmt.Errorf("%w: getting order materials for order %s: %v", ErrDatabaseError, orderID, err)
	}
	defer rows.Close()

	for rows.Next() {
		material, err := scanOrderMaterial(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("%w: scanning order material: %v", ErrDatabaseError, err)
		}
		materials = append(materials, *material)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating order materials: %v", ErrDatabaseError, err)
	}
	return materials, nil
}

func (r *orderMaterialRepository) DeleteOrderMaterial(executor SQLExecutor, id string) error {
	query := `DELETE FROM order_materials WHERE id = $1`
	result, err := executor.Exec(query, id)
	if err != nil {
		return fmt.Errorf("%w: deleting order material ID %s: %v", ErrDatabaseError, id, err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *orderMaterialRepository) CountByItem(itemID string) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM order_materials WHERE inventory_item_id = $1`
	if err := r.db.QueryRow(query, itemID).Scan(&count); err != nil {
		return 0, fmt.Errorf("%w: counting order materials for item %s: %v", ErrDatabaseError, itemID, err)
	}
	return count, nil
}

func (r *orderMaterialRepository) OrderExists(shopID, orderID string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM orders WHERE id = $1 AND shop_id = $2 AND is_deleted = FALSE)`
	if err := r.db.QueryRow(query, orderID, shopID).Scan(&exists); err != nil {
		return false, fmt.Errorf("%w: checking order %s: %v", ErrDatabaseError, orderID, err)
	}
	return exists, nil
}
