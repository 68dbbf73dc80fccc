package services

import (
	"database/sql"
	"errors"
	"fmt"
	"sort"

	"boutique_backend/internal/models"
	"boutique_backend/internal/repositories"

	"github.com/shopspring/decimal"
)

var (
	ErrOrderNotFound         = errors.New("order not found")
	ErrOrderMaterialNotFound = errors.New("order material not found")
	ErrBulkOperationFailed   = errors.New("no materials could be added to the order")
)

// --- Order Material DTOs ---

type AddMaterialLine struct {
	InventoryItemID string          `json:"inventory_item" binding:"required"`
	Quantity        decimal.Decimal `json:"quantity" binding:"required"`
	Notes           *string         `json:"notes"`
}

type BulkAddMaterialsRequest struct {
	Materials []AddMaterialLine `json:"materials" binding:"required,dive"`
}

// MaterialLineError describes one failed line of a bulk add. Item carries the
// item name when the item could be resolved, otherwise the requested id.
type MaterialLineError struct {
	Item  string `json:"item"`
	Error string `json:"error"`
}

// BulkAddMaterialsResult carries the committed bindings alongside the
// per-line failures. Partial success is a normal outcome, not an error.
type BulkAddMaterialsResult struct {
	Materials []models.OrderMaterial `json:"materials"`
	Errors    []MaterialLineError    `json:"errors,omitempty"`
}

// OrderMaterialsList is the per-order material listing with the summed cost
// of lines that carry a price snapshot.
type OrderMaterialsList struct {
	Materials []models.OrderMaterial `json:"materials"`
	TotalCost decimal.Decimal        `json:"total_cost"`
	Count     int                    `json:"count"`
}

// --- OrderMaterialService Interface ---

// OrderMaterialService binds inventory quantities to orders. Every binding is
// paired with a ledger entry through the stock service: adding a material
// deducts stock, removing one restores it.
type OrderMaterialService interface {
	AddMaterials(shopID, orderID string, req BulkAddMaterialsRequest, actorID string) (*BulkAddMaterialsResult, error)
	RemoveMaterial(shopID, materialID string, actorID string) error
	ListMaterials(shopID, orderID string) (*OrderMaterialsList, error)
	GetMaterialByID(shopID, materialID string) (*models.OrderMaterial, error)
}

type orderMaterialService struct {
	materialRepo repositories.OrderMaterialRepository
	stockService StockService
	db           *sql.DB
}

// NewOrderMaterialService creates a new instance of OrderMaterialService.
func NewOrderMaterialService(
	mr repositories.OrderMaterialRepository,
	ss StockService,
	db *sql.DB,
) OrderMaterialService {
	return &orderMaterialService{
		materialRepo: mr,
		stockService: ss,
		db:           db,
	}
}

// --- Method Implementations ---

func (s *orderMaterialService) resolveOrder(shopID, orderID string) error {
	exists, err := s.materialRepo.OrderExists(shopID, orderID)
	if err != nil {
		return fmt.Errorf("failed to check order %s: %w", orderID, err)
	}
	if !exists {
		return ErrOrderNotFound
	}
	return nil
}

func (s *orderMaterialService) AddMaterials(shopID, orderID string, req BulkAddMaterialsRequest, actorID string) (*BulkAddMaterialsResult, error) {
	if err := s.resolveOrder(shopID, orderID); err != nil {
		return nil, err
	}
	if len(req.Materials) == 0 {
		return nil, fmt.Errorf("%w: materials list is empty", ErrValidation)
	}

	// Stable item order keeps two overlapping bulk calls from deadlocking on
	// each other's row locks.
	lines := make([]AddMaterialLine, len(req.Materials))
	copy(lines, req.Materials)
	sort.SliceStable(lines, func(i, j int) bool {
		return lines[i].InventoryItemID < lines[j].InventoryItemID
	})

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to start bulk add transaction: %w", err)
	}
	defer tx.Rollback()

	result := &BulkAddMaterialsResult{Materials: []models.OrderMaterial{}}

	for n, line := range lines {
		lineErr := s.addMaterialLine(tx, n, shopID, orderID, line, actorID, result)
		if lineErr != nil {
			return nil, lineErr
		}
	}

	if len(result.Materials) == 0 {
		// Nothing succeeded: commit nothing.
		return result, ErrBulkOperationFailed
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit bulk add transaction: %w", err)
	}
	return result, nil
}

// addMaterialLine processes one line inside the bulk transaction. A savepoint
// around the line keeps its failure from poisoning the lines that succeeded.
// Returned errors are infrastructure failures that abort the whole call;
// business failures are recorded on the result instead.
func (s *orderMaterialService) addMaterialLine(tx *sql.Tx, n int, shopID, orderID string, line AddMaterialLine, actorID string, result *BulkAddMaterialsResult) error {
	savepoint := fmt.Sprintf("material_line_%d", n)
	if _, err := tx.Exec("SAVEPOINT " + savepoint); err != nil {
		return fmt.Errorf("failed to create savepoint: %w", err)
	}

	rollbackLine := func(itemLabel, message string) error {
		if _, err := tx.Exec("ROLLBACK TO SAVEPOINT " + savepoint); err != nil {
			return fmt.Errorf("failed to roll back savepoint: %w", err)
		}
		result.Errors = append(result.Errors, MaterialLineError{Item: itemLabel, Error: message})
		return nil
	}

	if line.Quantity.LessThanOrEqual(decimal.Zero) {
		return rollbackLine(line.InventoryItemID, "Quantity must be positive")
	}

	material := models.OrderMaterial{
		OrderID:         orderID,
		InventoryItemID: line.InventoryItemID,
		Quantity:        line.Quantity,
		Notes:           line.Notes,
		AddedBy:         &actorID,
	}
	if _, err := s.materialRepo.CreateOrderMaterial(tx, &material); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return rollbackLine(line.InventoryItemID, "Item not found")
		}
		return fmt.Errorf("failed to create order material: %w", err)
	}

	usageNote := fmt.Sprintf("Used in order %s", orderID)
	_, err := s.stockService.DeductForOrderUsage(
		tx, shopID, line.InventoryItemID, line.Quantity, orderID, &material.ID, &usageNote, actorID,
	)
	if err != nil {
		switch {
		case errors.Is(err, ErrItemNotFound):
			return rollbackLine(line.InventoryItemID, "Item not found")
		case errors.Is(err, ErrInsufficientStock):
			return rollbackLine(line.InventoryItemID, err.Error())
		case errors.Is(err, ErrInvalidQuantity):
			return rollbackLine(line.InventoryItemID, "Quantity must be positive")
		default:
			return fmt.Errorf("failed to deduct stock for material line: %w", err)
		}
	}

	if _, err := tx.Exec("RELEASE SAVEPOINT " + savepoint); err != nil {
		return fmt.Errorf("failed to release savepoint: %w", err)
	}

	result.Materials = append(result.Materials, material)
	return nil
}

func (s *orderMaterialService) RemoveMaterial(shopID, materialID string, actorID string) error {
	material, err := s.materialRepo.GetOrderMaterialByID(shopID, materialID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrOrderMaterialNotFound
		}
		return fmt.Errorf("failed to fetch order material %s: %w", materialID, err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to start material removal transaction: %w", err)
	}
	defer tx.Rollback()

	// Restoration and binding removal commit together or not at all.
	note := fmt.Sprintf("Material removed from order %s", material.OrderID)
	if _, err := s.stockService.RestoreForOrderCancellation(
		tx, shopID, material.InventoryItemID, material.Quantity, material.OrderID, &note, actorID,
	); err != nil {
		return err
	}

	if err := s.materialRepo.DeleteOrderMaterial(tx, materialID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrOrderMaterialNotFound
		}
		return fmt.Errorf("failed to delete order material %s: %w", materialID, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit material removal transaction: %w", err)
	}
	return nil
}

func (s *orderMaterialService) ListMaterials(shopID, orderID string) (*OrderMaterialsList, error) {
	if err := s.resolveOrder(shopID, orderID); err != nil {
		return nil, err
	}

	materials, err := s.materialRepo.GetOrderMaterialsByOrder(shopID, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to list order materials: %w", err)
	}

	totalCost := decimal.Zero
	for i := range materials {
		totalCost = totalCost.Add(materials[i].TotalCost())
	}

	return &OrderMaterialsList{
		Materials: materials,
		TotalCost: totalCost,
		Count:     len(materials),
	}, nil
}

func (s *orderMaterialService) GetMaterialByID(shopID, materialID string) (*models.OrderMaterial, error) {
	material, err := s.materialRepo.GetOrderMaterialByID(shopID, materialID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrOrderMaterialNotFound
		}
		return nil, fmt.Errorf("failed to fetch order material %s: %w", materialID, err)
	}
	return material, nil
}
