package services

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"boutique_backend/internal/models"
	"boutique_backend/internal/repositories"

	"github.com/shopspring/decimal"
)

var (
	ErrValidation        = errors.New("inventory data validation error")
	ErrCategoryNotFound  = errors.New("inventory category not found")
	ErrCategoryNameTaken = errors.New("inventory category name already exists")
	ErrItemInUse         = errors.New("inventory item is referenced by order materials and cannot be deleted")
)

// --- Inventory DTOs ---

type CreateCategoryRequest struct {
	Name        string      `json:"name" binding:"required"`
	Description *string     `json:"description"`
	DefaultUnit models.Unit `json:"default_unit"`
}

type UpdateCategoryRequest struct {
	Name        *string      `json:"name"`
	Description *string      `json:"description"`
	DefaultUnit *models.Unit `json:"default_unit"`
	IsActive    *bool        `json:"is_active"`
}

type CreateItemRequest struct {
	CategoryID   *string          `json:"category_id"`
	Name         string           `json:"name" binding:"required"`
	Description  *string          `json:"description"`
	SKU          *string          `json:"sku"`
	Unit         models.Unit      `json:"unit"`
	CurrentStock *decimal.Decimal `json:"current_stock"` // opening balance, recorded as INITIAL_STOCK
	MinimumStock *decimal.Decimal `json:"minimum_stock"`
	Notes        *string          `json:"notes"`
}

type UpdateItemRequest struct {
	CategoryID   *string          `json:"category_id"`
	Name         *string          `json:"name"`
	Description  *string          `json:"description"`
	SKU          *string          `json:"sku"`
	Unit         *models.Unit     `json:"unit"`
	MinimumStock *decimal.Decimal `json:"minimum_stock"`
	Notes        *string          `json:"notes"`
	IsActive     *bool            `json:"is_active"`
}

// --- InventoryService Interface ---

type InventoryService interface {
	CreateCategory(shopID string, req CreateCategoryRequest) (*models.InventoryCategory, error)
	GetCategoryByID(shopID, categoryID string) (*models.InventoryCategory, error)
	GetCategories(shopID string, page, pageSize int) ([]models.InventoryCategory, int, error)
	UpdateCategory(shopID, categoryID string, req UpdateCategoryRequest) (*models.InventoryCategory, error)
	DeleteCategory(shopID, categoryID string) error

	CreateItem(shopID string, req CreateItemRequest, actorID string) (*models.InventoryItem, error)
	GetItemByID(shopID, itemID string) (*models.InventoryItem, error)
	GetItems(shopID string, filters models.ItemFilters) ([]models.InventoryItem, int, error)
	UpdateItem(shopID, itemID string, req UpdateItemRequest) (*models.InventoryItem, error)
	DeleteItem(shopID, itemID string) error
}

// --- inventoryService Implementation ---

type inventoryService struct {
	inventoryRepo repositories.InventoryRepository
	materialRepo  repositories.OrderMaterialRepository
	stockService  StockService
	db            *sql.DB
}

// NewInventoryService creates a new instance of InventoryService.
func NewInventoryService(
	ir repositories.InventoryRepository,
	mr repositories.OrderMaterialRepository,
	ss StockService,
	db *sql.DB,
) InventoryService {
	return &inventoryService{
		inventoryRepo: ir,
		materialRepo:  mr,
		stockService:  ss,
		db:            db,
	}
}

// --- Category Methods ---

func (s *inventoryService) CreateCategory(shopID string, req CreateCategoryRequest) (*models.InventoryCategory, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, fmt.Errorf("%w: category name cannot be empty", ErrValidation)
	}
	unit := req.DefaultUnit
	if unit == "" {
		unit = models.UnitPieces
	}
	if !unit.IsValid() {
		return nil, fmt.Errorf("%w: unknown unit %q", ErrValidation, unit)
	}

	category := &models.InventoryCategory{
		ShopID:      shopID,
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		DefaultUnit: unit,
		IsActive:    true,
	}
	if _, err := s.inventoryRepo.CreateCategory(s.db, category); err != nil {
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return nil, fmt.Errorf("%w: %s", ErrCategoryNameTaken, category.Name)
		}
		return nil, fmt.Errorf("failed to create inventory category: %w", err)
	}
	return category, nil
}

func (s *inventoryService) GetCategoryByID(shopID, categoryID string) (*models.InventoryCategory, error) {
	category, err := s.inventoryRepo.GetCategoryByID(shopID, categoryID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrCategoryNotFound
		}
		return nil, fmt.Errorf("failed to get inventory category: %w", err)
	}
	return category, nil
}

func (s *inventoryService) GetCategories(shopID string, page, pageSize int) ([]models.InventoryCategory, int, error) {
	categories, totalCount, err := s.inventoryRepo.GetCategories(shopID, page, pageSize)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get inventory categories: %w", err)
	}
	return categories, totalCount, nil
}

func (s *inventoryService) UpdateCategory(shopID, categoryID string, req UpdateCategoryRequest) (*models.InventoryCategory, error) {
	category, err := s.GetCategoryByID(shopID, categoryID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		if strings.TrimSpace(*req.Name) == "" {
			return nil, fmt.Errorf("%w: category name cannot be empty", ErrValidation)
		}
		category.Name = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		category.Description = req.Description
	}
	if req.DefaultUnit != nil {
		if !req.DefaultUnit.IsValid() {
			return nil, fmt.Errorf("%w: unknown unit %q", ErrValidation, *req.DefaultUnit)
		}
		category.DefaultUnit = *req.DefaultUnit
	}
	if req.IsActive != nil {
		category.IsActive = *req.IsActive
	}

	if err := s.inventoryRepo.UpdateCategory(s.db, category); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrCategoryNotFound
		}
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return nil, fmt.Errorf("%w: %s", ErrCategoryNameTaken, category.Name)
		}
		return nil, fmt.Errorf("failed to update inventory category: %w", err)
	}
	return category, nil
}

func (s *inventoryService) DeleteCategory(shopID, categoryID string) error {
	// Soft delete keeps the row so items and ledger entries that reference
	// the category stay intact.
	if err := s.inventoryRepo.SoftDeleteCategory(s.db, shopID, categoryID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrCategoryNotFound
		}
		return fmt.Errorf("failed to delete inventory category: %w", err)
	}
	return nil
}

// --- Item Methods ---

func (s *inventoryService) CreateItem(shopID string, req CreateItemRequest, actorID string) (*models.InventoryItem, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, fmt.Errorf("%w: item name cannot be empty", ErrValidation)
	}
	unit := req.Unit
	if unit == "" {
		unit = models.UnitPieces
	}
	if !unit.IsValid() {
		return nil, fmt.Errorf("%w: unknown unit %q", ErrValidation, unit)
	}

	openingStock := decimal.Zero
	if req.CurrentStock != nil {
		if req.CurrentStock.IsNegative() {
			return nil, fmt.Errorf("%w: opening stock cannot be negative", ErrInvalidQuantity)
		}
		openingStock = *req.CurrentStock
	}
	minimumStock := decimal.Zero
	if req.MinimumStock != nil {
		if req.MinimumStock.IsNegative() {
			return nil, fmt.Errorf("%w: minimum stock cannot be negative", ErrInvalidQuantity)
		}
		minimumStock = *req.MinimumStock
	}

	if req.CategoryID != nil {
		if _, err := s.GetCategoryByID(shopID, *req.CategoryID); err != nil {
			return nil, err
		}
	}

	item := &models.InventoryItem{
		ShopID:       shopID,
		CategoryID:   req.CategoryID,
		Name:         strings.TrimSpace(req.Name),
		Description:  req.Description,
		SKU:          req.SKU,
		Unit:         unit,
		CurrentStock: openingStock,
		MinimumStock: minimumStock,
		Notes:        req.Notes,
		IsActive:     true,
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to start item creation transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := s.inventoryRepo.CreateItem(tx, item); err != nil {
		return nil, fmt.Errorf("failed to create inventory item: %w", err)
	}
	if openingStock.IsPositive() {
		if _, err := s.stockService.InitialStock(tx, item, actorID); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit item creation transaction: %w", err)
	}
	return item, nil
}

func (s *inventoryService) GetItemByID(shopID, itemID string) (*models.InventoryItem, error) {
	item, err := s.inventoryRepo.GetItemByID(shopID, itemID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrItemNotFound
		}
		return nil, fmt.Errorf("failed to get inventory item: %w", err)
	}
	return item, nil
}

func (s *inventoryService) GetItems(shopID string, filters models.ItemFilters) ([]models.InventoryItem, int, error) {
	items, totalCount, err := s.inventoryRepo.GetItems(shopID, filters)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get inventory items: %w", err)
	}
	return items, totalCount, nil
}

func (s *inventoryService) UpdateItem(shopID, itemID string, req UpdateItemRequest) (*models.InventoryItem, error) {
	item, err := s.GetItemByID(shopID, itemID)
	if err != nil {
		return nil, err
	}
	if item.IsDeleted {
		return nil, ErrItemNotFound
	}

	if req.Name != nil {
		if strings.TrimSpace(*req.Name) == "" {
			return nil, fmt.Errorf("%w: item name cannot be empty", ErrValidation)
		}
		item.Name = strings.TrimSpace(*req.Name)
	}
	if req.CategoryID != nil {
		if *req.CategoryID != "" {
			if _, err := s.GetCategoryByID(shopID, *req.CategoryID); err != nil {
				return nil, err
			}
			item.CategoryID = req.CategoryID
		} else {
			item.CategoryID = nil
		}
	}
	if req.Description != nil {
		item.Description = req.Description
	}
	if req.SKU != nil {
		item.SKU = req.SKU
	}
	if req.Unit != nil {
		if !req.Unit.IsValid() {
			return nil, fmt.Errorf("%w: unknown unit %q", ErrValidation, *req.Unit)
		}
		item.Unit = *req.Unit
	}
	if req.MinimumStock != nil {
		if req.MinimumStock.IsNegative() {
			return nil, fmt.Errorf("%w: minimum stock cannot be negative", ErrInvalidQuantity)
		}
		item.MinimumStock = *req.MinimumStock
	}
	if req.Notes != nil {
		item.Notes = req.Notes
	}
	if req.IsActive != nil {
		item.IsActive = *req.IsActive
	}

	if err := s.inventoryRepo.UpdateItem(s.db, item); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrItemNotFound
		}
		return nil, fmt.Errorf("failed to update inventory item: %w", err)
	}
	item.LowStock = item.IsLowStock()
	return item, nil
}

func (s *inventoryService) DeleteItem(shopID, itemID string) error {
	item, err := s.GetItemByID(shopID, itemID)
	if err != nil {
		return err
	}
	if item.IsDeleted {
		return ErrItemNotFound
	}

	// Bindings protect the item: material usage must be removed (restoring
	// stock) before the item can go away.
	bindings, err := s.materialRepo.CountByItem(itemID)
	if err != nil {
		return fmt.Errorf("failed to check order material bindings for item %s: %w", itemID, err)
	}
	if bindings > 0 {
		return fmt.Errorf("%w: %d binding(s) exist", ErrItemInUse, bindings)
	}

	if err := s.inventoryRepo.SoftDeleteItem(s.db, shopID, itemID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrItemNotFound
		}
		return fmt.Errorf("failed to delete inventory item: %w", err)
	}
	return nil
}
