package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Unit is the unit of measure for an inventory item.
type Unit string

const (
	UnitPieces    Unit = "PCS"
	UnitMeters    Unit = "MTR"
	UnitYards     Unit = "YRD"
	UnitSet       Unit = "SET"
	UnitRoll      Unit = "ROLL"
	UnitSpool     Unit = "SPOOL"
	UnitKilograms Unit = "KG"
	UnitGrams     Unit = "GM"
)

// IsValid reports whether u is a known unit of measure.
func (u Unit) IsValid() bool {
	switch u {
	case UnitPieces, UnitMeters, UnitYards, UnitSet, UnitRoll, UnitSpool, UnitKilograms, UnitGrams:
		return true
	default:
		return false
	}
}

// TransactionType classifies the direction of a stock movement.
type TransactionType string

const (
	TransactionIn         TransactionType = "IN"
	TransactionOut        TransactionType = "OUT"
	TransactionAdjustment TransactionType = "ADJUSTMENT"
)

// StockReason records why a stock movement happened.
type StockReason string

const (
	ReasonPurchase         StockReason = "PURCHASE"
	ReasonOrderUsage       StockReason = "ORDER_USAGE"
	ReasonDamaged          StockReason = "DAMAGED"
	ReasonReturned         StockReason = "RETURNED"
	ReasonManualAdjustment StockReason = "MANUAL_ADJUSTMENT"
	ReasonInitialStock     StockReason = "INITIAL_STOCK"
	ReasonOrderCancelled   StockReason = "ORDER_CANCELLED"
)

// IsAdjustmentReason reports whether the reason is allowed for a manual
// stock adjustment.
func (r StockReason) IsAdjustmentReason() bool {
	return r == ReasonDamaged || r == ReasonManualAdjustment
}

// InventoryCategory groups inventory items (fabric, buttons, thread, ...).
// Categories are soft-deleted so historical references stay intact.
type InventoryCategory struct {
	ID          string    `json:"id" db:"id"`
	ShopID      string    `json:"shop_id" db:"shop_id"`
	Name        string    `json:"name" db:"name" binding:"required"`
	Description *string   `json:"description,omitempty" db:"description"`
	DefaultUnit Unit      `json:"default_unit" db:"default_unit"`
	IsActive    bool      `json:"is_active" db:"is_active"`
	IsDeleted   bool      `json:"-" db:"is_deleted"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// InventoryItem is a stock-tracked material. CurrentStock is only ever
// mutated through the stock service so that every change lands in the ledger.
type InventoryItem struct {
	ID           string          `json:"id" db:"id"`
	ShopID       string          `json:"shop_id" db:"shop_id"`
	CategoryID   *string         `json:"category_id,omitempty" db:"category_id"`
	Name         string          `json:"name" db:"name" binding:"required"`
	Description  *string         `json:"description,omitempty" db:"description"`
	SKU          *string         `json:"sku,omitempty" db:"sku"`
	Unit         Unit            `json:"unit" db:"unit"`
	CurrentStock decimal.Decimal `json:"current_stock" db:"current_stock"`
	MinimumStock decimal.Decimal `json:"minimum_stock" db:"minimum_stock"`
	LowStock     bool            `json:"is_low_stock" db:"-"` // derived on read
	Notes        *string         `json:"notes,omitempty" db:"notes"`
	IsActive     bool            `json:"is_active" db:"is_active"`
	IsDeleted    bool            `json:"is_deleted" db:"is_deleted"`
	CreatedAt    time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at" db:"updated_at"`

	Category *InventoryCategory `json:"category,omitempty"`
}

// IsLowStock reports whether the balance has fallen below the reorder threshold.
func (i *InventoryItem) IsLowStock() bool {
	return i.CurrentStock.LessThan(i.MinimumStock)
}

// StockHistory is one immutable ledger entry. Entries are only ever inserted;
// corrections are recorded as new entries.
type StockHistory struct {
	ID              string          `json:"id" db:"id"`
	InventoryItemID string          `json:"inventory_item_id" db:"inventory_item_id"`
	TransactionType TransactionType `json:"transaction_type" db:"transaction_type"`
	Reason          StockReason     `json:"reason" db:"reason"`
	Quantity        decimal.Decimal `json:"quantity" db:"quantity"`
	StockBefore     decimal.Decimal `json:"stock_before" db:"stock_before"`
	StockAfter      decimal.Decimal `json:"stock_after" db:"stock_after"`
	OrderID         *string         `json:"order_id,omitempty" db:"order_id"`
	OrderMaterialID *string         `json:"order_material_id,omitempty" db:"order_material_id"`
	SupplierName    *string         `json:"supplier_name,omitempty" db:"supplier_name"`
	Notes           *string         `json:"notes,omitempty" db:"notes"`
	CreatedBy       *string         `json:"created_by,omitempty" db:"created_by"`
	CreatedAt       time.Time       `json:"created_at" db:"created_at"`

	CreatedByName *string `json:"created_by_name,omitempty"`
	ItemName      *string `json:"item_name,omitempty"`
}

// OrderMaterial binds a consumed quantity of an inventory item to an order.
type OrderMaterial struct {
	ID              string           `json:"id" db:"id"`
	OrderID         string           `json:"order_id" db:"order_id"`
	InventoryItemID string           `json:"inventory_item_id" db:"inventory_item_id"`
	Quantity        decimal.Decimal  `json:"quantity" db:"quantity"`
	UnitPrice       *decimal.Decimal `json:"unit_price,omitempty" db:"unit_price"`
	Notes           *string          `json:"notes,omitempty" db:"notes"`
	AddedBy         *string          `json:"added_by,omitempty" db:"added_by"`
	CreatedAt       time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at" db:"updated_at"`

	ItemName *string `json:"item_name,omitempty"`
	ItemUnit *Unit   `json:"item_unit,omitempty"`
}

// TotalCost is quantity * unit price, or zero when no price snapshot exists.
func (m *OrderMaterial) TotalCost() decimal.Decimal {
	if m.UnitPrice == nil {
		return decimal.Zero
	}
	return m.Quantity.Mul(*m.UnitPrice)
}

// ItemFilters narrow the inventory item listing.
type ItemFilters struct {
	CategoryID *string
	LowStock   bool
	Search     *string
	Page       int
	PageSize   int
}

// InventoryDashboard is the read-only rollup shown on the inventory landing page.
type InventoryDashboard struct {
	TotalItems      int             `json:"total_items"`
	TotalCategories int             `json:"total_categories"`
	LowStockCount   int             `json:"low_stock_count"`
	RecentlyUpdated []InventoryItem `json:"recently_updated"`
	LowStockItems   []InventoryItem `json:"low_stock_items"`
}
