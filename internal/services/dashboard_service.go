package services

import (
	"fmt"

	"boutique_backend/internal/models"
	"boutique_backend/internal/repositories"
)

const (
	recentlyUpdatedLimit = 5
	lowStockListLimit    = 10
)

// DashboardService produces the read-only inventory rollup. It never writes
// and takes no locks beyond the store's normal read consistency.
type DashboardService interface {
	GetDashboard(shopID string) (*models.InventoryDashboard, error)
}

type dashboardService struct {
	inventoryRepo repositories.InventoryRepository
}

// NewDashboardService creates a new instance of DashboardService.
func NewDashboardService(ir repositories.InventoryRepository) DashboardService {
	return &dashboardService{inventoryRepo: ir}
}

func (s *dashboardService) GetDashboard(shopID string) (*models.InventoryDashboard, error) {
	totalItems, err := s.inventoryRepo.CountActiveItems(shopID)
	if err != nil {
		return nil, fmt.Errorf("failed to count inventory items: %w", err)
	}
	totalCategories, err := s.inventoryRepo.CountActiveCategories(shopID)
	if err != nil {
		return nil, fmt.Errorf("failed to count inventory categories: %w", err)
	}
	lowStockCount, err := s.inventoryRepo.CountLowStockItems(shopID)
	if err != nil {
		return nil, fmt.Errorf("failed to count low-stock items: %w", err)
	}
	recentlyUpdated, err := s.inventoryRepo.RecentlyUpdatedItems(shopID, recentlyUpdatedLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to list recently updated items: %w", err)
	}
	lowStockItems, err := s.inventoryRepo.LowestStockItems(shopID, lowStockListLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to list low-stock items: %w", err)
	}

	return &models.InventoryDashboard{
		TotalItems:      totalItems,
		TotalCategories: totalCategories,
		LowStockCount:   lowStockCount,
		RecentlyUpdated: recentlyUpdated,
		LowStockItems:   lowStockItems,
	}, nil
}
