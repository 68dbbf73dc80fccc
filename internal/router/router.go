package router

import (
	"database/sql"

	"boutique_backend/internal/handlers"
	"boutique_backend/internal/middleware"
	"boutique_backend/internal/repositories"
	"boutique_backend/internal/services"

	"github.com/gin-gonic/gin"
)

// Setup initializes the routing for the application.
func Setup(engine *gin.Engine, db *sql.DB) {
	// Initialize Repositories
	inventoryRepo := repositories.NewInventoryRepository(db)
	historyRepo := repositories.NewStockHistoryRepository(db)
	materialRepo := repositories.NewOrderMaterialRepository(db)

	// Initialize Services
	stockService := services.NewStockService(inventoryRepo, historyRepo, db)
	inventoryService := services.NewInventoryService(inventoryRepo, materialRepo, stockService, db)
	materialService := services.NewOrderMaterialService(materialRepo, stockService, db)
	dashboardService := services.NewDashboardService(inventoryRepo)

	// Initialize Handlers
	inventoryHandler := handlers.NewInventoryHandler(inventoryService, stockService)
	materialHandler := handlers.NewOrderMaterialHandler(materialService)
	dashboardHandler := handlers.NewDashboardHandler(dashboardService)

	apiV1 := engine.Group("/api/v1")

	authenticated := apiV1.Group("")
	authenticated.Use(middleware.AuthMiddleware())
	{
		SetupInventoryCategoryRoutes(authenticated, inventoryHandler)
		SetupInventoryItemRoutes(authenticated, inventoryHandler)
		SetupOrderMaterialRoutes(authenticated, materialHandler)
		SetupDashboardRoutes(authenticated, dashboardHandler)
	}
}
