package router

import (
	"boutique_backend/internal/handlers"

	"github.com/gin-gonic/gin"
)

// SetupInventoryCategoryRoutes sets up the inventory category routes.
func SetupInventoryCategoryRoutes(authenticatedGroup *gin.RouterGroup, inventoryHandler *handlers.InventoryHandler) {
	categoryRoutes := authenticatedGroup.Group("/inventory/categories")
	{
		categoryRoutes.POST("", inventoryHandler.CreateCategory)
		categoryRoutes.GET("", inventoryHandler.GetCategories)
		categoryRoutes.GET("/:id", inventoryHandler.GetCategoryByID)
		categoryRoutes.PUT("/:id", inventoryHandler.UpdateCategory)
		categoryRoutes.DELETE("/:id", inventoryHandler.DeleteCategory)
	}
}

// SetupInventoryItemRoutes sets up the inventory item routes, including the
// stock movement endpoints.
func SetupInventoryItemRoutes(authenticatedGroup *gin.RouterGroup, inventoryHandler *handlers.InventoryHandler) {
	itemRoutes := authenticatedGroup.Group("/inventory/items")
	{
		itemRoutes.POST("", inventoryHandler.CreateItem)
		itemRoutes.GET("", inventoryHandler.GetItems)
		itemRoutes.GET("/:id", inventoryHandler.GetItemByID)
		itemRoutes.PUT("/:id", inventoryHandler.UpdateItem)
		itemRoutes.DELETE("/:id", inventoryHandler.DeleteItem)

		itemRoutes.POST("/:id/stock-in", inventoryHandler.StockIn)
		itemRoutes.POST("/:id/adjust-stock", inventoryHandler.AdjustStock)
		itemRoutes.GET("/:id/history", inventoryHandler.GetItemHistory)
	}
}

// SetupOrderMaterialRoutes sets up the order material routes.
func SetupOrderMaterialRoutes(authenticatedGroup *gin.RouterGroup, materialHandler *handlers.OrderMaterialHandler) {
	orderRoutes := authenticatedGroup.Group("/orders")
	{
		orderRoutes.POST("/:id/materials", materialHandler.AddOrderMaterials)
		orderRoutes.GET("/:id/materials", materialHandler.GetOrderMaterials)
	}

	materialRoutes := authenticatedGroup.Group("/order-materials")
	{
		materialRoutes.GET("/:id", materialHandler.GetOrderMaterialByID)
		materialRoutes.DELETE("/:id", materialHandler.DeleteOrderMaterial)
	}
}

// SetupDashboardRoutes sets up the inventory dashboard route.
func SetupDashboardRoutes(authenticatedGroup *gin.RouterGroup, dashboardHandler *handlers.DashboardHandler) {
	authenticatedGroup.GET("/inventory/dashboard", dashboardHandler.GetInventoryDashboard)
}
