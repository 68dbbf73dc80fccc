package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"boutique_backend/internal/middleware"
	"boutique_backend/internal/models"
	"boutique_backend/internal/services"
	"boutique_backend/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// InventoryHandler holds the inventory and stock services.
type InventoryHandler struct {
	inventoryService services.InventoryService
	stockService     services.StockService
}

// NewInventoryHandler creates a new InventoryHandler.
func NewInventoryHandler(is services.InventoryService, ss services.StockService) *InventoryHandler {
	return &InventoryHandler{inventoryService: is, stockService: ss}
}

// identity pulls the authenticated user and shop from the request context.
func identity(c *gin.Context) (userID, shopID string, ok bool) {
	userID, shopID, ok = middleware.Identity(c)
	if !ok {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusUnauthorized, utils.ErrCodeUnauthorized, "Authentication context missing.", ""))
	}
	return userID, shopID, ok
}

// pathID validates a UUID path parameter.
func pathID(c *gin.Context, name string) (string, bool) {
	raw := c.Param(name)
	if _, err := uuid.Parse(raw); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeBadRequest, "Invalid id in path: "+raw, err.Error()))
		return "", false
	}
	return raw, true
}

// respondServiceError maps service sentinels onto the API error taxonomy.
func respondServiceError(c *gin.Context, logContext string, err error) {
	utils.LogError(err, logContext)
	switch {
	case errors.Is(err, services.ErrItemNotFound),
		errors.Is(err, services.ErrCategoryNotFound),
		errors.Is(err, services.ErrOrderNotFound),
		errors.Is(err, services.ErrOrderMaterialNotFound):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, err.Error(), ""))
	case errors.Is(err, services.ErrInvalidQuantity):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeInvalidQuantity, err.Error(), ""))
	case errors.Is(err, services.ErrInsufficientStock):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeInsufficientStock, err.Error(), ""))
	case errors.Is(err, services.ErrConflict):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeConflict, err.Error(), ""))
	case errors.Is(err, services.ErrCategoryNameTaken),
		errors.Is(err, services.ErrItemInUse):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeConflict, err.Error(), ""))
	case errors.Is(err, services.ErrValidation):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, err.Error(), ""))
	default:
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Internal server error.", ""))
	}
}

// --- Category Handlers ---

// CreateCategory handles creation of an inventory category.
func (h *InventoryHandler) CreateCategory(c *gin.Context) {
	_, shopID, ok := identity(c)
	if !ok {
		return
	}
	var req services.CreateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	category, err := h.inventoryService.CreateCategory(shopID, req)
	if err != nil {
		respondServiceError(c, "CreateCategory", err)
		return
	}
	c.JSON(http.StatusCreated, category)
}

// GetCategories handles the paginated category listing.
func (h *InventoryHandler) GetCategories(c *gin.Context) {
	_, shopID, ok := identity(c)
	if !ok {
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}

	categories, totalCount, err := h.inventoryService.GetCategories(shopID, page, pageSize)
	if err != nil {
		respondServiceError(c, "GetCategories", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"data":      categories,
		"total":     totalCount,
		"page":      page,
		"page_size": pageSize,
	})
}

// GetCategoryByID handles fetching a single category.
func (h *InventoryHandler) GetCategoryByID(c *gin.Context) {
	_, shopID, ok := identity(c)
	if !ok {
		return
	}
	categoryID, ok := pathID(c, "id")
	if !ok {
		return
	}

	category, err := h.inventoryService.GetCategoryByID(shopID, categoryID)
	if err != nil {
		respondServiceError(c, "GetCategoryByID", err)
		return
	}
	c.JSON(http.StatusOK, category)
}

// UpdateCategory handles category updates.
func (h *InventoryHandler) UpdateCategory(c *gin.Context) {
	_, shopID, ok := identity(c)
	if !ok {
		return
	}
	categoryID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req services.UpdateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	category, err := h.inventoryService.UpdateCategory(shopID, categoryID, req)
	if err != nil {
		respondServiceError(c, "UpdateCategory", err)
		return
	}
	c.JSON(http.StatusOK, category)
}

// DeleteCategory soft-deletes a category.
func (h *InventoryHandler) DeleteCategory(c *gin.Context) {
	_, shopID, ok := identity(c)
	if !ok {
		return
	}
	categoryID, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.inventoryService.DeleteCategory(shopID, categoryID); err != nil {
		respondServiceError(c, "DeleteCategory", err)
		return
	}
	c.Status(http.StatusNoContent)
}

// --- Item Handlers ---

// CreateItem handles creation of an inventory item, recording an initial
// stock movement when the payload carries an opening balance.
func (h *InventoryHandler) CreateItem(c *gin.Context) {
	userID, shopID, ok := identity(c)
	if !ok {
		return
	}
	var req services.CreateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	item, err := h.inventoryService.CreateItem(shopID, req, userID)
	if err != nil {
		respondServiceError(c, "CreateItem", err)
		return
	}
	c.JSON(http.StatusCreated, item)
}

// GetItems handles the filtered item listing.
func (h *InventoryHandler) GetItems(c *gin.Context) {
	_, shopID, ok := identity(c)
	if !ok {
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}

	filters := models.ItemFilters{
		Page:     page,
		PageSize: pageSize,
		LowStock: c.Query("low_stock") == "true",
	}
	if categoryID := c.Query("category"); categoryID != "" {
		filters.CategoryID = &categoryID
	}
	if search := c.Query("search"); search != "" {
		filters.Search = &search
	}

	items, totalCount, err := h.inventoryService.GetItems(shopID, filters)
	if err != nil {
		respondServiceError(c, "GetItems", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"data":      items,
		"total":     totalCount,
		"page":      page,
		"page_size": pageSize,
	})
}

// GetItemByID handles item detail, including soft-deleted items so audit
// views keep resolving.
func (h *InventoryHandler) GetItemByID(c *gin.Context) {
	_, shopID, ok := identity(c)
	if !ok {
		return
	}
	itemID, ok := pathID(c, "id")
	if !ok {
		return
	}

	item, err := h.inventoryService.GetItemByID(shopID, itemID)
	if err != nil {
		respondServiceError(c, "GetItemByID", err)
		return
	}
	c.JSON(http.StatusOK, item)
}

// UpdateItem handles item updates. The stock balance is not updatable here;
// it only moves through the stock endpoints.
func (h *InventoryHandler) UpdateItem(c *gin.Context) {
	_, shopID, ok := identity(c)
	if !ok {
		return
	}
	itemID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req services.UpdateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	item, err := h.inventoryService.UpdateItem(shopID, itemID, req)
	if err != nil {
		respondServiceError(c, "UpdateItem", err)
		return
	}
	c.JSON(http.StatusOK, item)
}

// DeleteItem soft-deletes an item unless order materials still reference it.
func (h *InventoryHandler) DeleteItem(c *gin.Context) {
	_, shopID, ok := identity(c)
	if !ok {
		return
	}
	itemID, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.inventoryService.DeleteItem(shopID, itemID); err != nil {
		respondServiceError(c, "DeleteItem", err)
		return
	}
	c.Status(http.StatusNoContent)
}

// --- Stock Movement Handlers ---

// StockIn handles adding stock to an item.
func (h *InventoryHandler) StockIn(c *gin.Context) {
	userID, shopID, ok := identity(c)
	if !ok {
		return
	}
	itemID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req services.StockInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	result, err := h.stockService.StockIn(shopID, itemID, req, userID)
	if err != nil {
		respondServiceError(c, "StockIn", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":       fmt.Sprintf("Added %s %s to %s", req.Quantity.String(), result.Item.Unit, result.Item.Name),
		"current_stock": result.Item.CurrentStock,
		"history_id":    result.HistoryID,
	})
}

// AdjustStock handles setting the stock level directly (corrections,
// damaged goods).
func (h *InventoryHandler) AdjustStock(c *gin.Context) {
	userID, shopID, ok := identity(c)
	if !ok {
		return
	}
	itemID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req services.StockAdjustmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	result, err := h.stockService.AdjustStock(shopID, itemID, req, userID)
	if err != nil {
		respondServiceError(c, "AdjustStock", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":       fmt.Sprintf("Stock of %s adjusted to %s", result.Item.Name, result.Item.CurrentStock.String()),
		"current_stock": result.Item.CurrentStock,
		"history_id":    result.HistoryID,
	})
}

// GetItemHistory returns the most recent ledger entries for an item.
func (h *InventoryHandler) GetItemHistory(c *gin.Context) {
	_, shopID, ok := identity(c)
	if !ok {
		return
	}
	itemID, ok := pathID(c, "id")
	if !ok {
		return
	}

	entries, err := h.stockService.GetItemHistory(shopID, itemID)
	if err != nil {
		respondServiceError(c, "GetItemHistory", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"data":  entries,
		"count": len(entries),
	})
}
