package handlers

import (
	"errors"
	"net/http"

	"boutique_backend/internal/services"
	"boutique_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// OrderMaterialHandler holds the order-material binder service.
type OrderMaterialHandler struct {
	materialService services.OrderMaterialService
}

// NewOrderMaterialHandler creates a new OrderMaterialHandler.
func NewOrderMaterialHandler(ms services.OrderMaterialService) *OrderMaterialHandler {
	return &OrderMaterialHandler{materialService: ms}
}

// AddOrderMaterials binds a list of inventory quantities to an order,
// deducting stock per line. Lines fail individually; the successful subset
// commits and the failures are reported alongside it.
func (h *OrderMaterialHandler) AddOrderMaterials(c *gin.Context) {
	userID, shopID, ok := identity(c)
	if !ok {
		return
	}
	orderID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req services.BulkAddMaterialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	result, err := h.materialService.AddMaterials(shopID, orderID, req, userID)
	if err != nil {
		if errors.Is(err, services.ErrBulkOperationFailed) {
			utils.LogWarn("AddOrderMaterials: all lines failed", map[string]interface{}{"order_id": orderID})
			c.JSON(http.StatusBadRequest, gin.H{
				"error":  utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeBulkOperationFailed, err.Error(), ""),
				"errors": result.Errors,
			})
			return
		}
		respondServiceError(c, "AddOrderMaterials", err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

// GetOrderMaterials lists the materials bound to an order with the summed cost.
func (h *OrderMaterialHandler) GetOrderMaterials(c *gin.Context) {
	_, shopID, ok := identity(c)
	if !ok {
		return
	}
	orderID, ok := pathID(c, "id")
	if !ok {
		return
	}

	list, err := h.materialService.ListMaterials(shopID, orderID)
	if err != nil {
		respondServiceError(c, "GetOrderMaterials", err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// GetOrderMaterialByID fetches a single binding.
func (h *OrderMaterialHandler) GetOrderMaterialByID(c *gin.Context) {
	_, shopID, ok := identity(c)
	if !ok {
		return
	}
	materialID, ok := pathID(c, "id")
	if !ok {
		return
	}

	material, err := h.materialService.GetMaterialByID(shopID, materialID)
	if err != nil {
		respondServiceError(c, "GetOrderMaterialByID", err)
		return
	}
	c.JSON(http.StatusOK, material)
}

// DeleteOrderMaterial removes a binding and restores the deducted stock in
// the same transaction.
func (h *OrderMaterialHandler) DeleteOrderMaterial(c *gin.Context) {
	userID, shopID, ok := identity(c)
	if !ok {
		return
	}
	materialID, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.materialService.RemoveMaterial(shopID, materialID, userID); err != nil {
		respondServiceError(c, "DeleteOrderMaterial", err)
		return
	}
	c.Status(http.StatusNoContent)
}
