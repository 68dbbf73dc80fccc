package middleware

import (
	"net/http"
	"strings"

	"boutique_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// Context keys set by AuthMiddleware for downstream handlers.
const (
	ContextUserID = "userID"
	ContextShopID = "shopID"
)

// AuthMiddleware validates the bearer token issued by the account service and
// puts the caller's user and shop ids on the context. Every inventory
// operation downstream is scoped by the shop id.
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			c.Abort()
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid authorization header format. Use Bearer <token>"})
			c.Abort()
			return
		}

		claims, err := utils.ValidateToken(parts[1])
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token: " + err.Error()})
			c.Abort()
			return
		}
		if claims.ShopID == "" {
			c.JSON(http.StatusForbidden, gin.H{"error": "Token carries no shop scope"})
			c.Abort()
			return
		}

		c.Set(ContextUserID, claims.UserID)
		c.Set(ContextShopID, claims.ShopID)

		c.Next()
	}
}

// Identity extracts the authenticated user and shop ids set by AuthMiddleware.
func Identity(c *gin.Context) (userID, shopID string, ok bool) {
	user, userOK := c.Get(ContextUserID)
	shop, shopOK := c.Get(ContextShopID)
	if !userOK || !shopOK {
		return "", "", false
	}
	userID, userOK = user.(string)
	shopID, shopOK = shop.(string)
	return userID, shopID, userOK && shopOK
}
