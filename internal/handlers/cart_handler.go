package handlers

import (
	"net/http"
	"strconv"

	"flowerbelle-pos/internal/database"
	"flowerbelle-pos/internal/services"

	"github.com/gin-gonic/gin"
)

// --- GET: Current user's active cart (created on first touch) ---
func GetCart(c *gin.Context) {
	svc := services.NewCartService(database.DB)
	cart, err := svc.GetOrCreateActiveCart(currentUserID(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load cart"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"cart": cart, "subtotal": cart.Subtotal(), "item_count": cart.ItemCount()})
}

type AddToCartRequest struct {
	ProductID uint `json:"product_id" binding:"required"`
	Quantity  int  `json:"quantity" binding:"required,min=1"`
}

// --- POST: Add item (quantities merge per product) ---
func AddToCart(c *gin.Context) {
	var input AddToCartRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}

	svc := services.NewCartService(database.DB)
	cart, err := svc.AddItem(currentUserID(c), input.ProductID, input.Quantity)
	if err != nil {
		if respondBusinessError(c, err) {
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to add item"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Item added to cart", "cart": cart})
}

type UpdateCartItemRequest struct {
	Quantity int `json:"quantity" binding:"required,min=1"`
}

// --- PATCH: Set exact quantity on a cart line ---
func UpdateCartItem(c *gin.Context) {
	itemID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid item ID"})
		return
	}

	var input UpdateCartItemRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid quantity"})
		return
	}

	svc := services.NewCartService(database.DB)
	cart, err := svc.UpdateItem(currentUserID(c), uint(itemID), input.Quantity)
	if err != nil {
		if respondBusinessError(c, err) {
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update item"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Cart item updated", "cart": cart})
}

// --- DELETE: Remove one line ---
func RemoveCartItem(c *gin.Context) {
	itemID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid item ID"})
		return
	}

	svc := services.NewCartService(database.DB)
	cart, err := svc.RemoveItem(currentUserID(c), uint(itemID))
	if err != nil {
		if respondBusinessError(c, err) {
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to remove item"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Item removed from cart", "cart": cart})
}

// --- DELETE: Clear all lines; the cart stays active ---
func ClearCart(c *gin.Context) {
	svc := services.NewCartService(database.DB)
	cart, err := svc.Clear(currentUserID(c))
	if err != nil {
		if respondBusinessError(c, err) {
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to clear cart"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Cart cleared successfully", "cart": cart})
}
