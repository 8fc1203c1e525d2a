package handlers

import (
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"

	"flowerbelle-pos/internal/database"
	"flowerbelle-pos/internal/models"
	"flowerbelle-pos/internal/services"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// --- GET: List products, with optional search/category/low_stock filters ---
func GetProducts(c *gin.Context) {
	query := database.DB.Model(&models.Product{}).Where("is_active = ?", true)

	if search := c.Query("search"); search != "" {
		like := "%" + search + "%"
		query = query.Where("name LIKE ? OR sku LIKE ?", like, like)
	}
	if category := c.Query("category"); category != "" {
		query = query.Where("category = ?", category)
	}
	if c.Query("low_stock") == "true" {
		query = query.Where("current_stock <= reorder_level")
	}

	var products []models.Product
	if err := query.Order("name").Find(&products).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch products"})
		return
	}

	c.JSON(http.StatusOK, products)
}

// --- GET: Single product ---
func GetProduct(c *gin.Context) {
	var product models.Product
	if err := database.DB.First(&product, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
		return
	}
	c.JSON(http.StatusOK, product)
}

// --- GET: Lookup by SKU (barcode scanner path) ---
func ScanProduct(c *gin.Context) {
	var product models.Product
	if err := database.DB.Where("sku = ? AND is_active = ?", c.Param("sku"), true).First(&product).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
		return
	}
	c.JSON(http.StatusOK, product)
}

// --- POST: Add a new product ---
func AddProduct(c *gin.Context) {
	var newProduct models.Product
	if err := c.ShouldBindJSON(&newProduct); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}

	if newProduct.SKU == "" || newProduct.Name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "SKU and name are required", "code": "VALIDATION"})
		return
	}
	if newProduct.UnitPrice < 0 || newProduct.CostPrice < 0 || newProduct.CurrentStock < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Prices and stock cannot be negative", "code": "VALIDATION"})
		return
	}

	newProduct.IsActive = true
	if err := database.DB.Create(&newProduct).Error; err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to create product (duplicate SKU?)"})
		return
	}

	// Opening stock lands in the movement ledger too
	if newProduct.CurrentStock > 0 {
		database.DB.Create(&models.InventoryMovement{
			ProductID:    newProduct.ID,
			MovementType: models.MovementStockIn,
			Quantity:     newProduct.CurrentStock,
			Reason:       "Initial stock",
			CreatedByID:  currentUserID(c),
		})
	}

	services.CreateAuditLog(database.DB, currentUserID(c), "CREATE", "products", newProduct.ID,
		fmt.Sprintf("Created product %s", newProduct.SKU), c.ClientIP())

	c.JSON(http.StatusCreated, newProduct)
}

// --- PUT: Partial update of catalog fields ---
// Stock is NOT updatable here; stock changes go through AdjustStock so the
// movement ledger stays complete.
func UpdateProduct(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid Product ID"})
		return
	}

	var product models.Product
	if err := database.DB.First(&product, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
		return
	}

	// Map so we only update what was sent
	var updateData map[string]interface{}
	if err := c.ShouldBindJSON(&updateData); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}
	delete(updateData, "current_stock")
	delete(updateData, "id")

	if err := database.DB.Model(&product).Updates(updateData).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update product"})
		return
	}

	services.CreateAuditLog(database.DB, currentUserID(c), "UPDATE", "products", product.ID,
		fmt.Sprintf("Updated product %s", product.SKU), c.ClientIP())

	c.JSON(http.StatusOK, gin.H{"message": "Product updated successfully", "product": product})
}

// --- DELETE: Soft-deactivate ---
// Products are referenced by past sales, so they are never hard-deleted.
func DeleteProduct(c *gin.Context) {
	var product models.Product
	if err := database.DB.First(&product, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
		return
	}

	if err := database.DB.Model(&product).Update("is_active", false).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to deactivate product"})
		return
	}

	services.CreateAuditLog(database.DB, currentUserID(c), "DELETE", "products", product.ID,
		fmt.Sprintf("Deactivated product %s", product.SKU), c.ClientIP())

	c.JSON(http.StatusOK, gin.H{"message": "Product deactivated"})
}

type AdjustStockRequest struct {
	MovementType string `json:"movement_type" binding:"required"` // STOCK_IN or ADJUSTMENT
	Quantity     int    `json:"quantity" binding:"required"`      // ADJUSTMENT may be negative
	Reason       string `json:"reason"`
}

// --- POST: Manual stock movement ---
func AdjustStock(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid Product ID"})
		return
	}

	var input AdjustStockRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}

	if input.MovementType != models.MovementStockIn && input.MovementType != models.MovementAdjustment {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Movement type must be STOCK_IN or ADJUSTMENT", "code": "VALIDATION"})
		return
	}
	if input.MovementType == models.MovementStockIn && input.Quantity < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "STOCK_IN quantity must be positive", "code": "VALIDATION"})
		return
	}

	var product models.Product
	err = database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&product, id).Error; err != nil {
			return err
		}

		newStock := product.CurrentStock + input.Quantity
		if newStock < 0 {
			return fmt.Errorf("%w: stock cannot go below zero (current %d)", services.ErrInsufficientStock, product.CurrentStock)
		}

		if err := tx.Model(&product).Update("current_stock", newStock).Error; err != nil {
			return err
		}
		product.CurrentStock = newStock

		return tx.Create(&models.InventoryMovement{
			ProductID:    product.ID,
			MovementType: input.MovementType,
			Quantity:     input.Quantity,
			Reason:       input.Reason,
			CreatedByID:  currentUserID(c),
		}).Error
	})
	if err != nil {
		if respondBusinessError(c, err) {
			return
		}
		c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
		return
	}

	services.CreateAuditLog(database.DB, currentUserID(c), "UPDATE", "products", product.ID,
		fmt.Sprintf("Stock %s %+d: %s", input.MovementType, input.Quantity, input.Reason), c.ClientIP())

	c.JSON(http.StatusOK, gin.H{"message": "Stock adjusted", "product": product})
}

// --- UPLOAD: Product image files ---
func UploadImage(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file uploaded"})
		return
	}

	// Unique filename, e.g. "167890123_rose-bouquet.jpg"
	filename := fmt.Sprintf("%d_%s", time.Now().Unix(), file.Filename)
	filepath := "./uploads/" + filename

	if err := c.SaveUploadedFile(file, filepath); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save file"})
		return
	}

	baseURL := os.Getenv("BASE_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "File uploaded successfully",
		"url":     baseURL + "/uploads/" + filename,
	})
}
