package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"flowerbelle-pos/internal/database"
	"flowerbelle-pos/internal/models"
	"flowerbelle-pos/internal/services"

	"github.com/gin-gonic/gin"
)

// --- GET: List transactions with filters ---
func GetTransactions(c *gin.Context) {
	query := database.DB.Model(&models.SalesTransaction{}).
		Preload("CreatedBy").
		Order("created_at desc")

	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if method := c.Query("payment_method"); method != "" {
		query = query.Where("payment_method = ?", method)
	}
	if userID := c.Query("user_id"); userID != "" {
		query = query.Where("created_by_id = ?", userID)
	}
	if start, end, err := parseDateRange(c, 30); err == nil {
		query = query.Where("created_at >= ? AND created_at < ?", start, end)
	} else {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Dates must be YYYY-MM-DD", "code": "VALIDATION"})
		return
	}

	limit := 50
	if l, err := strconv.Atoi(c.Query("limit")); err == nil && l > 0 && l <= 200 {
		limit = l
	}
	offset := 0
	if o, err := strconv.Atoi(c.Query("offset")); err == nil && o >= 0 {
		offset = o
	}

	var txns []models.SalesTransaction
	if err := query.Limit(limit).Offset(offset).Find(&txns).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch transactions"})
		return
	}

	c.JSON(http.StatusOK, txns)
}

// --- GET: Single transaction with items ---
func GetTransaction(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid transaction ID"})
		return
	}

	svc := services.NewTransactionService(database.DB)
	txn, err := svc.Get(uint(id))
	if err != nil {
		if respondBusinessError(c, err) {
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch transaction"})
		return
	}

	c.JSON(http.StatusOK, txn)
}

type TransactionItemRequest struct {
	ProductID uint     `json:"product_id" binding:"required"`
	Quantity  int      `json:"quantity" binding:"required,min=1"`
	UnitPrice *float64 `json:"unit_price"` // omit to charge the live catalog price
	Discount  float64  `json:"discount"`
	Notes     string   `json:"notes"`
}

type CreateTransactionRequest struct {
	Items            []TransactionItemRequest `json:"items" binding:"required"`
	PaymentMethod    string                   `json:"payment_method" binding:"required"`
	PaymentReference string                   `json:"payment_reference"`
	// Pointer so a fully-discounted sale can legitimately send 0
	AmountPaid    *float64 `json:"amount_paid" binding:"required"`
	Tax           float64  `json:"tax"`
	Discount      float64  `json:"discount"`
	Notes         string   `json:"notes"`
	CustomerName  string   `json:"customer_name"`
	CustomerPhone string   `json:"customer_phone"`
	CustomerEmail string   `json:"customer_email"`
}

// --- POST: Direct sale from an explicit item list ---
func CreateTransaction(c *gin.Context) {
	var input CreateTransactionRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	items := make([]services.SaleItemInput, 0, len(input.Items))
	for _, item := range input.Items {
		items = append(items, services.SaleItemInput{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
			Discount:  item.Discount,
			Notes:     item.Notes,
		})
	}

	svc := services.NewTransactionService(database.DB)
	txn, err := svc.CreateTransaction(currentUserID(c), services.CreateTransactionInput{
		Items:            items,
		PaymentMethod:    input.PaymentMethod,
		PaymentReference: input.PaymentReference,
		AmountPaid:       *input.AmountPaid,
		Tax:              input.Tax,
		Discount:         input.Discount,
		Notes:            input.Notes,
		CustomerName:     input.CustomerName,
		CustomerPhone:    input.CustomerPhone,
		CustomerEmail:    input.CustomerEmail,
	})
	if err != nil {
		if respondBusinessError(c, err) {
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create transaction"})
		return
	}

	services.CreateAuditLog(database.DB, currentUserID(c), "CREATE", "sales_transactions", txn.ID,
		fmt.Sprintf("Sale %s total %.2f", txn.TransactionNumber, txn.TotalAmount), c.ClientIP())
	invalidateDashboard()

	c.JSON(http.StatusCreated, gin.H{"message": "Sale recorded", "transaction": txn})
}

type CheckoutRequest struct {
	PaymentMethod    string `json:"payment_method" binding:"required"`
	PaymentReference string `json:"payment_reference"`
	// Pointer so a fully-discounted sale can legitimately send 0
	AmountPaid    *float64 `json:"amount_paid" binding:"required"`
	Tax           float64  `json:"tax"`
	Discount      float64  `json:"discount"`
	Notes         string   `json:"notes"`
	CustomerName  string   `json:"customer_name"`
	CustomerPhone string   `json:"customer_phone"`
	CustomerEmail string   `json:"customer_email"`
}

// --- POST: Checkout the active cart ---
// The cart's price snapshots carry into the sale; the cart is deactivated
// only after the transaction commits.
func Checkout(c *gin.Context) {
	var input CheckoutRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	svc := services.NewTransactionService(database.DB)
	txn, err := svc.Checkout(currentUserID(c), services.CheckoutInput{
		PaymentMethod:    input.PaymentMethod,
		PaymentReference: input.PaymentReference,
		AmountPaid:       *input.AmountPaid,
		Tax:              input.Tax,
		Discount:         input.Discount,
		Notes:            input.Notes,
		CustomerName:     input.CustomerName,
		CustomerPhone:    input.CustomerPhone,
		CustomerEmail:    input.CustomerEmail,
	})
	if err != nil {
		if respondBusinessError(c, err) {
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Checkout failed"})
		return
	}

	services.CreateAuditLog(database.DB, currentUserID(c), "CREATE", "sales_transactions", txn.ID,
		fmt.Sprintf("Checkout %s total %.2f", txn.TransactionNumber, txn.TotalAmount), c.ClientIP())
	invalidateDashboard()

	c.JSON(http.StatusCreated, gin.H{"message": "Checkout successful", "transaction": txn})
}

type VoidTransactionRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// --- POST: Void a transaction (terminal; restores inventory if completed) ---
func VoidTransaction(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid transaction ID"})
		return
	}

	var input VoidTransactionRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Reason is required"})
		return
	}

	svc := services.NewTransactionService(database.DB)
	txn, err := svc.Void(uint(id), currentUserID(c), input.Reason)
	if err != nil {
		if respondBusinessError(c, err) {
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to void transaction"})
		return
	}

	services.CreateAuditLog(database.DB, currentUserID(c), "VOID", "sales_transactions", txn.ID,
		fmt.Sprintf("Voided %s: %s", txn.TransactionNumber, input.Reason), c.ClientIP())
	invalidateDashboard()

	c.JSON(http.StatusOK, gin.H{"message": "Transaction voided successfully", "transaction": txn})
}
