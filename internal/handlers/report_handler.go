package handlers

import (
	"net/http"
	"time"

	"flowerbelle-pos/internal/database"
	"flowerbelle-pos/internal/models"

	"github.com/gin-gonic/gin"
)

// SalesReport is the shape of the main sales report payload
type SalesReport struct {
	StartDate   string                  `json:"start_date"`
	EndDate     string                  `json:"end_date"`
	Summary     *database.SalesSummary  `json:"summary"`
	TopProducts []database.ProductSales `json:"top_products"`
	DailySales  []database.DailySales   `json:"daily_sales"`
}

// --- GET: /api/reports/sales ---
// Window defaults to the last 30 days; start_date/end_date override.
func GetSalesReport(c *gin.Context) {
	start, end, err := parseDateRange(c, 30)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Dates must be YYYY-MM-DD", "code": "VALIDATION"})
		return
	}

	summary, err := database.GetSalesSummary(start, end)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to calculate sales"})
		return
	}

	topProducts, err := database.GetTopProducts(start, end, 10)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch top selling items"})
		return
	}

	daily, err := database.GetDailyBreakdown(start, end)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch daily breakdown"})
		return
	}

	c.JSON(http.StatusOK, SalesReport{
		StartDate:   start.Format("2006-01-02"),
		EndDate:     end.AddDate(0, 0, -1).Format("2006-01-02"),
		Summary:     summary,
		TopProducts: topProducts,
		DailySales:  daily,
	})
}

// --- GET: /api/reports/daily ---
// Today's numbers plus the transaction list for the till count.
func GetDailySales(c *gin.Context) {
	start := startOfDay(time.Now())
	end := start.AddDate(0, 0, 1)

	summary, err := database.GetSalesSummary(start, end)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to calculate sales"})
		return
	}

	var txns []models.SalesTransaction
	err = database.DB.Preload("CreatedBy").
		Where("status = ? AND created_at >= ? AND created_at < ?", models.StatusCompleted, start, end).
		Order("created_at desc").
		Find(&txns).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch transactions"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"date":         start.Format("2006-01-02"),
		"summary":      summary,
		"transactions": txns,
	})
}

// --- GET: /api/reports/staff ---
func GetStaffSales(c *gin.Context) {
	start, end, err := parseDateRange(c, 0)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Dates must be YYYY-MM-DD", "code": "VALIDATION"})
		return
	}
	start = startOfDay(start)

	rows, err := database.GetStaffSales(start, end)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch staff sales"})
		return
	}

	c.JSON(http.StatusOK, rows)
}

// --- STOCK VALUATION ---

// ValuationItem is a single row in the valuation table
type ValuationItem struct {
	Name      string  `json:"name"`
	SKU       string  `json:"sku"`
	Quantity  int     `json:"quantity"`
	CostPrice float64 `json:"cost_price"`
	TotalCost float64 `json:"total_cost"`
}

// CategoryGroup is one category's table
type CategoryGroup struct {
	CategoryName string          `json:"category_name"`
	Items        []ValuationItem `json:"items"`
	Subtotal     float64         `json:"subtotal"`
}

type ValuationResponse struct {
	Categories []CategoryGroup `json:"categories"`
	GrandTotal float64         `json:"grand_total"`
}

// --- GET: /api/reports/valuation ---
// Monetary value of all physical inventory, grouped by category.
func GetStockValuation(c *gin.Context) {
	var products []models.Product
	if err := database.DB.Where("is_active = ?", true).Order("name").Find(&products).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch inventory"})
		return
	}

	var grandTotal float64
	groupedMap := make(map[string]*CategoryGroup)
	order := []string{} // keep first-seen category order stable

	for _, p := range products {
		catName := p.Category
		if catName == "" {
			catName = "Uncategorized"
		}

		if _, exists := groupedMap[catName]; !exists {
			groupedMap[catName] = &CategoryGroup{CategoryName: catName}
			order = append(order, catName)
		}

		itemTotal := float64(p.CurrentStock) * p.CostPrice
		groupedMap[catName].Items = append(groupedMap[catName].Items, ValuationItem{
			Name:      p.Name,
			SKU:       p.SKU,
			Quantity:  p.CurrentStock,
			CostPrice: p.CostPrice,
			TotalCost: itemTotal,
		})
		groupedMap[catName].Subtotal += itemTotal
		grandTotal += itemTotal
	}

	response := ValuationResponse{GrandTotal: grandTotal}
	for _, catName := range order {
		response.Categories = append(response.Categories, *groupedMap[catName])
	}

	c.JSON(http.StatusOK, response)
}
