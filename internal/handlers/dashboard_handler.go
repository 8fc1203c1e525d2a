package handlers

import (
	"log"
	"net/http"
	"strconv"
	"time"

	"flowerbelle-pos/internal/cache"
	"flowerbelle-pos/internal/config"
	"flowerbelle-pos/internal/database"
	"flowerbelle-pos/internal/models"
	"flowerbelle-pos/internal/utils"

	"github.com/gin-gonic/gin"
)

const dashboardCacheKey = "dashboard:overview"

// DashboardOverview is the landing-page snapshot
type DashboardOverview struct {
	Today        *database.SalesSummary    `json:"today"`
	Week         *database.SalesSummary    `json:"week"`
	Month        *database.SalesSummary    `json:"month"`
	Inventory    *database.InventoryStats  `json:"inventory"`
	TopProducts  []database.ProductSales   `json:"top_products"`
	RecentSales  []models.SalesTransaction `json:"recent_sales"`
	GeneratedAt  time.Time                 `json:"generated_at"`
	FromSnapshot bool                      `json:"from_snapshot"`
}

// --- GET: /api/dashboard/overview ---
// Served from the Redis snapshot when one is fresh; otherwise computed and
// re-cached. Without Redis configured it is simply computed every time.
func GetDashboardOverview(c *gin.Context) {
	if cache.Default != nil {
		var snapshot DashboardOverview
		if err := cache.Default.GetJSON(dashboardCacheKey, &snapshot); err == nil {
			snapshot.FromSnapshot = true
			c.JSON(http.StatusOK, snapshot)
			return
		}
	}

	now := time.Now()
	todayStart := startOfDay(now)
	tomorrow := todayStart.AddDate(0, 0, 1)
	weekStart := todayStart.AddDate(0, 0, -6)
	monthStart := todayStart.AddDate(0, 0, -29)

	overview := DashboardOverview{GeneratedAt: now}

	var err error
	if overview.Today, err = database.GetSalesSummary(todayStart, tomorrow); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to build dashboard"})
		return
	}
	if overview.Week, err = database.GetSalesSummary(weekStart, tomorrow); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to build dashboard"})
		return
	}
	if overview.Month, err = database.GetSalesSummary(monthStart, tomorrow); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to build dashboard"})
		return
	}
	if overview.Inventory, err = database.GetInventoryStats(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to build dashboard"})
		return
	}
	if overview.TopProducts, err = database.GetTopProducts(monthStart, tomorrow, 5); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to build dashboard"})
		return
	}
	if overview.RecentSales, err = database.GetRecentTransactions(10); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to build dashboard"})
		return
	}

	// Each fresh computation rolls today's row forward, so the history
	// endpoint works without a scheduler.
	if err := database.UpsertDashboardMetric(todayStart, overview.Today, overview.Inventory); err != nil {
		log.Printf("⚠️ Failed to persist dashboard metric: %v", err)
	}

	if cache.Default != nil {
		ttl := time.Duration(config.Load().DashboardCacheTTL) * time.Second
		if err := cache.Default.SetJSON(dashboardCacheKey, overview, ttl); err != nil {
			log.Printf("⚠️ Failed to cache dashboard snapshot: %v", err)
		}
	}

	c.JSON(http.StatusOK, overview)
}

// --- GET: /api/dashboard/history ---
// Persisted daily snapshots for trend charts. ?days=N, default 30.
func GetDashboardHistory(c *gin.Context) {
	days := 30
	if d, err := strconv.Atoi(c.Query("days")); err == nil && d > 0 && d <= 365 {
		days = d
	}

	metrics, err := database.GetDashboardHistory(days)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch dashboard history"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"days": days, "metrics": metrics})
}

// --- GET: /api/dashboard/inventory-analytics ---
// Fast and slow movers over the last 30 days, category distribution, and
// stock movement totals.
func GetInventoryAnalytics(c *gin.Context) {
	now := time.Now()
	end := startOfDay(now).AddDate(0, 0, 1)
	start := end.AddDate(0, 0, -30)

	fastMoving, err := database.GetFastMovingProducts(start, end, 10)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to calculate inventory analytics"})
		return
	}
	// Slow movers: active products that sold 5 units or fewer in the window
	slowMoving, err := database.GetSlowMovingProducts(start, end, 5, 10)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to calculate inventory analytics"})
		return
	}
	categories, err := database.GetCategoryDistribution()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to calculate inventory analytics"})
		return
	}
	stockIn, stockOut, adjustments, err := database.GetMovementTotals(start, end)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to calculate inventory analytics"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"fast_moving_products":  fastMoving,
		"slow_moving_products":  slowMoving,
		"category_distribution": categories,
		"stock_in_total":        stockIn,
		"stock_out_total":       stockOut,
		"adjustments_total":     adjustments,
	})
}

// analyticsWindow resolves the ?period= parameter into [start, end) plus the
// immediately preceding window of the same length for growth comparison.
func analyticsWindow(c *gin.Context) (start, end, prevStart, prevEnd time.Time, err error) {
	now := time.Now()
	today := startOfDay(now)

	switch c.DefaultQuery("period", "month") {
	case "day":
		start = today
		end = today.AddDate(0, 0, 1)
	case "week":
		start = today.AddDate(0, 0, -6)
		end = today.AddDate(0, 0, 1)
	case "month":
		start = today.AddDate(0, 0, -29)
		end = today.AddDate(0, 0, 1)
	case "year":
		start = today.AddDate(-1, 0, 1)
		end = today.AddDate(0, 0, 1)
	case "custom":
		start, end, err = parseDateRange(c, 30)
		if err != nil {
			return
		}
	default:
		start, end, err = parseDateRange(c, 30)
		if err != nil {
			return
		}
	}

	span := end.Sub(start)
	prevEnd = start
	prevStart = start.Add(-span)
	return
}

// growthPercent is nil when the previous period had no sales (no base to
// compare against), matching how the storefront chart renders "—".
func growthPercent(current, previous float64) *float64 {
	if previous == 0 {
		return nil
	}
	g := utils.Round2((current - previous) / previous * 100)
	return &g
}

// --- GET: /api/dashboard/analytics ---
// Sales analytics for a period (day/week/month/year/custom) with growth
// against the preceding period of the same length.
func GetSalesAnalytics(c *gin.Context) {
	start, end, prevStart, prevEnd, err := analyticsWindow(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Dates must be YYYY-MM-DD", "code": "VALIDATION"})
		return
	}

	summary, err := database.GetSalesSummary(start, end)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to calculate analytics"})
		return
	}
	prevSummary, err := database.GetSalesSummary(prevStart, prevEnd)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to calculate analytics"})
		return
	}

	payments, err := database.GetPaymentBreakdown(start, end)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to calculate analytics"})
		return
	}
	categories, err := database.GetCategoryBreakdown(start, end)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to calculate analytics"})
		return
	}
	daily, err := database.GetDailyBreakdown(start, end)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to calculate analytics"})
		return
	}
	hourly, err := database.GetHourlyBreakdown(start, end)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to calculate analytics"})
		return
	}

	var profitMargin float64
	if summary.TotalSales > 0 {
		profitMargin = utils.Round2(summary.TotalProfit / summary.TotalSales * 100)
	}

	c.JSON(http.StatusOK, gin.H{
		"start_date":         start.Format("2006-01-02"),
		"end_date":           end.AddDate(0, 0, -1).Format("2006-01-02"),
		"summary":            summary,
		"profit_margin":      profitMargin,
		"sales_growth":       growthPercent(summary.TotalSales, prevSummary.TotalSales),
		"transaction_growth": growthPercent(float64(summary.TotalTransactions), float64(prevSummary.TotalTransactions)),
		"payment_breakdown":  payments,
		"category_breakdown": categories,
		"daily_trend":        daily,
		"hourly_breakdown":   hourly,
	})
}

// --- GET: /api/dashboard/profit-loss (OWNER only) ---
func GetProfitLoss(c *gin.Context) {
	start, end, err := parseDateRange(c, 30)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Dates must be YYYY-MM-DD", "code": "VALIDATION"})
		return
	}

	gross, discounts, net, err := database.GetRevenueBreakdown(start, end)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to calculate profit and loss"})
		return
	}
	cogs, err := database.GetCOGS(start, end)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to calculate profit and loss"})
		return
	}
	byCategory, err := database.GetProfitByCategory(start, end)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to calculate profit and loss"})
		return
	}
	byProduct, err := database.GetProfitByProduct(start, end, 20)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to calculate profit and loss"})
		return
	}

	grossProfit := utils.Round2(net - cogs)
	var grossMargin, netMargin float64
	if net > 0 {
		grossMargin = utils.Round2(grossProfit / net * 100)
		netMargin = grossMargin // no operating expenses tracked yet
	}

	c.JSON(http.StatusOK, gin.H{
		"start_date":         start.Format("2006-01-02"),
		"end_date":           end.AddDate(0, 0, -1).Format("2006-01-02"),
		"gross_sales":        gross,
		"discounts":          discounts,
		"net_sales":          net,
		"cogs":               cogs,
		"gross_profit":       grossProfit,
		"gross_margin":       grossMargin,
		"net_margin":         netMargin,
		"profit_by_category": byCategory,
		"profit_by_product":  byProduct,
	})
}

// StaffPerformance is one staff member's scorecard
type StaffPerformance struct {
	StaffID            uint                 `json:"staff_id"`
	StaffName          string               `json:"staff_name"`
	Username           string               `json:"username"`
	TotalSales         float64              `json:"total_sales"`
	TransactionCount   int64                `json:"transaction_count"`
	ItemsSold          int64                `json:"items_sold"`
	AverageTransaction float64              `json:"average_transaction"`
	TransactionsPerDay float64              `json:"transactions_per_day"`
	BestDay            *database.DailySales `json:"best_day"`
}

// --- GET: /api/dashboard/staff-performance (OWNER only) ---
func GetStaffPerformance(c *gin.Context) {
	start, end, err := parseDateRange(c, 30)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Dates must be YYYY-MM-DD", "code": "VALIDATION"})
		return
	}

	var staff []models.User
	if err := database.DB.Where("role = ?", models.RoleStaff).Order("full_name").Find(&staff).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch staff"})
		return
	}

	days := end.Sub(start).Hours() / 24
	if days < 1 {
		days = 1
	}

	performance := make([]StaffPerformance, 0, len(staff))
	for _, u := range staff {
		total, count, items, err := database.GetUserSales(u.ID, start, end)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to calculate staff performance"})
			return
		}
		bestDay, err := database.GetUserBestDay(u.ID, start, end)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to calculate staff performance"})
			return
		}

		row := StaffPerformance{
			StaffID:            u.ID,
			StaffName:          u.FullName,
			Username:           u.Username,
			TotalSales:         total,
			TransactionCount:   count,
			ItemsSold:          items,
			TransactionsPerDay: utils.Round2(float64(count) / days),
			BestDay:            bestDay,
		}
		if count > 0 {
			row.AverageTransaction = utils.Round2(total / float64(count))
		}
		performance = append(performance, row)
	}

	c.JSON(http.StatusOK, gin.H{
		"start_date": start.Format("2006-01-02"),
		"end_date":   end.AddDate(0, 0, -1).Format("2006-01-02"),
		"staff":      performance,
	})
}
