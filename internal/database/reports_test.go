package database

import (
	"testing"
	"time"

	"flowerbelle-pos/internal/models"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// The report queries read the package-level DB, so each test swaps in an
// in-memory database and restores it afterwards.
func useTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, Migrate(db))

	prev := DB
	DB = db
	t.Cleanup(func() { DB = prev })
	return db
}

func seedReportData(t *testing.T, db *gorm.DB) (models.User, models.Product, models.Product) {
	t.Helper()

	staff := models.User{Username: "staff1", PasswordHash: "x", FullName: "Staff One", Role: models.RoleStaff, IsActive: true}
	require.NoError(t, db.Create(&staff).Error)

	rose := models.Product{SKU: "ROSE-01", Name: "Rose Bouquet", Category: "Bouquets", UnitPrice: 150, CostPrice: 80, CurrentStock: 10, ReorderLevel: 2, IsActive: true}
	tulip := models.Product{SKU: "TULIP-01", Name: "Tulip Bunch", Category: "Bunches", UnitPrice: 90, CostPrice: 40, CurrentStock: 1, ReorderLevel: 2, IsActive: true}
	require.NoError(t, db.Create(&rose).Error)
	require.NoError(t, db.Create(&tulip).Error)

	now := time.Now()

	completed := models.SalesTransaction{
		TransactionNumber: "TXN-20260830-0001",
		Subtotal:          390,
		TotalAmount:       390,
		PaymentMethod:     models.PaymentCash,
		AmountPaid:        400,
		ChangeAmount:      10,
		Status:            models.StatusCompleted,
		CompletedAt:       &now,
		CreatedByID:       staff.ID,
		Items: []models.TransactionItem{
			{ProductID: rose.ID, Quantity: 2, UnitPrice: 150, LineTotal: 300},
			{ProductID: tulip.ID, Quantity: 1, UnitPrice: 90, LineTotal: 90},
		},
	}
	require.NoError(t, db.Create(&completed).Error)

	// Voided sales must never appear in any report number
	voidReason := "test void"
	voidedAt := now
	voided := models.SalesTransaction{
		TransactionNumber: "TXN-20260830-0002",
		Subtotal:          1000,
		TotalAmount:       1000,
		PaymentMethod:     models.PaymentCard,
		AmountPaid:        1000,
		Status:            models.StatusVoid,
		VoidedByID:        &staff.ID,
		VoidedAt:          &voidedAt,
		VoidReason:        voidReason,
		CreatedByID:       staff.ID,
		Items: []models.TransactionItem{
			{ProductID: rose.ID, Quantity: 5, UnitPrice: 200, LineTotal: 1000},
		},
	}
	require.NoError(t, db.Create(&voided).Error)

	return staff, rose, tulip
}

func reportWindow() (time.Time, time.Time) {
	now := time.Now()
	return now.Add(-time.Hour), now.Add(time.Hour)
}

func TestGetSalesSummaryExcludesVoided(t *testing.T) {
	db := useTestDB(t)
	seedReportData(t, db)
	start, end := reportWindow()

	summary, err := GetSalesSummary(start, end)
	require.NoError(t, err)
	require.Equal(t, 390.0, summary.TotalSales)
	require.EqualValues(t, 1, summary.TotalTransactions)
	require.EqualValues(t, 3, summary.TotalItemsSold)
	require.Equal(t, 390.0, summary.AverageTransaction)
	require.Equal(t, 390.0, summary.CashSales)
	require.Equal(t, 0.0, summary.CardSales)

	// Profit from live cost prices: (150-80)*2 + (90-40)*1 = 190
	require.Equal(t, 190.0, summary.TotalProfit)
}

func TestGetProfitTracksLiveCostPrice(t *testing.T) {
	db := useTestDB(t)
	_, rose, _ := seedReportData(t, db)
	start, end := reportWindow()

	profit, err := GetProfit(start, end)
	require.NoError(t, err)
	require.Equal(t, 190.0, profit)

	// Raising the cost price rewrites history: that's the trade-off of
	// recomputing from the catalog instead of snapshotting cost at sale time.
	require.NoError(t, db.Model(&models.Product{}).Where("id = ?", rose.ID).Update("cost_price", 100).Error)
	profit, err = GetProfit(start, end)
	require.NoError(t, err)
	require.Equal(t, 150.0, profit)
}

func TestGetTopProductsAndCategories(t *testing.T) {
	db := useTestDB(t)
	seedReportData(t, db)
	start, end := reportWindow()

	top, err := GetTopProducts(start, end, 10)
	require.NoError(t, err)
	require.Len(t, top, 2)
	require.Equal(t, "Rose Bouquet", top[0].Name)
	require.EqualValues(t, 2, top[0].TotalQuantity)
	require.Equal(t, 300.0, top[0].TotalSales)

	categories, err := GetCategoryBreakdown(start, end)
	require.NoError(t, err)
	require.Len(t, categories, 2)
	require.Equal(t, "Bouquets", categories[0].Category)
	require.Equal(t, 300.0, categories[0].TotalSales)
}

func TestGetStaffSales(t *testing.T) {
	db := useTestDB(t)
	staff, _, _ := seedReportData(t, db)
	start, end := reportWindow()

	rows, err := GetStaffSales(start, end)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, staff.ID, rows[0].StaffID)
	require.Equal(t, 390.0, rows[0].TotalSales)
	require.EqualValues(t, 1, rows[0].TransactionCount)
	require.EqualValues(t, 3, rows[0].ItemsSold)
}

func TestGetRevenueBreakdownAndCOGS(t *testing.T) {
	db := useTestDB(t)
	seedReportData(t, db)
	start, end := reportWindow()

	gross, discounts, net, err := GetRevenueBreakdown(start, end)
	require.NoError(t, err)
	require.Equal(t, 390.0, gross)
	require.Equal(t, 0.0, discounts)
	require.Equal(t, 390.0, net)

	cogs, err := GetCOGS(start, end)
	require.NoError(t, err)
	require.Equal(t, 200.0, cogs) // 80*2 + 40*1
}

func TestGetInventoryStats(t *testing.T) {
	db := useTestDB(t)
	seedReportData(t, db)

	stats, err := GetInventoryStats()
	require.NoError(t, err)
	require.EqualValues(t, 2, stats.TotalProducts)
	require.EqualValues(t, 1, stats.LowStockCount) // tulip at 1 <= reorder 2
	require.EqualValues(t, 0, stats.OutOfStockCount)
	require.Equal(t, 840.0, stats.InventoryValue) // 10*80 + 1*40
}

func TestGetUserSalesAndBestDay(t *testing.T) {
	db := useTestDB(t)
	staff, _, _ := seedReportData(t, db)
	start, end := reportWindow()

	total, count, items, err := GetUserSales(staff.ID, start, end)
	require.NoError(t, err)
	require.Equal(t, 390.0, total)
	require.EqualValues(t, 1, count)
	require.EqualValues(t, 3, items)

	best, err := GetUserBestDay(staff.ID, start, end)
	require.NoError(t, err)
	require.NotNil(t, best)
	require.Equal(t, 390.0, best.Total)

	// A window with no sales has no best day
	best, err = GetUserBestDay(staff.ID, start.AddDate(0, 0, -10), end.AddDate(0, 0, -10))
	require.NoError(t, err)
	require.Nil(t, best)
}

func TestGetFastAndSlowMovingProducts(t *testing.T) {
	db := useTestDB(t)
	seedReportData(t, db)
	start, end := reportWindow()

	// Never sold, so it must still appear among the slow movers
	fern := models.Product{SKU: "FERN-01", Name: "Potted Fern", Category: "Plants", UnitPrice: 60, CostPrice: 25, CurrentStock: 8, ReorderLevel: 2, IsActive: true}
	require.NoError(t, db.Create(&fern).Error)
	// Inactive products stay out of the slow-mover list entirely
	retired := models.Product{SKU: "OLD-01", Name: "Retired Wreath", Category: "Wreaths", UnitPrice: 120, CostPrice: 50, CurrentStock: 3, IsActive: false}
	require.NoError(t, db.Create(&retired).Error)

	fast, err := GetFastMovingProducts(start, end, 10)
	require.NoError(t, err)
	require.Len(t, fast, 2)
	require.Equal(t, "Rose Bouquet", fast[0].Name)
	require.EqualValues(t, 2, fast[0].TotalSold) // voided sale of 5 roses excluded

	slow, err := GetSlowMovingProducts(start, end, 5, 10)
	require.NoError(t, err)
	require.Len(t, slow, 3)
	names := make(map[string]int64, len(slow))
	for _, p := range slow {
		names[p.Name] = p.TotalSold
	}
	require.EqualValues(t, 0, names["Potted Fern"])
	require.EqualValues(t, 2, names["Rose Bouquet"])
	require.NotContains(t, names, "Retired Wreath")

	// Tighten the threshold: only the fern stays under it
	slow, err = GetSlowMovingProducts(start, end, 0, 10)
	require.NoError(t, err)
	require.Len(t, slow, 1)
	require.Equal(t, "Potted Fern", slow[0].Name)
}

func TestGetCategoryDistribution(t *testing.T) {
	db := useTestDB(t)
	seedReportData(t, db)

	rows, err := GetCategoryDistribution()
	require.NoError(t, err)
	require.Len(t, rows, 2)

	// Ordered by inventory value: roses 10*80=800 over tulips 1*40=40
	require.Equal(t, "Bouquets", rows[0].Category)
	require.EqualValues(t, 1, rows[0].ProductCount)
	require.EqualValues(t, 10, rows[0].TotalStock)
	require.Equal(t, 800.0, rows[0].TotalValue)
	require.Equal(t, "Bunches", rows[1].Category)
	require.Equal(t, 40.0, rows[1].TotalValue)
}

func TestGetMovementTotals(t *testing.T) {
	db := useTestDB(t)
	_, rose, tulip := seedReportData(t, db)
	start, end := reportWindow()

	movements := []models.InventoryMovement{
		{ProductID: rose.ID, MovementType: models.MovementStockIn, Quantity: 20, Reason: "delivery"},
		{ProductID: tulip.ID, MovementType: models.MovementStockIn, Quantity: 5, Reason: "delivery"},
		{ProductID: rose.ID, MovementType: models.MovementSale, Quantity: 2, ReferenceNumber: "TXN-20260830-0001"},
		{ProductID: tulip.ID, MovementType: models.MovementSale, Quantity: 1, ReferenceNumber: "TXN-20260830-0001"},
		{ProductID: rose.ID, MovementType: models.MovementAdjustment, Quantity: -3, Reason: "damaged"},
		{ProductID: tulip.ID, MovementType: models.MovementAdjustment, Quantity: 1, Reason: "recount"},
	}
	require.NoError(t, db.Create(&movements).Error)

	stockIn, stockOut, adjustments, err := GetMovementTotals(start, end)
	require.NoError(t, err)
	require.EqualValues(t, 25, stockIn)
	require.EqualValues(t, 3, stockOut)
	// Adjustments are counted, not summed: quantities can be negative
	require.EqualValues(t, 2, adjustments)
}

func TestUpsertDashboardMetricOneRowPerDay(t *testing.T) {
	db := useTestDB(t)
	day := time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC)

	summary := &SalesSummary{TotalSales: 390, TotalTransactions: 1, TotalItemsSold: 3, TotalProfit: 190}
	inventory := &InventoryStats{LowStockCount: 1, InventoryValue: 840}
	require.NoError(t, UpsertDashboardMetric(day, summary, inventory))

	// Second write for the same day overwrites instead of duplicating
	summary.TotalSales = 540
	summary.TotalTransactions = 2
	require.NoError(t, UpsertDashboardMetric(day, summary, inventory))

	var metrics []models.DashboardMetric
	require.NoError(t, db.Find(&metrics).Error)
	require.Len(t, metrics, 1)
	require.Equal(t, "2026-08-30", metrics[0].Date)
	require.Equal(t, 540.0, metrics[0].TotalSales)
	require.EqualValues(t, 2, metrics[0].TotalTransactions)
	require.Equal(t, 840.0, metrics[0].InventoryValue)
}

func TestGetDashboardHistoryWindow(t *testing.T) {
	db := useTestDB(t)
	now := time.Now()

	for _, daysAgo := range []int{0, 5, 45} {
		day := now.AddDate(0, 0, -daysAgo)
		require.NoError(t, db.Create(&models.DashboardMetric{
			Date:       day.Format("2006-01-02"),
			TotalSales: float64(daysAgo),
		}).Error)
	}

	metrics, err := GetDashboardHistory(30)
	require.NoError(t, err)
	require.Len(t, metrics, 2)
	// Ascending by date: the older snapshot comes first
	require.Equal(t, 5.0, metrics[0].TotalSales)
	require.Equal(t, 0.0, metrics[1].TotalSales)

	metrics, err = GetDashboardHistory(60)
	require.NoError(t, err)
	require.Len(t, metrics, 3)
}
