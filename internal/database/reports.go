package database

import (
	"time"

	"flowerbelle-pos/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Aggregations over COMPLETED transactions. Every function here is read-only
// and deterministic for a given window. Profit is always recomputed from the
// live cost_price, matching how the store has always read these numbers.

// completedTxns scopes a query to completed transactions in [start, end)
func completedTxns(start, end time.Time) *gorm.DB {
	return DB.Model(&models.SalesTransaction{}).
		Where("status = ? AND created_at >= ? AND created_at < ?", models.StatusCompleted, start, end)
}

// completedItems scopes transaction_items to completed transactions in [start, end)
func completedItems(start, end time.Time) *gorm.DB {
	return DB.Table("transaction_items").
		Joins("JOIN sales_transactions ON sales_transactions.id = transaction_items.transaction_id").
		Where("sales_transactions.status = ? AND sales_transactions.created_at >= ? AND sales_transactions.created_at < ?",
			models.StatusCompleted, start, end)
}

// SalesSummary is the core of the sales report
type SalesSummary struct {
	TotalSales         float64 `json:"total_sales"`
	TotalTransactions  int64   `json:"total_transactions"`
	TotalItemsSold     int64   `json:"total_items_sold"`
	TotalProfit        float64 `json:"total_profit"`
	AverageTransaction float64 `json:"average_transaction"`
	CashSales          float64 `json:"cash_sales"`
	CardSales          float64 `json:"card_sales"`
	DigitalSales       float64 `json:"digital_sales"`
}

func GetSalesSummary(start, end time.Time) (*SalesSummary, error) {
	var s SalesSummary

	// COALESCE ensures we get 0 instead of NULL if no sales exist
	if err := completedTxns(start, end).
		Select("COALESCE(SUM(total_amount), 0)").Scan(&s.TotalSales).Error; err != nil {
		return nil, err
	}
	if err := completedTxns(start, end).Count(&s.TotalTransactions).Error; err != nil {
		return nil, err
	}
	if err := completedItems(start, end).
		Select("COALESCE(SUM(transaction_items.quantity), 0)").Scan(&s.TotalItemsSold).Error; err != nil {
		return nil, err
	}

	profit, err := GetProfit(start, end)
	if err != nil {
		return nil, err
	}
	s.TotalProfit = profit

	if s.TotalTransactions > 0 {
		s.AverageTransaction = s.TotalSales / float64(s.TotalTransactions)
	}

	if err := completedTxns(start, end).Where("payment_method = ?", models.PaymentCash).
		Select("COALESCE(SUM(total_amount), 0)").Scan(&s.CashSales).Error; err != nil {
		return nil, err
	}
	if err := completedTxns(start, end).Where("payment_method = ?", models.PaymentCard).
		Select("COALESCE(SUM(total_amount), 0)").Scan(&s.CardSales).Error; err != nil {
		return nil, err
	}
	if err := completedTxns(start, end).
		Where("payment_method IN ?", []string{models.PaymentGCash, models.PaymentPayMaya, models.PaymentBankTransfer}).
		Select("COALESCE(SUM(total_amount), 0)").Scan(&s.DigitalSales).Error; err != nil {
		return nil, err
	}

	return &s, nil
}

// GetProfit recomputes profit as SUM((unit_price - cost_price) * quantity)
// over sold items. Changing a product's cost price changes history too.
func GetProfit(start, end time.Time) (float64, error) {
	var profit float64
	err := completedItems(start, end).
		Joins("JOIN products ON products.id = transaction_items.product_id").
		Select("COALESCE(SUM((transaction_items.unit_price - products.cost_price) * transaction_items.quantity), 0)").
		Scan(&profit).Error
	return profit, err
}

// GetCOGS is the cost-of-goods-sold side of the P&L
func GetCOGS(start, end time.Time) (float64, error) {
	var cogs float64
	err := completedItems(start, end).
		Joins("JOIN products ON products.id = transaction_items.product_id").
		Select("COALESCE(SUM(products.cost_price * transaction_items.quantity), 0)").
		Scan(&cogs).Error
	return cogs, err
}

// GrossSales / Discounts / NetSales for the P&L report
func GetRevenueBreakdown(start, end time.Time) (gross, discounts, net float64, err error) {
	if err = completedTxns(start, end).Select("COALESCE(SUM(subtotal), 0)").Scan(&gross).Error; err != nil {
		return
	}
	if err = completedTxns(start, end).Select("COALESCE(SUM(discount), 0)").Scan(&discounts).Error; err != nil {
		return
	}
	err = completedTxns(start, end).Select("COALESCE(SUM(total_amount), 0)").Scan(&net).Error
	return
}

// ProductSales is one row of a top-products table
type ProductSales struct {
	ProductID     uint    `json:"product_id"`
	Name          string  `json:"name"`
	SKU           string  `json:"sku"`
	TotalQuantity int64   `json:"total_quantity"`
	TotalSales    float64 `json:"total_sales"`
}

func GetTopProducts(start, end time.Time, limit int) ([]ProductSales, error) {
	var rows []ProductSales
	err := completedItems(start, end).
		Joins("JOIN products ON products.id = transaction_items.product_id").
		Select("products.id as product_id, products.name as name, products.sku as sku, " +
			"SUM(transaction_items.quantity) as total_quantity, SUM(transaction_items.line_total) as total_sales").
		Group("products.id, products.name, products.sku").
		Order("total_quantity desc").
		Limit(limit).
		Scan(&rows).Error
	return rows, err
}

// DailySales is one day of the breakdown/trend tables
type DailySales struct {
	Day   string  `json:"day"`
	Total float64 `json:"total"`
	Count int64   `json:"count"`
}

func GetDailyBreakdown(start, end time.Time) ([]DailySales, error) {
	var rows []DailySales
	err := completedTxns(start, end).
		Select("DATE(created_at) as day, SUM(total_amount) as total, COUNT(*) as count").
		Group("DATE(created_at)").
		Order("day").
		Scan(&rows).Error
	return rows, err
}

// HourlySales shows when the shop is busy. HOUR() is MySQL syntax.
type HourlySales struct {
	Hour  int     `json:"hour"`
	Total float64 `json:"total"`
	Count int64   `json:"count"`
}

func GetHourlyBreakdown(start, end time.Time) ([]HourlySales, error) {
	var rows []HourlySales
	err := completedTxns(start, end).
		Select("HOUR(created_at) as hour, SUM(total_amount) as total, COUNT(*) as count").
		Group("HOUR(created_at)").
		Order("hour").
		Scan(&rows).Error
	return rows, err
}

// PaymentMethodSales is one slice of the payment breakdown
type PaymentMethodSales struct {
	PaymentMethod string  `json:"payment_method"`
	Total         float64 `json:"total"`
	Count         int64   `json:"count"`
}

func GetPaymentBreakdown(start, end time.Time) ([]PaymentMethodSales, error) {
	var rows []PaymentMethodSales
	err := completedTxns(start, end).
		Select("payment_method, SUM(total_amount) as total, COUNT(*) as count").
		Group("payment_method").
		Order("total desc").
		Scan(&rows).Error
	return rows, err
}

// CategorySales is one slice of the category breakdown
type CategorySales struct {
	Category      string  `json:"category"`
	TotalSales    float64 `json:"total_sales"`
	TotalQuantity int64   `json:"total_quantity"`
}

func GetCategoryBreakdown(start, end time.Time) ([]CategorySales, error) {
	var rows []CategorySales
	err := completedItems(start, end).
		Joins("JOIN products ON products.id = transaction_items.product_id").
		Select("products.category as category, SUM(transaction_items.line_total) as total_sales, " +
			"SUM(transaction_items.quantity) as total_quantity").
		Group("products.category").
		Order("total_sales desc").
		Scan(&rows).Error
	return rows, err
}

// CategoryProfit is one row of the P&L category table
type CategoryProfit struct {
	Category string  `json:"category"`
	Revenue  float64 `json:"revenue"`
	Cost     float64 `json:"cost"`
	Profit   float64 `json:"profit"`
}

func GetProfitByCategory(start, end time.Time) ([]CategoryProfit, error) {
	var rows []CategoryProfit
	err := completedItems(start, end).
		Joins("JOIN products ON products.id = transaction_items.product_id").
		Select("products.category as category, SUM(transaction_items.line_total) as revenue, " +
			"SUM(products.cost_price * transaction_items.quantity) as cost, " +
			"SUM(transaction_items.line_total - products.cost_price * transaction_items.quantity) as profit").
		Group("products.category").
		Order("profit desc").
		Scan(&rows).Error
	return rows, err
}

// ProductProfit is one row of the P&L product table
type ProductProfit struct {
	ProductID uint    `json:"product_id"`
	Name      string  `json:"name"`
	Revenue   float64 `json:"revenue"`
	Cost      float64 `json:"cost"`
	Profit    float64 `json:"profit"`
	Quantity  int64   `json:"quantity"`
}

func GetProfitByProduct(start, end time.Time, limit int) ([]ProductProfit, error) {
	var rows []ProductProfit
	err := completedItems(start, end).
		Joins("JOIN products ON products.id = transaction_items.product_id").
		Select("products.id as product_id, products.name as name, SUM(transaction_items.line_total) as revenue, " +
			"SUM(products.cost_price * transaction_items.quantity) as cost, " +
			"SUM(transaction_items.line_total - products.cost_price * transaction_items.quantity) as profit, " +
			"SUM(transaction_items.quantity) as quantity").
		Group("products.id, products.name").
		Order("profit desc").
		Limit(limit).
		Scan(&rows).Error
	return rows, err
}

// StaffSales is one row of the per-staff sales table
type StaffSales struct {
	StaffID          uint    `json:"staff_id"`
	StaffName        string  `json:"staff_name"`
	TotalSales       float64 `json:"total_sales"`
	TransactionCount int64   `json:"transaction_count"`
	ItemsSold        int64   `json:"items_sold"`
}

func GetStaffSales(start, end time.Time) ([]StaffSales, error) {
	var rows []StaffSales
	err := completedTxns(start, end).
		Joins("JOIN users ON users.id = sales_transactions.created_by_id").
		Select("users.id as staff_id, users.full_name as staff_name, " +
			"SUM(sales_transactions.total_amount) as total_sales, COUNT(*) as transaction_count").
		Group("users.id, users.full_name").
		Order("total_sales desc").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	// Items sold needs its own query: joining transaction_items into the sum
	// above would multiply total_amount per item row.
	type staffItems struct {
		StaffID uint
		Items   int64
	}
	var items []staffItems
	err = completedItems(start, end).
		Select("sales_transactions.created_by_id as staff_id, SUM(transaction_items.quantity) as items").
		Group("sales_transactions.created_by_id").
		Scan(&items).Error
	if err != nil {
		return nil, err
	}

	byStaff := make(map[uint]int64, len(items))
	for _, row := range items {
		byStaff[row.StaffID] = row.Items
	}
	for i := range rows {
		rows[i].ItemsSold = byStaff[rows[i].StaffID]
	}
	return rows, nil
}

// GetUserSales returns one staff member's totals for the window
func GetUserSales(userID uint, start, end time.Time) (total float64, count, items int64, err error) {
	if err = completedTxns(start, end).Where("created_by_id = ?", userID).
		Select("COALESCE(SUM(total_amount), 0)").Scan(&total).Error; err != nil {
		return
	}
	if err = completedTxns(start, end).Where("created_by_id = ?", userID).Count(&count).Error; err != nil {
		return
	}
	err = completedItems(start, end).Where("sales_transactions.created_by_id = ?", userID).
		Select("COALESCE(SUM(transaction_items.quantity), 0)").Scan(&items).Error
	return
}

// GetUserBestDay returns a staff member's strongest selling day in the window
func GetUserBestDay(userID uint, start, end time.Time) (*DailySales, error) {
	var row DailySales
	err := completedTxns(start, end).Where("created_by_id = ?", userID).
		Select("DATE(created_at) as day, SUM(total_amount) as total, COUNT(*) as count").
		Group("DATE(created_at)").
		Order("total desc").
		Limit(1).
		Scan(&row).Error
	if err != nil {
		return nil, err
	}
	if row.Day == "" {
		return nil, nil
	}
	return &row, nil
}

// InventoryStats feeds the dashboard's stock tiles
type InventoryStats struct {
	TotalProducts   int64   `json:"total_products"`
	LowStockCount   int64   `json:"low_stock_count"`
	OutOfStockCount int64   `json:"out_of_stock_count"`
	InventoryValue  float64 `json:"inventory_value"`
}

func GetInventoryStats() (*InventoryStats, error) {
	var s InventoryStats
	active := func() *gorm.DB {
		return DB.Model(&models.Product{}).Where("is_active = ?", true)
	}

	if err := active().Count(&s.TotalProducts).Error; err != nil {
		return nil, err
	}
	if err := active().Where("current_stock <= reorder_level").Count(&s.LowStockCount).Error; err != nil {
		return nil, err
	}
	if err := active().Where("current_stock = 0").Count(&s.OutOfStockCount).Error; err != nil {
		return nil, err
	}
	if err := active().
		Select("COALESCE(SUM(current_stock * cost_price), 0)").Scan(&s.InventoryValue).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

// ProductMovement is one row of the fast/slow mover tables
type ProductMovement struct {
	ProductID    uint   `json:"product_id"`
	Name         string `json:"name"`
	CurrentStock int    `json:"current_stock"`
	TotalSold    int64  `json:"total_sold"`
}

// GetFastMovingProducts returns the products sold most in the window
func GetFastMovingProducts(start, end time.Time, limit int) ([]ProductMovement, error) {
	var rows []ProductMovement
	err := completedItems(start, end).
		Joins("JOIN products ON products.id = transaction_items.product_id").
		Select("products.id as product_id, products.name as name, products.current_stock as current_stock, " +
			"SUM(transaction_items.quantity) as total_sold").
		Group("products.id, products.name, products.current_stock").
		Order("total_sold desc").
		Limit(limit).
		Scan(&rows).Error
	return rows, err
}

// GetSlowMovingProducts returns active products that sold at most threshold
// units in the window, including products with no sales at all. The window
// filter sits in the join so unsold products survive the LEFT JOIN.
func GetSlowMovingProducts(start, end time.Time, threshold int64, limit int) ([]ProductMovement, error) {
	var rows []ProductMovement
	err := DB.Table("products").
		Joins("LEFT JOIN transaction_items ON transaction_items.product_id = products.id").
		Joins("LEFT JOIN sales_transactions ON sales_transactions.id = transaction_items.transaction_id "+
			"AND sales_transactions.status = ? AND sales_transactions.created_at >= ? AND sales_transactions.created_at < ?",
			models.StatusCompleted, start, end).
		Where("products.is_active = ?", true).
		Select("products.id as product_id, products.name as name, products.current_stock as current_stock, " +
			"COALESCE(SUM(CASE WHEN sales_transactions.id IS NOT NULL THEN transaction_items.quantity ELSE 0 END), 0) as total_sold").
		Group("products.id, products.name, products.current_stock").
		Having("COALESCE(SUM(CASE WHEN sales_transactions.id IS NOT NULL THEN transaction_items.quantity ELSE 0 END), 0) <= ?", threshold).
		Order("total_sold").
		Limit(limit).
		Scan(&rows).Error
	return rows, err
}

// CategoryStock is one category's slice of the inventory distribution
type CategoryStock struct {
	Category     string  `json:"category"`
	ProductCount int64   `json:"product_count"`
	TotalStock   int64   `json:"total_stock"`
	TotalValue   float64 `json:"total_value"`
}

func GetCategoryDistribution() ([]CategoryStock, error) {
	var rows []CategoryStock
	err := DB.Model(&models.Product{}).
		Where("is_active = ?", true).
		Select("category, COUNT(*) as product_count, SUM(current_stock) as total_stock, " +
			"SUM(current_stock * cost_price) as total_value").
		Group("category").
		Order("total_value desc").
		Scan(&rows).Error
	return rows, err
}

// GetMovementTotals sums the stock ledger for the window: units received,
// units sold out, and how many manual adjustments were made.
func GetMovementTotals(start, end time.Time) (stockIn, stockOut, adjustments int64, err error) {
	movements := func(movementType string) *gorm.DB {
		return DB.Model(&models.InventoryMovement{}).
			Where("movement_type = ? AND created_at >= ? AND created_at < ?", movementType, start, end)
	}

	if err = movements(models.MovementStockIn).
		Select("COALESCE(SUM(quantity), 0)").Scan(&stockIn).Error; err != nil {
		return
	}
	if err = movements(models.MovementSale).
		Select("COALESCE(SUM(quantity), 0)").Scan(&stockOut).Error; err != nil {
		return
	}
	err = movements(models.MovementAdjustment).Count(&adjustments).Error
	return
}

// UpsertDashboardMetric persists one day's snapshot, overwriting any earlier
// snapshot for the same date.
func UpsertDashboardMetric(day time.Time, summary *SalesSummary, inventory *InventoryStats) error {
	metric := models.DashboardMetric{
		Date:              day.Format("2006-01-02"),
		TotalSales:        summary.TotalSales,
		TotalTransactions: summary.TotalTransactions,
		TotalItemsSold:    summary.TotalItemsSold,
		TotalProfit:       summary.TotalProfit,
		LowStockCount:     inventory.LowStockCount,
		OutOfStockCount:   inventory.OutOfStockCount,
		InventoryValue:    inventory.InventoryValue,
	}
	return DB.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "date"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"total_sales", "total_transactions", "total_items_sold", "total_profit",
			"low_stock_count", "out_of_stock_count", "inventory_value", "updated_at",
		}),
	}).Create(&metric).Error
}

// GetDashboardHistory returns the last N days of persisted snapshots
func GetDashboardHistory(days int) ([]models.DashboardMetric, error) {
	cutoff := time.Now().AddDate(0, 0, -days).Format("2006-01-02")
	var metrics []models.DashboardMetric
	err := DB.Where("date >= ?", cutoff).Order("date").Find(&metrics).Error
	return metrics, err
}

// GetRecentTransactions returns the latest completed sales, newest first
func GetRecentTransactions(limit int) ([]models.SalesTransaction, error) {
	var txns []models.SalesTransaction
	err := DB.Preload("CreatedBy").
		Where("status = ?", models.StatusCompleted).
		Order("created_at desc").
		Limit(limit).
		Find(&txns).Error
	return txns, err
}
