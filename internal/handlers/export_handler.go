package handlers

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"flowerbelle-pos/internal/config"
	"flowerbelle-pos/internal/database"
	"flowerbelle-pos/internal/models"
	"flowerbelle-pos/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"
)

type CreateExportRequest struct {
	ReportType string `json:"report_type" binding:"required"` // SALES, PROFIT_LOSS, STAFF, VALUATION
	StartDate  string `json:"start_date"`
	EndDate    string `json:"end_date"`
}

// --- POST: /api/exports ---
// Generates an .xlsx report file on disk and records it. The file is written
// synchronously; these spreadsheets are small enough that a job queue would
// be overkill.
func CreateExport(c *gin.Context) {
	var input CreateExportRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}

	switch input.ReportType {
	case "SALES", "PROFIT_LOSS", "STAFF", "VALUATION":
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Report type must be SALES, PROFIT_LOSS, STAFF or VALUATION", "code": "VALIDATION"})
		return
	}

	start, end, err := parseDateRange(c, 30)
	if input.StartDate != "" {
		if start, err = time.Parse("2006-01-02", input.StartDate); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Dates must be YYYY-MM-DD", "code": "VALIDATION"})
			return
		}
	}
	if input.EndDate != "" {
		parsedEnd, perr := time.Parse("2006-01-02", input.EndDate)
		if perr != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Dates must be YYYY-MM-DD", "code": "VALIDATION"})
			return
		}
		end = parsedEnd.AddDate(0, 0, 1) // inclusive end date
	}
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Dates must be YYYY-MM-DD", "code": "VALIDATION"})
		return
	}

	cfg := config.Load()
	if err := os.MkdirAll(cfg.ExportDir, 0o755); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to prepare export directory"})
		return
	}

	export := models.ReportExport{
		ReportType:   input.ReportType,
		ExportFormat: "xlsx",
		StartDate:    start.Format("2006-01-02"),
		EndDate:      end.AddDate(0, 0, -1).Format("2006-01-02"),
		Status:       "PENDING",
		CreatedByID:  currentUserID(c),
	}
	if err := database.DB.Create(&export).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to record export"})
		return
	}

	filename := fmt.Sprintf("%s_%s_%d.xlsx", input.ReportType, time.Now().Format("20060102_150405"), export.ID)
	fullPath := filepath.Join(cfg.ExportDir, filename)

	if err := writeReportFile(fullPath, input.ReportType, start, end); err != nil {
		database.DB.Model(&export).Update("status", "FAILED")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate report file"})
		return
	}

	now := time.Now()
	database.DB.Model(&export).Updates(map[string]interface{}{
		"status":       "COMPLETED",
		"file_path":    fullPath,
		"completed_at": &now,
	})
	export.Status = "COMPLETED"
	export.FilePath = fullPath
	export.CompletedAt = &now

	services.CreateAuditLog(database.DB, currentUserID(c), "CREATE", "report_exports", export.ID,
		fmt.Sprintf("Exported %s report", input.ReportType), c.ClientIP())

	c.JSON(http.StatusCreated, export)
}

// --- GET: /api/exports ---
func ListExports(c *gin.Context) {
	var exports []models.ReportExport
	err := database.DB.Where("created_by_id = ?", currentUserID(c)).
		Order("created_at desc").
		Limit(50).
		Find(&exports).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch exports"})
		return
	}
	c.JSON(http.StatusOK, exports)
}

func writeReportFile(path, reportType string, start, end time.Time) error {
	f := excelize.NewFile()
	defer f.Close()

	switch reportType {
	case "SALES":
		if err := writeSalesSheet(f, start, end); err != nil {
			return err
		}
	case "PROFIT_LOSS":
		if err := writeProfitLossSheet(f, start, end); err != nil {
			return err
		}
	case "STAFF":
		if err := writeStaffSheet(f, start, end); err != nil {
			return err
		}
	case "VALUATION":
		if err := writeValuationSheet(f); err != nil {
			return err
		}
	}

	return f.SaveAs(path)
}

// setRow writes one row of cells starting at column A
func setRow(f *excelize.File, sheet string, row int, values ...interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, cell, &values)
}

func writeSalesSheet(f *excelize.File, start, end time.Time) error {
	const sheet = "Sheet1"
	f.SetSheetName(sheet, "Sales")

	summary, err := database.GetSalesSummary(start, end)
	if err != nil {
		return err
	}

	setRow(f, "Sales", 1, "Sales Report", start.Format("2006-01-02"), end.AddDate(0, 0, -1).Format("2006-01-02"))
	setRow(f, "Sales", 3, "Total Sales", summary.TotalSales)
	setRow(f, "Sales", 4, "Transactions", summary.TotalTransactions)
	setRow(f, "Sales", 5, "Items Sold", summary.TotalItemsSold)
	setRow(f, "Sales", 6, "Profit", summary.TotalProfit)
	setRow(f, "Sales", 7, "Average Transaction", summary.AverageTransaction)

	setRow(f, "Sales", 9, "Product", "SKU", "Quantity", "Sales")
	topProducts, err := database.GetTopProducts(start, end, 50)
	if err != nil {
		return err
	}
	row := 10
	for _, p := range topProducts {
		setRow(f, "Sales", row, p.Name, p.SKU, p.TotalQuantity, p.TotalSales)
		row++
	}

	row += 2
	setRow(f, "Sales", row, "Day", "Total", "Transactions")
	daily, err := database.GetDailyBreakdown(start, end)
	if err != nil {
		return err
	}
	for _, d := range daily {
		row++
		setRow(f, "Sales", row, d.Day, d.Total, d.Count)
	}
	return nil
}

func writeProfitLossSheet(f *excelize.File, start, end time.Time) error {
	const sheet = "Sheet1"
	f.SetSheetName(sheet, "Profit and Loss")

	gross, discounts, net, err := database.GetRevenueBreakdown(start, end)
	if err != nil {
		return err
	}
	cogs, err := database.GetCOGS(start, end)
	if err != nil {
		return err
	}

	setRow(f, "Profit and Loss", 1, "Profit and Loss", start.Format("2006-01-02"), end.AddDate(0, 0, -1).Format("2006-01-02"))
	setRow(f, "Profit and Loss", 3, "Gross Sales", gross)
	setRow(f, "Profit and Loss", 4, "Discounts", discounts)
	setRow(f, "Profit and Loss", 5, "Net Sales", net)
	setRow(f, "Profit and Loss", 6, "Cost of Goods Sold", cogs)
	setRow(f, "Profit and Loss", 7, "Gross Profit", net-cogs)

	setRow(f, "Profit and Loss", 9, "Category", "Revenue", "Cost", "Profit")
	byCategory, err := database.GetProfitByCategory(start, end)
	if err != nil {
		return err
	}
	row := 10
	for _, cat := range byCategory {
		setRow(f, "Profit and Loss", row, cat.Category, cat.Revenue, cat.Cost, cat.Profit)
		row++
	}
	return nil
}

func writeStaffSheet(f *excelize.File, start, end time.Time) error {
	const sheet = "Sheet1"
	f.SetSheetName(sheet, "Staff")

	rows, err := database.GetStaffSales(start, end)
	if err != nil {
		return err
	}

	setRow(f, "Staff", 1, "Staff Sales", start.Format("2006-01-02"), end.AddDate(0, 0, -1).Format("2006-01-02"))
	setRow(f, "Staff", 3, "Name", "Total Sales", "Transactions", "Items Sold")
	row := 4
	for _, s := range rows {
		setRow(f, "Staff", row, s.StaffName, s.TotalSales, s.TransactionCount, s.ItemsSold)
		row++
	}
	return nil
}

func writeValuationSheet(f *excelize.File) error {
	const sheet = "Sheet1"
	f.SetSheetName(sheet, "Valuation")

	var products []models.Product
	if err := database.DB.Where("is_active = ?", true).Order("category, name").Find(&products).Error; err != nil {
		return err
	}

	setRow(f, "Valuation", 1, "Stock Valuation", time.Now().Format("2006-01-02"))
	setRow(f, "Valuation", 3, "Category", "Product", "SKU", "Quantity", "Cost Price", "Total Cost")
	row := 4
	var grandTotal float64
	for _, p := range products {
		total := float64(p.CurrentStock) * p.CostPrice
		setRow(f, "Valuation", row, p.Category, p.Name, p.SKU, p.CurrentStock, p.CostPrice, total)
		grandTotal += total
		row++
	}
	setRow(f, "Valuation", row+1, "Grand Total", "", "", "", "", grandTotal)
	return nil
}
