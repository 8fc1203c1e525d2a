package models

import (
	"time"
)

// User roles. OWNER has full access, STAFF is read-mostly.
const (
	RoleOwner = "OWNER"
	RoleStaff = "STAFF"
)

// Transaction lifecycle: PENDING -> COMPLETED -> VOID. VOID is terminal.
const (
	StatusPending   = "PENDING"
	StatusCompleted = "COMPLETED"
	StatusVoid      = "VOID"
	StatusRefunded  = "REFUNDED"
)

// Accepted payment methods
const (
	PaymentCash         = "CASH"
	PaymentCard         = "CARD"
	PaymentGCash        = "GCASH"
	PaymentPayMaya      = "PAYMAYA"
	PaymentBankTransfer = "BANK_TRANSFER"
)

// Inventory movement types
const (
	MovementStockIn    = "STOCK_IN"
	MovementSale       = "SALE"
	MovementReturn     = "RETURN"
	MovementAdjustment = "ADJUSTMENT"
)

// IsValidPaymentMethod guards checkout input
func IsValidPaymentMethod(m string) bool {
	switch m {
	case PaymentCash, PaymentCard, PaymentGCash, PaymentPayMaya, PaymentBankTransfer:
		return true
	}
	return false
}

// User - The person operating the register
type User struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	Username     string     `gorm:"uniqueIndex;size:50" json:"username"`
	PasswordHash string     `json:"-"` // Never return this in JSON
	FullName     string     `gorm:"size:200" json:"full_name"`
	Role         string     `gorm:"size:20" json:"role"` // OWNER or STAFF
	Phone        string     `gorm:"size:20" json:"phone"`
	IsActive     bool       `gorm:"default:true" json:"is_active"` // soft-deactivated, never deleted
	LastLogin    *time.Time `json:"last_login"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// Product - The Inventory
type Product struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	SKU          string    `gorm:"uniqueIndex;size:50" json:"sku"`
	Name         string    `gorm:"size:200" json:"name"`
	Category     string    `gorm:"size:100;index" json:"category"`
	UnitPrice    float64   `json:"unit_price"`
	CostPrice    float64   `json:"cost_price"`
	CurrentStock int       `json:"current_stock"`
	ReorderLevel int       `json:"reorder_level"` // flagged low-stock at or below this
	ImageURL     string    `json:"image_url"`
	IsActive     bool      `gorm:"default:true" json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Cart - Per-user staging area before checkout.
// At most one is_active=true cart exists per user at a time.
type Cart struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	UserID    uint       `gorm:"index" json:"user_id"`
	SessionID string     `gorm:"uniqueIndex;size:100" json:"session_id"`
	IsActive  bool       `gorm:"default:true;index" json:"is_active"`
	Items     []CartItem `gorm:"foreignKey:CartID" json:"items"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// Subtotal sums the line totals of the loaded items
func (c *Cart) Subtotal() float64 {
	var total float64
	for _, item := range c.Items {
		total += item.LineTotal()
	}
	return total
}

// ItemCount sums quantities of the loaded items
func (c *Cart) ItemCount() int {
	var count int
	for _, item := range c.Items {
		count += item.Quantity
	}
	return count
}

// CartItem - One product line in a cart. Unique per (cart, product).
type CartItem struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CartID    uint      `gorm:"uniqueIndex:idx_cart_product" json:"cart_id"`
	ProductID uint      `gorm:"uniqueIndex:idx_cart_product" json:"product_id"`
	Product   Product   `json:"product"`
	Quantity  int       `json:"quantity"`
	UnitPrice float64   `json:"unit_price"` // snapshot of catalog price at add time
	CreatedAt time.Time `json:"added_at"`
}

func (ci *CartItem) LineTotal() float64 {
	return ci.UnitPrice * float64(ci.Quantity)
}

// SalesTransaction - The ledger entry. Immutable once status leaves PENDING,
// except for the one-way transition to VOID.
type SalesTransaction struct {
	ID                uint              `gorm:"primaryKey" json:"id"`
	TransactionNumber string            `gorm:"uniqueIndex;size:50" json:"transaction_number"` // TXN-YYYYMMDD-NNNN
	Subtotal          float64           `json:"subtotal"`
	Tax               float64           `json:"tax"`
	Discount          float64           `json:"discount"`
	TotalAmount       float64           `json:"total_amount"` // subtotal + tax - discount
	PaymentMethod     string            `gorm:"size:20" json:"payment_method"`
	PaymentReference  string            `gorm:"size:100" json:"payment_reference"`
	AmountPaid        float64           `json:"amount_paid"`
	ChangeAmount      float64           `json:"change_amount"` // amount_paid - total
	Status            string            `gorm:"size:20;index" json:"status"`
	Notes             string            `json:"notes"`
	CustomerName      string            `gorm:"size:200" json:"customer_name"`
	CustomerPhone     string            `gorm:"size:20" json:"customer_phone"`
	CustomerEmail     string            `gorm:"size:200" json:"customer_email"`
	CreatedByID       uint              `gorm:"index" json:"created_by"`
	CreatedBy         User              `json:"created_by_user"`
	Items             []TransactionItem `gorm:"foreignKey:TransactionID" json:"items"`
	CreatedAt         time.Time         `gorm:"index" json:"created_at"`
	UpdatedAt         time.Time         `json:"updated_at"`
	CompletedAt       *time.Time        `json:"completed_at"`
	VoidedByID        *uint             `json:"voided_by"`
	VoidedAt          *time.Time        `json:"voided_at"`
	VoidReason        string            `json:"void_reason"`
}

// ItemCount sums quantities of the loaded items
func (t *SalesTransaction) ItemCount() int {
	var count int
	for _, item := range t.Items {
		count += item.Quantity
	}
	return count
}

// TransactionItem - One sold product line
type TransactionItem struct {
	ID            uint    `gorm:"primaryKey" json:"id"`
	TransactionID uint    `gorm:"index" json:"transaction_id"`
	ProductID     uint    `json:"product_id"`
	Product       Product `json:"product"`
	Quantity      int     `json:"quantity"`
	UnitPrice     float64 `json:"unit_price"`
	Discount      float64 `json:"discount"`
	LineTotal     float64 `json:"line_total"` // unit_price*quantity - discount
	Notes         string  `json:"notes"`
}

// PaymentTransaction - Sub-ledger row per payment attempt
type PaymentTransaction struct {
	ID                uint       `gorm:"primaryKey" json:"id"`
	TransactionID     uint       `gorm:"index" json:"transaction_id"`
	PaymentMethod     string     `gorm:"size:20" json:"payment_method"`
	Amount            float64    `json:"amount"`
	ReferenceNumber   string     `gorm:"size:100" json:"reference_number"`
	AuthorizationCode string     `gorm:"size:100" json:"authorization_code"`
	Status            string     `gorm:"size:20" json:"status"` // PENDING, APPROVED, DECLINED, REFUNDED
	CardLastFour      string     `gorm:"size:4" json:"card_last_four"`
	CreatedAt         time.Time  `json:"created_at"`
	ProcessedAt       *time.Time `json:"processed_at"`
}

// InventoryMovement - Append-only stock ledger. SALE and RETURN rows carry the
// transaction number (or VOID-<number>) as reference.
type InventoryMovement struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	ProductID       uint      `gorm:"index" json:"product_id"`
	MovementType    string    `gorm:"size:20;index" json:"movement_type"`
	Quantity        int       `json:"quantity"`
	ReferenceNumber string    `gorm:"size:100" json:"reference_number"`
	Reason          string    `json:"reason"`
	CreatedByID     uint      `json:"created_by"`
	CreatedAt       time.Time `gorm:"index" json:"created_at"`
}

// AuditLog - Who did what, when
type AuditLog struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	UserID      uint      `gorm:"index" json:"user_id"`
	Action      string    `gorm:"size:20" json:"action"` // LOGIN, LOGOUT, CREATE, UPDATE, DELETE, VOID
	TableName   string    `gorm:"size:50" json:"table_name"`
	RecordID    uint      `json:"record_id"`
	Description string    `json:"description"`
	IPAddress   string    `gorm:"size:45" json:"ip_address"`
	CreatedAt   time.Time `json:"created_at"`
}

// DailySequence - Per-day transaction number counter. The row is locked
// FOR UPDATE inside the creating transaction so numbers stay unique and
// monotonic under concurrent checkouts.
type DailySequence struct {
	DateKey string `gorm:"primaryKey;size:8" json:"date_key"` // YYYYMMDD
	LastSeq int    `json:"last_seq"`
}

// DashboardMetric - One day's persisted dashboard snapshot. The Redis cache
// serves the live overview; these rows keep the trend history across cache
// expiry and restarts.
type DashboardMetric struct {
	ID                uint      `gorm:"primaryKey" json:"id"`
	Date              string    `gorm:"uniqueIndex;size:10" json:"date"` // YYYY-MM-DD
	TotalSales        float64   `json:"total_sales"`
	TotalTransactions int64     `json:"total_transactions"`
	TotalItemsSold    int64     `json:"total_items_sold"`
	TotalProfit       float64   `json:"total_profit"`
	LowStockCount     int64     `json:"low_stock_count"`
	OutOfStockCount   int64     `json:"out_of_stock_count"`
	InventoryValue    float64   `json:"inventory_value"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// ReportExport - Record of a generated report file
type ReportExport struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	ReportType   string     `gorm:"size:50" json:"report_type"` // SALES, PROFIT_LOSS, STAFF, VALUATION
	ExportFormat string     `gorm:"size:10" json:"export_format"`
	StartDate    string     `gorm:"size:10" json:"start_date"`
	EndDate      string     `gorm:"size:10" json:"end_date"`
	FilePath     string     `json:"file_path"`
	Status       string     `gorm:"size:20" json:"status"` // PENDING, COMPLETED, FAILED
	CreatedByID  uint       `gorm:"index" json:"created_by"`
	CreatedAt    time.Time  `json:"created_at"`
	CompletedAt  *time.Time `json:"completed_at"`
}
