package services

import (
	"fmt"
	"testing"
	"time"

	"flowerbelle-pos/internal/database"
	"flowerbelle-pos/internal/models"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return db
}

func seedUser(t *testing.T, db *gorm.DB, username, role string) models.User {
	t.Helper()
	user := models.User{
		Username:     username,
		PasswordHash: "x",
		FullName:     "Test " + username,
		Role:         role,
		IsActive:     true,
	}
	require.NoError(t, db.Create(&user).Error)
	return user
}

func seedProduct(t *testing.T, db *gorm.DB, sku string, price, cost float64, stock int) models.Product {
	t.Helper()
	product := models.Product{
		SKU:          sku,
		Name:         "Product " + sku,
		Category:     "Bouquets",
		UnitPrice:    price,
		CostPrice:    cost,
		CurrentStock: stock,
		ReorderLevel: 2,
		IsActive:     true,
	}
	require.NoError(t, db.Create(&product).Error)
	return product
}

func productStock(t *testing.T, db *gorm.DB, id uint) int {
	t.Helper()
	var product models.Product
	require.NoError(t, db.First(&product, id).Error)
	return product.CurrentStock
}

func TestCreateTransactionTotalsAndStock(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db, "staff1", models.RoleStaff)
	rose := seedProduct(t, db, "ROSE-01", 150, 80, 10)
	tulip := seedProduct(t, db, "TULIP-01", 90, 40, 10)

	svc := NewTransactionService(db)
	txn, err := svc.CreateTransaction(user.ID, CreateTransactionInput{
		Items: []SaleItemInput{
			{ProductID: rose.ID, Quantity: 2},
			{ProductID: tulip.ID, Quantity: 1, Discount: 10},
		},
		PaymentMethod: models.PaymentCash,
		AmountPaid:    500,
		Tax:           20,
	})
	require.NoError(t, err)

	// 2*150 + (90-10) = 380; total = 380 + 20 tax = 400
	require.Equal(t, 380.0, txn.Subtotal)
	require.Equal(t, 400.0, txn.TotalAmount)
	require.Equal(t, 100.0, txn.ChangeAmount)
	require.Equal(t, models.StatusCompleted, txn.Status)
	require.NotNil(t, txn.CompletedAt)
	require.Len(t, txn.Items, 2)

	require.Equal(t, 8, productStock(t, db, rose.ID))
	require.Equal(t, 9, productStock(t, db, tulip.ID))

	var movements []models.InventoryMovement
	require.NoError(t, db.Where("movement_type = ?", models.MovementSale).Find(&movements).Error)
	require.Len(t, movements, 2)
	require.Equal(t, txn.TransactionNumber, movements[0].ReferenceNumber)

	var payment models.PaymentTransaction
	require.NoError(t, db.Where("transaction_id = ?", txn.ID).First(&payment).Error)
	require.Equal(t, "APPROVED", payment.Status)
	require.Equal(t, 500.0, payment.Amount)
}

func TestTransactionNumberFormat(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db, "staff1", models.RoleStaff)
	rose := seedProduct(t, db, "ROSE-01", 150, 80, 10)

	svc := NewTransactionService(db)
	dateKey := time.Now().Format("20060102")

	for i := 1; i <= 3; i++ {
		txn, err := svc.CreateTransaction(user.ID, CreateTransactionInput{
			Items:         []SaleItemInput{{ProductID: rose.ID, Quantity: 1}},
			PaymentMethod: models.PaymentCash,
			AmountPaid:    150,
		})
		require.NoError(t, err)
		require.Equal(t, fmt.Sprintf("TXN-%s-%04d", dateKey, i), txn.TransactionNumber)
	}
}

func TestCreateTransactionInsufficientStock(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db, "staff1", models.RoleStaff)
	rose := seedProduct(t, db, "ROSE-01", 150, 80, 10)
	tulip := seedProduct(t, db, "TULIP-01", 90, 40, 2)

	svc := NewTransactionService(db)
	_, err := svc.CreateTransaction(user.ID, CreateTransactionInput{
		Items: []SaleItemInput{
			{ProductID: rose.ID, Quantity: 2},
			{ProductID: tulip.ID, Quantity: 5}, // only 2 available
		},
		PaymentMethod: models.PaymentCash,
		AmountPaid:    1000,
	})
	require.Error(t, err)
	require.Equal(t, "INSUFFICIENT_STOCK", ErrorCode(err))

	// Atomicity: the first line must not have touched anything
	require.Equal(t, 10, productStock(t, db, rose.ID))
	require.Equal(t, 2, productStock(t, db, tulip.ID))

	var count int64
	require.NoError(t, db.Model(&models.SalesTransaction{}).Count(&count).Error)
	require.Zero(t, count)
	require.NoError(t, db.Model(&models.InventoryMovement{}).Count(&count).Error)
	require.Zero(t, count)
}

func TestCreateTransactionDuplicateLinesOverStock(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db, "staff1", models.RoleStaff)
	rose := seedProduct(t, db, "ROSE-01", 150, 80, 5)

	svc := NewTransactionService(db)

	// Two lines of the same product: 3+3 against stock 5 must be rejected,
	// because the second line only has 2 left after the first claimed 3.
	_, err := svc.CreateTransaction(user.ID, CreateTransactionInput{
		Items: []SaleItemInput{
			{ProductID: rose.ID, Quantity: 3},
			{ProductID: rose.ID, Quantity: 3},
		},
		PaymentMethod: models.PaymentCash,
		AmountPaid:    1000,
	})
	require.Error(t, err)
	require.Equal(t, "INSUFFICIENT_STOCK", ErrorCode(err))
	require.Equal(t, 5, productStock(t, db, rose.ID))

	var count int64
	require.NoError(t, db.Model(&models.InventoryMovement{}).Count(&count).Error)
	require.Zero(t, count)
}

func TestCreateTransactionDuplicateLinesDeductBoth(t *testing.T) {
	db := newTestDB(t)
	staff := seedUser(t, db, "staff1", models.RoleStaff)
	owner := seedUser(t, db, "owner1", models.RoleOwner)
	rose := seedProduct(t, db, "ROSE-01", 150, 80, 5)

	svc := NewTransactionService(db)
	txn, err := svc.CreateTransaction(staff.ID, CreateTransactionInput{
		Items: []SaleItemInput{
			{ProductID: rose.ID, Quantity: 2},
			{ProductID: rose.ID, Quantity: 2},
		},
		PaymentMethod: models.PaymentCash,
		AmountPaid:    600,
	})
	require.NoError(t, err)
	require.Equal(t, 600.0, txn.TotalAmount)

	// Both lines deduct: 5 - 2 - 2 = 1, and the ledger carries 4 units
	require.Equal(t, 1, productStock(t, db, rose.ID))

	var movedQty int64
	require.NoError(t, db.Model(&models.InventoryMovement{}).
		Where("movement_type = ?", models.MovementSale).
		Select("COALESCE(SUM(quantity), 0)").Scan(&movedQty).Error)
	require.EqualValues(t, 4, movedQty)

	// Void restores exactly what was deducted, no more
	_, err = svc.Void(txn.ID, owner.ID, "wrong order")
	require.NoError(t, err)
	require.Equal(t, 5, productStock(t, db, rose.ID))
}

func TestCreateTransactionInsufficientPayment(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db, "staff1", models.RoleStaff)
	rose := seedProduct(t, db, "ROSE-01", 150, 80, 10)

	svc := NewTransactionService(db)
	_, err := svc.CreateTransaction(user.ID, CreateTransactionInput{
		Items:         []SaleItemInput{{ProductID: rose.ID, Quantity: 2}},
		PaymentMethod: models.PaymentCash,
		AmountPaid:    200, // total is 300
	})
	require.Error(t, err)
	require.Equal(t, "INSUFFICIENT_PAYMENT", ErrorCode(err))
	require.Contains(t, err.Error(), "300.00")

	require.Equal(t, 10, productStock(t, db, rose.ID))
}

func TestCreateTransactionFullyDiscounted(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db, "staff1", models.RoleStaff)
	rose := seedProduct(t, db, "ROSE-01", 150, 80, 10)

	// A 100% discount brings the total to zero; paying nothing is valid
	svc := NewTransactionService(db)
	txn, err := svc.CreateTransaction(user.ID, CreateTransactionInput{
		Items:         []SaleItemInput{{ProductID: rose.ID, Quantity: 1}},
		PaymentMethod: models.PaymentCash,
		Discount:      150,
		AmountPaid:    0,
	})
	require.NoError(t, err)
	require.Equal(t, 0.0, txn.TotalAmount)
	require.Equal(t, 0.0, txn.ChangeAmount)
	require.Equal(t, models.StatusCompleted, txn.Status)
	require.Equal(t, 9, productStock(t, db, rose.ID))
}

func TestCreateTransactionValidation(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db, "staff1", models.RoleStaff)
	rose := seedProduct(t, db, "ROSE-01", 150, 80, 10)

	svc := NewTransactionService(db)

	_, err := svc.CreateTransaction(user.ID, CreateTransactionInput{
		PaymentMethod: models.PaymentCash,
		AmountPaid:    100,
	})
	require.ErrorIs(t, err, ErrNoItems)

	_, err = svc.CreateTransaction(user.ID, CreateTransactionInput{
		Items:         []SaleItemInput{{ProductID: rose.ID, Quantity: 1}},
		PaymentMethod: "BITCOIN",
		AmountPaid:    150,
	})
	require.ErrorIs(t, err, ErrInvalidPayment)

	_, err = svc.CreateTransaction(user.ID, CreateTransactionInput{
		Items:         []SaleItemInput{{ProductID: rose.ID, Quantity: 0}},
		PaymentMethod: models.PaymentCash,
		AmountPaid:    150,
	})
	require.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = svc.CreateTransaction(user.ID, CreateTransactionInput{
		Items:         []SaleItemInput{{ProductID: 9999, Quantity: 1}},
		PaymentMethod: models.PaymentCash,
		AmountPaid:    150,
	})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestVoidRestoresStockExactlyOnce(t *testing.T) {
	db := newTestDB(t)
	staff := seedUser(t, db, "staff1", models.RoleStaff)
	owner := seedUser(t, db, "owner1", models.RoleOwner)
	rose := seedProduct(t, db, "ROSE-01", 150, 80, 10)

	svc := NewTransactionService(db)
	txn, err := svc.CreateTransaction(staff.ID, CreateTransactionInput{
		Items:         []SaleItemInput{{ProductID: rose.ID, Quantity: 3}},
		PaymentMethod: models.PaymentCash,
		AmountPaid:    450,
	})
	require.NoError(t, err)
	require.Equal(t, 7, productStock(t, db, rose.ID))

	voided, err := svc.Void(txn.ID, owner.ID, "customer returned the order")
	require.NoError(t, err)
	require.Equal(t, models.StatusVoid, voided.Status)
	require.Equal(t, owner.ID, *voided.VoidedByID)
	require.NotNil(t, voided.VoidedAt)
	require.Equal(t, "customer returned the order", voided.VoidReason)

	require.Equal(t, 10, productStock(t, db, rose.ID))

	var movement models.InventoryMovement
	require.NoError(t, db.Where("movement_type = ?", models.MovementReturn).First(&movement).Error)
	require.Equal(t, "VOID-"+txn.TransactionNumber, movement.ReferenceNumber)
	require.Equal(t, 3, movement.Quantity)

	// Voiding again must fail and must not restore a second time
	_, err = svc.Void(txn.ID, owner.ID, "again")
	require.ErrorIs(t, err, ErrAlreadyVoid)
	require.Equal(t, "ALREADY_VOID", ErrorCode(err))
	require.Equal(t, 10, productStock(t, db, rose.ID))
}

func TestVoidUnknownTransaction(t *testing.T) {
	db := newTestDB(t)
	owner := seedUser(t, db, "owner1", models.RoleOwner)

	svc := NewTransactionService(db)
	_, err := svc.Void(42, owner.ID, "nope")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestCheckoutConsumesCart(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db, "staff1", models.RoleStaff)
	rose := seedProduct(t, db, "ROSE-01", 150, 80, 5)

	carts := NewCartService(db)
	_, err := carts.AddItem(user.ID, rose.ID, 3)
	require.NoError(t, err)

	// Price raised after adding: checkout must charge the cart-time snapshot
	require.NoError(t, db.Model(&models.Product{}).Where("id = ?", rose.ID).Update("unit_price", 200).Error)

	svc := NewTransactionService(db)
	txn, err := svc.Checkout(user.ID, CheckoutInput{
		PaymentMethod: models.PaymentGCash,
		AmountPaid:    450,
	})
	require.NoError(t, err)
	require.Equal(t, 450.0, txn.TotalAmount)
	require.Equal(t, 0.0, txn.ChangeAmount)
	require.Equal(t, 2, productStock(t, db, rose.ID))

	var cart models.Cart
	require.NoError(t, db.Where("user_id = ?", user.ID).First(&cart).Error)
	require.False(t, cart.IsActive)

	var itemCount int64
	require.NoError(t, db.Model(&models.CartItem{}).Where("cart_id = ?", cart.ID).Count(&itemCount).Error)
	require.Zero(t, itemCount)
}

func TestCheckoutEmptyCart(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db, "staff1", models.RoleStaff)

	svc := NewTransactionService(db)
	_, err := svc.Checkout(user.ID, CheckoutInput{
		PaymentMethod: models.PaymentCash,
		AmountPaid:    100,
	})
	require.ErrorIs(t, err, ErrEmptyCart)
	require.Equal(t, "EMPTY_CART", ErrorCode(err))
}

func TestCheckoutFailureLeavesCartIntact(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db, "staff1", models.RoleStaff)
	rose := seedProduct(t, db, "ROSE-01", 150, 80, 5)

	carts := NewCartService(db)
	_, err := carts.AddItem(user.ID, rose.ID, 3)
	require.NoError(t, err)

	svc := NewTransactionService(db)
	_, err = svc.Checkout(user.ID, CheckoutInput{
		PaymentMethod: models.PaymentCash,
		AmountPaid:    100, // total is 450
	})
	require.Error(t, err)
	require.Equal(t, "INSUFFICIENT_PAYMENT", ErrorCode(err))

	// The cart survives the failed checkout untouched
	cart, err := carts.GetOrCreateActiveCart(user.ID)
	require.NoError(t, err)
	require.True(t, cart.IsActive)
	require.Len(t, cart.Items, 1)
	require.Equal(t, 3, cart.Items[0].Quantity)
	require.Equal(t, 5, productStock(t, db, rose.ID))
}
