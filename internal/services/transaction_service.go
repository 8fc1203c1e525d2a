package services

import (
	"errors"
	"fmt"
	"time"

	"flowerbelle-pos/internal/models"
	"flowerbelle-pos/internal/utils"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TransactionService turns an item list (or the caller's cart) into an
// immutable sales ledger entry, deducting inventory in the same database
// transaction. Voiding runs the compensating restore.
type TransactionService struct {
	db *gorm.DB
}

func NewTransactionService(db *gorm.DB) *TransactionService {
	return &TransactionService{db: db}
}

// SaleItemInput is one requested line. UnitPrice nil means "use the live
// catalog price"; checkout passes the price captured at add-to-cart time.
type SaleItemInput struct {
	ProductID uint
	Quantity  int
	UnitPrice *float64
	Discount  float64
	Notes     string
}

type CreateTransactionInput struct {
	Items            []SaleItemInput
	PaymentMethod    string
	PaymentReference string
	AmountPaid       float64
	Tax              float64
	Discount         float64
	Notes            string
	CustomerName     string
	CustomerPhone    string
	CustomerEmail    string
}

type CheckoutInput struct {
	PaymentMethod    string
	PaymentReference string
	AmountPaid       float64
	Tax              float64
	Discount         float64
	Notes            string
	CustomerName     string
	CustomerPhone    string
	CustomerEmail    string
}

// CreateTransaction validates, persists and completes a sale as one
// all-or-nothing unit. Nothing is written if any line fails.
func (s *TransactionService) CreateTransaction(userID uint, in CreateTransactionInput) (*models.SalesTransaction, error) {
	var txnID uint
	err := s.db.Transaction(func(tx *gorm.DB) error {
		txn, err := s.createInTx(tx, userID, in)
		if err != nil {
			return err
		}
		txnID = txn.ID
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.Get(txnID)
}

// Checkout converts the caller's active cart into a transaction and then
// deactivates the cart. A failed creation rolls everything back and leaves
// the cart untouched.
func (s *TransactionService) Checkout(userID uint, in CheckoutInput) (*models.SalesTransaction, error) {
	var txnID uint
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var cart models.Cart
		err := tx.Preload("Items").
			Where("user_id = ? AND is_active = ?", userID, true).
			First(&cart).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrEmptyCart
		}
		if err != nil {
			return err
		}
		if len(cart.Items) == 0 {
			return ErrEmptyCart
		}

		items := make([]SaleItemInput, 0, len(cart.Items))
		for _, ci := range cart.Items {
			price := ci.UnitPrice // cart-time snapshot, not the live catalog price
			items = append(items, SaleItemInput{
				ProductID: ci.ProductID,
				Quantity:  ci.Quantity,
				UnitPrice: &price,
			})
		}

		txn, err := s.createInTx(tx, userID, CreateTransactionInput{
			Items:            items,
			PaymentMethod:    in.PaymentMethod,
			PaymentReference: in.PaymentReference,
			AmountPaid:       in.AmountPaid,
			Tax:              in.Tax,
			Discount:         in.Discount,
			Notes:            in.Notes,
			CustomerName:     in.CustomerName,
			CustomerPhone:    in.CustomerPhone,
			CustomerEmail:    in.CustomerEmail,
		})
		if err != nil {
			return err
		}

		// Consume the cart only after the sale is safely in
		if err := tx.Where("cart_id = ?", cart.ID).Delete(&models.CartItem{}).Error; err != nil {
			return err
		}
		if err := tx.Model(&cart).Update("is_active", false).Error; err != nil {
			return err
		}

		txnID = txn.ID
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.Get(txnID)
}

func (s *TransactionService) createInTx(tx *gorm.DB, userID uint, in CreateTransactionInput) (*models.SalesTransaction, error) {
	if len(in.Items) == 0 {
		return nil, ErrNoItems
	}
	if !models.IsValidPaymentMethod(in.PaymentMethod) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPayment, in.PaymentMethod)
	}
	if in.Tax < 0 || in.Discount < 0 || in.AmountPaid < 0 {
		return nil, fmt.Errorf("%w: amounts cannot be negative", ErrInvalidPayment)
	}

	var subtotal float64
	txnItems := make([]models.TransactionItem, 0, len(in.Items))
	// Running per-product total: the same product may appear on several
	// lines, and each line must be validated against what the earlier
	// lines already claimed.
	requested := make(map[uint]int, len(in.Items))

	for _, item := range in.Items {
		if item.Quantity < 1 {
			return nil, ErrInvalidQuantity
		}

		var product models.Product
		// Lock the row so concurrent checkouts cannot oversell
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&product, item.ProductID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("%w: product %d", ErrNotFound, item.ProductID)
			}
			return nil, err
		}

		available := product.CurrentStock - requested[product.ID]
		if available < item.Quantity {
			return nil, fmt.Errorf("%w for %s: available %d", ErrInsufficientStock, product.Name, available)
		}
		requested[product.ID] += item.Quantity

		unitPrice := product.UnitPrice
		if item.UnitPrice != nil {
			unitPrice = *item.UnitPrice
		}

		lineTotal := utils.Round2(unitPrice*float64(item.Quantity) - item.Discount)
		subtotal += lineTotal

		txnItems = append(txnItems, models.TransactionItem{
			ProductID: product.ID,
			Quantity:  item.Quantity,
			UnitPrice: unitPrice,
			Discount:  item.Discount,
			LineTotal: lineTotal,
			Notes:     item.Notes,
		})
	}

	subtotal = utils.Round2(subtotal)
	total := utils.Round2(subtotal + in.Tax - in.Discount)

	if in.AmountPaid < total {
		return nil, fmt.Errorf("%w: total is %.2f", ErrInsufficientPayment, total)
	}

	number, err := s.nextTransactionNumber(tx, time.Now())
	if err != nil {
		return nil, err
	}

	txn := models.SalesTransaction{
		TransactionNumber: number,
		Subtotal:          subtotal,
		Tax:               in.Tax,
		Discount:          in.Discount,
		TotalAmount:       total,
		PaymentMethod:     in.PaymentMethod,
		PaymentReference:  in.PaymentReference,
		AmountPaid:        in.AmountPaid,
		ChangeAmount:      utils.Round2(in.AmountPaid - total),
		Status:            models.StatusPending,
		Notes:             in.Notes,
		CustomerName:      in.CustomerName,
		CustomerPhone:     in.CustomerPhone,
		CustomerEmail:     in.CustomerEmail,
		CreatedByID:       userID,
		Items:             txnItems,
	}

	if err := tx.Create(&txn).Error; err != nil {
		return nil, err
	}

	if err := s.completeInTx(tx, &txn); err != nil {
		return nil, err
	}

	return &txn, nil
}

// completeInTx deducts stock, writes the SALE movements and the payment
// sub-ledger row, and stamps the transaction COMPLETED. Deductions are
// relative (current_stock - qty) so stock and the movement ledger always
// agree, even when one product spans several lines.
func (s *TransactionService) completeInTx(tx *gorm.DB, txn *models.SalesTransaction) error {
	for _, item := range txn.Items {
		if err := tx.Model(&models.Product{}).Where("id = ?", item.ProductID).
			Update("current_stock", gorm.Expr("current_stock - ?", item.Quantity)).Error; err != nil {
			return err
		}

		movement := models.InventoryMovement{
			ProductID:       item.ProductID,
			MovementType:    models.MovementSale,
			Quantity:        item.Quantity,
			ReferenceNumber: txn.TransactionNumber,
			Reason:          fmt.Sprintf("Sale transaction %s", txn.TransactionNumber),
			CreatedByID:     txn.CreatedByID,
		}
		if err := tx.Create(&movement).Error; err != nil {
			return err
		}
	}

	now := time.Now()
	payment := models.PaymentTransaction{
		TransactionID:   txn.ID,
		PaymentMethod:   txn.PaymentMethod,
		Amount:          txn.AmountPaid,
		ReferenceNumber: txn.PaymentReference,
		Status:          "APPROVED",
		ProcessedAt:     &now,
	}
	if err := tx.Create(&payment).Error; err != nil {
		return err
	}

	txn.Status = models.StatusCompleted
	txn.CompletedAt = &now
	return tx.Model(txn).Updates(map[string]interface{}{
		"status":       models.StatusCompleted,
		"completed_at": now,
	}).Error
}

// Void cancels a transaction. If it was COMPLETED the deducted quantities are
// restored with RETURN movements referencing VOID-<number>. Terminal: voiding
// a voided transaction is rejected and restores nothing twice.
func (s *TransactionService) Void(txnID, actorID uint, reason string) (*models.SalesTransaction, error) {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var txn models.SalesTransaction
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&txn, txnID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: transaction %d", ErrNotFound, txnID)
			}
			return err
		}

		if txn.Status == models.StatusVoid {
			return ErrAlreadyVoid
		}

		if txn.Status == models.StatusCompleted {
			var items []models.TransactionItem
			if err := tx.Where("transaction_id = ?", txn.ID).Find(&items).Error; err != nil {
				return err
			}
			for _, item := range items {
				// Relative restore mirrors the relative deduction at sale time
				if err := tx.Model(&models.Product{}).Where("id = ?", item.ProductID).
					Update("current_stock", gorm.Expr("current_stock + ?", item.Quantity)).Error; err != nil {
					return err
				}

				movement := models.InventoryMovement{
					ProductID:       item.ProductID,
					MovementType:    models.MovementReturn,
					Quantity:        item.Quantity,
					ReferenceNumber: fmt.Sprintf("VOID-%s", txn.TransactionNumber),
					Reason:          fmt.Sprintf("Voided transaction %s: %s", txn.TransactionNumber, reason),
					CreatedByID:     actorID,
				}
				if err := tx.Create(&movement).Error; err != nil {
					return err
				}
			}
		}

		now := time.Now()
		return tx.Model(&txn).Updates(map[string]interface{}{
			"status":       models.StatusVoid,
			"voided_by_id": actorID,
			"voided_at":    now,
			"void_reason":  reason,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return s.Get(txnID)
}

// Get loads one transaction with its items, products and creator
func (s *TransactionService) Get(txnID uint) (*models.SalesTransaction, error) {
	var txn models.SalesTransaction
	err := s.db.Preload("Items.Product").Preload("CreatedBy").First(&txn, txnID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: transaction %d", ErrNotFound, txnID)
		}
		return nil, err
	}
	return &txn, nil
}

// nextTransactionNumber hands out TXN-YYYYMMDD-NNNN. The per-day counter row
// is locked FOR UPDATE inside the caller's transaction, so two concurrent
// checkouts cannot mint the same number.
func (s *TransactionService) nextTransactionNumber(tx *gorm.DB, now time.Time) (string, error) {
	dateKey := now.Format("20060102")

	var seq models.DailySequence
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("date_key = ?", dateKey).First(&seq).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		seq = models.DailySequence{DateKey: dateKey}
		if err := tx.Create(&seq).Error; err != nil {
			return "", err
		}
	} else if err != nil {
		return "", err
	}

	seq.LastSeq++
	if err := tx.Save(&seq).Error; err != nil {
		return "", err
	}

	return fmt.Sprintf("TXN-%s-%04d", dateKey, seq.LastSeq), nil
}
