package services

import (
	"errors"
	"fmt"

	"flowerbelle-pos/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CartService manages the per-user staging area before checkout.
// Stock checks here read live stock at call time; checkout re-validates
// under row locks and is the authoritative guard.
type CartService struct {
	db *gorm.DB
}

func NewCartService(db *gorm.DB) *CartService {
	return &CartService{db: db}
}

// GetOrCreateActiveCart returns the user's single active cart, creating one
// if none exists. The user_id + is_active lookup keeps the singleton.
func (s *CartService) GetOrCreateActiveCart(userID uint) (*models.Cart, error) {
	var cart models.Cart
	err := s.db.Preload("Items.Product").
		Where("user_id = ? AND is_active = ?", userID, true).
		First(&cart).Error
	if err == nil {
		return &cart, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	cart = models.Cart{
		UserID:    userID,
		SessionID: "CART-" + uuid.NewString(),
		IsActive:  true,
	}
	if err := s.db.Create(&cart).Error; err != nil {
		return nil, err
	}
	return &cart, nil
}

// AddItem puts a product in the cart. If the product is already there the
// quantities merge; the merged quantity must not exceed live stock.
func (s *CartService) AddItem(userID, productID uint, quantity int) (*models.Cart, error) {
	if quantity < 1 {
		return nil, ErrInvalidQuantity
	}

	var product models.Product
	if err := s.db.Where("id = ? AND is_active = ?", productID, true).First(&product).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: product %d", ErrNotFound, productID)
		}
		return nil, err
	}

	cart, err := s.GetOrCreateActiveCart(userID)
	if err != nil {
		return nil, err
	}

	var item models.CartItem
	err = s.db.Where("cart_id = ? AND product_id = ?", cart.ID, product.ID).First(&item).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		if product.CurrentStock < quantity {
			return nil, fmt.Errorf("%w: available %d", ErrInsufficientStock, product.CurrentStock)
		}
		item = models.CartItem{
			CartID:    cart.ID,
			ProductID: product.ID,
			Quantity:  quantity,
			UnitPrice: product.UnitPrice, // price snapshot carried through checkout
		}
		if err := s.db.Create(&item).Error; err != nil {
			return nil, err
		}
	case err != nil:
		return nil, err
	default:
		newQuantity := item.Quantity + quantity
		if product.CurrentStock < newQuantity {
			return nil, fmt.Errorf("%w: available %d", ErrInsufficientStock, product.CurrentStock)
		}
		item.Quantity = newQuantity
		if err := s.db.Save(&item).Error; err != nil {
			return nil, err
		}
	}

	return s.reload(cart.ID)
}

// UpdateItem sets an exact quantity on a cart line, with the same stock check
func (s *CartService) UpdateItem(userID, itemID uint, quantity int) (*models.Cart, error) {
	if quantity < 1 {
		return nil, ErrInvalidQuantity
	}

	item, err := s.ownedItem(userID, itemID)
	if err != nil {
		return nil, err
	}

	var product models.Product
	if err := s.db.First(&product, item.ProductID).Error; err != nil {
		return nil, err
	}
	if product.CurrentStock < quantity {
		return nil, fmt.Errorf("%w: available %d", ErrInsufficientStock, product.CurrentStock)
	}

	item.Quantity = quantity
	if err := s.db.Save(item).Error; err != nil {
		return nil, err
	}
	return s.reload(item.CartID)
}

// RemoveItem drops one line from the cart
func (s *CartService) RemoveItem(userID, itemID uint) (*models.Cart, error) {
	item, err := s.ownedItem(userID, itemID)
	if err != nil {
		return nil, err
	}
	if err := s.db.Delete(&models.CartItem{}, item.ID).Error; err != nil {
		return nil, err
	}
	return s.reload(item.CartID)
}

// Clear removes every item. The cart stays active until checkout.
func (s *CartService) Clear(userID uint) (*models.Cart, error) {
	var cart models.Cart
	err := s.db.Where("user_id = ? AND is_active = ?", userID, true).First(&cart).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: no active cart", ErrNotFound)
		}
		return nil, err
	}
	if err := s.db.Where("cart_id = ?", cart.ID).Delete(&models.CartItem{}).Error; err != nil {
		return nil, err
	}
	return s.reload(cart.ID)
}

// ownedItem loads a cart item and verifies it belongs to the caller's
// active cart. Anything else is a 404 for this caller.
func (s *CartService) ownedItem(userID, itemID uint) (*models.CartItem, error) {
	var item models.CartItem
	if err := s.db.First(&item, itemID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: cart item %d", ErrNotFound, itemID)
		}
		return nil, err
	}

	var cart models.Cart
	if err := s.db.First(&cart, item.CartID).Error; err != nil {
		return nil, err
	}
	if cart.UserID != userID || !cart.IsActive {
		return nil, fmt.Errorf("%w: cart item %d", ErrNotFound, itemID)
	}
	return &item, nil
}

func (s *CartService) reload(cartID uint) (*models.Cart, error) {
	var cart models.Cart
	if err := s.db.Preload("Items.Product").First(&cart, cartID).Error; err != nil {
		return nil, err
	}
	return &cart, nil
}
