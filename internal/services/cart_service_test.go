package services

import (
	"testing"

	"flowerbelle-pos/internal/models"

	"github.com/stretchr/testify/require"
)

func TestGetOrCreateActiveCartSingleton(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db, "staff1", models.RoleStaff)

	svc := NewCartService(db)
	first, err := svc.GetOrCreateActiveCart(user.ID)
	require.NoError(t, err)
	require.True(t, first.IsActive)
	require.Contains(t, first.SessionID, "CART-")

	second, err := svc.GetOrCreateActiveCart(user.ID)
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID)

	var count int64
	require.NoError(t, db.Model(&models.Cart{}).Where("user_id = ?", user.ID).Count(&count).Error)
	require.EqualValues(t, 1, count)
}

func TestAddItemMergesQuantities(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db, "staff1", models.RoleStaff)
	rose := seedProduct(t, db, "ROSE-01", 150, 80, 10)

	svc := NewCartService(db)
	cart, err := svc.AddItem(user.ID, rose.ID, 2)
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	require.Equal(t, 2, cart.Items[0].Quantity)
	require.Equal(t, 150.0, cart.Items[0].UnitPrice)

	// Same product again: one line, merged quantity
	cart, err = svc.AddItem(user.ID, rose.ID, 3)
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	require.Equal(t, 5, cart.Items[0].Quantity)
	require.Equal(t, 750.0, cart.Subtotal())
	require.Equal(t, 5, cart.ItemCount())
}

func TestAddItemRejectsOverStock(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db, "staff1", models.RoleStaff)
	rose := seedProduct(t, db, "ROSE-01", 150, 80, 4)

	svc := NewCartService(db)
	_, err := svc.AddItem(user.ID, rose.ID, 3)
	require.NoError(t, err)

	// 3 + 2 > 4 available
	_, err = svc.AddItem(user.ID, rose.ID, 2)
	require.Error(t, err)
	require.Equal(t, "INSUFFICIENT_STOCK", ErrorCode(err))

	cart, err := svc.GetOrCreateActiveCart(user.ID)
	require.NoError(t, err)
	require.Equal(t, 3, cart.Items[0].Quantity)
}

func TestAddItemUnknownOrInactiveProduct(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db, "staff1", models.RoleStaff)
	rose := seedProduct(t, db, "ROSE-01", 150, 80, 10)
	require.NoError(t, db.Model(&models.Product{}).Where("id = ?", rose.ID).Update("is_active", false).Error)

	svc := NewCartService(db)
	_, err := svc.AddItem(user.ID, 9999, 1)
	require.ErrorIs(t, err, ErrNotFound)

	_, err = svc.AddItem(user.ID, rose.ID, 1)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateAndRemoveCartItem(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db, "staff1", models.RoleStaff)
	rose := seedProduct(t, db, "ROSE-01", 150, 80, 10)
	tulip := seedProduct(t, db, "TULIP-01", 90, 40, 10)

	svc := NewCartService(db)
	_, err := svc.AddItem(user.ID, rose.ID, 2)
	require.NoError(t, err)
	cart, err := svc.AddItem(user.ID, tulip.ID, 1)
	require.NoError(t, err)
	require.Len(t, cart.Items, 2)

	roseItem := cart.Items[0]
	cart, err = svc.UpdateItem(user.ID, roseItem.ID, 6)
	require.NoError(t, err)
	require.Equal(t, 6, cart.Items[0].Quantity)

	_, err = svc.UpdateItem(user.ID, roseItem.ID, 20)
	require.Error(t, err)
	require.Equal(t, "INSUFFICIENT_STOCK", ErrorCode(err))

	cart, err = svc.RemoveItem(user.ID, roseItem.ID)
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	require.Equal(t, tulip.ID, cart.Items[0].ProductID)
}

func TestClearKeepsCartActive(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db, "staff1", models.RoleStaff)
	rose := seedProduct(t, db, "ROSE-01", 150, 80, 10)

	svc := NewCartService(db)
	_, err := svc.AddItem(user.ID, rose.ID, 2)
	require.NoError(t, err)

	cart, err := svc.Clear(user.ID)
	require.NoError(t, err)
	require.Empty(t, cart.Items)
	require.True(t, cart.IsActive)
}

func TestCartItemOwnership(t *testing.T) {
	db := newTestDB(t)
	alice := seedUser(t, db, "alice", models.RoleStaff)
	bob := seedUser(t, db, "bob", models.RoleStaff)
	rose := seedProduct(t, db, "ROSE-01", 150, 80, 10)

	svc := NewCartService(db)
	cart, err := svc.AddItem(alice.ID, rose.ID, 2)
	require.NoError(t, err)

	// Someone else's cart line reads as not-found
	_, err = svc.UpdateItem(bob.ID, cart.Items[0].ID, 1)
	require.ErrorIs(t, err, ErrNotFound)
	_, err = svc.RemoveItem(bob.ID, cart.Items[0].ID)
	require.ErrorIs(t, err, ErrNotFound)
}
