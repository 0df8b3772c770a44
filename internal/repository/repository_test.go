package repository

import (
	"context"
	"errors"
	"testing"

	"lodelita/config"
	"lodelita/internal/database"
	"lodelita/internal/domain"
	"lodelita/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.NewDB(&config.DatabaseConfig{Driver: "sqlite", DSN: "file:" + t.Name() + "?mode=memory&cache=shared"})
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))
	require.NoError(t, database.SeedSettings(db))
	return db
}

func seedItem(t *testing.T, db *gorm.DB, name string, price int64, stock int) *models.MenuItem {
	t.Helper()
	item := &models.MenuItem{Name: name, Price: decimal.NewFromInt(price), IsActive: true, Stock: stock}
	require.NoError(t, db.Create(item).Error)
	return item
}

func newOrder(itemID uint, qty int) *models.Order {
	return &models.Order{
		CustomerFirstName: "Ana",
		CustomerLastName:  "Pérez",
		Phone:             "1122334455",
		MenuItemID:        itemID,
		Quantity:          qty,
		PaymentMethod:     domain.PaymentCash,
		OrderDate:         "2024-05-10",
	}
}

func TestListAvailableFiltersAndSorts(t *testing.T) {
	db := openTestDB(t)
	repo := NewMenuRepository(db)
	seedItem(t, db, "Tarta", 900, 2)
	seedItem(t, db, "Empanadas", 300, 0)
	seedItem(t, db, "Milanesa", 1200, 3)
	hidden := seedItem(t, db, "Guiso", 1000, 5)
	require.NoError(t, db.Model(hidden).Update("is_active", false).Error)

	list, err := repo.ListAvailable(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Milanesa", list[0].Name)
	assert.Equal(t, "Tarta", list[1].Name)

	all, err := repo.ListAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, 4)
}

func TestPlaceOrderDecrementsStock(t *testing.T) {
	db := openTestDB(t)
	item := seedItem(t, db, "Milanesa", 1200, 3)
	orders := NewOrderRepository(db)

	o := newOrder(item.ID, 3)
	require.NoError(t, orders.Place(context.Background(), o))
	assert.NotZero(t, o.ID)
	assert.True(t, decimal.NewFromInt(3600).Equal(o.TotalAmount))
	require.NotNil(t, o.MenuItem)
	assert.Equal(t, 0, o.MenuItem.Stock)

	var stored models.MenuItem
	require.NoError(t, db.First(&stored, item.ID).Error)
	assert.Equal(t, 0, stored.Stock)

	list, err := NewMenuRepository(db).ListAvailable(context.Background())
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestPlaceOrderStockConflict(t *testing.T) {
	db := openTestDB(t)
	item := seedItem(t, db, "Milanesa", 1200, 3)
	orders := NewOrderRepository(db)

	err := orders.Place(context.Background(), newOrder(item.ID, 4))
	var conflict *StockConflictError
	require.True(t, errors.As(err, &conflict))
	assert.Equal(t, 3, conflict.Available)
	assert.Equal(t, 4, conflict.Requested)

	var count int64
	db.Model(&models.Order{}).Count(&count)
	assert.Zero(t, count)

	var stored models.MenuItem
	require.NoError(t, db.First(&stored, item.ID).Error)
	assert.Equal(t, 3, stored.Stock)
}

func TestPlaceOrderInactiveOrMissingItem(t *testing.T) {
	db := openTestDB(t)
	item := seedItem(t, db, "Guiso", 1000, 5)
	require.NoError(t, db.Model(item).Update("is_active", false).Error)
	orders := NewOrderRepository(db)

	var conflict *StockConflictError
	assert.True(t, errors.As(orders.Place(context.Background(), newOrder(item.ID, 1)), &conflict))
	assert.ErrorIs(t, orders.Place(context.Background(), newOrder(9999, 1)), ErrNotFound)
}

func TestDeleteRestoringStock(t *testing.T) {
	db := openTestDB(t)
	item := seedItem(t, db, "Milanesa", 1200, 3)
	orders := NewOrderRepository(db)

	o := newOrder(item.ID, 2)
	require.NoError(t, orders.Place(context.Background(), o))
	// stock is now 1
	deleted, err := orders.DeleteRestoringStock(context.Background(), o.ID)
	require.NoError(t, err)
	require.NotNil(t, deleted.MenuItem)
	assert.Equal(t, 3, deleted.MenuItem.Stock)

	_, err = orders.GetByID(context.Background(), o.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = orders.DeleteRestoringStock(context.Background(), o.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestToggleFlags(t *testing.T) {
	db := openTestDB(t)
	item := seedItem(t, db, "Milanesa", 1200, 3)
	orders := NewOrderRepository(db)
	o := newOrder(item.ID, 1)
	require.NoError(t, orders.Place(context.Background(), o))

	got, err := orders.TogglePaid(context.Background(), o.ID)
	require.NoError(t, err)
	assert.True(t, got.IsPaid)
	got, err = orders.TogglePaid(context.Background(), o.ID)
	require.NoError(t, err)
	assert.False(t, got.IsPaid)

	got, err = orders.SetPrepared(context.Background(), o.ID, true)
	require.NoError(t, err)
	assert.True(t, got.IsPrepared)
	assert.Equal(t, "Milanesa", got.ItemName())

	_, err = orders.SetPrepared(context.Background(), 9999, true)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListByDate(t *testing.T) {
	db := openTestDB(t)
	item := seedItem(t, db, "Milanesa", 1200, 10)
	orders := NewOrderRepository(db)
	require.NoError(t, orders.Place(context.Background(), newOrder(item.ID, 1)))
	other := newOrder(item.ID, 1)
	other.OrderDate = "2024-05-11"
	require.NoError(t, orders.Place(context.Background(), other))

	list, err := orders.ListByDate(context.Background(), "2024-05-10")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Milanesa", list[0].ItemName())
}

func TestMenuDeleteRefusedWithOrders(t *testing.T) {
	db := openTestDB(t)
	menu := NewMenuRepository(db)
	item := seedItem(t, db, "Milanesa", 1200, 3)
	free := seedItem(t, db, "Tarta", 900, 1)
	require.NoError(t, NewOrderRepository(db).Place(context.Background(), newOrder(item.ID, 1)))

	assert.ErrorIs(t, menu.Delete(context.Background(), item.ID), ErrItemHasOrders)
	assert.NoError(t, menu.Delete(context.Background(), free.ID))
	assert.ErrorIs(t, menu.Delete(context.Background(), free.ID), ErrNotFound)
}

func TestAdjustStockClampsAtZero(t *testing.T) {
	db := openTestDB(t)
	menu := NewMenuRepository(db)
	item := seedItem(t, db, "Milanesa", 1200, 1)

	stock, err := menu.AdjustStock(context.Background(), item.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, stock)
	stock, err = menu.AdjustStock(context.Background(), item.ID, -5)
	require.NoError(t, err)
	assert.Equal(t, 0, stock)

	_, err = menu.AdjustStock(context.Background(), 9999, 1)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMenuUpdateWritesZeroValues(t *testing.T) {
	db := openTestDB(t)
	menu := NewMenuRepository(db)
	item := seedItem(t, db, "Milanesa", 1200, 3)

	item.IsActive = false
	item.Stock = 0
	item.Price = decimal.Zero
	require.NoError(t, menu.Update(context.Background(), item))

	got, err := menu.GetByID(context.Background(), item.ID)
	require.NoError(t, err)
	assert.False(t, got.IsActive)
	assert.Equal(t, 0, got.Stock)
	assert.True(t, got.Price.IsZero())

	missing := &models.MenuItem{ID: 9999, Name: "x"}
	assert.ErrorIs(t, menu.Update(context.Background(), missing), ErrNotFound)
}

func TestSettingsRepository(t *testing.T) {
	db := openTestDB(t)
	repo := NewSettingsRepository(db)

	s, err := repo.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "09:00", s.StartLabel())
	assert.Equal(t, "11:30", s.CutoffLabel())

	s, err = repo.SetMenuOpen(context.Background(), false)
	require.NoError(t, err)
	assert.False(t, s.MenuOpen)

	s, err = repo.SetWindow(context.Background(), 10, 15, 13, 0)
	require.NoError(t, err)
	assert.Equal(t, "10:15", s.StartLabel())
	assert.Equal(t, "13:00", s.CutoffLabel())
	assert.False(t, s.MenuOpen)
}

func TestAdminTokens(t *testing.T) {
	db := openTestDB(t)
	repo := NewAdminRepository(db)
	a := &models.AdminUser{Email: "a@example.com", PasswordHash: "x"}
	b := &models.AdminUser{Email: "b@example.com", PasswordHash: "x"}
	require.NoError(t, db.Create(a).Error)
	require.NoError(t, db.Create(b).Error)

	require.NoError(t, repo.SetFCMToken(context.Background(), a.ID, "tok-a"))
	tokens, err := repo.ListFCMTokens(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"tok-a"}, tokens)

	got, err := repo.GetByEmail(context.Background(), "b@example.com")
	require.NoError(t, err)
	assert.Equal(t, b.ID, got.ID)
	_, err = repo.GetByEmail(context.Background(), "nobody@example.com")
	assert.ErrorIs(t, err, ErrNotFound)
}
