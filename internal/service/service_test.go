package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"lodelita/config"
	"lodelita/internal/database"
	"lodelita/internal/domain"
	"lodelita/internal/history"
	"lodelita/internal/models"
	"lodelita/internal/realtime"
	"lodelita/internal/repository"
	"lodelita/internal/ws"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var art = time.FixedZone("ART", -3*3600)

func at(h, m int) time.Time {
	return time.Date(2024, 5, 10, h, m, 0, 0, art)
}

type fixture struct {
	db       *gorm.DB
	clock    *Clock
	hub      *ws.Hub
	bridge   *realtime.Bridge
	catalog  *Catalog
	gate     *Gate
	orders   *OrderService
	admin    *AdminOrderService
	menu     *MenuService
	book     *history.Book
	orderRep *repository.OrderRepository
}

func newFixture(t *testing.T, now time.Time) *fixture {
	t.Helper()
	db, err := database.NewDB(&config.DatabaseConfig{Driver: "sqlite", DSN: "file:" + t.Name() + "?mode=memory&cache=shared"})
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))
	require.NoError(t, database.SeedSettings(db))

	f := &fixture{db: db, clock: FixedClock(now), hub: ws.NewHub()}
	menuRepo := repository.NewMenuRepository(db)
	settingsRepo := repository.NewSettingsRepository(db)
	f.orderRep = repository.NewOrderRepository(db)
	audit := repository.NewAuditLogRepository(db)

	f.bridge = realtime.NewBridge(nil, "test", f.hub)
	f.catalog = NewCatalog(menuRepo)
	f.gate = NewGate(settingsRepo, f.clock, f.hub, time.Minute)
	f.bridge.Register(domain.TableMenuItems, f.catalog.OnMenuChange)
	f.bridge.Register(domain.TableSettings, f.gate.OnSettingsChange)
	f.book = history.NewBook(history.NewMemoryStore())

	notify := NewNotificationService(repository.NewAdminRepository(db), nil)
	f.orders = NewOrderService(f.orderRep, f.catalog, f.gate, f.clock, f.bridge, f.book, notify)
	f.admin = NewAdminOrderService(f.orderRep, f.bridge, f.clock, audit, "54", "0720069488000006878722")
	f.menu = NewMenuService(menuRepo, settingsRepo, f.bridge, nil, audit)

	require.NoError(t, f.gate.Reload(context.Background()))
	return f
}

func (f *fixture) addItem(t *testing.T, name string, price int64, stock int) *models.MenuItem {
	t.Helper()
	item, err := f.menu.Create(context.Background(), MenuItemInput{Name: name, Price: decimal.NewFromInt(price), IsActive: true, Stock: stock})
	require.NoError(t, err)
	return item
}

func request(itemID uint, qty int) OrderRequest {
	return OrderRequest{
		FirstName:     "Ana",
		LastName:      "Pérez",
		Phone:         "11 2233-4455",
		MenuItemID:    itemID,
		Quantity:      qty,
		PaymentMethod: domain.PaymentTransfer,
	}
}

func TestState(t *testing.T) {
	s := models.DefaultSettings()
	assert.Equal(t, domain.WindowBefore, State(at(8, 59), s))
	assert.Equal(t, domain.WindowOpen, State(at(9, 0), s))
	assert.Equal(t, domain.WindowOpen, State(at(11, 29), s))
	assert.Equal(t, domain.WindowAfter, State(at(11, 30), s))
	assert.Equal(t, domain.WindowAfter, State(at(23, 59), s))
}

func TestAvailabilityRequiresMenuOpen(t *testing.T) {
	f := newFixture(t, at(10, 0))
	a := f.gate.Availability()
	assert.True(t, a.CanOrder)
	assert.Equal(t, "09:00", a.Start)
	assert.Equal(t, "11:30", a.Cutoff)

	_, err := f.menu.SetMenuOpen(context.Background(), false)
	require.NoError(t, err)
	a = f.gate.Availability()
	assert.Equal(t, domain.WindowOpen, a.State)
	assert.False(t, a.CanOrder)
}

func TestGateFallsBackToDefaults(t *testing.T) {
	f := newFixture(t, at(10, 0))
	require.NoError(t, f.db.Migrator().DropTable(&models.AppSettings{}))
	assert.Error(t, f.gate.Reload(context.Background()))
	assert.Equal(t, models.DefaultSettings(), f.gate.Settings())
}

func TestGateBroadcastsOnStateChange(t *testing.T) {
	f := newFixture(t, at(10, 0))
	c := ws.NewClient(0, false)
	f.hub.Register(c)
	defer c.Close()

	f.gate.check()
	assert.Len(t, c.Send, 0)

	_, err := f.menu.SetWindow(context.Background(), WindowInput{StartHour: 10, StartMinute: 30, CutoffHour: 12})
	require.NoError(t, err)
	// the settings change event plus the gate flip to "before"
	assert.Len(t, c.Send, 2)
	assert.Equal(t, domain.WindowBefore, f.gate.Availability().State)
}

func TestPlaceOrderSellsOut(t *testing.T) {
	f := newFixture(t, at(10, 0))
	item := f.addItem(t, "Milanesa", 1200, 3)
	require.Len(t, f.catalog.Items(), 1)

	o, err := f.orders.Place(context.Background(), "client-1", request(item.ID, 3))
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(3600).Equal(o.TotalAmount))
	assert.Equal(t, "2024-05-10", o.OrderDate)

	var stored models.MenuItem
	require.NoError(t, f.db.First(&stored, item.ID).Error)
	assert.Equal(t, 0, stored.Stock)
	assert.Empty(t, f.catalog.Items())

	hist, err := f.orders.History(context.Background(), "client-1")
	require.NoError(t, err)
	require.Len(t, hist, 1)
	assert.Equal(t, "Milanesa", hist[0].ItemName)
	assert.Equal(t, 3, hist[0].Quantity)
}

func TestPreviewRejectsQuantityOverStock(t *testing.T) {
	f := newFixture(t, at(10, 0))
	item := f.addItem(t, "Milanesa", 1200, 3)

	_, err := f.orders.Preview(request(item.ID, 4))
	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "quantity", ve.Field)
	assert.Contains(t, ve.Message, "3")

	sum, err := f.orders.Preview(request(item.ID, 2))
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(2400).Equal(sum.Total))
	assert.Equal(t, "Ana Pérez", sum.CustomerName)
}

func TestPreviewValidation(t *testing.T) {
	f := newFixture(t, at(10, 0))
	item := f.addItem(t, "Milanesa", 1200, 3)

	cases := []struct {
		name  string
		edit  func(r *OrderRequest)
		field string
	}{
		{"no item", func(r *OrderRequest) { r.MenuItemID = 0 }, "menu_item_id"},
		{"unknown item", func(r *OrderRequest) { r.MenuItemID = 9999 }, "menu_item_id"},
		{"no first name", func(r *OrderRequest) { r.FirstName = " " }, "first_name"},
		{"no last name", func(r *OrderRequest) { r.LastName = "" }, "last_name"},
		{"no phone", func(r *OrderRequest) { r.Phone = "" }, "phone"},
		{"short phone", func(r *OrderRequest) { r.Phone = "123456789" }, "phone"},
		{"long phone", func(r *OrderRequest) { r.Phone = "12345678901234" }, "phone"},
		{"bad payment", func(r *OrderRequest) { r.PaymentMethod = "card" }, "payment_method"},
		{"zero quantity", func(r *OrderRequest) { r.Quantity = 0 }, "quantity"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := request(item.ID, 1)
			tc.edit(&r)
			_, err := f.orders.Preview(r)
			var ve *ValidationError
			require.True(t, errors.As(err, &ve), "got %v", err)
			assert.Equal(t, tc.field, ve.Field)
		})
	}
}

func TestOrderingClosedOutsideWindow(t *testing.T) {
	f := newFixture(t, at(11, 30))
	item := f.addItem(t, "Milanesa", 1200, 3)

	_, err := f.orders.Place(context.Background(), "", request(item.ID, 1))
	assert.ErrorIs(t, err, ErrOrderingClosed)
}

func TestPlaceDetectsStaleCatalog(t *testing.T) {
	f := newFixture(t, at(10, 0))
	item := f.addItem(t, "Milanesa", 1200, 3)
	// Another instance sold two; this catalog still says 3.
	require.NoError(t, f.db.Model(&models.MenuItem{}).Where("id = ?", item.ID).Update("stock", 1).Error)

	_, err := f.orders.Place(context.Background(), "", request(item.ID, 2))
	var conflict *repository.StockConflictError
	require.True(t, errors.As(err, &conflict))
	assert.Equal(t, 1, conflict.Available)
	assert.Contains(t, conflict.Error(), "Solo quedan 1")

	got, ok := f.catalog.Lookup(item.ID)
	require.True(t, ok)
	assert.Equal(t, 1, got.Stock)
}

func TestDeleteOrderRestoresStock(t *testing.T) {
	f := newFixture(t, at(10, 0))
	item := f.addItem(t, "Milanesa", 1200, 3)
	o, err := f.orders.Place(context.Background(), "", request(item.ID, 2))
	require.NoError(t, err)

	deleted, err := f.admin.Delete(context.Background(), Actor{AdminID: 1}, o.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, deleted.MenuItem.Stock)

	got, ok := f.catalog.Lookup(item.ID)
	require.True(t, ok)
	assert.Equal(t, 3, got.Stock)

	var audits int64
	f.db.Model(&models.AuditLog{}).Where("action = ?", "order.delete").Count(&audits)
	assert.Equal(t, int64(1), audits)
}

func TestListDayStatsAndFilters(t *testing.T) {
	f := newFixture(t, at(10, 0))
	mila := f.addItem(t, "Milanesa", 1200, 10)
	tarta := f.addItem(t, "Tarta", 900, 10)
	ctx := context.Background()

	cash := request(mila.ID, 1)
	cash.PaymentMethod = domain.PaymentCash
	o1, err := f.orders.Place(ctx, "", cash)
	require.NoError(t, err)
	o2, err := f.orders.Place(ctx, "", request(tarta.ID, 2))
	require.NoError(t, err)
	_, err = f.orders.Place(ctx, "", request(mila.ID, 1))
	require.NoError(t, err)

	_, err = f.admin.TogglePaid(ctx, o1.ID)
	require.NoError(t, err)
	_, err = f.admin.SetPrepared(ctx, o2.ID, true, false)
	require.NoError(t, err)

	day, err := f.admin.ListDay(ctx, "", domain.FilterAll, false)
	require.NoError(t, err)
	assert.Equal(t, "2024-05-10", day.Date)
	assert.Len(t, day.Orders, 3)
	assert.Equal(t, 3, day.Stats.Count)
	assert.True(t, decimal.NewFromInt(4200).Equal(day.Stats.Total))
	assert.True(t, decimal.NewFromInt(3000).Equal(day.Stats.UnpaidTotal))
	assert.Equal(t, 2, day.Stats.UnpreparedCount)
	assert.True(t, decimal.NewFromInt(1200).Equal(day.Stats.CashTotal))
	assert.True(t, decimal.NewFromInt(3000).Equal(day.Stats.TransferTotal))
	assert.Equal(t, o1.ID, day.Orders[0].ID)

	unpaid, err := f.admin.ListDay(ctx, "", domain.FilterUnpaid, false)
	require.NoError(t, err)
	assert.Len(t, unpaid.Orders, 2)
	assert.Equal(t, 3, unpaid.Stats.Count)

	kitchen, err := f.admin.ListDay(ctx, "2024-05-10", domain.FilterAll, true)
	require.NoError(t, err)
	assert.Len(t, kitchen.Orders, 2)

	other, err := f.admin.ListDay(ctx, "2024-05-09", "", false)
	require.NoError(t, err)
	assert.Empty(t, other.Orders)
	assert.True(t, other.Stats.Total.IsZero())

	_, err = f.admin.ListDay(ctx, "10/05/2024", "", false)
	var ve *ValidationError
	assert.True(t, errors.As(err, &ve))
	_, err = f.admin.ListDay(ctx, "", "paid", false)
	assert.True(t, errors.As(err, &ve))
}

func TestSetPreparedBuildsMessageLink(t *testing.T) {
	f := newFixture(t, at(10, 0))
	item := f.addItem(t, "Milanesa", 1200, 3)
	o, err := f.orders.Place(context.Background(), "", request(item.ID, 2))
	require.NoError(t, err)

	res, err := f.admin.SetPrepared(context.Background(), o.ID, true, true)
	require.NoError(t, err)
	assert.True(t, res.Order.IsPrepared)
	assert.Contains(t, res.MessageURL, "https://wa.me/541122334455?text=")
	assert.Contains(t, res.MessageURL, "0720069488000006878722")
	assert.Contains(t, res.MessageURL, "2400.00")

	res, err = f.admin.SetPrepared(context.Background(), o.ID, false, true)
	require.NoError(t, err)
	assert.Empty(t, res.MessageURL)
}

func TestMenuAdmin(t *testing.T) {
	f := newFixture(t, at(10, 0))
	ctx := context.Background()
	item := f.addItem(t, "Milanesa", 1200, 1)

	_, err := f.menu.Create(ctx, MenuItemInput{Name: " ", Price: decimal.NewFromInt(1)})
	var ve *ValidationError
	assert.True(t, errors.As(err, &ve))
	_, err = f.menu.Create(ctx, MenuItemInput{Name: "x", Price: decimal.NewFromInt(-1)})
	assert.True(t, errors.As(err, &ve))

	stock, err := f.menu.AdjustStock(ctx, item.ID, -1)
	require.NoError(t, err)
	assert.Equal(t, 0, stock)
	assert.Empty(t, f.catalog.Items())
	stock, err = f.menu.AdjustStock(ctx, item.ID, -1)
	require.NoError(t, err)
	assert.Equal(t, 0, stock)

	updated, err := f.menu.Update(ctx, item.ID, MenuItemInput{Name: "Milanesa napolitana", Price: decimal.NewFromInt(1500), IsActive: true, Stock: 4})
	require.NoError(t, err)
	assert.Equal(t, "Milanesa napolitana", updated.Name)
	assert.Len(t, f.catalog.Items(), 1)

	_, err = f.menu.UploadPhoto(ctx, item.ID, nil)
	assert.ErrorIs(t, err, ErrPhotosDisabled)

	_, err = f.orders.Place(ctx, "", request(item.ID, 1))
	require.NoError(t, err)
	assert.ErrorIs(t, f.menu.Delete(ctx, Actor{}, item.ID), repository.ErrItemHasOrders)
}

func TestSetWindowValidation(t *testing.T) {
	f := newFixture(t, at(10, 0))
	ctx := context.Background()
	var ve *ValidationError

	_, err := f.menu.SetWindow(ctx, WindowInput{StartHour: 24, CutoffHour: 12})
	assert.True(t, errors.As(err, &ve))
	_, err = f.menu.SetWindow(ctx, WindowInput{StartHour: 9, StartMinute: 60, CutoffHour: 12})
	assert.True(t, errors.As(err, &ve))
	_, err = f.menu.SetWindow(ctx, WindowInput{StartHour: 12, CutoffHour: 12})
	assert.True(t, errors.As(err, &ve))

	s, err := f.menu.SetWindow(ctx, WindowInput{StartHour: 8, StartMinute: 15, CutoffHour: 14, CutoffMinute: 45})
	require.NoError(t, err)
	assert.Equal(t, "08:15", s.StartLabel())
	assert.Equal(t, "14:45", f.gate.Availability().Cutoff)
}

func TestConcurrentPlaceNeverOversells(t *testing.T) {
	f := newFixture(t, at(10, 0))
	item := f.addItem(t, "Milanesa", 1200, 3)
	ctx := context.Background()

	var wg sync.WaitGroup
	var mu sync.Mutex
	placed := 0
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := f.orders.Place(ctx, "", request(item.ID, 2)); err == nil {
				mu.Lock()
				placed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, placed, 1)
	got, err := repository.NewMenuRepository(f.db).GetByID(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, 3-2*placed, got.Stock)
	orders, err := f.orderRep.ListByDate(ctx, f.clock.Today())
	require.NoError(t, err)
	assert.Len(t, orders, placed)
}

type blockingNotifier struct {
	release chan struct{}
	got     chan context.Context
}

func (n *blockingNotifier) NotifyNewOrder(ctx context.Context, _ *models.Order) {
	<-n.release
	n.got <- ctx
}

func TestPlaceDoesNotWaitForPush(t *testing.T) {
	f := newFixture(t, at(10, 0))
	item := f.addItem(t, "Milanesa", 1200, 3)
	n := &blockingNotifier{release: make(chan struct{}), got: make(chan context.Context, 1)}
	f.orders.notify = n

	ctx, cancel := context.WithCancel(context.Background())
	_, err := f.orders.Place(ctx, "", request(item.ID, 1))
	require.NoError(t, err)
	cancel()
	close(n.release)

	select {
	case pctx := <-n.got:
		assert.NoError(t, pctx.Err())
		_, hasDeadline := pctx.Deadline()
		assert.True(t, hasDeadline)
	case <-time.After(2 * time.Second):
		t.Fatal("push never sent")
	}
}
