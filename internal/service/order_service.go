package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"lodelita/internal/domain"
	"lodelita/internal/history"
	"lodelita/internal/models"
	"lodelita/internal/realtime"
	"lodelita/internal/repository"
	"lodelita/internal/telemetry"
	"lodelita/pkg/phone"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// OrderRequest is the public order form.
type OrderRequest struct {
	FirstName     string `json:"first_name"`
	LastName      string `json:"last_name"`
	Phone         string `json:"phone"`
	MenuItemID    uint   `json:"menu_item_id"`
	Quantity      int    `json:"quantity"`
	PaymentMethod string `json:"payment_method"`
}

// Summary is shown to the customer for confirmation before the order is committed.
type Summary struct {
	CustomerName  string          `json:"customer_name"`
	Phone         string          `json:"phone"`
	MenuItemID    uint            `json:"menu_item_id"`
	ItemName      string          `json:"item_name"`
	Quantity      int             `json:"quantity"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	Total         decimal.Decimal `json:"total"`
	PaymentMethod string          `json:"payment_method"`
}

type orderNotifier interface {
	NotifyNewOrder(ctx context.Context, o *models.Order)
}

// notifyTimeout bounds the push sent after an order commits.
const notifyTimeout = 10 * time.Second

type OrderService struct {
	orders  *repository.OrderRepository
	catalog *Catalog
	gate    *Gate
	clock   *Clock
	bridge  *realtime.Bridge
	history *history.Book
	notify  orderNotifier
}

func NewOrderService(orders *repository.OrderRepository, catalog *Catalog, gate *Gate, clock *Clock,
	bridge *realtime.Bridge, book *history.Book, notify *NotificationService) *OrderService {
	return &OrderService{
		orders:  orders,
		catalog: catalog,
		gate:    gate,
		clock:   clock,
		bridge:  bridge,
		history: book,
		notify:  notify,
	}
}

// Preview validates req against the gate and the cached catalog, without touching the database.
func (s *OrderService) Preview(req OrderRequest) (*Summary, error) {
	if !s.gate.CanOrder() {
		return nil, ErrOrderingClosed
	}
	req.normalize()
	if req.MenuItemID == 0 {
		return nil, invalid("menu_item_id", "Seleccioná un plato.")
	}
	if req.FirstName == "" || req.LastName == "" || req.Phone == "" {
		return nil, invalid(req.missingField(), "Completá nombre, apellido y teléfono.")
	}
	if !phone.Valid(req.Phone) {
		return nil, invalid("phone", "Ingresá un teléfono válido de Argentina (solo números, con o sin código de área).")
	}
	if !domain.ValidPaymentMethod(req.PaymentMethod) {
		return nil, invalid("payment_method", "Elegí efectivo o transferencia.")
	}
	if req.Quantity < 1 {
		return nil, invalid("quantity", "La cantidad debe ser al menos 1.")
	}
	item, ok := s.catalog.Lookup(req.MenuItemID)
	if !ok {
		return nil, invalid("menu_item_id", "El plato seleccionado ya no está disponible.")
	}
	if req.Quantity > item.Stock {
		return nil, invalid("quantity", fmt.Sprintf("Solo quedan %d unidades de \"%s\".", item.Stock, item.Name))
	}
	return &Summary{
		CustomerName:  req.FirstName + " " + req.LastName,
		Phone:         req.Phone,
		MenuItemID:    item.ID,
		ItemName:      item.Name,
		Quantity:      req.Quantity,
		UnitPrice:     item.Price,
		Total:         item.Price.Mul(decimal.NewFromInt(int64(req.Quantity))),
		PaymentMethod: req.PaymentMethod,
	}, nil
}

// Place validates req again and commits it. The stock check and decrement happen in the same
// transaction as the insert, so a stale catalog can never oversell. clientID, when set, receives
// a history entry.
func (s *OrderService) Place(ctx context.Context, clientID string, req OrderRequest) (*models.Order, error) {
	ctx, span := telemetry.Tracer().Start(ctx, "order.place")
	defer span.End()

	sum, err := s.Preview(req)
	if err != nil {
		return nil, err
	}
	req.normalize()
	span.SetAttributes(
		attribute.Int64("menu_item.id", int64(sum.MenuItemID)),
		attribute.Int("order.quantity", sum.Quantity),
	)
	o := &models.Order{
		CustomerFirstName: req.FirstName,
		CustomerLastName:  req.LastName,
		Phone:             req.Phone,
		MenuItemID:        sum.MenuItemID,
		Quantity:          sum.Quantity,
		PaymentMethod:     sum.PaymentMethod,
		OrderDate:         s.clock.Today(),
		CreatedAt:         s.clock.Now(),
	}
	if err := s.orders.Place(ctx, o); err != nil {
		var conflict *repository.StockConflictError
		if errors.As(err, &conflict) {
			span.SetStatus(codes.Error, "stock conflict")
			// The customer is asked to reload; make sure the next read is fresh.
			_ = s.catalog.Reload(ctx)
			return nil, err
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		slog.ErrorContext(ctx, "commit order", "menu_item_id", o.MenuItemID, "error", err)
		return nil, fmt.Errorf("commit order: %w", err)
	}
	span.SetAttributes(attribute.Int64("order.id", int64(o.ID)))

	_ = s.bridge.Publish(ctx, realtime.Event{Table: domain.TableOrders, Op: domain.OpInsert, ID: o.ID})
	_ = s.bridge.Publish(ctx, realtime.Event{Table: domain.TableMenuItems, Op: domain.OpUpdate, ID: o.MenuItemID})

	if clientID != "" && s.history != nil {
		entry := history.Entry{
			OrderID:       o.ID,
			ItemName:      o.ItemName(),
			Quantity:      o.Quantity,
			PaymentMethod: o.PaymentMethod,
			Total:         o.TotalAmount,
			CreatedAt:     o.CreatedAt,
			Date:          o.OrderDate,
		}
		if err := s.history.Append(ctx, clientID, entry); err != nil {
			slog.WarnContext(ctx, "append order history", "error", err)
		}
	}
	// Pushed off the request path.
	pushed := *o
	go func() {
		nctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
		defer cancel()
		s.notify.NotifyNewOrder(nctx, &pushed)
	}()
	return o, nil
}

// History returns today's orders of the customer identified by clientID.
func (s *OrderService) History(ctx context.Context, clientID string) ([]history.Entry, error) {
	if clientID == "" || s.history == nil {
		return []history.Entry{}, nil
	}
	return s.history.ForDate(ctx, clientID, s.clock.Today())
}

func (r *OrderRequest) normalize() {
	r.FirstName = strings.TrimSpace(r.FirstName)
	r.LastName = strings.TrimSpace(r.LastName)
	r.Phone = strings.TrimSpace(r.Phone)
	r.PaymentMethod = strings.ToLower(strings.TrimSpace(r.PaymentMethod))
}

func (r *OrderRequest) missingField() string {
	switch {
	case r.FirstName == "":
		return "first_name"
	case r.LastName == "":
		return "last_name"
	default:
		return "phone"
	}
}
