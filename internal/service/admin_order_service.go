package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"lodelita/internal/domain"
	"lodelita/internal/models"
	"lodelita/internal/realtime"
	"lodelita/internal/repository"
	"lodelita/internal/telemetry"
	"lodelita/pkg/messaging"
	"lodelita/pkg/phone"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
)

// DayStats summarises every order of one day, regardless of the active filter.
type DayStats struct {
	Count           int             `json:"count"`
	Total           decimal.Decimal `json:"total"`
	UnpaidTotal     decimal.Decimal `json:"unpaid_total"`
	UnpreparedCount int             `json:"unprepared_count"`
	CashTotal       decimal.Decimal `json:"cash_total"`
	TransferTotal   decimal.Decimal `json:"transfer_total"`
}

// DayOrders is the admin orders view of one date.
type DayOrders struct {
	Date   string         `json:"date"`
	Filter string         `json:"filter"`
	Orders []models.Order `json:"orders"`
	Stats  DayStats       `json:"stats"`
}

// PreparedResult carries the order and, when requested, the link that notifies the customer.
type PreparedResult struct {
	Order      *models.Order `json:"order"`
	MessageURL string        `json:"message_url,omitempty"`
}

type AdminOrderService struct {
	orders          *repository.OrderRepository
	bridge          *realtime.Bridge
	clock           *Clock
	audit           auditor
	countryCode     string
	transferAccount string
}

func NewAdminOrderService(orders *repository.OrderRepository, bridge *realtime.Bridge, clock *Clock,
	audit *repository.AuditLogRepository, countryCode, transferAccount string) *AdminOrderService {
	return &AdminOrderService{
		orders:          orders,
		bridge:          bridge,
		clock:           clock,
		audit:           auditor{repo: audit},
		countryCode:     countryCode,
		transferAccount: transferAccount,
	}
}

// ComputeStats folds the orders of a day into totals.
func ComputeStats(list []models.Order) DayStats {
	st := DayStats{Total: decimal.Zero, UnpaidTotal: decimal.Zero, CashTotal: decimal.Zero, TransferTotal: decimal.Zero}
	for _, o := range list {
		st.Count++
		st.Total = st.Total.Add(o.TotalAmount)
		if !o.IsPaid {
			st.UnpaidTotal = st.UnpaidTotal.Add(o.TotalAmount)
		}
		if !o.IsPrepared {
			st.UnpreparedCount++
		}
		switch o.PaymentMethod {
		case domain.PaymentCash:
			st.CashTotal = st.CashTotal.Add(o.TotalAmount)
		case domain.PaymentTransfer:
			st.TransferTotal = st.TransferTotal.Add(o.TotalAmount)
		}
	}
	return st
}

// FilterOrders applies the list filter and kitchen mode, which hides prepared orders.
func FilterOrders(list []models.Order, filter string, kitchen bool) []models.Order {
	out := make([]models.Order, 0, len(list))
	for _, o := range list {
		if kitchen && o.IsPrepared {
			continue
		}
		switch filter {
		case domain.FilterUnpaid:
			if o.IsPaid {
				continue
			}
		case domain.FilterUnprepared:
			if o.IsPrepared {
				continue
			}
		}
		out = append(out, o)
	}
	return out
}

// ListDay returns the orders of date (today when empty), filtered, with stats over the whole day.
func (s *AdminOrderService) ListDay(ctx context.Context, date, filter string, kitchen bool) (*DayOrders, error) {
	if date == "" {
		date = s.clock.Today()
	} else if _, err := time.Parse(domain.DateLayout, date); err != nil {
		return nil, invalid("date", "date must be YYYY-MM-DD")
	}
	switch filter {
	case "":
		filter = domain.FilterAll
	case domain.FilterAll, domain.FilterUnpaid, domain.FilterUnprepared:
	default:
		return nil, invalid("filter", "filter must be all, unpaid or unprepared")
	}
	list, err := s.orders.ListByDate(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return &DayOrders{
		Date:   date,
		Filter: filter,
		Orders: FilterOrders(list, filter, kitchen),
		Stats:  ComputeStats(list),
	}, nil
}

func (s *AdminOrderService) TogglePaid(ctx context.Context, id uint) (*models.Order, error) {
	o, err := s.orders.TogglePaid(ctx, id)
	if err != nil {
		return nil, err
	}
	_ = s.bridge.Publish(ctx, realtime.Event{Table: domain.TableOrders, Op: domain.OpUpdate, ID: id})
	return o, nil
}

// SetPrepared stores the flag. When the order becomes prepared and notify is set, the result
// includes a wa.me link with the payment-specific message for the customer.
func (s *AdminOrderService) SetPrepared(ctx context.Context, id uint, prepared, notify bool) (*PreparedResult, error) {
	o, err := s.orders.SetPrepared(ctx, id, prepared)
	if err != nil {
		return nil, err
	}
	_ = s.bridge.Publish(ctx, realtime.Event{Table: domain.TableOrders, Op: domain.OpUpdate, ID: id})
	res := &PreparedResult{Order: o}
	if prepared && notify {
		res.MessageURL = s.ReadyLink(o)
	}
	return res, nil
}

// ReadyLink builds the customer notification link of o.
func (s *AdminOrderService) ReadyLink(o *models.Order) string {
	n := messaging.ReadyNotice{
		CustomerName:    o.CustomerName(),
		ItemName:        o.ItemName(),
		Quantity:        o.Quantity,
		Total:           o.TotalAmount,
		Transfer:        o.PaymentMethod == domain.PaymentTransfer,
		TransferAccount: s.transferAccount,
	}
	return messaging.Link(phone.International(o.Phone, s.countryCode), n.Text())
}

// Delete removes the order and gives its quantity back to the menu item in one transaction.
func (s *AdminOrderService) Delete(ctx context.Context, actor Actor, id uint) (*models.Order, error) {
	ctx, span := telemetry.Tracer().Start(ctx, "order.delete")
	defer span.End()
	span.SetAttributes(attribute.Int64("order.id", int64(id)))

	o, err := s.orders.DeleteRestoringStock(ctx, id)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	slog.InfoContext(ctx, "order deleted, stock restored", "order_id", id, "menu_item_id", o.MenuItemID, "quantity", o.Quantity)
	s.audit.record(ctx, actor, "order.delete", domain.TableOrders, id)
	_ = s.bridge.Publish(ctx, realtime.Event{Table: domain.TableOrders, Op: domain.OpDelete, ID: id})
	_ = s.bridge.Publish(ctx, realtime.Event{Table: domain.TableMenuItems, Op: domain.OpUpdate, ID: o.MenuItemID})
	return o, nil
}
