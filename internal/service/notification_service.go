package service

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"lodelita/internal/models"
	"lodelita/internal/repository"
)

// NotificationService pushes kitchen alerts to the devices admins registered.
type NotificationService struct {
	admins *repository.AdminRepository
	fcm    *FCMService
}

func NewNotificationService(admins *repository.AdminRepository, fcm *FCMService) *NotificationService {
	return &NotificationService{admins: admins, fcm: fcm}
}

// RegisterDevice stores the FCM token of an admin's device, replacing the previous one.
func (s *NotificationService) RegisterDevice(ctx context.Context, adminID uint, token string) error {
	if token == "" {
		return invalid("token", "token is required")
	}
	return s.admins.SetFCMToken(ctx, adminID, token)
}

func (s *NotificationService) NotifyNewOrder(ctx context.Context, o *models.Order) {
	if s == nil || s.fcm == nil {
		return
	}
	tokens, err := s.admins.ListFCMTokens(ctx)
	if err != nil {
		slog.Error("list admin devices", "error", err)
		return
	}
	body := fmt.Sprintf("%s: %d x %s ($%s)", o.CustomerName(), o.Quantity, o.ItemName(), o.TotalAmount.StringFixed(2))
	data := map[string]string{
		"type":     "NEW_ORDER",
		"order_id": strconv.FormatUint(uint64(o.ID), 10),
		"date":     o.OrderDate,
	}
	_ = s.fcm.SendMulticast(ctx, tokens, "Nuevo pedido", body, data)
}
