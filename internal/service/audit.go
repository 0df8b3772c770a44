package service

import (
	"context"
	"log/slog"

	"lodelita/internal/models"
	"lodelita/internal/repository"
)

// Actor identifies the admin behind a request, for the audit log.
type Actor struct {
	AdminID   uint
	IP        string
	UserAgent string
}

type auditor struct {
	repo *repository.AuditLogRepository
}

// record writes an audit entry. Failures are logged and never fail the action.
func (a auditor) record(ctx context.Context, actor Actor, action, resource string, resourceID uint) {
	if a.repo == nil {
		return
	}
	entry := &models.AuditLog{
		Action:    action,
		Resource:  resource,
		IP:        actor.IP,
		UserAgent: actor.UserAgent,
	}
	if actor.AdminID != 0 {
		id := actor.AdminID
		entry.AdminID = &id
	}
	if resourceID != 0 {
		rid := resourceID
		entry.ResourceID = &rid
	}
	if err := a.repo.Create(ctx, entry); err != nil {
		slog.WarnContext(ctx, "write audit log", "action", action, "error", err)
	}
}
