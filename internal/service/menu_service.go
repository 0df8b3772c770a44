package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"lodelita/internal/domain"
	"lodelita/internal/models"
	"lodelita/internal/realtime"
	"lodelita/internal/repository"
	"lodelita/pkg/cloudinary"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var ErrPhotosDisabled = errors.New("photo uploads are not configured")

// MenuItemInput is the admin form for creating or editing a menu item.
type MenuItemInput struct {
	Name        string          `json:"name"`
	Description *string         `json:"description"`
	Price       decimal.Decimal `json:"price"`
	IsActive    bool            `json:"is_active"`
	Stock       int             `json:"stock"`
}

func (in *MenuItemInput) validate() error {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return invalid("name", "name is required")
	}
	if in.Price.IsNegative() {
		return invalid("price", "price must not be negative")
	}
	if in.Stock < 0 {
		return invalid("stock", "stock must not be negative")
	}
	if in.Description != nil {
		d := strings.TrimSpace(*in.Description)
		if d == "" {
			in.Description = nil
		} else {
			in.Description = &d
		}
	}
	return nil
}

// WindowInput is the ordering window editor.
type WindowInput struct {
	StartHour    int `json:"start_hour"`
	StartMinute  int `json:"start_minute"`
	CutoffHour   int `json:"cutoff_hour"`
	CutoffMinute int `json:"cutoff_minute"`
}

func (w WindowInput) validate() error {
	for _, f := range []struct {
		name string
		v    int
		max  int
	}{
		{"start_hour", w.StartHour, 23},
		{"start_minute", w.StartMinute, 59},
		{"cutoff_hour", w.CutoffHour, 23},
		{"cutoff_minute", w.CutoffMinute, 59},
	} {
		if f.v < 0 || f.v > f.max {
			return invalid(f.name, fmt.Sprintf("%s must be between 0 and %d", f.name, f.max))
		}
	}
	if w.StartHour*60+w.StartMinute >= w.CutoffHour*60+w.CutoffMinute {
		return invalid("cutoff_hour", "cutoff must be after start")
	}
	return nil
}

// MenuService is the admin side of the catalog and of the settings row.
type MenuService struct {
	menu     *repository.MenuRepository
	settings *repository.SettingsRepository
	bridge   *realtime.Bridge
	photos   cloudinary.Client
	audit    auditor
}

func NewMenuService(menu *repository.MenuRepository, settings *repository.SettingsRepository, bridge *realtime.Bridge,
	photos cloudinary.Client, audit *repository.AuditLogRepository) *MenuService {
	return &MenuService{menu: menu, settings: settings, bridge: bridge, photos: photos, audit: auditor{repo: audit}}
}

func (s *MenuService) List(ctx context.Context) ([]models.MenuItem, error) {
	return s.menu.ListAll(ctx)
}

func (s *MenuService) Create(ctx context.Context, in MenuItemInput) (*models.MenuItem, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	item := &models.MenuItem{
		Name:        in.Name,
		Description: in.Description,
		Price:       in.Price,
		IsActive:    in.IsActive,
		Stock:       in.Stock,
	}
	if err := s.menu.Create(ctx, item); err != nil {
		return nil, fmt.Errorf("create menu item: %w", err)
	}
	s.changed(ctx, domain.OpInsert, item.ID)
	return item, nil
}

func (s *MenuService) Update(ctx context.Context, id uint, in MenuItemInput) (*models.MenuItem, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	item := &models.MenuItem{
		ID:          id,
		Name:        in.Name,
		Description: in.Description,
		Price:       in.Price,
		IsActive:    in.IsActive,
		Stock:       in.Stock,
	}
	if err := s.menu.Update(ctx, item); err != nil {
		return nil, err
	}
	s.changed(ctx, domain.OpUpdate, id)
	return s.menu.GetByID(ctx, id)
}

// Delete refuses with repository.ErrItemHasOrders while any order references the item.
func (s *MenuService) Delete(ctx context.Context, actor Actor, id uint) error {
	if err := s.menu.Delete(ctx, id); err != nil {
		return err
	}
	s.audit.record(ctx, actor, "menu_item.delete", domain.TableMenuItems, id)
	s.changed(ctx, domain.OpDelete, id)
	return nil
}

// AdjustStock adds delta to the stock, never going below zero, and returns the new stock.
func (s *MenuService) AdjustStock(ctx context.Context, id uint, delta int) (int, error) {
	stock, err := s.menu.AdjustStock(ctx, id, delta)
	if err != nil {
		return 0, err
	}
	s.changed(ctx, domain.OpUpdate, id)
	return stock, nil
}

// UploadPhoto stores the image on Cloudinary and points the item at it.
func (s *MenuService) UploadPhoto(ctx context.Context, id uint, file io.Reader) (*models.MenuItem, error) {
	if s.photos == nil {
		return nil, ErrPhotosDisabled
	}
	if _, err := s.menu.GetByID(ctx, id); err != nil {
		return nil, err
	}
	folder := "lodelita/menu/" + strconv.FormatUint(uint64(id), 10)
	publicID := "img_" + strings.ReplaceAll(uuid.New().String(), "-", "")[:16]
	url, _, err := s.photos.UploadImage(ctx, file, folder, publicID)
	if err != nil {
		return nil, fmt.Errorf("upload photo: %w", err)
	}
	if err := s.menu.SetImageURL(ctx, id, url); err != nil {
		return nil, err
	}
	s.changed(ctx, domain.OpUpdate, id)
	return s.menu.GetByID(ctx, id)
}

func (s *MenuService) Settings(ctx context.Context) (*models.AppSettings, error) {
	return s.settings.Get(ctx)
}

func (s *MenuService) SetMenuOpen(ctx context.Context, open bool) (*models.AppSettings, error) {
	st, err := s.settings.SetMenuOpen(ctx, open)
	if err != nil {
		return nil, fmt.Errorf("save menu switch: %w", err)
	}
	_ = s.bridge.Publish(ctx, realtime.Event{Table: domain.TableSettings, Op: domain.OpUpdate, ID: models.SettingsID})
	return st, nil
}

func (s *MenuService) SetWindow(ctx context.Context, in WindowInput) (*models.AppSettings, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	st, err := s.settings.SetWindow(ctx, in.StartHour, in.StartMinute, in.CutoffHour, in.CutoffMinute)
	if err != nil {
		return nil, fmt.Errorf("save ordering window: %w", err)
	}
	_ = s.bridge.Publish(ctx, realtime.Event{Table: domain.TableSettings, Op: domain.OpUpdate, ID: models.SettingsID})
	return st, nil
}

func (s *MenuService) changed(ctx context.Context, op string, id uint) {
	_ = s.bridge.Publish(ctx, realtime.Event{Table: domain.TableMenuItems, Op: op, ID: id})
}
