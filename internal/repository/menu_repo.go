package repository

import (
	"context"
	"errors"

	"lodelita/internal/models"

	"gorm.io/gorm"
)

type MenuRepository struct {
	db *gorm.DB
}

func NewMenuRepository(db *gorm.DB) *MenuRepository {
	return &MenuRepository{db: db}
}

// ListAll returns every item ordered by name (admin view).
func (r *MenuRepository) ListAll(ctx context.Context) ([]models.MenuItem, error) {
	var list []models.MenuItem
	err := r.db.WithContext(ctx).Order("name ASC").Order("id ASC").Find(&list).Error
	return list, err
}

// ListAvailable returns active items with stock left, ordered by name (public view).
func (r *MenuRepository) ListAvailable(ctx context.Context) ([]models.MenuItem, error) {
	var list []models.MenuItem
	err := r.db.WithContext(ctx).
		Where("is_active = ? AND stock > ?", true, 0).
		Order("name ASC").Order("id ASC").
		Find(&list).Error
	return list, err
}

func (r *MenuRepository) GetByID(ctx context.Context, id uint) (*models.MenuItem, error) {
	var item models.MenuItem
	if err := r.db.WithContext(ctx).First(&item, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &item, nil
}

func (r *MenuRepository) Create(ctx context.Context, item *models.MenuItem) error {
	return r.db.WithContext(ctx).Create(item).Error
}

// Update overwrites the editable fields of item, zero values included.
func (r *MenuRepository) Update(ctx context.Context, item *models.MenuItem) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := exists(tx, &models.MenuItem{}, item.ID); err != nil {
			return err
		}
		return tx.Model(&models.MenuItem{ID: item.ID}).
			Select("name", "description", "price", "is_active", "stock", "updated_at").
			Updates(item).Error
	})
}

// Delete removes the item unless an order still references it.
func (r *MenuRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var refs int64
		if err := tx.Model(&models.Order{}).Where("menu_item_id = ?", id).Count(&refs).Error; err != nil {
			return err
		}
		if refs > 0 {
			return ErrItemHasOrders
		}
		res := tx.Delete(&models.MenuItem{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// AdjustStock adds delta to the item's stock, clamping at zero, and returns the new stock.
func (r *MenuRepository) AdjustStock(ctx context.Context, id uint, delta int) (int, error) {
	var stock int
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := exists(tx, &models.MenuItem{}, id); err != nil {
			return err
		}
		err := tx.Model(&models.MenuItem{}).Where("id = ?", id).
			Update("stock", gorm.Expr("CASE WHEN stock + ? < 0 THEN 0 ELSE stock + ? END", delta, delta)).Error
		if err != nil {
			return err
		}
		var item models.MenuItem
		if err := tx.Select("stock").First(&item, id).Error; err != nil {
			return err
		}
		stock = item.Stock
		return nil
	})
	return stock, err
}

func (r *MenuRepository) SetImageURL(ctx context.Context, id uint, url string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := exists(tx, &models.MenuItem{}, id); err != nil {
			return err
		}
		return tx.Model(&models.MenuItem{}).Where("id = ?", id).Update("image_url", url).Error
	})
}

// exists returns ErrNotFound when no row of model has the given id.
func exists(tx *gorm.DB, model interface{}, id uint) error {
	var count int64
	if err := tx.Model(model).Where("id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return ErrNotFound
	}
	return nil
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
