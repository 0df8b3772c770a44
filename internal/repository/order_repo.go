package repository

import (
	"context"

	"lodelita/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type OrderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// Place decrements the item's stock by order.Quantity only if enough is left, and inserts the order
// in the same transaction. TotalAmount is computed from the current price. On success order.MenuItem
// holds the item with its new stock; a short stock returns *StockConflictError with the stock read
// inside the transaction.
func (r *OrderRepository) Place(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var item models.MenuItem
		if err := tx.First(&item, order.MenuItemID).Error; err != nil {
			return notFound(err)
		}
		conflict := &StockConflictError{ItemID: item.ID, ItemName: item.Name, Requested: order.Quantity}
		if !item.IsActive {
			return conflict
		}
		res := tx.Model(&models.MenuItem{}).
			Where("id = ? AND stock >= ?", item.ID, order.Quantity).
			Update("stock", gorm.Expr("stock - ?", order.Quantity))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			var current models.MenuItem
			if err := tx.Select("stock").First(&current, item.ID).Error; err != nil {
				return err
			}
			conflict.Available = current.Stock
			return conflict
		}
		order.TotalAmount = item.Price.Mul(decimal.NewFromInt(int64(order.Quantity)))
		if err := tx.Omit("MenuItem").Create(order).Error; err != nil {
			return err
		}
		item.Stock -= order.Quantity
		order.MenuItem = &item
		return nil
	})
}

// ListByDate returns the orders of one calendar day, oldest first, with their menu item.
func (r *OrderRepository) ListByDate(ctx context.Context, date string) ([]models.Order, error) {
	var list []models.Order
	err := r.db.WithContext(ctx).
		Preload("MenuItem").
		Where("order_date = ?", date).
		Order("created_at ASC").Order("id ASC").
		Find(&list).Error
	return list, err
}

func (r *OrderRepository) GetByID(ctx context.Context, id uint) (*models.Order, error) {
	var o models.Order
	if err := r.db.WithContext(ctx).Preload("MenuItem").First(&o, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &o, nil
}

// TogglePaid flips is_paid and returns the updated order.
func (r *OrderRepository) TogglePaid(ctx context.Context, id uint) (*models.Order, error) {
	var o models.Order
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&o, id).Error; err != nil {
			return notFound(err)
		}
		o.IsPaid = !o.IsPaid
		return tx.Model(&models.Order{}).Where("id = ?", id).Update("is_paid", o.IsPaid).Error
	})
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

func (r *OrderRepository) SetPrepared(ctx context.Context, id uint, prepared bool) (*models.Order, error) {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := exists(tx, &models.Order{}, id); err != nil {
			return err
		}
		return tx.Model(&models.Order{}).Where("id = ?", id).Update("is_prepared", prepared).Error
	})
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

// DeleteRestoringStock gives the order's quantity back to its menu item and removes the order,
// atomically. It returns the deleted order with MenuItem carrying the restored stock.
func (r *OrderRepository) DeleteRestoringStock(ctx context.Context, id uint) (*models.Order, error) {
	var o models.Order
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&o, id).Error; err != nil {
			return notFound(err)
		}
		if err := tx.Model(&models.MenuItem{}).Where("id = ?", o.MenuItemID).
			Update("stock", gorm.Expr("stock + ?", o.Quantity)).Error; err != nil {
			return err
		}
		if err := tx.Delete(&models.Order{}, o.ID).Error; err != nil {
			return err
		}
		var item models.MenuItem
		if err := tx.First(&item, o.MenuItemID).Error; err == nil {
			o.MenuItem = &item
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &o, nil
}
