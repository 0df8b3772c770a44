package repository

import (
	"context"

	"lodelita/internal/models"

	"gorm.io/gorm"
)

// SettingsRepository reads and writes the single app_settings row.
type SettingsRepository struct {
	db *gorm.DB
}

func NewSettingsRepository(db *gorm.DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

func (r *SettingsRepository) Get(ctx context.Context) (*models.AppSettings, error) {
	var s models.AppSettings
	if err := r.db.WithContext(ctx).First(&s, models.SettingsID).Error; err != nil {
		return nil, notFound(err)
	}
	return &s, nil
}

func (r *SettingsRepository) SetMenuOpen(ctx context.Context, open bool) (*models.AppSettings, error) {
	return r.update(ctx, map[string]interface{}{"menu_open": open})
}

func (r *SettingsRepository) SetWindow(ctx context.Context, startHour, startMinute, cutoffHour, cutoffMinute int) (*models.AppSettings, error) {
	return r.update(ctx, map[string]interface{}{
		"order_start_hour":    startHour,
		"order_start_minute":  startMinute,
		"order_cutoff_hour":   cutoffHour,
		"order_cutoff_minute": cutoffMinute,
	})
}

// update creates the row with defaults first if it was never seeded.
func (r *SettingsRepository) update(ctx context.Context, fields map[string]interface{}) (*models.AppSettings, error) {
	var s models.AppSettings
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		def := models.DefaultSettings()
		if err := tx.Where("id = ?", models.SettingsID).FirstOrCreate(&def).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.AppSettings{}).Where("id = ?", models.SettingsID).Updates(fields).Error; err != nil {
			return err
		}
		return tx.First(&s, models.SettingsID).Error
	})
	if err != nil {
		return nil, err
	}
	return &s, nil
}
