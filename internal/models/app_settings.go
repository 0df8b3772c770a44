package models

import (
	"fmt"
	"time"

	"lodelita/internal/domain"
)

// SettingsID is the primary key of the single app_settings row.
const SettingsID = 1

// AppSettings holds the public menu switch and the daily ordering window.
type AppSettings struct {
	ID                uint      `gorm:"primaryKey;autoIncrement:false" json:"id"`
	MenuOpen          bool      `gorm:"not null" json:"menu_open"`
	OrderStartHour    int       `gorm:"not null" json:"order_start_hour"`
	OrderStartMinute  int       `gorm:"not null" json:"order_start_minute"`
	OrderCutoffHour   int       `gorm:"not null" json:"order_cutoff_hour"`
	OrderCutoffMinute int       `gorm:"not null" json:"order_cutoff_minute"`
	UpdatedAt         time.Time `json:"updated_at"`
}

func (AppSettings) TableName() string { return "app_settings" }

func DefaultSettings() AppSettings {
	return AppSettings{
		ID:                SettingsID,
		MenuOpen:          true,
		OrderStartHour:    domain.DefaultStartHour,
		OrderStartMinute:  domain.DefaultStartMinute,
		OrderCutoffHour:   domain.DefaultCutoffHour,
		OrderCutoffMinute: domain.DefaultCutoffMinute,
	}
}

// StartMinutes and CutoffMinutes return the window bounds as minutes since midnight.
func (s AppSettings) StartMinutes() int  { return s.OrderStartHour*60 + s.OrderStartMinute }
func (s AppSettings) CutoffMinutes() int { return s.OrderCutoffHour*60 + s.OrderCutoffMinute }

func (s AppSettings) StartLabel() string  { return clock(s.OrderStartHour, s.OrderStartMinute) }
func (s AppSettings) CutoffLabel() string { return clock(s.OrderCutoffHour, s.OrderCutoffMinute) }

func clock(h, m int) string { return fmt.Sprintf("%02d:%02d", h, m) }
