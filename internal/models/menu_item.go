package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type MenuItem struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	Name        string          `gorm:"size:120;not null;index" json:"name"`
	Description *string         `gorm:"type:text" json:"description"`
	Price       decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price"`
	IsActive    bool            `gorm:"not null;index" json:"is_active"`
	Stock       int             `gorm:"not null" json:"stock"`
	ImageURL    string          `gorm:"size:512" json:"image_url,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

func (MenuItem) TableName() string { return "menu_items" }

// Orderable reports whether the item shows on the public menu.
func (m *MenuItem) Orderable() bool { return m.IsActive && m.Stock > 0 }
