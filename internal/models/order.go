package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Order struct {
	ID                uint            `gorm:"primaryKey" json:"id"`
	CustomerFirstName string          `gorm:"size:80;not null" json:"customer_first_name"`
	CustomerLastName  string          `gorm:"size:80;not null" json:"customer_last_name"`
	Phone             string          `gorm:"size:32;not null" json:"phone"`
	MenuItemID        uint            `gorm:"not null;index" json:"menu_item_id"`
	Quantity          int             `gorm:"not null" json:"quantity"`
	PaymentMethod     string          `gorm:"size:20;not null" json:"payment_method"` // cash | transfer
	IsPaid            bool            `gorm:"not null" json:"is_paid"`
	IsPrepared        bool            `gorm:"not null" json:"is_prepared"`
	TotalAmount       decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"total_amount"`
	CreatedAt         time.Time       `gorm:"index" json:"created_at"`
	OrderDate         string          `gorm:"size:10;not null;index" json:"order_date"` // YYYY-MM-DD, restaurant time zone

	MenuItem *MenuItem `gorm:"foreignKey:MenuItemID" json:"menu_item,omitempty"`
}

func (Order) TableName() string { return "orders" }

func (o *Order) CustomerName() string {
	return o.CustomerFirstName + " " + o.CustomerLastName
}

func (o *Order) ItemName() string {
	if o.MenuItem == nil {
		return ""
	}
	return o.MenuItem.Name
}
