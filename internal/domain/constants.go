package domain

const RoleAdmin = "ADMIN"

const (
	PaymentCash     = "cash"
	PaymentTransfer = "transfer"
)

func ValidPaymentMethod(m string) bool {
	return m == PaymentCash || m == PaymentTransfer
}

// Ordering window states computed by the settings gate.
const (
	WindowBefore = "before"
	WindowOpen   = "open"
	WindowAfter  = "after"
)

// Admin order list filters.
const (
	FilterAll        = "all"
	FilterUnpaid     = "unpaid"
	FilterUnprepared = "unprepared"
)

// Tables whose changes are broadcast.
const (
	TableMenuItems = "menu_items"
	TableOrders    = "orders"
	TableSettings  = "app_settings"
)

const (
	OpInsert = "insert"
	OpUpdate = "update"
	OpDelete = "delete"
)

// Default ordering window when the settings row is missing.
const (
	DefaultStartHour    = 9
	DefaultStartMinute  = 0
	DefaultCutoffHour   = 11
	DefaultCutoffMinute = 30
)

// DateLayout is the calendar date format of orders.order_date.
const DateLayout = "2006-01-02"
