package repository

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound      = errors.New("record not found")
	ErrItemHasOrders = errors.New("menu item has orders")
)

// StockConflictError is returned when the stock read inside the commit cannot cover the requested
// quantity. Its message is shown to the customer as is.
type StockConflictError struct {
	ItemID    uint
	ItemName  string
	Available int
	Requested int
}

func (e *StockConflictError) Error() string {
	if e.Available <= 0 {
		return fmt.Sprintf("El plato \"%s\" ya no tiene stock disponible.", e.ItemName)
	}
	return fmt.Sprintf("Solo quedan %d unidades de \"%s\". Ajustá la cantidad e intentá nuevamente.", e.Available, e.ItemName)
}
