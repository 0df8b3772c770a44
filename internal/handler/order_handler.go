package handler

import (
	"net/http"

	"lodelita/internal/service"

	"github.com/gin-gonic/gin"
)

// OrderHandler is the admin orders board.
type OrderHandler struct {
	orderSvc *service.AdminOrderService
}

func NewOrderHandler(orderSvc *service.AdminOrderService) *OrderHandler {
	return &OrderHandler{orderSvc: orderSvc}
}

// List handles GET /admin/orders?date=&filter=&kitchen=.
func (h *OrderHandler) List(c *gin.Context) {
	kitchen := c.Query("kitchen") == "true" || c.Query("kitchen") == "1"
	day, err := h.orderSvc.ListDay(c.Request.Context(), c.Query("date"), c.Query("filter"), kitchen)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, day)
}

// TogglePaid handles PATCH /admin/orders/:id/paid.
func (h *OrderHandler) TogglePaid(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	o, err := h.orderSvc.TogglePaid(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

// SetPrepared handles PATCH /admin/orders/:id/prepared.
func (h *OrderHandler) SetPrepared(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req struct {
		Prepared *bool `json:"prepared" binding:"required"`
		Notify   bool  `json:"notify"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "prepared is required"})
		return
	}
	res, err := h.orderSvc.SetPrepared(c.Request.Context(), id, *req.Prepared, req.Notify)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// Delete handles DELETE /admin/orders/:id. The order's quantity goes back to stock.
func (h *OrderHandler) Delete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	o, err := h.orderSvc.Delete(c.Request.Context(), actorOf(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	stock := 0
	if o.MenuItem != nil {
		stock = o.MenuItem.Stock
	}
	c.JSON(http.StatusOK, gin.H{"id": o.ID, "menu_item_id": o.MenuItemID, "restored": o.Quantity, "stock": stock})
}
