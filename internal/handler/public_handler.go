package handler

import (
	"net/http"

	"lodelita/internal/middleware"
	"lodelita/internal/models"
	"lodelita/internal/service"

	"github.com/gin-gonic/gin"
)

// PublicHandler serves the customer page: menu, availability and order intake.
type PublicHandler struct {
	catalog *service.Catalog
	gate    *service.Gate
	orders  *service.OrderService
}

func NewPublicHandler(catalog *service.Catalog, gate *service.Gate, orders *service.OrderService) *PublicHandler {
	return &PublicHandler{catalog: catalog, gate: gate, orders: orders}
}

// Availability handles GET /availability.
func (h *PublicHandler) Availability(c *gin.Context) {
	c.JSON(http.StatusOK, h.gate.Availability())
}

// Menu handles GET /menu. While the menu switch is off the page shows a preparation notice
// and no items.
func (h *PublicHandler) Menu(c *gin.Context) {
	a := h.gate.Availability()
	items := []models.MenuItem{}
	if a.MenuOpen {
		items = h.catalog.Items()
	}
	c.JSON(http.StatusOK, gin.H{"items": items, "availability": a})
}

// Preview handles POST /orders/preview: local validation and the confirmation summary.
func (h *PublicHandler) Preview(c *gin.Context) {
	var req service.OrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	sum, err := h.orders.Preview(req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sum)
}

// Place handles POST /orders.
func (h *PublicHandler) Place(c *gin.Context) {
	var req service.OrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	o, err := h.orders.Place(c.Request.Context(), middleware.GetClientID(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"order": o, "message": "¡Pedido enviado correctamente!"})
}

// History handles GET /orders/history: today's orders placed from this browser.
func (h *PublicHandler) History(c *gin.Context) {
	entries, err := h.orders.History(c.Request.Context(), middleware.GetClientID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": entries})
}
