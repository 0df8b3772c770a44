package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"lodelita/internal/auth"
	"lodelita/internal/middleware"
	"lodelita/internal/repository"
	"lodelita/internal/service"

	"github.com/gin-gonic/gin"
)

// respondError maps service and repository errors onto HTTP responses. Anything unrecognised is
// logged and answered with a generic 500.
func respondError(c *gin.Context, err error) {
	var ve *service.ValidationError
	var conflict *repository.StockConflictError
	switch {
	case errors.As(err, &ve):
		c.JSON(http.StatusBadRequest, gin.H{"error": ve.Message, "field": ve.Field})
	case errors.Is(err, service.ErrOrderingClosed):
		c.JSON(http.StatusForbidden, gin.H{"error": "Los pedidos están cerrados en este momento."})
	case errors.As(err, &conflict):
		c.JSON(http.StatusConflict, gin.H{"error": conflict.Error(), "available": conflict.Available, "reload": true})
	case errors.Is(err, repository.ErrItemHasOrders):
		c.JSON(http.StatusConflict, gin.H{"error": "No se puede eliminar el plato porque tiene pedidos asociados. Desactivalo en su lugar."})
	case errors.Is(err, repository.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, service.ErrInvalidCreds):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
	case errors.Is(err, auth.ErrInvalidToken):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
	case errors.Is(err, service.ErrPhotosDisabled):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	default:
		slog.ErrorContext(c.Request.Context(), "request failed", "path", c.FullPath(), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Ocurrió un error. Intentá de nuevo."})
	}
}

func parseID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return uint(id), true
}

func actorOf(c *gin.Context) service.Actor {
	return service.Actor{
		AdminID:   middleware.GetAdminID(c),
		IP:        c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	}
}
