package handler

import (
	"net/http"
	"strings"

	"lodelita/internal/service"

	"github.com/gin-gonic/gin"
)

const maxPhotoSize = 8 << 20

type UploadHandler struct {
	menuSvc *service.MenuService
}

func NewUploadHandler(menuSvc *service.MenuService) *UploadHandler {
	return &UploadHandler{menuSvc: menuSvc}
}

// UploadMenuPhoto handles POST /admin/menu/:id/photo (multipart field "file").
func (h *UploadHandler) UploadMenuPhoto(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file required"})
		return
	}
	if file.Size > maxPhotoSize {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file too large"})
		return
	}
	if ct := file.Header.Get("Content-Type"); ct != "" && !strings.HasPrefix(ct, "image/") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "only images are accepted"})
		return
	}
	f, err := file.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "could not read file"})
		return
	}
	defer f.Close()

	item, err := h.menuSvc.UploadPhoto(c.Request.Context(), id, f)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}
