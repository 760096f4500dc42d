package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"asset-pool-backend/internal/media"
	"asset-pool-backend/internal/store"
)

// UploadImage handles POST /api/devices/:id/image. The multipart form must
// carry the file under the "image" field; its declared content type decides
// whether the upload is accepted.
func (h *Handler) UploadImage(c *gin.Context) {
	id, ok := deviceID(c)
	if !ok {
		return
	}

	fileHeader, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no image file uploaded"})
		return
	}

	f, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	defer f.Close()

	raw, err := io.ReadAll(f)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	kind := fileHeader.Header.Get("Content-Type")
	if err := h.media.Attach(c.Request.Context(), id, raw, kind); err != nil {
		switch {
		case errors.Is(err, media.ErrUnsupportedMedia):
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid file format"})
		case errors.Is(err, store.ErrDeviceNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "device not found"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "image uploaded"})
}

// ViewImage handles GET /api/devices/:id/image, serving the attached image
// with the media kind it was uploaded under.
func (h *Handler) ViewImage(c *gin.Context) {
	id, ok := deviceID(c)
	if !ok {
		return
	}

	raw, mime, err := h.media.Image(c.Request.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrDeviceNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "device not found"})
		case errors.Is(err, store.ErrImageNotSet):
			c.JSON(http.StatusNotFound, gin.H{"error": "image not found"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}
	if mime == "" {
		mime = "image/png"
	}
	c.Data(http.StatusOK, mime, raw)
}
