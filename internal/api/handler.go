package api

import (
	"net/http"
	"strconv"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"

	"asset-pool-backend/internal/media"
	"asset-pool-backend/internal/qr"
	"asset-pool-backend/internal/reserve"
	"asset-pool-backend/internal/store"
)

// Handler holds shared dependencies for API handlers.
type Handler struct {
	store   store.Store
	media   *media.Service
	reserve *reserve.Service
	qr      *qr.Renderer
	webpush *webpush.Options
}

// NewHandler creates a new API handler.
func NewHandler(s store.Store, m *media.Service, r *reserve.Service, renderer *qr.Renderer, webpushOptions *webpush.Options) *Handler {
	return &Handler{
		store:   s,
		media:   m,
		reserve: r,
		qr:      renderer,
		webpush: webpushOptions,
	}
}

// deviceID parses the :id path parameter. Identifiers arrive as text and
// must parse to the registry's integer key; a malformed id is a client
// error, never a silent non-match.
func deviceID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid device id"})
		return 0, false
	}
	return id, true
}
