package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"asset-pool-backend/internal/reserve"
	"asset-pool-backend/internal/store"
)

type credentialsRequest struct {
	Login    string `json:"login" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// TakeDevice handles POST /api/devices/:id/take.
func (h *Handler) TakeDevice(c *gin.Context) {
	id, ok := deviceID(c)
	if !ok {
		return
	}

	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.reserve.Take(c.Request.Context(), id, req.Login, req.Password); err != nil {
		h.reservationError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "reserved"})
}

// ReleaseDevice handles POST /api/devices/:id/release. Only the current
// holder may return a device to the pool.
func (h *Handler) ReleaseDevice(c *gin.Context) {
	id, ok := deviceID(c)
	if !ok {
		return
	}

	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.reserve.Release(c.Request.Context(), id, req.Login, req.Password); err != nil {
		h.reservationError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "released"})
}

// reservationError translates workflow errors into status codes. Callers
// need to tell the four failure kinds apart, each implies a different
// corrective action.
func (h *Handler) reservationError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, store.ErrDeviceNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "device not found"})
	case errors.Is(err, store.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
	case errors.Is(err, reserve.ErrBadCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "wrong password"})
	case errors.Is(err, store.ErrDeviceTaken):
		c.JSON(http.StatusConflict, gin.H{"error": "device already taken"})
	case errors.Is(err, store.ErrNotHolder):
		c.JSON(http.StatusConflict, gin.H{"error": "device is not held by this user"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
