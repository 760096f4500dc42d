package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"asset-pool-backend/internal/model"
	"asset-pool-backend/internal/store"
)

type registerUserRequest struct {
	Login    string `json:"login" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// RegisterUser handles POST /api/users.
func (h *Handler) RegisterUser(c *gin.Context) {
	var req registerUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.store.CreateUser(c.Request.Context(), req.Login, req.Password); err != nil {
		if errors.Is(err, store.ErrUserExists) {
			c.JSON(http.StatusConflict, gin.H{"error": "user already exists"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"status": "created"})
}

// TakenDevices handles GET /api/users/:login/devices, listing the devices
// currently held by the given login.
func (h *Handler) TakenDevices(c *gin.Context) {
	devices, err := h.reserve.TakenDevices(c.Request.Context(), c.Param("login"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if devices == nil {
		devices = []model.Device{}
	}
	c.JSON(http.StatusOK, devices)
}
