package api

import (
	"encoding/base64"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"asset-pool-backend/internal/model"
	"asset-pool-backend/internal/store"
)

type deviceRequest struct {
	Name         string `json:"name" binding:"required"`
	Description  string `json:"description"`
	SerialNumber string `json:"serialNumber"`
	Manufacturer string `json:"manufacturer"`
}

// registeredDeviceResponse echoes the created device together with its
// rendered tag code (base64 PNG). The raw image remains available at
// GET /api/devices/:id/qrcode.
type registeredDeviceResponse struct {
	model.Device
	QRCode string `json:"qrcode"`
}

// RegisterDevice handles POST /api/devices.
func (h *Handler) RegisterDevice(c *gin.Context) {
	var req deviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	device := &model.Device{
		Name:         req.Name,
		Description:  req.Description,
		SerialNumber: req.SerialNumber,
		Manufacturer: req.Manufacturer,
	}
	if err := h.store.CreateDevice(c.Request.Context(), device); err != nil {
		if errors.Is(err, store.ErrDeviceExists) {
			c.JSON(http.StatusConflict, gin.H{"error": "device already exists"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	png, err := h.qr.RenderDeviceCode(device.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, registeredDeviceResponse{
		Device: *device,
		QRCode: base64.StdEncoding.EncodeToString(png),
	})
}

// ListDevices handles GET /api/devices, returning the names of all devices
// in registration order.
func (h *Handler) ListDevices(c *gin.Context) {
	names, err := h.store.DeviceNames(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if names == nil {
		names = []string{}
	}
	c.JSON(http.StatusOK, names)
}

// GetDevice handles GET /api/devices/:id.
func (h *Handler) GetDevice(c *gin.Context) {
	id, ok := deviceID(c)
	if !ok {
		return
	}

	device, err := h.store.Device(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrDeviceNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "device not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, device)
}

// UpdateDevice handles PUT /api/devices/:id, overwriting all mutable fields.
func (h *Handler) UpdateDevice(c *gin.Context) {
	id, ok := deviceID(c)
	if !ok {
		return
	}

	var req deviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	device, err := h.store.UpdateDevice(c.Request.Context(), id, req.Name, req.Description, req.SerialNumber, req.Manufacturer)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrDeviceNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "device not found"})
		case errors.Is(err, store.ErrDeviceExists):
			c.JSON(http.StatusConflict, gin.H{"error": "device name already in use"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}
	c.JSON(http.StatusOK, device)
}

// DeleteDevice handles DELETE /api/devices/:id.
func (h *Handler) DeleteDevice(c *gin.Context) {
	id, ok := deviceID(c)
	if !ok {
		return
	}

	if err := h.store.DeleteDevice(c.Request.Context(), id); err != nil {
		if errors.Is(err, store.ErrDeviceNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "device not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

// RenderCode handles GET /api/devices/:id/qrcode. The device need not
// exist; codes are often printed before the asset is registered fully.
func (h *Handler) RenderCode(c *gin.Context) {
	id, ok := deviceID(c)
	if !ok {
		return
	}

	png, err := h.qr.RenderDeviceCode(id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Data(http.StatusOK, "image/png", png)
}
