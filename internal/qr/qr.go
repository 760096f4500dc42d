// Package qr renders the scannable code that binds a device's identifier to
// its physical tag. The payload encoded into the image is the decimal string
// form of the device id; scanners resolve it via GET /api/devices/{id}.
package qr

import (
	"fmt"
	"strconv"

	"github.com/skip2/go-qrcode"

	"asset-pool-backend/config"
)

// Renderer encodes payloads into PNG QR codes with a fixed configuration.
// Rendering is a pure function of payload and configuration.
type Renderer struct {
	level qrcode.RecoveryLevel
	size  int
}

// New builds a renderer from the code configuration. The error correction
// level is one of "L", "M", "Q" or "H".
func New(cfg *config.CodeConfig) (*Renderer, error) {
	var level qrcode.RecoveryLevel
	switch cfg.ErrorCorrectionLevel {
	case "L":
		level = qrcode.Low
	case "M":
		level = qrcode.Medium
	case "Q":
		level = qrcode.High
	case "H":
		level = qrcode.Highest
	default:
		return nil, fmt.Errorf("unknown error correction level %q", cfg.ErrorCorrectionLevel)
	}
	return &Renderer{level: level, size: cfg.Size}, nil
}

// Render encodes the payload into a PNG image.
func (r *Renderer) Render(payload string) ([]byte, error) {
	png, err := qrcode.Encode(payload, r.level, r.size)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %q: %w", payload, err)
	}
	return png, nil
}

// RenderDeviceCode encodes a device identifier. The device need not exist;
// codes are typically printed before the tag is attached.
func (r *Renderer) RenderDeviceCode(id int64) ([]byte, error) {
	return r.Render(strconv.FormatInt(id, 10))
}
