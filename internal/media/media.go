// Package media attaches uploaded images to device records. The transport
// layer decodes the multipart upload; this package only sees the raw bytes
// and the declared content type.
package media

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"asset-pool-backend/internal/store"
)

// ErrUnsupportedMedia is returned when the declared content type does not
// indicate an image.
var ErrUnsupportedMedia = errors.New("declared content type is not an image")

// Service stores device images. Bytes are kept base64-encoded on the device
// record together with the declared media kind.
type Service struct {
	store store.Store
}

// NewService creates an image attachment service over the given store.
func NewService(s store.Store) *Service {
	return &Service{store: s}
}

// Attach validates the declared media kind and stores the image on the
// device record, overwriting any prior attachment.
func (s *Service) Attach(ctx context.Context, deviceID int64, raw []byte, kind string) error {
	if !strings.HasPrefix(kind, "image/") {
		return ErrUnsupportedMedia
	}
	encoded := base64.StdEncoding.EncodeToString(raw)
	return s.store.SetDeviceImage(ctx, deviceID, encoded, kind)
}

// Image returns the attached image bytes and their declared media kind.
// Fails with store.ErrDeviceNotFound or store.ErrImageNotSet.
func (s *Service) Image(ctx context.Context, deviceID int64) ([]byte, string, error) {
	encoded, mime, err := s.store.DeviceImage(ctx, deviceID)
	if err != nil {
		return nil, "", err
	}
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, "", fmt.Errorf("stored image for device %d is corrupt: %w", deviceID, err)
	}
	return raw, mime, nil
}
