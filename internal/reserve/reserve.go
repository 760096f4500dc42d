// Package reserve implements the reservation workflow: taking and releasing
// devices on behalf of authenticated users. A device moves between exactly
// two states, available (no holder) and reserved (one holder).
package reserve

import (
	"context"
	"errors"

	"asset-pool-backend/internal/model"
	"asset-pool-backend/internal/store"
)

// ErrBadCredentials is returned when the supplied password does not match
// the stored one.
var ErrBadCredentials = errors.New("wrong password")

// AvailabilityNotifier is told when a device becomes available again.
type AvailabilityNotifier interface {
	Dispatch(deviceID int64)
}

// Service orchestrates reservations over the device registry and user
// directory. The notifier is optional.
type Service struct {
	store  store.Store
	notify AvailabilityNotifier
}

// NewService creates a reservation service. Pass a nil notifier to run
// without availability notifications.
func NewService(s store.Store, notify AvailabilityNotifier) *Service {
	return &Service{store: s, notify: notify}
}

// authenticate resolves the login and compares the password verbatim.
// Plaintext comparison matches the stored credential format; swapping in a
// hashed store only requires changing this one place.
func (s *Service) authenticate(ctx context.Context, login, password string) error {
	user, err := s.store.User(ctx, login)
	if err != nil {
		return err
	}
	if user.Password != password {
		return ErrBadCredentials
	}
	return nil
}

// Take reserves a device for the given user. Fails with
// store.ErrDeviceNotFound, store.ErrUserNotFound, ErrBadCredentials, or
// store.ErrDeviceTaken; a failed take never mutates the device.
func (s *Service) Take(ctx context.Context, deviceID int64, login, password string) error {
	// Device existence is checked first so an unknown device reports
	// NotFound even when the credentials are also wrong.
	if _, err := s.store.Device(ctx, deviceID); err != nil {
		return err
	}
	if err := s.authenticate(ctx, login, password); err != nil {
		return err
	}
	return s.store.ClaimDevice(ctx, deviceID, login)
}

// Release returns a reserved device to the pool. Only the current holder
// may release; on success, subscribers watching the device are notified
// that it is available again.
func (s *Service) Release(ctx context.Context, deviceID int64, login, password string) error {
	if _, err := s.store.Device(ctx, deviceID); err != nil {
		return err
	}
	if err := s.authenticate(ctx, login, password); err != nil {
		return err
	}
	if err := s.store.ReleaseDevice(ctx, deviceID, login); err != nil {
		return err
	}
	if s.notify != nil {
		s.notify.Dispatch(deviceID)
	}
	return nil
}

// TakenDevices lists the devices currently held by the given login.
func (s *Service) TakenDevices(ctx context.Context, login string) ([]model.Device, error) {
	return s.store.DevicesTakenBy(ctx, login)
}
