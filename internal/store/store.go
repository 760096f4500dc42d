package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"asset-pool-backend/internal/ident"
	"asset-pool-backend/internal/model"
)

// Store defines the interface for the device registry and user directory.
// It is the only component that mutates either collection; everything else
// goes through these methods.
type Store interface {
	CreateDevice(ctx context.Context, d *model.Device) error
	DeviceNames(ctx context.Context) ([]string, error)
	Device(ctx context.Context, id int64) (*model.Device, error)
	UpdateDevice(ctx context.Context, id int64, name, description, serialNumber, manufacturer string) (*model.Device, error)
	DeleteDevice(ctx context.Context, id int64) error
	DevicesTakenBy(ctx context.Context, login string) ([]model.Device, error)

	CreateUser(ctx context.Context, login, password string) error
	User(ctx context.Context, login string) (*model.User, error)

	SetDeviceImage(ctx context.Context, id int64, encoded, mime string) error
	DeviceImage(ctx context.Context, id int64) (encoded, mime string, err error)

	ClaimDevice(ctx context.Context, id int64, login string) error
	ReleaseDevice(ctx context.Context, id int64, login string) error

	DB() *gorm.DB
}

// gormStore implements the Store interface using GORM. Check-then-act
// sequences (name uniqueness, reservation) run inside transactions so they
// are linearizable with respect to each other.
type gormStore struct {
	db  *gorm.DB
	ids *ident.Allocator
}

// NewGormStore creates a GORM-backed store. The identifier allocator is
// seeded from the highest stored device id so identifiers are never reused,
// even across restarts against a persistent DSN.
func NewGormStore(db *gorm.DB) (Store, error) {
	var maxID int64
	if err := db.Model(&model.Device{}).
		Select("COALESCE(MAX(id), 0)").
		Scan(&maxID).Error; err != nil {
		return nil, fmt.Errorf("failed to read max device id: %w", err)
	}
	return &gormStore{db: db, ids: ident.New(maxID)}, nil
}

// DB exposes the underlying handle for components that manage their own
// tables (push subscriptions). Device and user rows must not be written
// through it.
func (s *gormStore) DB() *gorm.DB {
	return s.db
}

// CreateDevice registers a new device, assigning it a fresh identifier.
// Returns ErrDeviceExists when the name is already registered.
func (s *gormStore) CreateDevice(ctx context.Context, d *model.Device) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&model.Device{}).Where("name = ?", d.Name).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to check device name: %w", err)
		}
		if count > 0 {
			return ErrDeviceExists
		}

		d.ID = s.ids.Next()
		d.Image = ""
		d.ImageMime = ""
		d.TakenBy = nil
		if err := tx.Create(d).Error; err != nil {
			return fmt.Errorf("failed to create device %q: %w", d.Name, err)
		}
		return nil
	})
}

// DeviceNames returns the names of all devices in insertion (id) order.
func (s *gormStore) DeviceNames(ctx context.Context) ([]string, error) {
	var names []string
	if err := s.db.WithContext(ctx).Model(&model.Device{}).
		Order("id").
		Pluck("name", &names).Error; err != nil {
		return nil, fmt.Errorf("failed to list device names: %w", err)
	}
	return names, nil
}

// Device returns the device with the given id.
func (s *gormStore) Device(ctx context.Context, id int64) (*model.Device, error) {
	var d model.Device
	if err := s.db.WithContext(ctx).First(&d, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDeviceNotFound
		}
		return nil, fmt.Errorf("failed to fetch device %d: %w", id, err)
	}
	return &d, nil
}

// UpdateDevice overwrites the mutable fields of a device. Renaming to a
// name held by another device fails with ErrDeviceExists; the registration
// uniqueness invariant holds across updates as well.
func (s *gormStore) UpdateDevice(ctx context.Context, id int64, name, description, serialNumber, manufacturer string) (*model.Device, error) {
	var d model.Device
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&d, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrDeviceNotFound
			}
			return fmt.Errorf("failed to fetch device %d: %w", id, err)
		}

		var count int64
		if err := tx.Model(&model.Device{}).
			Where("name = ? AND id <> ?", name, id).
			Count(&count).Error; err != nil {
			return fmt.Errorf("failed to check device name: %w", err)
		}
		if count > 0 {
			return ErrDeviceExists
		}

		d.Name = name
		d.Description = description
		d.SerialNumber = serialNumber
		d.Manufacturer = manufacturer
		if err := tx.Save(&d).Error; err != nil {
			return fmt.Errorf("failed to update device %d: %w", id, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// DeleteDevice removes a device record. Its identifier is never reused.
func (s *gormStore) DeleteDevice(ctx context.Context, id int64) error {
	res := s.db.WithContext(ctx).Delete(&model.Device{}, id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete device %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrDeviceNotFound
	}
	return nil
}

// DevicesTakenBy returns all devices currently held by the given login.
func (s *gormStore) DevicesTakenBy(ctx context.Context, login string) ([]model.Device, error) {
	var devices []model.Device
	if err := s.db.WithContext(ctx).
		Where("taken_by = ?", login).
		Order("id").
		Find(&devices).Error; err != nil {
		return nil, fmt.Errorf("failed to list devices taken by %q: %w", login, err)
	}
	return devices, nil
}

// CreateUser registers a new user. Returns ErrUserExists when the login is
// already registered.
func (s *gormStore) CreateUser(ctx context.Context, login, password string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&model.User{}).Where("login = ?", login).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to check login: %w", err)
		}
		if count > 0 {
			return ErrUserExists
		}
		if err := tx.Create(&model.User{Login: login, Password: password}).Error; err != nil {
			return fmt.Errorf("failed to create user %q: %w", login, err)
		}
		return nil
	})
}

// User returns the user with the given login.
func (s *gormStore) User(ctx context.Context, login string) (*model.User, error) {
	var u model.User
	if err := s.db.WithContext(ctx).First(&u, "login = ?", login).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to fetch user %q: %w", login, err)
	}
	return &u, nil
}

// SetDeviceImage stores the encoded image and its declared media kind on a
// device record, overwriting any prior value.
func (s *gormStore) SetDeviceImage(ctx context.Context, id int64, encoded, mime string) error {
	res := s.db.WithContext(ctx).Model(&model.Device{}).
		Where("id = ?", id).
		Updates(map[string]any{"image": encoded, "image_mime": mime})
	if res.Error != nil {
		return fmt.Errorf("failed to set image on device %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrDeviceNotFound
	}
	return nil
}

// DeviceImage returns the stored encoded image and its media kind.
func (s *gormStore) DeviceImage(ctx context.Context, id int64) (string, string, error) {
	d, err := s.Device(ctx, id)
	if err != nil {
		return "", "", err
	}
	if d.Image == "" {
		return "", "", ErrImageNotSet
	}
	return d.Image, d.ImageMime, nil
}

// ClaimDevice transitions a device from available to reserved by the given
// login. The write is conditional on the device still being available, so
// two concurrent claims can never both succeed, whatever the database's
// isolation level. Returns ErrDeviceTaken when the device is already
// reserved, regardless of who holds it.
func (s *gormStore) ClaimDevice(ctx context.Context, id int64, login string) error {
	res := s.db.WithContext(ctx).Model(&model.Device{}).
		Where("id = ? AND taken_by IS NULL", id).
		Update("taken_by", login)
	if res.Error != nil {
		return fmt.Errorf("failed to claim device %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		if _, err := s.Device(ctx, id); err != nil {
			return err
		}
		return ErrDeviceTaken
	}
	return nil
}

// ReleaseDevice transitions a device back to available. The write is
// conditional on the holder, so only the current holder may release; anyone
// else gets ErrNotHolder.
func (s *gormStore) ReleaseDevice(ctx context.Context, id int64, login string) error {
	res := s.db.WithContext(ctx).Model(&model.Device{}).
		Where("id = ? AND taken_by = ?", id, login).
		Update("taken_by", nil)
	if res.Error != nil {
		return fmt.Errorf("failed to release device %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		if _, err := s.Device(ctx, id); err != nil {
			return err
		}
		return ErrNotHolder
	}
	return nil
}
