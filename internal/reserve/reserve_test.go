package reserve

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"asset-pool-backend/internal/model"
	"asset-pool-backend/internal/store"
)

// recordingNotifier captures dispatched device ids.
type recordingNotifier struct {
	dispatched []int64
}

func (n *recordingNotifier) Dispatch(deviceID int64) {
	n.dispatched = append(n.dispatched, deviceID)
}

func newTestService(t *testing.T) (*Service, store.Store, *recordingNotifier) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.Device{}, &model.User{}))

	s, err := store.NewGormStore(db)
	require.NoError(t, err)

	notifier := &recordingNotifier{}
	return NewService(s, notifier), s, notifier
}

func setupDeviceAndUser(t *testing.T, s store.Store) *model.Device {
	t.Helper()
	ctx := context.Background()
	d := &model.Device{Name: "Drill"}
	require.NoError(t, s.CreateDevice(ctx, d))
	require.NoError(t, s.CreateUser(ctx, "alice", "pw"))
	return d
}

func TestTake(t *testing.T) {
	svc, s, _ := newTestService(t)
	ctx := context.Background()
	d := setupDeviceAndUser(t, s)

	t.Run("unknown device", func(t *testing.T) {
		assert.ErrorIs(t, svc.Take(ctx, 999, "alice", "pw"), store.ErrDeviceNotFound)
	})

	t.Run("unknown user", func(t *testing.T) {
		assert.ErrorIs(t, svc.Take(ctx, d.ID, "mallory", "pw"), store.ErrUserNotFound)
	})

	t.Run("wrong password never mutates the device", func(t *testing.T) {
		assert.ErrorIs(t, svc.Take(ctx, d.ID, "alice", "wrong"), ErrBadCredentials)

		got, err := s.Device(ctx, d.ID)
		require.NoError(t, err)
		assert.Nil(t, got.TakenBy)
	})

	t.Run("successful take reserves the device", func(t *testing.T) {
		require.NoError(t, svc.Take(ctx, d.ID, "alice", "pw"))

		got, err := s.Device(ctx, d.ID)
		require.NoError(t, err)
		require.NotNil(t, got.TakenBy)
		assert.Equal(t, "alice", *got.TakenBy)
	})

	t.Run("second take conflicts regardless of requester", func(t *testing.T) {
		require.NoError(t, s.CreateUser(ctx, "bob", "pw2"))
		assert.ErrorIs(t, svc.Take(ctx, d.ID, "alice", "pw"), store.ErrDeviceTaken)
		assert.ErrorIs(t, svc.Take(ctx, d.ID, "bob", "pw2"), store.ErrDeviceTaken)
	})
}

func TestRelease(t *testing.T) {
	svc, s, notifier := newTestService(t)
	ctx := context.Background()
	d := setupDeviceAndUser(t, s)
	require.NoError(t, s.CreateUser(ctx, "bob", "pw2"))

	require.NoError(t, svc.Take(ctx, d.ID, "alice", "pw"))

	t.Run("requires authentication", func(t *testing.T) {
		assert.ErrorIs(t, svc.Release(ctx, d.ID, "alice", "wrong"), ErrBadCredentials)
	})

	t.Run("only the holder may release", func(t *testing.T) {
		assert.ErrorIs(t, svc.Release(ctx, d.ID, "bob", "pw2"), store.ErrNotHolder)
		assert.Empty(t, notifier.dispatched)
	})

	t.Run("holder releases and subscribers are notified", func(t *testing.T) {
		require.NoError(t, svc.Release(ctx, d.ID, "alice", "pw"))

		got, err := s.Device(ctx, d.ID)
		require.NoError(t, err)
		assert.Nil(t, got.TakenBy)
		assert.Equal(t, []int64{d.ID}, notifier.dispatched)
	})

	t.Run("device becomes takable again", func(t *testing.T) {
		assert.NoError(t, svc.Take(ctx, d.ID, "bob", "pw2"))
	})
}

func TestTakenDevices(t *testing.T) {
	svc, s, _ := newTestService(t)
	ctx := context.Background()
	d := setupDeviceAndUser(t, s)

	taken, err := svc.TakenDevices(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, taken)

	require.NoError(t, svc.Take(ctx, d.ID, "alice", "pw"))

	taken, err = svc.TakenDevices(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, taken, 1)
	assert.Equal(t, d.ID, taken[0].ID)
}

func TestNilNotifierIsAllowed(t *testing.T) {
	_, s, _ := newTestService(t)
	ctx := context.Background()
	d := setupDeviceAndUser(t, s)

	svc := NewService(s, nil)
	require.NoError(t, svc.Take(ctx, d.ID, "alice", "pw"))
	assert.NoError(t, svc.Release(ctx, d.ID, "alice", "pw"))
}
