package notification

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/SherClockHolmes/webpush-go"
	"gorm.io/gorm"

	"asset-pool-backend/internal/model"
)

// Sender defines the interface for sending a single web push notification.
type Sender interface {
	Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error)
}

// webPushSender sends notifications through the webpush library.
type webPushSender struct{}

func (s *webPushSender) Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
	return webpush.SendNotification(payload, sub, options)
}

// WorkerPool fans device-availability events out to push subscribers. The
// reservation workflow dispatches a device id whenever a device is released.
type WorkerPool struct {
	size    int
	jobs    chan int64
	db      *gorm.DB
	webpush *webpush.Options
	sender  Sender
}

// NewWorkerPool creates a worker pool of the given size.
func NewWorkerPool(size int, db *gorm.DB, webpushOptions *webpush.Options) *WorkerPool {
	return &WorkerPool{
		size:    size,
		jobs:    make(chan int64, size),
		db:      db,
		webpush: webpushOptions,
		sender:  &webPushSender{},
	}
}

// Start launches the worker goroutines. They run until ctx is cancelled.
func (wp *WorkerPool) Start(ctx context.Context) {
	for i := 0; i < wp.size; i++ {
		go wp.worker(ctx, i)
	}
}

func (wp *WorkerPool) worker(ctx context.Context, id int) {
	log.Printf("notification worker %d started", id)
	for {
		select {
		case deviceID := <-wp.jobs:
			wp.notifyDeviceAvailable(ctx, deviceID)
		case <-ctx.Done():
			log.Printf("notification worker %d shutting down", id)
			return
		}
	}
}

// Dispatch queues an availability event for the given device.
func (wp *WorkerPool) Dispatch(deviceID int64) {
	wp.jobs <- deviceID
}

// notifyDeviceAvailable fetches the subscriptions watching a device and
// tells each one the device is available again.
func (wp *WorkerPool) notifyDeviceAvailable(ctx context.Context, deviceID int64) {
	var subscriptions []model.PushSubscription
	err := wp.db.WithContext(ctx).
		Joins("JOIN subscription_device_mapping sdm ON sdm.push_subscription_endpoint = push_subscriptions.endpoint").
		Where("sdm.device_id = ?", deviceID).
		Find(&subscriptions).Error
	if err != nil {
		log.Printf("error fetching subscriptions for device %d: %v", deviceID, err)
		return
	}
	if len(subscriptions) == 0 {
		return
	}

	// The device may have been renamed or deleted since the release; fall
	// back on the bare id when the name cannot be resolved.
	label := fmt.Sprintf("%d", deviceID)
	var device model.Device
	if err := wp.db.WithContext(ctx).
		Select("name").
		First(&device, deviceID).Error; err != nil {
		log.Printf("error fetching device %d: %v", deviceID, err)
	} else if device.Name != "" {
		label = device.Name
	}

	log.Printf("sending %d availability notifications for device %d", len(subscriptions), deviceID)
	payload := []byte(fmt.Sprintf("Device %s is available again", label))
	for _, sub := range subscriptions {
		wp.send(ctx, sub, payload)
	}
}

// send delivers one notification and prunes the subscription if the push
// service reports it gone.
func (wp *WorkerPool) send(ctx context.Context, sub model.PushSubscription, payload []byte) {
	wpSub := &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256DH,
			Auth:   sub.Auth,
		},
	}

	resp, err := wp.sender.Send(payload, wpSub, wp.webpush)
	if err != nil {
		log.Printf("error sending notification to %s: %v", sub.Endpoint, err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusGone {
		log.Printf("subscription %s is expired, deleting", sub.Endpoint)
		if err := wp.db.WithContext(ctx).Delete(&sub).Error; err != nil {
			log.Printf("failed to delete expired subscription %s: %v", sub.Endpoint, err)
		}
	}
}
