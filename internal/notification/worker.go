package notification

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"github.com/SherClockHolmes/webpush-go"
	"gorm.io/gorm"

	"fleet-maintenance-backend/internal/metrics"
	"fleet-maintenance-backend/internal/model"
)

// Sender defines the interface for sending a web push notification.
type Sender interface {
	Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error)
}

// WebPushSender is a real implementation of Sender using the webpush library.
type WebPushSender struct{}

// Send sends a notification using the webpush library.
func (s *WebPushSender) Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
	return webpush.SendNotification(payload, sub, options)
}

// Alert is one maintenance finding pushed to subscribers.
type Alert struct {
	EquipmentID   string             `json:"equipment_id"`
	Priority      model.PriorityTier `json:"priority"`
	ScheduledDate string             `json:"scheduled_date"`
	Action        string             `json:"action"`
}

// WorkerPool manages a pool of workers for sending maintenance alerts.
type WorkerPool struct {
	size    int
	jobs    chan Alert
	db      *gorm.DB
	webpush *webpush.Options
	sender  Sender
}

// NewWorkerPool creates a new worker pool.
func NewWorkerPool(size int, db *gorm.DB, webpushOptions *webpush.Options) *WorkerPool {
	return &WorkerPool{
		size:    size,
		jobs:    make(chan Alert, size), // Buffered channel
		db:      db,
		webpush: webpushOptions,
		sender:  &WebPushSender{}, // Use the real sender by default
	}
}

// SetSender swaps the delivery backend. Tests use this to capture sends.
func (wp *WorkerPool) SetSender(s Sender) {
	wp.sender = s
}

// Start launches the worker goroutines.
func (wp *WorkerPool) Start(ctx context.Context) {
	for i := 0; i < wp.size; i++ {
		go wp.worker(ctx, i)
	}
}

// worker is the actual worker goroutine.
func (wp *WorkerPool) worker(ctx context.Context, id int) {
	log.Printf("Worker %d started", id)
	for {
		select {
		case alert := <-wp.jobs:
			log.Printf("Worker %d processing alert for %s", id, alert.EquipmentID)
			wp.sendAlert(ctx, alert)
		case <-ctx.Done():
			log.Printf("Worker %d shutting down", id)
			return
		}
	}
}

// Dispatch sends a job to the worker pool.
func (wp *WorkerPool) Dispatch(alert Alert) {
	wp.jobs <- alert
}

// Jobs returns the jobs channel for testing.
func (wp *WorkerPool) Jobs() chan Alert {
	return wp.jobs
}

// sendAlert fetches subscriptions whose priority floor the alert clears and
// pushes the payload to each of them.
func (wp *WorkerPool) sendAlert(ctx context.Context, alert Alert) {
	var subscriptions []model.PushSubscription
	if err := wp.db.WithContext(ctx).Find(&subscriptions).Error; err != nil {
		log.Printf("Error fetching subscriptions for %s alert: %v", alert.EquipmentID, err)
		return
	}

	payload, err := json.Marshal(alert)
	if err != nil {
		log.Printf("Error encoding alert for %s: %v", alert.EquipmentID, err)
		return
	}

	sent := 0
	for _, sub := range subscriptions {
		if !alert.Priority.AtLeast(sub.MinPriority) {
			continue
		}
		wp.sendNotification(ctx, sub, payload)
		sent++
	}
	if sent > 0 {
		log.Printf("Sent %d notifications for %s (%s)", sent, alert.EquipmentID, alert.Priority)
	}
}

// sendNotification sends a single web push notification.
func (wp *WorkerPool) sendNotification(ctx context.Context, sub model.PushSubscription, payload []byte) {
	// Manually construct the webpush.Subscription object
	wpSub := &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256DH,
			Auth:   sub.Auth,
		},
	}

	resp, err := wp.sender.Send(payload, wpSub, wp.webpush)
	if err != nil {
		log.Printf("Error sending notification to %s: %v", sub.Endpoint, err)
		return
	}
	defer resp.Body.Close()
	metrics.NotificationsSent.Inc()

	// Handle expired subscriptions
	if resp.StatusCode == http.StatusGone {
		log.Printf("Subscription for endpoint %s is expired. Deleting.", sub.Endpoint)
		if err := wp.db.WithContext(ctx).Delete(&sub).Error; err != nil {
			log.Printf("Failed to delete expired subscription %s: %v", sub.Endpoint, err)
		}
	}
}

// AlertFromTask builds the push payload for one scheduled task.
func AlertFromTask(task model.MaintenanceTask, equipmentID string, action string) Alert {
	return Alert{
		EquipmentID:   equipmentID,
		Priority:      task.Priority,
		ScheduledDate: task.ScheduledDate.Format("2006-01-02"),
		Action:        action,
	}
}
