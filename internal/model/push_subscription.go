package model

import "time"

// PushSubscription holds a technician's browser push subscription. The
// MinPriority field filters which newly created maintenance tasks trigger a
// notification for this subscriber.
type PushSubscription struct {
	Endpoint    string       `gorm:"primaryKey" json:"endpoint"`
	P256DH      string       `gorm:"column:p256dh;not null" json:"p256dh"`
	Auth        string       `gorm:"not null" json:"auth"`
	MinPriority PriorityTier `gorm:"size:16;not null;default:critical" json:"minPriority"`
	CreatedAt   time.Time    `gorm:"not null" json:"createdAt"`
}
