package entity

import (
	"notifier/internal/domain/constant"
	"time"
)

// DeliveryAttempt is one append-only row per channel try.
type DeliveryAttempt struct {
	ID                uint                    `gorm:"primaryKey;autoIncrement"`
	DedupKey          string                  `gorm:"column:dedup_key;index;not null"`
	SentKey           *string                 `gorm:"column:sent_key;uniqueIndex"` // equals DedupKey only on the Sent row
	Kind              constant.Kind           `gorm:"column:kind;index"`
	Channel           constant.Channel        `gorm:"column:channel;index"`
	Destination       string                  `gorm:"column:destination"`
	Subject           *string                 `gorm:"column:subject"`
	RenderedBody      string                  `gorm:"column:rendered_body;type:text"`
	Status            constant.DeliveryStatus `gorm:"column:status;index"`
	ProviderMessageID *string                 `gorm:"column:provider_message_id"`
	ErrorReason       *string                 `gorm:"column:error_reason;type:text"`
	Tries             int                     `gorm:"column:tries"`
	Timestamp         time.Time               `gorm:"column:timestamp;index"`
}

// TableName specifies the table name for the DeliveryAttempt entity.
func (DeliveryAttempt) TableName() string {
	return "delivery_attempt"
}

// Succeeded reports whether the attempt delivered the notification.
func (a *DeliveryAttempt) Succeeded() bool {
	return a.Status == constant.DeliverySent
}
