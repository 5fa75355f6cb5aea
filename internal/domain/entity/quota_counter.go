package entity

import "notifier/internal/domain/constant"

// QuotaCounter counts successful sends for one channel in one period.
type QuotaCounter struct {
	Channel    constant.Channel    `gorm:"column:channel;primaryKey"`
	PeriodKind constant.PeriodKind `gorm:"column:period_kind;primaryKey"`
	PeriodKey  string              `gorm:"column:period_key;primaryKey"` // 2006-01-02 or 2006-01
	Count      int                 `gorm:"column:sent_count;not null;default:0"`
}

// TableName specifies the table name for the QuotaCounter entity.
func (QuotaCounter) TableName() string {
	return "quota_counter"
}
