package entity

import "time"

// SchedulerState stores advisory key/value state such as the last scan time.
type SchedulerState struct {
	Key       string    `gorm:"column:state_key;primaryKey"`
	Value     string    `gorm:"column:value"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

// TableName specifies the table name for the SchedulerState entity.
func (SchedulerState) TableName() string {
	return "scheduler_state"
}
