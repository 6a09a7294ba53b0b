package model

import "time"

// TaskLog is one append-only execution log line for a task. Logs are never
// mutated; the UI polls them to follow an in-flight run.
type TaskLog struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	TaskID    uint      `gorm:"column:task_id;index" json:"task_id"`
	Message   string    `gorm:"column:message;type:text" json:"message"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (TaskLog) TableName() string {
	return "task_logs"
}
