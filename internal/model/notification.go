package model

import "encoding/json"

type NotificationType string

const (
	NotificationQuizPublished  NotificationType = "quiz_published"
	NotificationAttemptGraded  NotificationType = "attempt_graded"
	NotificationAttemptReset   NotificationType = "attempt_reset"
	NotificationViolationAlert NotificationType = "violation_alert"
)

// swagger:model
type Notification struct {
	UUIDBase

	UserID   string           `gorm:"type:varchar(36);index;not null" json:"userId"`
	Type     NotificationType `gorm:"type:varchar(30);not null" json:"type"`
	Title    string           `gorm:"type:varchar(255);not null" json:"title"`
	Message  string           `gorm:"type:text" json:"message"`
	Read     bool             `gorm:"default:false;index" json:"read"`
	Metadata json.RawMessage  `gorm:"type:json" json:"metadata,omitempty"`
}

func (Notification) TableName() string {
	return "notifications"
}
