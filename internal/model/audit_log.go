package model

import "encoding/json"

// AuditLog is append-only; reset operations record actor and before/after
// values here.
// swagger:model
type AuditLog struct {
	UUIDBase

	UserID     string          `gorm:"type:varchar(36);index;not null" json:"userId"`
	Action     string          `gorm:"type:varchar(50);index;not null" json:"action"`
	EntityType string          `gorm:"type:varchar(50);not null" json:"entityType"`
	EntityID   string          `gorm:"type:varchar(36);index" json:"entityId"`
	OldValue   json.RawMessage `gorm:"type:json" json:"oldValue,omitempty"`
	NewValue   json.RawMessage `gorm:"type:json" json:"newValue,omitempty"`
}

func (AuditLog) TableName() string {
	return "audit_logs"
}
