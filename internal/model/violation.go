package model

import (
	"encoding/json"
	"strings"
	"time"
)

type ViolationType string

const (
	ViolationTabSwitch       ViolationType = "tab_switch"
	ViolationFullscreenExit  ViolationType = "fullscreen_exit"
	ViolationCopyAttempt     ViolationType = "copy_attempt"
	ViolationPasteAttempt    ViolationType = "paste_attempt"
	ViolationRightClick      ViolationType = "right_click"
	ViolationFocusLost       ViolationType = "focus_lost"
	ViolationMultipleWindows ViolationType = "multiple_windows"
)

func ParseViolationType(s string) (ViolationType, bool) {
	switch ViolationType(strings.ToLower(strings.TrimSpace(s))) {
	case ViolationTabSwitch:
		return ViolationTabSwitch, true
	case ViolationFullscreenExit:
		return ViolationFullscreenExit, true
	case ViolationCopyAttempt:
		return ViolationCopyAttempt, true
	case ViolationPasteAttempt:
		return ViolationPasteAttempt, true
	case ViolationRightClick:
		return ViolationRightClick, true
	case ViolationFocusLost:
		return ViolationFocusLost, true
	case ViolationMultipleWindows:
		return ViolationMultipleWindows, true
	}
	return "", false
}

// Violation rows are append-only: written once while the attempt is
// IN_PROGRESS, never mutated or deleted afterwards.
// swagger:model
type Violation struct {
	UUIDBase

	AttemptID     string          `gorm:"type:varchar(36);index;not null" json:"attemptId"`
	Type          ViolationType   `gorm:"type:varchar(30);not null" json:"type"`
	DetectedAt    time.Time       `json:"detectedAt"`
	QuestionIndex *int            `json:"questionIndex,omitempty"`
	Severity      string          `gorm:"type:varchar(20)" json:"severity,omitempty"`
	Metadata      json.RawMessage `gorm:"type:json" json:"metadata,omitempty"`
}

func (Violation) TableName() string {
	return "violations"
}
