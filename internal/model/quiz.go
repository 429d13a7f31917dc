package model

import (
	"strings"
	"time"
)

type QuizStatus string

const (
	QuizDraft     QuizStatus = "draft"
	QuizPublished QuizStatus = "published"
	QuizArchived  QuizStatus = "archived"
)

// ParseQuizStatus is the single place quiz status strings are normalized.
func ParseQuizStatus(s string) (QuizStatus, bool) {
	switch QuizStatus(strings.ToLower(strings.TrimSpace(s))) {
	case QuizDraft:
		return QuizDraft, true
	case QuizPublished:
		return QuizPublished, true
	case QuizArchived:
		return QuizArchived, true
	}
	return "", false
}

// QuizAvailability is the open-window state derived from start/end dates.
type QuizAvailability string

const (
	QuizOpen     QuizAvailability = "open"
	QuizUpcoming QuizAvailability = "upcoming"
	QuizClosed   QuizAvailability = "closed"
)

// swagger:model
type Quiz struct {
	UUIDBase

	Title            string     `gorm:"type:varchar(255);not null" json:"title"`
	Subject          string     `gorm:"type:varchar(100)" json:"subject"`
	Description      string     `gorm:"type:text" json:"description"`
	AccessCode       string     `gorm:"type:varchar(6);uniqueIndex" json:"accessCode"`
	TimeLimitMinutes int        `gorm:"not null" json:"timeLimitMinutes"`
	Status           QuizStatus `gorm:"type:varchar(20);not null;default:'draft';index" json:"status"`
	StartDate        *time.Time `json:"startDate,omitempty"`
	EndDate          *time.Time `json:"endDate,omitempty"`
	CreatedBy        string     `gorm:"type:varchar(36);index;not null" json:"createdBy"`

	PassingPercentage          int  `gorm:"default:40" json:"passingPercentage"`
	MaxAttempts                int  `gorm:"default:1" json:"maxAttempts"`
	ShowAnswersAfterSubmission bool `gorm:"default:false" json:"showAnswersAfterSubmission"`
	RandomizeQuestions         bool `gorm:"default:false" json:"randomizeQuestions"`
	AllowReview                bool `gorm:"default:true" json:"allowReview"`

	Questions []QuizQuestion `gorm:"foreignKey:QuizID" json:"questions,omitempty"`
}

func (Quiz) TableName() string {
	return "quizzes"
}

func (q *Quiz) IsPublished() bool {
	return q.Status == QuizPublished
}

// Availability evaluates the quiz open window at the given instant.
// Timestamps are compared in UTC.
func (q *Quiz) Availability(now time.Time) QuizAvailability {
	if q.StartDate != nil && CompareUTC(now, *q.StartDate) < 0 {
		return QuizUpcoming
	}
	if q.EndDate != nil && CompareUTC(now, *q.EndDate) > 0 {
		return QuizClosed
	}
	return QuizOpen
}

// CompareUTC is the one datetime comparison helper: both operands are
// normalized to UTC before comparing. Returns -1, 0 or 1.
func CompareUTC(a, b time.Time) int {
	a, b = a.UTC(), b.UTC()
	switch {
	case a.Before(b):
		return -1
	case a.After(b):
		return 1
	}
	return 0
}
