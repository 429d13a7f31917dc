package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

type AttemptStatus string

const (
	AttemptInProgress    AttemptStatus = "in_progress"
	AttemptSubmitted     AttemptStatus = "submitted"
	AttemptAutoSubmitted AttemptStatus = "auto_submitted"
	AttemptGraded        AttemptStatus = "graded"
)

// ParseAttemptStatus is the canonical status parser. Any other comparison of
// raw status strings is a bug.
func ParseAttemptStatus(s string) (AttemptStatus, bool) {
	switch AttemptStatus(strings.ToLower(strings.TrimSpace(s))) {
	case AttemptInProgress:
		return AttemptInProgress, true
	case AttemptSubmitted:
		return AttemptSubmitted, true
	case AttemptAutoSubmitted:
		return AttemptAutoSubmitted, true
	case AttemptGraded:
		return AttemptGraded, true
	}
	return "", false
}

// attemptTransitions is the only definition of legal lifecycle moves.
// SUBMITTED and AUTO_SUBMITTED may still move to GRADED by manual grading;
// GRADED is terminal.
var attemptTransitions = map[AttemptStatus][]AttemptStatus{
	AttemptInProgress:    {AttemptSubmitted, AttemptAutoSubmitted, AttemptGraded},
	AttemptSubmitted:     {AttemptGraded},
	AttemptAutoSubmitted: {AttemptGraded},
	AttemptGraded:        {},
}

func (s AttemptStatus) CanTransitionTo(next AttemptStatus) bool {
	for _, allowed := range attemptTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the attempt has left IN_PROGRESS. Violation
// counters are frozen and answers immutable once terminal.
func (s AttemptStatus) IsTerminal() bool {
	return s != AttemptInProgress
}

// QuestionSnapshot captures the grading-relevant view of one quiz question at
// attempt-creation time. Scoring never re-reads the live quiz graph.
type QuestionSnapshot struct {
	QuestionID    string       `json:"questionId"`
	Type          QuestionType `json:"type"`
	Marks         int          `json:"marks"`
	CorrectAnswer *int         `json:"correctAnswer,omitempty"`
	OrderIndex    int          `json:"orderIndex"`
}

type QuestionSnapshots []QuestionSnapshot

func (s QuestionSnapshots) Value() (driver.Value, error) {
	if s == nil {
		return "[]", nil
	}
	b, err := json.Marshal(s)
	return string(b), err
}

func (s *QuestionSnapshots) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		*s = nil
		return nil
	case []byte:
		return json.Unmarshal(v, s)
	case string:
		return json.Unmarshal([]byte(v), s)
	}
	return fmt.Errorf("unsupported question snapshot column type %T", value)
}

// ByQuestionID indexes the snapshot set for scoring.
func (s QuestionSnapshots) ByQuestionID() map[string]QuestionSnapshot {
	m := make(map[string]QuestionSnapshot, len(s))
	for _, q := range s {
		m[q.QuestionID] = q
	}
	return m
}

// TotalMarks sums the snapshotted marks. This is computed once at creation
// and stored on the attempt; quiz edits never change it retroactively.
func (s QuestionSnapshots) TotalMarks() int {
	total := 0
	for _, q := range s {
		total += q.Marks
	}
	return total
}

// swagger:model
type QuizAttempt struct {
	UUIDBase

	QuizID        string `gorm:"type:varchar(36);uniqueIndex:uq_quiz_student_attempt;not null" json:"quizId"`
	StudentID     string `gorm:"type:varchar(36);uniqueIndex:uq_quiz_student_attempt;index;not null" json:"studentId"`
	AttemptNumber int    `gorm:"uniqueIndex:uq_quiz_student_attempt;not null;default:1" json:"attemptNumber"`

	// Lifecycle
	Status      AttemptStatus `gorm:"type:varchar(20);not null;default:'in_progress';index" json:"status"`
	StartedAt   time.Time     `json:"startedAt"`
	SubmittedAt *time.Time    `json:"submittedAt,omitempty"`

	// Scoring
	Score      *float64 `gorm:"type:decimal(7,2)" json:"score,omitempty"`
	TotalMarks int      `json:"totalMarks"`
	Percentage *float64 `gorm:"type:decimal(5,2)" json:"percentage,omitempty"`
	Passed     *bool    `json:"passed,omitempty"`

	// Progress
	Progress             int        `json:"progress"`
	CurrentQuestionIndex int        `json:"currentQuestionIndex"`
	LastActivityAt       *time.Time `json:"lastActivityAt,omitempty"`

	// Proctoring
	TotalViolations              int  `gorm:"default:0" json:"totalViolations"`
	AutoSubmittedDueToViolations bool `gorm:"default:false" json:"autoSubmittedDueToViolations"`

	// Client info
	IPAddress string `gorm:"type:varchar(45)" json:"ipAddress,omitempty"`
	UserAgent string `gorm:"type:text" json:"userAgent,omitempty"`

	// Reset / supersession
	IsReset                   bool       `gorm:"default:false;index" json:"isReset"`
	ResetBy                   *string    `gorm:"type:varchar(36)" json:"resetBy,omitempty"`
	ResetAt                   *time.Time `json:"resetAt,omitempty"`
	ResetReason               string     `gorm:"type:text" json:"resetReason,omitempty"`
	OriginalMaxAttempts       *int       `json:"originalMaxAttempts,omitempty"`
	AdditionalAttemptsGranted int        `gorm:"default:0" json:"additionalAttemptsGranted"`

	// Quiz snapshot, taken once at creation
	TimeLimitMinutes  int               `json:"timeLimitMinutes"`
	PassingPercentage int               `json:"passingPercentage"`
	QuestionSnapshot  QuestionSnapshots `gorm:"type:json" json:"questionSnapshot,omitempty"`

	Answers    []StudentAnswer `gorm:"foreignKey:AttemptID" json:"answers,omitempty"`
	Violations []Violation     `gorm:"foreignKey:AttemptID" json:"violations,omitempty"`
}

func (QuizAttempt) TableName() string {
	return "quiz_attempts"
}

// Deadline returns the hard submission deadline, or zero time when the quiz
// has no time limit.
func (a *QuizAttempt) Deadline() time.Time {
	if a.TimeLimitMinutes <= 0 {
		return time.Time{}
	}
	return a.StartedAt.Add(time.Duration(a.TimeLimitMinutes) * time.Minute)
}

func (a *QuizAttempt) TimeExpired(now time.Time) bool {
	deadline := a.Deadline()
	if deadline.IsZero() {
		return false
	}
	return CompareUTC(now, deadline) > 0
}
