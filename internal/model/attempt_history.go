package model

import "time"

// AttemptHistory is an append-only archive snapshot of a quiz attempt, taken
// at reset time. Rows get a fresh identity and are never updated or deleted.
// swagger:model
type AttemptHistory struct {
	UUIDBase

	QuizID        string `gorm:"type:varchar(36);index:idx_history_student_quiz,priority:2;not null" json:"quizId"`
	StudentID     string `gorm:"type:varchar(36);index:idx_history_student_quiz,priority:1;not null" json:"studentId"`
	AttemptNumber int    `gorm:"not null" json:"attemptNumber"`

	Status                       string     `gorm:"type:varchar(20);not null" json:"status"`
	Score                        *float64   `gorm:"type:decimal(7,2)" json:"score,omitempty"`
	TotalMarks                   int        `json:"totalMarks"`
	Percentage                   *float64   `gorm:"type:decimal(5,2)" json:"percentage,omitempty"`
	Passed                       *bool      `json:"passed,omitempty"`
	TotalViolations              int        `json:"totalViolations"`
	AutoSubmittedDueToViolations bool       `json:"autoSubmittedDueToViolations"`
	StartedAt                    time.Time  `json:"startedAt"`
	SubmittedAt                  *time.Time `json:"submittedAt,omitempty"`

	ArchivedAt  time.Time `json:"archivedAt"`
	ResetBy     *string   `gorm:"type:varchar(36)" json:"resetBy,omitempty"`
	ResetReason string    `gorm:"type:text" json:"resetReason,omitempty"`
}

func (AttemptHistory) TableName() string {
	return "attempt_history"
}

// NewAttemptHistory copies the attempt's current state into a fresh archive
// row. Identity is regenerated so repeated resets never collide.
func NewAttemptHistory(a *QuizAttempt, archivedAt time.Time, resetBy *string, reason string) *AttemptHistory {
	return &AttemptHistory{
		UUIDBase:                     UUIDBase{ID: GenerateUUID()},
		QuizID:                       a.QuizID,
		StudentID:                    a.StudentID,
		AttemptNumber:                a.AttemptNumber,
		Status:                       string(a.Status),
		Score:                        a.Score,
		TotalMarks:                   a.TotalMarks,
		Percentage:                   a.Percentage,
		Passed:                       a.Passed,
		TotalViolations:              a.TotalViolations,
		AutoSubmittedDueToViolations: a.AutoSubmittedDueToViolations,
		StartedAt:                    a.StartedAt,
		SubmittedAt:                  a.SubmittedAt,
		ArchivedAt:                   archivedAt,
		ResetBy:                      resetBy,
		ResetReason:                  reason,
	}
}
