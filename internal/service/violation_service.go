package service

import (
	"encoding/json"
	"fmt"
	"sync/atomic"

	"quizgate_backend/internal/model"
	"quizgate_backend/internal/util"
	"quizgate_backend/pkg/monitoring"
)

// ViolationService records proctoring signals against in-progress attempts
// and enforces the auto-submit threshold. The counter on the attempt row is
// the source of truth; increment-and-compare happens under the attempt's row
// lock so the threshold fires exactly once no matter how many reports race.
type ViolationService struct {
	Store    AttemptStore
	Catalog  QuizCatalog
	Notifier Notifier

	threshold atomic.Int32
}

func NewViolationService(store AttemptStore, catalog QuizCatalog, notifier Notifier, threshold int) *ViolationService {
	s := &ViolationService{
		Store:    store,
		Catalog:  catalog,
		Notifier: notifier,
	}
	s.threshold.Store(int32(threshold))
	return s
}

func (s *ViolationService) Threshold() int {
	return int(s.threshold.Load())
}

// SetThreshold applies a config reload. Only attempts reported after the
// change see the new value.
func (s *ViolationService) SetThreshold(threshold int) {
	if threshold > 0 {
		s.threshold.Store(int32(threshold))
	}
}

type ViolationReport struct {
	Type          string          `json:"type" binding:"required"`
	QuestionIndex *int            `json:"question_index"`
	Severity      string          `json:"severity"`
	Metadata      json.RawMessage `json:"metadata"`
}

type ViolationResult struct {
	Violation       *model.Violation `json:"violation"`
	TotalViolations int              `json:"total_violations"`
	Remaining       int              `json:"remaining_before_auto_submit"`
	AutoSubmitted   bool             `json:"auto_submitted"`
}

// Record appends one violation and increments the attempt counter. Reports
// against a terminal attempt are rejected; the counter is frozen at whatever
// value it reached while the attempt was live.
func (s *ViolationService) Record(studentID, attemptID string, report ViolationReport) (*ViolationResult, error) {
	vtype, ok := model.ParseViolationType(report.Type)
	if !ok {
		return nil, fmt.Errorf("%w: unknown violation type %q", util.ErrValidation, report.Type)
	}

	var result ViolationResult
	var attempt *model.QuizAttempt
	err := s.Store.Transaction(func(tx AttemptStore) error {
		a, err := tx.FindAttemptForUpdate(attemptID)
		if err != nil {
			return err
		}
		if a.StudentID != studentID {
			return util.ErrUnauthorized
		}
		if a.Status != model.AttemptInProgress {
			return util.ErrInvalidState
		}

		now := util.NowUTC()
		v := &model.Violation{
			AttemptID:     attemptID,
			Type:          vtype,
			DetectedAt:    now,
			QuestionIndex: report.QuestionIndex,
			Severity:      report.Severity,
			Metadata:      report.Metadata,
		}
		if err := tx.CreateViolation(v); err != nil {
			return err
		}

		a.TotalViolations++
		a.LastActivityAt = &now

		threshold := s.Threshold()
		if a.TotalViolations >= threshold {
			a.AutoSubmittedDueToViolations = true
			if err := finalizeSubmission(tx, a, model.AttemptAutoSubmitted, now); err != nil {
				return err
			}
			result.AutoSubmitted = true
		} else if err := tx.SaveAttempt(a); err != nil {
			return err
		}

		attempt = a
		result.Violation = v
		result.TotalViolations = a.TotalViolations
		if remaining := threshold - a.TotalViolations; remaining > 0 {
			result.Remaining = remaining
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	monitoring.ViolationsRecorded.WithLabelValues(string(vtype)).Inc()
	if result.AutoSubmitted {
		monitoring.AttemptSubmissions.WithLabelValues("auto_violation").Inc()
		if quiz, qerr := s.Catalog.FindQuiz(attempt.QuizID); qerr == nil {
			s.Notifier.ViolationAlert(quiz.CreatedBy, attempt, result.Violation)
		}
	}
	return &result, nil
}

// ListByAttempt returns the violation log for teachers reviewing an attempt.
func (s *ViolationService) ListByAttempt(attemptID, requesterID string, role model.UserRole) ([]model.Violation, error) {
	a, err := s.Store.FindAttempt(attemptID)
	if err != nil {
		return nil, err
	}
	if role != model.RoleAdmin {
		quiz, err := s.Catalog.FindQuiz(a.QuizID)
		if err != nil {
			return nil, err
		}
		if quiz.CreatedBy != requesterID {
			return nil, util.ErrUnauthorized
		}
	}
	return s.Store.ListViolations(attemptID)
}
