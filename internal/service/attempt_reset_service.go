package service

import (
	"encoding/json"
	"fmt"

	"quizgate_backend/internal/model"
	"quizgate_backend/internal/util"
	"quizgate_backend/pkg/logger"
	"quizgate_backend/pkg/monitoring"

	"go.uber.org/zap"
)

// AttemptResetService archives a student's attempts and optionally grants
// extra ones. Reset attempts are flagged is_reset and stop counting toward
// availability; the archive rows in attempt_history are never modified.
type AttemptResetService struct {
	Store    AttemptStore
	Catalog  QuizCatalog
	Notifier Notifier
}

func NewAttemptResetService(store AttemptStore, catalog QuizCatalog, notifier Notifier) *AttemptResetService {
	return &AttemptResetService{Store: store, Catalog: catalog, Notifier: notifier}
}

type ResetRequest struct {
	Reason             string `json:"reason" binding:"required"`
	AdditionalAttempts int    `json:"additional_attempts" binding:"min=0"`
}

type ResetResult struct {
	StudentID          string `json:"student_id"`
	ArchivedAttempts   int    `json:"archived_attempts"`
	AdditionalAttempts int    `json:"additional_attempts"`
	RemainingAttempts  int    `json:"remaining_attempts"`
}

// ResetStudentAttempts archives every active attempt of one student on one
// quiz. The grant attaches to each reset row; availability later reads it
// from the most recent reset only, so consecutive resets replace rather than
// stack their grants.
func (s *AttemptResetService) ResetStudentAttempts(resetBy string, role model.UserRole, quizID, studentID string, req ResetRequest) (*ResetResult, error) {
	quiz, err := s.Catalog.FindQuiz(quizID)
	if err != nil {
		return nil, err
	}
	if role != model.RoleAdmin && quiz.CreatedBy != resetBy {
		return nil, util.ErrUnauthorized
	}

	archived := 0
	err = s.Store.Transaction(func(tx AttemptStore) error {
		active, err := tx.ListActiveAttempts(studentID, quizID)
		if err != nil {
			return err
		}
		if len(active) == 0 {
			return fmt.Errorf("%w: student has no attempts to reset", util.ErrNotFound)
		}

		now := util.NowUTC()
		for i := range active {
			a := &active[i]
			if err := tx.CreateHistory(model.NewAttemptHistory(a, now, &resetBy, req.Reason)); err != nil {
				return err
			}

			a.IsReset = true
			a.ResetBy = &resetBy
			a.ResetAt = &now
			a.ResetReason = req.Reason
			if a.OriginalMaxAttempts == nil {
				m := quiz.MaxAttempts
				a.OriginalMaxAttempts = &m
			}
			a.AdditionalAttemptsGranted = req.AdditionalAttempts
			if err := tx.SaveAttempt(a); err != nil {
				return err
			}
			archived++
		}

		detail, _ := json.Marshal(map[string]interface{}{
			"quiz_id":             quizID,
			"student_id":          studentID,
			"archived_attempts":   archived,
			"additional_attempts": req.AdditionalAttempts,
			"reason":              req.Reason,
		})
		return tx.CreateAuditLog(&model.AuditLog{
			UserID:     resetBy,
			Action:     "attempt_reset",
			EntityType: "quiz_attempt",
			EntityID:   quizID,
			NewValue:   detail,
		})
	})
	if err != nil {
		return nil, err
	}

	monitoring.AttemptResets.Inc()
	s.Notifier.AttemptReset(studentID, quiz.Title, req.AdditionalAttempts, req.Reason)

	remaining, err := s.RemainingAttempts(studentID, quizID)
	if err != nil {
		return nil, err
	}
	return &ResetResult{
		StudentID:          studentID,
		ArchivedAttempts:   archived,
		AdditionalAttempts: req.AdditionalAttempts,
		RemainingAttempts:  remaining,
	}, nil
}

// ResetQuizAttempts resets every student who attempted the quiz. One failing
// student does not abort the rest; failures are logged and reported back.
func (s *AttemptResetService) ResetQuizAttempts(resetBy string, role model.UserRole, quizID string, req ResetRequest) ([]ResetResult, error) {
	quiz, err := s.Catalog.FindQuiz(quizID)
	if err != nil {
		return nil, err
	}
	if role != model.RoleAdmin && quiz.CreatedBy != resetBy {
		return nil, util.ErrUnauthorized
	}

	studentIDs, err := s.Store.DistinctStudentIDs(quizID)
	if err != nil {
		return nil, err
	}

	results := make([]ResetResult, 0, len(studentIDs))
	for _, sid := range studentIDs {
		res, err := s.ResetStudentAttempts(resetBy, role, quizID, sid, req)
		if err != nil {
			logger.Log.Error("quiz-wide reset: student reset failed",
				zap.String("quizId", quizID), zap.String("studentId", sid), zap.Error(err))
			continue
		}
		results = append(results, *res)
	}
	return results, nil
}

// RemainingAttempts computes availability as the quiz's current max attempts
// plus the most recent reset's grant, minus attempts not superseded by a
// reset. Grants are not cumulative across resets, and a quiz edit to
// max_attempts takes effect immediately; original_max_attempts on the reset
// row is audit metadata only.
func (s *AttemptResetService) RemainingAttempts(studentID, quizID string) (int, error) {
	quiz, err := s.Catalog.FindQuiz(quizID)
	if err != nil {
		return 0, err
	}

	allowed := quiz.MaxAttempts
	latest, err := s.Store.LatestResetAttempt(studentID, quizID)
	if err != nil {
		return 0, err
	}
	if latest != nil {
		allowed += latest.AdditionalAttemptsGranted
	}

	used, err := s.Store.CountActiveAttempts(studentID, quizID)
	if err != nil {
		return 0, err
	}

	remaining := allowed - int(used)
	if remaining < 0 {
		remaining = 0
	}
	return remaining, nil
}

// History returns the archived attempts for a student on a quiz.
func (s *AttemptResetService) History(requesterID string, role model.UserRole, quizID, studentID string) ([]model.AttemptHistory, error) {
	quiz, err := s.Catalog.FindQuiz(quizID)
	if err != nil {
		return nil, err
	}
	if role != model.RoleAdmin && quiz.CreatedBy != requesterID {
		return nil, util.ErrUnauthorized
	}
	return s.Store.ListHistory(studentID, quizID)
}
