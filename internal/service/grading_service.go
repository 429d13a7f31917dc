package service

import (
	"fmt"

	"quizgate_backend/internal/model"
	"quizgate_backend/internal/util"
)

// GradingService merges manual grades into submitted attempts. Manual input
// only ever touches non-final answers; objective answers scored at submission
// keep their marks even when a grading request names them.
type GradingService struct {
	Store    AttemptStore
	Catalog  QuizCatalog
	Notifier Notifier
}

func NewGradingService(store AttemptStore, catalog QuizCatalog, notifier Notifier) *GradingService {
	return &GradingService{Store: store, Catalog: catalog, Notifier: notifier}
}

type ManualGrade struct {
	QuestionID   string  `json:"question_id" binding:"required"`
	MarksAwarded float64 `json:"marks_awarded"`
	Feedback     string  `json:"feedback"`
}

type GradeRequest struct {
	Grades []ManualGrade `json:"grades" binding:"required,min=1"`
}

// Grade applies a batch of manual grades to one attempt. The attempt moves to
// GRADED once every answer is final; partial batches leave it SUBMITTED (or
// AUTO_SUBMITTED) awaiting the rest.
func (s *GradingService) Grade(graderID string, role model.UserRole, attemptID string, req GradeRequest) (*model.QuizAttempt, error) {
	var attempt *model.QuizAttempt
	var graded bool
	err := s.Store.Transaction(func(tx AttemptStore) error {
		a, err := tx.FindAttemptForUpdate(attemptID)
		if err != nil {
			return err
		}
		if a.Status != model.AttemptSubmitted && a.Status != model.AttemptAutoSubmitted {
			return util.ErrInvalidState
		}

		quiz, err := s.Catalog.FindQuiz(a.QuizID)
		if err != nil {
			return err
		}
		if role != model.RoleAdmin && quiz.CreatedBy != graderID {
			return util.ErrUnauthorized
		}

		questions := a.QuestionSnapshot.ByQuestionID()
		now := util.NowUTC()
		for _, g := range req.Grades {
			q, ok := questions[g.QuestionID]
			if !ok {
				return fmt.Errorf("%w: question %s is not part of this attempt", util.ErrValidation, g.QuestionID)
			}
			if g.MarksAwarded < 0 || g.MarksAwarded > float64(q.Marks) {
				return fmt.Errorf("%w: marks for question %s must be between 0 and %d", util.ErrValidation, g.QuestionID, q.Marks)
			}

			ans, err := tx.FindAnswer(attemptID, g.QuestionID)
			if err != nil {
				return err
			}
			if ans == nil {
				// Unanswered subjective question graded as-is (usually zero).
				ans = &model.StudentAnswer{
					AttemptID:  attemptID,
					QuestionID: g.QuestionID,
					ValueKind:  model.AnswerText,
					AnsweredAt: now,
				}
			}
			if ans.IsFinal {
				continue
			}
			marks := g.MarksAwarded
			ans.MarksAwarded = &marks
			ans.Feedback = g.Feedback
			ans.GradedBy = &graderID
			ans.GradedAt = &now
			ans.IsFinal = true
			if err := tx.SaveAnswer(ans); err != nil {
				return err
			}
		}

		answers, err := tx.ListAnswers(attemptID)
		if err != nil {
			return err
		}
		// Safety net for attempts finalized before objective scoring existed.
		for _, ans := range autoGradeObjective(a, answers, now) {
			if err := tx.SaveAnswer(ans); err != nil {
				return err
			}
		}
		deriveTotals(a, answers)

		if countNonFinal(answers) == 0 {
			if err := applyTransition(a, model.AttemptGraded, now); err != nil {
				return err
			}
			graded = true
		}
		attempt = a
		return tx.SaveAttempt(a)
	})
	if err != nil {
		return nil, err
	}

	if graded {
		if quiz, qerr := s.Catalog.FindQuiz(attempt.QuizID); qerr == nil {
			score := 0.0
			if attempt.Score != nil {
				score = *attempt.Score
			}
			percentage := 0.0
			if attempt.Percentage != nil {
				percentage = *attempt.Percentage
			}
			s.Notifier.AttemptGraded(attempt.StudentID, quiz.Title, score, attempt.TotalMarks, percentage)
		}
	}
	return attempt, nil
}

// ListPending returns submitted attempts on a quiz still waiting for manual
// grading.
func (s *GradingService) ListPending(graderID string, role model.UserRole, quizID string) ([]model.QuizAttempt, error) {
	quiz, err := s.Catalog.FindQuiz(quizID)
	if err != nil {
		return nil, err
	}
	if role != model.RoleAdmin && quiz.CreatedBy != graderID {
		return nil, util.ErrUnauthorized
	}

	attempts, err := s.Store.ListAttemptsByQuiz(quizID)
	if err != nil {
		return nil, err
	}
	pending := make([]model.QuizAttempt, 0)
	for _, a := range attempts {
		if a.Status == model.AttemptSubmitted || a.Status == model.AttemptAutoSubmitted {
			pending = append(pending, a)
		}
	}
	return pending, nil
}
