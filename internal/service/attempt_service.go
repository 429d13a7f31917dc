package service

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"quizgate_backend/internal/model"
	"quizgate_backend/internal/util"
	"quizgate_backend/pkg/logger"
	"quizgate_backend/pkg/monitoring"

	"go.uber.org/zap"
)

// AttemptService owns the attempt lifecycle. Every transition goes through
// applyTransition against the model transition table; there is no other
// mutation path for attempt status.
type AttemptService struct {
	Store        AttemptStore
	Catalog      QuizCatalog
	Availability AvailabilityCalculator
	Notifier     Notifier
}

func NewAttemptService(store AttemptStore, catalog QuizCatalog, availability AvailabilityCalculator, notifier Notifier) *AttemptService {
	return &AttemptService{
		Store:        store,
		Catalog:      catalog,
		Availability: availability,
		Notifier:     notifier,
	}
}

// applyTransition validates the move against the transition table and stamps
// the terminal metadata shared by all submission paths.
func applyTransition(a *model.QuizAttempt, next model.AttemptStatus, now time.Time) error {
	if !a.Status.CanTransitionTo(next) {
		return fmt.Errorf("%w: %s -> %s", util.ErrInvalidState, a.Status, next)
	}
	a.Status = next
	if next != model.AttemptInProgress && a.SubmittedAt == nil {
		t := now
		a.SubmittedAt = &t
	}
	return nil
}

// finalizeSubmission scores objective answers, derives totals and moves the
// attempt to the given terminal status. Used by manual submit, time expiry
// and the violation threshold so every path leaves consistent scoring state.
func finalizeSubmission(tx AttemptStore, a *model.QuizAttempt, next model.AttemptStatus, now time.Time) error {
	answers, err := tx.ListAnswers(a.ID)
	if err != nil {
		return err
	}

	graded := autoGradeObjective(a, answers, now)
	deriveTotals(a, answers)

	if next == model.AttemptSubmitted && !hasSubjectiveAnswers(a, answers) {
		// Nothing left to grade manually: terminal status is GRADED directly.
		next = model.AttemptGraded
	}
	if err := applyTransition(a, next, now); err != nil {
		return err
	}

	a.Progress = 100
	t := now
	a.LastActivityAt = &t

	for _, ans := range graded {
		if err := tx.SaveAnswer(ans); err != nil {
			return err
		}
	}
	return tx.SaveAttempt(a)
}

type StartedAttempt struct {
	Attempt *model.QuizAttempt `json:"attempt"`
	Quiz    *model.Quiz        `json:"quiz"`
}

// Start creates a new attempt for (student, quiz). The quiz question set is
// snapshotted onto the attempt; nothing after this point re-reads the live
// quiz graph. Attempt numbering races resolve through the store's unique
// constraint: a conflict is retried once.
func (s *AttemptService) Start(studentID, quizID, ipAddress, userAgent string) (*StartedAttempt, error) {
	quiz, err := s.Catalog.FindQuiz(quizID)
	if err != nil {
		return nil, err
	}
	if !quiz.IsPublished() {
		return nil, util.ErrQuizNotAvailable
	}

	enrolled, err := s.Catalog.IsEnrolled(studentID, quizID)
	if err != nil {
		return nil, err
	}
	if !enrolled {
		return nil, util.ErrUnauthorized
	}

	now := util.NowUTC()
	switch quiz.Availability(now) {
	case model.QuizUpcoming:
		return nil, util.ErrQuizNotYetOpen
	case model.QuizClosed:
		return nil, util.ErrQuizClosed
	}

	remaining, err := s.Availability.RemainingAttempts(studentID, quizID)
	if err != nil {
		return nil, err
	}
	if remaining <= 0 {
		return nil, util.ErrNoAttemptsRemaining
	}

	snapshot, err := s.buildSnapshot(quizID)
	if err != nil {
		return nil, err
	}

	var attempt *model.QuizAttempt
	create := func() error {
		return s.Store.Transaction(func(tx AttemptStore) error {
			last, err := tx.MaxAttemptNumber(studentID, quizID)
			if err != nil {
				return err
			}
			attempt = &model.QuizAttempt{
				QuizID:            quizID,
				StudentID:         studentID,
				AttemptNumber:     last + 1,
				Status:            model.AttemptInProgress,
				StartedAt:         now,
				TotalMarks:        snapshot.TotalMarks(),
				TimeLimitMinutes:  quiz.TimeLimitMinutes,
				PassingPercentage: quiz.PassingPercentage,
				QuestionSnapshot:  snapshot,
				IPAddress:         ipAddress,
				UserAgent:         userAgent,
				LastActivityAt:    &now,
			}
			return tx.CreateAttempt(attempt)
		})
	}

	if err := create(); err != nil {
		if !errors.Is(err, util.ErrConflict) {
			return nil, err
		}
		// Another start for the same pair won the number; retry once.
		if err := create(); err != nil {
			return nil, err
		}
	}

	monitoring.AttemptsStarted.Inc()
	return &StartedAttempt{Attempt: attempt, Quiz: quiz}, nil
}

func (s *AttemptService) buildSnapshot(quizID string) (model.QuestionSnapshots, error) {
	links, err := s.Catalog.QuizQuestions(quizID)
	if err != nil {
		return nil, err
	}

	snapshot := make(model.QuestionSnapshots, 0, len(links))
	for _, link := range links {
		if link.Question == nil {
			continue
		}
		snapshot = append(snapshot, model.QuestionSnapshot{
			QuestionID:    link.QuestionID,
			Type:          link.Question.Type,
			Marks:         link.EffectiveMarks(),
			CorrectAnswer: link.Question.CorrectAnswer,
			OrderIndex:    link.OrderIndex,
		})
	}
	sort.Slice(snapshot, func(i, j int) bool {
		return snapshot[i].OrderIndex < snapshot[j].OrderIndex
	})
	return snapshot, nil
}

// SubmitAnswer upserts the answer for one question. When the time limit has
// already elapsed the answer is rejected with TimeExpired, and the attempt is
// force-transitioned to AUTO_SUBMITTED; the transition commits even though
// the call fails.
func (s *AttemptService) SubmitAnswer(studentID, attemptID, questionID string, value model.AnswerValue) (*model.StudentAnswer, error) {
	if err := value.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", util.ErrValidation, err)
	}

	var answer *model.StudentAnswer
	var expired bool
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
		if a.TimeExpired(now) {
			// Returning the error here would roll the transition back;
			// commit it and report TimeExpired after the transaction.
			if err := finalizeSubmission(tx, a, model.AttemptAutoSubmitted, now); err != nil {
				return err
			}
			expired = true
			return nil
		}

		questions := a.QuestionSnapshot.ByQuestionID()
		q, ok := questions[questionID]
		if !ok {
			return fmt.Errorf("%w: question not part of this quiz", util.ErrValidation)
		}
		if q.Type.IsObjective() && value.Kind != model.AnswerOption {
			return fmt.Errorf("%w: objective questions take an option index", util.ErrValidation)
		}
		if !q.Type.IsObjective() && value.Kind != model.AnswerText {
			return fmt.Errorf("%w: subjective questions take a text answer", util.ErrValidation)
		}

		answer, err = tx.FindAnswer(attemptID, questionID)
		if err != nil {
			return err
		}
		if answer == nil {
			answer = &model.StudentAnswer{
				AttemptID:  attemptID,
				QuestionID: questionID,
				AnsweredAt: now,
			}
		} else if answer.IsFinal {
			return util.ErrInvalidState
		}
		answer.SetValue(value)
		answer.AnsweredAt = now
		if err := tx.SaveAnswer(answer); err != nil {
			return err
		}

		// Progress metadata
		answers, err := tx.ListAnswers(attemptID)
		if err != nil {
			return err
		}
		answered := 0
		for _, ans := range answers {
			if ans.Answered() {
				answered++
			}
		}
		if total := len(a.QuestionSnapshot); total > 0 {
			a.Progress = min(100, answered*100/total)
		}
		a.CurrentQuestionIndex = q.OrderIndex
		a.LastActivityAt = &now

		return tx.SaveAttempt(a)
	})
	if err != nil {
		return nil, err
	}
	if expired {
		monitoring.AttemptSubmissions.WithLabelValues("auto_time").Inc()
		return nil, util.ErrTimeExpired
	}
	return answer, nil
}

// Submit finishes an attempt. Idempotent: an already-terminal attempt is
// returned unchanged rather than erroring.
func (s *AttemptService) Submit(studentID, attemptID string) (*model.QuizAttempt, error) {
	var attempt *model.QuizAttempt
	var graded bool
	err := s.Store.Transaction(func(tx AttemptStore) error {
		a, err := tx.FindAttemptForUpdate(attemptID)
		if err != nil {
			return err
		}
		if a.StudentID != studentID {
			return util.ErrUnauthorized
		}
		attempt = a
		if a.Status.IsTerminal() {
			return nil
		}

		if err := finalizeSubmission(tx, a, model.AttemptSubmitted, util.NowUTC()); err != nil {
			return err
		}
		graded = a.Status == model.AttemptGraded
		monitoring.AttemptSubmissions.WithLabelValues("manual").Inc()
		return nil
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

// Get loads an attempt with answers and violations. Students may only read
// their own attempts; teachers must own the quiz.
func (s *AttemptService) Get(attemptID, requesterID string, role model.UserRole) (*model.QuizAttempt, error) {
	a, err := s.Store.FindAttempt(attemptID)
	if err != nil {
		return nil, err
	}

	switch role {
	case model.RoleAdmin:
	case model.RoleTeacher:
		quiz, err := s.Catalog.FindQuiz(a.QuizID)
		if err != nil {
			return nil, err
		}
		if quiz.CreatedBy != requesterID {
			return nil, util.ErrUnauthorized
		}
	default:
		if a.StudentID != requesterID {
			return nil, util.ErrUnauthorized
		}
	}

	answers, err := s.Store.ListAnswers(attemptID)
	if err != nil {
		return nil, err
	}
	a.Answers = make([]model.StudentAnswer, 0, len(answers))
	for _, ans := range answers {
		a.Answers = append(a.Answers, *ans)
	}
	a.Violations, err = s.Store.ListViolations(attemptID)
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (s *AttemptService) ListForStudent(studentID, quizID string) ([]model.QuizAttempt, error) {
	return s.Store.ListAttempts(studentID, quizID)
}

// AttemptSummary is the student-facing view of where they stand on a quiz.
type AttemptSummary struct {
	QuizID            string              `json:"quiz_id"`
	Attempts          []model.QuizAttempt `json:"attempts"`
	AttemptsUsed      int                 `json:"attempts_used"`
	RemainingAttempts int                 `json:"remaining_attempts"`
	BestPercentage    *float64            `json:"best_percentage,omitempty"`
	Passed            bool                `json:"passed"`
}

// Summary aggregates a student's standing on one quiz: active attempts,
// remaining slots and best score so far.
func (s *AttemptService) Summary(studentID, quizID string) (*AttemptSummary, error) {
	attempts, err := s.Store.ListActiveAttempts(studentID, quizID)
	if err != nil {
		return nil, err
	}
	remaining, err := s.Availability.RemainingAttempts(studentID, quizID)
	if err != nil {
		return nil, err
	}

	summary := &AttemptSummary{
		QuizID:            quizID,
		Attempts:          attempts,
		AttemptsUsed:      len(attempts),
		RemainingAttempts: remaining,
	}
	for i := range attempts {
		a := &attempts[i]
		if a.Percentage == nil {
			continue
		}
		if summary.BestPercentage == nil || *a.Percentage > *summary.BestPercentage {
			summary.BestPercentage = a.Percentage
		}
		if a.Passed != nil && *a.Passed {
			summary.Passed = true
		}
	}
	return summary, nil
}

// QuizStatistics is the teacher-facing aggregate over a quiz's attempts.
type QuizStatistics struct {
	QuizID            string  `json:"quiz_id"`
	TotalAttempts     int     `json:"total_attempts"`
	InProgress        int     `json:"in_progress"`
	Submitted         int     `json:"submitted"`
	AutoSubmitted     int     `json:"auto_submitted"`
	Graded            int     `json:"graded"`
	ViolationFlagged  int     `json:"violation_flagged"`
	AveragePercentage float64 `json:"average_percentage"`
	PassRate          float64 `json:"pass_rate"`
}

func (s *AttemptService) Statistics(requesterID string, role model.UserRole, quizID string) (*QuizStatistics, error) {
	if err := s.authorizeQuizRead(requesterID, role, quizID); err != nil {
		return nil, err
	}

	attempts, err := s.Store.ListAttemptsByQuiz(quizID)
	if err != nil {
		return nil, err
	}

	stats := &QuizStatistics{QuizID: quizID, TotalAttempts: len(attempts)}
	scored, passed := 0, 0
	var percentSum float64
	for i := range attempts {
		a := &attempts[i]
		switch a.Status {
		case model.AttemptInProgress:
			stats.InProgress++
		case model.AttemptSubmitted:
			stats.Submitted++
		case model.AttemptAutoSubmitted:
			stats.AutoSubmitted++
		case model.AttemptGraded:
			stats.Graded++
		}
		if a.AutoSubmittedDueToViolations {
			stats.ViolationFlagged++
		}
		if a.Percentage != nil {
			scored++
			percentSum += *a.Percentage
			if a.Passed != nil && *a.Passed {
				passed++
			}
		}
	}
	if scored > 0 {
		stats.AveragePercentage = roundPercent(percentSum / float64(scored))
		stats.PassRate = roundPercent(float64(passed) / float64(scored) * 100)
	}
	return stats, nil
}

// CategorizedSubmissions splits a quiz's attempts by how they ended.
type CategorizedSubmissions struct {
	Manual        []model.QuizAttempt `json:"manual"`
	AutoSubmitted []model.QuizAttempt `json:"auto_submitted"`
	InProgress    []model.QuizAttempt `json:"in_progress"`
}

func (s *AttemptService) Categorized(requesterID string, role model.UserRole, quizID string) (*CategorizedSubmissions, error) {
	if err := s.authorizeQuizRead(requesterID, role, quizID); err != nil {
		return nil, err
	}

	attempts, err := s.Store.ListAttemptsByQuiz(quizID)
	if err != nil {
		return nil, err
	}

	out := &CategorizedSubmissions{
		Manual:        make([]model.QuizAttempt, 0),
		AutoSubmitted: make([]model.QuizAttempt, 0),
		InProgress:    make([]model.QuizAttempt, 0),
	}
	for _, a := range attempts {
		switch {
		case a.Status == model.AttemptInProgress:
			out.InProgress = append(out.InProgress, a)
		case a.Status == model.AttemptAutoSubmitted || a.AutoSubmittedDueToViolations:
			out.AutoSubmitted = append(out.AutoSubmitted, a)
		default:
			out.Manual = append(out.Manual, a)
		}
	}
	return out, nil
}

func (s *AttemptService) authorizeQuizRead(requesterID string, role model.UserRole, quizID string) error {
	if role == model.RoleAdmin {
		return nil
	}
	quiz, err := s.Catalog.FindQuiz(quizID)
	if err != nil {
		return err
	}
	if quiz.CreatedBy != requesterID {
		return util.ErrUnauthorized
	}
	return nil
}

// AutoSubmitExpired transitions every IN_PROGRESS attempt past its deadline.
// Idempotent and safe against concurrent client-driven transitions: each
// attempt is re-checked under its row lock, and per-attempt failures are
// logged without aborting the sweep.
func (s *AttemptService) AutoSubmitExpired() (int, error) {
	now := util.NowUTC()
	expired, err := s.Store.ListExpiredInProgress(now)
	if err != nil {
		return 0, err
	}

	processed := 0
	for i := range expired {
		id := expired[i].ID
		err := s.Store.Transaction(func(tx AttemptStore) error {
			a, err := tx.FindAttemptForUpdate(id)
			if err != nil {
				return err
			}
			if a.Status != model.AttemptInProgress || !a.TimeExpired(now) {
				// Lost the race to a client-driven transition; nothing to do.
				return nil
			}
			if err := finalizeSubmission(tx, a, model.AttemptAutoSubmitted, now); err != nil {
				return err
			}
			processed++
			monitoring.AttemptSubmissions.WithLabelValues("auto_time").Inc()
			return nil
		})
		if err != nil {
			logger.Log.Error("expiry sweep: failed to auto-submit attempt",
				zap.String("attemptId", id), zap.Error(err))
		}
	}
	return processed, nil
}
