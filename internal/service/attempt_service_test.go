package service

import (
	"errors"
	"testing"
	"time"

	"quizgate_backend/internal/model"
	"quizgate_backend/internal/util"
)

func TestStartSnapshotsQuiz(t *testing.T) {
	env := newTestEnv()
	env.seedQuiz(t, "quiz-1", "teacher-1", "student-1")

	attempt := env.mustStart(t, "student-1", "quiz-1")

	if attempt.AttemptNumber != 1 {
		t.Errorf("attempt number = %d, want 1", attempt.AttemptNumber)
	}
	if attempt.Status != model.AttemptInProgress {
		t.Errorf("status = %s, want %s", attempt.Status, model.AttemptInProgress)
	}
	if attempt.TotalMarks != 10 {
		t.Errorf("total marks = %d, want 10", attempt.TotalMarks)
	}
	if len(attempt.QuestionSnapshot) != 2 {
		t.Fatalf("snapshot has %d questions, want 2", len(attempt.QuestionSnapshot))
	}
	if attempt.QuestionSnapshot[0].QuestionID != "q-mcq" {
		t.Errorf("snapshot order: first = %s, want q-mcq", attempt.QuestionSnapshot[0].QuestionID)
	}
	if attempt.TimeLimitMinutes != 30 || attempt.PassingPercentage != 40 {
		t.Errorf("quiz settings not snapshotted: limit=%d passing=%d",
			attempt.TimeLimitMinutes, attempt.PassingPercentage)
	}
}

func TestStartRejections(t *testing.T) {
	env := newTestEnv()
	quiz := env.seedQuiz(t, "quiz-1", "teacher-1", "student-1")

	if _, err := env.attempts.Start("stranger", "quiz-1", "", ""); !errors.Is(err, util.ErrUnauthorized) {
		t.Errorf("unenrolled start = %v, want ErrUnauthorized", err)
	}
	if _, err := env.attempts.Start("student-1", "missing", "", ""); !errors.Is(err, util.ErrNotFound) {
		t.Errorf("unknown quiz = %v, want ErrNotFound", err)
	}

	future := time.Now().UTC().Add(time.Hour)
	quiz.StartDate = &future
	env.catalog.quizzes["quiz-1"] = quiz
	if _, err := env.attempts.Start("student-1", "quiz-1", "", ""); !errors.Is(err, util.ErrQuizNotYetOpen) {
		t.Errorf("upcoming quiz = %v, want ErrQuizNotYetOpen", err)
	}

	past := time.Now().UTC().Add(-time.Hour)
	quiz.StartDate = nil
	quiz.EndDate = &past
	env.catalog.quizzes["quiz-1"] = quiz
	if _, err := env.attempts.Start("student-1", "quiz-1", "", ""); !errors.Is(err, util.ErrQuizClosed) {
		t.Errorf("closed quiz = %v, want ErrQuizClosed", err)
	}

	quiz.EndDate = nil
	quiz.Status = model.QuizDraft
	env.catalog.quizzes["quiz-1"] = quiz
	if _, err := env.attempts.Start("student-1", "quiz-1", "", ""); !errors.Is(err, util.ErrQuizNotAvailable) {
		t.Errorf("draft quiz = %v, want ErrQuizNotAvailable", err)
	}
}

func TestStartExhaustsAttempts(t *testing.T) {
	env := newTestEnv()
	env.seedQuiz(t, "quiz-1", "teacher-1", "student-1") // MaxAttempts: 2

	first := env.mustStart(t, "student-1", "quiz-1")
	if _, err := env.attempts.Submit("student-1", first.ID); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	second := env.mustStart(t, "student-1", "quiz-1")
	if second.AttemptNumber != 2 {
		t.Errorf("second attempt number = %d, want 2", second.AttemptNumber)
	}

	if _, err := env.attempts.Start("student-1", "quiz-1", "", ""); !errors.Is(err, util.ErrNoAttemptsRemaining) {
		t.Errorf("third start = %v, want ErrNoAttemptsRemaining", err)
	}
}

func TestStartRetriesNumberCollisionOnce(t *testing.T) {
	env := newTestEnv()
	env.seedQuiz(t, "quiz-1", "teacher-1", "student-1")

	env.store.data.failCreates = 1
	attempt := env.mustStart(t, "student-1", "quiz-1")
	if attempt.AttemptNumber != 1 {
		t.Errorf("attempt number after retry = %d, want 1", attempt.AttemptNumber)
	}

	env.store.data.failCreates = 2
	if _, err := env.attempts.Start("student-1", "quiz-1", "", ""); !errors.Is(err, util.ErrConflict) {
		t.Errorf("double collision = %v, want ErrConflict", err)
	}
}

func TestSubmitAnswerValidation(t *testing.T) {
	env := newTestEnv()
	env.seedQuiz(t, "quiz-1", "teacher-1", "student-1")
	attempt := env.mustStart(t, "student-1", "quiz-1")

	if _, err := env.attempts.SubmitAnswer("student-1", attempt.ID, "q-mcq", model.TextAnswer("two")); !errors.Is(err, util.ErrValidation) {
		t.Errorf("text answer on mcq = %v, want ErrValidation", err)
	}
	if _, err := env.attempts.SubmitAnswer("student-1", attempt.ID, "q-desc", model.OptionAnswer(1)); !errors.Is(err, util.ErrValidation) {
		t.Errorf("option answer on descriptive = %v, want ErrValidation", err)
	}
	if _, err := env.attempts.SubmitAnswer("student-1", attempt.ID, "ghost", model.OptionAnswer(1)); !errors.Is(err, util.ErrValidation) {
		t.Errorf("unknown question = %v, want ErrValidation", err)
	}
	if _, err := env.attempts.SubmitAnswer("intruder", attempt.ID, "q-mcq", model.OptionAnswer(1)); !errors.Is(err, util.ErrUnauthorized) {
		t.Errorf("foreign attempt = %v, want ErrUnauthorized", err)
	}
}

func TestSubmitAnswerUpsertsAndTracksProgress(t *testing.T) {
	env := newTestEnv()
	env.seedQuiz(t, "quiz-1", "teacher-1", "student-1")
	attempt := env.mustStart(t, "student-1", "quiz-1")

	if _, err := env.attempts.SubmitAnswer("student-1", attempt.ID, "q-mcq", model.OptionAnswer(1)); err != nil {
		t.Fatalf("SubmitAnswer: %v", err)
	}
	// Re-answer the same question; must overwrite, not duplicate.
	ans, err := env.attempts.SubmitAnswer("student-1", attempt.ID, "q-mcq", model.OptionAnswer(2))
	if err != nil {
		t.Fatalf("SubmitAnswer overwrite: %v", err)
	}
	if ans.OptionValue == nil || *ans.OptionValue != 2 {
		t.Errorf("overwritten option = %v, want 2", ans.OptionValue)
	}

	answers, _ := env.store.ListAnswers(attempt.ID)
	if len(answers) != 1 {
		t.Fatalf("answer rows = %d, want 1", len(answers))
	}

	updated, _ := env.store.FindAttempt(attempt.ID)
	if updated.Progress != 50 {
		t.Errorf("progress = %d, want 50", updated.Progress)
	}
}

func TestSubmitGradesObjectiveAndWaitsForManual(t *testing.T) {
	env := newTestEnv()
	env.seedQuiz(t, "quiz-1", "teacher-1", "student-1")
	attempt := env.mustStart(t, "student-1", "quiz-1")

	env.attempts.SubmitAnswer("student-1", attempt.ID, "q-mcq", model.OptionAnswer(2))
	env.attempts.SubmitAnswer("student-1", attempt.ID, "q-desc", model.TextAnswer("because x = 7"))

	submitted, err := env.attempts.Submit("student-1", attempt.ID)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if submitted.Status != model.AttemptSubmitted {
		t.Errorf("status = %s, want %s (subjective pending)", submitted.Status, model.AttemptSubmitted)
	}
	if submitted.Score == nil || *submitted.Score != 4 {
		t.Errorf("score = %v, want 4 (objective only)", submitted.Score)
	}

	answers, _ := env.store.ListAnswers(attempt.ID)
	for _, ans := range answers {
		switch ans.QuestionID {
		case "q-mcq":
			if !ans.IsFinal || ans.MarksAwarded == nil || *ans.MarksAwarded != 4 {
				t.Errorf("mcq answer final=%v marks=%v, want final with 4", ans.IsFinal, ans.MarksAwarded)
			}
		case "q-desc":
			if ans.IsFinal {
				t.Error("descriptive answer marked final before manual grading")
			}
		}
	}
}

func TestSubmitAllObjectiveGoesStraightToGraded(t *testing.T) {
	env := newTestEnv()
	env.seedObjectiveQuiz(t, "quiz-obj", "teacher-1", "student-1")
	attempt := env.mustStart(t, "student-1", "quiz-obj")

	env.attempts.SubmitAnswer("student-1", attempt.ID, "m1", model.OptionAnswer(1))
	env.attempts.SubmitAnswer("student-1", attempt.ID, "m2", model.OptionAnswer(1)) // wrong

	submitted, err := env.attempts.Submit("student-1", attempt.ID)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if submitted.Status != model.AttemptGraded {
		t.Errorf("status = %s, want %s", submitted.Status, model.AttemptGraded)
	}
	if submitted.Score == nil || *submitted.Score != 5 {
		t.Errorf("score = %v, want 5", submitted.Score)
	}
	if submitted.Percentage == nil || *submitted.Percentage != 50 {
		t.Errorf("percentage = %v, want 50", submitted.Percentage)
	}
	if submitted.Passed == nil || !*submitted.Passed {
		t.Errorf("passed = %v, want true at exactly the passing mark", submitted.Passed)
	}
	if env.notifier.graded != 1 {
		t.Errorf("graded notifications = %d, want 1", env.notifier.graded)
	}
}

func TestSubmitIsIdempotent(t *testing.T) {
	env := newTestEnv()
	env.seedObjectiveQuiz(t, "quiz-obj", "teacher-1", "student-1")
	attempt := env.mustStart(t, "student-1", "quiz-obj")
	env.attempts.SubmitAnswer("student-1", attempt.ID, "m1", model.OptionAnswer(1))

	first, err := env.attempts.Submit("student-1", attempt.ID)
	if err != nil {
		t.Fatalf("first Submit: %v", err)
	}
	second, err := env.attempts.Submit("student-1", attempt.ID)
	if err != nil {
		t.Fatalf("second Submit: %v", err)
	}
	if second.Status != first.Status {
		t.Errorf("second submit changed status: %s -> %s", first.Status, second.Status)
	}
	if second.SubmittedAt == nil || first.SubmittedAt == nil || !second.SubmittedAt.Equal(*first.SubmittedAt) {
		t.Errorf("second submit changed submitted_at: %v -> %v", first.SubmittedAt, second.SubmittedAt)
	}
	if env.notifier.graded != 1 {
		t.Errorf("graded notifications = %d, want 1", env.notifier.graded)
	}
}

func TestSubmitAnswerAfterDeadlineAutoSubmits(t *testing.T) {
	env := newTestEnv()
	env.seedQuiz(t, "quiz-1", "teacher-1", "student-1")
	attempt := env.mustStart(t, "student-1", "quiz-1")
	env.attempts.SubmitAnswer("student-1", attempt.ID, "q-mcq", model.OptionAnswer(2))

	// Backdate past the 30 minute limit.
	stored := env.store.data.attempts[attempt.ID]
	stored.StartedAt = stored.StartedAt.Add(-31 * time.Minute)

	_, err := env.attempts.SubmitAnswer("student-1", attempt.ID, "q-desc", model.TextAnswer("too late"))
	if !errors.Is(err, util.ErrTimeExpired) {
		t.Fatalf("late answer = %v, want ErrTimeExpired", err)
	}

	// The forced transition must survive the TimeExpired error.
	updated, _ := env.store.FindAttempt(attempt.ID)
	if updated.Status != model.AttemptAutoSubmitted {
		t.Errorf("status = %s, want %s", updated.Status, model.AttemptAutoSubmitted)
	}
	if updated.SubmittedAt == nil {
		t.Error("submitted_at not stamped on forced transition")
	}
	if updated.Score == nil || *updated.Score != 4 {
		t.Errorf("score after time expiry = %v, want 4", updated.Score)
	}

	// The late answer must not have been stored.
	answers, _ := env.store.ListAnswers(attempt.ID)
	if len(answers) != 1 {
		t.Errorf("answer rows = %d, want 1 (late answer rejected)", len(answers))
	}
}

func TestAutoSubmitExpiredSweep(t *testing.T) {
	env := newTestEnv()
	env.seedQuiz(t, "quiz-1", "teacher-1", "student-1")
	env.catalog.enroll("student-2", "quiz-1")

	a1 := env.mustStart(t, "student-1", "quiz-1")
	a2 := env.mustStart(t, "student-2", "quiz-1")

	env.store.data.attempts[a1.ID].StartedAt = time.Now().UTC().Add(-2 * time.Hour)

	n, err := env.attempts.AutoSubmitExpired()
	if err != nil {
		t.Fatalf("AutoSubmitExpired: %v", err)
	}
	if n != 1 {
		t.Errorf("swept %d attempts, want 1", n)
	}

	expired, _ := env.store.FindAttempt(a1.ID)
	if expired.Status != model.AttemptAutoSubmitted {
		t.Errorf("expired attempt status = %s, want %s", expired.Status, model.AttemptAutoSubmitted)
	}
	live, _ := env.store.FindAttempt(a2.ID)
	if live.Status != model.AttemptInProgress {
		t.Errorf("live attempt status = %s, want %s", live.Status, model.AttemptInProgress)
	}

	// Second sweep finds nothing: idempotent.
	n, err = env.attempts.AutoSubmitExpired()
	if err != nil {
		t.Fatalf("second sweep: %v", err)
	}
	if n != 0 {
		t.Errorf("second sweep processed %d, want 0", n)
	}
}

func TestGetEnforcesOwnership(t *testing.T) {
	env := newTestEnv()
	env.seedQuiz(t, "quiz-1", "teacher-1", "student-1")
	attempt := env.mustStart(t, "student-1", "quiz-1")

	if _, err := env.attempts.Get(attempt.ID, "student-1", model.RoleStudent); err != nil {
		t.Errorf("owner read: %v", err)
	}
	if _, err := env.attempts.Get(attempt.ID, "student-2", model.RoleStudent); !errors.Is(err, util.ErrUnauthorized) {
		t.Errorf("foreign student read = %v, want ErrUnauthorized", err)
	}
	if _, err := env.attempts.Get(attempt.ID, "teacher-1", model.RoleTeacher); err != nil {
		t.Errorf("quiz owner read: %v", err)
	}
	if _, err := env.attempts.Get(attempt.ID, "teacher-2", model.RoleTeacher); !errors.Is(err, util.ErrUnauthorized) {
		t.Errorf("foreign teacher read = %v, want ErrUnauthorized", err)
	}
}

func TestSummaryReportsRemaining(t *testing.T) {
	env := newTestEnv()
	env.seedQuiz(t, "quiz-1", "teacher-1", "student-1") // MaxAttempts: 2

	attempt := env.mustStart(t, "student-1", "quiz-1")
	env.attempts.SubmitAnswer("student-1", attempt.ID, "q-mcq", model.OptionAnswer(2))
	env.attempts.Submit("student-1", attempt.ID)

	summary, err := env.attempts.Summary("student-1", "quiz-1")
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if summary.AttemptsUsed != 1 {
		t.Errorf("attempts used = %d, want 1", summary.AttemptsUsed)
	}
	if summary.RemainingAttempts != 1 {
		t.Errorf("remaining = %d, want 1", summary.RemainingAttempts)
	}
	if summary.BestPercentage == nil || *summary.BestPercentage != 40 {
		t.Errorf("best percentage = %v, want 40", summary.BestPercentage)
	}
}
