package service

import (
	"errors"
	"sync"
	"testing"

	"quizgate_backend/internal/model"
	"quizgate_backend/internal/util"
)

func TestRecordViolationCountsDown(t *testing.T) {
	env := newTestEnv()
	env.seedQuiz(t, "quiz-1", "teacher-1", "student-1")
	attempt := env.mustStart(t, "student-1", "quiz-1")

	res, err := env.violations.Record("student-1", attempt.ID, ViolationReport{Type: "tab_switch"})
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if res.TotalViolations != 1 {
		t.Errorf("total = %d, want 1", res.TotalViolations)
	}
	if res.Remaining != 4 {
		t.Errorf("remaining = %d, want 4", res.Remaining)
	}
	if res.AutoSubmitted {
		t.Error("auto submitted after a single violation")
	}

	res, err = env.violations.Record("student-1", attempt.ID, ViolationReport{Type: "FOCUS_LOST"})
	if err != nil {
		t.Fatalf("Record (case-folded type): %v", err)
	}
	if res.Violation.Type != model.ViolationFocusLost {
		t.Errorf("parsed type = %s, want %s", res.Violation.Type, model.ViolationFocusLost)
	}
	if res.Remaining != 3 {
		t.Errorf("remaining = %d, want 3", res.Remaining)
	}
}

func TestRecordViolationRejections(t *testing.T) {
	env := newTestEnv()
	env.seedQuiz(t, "quiz-1", "teacher-1", "student-1")
	attempt := env.mustStart(t, "student-1", "quiz-1")

	if _, err := env.violations.Record("student-1", attempt.ID, ViolationReport{Type: "telepathy"}); !errors.Is(err, util.ErrValidation) {
		t.Errorf("unknown type = %v, want ErrValidation", err)
	}
	if _, err := env.violations.Record("student-2", attempt.ID, ViolationReport{Type: "tab_switch"}); !errors.Is(err, util.ErrUnauthorized) {
		t.Errorf("foreign student = %v, want ErrUnauthorized", err)
	}
	if _, err := env.violations.Record("student-1", "missing", ViolationReport{Type: "tab_switch"}); !errors.Is(err, util.ErrNotFound) {
		t.Errorf("unknown attempt = %v, want ErrNotFound", err)
	}
}

func TestViolationThresholdAutoSubmits(t *testing.T) {
	env := newTestEnv()
	env.seedQuiz(t, "quiz-1", "teacher-1", "student-1")
	attempt := env.mustStart(t, "student-1", "quiz-1")
	env.attempts.SubmitAnswer("student-1", attempt.ID, "q-mcq", model.OptionAnswer(2))

	for i := 0; i < 4; i++ {
		if _, err := env.violations.Record("student-1", attempt.ID, ViolationReport{Type: "tab_switch"}); err != nil {
			t.Fatalf("Record %d: %v", i+1, err)
		}
	}

	res, err := env.violations.Record("student-1", attempt.ID, ViolationReport{Type: "fullscreen_exit"})
	if err != nil {
		t.Fatalf("threshold Record: %v", err)
	}
	if !res.AutoSubmitted {
		t.Fatal("fifth violation did not auto-submit")
	}
	if res.TotalViolations != 5 || res.Remaining != 0 {
		t.Errorf("total=%d remaining=%d, want 5 and 0", res.TotalViolations, res.Remaining)
	}

	updated, _ := env.store.FindAttempt(attempt.ID)
	if updated.Status != model.AttemptAutoSubmitted {
		t.Errorf("status = %s, want %s", updated.Status, model.AttemptAutoSubmitted)
	}
	if !updated.AutoSubmittedDueToViolations {
		t.Error("AutoSubmittedDueToViolations not set")
	}
	if updated.Score == nil || *updated.Score != 4 {
		t.Errorf("score = %v, want 4 (objective scored on forced submit)", updated.Score)
	}
	if env.notifier.alerts != 1 {
		t.Errorf("teacher alerts = %d, want 1", env.notifier.alerts)
	}

	// Terminal attempts reject further reports and keep the counter frozen.
	if _, err := env.violations.Record("student-1", attempt.ID, ViolationReport{Type: "tab_switch"}); !errors.Is(err, util.ErrInvalidState) {
		t.Errorf("post-terminal Record = %v, want ErrInvalidState", err)
	}
	frozen, _ := env.store.FindAttempt(attempt.ID)
	if frozen.TotalViolations != 5 {
		t.Errorf("counter moved after terminal state: %d", frozen.TotalViolations)
	}
}

func TestViolationThresholdFiresOnceUnderConcurrency(t *testing.T) {
	env := newTestEnv()
	env.seedQuiz(t, "quiz-1", "teacher-1", "student-1")
	attempt := env.mustStart(t, "student-1", "quiz-1")

	const reporters = 10
	var wg sync.WaitGroup
	var mu sync.Mutex
	accepted, autoSubmits := 0, 0

	for i := 0; i < reporters; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := env.violations.Record("student-1", attempt.ID, ViolationReport{Type: "focus_lost"})
			if err != nil {
				return
			}
			mu.Lock()
			accepted++
			if res.AutoSubmitted {
				autoSubmits++
			}
			mu.Unlock()
		}()
	}
	wg.Wait()

	if accepted != 5 {
		t.Errorf("accepted %d reports, want exactly 5", accepted)
	}
	if autoSubmits != 1 {
		t.Errorf("auto-submit fired %d times, want exactly once", autoSubmits)
	}
	final, _ := env.store.FindAttempt(attempt.ID)
	if final.TotalViolations != 5 {
		t.Errorf("final counter = %d, want 5", final.TotalViolations)
	}
	if final.Status != model.AttemptAutoSubmitted {
		t.Errorf("final status = %s, want %s", final.Status, model.AttemptAutoSubmitted)
	}
}

func TestViolationThresholdReload(t *testing.T) {
	env := newTestEnv()
	env.seedQuiz(t, "quiz-1", "teacher-1", "student-1")
	attempt := env.mustStart(t, "student-1", "quiz-1")

	env.violations.SetThreshold(2)
	if env.violations.Threshold() != 2 {
		t.Fatalf("threshold = %d, want 2", env.violations.Threshold())
	}
	env.violations.SetThreshold(0) // invalid, keeps current value
	if env.violations.Threshold() != 2 {
		t.Fatalf("zero threshold applied")
	}

	env.violations.Record("student-1", attempt.ID, ViolationReport{Type: "tab_switch"})
	res, err := env.violations.Record("student-1", attempt.ID, ViolationReport{Type: "tab_switch"})
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if !res.AutoSubmitted {
		t.Error("lowered threshold did not trigger auto-submit")
	}
}

func TestListViolationsByAttempt(t *testing.T) {
	env := newTestEnv()
	env.seedQuiz(t, "quiz-1", "teacher-1", "student-1")
	attempt := env.mustStart(t, "student-1", "quiz-1")

	env.violations.Record("student-1", attempt.ID, ViolationReport{Type: "tab_switch", QuestionIndex: intPtr(1)})
	env.violations.Record("student-1", attempt.ID, ViolationReport{Type: "copy_attempt"})

	list, err := env.violations.ListByAttempt(attempt.ID, "teacher-1", model.RoleTeacher)
	if err != nil {
		t.Fatalf("ListByAttempt: %v", err)
	}
	if len(list) != 2 {
		t.Errorf("violations = %d, want 2", len(list))
	}

	if _, err := env.violations.ListByAttempt(attempt.ID, "teacher-2", model.RoleTeacher); !errors.Is(err, util.ErrUnauthorized) {
		t.Errorf("foreign teacher = %v, want ErrUnauthorized", err)
	}
	if _, err := env.violations.ListByAttempt(attempt.ID, "anyone", model.RoleAdmin); err != nil {
		t.Errorf("admin read: %v", err)
	}
}
