package model

import (
	"testing"
	"time"
)

func TestAttemptTransitions(t *testing.T) {
	cases := []struct {
		from, to AttemptStatus
		ok       bool
	}{
		{AttemptInProgress, AttemptSubmitted, true},
		{AttemptInProgress, AttemptAutoSubmitted, true},
		{AttemptInProgress, AttemptGraded, true},
		{AttemptSubmitted, AttemptGraded, true},
		{AttemptAutoSubmitted, AttemptGraded, true},
		{AttemptSubmitted, AttemptInProgress, false},
		{AttemptSubmitted, AttemptAutoSubmitted, false},
		{AttemptAutoSubmitted, AttemptSubmitted, false},
		{AttemptGraded, AttemptSubmitted, false},
		{AttemptGraded, AttemptInProgress, false},
		{AttemptInProgress, AttemptInProgress, false},
	}
	for _, c := range cases {
		if got := c.from.CanTransitionTo(c.to); got != c.ok {
			t.Errorf("%s -> %s = %v, want %v", c.from, c.to, got, c.ok)
		}
	}
}

func TestAttemptStatusIsTerminal(t *testing.T) {
	if AttemptInProgress.IsTerminal() {
		t.Error("in_progress reported terminal")
	}
	for _, s := range []AttemptStatus{AttemptSubmitted, AttemptAutoSubmitted, AttemptGraded} {
		if !s.IsTerminal() {
			t.Errorf("%s not reported terminal", s)
		}
	}
}

func TestParseAttemptStatus(t *testing.T) {
	if s, ok := ParseAttemptStatus(" AUTO_SUBMITTED "); !ok || s != AttemptAutoSubmitted {
		t.Errorf("ParseAttemptStatus = %q, %v", s, ok)
	}
	if _, ok := ParseAttemptStatus("finished"); ok {
		t.Error("unknown status parsed")
	}
}

func TestAttemptDeadline(t *testing.T) {
	started := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	a := &QuizAttempt{StartedAt: started, TimeLimitMinutes: 45}

	want := started.Add(45 * time.Minute)
	if got := a.Deadline(); !got.Equal(want) {
		t.Errorf("Deadline = %v, want %v", got, want)
	}
	if a.TimeExpired(want) {
		t.Error("expired exactly at the deadline")
	}
	if !a.TimeExpired(want.Add(time.Second)) {
		t.Error("not expired one second past the deadline")
	}

	unlimited := &QuizAttempt{StartedAt: started}
	if !unlimited.Deadline().IsZero() {
		t.Error("unlimited attempt has a deadline")
	}
	if unlimited.TimeExpired(started.Add(1000 * time.Hour)) {
		t.Error("unlimited attempt expired")
	}
}

func TestQuestionSnapshotsRoundTrip(t *testing.T) {
	correct := 1
	snaps := QuestionSnapshots{
		{QuestionID: "q1", Type: QuestionMCQ, Marks: 3, CorrectAnswer: &correct, OrderIndex: 0},
		{QuestionID: "q2", Type: QuestionDescriptive, Marks: 7, OrderIndex: 1},
	}

	v, err := snaps.Value()
	if err != nil {
		t.Fatalf("Value: %v", err)
	}
	var decoded QuestionSnapshots
	if err := decoded.Scan(v); err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(decoded) != 2 || decoded[0].QuestionID != "q1" || decoded[1].Marks != 7 {
		t.Errorf("round trip mangled snapshot: %+v", decoded)
	}
	if decoded[0].CorrectAnswer == nil || *decoded[0].CorrectAnswer != 1 {
		t.Errorf("correct answer lost: %v", decoded[0].CorrectAnswer)
	}

	if snaps.TotalMarks() != 10 {
		t.Errorf("TotalMarks = %d, want 10", snaps.TotalMarks())
	}
	byID := snaps.ByQuestionID()
	if byID["q2"].Type != QuestionDescriptive {
		t.Errorf("ByQuestionID lookup failed: %+v", byID)
	}

	var nilSnaps QuestionSnapshots
	v, err = nilSnaps.Value()
	if err != nil || v != "[]" {
		t.Errorf("nil snapshot Value = %v, %v, want \"[]\"", v, err)
	}
	var fromNil QuestionSnapshots
	if err := fromNil.Scan(nil); err != nil || fromNil != nil {
		t.Errorf("Scan(nil) = %v, %v", fromNil, err)
	}
	if err := fromNil.Scan(3.14); err == nil {
		t.Error("Scan accepted an unsupported column type")
	}
}
