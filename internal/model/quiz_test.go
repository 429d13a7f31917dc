package model

import (
	"testing"
	"time"
)

func TestQuizAvailability(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	before := now.Add(-time.Hour)
	after := now.Add(time.Hour)

	cases := []struct {
		name  string
		start *time.Time
		end   *time.Time
		want  QuizAvailability
	}{
		{"no window", nil, nil, QuizOpen},
		{"inside window", &before, &after, QuizOpen},
		{"before start", &after, nil, QuizUpcoming},
		{"after end", nil, &before, QuizClosed},
		{"start boundary inclusive", &now, nil, QuizOpen},
		{"end boundary inclusive", nil, &now, QuizOpen},
	}
	for _, c := range cases {
		q := &Quiz{StartDate: c.start, EndDate: c.end}
		if got := q.Availability(now); got != c.want {
			t.Errorf("%s: Availability = %s, want %s", c.name, got, c.want)
		}
	}
}

func TestQuizAvailabilityNormalizesZones(t *testing.T) {
	// 13:00+01:00 equals 12:00 UTC; a naive comparison would misjudge this.
	zone := time.FixedZone("CET", 3600)
	end := time.Date(2025, 6, 1, 13, 0, 0, 0, zone)
	q := &Quiz{EndDate: &end}

	if got := q.Availability(time.Date(2025, 6, 1, 11, 59, 0, 0, time.UTC)); got != QuizOpen {
		t.Errorf("before zoned end: %s, want %s", got, QuizOpen)
	}
	if got := q.Availability(time.Date(2025, 6, 1, 12, 1, 0, 0, time.UTC)); got != QuizClosed {
		t.Errorf("after zoned end: %s, want %s", got, QuizClosed)
	}
}

func TestCompareUTC(t *testing.T) {
	a := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	if CompareUTC(a, a.Add(time.Nanosecond)) != -1 {
		t.Error("earlier not -1")
	}
	if CompareUTC(a.Add(time.Nanosecond), a) != 1 {
		t.Error("later not 1")
	}
	if CompareUTC(a, a.In(time.FixedZone("X", -7200))) != 0 {
		t.Error("same instant in different zones not 0")
	}
}

func TestParseQuizStatus(t *testing.T) {
	if s, ok := ParseQuizStatus("Published"); !ok || s != QuizPublished {
		t.Errorf("ParseQuizStatus = %q, %v", s, ok)
	}
	if _, ok := ParseQuizStatus("live"); ok {
		t.Error("unknown status parsed")
	}
}
