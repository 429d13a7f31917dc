package model

import "testing"

func TestAnswerValueValidate(t *testing.T) {
	if err := TextAnswer("some working").Validate(); err != nil {
		t.Errorf("text answer: %v", err)
	}
	if err := OptionAnswer(0).Validate(); err != nil {
		t.Errorf("option zero: %v", err)
	}
	if err := TextAnswer("").Validate(); err == nil {
		t.Error("empty text accepted")
	}
	if err := OptionAnswer(-1).Validate(); err == nil {
		t.Error("negative option accepted")
	}
	if err := (AnswerValue{}).Validate(); err == nil {
		t.Error("untagged value accepted")
	}
}

func TestStudentAnswerSetValue(t *testing.T) {
	var a StudentAnswer

	a.SetValue(OptionAnswer(2))
	if a.ValueKind != AnswerOption || a.OptionValue == nil || *a.OptionValue != 2 {
		t.Errorf("option not stored: kind=%s value=%v", a.ValueKind, a.OptionValue)
	}

	// Switching kinds clears the other branch.
	a.SetValue(TextAnswer("rewritten"))
	if a.ValueKind != AnswerText || a.TextValue != "rewritten" {
		t.Errorf("text not stored: kind=%s value=%q", a.ValueKind, a.TextValue)
	}
	if a.OptionValue != nil {
		t.Error("stale option value survived kind switch")
	}

	got := a.Value()
	if got.Kind != AnswerText || got.Text != "rewritten" {
		t.Errorf("Value() = %+v", got)
	}
}

func TestStudentAnswerAnswered(t *testing.T) {
	var a StudentAnswer
	a.SetValue(TextAnswer(""))
	if a.Answered() {
		t.Error("empty text counted as answered")
	}
	a.SetValue(OptionAnswer(0))
	if !a.Answered() {
		t.Error("option zero not counted as answered")
	}
}
