package model

import (
	"errors"
	"time"
)

type AnswerKind string

const (
	AnswerText   AnswerKind = "text"
	AnswerOption AnswerKind = "option"
)

// AnswerValue is the tagged answer payload: exactly one of Text or Option is
// meaningful, selected by Kind.
type AnswerValue struct {
	Kind   AnswerKind `json:"kind"`
	Text   string     `json:"text,omitempty"`
	Option int        `json:"option,omitempty"`
}

func TextAnswer(text string) AnswerValue {
	return AnswerValue{Kind: AnswerText, Text: text}
}

func OptionAnswer(option int) AnswerValue {
	return AnswerValue{Kind: AnswerOption, Option: option}
}

var ErrEmptyAnswer = errors.New("answer value is empty")

func (v AnswerValue) Validate() error {
	switch v.Kind {
	case AnswerText:
		if v.Text == "" {
			return ErrEmptyAnswer
		}
	case AnswerOption:
		if v.Option < 0 {
			return errors.New("option index must be non-negative")
		}
	default:
		return errors.New("answer must carry either text or an option index")
	}
	return nil
}

// swagger:model
type StudentAnswer struct {
	UUIDBase

	AttemptID  string `gorm:"type:varchar(36);uniqueIndex:uq_attempt_question;not null" json:"attemptId"`
	QuestionID string `gorm:"type:varchar(36);uniqueIndex:uq_attempt_question;not null" json:"questionId"`

	ValueKind   AnswerKind `gorm:"type:varchar(10);not null" json:"valueKind"`
	TextValue   string     `gorm:"type:text" json:"textValue,omitempty"`
	OptionValue *int       `json:"optionValue,omitempty"`

	// Grading
	MarksAwarded *float64   `gorm:"type:decimal(7,2)" json:"marksAwarded,omitempty"`
	Feedback     string     `gorm:"type:text" json:"feedback,omitempty"`
	GradedBy     *string    `gorm:"type:varchar(36)" json:"gradedBy,omitempty"`
	GradedAt     *time.Time `json:"gradedAt,omitempty"`

	// IsFinal means the marks will not be recomputed: set immediately for
	// auto-graded objective answers and after manual grading.
	IsFinal    bool      `gorm:"default:false" json:"isFinal"`
	AnsweredAt time.Time `json:"answeredAt"`
}

func (StudentAnswer) TableName() string {
	return "student_answers"
}

// SetValue stores the tagged value, clearing whichever branch is not taken.
func (a *StudentAnswer) SetValue(v AnswerValue) {
	a.ValueKind = v.Kind
	switch v.Kind {
	case AnswerText:
		a.TextValue = v.Text
		a.OptionValue = nil
	case AnswerOption:
		opt := v.Option
		a.OptionValue = &opt
		a.TextValue = ""
	}
}

func (a *StudentAnswer) Value() AnswerValue {
	if a.ValueKind == AnswerOption && a.OptionValue != nil {
		return OptionAnswer(*a.OptionValue)
	}
	return TextAnswer(a.TextValue)
}

// Answered reports whether the row carries an actual response.
func (a *StudentAnswer) Answered() bool {
	if a.ValueKind == AnswerOption {
		return a.OptionValue != nil
	}
	return a.TextValue != ""
}
