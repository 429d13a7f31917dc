package model

import (
	"encoding/json"
	"strings"
)

type QuestionType string

const (
	QuestionMCQ         QuestionType = "mcq"
	QuestionTrueFalse   QuestionType = "true_false"
	QuestionDescriptive QuestionType = "descriptive"
	QuestionShortAnswer QuestionType = "short_answer"
)

func ParseQuestionType(s string) (QuestionType, bool) {
	switch QuestionType(strings.ToLower(strings.TrimSpace(s))) {
	case QuestionMCQ:
		return QuestionMCQ, true
	case QuestionTrueFalse:
		return QuestionTrueFalse, true
	case QuestionDescriptive:
		return QuestionDescriptive, true
	case QuestionShortAnswer:
		return QuestionShortAnswer, true
	}
	return "", false
}

// IsObjective reports whether the type is auto-gradable by option index.
func (t QuestionType) IsObjective() bool {
	return t == QuestionMCQ || t == QuestionTrueFalse
}

type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// swagger:model
type Question struct {
	UUIDBase

	Text       string       `gorm:"type:text;not null" json:"text"`
	Type       QuestionType `gorm:"type:varchar(20);not null;index" json:"type"`
	Topic      string       `gorm:"type:varchar(100);index" json:"topic"`
	Difficulty Difficulty   `gorm:"type:varchar(10);index" json:"difficulty"`
	Marks      int          `gorm:"not null" json:"marks"`
	CreatedBy  string       `gorm:"type:varchar(36);index;not null" json:"createdBy"`

	// Objective fields
	Options       json.RawMessage `gorm:"type:json" json:"options,omitempty"`
	CorrectAnswer *int            `json:"correctAnswer,omitempty"`

	// Subjective fields
	SampleAnswer  string `gorm:"type:text" json:"sampleAnswer,omitempty"`
	MarkingRubric string `gorm:"type:text" json:"markingRubric,omitempty"`
	AttachmentURL string `gorm:"type:varchar(512)" json:"attachmentUrl,omitempty"`
}

func (Question) TableName() string {
	return "questions"
}

// QuizQuestion links a question into a quiz with ordering and an optional
// per-quiz marks override.
type QuizQuestion struct {
	UUIDBase

	QuizID        string `gorm:"type:varchar(36);uniqueIndex:uq_quiz_question;not null" json:"quizId"`
	QuestionID    string `gorm:"type:varchar(36);uniqueIndex:uq_quiz_question;not null" json:"questionId"`
	OrderIndex    int    `json:"orderIndex"`
	MarksOverride *int   `json:"marksOverride,omitempty"`

	Question *Question `gorm:"foreignKey:QuestionID" json:"question,omitempty"`
}

func (QuizQuestion) TableName() string {
	return "quiz_questions"
}

// EffectiveMarks resolves the per-quiz override against the bank question.
func (qq *QuizQuestion) EffectiveMarks() int {
	if qq.MarksOverride != nil {
		return *qq.MarksOverride
	}
	if qq.Question != nil {
		return qq.Question.Marks
	}
	return 0
}
