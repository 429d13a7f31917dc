package service

import (
	"encoding/json"
	"fmt"

	"quizgate_backend/internal/model"
	"quizgate_backend/internal/util"
)

// QuestionService manages the shared question bank.
type QuestionService struct {
	Questions QuestionStore
}

func NewQuestionService(questions QuestionStore) *QuestionService {
	return &QuestionService{Questions: questions}
}

type QuestionRequest struct {
	Text          string          `json:"text" binding:"required"`
	Type          string          `json:"type" binding:"required"`
	Topic         string          `json:"topic"`
	Difficulty    string          `json:"difficulty"`
	Marks         int             `json:"marks" binding:"required,min=1"`
	Options       json.RawMessage `json:"options"`
	CorrectAnswer *int            `json:"correct_answer"`
	SampleAnswer  string          `json:"sample_answer"`
	MarkingRubric string          `json:"marking_rubric"`
	AttachmentURL string          `json:"attachment_url"`
}

func (r *QuestionRequest) toModel(createdBy string) (*model.Question, error) {
	qtype, ok := model.ParseQuestionType(r.Type)
	if !ok {
		return nil, fmt.Errorf("%w: unknown question type %q", util.ErrValidation, r.Type)
	}

	if qtype.IsObjective() {
		if r.CorrectAnswer == nil {
			return nil, fmt.Errorf("%w: objective questions need a correct answer index", util.ErrValidation)
		}
		var options []string
		if qtype == model.QuestionTrueFalse {
			options = []string{"True", "False"}
		} else if err := json.Unmarshal(r.Options, &options); err != nil || len(options) < 2 {
			return nil, fmt.Errorf("%w: mcq questions need at least two options", util.ErrValidation)
		}
		if *r.CorrectAnswer < 0 || *r.CorrectAnswer >= len(options) {
			return nil, fmt.Errorf("%w: correct answer index out of range", util.ErrValidation)
		}
		if qtype == model.QuestionTrueFalse && r.Options == nil {
			encoded, _ := json.Marshal(options)
			r.Options = encoded
		}
	}

	return &model.Question{
		Text:          r.Text,
		Type:          qtype,
		Topic:         r.Topic,
		Difficulty:    model.Difficulty(r.Difficulty),
		Marks:         r.Marks,
		CreatedBy:     createdBy,
		Options:       r.Options,
		CorrectAnswer: r.CorrectAnswer,
		SampleAnswer:  r.SampleAnswer,
		MarkingRubric: r.MarkingRubric,
		AttachmentURL: r.AttachmentURL,
	}, nil
}

func (s *QuestionService) Create(teacherID string, req QuestionRequest) (*model.Question, error) {
	q, err := req.toModel(teacherID)
	if err != nil {
		return nil, err
	}
	if err := s.Questions.Create(q); err != nil {
		return nil, err
	}
	return q, nil
}

func (s *QuestionService) Update(teacherID string, role model.UserRole, questionID string, req QuestionRequest) (*model.Question, error) {
	existing, err := s.Questions.FindByID(questionID)
	if err != nil {
		return nil, err
	}
	if role != model.RoleAdmin && existing.CreatedBy != teacherID {
		return nil, util.ErrUnauthorized
	}

	updated, err := req.toModel(existing.CreatedBy)
	if err != nil {
		return nil, err
	}
	updated.UUIDBase = existing.UUIDBase
	if err := s.Questions.Save(updated); err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *QuestionService) Delete(teacherID string, role model.UserRole, questionID string) error {
	existing, err := s.Questions.FindByID(questionID)
	if err != nil {
		return err
	}
	if role != model.RoleAdmin && existing.CreatedBy != teacherID {
		return util.ErrUnauthorized
	}
	return s.Questions.Delete(questionID)
}

func (s *QuestionService) Get(questionID string) (*model.Question, error) {
	return s.Questions.FindByID(questionID)
}

func (s *QuestionService) List(f QuestionFilter, page, pageSize int) ([]model.Question, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	return s.Questions.List(f, page, pageSize)
}
