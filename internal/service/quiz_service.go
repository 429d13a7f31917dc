package service

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"quizgate_backend/internal/model"
	"quizgate_backend/internal/util"
)

// QuizService manages quiz definitions: CRUD, question composition, class
// assignment and publication. Attempt-side reads go through the same store
// via the QuizCatalog interface.
type QuizService struct {
	Quizzes   QuizAdminStore
	Questions QuestionStore
	Notifier  Notifier
}

func NewQuizService(quizzes QuizAdminStore, questions QuestionStore, notifier Notifier) *QuizService {
	return &QuizService{Quizzes: quizzes, Questions: questions, Notifier: notifier}
}

type QuizRequest struct {
	Title                      string     `json:"title" binding:"required"`
	Subject                    string     `json:"subject"`
	Description                string     `json:"description"`
	TimeLimitMinutes           int        `json:"time_limit_minutes" binding:"min=0"`
	StartDate                  *time.Time `json:"start_date"`
	EndDate                    *time.Time `json:"end_date"`
	PassingPercentage          int        `json:"passing_percentage"`
	MaxAttempts                int        `json:"max_attempts"`
	ShowAnswersAfterSubmission bool       `json:"show_answers_after_submission"`
	RandomizeQuestions         bool       `json:"randomize_questions"`
	AllowReview                bool       `json:"allow_review"`
}

func (r *QuizRequest) validate() error {
	if r.StartDate != nil && r.EndDate != nil && model.CompareUTC(*r.EndDate, *r.StartDate) <= 0 {
		return fmt.Errorf("%w: end date must be after start date", util.ErrValidation)
	}
	if r.PassingPercentage < 0 || r.PassingPercentage > 100 {
		return fmt.Errorf("%w: passing percentage must be between 0 and 100", util.ErrValidation)
	}
	if r.MaxAttempts < 1 {
		return fmt.Errorf("%w: max attempts must be at least 1", util.ErrValidation)
	}
	return nil
}

const accessCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

func generateAccessCode() (string, error) {
	code := make([]byte, 6)
	for i := range code {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(accessCodeAlphabet))))
		if err != nil {
			return "", err
		}
		code[i] = accessCodeAlphabet[n.Int64()]
	}
	return string(code), nil
}

func (s *QuizService) Create(teacherID string, req QuizRequest) (*model.Quiz, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	code, err := generateAccessCode()
	if err != nil {
		return nil, err
	}

	quiz := &model.Quiz{
		Title:                      req.Title,
		Subject:                    req.Subject,
		Description:                req.Description,
		AccessCode:                 code,
		TimeLimitMinutes:           req.TimeLimitMinutes,
		Status:                     model.QuizDraft,
		StartDate:                  req.StartDate,
		EndDate:                    req.EndDate,
		CreatedBy:                  teacherID,
		PassingPercentage:          req.PassingPercentage,
		MaxAttempts:                req.MaxAttempts,
		ShowAnswersAfterSubmission: req.ShowAnswersAfterSubmission,
		RandomizeQuestions:         req.RandomizeQuestions,
		AllowReview:                req.AllowReview,
	}
	if quiz.PassingPercentage == 0 {
		quiz.PassingPercentage = 40
	}
	if quiz.MaxAttempts == 0 {
		quiz.MaxAttempts = 1
	}

	if err := s.Quizzes.Create(quiz); err != nil {
		return nil, err
	}
	return quiz, nil
}

func (s *QuizService) Update(teacherID string, role model.UserRole, quizID string, req QuizRequest) (*model.Quiz, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	quiz, err := s.owned(teacherID, role, quizID)
	if err != nil {
		return nil, err
	}

	quiz.Title = req.Title
	quiz.Subject = req.Subject
	quiz.Description = req.Description
	quiz.TimeLimitMinutes = req.TimeLimitMinutes
	quiz.StartDate = req.StartDate
	quiz.EndDate = req.EndDate
	quiz.PassingPercentage = req.PassingPercentage
	quiz.MaxAttempts = req.MaxAttempts
	quiz.ShowAnswersAfterSubmission = req.ShowAnswersAfterSubmission
	quiz.RandomizeQuestions = req.RandomizeQuestions
	quiz.AllowReview = req.AllowReview

	if err := s.Quizzes.Save(quiz); err != nil {
		return nil, err
	}
	return quiz, nil
}

func (s *QuizService) Delete(teacherID string, role model.UserRole, quizID string) error {
	quiz, err := s.owned(teacherID, role, quizID)
	if err != nil {
		return err
	}
	if quiz.IsPublished() {
		return fmt.Errorf("%w: unpublish the quiz before deleting it", util.ErrInvalidState)
	}
	return s.Quizzes.Delete(quizID)
}

func (s *QuizService) Get(quizID string) (*model.Quiz, error) {
	quiz, err := s.Quizzes.FindQuiz(quizID)
	if err != nil {
		return nil, err
	}
	quiz.Questions, err = s.Quizzes.QuizQuestions(quizID)
	if err != nil {
		return nil, err
	}
	return quiz, nil
}

func (s *QuizService) GetByAccessCode(code string) (*model.Quiz, error) {
	return s.Quizzes.FindByAccessCode(code)
}

func (s *QuizService) ListByTeacher(teacherID string) ([]model.Quiz, error) {
	return s.Quizzes.ListByTeacher(teacherID)
}

func (s *QuizService) ListForStudent(studentID string) ([]model.Quiz, error) {
	return s.Quizzes.ListForStudent(studentID)
}

// Publish flips a draft quiz live and fans a notification out to every
// enrolled student.
func (s *QuizService) Publish(teacherID string, role model.UserRole, quizID string) (*model.Quiz, error) {
	quiz, err := s.owned(teacherID, role, quizID)
	if err != nil {
		return nil, err
	}
	if quiz.Status != model.QuizDraft {
		return nil, util.ErrInvalidState
	}

	links, err := s.Quizzes.QuizQuestions(quizID)
	if err != nil {
		return nil, err
	}
	if len(links) == 0 {
		return nil, fmt.Errorf("%w: cannot publish a quiz with no questions", util.ErrValidation)
	}

	quiz.Status = model.QuizPublished
	if err := s.Quizzes.Save(quiz); err != nil {
		return nil, err
	}

	if studentIDs, serr := s.Quizzes.EnrolledStudentIDs(quizID); serr == nil {
		s.Notifier.QuizPublished(quiz, studentIDs)
	}
	return quiz, nil
}

func (s *QuizService) Archive(teacherID string, role model.UserRole, quizID string) (*model.Quiz, error) {
	quiz, err := s.owned(teacherID, role, quizID)
	if err != nil {
		return nil, err
	}
	if quiz.Status != model.QuizPublished {
		return nil, util.ErrInvalidState
	}
	quiz.Status = model.QuizArchived
	if err := s.Quizzes.Save(quiz); err != nil {
		return nil, err
	}
	return quiz, nil
}

type AddQuestionRequest struct {
	QuestionID    string `json:"question_id" binding:"required"`
	OrderIndex    int    `json:"order_index"`
	MarksOverride *int   `json:"marks_override"`
}

func (s *QuizService) AddQuestion(teacherID string, role model.UserRole, quizID string, req AddQuestionRequest) (*model.QuizQuestion, error) {
	quiz, err := s.owned(teacherID, role, quizID)
	if err != nil {
		return nil, err
	}
	if quiz.IsPublished() {
		return nil, fmt.Errorf("%w: cannot modify questions of a published quiz", util.ErrInvalidState)
	}

	if _, err := s.Questions.FindByID(req.QuestionID); err != nil {
		return nil, err
	}

	link := &model.QuizQuestion{
		QuizID:        quizID,
		QuestionID:    req.QuestionID,
		OrderIndex:    req.OrderIndex,
		MarksOverride: req.MarksOverride,
	}
	if err := s.Quizzes.AddQuestion(link); err != nil {
		return nil, err
	}
	return link, nil
}

func (s *QuizService) RemoveQuestion(teacherID string, role model.UserRole, quizID, questionID string) error {
	quiz, err := s.owned(teacherID, role, quizID)
	if err != nil {
		return err
	}
	if quiz.IsPublished() {
		return fmt.Errorf("%w: cannot modify questions of a published quiz", util.ErrInvalidState)
	}
	return s.Quizzes.RemoveQuestion(quizID, questionID)
}

func (s *QuizService) AssignClasses(teacherID string, role model.UserRole, quizID string, classIDs []string) error {
	if _, err := s.owned(teacherID, role, quizID); err != nil {
		return err
	}
	return s.Quizzes.AssignClasses(quizID, classIDs)
}

func (s *QuizService) owned(teacherID string, role model.UserRole, quizID string) (*model.Quiz, error) {
	quiz, err := s.Quizzes.FindQuiz(quizID)
	if err != nil {
		return nil, err
	}
	if role != model.RoleAdmin && quiz.CreatedBy != teacherID {
		return nil, util.ErrUnauthorized
	}
	return quiz, nil
}
