package repository

import (
	"errors"

	"quizgate_backend/internal/model"
	"quizgate_backend/internal/util"

	"gorm.io/gorm"
)

// QuizRepository covers quiz definitions and their class assignments. It
// doubles as the read-only catalog the attempt engine consumes.
type QuizRepository struct {
	DB *gorm.DB
}

func NewQuizRepository(db *gorm.DB) *QuizRepository {
	return &QuizRepository{DB: db}
}

func (r *QuizRepository) Create(quiz *model.Quiz) error {
	return r.DB.Create(quiz).Error
}

func (r *QuizRepository) Save(quiz *model.Quiz) error {
	return r.DB.Save(quiz).Error
}

func (r *QuizRepository) Delete(id string) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("quiz_id = ?", id).Delete(&model.QuizQuestion{}).Error; err != nil {
			return err
		}
		if err := tx.Where("quiz_id = ?", id).Delete(&model.QuizClass{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&model.Quiz{}).Error
	})
}

func (r *QuizRepository) FindQuiz(id string) (*model.Quiz, error) {
	var quiz model.Quiz
	err := r.DB.Where("id = ?", id).First(&quiz).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &quiz, nil
}

func (r *QuizRepository) FindByAccessCode(code string) (*model.Quiz, error) {
	var quiz model.Quiz
	err := r.DB.Where("access_code = ?", code).First(&quiz).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &quiz, nil
}

func (r *QuizRepository) ListByTeacher(teacherID string) ([]model.Quiz, error) {
	var quizzes []model.Quiz
	err := r.DB.Where("created_by = ?", teacherID).
		Order("created_at DESC").
		Find(&quizzes).Error
	return quizzes, err
}

// ListForStudent returns published quizzes assigned to the student's class.
func (r *QuizRepository) ListForStudent(studentID string) ([]model.Quiz, error) {
	var quizzes []model.Quiz
	err := r.DB.
		Joins("JOIN quiz_classes qc ON qc.quiz_id = quizzes.id").
		Joins("JOIN users u ON u.class_id = qc.class_id").
		Where("u.id = ? AND quizzes.status = ?", studentID, model.QuizPublished).
		Order("quizzes.created_at DESC").
		Find(&quizzes).Error
	return quizzes, err
}

func (r *QuizRepository) QuizQuestions(quizID string) ([]model.QuizQuestion, error) {
	var links []model.QuizQuestion
	err := r.DB.Preload("Question").
		Where("quiz_id = ?", quizID).
		Order("order_index ASC").
		Find(&links).Error
	return links, err
}

func (r *QuizRepository) AddQuestion(link *model.QuizQuestion) error {
	err := r.DB.Create(link).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return util.ErrConflict
	}
	return err
}

func (r *QuizRepository) RemoveQuestion(quizID, questionID string) error {
	return r.DB.Where("quiz_id = ? AND question_id = ?", quizID, questionID).
		Delete(&model.QuizQuestion{}).Error
}

func (r *QuizRepository) IsEnrolled(studentID, quizID string) (bool, error) {
	var count int64
	err := r.DB.Model(&model.QuizClass{}).
		Joins("JOIN users u ON u.class_id = quiz_classes.class_id").
		Where("u.id = ? AND quiz_classes.quiz_id = ?", studentID, quizID).
		Count(&count).Error
	return count > 0, err
}

// AssignClasses replaces the quiz's class assignments.
func (r *QuizRepository) AssignClasses(quizID string, classIDs []string) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("quiz_id = ?", quizID).Delete(&model.QuizClass{}).Error; err != nil {
			return err
		}
		for _, classID := range classIDs {
			link := &model.QuizClass{QuizID: quizID, ClassID: classID}
			if err := tx.Create(link).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// EnrolledStudentIDs lists the students whose classes have the quiz assigned.
func (r *QuizRepository) EnrolledStudentIDs(quizID string) ([]string, error) {
	var ids []string
	err := r.DB.Model(&model.User{}).
		Joins("JOIN quiz_classes qc ON qc.class_id = users.class_id").
		Where("qc.quiz_id = ? AND users.role = ?", quizID, model.RoleStudent).
		Pluck("users.id", &ids).Error
	return ids, err
}
