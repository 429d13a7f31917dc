package repository

import (
	"errors"
	"time"

	"quizgate_backend/internal/model"
	"quizgate_backend/internal/service"
	"quizgate_backend/internal/util"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AttemptRepository implements service.AttemptStore on MySQL. Per-attempt
// serialization comes from SELECT ... FOR UPDATE inside a transaction;
// attempt numbering relies on the unique (quiz_id, student_id,
// attempt_number) index surfacing duplicates as util.ErrConflict.
type AttemptRepository struct {
	DB *gorm.DB
}

func NewAttemptRepository(db *gorm.DB) *AttemptRepository {
	return &AttemptRepository{DB: db}
}

func (r *AttemptRepository) Transaction(fn func(tx service.AttemptStore) error) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		return fn(&AttemptRepository{DB: tx})
	})
}

func (r *AttemptRepository) FindAttempt(id string) (*model.QuizAttempt, error) {
	var a model.QuizAttempt
	err := r.DB.Where("id = ?", id).First(&a).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *AttemptRepository) FindAttemptForUpdate(id string) (*model.QuizAttempt, error) {
	var a model.QuizAttempt
	err := r.DB.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).First(&a).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *AttemptRepository) CreateAttempt(a *model.QuizAttempt) error {
	err := r.DB.Create(a).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return util.ErrConflict
	}
	return err
}

func (r *AttemptRepository) SaveAttempt(a *model.QuizAttempt) error {
	return r.DB.Save(a).Error
}

func (r *AttemptRepository) MaxAttemptNumber(studentID, quizID string) (int, error) {
	var max int
	err := r.DB.Model(&model.QuizAttempt{}).
		Where("student_id = ? AND quiz_id = ?", studentID, quizID).
		Select("COALESCE(MAX(attempt_number), 0)").
		Scan(&max).Error
	return max, err
}

func (r *AttemptRepository) CountActiveAttempts(studentID, quizID string) (int64, error) {
	var count int64
	err := r.DB.Model(&model.QuizAttempt{}).
		Where("student_id = ? AND quiz_id = ? AND is_reset = ?", studentID, quizID, false).
		Count(&count).Error
	return count, err
}

func (r *AttemptRepository) LatestResetAttempt(studentID, quizID string) (*model.QuizAttempt, error) {
	var a model.QuizAttempt
	err := r.DB.Where("student_id = ? AND quiz_id = ? AND is_reset = ?", studentID, quizID, true).
		Order("reset_at DESC").
		First(&a).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *AttemptRepository) ListAttempts(studentID, quizID string) ([]model.QuizAttempt, error) {
	var attempts []model.QuizAttempt
	err := r.DB.Where("student_id = ? AND quiz_id = ?", studentID, quizID).
		Order("attempt_number ASC").
		Find(&attempts).Error
	return attempts, err
}

func (r *AttemptRepository) ListActiveAttempts(studentID, quizID string) ([]model.QuizAttempt, error) {
	var attempts []model.QuizAttempt
	err := r.DB.Where("student_id = ? AND quiz_id = ? AND is_reset = ?", studentID, quizID, false).
		Order("attempt_number ASC").
		Find(&attempts).Error
	return attempts, err
}

func (r *AttemptRepository) ListAttemptsByQuiz(quizID string) ([]model.QuizAttempt, error) {
	var attempts []model.QuizAttempt
	err := r.DB.Where("quiz_id = ?", quizID).
		Order("student_id ASC, attempt_number ASC").
		Find(&attempts).Error
	return attempts, err
}

func (r *AttemptRepository) DistinctStudentIDs(quizID string) ([]string, error) {
	var ids []string
	err := r.DB.Model(&model.QuizAttempt{}).
		Where("quiz_id = ? AND is_reset = ?", quizID, false).
		Distinct("student_id").
		Pluck("student_id", &ids).Error
	return ids, err
}

func (r *AttemptRepository) ListExpiredInProgress(now time.Time) ([]model.QuizAttempt, error) {
	var attempts []model.QuizAttempt
	err := r.DB.Where(
		"status = ? AND time_limit_minutes > 0 AND started_at < DATE_SUB(?, INTERVAL time_limit_minutes MINUTE)",
		model.AttemptInProgress, now,
	).Find(&attempts).Error
	return attempts, err
}

func (r *AttemptRepository) FindAnswer(attemptID, questionID string) (*model.StudentAnswer, error) {
	var ans model.StudentAnswer
	err := r.DB.Where("attempt_id = ? AND question_id = ?", attemptID, questionID).
		First(&ans).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &ans, nil
}

func (r *AttemptRepository) SaveAnswer(ans *model.StudentAnswer) error {
	return r.DB.Save(ans).Error
}

func (r *AttemptRepository) ListAnswers(attemptID string) ([]*model.StudentAnswer, error) {
	var answers []*model.StudentAnswer
	err := r.DB.Where("attempt_id = ?", attemptID).Find(&answers).Error
	return answers, err
}

func (r *AttemptRepository) CreateViolation(v *model.Violation) error {
	return r.DB.Create(v).Error
}

func (r *AttemptRepository) ListViolations(attemptID string) ([]model.Violation, error) {
	var violations []model.Violation
	err := r.DB.Where("attempt_id = ?", attemptID).
		Order("detected_at ASC").
		Find(&violations).Error
	return violations, err
}

func (r *AttemptRepository) CreateHistory(h *model.AttemptHistory) error {
	return r.DB.Create(h).Error
}

func (r *AttemptRepository) ListHistory(studentID, quizID string) ([]model.AttemptHistory, error) {
	var history []model.AttemptHistory
	err := r.DB.Where("student_id = ? AND quiz_id = ?", studentID, quizID).
		Order("archived_at DESC").
		Find(&history).Error
	return history, err
}

func (r *AttemptRepository) CreateAuditLog(l *model.AuditLog) error {
	return r.DB.Create(l).Error
}
