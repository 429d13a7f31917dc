package repository

import (
	"errors"

	"quizgate_backend/internal/model"
	"quizgate_backend/internal/util"

	"gorm.io/gorm"
)

type ClassRepository struct {
	DB *gorm.DB
}

func NewClassRepository(db *gorm.DB) *ClassRepository {
	return &ClassRepository{DB: db}
}

func (r *ClassRepository) Create(class *model.Class) error {
	return r.DB.Create(class).Error
}

func (r *ClassRepository) FindByID(id string) (*model.Class, error) {
	var class model.Class
	err := r.DB.Where("id = ?", id).First(&class).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &class, nil
}

func (r *ClassRepository) ListByTeacher(teacherID string) ([]model.Class, error) {
	var classes []model.Class
	err := r.DB.Where("teacher_id = ?", teacherID).
		Order("name ASC").
		Find(&classes).Error
	return classes, err
}

func (r *ClassRepository) AssignStudent(classID, studentID string) error {
	return r.DB.Model(&model.User{}).
		Where("id = ? AND role = ?", studentID, model.RoleStudent).
		Update("class_id", classID).Error
}
