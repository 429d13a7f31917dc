package repository

import (
	"errors"
	"time"

	"quizgate_backend/internal/model"
	"quizgate_backend/internal/util"

	"gorm.io/gorm"
)

type UserRepository struct {
	DB *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{DB: db}
}

func (r *UserRepository) Create(user *model.User) error {
	err := r.DB.Create(user).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return util.ErrEmailRegistered
	}
	return err
}

func (r *UserRepository) FindByID(id string) (*model.User, error) {
	var user model.User
	err := r.DB.Where("id = ?", id).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) FindByEmail(email string) (*model.User, error) {
	var user model.User
	err := r.DB.Where("email = ?", email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) UpdateLastSeen(id string, at time.Time) error {
	return r.DB.Model(&model.User{}).
		Where("id = ?", id).
		Update("last_seen_at", at).Error
}

func (r *UserRepository) ListByClass(classID string) ([]model.User, error) {
	var users []model.User
	err := r.DB.Where("class_id = ? AND role = ?", classID, model.RoleStudent).
		Order("name ASC").
		Find(&users).Error
	return users, err
}
