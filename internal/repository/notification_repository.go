package repository

import (
	"time"

	"quizgate_backend/internal/model"

	"gorm.io/gorm"
)

type NotificationRepository struct {
	DB *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) *NotificationRepository {
	return &NotificationRepository{DB: db}
}

func (r *NotificationRepository) Create(n *model.Notification) error {
	return r.DB.Create(n).Error
}

func (r *NotificationRepository) ListForUser(userID string, unreadOnly bool, limit int) ([]model.Notification, error) {
	query := r.DB.Where("user_id = ?", userID)
	if unreadOnly {
		query = query.Where("`read` = ?", false)
	}
	var notifications []model.Notification
	err := query.Order("created_at DESC").Limit(limit).Find(&notifications).Error
	return notifications, err
}

func (r *NotificationRepository) MarkRead(userID, notificationID string) error {
	return r.DB.Model(&model.Notification{}).
		Where("id = ? AND user_id = ?", notificationID, userID).
		Update("read", true).Error
}

func (r *NotificationRepository) MarkAllRead(userID string) error {
	return r.DB.Model(&model.Notification{}).
		Where("user_id = ? AND `read` = ?", userID, false).
		Update("read", true).Error
}

// DeleteOlderThan prunes read notifications past the retention window.
func (r *NotificationRepository) DeleteOlderThan(cutoff time.Time) (int64, error) {
	result := r.DB.Where("`read` = ? AND created_at < ?", true, cutoff).
		Delete(&model.Notification{})
	return result.RowsAffected, result.Error
}
