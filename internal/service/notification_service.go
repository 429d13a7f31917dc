package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"quizgate_backend/internal/model"
	"quizgate_backend/pkg/logger"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// NotificationService persists notifications and publishes them on a redis
// channel for connected clients. It implements Notifier: delivery is
// fire-and-forget, a failed insert or publish is logged and swallowed so it
// never poisons the operation that triggered it.
type NotificationService struct {
	Store NotificationStore
	Redis *redis.Client
}

func NewNotificationService(store NotificationStore, rdb *redis.Client) *NotificationService {
	return &NotificationService{Store: store, Redis: rdb}
}

func (s *NotificationService) deliver(n *model.Notification) {
	if err := s.Store.Create(n); err != nil {
		logger.Log.Error("failed to persist notification",
			zap.String("userId", n.UserID), zap.String("type", string(n.Type)), zap.Error(err))
		return
	}

	if s.Redis == nil {
		return
	}
	payload, err := json.Marshal(n)
	if err != nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	channel := "notifications:" + n.UserID
	if err := s.Redis.Publish(ctx, channel, payload).Err(); err != nil {
		logger.Log.Warn("failed to publish notification",
			zap.String("channel", channel), zap.Error(err))
	}
}

func (s *NotificationService) QuizPublished(quiz *model.Quiz, studentIDs []string) {
	meta, _ := json.Marshal(map[string]string{"quiz_id": quiz.ID})
	for _, sid := range studentIDs {
		s.deliver(&model.Notification{
			UserID:   sid,
			Type:     model.NotificationQuizPublished,
			Title:    "New quiz available",
			Message:  fmt.Sprintf("The quiz %q has been published.", quiz.Title),
			Metadata: meta,
		})
	}
}

func (s *NotificationService) AttemptGraded(studentID, quizTitle string, score float64, totalMarks int, percentage float64) {
	s.deliver(&model.Notification{
		UserID:  studentID,
		Type:    model.NotificationAttemptGraded,
		Title:   "Quiz graded",
		Message: fmt.Sprintf("Your attempt on %q was graded: %.1f/%d (%.2f%%).", quizTitle, score, totalMarks, percentage),
	})
}

func (s *NotificationService) AttemptReset(studentID, quizTitle string, additionalAttempts int, reason string) {
	msg := fmt.Sprintf("Your attempts on %q were reset.", quizTitle)
	if additionalAttempts > 0 {
		msg = fmt.Sprintf("Your attempts on %q were reset and you were granted %d additional attempt(s).", quizTitle, additionalAttempts)
	}
	meta, _ := json.Marshal(map[string]interface{}{
		"additional_attempts": additionalAttempts,
		"reason":              reason,
	})
	s.deliver(&model.Notification{
		UserID:   studentID,
		Type:     model.NotificationAttemptReset,
		Title:    "Attempts reset",
		Message:  msg,
		Metadata: meta,
	})
}

func (s *NotificationService) ViolationAlert(teacherID string, attempt *model.QuizAttempt, violation *model.Violation) {
	meta, _ := json.Marshal(map[string]interface{}{
		"attempt_id":       attempt.ID,
		"quiz_id":          attempt.QuizID,
		"student_id":       attempt.StudentID,
		"violation_type":   violation.Type,
		"total_violations": attempt.TotalViolations,
	})
	s.deliver(&model.Notification{
		UserID:   teacherID,
		Type:     model.NotificationViolationAlert,
		Title:    "Attempt auto-submitted for violations",
		Message:  fmt.Sprintf("An attempt was auto-submitted after %d integrity violations.", attempt.TotalViolations),
		Metadata: meta,
	})
}

func (s *NotificationService) ListForUser(userID string, unreadOnly bool) ([]model.Notification, error) {
	return s.Store.ListForUser(userID, unreadOnly, 100)
}

func (s *NotificationService) MarkRead(userID, notificationID string) error {
	return s.Store.MarkRead(userID, notificationID)
}

func (s *NotificationService) MarkAllRead(userID string) error {
	return s.Store.MarkAllRead(userID)
}

// CleanupExpired prunes read notifications older than the retention window.
// Invoked from the cron scheduler.
func (s *NotificationService) CleanupExpired(retentionDays int) {
	cutoff := time.Now().UTC().AddDate(0, 0, -retentionDays)
	deleted, err := s.Store.DeleteOlderThan(cutoff)
	if err != nil {
		logger.Log.Error("notification cleanup failed", zap.Error(err))
		return
	}
	if deleted > 0 {
		logger.Log.Info("pruned old notifications", zap.Int64("deleted", deleted))
	}
}
