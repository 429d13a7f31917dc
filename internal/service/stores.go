package service

import (
	"time"

	"quizgate_backend/internal/model"
)

// QuizCatalog is the read-only quiz surface the attempt engine consumes.
// Quiz definitions are external collaborators: the engine reads them at
// attempt creation and never mutates them.
type QuizCatalog interface {
	// FindQuiz returns util.ErrNotFound when the quiz does not exist.
	FindQuiz(id string) (*model.Quiz, error)
	// QuizQuestions returns the quiz question links ordered by OrderIndex,
	// with the bank question preloaded.
	QuizQuestions(quizID string) ([]model.QuizQuestion, error)
	// IsEnrolled reports whether the student's class has the quiz assigned.
	IsEnrolled(studentID, quizID string) (bool, error)
}

// AttemptStore is the transactional persistence surface of the attempt
// engine. Implementations must serialize per-attempt mutations: inside
// Transaction, FindAttemptForUpdate takes a row lock (or equivalent) so two
// concurrent transitions on the same attempt cannot both win.
type AttemptStore interface {
	// Transaction runs fn against a store bound to a single transaction.
	// A non-nil error from fn rolls everything back.
	Transaction(fn func(tx AttemptStore) error) error

	// FindAttempt returns util.ErrNotFound when the attempt does not exist.
	FindAttempt(id string) (*model.QuizAttempt, error)
	// FindAttemptForUpdate locks the attempt row for the transaction.
	FindAttemptForUpdate(id string) (*model.QuizAttempt, error)
	// CreateAttempt returns util.ErrConflict on an attempt-number collision.
	CreateAttempt(a *model.QuizAttempt) error
	SaveAttempt(a *model.QuizAttempt) error

	// MaxAttemptNumber covers all attempts, superseded included, so numbers
	// stay unique across resets.
	MaxAttemptNumber(studentID, quizID string) (int, error)
	// CountActiveAttempts counts attempts with is_reset = false.
	CountActiveAttempts(studentID, quizID string) (int64, error)
	// LatestResetAttempt returns the most recently reset attempt by reset_at,
	// or (nil, nil) when the student was never reset.
	LatestResetAttempt(studentID, quizID string) (*model.QuizAttempt, error)
	ListAttempts(studentID, quizID string) ([]model.QuizAttempt, error)
	ListActiveAttempts(studentID, quizID string) ([]model.QuizAttempt, error)
	ListAttemptsByQuiz(quizID string) ([]model.QuizAttempt, error)
	DistinctStudentIDs(quizID string) ([]string, error)
	// ListExpiredInProgress returns IN_PROGRESS attempts whose snapshotted
	// time limit elapsed before now.
	ListExpiredInProgress(now time.Time) ([]model.QuizAttempt, error)

	// FindAnswer returns (nil, nil) when the question has no answer yet.
	FindAnswer(attemptID, questionID string) (*model.StudentAnswer, error)
	SaveAnswer(ans *model.StudentAnswer) error
	ListAnswers(attemptID string) ([]*model.StudentAnswer, error)

	CreateViolation(v *model.Violation) error
	ListViolations(attemptID string) ([]model.Violation, error)

	CreateHistory(h *model.AttemptHistory) error
	ListHistory(studentID, quizID string) ([]model.AttemptHistory, error)

	CreateAuditLog(l *model.AuditLog) error
}

// Notifier is the fire-and-forget notification sink. Implementations log
// delivery failures; they never propagate them into the calling operation.
type Notifier interface {
	QuizPublished(quiz *model.Quiz, studentIDs []string)
	AttemptGraded(studentID, quizTitle string, score float64, totalMarks int, percentage float64)
	AttemptReset(studentID, quizTitle string, additionalAttempts int, reason string)
	ViolationAlert(teacherID string, attempt *model.QuizAttempt, violation *model.Violation)
}

// AvailabilityCalculator derives how many attempts a student has left; it is
// consulted before every start.
type AvailabilityCalculator interface {
	RemainingAttempts(studentID, quizID string) (int, error)
}

type UserStore interface {
	// Create returns util.ErrEmailRegistered on a duplicate email.
	Create(user *model.User) error
	FindByID(id string) (*model.User, error)
	FindByEmail(email string) (*model.User, error)
	UpdateLastSeen(id string, at time.Time) error
	ListByClass(classID string) ([]model.User, error)
}

// QuizAdminStore is the read-write quiz surface behind quiz management.
type QuizAdminStore interface {
	QuizCatalog

	Create(quiz *model.Quiz) error
	Save(quiz *model.Quiz) error
	Delete(id string) error
	FindByAccessCode(code string) (*model.Quiz, error)
	ListByTeacher(teacherID string) ([]model.Quiz, error)
	ListForStudent(studentID string) ([]model.Quiz, error)
	// AddQuestion returns util.ErrConflict when the question is already linked.
	AddQuestion(link *model.QuizQuestion) error
	RemoveQuestion(quizID, questionID string) error
	AssignClasses(quizID string, classIDs []string) error
	EnrolledStudentIDs(quizID string) ([]string, error)
}

// QuestionFilter narrows bank listings. Zero values mean no constraint.
type QuestionFilter struct {
	CreatedBy  string
	Topic      string
	Type       model.QuestionType
	Difficulty model.Difficulty
}

type QuestionStore interface {
	Create(q *model.Question) error
	Save(q *model.Question) error
	Delete(id string) error
	FindByID(id string) (*model.Question, error)
	List(f QuestionFilter, page, pageSize int) ([]model.Question, int64, error)
}

type ClassStore interface {
	Create(class *model.Class) error
	FindByID(id string) (*model.Class, error)
	ListByTeacher(teacherID string) ([]model.Class, error)
	AssignStudent(classID, studentID string) error
}

type NotificationStore interface {
	Create(n *model.Notification) error
	ListForUser(userID string, unreadOnly bool, limit int) ([]model.Notification, error)
	MarkRead(userID, notificationID string) error
	MarkAllRead(userID string) error
	DeleteOlderThan(cutoff time.Time) (int64, error)
}
