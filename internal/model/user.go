package model

import "time"

type UserRole string

const (
	RoleStudent UserRole = "student"
	RoleTeacher UserRole = "teacher"
	RoleAdmin   UserRole = "admin"
)

// swagger:model
type User struct {
	UUIDBase

	Email    string   `gorm:"uniqueIndex;type:varchar(255);not null" json:"email"`
	Password string   `gorm:"type:varchar(255);not null" json:"-"`
	Name     string   `gorm:"type:varchar(255);not null" json:"name"`
	Role     UserRole `gorm:"type:varchar(20);not null;default:'student'" json:"role"`

	// Students belong to at most one class.
	ClassID *string `gorm:"type:varchar(36);index" json:"classId,omitempty"`

	LastSeenAt *time.Time `json:"lastSeenAt,omitempty"`
}

func (User) TableName() string {
	return "users"
}
