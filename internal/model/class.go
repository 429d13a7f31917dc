package model

// swagger:model
type Class struct {
	UUIDBase

	Name      string `gorm:"type:varchar(255);not null" json:"name"`
	Subject   string `gorm:"type:varchar(100)" json:"subject"`
	TeacherID string `gorm:"type:varchar(36);index;not null" json:"teacherId"`
}

func (Class) TableName() string {
	return "classes"
}

// QuizClass assigns a quiz to a class. Enrollment checks walk
// user.class_id -> quiz_classes.
type QuizClass struct {
	UUIDBase

	QuizID  string `gorm:"type:varchar(36);uniqueIndex:uq_quiz_class;not null" json:"quizId"`
	ClassID string `gorm:"type:varchar(36);uniqueIndex:uq_quiz_class;not null" json:"classId"`
}

func (QuizClass) TableName() string {
	return "quiz_classes"
}
