package service

import (
	"quizgate_backend/internal/model"
	"quizgate_backend/internal/util"
)

type ClassService struct {
	Classes ClassStore
	Users   UserStore
}

func NewClassService(classes ClassStore, users UserStore) *ClassService {
	return &ClassService{Classes: classes, Users: users}
}

type ClassRequest struct {
	Name    string `json:"name" binding:"required"`
	Subject string `json:"subject"`
}

func (s *ClassService) Create(teacherID string, req ClassRequest) (*model.Class, error) {
	class := &model.Class{
		Name:      req.Name,
		Subject:   req.Subject,
		TeacherID: teacherID,
	}
	if err := s.Classes.Create(class); err != nil {
		return nil, err
	}
	return class, nil
}

func (s *ClassService) ListByTeacher(teacherID string) ([]model.Class, error) {
	return s.Classes.ListByTeacher(teacherID)
}

func (s *ClassService) Students(teacherID string, role model.UserRole, classID string) ([]model.User, error) {
	class, err := s.Classes.FindByID(classID)
	if err != nil {
		return nil, err
	}
	if role != model.RoleAdmin && class.TeacherID != teacherID {
		return nil, util.ErrUnauthorized
	}
	return s.Users.ListByClass(classID)
}

func (s *ClassService) AssignStudent(teacherID string, role model.UserRole, classID, studentID string) error {
	class, err := s.Classes.FindByID(classID)
	if err != nil {
		return err
	}
	if role != model.RoleAdmin && class.TeacherID != teacherID {
		return util.ErrUnauthorized
	}

	student, err := s.Users.FindByID(studentID)
	if err != nil {
		return err
	}
	if student.Role != model.RoleStudent {
		return util.ErrValidation
	}
	return s.Classes.AssignStudent(classID, studentID)
}
