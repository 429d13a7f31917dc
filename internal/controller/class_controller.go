package controller

import (
	"quizgate_backend/internal/service"
	"quizgate_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type ClassController struct {
	Classes *service.ClassService
}

func NewClassController(classes *service.ClassService) *ClassController {
	return &ClassController{Classes: classes}
}

// Create godoc
// @Summary Create a class
// @Tags classes
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body service.ClassRequest true "class payload"
// @Success 201 {object} util.Response
// @Router /api/classes [post]
func (c *ClassController) Create(ctx *gin.Context) {
	var req service.ClassRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	claims := util.GetUserFromContext(ctx)
	class, err := c.Classes.Create(claims.UserID, req)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Created(ctx, class)
}

// List godoc
// @Summary List my classes
// @Tags classes
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response
// @Router /api/classes [get]
func (c *ClassController) List(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	classes, err := c.Classes.ListByTeacher(claims.UserID)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, classes)
}

// Students godoc
// @Summary List students of a class
// @Tags classes
// @Produce json
// @Security BearerAuth
// @Param classId path string true "class id"
// @Success 200 {object} util.Response
// @Router /api/classes/{classId}/students [get]
func (c *ClassController) Students(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	students, err := c.Classes.Students(claims.UserID, claims.Role, ctx.Param("classId"))
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, students)
}

type AssignStudentRequest struct {
	StudentID string `json:"student_id" binding:"required"`
}

// AssignStudent godoc
// @Summary Add a student to a class
// @Tags classes
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param classId path string true "class id"
// @Param body body AssignStudentRequest true "student id"
// @Success 200 {object} util.Response
// @Router /api/classes/{classId}/students [post]
func (c *ClassController) AssignStudent(ctx *gin.Context) {
	var req AssignStudentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	claims := util.GetUserFromContext(ctx)
	if err := c.Classes.AssignStudent(claims.UserID, claims.Role, ctx.Param("classId"), req.StudentID); err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}
