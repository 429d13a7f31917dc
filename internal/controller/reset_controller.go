package controller

import (
	"quizgate_backend/internal/service"
	"quizgate_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type ResetController struct {
	Resets *service.AttemptResetService
}

func NewResetController(resets *service.AttemptResetService) *ResetController {
	return &ResetController{Resets: resets}
}

// ResetStudent godoc
// @Summary Reset a student's attempts
// @Description Archives all active attempts of the student on this quiz and optionally grants extra ones
// @Tags resets
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param quizId path string true "quiz id"
// @Param studentId path string true "student id"
// @Param body body service.ResetRequest true "reset payload"
// @Success 200 {object} util.Response
// @Failure 404 {object} util.Response "no attempts to reset"
// @Router /api/quizzes/{quizId}/students/{studentId}/reset [post]
func (c *ResetController) ResetStudent(ctx *gin.Context) {
	var req service.ResetRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	claims := util.GetUserFromContext(ctx)
	result, err := c.Resets.ResetStudentAttempts(claims.UserID, claims.Role, ctx.Param("quizId"), ctx.Param("studentId"), req)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, result)
}

// ResetQuiz godoc
// @Summary Reset every student's attempts on a quiz
// @Description Per-student resets; one failing student does not abort the rest
// @Tags resets
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param quizId path string true "quiz id"
// @Param body body service.ResetRequest true "reset payload"
// @Success 200 {object} util.Response
// @Router /api/quizzes/{quizId}/reset [post]
func (c *ResetController) ResetQuiz(ctx *gin.Context) {
	var req service.ResetRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	claims := util.GetUserFromContext(ctx)
	results, err := c.Resets.ResetQuizAttempts(claims.UserID, claims.Role, ctx.Param("quizId"), req)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, results)
}

// History godoc
// @Summary Archived attempts of a student
// @Tags resets
// @Produce json
// @Security BearerAuth
// @Param quizId path string true "quiz id"
// @Param studentId path string true "student id"
// @Success 200 {object} util.Response
// @Router /api/quizzes/{quizId}/students/{studentId}/history [get]
func (c *ResetController) History(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	history, err := c.Resets.History(claims.UserID, claims.Role, ctx.Param("quizId"), ctx.Param("studentId"))
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, history)
}

// Remaining godoc
// @Summary Remaining attempts of a student on a quiz
// @Tags resets
// @Produce json
// @Security BearerAuth
// @Param quizId path string true "quiz id"
// @Param studentId path string true "student id"
// @Success 200 {object} util.Response
// @Router /api/quizzes/{quizId}/students/{studentId}/remaining [get]
func (c *ResetController) Remaining(ctx *gin.Context) {
	remaining, err := c.Resets.RemainingAttempts(ctx.Param("studentId"), ctx.Param("quizId"))
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"remaining_attempts": remaining})
}
