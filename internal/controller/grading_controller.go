package controller

import (
	"quizgate_backend/internal/service"
	"quizgate_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type GradingController struct {
	Grading *service.GradingService
}

func NewGradingController(grading *service.GradingService) *GradingController {
	return &GradingController{Grading: grading}
}

// Grade godoc
// @Summary Grade an attempt
// @Description Applies manual marks to ungraded answers; the attempt moves to graded once every answer is final
// @Tags grading
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param attemptId path string true "attempt id"
// @Param body body service.GradeRequest true "grades payload"
// @Success 200 {object} util.Response
// @Failure 409 {object} util.Response "attempt not submitted"
// @Router /api/attempts/{attemptId}/grade [post]
func (c *GradingController) Grade(ctx *gin.Context) {
	var req service.GradeRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	claims := util.GetUserFromContext(ctx)
	attempt, err := c.Grading.Grade(claims.UserID, claims.Role, ctx.Param("attemptId"), req)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, attempt)
}

// ListPending godoc
// @Summary Attempts awaiting manual grading
// @Tags grading
// @Produce json
// @Security BearerAuth
// @Param quizId path string true "quiz id"
// @Success 200 {object} util.Response
// @Router /api/quizzes/{quizId}/grading/pending [get]
func (c *GradingController) ListPending(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	pending, err := c.Grading.ListPending(claims.UserID, claims.Role, ctx.Param("quizId"))
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, pending)
}
