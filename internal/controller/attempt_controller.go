package controller

import (
	"quizgate_backend/internal/model"
	"quizgate_backend/internal/service"
	"quizgate_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type AttemptController struct {
	Attempts   *service.AttemptService
	Violations *service.ViolationService
}

func NewAttemptController(attempts *service.AttemptService, violations *service.ViolationService) *AttemptController {
	return &AttemptController{Attempts: attempts, Violations: violations}
}

// Start godoc
// @Summary Start a quiz attempt
// @Description Creates a new attempt if the quiz is open and the student has attempts remaining
// @Tags attempts
// @Produce json
// @Security BearerAuth
// @Param quizId path string true "quiz id"
// @Success 201 {object} util.Response
// @Failure 403 {object} util.Response
// @Failure 409 {object} util.Response
// @Router /api/quizzes/{quizId}/attempts [post]
func (c *AttemptController) Start(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	started, err := c.Attempts.Start(claims.UserID, ctx.Param("quizId"), ctx.ClientIP(), ctx.Request.UserAgent())
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Created(ctx, started)
}

type SubmitAnswerRequest struct {
	QuestionID string `json:"question_id" binding:"required"`
	Kind       string `json:"kind" binding:"required,oneof=text option"`
	Text       string `json:"text"`
	Option     *int   `json:"option"`
}

// SubmitAnswer godoc
// @Summary Save an answer
// @Description Upserts the answer for one question of an in-progress attempt
// @Tags attempts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param attemptId path string true "attempt id"
// @Param body body SubmitAnswerRequest true "answer payload"
// @Success 200 {object} util.Response
// @Failure 409 {object} util.Response "attempt is not in progress or time expired"
// @Router /api/attempts/{attemptId}/answers [put]
func (c *AttemptController) SubmitAnswer(ctx *gin.Context) {
	var req SubmitAnswerRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	var value model.AnswerValue
	if req.Kind == "option" {
		if req.Option == nil {
			util.BadRequest(ctx, "option index is required")
			return
		}
		value = model.OptionAnswer(*req.Option)
	} else {
		value = model.TextAnswer(req.Text)
	}

	claims := util.GetUserFromContext(ctx)
	answer, err := c.Attempts.SubmitAnswer(claims.UserID, ctx.Param("attemptId"), req.QuestionID, value)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, answer)
}

// Submit godoc
// @Summary Submit an attempt
// @Description Finishes the attempt; objective questions are graded immediately. Idempotent.
// @Tags attempts
// @Produce json
// @Security BearerAuth
// @Param attemptId path string true "attempt id"
// @Success 200 {object} util.Response
// @Router /api/attempts/{attemptId}/submit [post]
func (c *AttemptController) Submit(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	attempt, err := c.Attempts.Submit(claims.UserID, ctx.Param("attemptId"))
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, attempt)
}

// Get godoc
// @Summary Attempt detail
// @Description Attempt with answers and violations; owners and quiz teachers only
// @Tags attempts
// @Produce json
// @Security BearerAuth
// @Param attemptId path string true "attempt id"
// @Success 200 {object} util.Response
// @Router /api/attempts/{attemptId} [get]
func (c *AttemptController) Get(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	attempt, err := c.Attempts.Get(ctx.Param("attemptId"), claims.UserID, claims.Role)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, attempt)
}

// List godoc
// @Summary List my attempts on a quiz
// @Tags attempts
// @Produce json
// @Security BearerAuth
// @Param quizId path string true "quiz id"
// @Success 200 {object} util.Response
// @Router /api/quizzes/{quizId}/attempts [get]
func (c *AttemptController) List(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	attempts, err := c.Attempts.ListForStudent(claims.UserID, ctx.Param("quizId"))
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, attempts)
}

// Summary godoc
// @Summary My standing on a quiz
// @Description Active attempts, best score and remaining attempt slots
// @Tags attempts
// @Produce json
// @Security BearerAuth
// @Param quizId path string true "quiz id"
// @Success 200 {object} util.Response
// @Router /api/quizzes/{quizId}/attempts/summary [get]
func (c *AttemptController) Summary(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	summary, err := c.Attempts.Summary(claims.UserID, ctx.Param("quizId"))
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, summary)
}

// RecordViolation godoc
// @Summary Report an integrity violation
// @Description Appends a proctoring event; crossing the threshold auto-submits the attempt
// @Tags attempts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param attemptId path string true "attempt id"
// @Param body body service.ViolationReport true "violation payload"
// @Success 200 {object} util.Response
// @Failure 409 {object} util.Response "attempt already terminal"
// @Router /api/attempts/{attemptId}/violations [post]
func (c *AttemptController) RecordViolation(ctx *gin.Context) {
	var req service.ViolationReport
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	claims := util.GetUserFromContext(ctx)
	result, err := c.Violations.Record(claims.UserID, ctx.Param("attemptId"), req)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, result)
}

// ListViolations godoc
// @Summary Violation log of an attempt
// @Tags attempts
// @Produce json
// @Security BearerAuth
// @Param attemptId path string true "attempt id"
// @Success 200 {object} util.Response
// @Router /api/attempts/{attemptId}/violations [get]
func (c *AttemptController) ListViolations(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	violations, err := c.Violations.ListByAttempt(ctx.Param("attemptId"), claims.UserID, claims.Role)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, violations)
}

// Statistics godoc
// @Summary Quiz attempt statistics
// @Tags attempts
// @Produce json
// @Security BearerAuth
// @Param quizId path string true "quiz id"
// @Success 200 {object} util.Response
// @Router /api/quizzes/{quizId}/statistics [get]
func (c *AttemptController) Statistics(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	stats, err := c.Attempts.Statistics(claims.UserID, claims.Role, ctx.Param("quizId"))
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, stats)
}

// Categorized godoc
// @Summary Attempts grouped by how they ended
// @Tags attempts
// @Produce json
// @Security BearerAuth
// @Param quizId path string true "quiz id"
// @Success 200 {object} util.Response
// @Router /api/quizzes/{quizId}/submissions [get]
func (c *AttemptController) Categorized(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	out, err := c.Attempts.Categorized(claims.UserID, claims.Role, ctx.Param("quizId"))
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, out)
}
