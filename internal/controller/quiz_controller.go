package controller

import (
	"quizgate_backend/internal/model"
	"quizgate_backend/internal/service"
	"quizgate_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type QuizController struct {
	Quizzes *service.QuizService
}

func NewQuizController(quizzes *service.QuizService) *QuizController {
	return &QuizController{Quizzes: quizzes}
}

// Create godoc
// @Summary Create a quiz
// @Tags quizzes
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body service.QuizRequest true "quiz payload"
// @Success 201 {object} util.Response
// @Router /api/quizzes [post]
func (c *QuizController) Create(ctx *gin.Context) {
	var req service.QuizRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	claims := util.GetUserFromContext(ctx)
	quiz, err := c.Quizzes.Create(claims.UserID, req)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Created(ctx, quiz)
}

// Update godoc
// @Summary Update a quiz
// @Tags quizzes
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param quizId path string true "quiz id"
// @Param body body service.QuizRequest true "quiz payload"
// @Success 200 {object} util.Response
// @Router /api/quizzes/{quizId} [put]
func (c *QuizController) Update(ctx *gin.Context) {
	var req service.QuizRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	claims := util.GetUserFromContext(ctx)
	quiz, err := c.Quizzes.Update(claims.UserID, claims.Role, ctx.Param("quizId"), req)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, quiz)
}

// Delete godoc
// @Summary Delete a draft quiz
// @Tags quizzes
// @Produce json
// @Security BearerAuth
// @Param quizId path string true "quiz id"
// @Success 200 {object} util.Response
// @Router /api/quizzes/{quizId} [delete]
func (c *QuizController) Delete(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if err := c.Quizzes.Delete(claims.UserID, claims.Role, ctx.Param("quizId")); err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}

// Get godoc
// @Summary Quiz detail with questions
// @Tags quizzes
// @Produce json
// @Security BearerAuth
// @Param quizId path string true "quiz id"
// @Success 200 {object} util.Response
// @Router /api/quizzes/{quizId} [get]
func (c *QuizController) Get(ctx *gin.Context) {
	quiz, err := c.Quizzes.Get(ctx.Param("quizId"))
	if err != nil {
		util.RespondError(ctx, err)
		return
	}

	// Students never see answer keys.
	claims := util.GetUserFromContext(ctx)
	if claims != nil && claims.Role == model.RoleStudent {
		for i := range quiz.Questions {
			if quiz.Questions[i].Question != nil {
				quiz.Questions[i].Question.CorrectAnswer = nil
				quiz.Questions[i].Question.SampleAnswer = ""
				quiz.Questions[i].Question.MarkingRubric = ""
			}
		}
	}
	util.Success(ctx, quiz)
}

// List godoc
// @Summary List quizzes
// @Description Teachers see their own quizzes, students the published ones assigned to their class
// @Tags quizzes
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response
// @Router /api/quizzes [get]
func (c *QuizController) List(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)

	var err error
	var quizzes []model.Quiz
	if claims.Role == model.RoleStudent {
		quizzes, err = c.Quizzes.ListForStudent(claims.UserID)
	} else {
		quizzes, err = c.Quizzes.ListByTeacher(claims.UserID)
	}
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, quizzes)
}

// Publish godoc
// @Summary Publish a quiz
// @Tags quizzes
// @Produce json
// @Security BearerAuth
// @Param quizId path string true "quiz id"
// @Success 200 {object} util.Response
// @Failure 409 {object} util.Response "quiz is not a draft"
// @Router /api/quizzes/{quizId}/publish [post]
func (c *QuizController) Publish(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	quiz, err := c.Quizzes.Publish(claims.UserID, claims.Role, ctx.Param("quizId"))
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, quiz)
}

// Archive godoc
// @Summary Archive a published quiz
// @Tags quizzes
// @Produce json
// @Security BearerAuth
// @Param quizId path string true "quiz id"
// @Success 200 {object} util.Response
// @Router /api/quizzes/{quizId}/archive [post]
func (c *QuizController) Archive(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	quiz, err := c.Quizzes.Archive(claims.UserID, claims.Role, ctx.Param("quizId"))
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, quiz)
}

// AddQuestion godoc
// @Summary Add a bank question to a quiz
// @Tags quizzes
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param quizId path string true "quiz id"
// @Param body body service.AddQuestionRequest true "link payload"
// @Success 201 {object} util.Response
// @Router /api/quizzes/{quizId}/questions [post]
func (c *QuizController) AddQuestion(ctx *gin.Context) {
	var req service.AddQuestionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	claims := util.GetUserFromContext(ctx)
	link, err := c.Quizzes.AddQuestion(claims.UserID, claims.Role, ctx.Param("quizId"), req)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Created(ctx, link)
}

// RemoveQuestion godoc
// @Summary Remove a question from a quiz
// @Tags quizzes
// @Produce json
// @Security BearerAuth
// @Param quizId path string true "quiz id"
// @Param questionId path string true "question id"
// @Success 200 {object} util.Response
// @Router /api/quizzes/{quizId}/questions/{questionId} [delete]
func (c *QuizController) RemoveQuestion(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if err := c.Quizzes.RemoveQuestion(claims.UserID, claims.Role, ctx.Param("quizId"), ctx.Param("questionId")); err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}

type AssignClassesRequest struct {
	ClassIDs []string `json:"class_ids" binding:"required"`
}

// AssignClasses godoc
// @Summary Assign a quiz to classes
// @Tags quizzes
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param quizId path string true "quiz id"
// @Param body body AssignClassesRequest true "class ids"
// @Success 200 {object} util.Response
// @Router /api/quizzes/{quizId}/classes [put]
func (c *QuizController) AssignClasses(ctx *gin.Context) {
	var req AssignClassesRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	claims := util.GetUserFromContext(ctx)
	if err := c.Quizzes.AssignClasses(claims.UserID, claims.Role, ctx.Param("quizId"), req.ClassIDs); err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}
