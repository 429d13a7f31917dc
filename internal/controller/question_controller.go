package controller

import (
	"fmt"
	"path/filepath"
	"strconv"

	"quizgate_backend/internal/model"
	"quizgate_backend/internal/service"
	"quizgate_backend/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type QuestionController struct {
	Questions *service.QuestionService
	Storage   *service.StorageService
}

func NewQuestionController(questions *service.QuestionService, storage *service.StorageService) *QuestionController {
	return &QuestionController{Questions: questions, Storage: storage}
}

// Create godoc
// @Summary Create a bank question
// @Tags questions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body service.QuestionRequest true "question payload"
// @Success 201 {object} util.Response
// @Router /api/questions [post]
func (c *QuestionController) Create(ctx *gin.Context) {
	var req service.QuestionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	claims := util.GetUserFromContext(ctx)
	q, err := c.Questions.Create(claims.UserID, req)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Created(ctx, q)
}

// Update godoc
// @Summary Update a bank question
// @Tags questions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param questionId path string true "question id"
// @Param body body service.QuestionRequest true "question payload"
// @Success 200 {object} util.Response
// @Router /api/questions/{questionId} [put]
func (c *QuestionController) Update(ctx *gin.Context) {
	var req service.QuestionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	claims := util.GetUserFromContext(ctx)
	q, err := c.Questions.Update(claims.UserID, claims.Role, ctx.Param("questionId"), req)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, q)
}

// Delete godoc
// @Summary Delete a bank question
// @Tags questions
// @Produce json
// @Security BearerAuth
// @Param questionId path string true "question id"
// @Success 200 {object} util.Response
// @Router /api/questions/{questionId} [delete]
func (c *QuestionController) Delete(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if err := c.Questions.Delete(claims.UserID, claims.Role, ctx.Param("questionId")); err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}

// Get godoc
// @Summary Question detail
// @Tags questions
// @Produce json
// @Security BearerAuth
// @Param questionId path string true "question id"
// @Success 200 {object} util.Response
// @Router /api/questions/{questionId} [get]
func (c *QuestionController) Get(ctx *gin.Context) {
	q, err := c.Questions.Get(ctx.Param("questionId"))
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, q)
}

// List godoc
// @Summary List bank questions
// @Tags questions
// @Produce json
// @Security BearerAuth
// @Param topic query string false "topic filter"
// @Param type query string false "type filter"
// @Param difficulty query string false "difficulty filter"
// @Param page query int false "page"
// @Param limit query int false "page size"
// @Success 200 {object} util.Response{data=util.PageResponse}
// @Router /api/questions [get]
func (c *QuestionController) List(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)

	filter := service.QuestionFilter{
		Topic:      ctx.Query("topic"),
		Type:       model.QuestionType(ctx.Query("type")),
		Difficulty: model.Difficulty(ctx.Query("difficulty")),
	}
	if claims.Role != model.RoleAdmin {
		filter.CreatedBy = claims.UserID
	}

	page, _ := strconv.Atoi(ctx.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "20"))

	questions, total, err := c.Questions.List(filter, page, limit)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, util.PageResponse{List: questions, Total: total, Page: page, Limit: limit})
}

// UploadAttachment godoc
// @Summary Upload a question attachment
// @Description Stores an image for use in question text
// @Tags questions
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param file formData file true "attachment file"
// @Success 201 {object} util.Response
// @Router /api/questions/attachments [post]
func (c *QuestionController) UploadAttachment(ctx *gin.Context) {
	file, header, err := ctx.Request.FormFile("file")
	if err != nil {
		util.BadRequest(ctx, "missing file")
		return
	}
	defer file.Close()

	if header.Size > 10<<20 {
		util.BadRequest(ctx, "file exceeds 10MB limit")
		return
	}

	name := fmt.Sprintf("questions/%s%s", uuid.New().String(), filepath.Ext(header.Filename))
	url, err := c.Storage.Upload(ctx.Request.Context(), name, file, header.Size, header.Header.Get("Content-Type"))
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Created(ctx, gin.H{"url": url})
}
