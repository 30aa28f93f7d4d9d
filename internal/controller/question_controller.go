package controller

import (
	"errors"

	"medprep_backend/internal/service"
	"medprep_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type QuestionController struct {
	QuestionService *service.QuestionService
}

func NewQuestionController(questionService *service.QuestionService) *QuestionController {
	return &QuestionController{QuestionService: questionService}
}

func pagination(ctx *gin.Context) (page, limit int) {
	page = util.MustParseInt(ctx.DefaultQuery("page", "1"), 1)
	limit = util.MustParseInt(ctx.DefaultQuery("limit", "20"), 20)
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return page, limit
}

// Create godoc
// @Summary Create a question
// @Description Add an MCQ to the bank (educator or admin)
// @Tags questions
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   body body service.QuestionInput true "Question"
// @Success 201 {object} util.Response{data=model.Question} "Created"
// @Failure 400 {object} util.Response "Invalid question"
// @Router /api/questions [post]
func (c *QuestionController) Create(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	var req service.QuestionInput
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	q, err := c.QuestionService.Create(claims.UserID, req)
	if err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	util.Created(ctx, q)
}

// Update godoc
// @Summary Update a question
// @Tags questions
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path string true "Question ID"
// @Param   body body service.QuestionInput true "Question"
// @Success 200 {object} util.Response{data=model.Question} "Success"
// @Failure 404 {object} util.Response "Not found"
// @Router /api/questions/{id} [put]
func (c *QuestionController) Update(ctx *gin.Context) {
	var req service.QuestionInput
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	q, err := c.QuestionService.Update(ctx.Param("id"), req)
	if err != nil {
		if errors.Is(err, util.ErrQuestionNotFound) {
			util.NotFound(ctx)
		} else {
			util.BadRequest(ctx, err.Error())
		}
		return
	}
	util.Success(ctx, q)
}

// Delete godoc
// @Summary Delete a question
// @Tags questions
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path string true "Question ID"
// @Success 200 {object} util.Response "Success"
// @Router /api/questions/{id} [delete]
func (c *QuestionController) Delete(ctx *gin.Context) {
	if err := c.QuestionService.Delete(ctx.Param("id")); err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}

// Get godoc
// @Summary Get a question
// @Description Full question including the key, for editing (educator or admin)
// @Tags questions
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path string true "Question ID"
// @Success 200 {object} util.Response{data=model.Question} "Success"
// @Failure 404 {object} util.Response "Not found"
// @Router /api/questions/{id} [get]
func (c *QuestionController) Get(ctx *gin.Context) {
	q, err := c.QuestionService.Get(ctx.Param("id"))
	if err != nil {
		if errors.Is(err, util.ErrQuestionNotFound) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, gin.H{
		"question":      q,
		"correctOption": q.CorrectOption,
	})
}

// List godoc
// @Summary List questions
// @Tags questions
// @Produce  json
// @Security ApiKeyAuth
// @Param   subject query string false "Subject code"
// @Param   topic query string false "Topic"
// @Param   q query string false "Content search"
// @Param   page query int false "Page"
// @Param   limit query int false "Page size"
// @Success 200 {object} util.Response{data=util.PageResponse} "Success"
// @Router /api/questions [get]
func (c *QuestionController) List(ctx *gin.Context) {
	page, limit := pagination(ctx)
	questions, total, err := c.QuestionService.List(
		ctx.Query("subject"), ctx.Query("topic"), ctx.Query("q"), page, limit)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, util.PageResponse{List: questions, Total: total, Page: page, Limit: limit})
}

// Subjects godoc
// @Summary List subjects
// @Tags questions
// @Produce  json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=[]model.Subject} "Success"
// @Router /api/subjects [get]
func (c *QuestionController) Subjects(ctx *gin.Context) {
	subjects, err := c.QuestionService.Subjects()
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, subjects)
}
