package controller

import (
	"errors"
	"strconv"

	"medprep_backend/internal/service"
	"medprep_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type AttemptController struct {
	AttemptService *service.AttemptService
}

func NewAttemptController(attemptService *service.AttemptService) *AttemptController {
	return &AttemptController{AttemptService: attemptService}
}

func attemptError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, util.ErrTestNotFound), errors.Is(err, util.ErrAttemptNotFound):
		util.NotFound(ctx)
	case errors.Is(err, util.ErrTestNotPublished), errors.Is(err, util.ErrPermissionDenied):
		util.Forbidden(ctx)
	case errors.Is(err, util.ErrAttemptCompleted),
		errors.Is(err, util.ErrAttemptExists),
		errors.Is(err, util.ErrSectionNotActive),
		errors.Is(err, util.ErrFinalSubmitPending),
		errors.Is(err, util.ErrReviewNotAvailable),
		errors.Is(err, util.ErrNotEnoughQuestions):
		util.Conflict(ctx, err.Error())
	default:
		util.LogInternalError(ctx, err)
	}
}

type StartAttemptRequest struct {
	TestID string `json:"testId" binding:"required"`
}

// Start godoc
// @Summary Start or resume an attempt
// @Description Begins a new attempt on a published test, or resumes the caller's unfinished one mid-section
// @Tags attempts
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   body body StartAttemptRequest true "Test to attempt"
// @Success 200 {object} util.Response{data=service.AttemptState} "Success"
// @Failure 404 {object} util.Response "Test not found"
// @Failure 403 {object} util.Response "Test not published"
// @Router /api/attempts [post]
func (c *AttemptController) Start(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	var req StartAttemptRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	state, err := c.AttemptService.Start(claims.UserID, req.TestID)
	if err != nil {
		attemptError(ctx, err)
		return
	}
	util.Success(ctx, state)
}

// State godoc
// @Summary Attempt state
// @Description Live view of the attempt: active section, countdowns, answers
// @Tags attempts
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path string true "Attempt ID"
// @Success 200 {object} util.Response{data=service.AttemptState} "Success"
// @Failure 404 {object} util.Response "Not found"
// @Router /api/attempts/{id} [get]
func (c *AttemptController) State(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	state, err := c.AttemptService.State(claims.UserID, ctx.Param("id"))
	if err != nil {
		attemptError(ctx, err)
		return
	}
	util.Success(ctx, state)
}

type SelectAnswerRequest struct {
	QuestionID     string `json:"questionId" binding:"required"`
	SelectedOption int    `json:"selectedOption"` // 1-4, 0 clears
}

// Answer godoc
// @Summary Select an answer
// @Description Records a selection for a question in the active section. Regular-mode attempts get immediate feedback.
// @Tags attempts
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path string true "Attempt ID"
// @Param   body body SelectAnswerRequest true "Selection"
// @Success 200 {object} util.Response{data=service.AnswerFeedback} "Success"
// @Failure 409 {object} util.Response "Section not active"
// @Router /api/attempts/{id}/answer [post]
func (c *AttemptController) Answer(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	var req SelectAnswerRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	feedback, err := c.AttemptService.SelectAnswer(claims.UserID, ctx.Param("id"), req.QuestionID, req.SelectedOption)
	if err != nil {
		attemptError(ctx, err)
		return
	}
	util.Success(ctx, feedback)
}

type MarkReviewRequest struct {
	QuestionID string `json:"questionId" binding:"required"`
	Marked     bool   `json:"marked"`
}

// MarkReview godoc
// @Summary Flag a question for review
// @Tags attempts
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path string true "Attempt ID"
// @Param   body body MarkReviewRequest true "Flag state"
// @Success 200 {object} util.Response "Success"
// @Failure 409 {object} util.Response "Section not active"
// @Router /api/attempts/{id}/mark [post]
func (c *AttemptController) MarkReview(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	var req MarkReviewRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	if err := c.AttemptService.MarkForReview(claims.UserID, ctx.Param("id"), req.QuestionID, req.Marked); err != nil {
		attemptError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}

// SubmitSection godoc
// @Summary Submit the active section
// @Description Freezes the section and advances; on the last section the attempt waits for the final submit
// @Tags attempts
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path string true "Attempt ID"
// @Success 200 {object} util.Response{data=service.AttemptState} "Success"
// @Failure 409 {object} util.Response "Final submit pending"
// @Router /api/attempts/{id}/section/submit [post]
func (c *AttemptController) SubmitSection(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	state, err := c.AttemptService.SubmitSection(claims.UserID, ctx.Param("id"))
	if err != nil {
		attemptError(ctx, err)
		return
	}
	util.Success(ctx, state)
}

// Submit godoc
// @Summary Final submit
// @Description Irreversibly completes the attempt and returns the result
// @Tags attempts
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path string true "Attempt ID"
// @Success 200 {object} util.Response{data=service.AttemptResult} "Success"
// @Router /api/attempts/{id}/submit [post]
func (c *AttemptController) Submit(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	result, err := c.AttemptService.SubmitTest(claims.UserID, ctx.Param("id"))
	if err != nil {
		attemptError(ctx, err)
		return
	}
	util.Success(ctx, result)
}

// Result godoc
// @Summary Attempt result
// @Tags attempts
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path string true "Attempt ID"
// @Success 200 {object} util.Response{data=service.AttemptResult} "Success"
// @Failure 409 {object} util.Response "Not completed yet"
// @Router /api/attempts/{id}/result [get]
func (c *AttemptController) Result(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	result, err := c.AttemptService.Result(claims.UserID, ctx.Param("id"))
	if err != nil {
		attemptError(ctx, err)
		return
	}
	util.Success(ctx, result)
}

// Review godoc
// @Summary Answer review
// @Description Questions with the caller's answers and the key. Exam mode requires completion first.
// @Tags attempts
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path string true "Attempt ID"
// @Success 200 {object} util.Response{data=[]service.ReviewEntry} "Success"
// @Failure 409 {object} util.Response "Review not available"
// @Router /api/attempts/{id}/review [get]
func (c *AttemptController) Review(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	entries, err := c.AttemptService.Review(claims.UserID, ctx.Param("id"))
	if err != nil {
		attemptError(ctx, err)
		return
	}
	util.Success(ctx, entries)
}

// ListMine godoc
// @Summary My attempts
// @Tags attempts
// @Produce  json
// @Security ApiKeyAuth
// @Param   completed query bool false "Completed only"
// @Param   page query int false "Page"
// @Param   limit query int false "Page size"
// @Success 200 {object} util.Response{data=util.PageResponse} "Success"
// @Router /api/attempts [get]
func (c *AttemptController) ListMine(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	page, limit := pagination(ctx)
	completedOnly, _ := strconv.ParseBool(ctx.DefaultQuery("completed", "false"))
	attempts, total, err := c.AttemptService.ListMine(claims.UserID, completedOnly, page, limit)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, util.PageResponse{List: attempts, Total: total, Page: page, Limit: limit})
}

// Leaderboard godoc
// @Summary Test leaderboard
// @Tags attempts
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path string true "Test ID"
// @Param   limit query int false "Entries, default 20"
// @Success 200 {object} util.Response{data=[]repository.LeaderboardEntry} "Success"
// @Router /api/tests/{id}/leaderboard [get]
func (c *AttemptController) Leaderboard(ctx *gin.Context) {
	limit := util.MustParseInt(ctx.DefaultQuery("limit", "20"), 20)
	if limit < 1 || limit > 100 {
		limit = 20
	}
	entries, err := c.AttemptService.TopScores(ctx.Param("id"), limit)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, entries)
}
