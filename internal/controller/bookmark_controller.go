package controller

import (
	"errors"

	"medprep_backend/internal/service"
	"medprep_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type BookmarkController struct {
	BookmarkService *service.BookmarkService
}

func NewBookmarkController(bookmarkService *service.BookmarkService) *BookmarkController {
	return &BookmarkController{BookmarkService: bookmarkService}
}

type AddBookmarkRequest struct {
	QuestionID string `json:"questionId" binding:"required"`
	Note       string `json:"note"`
}

// Add godoc
// @Summary Bookmark a question
// @Tags bookmarks
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   body body AddBookmarkRequest true "Question to bookmark"
// @Success 201 {object} util.Response{data=model.Bookmark} "Created"
// @Failure 409 {object} util.Response "Already bookmarked"
// @Router /api/bookmarks [post]
func (c *BookmarkController) Add(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	var req AddBookmarkRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	b, err := c.BookmarkService.Add(claims.UserID, req.QuestionID, req.Note)
	if err != nil {
		switch {
		case errors.Is(err, util.ErrQuestionNotFound):
			util.NotFound(ctx)
		case errors.Is(err, util.ErrBookmarkExists):
			util.Conflict(ctx, err.Error())
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Created(ctx, b)
}

// Remove godoc
// @Summary Remove a bookmark
// @Tags bookmarks
// @Produce  json
// @Security ApiKeyAuth
// @Param   questionId path string true "Question ID"
// @Success 200 {object} util.Response "Success"
// @Router /api/bookmarks/{questionId} [delete]
func (c *BookmarkController) Remove(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if err := c.BookmarkService.Remove(claims.UserID, ctx.Param("questionId")); err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}

type BookmarkNoteRequest struct {
	Note string `json:"note"`
}

// UpdateNote godoc
// @Summary Update a bookmark's note
// @Tags bookmarks
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   questionId path string true "Question ID"
// @Param   body body BookmarkNoteRequest true "Note"
// @Success 200 {object} util.Response "Success"
// @Router /api/bookmarks/{questionId} [put]
func (c *BookmarkController) UpdateNote(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	var req BookmarkNoteRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	if err := c.BookmarkService.UpdateNote(claims.UserID, ctx.Param("questionId"), req.Note); err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}

// List godoc
// @Summary My bookmarks
// @Tags bookmarks
// @Produce  json
// @Security ApiKeyAuth
// @Param   subject query string false "Subject filter"
// @Param   page query int false "Page"
// @Param   limit query int false "Page size"
// @Success 200 {object} util.Response{data=util.PageResponse} "Success"
// @Router /api/bookmarks [get]
func (c *BookmarkController) List(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	page, limit := pagination(ctx)
	views, total, err := c.BookmarkService.List(claims.UserID, ctx.Query("subject"), page, limit)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, util.PageResponse{List: views, Total: total, Page: page, Limit: limit})
}
