package controller

import (
	"errors"

	"medprep_backend/internal/service"
	"medprep_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type TestController struct {
	TestService *service.TestService
}

func NewTestController(testService *service.TestService) *TestController {
	return &TestController{TestService: testService}
}

// Create godoc
// @Summary Create a test
// @Description Build a sectioned test from an explicit question list (educator or admin)
// @Tags tests
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   body body service.TestInput true "Test definition"
// @Success 201 {object} util.Response{data=model.Test} "Created"
// @Failure 400 {object} util.Response "Invalid definition"
// @Router /api/tests [post]
func (c *TestController) Create(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	var req service.TestInput
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	test, err := c.TestService.Create(claims.UserID, req)
	if err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	util.Created(ctx, test)
}

// CreateCustom godoc
// @Summary Build a custom practice test
// @Description Assemble a personal test from random questions in the chosen subjects
// @Tags tests
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   body body service.CustomTestInput true "Custom test request"
// @Success 201 {object} util.Response{data=model.Test} "Created"
// @Failure 400 {object} util.Response "Not enough questions"
// @Router /api/tests/custom [post]
func (c *TestController) CreateCustom(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	var req service.CustomTestInput
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	test, err := c.TestService.CreateCustom(claims.UserID, req)
	if err != nil {
		if errors.Is(err, util.ErrNotEnoughQuestions) {
			util.BadRequest(ctx, err.Error())
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Created(ctx, test)
}

// List godoc
// @Summary List published tests
// @Tags tests
// @Produce  json
// @Security ApiKeyAuth
// @Param   mode query string false "exam or regular"
// @Param   page query int false "Page"
// @Param   limit query int false "Page size"
// @Success 200 {object} util.Response{data=util.PageResponse} "Success"
// @Router /api/tests [get]
func (c *TestController) List(ctx *gin.Context) {
	page, limit := pagination(ctx)
	tests, total, err := c.TestService.List(ctx.Query("mode"), page, limit)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, util.PageResponse{List: tests, Total: total, Page: page, Limit: limit})
}

// ListMine godoc
// @Summary List my authored tests
// @Tags tests
// @Produce  json
// @Security ApiKeyAuth
// @Param   page query int false "Page"
// @Param   limit query int false "Page size"
// @Success 200 {object} util.Response{data=util.PageResponse} "Success"
// @Router /api/tests/mine [get]
func (c *TestController) ListMine(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	page, limit := pagination(ctx)
	tests, total, err := c.TestService.ListByCreator(claims.UserID, page, limit)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, util.PageResponse{List: tests, Total: total, Page: page, Limit: limit})
}

// Get godoc
// @Summary Test detail
// @Description Test metadata plus its sectioned, key-free question list
// @Tags tests
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path string true "Test ID"
// @Success 200 {object} util.Response{data=service.TestDetail} "Success"
// @Failure 404 {object} util.Response "Not found"
// @Router /api/tests/{id} [get]
func (c *TestController) Get(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	detail, err := c.TestService.GetDetail(claims.UserID, ctx.Param("id"))
	if err != nil {
		switch {
		case errors.Is(err, util.ErrTestNotFound):
			util.NotFound(ctx)
		case errors.Is(err, util.ErrTestNotPublished):
			util.Forbidden(ctx)
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, detail)
}

// Publish godoc
// @Summary Publish a test
// @Tags tests
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path string true "Test ID"
// @Success 200 {object} util.Response "Success"
// @Failure 403 {object} util.Response "Not the creator"
// @Router /api/tests/{id}/publish [post]
func (c *TestController) Publish(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	err := c.TestService.Publish(claims.UserID, claims.Role, ctx.Param("id"))
	if err != nil {
		switch {
		case errors.Is(err, util.ErrTestNotFound):
			util.NotFound(ctx)
		case errors.Is(err, util.ErrPermissionDenied):
			util.Forbidden(ctx)
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, nil)
}

// Delete godoc
// @Summary Delete a test
// @Tags tests
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path string true "Test ID"
// @Success 200 {object} util.Response "Success"
// @Failure 403 {object} util.Response "Not the creator"
// @Router /api/tests/{id} [delete]
func (c *TestController) Delete(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	err := c.TestService.Delete(claims.UserID, claims.Role, ctx.Param("id"))
	if err != nil {
		switch {
		case errors.Is(err, util.ErrTestNotFound):
			util.NotFound(ctx)
		case errors.Is(err, util.ErrPermissionDenied):
			util.Forbidden(ctx)
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, nil)
}
