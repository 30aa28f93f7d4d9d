package controller

import (
	"encoding/json"
	"errors"

	"medprep_backend/internal/service"
	"medprep_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type CaseController struct {
	CaseService *service.CaseService
}

func NewCaseController(caseService *service.CaseService) *CaseController {
	return &CaseController{CaseService: caseService}
}

func caseError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, util.ErrCaseNotFound):
		util.NotFound(ctx)
	case errors.Is(err, util.ErrPermissionDenied):
		util.Forbidden(ctx)
	default:
		util.LogInternalError(ctx, err)
	}
}

// Create godoc
// @Summary Create a patient case
// @Description Starts a draft case with the standard section skeleton
// @Tags cases
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   body body service.CaseInput true "Title and subject"
// @Success 201 {object} util.Response{data=model.PatientCase} "Created"
// @Router /api/cases [post]
func (c *CaseController) Create(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	var req service.CaseInput
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	pc, err := c.CaseService.Create(claims.UserID, req)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Created(ctx, pc)
}

// Get godoc
// @Summary Get a case
// @Description Returns the case with missing document sections filled with defaults
// @Tags cases
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path string true "Case ID"
// @Success 200 {object} util.Response{data=model.PatientCase} "Success"
// @Failure 404 {object} util.Response "Not found"
// @Router /api/cases/{id} [get]
func (c *CaseController) Get(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	pc, err := c.CaseService.Get(claims.UserID, ctx.Param("id"))
	if err != nil {
		caseError(ctx, err)
		return
	}
	util.Success(ctx, pc)
}

type CaseDocumentRequest struct {
	Document json.RawMessage `json:"document" binding:"required"`
}

// Autosave godoc
// @Summary Autosave the case document
// @Description Buffers the document; writes within the debounce window are coalesced into one save
// @Tags cases
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path string true "Case ID"
// @Param   body body CaseDocumentRequest true "Document"
// @Success 200 {object} util.Response "Buffered"
// @Router /api/cases/{id}/autosave [post]
func (c *CaseController) Autosave(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	var req CaseDocumentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	if err := c.CaseService.Autosave(claims.UserID, ctx.Param("id"), req.Document); err != nil {
		caseError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}

// Save godoc
// @Summary Save the case document immediately
// @Tags cases
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path string true "Case ID"
// @Param   body body CaseDocumentRequest true "Document"
// @Success 200 {object} util.Response "Saved"
// @Router /api/cases/{id}/save [post]
func (c *CaseController) Save(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	var req CaseDocumentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	if err := c.CaseService.Save(claims.UserID, ctx.Param("id"), req.Document); err != nil {
		caseError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}

// UpdateMeta godoc
// @Summary Update case title or subject
// @Tags cases
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path string true "Case ID"
// @Param   body body service.CaseInput true "Title and subject"
// @Success 200 {object} util.Response{data=model.PatientCase} "Success"
// @Router /api/cases/{id} [put]
func (c *CaseController) UpdateMeta(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	var req service.CaseInput
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	pc, err := c.CaseService.UpdateMeta(claims.UserID, ctx.Param("id"), req)
	if err != nil {
		caseError(ctx, err)
		return
	}
	util.Success(ctx, pc)
}

// Publish godoc
// @Summary Publish a case
// @Tags cases
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path string true "Case ID"
// @Success 200 {object} util.Response "Success"
// @Router /api/cases/{id}/publish [post]
func (c *CaseController) Publish(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if err := c.CaseService.Publish(claims.UserID, ctx.Param("id")); err != nil {
		caseError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}

// Delete godoc
// @Summary Delete a case
// @Tags cases
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path string true "Case ID"
// @Success 200 {object} util.Response "Success"
// @Router /api/cases/{id} [delete]
func (c *CaseController) Delete(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if err := c.CaseService.Delete(claims.UserID, claims.Role, ctx.Param("id")); err != nil {
		caseError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}

// ListMine godoc
// @Summary My cases
// @Tags cases
// @Produce  json
// @Security ApiKeyAuth
// @Param   page query int false "Page"
// @Param   limit query int false "Page size"
// @Success 200 {object} util.Response{data=util.PageResponse} "Success"
// @Router /api/cases/mine [get]
func (c *CaseController) ListMine(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	page, limit := pagination(ctx)
	cases, total, err := c.CaseService.ListMine(claims.UserID, page, limit)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, util.PageResponse{List: cases, Total: total, Page: page, Limit: limit})
}

// ListPublished godoc
// @Summary Published cases
// @Tags cases
// @Produce  json
// @Security ApiKeyAuth
// @Param   subject query string false "Subject filter"
// @Param   page query int false "Page"
// @Param   limit query int false "Page size"
// @Success 200 {object} util.Response{data=util.PageResponse} "Success"
// @Router /api/cases [get]
func (c *CaseController) ListPublished(ctx *gin.Context) {
	page, limit := pagination(ctx)
	cases, total, err := c.CaseService.ListPublished(ctx.Query("subject"), page, limit)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, util.PageResponse{List: cases, Total: total, Page: page, Limit: limit})
}
