package controller

import (
	"medprep_backend/internal/service"
	"medprep_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type AnalyticsController struct {
	AnalyticsService *service.AnalyticsService
}

func NewAnalyticsController(analyticsService *service.AnalyticsService) *AnalyticsController {
	return &AnalyticsController{AnalyticsService: analyticsService}
}

// Subjects godoc
// @Summary Subject-wise accuracy
// @Description Accuracy per subject across the caller's completed attempts, banded weak/average/strong
// @Tags analytics
// @Produce  json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=[]service.SubjectStrength} "Success"
// @Router /api/analytics/subjects [get]
func (c *AnalyticsController) Subjects(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	strengths, err := c.AnalyticsService.SubjectStrengths(claims.UserID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, strengths)
}

// Topics godoc
// @Summary Topic-wise accuracy within a subject
// @Tags analytics
// @Produce  json
// @Security ApiKeyAuth
// @Param   subject path string true "Subject code"
// @Success 200 {object} util.Response{data=[]service.TopicStrength} "Success"
// @Router /api/analytics/subjects/{subject}/topics [get]
func (c *AnalyticsController) Topics(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	strengths, err := c.AnalyticsService.TopicStrengths(claims.UserID, ctx.Param("subject"))
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, strengths)
}

// Activity godoc
// @Summary Daily activity
// @Description Completed attempts and answered questions per day
// @Tags analytics
// @Produce  json
// @Security ApiKeyAuth
// @Param   days query int false "Window in days, default 30"
// @Success 200 {object} util.Response{data=[]repository.DailyActivity} "Success"
// @Router /api/analytics/activity [get]
func (c *AnalyticsController) Activity(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	days := util.MustParseInt(ctx.DefaultQuery("days", "30"), 30)
	activity, err := c.AnalyticsService.Activity(claims.UserID, days)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, activity)
}

// Overview godoc
// @Summary History overview
// @Tags analytics
// @Produce  json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=repository.Overview} "Success"
// @Router /api/analytics/overview [get]
func (c *AnalyticsController) Overview(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	overview, err := c.AnalyticsService.Overview(claims.UserID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, overview)
}
