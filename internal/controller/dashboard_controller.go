package controller

import (
	"medprep_backend/internal/service"
	"medprep_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type DashboardController struct {
	DashboardService *service.DashboardService
}

func NewDashboardController(dashboardService *service.DashboardService) *DashboardController {
	return &DashboardController{DashboardService: dashboardService}
}

// Student godoc
// @Summary Student dashboard
// @Description Home screen payload: overview, recent results, weak subjects, upcoming tests
// @Tags dashboard
// @Produce  json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=service.StudentDashboard} "Success"
// @Router /api/dashboard [get]
func (c *DashboardController) Student(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	dashboard, err := c.DashboardService.ForStudent(claims.UserID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, dashboard)
}

// Live godoc
// @Summary Live platform stats
// @Description Current active users and in-progress attempts (educator or admin)
// @Tags dashboard
// @Produce  json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=service.LiveStats} "Success"
// @Router /api/dashboard/live [get]
func (c *DashboardController) Live(ctx *gin.Context) {
	stats, err := c.DashboardService.Live()
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, stats)
}
