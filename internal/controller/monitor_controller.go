package controller

import (
	"medprep_backend/internal/model"
	"medprep_backend/internal/service"
	"medprep_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type MonitorController struct {
	Hub *service.MonitorHub
}

func NewMonitorController(hub *service.MonitorHub) *MonitorController {
	return &MonitorController{Hub: hub}
}

// Watch godoc
// @Summary Live attempt event stream
// @Description Upgrades to a websocket and pushes attempt lifecycle events (started, section submitted, expired, completed) to educators
// @Tags monitor
// @Security ApiKeyAuth
// @Success 101 "Switching protocols"
// @Failure 403 {object} util.Response "Educator or admin only"
// @Router /api/monitor/ws [get]
func (c *MonitorController) Watch(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}
	if claims.Role != model.Educator && claims.Role != model.Admin {
		util.Forbidden(ctx)
		return
	}
	service.ServeMonitorWs(c.Hub, ctx.Writer, ctx.Request, claims.UserID)
}
