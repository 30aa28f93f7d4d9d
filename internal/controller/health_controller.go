package controller

import (
	"context"
	"time"

	"medprep_backend/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"
)

type HealthController struct {
	DB    *gorm.DB
	Redis *redis.Client
}

func NewHealthController(db *gorm.DB, rdb *redis.Client) *HealthController {
	return &HealthController{DB: db, Redis: rdb}
}

// Check godoc
// @Summary Health check
// @Description Reports process, database and Redis health
// @Tags health
// @Produce  json
// @Success 200 {object} util.Response{data=object} "Healthy"
// @Failure 503 {object} util.Response "Degraded"
// @Router /health [get]
func (c *HealthController) Check(ctx *gin.Context) {
	checkCtx, cancel := context.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	status := gin.H{"status": "ok"}
	healthy := true

	if sqlDB, err := c.DB.DB(); err != nil || sqlDB.PingContext(checkCtx) != nil {
		status["database"] = "down"
		healthy = false
	} else {
		status["database"] = "up"
	}

	if c.Redis != nil {
		if err := c.Redis.Ping(checkCtx).Err(); err != nil {
			status["redis"] = "down"
			healthy = false
		} else {
			status["redis"] = "up"
		}
	}

	if !healthy {
		status["status"] = "degraded"
		util.Error(ctx, 503, "degraded")
		return
	}
	util.Success(ctx, status)
}
