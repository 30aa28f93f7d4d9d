package app

import (
	"medprep_backend/docs"
	"medprep_backend/internal/config"
	"medprep_backend/internal/middleware"
	"medprep_backend/internal/model"

	"medprep_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, repos *repositories, cfg *config.Config) {
	docs.SwaggerInfo.BasePath = "/api"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())
	router.GET("/health", c.health.Check)

	a.registerPublicRoutes(router, c)

	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware(cfg), middleware.ActivityMiddleware(repos.user))
	{
		a.registerStudentRoutes(authGroup, c)
		a.registerEducatorRoutes(authGroup, c)
	}
}

func (a *App) registerPublicRoutes(router *gin.Engine, c *controllers) {
	public := router.Group("/api")
	{
		public.POST("/register", c.auth.Register)
		public.POST("/login", c.auth.Login)
	}
}

func (a *App) registerStudentRoutes(rg *gin.RouterGroup, c *controllers) {
	rg.GET("/profile", c.auth.GetProfile)
	rg.PUT("/profile", c.auth.UpdateProfile)
	rg.PUT("/profile/password", c.auth.ChangePassword)

	rg.GET("/subjects", c.question.Subjects)

	// tests: browsing and custom practice papers
	rg.GET("/tests", c.test.List)
	rg.GET("/tests/mine", c.test.ListMine)
	rg.GET("/tests/:id", c.test.Get)
	rg.GET("/tests/:id/leaderboard", c.attempt.Leaderboard)
	rg.POST("/tests/custom", c.test.CreateCustom)

	// attempts: the live exam lifecycle
	rg.POST("/attempts", c.attempt.Start)
	rg.GET("/attempts", c.attempt.ListMine)
	rg.GET("/attempts/:id", c.attempt.State)
	rg.POST("/attempts/:id/answer", c.attempt.Answer)
	rg.POST("/attempts/:id/mark", c.attempt.MarkReview)
	rg.POST("/attempts/:id/section/submit", c.attempt.SubmitSection)
	rg.POST("/attempts/:id/submit", c.attempt.Submit)
	rg.GET("/attempts/:id/result", c.attempt.Result)
	rg.GET("/attempts/:id/review", c.attempt.Review)

	// bookmarks
	rg.POST("/bookmarks", c.bookmark.Add)
	rg.GET("/bookmarks", c.bookmark.List)
	rg.PUT("/bookmarks/:questionId", c.bookmark.UpdateNote)
	rg.DELETE("/bookmarks/:questionId", c.bookmark.Remove)

	// performance analytics
	rg.GET("/analytics/subjects", c.analytics.Subjects)
	rg.GET("/analytics/subjects/:subject/topics", c.analytics.Topics)
	rg.GET("/analytics/activity", c.analytics.Activity)
	rg.GET("/analytics/overview", c.analytics.Overview)

	rg.GET("/dashboard", c.dashboard.Student)

	// patient cases
	rg.GET("/cases", c.cases.ListPublished)
	rg.GET("/cases/mine", c.cases.ListMine)
	rg.GET("/cases/:id", c.cases.Get)
	rg.POST("/cases", c.cases.Create)
	rg.POST("/cases/:id/autosave", c.cases.Autosave)
	rg.POST("/cases/:id/save", c.cases.Save)
	rg.PUT("/cases/:id", c.cases.UpdateMeta)
	rg.POST("/cases/:id/publish", c.cases.Publish)
	rg.DELETE("/cases/:id", c.cases.Delete)
}

func (a *App) registerEducatorRoutes(rg *gin.RouterGroup, c *controllers) {
	educator := rg.Group("/")
	educator.Use(middleware.RoleMiddleware(model.Educator, model.Admin))
	{
		// question bank management
		educator.POST("/questions", c.question.Create)
		educator.GET("/questions", c.question.List)
		educator.GET("/questions/:id", c.question.Get)
		educator.PUT("/questions/:id", c.question.Update)
		educator.DELETE("/questions/:id", c.question.Delete)

		// test authoring
		educator.POST("/tests", c.test.Create)
		educator.POST("/tests/:id/publish", c.test.Publish)
		educator.DELETE("/tests/:id", c.test.Delete)

		// media uploads for question and case content
		educator.POST("/uploads/images", c.upload.UploadImage)

		// live proctoring
		educator.GET("/dashboard/live", c.dashboard.Live)
		educator.GET("/monitor/ws", c.monitor.Watch)
	}
}
