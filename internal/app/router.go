package app

import (
	"formflow_backend/internal/middleware"
	"formflow_backend/internal/model"
	"formflow_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, repos *repositories) {
	router.GET("/metrics", monitoring.PrometheusHandler())

	// 1. 公共路由(无需登录)
	public := router.Group("/api")
	{
		public.GET("/health", c.health.HealthCheck)
		public.POST("/register", c.auth.Register)
		public.POST("/login", c.auth.Login)
	}

	// 2. 需要授权的路由
	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware(), middleware.ActivityMiddleware(repos.user))
	{
		authGroup.GET("/me", c.auth.Me)

		// 表单浏览与提交
		authGroup.GET("/forms", c.form.List)
		authGroup.GET("/forms/:id", c.form.Get)

		authGroup.POST("/submissions", c.submission.Create)
		authGroup.GET("/submissions", c.submission.List)
		authGroup.GET("/submissions/:id", c.submission.Get)
		authGroup.PUT("/submissions/:id", c.submission.Update)
		authGroup.DELETE("/submissions/:id", c.submission.Delete)
		authGroup.GET("/submissions/:id/full-form", c.submission.FullForm)
		authGroup.GET("/submissions/:id/approvers", c.submission.Approvers)
		authGroup.GET("/submissions/:id/tickets", c.ticket.ForSubmission)
		authGroup.GET("/submissions/:id/targets", c.ticket.GeneratedTargets)
		authGroup.GET("/submissions/:id/notifications", c.submission.Notifications)

		authGroup.GET("/issues", c.issue.Mine)
		authGroup.POST("/attachments", c.attachment.Upload)
		authGroup.DELETE("/attachments", c.attachment.Delete)

		// 工单处理
		authGroup.GET("/tickets/:id", c.ticket.Get)
		authGroup.PUT("/tickets/:id/status",
			middleware.RoleMiddleware(model.RoleValidator, model.RoleAdmin),
			c.ticket.UpdateStatus)
	}

	// 3. 管理员相关接口
	admin := router.Group("/api")
	admin.Use(middleware.AuthMiddleware(), middleware.RoleMiddleware(model.RoleAdmin))
	{
		admin.POST("/forms", c.form.Create)
		admin.PUT("/forms/:id", c.form.Update)
		admin.PUT("/forms/:id/active", c.form.SetActive)
		admin.DELETE("/forms/:id", c.form.Delete)

		admin.POST("/groups", c.user.CreateGroup)
		admin.POST("/groups/:id/members", c.user.AddGroupMember)
		admin.POST("/substitutes", c.user.CreateSubstitute)
	}
}
