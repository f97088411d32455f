package handler

import (
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/sipal-api/internal/middleware"
	"github.com/noah-isme/sipal-api/internal/models"
	appErrors "github.com/noah-isme/sipal-api/pkg/errors"
	"github.com/noah-isme/sipal-api/pkg/response"
)

// Routes bundles the handlers and guards mounted by RegisterRoutes.
type Routes struct {
	APIPrefix     string
	SessionHeader string
	Tokens        middleware.TokenValidator
	Selections    middleware.SelectionResolver
	Logger        *zap.Logger

	Auth         *AuthHandler
	Identity     *IdentityHandler
	Dashboard    *DashboardHandler
	Careers      *CareerHandler
	Achievements *AchievementHandler
	Masters      *MasterHandler
	Exports      *ExportHandler
	Evaluations  *EvaluationHandler
	Metrics      *MetricsHandler
}

// RegisterRoutes mounts the public, alumni and admin route groups.
func RegisterRoutes(r *gin.Engine, rt Routes) {
	if rt.Metrics != nil {
		r.GET("/health", rt.Metrics.Health)
		r.GET("/ready", rt.Metrics.Ready)
		r.GET("/metrics", rt.Metrics.Prometheus)
	}

	api := r.Group("/" + strings.Trim(rt.APIPrefix, "/"))

	api.POST("/auth/login", rt.Auth.Login)
	api.POST("/validasi/search", rt.Identity.Search)
	api.POST("/validasi/select", rt.Identity.Select)
	api.GET("/session", rt.Identity.Current)
	api.DELETE("/session", rt.Identity.Clear)
	api.POST("/evaluations", rt.Evaluations.Submit)
	api.GET("/exports/:token", rt.Exports.Download)

	me := api.Group("/me", middleware.RequireSelection(rt.Selections, rt.SessionHeader))
	me.GET("/dashboard", rt.Dashboard.Alumni)
	me.GET("/careers", rt.Careers.List)
	me.POST("/careers", rt.Careers.Create)
	me.PUT("/careers/:id", rt.Careers.Update)
	me.DELETE("/careers/:id", rt.Careers.Delete)
	me.POST("/careers/wizard", rt.Careers.Wizard)
	me.POST("/careers/wizard/submit", rt.Careers.WizardSubmit)
	me.GET("/achievements", rt.Achievements.List)
	me.POST("/achievements", rt.Achievements.Create)
	me.GET("/achievements/stats", rt.Achievements.Stats)
	me.PUT("/achievements/:id", rt.Achievements.Update)
	me.DELETE("/achievements/:id", rt.Achievements.Delete)
	me.POST("/achievements/:id/attachments", rt.Achievements.Upload)
	me.DELETE("/achievements/:id/attachments/:index", rt.Achievements.Detach)

	admin := api.Group("/admin", middleware.JWT(rt.Tokens), middleware.RequireRoles(models.RoleAdmin))
	admin.GET("/me", rt.Auth.Me)
	admin.GET("/dashboard", rt.Dashboard.Admin)
	admin.GET("/masters", rt.Masters.List)
	admin.POST("/masters", middleware.Audit(rt.Logger, "create", "master"), rt.Masters.Create)
	admin.GET("/masters/:id", rt.Masters.Get)
	admin.PUT("/masters/:id", middleware.Audit(rt.Logger, "update", "master"), rt.Masters.Update)
	admin.DELETE("/masters/:id", middleware.Audit(rt.Logger, "delete", "master"), rt.Masters.Delete)
	admin.GET("/alumni/export", middleware.Audit(rt.Logger, "export", "alumni"), rt.Exports.Alumni)
	admin.POST("/exports", middleware.Audit(rt.Logger, "queue_export", "alumni"), rt.Exports.CreateJob)
	admin.GET("/exports/:id", rt.Exports.Status)
	admin.GET("/evaluations", rt.Evaluations.List)
	admin.GET("/evaluations/summary", rt.Evaluations.Summary)

	r.NoRoute(func(c *gin.Context) {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "route not found"))
	})
}
