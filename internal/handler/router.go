package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/obetrack/obe-api/internal/middleware"
	"github.com/obetrack/obe-api/internal/models"
	"github.com/obetrack/obe-api/internal/service"
	"github.com/obetrack/obe-api/pkg/config"
	"github.com/obetrack/obe-api/pkg/logger"
	corsmiddleware "github.com/obetrack/obe-api/pkg/middleware/cors"
	reqidmiddleware "github.com/obetrack/obe-api/pkg/middleware/requestid"
)

// RouterDeps bundles everything route registration needs.
type RouterDeps struct {
	Cfg    *config.Config
	Logger *zap.Logger

	DB    *sqlx.DB
	Redis *redis.Client

	AuthService    *service.AuthService
	MetricsService *service.MetricsService

	Auth     *AuthHandler
	Teachers *TeacherHandler
	Courses  *CourseHandler
	Scores   *ScoreHandler
	Rosters  *RosterHandler
	Catalog  *CatalogHandler
	Reports  *ReportHandler
	Feedback *FeedbackHandler
}

// NewRouter assembles the gin engine: global middleware, the public
// surface, and the two session-gated route groups.
func NewRouter(deps RouterDeps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(deps.Logger))
	r.Use(corsmiddleware.New(deps.Cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(deps.MetricsService))

	secure := deps.Cfg.Env == config.EnvProduction

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/ready", func(c *gin.Context) {
		if deps.DB != nil {
			if err := deps.DB.PingContext(c.Request.Context()); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "database unavailable"})
				return
			}
		}
		if deps.Redis != nil {
			if err := deps.Redis.Ping(c.Request.Context()).Err(); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "redis unavailable"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	r.GET("/metrics", gin.WrapH(deps.MetricsService.Handler()))

	if deps.Cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(deps.Cfg.APIPrefix)

	// Public surface: logins, OTP reset, feedback.
	api.POST("/auth/teacher/login",
		middleware.RedirectIfAuthenticated(deps.AuthService, models.RoleTeacher),
		deps.Auth.Login(models.RoleTeacher))
	api.POST("/auth/admin/login",
		middleware.RedirectIfAuthenticated(deps.AuthService, models.RoleAdmin),
		deps.Auth.Login(models.RoleAdmin))
	api.POST("/auth/otp/request", deps.Auth.RequestOTP)
	api.POST("/auth/otp/verify", deps.Auth.VerifyOTP)
	api.POST("/feedback", deps.Feedback.Submit)

	teacher := api.Group("")
	teacher.Use(middleware.SessionAuth(deps.AuthService, models.RoleTeacher, secure))
	{
		teacher.POST("/auth/teacher/logout", deps.Auth.Logout(models.RoleTeacher))
		teacher.GET("/auth/me", deps.Auth.Me)
		teacher.GET("/courses", deps.Courses.List)
		teacher.GET("/courses/:id", deps.Courses.Get)
		teacher.GET("/courses/:id/objectives", deps.Courses.Objectives)
		teacher.PUT("/courses/:id/objectives", deps.Courses.SaveObjectives)
		teacher.POST("/scores", deps.Scores.Submit)
		teacher.GET("/scores", deps.Scores.Raw)
		teacher.GET("/scores/summary", deps.Scores.Summary)
		teacher.GET("/reports/summary", deps.Reports.Summary)
		teacher.GET("/reports/raw", deps.Reports.Raw)
	}

	admin := api.Group("")
	admin.Use(middleware.SessionAuth(deps.AuthService, models.RoleAdmin, secure))
	{
		admin.POST("/auth/admin/logout", deps.Auth.Logout(models.RoleAdmin))
		admin.GET("/teachers", deps.Teachers.List)
		admin.POST("/teachers", deps.Teachers.Create)
		admin.GET("/teachers/:id", deps.Teachers.Get)
		admin.PUT("/teachers/:id", deps.Teachers.Update)
		admin.DELETE("/teachers/:id", deps.Teachers.Deactivate)
		admin.POST("/teachers/:id/courses", deps.Teachers.AssignCourse)
		admin.GET("/rosters", deps.Rosters.Get)
		admin.PUT("/rosters", deps.Rosters.Upsert)
		admin.POST("/rosters/move", deps.Rosters.Move)
		admin.GET("/catalog", deps.Catalog.ListPrograms)
		admin.GET("/catalog/:program", deps.Catalog.GetProgram)
		admin.PUT("/catalog/:program", deps.Catalog.UpsertProgram)
	}

	return r
}
