package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/cesde/studentinfo-api/internal/handler"
	"github.com/cesde/studentinfo-api/internal/middleware"
	"github.com/cesde/studentinfo-api/internal/repository"
	"github.com/cesde/studentinfo-api/internal/service"
	"github.com/cesde/studentinfo-api/pkg/cache"
	"github.com/cesde/studentinfo-api/pkg/config"
	"github.com/cesde/studentinfo-api/pkg/database"
	"github.com/cesde/studentinfo-api/pkg/logger"
	corsmiddleware "github.com/cesde/studentinfo-api/pkg/middleware/cors"
	reqidmiddleware "github.com/cesde/studentinfo-api/pkg/middleware/requestid"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	validate := validator.New()
	metricsSvc := service.NewMetricsService()

	catalogRepo := repository.NewCatalogRepository(db)
	courseEnrollRepo := repository.NewCourseEnrollmentRepository(db)
	levelEnrollRepo := repository.NewLevelEnrollmentRepository(db)
	subjectEnrollRepo := repository.NewSubjectEnrollmentRepository(db)
	groupRepo := repository.NewCourseGroupRepository(db)
	gradeRepo := repository.NewGradeRepository(db)
	sessionRepo := repository.NewClassSessionRepository(db)
	attendanceRepo := repository.NewAttendanceRepository(db)

	groupSvc := service.NewCourseGroupService(groupRepo, nil, cfg.Groups.CacheTTL, metricsSvc, logr)
	if cfg.Groups.CacheEnabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			// Listings fall back to the database when redis is unreachable.
			logr.Sugar().Warnw("redis unavailable, group listing cache disabled", "error", err)
		} else {
			defer redisClient.Close()
			cacheRepo := repository.NewCacheRepository(redisClient, logr)
			groupSvc = service.NewCourseGroupService(groupRepo, cacheRepo, cfg.Groups.CacheTTL, metricsSvc, logr)
		}
	}

	catalogSvc := service.NewCatalogService(catalogRepo, logr)
	courseEnrollSvc := service.NewCourseEnrollmentService(courseEnrollRepo, catalogRepo, validate, logr)
	levelEnrollSvc := service.NewLevelEnrollmentService(levelEnrollRepo, courseEnrollRepo, catalogRepo, groupRepo, groupSvc, validate, logr)
	subjectEnrollSvc := service.NewSubjectEnrollmentService(subjectEnrollRepo, levelEnrollRepo, catalogRepo, validate, logr)
	gradeSvc := service.NewGradeService(gradeRepo, subjectEnrollRepo, validate, logr)
	attendanceSvc := service.NewAttendanceService(attendanceRepo, sessionRepo, subjectEnrollRepo, catalogRepo, validate, logr)

	catalogHandler := handler.NewCatalogHandler(catalogSvc)
	courseEnrollHandler := handler.NewCourseEnrollmentHandler(courseEnrollSvc)
	levelEnrollHandler := handler.NewLevelEnrollmentHandler(levelEnrollSvc)
	subjectEnrollHandler := handler.NewSubjectEnrollmentHandler(subjectEnrollSvc, gradeSvc)
	groupHandler := handler.NewCourseGroupHandler(groupSvc)
	gradeHandler := handler.NewGradeHandler(gradeSvc)
	attendanceHandler := handler.NewAttendanceHandler(attendanceSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Expose())
	r.GET("/metrics/summary", metricsHandler.Snapshot)

	api := r.Group(cfg.APIPrefix)
	{
		api.GET("/courses/:id", catalogHandler.GetCourse)
		api.GET("/courses/:id/levels", catalogHandler.ListLevels)
		api.GET("/levels/:id/subjects", catalogHandler.ListSubjects)

		courseEnrollments := api.Group("/course-enrollments")
		courseEnrollments.GET("", courseEnrollHandler.List)
		courseEnrollments.POST("", courseEnrollHandler.Create)
		courseEnrollments.GET("/:id", courseEnrollHandler.Get)
		courseEnrollments.PATCH("/:id/status", courseEnrollHandler.UpdateStatus)
		courseEnrollments.DELETE("/:id", courseEnrollHandler.Delete)

		levelEnrollments := api.Group("/level-enrollments")
		levelEnrollments.GET("", levelEnrollHandler.List)
		levelEnrollments.POST("", levelEnrollHandler.Create)
		levelEnrollments.GET("/:id", levelEnrollHandler.Get)
		levelEnrollments.PUT("/:id", levelEnrollHandler.Update)
		levelEnrollments.PATCH("/:id/status", levelEnrollHandler.UpdateStatus)
		levelEnrollments.DELETE("/:id", levelEnrollHandler.Delete)

		subjectEnrollments := api.Group("/subject-enrollments")
		subjectEnrollments.GET("", subjectEnrollHandler.List)
		subjectEnrollments.POST("", subjectEnrollHandler.Create)
		subjectEnrollments.GET("/:id", subjectEnrollHandler.Get)
		subjectEnrollments.PUT("/:id", subjectEnrollHandler.Update)
		subjectEnrollments.PATCH("/:id/status", subjectEnrollHandler.UpdateStatus)
		subjectEnrollments.GET("/:id/final-grade", subjectEnrollHandler.FinalGrade)
		subjectEnrollments.GET("/:id/attendances", attendanceHandler.ListByEnrollment)
		subjectEnrollments.GET("/:id/attendances/summary", attendanceHandler.Summary)

		groups := api.Group("/course-groups")
		groups.GET("", groupHandler.List)
		groups.GET("/available", groupHandler.ListAvailable)
		groups.GET("/:id", groupHandler.Get)
		groups.POST("/:id/reserve", groupHandler.ReserveSeat)
		groups.POST("/:id/release", groupHandler.ReleaseSeat)

		grades := api.Group("/grades")
		grades.GET("", gradeHandler.List)
		grades.POST("", gradeHandler.Record)
		grades.PUT("/:id", gradeHandler.Update)

		api.GET("/grade-periods", gradeHandler.ListPeriods)
		api.GET("/grade-components", gradeHandler.ListComponents)

		attendances := api.Group("/attendances")
		attendances.POST("", attendanceHandler.Record)

		sessions := api.Group("/class-sessions")
		sessions.GET("", attendanceHandler.ListSessions)
		sessions.POST("/resolve", attendanceHandler.FindOrCreateSession)
		sessions.PATCH("/:id/status", attendanceHandler.UpdateSessionStatus)
		sessions.GET("/:id/attendances", attendanceHandler.ListBySession)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
