package app

import (
	"gorm.io/gorm"

	httpserver "github.com/adlnet/edlm-portal-backend/internal/http"
	httpH "github.com/adlnet/edlm-portal-backend/internal/http/handlers"
	httpMW "github.com/adlnet/edlm-portal-backend/internal/http/middleware"
	"github.com/adlnet/edlm-portal-backend/internal/observability"
	"github.com/adlnet/edlm-portal-backend/internal/pkg/logger"
)

type Middleware struct {
	Auth *httpMW.AuthMiddleware
}

type Handlers struct {
	Health         *httpH.HealthHandler
	User           *httpH.UserHandler
	LearningPlan   *httpH.LearningPlanHandler
	PlanCompetency *httpH.PlanCompetencyHandler
	Goal           *httpH.GoalHandler
	GoalKsa        *httpH.GoalKsaHandler
	GoalCourse     *httpH.GoalCourseHandler
	Catalog        *httpH.CatalogHandler
}

func wireMiddleware(log *logger.Logger, services Services) Middleware {
	log.Info("Wiring middleware...")
	return Middleware{
		Auth: httpMW.NewAuthMiddleware(log, services.Auth),
	}
}

func wireHandlers(db *gorm.DB, log *logger.Logger, services Services) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Health:         httpH.NewHealthHandler(db),
		User:           httpH.NewUserHandler(log, services.User),
		LearningPlan:   httpH.NewLearningPlanHandler(log, services.LearningPlan),
		PlanCompetency: httpH.NewPlanCompetencyHandler(log, services.PlanCompetency),
		Goal:           httpH.NewGoalHandler(log, services.Goal),
		GoalKsa:        httpH.NewGoalKsaHandler(log, services.GoalKsa),
		GoalCourse:     httpH.NewGoalCourseHandler(log, services.GoalCourse),
		Catalog:        httpH.NewCatalogHandler(log, services.Catalog),
	}
}

func routerConfig(log *logger.Logger, cfg Config, metrics *observability.Metrics, handlers Handlers, middleware Middleware) httpserver.RouterConfig {
	return httpserver.RouterConfig{
		Log:            log,
		Metrics:        metrics,
		ServiceName:    cfg.Otel.ServiceName,
		AllowedOrigins: cfg.AllowedOrigins,

		AuthMiddleware: middleware.Auth,
		HealthHandler:  handlers.Health,
		UserHandler:    handlers.User,

		LearningPlanHandler:   handlers.LearningPlan,
		PlanCompetencyHandler: handlers.PlanCompetency,
		GoalHandler:           handlers.Goal,
		GoalKsaHandler:        handlers.GoalKsa,
		GoalCourseHandler:     handlers.GoalCourse,
		CatalogHandler:        handlers.Catalog,
	}
}
