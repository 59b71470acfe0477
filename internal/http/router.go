package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	types "github.com/adlnet/edlm-portal-backend/internal/domain"
	httpH "github.com/adlnet/edlm-portal-backend/internal/http/handlers"
	httpMW "github.com/adlnet/edlm-portal-backend/internal/http/middleware"
	"github.com/adlnet/edlm-portal-backend/internal/observability"
	"github.com/adlnet/edlm-portal-backend/internal/pkg/logger"
)

type RouterConfig struct {
	Log            *logger.Logger
	Metrics        *observability.Metrics
	ServiceName    string
	AllowedOrigins []string

	AuthMiddleware *httpMW.AuthMiddleware
	HealthHandler  *httpH.HealthHandler
	UserHandler    *httpH.UserHandler

	LearningPlanHandler   *httpH.LearningPlanHandler
	PlanCompetencyHandler *httpH.PlanCompetencyHandler
	GoalHandler           *httpH.GoalHandler
	GoalKsaHandler        *httpH.GoalKsaHandler
	GoalCourseHandler     *httpH.GoalCourseHandler
	CatalogHandler        *httpH.CatalogHandler
}

type crud interface {
	List(*gin.Context)
	Create(*gin.Context)
	Get(*gin.Context)
	Update(*gin.Context)
	Delete(*gin.Context)
}

func mountCRUD(g *gin.RouterGroup, path string, h crud) {
	g.GET(path, h.List)
	g.POST(path, h.Create)
	g.GET(path+"/:id", h.Get)
	g.PATCH(path+"/:id", h.Update)
	g.DELETE(path+"/:id", h.Delete)
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "edlm-portal-backend"
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware(serviceName))
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.Metrics(cfg.Metrics))
	r.Use(httpMW.CORS(cfg.AllowedOrigins))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
		r.GET("/readyz", cfg.HealthHandler.Ready)
	}
	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapF(cfg.Metrics.WriteHTTP))
	}

	protected := r.Group("/api")
	{
		if cfg.AuthMiddleware != nil {
			protected.Use(cfg.AuthMiddleware.RequireAuth())
		}

		// User (Me)
		if cfg.UserHandler != nil {
			protected.GET("/me", cfg.UserHandler.GetMe)
		}

		// Learning plans
		if cfg.LearningPlanHandler != nil {
			mountCRUD(protected, "/learning-plans", cfg.LearningPlanHandler)
		}
		if cfg.PlanCompetencyHandler != nil {
			mountCRUD(protected, "/learning-plan-competencies", cfg.PlanCompetencyHandler)
		}

		// Goals, synced with ELRR
		if cfg.GoalHandler != nil {
			mountCRUD(protected, "/learning-plan-goals", cfg.GoalHandler)
		}
		if cfg.GoalKsaHandler != nil {
			mountCRUD(protected, "/learning-plan-goal-ksas", cfg.GoalKsaHandler)
		}
		if cfg.GoalCourseHandler != nil {
			mountCRUD(protected, "/learning-plan-goal-courses", cfg.GoalCourseHandler)
		}

		// Catalog cache
		if cfg.CatalogHandler != nil {
			protected.GET("/competencies", cfg.CatalogHandler.List(types.CatalogCompetency))
			protected.GET("/ksas", cfg.CatalogHandler.List(types.CatalogKsa))
			protected.GET("/courses", cfg.CatalogHandler.List(types.CatalogCourse))
		}
	}

	return r
}
