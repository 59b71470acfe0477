package app

import (
	"gorm.io/gorm"

	"github.com/adlnet/edlm-portal-backend/internal/data/txn"
	"github.com/adlnet/edlm-portal-backend/internal/pkg/logger"
	"github.com/adlnet/edlm-portal-backend/internal/services"
)

type Services struct {
	User     services.UserService
	Auth     services.AuthService
	Catalog  services.CatalogResolver
	ElrrSync services.ElrrSync

	LearningPlan   services.LearningPlanService
	PlanCompetency services.PlanCompetencyService
	Goal           services.GoalService
	GoalKsa        services.GoalKsaService
	GoalCourse     services.GoalCourseService
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, repos Repos, clients Clients) Services {
	log.Info("Wiring services...")
	tx := txn.NewGormRunner(db)

	user := services.NewUserService(db, log, repos.User)
	auth := services.NewAuthService(log, user, cfg.JWTSecretKey)
	catalog := services.NewCatalogResolver(db, log, repos.Catalog, clients.ECCR, clients.XDS)
	sync := services.NewElrrSync(log, clients.ELRR, clients.ECCR, clients.PersonCache)

	goal := services.NewGoalService(db, log, tx, repos.User, repos.LearningPlan, repos.PlanCompetency, repos.Goal, sync)
	return Services{
		User:     user,
		Auth:     auth,
		Catalog:  catalog,
		ElrrSync: sync,

		LearningPlan:   services.NewLearningPlanService(db, log, tx, repos.LearningPlan, repos.Goal, goal),
		PlanCompetency: services.NewPlanCompetencyService(db, log, tx, repos.LearningPlan, repos.PlanCompetency, repos.Goal, goal, catalog),
		Goal:           goal,
		GoalKsa:        services.NewGoalKsaService(db, log, tx, repos.LearningPlan, repos.Goal, repos.GoalKsa, catalog, sync),
		GoalCourse:     services.NewGoalCourseService(db, log, tx, repos.LearningPlan, repos.Goal, repos.GoalCourse, catalog, sync),
	}
}
