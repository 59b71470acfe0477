package app

import (
	"gorm.io/gorm"

	"github.com/adlnet/edlm-portal-backend/internal/data/repos"
	"github.com/adlnet/edlm-portal-backend/internal/pkg/logger"
)

type Repos struct {
	User           repos.UserRepo
	Catalog        repos.CatalogRepo
	LearningPlan   repos.LearningPlanRepo
	PlanCompetency repos.PlanCompetencyRepo
	Goal           repos.GoalRepo
	GoalKsa        repos.GoalKsaRepo
	GoalCourse     repos.GoalCourseRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		User:           repos.NewUserRepo(db, log),
		Catalog:        repos.NewCatalogRepo(db, log),
		LearningPlan:   repos.NewLearningPlanRepo(db, log),
		PlanCompetency: repos.NewPlanCompetencyRepo(db, log),
		Goal:           repos.NewGoalRepo(db, log),
		GoalKsa:        repos.NewGoalKsaRepo(db, log),
		GoalCourse:     repos.NewGoalCourseRepo(db, log),
	}
}
