package repos

import (
	"github.com/adlnet/edlm-portal-backend/internal/data/repos/catalog"
	"github.com/adlnet/edlm-portal-backend/internal/data/repos/learning"
	"github.com/adlnet/edlm-portal-backend/internal/data/repos/user"
)

type UserRepo = user.UserRepo

type CatalogRepo = catalog.CatalogRepo

type LearningPlanRepo = learning.LearningPlanRepo
type PlanCompetencyRepo = learning.PlanCompetencyRepo
type GoalRepo = learning.GoalRepo
type GoalKsaRepo = learning.GoalKsaRepo
type GoalCourseRepo = learning.GoalCourseRepo

var (
	NewUserRepo           = user.NewUserRepo
	NewCatalogRepo        = catalog.NewCatalogRepo
	NewLearningPlanRepo   = learning.NewLearningPlanRepo
	NewPlanCompetencyRepo = learning.NewPlanCompetencyRepo
	NewGoalRepo           = learning.NewGoalRepo
	NewGoalKsaRepo        = learning.NewGoalKsaRepo
	NewGoalCourseRepo     = learning.NewGoalCourseRepo
)
