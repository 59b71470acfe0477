package domain

import (
	"github.com/adlnet/edlm-portal-backend/internal/domain/catalog"
	"github.com/adlnet/edlm-portal-backend/internal/domain/learning"
	"github.com/adlnet/edlm-portal-backend/internal/domain/user"
)

type (
	User = user.User

	CatalogKind = catalog.Kind
	CatalogItem = catalog.Item
	Competency  = catalog.Competency
	Ksa         = catalog.Ksa
	Course      = catalog.Course

	LearningPlan           = learning.LearningPlan
	LearningPlanCompetency = learning.LearningPlanCompetency
	LearningPlanGoal       = learning.LearningPlanGoal
	LearningPlanGoalKsa    = learning.LearningPlanGoalKsa
	LearningPlanGoalCourse = learning.LearningPlanGoalCourse
)

const (
	CatalogCompetency = catalog.KindCompetency
	CatalogKsa        = catalog.KindKsa
	CatalogCourse     = catalog.KindCourse
)

// Models lists every persisted type in migration order.
func Models() []any {
	return []any{
		&user.User{},
		&catalog.Competency{},
		&catalog.Ksa{},
		&catalog.Course{},
		&learning.LearningPlan{},
		&learning.LearningPlanCompetency{},
		&learning.LearningPlanGoal{},
		&learning.LearningPlanGoalKsa{},
		&learning.LearningPlanGoalCourse{},
	}
}
