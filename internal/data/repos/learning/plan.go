package learning

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/adlnet/edlm-portal-backend/internal/domain"
	"github.com/adlnet/edlm-portal-backend/internal/pkg/dbctx"
	"github.com/adlnet/edlm-portal-backend/internal/pkg/logger"
)

type LearningPlanRepo interface {
	Create(dbc dbctx.Context, plan *types.LearningPlan) (*types.LearningPlan, error)
	// GetByID returns nil, nil when missing. The competency, goal and
	// association tree is preloaded with catalog names.
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.LearningPlan, error)
	ListByLearner(dbc dbctx.Context, learnerID uuid.UUID) ([]*types.LearningPlan, error)
	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error
	// Touch bumps updated_at after a change anywhere beneath the plan.
	Touch(dbc dbctx.Context, id uuid.UUID) error
	// Delete removes the plan and every row beneath it.
	Delete(dbc dbctx.Context, id uuid.UUID) error
}

type learningPlanRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewLearningPlanRepo(db *gorm.DB, baseLog *logger.Logger) LearningPlanRepo {
	return &learningPlanRepo{db: db, log: baseLog.With("repo", "LearningPlanRepo")}
}

func (r *learningPlanRepo) Create(dbc dbctx.Context, plan *types.LearningPlan) (*types.LearningPlan, error) {
	if err := dbc.DB(r.db).Omit("Learner", "Competencies").Create(plan).Error; err != nil {
		return nil, err
	}
	return plan, nil
}

func withPlanTree(q *gorm.DB) *gorm.DB {
	return q.
		Preload("Learner").
		Preload("Competencies", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		Preload("Competencies.Competency").
		Preload("Competencies.Goals", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		Preload("Competencies.Goals.Ksas").
		Preload("Competencies.Goals.Ksas.Ksa").
		Preload("Competencies.Goals.Courses").
		Preload("Competencies.Goals.Courses.Course")
}

func (r *learningPlanRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.LearningPlan, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	var rows []*types.LearningPlan
	if err := withPlanTree(dbc.DB(r.db)).Where("id = ?", id).Limit(1).Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (r *learningPlanRepo) ListByLearner(dbc dbctx.Context, learnerID uuid.UUID) ([]*types.LearningPlan, error) {
	var out []*types.LearningPlan
	err := withPlanTree(dbc.DB(r.db)).
		Where("learner_id = ?", learnerID).
		Order("updated_at DESC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *learningPlanRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
	if len(updates) == 0 {
		return nil
	}
	updates["updated_at"] = time.Now().UTC()
	return dbc.DB(r.db).Model(&types.LearningPlan{}).Where("id = ?", id).Updates(updates).Error
}

func (r *learningPlanRepo) Touch(dbc dbctx.Context, id uuid.UUID) error {
	return dbc.DB(r.db).Model(&types.LearningPlan{}).
		Where("id = ?", id).
		UpdateColumn("updated_at", time.Now().UTC()).Error
}

func (r *learningPlanRepo) Delete(dbc dbctx.Context, id uuid.UUID) error {
	t := dbc.DB(r.db)
	compIDs := t.Model(&types.LearningPlanCompetency{}).Select("id").Where("learning_plan_id = ?", id)
	if err := deleteGoalsWhere(t, "plan_competency_id IN (?)", compIDs); err != nil {
		return err
	}
	if err := t.Where("learning_plan_id = ?", id).Delete(&types.LearningPlanCompetency{}).Error; err != nil {
		return err
	}
	return t.Where("id = ?", id).Delete(&types.LearningPlan{}).Error
}

// deleteGoalsWhere removes matching goals with their associations.
func deleteGoalsWhere(t *gorm.DB, cond string, args ...interface{}) error {
	goalIDs := t.Model(&types.LearningPlanGoal{}).Select("id").Where(cond, args...)
	if err := t.Where("plan_goal_id IN (?)", goalIDs).Delete(&types.LearningPlanGoalKsa{}).Error; err != nil {
		return err
	}
	if err := t.Where("plan_goal_id IN (?)", goalIDs).Delete(&types.LearningPlanGoalCourse{}).Error; err != nil {
		return err
	}
	return t.Where(cond, args...).Delete(&types.LearningPlanGoal{}).Error
}
