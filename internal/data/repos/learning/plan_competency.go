package learning

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/adlnet/edlm-portal-backend/internal/domain"
	"github.com/adlnet/edlm-portal-backend/internal/pkg/dbctx"
	"github.com/adlnet/edlm-portal-backend/internal/pkg/logger"
)

type PlanCompetencyRepo interface {
	Create(dbc dbctx.Context, row *types.LearningPlanCompetency) (*types.LearningPlanCompetency, error)
	// GetByID preloads the plan, the cached competency and the goal tree.
	// nil, nil when missing.
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.LearningPlanCompetency, error)
	ListByLearner(dbc dbctx.Context, learnerID uuid.UUID, planID *uuid.UUID) ([]*types.LearningPlanCompetency, error)
	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error
	Delete(dbc dbctx.Context, id uuid.UUID) error
}

type planCompetencyRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPlanCompetencyRepo(db *gorm.DB, baseLog *logger.Logger) PlanCompetencyRepo {
	return &planCompetencyRepo{db: db, log: baseLog.With("repo", "PlanCompetencyRepo")}
}

func (r *planCompetencyRepo) Create(dbc dbctx.Context, row *types.LearningPlanCompetency) (*types.LearningPlanCompetency, error) {
	if err := dbc.DB(r.db).Omit("LearningPlan", "Competency", "Goals").Create(row).Error; err != nil {
		return nil, err
	}
	return row, nil
}

func withCompetencyGoals(q *gorm.DB) *gorm.DB {
	return q.
		Preload("Goals", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		Preload("Goals.Ksas").
		Preload("Goals.Ksas.Ksa").
		Preload("Goals.Courses").
		Preload("Goals.Courses.Course")
}

func (r *planCompetencyRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.LearningPlanCompetency, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	var rows []*types.LearningPlanCompetency
	err := dbc.DB(r.db).
		Preload("LearningPlan").
		Preload("Competency").
		Scopes(withCompetencyGoals).
		Where("id = ?", id).
		Limit(1).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (r *planCompetencyRepo) ListByLearner(dbc dbctx.Context, learnerID uuid.UUID, planID *uuid.UUID) ([]*types.LearningPlanCompetency, error) {
	q := dbc.DB(r.db).
		Preload("LearningPlan").
		Preload("Competency").
		Scopes(withCompetencyGoals).
		Joins("JOIN learning_plan lp ON lp.id = learning_plan_competency.learning_plan_id").
		Where("lp.learner_id = ?", learnerID)
	if planID != nil {
		q = q.Where("learning_plan_competency.learning_plan_id = ?", *planID)
	}
	var out []*types.LearningPlanCompetency
	if err := q.Order("learning_plan_competency.created_at ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *planCompetencyRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
	if len(updates) == 0 {
		return nil
	}
	updates["updated_at"] = time.Now().UTC()
	return dbc.DB(r.db).Model(&types.LearningPlanCompetency{}).Where("id = ?", id).Updates(updates).Error
}

func (r *planCompetencyRepo) Delete(dbc dbctx.Context, id uuid.UUID) error {
	t := dbc.DB(r.db)
	if err := deleteGoalsWhere(t, "plan_competency_id = ?", id); err != nil {
		return err
	}
	return t.Where("id = ?", id).Delete(&types.LearningPlanCompetency{}).Error
}
