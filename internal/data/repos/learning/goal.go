package learning

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/adlnet/edlm-portal-backend/internal/domain"
	"github.com/adlnet/edlm-portal-backend/internal/pkg/dbctx"
	"github.com/adlnet/edlm-portal-backend/internal/pkg/logger"
)

type GoalRepo interface {
	Create(dbc dbctx.Context, goal *types.LearningPlanGoal) (*types.LearningPlanGoal, error)
	// GetByID preloads the owning plan, the competency name and the
	// association rows. nil, nil when missing.
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.LearningPlanGoal, error)
	// LockByID is GetByID holding a row lock for the rest of the transaction
	// when lock is true.
	LockByID(dbc dbctx.Context, id uuid.UUID, lock bool) (*types.LearningPlanGoal, error)
	ListByLearner(dbc dbctx.Context, learnerID uuid.UUID, planCompetencyID *uuid.UUID) ([]*types.LearningPlanGoal, error)
	// ListSynced returns goals under a plan or plan competency that own a remote goal.
	ListSynced(dbc dbctx.Context, planID, planCompetencyID *uuid.UUID) ([]*types.LearningPlanGoal, error)
	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error
	Delete(dbc dbctx.Context, id uuid.UUID) error
}

type goalRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewGoalRepo(db *gorm.DB, baseLog *logger.Logger) GoalRepo {
	return &goalRepo{db: db, log: baseLog.With("repo", "GoalRepo")}
}

func (r *goalRepo) Create(dbc dbctx.Context, goal *types.LearningPlanGoal) (*types.LearningPlanGoal, error) {
	if err := dbc.DB(r.db).Omit("PlanCompetency", "Ksas", "Courses").Create(goal).Error; err != nil {
		return nil, err
	}
	return goal, nil
}

func withGoalTree(q *gorm.DB) *gorm.DB {
	return q.
		Preload("PlanCompetency").
		Preload("PlanCompetency.LearningPlan").
		Preload("PlanCompetency.Competency").
		Preload("Ksas", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		Preload("Ksas.Ksa").
		Preload("Courses", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		Preload("Courses.Course")
}

func (r *goalRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.LearningPlanGoal, error) {
	return r.LockByID(dbc, id, false)
}

func (r *goalRepo) LockByID(dbc dbctx.Context, id uuid.UUID, lock bool) (*types.LearningPlanGoal, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	t := dbc.DB(r.db)
	if lock {
		// lock the goal row alone; preloads run as separate plain selects
		var locked types.LearningPlanGoal
		err := t.Clauses(clause.Locking{Strength: "UPDATE"}).
			Select("id").
			Where("id = ?", id).
			Limit(1).
			Find(&locked).Error
		if err != nil {
			return nil, err
		}
		if locked.ID == uuid.Nil {
			return nil, nil
		}
	}
	var rows []*types.LearningPlanGoal
	if err := withGoalTree(t).Where("id = ?", id).Limit(1).Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (r *goalRepo) ListByLearner(dbc dbctx.Context, learnerID uuid.UUID, planCompetencyID *uuid.UUID) ([]*types.LearningPlanGoal, error) {
	q := withGoalTree(dbc.DB(r.db)).
		Joins("JOIN learning_plan_competency lpc ON lpc.id = learning_plan_goal.plan_competency_id").
		Joins("JOIN learning_plan lp ON lp.id = lpc.learning_plan_id").
		Where("lp.learner_id = ?", learnerID)
	if planCompetencyID != nil {
		q = q.Where("learning_plan_goal.plan_competency_id = ?", *planCompetencyID)
	}
	var out []*types.LearningPlanGoal
	if err := q.Order("learning_plan_goal.created_at ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *goalRepo) ListSynced(dbc dbctx.Context, planID, planCompetencyID *uuid.UUID) ([]*types.LearningPlanGoal, error) {
	q := dbc.DB(r.db).
		Joins("JOIN learning_plan_competency lpc ON lpc.id = learning_plan_goal.plan_competency_id").
		Where("learning_plan_goal.elrr_goal_id IS NOT NULL")
	if planID != nil {
		q = q.Where("lpc.learning_plan_id = ?", *planID)
	}
	if planCompetencyID != nil {
		q = q.Where("learning_plan_goal.plan_competency_id = ?", *planCompetencyID)
	}
	var out []*types.LearningPlanGoal
	if err := q.Order("learning_plan_goal.created_at ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *goalRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
	if len(updates) == 0 {
		return nil
	}
	updates["updated_at"] = time.Now().UTC()
	return dbc.DB(r.db).Model(&types.LearningPlanGoal{}).Where("id = ?", id).Updates(updates).Error
}

func (r *goalRepo) Delete(dbc dbctx.Context, id uuid.UUID) error {
	return deleteGoalsWhere(dbc.DB(r.db), "id = ?", id)
}
