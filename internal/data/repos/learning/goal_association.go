package learning

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/adlnet/edlm-portal-backend/internal/domain"
	"github.com/adlnet/edlm-portal-backend/internal/pkg/dbctx"
	"github.com/adlnet/edlm-portal-backend/internal/pkg/logger"
)

type GoalKsaRepo interface {
	Create(dbc dbctx.Context, row *types.LearningPlanGoalKsa) (*types.LearningPlanGoalKsa, error)
	// GetByID preloads the KSA and the goal up to its plan. nil, nil when missing.
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.LearningPlanGoalKsa, error)
	ListByLearner(dbc dbctx.Context, learnerID uuid.UUID, goalID *uuid.UUID) ([]*types.LearningPlanGoalKsa, error)
	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error
	Delete(dbc dbctx.Context, id uuid.UUID) error
}

type GoalCourseRepo interface {
	Create(dbc dbctx.Context, row *types.LearningPlanGoalCourse) (*types.LearningPlanGoalCourse, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.LearningPlanGoalCourse, error)
	ListByLearner(dbc dbctx.Context, learnerID uuid.UUID, goalID *uuid.UUID) ([]*types.LearningPlanGoalCourse, error)
	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error
	Delete(dbc dbctx.Context, id uuid.UUID) error
}

type goalKsaRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewGoalKsaRepo(db *gorm.DB, baseLog *logger.Logger) GoalKsaRepo {
	return &goalKsaRepo{db: db, log: baseLog.With("repo", "GoalKsaRepo")}
}

type goalCourseRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewGoalCourseRepo(db *gorm.DB, baseLog *logger.Logger) GoalCourseRepo {
	return &goalCourseRepo{db: db, log: baseLog.With("repo", "GoalCourseRepo")}
}

func withGoalOwner(q *gorm.DB) *gorm.DB {
	return q.
		Preload("PlanGoal").
		Preload("PlanGoal.PlanCompetency").
		Preload("PlanGoal.PlanCompetency.LearningPlan")
}

func ownedByLearner(q *gorm.DB, table string, learnerID uuid.UUID) *gorm.DB {
	return q.
		Joins("JOIN learning_plan_goal lpg ON lpg.id = "+table+".plan_goal_id").
		Joins("JOIN learning_plan_competency lpc ON lpc.id = lpg.plan_competency_id").
		Joins("JOIN learning_plan lp ON lp.id = lpc.learning_plan_id").
		Where("lp.learner_id = ?", learnerID)
}

func (r *goalKsaRepo) Create(dbc dbctx.Context, row *types.LearningPlanGoalKsa) (*types.LearningPlanGoalKsa, error) {
	if err := dbc.DB(r.db).Omit("PlanGoal", "Ksa").Create(row).Error; err != nil {
		return nil, err
	}
	return row, nil
}

func (r *goalKsaRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.LearningPlanGoalKsa, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	var rows []*types.LearningPlanGoalKsa
	if err := withGoalOwner(dbc.DB(r.db)).Preload("Ksa").Where("id = ?", id).Limit(1).Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (r *goalKsaRepo) ListByLearner(dbc dbctx.Context, learnerID uuid.UUID, goalID *uuid.UUID) ([]*types.LearningPlanGoalKsa, error) {
	table := types.LearningPlanGoalKsa{}.TableName()
	q := ownedByLearner(dbc.DB(r.db).Preload("Ksa"), table, learnerID)
	if goalID != nil {
		q = q.Where(table+".plan_goal_id = ?", *goalID)
	}
	var out []*types.LearningPlanGoalKsa
	if err := q.Order(table + ".created_at ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *goalKsaRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
	if len(updates) == 0 {
		return nil
	}
	updates["updated_at"] = time.Now().UTC()
	return dbc.DB(r.db).Model(&types.LearningPlanGoalKsa{}).Where("id = ?", id).Updates(updates).Error
}

func (r *goalKsaRepo) Delete(dbc dbctx.Context, id uuid.UUID) error {
	return dbc.DB(r.db).Where("id = ?", id).Delete(&types.LearningPlanGoalKsa{}).Error
}

func (r *goalCourseRepo) Create(dbc dbctx.Context, row *types.LearningPlanGoalCourse) (*types.LearningPlanGoalCourse, error) {
	if err := dbc.DB(r.db).Omit("PlanGoal", "Course").Create(row).Error; err != nil {
		return nil, err
	}
	return row, nil
}

func (r *goalCourseRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.LearningPlanGoalCourse, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	var rows []*types.LearningPlanGoalCourse
	if err := withGoalOwner(dbc.DB(r.db)).Preload("Course").Where("id = ?", id).Limit(1).Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (r *goalCourseRepo) ListByLearner(dbc dbctx.Context, learnerID uuid.UUID, goalID *uuid.UUID) ([]*types.LearningPlanGoalCourse, error) {
	table := types.LearningPlanGoalCourse{}.TableName()
	q := ownedByLearner(dbc.DB(r.db).Preload("Course"), table, learnerID)
	if goalID != nil {
		q = q.Where(table+".plan_goal_id = ?", *goalID)
	}
	var out []*types.LearningPlanGoalCourse
	if err := q.Order(table + ".created_at ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *goalCourseRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
	if len(updates) == 0 {
		return nil
	}
	updates["updated_at"] = time.Now().UTC()
	return dbc.DB(r.db).Model(&types.LearningPlanGoalCourse{}).Where("id = ?", id).Updates(updates).Error
}

func (r *goalCourseRepo) Delete(dbc dbctx.Context, id uuid.UUID) error {
	return dbc.DB(r.db).Where("id = ?", id).Delete(&types.LearningPlanGoalCourse{}).Error
}
