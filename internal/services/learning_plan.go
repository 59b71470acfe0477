package services

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/adlnet/edlm-portal-backend/internal/data/dberr"
	"github.com/adlnet/edlm-portal-backend/internal/data/repos"
	"github.com/adlnet/edlm-portal-backend/internal/data/txn"
	types "github.com/adlnet/edlm-portal-backend/internal/domain"
	"github.com/adlnet/edlm-portal-backend/internal/domain/errs"
	"github.com/adlnet/edlm-portal-backend/internal/domain/learning"
	"github.com/adlnet/edlm-portal-backend/internal/pkg/dbctx"
	"github.com/adlnet/edlm-portal-backend/internal/pkg/logger"
)

type LearningPlanInput struct {
	Name      string
	Timeframe string
}

type LearningPlanPatch struct {
	Name      Optional[string]
	Timeframe Optional[string]
}

type LearningPlanService interface {
	Create(ctx context.Context, in LearningPlanInput) (*types.LearningPlan, error)
	Get(ctx context.Context, id uuid.UUID) (*types.LearningPlan, error)
	List(ctx context.Context) ([]*types.LearningPlan, error)
	Update(ctx context.Context, id uuid.UUID, patch LearningPlanPatch) (*types.LearningPlan, error)
	// Delete removes synced goals through GoalService first, then the plan tree.
	Delete(ctx context.Context, id uuid.UUID) error
}

type learningPlanService struct {
	db    *gorm.DB
	log   *logger.Logger
	tx    txn.Runner
	plans repos.LearningPlanRepo
	goals repos.GoalRepo
	goal  GoalService
}

func NewLearningPlanService(
	db *gorm.DB,
	baseLog *logger.Logger,
	tx txn.Runner,
	plans repos.LearningPlanRepo,
	goals repos.GoalRepo,
	goal GoalService,
) LearningPlanService {
	return &learningPlanService{
		db:    db,
		log:   baseLog.With("service", "LearningPlanService"),
		tx:    tx,
		plans: plans,
		goals: goals,
		goal:  goal,
	}
}

func validatePlanName(op, name string) error {
	if strings.TrimSpace(name) == "" {
		return errs.Validation(op, "name: This field may not be blank.")
	}
	return checkText(op, "name", name)
}

func (s *learningPlanService) Create(ctx context.Context, in LearningPlanInput) (*types.LearningPlan, error) {
	const op = "learning_plan.create"
	learnerID, err := callerID(ctx, op)
	if err != nil {
		return nil, err
	}
	if err := validatePlanName(op, in.Name); err != nil {
		return nil, err
	}
	if err := checkChoice(op, "timeframe", in.Timeframe, learning.Timeframes); err != nil {
		return nil, err
	}
	plan, err := s.plans.Create(dbctx.Context{Ctx: ctx}, &types.LearningPlan{
		LearnerID: learnerID,
		Name:      strings.TrimSpace(in.Name),
		Timeframe: in.Timeframe,
	})
	if err != nil {
		return nil, dberr.Map(op, err)
	}
	return s.Get(ctx, plan.ID)
}

func (s *learningPlanService) Get(ctx context.Context, id uuid.UUID) (*types.LearningPlan, error) {
	const op = "learning_plan.get"
	learnerID, err := callerID(ctx, op)
	if err != nil {
		return nil, err
	}
	plan, err := s.plans.GetByID(dbctx.Context{Ctx: ctx}, id)
	if err != nil {
		return nil, dberr.Map(op, err)
	}
	if !ownsPlan(plan, learnerID) {
		return nil, notFound(op)
	}
	return plan, nil
}

func (s *learningPlanService) List(ctx context.Context) ([]*types.LearningPlan, error) {
	const op = "learning_plan.list"
	learnerID, err := callerID(ctx, op)
	if err != nil {
		return nil, err
	}
	out, err := s.plans.ListByLearner(dbctx.Context{Ctx: ctx}, learnerID)
	if err != nil {
		return nil, dberr.Map(op, err)
	}
	return out, nil
}

func (s *learningPlanService) Update(ctx context.Context, id uuid.UUID, patch LearningPlanPatch) (*types.LearningPlan, error) {
	const op = "learning_plan.update"
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	updates := map[string]interface{}{}
	if patch.Name.Set {
		if err := validatePlanName(op, patch.Name.Value); err != nil {
			return nil, err
		}
		updates["name"] = strings.TrimSpace(patch.Name.Value)
	}
	if patch.Timeframe.Set {
		if err := checkChoice(op, "timeframe", patch.Timeframe.Value, learning.Timeframes); err != nil {
			return nil, err
		}
		updates["timeframe"] = patch.Timeframe.Value
	}
	if err := s.plans.UpdateFields(dbctx.Context{Ctx: ctx}, id, updates); err != nil {
		return nil, dberr.Map(op, err)
	}
	return s.Get(ctx, id)
}

func (s *learningPlanService) Delete(ctx context.Context, id uuid.UUID) error {
	const op = "learning_plan.delete"
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	synced, err := s.goals.ListSynced(dbctx.Context{Ctx: ctx}, &id, nil)
	if err != nil {
		return dberr.Map(op, err)
	}
	for _, g := range synced {
		if err := s.goal.Delete(ctx, g.ID); err != nil {
			return err
		}
	}
	err = s.tx.InTx(ctx, func(dbc dbctx.Context) error {
		// a goal synced after the sweep above would be orphaned remotely
		left, err := s.goals.ListSynced(dbc, &id, nil)
		if err != nil {
			return err
		}
		if len(left) > 0 {
			return errs.New(errs.CodeConflict, op, "Learning plan changed while deleting, try again.", nil)
		}
		return s.plans.Delete(dbc, id)
	})
	if err != nil {
		return dberr.Map(op, err)
	}
	s.log.Info("learning plan deleted", "learning_plan_id", id, "remote_goals", len(synced))
	return nil
}
