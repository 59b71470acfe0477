package services

import (
	"context"

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

type PlanCompetencyInput struct {
	LearningPlanID      uuid.UUID
	CompetencyReference string
	Priority            string
}

type PlanCompetencyPatch struct {
	LearningPlanID      Optional[uuid.UUID]
	CompetencyReference Optional[string]
	Priority            Optional[string]
}

type PlanCompetencyService interface {
	Create(ctx context.Context, in PlanCompetencyInput) (*types.LearningPlanCompetency, error)
	Get(ctx context.Context, id uuid.UUID) (*types.LearningPlanCompetency, error)
	List(ctx context.Context, learningPlanID *uuid.UUID) ([]*types.LearningPlanCompetency, error)
	Update(ctx context.Context, id uuid.UUID, patch PlanCompetencyPatch) (*types.LearningPlanCompetency, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type planCompetencyService struct {
	db        *gorm.DB
	log       *logger.Logger
	tx        txn.Runner
	plans     repos.LearningPlanRepo
	planComps repos.PlanCompetencyRepo
	goals     repos.GoalRepo
	goal      GoalService
	resolver  CatalogResolver
}

func NewPlanCompetencyService(
	db *gorm.DB,
	baseLog *logger.Logger,
	tx txn.Runner,
	plans repos.LearningPlanRepo,
	planComps repos.PlanCompetencyRepo,
	goals repos.GoalRepo,
	goal GoalService,
	resolver CatalogResolver,
) PlanCompetencyService {
	return &planCompetencyService{
		db:        db,
		log:       baseLog.With("service", "PlanCompetencyService"),
		tx:        tx,
		plans:     plans,
		planComps: planComps,
		goals:     goals,
		goal:      goal,
		resolver:  resolver,
	}
}

func (s *planCompetencyService) Create(ctx context.Context, in PlanCompetencyInput) (*types.LearningPlanCompetency, error) {
	const op = "plan_competency.create"
	learnerID, err := callerID(ctx, op)
	if err != nil {
		return nil, err
	}
	if err := checkChoice(op, "priority", in.Priority, learning.Priorities); err != nil {
		return nil, err
	}
	plan, err := s.plans.GetByID(dbctx.Context{Ctx: ctx}, in.LearningPlanID)
	if err != nil {
		return nil, dberr.Map(op, err)
	}
	if plan == nil {
		return nil, errs.Validation(op, "learning_plan: Invalid pk - object does not exist.")
	}
	if !ownsPlan(plan, learnerID) {
		return nil, errs.Forbidden(op)
	}
	item, err := s.resolver.ResolveOrCreate(ctx, types.CatalogCompetency, in.CompetencyReference)
	if err != nil {
		return nil, err
	}

	var created *types.LearningPlanCompetency
	err = s.tx.InTx(ctx, func(dbc dbctx.Context) error {
		created, err = s.planComps.Create(dbc, &types.LearningPlanCompetency{
			LearningPlanID: plan.ID,
			EccrCompetency: item.Reference,
			Priority:       in.Priority,
		})
		if err != nil {
			return err
		}
		return s.plans.Touch(dbc, plan.ID)
	})
	if err != nil {
		return nil, dberr.Map(op, err)
	}
	return s.Get(ctx, created.ID)
}

func (s *planCompetencyService) Get(ctx context.Context, id uuid.UUID) (*types.LearningPlanCompetency, error) {
	const op = "plan_competency.get"
	learnerID, err := callerID(ctx, op)
	if err != nil {
		return nil, err
	}
	row, err := s.planComps.GetByID(dbctx.Context{Ctx: ctx}, id)
	if err != nil {
		return nil, dberr.Map(op, err)
	}
	if !ownsPlan(competencyPlan(row), learnerID) {
		return nil, notFound(op)
	}
	return row, nil
}

func (s *planCompetencyService) List(ctx context.Context, learningPlanID *uuid.UUID) ([]*types.LearningPlanCompetency, error) {
	const op = "plan_competency.list"
	learnerID, err := callerID(ctx, op)
	if err != nil {
		return nil, err
	}
	out, err := s.planComps.ListByLearner(dbctx.Context{Ctx: ctx}, learnerID, learningPlanID)
	if err != nil {
		return nil, dberr.Map(op, err)
	}
	return out, nil
}

func (s *planCompetencyService) Update(ctx context.Context, id uuid.UUID, patch PlanCompetencyPatch) (*types.LearningPlanCompetency, error) {
	const op = "plan_competency.update"
	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if patch.LearningPlanID.Set && patch.LearningPlanID.Value != current.LearningPlanID {
		return nil, errs.Validation(op, msgParentIDUpdate)
	}
	updates := map[string]interface{}{}
	if patch.Priority.Set {
		if err := checkChoice(op, "priority", patch.Priority.Value, learning.Priorities); err != nil {
			return nil, err
		}
		updates["priority"] = patch.Priority.Value
	}
	if patch.CompetencyReference.Set {
		item, err := s.resolver.ResolveOrCreate(ctx, types.CatalogCompetency, patch.CompetencyReference.Value)
		if err != nil {
			return nil, err
		}
		if item.Reference != current.EccrCompetency {
			updates["eccr_competency"] = item.Reference
		}
	}
	if len(updates) == 0 {
		return current, nil
	}
	err = s.tx.InTx(ctx, func(dbc dbctx.Context) error {
		if err := s.planComps.UpdateFields(dbc, id, updates); err != nil {
			return err
		}
		return s.plans.Touch(dbc, current.LearningPlanID)
	})
	if err != nil {
		return nil, dberr.Map(op, err)
	}
	return s.Get(ctx, id)
}

func (s *planCompetencyService) Delete(ctx context.Context, id uuid.UUID) error {
	const op = "plan_competency.delete"
	current, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	synced, err := s.goals.ListSynced(dbctx.Context{Ctx: ctx}, nil, &id)
	if err != nil {
		return dberr.Map(op, err)
	}
	for _, g := range synced {
		if err := s.goal.Delete(ctx, g.ID); err != nil {
			return err
		}
	}
	err = s.tx.InTx(ctx, func(dbc dbctx.Context) error {
		left, err := s.goals.ListSynced(dbc, nil, &id)
		if err != nil {
			return err
		}
		if len(left) > 0 {
			return errs.New(errs.CodeConflict, op, "Plan competency changed while deleting, try again.", nil)
		}
		if err := s.planComps.Delete(dbc, id); err != nil {
			return err
		}
		return s.plans.Touch(dbc, current.LearningPlanID)
	})
	if err != nil {
		return dberr.Map(op, err)
	}
	return nil
}
