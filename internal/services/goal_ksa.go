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
	"github.com/adlnet/edlm-portal-backend/internal/pkg/dbctx"
	"github.com/adlnet/edlm-portal-backend/internal/pkg/logger"
	"github.com/adlnet/edlm-portal-backend/internal/platform/elrr"
)

const maxProficiencyLength = 20

type GoalKsaInput struct {
	PlanGoalID         uuid.UUID
	KsaReference       string
	CurrentProficiency string
	TargetProficiency  string
}

type GoalKsaPatch struct {
	PlanGoalID         Optional[uuid.UUID]
	KsaReference       Optional[string]
	CurrentProficiency Optional[string]
	TargetProficiency  Optional[string]
}

// GoalKsaService attaches ECCR KSAs to goals and mirrors them in the remote
// goal's competencyIds while the goal is synced.
type GoalKsaService interface {
	Attach(ctx context.Context, in GoalKsaInput) (*types.LearningPlanGoalKsa, error)
	Get(ctx context.Context, id uuid.UUID) (*types.LearningPlanGoalKsa, error)
	List(ctx context.Context, planGoalID *uuid.UUID) ([]*types.LearningPlanGoalKsa, error)
	Update(ctx context.Context, id uuid.UUID, patch GoalKsaPatch) (*types.LearningPlanGoalKsa, error)
	Detach(ctx context.Context, id uuid.UUID) error
}

type goalKsaService struct {
	db       *gorm.DB
	log      *logger.Logger
	tx       txn.Runner
	plans    repos.LearningPlanRepo
	goals    repos.GoalRepo
	ksas     repos.GoalKsaRepo
	resolver CatalogResolver
	sync     ElrrSync
}

func NewGoalKsaService(
	db *gorm.DB,
	baseLog *logger.Logger,
	tx txn.Runner,
	plans repos.LearningPlanRepo,
	goals repos.GoalRepo,
	ksas repos.GoalKsaRepo,
	resolver CatalogResolver,
	sync ElrrSync,
) GoalKsaService {
	return &goalKsaService{
		db:       db,
		log:      baseLog.With("service", "GoalKsaService"),
		tx:       tx,
		plans:    plans,
		goals:    goals,
		ksas:     ksas,
		resolver: resolver,
		sync:     sync,
	}
}

func validateProficiency(op, field, value string) error {
	if strings.TrimSpace(value) == "" {
		return errs.Validation(op, field+": This field may not be blank.")
	}
	if err := checkMaxLen(op, field, value, maxProficiencyLength); err != nil {
		return err
	}
	return checkText(op, field, value)
}

// ownedGoal loads the goal an association is being attached to. A missing
// goal is a bad reference, a foreign one is a permission failure.
func ownedGoal(dbc dbctx.Context, goals repos.GoalRepo, op string, goalID, learnerID uuid.UUID) (*types.LearningPlanGoal, error) {
	g, err := goals.GetByID(dbc, goalID)
	if err != nil {
		return nil, err
	}
	if g == nil {
		return nil, errs.Validation(op, "plan_goal: Invalid pk - object does not exist.")
	}
	if !ownsPlan(goalPlan(g), learnerID) {
		return nil, errs.Forbidden(op)
	}
	return g, nil
}

func (s *goalKsaService) Attach(ctx context.Context, in GoalKsaInput) (*types.LearningPlanGoalKsa, error) {
	const op = "goal_ksa.attach"
	learnerID, err := callerID(ctx, op)
	if err != nil {
		return nil, err
	}
	if err := validateProficiency(op, "current_proficiency", in.CurrentProficiency); err != nil {
		return nil, err
	}
	if err := validateProficiency(op, "target_proficiency", in.TargetProficiency); err != nil {
		return nil, err
	}
	if _, err := ownedGoal(dbctx.Context{Ctx: ctx}, s.goals, op, in.PlanGoalID, learnerID); err != nil {
		return nil, dberr.Map(op, err)
	}

	// catalog lookups stay outside the transaction
	item, err := s.resolver.ResolveOrCreate(ctx, types.CatalogKsa, in.KsaReference)
	if err != nil {
		return nil, err
	}

	var rowID uuid.UUID
	err = s.tx.InTx(ctx, func(dbc dbctx.Context) error {
		g, err := s.goals.LockByID(dbc, in.PlanGoalID, txn.ForUpdate(s.db))
		if err != nil {
			return err
		}
		if g == nil {
			return errs.Validation(op, "plan_goal: Invalid pk - object does not exist.")
		}
		row, err := s.ksas.Create(dbc, &types.LearningPlanGoalKsa{
			PlanGoalID:         g.ID,
			EccrKsa:            item.Reference,
			CurrentProficiency: strings.TrimSpace(in.CurrentProficiency),
			TargetProficiency:  strings.TrimSpace(in.TargetProficiency),
		})
		if err != nil {
			return err
		}
		rowID = row.ID

		if g.Synced() {
			remoteID, err := s.sync.LinkKsa(dbc.Ctx, *g.ElrrGoalID, item, nil)
			if err != nil {
				return err
			}
			if err := s.ksas.UpdateFields(dbc, row.ID, map[string]interface{}{"elrr_ksa_id": remoteID}); err != nil {
				return err
			}
		}
		return s.plans.Touch(dbc, g.PlanCompetency.LearningPlanID)
	})
	if err != nil {
		return nil, dberr.Map(op, err)
	}
	return s.Get(ctx, rowID)
}

func (s *goalKsaService) Get(ctx context.Context, id uuid.UUID) (*types.LearningPlanGoalKsa, error) {
	const op = "goal_ksa.get"
	learnerID, err := callerID(ctx, op)
	if err != nil {
		return nil, err
	}
	row, err := s.ksas.GetByID(dbctx.Context{Ctx: ctx}, id)
	if err != nil {
		return nil, dberr.Map(op, err)
	}
	if row == nil || !ownsPlan(goalPlan(row.PlanGoal), learnerID) {
		return nil, notFound(op)
	}
	return row, nil
}

func (s *goalKsaService) List(ctx context.Context, planGoalID *uuid.UUID) ([]*types.LearningPlanGoalKsa, error) {
	const op = "goal_ksa.list"
	learnerID, err := callerID(ctx, op)
	if err != nil {
		return nil, err
	}
	out, err := s.ksas.ListByLearner(dbctx.Context{Ctx: ctx}, learnerID, planGoalID)
	if err != nil {
		return nil, dberr.Map(op, err)
	}
	return out, nil
}

func (s *goalKsaService) Update(ctx context.Context, id uuid.UUID, patch GoalKsaPatch) (*types.LearningPlanGoalKsa, error) {
	const op = "goal_ksa.update"
	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if patch.PlanGoalID.Set && patch.PlanGoalID.Value != current.PlanGoalID {
		return nil, errs.Validation(op, msgParentIDUpdate)
	}
	updates := map[string]interface{}{}
	if patch.CurrentProficiency.Set {
		if err := validateProficiency(op, "current_proficiency", patch.CurrentProficiency.Value); err != nil {
			return nil, err
		}
		updates["current_proficiency"] = strings.TrimSpace(patch.CurrentProficiency.Value)
	}
	if patch.TargetProficiency.Set {
		if err := validateProficiency(op, "target_proficiency", patch.TargetProficiency.Value); err != nil {
			return nil, err
		}
		updates["target_proficiency"] = strings.TrimSpace(patch.TargetProficiency.Value)
	}

	var item *types.CatalogItem
	if patch.KsaReference.Set {
		item, err = s.resolver.ResolveOrCreate(ctx, types.CatalogKsa, patch.KsaReference.Value)
		if err != nil {
			return nil, err
		}
		if item.Reference == current.EccrKsa {
			item = nil
		}
	}
	if item == nil && len(updates) == 0 {
		return current, nil
	}

	err = s.tx.InTx(ctx, func(dbc dbctx.Context) error {
		g, err := s.goals.LockByID(dbc, current.PlanGoalID, txn.ForUpdate(s.db))
		if err != nil {
			return err
		}
		row, err := s.ksas.GetByID(dbc, id)
		if err != nil {
			return err
		}
		if g == nil || row == nil {
			return notFound(op)
		}
		if item != nil {
			updates["eccr_ksa"] = item.Reference
		}
		// local write first: a duplicate reference must fail before ELRR is touched
		if err := s.ksas.UpdateFields(dbc, row.ID, updates); err != nil {
			return err
		}
		if item != nil && g.Synced() {
			remoteID, err := s.sync.LinkKsa(dbc.Ctx, *g.ElrrGoalID, item, row.ElrrKsaID)
			if err != nil {
				return err
			}
			if err := s.ksas.UpdateFields(dbc, row.ID, map[string]interface{}{"elrr_ksa_id": remoteID}); err != nil {
				return err
			}
		}
		return s.plans.Touch(dbc, g.PlanCompetency.LearningPlanID)
	})
	if err != nil {
		return nil, dberr.Map(op, err)
	}
	return s.Get(ctx, id)
}

func (s *goalKsaService) Detach(ctx context.Context, id uuid.UUID) error {
	const op = "goal_ksa.detach"
	current, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	err = s.tx.InTx(ctx, func(dbc dbctx.Context) error {
		g, err := s.goals.LockByID(dbc, current.PlanGoalID, txn.ForUpdate(s.db))
		if err != nil {
			return err
		}
		row, err := s.ksas.GetByID(dbc, id)
		if err != nil {
			return err
		}
		if g == nil || row == nil {
			return notFound(op)
		}
		if g.Synced() && row.ElrrKsaID != nil {
			if err := s.sync.Unlink(dbc.Ctx, *g.ElrrGoalID, elrr.CompetencyIDs, *row.ElrrKsaID); err != nil {
				return err
			}
		}
		if err := s.ksas.Delete(dbc, row.ID); err != nil {
			return err
		}
		return s.plans.Touch(dbc, g.PlanCompetency.LearningPlanID)
	})
	if err != nil {
		return dberr.Map(op, err)
	}
	return nil
}
