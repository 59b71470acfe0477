package services

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/adlnet/edlm-portal-backend/internal/data/dberr"
	"github.com/adlnet/edlm-portal-backend/internal/data/repos"
	"github.com/adlnet/edlm-portal-backend/internal/data/txn"
	types "github.com/adlnet/edlm-portal-backend/internal/domain"
	"github.com/adlnet/edlm-portal-backend/internal/domain/errs"
	"github.com/adlnet/edlm-portal-backend/internal/pkg/dbctx"
	"github.com/adlnet/edlm-portal-backend/internal/pkg/logger"
)

const maxListItemLength = 500

type GoalInput struct {
	PlanCompetencyID      uuid.UUID
	GoalName              string
	Timeline              *int
	ResourcesSupport      []string
	Obstacles             []string
	ResourcesSupportOther string
	ObstaclesOther        string
}

type GoalPatch struct {
	PlanCompetencyID      Optional[uuid.UUID]
	GoalName              Optional[string]
	Timeline              Optional[*int]
	ResourcesSupport      Optional[[]string]
	Obstacles             Optional[[]string]
	ResourcesSupportOther Optional[string]
	ObstaclesOther        Optional[string]
}

// GoalService keeps learning plan goals and their ELRR goals consistent.
//
// Create inserts locally, creates remotely, then records the remote id, all
// in one transaction. Update and Delete lock the goal row and run the remote
// call before commit, so a remote failure leaves the local row untouched.
type GoalService interface {
	Create(ctx context.Context, in GoalInput) (*types.LearningPlanGoal, error)
	Get(ctx context.Context, id uuid.UUID) (*types.LearningPlanGoal, error)
	List(ctx context.Context, planCompetencyID *uuid.UUID) ([]*types.LearningPlanGoal, error)
	Update(ctx context.Context, id uuid.UUID, patch GoalPatch) (*types.LearningPlanGoal, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type goalService struct {
	db        *gorm.DB
	log       *logger.Logger
	tx        txn.Runner
	users     repos.UserRepo
	plans     repos.LearningPlanRepo
	planComps repos.PlanCompetencyRepo
	goals     repos.GoalRepo
	sync      ElrrSync
}

func NewGoalService(
	db *gorm.DB,
	baseLog *logger.Logger,
	tx txn.Runner,
	users repos.UserRepo,
	plans repos.LearningPlanRepo,
	planComps repos.PlanCompetencyRepo,
	goals repos.GoalRepo,
	sync ElrrSync,
) GoalService {
	return &goalService{
		db:        db,
		log:       baseLog.With("service", "GoalService"),
		tx:        tx,
		users:     users,
		plans:     plans,
		planComps: planComps,
		goals:     goals,
		sync:      sync,
	}
}

func validateGoalText(op, name string, lists map[string][]string, texts map[string]string) error {
	if strings.TrimSpace(name) == "" {
		return errs.Validation(op, "goal_name: This field may not be blank.")
	}
	if err := checkText(op, "goal_name", name); err != nil {
		return err
	}
	for field, items := range lists {
		for _, v := range items {
			if err := checkMaxLen(op, field, v, maxListItemLength); err != nil {
				return err
			}
			if err := checkText(op, field, v); err != nil {
				return err
			}
		}
	}
	return checkTexts(op, texts)
}

func validateTimeline(op string, months *int) error {
	if months != nil && *months < 0 {
		return errs.Validation(op, "timeline: must be a number of months, zero or more.")
	}
	return nil
}

func (s *goalService) Create(ctx context.Context, in GoalInput) (*types.LearningPlanGoal, error) {
	const op = "goal.create"
	learnerID, err := callerID(ctx, op)
	if err != nil {
		return nil, err
	}
	err = validateGoalText(op, in.GoalName,
		map[string][]string{"resources_support": in.ResourcesSupport, "obstacles": in.Obstacles},
		map[string]string{"resources_support_other": in.ResourcesSupportOther, "obstacles_other": in.ObstaclesOther})
	if err != nil {
		return nil, err
	}
	if err := validateTimeline(op, in.Timeline); err != nil {
		return nil, err
	}

	var (
		goalID   uuid.UUID
		remoteID uuid.UUID
	)
	err = s.tx.InTx(ctx, func(dbc dbctx.Context) error {
		pc, err := s.planComps.GetByID(dbc, in.PlanCompetencyID)
		if err != nil {
			return err
		}
		if pc == nil {
			return errs.Validation(op, "plan_competency: Invalid pk - object does not exist.")
		}
		if !ownsPlan(pc.LearningPlan, learnerID) {
			return errs.Forbidden(op)
		}
		learner, err := s.users.GetByID(dbc, learnerID)
		if err != nil {
			return err
		}
		if learner == nil {
			return errs.New(errs.CodeInvariant, op, "authenticated user has no local record", nil)
		}

		goal, err := s.goals.Create(dbc, &types.LearningPlanGoal{
			PlanCompetencyID:      pc.ID,
			GoalName:              strings.TrimSpace(in.GoalName),
			Timeline:              in.Timeline,
			ResourcesSupport:      datatypes.JSONSlice[string](in.ResourcesSupport),
			Obstacles:             datatypes.JSONSlice[string](in.Obstacles),
			ResourcesSupportOther: in.ResourcesSupportOther,
			ObstaclesOther:        in.ObstaclesOther,
		})
		if err != nil {
			return err
		}
		goalID = goal.ID

		remoteID, err = s.sync.CreateGoal(dbc.Ctx, learner, goal)
		if err != nil {
			return err
		}
		if err := s.goals.UpdateFields(dbc, goal.ID, map[string]interface{}{"elrr_goal_id": remoteID}); err != nil {
			return err
		}
		return s.plans.Touch(dbc, pc.LearningPlanID)
	})
	if err != nil {
		if remoteID != uuid.Nil {
			s.compensateCreate(ctx, goalID, remoteID)
		}
		return nil, dberr.Map(op, err)
	}
	s.log.Info("goal created", "goal_id", goalID, "elrr_goal_id", remoteID)
	return s.Get(ctx, goalID)
}

// compensateCreate removes a remote goal whose local row failed to commit.
func (s *goalService) compensateCreate(ctx context.Context, goalID, remoteID uuid.UUID) {
	if err := s.sync.DeleteGoal(context.WithoutCancel(ctx), remoteID); err != nil {
		s.log.Error("orphaned ELRR goal after failed local commit", "goal_id", goalID, "elrr_goal_id", remoteID, "error", err)
		return
	}
	s.log.Warn("removed ELRR goal after failed local commit", "goal_id", goalID, "elrr_goal_id", remoteID)
}

func (s *goalService) Get(ctx context.Context, id uuid.UUID) (*types.LearningPlanGoal, error) {
	const op = "goal.get"
	learnerID, err := callerID(ctx, op)
	if err != nil {
		return nil, err
	}
	g, err := s.goals.GetByID(dbctx.Context{Ctx: ctx}, id)
	if err != nil {
		return nil, dberr.Map(op, err)
	}
	if g == nil || !ownsPlan(goalPlan(g), learnerID) {
		return nil, notFound(op)
	}
	return g, nil
}

func (s *goalService) List(ctx context.Context, planCompetencyID *uuid.UUID) ([]*types.LearningPlanGoal, error) {
	const op = "goal.list"
	learnerID, err := callerID(ctx, op)
	if err != nil {
		return nil, err
	}
	out, err := s.goals.ListByLearner(dbctx.Context{Ctx: ctx}, learnerID, planCompetencyID)
	if err != nil {
		return nil, dberr.Map(op, err)
	}
	return out, nil
}

func (s *goalService) Update(ctx context.Context, id uuid.UUID, patch GoalPatch) (*types.LearningPlanGoal, error) {
	const op = "goal.update"
	learnerID, err := callerID(ctx, op)
	if err != nil {
		return nil, err
	}

	err = s.tx.InTx(ctx, func(dbc dbctx.Context) error {
		g, err := s.goals.LockByID(dbc, id, txn.ForUpdate(s.db))
		if err != nil {
			return err
		}
		if g == nil || !ownsPlan(goalPlan(g), learnerID) {
			return notFound(op)
		}
		if patch.PlanCompetencyID.Set && patch.PlanCompetencyID.Value != g.PlanCompetencyID {
			return errs.Validation(op, msgParentIDUpdate)
		}

		updates := map[string]interface{}{}
		var changed GoalFieldChanges
		if patch.GoalName.Set {
			name := strings.TrimSpace(patch.GoalName.Value)
			if err := validateGoalText(op, name, nil, nil); err != nil {
				return err
			}
			if name != g.GoalName {
				updates["goal_name"] = name
				g.GoalName = name
				changed.Name = true
			}
		}
		if patch.Timeline.Set {
			if err := validateTimeline(op, patch.Timeline.Value); err != nil {
				return err
			}
			if !sameInt(patch.Timeline.Value, g.Timeline) {
				updates["timeline"] = patch.Timeline.Value
				g.Timeline = patch.Timeline.Value
				changed.Timeline = true
			}
		}
		lists := map[string][]string{}
		if patch.ResourcesSupport.Set {
			lists["resources_support"] = patch.ResourcesSupport.Value
			updates["resources_support"] = datatypes.JSONSlice[string](nonNil(patch.ResourcesSupport.Value))
		}
		if patch.Obstacles.Set {
			lists["obstacles"] = patch.Obstacles.Value
			updates["obstacles"] = datatypes.JSONSlice[string](nonNil(patch.Obstacles.Value))
		}
		texts := map[string]string{}
		if patch.ResourcesSupportOther.Set {
			texts["resources_support_other"] = patch.ResourcesSupportOther.Value
			updates["resources_support_other"] = patch.ResourcesSupportOther.Value
		}
		if patch.ObstaclesOther.Set {
			texts["obstacles_other"] = patch.ObstaclesOther.Value
			updates["obstacles_other"] = patch.ObstaclesOther.Value
		}
		if err := validateGoalText(op, g.GoalName, lists, texts); err != nil {
			return err
		}
		if len(updates) == 0 {
			return nil
		}

		if err := s.goals.UpdateFields(dbc, g.ID, updates); err != nil {
			return err
		}
		if changed.Any() && g.Synced() {
			if err := s.sync.SyncGoalFields(dbc.Ctx, g, changed); err != nil {
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

func (s *goalService) Delete(ctx context.Context, id uuid.UUID) error {
	const op = "goal.delete"
	learnerID, err := callerID(ctx, op)
	if err != nil {
		return err
	}
	err = s.tx.InTx(ctx, func(dbc dbctx.Context) error {
		g, err := s.goals.LockByID(dbc, id, txn.ForUpdate(s.db))
		if err != nil {
			return err
		}
		if g == nil || !ownsPlan(goalPlan(g), learnerID) {
			return notFound(op)
		}
		// remote first: a failed remote delete keeps the local row
		if g.Synced() {
			if err := s.sync.DeleteGoal(dbc.Ctx, *g.ElrrGoalID); err != nil {
				return err
			}
		}
		if err := s.goals.Delete(dbc, g.ID); err != nil {
			return err
		}
		return s.plans.Touch(dbc, g.PlanCompetency.LearningPlanID)
	})
	if err != nil {
		return dberr.Map(op, err)
	}
	s.log.Info("goal deleted", "goal_id", id)
	return nil
}

func nonNil(v []string) []string {
	if v == nil {
		return []string{}
	}
	return v
}
