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
	"github.com/adlnet/edlm-portal-backend/internal/pkg/dbctx"
	"github.com/adlnet/edlm-portal-backend/internal/pkg/logger"
	"github.com/adlnet/edlm-portal-backend/internal/platform/elrr"
)

type GoalCourseInput struct {
	PlanGoalID      uuid.UUID
	CourseReference string
}

type GoalCoursePatch struct {
	PlanGoalID      Optional[uuid.UUID]
	CourseReference Optional[string]
}

// GoalCourseService attaches XDS courses to goals; synced goals carry them as
// ELRR learning resources.
type GoalCourseService interface {
	Attach(ctx context.Context, in GoalCourseInput) (*types.LearningPlanGoalCourse, error)
	Get(ctx context.Context, id uuid.UUID) (*types.LearningPlanGoalCourse, error)
	List(ctx context.Context, planGoalID *uuid.UUID) ([]*types.LearningPlanGoalCourse, error)
	Update(ctx context.Context, id uuid.UUID, patch GoalCoursePatch) (*types.LearningPlanGoalCourse, error)
	Detach(ctx context.Context, id uuid.UUID) error
}

type goalCourseService struct {
	db       *gorm.DB
	log      *logger.Logger
	tx       txn.Runner
	plans    repos.LearningPlanRepo
	goals    repos.GoalRepo
	courses  repos.GoalCourseRepo
	resolver CatalogResolver
	sync     ElrrSync
}

func NewGoalCourseService(
	db *gorm.DB,
	baseLog *logger.Logger,
	tx txn.Runner,
	plans repos.LearningPlanRepo,
	goals repos.GoalRepo,
	courses repos.GoalCourseRepo,
	resolver CatalogResolver,
	sync ElrrSync,
) GoalCourseService {
	return &goalCourseService{
		db:       db,
		log:      baseLog.With("service", "GoalCourseService"),
		tx:       tx,
		plans:    plans,
		goals:    goals,
		courses:  courses,
		resolver: resolver,
		sync:     sync,
	}
}

func (s *goalCourseService) Attach(ctx context.Context, in GoalCourseInput) (*types.LearningPlanGoalCourse, error) {
	const op = "goal_course.attach"
	learnerID, err := callerID(ctx, op)
	if err != nil {
		return nil, err
	}
	if _, err := ownedGoal(dbctx.Context{Ctx: ctx}, s.goals, op, in.PlanGoalID, learnerID); err != nil {
		return nil, dberr.Map(op, err)
	}
	item, err := s.resolver.ResolveOrCreate(ctx, types.CatalogCourse, in.CourseReference)
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
		row, err := s.courses.Create(dbc, &types.LearningPlanGoalCourse{PlanGoalID: g.ID, XdsCourse: item.Reference})
		if err != nil {
			return err
		}
		rowID = row.ID

		if g.Synced() {
			remoteID, err := s.sync.LinkCourse(dbc.Ctx, *g.ElrrGoalID, item, nil)
			if err != nil {
				return err
			}
			if err := s.courses.UpdateFields(dbc, row.ID, map[string]interface{}{"elrr_course_id": remoteID}); err != nil {
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

func (s *goalCourseService) Get(ctx context.Context, id uuid.UUID) (*types.LearningPlanGoalCourse, error) {
	const op = "goal_course.get"
	learnerID, err := callerID(ctx, op)
	if err != nil {
		return nil, err
	}
	row, err := s.courses.GetByID(dbctx.Context{Ctx: ctx}, id)
	if err != nil {
		return nil, dberr.Map(op, err)
	}
	if row == nil || !ownsPlan(goalPlan(row.PlanGoal), learnerID) {
		return nil, notFound(op)
	}
	return row, nil
}

func (s *goalCourseService) List(ctx context.Context, planGoalID *uuid.UUID) ([]*types.LearningPlanGoalCourse, error) {
	const op = "goal_course.list"
	learnerID, err := callerID(ctx, op)
	if err != nil {
		return nil, err
	}
	out, err := s.courses.ListByLearner(dbctx.Context{Ctx: ctx}, learnerID, planGoalID)
	if err != nil {
		return nil, dberr.Map(op, err)
	}
	return out, nil
}

// Update only ever swaps the course; with the same reference it is a no-op.
func (s *goalCourseService) Update(ctx context.Context, id uuid.UUID, patch GoalCoursePatch) (*types.LearningPlanGoalCourse, error) {
	const op = "goal_course.update"
	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if patch.PlanGoalID.Set && patch.PlanGoalID.Value != current.PlanGoalID {
		return nil, errs.Validation(op, msgParentIDUpdate)
	}
	if !patch.CourseReference.Set {
		return current, nil
	}
	item, err := s.resolver.ResolveOrCreate(ctx, types.CatalogCourse, patch.CourseReference.Value)
	if err != nil {
		return nil, err
	}
	if item.Reference == current.XdsCourse {
		return current, nil
	}

	err = s.tx.InTx(ctx, func(dbc dbctx.Context) error {
		g, err := s.goals.LockByID(dbc, current.PlanGoalID, txn.ForUpdate(s.db))
		if err != nil {
			return err
		}
		row, err := s.courses.GetByID(dbc, id)
		if err != nil {
			return err
		}
		if g == nil || row == nil {
			return notFound(op)
		}
		// local write first: a duplicate reference must fail before ELRR is touched
		if err := s.courses.UpdateFields(dbc, row.ID, map[string]interface{}{"xds_course": item.Reference}); err != nil {
			return err
		}
		if g.Synced() {
			remoteID, err := s.sync.LinkCourse(dbc.Ctx, *g.ElrrGoalID, item, row.ElrrCourseID)
			if err != nil {
				return err
			}
			if err := s.courses.UpdateFields(dbc, row.ID, map[string]interface{}{"elrr_course_id": remoteID}); err != nil {
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

func (s *goalCourseService) Detach(ctx context.Context, id uuid.UUID) error {
	const op = "goal_course.detach"
	current, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	err = s.tx.InTx(ctx, func(dbc dbctx.Context) error {
		g, err := s.goals.LockByID(dbc, current.PlanGoalID, txn.ForUpdate(s.db))
		if err != nil {
			return err
		}
		row, err := s.courses.GetByID(dbc, id)
		if err != nil {
			return err
		}
		if g == nil || row == nil {
			return notFound(op)
		}
		if g.Synced() && row.ElrrCourseID != nil {
			if err := s.sync.Unlink(dbc.Ctx, *g.ElrrGoalID, elrr.LearningResourceIDs, *row.ElrrCourseID); err != nil {
				return err
			}
		}
		if err := s.courses.Delete(dbc, row.ID); err != nil {
			return err
		}
		return s.plans.Touch(dbc, g.PlanCompetency.LearningPlanID)
	})
	if err != nil {
		return dberr.Map(op, err)
	}
	s.log.Debug("goal course detached", "goal_course_id", id)
	return nil
}
