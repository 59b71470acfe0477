package services

import (
	"context"
	"slices"
	"strings"

	"github.com/google/uuid"

	types "github.com/adlnet/edlm-portal-backend/internal/domain"
	"github.com/adlnet/edlm-portal-backend/internal/domain/errs"
	"github.com/adlnet/edlm-portal-backend/internal/pkg/logger"
	"github.com/adlnet/edlm-portal-backend/internal/platform/eccr"
	"github.com/adlnet/edlm-portal-backend/internal/platform/elrr"
	"github.com/adlnet/edlm-portal-backend/internal/platform/extapi"
	"github.com/adlnet/edlm-portal-backend/internal/platform/personcache"
)

// ElrrSync performs the remote half of every goal saga. Failures come back
// as *errs.Error with a generic message; the detail is logged here.
type ElrrSync interface {
	EnsurePerson(ctx context.Context, learner *types.User) (uuid.UUID, error)
	CreateGoal(ctx context.Context, learner *types.User, goal *types.LearningPlanGoal) (uuid.UUID, error)
	// SyncGoalFields pushes only the fields named in changed: goal_name and
	// the timeline-derived due date.
	SyncGoalFields(ctx context.Context, goal *types.LearningPlanGoal, changed GoalFieldChanges) error
	DeleteGoal(ctx context.Context, remoteGoalID uuid.UUID) error

	// LinkKsa registers the KSA in ELRR and puts its id in competencyIds,
	// replacing oldID when given. Returns the new entry id.
	LinkKsa(ctx context.Context, remoteGoalID uuid.UUID, ksa *types.CatalogItem, oldID *uuid.UUID) (uuid.UUID, error)
	LinkCourse(ctx context.Context, remoteGoalID uuid.UUID, course *types.CatalogItem, oldID *uuid.UUID) (uuid.UUID, error)
	Unlink(ctx context.Context, remoteGoalID uuid.UUID, arr elrr.RefArray, id uuid.UUID) error
}

// GoalFieldChanges names the remote-relevant goal fields an update touched.
type GoalFieldChanges struct {
	Name     bool
	Timeline bool
}

func (c GoalFieldChanges) Any() bool { return c.Name || c.Timeline }

type elrrSync struct {
	log    *logger.Logger
	elrr   elrr.Client
	eccr   eccr.Client
	people personcache.Cache
}

func NewElrrSync(baseLog *logger.Logger, elrrClient elrr.Client, eccrClient eccr.Client, people personcache.Cache) ElrrSync {
	if people == nil {
		people = personcache.Nop{}
	}
	return &elrrSync{
		log:    baseLog.With("service", "ElrrSync"),
		elrr:   elrrClient,
		eccr:   eccrClient,
		people: people,
	}
}

func (s *elrrSync) fail(op string, err error, kv ...interface{}) error {
	kv = append(kv, "op", op, "kind", extapi.KindOf(err), "error", err)
	s.log.Error("ELRR sync failed", kv...)
	code := errs.CodeUpstream
	if extapi.IsKind(err, extapi.KindPreconditionFailed) {
		code = errs.CodeInternal
	}
	return errs.New(code, op, msgElrrSync, err)
}

func (s *elrrSync) EnsurePerson(ctx context.Context, learner *types.User) (uuid.UUID, error) {
	id, _, err := s.ensurePerson(ctx, learner)
	return id, err
}

// ensurePerson reports whether the id came from the cache.
func (s *elrrSync) ensurePerson(ctx context.Context, learner *types.User) (uuid.UUID, bool, error) {
	const op = "elrr.ensure_person"
	if learner == nil || strings.TrimSpace(learner.Email) == "" {
		return uuid.Nil, false, errs.New(errs.CodeInvariant, op, "learner has no email address", nil)
	}
	email := normalizeEmail(learner.Email)
	if id, ok := s.people.Get(ctx, email); ok {
		return id, true, nil
	}

	p, err := s.elrr.FindPersonByEmail(ctx, email)
	if err != nil {
		return uuid.Nil, false, s.fail(op, err, "user_id", learner.ID)
	}
	if p == nil {
		p, err = s.elrr.CreatePerson(ctx, elrr.NewPersonFor(learner.FirstName, learner.LastName, email))
		if err != nil {
			return uuid.Nil, false, s.fail(op, err, "user_id", learner.ID)
		}
		s.log.Info("created ELRR person", "user_id", learner.ID)
	}
	id := p.PersonID()
	if id == uuid.Nil {
		err := extapi.NewError(extapi.KindInvalidRemoteResponse, "elrr", op, 0, "person record lacks id or name", nil)
		return uuid.Nil, false, s.fail(op, err, "user_id", learner.ID)
	}
	s.people.Set(ctx, email, id)
	return id, false, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *elrrSync) CreateGoal(ctx context.Context, learner *types.User, goal *types.LearningPlanGoal) (uuid.UUID, error) {
	const op = "elrr.create_goal"
	personID, cached, err := s.ensurePerson(ctx, learner)
	if err != nil {
		return uuid.Nil, err
	}
	payload := elrr.NewGoalPayload(personID, goal.ID, goal.GoalName, goal.CreatedAt, goal.Timeline)
	remote, err := s.elrr.CreateGoal(ctx, payload)
	if err != nil && cached && extapi.IsKind(err, extapi.KindRemoteRejected) {
		// a cached person id may be gone from ELRR: forget it and look up once more
		s.log.Warn("ELRR rejected goal for cached person; refreshing", "user_id", learner.ID, "error", err)
		s.people.Delete(ctx, normalizeEmail(learner.Email))
		personID, _, err = s.ensurePerson(ctx, learner)
		if err != nil {
			return uuid.Nil, err
		}
		payload.PersonID = personID
		remote, err = s.elrr.CreateGoal(ctx, payload)
	}
	if err != nil {
		return uuid.Nil, s.fail(op, err, "goal_id", goal.ID)
	}
	return remote.ID(), nil
}

func (s *elrrSync) SyncGoalFields(ctx context.Context, goal *types.LearningPlanGoal, changed GoalFieldChanges) error {
	const op = "elrr.sync_goal"
	if !goal.Synced() {
		return nil
	}
	remote, err := s.elrr.GetGoal(ctx, *goal.ElrrGoalID)
	if err != nil {
		return s.fail(op, err, "goal_id", goal.ID)
	}
	if changed.Name {
		remote.SetName(goal.GoalName)
	}
	if changed.Timeline {
		remote.SetAchievedByDate(elrr.AchievedByDate(goal.CreatedAt, goal.Timeline))
	}
	if _, err := s.elrr.UpdateGoal(ctx, remote); err != nil {
		return s.fail(op, err, "goal_id", goal.ID)
	}
	return nil
}

func (s *elrrSync) DeleteGoal(ctx context.Context, remoteGoalID uuid.UUID) error {
	if err := s.elrr.DeleteGoal(ctx, remoteGoalID); err != nil {
		return s.fail("elrr.delete_goal", err, "elrr_goal_id", remoteGoalID)
	}
	return nil
}

func (s *elrrSync) LinkKsa(ctx context.Context, remoteGoalID uuid.UUID, ksa *types.CatalogItem, oldID *uuid.UUID) (uuid.UUID, error) {
	const op = "elrr.link_ksa"
	id, err := s.elrr.GetOrCreateCompetency(ctx, elrr.CompetencyRef{
		Identifier:    ksa.Reference,
		IdentifierURL: s.eccr.DataURL(ksa.Reference),
		Statement:     ksa.Name,
	})
	if err != nil {
		return uuid.Nil, s.fail(op, err, "reference", ksa.Reference)
	}
	if err := s.putReference(ctx, op, remoteGoalID, elrr.CompetencyIDs, id, oldID); err != nil {
		return uuid.Nil, err
	}
	return id, nil
}

func (s *elrrSync) LinkCourse(ctx context.Context, remoteGoalID uuid.UUID, course *types.CatalogItem, oldID *uuid.UUID) (uuid.UUID, error) {
	const op = "elrr.link_course"
	id, err := s.elrr.GetOrCreateLearningResource(ctx, course.Reference, course.Name)
	if err != nil {
		return uuid.Nil, s.fail(op, err, "reference", course.Reference)
	}
	if err := s.putReference(ctx, op, remoteGoalID, elrr.LearningResourceIDs, id, oldID); err != nil {
		return uuid.Nil, err
	}
	return id, nil
}

func (s *elrrSync) putReference(ctx context.Context, op string, remoteGoalID uuid.UUID, arr elrr.RefArray, newID uuid.UUID, oldID *uuid.UUID) error {
	remote, err := s.elrr.GetGoal(ctx, remoteGoalID)
	if err != nil {
		return s.fail(op, err, "elrr_goal_id", remoteGoalID)
	}
	old := ""
	if oldID != nil && *oldID != uuid.Nil {
		old = oldID.String()
	}
	next := elrr.AddOrReplaceReference(remote, arr, newID.String(), old)
	if slices.Equal(next, remote.Refs(arr)) {
		return nil
	}
	remote.SetRefs(arr, next)
	if _, err := s.elrr.UpdateGoal(ctx, remote); err != nil {
		return s.fail(op, err, "elrr_goal_id", remoteGoalID)
	}
	return nil
}

func (s *elrrSync) Unlink(ctx context.Context, remoteGoalID uuid.UUID, arr elrr.RefArray, id uuid.UUID) error {
	const op = "elrr.unlink"
	remote, err := s.elrr.GetGoal(ctx, remoteGoalID)
	if err != nil {
		return s.fail(op, err, "elrr_goal_id", remoteGoalID)
	}
	next, present := elrr.RemoveReference(remote, arr, id.String())
	if !present {
		return nil
	}
	remote.SetRefs(arr, next)
	if _, err := s.elrr.UpdateGoal(ctx, remote); err != nil {
		return s.fail(op, err, "elrr_goal_id", remoteGoalID)
	}
	return nil
}
