package services

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/adlnet/edlm-portal-backend/internal/data/repos"
	"github.com/adlnet/edlm-portal-backend/internal/data/repos/testutil"
	"github.com/adlnet/edlm-portal-backend/internal/data/txn"
	"github.com/adlnet/edlm-portal-backend/internal/pkg/ctxutil"
	"github.com/adlnet/edlm-portal-backend/internal/platform/elrr"
	"github.com/adlnet/edlm-portal-backend/internal/platform/extapi"
	"github.com/adlnet/edlm-portal-backend/internal/platform/personcache"
)

// fakeElrr is an in-memory ELRR. Each failX field, when set, is returned by
// the matching call instead of doing the work.
type fakeElrr struct {
	mu sync.Mutex

	persons      map[string]*elrr.Person
	goals        map[uuid.UUID]*elrr.Goal
	competencies map[string]uuid.UUID
	resources    map[string]uuid.UUID

	calls       []string
	lastPayload elrr.GoalPayload

	failCreateGoal error
	// rejectUnknownPersons makes CreateGoal refuse a personId ELRR does not hold.
	rejectUnknownPersons bool
	failGetGoal    error
	failUpdateGoal error
	failDeleteGoal error
}

func newFakeElrr() *fakeElrr {
	return &fakeElrr{
		persons:      map[string]*elrr.Person{},
		goals:        map[uuid.UUID]*elrr.Goal{},
		competencies: map[string]uuid.UUID{},
		resources:    map[string]uuid.UUID{},
	}
}

func (f *fakeElrr) record(call string) {
	f.calls = append(f.calls, call)
}

func (f *fakeElrr) resetCalls() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = nil
}

func (f *fakeElrr) callList() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func goalDoc(fields map[string]any) *elrr.Goal {
	raw, _ := json.Marshal(fields)
	var g elrr.Goal
	_ = json.Unmarshal(raw, &g)
	return &g
}

func cloneGoal(g *elrr.Goal) *elrr.Goal {
	raw, _ := json.Marshal(g)
	var c elrr.Goal
	_ = json.Unmarshal(raw, &c)
	return &c
}

// seedGoal stores a remote goal and returns its id.
func (f *fakeElrr) seedGoal(fields map[string]any) uuid.UUID {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := uuid.New()
	doc := map[string]any{"id": id.String()}
	for k, v := range fields {
		doc[k] = v
	}
	f.goals[id] = goalDoc(doc)
	return id
}

func (f *fakeElrr) goal(id uuid.UUID) *elrr.Goal {
	f.mu.Lock()
	defer f.mu.Unlock()
	g, ok := f.goals[id]
	if !ok {
		return nil
	}
	return cloneGoal(g)
}

func notFoundRemote(op string) error {
	return extapi.NewError(extapi.KindRemoteNotFound, "elrr", op, 404, "missing", nil)
}

func (f *fakeElrr) hasPerson(id uuid.UUID) bool {
	for _, p := range f.persons {
		if p.PersonID() == id {
			return true
		}
	}
	return false
}

func (f *fakeElrr) forgetPerson(email string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.persons, strings.ToLower(email))
}

func (f *fakeElrr) FindPersonByEmail(_ context.Context, email string) (*elrr.Person, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("find_person")
	return f.persons[strings.ToLower(email)], nil
}

func (f *fakeElrr) CreatePerson(_ context.Context, p elrr.NewPerson) (*elrr.Person, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("create_person")
	person := &elrr.Person{
		ID:             uuid.NewString(),
		FirstName:      p.FirstName,
		LastName:       p.LastName,
		Name:           p.Name,
		EmailAddresses: p.EmailAddresses,
	}
	f.persons[strings.ToLower(p.EmailAddresses[0].EmailAddress)] = person
	return person, nil
}

func (f *fakeElrr) CreateGoal(_ context.Context, p elrr.GoalPayload) (*elrr.Goal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("create_goal")
	f.lastPayload = p
	if f.failCreateGoal != nil {
		return nil, f.failCreateGoal
	}
	if f.rejectUnknownPersons && !f.hasPerson(p.PersonID) {
		return nil, extapi.NewError(extapi.KindRemoteRejected, "elrr", "elrr.create_goal", 400, "unknown person", nil)
	}
	raw, _ := json.Marshal(p)
	var doc map[string]any
	_ = json.Unmarshal(raw, &doc)
	id := uuid.New()
	doc["id"] = id.String()
	f.goals[id] = goalDoc(doc)
	return cloneGoal(f.goals[id]), nil
}

func (f *fakeElrr) GetGoal(_ context.Context, id uuid.UUID) (*elrr.Goal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("get_goal")
	if f.failGetGoal != nil {
		return nil, f.failGetGoal
	}
	g, ok := f.goals[id]
	if !ok {
		return nil, notFoundRemote("elrr.get_goal")
	}
	return cloneGoal(g), nil
}

func (f *fakeElrr) UpdateGoal(_ context.Context, g *elrr.Goal) (*elrr.Goal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("update_goal")
	if f.failUpdateGoal != nil {
		return nil, f.failUpdateGoal
	}
	if _, ok := f.goals[g.ID()]; !ok {
		return nil, notFoundRemote("elrr.update_goal")
	}
	f.goals[g.ID()] = cloneGoal(g)
	return cloneGoal(g), nil
}

func (f *fakeElrr) DeleteGoal(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("delete_goal")
	if f.failDeleteGoal != nil {
		return f.failDeleteGoal
	}
	if _, ok := f.goals[id]; !ok {
		return notFoundRemote("elrr.delete_goal")
	}
	delete(f.goals, id)
	return nil
}

func (f *fakeElrr) GetOrCreateCompetency(_ context.Context, ref elrr.CompetencyRef) (uuid.UUID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("competency")
	if id, ok := f.competencies[ref.Identifier]; ok {
		return id, nil
	}
	id := uuid.New()
	f.competencies[ref.Identifier] = id
	return id, nil
}

func (f *fakeElrr) GetOrCreateLearningResource(_ context.Context, iri, _ string) (uuid.UUID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("learning_resource")
	if id, ok := f.resources[iri]; ok {
		return id, nil
	}
	id := uuid.New()
	f.resources[iri] = id
	return id, nil
}

// fakeCatalog stands in for both ECCR and XDS. When gate is set, lookups
// announce themselves on entered and block until gate closes, then fail the
// way a real client does if their context is done.
type fakeCatalog struct {
	mu    sync.Mutex
	names map[string]string
	calls int
	err   error

	gate    chan struct{}
	entered chan struct{}
}

func (f *fakeCatalog) lookup(ctx context.Context, op string, reference string) (string, error) {
	if f.gate != nil {
		f.entered <- struct{}{}
		<-f.gate
		if err := ctx.Err(); err != nil {
			return "", extapi.NewError(extapi.KindUpstreamUnavailable, "catalog", op, 0, "request aborted", err)
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	name, ok := f.names[reference]
	if !ok {
		return "", extapi.NewError(extapi.KindNotFound, "catalog", op, 404, "no such item", nil)
	}
	return name, nil
}

func (f *fakeCatalog) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *fakeCatalog) ItemName(ctx context.Context, reference string) (string, error) {
	return f.lookup(ctx, "eccr.item_name", reference)
}

func (f *fakeCatalog) DataURL(reference string) string {
	return "https://eccr.test/api/data/" + reference
}

func (f *fakeCatalog) CourseTitle(ctx context.Context, reference string) (string, error) {
	return f.lookup(ctx, "xds.course_title", reference)
}

type harness struct {
	db      *gorm.DB
	elrr    *fakeElrr
	catalog *fakeCatalog

	resolver  CatalogResolver
	users     UserService
	plans     LearningPlanService
	planComps PlanCompetencyService
	goals     GoalService
	ksas      GoalKsaService
	courses   GoalCourseService

	tree testutil.Tree
	ctx  context.Context
}

// newHarness wires every service over a fresh database seeded with one
// learner tree. remoteGoal controls whether the seeded goal is synced.
func newHarness(t *testing.T, remoteGoal bool) *harness {
	t.Helper()
	db := testutil.DB(t)
	log := testutil.Logger(t)

	h := &harness{
		db:   db,
		elrr: newFakeElrr(),
		catalog: &fakeCatalog{names: map[string]string{
			"fw/ksa-1":   "Write unit tests",
			"fw/ksa-2":   "Review pull requests",
			"fw/comp-1":  "Software Engineering",
			"course-101": "Intro to Python",
			"course-201": "Advanced Python",
		}},
	}

	var remoteID *uuid.UUID
	if remoteGoal {
		id := h.elrr.seedGoal(map[string]any{
			"name":                "Improve Python",
			"competencyIds":       []string{"pre-existing"},
			"learningResourceIds": []string{},
			"personId":            uuid.NewString(),
		})
		remoteID = &id
	}
	h.tree = testutil.SeedTree(t, db, remoteID)
	h.ctx = ctxutil.WithRequestData(context.Background(), &ctxutil.RequestData{
		UserID: h.tree.User.ID,
		Email:  h.tree.User.Email,
	})

	tx := txn.NewGormRunner(db)
	userRepo := repos.NewUserRepo(db, log)
	planRepo := repos.NewLearningPlanRepo(db, log)
	pcRepo := repos.NewPlanCompetencyRepo(db, log)
	goalRepo := repos.NewGoalRepo(db, log)
	ksaRepo := repos.NewGoalKsaRepo(db, log)
	courseRepo := repos.NewGoalCourseRepo(db, log)

	h.resolver = NewCatalogResolver(db, log, repos.NewCatalogRepo(db, log), h.catalog, h.catalog)
	syncer := NewElrrSync(log, h.elrr, h.catalog, personcache.Nop{})
	h.users = NewUserService(db, log, userRepo)
	h.goals = NewGoalService(db, log, tx, userRepo, planRepo, pcRepo, goalRepo, syncer)
	h.plans = NewLearningPlanService(db, log, tx, planRepo, goalRepo, h.goals)
	h.planComps = NewPlanCompetencyService(db, log, tx, planRepo, pcRepo, goalRepo, h.goals, h.resolver)
	h.ksas = NewGoalKsaService(db, log, tx, planRepo, goalRepo, ksaRepo, h.resolver, syncer)
	h.courses = NewGoalCourseService(db, log, tx, planRepo, goalRepo, courseRepo, h.resolver, syncer)
	return h
}

func (h *harness) countRows(t *testing.T, model any) int64 {
	t.Helper()
	var n int64
	if err := h.db.Model(model).Count(&n).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	return n
}

func (h *harness) remoteGoalID() uuid.UUID {
	return *h.tree.Goal.ElrrGoalID
}

func intPtr(v int) *int { return &v }
