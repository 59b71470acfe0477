package testutil

import (
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/adlnet/edlm-portal-backend/internal/domain"
	"github.com/adlnet/edlm-portal-backend/internal/domain/catalog"
)

func SeedUser(tb testing.TB, tx *gorm.DB, email string) *types.User {
	tb.Helper()
	u := &types.User{
		ID:        uuid.New(),
		Email:     email,
		FirstName: "Ada",
		LastName:  "Lovelace",
	}
	if err := tx.Create(u).Error; err != nil {
		tb.Fatalf("seed user: %v", err)
	}
	return u
}

func SeedCompetency(tb testing.TB, tx *gorm.DB, reference, name string) *catalog.Competency {
	tb.Helper()
	c := &catalog.Competency{Reference: reference, Name: name}
	if err := tx.Create(c).Error; err != nil {
		tb.Fatalf("seed competency: %v", err)
	}
	return c
}

func SeedKsa(tb testing.TB, tx *gorm.DB, reference, name string) *catalog.Ksa {
	tb.Helper()
	k := &catalog.Ksa{Reference: reference, Name: name}
	if err := tx.Create(k).Error; err != nil {
		tb.Fatalf("seed ksa: %v", err)
	}
	return k
}

func SeedCourse(tb testing.TB, tx *gorm.DB, reference, name string) *catalog.Course {
	tb.Helper()
	c := &catalog.Course{Reference: reference, Name: name}
	if err := tx.Create(c).Error; err != nil {
		tb.Fatalf("seed course: %v", err)
	}
	return c
}

func SeedPlan(tb testing.TB, tx *gorm.DB, learnerID uuid.UUID) *types.LearningPlan {
	tb.Helper()
	p := &types.LearningPlan{LearnerID: learnerID, Name: "Plan", Timeframe: "Short-term (1-2 years)"}
	if err := tx.Omit("Learner", "Competencies").Create(p).Error; err != nil {
		tb.Fatalf("seed plan: %v", err)
	}
	return p
}

func SeedPlanCompetency(tb testing.TB, tx *gorm.DB, planID uuid.UUID, competencyRef string) *types.LearningPlanCompetency {
	tb.Helper()
	c := &types.LearningPlanCompetency{LearningPlanID: planID, EccrCompetency: competencyRef, Priority: "High"}
	if err := tx.Omit("LearningPlan", "Competency", "Goals").Create(c).Error; err != nil {
		tb.Fatalf("seed plan competency: %v", err)
	}
	return c
}

func SeedGoal(tb testing.TB, tx *gorm.DB, planCompetencyID uuid.UUID, elrrGoalID *uuid.UUID) *types.LearningPlanGoal {
	tb.Helper()
	months := 6
	g := &types.LearningPlanGoal{
		PlanCompetencyID: planCompetencyID,
		GoalName:         "Improve Python",
		Timeline:         &months,
		ElrrGoalID:       elrrGoalID,
	}
	if err := tx.Omit("PlanCompetency", "Ksas", "Courses").Create(g).Error; err != nil {
		tb.Fatalf("seed goal: %v", err)
	}
	return g
}

// Tree seeds a learner with one plan, one competency and one goal.
type Tree struct {
	User           *types.User
	Plan           *types.LearningPlan
	PlanCompetency *types.LearningPlanCompetency
	Goal           *types.LearningPlanGoal
}

func SeedTree(tb testing.TB, tx *gorm.DB, elrrGoalID *uuid.UUID) Tree {
	tb.Helper()
	u := SeedUser(tb, tx, uuid.NewString()[:8]+"@example.mil")
	comp := SeedCompetency(tb, tx, "fw-1/"+uuid.NewString(), "Risk Communication")
	p := SeedPlan(tb, tx, u.ID)
	pc := SeedPlanCompetency(tb, tx, p.ID, comp.Reference)
	g := SeedGoal(tb, tx, pc.ID, elrrGoalID)
	return Tree{User: u, Plan: p, PlanCompetency: pc, Goal: g}
}
