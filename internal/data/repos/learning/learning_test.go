package learning

import (
	"testing"

	"github.com/google/uuid"

	types "github.com/adlnet/edlm-portal-backend/internal/domain"
	"github.com/adlnet/edlm-portal-backend/internal/data/repos/testutil"
)

func TestGoalGetByIDPreloadsOwner(t *testing.T) {
	db := testutil.DB(t)
	tree := testutil.SeedTree(t, db, nil)
	repo := NewGoalRepo(db, testutil.Logger(t))

	g, err := repo.GetByID(testutil.Ctx(), tree.Goal.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if g == nil || g.PlanCompetency == nil || g.PlanCompetency.LearningPlan == nil {
		t.Fatalf("owner not preloaded: %+v", g)
	}
	if g.PlanCompetency.LearningPlan.LearnerID != tree.User.ID {
		t.Fatalf("learner: want=%s got=%s", tree.User.ID, g.PlanCompetency.LearningPlan.LearnerID)
	}
	if g.PlanCompetency.CompetencyName() != "Risk Communication" {
		t.Fatalf("competency name: got=%q", g.PlanCompetency.CompetencyName())
	}

	missing, err := repo.GetByID(testutil.Ctx(), uuid.New())
	if err != nil || missing != nil {
		t.Fatalf("missing: want nil,nil got=%v,%v", missing, err)
	}
}

func TestListByLearnerScopesToOwner(t *testing.T) {
	db := testutil.DB(t)
	mine := testutil.SeedTree(t, db, nil)
	_ = testutil.SeedTree(t, db, nil)
	repo := NewGoalRepo(db, testutil.Logger(t))

	got, err := repo.ListByLearner(testutil.Ctx(), mine.User.ID, nil)
	if err != nil {
		t.Fatalf("ListByLearner: %v", err)
	}
	if len(got) != 1 || got[0].ID != mine.Goal.ID {
		t.Fatalf("want only own goal, got=%d rows", len(got))
	}
}

func TestPlanDeleteRemovesTree(t *testing.T) {
	db := testutil.DB(t)
	remote := uuid.New()
	tree := testutil.SeedTree(t, db, &remote)
	testutil.SeedKsa(t, db, "fw/ksa", "Ksa")
	ksa := &types.LearningPlanGoalKsa{PlanGoalID: tree.Goal.ID, EccrKsa: "fw/ksa", CurrentProficiency: "1", TargetProficiency: "3"}
	if err := db.Omit("PlanGoal", "Ksa").Create(ksa).Error; err != nil {
		t.Fatalf("seed ksa link: %v", err)
	}

	goals := NewGoalRepo(db, testutil.Logger(t))
	synced, err := goals.ListSynced(testutil.Ctx(), &tree.Plan.ID, nil)
	if err != nil || len(synced) != 1 {
		t.Fatalf("ListSynced: want 1 got=%d err=%v", len(synced), err)
	}

	plans := NewLearningPlanRepo(db, testutil.Logger(t))
	if err := plans.Delete(testutil.Ctx(), tree.Plan.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	for name, model := range map[string]any{
		"plan":       &types.LearningPlan{},
		"competency": &types.LearningPlanCompetency{},
		"goal":       &types.LearningPlanGoal{},
		"goal ksa":   &types.LearningPlanGoalKsa{},
	} {
		var n int64
		db.Model(model).Count(&n)
		if n != 0 {
			t.Fatalf("%s rows left: %d", name, n)
		}
	}
	var ksaRows int64
	db.Model(&types.Ksa{}).Count(&ksaRows)
	if ksaRows != 1 {
		t.Fatalf("catalog rows must survive plan delete: got=%d", ksaRows)
	}
}

func TestPlanGetByIDLoadsTree(t *testing.T) {
	db := testutil.DB(t)
	tree := testutil.SeedTree(t, db, nil)
	testutil.SeedCourse(t, db, "course-1", "Intro")
	link := &types.LearningPlanGoalCourse{PlanGoalID: tree.Goal.ID, XdsCourse: "course-1"}
	if err := db.Omit("PlanGoal", "Course").Create(link).Error; err != nil {
		t.Fatalf("seed course link: %v", err)
	}

	plan, err := NewLearningPlanRepo(db, testutil.Logger(t)).GetByID(testutil.Ctx(), tree.Plan.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if len(plan.Competencies) != 1 || len(plan.Competencies[0].Goals) != 1 {
		t.Fatalf("tree: got=%+v", plan)
	}
	courses := plan.Competencies[0].Goals[0].Courses
	if len(courses) != 1 || courses[0].CourseName() != "Intro" {
		t.Fatalf("courses: got=%+v", courses)
	}
}
