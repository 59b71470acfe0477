package handlers

import (
	"time"

	"github.com/google/uuid"

	types "github.com/adlnet/edlm-portal-backend/internal/domain"
)

// Response bodies. Reference inputs such as ksa_external_reference are write
// only; reads expose the resolved id and cached name instead.

type goalKsaReadView struct {
	ID                 uuid.UUID `json:"id"`
	KsaName            string    `json:"ksa_name"`
	EccrKsa            string    `json:"eccr_ksa"`
	CurrentProficiency string    `json:"current_proficiency"`
	TargetProficiency  string    `json:"target_proficiency"`
}

type goalKsaView struct {
	goalKsaReadView
	PlanGoal uuid.UUID `json:"plan_goal"`
	Modified time.Time `json:"modified"`
	Created  time.Time `json:"created"`
}

type goalCourseReadView struct {
	ID         uuid.UUID `json:"id"`
	CourseName string    `json:"course_name"`
	XdsCourse  string    `json:"xds_course"`
}

type goalCourseView struct {
	goalCourseReadView
	PlanGoal uuid.UUID `json:"plan_goal"`
	Modified time.Time `json:"modified"`
	Created  time.Time `json:"created"`
}

type goalReadView struct {
	ID                    uuid.UUID            `json:"id"`
	GoalName              string               `json:"goal_name"`
	Timeline              *int                 `json:"timeline"`
	ResourcesSupport      []string             `json:"resources_support"`
	Obstacles             []string             `json:"obstacles"`
	ResourcesSupportOther string               `json:"resources_support_other"`
	ObstaclesOther        string               `json:"obstacles_other"`
	Ksas                  []goalKsaReadView    `json:"ksas"`
	Courses               []goalCourseReadView `json:"courses"`
	ElrrGoalID            *uuid.UUID           `json:"elrr_goal_id"`
}

type goalView struct {
	goalReadView
	PlanCompetency uuid.UUID `json:"plan_competency"`
	Modified       time.Time `json:"modified"`
	Created        time.Time `json:"created"`
}

type planCompetencyReadView struct {
	ID                 uuid.UUID      `json:"id"`
	PlanCompetencyName string         `json:"plan_competency_name"`
	EccrCompetency     string         `json:"eccr_competency"`
	Priority           string         `json:"priority"`
	Goals              []goalReadView `json:"goals"`
}

type planCompetencyView struct {
	planCompetencyReadView
	LearningPlan uuid.UUID `json:"learning_plan"`
	Modified     time.Time `json:"modified"`
	Created      time.Time `json:"created"`
}

type learningPlanView struct {
	ID           uuid.UUID                `json:"id"`
	Learner      string                   `json:"learner"`
	Name         string                   `json:"name"`
	Timeframe    string                   `json:"timeframe"`
	Competencies []planCompetencyReadView `json:"competencies"`
	Modified     time.Time                `json:"modified"`
	Created      time.Time                `json:"created"`
}

func newGoalKsaReadView(k *types.LearningPlanGoalKsa) goalKsaReadView {
	return goalKsaReadView{
		ID:                 k.ID,
		KsaName:            k.KsaName(),
		EccrKsa:            k.EccrKsa,
		CurrentProficiency: k.CurrentProficiency,
		TargetProficiency:  k.TargetProficiency,
	}
}

func newGoalKsaView(k *types.LearningPlanGoalKsa) goalKsaView {
	return goalKsaView{
		goalKsaReadView: newGoalKsaReadView(k),
		PlanGoal:        k.PlanGoalID,
		Modified:        k.UpdatedAt,
		Created:         k.CreatedAt,
	}
}

func newGoalCourseReadView(gc *types.LearningPlanGoalCourse) goalCourseReadView {
	return goalCourseReadView{ID: gc.ID, CourseName: gc.CourseName(), XdsCourse: gc.XdsCourse}
}

func newGoalCourseView(gc *types.LearningPlanGoalCourse) goalCourseView {
	return goalCourseView{
		goalCourseReadView: newGoalCourseReadView(gc),
		PlanGoal:           gc.PlanGoalID,
		Modified:           gc.UpdatedAt,
		Created:            gc.CreatedAt,
	}
}

func newGoalReadView(g *types.LearningPlanGoal) goalReadView {
	v := goalReadView{
		ID:                    g.ID,
		GoalName:              g.GoalName,
		Timeline:              g.Timeline,
		ResourcesSupport:      append([]string{}, g.ResourcesSupport...),
		Obstacles:             append([]string{}, g.Obstacles...),
		ResourcesSupportOther: g.ResourcesSupportOther,
		ObstaclesOther:        g.ObstaclesOther,
		Ksas:                  make([]goalKsaReadView, 0, len(g.Ksas)),
		Courses:               make([]goalCourseReadView, 0, len(g.Courses)),
		ElrrGoalID:            g.ElrrGoalID,
	}
	for i := range g.Ksas {
		v.Ksas = append(v.Ksas, newGoalKsaReadView(&g.Ksas[i]))
	}
	for i := range g.Courses {
		v.Courses = append(v.Courses, newGoalCourseReadView(&g.Courses[i]))
	}
	return v
}

func newGoalView(g *types.LearningPlanGoal) goalView {
	return goalView{
		goalReadView:   newGoalReadView(g),
		PlanCompetency: g.PlanCompetencyID,
		Modified:       g.UpdatedAt,
		Created:        g.CreatedAt,
	}
}

func newPlanCompetencyReadView(pc *types.LearningPlanCompetency) planCompetencyReadView {
	v := planCompetencyReadView{
		ID:                 pc.ID,
		PlanCompetencyName: pc.CompetencyName(),
		EccrCompetency:     pc.EccrCompetency,
		Priority:           pc.Priority,
		Goals:              make([]goalReadView, 0, len(pc.Goals)),
	}
	for i := range pc.Goals {
		v.Goals = append(v.Goals, newGoalReadView(&pc.Goals[i]))
	}
	return v
}

func newPlanCompetencyView(pc *types.LearningPlanCompetency) planCompetencyView {
	return planCompetencyView{
		planCompetencyReadView: newPlanCompetencyReadView(pc),
		LearningPlan:           pc.LearningPlanID,
		Modified:               pc.UpdatedAt,
		Created:                pc.CreatedAt,
	}
}

func newLearningPlanView(p *types.LearningPlan) learningPlanView {
	v := learningPlanView{
		ID:           p.ID,
		Name:         p.Name,
		Timeframe:    p.Timeframe,
		Competencies: make([]planCompetencyReadView, 0, len(p.Competencies)),
		Modified:     p.UpdatedAt,
		Created:      p.CreatedAt,
	}
	if p.Learner != nil {
		v.Learner = p.Learner.Email
	}
	for i := range p.Competencies {
		v.Competencies = append(v.Competencies, newPlanCompetencyReadView(&p.Competencies[i]))
	}
	return v
}

func mapViews[T any, V any](rows []*T, view func(*T) V) []V {
	out := make([]V, 0, len(rows))
	for _, r := range rows {
		out = append(out, view(r))
	}
	return out
}
