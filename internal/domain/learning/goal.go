package learning

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/adlnet/edlm-portal-backend/internal/domain/catalog"
)

// LearningPlanGoal mirrors an ELRR goal once ElrrGoalID is set. A goal whose
// remote create failed never persists.
type LearningPlanGoal struct {
	ID               uuid.UUID               `gorm:"type:uuid;primaryKey" json:"id"`
	PlanCompetencyID uuid.UUID               `gorm:"type:uuid;not null;index" json:"plan_competency"`
	PlanCompetency   *LearningPlanCompetency `gorm:"constraint:OnDelete:CASCADE;foreignKey:PlanCompetencyID;references:ID" json:"-"`

	GoalName string `gorm:"column:goal_name;type:text;not null" json:"goal_name"`
	// Timeline is a month count; nil means open ended.
	Timeline *int `gorm:"column:timeline" json:"timeline"`

	ResourcesSupport      datatypes.JSONSlice[string] `gorm:"column:resources_support" json:"resources_support"`
	Obstacles             datatypes.JSONSlice[string] `gorm:"column:obstacles" json:"obstacles"`
	ResourcesSupportOther string                      `gorm:"column:resources_support_other;type:text" json:"resources_support_other"`
	ObstaclesOther        string                      `gorm:"column:obstacles_other;type:text" json:"obstacles_other"`

	ElrrGoalID *uuid.UUID `gorm:"column:elrr_goal_id;type:uuid;index" json:"elrr_goal_id"`

	Ksas    []LearningPlanGoalKsa    `gorm:"foreignKey:PlanGoalID" json:"ksas,omitempty"`
	Courses []LearningPlanGoalCourse `gorm:"foreignKey:PlanGoalID" json:"courses,omitempty"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (LearningPlanGoal) TableName() string { return "learning_plan_goal" }

func (g *LearningPlanGoal) BeforeCreate(*gorm.DB) error {
	if g.ID == uuid.Nil {
		g.ID = uuid.New()
	}
	if g.ResourcesSupport == nil {
		g.ResourcesSupport = datatypes.JSONSlice[string]{}
	}
	if g.Obstacles == nil {
		g.Obstacles = datatypes.JSONSlice[string]{}
	}
	return nil
}

func (g *LearningPlanGoal) Synced() bool {
	return g != nil && g.ElrrGoalID != nil && *g.ElrrGoalID != uuid.Nil
}

// LearningPlanGoalKsa links a goal to an ECCR KSA. ElrrKsaID is the entry
// this row contributed to the remote goal's competencyIds.
type LearningPlanGoalKsa struct {
	ID         uuid.UUID         `gorm:"type:uuid;primaryKey" json:"id"`
	PlanGoalID uuid.UUID         `gorm:"type:uuid;not null;index" json:"plan_goal"`
	PlanGoal   *LearningPlanGoal `gorm:"constraint:OnDelete:CASCADE;foreignKey:PlanGoalID;references:ID" json:"-"`

	EccrKsa string       `gorm:"column:eccr_ksa;size:255;not null;index" json:"eccr_ksa"`
	Ksa     *catalog.Ksa `gorm:"constraint:OnDelete:CASCADE;foreignKey:EccrKsa;references:Reference" json:"-"`

	CurrentProficiency string `gorm:"column:current_proficiency;size:20;not null" json:"current_proficiency"`
	TargetProficiency  string `gorm:"column:target_proficiency;size:20;not null" json:"target_proficiency"`

	ElrrKsaID *uuid.UUID `gorm:"column:elrr_ksa_id;type:uuid" json:"elrr_ksa_id"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (LearningPlanGoalKsa) TableName() string { return "learning_plan_goal_ksa" }

func (k *LearningPlanGoalKsa) BeforeCreate(*gorm.DB) error {
	if k.ID == uuid.Nil {
		k.ID = uuid.New()
	}
	return nil
}

func (k *LearningPlanGoalKsa) KsaName() string {
	if k == nil || k.Ksa == nil {
		return ""
	}
	return k.Ksa.Name
}

// LearningPlanGoalCourse links a goal to an XDS course. ElrrCourseID is the
// entry this row contributed to the remote goal's learningResourceIds.
type LearningPlanGoalCourse struct {
	ID         uuid.UUID         `gorm:"type:uuid;primaryKey" json:"id"`
	PlanGoalID uuid.UUID         `gorm:"type:uuid;not null;index" json:"plan_goal"`
	PlanGoal   *LearningPlanGoal `gorm:"constraint:OnDelete:CASCADE;foreignKey:PlanGoalID;references:ID" json:"-"`

	XdsCourse string          `gorm:"column:xds_course;size:255;not null;index" json:"xds_course"`
	Course    *catalog.Course `gorm:"constraint:OnDelete:CASCADE;foreignKey:XdsCourse;references:Reference" json:"-"`

	ElrrCourseID *uuid.UUID `gorm:"column:elrr_course_id;type:uuid" json:"elrr_course_id"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (LearningPlanGoalCourse) TableName() string { return "learning_plan_goal_course" }

func (c *LearningPlanGoalCourse) BeforeCreate(*gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

func (c *LearningPlanGoalCourse) CourseName() string {
	if c == nil || c.Course == nil {
		return ""
	}
	return c.Course.Name
}
