package learning

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/adlnet/edlm-portal-backend/internal/domain/catalog"
	"github.com/adlnet/edlm-portal-backend/internal/domain/user"
)

const (
	TimeframeShortTerm = "Short-term (1-2 years)"
	TimeframeLongTerm  = "Long-term (3-4 years)"
)

var Timeframes = []string{TimeframeShortTerm, TimeframeLongTerm}

var Priorities = []string{"Highest", "High", "Medium", "Low", "Lowest"}

// LearningPlan is owned by its learner; every row beneath it inherits that owner.
type LearningPlan struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	LearnerID uuid.UUID  `gorm:"type:uuid;not null;index" json:"learner_id"`
	Learner   *user.User `gorm:"constraint:OnDelete:CASCADE;foreignKey:LearnerID;references:ID" json:"-"`

	Name      string `gorm:"column:name;type:text;not null" json:"name"`
	Timeframe string `gorm:"column:timeframe;size:50;not null" json:"timeframe"`

	Competencies []LearningPlanCompetency `gorm:"foreignKey:LearningPlanID" json:"competencies,omitempty"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;index" json:"updated_at"`
}

func (LearningPlan) TableName() string { return "learning_plan" }

func (p *LearningPlan) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

type LearningPlanCompetency struct {
	ID             uuid.UUID     `gorm:"type:uuid;primaryKey" json:"id"`
	LearningPlanID uuid.UUID     `gorm:"type:uuid;not null;index" json:"learning_plan"`
	LearningPlan   *LearningPlan `gorm:"constraint:OnDelete:CASCADE;foreignKey:LearningPlanID;references:ID" json:"-"`

	EccrCompetency string              `gorm:"column:eccr_competency;size:255;not null;index" json:"eccr_competency"`
	Competency     *catalog.Competency `gorm:"constraint:OnDelete:CASCADE;foreignKey:EccrCompetency;references:Reference" json:"-"`
	Priority       string              `gorm:"column:priority;size:20;not null" json:"priority"`

	Goals []LearningPlanGoal `gorm:"foreignKey:PlanCompetencyID" json:"goals,omitempty"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (LearningPlanCompetency) TableName() string { return "learning_plan_competency" }

func (c *LearningPlanCompetency) BeforeCreate(*gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// CompetencyName is the cached ECCR name, empty when the row was not preloaded.
func (c *LearningPlanCompetency) CompetencyName() string {
	if c == nil || c.Competency == nil {
		return ""
	}
	return c.Competency.Name
}
