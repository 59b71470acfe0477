package catalog

import (
	"strings"
	"time"
)

// Kind names the external catalog that owns a reference.
type Kind string

const (
	KindCompetency Kind = "competency"
	KindKsa        Kind = "ksa"
	KindCourse     Kind = "course"
)

func (k Kind) Valid() bool {
	switch k {
	case KindCompetency, KindKsa, KindCourse:
		return true
	}
	return false
}

// Service returns the upstream that validates references of this kind.
func (k Kind) Service() string {
	if k == KindCourse {
		return "xds"
	}
	return "eccr"
}

// MaxNameLength bounds cached display names.
const MaxNameLength = 255

// TruncateName trims name to MaxNameLength runes.
func TruncateName(name string) string {
	name = strings.TrimSpace(name)
	r := []rune(name)
	if len(r) > MaxNameLength {
		return string(r[:MaxNameLength])
	}
	return name
}

// Item is a resolved catalog entry of any kind.
type Item struct {
	Kind      Kind      `json:"kind"`
	Reference string    `json:"reference"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Competency caches an ECCR competency. Rows are created on first reference
// and never refreshed.
type Competency struct {
	Reference string    `gorm:"column:reference;size:255;primaryKey" json:"reference"`
	Name      string    `gorm:"column:name;size:255;not null" json:"name"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Competency) TableName() string { return "competency" }

type Ksa struct {
	Reference string    `gorm:"column:reference;size:255;primaryKey" json:"reference"`
	Name      string    `gorm:"column:name;size:255;not null" json:"name"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Ksa) TableName() string { return "ksa" }

// Course caches an XDS experience.
type Course struct {
	Reference string    `gorm:"column:reference;size:255;primaryKey" json:"reference"`
	Name      string    `gorm:"column:name;size:255;not null" json:"name"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Course) TableName() string { return "course" }
