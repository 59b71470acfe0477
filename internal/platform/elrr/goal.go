package elrr

import (
	"encoding/json"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
)

// RefArray names one of the id arrays on a remote goal.
type RefArray string

const (
	CompetencyIDs       RefArray = "competencyIds"
	LearningResourceIDs RefArray = "learningResourceIds"
)

const (
	goalKeyPrefix = "portal-goal-"
	goalTypeSelf  = "SELF"
)

// Goal is a remote goal document. Only id, name, achievedByDate and the two
// reference arrays are interpreted; every other field is carried through
// unchanged so a PUT never drops data written by other ELRR clients.
type Goal struct {
	fields map[string]json.RawMessage
}

func (g *Goal) UnmarshalJSON(b []byte) error {
	var m map[string]json.RawMessage
	if err := json.Unmarshal(b, &m); err != nil {
		return err
	}
	if m == nil {
		return fmt.Errorf("goal document is null")
	}
	g.fields = m
	return nil
}

func (g Goal) MarshalJSON() ([]byte, error) {
	if g.fields == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(g.fields)
}

func (g *Goal) str(key string) string {
	var s string
	if raw, ok := g.fields[key]; ok {
		_ = json.Unmarshal(raw, &s)
	}
	return s
}

func (g *Goal) set(key string, v any) {
	if g.fields == nil {
		g.fields = map[string]json.RawMessage{}
	}
	raw, _ := json.Marshal(v)
	g.fields[key] = raw
}

// ID returns the goal id, uuid.Nil when absent or unparsable.
func (g *Goal) ID() uuid.UUID {
	id, err := uuid.Parse(g.str("id"))
	if err != nil {
		return uuid.Nil
	}
	return id
}

func (g *Goal) Name() string { return g.str("name") }

func (g *Goal) SetName(name string) { g.set("name", name) }

func (g *Goal) AchievedByDate() string { return g.str("achievedByDate") }

// SetAchievedByDate writes the date, or removes the field when t is nil.
func (g *Goal) SetAchievedByDate(t *time.Time) {
	if t == nil {
		delete(g.fields, "achievedByDate")
		return
	}
	g.set("achievedByDate", formatTime(*t))
}

// Refs returns the named array, nil when the field is absent or not a string list.
func (g *Goal) Refs(arr RefArray) []string {
	var out []string
	if raw, ok := g.fields[string(arr)]; ok {
		_ = json.Unmarshal(raw, &out)
	}
	return out
}

func (g *Goal) SetRefs(arr RefArray, ids []string) {
	if ids == nil {
		ids = []string{}
	}
	g.set(string(arr), ids)
}

// Field returns a raw copy of an uninterpreted field.
func (g *Goal) Field(key string) (json.RawMessage, bool) {
	raw, ok := g.fields[key]
	return slices.Clone(raw), ok
}

// AddOrReplaceReference removes oldID from the named array when present and
// appends newID unless it is already there. Other entries keep their relative
// order. The goal itself is not modified.
func AddOrReplaceReference(g *Goal, arr RefArray, newID, oldID string) []string {
	out := make([]string, 0, len(g.Refs(arr))+1)
	for _, id := range g.Refs(arr) {
		if oldID != "" && id == oldID {
			continue
		}
		out = append(out, id)
	}
	if !slices.Contains(out, newID) {
		out = append(out, newID)
	}
	return out
}

// RemoveReference drops id from the named array. The boolean reports whether
// it was present.
func RemoveReference(g *Goal, arr RefArray, id string) ([]string, bool) {
	cur := g.Refs(arr)
	out := slices.DeleteFunc(slices.Clone(cur), func(s string) bool { return s == id })
	return out, len(out) != len(cur)
}

// GoalPayload is the body of a goal create.
type GoalPayload struct {
	PersonID       uuid.UUID `json:"personId"`
	GoalID         string    `json:"goalId"`
	Name           string    `json:"name"`
	Type           string    `json:"type"`
	StartDate      string    `json:"startDate"`
	AchievedByDate *string   `json:"achievedByDate,omitempty"`
}

// NewGoalPayload builds the create body for a local goal. The goalId is a
// stable correlation key derived from the local id.
func NewGoalPayload(personID, localGoalID uuid.UUID, name string, start time.Time, timelineMonths *int) GoalPayload {
	p := GoalPayload{
		PersonID:  personID,
		GoalID:    GoalKey(localGoalID),
		Name:      name,
		Type:      goalTypeSelf,
		StartDate: formatTime(start),
	}
	if due := AchievedByDate(start, timelineMonths); due != nil {
		s := formatTime(*due)
		p.AchievedByDate = &s
	}
	return p
}

func GoalKey(localGoalID uuid.UUID) string {
	return goalKeyPrefix + localGoalID.String()
}

// AchievedByDate is start plus the timeline in calendar months, nil when there
// is no timeline.
func AchievedByDate(start time.Time, timelineMonths *int) *time.Time {
	if timelineMonths == nil || *timelineMonths == 0 {
		return nil
	}
	t := AddMonths(start, *timelineMonths)
	return &t
}

// AddMonths adds n calendar months, clamping the day to the end of the target
// month (Jan 31 + 1 month is the last day of February).
func AddMonths(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	last := time.Date(y, m+time.Month(n)+1, 0, 0, 0, 0, 0, t.Location()).Day()
	if d > last {
		d = last
	}
	hh, mm, ss := t.Clock()
	return time.Date(y, m+time.Month(n), d, hh, mm, ss, t.Nanosecond(), t.Location())
}

func formatTime(t time.Time) string {
	return t.Format(time.RFC3339Nano)
}
