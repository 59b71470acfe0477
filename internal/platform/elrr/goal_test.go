package elrr

import (
	"encoding/json"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
)

func goalWith(t *testing.T, doc string) *Goal {
	t.Helper()
	var g Goal
	if err := json.Unmarshal([]byte(doc), &g); err != nil {
		t.Fatalf("unmarshal goal: %v", err)
	}
	return &g
}

func TestAddOrReplaceReference(t *testing.T) {
	tests := []struct {
		name   string
		arr    []string
		newID  string
		oldID  string
		expect []string
	}{
		{name: "append to empty", arr: nil, newID: "n", expect: []string{"n"}},
		{name: "append keeps order", arr: []string{"a", "b"}, newID: "n", expect: []string{"a", "b", "n"}},
		{name: "already present", arr: []string{"a", "n", "b"}, newID: "n", expect: []string{"a", "n", "b"}},
		{name: "replace old", arr: []string{"a", "o", "b"}, newID: "n", oldID: "o", expect: []string{"a", "b", "n"}},
		{name: "old absent", arr: []string{"a"}, newID: "n", oldID: "o", expect: []string{"a", "n"}},
		{name: "old equals new", arr: []string{"a", "n"}, newID: "n", oldID: "n", expect: []string{"a", "n"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			g := &Goal{}
			if tc.arr != nil {
				g.SetRefs(CompetencyIDs, tc.arr)
			}
			before := g.Refs(CompetencyIDs)
			got := AddOrReplaceReference(g, CompetencyIDs, tc.newID, tc.oldID)
			if !slices.Equal(got, tc.expect) {
				t.Fatalf("want=%v got=%v", tc.expect, got)
			}
			if !slices.Equal(g.Refs(CompetencyIDs), before) {
				t.Fatalf("goal mutated: before=%v after=%v", before, g.Refs(CompetencyIDs))
			}
		})
	}
}

func TestRemoveReference(t *testing.T) {
	g := &Goal{}
	g.SetRefs(LearningResourceIDs, []string{"a", "b", "c"})

	got, ok := RemoveReference(g, LearningResourceIDs, "b")
	if !ok || !slices.Equal(got, []string{"a", "c"}) {
		t.Fatalf("remove present: ok=%v got=%v", ok, got)
	}
	got, ok = RemoveReference(g, LearningResourceIDs, "z")
	if ok || !slices.Equal(got, []string{"a", "b", "c"}) {
		t.Fatalf("remove absent: ok=%v got=%v", ok, got)
	}
}

func TestGoalPreservesUnknownFields(t *testing.T) {
	g := goalWith(t, `{"id":"6f1d8a4e-7a32-4d8e-9b43-3f3a5f1c2b10","name":"Old","personId":"p","extensions":{"x":1},"competencyIds":["a"]}`)
	g.SetName("New")
	g.SetRefs(CompetencyIDs, AddOrReplaceReference(g, CompetencyIDs, "b", ""))

	out, err := json.Marshal(g)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	s := string(out)
	for _, want := range []string{`"extensions":{"x":1}`, `"personId":"p"`, `"name":"New"`, `"competencyIds":["a","b"]`} {
		if !strings.Contains(s, want) {
			t.Fatalf("marshal: missing %s in %s", want, s)
		}
	}
}

func TestSetAchievedByDateNilRemovesField(t *testing.T) {
	g := goalWith(t, `{"id":"6f1d8a4e-7a32-4d8e-9b43-3f3a5f1c2b10","achievedByDate":"2025-10-15T00:00:00Z"}`)
	g.SetAchievedByDate(nil)
	if _, ok := g.Field("achievedByDate"); ok {
		t.Fatalf("achievedByDate should be removed")
	}
}

func TestAddMonths(t *testing.T) {
	tests := []struct {
		start string
		n     int
		want  string
	}{
		{"2025-01-15", 9, "2025-10-15"},
		{"2025-01-31", 1, "2025-02-28"},
		{"2024-01-31", 1, "2024-02-29"},
		{"2025-08-31", 6, "2026-02-28"},
		{"2025-11-30", 3, "2026-02-28"},
		{"2025-03-31", 12, "2026-03-31"},
	}
	for _, tc := range tests {
		start, _ := time.Parse(time.DateOnly, tc.start)
		got := AddMonths(start, tc.n).Format(time.DateOnly)
		if got != tc.want {
			t.Fatalf("AddMonths(%s, %d): want=%s got=%s", tc.start, tc.n, tc.want, got)
		}
	}
}

func TestAchievedByDate(t *testing.T) {
	start := time.Date(2025, 1, 15, 9, 30, 0, 0, time.UTC)
	if got := AchievedByDate(start, nil); got != nil {
		t.Fatalf("nil timeline: want=nil got=%v", got)
	}
	nine := 9
	got := AchievedByDate(start, &nine)
	want := time.Date(2025, 10, 15, 9, 30, 0, 0, time.UTC)
	if got == nil || !got.Equal(want) {
		t.Fatalf("want=%v got=%v", want, got)
	}
}

func TestNewGoalPayload(t *testing.T) {
	person := uuid.MustParse("0b8c1f0c-3d7c-4b43-a6b5-0d1e0c8f9a01")
	local := uuid.MustParse("a3f2f7e4-7c55-4c1b-8d0f-1e2a3b4c5d6e")
	start := time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)
	six := 6

	p := NewGoalPayload(person, local, "Improve Python", start, &six)
	if p.GoalID != "portal-goal-"+local.String() {
		t.Fatalf("goalId: got=%s", p.GoalID)
	}
	if p.Type != "SELF" || p.Name != "Improve Python" || p.PersonID != person {
		t.Fatalf("payload: got=%+v", p)
	}
	if p.StartDate != "2025-01-15T00:00:00Z" {
		t.Fatalf("startDate: got=%s", p.StartDate)
	}
	if p.AchievedByDate == nil || *p.AchievedByDate != "2025-07-15T00:00:00Z" {
		t.Fatalf("achievedByDate: got=%v", p.AchievedByDate)
	}

	raw, _ := json.Marshal(NewGoalPayload(person, local, "x", start, nil))
	if strings.Contains(string(raw), "achievedByDate") {
		t.Fatalf("nil timeline should omit achievedByDate: %s", raw)
	}
}
