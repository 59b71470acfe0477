package catalog

import (
	"strings"
	"testing"

	types "github.com/adlnet/edlm-portal-backend/internal/domain"
	"github.com/adlnet/edlm-portal-backend/internal/data/repos/testutil"
)

func TestCreateIfAbsentIsIdempotent(t *testing.T) {
	db := testutil.DB(t)
	repo := NewCatalogRepo(db, testutil.Logger(t))
	dbc := testutil.Ctx()

	first, err := repo.CreateIfAbsent(dbc, types.CatalogKsa, "fw/ksa-1", "Listen Actively")
	if err != nil {
		t.Fatalf("CreateIfAbsent: %v", err)
	}
	second, err := repo.CreateIfAbsent(dbc, types.CatalogKsa, "fw/ksa-1", "Different Name")
	if err != nil {
		t.Fatalf("CreateIfAbsent again: %v", err)
	}
	if second.Name != first.Name || second.Reference != first.Reference {
		t.Fatalf("second create should reuse row: first=%+v second=%+v", first, second)
	}

	var n int64
	db.Model(&types.Ksa{}).Where("reference = ?", "fw/ksa-1").Count(&n)
	if n != 1 {
		t.Fatalf("rows: want=1 got=%d", n)
	}
}

func TestKindsAreSeparateTables(t *testing.T) {
	db := testutil.DB(t)
	repo := NewCatalogRepo(db, testutil.Logger(t))
	dbc := testutil.Ctx()

	if _, err := repo.CreateIfAbsent(dbc, types.CatalogCourse, "shared-ref", "A Course"); err != nil {
		t.Fatalf("CreateIfAbsent: %v", err)
	}
	got, err := repo.GetByReference(dbc, types.CatalogKsa, "shared-ref")
	if err != nil {
		t.Fatalf("GetByReference: %v", err)
	}
	if got != nil {
		t.Fatalf("ksa lookup should miss: %+v", got)
	}
	got, _ = repo.GetByReference(dbc, types.CatalogCourse, "shared-ref")
	if got == nil || got.Kind != types.CatalogCourse || got.Name != "A Course" {
		t.Fatalf("course lookup: got=%+v", got)
	}
}

func TestCreateIfAbsentTruncatesName(t *testing.T) {
	repo := NewCatalogRepo(testutil.DB(t), testutil.Logger(t))
	got, err := repo.CreateIfAbsent(testutil.Ctx(), types.CatalogCourse, "long", strings.Repeat("x", 300))
	if err != nil {
		t.Fatalf("CreateIfAbsent: %v", err)
	}
	if len(got.Name) != 255 {
		t.Fatalf("name length: want=255 got=%d", len(got.Name))
	}
}

func TestList(t *testing.T) {
	db := testutil.DB(t)
	repo := NewCatalogRepo(db, testutil.Logger(t))
	dbc := testutil.Ctx()
	for ref, name := range map[string]string{"a": "Python Basics", "b": "Advanced Python", "c": "Go"} {
		if _, err := repo.CreateIfAbsent(dbc, types.CatalogCourse, ref, name); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
	got, err := repo.List(dbc, types.CatalogCourse, "python", 10, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 2 || got[0].Name != "Advanced Python" {
		t.Fatalf("List: got=%+v", got)
	}
}
