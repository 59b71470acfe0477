package catalog

import (
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/adlnet/edlm-portal-backend/internal/domain"
	domaincatalog "github.com/adlnet/edlm-portal-backend/internal/domain/catalog"
	"github.com/adlnet/edlm-portal-backend/internal/pkg/dbctx"
	"github.com/adlnet/edlm-portal-backend/internal/pkg/logger"
)

type CatalogRepo interface {
	// GetByReference returns nil, nil when the reference is not cached.
	GetByReference(dbc dbctx.Context, kind types.CatalogKind, reference string) (*types.CatalogItem, error)
	// CreateIfAbsent inserts the row unless one with the same reference exists,
	// then returns whichever row is stored. Safe under concurrent callers.
	CreateIfAbsent(dbc dbctx.Context, kind types.CatalogKind, reference, name string) (*types.CatalogItem, error)
	List(dbc dbctx.Context, kind types.CatalogKind, search string, limit, offset int) ([]types.CatalogItem, error)
}

type catalogRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCatalogRepo(db *gorm.DB, baseLog *logger.Logger) CatalogRepo {
	return &catalogRepo{db: db, log: baseLog.With("repo", "CatalogRepo")}
}

type itemRow struct {
	Reference string
	Name      string
	CreatedAt time.Time
}

func tableFor(kind types.CatalogKind) (string, error) {
	switch kind {
	case types.CatalogCompetency:
		return types.Competency{}.TableName(), nil
	case types.CatalogKsa:
		return types.Ksa{}.TableName(), nil
	case types.CatalogCourse:
		return types.Course{}.TableName(), nil
	default:
		return "", fmt.Errorf("unknown catalog kind %q", kind)
	}
}

func newModel(kind types.CatalogKind, reference, name string) any {
	switch kind {
	case types.CatalogCompetency:
		return &domaincatalog.Competency{Reference: reference, Name: name}
	case types.CatalogKsa:
		return &domaincatalog.Ksa{Reference: reference, Name: name}
	default:
		return &domaincatalog.Course{Reference: reference, Name: name}
	}
}

func (r *catalogRepo) GetByReference(dbc dbctx.Context, kind types.CatalogKind, reference string) (*types.CatalogItem, error) {
	table, err := tableFor(kind)
	if err != nil {
		return nil, err
	}
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return nil, nil
	}
	var row itemRow
	err = dbc.DB(r.db).Table(table).
		Select("reference", "name", "created_at").
		Where("reference = ?", reference).
		Limit(1).
		Find(&row).Error
	if err != nil {
		return nil, err
	}
	if row.Reference == "" {
		return nil, nil
	}
	return &types.CatalogItem{Kind: kind, Reference: row.Reference, Name: row.Name, CreatedAt: row.CreatedAt}, nil
}

func (r *catalogRepo) CreateIfAbsent(dbc dbctx.Context, kind types.CatalogKind, reference, name string) (*types.CatalogItem, error) {
	if _, err := tableFor(kind); err != nil {
		return nil, err
	}
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return nil, fmt.Errorf("reference required")
	}
	model := newModel(kind, reference, domaincatalog.TruncateName(name))
	res := dbc.DB(r.db).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "reference"}}, DoNothing: true}).
		Create(model)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		r.log.Debug("catalog row already present", "kind", kind, "reference", reference)
	}
	item, err := r.GetByReference(dbc, kind, reference)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, fmt.Errorf("catalog %s %q vanished after insert", kind, reference)
	}
	return item, nil
}

func (r *catalogRepo) List(dbc dbctx.Context, kind types.CatalogKind, search string, limit, offset int) ([]types.CatalogItem, error) {
	table, err := tableFor(kind)
	if err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	q := dbc.DB(r.db).Table(table).Select("reference", "name", "created_at")
	if s := strings.TrimSpace(search); s != "" {
		q = q.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(s)+"%")
	}
	var rows []itemRow
	if err := q.Order("name ASC").Limit(limit).Offset(offset).Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]types.CatalogItem, 0, len(rows))
	for _, row := range rows {
		out = append(out, types.CatalogItem{Kind: kind, Reference: row.Reference, Name: row.Name, CreatedAt: row.CreatedAt})
	}
	return out, nil
}
