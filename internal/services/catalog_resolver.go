package services

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"

	"github.com/adlnet/edlm-portal-backend/internal/data/dberr"
	"github.com/adlnet/edlm-portal-backend/internal/data/repos"
	types "github.com/adlnet/edlm-portal-backend/internal/domain"
	"github.com/adlnet/edlm-portal-backend/internal/domain/errs"
	"github.com/adlnet/edlm-portal-backend/internal/pkg/dbctx"
	"github.com/adlnet/edlm-portal-backend/internal/pkg/logger"
	"github.com/adlnet/edlm-portal-backend/internal/platform/eccr"
	"github.com/adlnet/edlm-portal-backend/internal/platform/extapi"
	"github.com/adlnet/edlm-portal-backend/internal/platform/xds"
)

// CatalogResolver maps an external reference to a cached catalog row,
// asking ECCR or XDS only when the reference has never been seen.
type CatalogResolver interface {
	ResolveOrCreate(ctx context.Context, kind types.CatalogKind, reference string) (*types.CatalogItem, error)
	List(ctx context.Context, kind types.CatalogKind, search string, limit, offset int) ([]types.CatalogItem, error)
}

type catalogResolver struct {
	db   *gorm.DB
	log  *logger.Logger
	repo repos.CatalogRepo
	eccr eccr.Client
	xds  xds.Client

	inflight singleflight.Group
}

func NewCatalogResolver(db *gorm.DB, baseLog *logger.Logger, repo repos.CatalogRepo, eccrClient eccr.Client, xdsClient xds.Client) CatalogResolver {
	return &catalogResolver{
		db:   db,
		log:  baseLog.With("service", "CatalogResolver"),
		repo: repo,
		eccr: eccrClient,
		xds:  xdsClient,
	}
}

func (s *catalogResolver) ResolveOrCreate(ctx context.Context, kind types.CatalogKind, reference string) (*types.CatalogItem, error) {
	const op = "catalog.resolve"
	if !kind.Valid() {
		return nil, errs.New(errs.CodeInvariant, op, fmt.Sprintf("unknown catalog kind %q", kind), nil)
	}
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return nil, errs.Validation(op, "external reference is required.")
	}
	if err := checkMaxLen(op, "reference", reference, 255); err != nil {
		return nil, err
	}
	dbc := dbctx.Context{Ctx: ctx}

	item, err := s.repo.GetByReference(dbc, kind, reference)
	if err != nil {
		return nil, dberr.Map(op, err)
	}
	if item != nil {
		return item, nil
	}

	// one upstream lookup per reference across concurrent requests; the shared
	// call outlives any single caller and is bounded by the client timeout
	shared := dbctx.Context{Ctx: context.WithoutCancel(ctx)}
	ch := s.inflight.DoChan(string(kind)+"|"+reference, func() (interface{}, error) {
		if again, err := s.repo.GetByReference(shared, kind, reference); err != nil || again != nil {
			return again, err
		}
		name, err := s.lookup(shared.Ctx, kind, reference)
		if err != nil {
			return nil, err
		}
		return s.repo.CreateIfAbsent(shared, kind, reference, name)
	})
	var v interface{}
	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, s.mapLookupError(op, kind, reference, res.Err)
		}
		v = res.Val
	case <-ctx.Done():
		return nil, errs.New(errs.CodeUpstream, op, "request cancelled", ctx.Err())
	}
	return v.(*types.CatalogItem), nil
}

func (s *catalogResolver) lookup(ctx context.Context, kind types.CatalogKind, reference string) (string, error) {
	if kind == types.CatalogCourse {
		return s.xds.CourseTitle(ctx, reference)
	}
	return s.eccr.ItemName(ctx, reference)
}

func (s *catalogResolver) mapLookupError(op string, kind types.CatalogKind, reference string, err error) error {
	msg := msgEccrValidation
	if kind == types.CatalogCourse {
		msg = msgXdsValidation
	}
	switch extapi.KindOf(err) {
	case extapi.KindNotFound:
		s.log.Warn("catalog reference not found upstream", "kind", kind, "reference", reference, "error", err)
		return errs.New(errs.CodeValidation, op, fmt.Sprintf("%s %q was not found in %s.", kind, reference, strings.ToUpper(kind.Service())), err)
	case extapi.KindMalformedResponse:
		s.log.Error("catalog lookup returned unusable data", "kind", kind, "reference", reference, "error", err)
		return errs.New(errs.CodeValidation, op, msg, err)
	case extapi.KindUpstreamUnavailable:
		s.log.Error("catalog lookup failed", "kind", kind, "reference", reference, "error", err)
		return errs.New(errs.CodeUpstream, op, msg, err)
	default:
		return dberr.Map(op, err)
	}
}

func (s *catalogResolver) List(ctx context.Context, kind types.CatalogKind, search string, limit, offset int) ([]types.CatalogItem, error) {
	if !kind.Valid() {
		return nil, errs.NotFound("catalog.list", "Not found.")
	}
	rows, err := s.repo.List(dbctx.Context{Ctx: ctx}, kind, search, limit, offset)
	if err != nil {
		return nil, dberr.Map("catalog.list", err)
	}
	return rows, nil
}
