package txn

import (
	"context"

	"gorm.io/gorm"

	"github.com/adlnet/edlm-portal-backend/internal/domain/errs"
	"github.com/adlnet/edlm-portal-backend/internal/pkg/ctxutil"
	"github.com/adlnet/edlm-portal-backend/internal/pkg/dbctx"
)

// Runner opens a transaction and hands it to fn. Returning an error from fn
// rolls everything back.
type Runner interface {
	InTx(ctx context.Context, fn func(dbc dbctx.Context) error) error
}

type gormRunner struct {
	db *gorm.DB
}

func NewGormRunner(db *gorm.DB) Runner {
	return &gormRunner{db: db}
}

func (r *gormRunner) InTx(ctx context.Context, fn func(dbc dbctx.Context) error) error {
	if fn == nil {
		return nil
	}
	if r == nil || r.db == nil {
		return errs.New(errs.CodeInternal, "txn.InTx", "transaction runner has nil db", nil)
	}
	ctx = ctxutil.Default(ctx)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(dbctx.Context{Ctx: ctx, Tx: tx})
	})
}

// ForUpdate reports whether row locks are meaningful on this connection.
// SQLite serializes writers on its own and rejects FOR UPDATE.
func ForUpdate(db *gorm.DB) bool {
	return db != nil && db.Dialector != nil && db.Dialector.Name() == "postgres"
}
