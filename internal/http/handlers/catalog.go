package handlers

import (
	"github.com/gin-gonic/gin"

	types "github.com/adlnet/edlm-portal-backend/internal/domain"
	"github.com/adlnet/edlm-portal-backend/internal/http/response"
	"github.com/adlnet/edlm-portal-backend/internal/pkg/logger"
	"github.com/adlnet/edlm-portal-backend/internal/services"
)

const (
	defaultCatalogLimit = 50
	maxCatalogLimit     = 200
)

// CatalogHandler lists the locally cached ECCR and XDS entries.
type CatalogHandler struct {
	log      *logger.Logger
	resolver services.CatalogResolver
}

func NewCatalogHandler(log *logger.Logger, resolver services.CatalogResolver) *CatalogHandler {
	return &CatalogHandler{log: log.With("handler", "CatalogHandler"), resolver: resolver}
}

// List returns a handler for GET /api/competencies, /api/ksas or /api/courses.
// Query: ?search=&limit=&offset=
func (h *CatalogHandler) List(kind types.CatalogKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, ok := queryInt(c, "limit", defaultCatalogLimit)
		if !ok {
			return
		}
		offset, ok := queryInt(c, "offset", 0)
		if !ok {
			return
		}
		switch {
		case limit == 0:
			limit = defaultCatalogLimit
		case limit > maxCatalogLimit:
			limit = maxCatalogLimit
		}
		items, err := h.resolver.List(c.Request.Context(), kind, c.Query("search"), limit, offset)
		if err != nil {
			respondErr(c, h.log, "list catalog", err)
			return
		}
		if items == nil {
			items = []types.CatalogItem{}
		}
		response.RespondOK(c, items)
	}
}
