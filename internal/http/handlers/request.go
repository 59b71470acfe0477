package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/adlnet/edlm-portal-backend/internal/domain/errs"
	"github.com/adlnet/edlm-portal-backend/internal/http/response"
	"github.com/adlnet/edlm-portal-backend/internal/pkg/logger"
	"github.com/adlnet/edlm-portal-backend/internal/services"
)

const maxBodyBytes = 1 << 20

// respondErr logs server side failures with their cause and writes the
// caller-safe envelope.
func respondErr(c *gin.Context, log *logger.Logger, op string, err error) {
	_ = c.Error(err)
	if status := response.StatusFor(errs.CodeOf(err)); status >= http.StatusInternalServerError {
		log.Error(op+" failed", "error", err)
	} else {
		log.Debug(op+" rejected", "error", err)
	}
	response.RespondServiceError(c, err)
}

func badRequest(c *gin.Context, msg string) {
	response.RespondMessage(c, http.StatusBadRequest, string(errs.CodeValidation), msg)
}

// pathID parses the :id segment. Malformed ids read as missing rows.
func pathID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondMessage(c, http.StatusNotFound, string(errs.CodeNotFound), "Not found.")
		return uuid.Nil, false
	}
	return id, true
}

// queryID reads an optional uuid filter such as ?plan_goal=<id>.
func queryID(c *gin.Context, name string) (*uuid.UUID, bool) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil, true
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		badRequest(c, fmt.Sprintf("%s: must be a valid UUID.", name))
		return nil, false
	}
	return &id, true
}

func queryInt(c *gin.Context, name string, def int) (int, bool) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		badRequest(c, fmt.Sprintf("%s: must be a non-negative integer.", name))
		return 0, false
	}
	return n, true
}

func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		badRequest(c, "invalid request body: "+err.Error())
		return false
	}
	return true
}

// patchBody keeps the raw value of every key the caller sent so handlers can
// tell an omitted field from an explicit null.
type patchBody map[string]json.RawMessage

func bindPatch(c *gin.Context) (patchBody, bool) {
	raw, err := io.ReadAll(io.LimitReader(c.Request.Body, maxBodyBytes))
	if err != nil {
		badRequest(c, "invalid request body")
		return nil, false
	}
	body := patchBody{}
	if len(bytes.TrimSpace(raw)) == 0 {
		return body, true
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		badRequest(c, "invalid request body: "+err.Error())
		return nil, false
	}
	return body, true
}

// patchField decodes key into dst when present. A JSON null leaves the zero
// value in place but still marks the field set.
func patchField[T any](b patchBody, key string, dst *services.Optional[T]) error {
	raw, ok := b[key]
	if !ok {
		return nil
	}
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return fmt.Errorf("%s: invalid value", key)
	}
	*dst = services.Some(v)
	return nil
}

func firstErr(list ...error) error {
	for _, err := range list {
		if err != nil {
			return err
		}
	}
	return nil
}
