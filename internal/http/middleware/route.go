package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/adlnet/edlm-portal-backend/internal/domain/errs"
)

// parentFilters are the list filters accepted on nested resources.
var parentFilters = []string{"learning_plan", "plan_competency", "plan_goal"}

// syncedResources are the routes whose writes run an ELRR saga.
var syncedResources = map[string]bool{
	"learning-plans":             true,
	"learning-plan-competencies": true,
	"learning-plan-goals":        true,
	"learning-plan-goal-ksas":    true,
	"learning-plan-goal-courses": true,
}

// resourceOf maps "/api/learning-plan-goals/:id" to "learning-plan-goals".
// Public routes keep their path without the leading slash.
func resourceOf(route string) string {
	if route == "" {
		return "unmatched"
	}
	route = strings.TrimPrefix(strings.TrimPrefix(route, "/api"), "/")
	if i := strings.IndexByte(route, '/'); i >= 0 {
		route = route[:i]
	}
	if route == "" {
		return "root"
	}
	return route
}

func isWrite(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

// errorCode reports the service error code behind a failed request, falling
// back to the HTTP status when no coded error was attached.
func errorCode(c *gin.Context) string {
	if last := c.Errors.Last(); last != nil {
		return string(errs.CodeOf(last.Err))
	}
	switch status := c.Writer.Status(); {
	case status == http.StatusUnauthorized:
		return "unauthorized"
	case status == http.StatusNotFound:
		return string(errs.CodeNotFound)
	case status >= http.StatusInternalServerError:
		return string(errs.CodeInternal)
	default:
		return string(errs.CodeValidation)
	}
}
