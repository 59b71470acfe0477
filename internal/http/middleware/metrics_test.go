package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/adlnet/edlm-portal-backend/internal/domain/errs"
	"github.com/adlnet/edlm-portal-backend/internal/observability"
	"github.com/adlnet/edlm-portal-backend/internal/pkg/logger"
)

func TestResourceOf(t *testing.T) {
	tests := []struct {
		route string
		want  string
	}{
		{"/api/learning-plan-goals/:id", "learning-plan-goals"},
		{"/api/learning-plan-goal-ksas", "learning-plan-goal-ksas"},
		{"/api/me", "me"},
		{"/healthcheck", "healthcheck"},
		{"", "unmatched"},
	}
	for _, tc := range tests {
		if got := resourceOf(tc.route); got != tc.want {
			t.Fatalf("resourceOf(%q): want=%q got=%q", tc.route, tc.want, got)
		}
	}
}

func TestMetricsCountsErrorsByResourceAndCode(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := observability.New()
	r := gin.New()
	r.Use(RequestLogger(logger.Nop()), Metrics(m))
	r.DELETE("/api/learning-plan-goals/:id", func(c *gin.Context) {
		_ = c.Error(errs.New(errs.CodeUpstream, "goal.delete", "Failed to sync with ELRR", nil))
		c.AbortWithStatus(http.StatusServiceUnavailable)
	})
	r.GET("/api/learning-plans", func(c *gin.Context) { c.Status(http.StatusOK) })

	for _, req := range []*http.Request{
		httptest.NewRequest(http.MethodDelete, "/api/learning-plan-goals/abc", nil),
		httptest.NewRequest(http.MethodDelete, "/api/learning-plan-goals/def", nil),
		httptest.NewRequest(http.MethodGet, "/api/learning-plans", nil),
		httptest.NewRequest(http.MethodGet, "/nowhere", nil),
	} {
		r.ServeHTTP(httptest.NewRecorder(), req)
	}

	if got := m.APIErrors("learning-plan-goals", "upstream"); got != 2 {
		t.Fatalf("upstream errors: want=2 got=%v", got)
	}
	if got := m.APIErrors("learning-plans", "upstream"); got != 0 {
		t.Fatalf("successful route counted as error: got=%v", got)
	}
	if got := m.APIErrors("unmatched", "not_found"); got != 1 {
		t.Fatalf("unmatched 404: want=1 got=%v", got)
	}
}
