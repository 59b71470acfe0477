package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestCORS(t *testing.T) {
	t.Parallel()
	gin.SetMode(gin.TestMode)

	cases := []struct {
		name    string
		origins []string
		origin  string
		allowed bool
	}{
		{name: "default dev origin", origin: "http://localhost:5173", allowed: true},
		{name: "configured origin", origins: []string{"https://portal.example.mil"}, origin: "https://portal.example.mil", allowed: true},
		{name: "dev origin not configured", origins: []string{"https://portal.example.mil"}, origin: "http://localhost:5173"},
		{name: "unknown origin", origin: "https://evil.example.com"},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			r := gin.New()
			r.Use(CORS(tc.origins))
			r.OPTIONS("/api/learning-plan-goals", func(c *gin.Context) {
				c.Status(http.StatusNoContent)
			})

			req := httptest.NewRequest(http.MethodOptions, "/api/learning-plan-goals", nil)
			req.Header.Set("Origin", tc.origin)
			req.Header.Set("Access-Control-Request-Method", http.MethodPatch)

			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)

			got := rec.Header().Get("Access-Control-Allow-Origin")
			if tc.allowed {
				if rec.Code != http.StatusNoContent {
					t.Fatalf("status: want=%d got=%d", http.StatusNoContent, rec.Code)
				}
				if got != tc.origin {
					t.Fatalf("allow-origin: want=%q got=%q", tc.origin, got)
				}
				return
			}
			if got != "" {
				t.Fatalf("allow-origin: want empty got=%q", got)
			}
		})
	}
}
