package app

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/adlnet/edlm-portal-backend/internal/data/repos/testutil"
	"github.com/adlnet/edlm-portal-backend/internal/platform/extapi"
)

// upstream fakes ECCR, XDS and ELRR on one server.
type upstream struct {
	mu        sync.Mutex
	goals     map[string]map[string]any
	failGoals bool
	persons   int
}

func newUpstream(t *testing.T) (*upstream, *httptest.Server) {
	t.Helper()
	u := &upstream{goals: map[string]map[string]any{}}
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/data/{ref...}", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"name": map[string]any{"@value": "ECCR " + r.PathValue("ref")}})
	})
	mux.HandleFunc("GET /api/experiences/{id}", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"p2881-core": map[string]any{"Title": "Course " + r.PathValue("id")}})
	})

	mux.HandleFunc("GET /api/person", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, []any{})
	})
	mux.HandleFunc("POST /api/person", func(w http.ResponseWriter, r *http.Request) {
		u.mu.Lock()
		u.persons++
		u.mu.Unlock()
		writeJSON(w, http.StatusCreated, map[string]any{"id": uuid.NewString(), "name": "Ada Lovelace"})
	})

	mux.HandleFunc("POST /api/goal", func(w http.ResponseWriter, r *http.Request) {
		u.mu.Lock()
		defer u.mu.Unlock()
		if u.failGoals {
			writeJSON(w, http.StatusInternalServerError, map[string]any{"message": "boom"})
			return
		}
		doc := map[string]any{}
		_ = json.NewDecoder(r.Body).Decode(&doc)
		id := uuid.NewString()
		doc["id"] = id
		u.goals[id] = doc
		writeJSON(w, http.StatusCreated, doc)
	})
	mux.HandleFunc("GET /api/goal/{id}", func(w http.ResponseWriter, r *http.Request) {
		u.mu.Lock()
		defer u.mu.Unlock()
		doc, ok := u.goals[r.PathValue("id")]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, doc)
	})
	mux.HandleFunc("PUT /api/goal/{id}", func(w http.ResponseWriter, r *http.Request) {
		u.mu.Lock()
		defer u.mu.Unlock()
		id := r.PathValue("id")
		if _, ok := u.goals[id]; !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		doc := map[string]any{}
		_ = json.NewDecoder(r.Body).Decode(&doc)
		u.goals[id] = doc
		writeJSON(w, http.StatusOK, doc)
	})
	mux.HandleFunc("DELETE /api/goal/{id}", func(w http.ResponseWriter, r *http.Request) {
		u.mu.Lock()
		defer u.mu.Unlock()
		delete(u.goals, r.PathValue("id"))
		w.WriteHeader(http.StatusNoContent)
	})
	for _, path := range []string{"competency", "learningresource"} {
		mux.HandleFunc("GET /api/"+path, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, []any{})
		})
		mux.HandleFunc("POST /api/"+path, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusCreated, map[string]any{"id": uuid.NewString()})
		})
	}

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return u, srv
}

func (u *upstream) setFailGoals(v bool) {
	u.mu.Lock()
	u.failGoals = v
	u.mu.Unlock()
}

func (u *upstream) goal(id string) (map[string]any, bool) {
	u.mu.Lock()
	defer u.mu.Unlock()
	doc, ok := u.goals[id]
	return doc, ok
}

func (u *upstream) goalCount() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return len(u.goals)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func newTestApp(t *testing.T) (*App, *upstream) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	up, srv := newUpstream(t)
	log := testutil.Logger(t)

	ext := extapi.Config{BaseURL: srv.URL, Token: "tok", Timeout: 5 * time.Second}
	cfg := Config{
		Port:         "0",
		JWTSecretKey: "test-secret",
		External:     ExternalServices{ECCR: ext, XDS: ext, ELRR: ext},
	}
	clients, err := wireClients(log, cfg, srv.Client())
	if err != nil {
		t.Fatalf("wireClients: %v", err)
	}
	return build(log, testutil.DB(t), cfg, clients, nil), up
}

func issue(t *testing.T, a *App, email string) string {
	t.Helper()
	tok, err := a.Services.Auth.IssueToken(uuid.New(), email, "Ada", "Lovelace", time.Hour)
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}
	return tok
}

func call(t *testing.T, a *App, token, method, path string, body any) (int, map[string]any) {
	t.Helper()
	var rd io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		rd = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.Handler().ServeHTTP(w, req)

	out := map[string]any{}
	if raw := bytes.TrimSpace(w.Body.Bytes()); len(raw) > 0 && raw[0] == '{' {
		if err := json.Unmarshal(raw, &out); err != nil {
			t.Fatalf("decode %s %s: %v (%s)", method, path, err, raw)
		}
	}
	return w.Code, out
}

func callList(t *testing.T, a *App, token, path string) []any {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	a.Handler().ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("GET %s: want=200 got=%d (%s)", path, w.Code, w.Body.String())
	}
	var out []any
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	return out
}

func mustCreate(t *testing.T, a *App, token, path string, body any) map[string]any {
	t.Helper()
	status, out := call(t, a, token, http.MethodPost, path, body)
	if status != http.StatusCreated {
		t.Fatalf("POST %s: want=201 got=%d (%v)", path, status, out)
	}
	return out
}

// seedGoal walks plan -> competency -> goal through the API.
func seedGoal(t *testing.T, a *App, token string) (planID, compID string, goal map[string]any) {
	t.Helper()
	plan := mustCreate(t, a, token, "/api/learning-plans", map[string]any{
		"name": "Plan", "timeframe": "Short-term (1-2 years)",
	})
	planID = plan["id"].(string)
	comp := mustCreate(t, a, token, "/api/learning-plan-competencies", map[string]any{
		"learning_plan": planID, "competency_external_reference": "comp-1", "priority": "High",
	})
	compID = comp["id"].(string)
	goal = mustCreate(t, a, token, "/api/learning-plan-goals", map[string]any{
		"plan_competency": compID, "goal_name": "Improve Python", "timeline": 6,
	})
	return planID, compID, goal
}

func TestHealthIsPublic(t *testing.T) {
	a, _ := newTestApp(t)
	status, _ := call(t, a, "", http.MethodGet, "/healthcheck", nil)
	if status != http.StatusOK {
		t.Fatalf("healthcheck: want=200 got=%d", status)
	}
}

func TestAPIRequiresToken(t *testing.T) {
	a, _ := newTestApp(t)
	for _, path := range []string{"/api/me", "/api/learning-plans", "/api/learning-plan-goals"} {
		status, body := call(t, a, "", http.MethodGet, path, nil)
		if status != http.StatusUnauthorized {
			t.Fatalf("%s: want=401 got=%d", path, status)
		}
		if _, ok := body["error"]; !ok {
			t.Fatalf("%s: want error envelope got=%v", path, body)
		}
	}
	status, _ := call(t, a, "garbage", http.MethodGet, "/api/me", nil)
	if status != http.StatusUnauthorized {
		t.Fatalf("bad token: want=401 got=%d", status)
	}
}

func TestGoalLifecycleSyncsELRR(t *testing.T) {
	a, up := newTestApp(t)
	tok := issue(t, a, "ada@example.mil")

	planID, _, goal := seedGoal(t, a, tok)
	remoteID, _ := goal["elrr_goal_id"].(string)
	if remoteID == "" {
		t.Fatalf("elrr_goal_id: want set got=%v", goal["elrr_goal_id"])
	}
	doc, ok := up.goal(remoteID)
	if !ok {
		t.Fatalf("remote goal %s not created", remoteID)
	}
	if doc["name"] != "Improve Python" {
		t.Fatalf("remote name: want=%q got=%v", "Improve Python", doc["name"])
	}
	goalID := goal["id"].(string)

	ksa := mustCreate(t, a, tok, "/api/learning-plan-goal-ksas", map[string]any{
		"plan_goal": goalID, "ksa_external_reference": "ksa-1",
		"current_proficiency": "Basic", "target_proficiency": "Advanced",
	})
	if ksa["ksa_name"] != "ECCR ksa-1" {
		t.Fatalf("ksa_name: want=%q got=%v", "ECCR ksa-1", ksa["ksa_name"])
	}
	doc, _ = up.goal(remoteID)
	if ids, _ := doc["competencyIds"].([]any); len(ids) != 1 {
		t.Fatalf("competencyIds: want 1 entry got=%v", doc["competencyIds"])
	}

	status, updated := call(t, a, tok, http.MethodPatch, "/api/learning-plan-goals/"+goalID, map[string]any{"goal_name": "Master Python"})
	if status != http.StatusOK {
		t.Fatalf("patch: want=200 got=%d (%v)", status, updated)
	}
	doc, _ = up.goal(remoteID)
	if doc["name"] != "Master Python" {
		t.Fatalf("remote name after patch: want=%q got=%v", "Master Python", doc["name"])
	}

	status, plan := call(t, a, tok, http.MethodGet, "/api/learning-plans/"+planID, nil)
	if status != http.StatusOK {
		t.Fatalf("get plan: want=200 got=%d", status)
	}
	if plan["learner"] != "ada@example.mil" {
		t.Fatalf("learner: want=%q got=%v", "ada@example.mil", plan["learner"])
	}

	status, _ = call(t, a, tok, http.MethodDelete, "/api/learning-plan-goals/"+goalID, nil)
	if status != http.StatusNoContent {
		t.Fatalf("delete: want=204 got=%d", status)
	}
	if _, ok := up.goal(remoteID); ok {
		t.Fatalf("remote goal %s should be gone", remoteID)
	}
}

func TestGoalCreateRollsBackWhenELRRFails(t *testing.T) {
	a, up := newTestApp(t)
	tok := issue(t, a, "ada@example.mil")
	_, compID, _ := seedGoal(t, a, tok)

	up.setFailGoals(true)
	status, body := call(t, a, tok, http.MethodPost, "/api/learning-plan-goals", map[string]any{
		"plan_competency": compID, "goal_name": "Learn Go", "timeline": 3,
	})
	if status != http.StatusServiceUnavailable {
		t.Fatalf("want=503 got=%d (%v)", status, body)
	}
	errBody, _ := body["error"].(map[string]any)
	if msg, _ := errBody["message"].(string); !strings.Contains(msg, "ELRR") {
		t.Fatalf("message: want ELRR sync failure got=%q", msg)
	}

	goals := callList(t, a, tok, "/api/learning-plan-goals?plan_competency="+compID)
	if len(goals) != 1 {
		t.Fatalf("local goals: want=1 got=%d", len(goals))
	}
	if up.goalCount() != 1 {
		t.Fatalf("remote goals: want=1 got=%d", up.goalCount())
	}
}

func TestForeignRowsAreHidden(t *testing.T) {
	a, _ := newTestApp(t)
	owner := issue(t, a, "ada@example.mil")
	other := issue(t, a, "grace@example.mil")
	planID, compID, goal := seedGoal(t, a, owner)

	for _, path := range []string{
		"/api/learning-plans/" + planID,
		"/api/learning-plan-competencies/" + compID,
		"/api/learning-plan-goals/" + goal["id"].(string),
	} {
		status, _ := call(t, a, other, http.MethodGet, path, nil)
		if status != http.StatusNotFound {
			t.Fatalf("%s: want=404 got=%d", path, status)
		}
	}
	if goals := callList(t, a, other, "/api/learning-plan-goals"); len(goals) != 0 {
		t.Fatalf("foreign list: want empty got=%d", len(goals))
	}

	status, _ := call(t, a, other, http.MethodPost, "/api/learning-plan-goals", map[string]any{
		"plan_competency": compID, "goal_name": "Sneaky", "timeline": 1,
	})
	if status != http.StatusForbidden {
		t.Fatalf("create under foreign competency: want=403 got=%d", status)
	}
}
