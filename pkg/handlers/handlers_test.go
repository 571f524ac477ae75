package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/arnavshah/autoscheduler-api-go/pkg/auth"
	"github.com/arnavshah/autoscheduler-api-go/pkg/database"
	"github.com/arnavshah/autoscheduler-api-go/pkg/models"
	"github.com/arnavshah/autoscheduler-api-go/pkg/planner"
	"github.com/arnavshah/autoscheduler-api-go/pkg/scheduler"
	"github.com/arnavshah/autoscheduler-api-go/pkg/store"
)

var monday = time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)

type testServer struct {
	router *gin.Engine
	db     *gorm.DB
	auth   *auth.Service
	key    string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	return newLoggedTestServer(t, zerolog.Nop())
}

func newLoggedTestServer(t *testing.T, log zerolog.Logger) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, database.Migrate(db))

	clock := func() time.Time { return monday }
	sched := scheduler.NewScheduler(scheduler.Options{})
	authSvc := auth.New("jwt-test", "master-test")
	pl := &planner.Planner{Store: store.New(db), Scheduler: sched, Log: zerolog.Nop(), Now: clock}

	h := New(db, authSvc, sched, pl, log)
	h.Now = clock
	return &testServer{router: NewRouter(h), db: db, auth: authSvc, key: authSvc.GenerateKey("team-a")}
}

func (s *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.key)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func sampleInput() gin.H {
	return gin.H{
		"now": monday,
		"items": []gin.H{
			{"id": "a", "kind": "delegable", "priority": "high", "estimated_hours": 6},
			{"id": "b", "kind": "delegable", "priority": "high", "estimated_hours": 6},
			{"id": "mine", "kind": "personal", "priority": "urgent", "estimated_hours": 2},
		},
		"people": []gin.H{{"id": "p1"}, {"id": "p2"}},
	}
}

func TestRoot(t *testing.T) {
	s := newTestServer(t)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, Version, decode[map[string]string](t, w)["version"])
}

func TestAPI_RequiresValidKey(t *testing.T) {
	s := newTestServer(t)

	s.key = ""
	assert.Equal(t, http.StatusUnauthorized, s.do(t, http.MethodPost, "/api/schedule", sampleInput()).Code)

	s.key = auth.New("jwt-test", "someone-else").GenerateKey("team-a")
	assert.Equal(t, http.StatusUnauthorized, s.do(t, http.MethodPost, "/api/schedule", sampleInput()).Code)
}

func TestAPIKeyMiddleware_LogsLastUsedFailure(t *testing.T) {
	var buf bytes.Buffer
	s := newLoggedTestServer(t, zerolog.New(&buf))
	require.NoError(t, s.db.Callback().Update().Before("gorm:update").Register("test:fail_update", func(tx *gorm.DB) {
		_ = tx.AddError(errors.New("disk full"))
	}))

	w := s.do(t, http.MethodPost, "/api/schedule", sampleInput())
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, buf.String(), `"level":"warn"`)
	assert.Contains(t, buf.String(), "last_used not updated")
	assert.Contains(t, buf.String(), "disk full")
}

func TestScheduleJSON(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/api/schedule", sampleInput())
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	resp := decode[models.ScheduleResponse](t, w)
	require.Len(t, resp.Scheduled, 2)
	assert.Equal(t, "p1", resp.Scheduled[0].AssignedTo)
	assert.Equal(t, "p2", resp.Scheduled[1].AssignedTo)
	assert.True(t, monday.AddDate(0, 0, 1).Equal(resp.Scheduled[0].SuggestedStart))
	assert.Empty(t, resp.Conflicts)
	assert.Equal(t, 100.0, resp.FairnessScore)
	assert.False(t, resp.Applied)

	w = s.do(t, http.MethodGet, "/api/usage", nil)
	require.Equal(t, http.StatusOK, w.Code)
	usage := decode[struct {
		Totals struct {
			Requests int `json:"requests"`
			Items    int `json:"items"`
			People   int `json:"people"`
		} `json:"totals"`
	}](t, w)
	assert.Equal(t, 1, usage.Totals.Requests)
	assert.Equal(t, 3, usage.Totals.Items)
	assert.Equal(t, 2, usage.Totals.People)
}

func TestScheduleJSON_InvalidInput(t *testing.T) {
	s := newTestServer(t)
	input := sampleInput()
	input["items"] = []gin.H{{"id": "a", "kind": "delegable", "priority": "asap", "estimated_hours": 6}}

	w := s.do(t, http.MethodPost, "/api/schedule", input)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "unknown priority")
}

func TestScheduleJSON_EstimateBeyondSearchWindow(t *testing.T) {
	s := newTestServer(t)
	input := sampleInput()
	input["items"] = []gin.H{{"id": "huge", "kind": "delegable", "priority": "high", "estimated_hours": 1e10}}

	done := make(chan *httptest.ResponseRecorder, 1)
	go func() { done <- s.do(t, http.MethodPost, "/api/schedule", input) }()

	var w *httptest.ResponseRecorder
	select {
	case w = <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("schedule request did not return")
	}
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	resp := decode[models.ScheduleResponse](t, w)
	assert.Empty(t, resp.Scheduled)
	require.Len(t, resp.Conflicts, 1)
	assert.Equal(t, "huge", resp.Conflicts[0].ItemID)
	assert.Equal(t, "No available team member found", resp.Conflicts[0].Issue)
}

func TestScheduleCSV(t *testing.T) {
	s := newTestServer(t)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("items_file", "items.csv")
	require.NoError(t, err)
	_, _ = fw.Write([]byte("id,title,priority,estimated_hours,due_date\n" +
		"a,Write docs,urgent,12,\n" +
		"b,Fix bug,low,6,2026-10-20\n"))
	fw, err = mw.CreateFormFile("people_file", "people.csv")
	require.NoError(t, err)
	_, _ = fw.Write([]byte("id,name\np1,Alex\n"))
	require.NoError(t, mw.WriteField("now", "2026-10-19T09:00:00Z"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/schedule/csv", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+s.key)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	resp := decode[struct {
		CSV       string            `json:"csv"`
		Conflicts []models.Conflict `json:"conflicts"`
	}](t, w)
	lines := strings.Split(strings.TrimSpace(resp.CSV), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "item_id,assigned_to,suggested_start,suggested_due,reason", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "a,p1,2026-10-20T09:00:00Z,2026-10-22T09:00:00Z,"))
	require.Len(t, resp.Conflicts, 1)
	assert.Equal(t, "b", resp.Conflicts[0].ItemID)
}

func TestScheduleCSV_MissingFiles(t *testing.T) {
	s := newTestServer(t)
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/schedule/csv", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+s.key)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestValidateInput(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/api/validate", sampleInput())
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[struct {
		Valid bool `json:"valid"`
		Stats struct {
			Items       scheduler.InputStats `json:"items"`
			PeopleCount int                  `json:"people_count"`
		} `json:"stats"`
	}](t, w)
	assert.True(t, resp.Valid)
	assert.Equal(t, scheduler.InputStats{Total: 3, Eligible: 2, Ineligible: 1}, resp.Stats.Items)
	assert.Equal(t, 2, resp.Stats.PeopleCount)

	input := sampleInput()
	input["people"] = []gin.H{{"id": "p1"}, {"id": "p1"}}
	w = s.do(t, http.MethodPost, "/api/validate", input)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"valid":false`)
	assert.Contains(t, w.Body.String(), "duplicate id")
}

func TestProjects_PreviewAndApply(t *testing.T) {
	s := newTestServer(t)
	input := sampleInput()

	w := s.do(t, http.MethodGet, "/api/projects/alpha/schedule", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(t, http.MethodPut, "/api/projects/alpha/items", gin.H{"items": input["items"]})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	w = s.do(t, http.MethodPut, "/api/projects/alpha/people", gin.H{"people": input["people"]})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.do(t, http.MethodGet, "/api/projects/alpha/schedule", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	preview := decode[models.ScheduleResponse](t, w)
	assert.Len(t, preview.Scheduled, 2)
	assert.False(t, preview.Applied)
	assert.Empty(t, preview.RunID)

	w = s.do(t, http.MethodPost, "/api/projects/alpha/schedule/apply", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	applied := decode[models.ScheduleResponse](t, w)
	assert.True(t, applied.Applied)
	assert.NotEmpty(t, applied.RunID)
	assert.Equal(t, preview.Scheduled, applied.Scheduled)

	w = s.do(t, http.MethodGet, "/api/projects/alpha/schedule", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode[models.ScheduleResponse](t, w).Scheduled)

	w = s.do(t, http.MethodGet, "/api/projects/alpha/runs", nil)
	require.Equal(t, http.StatusOK, w.Code)
	runs := decode[struct {
		Runs []database.ScheduleRun `json:"runs"`
	}](t, w)
	require.Len(t, runs.Runs, 1)
	assert.Equal(t, applied.RunID, runs.Runs[0].ID)
}

func TestProjects_RejectsInvalidItems(t *testing.T) {
	s := newTestServer(t)
	w := s.do(t, http.MethodPut, "/api/projects/alpha/items", gin.H{
		"items": []gin.H{{"id": "a", "kind": "robot", "priority": "low"}},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRateLimit(t *testing.T) {
	s := newTestServer(t)
	require.NoError(t, s.db.Create(&database.APIKey{Key: s.key, Name: "team-a", RateLimit: 24}).Error)

	assert.Equal(t, http.StatusOK, s.do(t, http.MethodPost, "/api/validate", sampleInput()).Code)
	assert.Equal(t, http.StatusTooManyRequests, s.do(t, http.MethodPost, "/api/validate", sampleInput()).Code)
}

func TestAdmin_LoginAndKeys(t *testing.T) {
	s := newTestServer(t)
	_, err := auth.EnsureAdminExists(s.db, "root", "pw")
	require.NoError(t, err)

	s.key = ""
	w := s.do(t, http.MethodPost, "/admin/login", gin.H{"username": "root", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(t, http.MethodPost, "/admin/login", gin.H{"username": "root", "password": "pw"})
	require.Equal(t, http.StatusOK, w.Code)
	s.key = decode[map[string]string](t, w)["access_token"]

	w = s.do(t, http.MethodPost, "/admin/keys", gin.H{"name": "team-b"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	created := decode[struct {
		ID  uint   `json:"id"`
		Key string `json:"key"`
	}](t, w)
	assert.Equal(t, s.auth.GenerateKey("team-b"), created.Key)

	w = s.do(t, http.MethodGet, "/admin/keys", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), created.Key)
	assert.Contains(t, w.Body.String(), "team-b")

	w = s.do(t, http.MethodPut, "/admin/keys/abc", gin.H{"rate_limit": 5})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodDelete, "/admin/keys/1", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}
