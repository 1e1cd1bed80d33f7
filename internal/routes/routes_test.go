package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
	"gorm.io/gorm"

	"brigade_tracker/internal/config"
	"brigade_tracker/internal/events"
	"brigade_tracker/internal/middleware"
	"brigade_tracker/internal/models"
	"brigade_tracker/internal/notify"
	"brigade_tracker/internal/services"
	"brigade_tracker/internal/validation"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testServer struct {
	router http.Handler
	svc    *services.Services
	idp    *middleware.JWTProvider
	hub    *events.Hub
	db     *gorm.DB
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	require.NoError(t, validation.Register())

	db, err := config.OpenDB(&config.Config{
		DBDriver:   "sqlite",
		SQLitePath: filepath.Join(t.TempDir(), "api.db"),
	})
	require.NoError(t, err)
	require.NoError(t, config.Migrate(db))
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	hub := events.NewHub(64)
	t.Cleanup(hub.Close)

	svc := services.New(db, services.WithPublisher(hub), services.WithNotifier(notify.LogNotifier{}))
	idp := middleware.NewJWTProvider("test-secret")

	return &testServer{
		router: SetupRouter(Deps{DB: db, Services: svc, Identity: idp, Hub: hub, Version: "test"}),
		svc:    svc,
		idp:    idp,
		hub:    hub,
		db:     db,
	}
}

func (s *testServer) token(t *testing.T, role, email string) string {
	t.Helper()
	tok, err := s.idp.GenerateToken(middleware.Principal{ID: "user-" + role, Email: email, Role: role}, time.Hour)
	require.NoError(t, err)
	return tok
}

func (s *testServer) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *testServer) region(t *testing.T) models.Region {
	t.Helper()
	_, err := s.svc.Regions.Seed(context.Background())
	require.NoError(t, err)
	r, err := s.svc.Regions.GetByCode(context.Background(), "50")
	require.NoError(t, err)
	return *r
}

func TestHealthEndpoints(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "up", gjson.Get(w.Body.String(), "database").String())

	w = s.do(t, http.MethodGet, "/", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "test", gjson.Get(w.Body.String(), "version").String())
}

func TestAuthAndRoles(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/api/sites", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(t, http.MethodGet, "/api/sites", s.token(t, middleware.RoleFieldWorker, "w@example.com"), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, middleware.RoleFieldWorker, gjson.Get(w.Body.String(), "current_role").String())

	w = s.do(t, http.MethodGet, "/api/sites/not-a-uuid", s.token(t, middleware.RolePlatformAdmin, "a@example.com"), nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodPost, "/api/brigades", s.token(t, middleware.RolePlatformAdmin, "a@example.com"), gin.H{"name": "x"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	suspended, err := s.idp.GenerateToken(middleware.Principal{ID: "u", Role: middleware.RoleBrigadeAdmin, State: "suspended"}, time.Hour)
	require.NoError(t, err)
	w = s.do(t, http.MethodGet, "/api/brigades", suspended, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestSiteEndpoints(t *testing.T) {
	s := newTestServer(t)
	region := s.region(t)
	admin := s.token(t, middleware.RolePlatformAdmin, "admin@example.com")

	w := s.do(t, http.MethodPost, "/api/sites/generate", admin, gin.H{"count": 101})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodPost, "/api/sites/generate", admin, gin.H{"count": 2})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	body := w.Body.String()
	assert.EqualValues(t, 2, gjson.Get(body, "created").Int())
	assert.EqualValues(t, 5, gjson.Get(body, "sites.0.subplots.#").Int())
	first := gjson.Get(body, "sites.0.id").String()
	second := gjson.Get(body, "sites.1.id").String()

	w = s.do(t, http.MethodPut, "/api/sites/"+first+"/approve", admin, gin.H{"region_id": region.ID.String()})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "approved", gjson.Get(w.Body.String(), "site.state").String())
	assert.Equal(t, "user-platform-admin", gjson.Get(w.Body.String(), "site.approver_id").String())

	w = s.do(t, http.MethodPut, "/api/sites/"+first+"/approve", admin, gin.H{"region_id": region.ID.String()})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = s.do(t, http.MethodPut, "/api/sites/"+uuid.NewString()+"/approve", admin, gin.H{"region_id": region.ID.String()})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(t, http.MethodPut, "/api/sites/"+second+"/reject", admin, gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodPut, "/api/sites/"+second+"/reject", admin, gin.H{"reason": "out of bounds"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "rejected", gjson.Get(w.Body.String(), "site.state").String())
	assert.Equal(t, "out of bounds", gjson.Get(w.Body.String(), "site.rejection_reason").String())
	assert.Equal(t, "", gjson.Get(w.Body.String(), "site.region_id").String())

	w = s.do(t, http.MethodGet, "/api/sites/stats", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, gjson.Get(w.Body.String(), "stats.approved").Int())
	assert.EqualValues(t, 2, gjson.Get(w.Body.String(), "stats.total").Int())

	w = s.do(t, http.MethodGet, "/api/sites/state/bogus", admin, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	viewer := s.token(t, middleware.RoleFieldWorker, "w@example.com")
	w = s.do(t, http.MethodGet, "/api/sites/available", viewer, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, gjson.Get(w.Body.String(), "data.#").Int())

	w = s.do(t, http.MethodGet, "/api/sites/"+first+"/geojson", viewer, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 6, gjson.Get(w.Body.String(), "features.#").Int())

	w = s.do(t, http.MethodGet, "/api/subplots/site/"+first, viewer, nil)
	require.Equal(t, http.StatusOK, w.Code)
	subplot := gjson.Get(w.Body.String(), "data.0.id").String()

	w = s.do(t, http.MethodPut, "/api/subplots/"+subplot, admin, gin.H{"site_id": second})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodGet, "/api/sites/export.xlsx", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.HasPrefix(w.Header().Get("Content-Type"), "application/vnd.openxmlformats"))

	w = s.do(t, http.MethodDelete, "/api/sites/"+second, admin, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w = s.do(t, http.MethodGet, "/api/sites/"+second, viewer, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestBrigadeAndAssignmentEndpoints(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()
	region := s.region(t)
	manager := s.token(t, middleware.RoleBrigadeAdmin, "manager@example.com")

	gen, err := s.svc.Sites.Generate(ctx, 1)
	require.NoError(t, err)
	site, err := s.svc.Sites.Approve(ctx, gen.Created[0].ID, region.ID, "admin")
	require.NoError(t, err)

	w := s.do(t, http.MethodPost, "/api/brigades", manager, gin.H{"name": "Llanos", "site_id": site.ID.String()})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	brigadeID := gjson.Get(w.Body.String(), "brigade.id").String()
	assert.Equal(t, "formation", gjson.Get(w.Body.String(), "brigade.state").String())

	w = s.do(t, http.MethodPost, "/api/brigades", manager, gin.H{"name": "Again", "site_id": site.ID.String()})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = s.do(t, http.MethodPost, "/api/workers/invite", manager, gin.H{"email": "not-an-email"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = s.do(t, http.MethodPost, "/api/workers/invite", manager, gin.H{"email": "other@example.com"})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.False(t, gjson.Get(w.Body.String(), "invitation.token_hash").Exists())

	_, token, err := s.svc.Workers.InviteRegistration(ctx, "ana@example.com", "manager")
	require.NoError(t, err)
	registration := gin.H{
		"token":       token,
		"national_id": "12",
		"name":        "Ana",
		"email":       "ana@example.com",
		"phone":       "3001234567",
		"region_id":   region.ID.String(),
	}
	w = s.do(t, http.MethodPost, "/api/workers/register", "", registration)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	registration["national_id"] = "1020304050"
	w = s.do(t, http.MethodPost, "/api/workers/register", "", registration)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	workerID := gjson.Get(w.Body.String(), "worker.id").String()

	w = s.do(t, http.MethodPost, "/api/assignments/invite", manager, gin.H{"brigade_id": brigadeID, "worker_id": workerID})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	w = s.do(t, http.MethodPost, "/api/assignments/invite", manager, gin.H{"brigade_id": brigadeID, "worker_id": workerID})
	assert.Equal(t, http.StatusConflict, w.Code)

	respond := "/api/assignments/" + brigadeID + "/" + workerID + "/respond"
	intruder := s.token(t, middleware.RoleFieldWorker, "someone@example.com")
	w = s.do(t, http.MethodPut, respond, intruder, gin.H{"accepted": true})
	assert.Equal(t, http.StatusForbidden, w.Code)

	ana := s.token(t, middleware.RoleFieldWorker, "ana@example.com")
	w = s.do(t, http.MethodGet, "/api/assignments/pending/"+workerID, ana, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, gjson.Get(w.Body.String(), "data.#").Int())

	w = s.do(t, http.MethodPut, respond, ana, gin.H{"accepted": false})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodPut, respond, ana, gin.H{"accepted": true})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "accepted", gjson.Get(w.Body.String(), "assignment.state").String())

	w = s.do(t, http.MethodGet, "/api/brigades/"+brigadeID, ana, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, gjson.Get(w.Body.String(), "brigade.members.#").Int())
	assert.Equal(t, "accepted", gjson.Get(w.Body.String(), "brigade.members.0.state").String())
	assert.Equal(t, workerID, gjson.Get(w.Body.String(), "brigade.members.0.worker.id").String())

	w = s.do(t, http.MethodDelete, "/api/brigades/"+brigadeID, manager, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	w = s.do(t, http.MethodPut, "/api/brigades/"+brigadeID+"/state", manager, gin.H{"state": "cancelled"})
	require.Equal(t, http.StatusOK, w.Code)
	w = s.do(t, http.MethodDelete, "/api/brigades/"+brigadeID, manager, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodDelete, "/api/workers/"+workerID, manager, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	w = s.do(t, http.MethodPut, "/api/workers/"+workerID+"/suspend", manager, nil)
	require.Equal(t, http.StatusOK, w.Code)
	w = s.do(t, http.MethodDelete, "/api/workers/"+workerID, manager, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestBrigadeDateOnlyInput(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()
	region := s.region(t)
	manager := s.token(t, middleware.RoleBrigadeAdmin, "manager@example.com")

	gen, err := s.svc.Sites.Generate(ctx, 1)
	require.NoError(t, err)
	site, err := s.svc.Sites.Approve(ctx, gen.Created[0].ID, region.ID, "admin")
	require.NoError(t, err)

	w := s.do(t, http.MethodPost, "/api/brigades", manager, gin.H{"name": "Meta", "site_id": site.ID.String(), "start_date": "01/03/2024"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodPost, "/api/brigades", manager, gin.H{"name": "Meta", "site_id": site.ID.String(), "start_date": "2024-03-01"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.True(t, strings.HasPrefix(gjson.Get(w.Body.String(), "brigade.start_date").String(), "2024-03-01"))
	brigadeID := gjson.Get(w.Body.String(), "brigade.id").String()

	w = s.do(t, http.MethodPut, "/api/brigades/"+brigadeID, manager, gin.H{"end_date": "2024-02-15"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodPut, "/api/brigades/"+brigadeID, manager, gin.H{"end_date": "2024-03-20"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.True(t, strings.HasPrefix(gjson.Get(w.Body.String(), "brigade.end_date").String(), "2024-03-20"))
}

func TestEventsWebSocket(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/ws/events", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	tok := s.token(t, middleware.RolePlatformAdmin, "admin@example.com")
	w = s.do(t, http.MethodGet, "/ws/events?token="+tok+"&topics=nope", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	srv := httptest.NewServer(s.router)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/events?topics=sites&token=" + tok
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return s.hub.Subscribers(events.TopicSites) == 1 }, 2*time.Second, 10*time.Millisecond)

	res, err := s.svc.Sites.Generate(context.Background(), 1)
	require.NoError(t, err)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var ev events.Event
	require.NoError(t, conn.ReadJSON(&ev))
	assert.Equal(t, events.TopicSites, ev.Topic)
	assert.Equal(t, "generated", ev.Type)
	assert.Equal(t, res.Created[0].ID, ev.EntityID)
}
