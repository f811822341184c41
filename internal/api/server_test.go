package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/Freeeeeet/lesson_slots/internal/app"
	"github.com/Freeeeeet/lesson_slots/internal/notify"
	"github.com/Freeeeeet/lesson_slots/internal/repository/sqlite"
	"github.com/Freeeeeet/lesson_slots/internal/service"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testSecret = "test-secret"

type apiEnv struct {
	server  *Server
	coachID uuid.UUID
	token   string
}

func newAPIEnv(t *testing.T, limiter Limiter) *apiEnv {
	t.Helper()

	db, err := sqlite.Open(filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, app.NewSQLiteMigrator(db, zap.NewNop()).Run(context.Background()))

	logger := zap.NewNop()
	slots := sqlite.NewSlotRepository(db)
	clients := sqlite.NewClientRepository(db)
	coaches := sqlite.NewCoachRepository(db)

	svc := Services{
		Booking:   service.NewBookingCoordinator(slots, service.NewEligibilityGate(clients, logger), logger),
		Publisher: service.NewSlotPublisher(slots, clients, coaches, notify.NewLogDispatcher(logger), "http://localhost:8080", time.UTC, logger),
		Clients:   service.NewClientService(clients, coaches, logger),
		Coaches:   service.NewCoachService(coaches, logger),
	}

	coachID := uuid.New()
	token, err := IssueCoachToken(testSecret, coachID, time.Hour)
	require.NoError(t, err)

	return &apiEnv{
		server:  NewServer(svc, testSecret, limiter, logger),
		coachID: coachID,
		token:   token,
	}
}

func (e *apiEnv) do(t *testing.T, method, path string, body any, auth bool) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if auth {
		req.Header.Set("Authorization", "Bearer "+e.token)
	}

	rec := httptest.NewRecorder()
	e.server.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func (e *apiEnv) setupCoach(t *testing.T) {
	t.Helper()
	rec := e.do(t, http.MethodPut, "/api/v1/coach/profile", map[string]any{
		"name": "Coach Anna", "email": "anna@example.com", "sport": "tennis",
	}, true)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func (e *apiEnv) requestLessons(t *testing.T, email, name string) string {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/api/v1/coaches/"+e.coachID.String()+"/requests",
		map[string]string{"email": email, "name": name}, false)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[map[string]string](t, rec)["id"]
}

func (e *apiEnv) approve(t *testing.T, clientID string) {
	t.Helper()
	rec := e.do(t, http.MethodPatch, "/api/v1/coach/clients/"+clientID, map[string]string{"status": "APPROVED"}, true)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func (e *apiEnv) openSlot(t *testing.T) string {
	t.Helper()
	start := time.Now().Add(48 * time.Hour).Truncate(time.Hour).UTC()
	rec := e.do(t, http.MethodPost, "/api/v1/coach/slots", map[string]any{
		"start_time": start, "end_time": start.Add(time.Hour),
	}, true)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var res struct {
		Slot struct {
			ID string `json:"id"`
		} `json:"slot"`
		Notification notify.Result `json:"notification"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	return res.Slot.ID
}

func TestBookingFlow(t *testing.T) {
	env := newAPIEnv(t, nil)
	env.setupCoach(t)

	janeID := env.requestLessons(t, "jane@example.com", "Jane Doe")
	env.requestLessons(t, "bob@example.com", "Bob Smith")
	env.approve(t, janeID)

	slotID := env.openSlot(t)

	rec := env.do(t, http.MethodPost, "/api/v1/slots/"+slotID+"/reserve",
		map[string]string{"email": "bob@example.com", "name": "Bob Smith"}, false)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "not_approved", decode[errorResponse](t, rec).Error)

	rec = env.do(t, http.MethodPost, "/api/v1/slots/"+slotID+"/reserve",
		map[string]string{"email": "jane@example.com", "name": "Jane D."}, false)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "name_mismatch", decode[errorResponse](t, rec).Error)

	rec = env.do(t, http.MethodPost, "/api/v1/slots/"+slotID+"/reserve",
		map[string]string{"email": "Jane@Example.com", "name": "jane doe"}, false)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "reserved", decode[map[string]any](t, rec)["status"])

	rec = env.do(t, http.MethodPost, "/api/v1/slots/"+slotID+"/reserve",
		map[string]string{"email": "jane@example.com", "name": "Jane Doe"}, false)
	assert.Equal(t, http.StatusConflict, rec.Code)
	body := decode[errorResponse](t, rec)
	assert.Equal(t, "already_booked", body.Error)
	assert.False(t, body.Retryable)

	rec = env.do(t, http.MethodGet, "/api/v1/slots/"+slotID+"/reservation?email=jane@example.com", nil, false)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "reserved_by_you", decode[map[string]string](t, rec)["state"])

	rec = env.do(t, http.MethodGet, "/api/v1/slots/"+slotID, nil, false)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "jane@example.com")

	rec = env.do(t, http.MethodDelete, "/api/v1/coach/slots/"+slotID, nil, true)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestReserveErrors(t *testing.T) {
	env := newAPIEnv(t, nil)

	rec := env.do(t, http.MethodPost, "/api/v1/slots/not-a-uuid/reserve", map[string]string{"email": "a@b.co", "name": "A"}, false)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_input", decode[errorResponse](t, rec).Error)

	rec = env.do(t, http.MethodPost, "/api/v1/slots/"+uuid.NewString()+"/reserve", map[string]string{"email": "a@b.co", "name": "A"}, false)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", decode[errorResponse](t, rec).Error)

	rec = env.do(t, http.MethodPost, "/api/v1/slots/"+uuid.NewString()+"/reserve", map[string]string{"email": "", "name": "A"}, false)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDuplicateLessonRequest(t *testing.T) {
	env := newAPIEnv(t, nil)
	env.setupCoach(t)
	env.requestLessons(t, "jane@example.com", "Jane Doe")

	rec := env.do(t, http.MethodPost, "/api/v1/coaches/"+env.coachID.String()+"/requests",
		map[string]string{"email": "jane@example.com", "name": "Jane Doe"}, false)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "duplicate_request", decode[errorResponse](t, rec).Error)

	rec = env.do(t, http.MethodGet, "/api/v1/coach/clients?status=PENDING", nil, true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]map[string]any](t, rec), 1)
}

func TestOpenSlotInvalidRange(t *testing.T) {
	env := newAPIEnv(t, nil)
	env.setupCoach(t)

	start := time.Now().Add(time.Hour).UTC()
	rec := env.do(t, http.MethodPost, "/api/v1/coach/slots", map[string]any{
		"start_time": start, "end_time": start.Add(-time.Minute),
	}, true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_range", decode[errorResponse](t, rec).Error)
}

func TestCoachRoutesRequireToken(t *testing.T) {
	env := newAPIEnv(t, nil)

	rec := env.do(t, http.MethodGet, "/api/v1/coach/profile", nil, false)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	forged, err := IssueCoachToken("other-secret", env.coachID, time.Hour)
	require.NoError(t, err)
	env.token = forged
	rec = env.do(t, http.MethodGet, "/api/v1/coach/profile", nil, true)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{Subject: env.coachID.String()}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	env.token = none
	rec = env.do(t, http.MethodGet, "/api/v1/coach/profile", nil, true)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	expired, err := IssueCoachToken(testSecret, env.coachID, -time.Minute)
	require.NoError(t, err)
	env.token = expired
	rec = env.do(t, http.MethodGet, "/api/v1/coach/profile", nil, true)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestExportWeek(t *testing.T) {
	env := newAPIEnv(t, nil)
	env.setupCoach(t)
	env.openSlot(t)

	week := time.Now().Add(48 * time.Hour).UTC().Format(time.DateOnly)
	rec := env.do(t, http.MethodGet, "/api/v1/coach/slots/export?week="+week, nil, true)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, xlsxContentType, rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "schedule_")
	assert.NotEmpty(t, rec.Body.Bytes())

	rec = env.do(t, http.MethodGet, "/api/v1/coach/slots/export?week=19.10.2026", nil, true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealthz(t *testing.T) {
	env := newAPIEnv(t, nil)

	rec := env.do(t, http.MethodGet, "/healthz", nil, false)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}
