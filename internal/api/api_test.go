package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"alcyxob/program-ledger/internal/config"
	"alcyxob/program-ledger/internal/domain"
	"alcyxob/program-ledger/internal/ledger"
	"alcyxob/program-ledger/internal/repository/memory"
	"alcyxob/program-ledger/internal/service"
	"alcyxob/program-ledger/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	testJWTSecret  = "test-jwt-secret"
	testHookSecret = "test-hook-secret"
)

type testServer struct {
	router *gin.Engine
}

func newTestServer(t *testing.T, hooks config.HooksConfig) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	log := zerolog.Nop()

	store := memory.NewStore()
	users := memory.NewUserRepository(store)
	enrollments := memory.NewEnrollmentRepository(store)
	activities := memory.NewActivityRepository(store)
	plans := memory.NewPlanTemplateRepository(store)
	periods := memory.NewPeriodConfigRepository(store)
	catalog := memory.NewCatalogRepository(store)
	executions := memory.NewExecutionRepository(store)

	services := Services{
		Auth:      service.NewAuthService(users, testJWTSecret, time.Hour),
		Program:   service.NewProgramService(activities, plans, periods, enrollments, log),
		Catalog:   service.NewCatalogService(catalog),
		Execution: service.NewExecutionService(enrollments, activities, plans, periods, catalog, executions, ledger.DefaultIntensityTable(), log),
		Progress:  service.NewProgressService(enrollments, activities, executions, storage.NewDisabledStorage(), time.Minute, log),
		Client:    service.NewClientService(enrollments, activities, plans, periods, executions),
	}

	router := gin.New()
	SetupRoutes(router, testJWTSecret, hooks, services, log)
	return &testServer{router: router}
}

func defaultHooks() config.HooksConfig {
	return config.HooksConfig{Secret: testHookSecret, RatePerSec: 1000, Burst: 1000}
}

func (s *testServer) do(t *testing.T, method, path, token string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
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

// signup registers and logs in a user, returning its ID and token.
func (s *testServer) signup(t *testing.T, email string, role domain.Role) (string, string) {
	t.Helper()
	w := s.do(t, http.MethodPost, "/api/v1/auth/register", "", RegisterRequest{
		Name: "Test", Email: email, Password: "password123", Role: role,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	user := decode[UserResponse](t, w)

	w = s.do(t, http.MethodPost, "/api/v1/auth/login", "", LoginRequest{Email: email, Password: "password123"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	return user.ID, decode[LoginResponse](t, w).Token
}

// seedActivity creates an activity with a one-week template holding two
// items on day 1 and one item on day 3.
func (s *testServer) seedActivity(t *testing.T, coachToken string) string {
	t.Helper()
	w := s.do(t, http.MethodPost, "/api/v1/coach/activities", coachToken, CreateActivityRequest{Title: "Mobility"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	activity := decode[domain.Activity](t, w)

	w = s.do(t, http.MethodPost, "/api/v1/coach/catalog", coachToken, CreateCatalogItemRequest{Name: "Plank", Category: "strength"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	item := decode[domain.CatalogItem](t, w)

	path := fmt.Sprintf("/api/v1/coach/activities/%s/weeks/1", activity.ID.Hex())
	w = s.do(t, http.MethodPut, path, coachToken, PutWeekRequest{Days: map[string]any{
		"1": []string{fmt.Sprintf("%d_1_1", item.ID), "77_1_2"},
		"3": []string{fmt.Sprintf("%d_1_1", item.ID)},
	}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	return activity.ID.Hex()
}

func enrollmentEvent(enrollmentID, activityID, clientID string, status domain.EnrollmentStatus) EnrollmentEventRequest {
	return EnrollmentEventRequest{
		EnrollmentID: enrollmentID,
		ActivityID:   activityID,
		ClientID:     clientID,
		StartDate:    "2024-01-01",
		Status:       status,
	}
}

func TestEnrollmentHook_GeneratesOnceAndClientCompletes(t *testing.T) {
	s := newTestServer(t, defaultHooks())
	_, coachToken := s.signup(t, "coach@example.com", domain.RoleCoach)
	clientID, clientToken := s.signup(t, "client@example.com", domain.RoleClient)
	activityID := s.seedActivity(t, coachToken)
	enrollmentID := primitive.NewObjectID().Hex()
	ev := enrollmentEvent(enrollmentID, activityID, clientID, domain.EnrollmentActive)

	w := s.do(t, http.MethodPost, "/api/v1/hooks/enrollments", "", ev, HookSecretHeader, testHookSecret)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	first := decode[service.ActivationResult](t, w)
	require.NotNil(t, first.Generation)
	assert.Equal(t, 3, first.Generation.Created)
	assert.Equal(t, 0, first.Generation.Skipped)

	// Redelivery is harmless.
	w = s.do(t, http.MethodPost, "/api/v1/hooks/enrollments", "", ev, HookSecretHeader, testHookSecret)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	second := decode[service.ActivationResult](t, w)
	assert.Equal(t, 0, second.Generation.Created)
	assert.Equal(t, 3, second.Generation.Skipped)

	w = s.do(t, http.MethodGet, "/api/v1/client/enrollments/"+enrollmentID+"/executions", clientToken, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	records := decode[[]domain.ExecutionRecord](t, w)
	require.Len(t, records, 3)
	assert.Equal(t, "beginner", records[0].AppliedIntensity)

	w = s.do(t, http.MethodGet, "/api/v1/client/enrollments/"+enrollmentID+"/executions?from=2024-01-02", clientToken, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Len(t, decode[[]domain.ExecutionRecord](t, w), 1)

	w = s.do(t, http.MethodPatch, "/api/v1/client/executions/"+records[0].ID.Hex(), clientToken, map[string]bool{"completed": true})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	updated := decode[domain.ExecutionRecord](t, w)
	assert.True(t, updated.Completed)
	assert.NotNil(t, updated.CompletedAt)

	w = s.do(t, http.MethodGet, "/api/v1/client/enrollments/"+enrollmentID+"/progress", clientToken, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	snap := decode[domain.ProgressSnapshot](t, w)
	assert.Equal(t, 3, snap.TotalCount)
	assert.Equal(t, 1, snap.CompletedCount)
	assert.Equal(t, 33, snap.Percent)

	w = s.do(t, http.MethodGet, "/api/v1/coach/enrollments/"+enrollmentID+"/progress", coachToken, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.do(t, http.MethodPost, "/api/v1/coach/enrollments/"+enrollmentID+"/generate", coachToken, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, domain.GenerationResult{Created: 0, Skipped: 3}, decode[domain.GenerationResult](t, w))
}

func TestEnrollmentHook_Rejections(t *testing.T) {
	s := newTestServer(t, defaultHooks())
	_, coachToken := s.signup(t, "coach@example.com", domain.RoleCoach)
	clientID, _ := s.signup(t, "client@example.com", domain.RoleClient)
	activityID := s.seedActivity(t, coachToken)
	enrollmentID := primitive.NewObjectID().Hex()

	t.Run("missing secret", func(t *testing.T) {
		ev := enrollmentEvent(enrollmentID, activityID, clientID, domain.EnrollmentActive)
		w := s.do(t, http.MethodPost, "/api/v1/hooks/enrollments", "", ev)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("pending is ignored", func(t *testing.T) {
		ev := enrollmentEvent(primitive.NewObjectID().Hex(), activityID, clientID, domain.EnrollmentPending)
		w := s.do(t, http.MethodPost, "/api/v1/hooks/enrollments", "", ev, HookSecretHeader, testHookSecret)
		require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())
		assert.True(t, decode[service.ActivationResult](t, w).Ignored)
	})

	t.Run("bad start date", func(t *testing.T) {
		ev := enrollmentEvent(enrollmentID, activityID, clientID, domain.EnrollmentActive)
		ev.StartDate = "01/02/2024"
		w := s.do(t, http.MethodPost, "/api/v1/hooks/enrollments", "", ev, HookSecretHeader, testHookSecret)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("unknown activity", func(t *testing.T) {
		ev := enrollmentEvent(enrollmentID, primitive.NewObjectID().Hex(), clientID, domain.EnrollmentActive)
		w := s.do(t, http.MethodPost, "/api/v1/hooks/enrollments", "", ev, HookSecretHeader, testHookSecret)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("start date change after generation", func(t *testing.T) {
		ev := enrollmentEvent(enrollmentID, activityID, clientID, domain.EnrollmentActive)
		w := s.do(t, http.MethodPost, "/api/v1/hooks/enrollments", "", ev, HookSecretHeader, testHookSecret)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		ev.StartDate = "2024-02-01T00:00:00Z"
		w = s.do(t, http.MethodPost, "/api/v1/hooks/enrollments", "", ev, HookSecretHeader, testHookSecret)
		assert.Equal(t, http.StatusConflict, w.Code)
	})
}

func TestSetExecutionCompleted_Ownership(t *testing.T) {
	s := newTestServer(t, defaultHooks())
	_, coachToken := s.signup(t, "coach@example.com", domain.RoleCoach)
	clientID, clientToken := s.signup(t, "client@example.com", domain.RoleClient)
	_, otherToken := s.signup(t, "other@example.com", domain.RoleClient)
	activityID := s.seedActivity(t, coachToken)
	enrollmentID := primitive.NewObjectID().Hex()

	ev := enrollmentEvent(enrollmentID, activityID, clientID, domain.EnrollmentActive)
	w := s.do(t, http.MethodPost, "/api/v1/hooks/enrollments", "", ev, HookSecretHeader, testHookSecret)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.do(t, http.MethodGet, "/api/v1/client/enrollments/"+enrollmentID+"/executions", clientToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	records := decode[[]domain.ExecutionRecord](t, w)
	require.NotEmpty(t, records)
	path := "/api/v1/client/executions/" + records[0].ID.Hex()

	w = s.do(t, http.MethodPatch, path, otherToken, map[string]bool{"completed": true})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(t, http.MethodPatch, "/api/v1/client/executions/"+primitive.NewObjectID().Hex(), clientToken, map[string]bool{"completed": true})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(t, http.MethodPatch, path, clientToken, map[string]string{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodGet, "/api/v1/client/enrollments/"+enrollmentID+"/executions", otherToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRoutes_RoleAndAuth(t *testing.T) {
	s := newTestServer(t, defaultHooks())
	_, coachToken := s.signup(t, "coach@example.com", domain.RoleCoach)
	_, clientToken := s.signup(t, "client@example.com", domain.RoleClient)

	assert.Equal(t, http.StatusUnauthorized, s.do(t, http.MethodGet, "/api/v1/coach/activities", "", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, s.do(t, http.MethodGet, "/api/v1/coach/activities", "garbage", nil).Code)
	assert.Equal(t, http.StatusForbidden, s.do(t, http.MethodGet, "/api/v1/coach/activities", clientToken, nil).Code)
	assert.Equal(t, http.StatusForbidden, s.do(t, http.MethodGet, "/api/v1/client/progress", coachToken, nil).Code)

	w := s.do(t, http.MethodGet, "/api/v1/coach/activities", coachToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, "[]", w.Body.String())

	w = s.do(t, http.MethodPost, "/api/v1/auth/register", "", RegisterRequest{
		Name: "T", Email: "trainer@example.com", Password: "password123", Role: "trainer",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCoachRoutes_TemplateAndReport(t *testing.T) {
	s := newTestServer(t, defaultHooks())
	_, coachToken := s.signup(t, "coach@example.com", domain.RoleCoach)
	_, otherCoach := s.signup(t, "coach2@example.com", domain.RoleCoach)
	activityID := s.seedActivity(t, coachToken)
	base := "/api/v1/coach/activities/" + activityID

	w := s.do(t, http.MethodGet, base, coachToken, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"periodCount":1`)

	assert.Equal(t, http.StatusForbidden, s.do(t, http.MethodGet, base, otherCoach, nil).Code)
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, base+"/weeks/2", coachToken, nil).Code)
	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodGet, base+"/weeks/zero", coachToken, nil).Code)

	w = s.do(t, http.MethodPut, base+"/weeks/3", coachToken, PutWeekRequest{Days: map[string]any{"1": []string{"1_1_1"}}})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = s.do(t, http.MethodPut, base+"/weeks/2", coachToken, PutWeekRequest{Days: map[string]any{"9": []string{"1_1_1"}}})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodPut, base+"/periods", coachToken, PeriodConfigRequest{PeriodCount: 3})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, 3, decode[domain.PeriodConfig](t, w).PeriodCount)

	w = s.do(t, http.MethodPut, base+"/periods", coachToken, PeriodConfigRequest{PeriodCount: 0})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodGet, base+"/enrollments", coachToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, "[]", w.Body.String())

	// No bucket configured.
	w = s.do(t, http.MethodPost, base+"/report", coachToken, nil)
	assert.Equal(t, http.StatusNotImplemented, w.Code)
}

func TestRateLimitMiddleware(t *testing.T) {
	s := newTestServer(t, config.HooksConfig{Secret: testHookSecret, RatePerSec: 0.001, Burst: 1})

	w := s.do(t, http.MethodPost, "/api/v1/hooks/enrollments", "", map[string]string{}, HookSecretHeader, testHookSecret)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodPost, "/api/v1/hooks/enrollments", "", map[string]string{}, HookSecretHeader, testHookSecret)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
}

func TestErrorStatus(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("wrap: %w", service.ErrStorageUnavailable), http.StatusServiceUnavailable},
		{service.ErrValidationFailed, http.StatusBadRequest},
		{service.ErrEnrollmentNotFound, http.StatusNotFound},
		{service.ErrExecutionAccessDenied, http.StatusForbidden},
		{service.ErrEnrollmentNotActive, http.StatusConflict},
		{service.ErrStartDateImmutable, http.StatusConflict},
		{storage.ErrNotConfigured, http.StatusNotImplemented},
		{fmt.Errorf("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, errorStatus(tc.err), tc.err.Error())
	}
}

func TestParseDate(t *testing.T) {
	d, err := parseDate("2024-03-05")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), d)

	d, err = parseDate("2024-03-05T10:00:00+02:00")
	require.NoError(t, err)
	assert.Equal(t, 8, d.UTC().Hour())

	_, err = parseDate("5 March")
	assert.Error(t, err)

	none, err := optionalDate("")
	require.NoError(t, err)
	assert.Nil(t, none)
}
