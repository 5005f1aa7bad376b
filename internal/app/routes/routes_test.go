package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yigit/campushub/internal/app/controllers"
	"github.com/yigit/campushub/internal/app/jobs"
	"github.com/yigit/campushub/internal/app/models"
	"github.com/yigit/campushub/internal/app/models/dto"
	"github.com/yigit/campushub/internal/app/repositories/memory"
	"github.com/yigit/campushub/internal/app/services"
	"github.com/yigit/campushub/internal/middleware"
	"github.com/yigit/campushub/internal/pkg/auth"
	"github.com/yigit/campushub/internal/pkg/metrics"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var today = time.Date(2025, 5, 10, 9, 0, 0, 0, time.UTC)

type testAPI struct {
	t          *testing.T
	router     *gin.Engine
	jwtService *auth.JWTService
	adminToken string
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	clock := func() time.Time { return today }
	repos := memory.NewRepositories(memory.WithClock(clock))
	reg := prometheus.NewRegistry()
	svc := services.NewServices(services.Config{
		Repos:           repos,
		Logger:          zerolog.Nop(),
		Metrics:         metrics.New(reg),
		DefaultCapacity: 100,
		Now:             clock,
	})
	scheduler, err := jobs.NewScheduler(jobs.Config{}, svc.Events, svc.Reservations, nil, nil, zerolog.Nop())
	require.NoError(t, err)

	jwtService := auth.NewJWTService(auth.JWTConfig{SecretKey: "routes-secret", AccessTokenExp: time.Hour, TokenIssuer: "campushub-test"})
	admin := &models.User{Email: "admin@campus.edu", Role: models.RoleAdmin, IsActive: true}
	require.NoError(t, repos.UserRepository.Create(context.Background(), admin))
	adminToken, _, err := jwtService.IssueToken(admin)
	require.NoError(t, err)

	router := gin.New()
	SetupOperational(router, reg)
	SetupRouter(router, Controllers{
		College:     controllers.NewCollegeController(svc.Directory),
		Community:   controllers.NewCommunityController(svc.Directory, svc.Registry),
		User:        controllers.NewUserController(svc.Registry),
		Event:       controllers.NewEventController(svc.Events),
		StudySpace:  controllers.NewStudySpaceController(svc.Reservations),
		Maintenance: controllers.NewMaintenanceController(scheduler),
	}, middleware.NewAuthMiddleware(jwtService, repos.UserRepository))

	return &testAPI{t: t, router: router, jwtService: jwtService, adminToken: adminToken}
}

func (a *testAPI) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	a.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(a.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, "/api/v1"+path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

// data decodes the success envelope into out
func (a *testAPI) data(rec *httptest.ResponseRecorder, status int, out interface{}) {
	a.t.Helper()
	require.Equal(a.t, status, rec.Code, rec.Body.String())
	envelope := struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
	}{}
	require.NoError(a.t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.True(a.t, envelope.Success)
	if out != nil {
		require.NoError(a.t, json.Unmarshal(envelope.Data, out))
	}
}

func (a *testAPI) errorCode(rec *httptest.ResponseRecorder, status int) dto.ErrorCode {
	a.t.Helper()
	require.Equal(a.t, status, rec.Code, rec.Body.String())
	var body dto.ErrorResponse
	require.NoError(a.t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.NotNil(a.t, body.Error)
	return body.Error.Code
}

func (a *testAPI) createUser(email string, role models.Role, collegeID *int64) (models.User, string) {
	a.t.Helper()
	var user models.User
	a.data(a.do(http.MethodPost, "/users", a.adminToken, dto.CreateUserRequest{
		Email: email, FirstName: "Test", LastName: "User", Role: role, CollegeID: collegeID,
	}), http.StatusCreated, &user)
	token, _, err := a.jwtService.IssueToken(&user)
	require.NoError(a.t, err)
	return user, token
}

func TestCollegeEventApprovalOverHTTP(t *testing.T) {
	api := newTestAPI(t)

	var college models.College
	api.data(api.do(http.MethodPost, "/colleges", api.adminToken, dto.CreateCollegeRequest{Code: "ENG", Name: "Engineering"}),
		http.StatusCreated, &college)

	_, facultyToken := api.createUser("faculty@campus.edu", models.RoleFacultyLeader, &college.ID)
	_, deanToken := api.createUser("dean@campus.edu", models.RoleDeanOfFaculty, &college.ID)
	_, deanshipToken := api.createUser("deanship@campus.edu", models.RoleDeanshipOfStudentAffairs, nil)
	_, studentToken := api.createUser("student@campus.edu", models.RoleStudent, nil)

	var event models.Event
	api.data(api.do(http.MethodPost, "/events", studentToken, dto.CreateEventRequest{Title: "Career Day", CollegeID: &college.ID}),
		http.StatusCreated, &event)
	assert.Equal(t, models.EventDraft, event.Status)
	require.NotNil(t, event.Capacity)
	assert.Equal(t, 100, *event.Capacity)

	eventPath := fmt.Sprintf("/events/%d", event.ID)
	api.data(api.do(http.MethodPost, eventPath+"/submit", studentToken, nil), http.StatusOK, &event)
	assert.Equal(t, models.EventPendingFacultyLeader, event.Status)

	assert.Equal(t, dto.ErrorCodeInvalidRole, api.errorCode(api.do(http.MethodPost, eventPath+"/approve", studentToken, nil), http.StatusForbidden))
	assert.Equal(t, dto.ErrorCodeInvalidRole, api.errorCode(api.do(http.MethodPost, eventPath+"/approve", deanToken, nil), http.StatusForbidden))

	for _, step := range []struct {
		token string
		want  models.EventStatus
	}{
		{facultyToken, models.EventPendingDean},
		{deanToken, models.EventPendingDeanship},
		{deanshipToken, models.EventApproved},
	} {
		api.data(api.do(http.MethodPost, eventPath+"/approve", step.token, nil), http.StatusOK, &event)
		assert.Equal(t, step.want, event.Status)
	}

	var approvals []models.EventApproval
	api.data(api.do(http.MethodGet, eventPath+"/approvals", studentToken, nil), http.StatusOK, &approvals)
	assert.Len(t, approvals, 3)

	assert.Equal(t, dto.ErrorCodeInvalidTransition, api.errorCode(api.do(http.MethodPost, eventPath+"/cancel", studentToken, nil), http.StatusUnprocessableEntity))
	assert.Equal(t, dto.ErrorCodeResourceNotFound, api.errorCode(api.do(http.MethodGet, "/events/404", studentToken, nil), http.StatusNotFound))
	assert.Equal(t, dto.ErrorCodeValidationFailed, api.errorCode(api.do(http.MethodGet, "/events/abc", studentToken, nil), http.StatusBadRequest))
}

func TestReservationsOverHTTP(t *testing.T) {
	api := newTestAPI(t)
	_, first := api.createUser("first@campus.edu", models.RoleStudent, nil)
	_, second := api.createUser("second@campus.edu", models.RoleStudent, nil)

	var space models.StudySpace
	api.data(api.do(http.MethodPost, "/study-spaces", api.adminToken, dto.CreateStudySpaceRequest{Name: "Library Room", Capacity: 1}),
		http.StatusCreated, &space)
	assert.Equal(t, dto.ErrorCodeForbidden, api.errorCode(
		api.do(http.MethodPost, "/study-spaces", first, dto.CreateStudySpaceRequest{Name: "Mine", Capacity: 3}), http.StatusForbidden))

	booking := dto.CreateReservationRequest{SpaceID: space.ID, Date: "2025-05-12"}
	api.data(api.do(http.MethodPost, "/reservations", first, booking), http.StatusCreated, nil)
	assert.Equal(t, dto.ErrorCodeDuplicateReservation, api.errorCode(api.do(http.MethodPost, "/reservations", first, booking), http.StatusConflict))
	assert.Equal(t, dto.ErrorCodeCapacityExceeded, api.errorCode(api.do(http.MethodPost, "/reservations", second, booking), http.StatusConflict))

	past := dto.CreateReservationRequest{SpaceID: space.ID, Date: "2025-05-09"}
	assert.Equal(t, dto.ErrorCodeValidationFailed, api.errorCode(api.do(http.MethodPost, "/reservations", second, past), http.StatusBadRequest))
	malformed := dto.CreateReservationRequest{SpaceID: space.ID, Date: "12/05/2025"}
	assert.Equal(t, dto.ErrorCodeValidationFailed, api.errorCode(api.do(http.MethodPost, "/reservations", second, malformed), http.StatusBadRequest))

	var booked []models.StudySpaceReservation
	api.data(api.do(http.MethodGet, fmt.Sprintf("/study-spaces/%d/reservations?date=2025-05-12", space.ID), second, nil), http.StatusOK, &booked)
	assert.Len(t, booked, 1)
}

func TestMaintenanceEndpoints(t *testing.T) {
	api := newTestAPI(t)
	_, student := api.createUser("student@campus.edu", models.RoleStudent, nil)

	assert.Equal(t, dto.ErrorCodeForbidden, api.errorCode(api.do(http.MethodPost, "/admin/maintenance/reconcile", student, nil), http.StatusForbidden))

	var result dto.MaintenanceResponse
	api.data(api.do(http.MethodPost, "/admin/maintenance/reconcile", api.adminToken, nil), http.StatusOK, &result)
	assert.Equal(t, jobs.JobReconcile, result.Job)
	assert.Zero(t, result.Changed)

	api.data(api.do(http.MethodPost, "/admin/maintenance/expire", api.adminToken, nil), http.StatusOK, &result)
	assert.Equal(t, jobs.JobExpire, result.Job)
}

func TestOperationalEndpoints(t *testing.T) {
	api := newTestAPI(t)

	for _, path := range []string{"/ping", "/metrics"} {
		rec := httptest.NewRecorder()
		api.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}

	rec := httptest.NewRecorder()
	api.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/events", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
