package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/solarcycle/internal/apperror"
	"github.com/sakif/solarcycle/internal/auth"
	"github.com/sakif/solarcycle/internal/handler"
	"github.com/sakif/solarcycle/internal/lifecycle"
	"github.com/sakif/solarcycle/internal/model"
	"github.com/sakif/solarcycle/internal/service"
)

var logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

// =========================================================================
// MOCK SERVICES
// =========================================================================

type MockAuthService struct {
	CapturedUsername string
	CapturedEmail    string
	ReturnRes        *service.AuthResult
	ReturnUser       *model.User
	ReturnErr        error
}

func (m *MockAuthService) Register(_ context.Context, username, email, _ string) (*service.AuthResult, error) {
	m.CapturedUsername, m.CapturedEmail = username, email
	return m.ReturnRes, m.ReturnErr
}

func (m *MockAuthService) Login(_ context.Context, username, _ string) (*service.AuthResult, error) {
	m.CapturedUsername = username
	return m.ReturnRes, m.ReturnErr
}

func (m *MockAuthService) GetUserByID(_ context.Context, _ string) (*model.User, error) {
	return m.ReturnUser, m.ReturnErr
}

func (m *MockAuthService) TokenTTL() time.Duration { return time.Hour }

type MockPanelService struct {
	CapturedOwner string
	CapturedInput service.CreatePanelInput
	CapturedID    string
	ReturnCreate  *service.CreatePanelResult
	ReturnDash    *service.Dashboard
	ReturnErr     error
}

func (m *MockPanelService) Create(_ context.Context, ownerID string, in service.CreatePanelInput) (*service.CreatePanelResult, error) {
	m.CapturedOwner, m.CapturedInput = ownerID, in
	return m.ReturnCreate, m.ReturnErr
}

func (m *MockPanelService) Dashboard(_ context.Context, ownerID string) (*service.Dashboard, error) {
	m.CapturedOwner = ownerID
	return m.ReturnDash, m.ReturnErr
}

func (m *MockPanelService) Delete(_ context.Context, ownerID, id string) error {
	m.CapturedOwner, m.CapturedID = ownerID, id
	return m.ReturnErr
}

type MockDirectoryService struct {
	CapturedLocation string
	CapturedService  string
	ReturnRecyclers  []model.Recycler
	ReturnErr        error
}

func (m *MockDirectoryService) List(_ context.Context, location, serviceType string) ([]model.Recycler, error) {
	m.CapturedLocation, m.CapturedService = location, serviceType
	return m.ReturnRecyclers, m.ReturnErr
}

func asUser(r *http.Request, userID string) *http.Request {
	return r.WithContext(auth.WithUserID(r.Context(), userID))
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) handler.ErrorResponse {
	t.Helper()
	var body handler.ErrorResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
	return body
}

// =========================================================================
// AUTH HANDLER
// =========================================================================

func TestAuthHandler_HandleRegister(t *testing.T) {
	t.Run("sets session cookie", func(t *testing.T) {
		mockSvc := &MockAuthService{ReturnRes: &service.AuthResult{
			User:        &model.User{ID: "u1", Username: "alice", Email: "alice@example.com", PasswordHash: "secret-hash"},
			Token:       "jwt-token",
			WelcomeSent: true,
		}}
		h := handler.NewAuthHandler(mockSvc, false, logger)

		body := `{"username":"alice","email":"alice@example.com","password":"s3cret!"}`
		req := httptest.NewRequest(http.MethodPost, "/api/auth/register", bytes.NewBufferString(body))
		rr := httptest.NewRecorder()

		h.HandleRegister(rr, req)

		assert.Equal(t, http.StatusCreated, rr.Code)
		assert.Equal(t, "alice", mockSvc.CapturedUsername)
		assert.Equal(t, "alice@example.com", mockSvc.CapturedEmail)

		cookies := rr.Result().Cookies()
		require.Len(t, cookies, 1)
		assert.Equal(t, auth.CookieName, cookies[0].Name)
		assert.Equal(t, "jwt-token", cookies[0].Value)
		assert.True(t, cookies[0].HttpOnly)

		assert.NotContains(t, rr.Body.String(), "secret-hash")
		assert.Contains(t, rr.Body.String(), `"welcomeSent":true`)
	})

	t.Run("duplicate username", func(t *testing.T) {
		mockSvc := &MockAuthService{ReturnErr: apperror.Conflict("user", "alice")}
		h := handler.NewAuthHandler(mockSvc, false, logger)

		body := `{"username":"alice","email":"alice@example.com","password":"s3cret!"}`
		req := httptest.NewRequest(http.MethodPost, "/api/auth/register", bytes.NewBufferString(body))
		rr := httptest.NewRecorder()

		h.HandleRegister(rr, req)

		assert.Equal(t, http.StatusConflict, rr.Code)
		assert.Equal(t, "conflict", decodeError(t, rr).Error)
		assert.Empty(t, rr.Result().Cookies())
	})

	t.Run("invalid request body", func(t *testing.T) {
		h := handler.NewAuthHandler(&MockAuthService{}, false, logger)

		req := httptest.NewRequest(http.MethodPost, "/api/auth/register", bytes.NewBufferString(`{"username":`))
		rr := httptest.NewRecorder()

		h.HandleRegister(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestAuthHandler_HandleLogin(t *testing.T) {
	t.Run("valid credentials", func(t *testing.T) {
		mockSvc := &MockAuthService{ReturnRes: &service.AuthResult{
			User:  &model.User{ID: "u1", Username: "alice"},
			Token: "jwt-token",
		}}
		h := handler.NewAuthHandler(mockSvc, true, logger)

		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewBufferString(`{"username":"alice","password":"s3cret!"}`))
		rr := httptest.NewRecorder()

		h.HandleLogin(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		cookies := rr.Result().Cookies()
		require.Len(t, cookies, 1)
		assert.True(t, cookies[0].Secure)
		assert.NotContains(t, rr.Body.String(), "welcomeSent")
	})

	t.Run("bad credentials", func(t *testing.T) {
		mockSvc := &MockAuthService{ReturnErr: apperror.Unauthorized("invalid username or password")}
		h := handler.NewAuthHandler(mockSvc, false, logger)

		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewBufferString(`{"username":"alice","password":"nope"}`))
		rr := httptest.NewRecorder()

		h.HandleLogin(rr, req)

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		assert.Equal(t, "invalid username or password", decodeError(t, rr).Message)
	})
}

func TestAuthHandler_HandleLogout(t *testing.T) {
	h := handler.NewAuthHandler(&MockAuthService{}, false, logger)

	rr := httptest.NewRecorder()
	h.HandleLogout(rr, httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	cookies := rr.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, -1, cookies[0].MaxAge)
}

func TestAuthHandler_HandleMe(t *testing.T) {
	t.Run("authenticated", func(t *testing.T) {
		mockSvc := &MockAuthService{ReturnUser: &model.User{ID: "u1", Username: "alice"}}
		h := handler.NewAuthHandler(mockSvc, false, logger)

		rr := httptest.NewRecorder()
		h.HandleMe(rr, asUser(httptest.NewRequest(http.MethodGet, "/api/me", nil), "u1"))

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), `"username":"alice"`)
	})

	t.Run("anonymous", func(t *testing.T) {
		h := handler.NewAuthHandler(&MockAuthService{}, false, logger)

		rr := httptest.NewRecorder()
		h.HandleMe(rr, httptest.NewRequest(http.MethodGet, "/api/me", nil))

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})
}

// =========================================================================
// PANEL HANDLER
// =========================================================================

func TestPanelHandler_HandleCreate(t *testing.T) {
	t.Run("numeric capacity", func(t *testing.T) {
		mockSvc := &MockPanelService{ReturnCreate: &service.CreatePanelResult{
			Panel:       model.PanelView{Panel: model.Panel{ID: "p1", Brand: "SunPower"}, Status: model.StatusNearExpiry},
			AlertNeeded: true,
			AlertSent:   true,
		}}
		h := handler.NewPanelHandler(mockSvc, logger)

		body := `{"installation_date":"2000-01-15","brand":"SunPower","capacity_kw":5.5,"location":"Roof"}`
		req := asUser(httptest.NewRequest(http.MethodPost, "/api/panels", bytes.NewBufferString(body)), "u1")
		rr := httptest.NewRecorder()

		h.HandleCreate(rr, req)

		assert.Equal(t, http.StatusCreated, rr.Code)
		assert.Equal(t, "u1", mockSvc.CapturedOwner)
		assert.Equal(t, "5.5", mockSvc.CapturedInput.CapacityKW)
		assert.Equal(t, "2000-01-15", mockSvc.CapturedInput.InstallationDate)

		var res struct {
			Panel       map[string]any `json:"panel"`
			AlertNeeded bool           `json:"alertNeeded"`
			AlertSent   bool           `json:"alertSent"`
		}
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&res))
		assert.True(t, res.AlertNeeded)
		assert.True(t, res.AlertSent)
		assert.Equal(t, "near_expiry", res.Panel["expiryStatus"])
	})

	t.Run("string capacity", func(t *testing.T) {
		mockSvc := &MockPanelService{ReturnCreate: &service.CreatePanelResult{}}
		h := handler.NewPanelHandler(mockSvc, logger)

		body := `{"installation_date":"2015-03-01","brand":"SunPower","capacity_kw":"4","location":"Roof"}`
		req := asUser(httptest.NewRequest(http.MethodPost, "/api/panels", bytes.NewBufferString(body)), "u1")
		rr := httptest.NewRecorder()

		h.HandleCreate(rr, req)

		assert.Equal(t, http.StatusCreated, rr.Code)
		assert.Equal(t, "4", mockSvc.CapturedInput.CapacityKW)
	})

	t.Run("validation error", func(t *testing.T) {
		mockSvc := &MockPanelService{ReturnErr: apperror.ValidationFailed("capacity_kw", "capacity must be greater than zero")}
		h := handler.NewPanelHandler(mockSvc, logger)

		body := `{"installation_date":"2015-03-01","brand":"SunPower","capacity_kw":0,"location":"Roof"}`
		req := asUser(httptest.NewRequest(http.MethodPost, "/api/panels", bytes.NewBufferString(body)), "u1")
		rr := httptest.NewRecorder()

		h.HandleCreate(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		errBody := decodeError(t, rr)
		assert.Equal(t, "validation_error", errBody.Error)
		assert.Equal(t, "capacity_kw", errBody.Field)
	})

	t.Run("unknown field", func(t *testing.T) {
		h := handler.NewPanelHandler(&MockPanelService{}, logger)

		req := asUser(httptest.NewRequest(http.MethodPost, "/api/panels", bytes.NewBufferString(`{"owner_id":"someone-else"}`)), "u1")
		rr := httptest.NewRecorder()

		h.HandleCreate(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("anonymous", func(t *testing.T) {
		h := handler.NewPanelHandler(&MockPanelService{}, logger)

		rr := httptest.NewRecorder()
		h.HandleCreate(rr, httptest.NewRequest(http.MethodPost, "/api/panels", bytes.NewBufferString(`{}`)))

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})
}

func TestPanelHandler_HandleDashboard(t *testing.T) {
	t.Run("returns panels and summary", func(t *testing.T) {
		mockSvc := &MockPanelService{ReturnDash: &service.Dashboard{
			Panels:  []model.PanelView{{Panel: model.Panel{ID: "p1"}, Status: model.StatusSafe}},
			Summary: lifecycle.Summary{TotalPanels: 1, SafeCount: 1, TotalWasteKg: 300},
		}}
		h := handler.NewPanelHandler(mockSvc, logger)

		rr := httptest.NewRecorder()
		h.HandleDashboard(rr, asUser(httptest.NewRequest(http.MethodGet, "/api/dashboard", nil), "u1"))

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "u1", mockSvc.CapturedOwner)
		assert.Contains(t, rr.Body.String(), `"totalWaste":300`)
	})

	t.Run("storage failure hides details", func(t *testing.T) {
		mockSvc := &MockPanelService{ReturnErr: errors.New("sqlite: selecting panels: disk I/O error")}
		h := handler.NewPanelHandler(mockSvc, logger)

		rr := httptest.NewRecorder()
		h.HandleDashboard(rr, asUser(httptest.NewRequest(http.MethodGet, "/api/dashboard", nil), "u1"))

		assert.Equal(t, http.StatusInternalServerError, rr.Code)
		assert.NotContains(t, rr.Body.String(), "sqlite")
	})
}

func TestPanelHandler_HandleDelete(t *testing.T) {
	mockSvc := &MockPanelService{}
	h := handler.NewPanelHandler(mockSvc, logger)

	r := chi.NewRouter()
	r.Delete("/api/panels/{id}", h.HandleDelete)

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, asUser(httptest.NewRequest(http.MethodDelete, "/api/panels/abc123", nil), "u1"))

	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Equal(t, "abc123", mockSvc.CapturedID)
	assert.Equal(t, "u1", mockSvc.CapturedOwner)
}

// =========================================================================
// RECYCLER HANDLER
// =========================================================================

func TestRecyclerHandler_HandleList(t *testing.T) {
	t.Run("passes filters through", func(t *testing.T) {
		mockSvc := &MockDirectoryService{ReturnRecyclers: []model.Recycler{{ID: "r1", Name: "Green Solar Recycling"}}}
		h := handler.NewRecyclerHandler(mockSvc, logger)

		rr := httptest.NewRecorder()
		h.HandleList(rr, httptest.NewRequest(http.MethodGet, "/api/recyclers?location=york&service=both", nil))

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "york", mockSvc.CapturedLocation)
		assert.Equal(t, "both", mockSvc.CapturedService)
		assert.Contains(t, rr.Body.String(), "Green Solar Recycling")
	})

	t.Run("empty list is an array", func(t *testing.T) {
		h := handler.NewRecyclerHandler(&MockDirectoryService{ReturnRecyclers: []model.Recycler{}}, logger)

		rr := httptest.NewRecorder()
		h.HandleList(rr, httptest.NewRequest(http.MethodGet, "/api/recyclers", nil))

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.JSONEq(t, `[]`, rr.Body.String())
	})

	t.Run("unrecognised service is passed through", func(t *testing.T) {
		mockSvc := &MockDirectoryService{ReturnRecyclers: []model.Recycler{{ID: "r1", Name: "Green Solar Recycling"}}}
		h := handler.NewRecyclerHandler(mockSvc, logger)

		rr := httptest.NewRecorder()
		h.HandleList(rr, httptest.NewRequest(http.MethodGet, "/api/recyclers?service=composting", nil))

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "composting", mockSvc.CapturedService)
	})

	t.Run("service failure", func(t *testing.T) {
		h := handler.NewRecyclerHandler(&MockDirectoryService{ReturnErr: errors.New("disk gone")}, logger)

		rr := httptest.NewRecorder()
		h.HandleList(rr, httptest.NewRequest(http.MethodGet, "/api/recyclers", nil))

		assert.Equal(t, http.StatusInternalServerError, rr.Code)
		assert.NotContains(t, rr.Body.String(), "disk gone")
	})
}
