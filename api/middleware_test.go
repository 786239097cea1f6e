package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/linesmerrill/medtrack-api/config"
	"github.com/linesmerrill/medtrack-api/models"
)

func newTestAuth() *Auth {
	return NewAuth(&config.Config{JWTSecret: "test-secret"})
}

func TestParseToken(t *testing.T) {
	a := newTestAuth()
	patient := Identity{ID: "patient-1", Role: models.RolePatient, Name: "pat"}

	valid, err := a.SignToken(patient, time.Hour)
	require.NoError(t, err)
	expired, err := a.SignToken(patient, -time.Minute)
	require.NoError(t, err)
	foreign, err := NewAuth(&config.Config{JWTSecret: "other"}).SignToken(patient, time.Hour)
	require.NoError(t, err)
	noRole, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{ID: "x"}).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	got, err := a.ParseToken(valid)
	require.NoError(t, err)
	assert.Equal(t, patient, got)

	for name, token := range map[string]string{
		"expired":       expired,
		"wrong secret":  foreign,
		"missing role":  noRole,
		"not a token":   "abc.def",
		"empty":         "",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := a.ParseToken(token)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestMiddleware(t *testing.T) {
	a := newTestAuth()
	token, err := a.SignToken(Identity{ID: "ph-1", Role: models.RolePharmacy, Name: "pharm"}, time.Hour)
	require.NoError(t, err)

	var seen Identity
	handler := a.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = IdentityFrom(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		name   string
		header string
		query  string
		want   int
	}{
		{name: "no token", want: http.StatusUnauthorized},
		{name: "garbage bearer", header: "Bearer nope", want: http.StatusUnauthorized},
		{name: "bearer header", header: "Bearer " + token, want: http.StatusOK},
		{name: "query token", query: "?token=" + token, want: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen = Identity{}
			req := httptest.NewRequest(http.MethodGet, "/api/v1/chat/conversations"+tt.query, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			assert.Equal(t, tt.want, rr.Code)
			if tt.want == http.StatusOK {
				assert.Equal(t, "ph-1", seen.ID)
				assert.Equal(t, models.RolePharmacy, seen.Role)
			} else {
				assert.JSONEq(t, `{"error": "unauthorized"}`, rr.Body.String())
			}
		})
	}
}

func TestAuthenticateRejectsCachedTokenAfterExpiry(t *testing.T) {
	a := newTestAuth()
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	a.now = func() time.Time { return now }

	token, err := a.SignToken(Identity{ID: "patient-1", Role: models.RolePatient, Name: "pat"}, time.Minute)
	require.NoError(t, err)

	bearerRequest := func() *http.Request {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/medications", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		return req
	}

	id, err := a.Authenticate(bearerRequest())
	require.NoError(t, err)
	assert.Equal(t, "patient-1", id.ID)
	assert.Contains(t, a.cache.Keys(), token)

	now = now.Add(2 * time.Minute)

	_, err = a.Authenticate(bearerRequest())
	assert.ErrorIs(t, err, ErrInvalidToken)
	assert.NotContains(t, a.cache.Keys(), token)

	_, err = a.Authenticate(httptest.NewRequest(http.MethodGet, "/ws?token="+token, nil))
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestRequireRole(t *testing.T) {
	handler := RequireRole(models.RoleAdmin)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodPut, "/", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req.WithContext(WithIdentity(req.Context(), Identity{ID: "p", Role: models.RolePatient})))
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req.WithContext(WithIdentity(req.Context(), Identity{ID: "a", Role: models.RoleAdmin})))
	assert.Equal(t, http.StatusNoContent, rr.Code)

	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestRequestLogger(t *testing.T) {
	var requestID string
	handler := RequestLogger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID = RequestIDFrom(r.Context())
		w.WriteHeader(http.StatusTeapot)
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/medications", nil))

	assert.Equal(t, http.StatusTeapot, rr.Code)
	assert.NotEmpty(t, requestID)
	assert.Equal(t, requestID, rr.Header().Get("X-Request-ID"))
}

func TestRequestLoggerSlowRequests(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	t.Cleanup(zap.ReplaceGlobals(zap.New(core)))
	previous := slowRequest
	slowRequest = time.Millisecond
	t.Cleanup(func() { slowRequest = previous })

	handler := RequestLogger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(5 * time.Millisecond)
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/medications", nil))
	assert.Equal(t, 1, logs.FilterMessage("Slow request detected").Len())

	ws := httptest.NewRequest(http.MethodGet, "/ws", nil)
	ws.Header.Set("Connection", "Upgrade")
	ws.Header.Set("Upgrade", "websocket")
	handler.ServeHTTP(httptest.NewRecorder(), ws)

	assert.Equal(t, 1, logs.FilterMessage("Slow request detected").Len())
	served := logs.FilterMessage("request served").FilterField(zap.String("path", "/ws"))
	assert.Equal(t, 1, served.Len())
}

func TestTimeoutMiddleware(t *testing.T) {
	var deadline time.Time
	var ok bool
	handler := TimeoutMiddleware(time.Minute)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		deadline, ok = r.Context().Deadline()
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.True(t, ok)
	assert.WithinDuration(t, time.Now().Add(time.Minute), deadline, 5*time.Second)
}

func TestHealthCheck(t *testing.T) {
	rr := httptest.NewRecorder()
	New().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"alive": true}`, rr.Body.String())
}
