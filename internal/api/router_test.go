package api_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/EgehanKilicarslan/gadget-inventory/backend-go/internal/api"
	"github.com/EgehanKilicarslan/gadget-inventory/backend-go/internal/database/repository"
	"github.com/EgehanKilicarslan/gadget-inventory/backend-go/internal/database/service"
	"github.com/EgehanKilicarslan/gadget-inventory/backend-go/internal/handler"
	"github.com/EgehanKilicarslan/gadget-inventory/backend-go/internal/middleware"
	"github.com/EgehanKilicarslan/gadget-inventory/backend-go/internal/testutil"
)

var codenamePattern = regexp.MustCompile(`^(The Nightingale|The Kraken|The Falcon|The Shadow)-\s+[A-F0-9]{8}$`)

// setupRouter wires the real services against an in-memory store
func setupRouter(t *testing.T, limiter middleware.RateLimiter) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := testutil.NewTestDB()
	require.NoError(t, err)

	cfg := testutil.TestConfig()
	logger := testutil.TestLogger()
	if limiter == nil {
		limiter = middleware.NewNoOpRateLimiter(logger)
	}

	authService := service.NewAuthService(repository.NewUserRepository(db), cfg, logger)
	gadgetService := service.NewGadgetService(repository.NewGadgetRepository(db), logger)

	return api.SetupRouter(
		handler.NewAuthHandler(authService, logger),
		handler.NewGadgetHandler(gadgetService, logger),
		middleware.NewAuthMiddleware(authService, logger),
		limiter,
		logger,
	)
}

type client struct {
	t      *testing.T
	router *gin.Engine
	token  string
}

func (c *client) do(method, path string, body interface{}) *httptest.ResponseRecorder {
	c.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(c.t, json.NewEncoder(&buf).Encode(body))
	}

	req, _ := http.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	w := httptest.NewRecorder()
	c.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v))
}

func TestPublicRoutes(t *testing.T) {
	c := &client{t: t, router: setupRouter(t, nil)}

	w := c.do("GET", "/", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Welcome to the IMF Gadget API", w.Body.String())

	w = c.do("GET", testutil.HealthCheckEndpoint, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))

	w = c.do("GET", "/missions", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"Not found."}`, w.Body.String())
}

func TestDocsRoute(t *testing.T) {
	c := &client{t: t, router: setupRouter(t, nil)}

	w := c.do("GET", "/docs", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "application/json")

	var doc struct {
		OpenAPI    string                            `json:"openapi"`
		Paths      map[string]map[string]interface{} `json:"paths"`
		Components struct {
			SecuritySchemes map[string]struct {
				Type   string `json:"type"`
				Scheme string `json:"scheme"`
			} `json:"securitySchemes"`
		} `json:"components"`
	}
	decode(t, w, &doc)

	assert.Equal(t, "3.0.0", doc.OpenAPI)
	assert.Equal(t, "bearer", doc.Components.SecuritySchemes["bearerAuth"].Scheme)

	operations := map[string][]string{
		"/auth/signup":                {"post"},
		"/auth/signin":                {"post"},
		"/gadgets":                    {"get", "post"},
		"/gadgets/{id}":               {"patch", "delete"},
		"/gadgets/{id}/self-destruct": {"post"},
	}
	for path, methods := range operations {
		require.Contains(t, doc.Paths, path)
		for _, method := range methods {
			assert.Contains(t, doc.Paths[path], method, "%s %s", method, path)
		}
	}
}

func TestGadgetLifecycle(t *testing.T) {
	c := &client{t: t, router: setupRouter(t, nil)}

	// Signup and signin
	w := c.do("POST", testutil.SignupEndpoint, map[string]string{"email": "a@x.com", "password": "pw123456"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"User registered successfully."}`, w.Body.String())

	w = c.do("POST", testutil.SigninEndpoint, map[string]string{"email": "a@x.com", "password": "pw123456"})
	require.Equal(t, http.StatusOK, w.Code)
	var signin struct {
		Token string `json:"token"`
	}
	decode(t, w, &signin)
	require.NotEmpty(t, signin.Token)
	c.token = signin.Token

	w = c.do("GET", testutil.MeEndpoint, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"email":"a@x.com"`)

	// Create
	w = c.do("POST", testutil.GadgetsEndpoint, map[string]string{"name": "Pen Camera"})
	require.Equal(t, http.StatusCreated, w.Code)
	var gadget struct {
		ID               string  `json:"id"`
		Name             string  `json:"name"`
		Codename         string  `json:"codename"`
		Status           string  `json:"status"`
		DecommissionedAt *string `json:"decommissionedAt"`
	}
	decode(t, w, &gadget)
	assert.Equal(t, "Pen Camera", gadget.Name)
	assert.Equal(t, "Available", gadget.Status)
	assert.Regexp(t, codenamePattern, gadget.Codename)
	assert.Nil(t, gadget.DecommissionedAt)

	// Self-destruct
	w = c.do("POST", testutil.SelfDestructEndpoint(gadget.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	var destruct struct {
		Message          string `json:"message"`
		ConfirmationCode string `json:"confirmationCode"`
	}
	decode(t, w, &destruct)
	assert.Equal(t, "Self-destruct sequence initiated for gadget Pen Camera.", destruct.Message)
	assert.Regexp(t, `^[A-F0-9]{8}$`, destruct.ConfirmationCode)

	// List by status
	w = c.do("GET", testutil.GadgetsEndpoint+"?status=Destroyed", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var destroyed []map[string]interface{}
	decode(t, w, &destroyed)
	require.Len(t, destroyed, 1)
	assert.Equal(t, gadget.ID, destroyed[0]["id"])
	assert.Regexp(t, `^\d{1,3}%$`, destroyed[0]["missionSuccessProbability"])

	w = c.do("GET", testutil.GadgetsEndpoint+"?status=Available", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())

	// Freeform patch can bring a destroyed gadget back
	w = c.do("PATCH", testutil.GadgetEndpoint+gadget.ID, map[string]string{"status": "Available", "name": "Pen Camera II"})
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &gadget)
	assert.Equal(t, "Available", gadget.Status)
	assert.Equal(t, "Pen Camera II", gadget.Name)

	// Decommission is a soft delete
	w = c.do("DELETE", testutil.GadgetEndpoint+gadget.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var decommission struct {
		Message string `json:"message"`
		Gadget  struct {
			Status           string  `json:"status"`
			DecommissionedAt *string `json:"decommissionedAt"`
		} `json:"gadget"`
	}
	decode(t, w, &decommission)
	assert.Equal(t, "Gadget decommissioned.", decommission.Message)
	assert.Equal(t, "Decommissioned", decommission.Gadget.Status)
	assert.NotNil(t, decommission.Gadget.DecommissionedAt)

	w = c.do("GET", testutil.GadgetsEndpoint, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var all []map[string]interface{}
	decode(t, w, &all)
	assert.Len(t, all, 1)
}

func TestAuthFailures(t *testing.T) {
	c := &client{t: t, router: setupRouter(t, nil)}

	w := c.do("POST", testutil.SignupEndpoint, map[string]string{"email": "a@x.com", "password": "pw123456"})
	require.Equal(t, http.StatusOK, w.Code)

	w = c.do("POST", testutil.SignupEndpoint, map[string]string{"email": "a@x.com", "password": "other-password"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"User already exists."}`, w.Body.String())

	w = c.do("POST", testutil.SigninEndpoint, map[string]string{"email": "a@x.com", "password": "wrong-password"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	wrongPassword := w.Body.String()

	w = c.do("POST", testutil.SigninEndpoint, map[string]string{"email": "nobody@x.com", "password": "pw123456"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, wrongPassword, w.Body.String())

	w = c.do("GET", testutil.GadgetsEndpoint, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"error":"No token provided."}`, w.Body.String())

	c.token = "not.a.token"
	w = c.do("GET", testutil.GadgetsEndpoint, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"error":"Invalid token."}`, w.Body.String())

	w = c.do("DELETE", testutil.GadgetEndpoint+"00000000-0000-0000-0000-000000000000", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSignupPasswordByteLimit(t *testing.T) {
	c := &client{t: t, router: setupRouter(t, nil)}

	w := c.do("POST", testutil.SignupEndpoint, map[string]string{"email": "e@x.com", "password": strings.Repeat("é", 72)})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "72 bytes")

	password := strings.Repeat("é", 36)
	w = c.do("POST", testutil.SignupEndpoint, map[string]string{"email": "e@x.com", "password": password})
	require.Equal(t, http.StatusOK, w.Code)

	w = c.do("POST", testutil.SigninEndpoint, map[string]string{"email": "e@x.com", "password": password})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"token"`)
}

func TestUnknownGadget(t *testing.T) {
	c := &client{t: t, router: setupRouter(t, nil)}

	c.do("POST", testutil.SignupEndpoint, map[string]string{"email": "a@x.com", "password": "pw123456"})
	w := c.do("POST", testutil.SigninEndpoint, map[string]string{"email": "a@x.com", "password": "pw123456"})
	var signin struct {
		Token string `json:"token"`
	}
	decode(t, w, &signin)
	c.token = signin.Token

	missing := "6f1c8a52-1b2d-4e8f-9a0b-5c6d7e8f9a0b"
	for _, tc := range []struct{ method, path string }{
		{"PATCH", testutil.GadgetEndpoint + missing},
		{"DELETE", testutil.GadgetEndpoint + missing},
		{"POST", testutil.SelfDestructEndpoint(missing)},
		{"DELETE", testutil.GadgetEndpoint + "not-a-uuid"},
	} {
		w := c.do(tc.method, tc.path, map[string]string{})
		assert.Equal(t, http.StatusNotFound, w.Code, "%s %s", tc.method, tc.path)
		assert.JSONEq(t, `{"error":"Gadget not found."}`, w.Body.String())
	}
}

func TestRateLimitedRouter(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := testutil.TestConfig()
	cfg.RateLimitRequests = 2
	windowStart := time.Unix(1800000000, 0)
	limiter := middleware.NewRateLimiter(
		redis.NewClient(&redis.Options{Addr: mr.Addr()}),
		cfg,
		testutil.TestLogger(),
		middleware.WithRateLimiterClock(func() time.Time { return windowStart }),
	)
	t.Cleanup(func() { limiter.Close() })

	c := &client{t: t, router: setupRouter(t, limiter)}

	for i := 0; i < 2; i++ {
		w := c.do("GET", testutil.HealthCheckEndpoint, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "2", w.Header().Get("X-RateLimit-Limit"))
	}

	w := c.do("GET", testutil.HealthCheckEndpoint, nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.JSONEq(t, `{"error":"Too many requests, please try again later."}`, w.Body.String())
}
