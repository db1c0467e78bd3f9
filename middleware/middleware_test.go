package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"raffle-bff/apperrors"
	"raffle-bff/clients"
	"raffle-bff/logger"
	awspkg "raffle-bff/pkg/aws"
	"raffle-bff/reconcile"
	"raffle-bff/session"
	"raffle-bff/store"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"golang.org/x/time/rate"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestDeviceSession_IssuesAndReusesID(t *testing.T) {
	mem := store.NewMemoryStore()
	r := gin.New()
	r.Use(DeviceSession(mem, false))
	r.GET("/", func(c *gin.Context) {
		require.NoError(t, DeviceStore(c).Set(c.Request.Context(), "k", "v"))
		c.String(http.StatusOK, DeviceID(c))
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	issued := w.Body.String()
	_, err := uuid.Parse(issued)
	require.NoError(t, err)
	assert.Equal(t, issued, w.Header().Get(DeviceHeader))
	assert.Contains(t, w.Header().Get("Set-Cookie"), DeviceCookie+"="+issued)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: DeviceCookie, Value: issued})
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, issued, w.Body.String())

	assert.Equal(t, []string{"device:" + issued + ":k"}, mem.Keys())
}

func TestDeviceSession_HeaderWinsAndGarbageIsReplaced(t *testing.T) {
	r := gin.New()
	r.Use(DeviceSession(store.NewMemoryStore(), false))
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, DeviceID(c)) })

	id := uuid.NewString()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(DeviceHeader, id)
	req.AddCookie(&http.Cookie{Name: DeviceCookie, Value: uuid.NewString()})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, id, w.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(DeviceHeader, "../../etc")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.NotEqual(t, "../../etc", w.Body.String())
}

func authRouter(sessions *session.Manager, mem store.Store) *gin.Engine {
	r := gin.New()
	r.Use(DeviceSession(mem, false))
	authed := r.Group("/", RequireAuth(sessions, zap.NewNop()))
	authed.GET("/me", func(c *gin.Context) {
		owner, err := GetOwner(c)
		if err != nil {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"key":       owner.Identity.Key(),
			"namespace": owner.Namespace,
			"token":     clients.TokenFrom(c.Request.Context()),
		})
	})
	authed.GET("/admin", RequireAdmin(), func(c *gin.Context) { c.Status(http.StatusNoContent) })
	return r
}

func TestRequireAuth_StoredSession(t *testing.T) {
	mem := store.NewMemoryStore()
	sessions := session.NewManager(nil, nil)
	device := uuid.NewString()
	require.NoError(t, sessions.Save(context.Background(), store.ForDevice(mem, device), "tok",
		session.Identity{UserID: 7, Email: "a@example.com", Role: "Customer"}))
	r := authRouter(sessions, mem)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set(DeviceHeader, device)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"key":"7","namespace":"`+device+`","token":"tok"}`, w.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set(DeviceHeader, device)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRequireAuth_BearerToken(t *testing.T) {
	secret := []byte("s3cret")
	sessions := session.NewManager(secret, nil)
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  "9",
		"role": "Manager",
		"exp":  time.Now().Add(time.Hour).Unix(),
	}).SignedString(secret)
	require.NoError(t, err)
	r := authRouter(sessions, store.NewMemoryStore())

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+tok+"x")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireAuth_BearerNamespace(t *testing.T) {
	sessions := session.NewManager(nil, nil)
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "9"}).SignedString([]byte("k"))
	require.NoError(t, err)
	r := authRouter(sessions, store.NewMemoryStore())

	me := func(device string) map[string]string {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer "+tok)
		if device != "" {
			req.Header.Set(DeviceHeader, device)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code)
		var body map[string]string
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		return body
	}

	// no device id: the namespace follows the identity, so it is stable
	assert.Equal(t, "user:9", me("")["namespace"])
	assert.Equal(t, "user:9", me("")["namespace"])

	device := uuid.NewString()
	assert.Equal(t, device, me(device)["namespace"])
}

func TestRequireAuth_Anonymous(t *testing.T) {
	r := authRouter(session.NewManager(nil, nil), store.NewMemoryStore())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/me", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"error":"Authentication required"}`, w.Body.String())
}

func TestGetOwner_Missing(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	_, err := GetOwner(c)
	assert.ErrorIs(t, err, apperrors.ErrAuthRequired)

	c.Set(OwnerContextKey, reconcile.Owner{})
	_, err = GetOwner(c)
	assert.ErrorIs(t, err, apperrors.ErrAuthRequired)
}

func TestRequestIDAndLogger(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	r := gin.New()
	r.Use(RequestID(), RequestLogger(zap.New(core)))
	r.GET("/ok", func(c *gin.Context) {
		assert.Equal(t, "rid-1", logger.RequestID(c.Request.Context()))
		c.Status(http.StatusOK)
	})
	r.GET("/bad", func(c *gin.Context) { c.Status(http.StatusBadRequest) })
	r.GET("/boom", func(c *gin.Context) { c.Status(http.StatusBadGateway) })

	req := httptest.NewRequest(http.MethodGet, "/ok", nil)
	req.Header.Set(RequestIDHeader, "rid-1")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "rid-1", w.Header().Get(RequestIDHeader))

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/bad", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/boom", nil))

	entries := logs.FilterMessage("http_request").All()
	require.Len(t, entries, 3)
	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	assert.Equal(t, "rid-1", entries[0].ContextMap()["request_id"])
	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
	assert.Equal(t, zapcore.ErrorLevel, entries[2].Level)
}

func TestSecurityHeaders(t *testing.T) {
	r := gin.New()
	r.Use(SecurityHeaders())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
}

func TestRateLimit(t *testing.T) {
	limiter := NewRateLimiter(rate.Every(time.Hour), 2, time.Minute)
	r := gin.New()
	r.Use(RateLimitWith(limiter))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		codes = append(codes, w.Code)
	}
	assert.Equal(t, []int{200, 200, 429}, codes)
}

func TestRateLimiter_SweepsIdleEntries(t *testing.T) {
	now := time.Now()
	limiter := NewRateLimiter(rate.Inf, 1, time.Minute)
	limiter.now = func() time.Time { return now }

	limiter.GetLimiter("1.1.1.1")
	limiter.GetLimiter("2.2.2.2")
	assert.Equal(t, 2, limiter.size())

	now = now.Add(2 * time.Minute)
	limiter.GetLimiter("2.2.2.2")
	assert.Equal(t, 1, limiter.size())
}

func TestMetricsMiddleware_DisabledPassesThrough(t *testing.T) {
	r := gin.New()
	r.Use(MetricsMiddleware(nil, "raffle-bff"))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusTeapot) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTeapot, w.Code)

	var disabled *awspkg.MetricsClient
	assert.False(t, disabled.IsEnabled())
}

type recordedMetric struct {
	name       string
	dimensions map[string]string
}

type fakeRequestMetrics struct {
	recorded chan recordedMetric
}

func (f *fakeRequestMetrics) IsEnabled() bool { return true }

func (f *fakeRequestMetrics) RecordCount(_ context.Context, name string, dims map[string]string) error {
	f.recorded <- recordedMetric{name, dims}
	return nil
}

func (f *fakeRequestMetrics) RecordLatency(_ context.Context, name string, _ time.Duration, dims map[string]string) error {
	f.recorded <- recordedMetric{name, dims}
	return nil
}

func TestMetricsMiddleware_DimensionsByAreaAndCaller(t *testing.T) {
	metrics := &fakeRequestMetrics{recorded: make(chan recordedMetric, 16)}
	r := gin.New()
	r.Use(MetricsMiddleware(metrics, "raffle-bff"))
	r.POST("/bff/cart/items", func(c *gin.Context) {
		c.Set(OwnerContextKey, reconcile.Owner{Identity: session.Identity{UserID: 7, Role: session.RoleCustomer}})
		c.Status(http.StatusConflict)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/bff/cart/items", nil))
	require.Equal(t, http.StatusConflict, w.Code)

	names := map[string]bool{}
	for i := 0; i < 4; i++ {
		select {
		case m := <-metrics.recorded:
			names[m.name] = true
			assert.Equal(t, map[string]string{
				"Service": "raffle-bff",
				"Method":  http.MethodPost,
				"Area":    "cart",
				"Caller":  "shopper",
				"Status":  "4xx",
			}, m.dimensions)
		case <-time.After(time.Second):
			t.Fatal("metrics not recorded")
		}
	}
	assert.Equal(t, map[string]bool{
		awspkg.MetricHTTPRequests: true,
		awspkg.MetricHTTPLatency:  true,
		awspkg.MetricHTTPErrors:   true,
		awspkg.MetricHTTP4xx:      true,
	}, names)
}

func TestRouteArea(t *testing.T) {
	cases := map[string]string{
		"":                          "unmatched",
		"/health":                   "health",
		"/bff/gifts/:id":            "gifts",
		"/bff/admin/raffle/:giftId": "admin",
		"/bff/cart":                 "cart",
	}
	for in, want := range cases {
		assert.Equal(t, want, routeArea(in), in)
	}
}

func TestCallerKind(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	assert.Equal(t, "anonymous", callerKind(c))

	c.Set(OwnerContextKey, reconcile.Owner{Identity: session.Identity{UserID: 1, Role: session.RoleManager}})
	assert.Equal(t, "admin", callerKind(c))

	c.Set(OwnerContextKey, reconcile.Owner{Identity: session.Identity{Email: "a@example.com"}})
	assert.Equal(t, "shopper", callerKind(c))
}

func TestStatusCodeToRange(t *testing.T) {
	assert.Equal(t, "2xx", statusCodeToRange(204))
	assert.Equal(t, "3xx", statusCodeToRange(302))
	assert.Equal(t, "4xx", statusCodeToRange(404))
	assert.Equal(t, "5xx", statusCodeToRange(503))
	assert.Equal(t, "unknown", statusCodeToRange(100))
}

func TestRequestTimeout(t *testing.T) {
	r := gin.New()
	r.Use(RequestTimeout(time.Minute, "/stream"))
	r.GET("/bounded", func(c *gin.Context) {
		_, ok := c.Request.Context().Deadline()
		c.JSON(http.StatusOK, gin.H{"deadline": ok})
	})
	r.GET("/stream", func(c *gin.Context) {
		_, ok := c.Request.Context().Deadline()
		c.JSON(http.StatusOK, gin.H{"deadline": ok})
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/bounded", nil))
	assert.JSONEq(t, `{"deadline":true}`, w.Body.String())

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/stream", nil))
	assert.JSONEq(t, `{"deadline":false}`, w.Body.String())
}
