package http

import (
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	applogger "TechPulse/pkg/logger"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// oncePerKey admits the first request of every key.
type oncePerKey struct {
	mu   sync.Mutex
	seen map[string]bool
}

func (l *oncePerKey) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.seen[key] {
		return false
	}
	l.seen[key] = true
	return true
}

type pingHandler struct{}

func (pingHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/ping", func(c echo.Context) error { return c.String(http.StatusOK, c.RealIP()) })
}

func rotateForwarded(t *testing.T, srv *Server, remote string, n int) (limited int, seen []string) {
	t.Helper()
	for i := 0; i < n; i++ {
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.RemoteAddr = remote
		req.Header.Set(echo.HeaderXForwardedFor, fmt.Sprintf("198.51.100.%d", i+1))
		req.Header.Set(echo.HeaderXRealIP, fmt.Sprintf("192.0.2.%d", i+1))
		rec := httptest.NewRecorder()
		srv.Echo().ServeHTTP(rec, req)
		if rec.Code == http.StatusTooManyRequests {
			limited++
			continue
		}
		require.Equal(t, http.StatusOK, rec.Code)
		seen = append(seen, rec.Body.String())
	}
	return limited, seen
}

func TestServer_RateLimitIgnoresSpoofedForwarding(t *testing.T) {
	srv := NewServer(applogger.Nop(), []Handler{pingHandler{}},
		WithRateLimiter(&oncePerKey{seen: map[string]bool{}}))

	limited, seen := rotateForwarded(t, srv, "203.0.113.7:40000", 50)

	assert.Equal(t, 49, limited)
	assert.Equal(t, []string{"203.0.113.7"}, seen)
}

func TestServer_TrustedProxyForwardsClientIP(t *testing.T) {
	_, proxies, err := net.ParseCIDR("10.0.0.0/8")
	require.NoError(t, err)
	srv := NewServer(applogger.Nop(), []Handler{pingHandler{}},
		WithRateLimiter(&oncePerKey{seen: map[string]bool{}}),
		WithTrustedProxies(proxies))

	limited, seen := rotateForwarded(t, srv, "10.1.2.3:40000", 3)
	assert.Zero(t, limited)
	assert.Equal(t, []string{"198.51.100.1", "198.51.100.2", "198.51.100.3"}, seen)

	// A peer outside the trusted range is keyed by its own address.
	limited, seen = rotateForwarded(t, srv, "203.0.113.7:40000", 3)
	assert.Equal(t, 2, limited)
	assert.Equal(t, []string{"203.0.113.7"}, seen)
}
