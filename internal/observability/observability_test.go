package observability

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func TestSampler_Boundaries(t *testing.T) {
	cases := []struct {
		rate float64
		want sdktrace.Sampler
	}{
		{1.0, sdktrace.AlwaysSample()},
		{1.5, sdktrace.AlwaysSample()},
		{0, sdktrace.NeverSample()},
		{-0.5, sdktrace.NeverSample()},
	}
	for _, tc := range cases {
		if got := sampler(tc.rate); got.Description() != tc.want.Description() {
			t.Errorf("sampler(%v) = %s, want %s", tc.rate, got.Description(), tc.want.Description())
		}
	}
}

func TestSampler_Ratio(t *testing.T) {
	got := sampler(0.25)
	want := sdktrace.TraceIDRatioBased(0.25)
	if got.Description() != want.Description() {
		t.Errorf("sampler(0.25) = %s, want %s", got.Description(), want.Description())
	}
}

func TestMiddleware_PassesRequestThrough(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Middleware("skillloop-test", nil))
	r.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if w.Body.String() != "pong" {
		t.Errorf("body = %q", w.Body.String())
	}
}

func TestMiddleware_UnmatchedRoute(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Middleware("skillloop-test", nil))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/nope", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
}
