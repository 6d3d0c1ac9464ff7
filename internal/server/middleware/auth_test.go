package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/skillsenselab/skillloop/internal/auth/authctx"
	"github.com/skillsenselab/skillloop/internal/auth/token"
)

func testTokenService(t *testing.T) *token.Service {
	t.Helper()
	svc, err := token.New(token.Config{
		AccessSecret:  strings.Repeat("a", 64),
		RefreshSecret: strings.Repeat("r", 64),
		AccessTTL:     time.Hour,
		RefreshTTL:    24 * time.Hour,
	})
	if err != nil {
		t.Fatalf("failed to create token service: %v", err)
	}
	return svc
}

func newTestRouter(t *testing.T, cfg AuthConfig) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Auth(cfg))
	handler := func(c *gin.Context) {
		if id, ok := authctx.Get(c.Request.Context()); ok {
			c.JSON(http.StatusOK, gin.H{"email": id.Email})
			return
		}
		c.JSON(http.StatusOK, gin.H{"email": ""})
	}
	r.GET("/api/posts", handler)
	r.POST("/api/auth/login", handler)
	r.GET("/health", handler)
	return r
}

func doRequest(r *gin.Engine, method, path, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuth_PublicPathsBypass(t *testing.T) {
	r := newTestRouter(t, AuthConfig{Tokens: testTokenService(t)})

	for _, path := range []string{"/api/auth/login", "/health"} {
		method := http.MethodGet
		if strings.HasPrefix(path, "/api/auth") {
			method = http.MethodPost
		}
		w := doRequest(r, method, path, "")
		if w.Code != http.StatusOK {
			t.Errorf("public path %s rejected with %d", path, w.Code)
		}
	}
}

func TestAuth_MissingTokenRejected(t *testing.T) {
	r := newTestRouter(t, AuthConfig{Tokens: testTokenService(t)})

	w := doRequest(r, http.MethodGet, "/api/posts", "")
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 for missing token, got %d", w.Code)
	}
}

func TestAuth_AllowAnonymousPassesThrough(t *testing.T) {
	r := newTestRouter(t, AuthConfig{Tokens: testTokenService(t), AllowAnonymous: true})

	w := doRequest(r, http.MethodGet, "/api/posts", "")
	if w.Code != http.StatusOK {
		t.Errorf("expected 200 with allow_anonymous, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"email":""`) {
		t.Errorf("expected empty identity, got %s", w.Body.String())
	}
}

func TestAuth_ValidTokenSetsIdentity(t *testing.T) {
	svc := testTokenService(t)
	r := newTestRouter(t, AuthConfig{Tokens: svc})

	access, _, err := svc.Issue("alice@example.com", "local", token.RoleAccess)
	if err != nil {
		t.Fatalf("failed to issue token: %v", err)
	}

	w := doRequest(r, http.MethodGet, "/api/posts", "Bearer "+access)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), "alice@example.com") {
		t.Errorf("identity not propagated: %s", w.Body.String())
	}
}

func TestAuth_ExpiredToken(t *testing.T) {
	expiredSvc, err := token.New(token.Config{
		AccessSecret:  strings.Repeat("a", 64),
		RefreshSecret: strings.Repeat("r", 64),
		AccessTTL:     -time.Minute,
		RefreshTTL:    24 * time.Hour,
	})
	if err != nil {
		t.Fatalf("failed to create token service: %v", err)
	}
	access, _, err := expiredSvc.Issue("alice@example.com", "local", token.RoleAccess)
	if err != nil {
		t.Fatalf("failed to issue token: %v", err)
	}

	r := newTestRouter(t, AuthConfig{Tokens: expiredSvc})
	w := doRequest(r, http.MethodGet, "/api/posts", "Bearer "+access)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 for expired token, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "Token expired") {
		t.Errorf("expected token-expired body, got %s", w.Body.String())
	}
}

func TestAuth_MalformedToken(t *testing.T) {
	r := newTestRouter(t, AuthConfig{Tokens: testTokenService(t)})

	w := doRequest(r, http.MethodGet, "/api/posts", "Bearer not.a.jwt")
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 for malformed token, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "Invalid token") {
		t.Errorf("expected invalid-token body, got %s", w.Body.String())
	}
}

func TestAuth_RefreshTokenRejectedOnAPI(t *testing.T) {
	svc := testTokenService(t)
	r := newTestRouter(t, AuthConfig{Tokens: svc})

	refresh, _, err := svc.Issue("alice@example.com", "local", token.RoleRefresh)
	if err != nil {
		t.Fatalf("failed to issue refresh token: %v", err)
	}

	w := doRequest(r, http.MethodGet, "/api/posts", "Bearer "+refresh)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 for refresh token on API path, got %d", w.Code)
	}
}

func TestBearerToken(t *testing.T) {
	cases := []struct {
		header string
		want   string
		ok     bool
	}{
		{"Bearer abc", "abc", true},
		{"bearer abc", "abc", true},
		{"Bearer  abc ", "abc", true},
		{"Basic abc", "", false},
		{"Bearer ", "", false},
		{"", "", false},
		{"abc", "", false},
	}
	for _, tc := range cases {
		got, ok := bearerToken(tc.header)
		if got != tc.want || ok != tc.ok {
			t.Errorf("bearerToken(%q) = (%q, %v), want (%q, %v)", tc.header, got, ok, tc.want, tc.ok)
		}
	}
}
