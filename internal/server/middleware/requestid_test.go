package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func requestIDRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID())
	r.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(ContextRequestID))
	})
	return r
}

func TestRequestID_GeneratesWhenMissing(t *testing.T) {
	r := requestIDRouter()

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))

	header := w.Header().Get(HeaderRequestID)
	if header == "" {
		t.Fatal("no request id in response")
	}
	if w.Body.String() != header {
		t.Errorf("context id %q != header id %q", w.Body.String(), header)
	}
}

func TestRequestID_KeepsCallerID(t *testing.T) {
	r := requestIDRouter()

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(HeaderRequestID, "trace-42")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if got := w.Header().Get(HeaderRequestID); got != "trace-42" {
		t.Errorf("response id = %q, want trace-42", got)
	}
	if w.Body.String() != "trace-42" {
		t.Errorf("context id = %q, want trace-42", w.Body.String())
	}
}
