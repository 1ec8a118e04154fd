package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func newRouter(handlers ...gin.HandlerFunc) *gin.Engine {
	router := gin.New()
	router.Use(handlers...)
	router.Any("/api/v1/*path", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"username": GetUsername(c), "requestId": c.GetString(RequestIDKey)})
	})
	return router
}

func TestRequestID(t *testing.T) {
	router := newRouter(RequestID())

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/bills", nil))
	if w.Header().Get("X-Request-ID") == "" {
		t.Error("expected generated X-Request-ID")
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/bills", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if got := w.Header().Get("X-Request-ID"); got != "abc-123" {
		t.Errorf("X-Request-ID = %q, want abc-123", got)
	}
}

func TestAuthentication(t *testing.T) {
	auth := NewAuthService(&AuthConfig{JWTSecret: "secret"})
	router := newRouter(RequestID(), Authentication(auth, quietLogger()))

	valid, err := auth.GenerateToken("asha", []string{"staff"})
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}
	other, _ := NewAuthService(&AuthConfig{JWTSecret: "other"}).GenerateToken("asha", nil)
	expired, _ := NewAuthService(&AuthConfig{JWTSecret: "secret", TokenDuration: -time.Minute}).GenerateToken("asha", nil)
	anonymous, _ := auth.GenerateToken("", nil)

	tests := []struct {
		name       string
		header     string
		wantStatus int
	}{
		{"valid token", "Bearer " + valid, http.StatusOK},
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic " + valid, http.StatusUnauthorized},
		{"wrong secret", "Bearer " + other, http.StatusUnauthorized},
		{"expired", "Bearer " + expired, http.StatusUnauthorized},
		{"no username", "Bearer " + anonymous, http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/bills", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d: %s", w.Code, tt.wantStatus, w.Body.String())
			}
			if tt.wantStatus == http.StatusOK && !strings.Contains(w.Body.String(), `"username":"asha"`) {
				t.Errorf("body = %s, want username asha", w.Body.String())
			}
		})
	}
}

func TestRateLimiter(t *testing.T) {
	limiter := NewRateLimiter(0.001, 2, quietLogger())
	router := newRouter(limiter.Middleware())

	codes := make([]int, 3)
	for i := range codes {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/bills", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		codes[i] = w.Code
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusOK || codes[2] != http.StatusTooManyRequests {
		t.Errorf("codes = %v, want [200 200 429]", codes)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/bills", nil)
	req.RemoteAddr = "10.0.0.2:1234"
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("other client status = %d, want 200", w.Code)
	}

	if limiter.Clients() != 2 {
		t.Errorf("Clients() = %d, want 2", limiter.Clients())
	}
	limiter.Prune(time.Now().Add(time.Hour))
	if limiter.Clients() != 0 {
		t.Errorf("Clients() after prune = %d, want 0", limiter.Clients())
	}
}

func TestContentTypeValidation(t *testing.T) {
	router := newRouter(ContentTypeValidation())

	tests := []struct {
		name        string
		method      string
		contentType string
		wantStatus  int
	}{
		{"json post", http.MethodPost, "application/json; charset=utf-8", http.StatusOK},
		{"form post", http.MethodPost, "application/x-www-form-urlencoded", http.StatusUnsupportedMediaType},
		{"missing on patch", http.MethodPatch, "", http.StatusUnsupportedMediaType},
		{"get ignored", http.MethodGet, "", http.StatusOK},
		{"delete ignored", http.MethodDelete, "", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/api/v1/taxes", strings.NewReader("{}"))
			if tt.contentType != "" {
				req.Header.Set("Content-Type", tt.contentType)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
		})
	}
}

func TestRequestSizeLimit(t *testing.T) {
	router := newRouter(RequestSizeLimit(8))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/receipts", strings.NewReader(`{"amount": 100000}`))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("status = %d, want 413", w.Code)
	}
}

func TestCORS(t *testing.T) {
	router := newRouter(CORS([]string{"https://shop.example"}))

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/bills", nil)
	req.Header.Set("Origin", "https://shop.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "https://shop.example" {
		t.Errorf("Access-Control-Allow-Origin = %q", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/bills", nil)
	req.Header.Set("Origin", "https://evil.example")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusForbidden {
		t.Errorf("disallowed origin status = %d, want 403", w.Code)
	}
}

func TestResourceOf(t *testing.T) {
	tests := []struct {
		path         string
		wantResource string
		wantID       string
	}{
		{"/api/v1/receipts", "receipt", ""},
		{"/api/v1/bills/12/delivery", "bill", "12"},
		{"/api/v1/taxes/GST", "tax", "GST"},
		{"/health", "", ""},
	}

	for _, tt := range tests {
		resource, id := resourceOf(tt.path)
		if resource != tt.wantResource || id != tt.wantID {
			t.Errorf("resourceOf(%q) = (%q, %q), want (%q, %q)", tt.path, resource, id, tt.wantResource, tt.wantID)
		}
	}
}
