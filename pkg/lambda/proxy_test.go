package lambda

import (
	"context"
	"encoding/base64"
	"io"
	"net/http"
	"testing"

	"github.com/aws/aws-lambda-go/events"
	"github.com/gin-gonic/gin"
)

func newTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/bills/:billNumber", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"billNumber": c.Param("billNumber"),
			"status":     c.Query("status"),
			"client":     c.GetHeader("X-Client"),
		})
	})
	r.POST("/echo", func(c *gin.Context) {
		body, _ := io.ReadAll(c.Request.Body)
		c.Data(http.StatusCreated, "application/json", body)
	})
	r.GET("/export", func(c *gin.Context) {
		c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", []byte{0x50, 0x4b, 0x03})
	})
	return r
}

func TestProxyHandler(t *testing.T) {
	handler := NewProxyHandler(newTestRouter())

	tests := []struct {
		name       string
		event      events.APIGatewayProxyRequest
		wantStatus int
		wantBody   string
		wantBinary bool
	}{
		{
			name: "path query and headers",
			event: events.APIGatewayProxyRequest{
				HTTPMethod:            http.MethodGet,
				Path:                  "/bills/7",
				QueryStringParameters: map[string]string{"status": "Paid"},
				Headers:               map[string]string{"X-Client": "counter"},
			},
			wantStatus: http.StatusOK,
			wantBody:   `{"billNumber":"7","client":"counter","status":"Paid"}`,
		},
		{
			name: "base64 request body",
			event: events.APIGatewayProxyRequest{
				HTTPMethod:      http.MethodPost,
				Path:            "/echo",
				Body:            base64.StdEncoding.EncodeToString([]byte(`{"amount":100}`)),
				IsBase64Encoded: true,
			},
			wantStatus: http.StatusCreated,
			wantBody:   `{"amount":100}`,
		},
		{
			name: "binary response",
			event: events.APIGatewayProxyRequest{
				HTTPMethod: http.MethodGet,
				Path:       "/export",
			},
			wantStatus: http.StatusOK,
			wantBody:   base64.StdEncoding.EncodeToString([]byte{0x50, 0x4b, 0x03}),
			wantBinary: true,
		},
		{
			name: "unknown route",
			event: events.APIGatewayProxyRequest{
				HTTPMethod: http.MethodGet,
				Path:       "/missing",
			},
			wantStatus: http.StatusNotFound,
		},
		{
			name: "malformed base64",
			event: events.APIGatewayProxyRequest{
				HTTPMethod:      http.MethodPost,
				Path:            "/echo",
				Body:            "%%%",
				IsBase64Encoded: true,
			},
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := handler(context.Background(), tt.event)
			if err != nil {
				t.Fatalf("handler() error = %v", err)
			}
			if resp.StatusCode != tt.wantStatus {
				t.Errorf("StatusCode = %d, want %d", resp.StatusCode, tt.wantStatus)
			}
			if tt.wantBody != "" && resp.Body != tt.wantBody {
				t.Errorf("Body = %q, want %q", resp.Body, tt.wantBody)
			}
			if resp.IsBase64Encoded != tt.wantBinary {
				t.Errorf("IsBase64Encoded = %v, want %v", resp.IsBase64Encoded, tt.wantBinary)
			}
		})
	}
}

func TestIsTextContent(t *testing.T) {
	tests := []struct {
		contentType string
		want        bool
	}{
		{"", true},
		{"application/json; charset=utf-8", true},
		{"text/plain", true},
		{"application/xml", true},
		{"application/octet-stream", false},
		{"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", false},
	}

	for _, tt := range tests {
		if got := isTextContent(tt.contentType); got != tt.want {
			t.Errorf("isTextContent(%q) = %v, want %v", tt.contentType, got, tt.want)
		}
	}
}
