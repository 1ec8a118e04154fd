package middleware

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// RequestIDKey is the key used to store request ID in context
const RequestIDKey = "request_id"

// RequestID middleware adds a unique request ID to each request
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}

		c.Set(RequestIDKey, requestID)
		c.Header("X-Request-ID", requestID)
		c.Next()
	}
}

// StructuredLogger logs every request with its context once the handler returns
func StructuredLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		raw := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()

		fields := logrus.Fields{
			"request_id":    c.GetString(RequestIDKey),
			"method":        c.Request.Method,
			"path":          path,
			"status_code":   status,
			"latency_ms":    float64(latency.Nanoseconds()) / 1000000,
			"client_ip":     c.ClientIP(),
			"response_size": c.Writer.Size(),
		}
		if raw != "" {
			fields["query"] = raw
		}
		if username := c.GetString(UsernameKey); username != "" {
			fields["username"] = username
		}
		if len(c.Errors) > 0 {
			fields["errors"] = c.Errors.String()
		}

		entry := logger.WithFields(fields)
		switch {
		case status >= 500:
			entry.Error("Server error")
		case status >= 400:
			entry.Warn("Client error")
		default:
			entry.Info("Request completed")
		}
	}
}

// AuditLogger records write operations on bills, receipts and taxes
func AuditLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		switch c.Request.Method {
		case "GET", "HEAD", "OPTIONS":
			c.Next()
			return
		}

		c.Next()

		path := c.Request.URL.Path
		fields := logrus.Fields{
			"audit":       true,
			"request_id":  c.GetString(RequestIDKey),
			"username":    c.GetString(UsernameKey),
			"method":      c.Request.Method,
			"path":        path,
			"status_code": c.Writer.Status(),
		}

		switch c.Request.Method {
		case "POST":
			fields["operation"] = "CREATE"
		case "PUT", "PATCH":
			fields["operation"] = "UPDATE"
		case "DELETE":
			fields["operation"] = "DELETE"
		}

		if resource, id := resourceOf(path); resource != "" {
			fields["resource_type"] = resource
			if id != "" {
				fields["resource_id"] = id
			}
		}

		logger.WithFields(fields).Info("Audit log")
	}
}

var resourceNames = map[string]string{
	"bills":    "bill",
	"receipts": "receipt",
	"taxes":    "tax",
}

// resourceOf finds the first known collection segment and the identifier after it
func resourceOf(path string) (resource, id string) {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	for i, part := range parts {
		name, ok := resourceNames[part]
		if !ok {
			continue
		}
		if i+1 < len(parts) {
			return name, parts[i+1]
		}
		return name, ""
	}
	return "", ""
}
