// Package lambda runs the HTTP router behind API Gateway proxy integrations.
package lambda

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/aws/aws-lambda-go/events"
)

// ProxyHandler is the signature aws-lambda-go expects for API Gateway proxy events
type ProxyHandler func(ctx context.Context, event events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error)

// NewProxyHandler serves API Gateway proxy events with an http.Handler
func NewProxyHandler(handler http.Handler) ProxyHandler {
	return func(ctx context.Context, event events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
		req, err := toHTTPRequest(ctx, event)
		if err != nil {
			return events.APIGatewayProxyResponse{
				StatusCode: http.StatusBadRequest,
				Headers:    map[string]string{"Content-Type": "application/json"},
				Body:       `{"error":"InvalidRequestError","message":"malformed proxy event"}`,
			}, nil
		}

		w := newResponseWriter()
		handler.ServeHTTP(w, req)
		return w.toProxyResponse(), nil
	}
}

func toHTTPRequest(ctx context.Context, event events.APIGatewayProxyRequest) (*http.Request, error) {
	query := url.Values{}
	for key, values := range event.MultiValueQueryStringParameters {
		for _, v := range values {
			query.Add(key, v)
		}
	}
	for key, v := range event.QueryStringParameters {
		if _, ok := query[key]; !ok {
			query.Set(key, v)
		}
	}

	target := event.Path
	if encoded := query.Encode(); encoded != "" {
		target += "?" + encoded
	}

	body := []byte(event.Body)
	if event.IsBase64Encoded {
		decoded, err := base64.StdEncoding.DecodeString(event.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to decode body: %w", err)
		}
		body = decoded
	}

	req, err := http.NewRequestWithContext(ctx, event.HTTPMethod, target, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	for key, values := range event.MultiValueHeaders {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}
	for key, v := range event.Headers {
		if req.Header.Get(key) == "" {
			req.Header.Set(key, v)
		}
	}
	if sourceIP := event.RequestContext.Identity.SourceIP; sourceIP != "" {
		req.RemoteAddr = sourceIP + ":0"
	}
	req.ContentLength = int64(len(body))
	return req, nil
}

// responseWriter buffers a response for conversion into a proxy response
type responseWriter struct {
	header http.Header
	body   bytes.Buffer
	status int
}

func newResponseWriter() *responseWriter {
	return &responseWriter{header: http.Header{}}
}

func (w *responseWriter) Header() http.Header {
	return w.header
}

func (w *responseWriter) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	return w.body.Write(b)
}

func (w *responseWriter) WriteHeader(status int) {
	if w.status == 0 {
		w.status = status
	}
}

func (w *responseWriter) toProxyResponse() events.APIGatewayProxyResponse {
	status := w.status
	if status == 0 {
		status = http.StatusOK
	}

	resp := events.APIGatewayProxyResponse{
		StatusCode:        status,
		Headers:           make(map[string]string, len(w.header)),
		MultiValueHeaders: map[string][]string(w.header),
	}
	for key := range w.header {
		resp.Headers[key] = w.header.Get(key)
	}

	if isTextContent(w.header.Get("Content-Type")) {
		resp.Body = w.body.String()
	} else {
		resp.Body = base64.StdEncoding.EncodeToString(w.body.Bytes())
		resp.IsBase64Encoded = true
	}
	return resp
}

func isTextContent(contentType string) bool {
	if contentType == "" {
		return true
	}
	mainType := strings.TrimSpace(strings.Split(contentType, ";")[0])
	return strings.HasPrefix(mainType, "text/") ||
		strings.HasSuffix(mainType, "json") ||
		strings.HasSuffix(mainType, "xml") ||
		mainType == "application/javascript"
}
