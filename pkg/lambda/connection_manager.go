package lambda

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/aws/aws-lambda-go/events"

	"tailor-billing-api/internal/config"
	"tailor-billing-api/pkg/server"
)

// ConnectionManager keeps one container alive across warm Lambda invocations
type ConnectionManager struct {
	mu        sync.Mutex
	container *server.Container
	handler   ProxyHandler
	lastUsed  time.Time
	load      func() (*config.Config, error)
}

var (
	globalConnectionManager *ConnectionManager
	connectionManagerOnce   sync.Once
)

// GetConnectionManager returns the global connection manager instance
func GetConnectionManager() *ConnectionManager {
	connectionManagerOnce.Do(func() {
		globalConnectionManager = NewConnectionManager(config.GetOptimizedConfig)
	})
	return globalConnectionManager
}

// NewConnectionManager creates a manager that builds its container from load
func NewConnectionManager(load func() (*config.Config, error)) *ConnectionManager {
	return &ConnectionManager{load: load}
}

// GetContainer returns the container, creating it on first use. A failed
// initialization is retried on the next call.
func (cm *ConnectionManager) GetContainer(ctx context.Context) (*server.Container, error) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if cm.container == nil {
		cfg, err := cm.load()
		if err != nil {
			return nil, err
		}
		container, err := server.NewContainer(ctx, cfg, nil)
		if err != nil {
			return nil, err
		}
		cm.container = container
		cm.handler = NewProxyHandler(container.Router())
	}

	cm.lastUsed = time.Now()
	return cm.container, nil
}

// Handle serves one API Gateway proxy event
func (cm *ConnectionManager) Handle(ctx context.Context, event events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	if _, err := cm.GetContainer(ctx); err != nil {
		return events.APIGatewayProxyResponse{
			StatusCode: http.StatusServiceUnavailable,
			Headers:    map[string]string{"Content-Type": "application/json"},
			Body:       `{"error":"InternalError","message":"service unavailable"}`,
		}, nil
	}

	cm.mu.Lock()
	handler := cm.handler
	cm.mu.Unlock()
	return handler(ctx, event)
}

// IsHealthy reports whether a container exists and was used in the last five minutes
func (cm *ConnectionManager) IsHealthy() bool {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	return cm.container != nil && time.Since(cm.lastUsed) < 5*time.Minute
}

// Cleanup closes the container so the next invocation reconnects
func (cm *ConnectionManager) Cleanup() error {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if cm.container == nil {
		return nil
	}
	err := cm.container.Close()
	cm.container = nil
	cm.handler = nil
	return err
}
