package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"tailor-billing-api/internal/middleware"
	"tailor-billing-api/internal/services"
)

// maxRequestBody bounds JSON request bodies
const maxRequestBody = 1 << 20

// HealthChecker reports whether the storage backend is reachable
type HealthChecker interface {
	Health(ctx context.Context) error
}

// RouterConfig holds configuration for setting up routes
type RouterConfig struct {
	Services    *services.ServiceContainer
	Health      HealthChecker
	AuthService *middleware.AuthService // nil disables authentication
	RateLimiter *middleware.RateLimiter // nil disables rate limiting
	CORSOrigins []string
	Logger      *logrus.Logger
}

// NewRouter builds the gin engine with middleware and routes
func NewRouter(config *RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	SetupMiddleware(router, config)
	SetupRoutes(router, config)
	return router
}

// SetupMiddleware configures global middleware
func SetupMiddleware(router *gin.Engine, config *RouterConfig) {
	router.Use(middleware.RequestID())
	router.Use(middleware.StructuredLogger(config.Logger))
	router.Use(middleware.CORS(config.CORSOrigins))
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.RequestSizeLimit(maxRequestBody))
	if config.RateLimiter != nil {
		router.Use(config.RateLimiter.Middleware())
	}
}

// SetupRoutes configures all API routes
func SetupRoutes(router *gin.Engine, config *RouterConfig) {
	receiptHandler := NewReceiptHandler(config.Services.ReceiptService)
	billHandler := NewBillHandler(config.Services.BillService)
	taxHandler := NewTaxHandler(config.Services.TaxService)
	reportHandler := NewReportHandler(config.Services.DashboardService, config.Services.ReportService)

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	router.GET("/health", healthHandler(config.Health))

	api := router.Group("/api/v1")
	if config.AuthService != nil {
		api.Use(middleware.Authentication(config.AuthService, config.Logger))
	}
	api.Use(middleware.ContentTypeValidation())
	api.Use(middleware.AuditLogger(config.Logger))
	{
		receipts := api.Group("/receipts")
		{
			receipts.POST("", receiptHandler.CreateReceipt)
			receipts.GET("", receiptHandler.ListReceipts)
			receipts.GET("/:receiptNumber", receiptHandler.GetReceipt)
			receipts.GET("/:receiptNumber/print", receiptHandler.PrintReceipt)
		}

		bills := api.Group("/bills")
		{
			bills.POST("", billHandler.CreateBill)
			bills.GET("", billHandler.ListBills)
			bills.GET("/:billNumber", billHandler.GetBill)
			bills.PATCH("/:billNumber/delivery", billHandler.UpdateDeliveryStatus)
		}

		taxes := api.Group("/taxes")
		{
			taxes.GET("", taxHandler.ListTaxes)
			taxes.POST("", taxHandler.CreateTax)
			taxes.GET("/:name", taxHandler.GetTax)
			taxes.PUT("/:name", taxHandler.UpdateTax)
			taxes.DELETE("/:name", taxHandler.DeleteTax)
		}

		api.GET("/dashboard/stats", reportHandler.GetStats)
		api.GET("/reports/bills.xlsx", reportHandler.ExportBills)
		api.POST("/reports/archive", reportHandler.ArchiveBills)
		api.GET("/reports/archive", reportHandler.ListArchive)
		api.GET("/reports/archive/:name", reportHandler.GetArchived)
	}
}

func healthHandler(checker HealthChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		body := gin.H{
			"status":  "healthy",
			"service": "tailor-billing-api",
			"version": "1.0.0",
		}
		if checker != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			if err := checker.Health(ctx); err != nil {
				body["status"] = "unhealthy"
				body["error"] = err.Error()
				c.JSON(http.StatusServiceUnavailable, body)
				return
			}
		}
		c.JSON(http.StatusOK, body)
	}
}
