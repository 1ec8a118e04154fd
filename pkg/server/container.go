package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"tailor-billing-api/internal/adapters/storage"
	"tailor-billing-api/internal/config"
	"tailor-billing-api/internal/database"
	"tailor-billing-api/internal/handlers"
	"tailor-billing-api/internal/locking"
	"tailor-billing-api/internal/middleware"
	"tailor-billing-api/internal/repositories"
	"tailor-billing-api/internal/repositories/mongodb"
	"tailor-billing-api/internal/repositories/sqlite"
	"tailor-billing-api/internal/services"
)

// Container holds all application dependencies
type Container struct {
	Config   *config.Config
	Logger   *logrus.Logger
	Store    repositories.Store
	Locker   locking.Locker
	Services *services.ServiceContainer

	closers []io.Closer
}

// NewContainer opens storage and the lock backend named by cfg and wires the services
func NewContainer(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (*Container, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if logger == nil {
		logger = config.NewLogger(cfg.Log)
	}

	c := &Container{Config: cfg, Logger: logger}

	store, err := openStore(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	c.Store = store
	c.closers = append(c.closers, store)

	locker, err := openLocker(cfg, logger)
	if err != nil {
		c.Close()
		return nil, err
	}
	c.Locker = locker
	if closer, ok := locker.(io.Closer); ok {
		c.closers = append(c.closers, closer)
	}

	archive, err := storage.New(cfg.StorageConfig(), storage.DefaultRetryConfig())
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to open report archive: %w", err)
	}
	if archive != nil {
		c.closers = append(c.closers, archive)
	}

	serviceConfig := services.DefaultServiceConfig()
	serviceConfig.Archive = archive
	serviceConfig.Validator.OverpaymentTolerance = cfg.Billing.OverpaymentTolerance
	serviceConfig.Retry = cfg.RetryConfig()
	serviceConfig.ReportConcurrency = cfg.ReportConcurrency
	serviceConfig.Shop = services.ShopInfo{
		Name:    cfg.Shop.Name,
		Address: cfg.Shop.Address,
		Phone:   cfg.Shop.Phone,
	}

	svc, err := services.NewServiceContainer(store, locker, serviceConfig, logger)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to create service container: %w", err)
	}
	c.Services = svc

	if err := c.seedTaxes(ctx); err != nil {
		c.Close()
		return nil, err
	}

	fields := logrus.Fields{
		"driver": cfg.Database.Driver,
		"lock":   cfg.Lock.Backend,
		"mode":   config.GetDeploymentMode(),
	}
	if sc := config.GetServerlessConfig(); sc.IsLambda {
		fields["function"] = sc.FunctionName
		fields["region"] = sc.Region
		fields["stage"] = sc.Stage
	}
	logger.WithFields(fields).Info("Container initialized")
	return c, nil
}

func openStore(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (repositories.Store, error) {
	repoConfig := cfg.RepositoryConfig()
	factory := database.NewConnectionFactory(logger)

	switch repoConfig.Database.Driver {
	case repositories.DriverMongoDB:
		client, db, err := factory.CreateMongoConnection(ctx, repoConfig)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
		}
		store := mongodb.NewStore(client, db, logger)
		if err := store.EnsureIndexes(ctx); err != nil {
			store.Close()
			return nil, fmt.Errorf("failed to create indexes: %w", err)
		}
		return store, nil

	default:
		if err := database.NewMigrationManager(repoConfig.Database.Path, logger).RunMigrations(); err != nil {
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
		db, err := factory.CreateSQLiteConnection(ctx, repoConfig)
		if err != nil {
			return nil, fmt.Errorf("failed to open SQLite database: %w", err)
		}
		return sqlite.NewStore(db, logger), nil
	}
}

func openLocker(cfg *config.Config, logger *logrus.Logger) (locking.Locker, error) {
	if cfg.Lock.Backend != config.LockBackendRedis {
		return locking.NewKeyedMutex(), nil
	}

	locker, err := locking.NewRedisLocker(locking.RedisConfig{
		Addr:     cfg.Lock.RedisAddr,
		Password: cfg.Lock.RedisPassword,
		DB:       cfg.Lock.RedisDB,
		TTL:      cfg.Lock.TTL,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create redis locker: %w", err)
	}
	return locker, nil
}

// seedTaxes creates the configured default taxes that do not exist yet
func (c *Container) seedTaxes(ctx context.Context) error {
	for _, tax := range c.Config.TaxDefaults {
		_, err := c.Services.TaxService.CreateTax(ctx, &services.TaxRequest{
			Name:  tax.Name,
			Type:  tax.Type,
			Value: tax.Value,
		})
		switch {
		case err == nil:
			c.Logger.WithField("tax", tax.Name).Info("Default tax created")
		case repositories.IsDuplicate(err):
		default:
			return fmt.Errorf("failed to seed tax %q: %w", tax.Name, err)
		}
	}
	return nil
}

// Router builds the HTTP router for the container's services
func (c *Container) Router() *gin.Engine {
	routerConfig := &handlers.RouterConfig{
		Services:    c.Services,
		Health:      c.Store,
		CORSOrigins: c.Config.CORSOrigins,
		Logger:      c.Logger,
	}
	if c.Config.JWT.Enabled {
		routerConfig.AuthService = middleware.NewAuthService(&middleware.AuthConfig{
			JWTSecret:     c.Config.JWT.Secret,
			TokenDuration: time.Duration(c.Config.JWT.ExpiryHours) * time.Hour,
		})
	}
	if c.Config.RateLimit.RPS > 0 {
		routerConfig.RateLimiter = middleware.NewRateLimiter(c.Config.RateLimit.RPS, c.Config.RateLimit.Burst, c.Logger)
	}
	return handlers.NewRouter(routerConfig)
}

// Close cleans up all resources in reverse order of creation
func (c *Container) Close() error {
	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	c.closers = nil
	return errors.Join(errs...)
}
