package config

import (
	"os"
	"sync"

	"tailor-billing-api/internal/repositories"
)

// ServerlessConfig holds serverless-specific configuration
type ServerlessConfig struct {
	IsLambda     bool
	FunctionName string
	Region       string
	Stage        string
}

var (
	serverlessConfig *ServerlessConfig
	serverlessOnce   sync.Once
)

// GetServerlessConfig returns the serverless configuration
func GetServerlessConfig() *ServerlessConfig {
	serverlessOnce.Do(func() {
		serverlessConfig = &ServerlessConfig{
			IsLambda:     isRunningInLambda(),
			FunctionName: os.Getenv("AWS_LAMBDA_FUNCTION_NAME"),
			Region:       os.Getenv("AWS_REGION"),
			Stage:        GetEnv("STAGE", "dev"),
		}
	})
	return serverlessConfig
}

func isRunningInLambda() bool {
	return os.Getenv("AWS_LAMBDA_FUNCTION_NAME") != ""
}

// IsServerlessMode returns true if running in serverless mode
func IsServerlessMode() bool {
	return GetServerlessConfig().IsLambda
}

// GetDeploymentMode returns the current deployment mode
func GetDeploymentMode() string {
	if IsServerlessMode() {
		return "serverless"
	}
	return "server"
}

// AdaptConfigForServerless adjusts a loaded configuration for Lambda when
// serverless is true. Invocations do not share memory, so the lock moves to
// Redis when REDIS_ADDR is set and the default SQLite file moves to EFS.
func AdaptConfigForServerless(config *Config, serverless bool) *Config {
	if !serverless {
		return config
	}

	if config.Database.Driver == repositories.DriverSQLite && config.Database.Path == "./data/tailor.db" {
		config.Database.Path = GetEnv("EFS_DB_PATH", "/mnt/efs/tailor.db")
	}
	if config.Lock.Backend == LockBackendMemory && os.Getenv("REDIS_ADDR") != "" {
		config.Lock.Backend = LockBackendRedis
	}
	config.Log.Format = "json"

	return config
}

// GetOptimizedConfig loads configuration adapted for the current deployment mode
func GetOptimizedConfig() (*Config, error) {
	config, err := Load()
	if err != nil {
		return nil, err
	}
	return AdaptConfigForServerless(config, IsServerlessMode()), nil
}
