package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// Config holds the application configuration
type Config struct {
	Environment   string
	LogLevel      string
	LogFormat     string
	Port          string
	DataDir       string
	TrainFile     string
	TestFile      string
	ModelDir      string
	ModelName     string
	DatabasePath  string
	SchemaFile    string
	TrainSchedule string
	CVFolds       int
	TestSize      float64
	RandomSeed    int64
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	config := &Config{
		Environment:   getEnv("ENVIRONMENT", "development"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		LogFormat:     getEnv("LOG_FORMAT", "text"),
		Port:          getEnv("PORT", "8005"),
		DataDir:       getEnv("DATA_DIR", "datasets"),
		TrainFile:     getEnv("TRAIN_FILE", "train.csv"),
		TestFile:      getEnv("TEST_FILE", "test.csv"),
		ModelDir:      getEnv("MODEL_DIR", "trained_models"),
		ModelName:     getEnv("MODEL_NAME", "random_forest"),
		SchemaFile:    getEnv("SCHEMA_FILE", ""),
		TrainSchedule: getEnv("TRAIN_SCHEDULE", ""),
		CVFolds:       getEnvAsInt("CV_FOLDS", 5),
		TestSize:      getEnvAsFloat("TEST_SIZE", 0.2),
		RandomSeed:    int64(getEnvAsInt("RANDOM_SEED", 42)),
	}
	config.DatabasePath = getEnv("DATABASE_PATH", filepath.Join(config.ModelDir, "registry.db"))

	if config.CVFolds < 2 {
		return nil, fmt.Errorf("CV_FOLDS must be at least 2, got %d", config.CVFolds)
	}
	if config.TestSize <= 0 || config.TestSize >= 1 {
		return nil, fmt.Errorf("TEST_SIZE must be between 0 and 1, got %g", config.TestSize)
	}
	if config.ModelName == "" {
		return nil, fmt.Errorf("MODEL_NAME is required")
	}

	return config, nil
}

// TrainPath is the training CSV location.
func (c *Config) TrainPath() string {
	return filepath.Join(c.DataDir, c.TrainFile)
}

// TestPath is the held-out CSV location.
func (c *Config) TestPath() string {
	return filepath.Join(c.DataDir, c.TestFile)
}

// Schema returns the feature schema from SchemaFile, or the built-in default.
func (c *Config) Schema() (FeatureSchema, error) {
	if c.SchemaFile == "" {
		return DefaultSchema(), nil
	}
	return LoadSchema(c.SchemaFile)
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return value
}
