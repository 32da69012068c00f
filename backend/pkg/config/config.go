package config

import (
	"fmt"
	"os"
	"strings"

	"cinegraph/backend/internal/graph"
	apperrors "cinegraph/backend/pkg/errors"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// App
	Port string
	Env  string

	// MongoDB
	MongoURI        string
	MongoDatabase   string
	MongoCollection string

	// Neo4j
	Neo4jURI      string
	Neo4jUser     string
	Neo4jPassword string

	// Derivation
	FilmBatchSize   int      // Films per UNWIND batch
	TeamMembers     []string // Synthetic actors attached to one film
	CompetitionMode string   // accumulate or rebuild

	// Queries
	PairResultCap       int // Cap for the all-pairs genre comparison
	QueryTimeoutSeconds int
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file, but don't fail if it doesn't exist
	_ = godotenv.Load()

	cfg := &Config{
		Port:                getEnv("PORT", "8080"),
		Env:                 getEnv("ENV", "development"),
		MongoURI:            getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDatabase:       getEnv("MONGO_DATABASE", "entertainment"),
		MongoCollection:     getEnv("MONGO_COLLECTION", "films"),
		Neo4jURI:            getEnv("NEO4J_URI", "bolt://localhost:7687"),
		Neo4jUser:           getEnv("NEO4J_USER", "neo4j"),
		Neo4jPassword:       getEnv("NEO4J_PASSWORD", "Neo4j123"),
		FilmBatchSize:       getEnvInt("FILM_BATCH_SIZE", 100),
		TeamMembers:         getEnvList("TEAM_MEMBERS"),
		CompetitionMode:     getEnv("COMPETITION_MODE", graph.CompetitionAccumulate),
		PairResultCap:       getEnvInt("PAIR_RESULT_CAP", 100),
		QueryTimeoutSeconds: getEnvInt("QUERY_TIMEOUT_SECONDS", 60),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that required configuration values are set
func (c *Config) Validate() error {
	required := []struct {
		field string
		value string
	}{
		{"MONGO_URI", c.MongoURI},
		{"MONGO_DATABASE", c.MongoDatabase},
		{"MONGO_COLLECTION", c.MongoCollection},
		{"NEO4J_URI", c.Neo4jURI},
		{"NEO4J_USER", c.Neo4jUser},
		{"NEO4J_PASSWORD", c.Neo4jPassword},
	}
	for _, r := range required {
		if r.value == "" {
			return apperrors.NewConfigMissingRequired(r.field)
		}
	}
	if c.FilmBatchSize < 1 {
		return apperrors.NewBaseError(apperrors.ErrorTypeConfig,
			fmt.Sprintf("FILM_BATCH_SIZE must be positive, got %d", c.FilmBatchSize), nil)
	}
	if c.CompetitionMode != graph.CompetitionAccumulate && c.CompetitionMode != graph.CompetitionRebuild {
		return apperrors.NewBaseError(apperrors.ErrorTypeConfig,
			fmt.Sprintf("COMPETITION_MODE must be %q or %q, got %q",
				graph.CompetitionAccumulate, graph.CompetitionRebuild, c.CompetitionMode), nil)
	}
	return nil
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var result int
		if _, err := fmt.Sscanf(value, "%d", &result); err == nil {
			return result
		}
	}
	return defaultValue
}

// getEnvList reads a comma-separated list, dropping blanks
func getEnvList(key string) []string {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
