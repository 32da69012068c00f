package config

import (
	"errors"
	"testing"

	"cinegraph/backend/internal/graph"
	apperrors "cinegraph/backend/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"MONGO_URI", "NEO4J_URI", "NEO4J_PASSWORD", "FILM_BATCH_SIZE", "TEAM_MEMBERS", "COMPETITION_MODE"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "mongodb://localhost:27017", cfg.MongoURI)
	assert.Equal(t, "entertainment", cfg.MongoDatabase)
	assert.Equal(t, "films", cfg.MongoCollection)
	assert.Equal(t, "bolt://localhost:7687", cfg.Neo4jURI)
	assert.Equal(t, "Neo4j123", cfg.Neo4jPassword)
	assert.Equal(t, 100, cfg.FilmBatchSize)
	assert.Equal(t, graph.CompetitionAccumulate, cfg.CompetitionMode)
	assert.Empty(t, cfg.TeamMembers)
}

func TestLoad_TeamMembers(t *testing.T) {
	t.Setenv("TEAM_MEMBERS", " Alice , ,Bob,")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"Alice", "Bob"}, cfg.TeamMembers)
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			MongoURI:        "mongodb://localhost:27017",
			MongoDatabase:   "entertainment",
			MongoCollection: "films",
			Neo4jURI:        "bolt://localhost:7687",
			Neo4jUser:       "neo4j",
			Neo4jPassword:   "secret",
			FilmBatchSize:   100,
			CompetitionMode: graph.CompetitionAccumulate,
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"rebuild mode", func(c *Config) { c.CompetitionMode = graph.CompetitionRebuild }, false},
		{"missing mongo uri", func(c *Config) { c.MongoURI = "" }, true},
		{"missing collection", func(c *Config) { c.MongoCollection = "" }, true},
		{"missing neo4j password", func(c *Config) { c.Neo4jPassword = "" }, true},
		{"zero batch size", func(c *Config) { c.FilmBatchSize = 0 }, true},
		{"unknown competition mode", func(c *Config) { c.CompetitionMode = "merge" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
				assert.True(t, apperrors.IsErrorType(err, apperrors.ErrorTypeConfig))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidate_NamesMissingField(t *testing.T) {
	cfg := &Config{
		MongoURI:        "mongodb://localhost:27017",
		MongoDatabase:   "entertainment",
		MongoCollection: "films",
		Neo4jURI:        "bolt://localhost:7687",
		Neo4jUser:       "neo4j",
		FilmBatchSize:   100,
		CompetitionMode: graph.CompetitionAccumulate,
	}

	err := cfg.Validate()

	var missing *apperrors.ErrConfigMissingRequired
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, "NEO4J_PASSWORD", missing.Field)
	assert.Contains(t, err.Error(), "missing required config: NEO4J_PASSWORD")
}
