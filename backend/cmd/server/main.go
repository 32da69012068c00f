package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cinegraph/backend/internal/catalog"
	"cinegraph/backend/internal/derive"
	"cinegraph/backend/internal/docquery"
	"cinegraph/backend/internal/docstore"
	"cinegraph/backend/internal/graph"
	"cinegraph/backend/pkg/config"
	"cinegraph/backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load configuration: %v", err))
	}

	// Initialize logger
	if err := logger.Init(cfg.Env); err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Sync()

	log := logger.Get()
	log.Info("Starting HTTP API server...")

	ctx := context.Background()
	deps := routerDeps{
		log:     log,
		pingers: map[string]pinger{},
	}

	// MongoDB; an unreachable store leaves its queries degraded instead of stopping the server
	var docs catalog.DocumentQueries
	store, err := docstore.Connect(ctx, cfg.MongoURI, cfg.MongoDatabase, cfg.MongoCollection)
	if err != nil {
		log.Warn("MongoDB unavailable, document queries disabled", zap.Error(err))
	} else {
		defer store.Close(context.Background())
		docs = docquery.NewEngine(store, cfg.PairResultCap)
		deps.pingers["mongodb"] = store
	}

	// Neo4j
	var graphQueries catalog.GraphQueries
	driver, err := graph.Open(ctx, cfg.Neo4jURI, cfg.Neo4jUser, cfg.Neo4jPassword)
	if err != nil {
		log.Warn("Neo4j unavailable, graph queries disabled", zap.Error(err))
	} else {
		repo := graph.NewRepository(driver)
		defer repo.Close()
		graphQueries = repo
		deps.pingers["neo4j"] = repo
		deps.counts = repo

		if store != nil {
			deps.derive = func(ctx context.Context, stages []derive.Stage, team []string) (*derive.Report, error) {
				if len(team) == 0 {
					team = cfg.TeamMembers
				}
				builder := derive.NewBuilder(store, repo, derive.Options{
					BatchSize:   cfg.FilmBatchSize,
					TeamMembers: team,
				})
				return builder.Run(ctx, stages...)
			}
		}
	}

	deps.queries = catalog.NewExecutor(docs, graphQueries, catalog.Options{
		CompetitionMode: cfg.CompetitionMode,
		Timeout:         time.Duration(cfg.QueryTimeoutSeconds) * time.Second,
	})

	// Setup Gin router
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := newRouter(deps)

	// Start server
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	// Graceful shutdown
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	log.Info("Server started", zap.String("port", cfg.Port))

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited")
}

// ginLogger is a custom logger middleware for Gin
func ginLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		raw := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()

		if raw != "" {
			path = path + "?" + raw
		}

		log.Info("HTTP Request",
			zap.Int("status", status),
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Duration("latency", latency),
			zap.String("ip", c.ClientIP()),
			zap.String("request_id", c.GetString(requestIDKey)),
		)
	}
}
