package main

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"cinegraph/backend/internal/catalog"
	"cinegraph/backend/internal/derive"
	"cinegraph/backend/internal/graph"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const requestIDKey = "request_id"

type queryRunner interface {
	Execute(ctx context.Context, id int, params catalog.Params) *catalog.Result
}

type pinger interface {
	Ping(ctx context.Context) error
}

type graphCounter interface {
	Counts(ctx context.Context) (graph.Counts, error)
}

type deriveFunc func(ctx context.Context, stages []derive.Stage, team []string) (*derive.Report, error)

// routerDeps are the collaborators behind the HTTP API. counts and derive stay nil
// when the stores they need could not be reached.
type routerDeps struct {
	log     *zap.Logger
	queries queryRunner
	pingers map[string]pinger
	counts  graphCounter
	derive  deriveFunc
}

func newRouter(deps routerDeps) *gin.Engine {
	log := deps.log
	if log == nil {
		log = zap.NewNop()
	}

	router := gin.New()
	router.Use(requestID())
	router.Use(ginLogger(log))
	router.Use(gin.Recovery())

	// CORS middleware
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With, X-Request-ID")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	// Health check
	router.GET("/health", func(c *gin.Context) {
		stores := checkStores(c.Request.Context(), deps.pingers)
		status, code := "ok", http.StatusOK
		for _, s := range stores {
			if s != "ok" {
				status, code = "degraded", http.StatusServiceUnavailable
			}
		}
		c.JSON(code, gin.H{"status": status, "stores": stores})
	})

	// Derivation is a long batch write; only one runs at a time
	var deriving sync.Mutex

	api := router.Group("/api")
	{
		// List the query catalog
		api.GET("/queries", func(c *gin.Context) {
			c.JSON(http.StatusOK, catalog.Catalog())
		})

		// Run one query
		api.GET("/queries/:id", func(c *gin.Context) {
			id, err := strconv.Atoi(c.Param("id"))
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "query id must be a number"})
				return
			}
			if _, ok := catalog.Lookup(id); !ok {
				c.JSON(http.StatusNotFound, gin.H{"error": "Query not found"})
				return
			}

			params, err := bindParams(c)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}

			c.JSON(http.StatusOK, deps.queries.Execute(c.Request.Context(), id, params))
		})

		// Build the graph from the films collection
		api.POST("/derive", func(c *gin.Context) {
			if deps.derive == nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Derivation needs both MongoDB and Neo4j"})
				return
			}

			var req struct {
				Stages      []string `json:"stages"`
				TeamMembers []string `json:"team_members"`
			}
			if c.Request.ContentLength != 0 {
				if err := c.ShouldBindJSON(&req); err != nil {
					c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
					return
				}
			}

			stages, err := derive.ParseStages(req.Stages)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}

			if !deriving.TryLock() {
				c.JSON(http.StatusConflict, gin.H{"error": "A derivation is already running"})
				return
			}
			defer deriving.Unlock()

			report, err := deps.derive(c.Request.Context(), stages, req.TeamMembers)
			if err != nil {
				log.Error("Derivation failed", zap.Error(err))
				c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error(), "report": report})
				return
			}

			c.JSON(http.StatusOK, report)
		})

		// Node and relationship totals
		api.GET("/graph/counts", func(c *gin.Context) {
			if deps.counts == nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Neo4j is not connected"})
				return
			}
			counts, err := deps.counts.Counts(c.Request.Context())
			if err != nil {
				log.Error("Failed to count graph", zap.Error(err))
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count graph"})
				return
			}
			c.JSON(http.StatusOK, counts)
		})
	}

	return router
}

// requestID tags each request with an id, reusing the caller's X-Request-ID when present
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Writer.Header().Set("X-Request-ID", id)
		c.Next()
	}
}

func bindParams(c *gin.Context) (catalog.Params, error) {
	var q struct {
		Actor  string `form:"actor"`
		Actor2 string `form:"actor2"`
		Limit  int    `form:"limit" binding:"omitempty,min=1"`
		Min    int    `form:"min" binding:"omitempty,min=1"`
		Sort   string `form:"sort" binding:"omitempty,oneof=revenue votes count"`
		Mode   string `form:"mode" binding:"omitempty,oneof=accumulate rebuild"`
		Role   string `form:"role" binding:"omitempty,oneof=actor director"`

		CollabSort string `form:"collab_sort" binding:"omitempty,oneof=count director"`
	}
	if err := c.ShouldBindQuery(&q); err != nil {
		return catalog.Params{}, err
	}
	return catalog.Params{
		Actor:  strings.TrimSpace(q.Actor),
		Actor2: strings.TrimSpace(q.Actor2),
		Limit:  q.Limit,
		Min:    q.Min,
		Sort:   q.Sort,
		Mode:   q.Mode,
		Role:   q.Role,

		CollabSort: q.CollabSort,
	}, nil
}

// checkStores pings every store concurrently and reports ok or the failure per store
func checkStores(ctx context.Context, pingers map[string]pinger) map[string]string {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var mu sync.Mutex
	stores := map[string]string{"mongodb": "not connected", "neo4j": "not connected"}

	var g errgroup.Group
	for name, p := range pingers {
		g.Go(func() error {
			status := "ok"
			if err := p.Ping(ctx); err != nil {
				status = err.Error()
			}
			mu.Lock()
			stores[name] = status
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return stores
}
