// Package main is the entry point for the blueprint pin service.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/TChrisVivek/S-R-Associates-sub000/internal/cache"
	"github.com/TChrisVivek/S-R-Associates-sub000/internal/config"
	"github.com/TChrisVivek/S-R-Associates-sub000/internal/database"
	"github.com/TChrisVivek/S-R-Associates-sub000/internal/gateway"
	"github.com/TChrisVivek/S-R-Associates-sub000/internal/handler"
)

func main() {
	// Local development overrides; missing .env is fine
	_ = godotenv.Load()

	// Parse command line flags
	role := flag.String("role", "", "Service role: gateway or handler (overrides SERVICE_ROLE env var)")
	port := flag.String("port", "", "Server port (overrides SERVER_PORT env var)")
	flag.Parse()

	// Override environment variables if flags are provided
	if *role != "" {
		os.Setenv("SERVICE_ROLE", *role)
	}
	if *port != "" {
		os.Setenv("SERVER_PORT", *port)
	}

	app := fx.New(
		fx.Provide(
			config.New,
			newLogger,
			newGinEngine,
		),
		fx.Invoke(startServer),
	)

	app.Run()
}

// newLogger creates a new zap logger based on the environment.
func newLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.IsDevelopment() {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// newGinEngine creates and configures a new Gin engine.
func newGinEngine(cfg *config.Config) *gin.Engine {
	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(gin.Logger())

	engine.Use(cors.New(cors.Config{
		AllowOrigins:  []string{"*"},
		AllowMethods:  []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders: []string{"Content-Length"},
	}))

	return engine
}

// startServer starts the HTTP server based on the configured role.
func startServer(lc fx.Lifecycle, cfg *config.Config, logger *zap.Logger, engine *gin.Engine) error {
	logger.Info("Starting service",
		zap.String("role", cfg.Role),
		zap.String("port", cfg.ServerPort),
	)

	// Setup API versioned routes
	apiV1 := engine.Group("/api/v1")

	// Health check endpoint
	engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"role":    cfg.Role,
			"service": "blueprint-pins",
		})
	})

	var repo database.Repository
	var cacheClient cache.Cache

	if cfg.IsHandler() {
		// Handler mode: connect to database and cache, register handlers
		var err error
		repo, err = database.NewPostgresRepository(cfg, logger)
		if err != nil {
			logger.Fatal("Failed to connect to database", zap.Error(err))
			return err
		}

		cacheClient, err = cache.NewRedisCache(cfg, logger)
		if err != nil {
			logger.Fatal("Failed to connect to Redis", zap.Error(err))
			return err
		}

		h := handler.NewHandler(repo, cacheClient, logger)
		h.RegisterRoutes(apiV1)

		logger.Info("Handler routes registered")
	} else {
		// Gateway mode: setup proxy to handler
		gw := gateway.NewGateway(cfg, logger)
		gw.RegisterRoutes(apiV1)

		logger.Info("Gateway routes registered",
			zap.String("handler_url", cfg.HandlerURL),
		)
	}

	server := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.ServerPort),
		Handler: engine,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				logger.Info("Server starting", zap.String("addr", server.Addr))
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					logger.Fatal("Server failed", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("Server shutting down")

			if repo != nil {
				repo.Close()
			}
			if cacheClient != nil {
				_ = cacheClient.Close()
			}

			return server.Shutdown(ctx)
		},
	})

	return nil
}
