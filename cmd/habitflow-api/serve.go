package main

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/habitflow/backend/internal/cache"
	"github.com/habitflow/backend/internal/config"
	"github.com/habitflow/backend/internal/handlers"
	"github.com/habitflow/backend/internal/logger"
	"github.com/habitflow/backend/internal/middleware"
	"github.com/habitflow/backend/internal/repository"
	"github.com/habitflow/backend/internal/service"
	"github.com/habitflow/backend/pkg/supabase"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the API server",
	Long:  `Start the HTTP API server and listen for requests.`,
	RunE:  runServe,
}

var (
	port string
)

func init() {
	serveCmd.Flags().StringVarP(&port, "port", "p", "", "Port to listen on (overrides config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if port != "" {
		cfg.Server.Port = port
	}

	logger.SetDefault(logger.NewSlogLogger(logger.Config{
		Level:  logger.ParseLevel(cfg.Log.Level),
		Format: cfg.Log.Format,
	}))

	logger.Info("Starting HabitFlow API server",
		logger.String("env", cfg.Server.Env),
		logger.String("supabase_url", cfg.Supabase.URL),
	)

	supabaseClient := supabase.NewClient(cfg.Supabase.URL, cfg.Supabase.ServiceKey)

	// The analytics cache runs on Redis when configured and falls back to
	// an in-process store otherwise.
	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		logger.Info("Analytics cache using Redis", logger.String("addr", cfg.Redis.Addr))
	} else {
		logger.Info("Analytics cache using in-process store")
	}
	analyticsCache := cache.New(redisClient)
	defer analyticsCache.Close()

	// Initialize repositories
	habitRepo := repository.NewHabitRepository(supabaseClient)
	habitLogRepo := repository.NewHabitLogRepository(supabaseClient)
	milestoneRepo := repository.NewMilestoneRepository(supabaseClient)
	categoryRepo := repository.NewCategoryRepository(supabaseClient)
	userRepo := repository.NewUserRepository(supabaseClient)

	// Initialize services
	habitService := service.NewHabitService(habitRepo, habitLogRepo, milestoneRepo, userRepo, analyticsCache)
	categoryService := service.NewCategoryService(categoryRepo, analyticsCache)
	analyticsService := service.NewAnalyticsService(habitRepo, habitLogRepo, milestoneRepo, categoryRepo, userRepo, analyticsCache)

	// Initialize handlers
	habitHandler := handlers.NewHabitHandler(habitService)
	categoryHandler := handlers.NewCategoryHandler(categoryService)
	analyticsHandler := handlers.NewAnalyticsHandler(analyticsService)
	cacheHandler := handlers.NewCacheHandler(analyticsCache)

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger())
	router.Use(middleware.SecurityHeaders(cfg.Server.Env))
	router.Use(middleware.CORS(cfg.Server.CORSOrigins()))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status": "ok",
			"env":    cfg.Server.Env,
		})
	})

	// Operational hooks, not part of the public API
	admin := router.Group("/admin")
	admin.Use(middleware.Auth(supabaseClient))
	{
		admin.GET("/cache/metrics", cacheHandler.Metrics)
		admin.POST("/cache/invalidate/:userID", cacheHandler.Invalidate)
	}

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		protected := v1.Group("")
		protected.Use(middleware.Auth(supabaseClient))
		{
			// Habit routes
			protected.GET("/habits", habitHandler.List)
			protected.POST("/habits", habitHandler.Create)
			protected.GET("/habits/:id", habitHandler.Get)
			protected.PUT("/habits/:id", habitHandler.Update)
			protected.DELETE("/habits/:id", habitHandler.Delete)
			protected.POST("/habits/:id/checkin", habitHandler.CheckIn)
			protected.POST("/habits/:id/undo", habitHandler.Undo)
			protected.POST("/habits/:id/pause", habitHandler.Pause)
			protected.POST("/habits/:id/resume", habitHandler.Resume)
			protected.POST("/habits/:id/archive", habitHandler.Archive)
			protected.GET("/habits/:id/milestones", habitHandler.Milestones)
			protected.GET("/habits/:id/stats", analyticsHandler.HabitStats)

			// Category routes
			protected.GET("/categories", categoryHandler.List)
			protected.POST("/categories", categoryHandler.Create)
			protected.DELETE("/categories/:id", categoryHandler.Delete)

			// Analytics routes
			protected.GET("/analytics/overview", analyticsHandler.Overview)
			protected.GET("/analytics/breakdown", analyticsHandler.Breakdown)
			protected.GET("/analytics/heatmap", analyticsHandler.Heatmap)
			protected.GET("/analytics/leaderboard", analyticsHandler.Leaderboard)
			protected.GET("/analytics/insights", analyticsHandler.Insights)
			protected.GET("/analytics/categories", analyticsHandler.CategoryBreakdown)
			protected.GET("/analytics/comparison", analyticsHandler.WeekComparison)
			protected.GET("/analytics/productivity", analyticsHandler.ProductivityScore)
			protected.GET("/analytics/performance", analyticsHandler.Performance)
			protected.GET("/analytics/correlations", analyticsHandler.Correlations)
			protected.GET("/analytics/risk", analyticsHandler.StreakRisk)
		}
	}

	logger.Info("Server listening", logger.String("port", cfg.Server.Port))
	if err := router.Run(":" + cfg.Server.Port); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}
