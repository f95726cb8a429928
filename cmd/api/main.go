package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/yourusername/cs2-intel-backend/internal/chm"
	"github.com/yourusername/cs2-intel-backend/internal/config"
	"github.com/yourusername/cs2-intel-backend/internal/faceit"
	"github.com/yourusername/cs2-intel-backend/internal/handlers"
	"github.com/yourusername/cs2-intel-backend/pkg/cache"
)

// ============================================================================
// RATE LIMITER
// ============================================================================
type IPRateLimiter struct {
	ips map[string]*rate.Limiter
	mu  *sync.RWMutex
	r   rate.Limit
	b   int
}

func NewIPRateLimiter(r rate.Limit, b int) *IPRateLimiter {
	return &IPRateLimiter{
		ips: make(map[string]*rate.Limiter),
		mu:  &sync.RWMutex{},
		r:   r,
		b:   b,
	}
}

func (i *IPRateLimiter) GetLimiter(ip string) *rate.Limiter {
	i.mu.Lock()
	defer i.mu.Unlock()

	limiter, exists := i.ips[ip]
	if !exists {
		limiter = rate.NewLimiter(i.r, i.b)
		i.ips[ip] = limiter
	}
	return limiter
}

func rateLimitMiddleware(limiter *IPRateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		l := limiter.GetLimiter(ip)

		if !l.Allow() {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":       "Rate limit exceeded. Please try again later.",
				"retry_after": "60s",
			})
			c.Abort()
			return
		}
		c.Next()
	}
}

// ============================================================================
// REQUEST ID
// ============================================================================
func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Request.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.New().String()
		}
		c.Set("requestID", id)
		c.Header("X-Request-ID", id)
		c.Next()
	}
}

// ============================================================================
// SECURITY HEADERS
// ============================================================================
func securityHeadersMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Frame-Options", "DENY")
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-XSS-Protection", "1; mode=block")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Next()
	}
}

// ============================================================================
// CORS MIDDLEWARE
// ============================================================================
func corsMiddleware() gin.HandlerFunc {
	allowedOrigins := map[string]bool{
		"https://cs2-intel.vercel.app": true,
		"http://localhost:3000":        true,
	}

	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")

		if allowedOrigins[origin] {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
			c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
			c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			c.Writer.Header().Set("Access-Control-Max-Age", "3600")
		}

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

func main() {
	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 2. File cache store for upstream data
	fileStore := cache.NewFileStore(cfg.CacheDir)

	// 3. Redis for response-level caching
	redisCache, err := cache.NewRedisClient(cfg.RedisURL)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}

	// 4. Upstream clients
	chmClient := chm.NewClient(cfg.ChallengermodeRefreshKey)
	faceitResolver := faceit.NewResolver(faceit.NewClient(cfg.FaceitAPIKey), fileStore)

	// 5. Setup Gin
	router := gin.Default()

	router.Use(corsMiddleware())
	router.Use(securityHeadersMiddleware())
	router.Use(requestIDMiddleware())

	limiter := NewIPRateLimiter(10, 20)
	router.Use(rateLimitMiddleware(limiter))

	// 6. Initialize handlers
	handler := handlers.NewHandler(chmClient, faceitResolver, fileStore, redisCache)

	// 7. Routes
	router.GET("/health", handler.HealthCheck)

	api := router.Group("/api/v1")
	{
		// Tournament & roster
		api.GET("/tournament/:id", handler.GetTournament)

		// Intel & comparison
		api.GET("/intel/:tournamentId/:lineupId", handler.GetIntelReport)
		api.GET("/compare/:tournamentId/:team1Id/:team2Id", handler.CompareTeams)

		// Cache management
		api.GET("/cache", handler.GetCacheStats)
		api.POST("/cache", handler.ClearCache)
		api.POST("/refresh/:steamId", handler.RefreshPlayer)
	}

	// 8. Start server with graceful shutdown
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Printf("Server starting on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server stopped")
}
