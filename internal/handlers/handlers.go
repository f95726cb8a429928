package handlers

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yourusername/cs2-intel-backend/internal/chm"
	"github.com/yourusername/cs2-intel-backend/internal/faceit"
	"github.com/yourusername/cs2-intel-backend/internal/models"
	"github.com/yourusername/cs2-intel-backend/internal/services"
	"github.com/yourusername/cs2-intel-backend/pkg/cache"
)

// reportCacheTTL is how long rendered reports and comparisons stay in the
// response cache. Short compared to the 24h player-stats TTL: a report is
// cheap to rebuild from cached player data.
const reportCacheTTL = 1 * time.Hour

type Handler struct {
	chmClient    *chm.Client
	resolver     *faceit.Resolver
	fileStore    *cache.FileStore
	redisCache   *cache.RedisClient
	intelService *services.IntelService
}

func NewHandler(chmClient *chm.Client, resolver *faceit.Resolver, fileStore *cache.FileStore, redisCache *cache.RedisClient) *Handler {
	return &Handler{
		chmClient:    chmClient,
		resolver:     resolver,
		fileStore:    fileStore,
		redisCache:   redisCache,
		intelService: services.NewIntelService(chmClient, resolver),
	}
}

func (h *Handler) HealthCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	redisStatus := h.redisCache.HealthCheck(ctx)
	chmStatus := h.chmClient.HealthCheck(ctx)

	status := "ok"
	if !redisStatus || !chmStatus {
		status = "error"
	}

	c.JSON(http.StatusOK, gin.H{
		"status":         status,
		"redis":          redisStatus,
		"challengermode": chmStatus,
		"timestamp":      time.Now().Format(time.RFC3339),
	})
}

// GetTournament returns a tournament with its lineups, for the tournament
// overview page.
func (h *Handler) GetTournament(c *gin.Context) {
	tournamentID := c.Param("id")

	ctx, cancel := context.WithTimeout(c.Request.Context(), 30*time.Second)
	defer cancel()

	tournament, err := h.chmClient.GetTournament(ctx, tournamentID)
	if err != nil {
		h.upstreamError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"tournament": tournament,
		"lineups":    tournament.Lineups(),
	})
}

// GetIntelReport generates (or serves from cache) the intel report for one
// lineup, with the per-map heatmap rows over the competitive pool.
func (h *Handler) GetIntelReport(c *gin.Context) {
	start := time.Now()
	tournamentID := c.Param("tournamentId")
	lineupID := c.Param("lineupId")

	ctx, cancel := context.WithTimeout(c.Request.Context(), 60*time.Second)
	defer cancel()

	type intelResponse struct {
		Report  *models.IntelReport   `json:"report"`
		MapPool []models.MapTeamStats `json:"mapPool"`
	}

	cacheKey := fmt.Sprintf("intel:%s:%s", tournamentID, lineupID)
	var cached intelResponse
	if err := h.redisCache.Get(ctx, cacheKey, &cached); err == nil {
		log.Printf("[CACHE HIT] GetIntelReport took %v", time.Since(start))
		c.JSON(http.StatusOK, cached)
		return
	}

	report, err := h.intelService.GenerateIntelReport(ctx, tournamentID, lineupID)
	if err != nil {
		log.Printf("[ERROR] Intel report generation failed: %v", err)
		h.upstreamError(c, err)
		return
	}

	mapPool := make([]models.MapTeamStats, 0, len(models.CS2Maps))
	for _, mapName := range models.CS2Maps {
		mapPool = append(mapPool, services.TeamMapStats(&report.Team, mapName, 0))
	}

	response := intelResponse{Report: report, MapPool: mapPool}
	if err := h.redisCache.Set(ctx, cacheKey, response, reportCacheTTL); err != nil {
		log.Printf("Warning: Failed to cache intel report: %v", err)
	}

	log.Printf("[CACHE MISS] GetIntelReport took %v", time.Since(start))
	c.JSON(http.StatusOK, response)
}

// CompareTeams generates the head-to-head comparison for two lineups.
// ?mode=top5 restricts both teams to their five highest-elo players.
func (h *Handler) CompareTeams(c *gin.Context) {
	start := time.Now()
	tournamentID := c.Param("tournamentId")
	team1ID := c.Param("team1Id")
	team2ID := c.Param("team2Id")
	mode := c.Query("mode")

	topN := 0
	if mode == "top5" {
		topN = 5
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 60*time.Second)
	defer cancel()

	cacheKey := fmt.Sprintf("compare:%s:%s:%s:%d", tournamentID, team1ID, team2ID, topN)
	var cached models.Comparison
	if err := h.redisCache.Get(ctx, cacheKey, &cached); err == nil {
		log.Printf("[CACHE HIT] CompareTeams took %v", time.Since(start))
		c.JSON(http.StatusOK, cached)
		return
	}

	comparison, err := h.intelService.GenerateComparison(ctx, tournamentID, team1ID, team2ID, topN)
	if err != nil {
		log.Printf("[ERROR] Comparison failed: %v", err)
		h.upstreamError(c, err)
		return
	}

	if err := h.redisCache.Set(ctx, cacheKey, comparison, reportCacheTTL); err != nil {
		log.Printf("Warning: Failed to cache comparison: %v", err)
	}

	log.Printf("[CACHE MISS] CompareTeams took %v", time.Since(start))
	c.JSON(http.StatusOK, comparison)
}

// RefreshPlayer re-fetches one player's FACEIT stats, bypassing the cached
// entry.
func (h *Handler) RefreshPlayer(c *gin.Context) {
	steamID := c.Param("steamId")

	ctx, cancel := context.WithTimeout(c.Request.Context(), 30*time.Second)
	defer cancel()

	stats, err := h.resolver.RefreshStats(ctx, steamID)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	if stats == nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error": fmt.Sprintf("no FACEIT account linked to steam id %s", steamID),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"refreshed": true, "stats": stats})
}

// GetCacheStats reports per-category file and byte counts for the file
// store.
func (h *Handler) GetCacheStats(c *gin.Context) {
	stats, err := h.fileStore.Stats()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "stats": stats})
}

// ClearCache clears the whole file store, or one category when the body
// names one. Unknown categories are rejected.
func (h *Handler) ClearCache(c *gin.Context) {
	var body struct {
		Category string `json:"category"`
	}
	// Empty body means clear everything
	_ = c.ShouldBindJSON(&body)

	if body.Category != "" {
		if !cache.ValidCategory(body.Category) {
			c.JSON(http.StatusBadRequest, gin.H{
				"success":         false,
				"error":           fmt.Sprintf("invalid category: %s", body.Category),
				"validCategories": cache.Categories,
			})
			return
		}
		if err := h.fileStore.ClearCategory(body.Category); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"message": fmt.Sprintf("Cache cleared for category: %s", body.Category),
		})
		return
	}

	if err := h.fileStore.ClearAll(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "All cache cleared"})
}

// upstreamError maps roster-level failures to response codes: unknown
// tournament or lineup is 404, a deadline is 504, anything else is a hard
// 500 because a report cannot be built without its lineup.
func (h *Handler) upstreamError(c *gin.Context, err error) {
	var tournamentErr *chm.TournamentNotFoundError
	if errors.As(err, &tournamentErr) {
		c.JSON(http.StatusNotFound, gin.H{
			"error":      tournamentErr.Error(),
			"tournament": tournamentErr.TournamentID,
		})
		return
	}

	var lineupErr *chm.LineupNotFoundError
	if errors.As(err, &lineupErr) {
		c.JSON(http.StatusNotFound, gin.H{
			"error":      lineupErr.Error(),
			"tournament": lineupErr.TournamentID,
			"lineup":     lineupErr.LineupID,
		})
		return
	}

	if errors.Is(err, context.DeadlineExceeded) {
		c.JSON(http.StatusGatewayTimeout, gin.H{
			"error":   "Request timeout",
			"message": "The request took too long to complete. Try again later.",
		})
		return
	}

	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}
