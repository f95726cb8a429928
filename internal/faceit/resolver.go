package faceit

import (
	"context"
	"log"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/yourusername/cs2-intel-backend/internal/models"
	"github.com/yourusername/cs2-intel-backend/pkg/cache"
)

// playerCacheTTL is how long resolved player stats (and not-found
// sentinels) stay valid.
const playerCacheTTL = 24 * time.Hour

// batchSize bounds concurrent FACEIT lookups; chunks run sequentially to
// stay under upstream rate limits.
const batchSize = 5

// Outcome classifies a single player resolution.
type Outcome string

const (
	// OutcomeOK means stats were resolved.
	OutcomeOK Outcome = "ok"
	// OutcomeNotFound means the player has no FACEIT account linked to the
	// Steam id. Cached, expected, not an error.
	OutcomeNotFound Outcome = "not_found"
	// OutcomeTransportError means the lookup failed (network, non-404
	// status, malformed payload). Not cached.
	OutcomeTransportError Outcome = "transport_error"
)

// StatsResult is a single player's batch resolution result.
type StatsResult struct {
	Outcome Outcome
	Stats   *models.PlayerStats
	Err     error
}

// Store is the (category, key) cache the resolver reads through.
type Store interface {
	Get(category, key string, dest interface{}) error
	Set(category, key string, value interface{}, ttl time.Duration) error
}

// cachedPlayer wraps a cache entry so "no FACEIT account" is cacheable as
// a negative sentinel, avoiding repeated lookups for unknown players.
type cachedPlayer struct {
	Found bool                `json:"found"`
	Stats *models.PlayerStats `json:"stats,omitempty"`
}

// Resolver turns Steam64 ids into normalized FACEIT stats with a
// cache-aside policy over the file store.
type Resolver struct {
	client *Client
	store  Store
}

func NewResolver(client *Client, store Store) *Resolver {
	return &Resolver{client: client, store: store}
}

func cacheKey(steam64ID string) string {
	return "steam_" + steam64ID
}

// GetStats resolves a Steam64 id to FACEIT stats. Returns (nil, nil) when
// the player has no FACEIT account; that outcome is cached too.
func (r *Resolver) GetStats(ctx context.Context, steam64ID string) (*models.PlayerStats, error) {
	var cached cachedPlayer
	if err := r.store.Get(cache.CategoryPlayers, cacheKey(steam64ID), &cached); err == nil {
		if !cached.Found {
			return nil, nil
		}
		return cached.Stats, nil
	}

	return r.fetchAndCache(ctx, steam64ID)
}

// RefreshStats bypasses the cache read but still writes the fresh result
// back, for manual invalidation flows.
func (r *Resolver) RefreshStats(ctx context.Context, steam64ID string) (*models.PlayerStats, error) {
	return r.fetchAndCache(ctx, steam64ID)
}

func (r *Resolver) fetchAndCache(ctx context.Context, steam64ID string) (*models.PlayerStats, error) {
	player, err := r.client.FindPlayerBySteamID(ctx, steam64ID)
	if err != nil {
		return nil, err
	}
	if player == nil {
		if err := r.store.Set(cache.CategoryPlayers, cacheKey(steam64ID), cachedPlayer{Found: false}, playerCacheTTL); err != nil {
			log.Printf("[WARN] Failed to cache not-found sentinel for %s: %v", steam64ID, err)
		}
		return nil, nil
	}

	raw, err := r.client.getPlayerStats(ctx, player.PlayerID)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, nil
	}

	stats := normalizeStats(player, raw)

	if err := r.store.Set(cache.CategoryPlayers, cacheKey(steam64ID), cachedPlayer{Found: true, Stats: stats}, playerCacheTTL); err != nil {
		log.Printf("[WARN] Failed to cache stats for %s: %v", steam64ID, err)
	}

	return stats, nil
}

// normalizeStats converts the raw FACEIT payload into the domain shape:
// map segments only (mode breakdowns like "5v5" and "Premier" share the
// endpoint but are not maps), sorted by matches played descending.
func normalizeStats(player *Player, raw *statsResponse) *models.PlayerStats {
	stats := &models.PlayerStats{
		PlayerID:       player.PlayerID,
		Nickname:       player.Nickname,
		TotalMatches:   atoi(raw.Lifetime["Matches"]),
		OverallWinRate: atof(raw.Lifetime["Win Rate %"]),
		MapStats:       []models.MapStatRecord{},
	}
	if player.Games.CS2 != nil {
		stats.SkillLevel = player.Games.CS2.SkillLevel
		stats.Elo = player.Games.CS2.FaceitElo
	}

	for _, seg := range raw.Segments {
		if seg.Label == "" || strings.Contains(seg.Label, "5v5") || strings.Contains(seg.Label, "Premier") {
			continue
		}
		stats.MapStats = append(stats.MapStats, models.MapStatRecord{
			Map:     seg.Label,
			Matches: atoi(seg.Stats["Matches"]),
			Wins:    atoi(seg.Stats["Wins"]),
			WinRate: atof(seg.Stats["Win Rate %"]),
		})
	}

	sort.SliceStable(stats.MapStats, func(i, j int) bool {
		return stats.MapStats[i].Matches > stats.MapStats[j].Matches
	})

	return stats
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

func atof(s string) float64 {
	f, _ := strconv.ParseFloat(s, 64)
	return f
}

// GetStatsBatch resolves many ids in chunks of batchSize, concurrent
// within a chunk and sequential across chunks. One player's failure never
// aborts the batch; it surfaces as a transport-error result for that
// player only.
func (r *Resolver) GetStatsBatch(ctx context.Context, steam64IDs []string) map[string]StatsResult {
	results := make(map[string]StatsResult, len(steam64IDs))
	var mu sync.Mutex

	for start := 0; start < len(steam64IDs); start += batchSize {
		end := start + batchSize
		if end > len(steam64IDs) {
			end = len(steam64IDs)
		}

		var wg sync.WaitGroup
		for _, id := range steam64IDs[start:end] {
			wg.Add(1)
			go func(steamID string) {
				defer wg.Done()
				stats, err := r.GetStats(ctx, steamID)

				var result StatsResult
				switch {
				case err != nil:
					log.Printf("[ERROR] Failed to get stats for %s: %v", steamID, err)
					result = StatsResult{Outcome: OutcomeTransportError, Err: err}
				case stats == nil:
					result = StatsResult{Outcome: OutcomeNotFound}
				default:
					result = StatsResult{Outcome: OutcomeOK, Stats: stats}
				}

				mu.Lock()
				results[steamID] = result
				mu.Unlock()
			}(id)
		}
		wg.Wait()
	}

	return results
}
