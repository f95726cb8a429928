package faceit

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/yourusername/cs2-intel-backend/pkg/cache"
)

type fakeFaceit struct {
	playerLookups int64
	statsLookups  int64

	// steam64 → player payload; absent ids 404
	players map[string]string
	// player id → stats payload
	stats map[string]string
	// steam64 ids that always answer 500
	poisoned map[string]bool
}

func (f *fakeFaceit) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/players" {
			atomic.AddInt64(&f.playerLookups, 1)
			id := r.URL.Query().Get("game_player_id")
			if f.poisoned[id] {
				http.Error(w, `{"errors":[{"message":"internal"}]}`, http.StatusInternalServerError)
				return
			}
			payload, ok := f.players[id]
			if !ok {
				http.Error(w, `{"errors":[{"message":"not found"}]}`, http.StatusNotFound)
				return
			}
			fmt.Fprint(w, payload)
			return
		}

		if strings.HasPrefix(r.URL.Path, "/players/") && strings.HasSuffix(r.URL.Path, "/stats/cs2") {
			atomic.AddInt64(&f.statsLookups, 1)
			pid := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/players/"), "/stats/cs2")
			payload, ok := f.stats[pid]
			if !ok {
				http.Error(w, `{"errors":[{"message":"not found"}]}`, http.StatusNotFound)
				return
			}
			fmt.Fprint(w, payload)
			return
		}

		http.NotFound(w, r)
	}
}

func playerPayload(playerID, nickname string, level, elo int) string {
	return fmt.Sprintf(`{
		"player_id": %q,
		"nickname": %q,
		"country": "se",
		"games": {"cs2": {"skill_level": %d, "faceit_elo": %d, "region": "EU"}}
	}`, playerID, nickname, level, elo)
}

const statsPayload = `{
	"player_id": "pid-1",
	"game_id": "cs2",
	"lifetime": {"Matches": "250", "Win Rate %": "52"},
	"segments": [
		{"label": "Mirage", "stats": {"Matches": "40", "Wins": "22", "Win Rate %": "55"}},
		{"label": "5v5", "stats": {"Matches": "200", "Wins": "100", "Win Rate %": "50"}},
		{"label": "Premier Season 2", "stats": {"Matches": "60", "Wins": "30", "Win Rate %": "50"}},
		{"label": "Ancient", "stats": {"Matches": "80", "Wins": "48", "Win Rate %": "60"}},
		{"label": "Nuke", "stats": {"Matches": "12", "Wins": "5", "Win Rate %": "41.67"}}
	]
}`

func newTestResolver(t *testing.T, fake *fakeFaceit) *Resolver {
	t.Helper()
	srv := httptest.NewServer(fake.handler())
	t.Cleanup(srv.Close)

	client := &Client{
		apiKey:     "test-key",
		baseURL:    srv.URL,
		httpClient: srv.Client(),
	}
	return NewResolver(client, cache.NewFileStore(t.TempDir()))
}

func TestGetStatsCacheAside(t *testing.T) {
	fake := &fakeFaceit{
		players: map[string]string{"76561197960265900": playerPayload("pid-1", "s1mple", 10, 3800)},
		stats:   map[string]string{"pid-1": statsPayload},
	}
	resolver := newTestResolver(t, fake)

	stats, err := resolver.GetStats(context.Background(), "76561197960265900")
	if err != nil {
		t.Fatalf("first GetStats failed: %v", err)
	}
	if stats == nil || stats.Nickname != "s1mple" {
		t.Fatalf("unexpected stats: %+v", stats)
	}
	if fake.playerLookups != 1 || fake.statsLookups != 1 {
		t.Errorf("first call made %d/%d upstream calls, want 1/1", fake.playerLookups, fake.statsLookups)
	}

	// Second call must be served entirely from the file cache
	again, err := resolver.GetStats(context.Background(), "76561197960265900")
	if err != nil {
		t.Fatalf("second GetStats failed: %v", err)
	}
	if again == nil || again.Elo != 3800 {
		t.Fatalf("cached stats wrong: %+v", again)
	}
	if fake.playerLookups != 1 || fake.statsLookups != 1 {
		t.Errorf("cache hit still reached upstream: %d/%d calls", fake.playerLookups, fake.statsLookups)
	}
}

func TestGetStatsCachesNotFoundSentinel(t *testing.T) {
	fake := &fakeFaceit{players: map[string]string{}}
	resolver := newTestResolver(t, fake)

	stats, err := resolver.GetStats(context.Background(), "76561197960000001")
	if err != nil {
		t.Fatalf("GetStats on unlinked player errored: %v", err)
	}
	if stats != nil {
		t.Fatalf("expected nil stats for unlinked player, got %+v", stats)
	}
	if fake.playerLookups != 1 {
		t.Errorf("player lookups = %d, want 1", fake.playerLookups)
	}

	// The sentinel must absorb the second miss
	if _, err := resolver.GetStats(context.Background(), "76561197960000001"); err != nil {
		t.Fatalf("second GetStats errored: %v", err)
	}
	if fake.playerLookups != 1 {
		t.Errorf("not-found sentinel not cached: %d player lookups", fake.playerLookups)
	}
}

func TestGetStatsNormalization(t *testing.T) {
	fake := &fakeFaceit{
		players: map[string]string{"76561197960265900": playerPayload("pid-1", "s1mple", 10, 3800)},
		stats:   map[string]string{"pid-1": statsPayload},
	}
	resolver := newTestResolver(t, fake)

	stats, err := resolver.GetStats(context.Background(), "76561197960265900")
	if err != nil {
		t.Fatalf("GetStats failed: %v", err)
	}

	if stats.TotalMatches != 250 || stats.OverallWinRate != 52 {
		t.Errorf("lifetime parse: matches=%d rate=%.1f", stats.TotalMatches, stats.OverallWinRate)
	}
	if stats.SkillLevel != 10 || stats.Elo != 3800 {
		t.Errorf("profile fields: level=%d elo=%d", stats.SkillLevel, stats.Elo)
	}

	// Mode segments filtered, remaining maps sorted by matches descending
	if len(stats.MapStats) != 3 {
		t.Fatalf("map segments = %d, want 3 (5v5 and Premier filtered)", len(stats.MapStats))
	}
	expected := []string{"Ancient", "Mirage", "Nuke"}
	for i, name := range expected {
		if stats.MapStats[i].Map != name {
			t.Errorf("map order[%d] = %s, want %s", i, stats.MapStats[i].Map, name)
		}
	}
	if stats.MapStats[2].WinRate != 41.67 {
		t.Errorf("Nuke win rate = %.2f, want upstream 41.67 preserved", stats.MapStats[2].WinRate)
	}
}

func TestGetStatsBatchIsolatesFailures(t *testing.T) {
	fake := &fakeFaceit{
		players: map[string]string{
			"76561197960000001": playerPayload("pid-1", "alpha", 8, 2100),
		},
		stats:    map[string]string{"pid-1": statsPayload},
		poisoned: map[string]bool{"76561197960000003": true},
	}
	resolver := newTestResolver(t, fake)

	ids := []string{
		"76561197960000001", // resolves
		"76561197960000002", // no FACEIT account
		"76561197960000003", // upstream 500
	}
	results := resolver.GetStatsBatch(context.Background(), ids)

	if len(results) != len(ids) {
		t.Fatalf("results = %d entries, want %d", len(results), len(ids))
	}
	if r := results["76561197960000001"]; r.Outcome != OutcomeOK || r.Stats == nil {
		t.Errorf("resolvable id: outcome=%s stats=%v", r.Outcome, r.Stats)
	}
	if r := results["76561197960000002"]; r.Outcome != OutcomeNotFound || r.Stats != nil {
		t.Errorf("unlinked id: outcome=%s stats=%v", r.Outcome, r.Stats)
	}
	if r := results["76561197960000003"]; r.Outcome != OutcomeTransportError || r.Err == nil {
		t.Errorf("poisoned id: outcome=%s err=%v", r.Outcome, r.Err)
	}
}

func TestGetStatsBatchTransportErrorNotCached(t *testing.T) {
	fake := &fakeFaceit{
		players:  map[string]string{},
		poisoned: map[string]bool{"76561197960000003": true},
	}
	resolver := newTestResolver(t, fake)

	resolver.GetStatsBatch(context.Background(), []string{"76561197960000003"})
	resolver.GetStatsBatch(context.Background(), []string{"76561197960000003"})

	// Failures must retry on the next batch rather than being cached
	if fake.playerLookups != 2 {
		t.Errorf("player lookups = %d, want 2 (transport errors are not cached)", fake.playerLookups)
	}
}

func TestRefreshStatsBypassesCacheRead(t *testing.T) {
	fake := &fakeFaceit{
		players: map[string]string{"76561197960265900": playerPayload("pid-1", "before", 7, 1900)},
		stats:   map[string]string{"pid-1": statsPayload},
	}
	resolver := newTestResolver(t, fake)

	if _, err := resolver.GetStats(context.Background(), "76561197960265900"); err != nil {
		t.Fatalf("warm-up GetStats failed: %v", err)
	}

	// Upstream changes; a plain GetStats would keep serving the cache
	fake.players["76561197960265900"] = playerPayload("pid-1", "after", 9, 2400)

	stats, err := resolver.RefreshStats(context.Background(), "76561197960265900")
	if err != nil {
		t.Fatalf("RefreshStats failed: %v", err)
	}
	if stats.Nickname != "after" || stats.Elo != 2400 {
		t.Errorf("refresh served stale data: %+v", stats)
	}
	if fake.playerLookups != 2 {
		t.Errorf("player lookups = %d, want 2", fake.playerLookups)
	}

	// The refreshed value must have replaced the cached entry
	cached, err := resolver.GetStats(context.Background(), "76561197960265900")
	if err != nil {
		t.Fatalf("post-refresh GetStats failed: %v", err)
	}
	if cached.Nickname != "after" {
		t.Errorf("cache still holds pre-refresh stats: %+v", cached)
	}
	if fake.playerLookups != 2 {
		t.Errorf("post-refresh read hit upstream: %d lookups", fake.playerLookups)
	}
}

func TestGetStatsBatchChunking(t *testing.T) {
	fake := &fakeFaceit{players: map[string]string{}}
	resolver := newTestResolver(t, fake)

	// 7 unlinked ids: two chunks (5 + 2), every id answered
	ids := make([]string, 7)
	for i := range ids {
		ids[i] = fmt.Sprintf("7656119796000%04d", i)
	}

	done := make(chan map[string]StatsResult, 1)
	go func() { done <- resolver.GetStatsBatch(context.Background(), ids) }()

	select {
	case results := <-done:
		if len(results) != len(ids) {
			t.Fatalf("results = %d entries, want %d", len(results), len(ids))
		}
		for _, id := range ids {
			if results[id].Outcome != OutcomeNotFound {
				t.Errorf("id %s outcome = %s, want not_found", id, results[id].Outcome)
			}
		}
	case <-time.After(10 * time.Second):
		t.Fatal("batch did not complete")
	}
}
