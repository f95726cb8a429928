package services

import (
	"strings"

	"github.com/yourusername/cs2-intel-backend/internal/models"
)

// mapConfidenceFloor is the minimum matches a player needs on a map for
// their rate to count toward the team average. A 1-match 100% (or 0%)
// record would otherwise distort the weighted mean.
const mapConfidenceFloor = 5

func findMapStat(player *models.PlayerIntel, mapName string) *models.MapStatRecord {
	for i := range player.MapStats {
		if strings.EqualFold(player.MapStats[i].Map, mapName) {
			return &player.MapStats[i]
		}
	}
	return nil
}

// MapStatsForTeam returns every player's record on a map, nil stats for
// players without data on it. Map name matching is case-insensitive.
func MapStatsForTeam(team *models.TeamIntel, mapName string) []models.PlayerMapStat {
	stats := make([]models.PlayerMapStat, 0, len(team.Players))
	for i := range team.Players {
		player := &team.Players[i]
		stats = append(stats, models.PlayerMapStat{
			Player: player,
			Stats:  findMapStat(player, mapName),
		})
	}
	return stats
}

// TeamMapWinRate computes the team's matches-weighted average win rate on
// a map: Σ(winRate × matches) / Σ(matches) over players at or above the
// confidence floor. ok=false when no player qualifies; that is "no data",
// never 0.
func TeamMapWinRate(team *models.TeamIntel, mapName string) (float64, bool) {
	var weightedSum float64
	var totalMatches int

	for i := range team.Players {
		stat := findMapStat(&team.Players[i], mapName)
		if stat == nil || stat.Matches < mapConfidenceFloor {
			continue
		}
		weightedSum += stat.WinRate * float64(stat.Matches)
		totalMatches += stat.Matches
	}

	if totalMatches == 0 {
		return 0, false
	}
	return weightedSum / float64(totalMatches), true
}

// TeamMapWinRateTopN restricts the aggregate to the first topN entries of
// the elo-sorted player list: top N by skill rating, not by map
// experience.
func TeamMapWinRateTopN(team *models.TeamIntel, mapName string, topN int) (float64, bool) {
	if topN <= 0 || topN >= len(team.Players) {
		return TeamMapWinRate(team, mapName)
	}
	topTeam := models.TeamIntel{
		LineupID: team.LineupID,
		TeamName: team.TeamName,
		Players:  team.Players[:topN],
	}
	return TeamMapWinRate(&topTeam, mapName)
}

// TeamMapTotalGames sums matches played on a map across all players. No
// confidence floor here: this is a raw sample-size indicator, distinct
// from the win-rate floor.
func TeamMapTotalGames(team *models.TeamIntel, mapName string) int {
	total := 0
	for i := range team.Players {
		if stat := findMapStat(&team.Players[i], mapName); stat != nil {
			total += stat.Matches
		}
	}
	return total
}

// TeamMapStats builds the full per-map row for one team (aggregate rate,
// total games, player breakdown), optionally restricted to the top N
// players by elo.
func TeamMapStats(team *models.TeamIntel, mapName string, topN int) models.MapTeamStats {
	view := team
	if topN > 0 && topN < len(team.Players) {
		view = &models.TeamIntel{
			LineupID: team.LineupID,
			TeamName: team.TeamName,
			Players:  team.Players[:topN],
		}
	}

	row := models.MapTeamStats{
		Map:         mapName,
		TotalGames:  TeamMapTotalGames(view, mapName),
		PlayerStats: MapStatsForTeam(view, mapName),
	}
	if rate, ok := TeamMapWinRate(view, mapName); ok {
		row.WinRate = &rate
	}
	return row
}
