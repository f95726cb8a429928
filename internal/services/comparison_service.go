package services

import (
	"github.com/yourusername/cs2-intel-backend/internal/models"
)

// CompareTeams builds the head-to-head view over the given map list. The
// same topN restriction applies symmetrically to both teams. Delta is
// team1 minus team2 and only defined when both rates are; maps without a
// delta are excluded from the summary.
func CompareTeams(team1, team2 *models.TeamIntel, maps []string, topN int) *models.Comparison {
	comparison := &models.Comparison{
		Team1: *team1,
		Team2: *team2,
		Maps:  make([]models.MapComparison, 0, len(maps)),
		TopN:  topN,
	}

	var deltaSum float64
	var deltaCount int

	for _, mapName := range maps {
		row := models.MapComparison{
			Map:        mapName,
			Team1Games: teamMapGames(team1, mapName, topN),
			Team2Games: teamMapGames(team2, mapName, topN),
			Favored:    models.FavoredNone,
		}

		rate1, ok1 := TeamMapWinRateTopN(team1, mapName, topN)
		rate2, ok2 := TeamMapWinRateTopN(team2, mapName, topN)
		if ok1 {
			row.Team1WinRate = &rate1
		}
		if ok2 {
			row.Team2WinRate = &rate2
		}

		if ok1 && ok2 {
			delta := rate1 - rate2
			row.Delta = &delta
			switch {
			case delta > 0:
				row.Favored = models.FavoredTeam1
				comparison.Summary.Team1FavoredMaps++
			case delta < 0:
				row.Favored = models.FavoredTeam2
				comparison.Summary.Team2FavoredMaps++
			default:
				row.Favored = models.FavoredEven
			}
			deltaSum += delta
			deltaCount++
		}

		comparison.Maps = append(comparison.Maps, row)
	}

	if deltaCount > 0 {
		avg := deltaSum / float64(deltaCount)
		comparison.Summary.AverageDelta = &avg
	}

	return comparison
}

func teamMapGames(team *models.TeamIntel, mapName string, topN int) int {
	if topN > 0 && topN < len(team.Players) {
		view := models.TeamIntel{
			LineupID: team.LineupID,
			TeamName: team.TeamName,
			Players:  team.Players[:topN],
		}
		return TeamMapTotalGames(&view, mapName)
	}
	return TeamMapTotalGames(team, mapName)
}
