package services

import (
	"testing"

	"github.com/yourusername/cs2-intel-backend/internal/models"
)

func teamWithRate(lineupID, name, mapName string, winRate float64) *models.TeamIntel {
	return &models.TeamIntel{
		LineupID: lineupID,
		TeamName: name,
		Players: []models.PlayerIntel{
			{
				Username:  name + "-p1",
				FaceitElo: 2000,
				MapStats: []models.MapStatRecord{
					{Map: mapName, Matches: 10, Wins: 5, WinRate: winRate},
				},
			},
		},
	}
}

func TestCompareTeamsDeltaSign(t *testing.T) {
	tests := []struct {
		name          string
		team1Rate     float64
		team2Rate     float64
		expectedDelta float64
		expected      models.FavoredTeam
	}{
		{"team1 favored", 70, 40, 30, models.FavoredTeam1},
		{"team2 favored", 40, 70, -30, models.FavoredTeam2},
		{"even", 50, 50, 0, models.FavoredEven},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			team1 := teamWithRate("l1", "alpha", "Mirage", tt.team1Rate)
			team2 := teamWithRate("l2", "bravo", "Mirage", tt.team2Rate)

			comparison := CompareTeams(team1, team2, []string{"Mirage"}, 0)
			if len(comparison.Maps) != 1 {
				t.Fatalf("expected 1 map row, got %d", len(comparison.Maps))
			}

			row := comparison.Maps[0]
			if row.Delta == nil {
				t.Fatal("expected a defined delta")
			}
			if *row.Delta != tt.expectedDelta {
				t.Errorf("delta = %.1f, want %.1f", *row.Delta, tt.expectedDelta)
			}
			if row.Favored != tt.expected {
				t.Errorf("favored = %s, want %s", row.Favored, tt.expected)
			}
		})
	}
}

func TestCompareTeamsNoData(t *testing.T) {
	team1 := teamWithRate("l1", "alpha", "Mirage", 70)
	// team2 has no Mirage data at all
	team2 := teamWithRate("l2", "bravo", "Inferno", 60)

	comparison := CompareTeams(team1, team2, []string{"Mirage"}, 0)
	row := comparison.Maps[0]

	if row.Team1WinRate == nil {
		t.Error("team1 rate should be defined")
	}
	if row.Team2WinRate != nil {
		t.Error("team2 rate should be nil")
	}
	if row.Delta != nil {
		t.Error("delta must be nil when either side has no data")
	}
	if row.Favored != models.FavoredNone {
		t.Errorf("favored = %s, want %s", row.Favored, models.FavoredNone)
	}

	// No-data maps count toward neither summary field
	if comparison.Summary.Team1FavoredMaps != 0 || comparison.Summary.Team2FavoredMaps != 0 {
		t.Errorf("no-data map leaked into advantage counts: %+v", comparison.Summary)
	}
	if comparison.Summary.AverageDelta != nil {
		t.Errorf("average delta should be nil with no defined deltas, got %v", *comparison.Summary.AverageDelta)
	}
}

func TestCompareTeamsSummary(t *testing.T) {
	team1 := &models.TeamIntel{
		LineupID: "l1",
		TeamName: "alpha",
		Players: []models.PlayerIntel{
			{
				Username:  "a1",
				FaceitElo: 2000,
				MapStats: []models.MapStatRecord{
					{Map: "Mirage", Matches: 10, WinRate: 70},
					{Map: "Inferno", Matches: 10, WinRate: 40},
					{Map: "Nuke", Matches: 10, WinRate: 50},
				},
			},
		},
	}
	team2 := &models.TeamIntel{
		LineupID: "l2",
		TeamName: "bravo",
		Players: []models.PlayerIntel{
			{
				Username:  "b1",
				FaceitElo: 1900,
				MapStats: []models.MapStatRecord{
					{Map: "Mirage", Matches: 10, WinRate: 40},
					{Map: "Inferno", Matches: 10, WinRate: 70},
					{Map: "Nuke", Matches: 10, WinRate: 50},
					{Map: "Ancient", Matches: 10, WinRate: 90},
				},
			},
		},
	}

	comparison := CompareTeams(team1, team2, []string{"Ancient", "Inferno", "Mirage", "Nuke"}, 0)

	if comparison.Summary.Team1FavoredMaps != 1 {
		t.Errorf("team1 favored maps = %d, want 1", comparison.Summary.Team1FavoredMaps)
	}
	if comparison.Summary.Team2FavoredMaps != 1 {
		t.Errorf("team2 favored maps = %d, want 1", comparison.Summary.Team2FavoredMaps)
	}

	// Defined deltas: Inferno -30, Mirage +30, Nuke 0 → average 0.
	// Ancient is excluded (team1 has no data).
	if comparison.Summary.AverageDelta == nil {
		t.Fatal("expected a defined average delta")
	}
	if *comparison.Summary.AverageDelta != 0 {
		t.Errorf("average delta = %.2f, want 0", *comparison.Summary.AverageDelta)
	}
}

func TestCompareTeamsTopNSymmetric(t *testing.T) {
	// Each team's second player would flip the aggregate; topN=1 must
	// restrict both sides.
	team1 := &models.TeamIntel{
		LineupID: "l1",
		TeamName: "alpha",
		Players: []models.PlayerIntel{
			playerWithMap("a1", 2500, "Mirage", 10, 80),
			playerWithMap("a2", 1500, "Mirage", 100, 10),
		},
	}
	team2 := &models.TeamIntel{
		LineupID: "l2",
		TeamName: "bravo",
		Players: []models.PlayerIntel{
			playerWithMap("b1", 2400, "Mirage", 10, 30),
			playerWithMap("b2", 1400, "Mirage", 100, 95),
		},
	}

	comparison := CompareTeams(team1, team2, []string{"Mirage"}, 1)
	row := comparison.Maps[0]

	if row.Delta == nil {
		t.Fatal("expected a defined delta")
	}
	if *row.Delta != 50 {
		t.Errorf("topN=1 delta = %.1f, want 50 (80 - 30)", *row.Delta)
	}
	if row.Team1Games != 10 || row.Team2Games != 10 {
		t.Errorf("topN games should only cover the restricted roster: %d/%d", row.Team1Games, row.Team2Games)
	}
}
