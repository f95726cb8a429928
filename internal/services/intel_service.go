package services

import (
	"context"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/yourusername/cs2-intel-backend/internal/chm"
	"github.com/yourusername/cs2-intel-backend/internal/faceit"
	"github.com/yourusername/cs2-intel-backend/internal/models"
)

const reportIDLength = 12

// RosterProvider is the slice of the Challengermode client the intel
// service needs.
type RosterProvider interface {
	GetTournament(ctx context.Context, tournamentID string) (*models.Tournament, error)
}

// StatsProvider is the slice of the FACEIT resolver the intel service
// needs.
type StatsProvider interface {
	GetStatsBatch(ctx context.Context, steam64IDs []string) map[string]faceit.StatsResult
}

// IntelService assembles per-team intel reports from roster and stats
// data.
type IntelService struct {
	roster RosterProvider
	stats  StatsProvider
}

func NewIntelService(roster RosterProvider, stats StatsProvider) *IntelService {
	return &IntelService{roster: roster, stats: stats}
}

// GenerateIntelReport builds the full report for one lineup: roster fetch,
// identity resolution, batched stats lookup, and the sorted map union.
// Roster-level failures propagate; per-player failures degrade to zeroed
// entries.
func (s *IntelService) GenerateIntelReport(ctx context.Context, tournamentID, lineupID string) (*models.IntelReport, error) {
	tournament, err := s.roster.GetTournament(ctx, tournamentID)
	if err != nil {
		return nil, err
	}

	lineup := tournament.FindLineup(lineupID)
	if lineup == nil {
		return nil, &chm.LineupNotFoundError{TournamentID: tournamentID, LineupID: lineupID}
	}

	team := s.BuildTeamIntel(ctx, *lineup)

	mapSet := make(map[string]bool)
	for _, player := range team.Players {
		for _, stat := range player.MapStats {
			mapSet[stat.Map] = true
		}
	}
	maps := make([]string, 0, len(mapSet))
	for name := range mapSet {
		maps = append(maps, name)
	}
	models.SortMaps(maps)

	id, err := gonanoid.New(reportIDLength)
	if err != nil {
		return nil, fmt.Errorf("failed to generate report id: %w", err)
	}

	return &models.IntelReport{
		ID:             id,
		CreatedAt:      time.Now(),
		TournamentID:   tournamentID,
		TournamentName: tournament.Name,
		Team:           team,
		Maps:           maps,
	}, nil
}

// BuildTeamIntel resolves every member of a lineup. No member is ever
// dropped: unresolvable identities and failed lookups yield zeroed
// entries. Output is sorted by FACEIT elo descending, ties keeping roster
// order.
func (s *IntelService) BuildTeamIntel(ctx context.Context, lineup models.Lineup) models.TeamIntel {
	identities := make([]string, len(lineup.Members))
	var resolvable []string
	for i, member := range lineup.Members {
		if steam64, ok := ResolvePlayerIdentity(member); ok {
			identities[i] = steam64
			resolvable = append(resolvable, steam64)
		}
	}

	results := map[string]faceit.StatsResult{}
	if len(resolvable) > 0 {
		results = s.stats.GetStatsBatch(ctx, resolvable)
	}

	players := make([]models.PlayerIntel, 0, len(lineup.Members))
	for i, member := range lineup.Members {
		player := models.PlayerIntel{
			Username: member.Username,
			SteamID:  member.GameAccountID,
			Captain:  member.Captain,
			MapStats: []models.MapStatRecord{},
		}

		if identities[i] != "" {
			player.SteamID = identities[i]
			if result, ok := results[identities[i]]; ok && result.Outcome == faceit.OutcomeOK {
				stats := result.Stats
				player.FaceitNickname = stats.Nickname
				player.FaceitLevel = stats.SkillLevel
				player.FaceitElo = stats.Elo
				player.TotalMatches = stats.TotalMatches
				player.OverallWinRate = stats.OverallWinRate
				player.MapStats = stats.MapStats
			}
		}

		players = append(players, player)
	}

	sort.SliceStable(players, func(i, j int) bool {
		return players[i].FaceitElo > players[j].FaceitElo
	})

	return models.TeamIntel{
		LineupID: lineup.ID,
		TeamName: lineup.Name,
		Players:  players,
	}
}

// GenerateComparison builds intel for two lineups of the same tournament
// concurrently and compares them over the canonical map pool. topN=0
// compares full rosters.
func (s *IntelService) GenerateComparison(ctx context.Context, tournamentID, team1ID, team2ID string, topN int) (*models.Comparison, error) {
	var (
		report1, report2 *models.IntelReport
		err1, err2       error
		wg               sync.WaitGroup
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		report1, err1 = s.GenerateIntelReport(ctx, tournamentID, team1ID)
	}()
	go func() {
		defer wg.Done()
		report2, err2 = s.GenerateIntelReport(ctx, tournamentID, team2ID)
	}()
	wg.Wait()

	if err1 != nil {
		return nil, err1
	}
	if err2 != nil {
		return nil, err2
	}

	log.Printf("[DEBUG] Comparing %s vs %s over %d maps (topN=%d)",
		report1.Team.TeamName, report2.Team.TeamName, len(models.CS2Maps), topN)

	return CompareTeams(&report1.Team, &report2.Team, models.CS2Maps, topN), nil
}
