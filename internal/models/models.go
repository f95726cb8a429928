package models

import (
	"sort"
	"strings"
	"time"
)

// ConnectedAccount is an externally linked account on a roster member's
// Challengermode profile (Steam, Twitch, Discord).
type ConnectedAccount struct {
	Provider string `json:"provider"`
	ID       string `json:"id"`
}

// RosterMember is one person on a tournament lineup, as reported by the
// Roster Service. GameAccountID is in Steam3 format: [U:1:XXXXX].
type RosterMember struct {
	Username          string             `json:"username"`
	GameAccountID     string             `json:"gameAccountId"`
	Captain           bool               `json:"captain"`
	ConnectedAccounts []ConnectedAccount `json:"connectedAccounts,omitempty"`
}

// Lineup is a registered team within a tournament.
type Lineup struct {
	ID      string         `json:"id"`
	Name    string         `json:"name"`
	Members []RosterMember `json:"members"`
}

type TournamentState string

const (
	TournamentDraft     TournamentState = "DRAFT"
	TournamentPublished TournamentState = "PUBLISHED"
	TournamentRunning   TournamentState = "RUNNING"
	TournamentEnded     TournamentState = "ENDED"
	TournamentCanceled  TournamentState = "CANCELED"
)

// Tournament holds the signup and roster lineup collections. Once the
// tournament starts the roster view is authoritative; before that only
// signups exist.
type Tournament struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	State         TournamentState `json:"state"`
	SignupLineups []Lineup        `json:"signupLineups"`
	RosterLineups []Lineup        `json:"rosterLineups,omitempty"`
}

// Lineups returns the collection to scout from: roster when non-empty,
// signups otherwise.
func (t *Tournament) Lineups() []Lineup {
	if len(t.RosterLineups) > 0 {
		return t.RosterLineups
	}
	return t.SignupLineups
}

// FindLineup looks a lineup up by id across both collections.
func (t *Tournament) FindLineup(lineupID string) *Lineup {
	for i := range t.SignupLineups {
		if t.SignupLineups[i].ID == lineupID {
			return &t.SignupLineups[i]
		}
	}
	for i := range t.RosterLineups {
		if t.RosterLineups[i].ID == lineupID {
			return &t.RosterLineups[i]
		}
	}
	return nil
}

// FindLineupByName looks a lineup up by exact name within the active
// collection.
func (t *Tournament) FindLineupByName(name string) *Lineup {
	lineups := t.Lineups()
	for i := range lineups {
		if lineups[i].Name == name {
			return &lineups[i]
		}
	}
	return nil
}

// MapStatRecord is one player's record on one map. WinRate is the value
// reported by FACEIT, not recomputed from Wins/Matches; the two can diverge
// slightly due to upstream rounding.
type MapStatRecord struct {
	Map     string  `json:"map"`
	Matches int     `json:"matches"`
	Wins    int     `json:"wins"`
	WinRate float64 `json:"winRate"`
}

// PlayerStats is the normalized FACEIT profile for one player, as cached
// by the stats resolver.
type PlayerStats struct {
	PlayerID       string          `json:"playerId"`
	Nickname       string          `json:"nickname"`
	SkillLevel     int             `json:"skillLevel"`
	Elo            int             `json:"elo"`
	TotalMatches   int             `json:"totalMatches"`
	OverallWinRate float64         `json:"overallWinRate"`
	MapStats       []MapStatRecord `json:"mapStats"`
}

// PlayerIntel is a roster member enriched with FACEIT data. Unresolved
// players keep their roster identity with zeroed stats fields.
type PlayerIntel struct {
	Username       string          `json:"username"`
	SteamID        string          `json:"steamId"`
	Captain        bool            `json:"captain"`
	FaceitNickname string          `json:"faceitNickname,omitempty"`
	FaceitLevel    int             `json:"faceitLevel"`
	FaceitElo      int             `json:"faceitElo"`
	TotalMatches   int             `json:"totalMatches"`
	OverallWinRate float64         `json:"overallWinRate"`
	MapStats       []MapStatRecord `json:"mapStats"`
}

// TeamIntel is a lineup's players sorted by FACEIT elo descending.
type TeamIntel struct {
	LineupID string        `json:"lineupId"`
	TeamName string        `json:"teamName"`
	Players  []PlayerIntel `json:"players"`
}

// IntelReport wraps a team's intel with report metadata and the sorted
// union of maps any player has data for.
type IntelReport struct {
	ID             string    `json:"id"`
	CreatedAt      time.Time `json:"createdAt"`
	TournamentID   string    `json:"tournamentId"`
	TournamentName string    `json:"tournamentName"`
	Team           TeamIntel `json:"team"`
	Maps           []string  `json:"maps"`
}

// PlayerMapStat pairs a player with their record on one map (nil when the
// player has no data for it). Consumed by the heatmap rows.
type PlayerMapStat struct {
	Player *PlayerIntel   `json:"player"`
	Stats  *MapStatRecord `json:"stats"`
}

// MapTeamStats is one team's aggregate view of one map.
type MapTeamStats struct {
	Map         string          `json:"map"`
	WinRate     *float64        `json:"winRate"`
	TotalGames  int             `json:"totalGames"`
	PlayerStats []PlayerMapStat `json:"playerStats,omitempty"`
}

type FavoredTeam string

const (
	FavoredTeam1 FavoredTeam = "team1"
	FavoredTeam2 FavoredTeam = "team2"
	FavoredEven  FavoredTeam = "even"
	FavoredNone  FavoredTeam = "no_data"
)

// MapComparison is the per-map head-to-head row. Delta is team1 minus
// team2 and is nil unless both rates are defined.
type MapComparison struct {
	Map          string      `json:"map"`
	Team1WinRate *float64    `json:"team1WinRate"`
	Team2WinRate *float64    `json:"team2WinRate"`
	Team1Games   int         `json:"team1Games"`
	Team2Games   int         `json:"team2Games"`
	Delta        *float64    `json:"delta"`
	Favored      FavoredTeam `json:"favored"`
}

// ComparisonSummary counts map advantages. Even and no-data maps count
// toward neither side, and AverageDelta covers only maps with a defined
// delta.
type ComparisonSummary struct {
	Team1FavoredMaps int      `json:"team1FavoredMaps"`
	Team2FavoredMaps int      `json:"team2FavoredMaps"`
	AverageDelta     *float64 `json:"averageDelta"`
}

// Comparison is the head-to-head view consumed by the compare page.
type Comparison struct {
	Team1   TeamIntel         `json:"team1"`
	Team2   TeamIntel         `json:"team2"`
	Maps    []MapComparison   `json:"maps"`
	Summary ComparisonSummary `json:"summary"`
	TopN    int               `json:"topN,omitempty"`
}

// CS2Maps is the current competitive map pool, in display order.
var CS2Maps = []string{
	"Ancient",
	"Anubis",
	"Dust2",
	"Inferno",
	"Mirage",
	"Nuke",
	"Overpass",
}

func mapPoolIndex(name string) int {
	for i, m := range CS2Maps {
		if m == name {
			return i
		}
	}
	return -1
}

// SortMaps orders map names by map pool position, then alphabetically for
// maps outside the current pool.
func SortMaps(maps []string) {
	sort.SliceStable(maps, func(i, j int) bool {
		a, b := mapPoolIndex(maps[i]), mapPoolIndex(maps[j])
		if a >= 0 && b >= 0 {
			return a < b
		}
		if a >= 0 {
			return true
		}
		if b >= 0 {
			return false
		}
		return strings.Compare(maps[i], maps[j]) < 0
	})
}
