package chm

import (
	"context"
	"fmt"

	"github.com/machinebox/graphql"
	"github.com/yourusername/cs2-intel-backend/internal/models"
)

const graphqlURL = "https://publicapi.challengermode.com/graphql"

// TournamentNotFoundError indicates the tournament id is unknown upstream
type TournamentNotFoundError struct {
	TournamentID string
}

func (e *TournamentNotFoundError) Error() string {
	return fmt.Sprintf("tournament '%s' not found", e.TournamentID)
}

// LineupNotFoundError indicates the lineup is not registered in the tournament
type LineupNotFoundError struct {
	TournamentID string
	LineupID     string
}

func (e *LineupNotFoundError) Error() string {
	return fmt.Sprintf("lineup '%s' not found in tournament '%s'", e.LineupID, e.TournamentID)
}

// Client talks to the Challengermode public GraphQL API. Every request
// carries a short-lived bearer token from the TokenSource.
type Client struct {
	gqlClient *graphql.Client
	tokens    *TokenSource
}

func NewClient(refreshKey string) *Client {
	return &Client{
		gqlClient: graphql.NewClient(graphqlURL),
		tokens:    NewTokenSource(refreshKey),
	}
}

func (c *Client) newRequest(ctx context.Context, query string) (*graphql.Request, error) {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, err
	}
	req := graphql.NewRequest(query)
	req.Header.Set("Authorization", "Bearer "+token)
	return req, nil
}

type lineupNode struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Members []struct {
		GameAccountID string `json:"gameAccountId"`
		Captain       bool   `json:"captain"`
		User          struct {
			UserID            string `json:"userId"`
			Username          string `json:"username"`
			ConnectedAccounts []struct {
				Provider string  `json:"provider"`
				ID       *string `json:"id"`
			} `json:"connectedAccounts"`
		} `json:"user"`
	} `json:"members"`
}

func (n *lineupNode) toModel() models.Lineup {
	lineup := models.Lineup{
		ID:      n.ID,
		Name:    n.Name,
		Members: make([]models.RosterMember, 0, len(n.Members)),
	}
	for _, m := range n.Members {
		member := models.RosterMember{
			Username:      m.User.Username,
			GameAccountID: m.GameAccountID,
			Captain:       m.Captain,
		}
		for _, acc := range m.User.ConnectedAccounts {
			id := ""
			if acc.ID != nil {
				id = *acc.ID
			}
			member.ConnectedAccounts = append(member.ConnectedAccounts, models.ConnectedAccount{
				Provider: acc.Provider,
				ID:       id,
			})
		}
		lineup.Members = append(lineup.Members, member)
	}
	return lineup
}

// GetTournament fetches a tournament with all registered lineups and members
func (c *Client) GetTournament(ctx context.Context, tournamentID string) (*models.Tournament, error) {
	query := `
		query GetTournament($id: UUID!) {
			tournament(tournamentId: $id) {
				id
				name
				state
				attendance {
					confirmedLineupCount
					signups {
						lineupCount
						lineups {
							id
							name
							members {
								gameAccountId
								captain
								user {
									userId
									username
									connectedAccounts {
										provider
										id
									}
								}
							}
						}
					}
					roster {
						lineups {
							id
							name
							members {
								gameAccountId
								captain
								user {
									userId
									username
									connectedAccounts {
										provider
										id
									}
								}
							}
						}
					}
				}
			}
		}
	`

	req, err := c.newRequest(ctx, query)
	if err != nil {
		return nil, err
	}
	req.Var("id", tournamentID)

	var resp struct {
		Tournament *struct {
			ID         string `json:"id"`
			Name       string `json:"name"`
			State      string `json:"state"`
			Attendance struct {
				ConfirmedLineupCount int `json:"confirmedLineupCount"`
				Signups              struct {
					LineupCount int          `json:"lineupCount"`
					Lineups     []lineupNode `json:"lineups"`
				} `json:"signups"`
				Roster *struct {
					Lineups []lineupNode `json:"lineups"`
				} `json:"roster"`
			} `json:"attendance"`
		} `json:"tournament"`
	}

	if err := c.gqlClient.Run(ctx, req, &resp); err != nil {
		return nil, fmt.Errorf("failed to fetch tournament: %w", err)
	}

	if resp.Tournament == nil {
		return nil, &TournamentNotFoundError{TournamentID: tournamentID}
	}

	tournament := &models.Tournament{
		ID:    resp.Tournament.ID,
		Name:  resp.Tournament.Name,
		State: models.TournamentState(resp.Tournament.State),
	}
	for _, node := range resp.Tournament.Attendance.Signups.Lineups {
		tournament.SignupLineups = append(tournament.SignupLineups, node.toModel())
	}
	if resp.Tournament.Attendance.Roster != nil {
		for _, node := range resp.Tournament.Attendance.Roster.Lineups {
			tournament.RosterLineups = append(tournament.RosterLineups, node.toModel())
		}
	}

	return tournament, nil
}

// GetLineup fetches a single lineup by id
func (c *Client) GetLineup(ctx context.Context, lineupID string) (*models.Lineup, error) {
	query := `
		query GetLineup($id: UUID!) {
			tournamentLineup(id: $id) {
				id
				name
				members {
					gameAccountId
					captain
					user {
						userId
						username
						connectedAccounts {
							provider
							id
						}
					}
				}
			}
		}
	`

	req, err := c.newRequest(ctx, query)
	if err != nil {
		return nil, err
	}
	req.Var("id", lineupID)

	var resp struct {
		TournamentLineup *lineupNode `json:"tournamentLineup"`
	}

	if err := c.gqlClient.Run(ctx, req, &resp); err != nil {
		return nil, fmt.Errorf("failed to fetch lineup: %w", err)
	}

	if resp.TournamentLineup == nil {
		return nil, nil
	}
	lineup := resp.TournamentLineup.toModel()
	return &lineup, nil
}

func (c *Client) HealthCheck(ctx context.Context) bool {
	query := `{ __schema { queryType { name } } }`
	req, err := c.newRequest(ctx, query)
	if err != nil {
		return false
	}
	var resp interface{}
	return c.gqlClient.Run(ctx, req, &resp) == nil
}
