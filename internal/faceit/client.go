package faceit

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const apiBaseURL = "https://open.faceit.com/data/v4"

// Player is the FACEIT player lookup response, trimmed to the fields the
// resolver needs.
type Player struct {
	PlayerID string `json:"player_id"`
	Nickname string `json:"nickname"`
	Country  string `json:"country"`
	Games    struct {
		CS2 *struct {
			SkillLevel int    `json:"skill_level"`
			FaceitElo  int    `json:"faceit_elo"`
			Region     string `json:"region"`
		} `json:"cs2"`
	} `json:"games"`
}

// statsResponse is the per-player stats endpoint payload. FACEIT reports
// every numeric value as a string.
type statsResponse struct {
	PlayerID string            `json:"player_id"`
	GameID   string            `json:"game_id"`
	Lifetime map[string]string `json:"lifetime"`
	Segments []struct {
		Label string            `json:"label"`
		Stats map[string]string `json:"stats"`
	} `json:"segments"`
}

// Client talks to the FACEIT Data API v4.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

func NewClient(apiKey string) *Client {
	return &Client{
		apiKey:     apiKey,
		baseURL:    apiBaseURL,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// get performs an authenticated GET. A 404 reports found=false with no
// error; any other non-2xx status is an error.
func (c *Client) get(ctx context.Context, endpoint string, dest interface{}) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+endpoint, nil)
	if err != nil {
		return false, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("faceit request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return false, nil
	}

	if resp.StatusCode != http.StatusOK {
		text, _ := io.ReadAll(resp.Body)
		return false, fmt.Errorf("faceit API error: %d %s", resp.StatusCode, string(text))
	}

	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return false, fmt.Errorf("failed to parse faceit response: %w", err)
	}
	return true, nil
}

// FindPlayerBySteamID looks a player up by Steam64 id. Returns nil when no
// FACEIT account is linked to that id.
func (c *Client) FindPlayerBySteamID(ctx context.Context, steam64ID string) (*Player, error) {
	endpoint := fmt.Sprintf("/players?game=cs2&game_player_id=%s", url.QueryEscape(steam64ID))
	var player Player
	found, err := c.get(ctx, endpoint, &player)
	if err != nil || !found {
		return nil, err
	}
	return &player, nil
}

// FindPlayerByNickname looks a player up by FACEIT nickname.
func (c *Client) FindPlayerByNickname(ctx context.Context, nickname string) (*Player, error) {
	endpoint := fmt.Sprintf("/players?nickname=%s", url.QueryEscape(nickname))
	var player Player
	found, err := c.get(ctx, endpoint, &player)
	if err != nil || !found {
		return nil, err
	}
	return &player, nil
}

func (c *Client) getPlayerStats(ctx context.Context, playerID string) (*statsResponse, error) {
	endpoint := fmt.Sprintf("/players/%s/stats/cs2", url.PathEscape(playerID))
	var stats statsResponse
	found, err := c.get(ctx, endpoint, &stats)
	if err != nil || !found {
		return nil, err
	}
	return &stats, nil
}
