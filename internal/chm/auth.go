package chm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"
)

const authBaseURL = "https://publicapi.challengermode.com/mk1"

// tokenExpiryBuffer is how early a token is considered stale, so a token
// never expires mid-request.
const tokenExpiryBuffer = time.Minute

// TokenSource exchanges the long-lived Challengermode refresh key for
// short-lived access tokens and hands out the cached token until it is
// about to expire. Safe for concurrent use.
type TokenSource struct {
	refreshKey string
	baseURL    string
	httpClient *http.Client

	mu        sync.Mutex
	token     string
	expiresAt time.Time
}

func NewTokenSource(refreshKey string) *TokenSource {
	return &TokenSource{
		refreshKey: refreshKey,
		baseURL:    authBaseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

type accessKeyResponse struct {
	Value     string    `json:"value"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Token returns a valid access token, refreshing it when the cached one is
// missing or within the expiry buffer.
func (ts *TokenSource) Token(ctx context.Context) (string, error) {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	if ts.token != "" && time.Until(ts.expiresAt) > tokenExpiryBuffer {
		return ts.token, nil
	}

	key, err := ts.fetchAccessKey(ctx)
	if err != nil {
		return "", err
	}

	ts.token = key.Value
	ts.expiresAt = key.ExpiresAt
	return ts.token, nil
}

func (ts *TokenSource) fetchAccessKey(ctx context.Context) (*accessKeyResponse, error) {
	body, err := json.Marshal(map[string]string{"refreshKey": ts.refreshKey})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal auth request: %w", err)
	}

	url := ts.baseURL + "/v1/auth/access_keys"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create auth request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := ts.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch access token: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		text, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("failed to get access token: %d %s", resp.StatusCode, string(text))
	}

	var key accessKeyResponse
	if err := json.NewDecoder(resp.Body).Decode(&key); err != nil {
		return nil, fmt.Errorf("failed to parse access token response: %w", err)
	}
	return &key, nil
}

// Clear drops the cached token so the next call fetches a fresh one.
func (ts *TokenSource) Clear() {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	ts.token = ""
	ts.expiresAt = time.Time{}
}
