// Package client is the HTTP client for the session admin API, used by the
// arenad CLI subcommands.
package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// Session is the state of the running session as reported by the server.
type Session struct {
	CodeName     string     `json:"code_name"`
	Name         string     `json:"name"`
	Description  string     `json:"description"`
	Status       string     `json:"status"`
	StartedAt    *time.Time `json:"started_at"`
	Connected    int        `json:"connected"`
	Spectators   int        `json:"spectators"`
	Winners      []string   `json:"winners"`
	VoiceChannel int64      `json:"voice_channel"`
}

// Player is one registered player row.
type Player struct {
	ID                uuid.UUID  `json:"id"`
	Role              string     `json:"role"`
	Online            bool       `json:"online"`
	ReconnectDeadline *time.Time `json:"reconnect_deadline"`
	PlayedSeconds     int64      `json:"played_seconds"`
	Coins             int        `json:"coins"`
}

// HTTPClient talks to the admin API over HTTP.
type HTTPClient struct {
	baseURL string
	token   string
	client  *http.Client
}

// NewHTTPClient creates a client for the server at baseURL. token may be
// empty when the server runs without auth.
func NewHTTPClient(baseURL, token string) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		token:   token,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *HTTPClient) do(method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.NewDecoder(resp.Body).Decode(&apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("%s %s: %s (%s)", method, path, apiErr.Error, resp.Status)
		}
		return fmt.Errorf("%s %s: %s", method, path, resp.Status)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

// Session fetches the session state.
func (c *HTTPClient) Session() (*Session, error) {
	var s Session
	if err := c.do(http.MethodGet, "/v1/session", nil, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// Players lists the registered players.
func (c *HTTPClient) Players() ([]Player, error) {
	var resp struct {
		Players []Player `json:"players"`
	}
	if err := c.do(http.MethodGet, "/v1/session/players", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Players, nil
}

// StartSession begins the game.
func (c *HTTPClient) StartSession() error {
	return c.do(http.MethodPost, "/v1/session/start", nil, nil)
}

// EndSession finishes the game and arms the end-of-game sequence.
func (c *HTTPClient) EndSession() error {
	return c.do(http.MethodPost, "/v1/session/end", nil, nil)
}

// RecordWinner marks the player as a winner.
func (c *HTTPClient) RecordWinner(id uuid.UUID) error {
	return c.do(http.MethodPost, "/v1/players/"+id.String()+"/win", nil, nil)
}
