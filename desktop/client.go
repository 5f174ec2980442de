package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/gorilla/websocket"
)

// Position is a cell coordinate on the maze grid
type Position struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// Move is one entry of the server's move history
type Move struct {
	Action     string   `json:"action"`
	MoveNumber int      `json:"move_number"`
	Generation int      `json:"generation"`
	Success    bool     `json:"success"`
	FromPos    Position `json:"from_position"`
	ToPos      Position `json:"to_position"`
}

// PlayState mirrors the game state served by the maze API
type PlayState struct {
	Grid              [][]string `json:"grid"`
	Player            Position   `json:"player_pos"`
	Won               bool       `json:"won"`
	Rows              int        `json:"rows"`
	Cols              int        `json:"cols"`
	Generation        int        `json:"generation"`
	Goal              Position   `json:"goal"`
	Message           string     `json:"message"`
	ConfigName        string     `json:"config_name"`
	TotalMoves        int        `json:"total_moves"`
	CurrentMoves      []Move     `json:"current_moves"`
	CurrentMovesCount int        `json:"current_moves_count"`
	Distance          int        `json:"distance_to_goal"`
}

// WSMessage is the envelope pushed by the server's WebSocket hub
type WSMessage struct {
	SessionID string     `json:"session_id"`
	GameState *PlayState `json:"game_state,omitempty"`
	Event     string     `json:"event,omitempty"`
}

// SessionListItem is a session summary from GET /api/sessions
type SessionListItem struct {
	ID         string     `json:"id"`
	ConfigName string     `json:"config_name"`
	GameState  *PlayState `json:"game_state"`
}

// ConfigListItem is a preset summary from GET /api/configs
type ConfigListItem struct {
	ConfigID    string `json:"config_id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Rows        int    `json:"rows"`
	Cols        int    `json:"cols"`
}

// APIClient talks to the maze server's REST API and WebSocket
type APIClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewAPIClient(baseURL string) *APIClient {
	return &APIClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 5 * time.Second},
	}
}

func (c *APIClient) do(method, path string, body, result interface{}) error {
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp struct {
			Error string `json:"error"`
		}
		if json.NewDecoder(resp.Body).Decode(&errResp) == nil && errResp.Error != "" {
			return fmt.Errorf("%s", errResp.Error)
		}
		return fmt.Errorf("API error: %d", resp.StatusCode)
	}

	if result == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(result)
}

func sessionPath(id, suffix string) string {
	return "/api/sessions/" + url.PathEscape(id) + suffix
}

// CreateSession starts a new session, using the server default when configID is empty
func (c *APIClient) CreateSession(configID string) (*SessionListItem, error) {
	body := map[string]string{}
	if configID != "" {
		body["config_id"] = configID
	}
	var info SessionListItem
	if err := c.do("POST", "/api/sessions", body, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

func (c *APIClient) ListSessions() ([]SessionListItem, error) {
	var resp struct {
		Sessions []SessionListItem `json:"sessions"`
	}
	if err := c.do("GET", "/api/sessions", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Sessions, nil
}

func (c *APIClient) ListConfigs() ([]ConfigListItem, error) {
	var configs []ConfigListItem
	if err := c.do("GET", "/api/configs", nil, &configs); err != nil {
		return nil, err
	}
	return configs, nil
}

func (c *APIClient) FetchState(sessionID string) (*PlayState, error) {
	var state PlayState
	if err := c.do("GET", sessionPath(sessionID, "/state"), nil, &state); err != nil {
		return nil, err
	}
	return &state, nil
}

// SendKey forwards a key press; the server decides whether it moves or regenerates
func (c *APIClient) SendKey(sessionID, key string) (*PlayState, error) {
	var result struct {
		GameState *PlayState `json:"game_state"`
	}
	if err := c.do("POST", sessionPath(sessionID, "/key"), map[string]string{"key": key}, &result); err != nil {
		return nil, err
	}
	return result.GameState, nil
}

// DialSession opens the state stream for one session
func (c *APIClient) DialSession(sessionID string) (*websocket.Conn, error) {
	base, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, err
	}

	scheme := "ws"
	if base.Scheme == "https" {
		scheme = "wss"
	}
	wsURL := url.URL{Scheme: scheme, Host: base.Host, Path: "/ws"}
	q := wsURL.Query()
	q.Set("session", sessionID)
	wsURL.RawQuery = q.Encode()

	conn, _, err := websocket.DefaultDialer.Dial(wsURL.String(), nil)
	return conn, err
}
