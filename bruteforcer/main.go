package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"
)

type Position struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

type GameState struct {
	Grid              [][]string `json:"grid"`
	Player            Position   `json:"player_pos"`
	Won               bool       `json:"won"`
	Goal              Position   `json:"goal"`
	Generation        int        `json:"generation"`
	Message           string     `json:"message"`
	ConfigName        string     `json:"config_name"`
	CurrentMovesCount int        `json:"current_moves_count"`
	Distance          int        `json:"distance_to_goal"`
}

type SessionResponse struct {
	ID         string     `json:"id"`
	ConfigName string     `json:"config_name"`
	GameState  *GameState `json:"game_state"`
}

type MoveResponse struct {
	Success   bool       `json:"success"`
	GameState *GameState `json:"game_state"`
	Message   string     `json:"message"`
}

type BulkMoveResponse struct {
	MovesExecuted  int        `json:"moves_executed"`
	GameState      *GameState `json:"game_state"`
	StopReasonCode string     `json:"stop_reason_code"`
}

type Client struct {
	baseURL   string
	sessionID string
	client    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (c *Client) post(path string, payload, result interface{}) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewBuffer(data)
	}

	resp, err := c.client.Post(c.baseURL+path, "application/json", body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 400 {
		return fmt.Errorf("%s - %s", resp.Status, string(data))
	}
	return json.Unmarshal(data, result)
}

func (c *Client) sessionURL(suffix string) string {
	return "/api/sessions/" + c.sessionID + suffix
}

func (c *Client) CreateSession(configID string) (*GameState, error) {
	payload := map[string]string{}
	if configID != "" {
		payload["config_id"] = configID
	}

	var session SessionResponse
	if err := c.post("/api/sessions", payload, &session); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	c.sessionID = session.ID
	return session.GameState, nil
}

func (c *Client) GetState() (*GameState, error) {
	resp, err := c.client.Get(c.baseURL + c.sessionURL("/state"))
	if err != nil {
		return nil, fmt.Errorf("get state: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("get state: %s", resp.Status)
	}

	var state GameState
	if err := json.NewDecoder(resp.Body).Decode(&state); err != nil {
		return nil, fmt.Errorf("parse state: %w", err)
	}
	return &state, nil
}

func (c *Client) Move(direction string) (*GameState, error) {
	var moveResp MoveResponse
	if err := c.post(c.sessionURL("/move"), map[string]string{"direction": direction}, &moveResp); err != nil {
		return nil, fmt.Errorf("move: %w", err)
	}
	if !moveResp.Success {
		return moveResp.GameState, fmt.Errorf("move failed: %s", moveResp.Message)
	}
	return moveResp.GameState, nil
}

func (c *Client) BulkMove(directions []string) (*BulkMoveResponse, error) {
	var bulkResp BulkMoveResponse
	if err := c.post(c.sessionURL("/bulk-move"), map[string][]string{"moves": directions}, &bulkResp); err != nil {
		return nil, fmt.Errorf("bulk move: %w", err)
	}
	return &bulkResp, nil
}

// Reset puts the player back at the start of the same maze
func (c *Client) Reset() (*GameState, error) {
	return c.stateAction("/reset")
}

// Regenerate replaces the maze
func (c *Client) Regenerate() (*GameState, error) {
	return c.stateAction("/regenerate")
}

func (c *Client) stateAction(suffix string) (*GameState, error) {
	var resp struct {
		Message string     `json:"message"`
		State   *GameState `json:"state"`
	}
	if err := c.post(c.sessionURL(suffix), nil, &resp); err != nil {
		return nil, fmt.Errorf("%s: %w", suffix, err)
	}
	return resp.State, nil
}

// solve plays the current maze to the goal. batch > 1 sends planned moves
// through the bulk endpoint.
func solve(client *Client, state *GameState, maxMoves, batch int, delay time.Duration, verbose bool) (*GameState, int, error) {
	follower := NewWallFollower()
	moveCount := 0

	for !state.Won && moveCount < maxMoves {
		if verbose && moveCount%50 == 0 {
			log.Printf("Position: (%d,%d), distance to goal: %d", state.Player.Row, state.Player.Col, state.Distance)
		}

		if batch > 1 {
			moves := follower.NextMoves(state, min(batch, maxMoves-moveCount))
			if len(moves) == 0 {
				return state, moveCount, fmt.Errorf("no open direction from (%d,%d)", state.Player.Row, state.Player.Col)
			}
			resp, err := client.BulkMove(moves)
			if err != nil {
				return state, moveCount, err
			}
			moveCount += resp.MovesExecuted
			state = resp.GameState
			if resp.MovesExecuted < len(moves) && !state.Won {
				return state, moveCount, fmt.Errorf("bulk move stopped early: %s", resp.StopReasonCode)
			}
		} else {
			direction := follower.NextMove(state)
			if direction == "" {
				return state, moveCount, fmt.Errorf("no open direction from (%d,%d)", state.Player.Row, state.Player.Col)
			}
			newState, err := client.Move(direction)
			if err != nil {
				return state, moveCount, err
			}
			state = newState
			moveCount++
		}

		if delay > 0 {
			time.Sleep(delay)
		}
	}

	return state, moveCount, nil
}

func main() {
	serverURL := flag.String("url", "http://localhost:8080", "Game server URL")
	configID := flag.String("config", "", "Maze preset id (classic, easy, large, daily)")
	continueSession := flag.String("continue", "", "Resume playing an existing session by ID")
	mazes := flag.Int("mazes", 1, "Number of mazes to solve, regenerating after each win")
	maxMoves := flag.Int("max-moves", 20000, "Maximum moves per maze")
	batch := flag.Int("batch", 1, "Moves per request (up to 200 uses the bulk endpoint)")
	verbose := flag.Bool("v", false, "Verbose output")
	delayMs := flag.Int("delay", 0, "Delay between requests in milliseconds (0 = no delay)")
	flag.Parse()

	log.Printf("Connecting to game server at %s", *serverURL)
	client := NewClient(*serverURL)

	var state *GameState
	var err error

	sessionFile := ".session"
	savedSessionID := *continueSession
	if savedSessionID == "" {
		if data, err := os.ReadFile(sessionFile); err == nil {
			savedSessionID = string(bytes.TrimSpace(data))
		}
	}

	if savedSessionID != "" {
		client.sessionID = savedSessionID
		log.Printf("Resuming session: %s", client.sessionID)
		if state, err = client.GetState(); err != nil {
			log.Printf("Failed to resume session (may be expired): %v", err)
			savedSessionID = ""
		}
	}

	if savedSessionID == "" {
		state, err = client.CreateSession(*configID)
		if err != nil {
			log.Fatalf("Failed to create session: %v", err)
		}
		log.Printf("Session created: %s", client.sessionID)
		if err := os.WriteFile(sessionFile, []byte(client.sessionID), 0644); err != nil {
			log.Printf("Warning: Failed to save session ID: %v", err)
		}
	}

	// A solved maze can't be played again, so start fresh
	if state.Won {
		state, err = client.Regenerate()
	} else {
		state, err = client.Reset()
	}
	if err != nil {
		log.Fatalf("Failed to prepare maze: %v", err)
	}

	delay := time.Duration(*delayMs) * time.Millisecond
	for i := 1; i <= *mazes; i++ {
		log.Printf("=== Maze %d/%d: %dx%d, generation %d, goal (%d,%d) ===", i, *mazes,
			len(state.Grid), len(state.Grid[0]), state.Generation, state.Goal.Row, state.Goal.Col)

		var moves int
		state, moves, err = solve(client, state, *maxMoves, *batch, delay, *verbose)
		if err != nil {
			log.Printf("Maze %d failed after %d moves: %v", i, moves, err)
			os.Exit(1)
		}
		if !state.Won {
			log.Printf("Maze %d not solved within %d moves", i, *maxMoves)
			os.Exit(1)
		}
		log.Printf("Solved maze %d in %d moves", i, moves)

		if i < *mazes {
			if state, err = client.Regenerate(); err != nil {
				log.Fatalf("Failed to regenerate: %v", err)
			}
		}
	}

	log.Printf("Session: %s", client.sessionID)
}
