package main

import (
	"flag"
	"fmt"
	"image/color"
	"log"
	"math"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

const (
	headerHeight      = 60
	footerHeight      = 24
	screenWidth       = 800
	screenHeight      = 720
	animationDuration = 120 * time.Millisecond
	bumpDuration      = 300 * time.Millisecond
	maxOpenSessions   = 9
)

// ScreenType represents different screens in the app
type ScreenType int

const (
	ScreenWelcome ScreenType = iota
	ScreenGame
)

// Player colors, one per open session
var playerColors = []color.RGBA{
	{255, 100, 100, 255},
	{100, 100, 255, 255},
	{100, 255, 100, 255},
	{255, 255, 100, 255},
	{255, 100, 255, 255},
	{100, 255, 255, 255},
	{255, 165, 0, 255},
	{128, 0, 128, 255},
	{255, 192, 203, 255},
}

// gameKeys maps ebiten keys to the key names the server understands
var gameKeys = []struct {
	key  ebiten.Key
	name string
}{
	{ebiten.KeyArrowUp, "ArrowUp"},
	{ebiten.KeyArrowDown, "ArrowDown"},
	{ebiten.KeyArrowLeft, "ArrowLeft"},
	{ebiten.KeyArrowRight, "ArrowRight"},
	{ebiten.KeyW, "w"},
	{ebiten.KeyS, "s"},
	{ebiten.KeyA, "a"},
	{ebiten.KeyD, "d"},
	{ebiten.KeyR, "r"},
}

// SessionData holds the view of one open session
type SessionData struct {
	sessionID     string
	state         *PlayState
	live          bool // WebSocket connected
	lastUpdate    time.Time
	prevPos       Position
	targetPos     Position
	moveStartTime time.Time
	animationTime float64
	bumpTime      time.Time
	isBumping     bool
}

// applyState swaps in a new state and starts the matching animation:
// a slide when the player moved, a bump when a move was counted but blocked.
func (s *SessionData) applyState(state *PlayState) {
	if state == nil {
		return
	}

	switch {
	case s.state == nil || s.state.Generation != state.Generation:
		s.prevPos = state.Player
		s.targetPos = state.Player
		s.animationTime = 1.0
		s.isBumping = false
	case s.state.Player != state.Player:
		s.prevPos = s.state.Player
		s.targetPos = state.Player
		s.moveStartTime = time.Now()
		s.animationTime = 0.0
		s.isBumping = false
	case state.CurrentMovesCount > s.state.CurrentMovesCount:
		s.bumpTime = time.Now()
		s.isBumping = true
	}

	s.state = state
	s.lastUpdate = time.Now()
}

// Game is the desktop host
type Game struct {
	api           *APIClient
	sessions      []*SessionData
	activeSession int
	stateMutex    sync.RWMutex
	currentScreen ScreenType
	welcome       *WelcomeScreen
}

// WelcomeScreen manages the session picker
type WelcomeScreen struct {
	availableSessions []SessionListItem
	availableConfigs  []ConfigListItem
	cursorPos         int
	errorMsg          string
	newSessionConfig  string
}

func NewGame(api *APIClient, sessionIDs []string) *Game {
	g := &Game{
		api:           api,
		currentScreen: ScreenWelcome,
		welcome:       &WelcomeScreen{},
	}

	if len(sessionIDs) > 0 {
		for _, sid := range sessionIDs {
			g.openSession(sid)
		}
		g.currentScreen = ScreenGame
	} else {
		g.loadWelcomeData()
	}

	return g
}

// openSession adds a session to the game screen and subscribes to its updates
func (g *Game) openSession(sessionID string) {
	for i, s := range g.sessions {
		if s.sessionID == sessionID {
			g.activeSession = i
			return
		}
	}
	if len(g.sessions) >= maxOpenSessions {
		log.Printf("Already showing %d sessions", maxOpenSessions)
		return
	}

	session := &SessionData{sessionID: sessionID, lastUpdate: time.Now()}

	g.stateMutex.Lock()
	g.sessions = append(g.sessions, session)
	g.activeSession = len(g.sessions) - 1
	g.stateMutex.Unlock()

	if err := g.fetchGameState(session); err != nil {
		log.Printf("Error fetching state for %s: %v", sessionID, err)
	}

	conn, err := g.api.DialSession(sessionID)
	if err != nil {
		log.Printf("Failed to connect WebSocket for %s: %v (falling back to polling)", sessionID, err)
		return
	}
	session.live = true
	go g.listenWebSocket(session, conn)
}

func (g *Game) fetchGameState(session *SessionData) error {
	state, err := g.api.FetchState(session.sessionID)
	if err != nil {
		return err
	}
	g.stateMutex.Lock()
	session.applyState(state)
	g.stateMutex.Unlock()
	return nil
}

// listenWebSocket applies every pushed state until the connection drops
func (g *Game) listenWebSocket(session *SessionData, conn *websocket.Conn) {
	defer func() {
		conn.Close()
		g.stateMutex.Lock()
		session.live = false
		g.stateMutex.Unlock()
	}()

	for {
		var msg WSMessage
		if err := conn.ReadJSON(&msg); err != nil {
			log.Printf("WebSocket read error for %s: %v", session.sessionID, err)
			return
		}
		if msg.GameState == nil {
			continue
		}

		g.stateMutex.Lock()
		session.applyState(msg.GameState)
		g.stateMutex.Unlock()
	}
}

func (g *Game) loadWelcomeData() {
	ws := g.welcome
	ws.errorMsg = ""

	sessions, err := g.api.ListSessions()
	if err != nil {
		ws.errorMsg = fmt.Sprintf("Error loading sessions: %v", err)
		return
	}
	ws.availableSessions = sessions

	configs, err := g.api.ListConfigs()
	if err != nil {
		ws.errorMsg = fmt.Sprintf("Error loading configs: %v", err)
		return
	}
	ws.availableConfigs = configs

	if ws.cursorPos >= len(ws.availableSessions) {
		ws.cursorPos = max(len(ws.availableSessions)-1, 0)
	}
}

// sendKey forwards a key for the active session. The WebSocket push redraws;
// the response is applied directly when polling.
func (g *Game) sendKey(key string) {
	if len(g.sessions) == 0 {
		return
	}
	session := g.sessions[g.activeSession]

	state, err := g.api.SendKey(session.sessionID, key)
	if err != nil {
		log.Printf("Key %s failed for %s: %v", key, session.sessionID, err)
		return
	}

	g.stateMutex.Lock()
	if !session.live {
		session.applyState(state)
	}
	g.stateMutex.Unlock()
}

func (g *Game) Update() error {
	switch g.currentScreen {
	case ScreenWelcome:
		g.updateWelcomeScreen()
	case ScreenGame:
		g.updateGameScreen()
	}
	return nil
}

func (g *Game) updateWelcomeScreen() {
	ws := g.welcome

	if inpututil.IsKeyJustPressed(ebiten.KeyF5) {
		g.loadWelcomeData()
	}

	if inpututil.IsKeyJustPressed(ebiten.KeyArrowDown) && ws.cursorPos < len(ws.availableSessions)-1 {
		ws.cursorPos++
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyArrowUp) && ws.cursorPos > 0 {
		ws.cursorPos--
	}

	// Tab cycles the preset for new sessions; past the last one means server default
	if inpututil.IsKeyJustPressed(ebiten.KeyTab) && len(ws.availableConfigs) > 0 {
		next := 0
		for i, cfg := range ws.availableConfigs {
			if cfg.ConfigID == ws.newSessionConfig {
				next = i + 1
				break
			}
		}
		if next >= len(ws.availableConfigs) {
			ws.newSessionConfig = ""
		} else {
			ws.newSessionConfig = ws.availableConfigs[next].ConfigID
		}
	}

	if inpututil.IsKeyJustPressed(ebiten.KeyN) {
		info, err := g.api.CreateSession(ws.newSessionConfig)
		if err != nil {
			ws.errorMsg = fmt.Sprintf("Failed to create session: %v", err)
			return
		}
		log.Printf("Created new session: %s (config: %s)", info.ID, info.ConfigName)
		g.openSession(info.ID)
		g.currentScreen = ScreenGame
		return
	}

	if inpututil.IsKeyJustPressed(ebiten.KeyEnter) && ws.cursorPos < len(ws.availableSessions) {
		g.openSession(ws.availableSessions[ws.cursorPos].ID)
		g.currentScreen = ScreenGame
		return
	}

	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) && len(g.sessions) > 0 {
		g.currentScreen = ScreenGame
	}
}

func (g *Game) updateGameScreen() {
	if len(g.sessions) == 0 {
		if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
			g.currentScreen = ScreenWelcome
		}
		return
	}

	g.stateMutex.Lock()
	for _, session := range g.sessions {
		if session.animationTime < 1.0 {
			elapsed := time.Since(session.moveStartTime)
			session.animationTime = math.Min(float64(elapsed)/float64(animationDuration), 1.0)
		}
		if session.isBumping && time.Since(session.bumpTime) > bumpDuration {
			session.isBumping = false
		}
	}
	g.stateMutex.Unlock()

	for _, session := range g.sessions {
		if !session.live && time.Since(session.lastUpdate) > 500*time.Millisecond {
			if err := g.fetchGameState(session); err != nil {
				log.Printf("Error fetching state for %s: %v", session.sessionID, err)
			}
		}
	}

	for k := ebiten.Key1; k <= ebiten.Key9; k++ {
		if inpututil.IsKeyJustPressed(k) {
			if idx := int(k - ebiten.Key1); idx < len(g.sessions) {
				g.activeSession = idx
			}
		}
	}

	for _, gk := range gameKeys {
		if inpututil.IsKeyJustPressed(gk.key) {
			g.sendKey(gk.name)
		}
	}

	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		g.currentScreen = ScreenWelcome
		g.loadWelcomeData()
	}
}

func (g *Game) Draw(screen *ebiten.Image) {
	switch g.currentScreen {
	case ScreenWelcome:
		g.drawWelcomeScreen(screen)
	case ScreenGame:
		g.drawGameScreen(screen)
	}
}

func (g *Game) drawWelcomeScreen(screen *ebiten.Image) {
	ws := g.welcome
	screen.Fill(color.RGBA{20, 20, 30, 255})

	y := 20
	ebitenutil.DebugPrintAt(screen, "=== MAZE RUNNER - SESSION SELECT ===", 240, y)
	y += 30

	if ws.errorMsg != "" {
		ebitenutil.DebugPrintAt(screen, "ERROR: "+ws.errorMsg, 20, y)
		y += 20
	}

	ebitenutil.DebugPrintAt(screen, "Sessions:", 20, y)
	y += 20
	if len(ws.availableSessions) == 0 {
		ebitenutil.DebugPrintAt(screen, "  No sessions found. Press N to create one.", 20, y)
		y += 20
	}
	for i, s := range ws.availableSessions {
		cursor := "  "
		if i == ws.cursorPos {
			cursor = "> "
		}
		line := fmt.Sprintf("%s%s | %s", cursor, s.ID, s.ConfigName)
		if s.GameState != nil {
			line += fmt.Sprintf(" | %dx%d gen %d moves %d", s.GameState.Rows, s.GameState.Cols,
				s.GameState.Generation, s.GameState.CurrentMovesCount)
			if s.GameState.Won {
				line += " SOLVED"
			}
		}
		ebitenutil.DebugPrintAt(screen, line, 20, y)
		y += 15
	}

	y += 20
	configDisplay := "server default"
	if ws.newSessionConfig != "" {
		configDisplay = ws.newSessionConfig
	}
	ebitenutil.DebugPrintAt(screen, "New session preset: "+configDisplay, 20, y)
	y += 20
	for _, cfg := range ws.availableConfigs {
		marker := "  "
		if cfg.ConfigID == ws.newSessionConfig {
			marker = "> "
		}
		ebitenutil.DebugPrintAt(screen, fmt.Sprintf("  %s%s (%dx%d) - %s", marker, cfg.ConfigID, cfg.Rows, cfg.Cols, cfg.Description), 20, y)
		y += 15
	}

	y += 30
	for _, line := range []string{
		"CONTROLS:",
		"  UP/DOWN  - Navigate sessions",
		"  ENTER    - Open session",
		"  TAB      - Cycle preset for new session",
		"  N        - Create and open a new session",
		"  F5       - Refresh",
	} {
		ebitenutil.DebugPrintAt(screen, line, 20, y)
		y += 15
	}
	if len(g.sessions) > 0 {
		ebitenutil.DebugPrintAt(screen, "  ESC      - Back to game", 20, y)
	}
}

// cellSize fits the whole maze into the area below the header
func cellSize(rows, cols int) float64 {
	if rows == 0 || cols == 0 {
		return 1
	}
	w := float64(screenWidth) / float64(cols)
	h := float64(screenHeight-headerHeight-footerHeight) / float64(rows)
	return math.Max(math.Floor(math.Min(w, h)), 1)
}

func (g *Game) drawGameScreen(screen *ebiten.Image) {
	g.stateMutex.RLock()
	defer g.stateMutex.RUnlock()

	if len(g.sessions) == 0 {
		ebitenutil.DebugPrint(screen, "No sessions open. Press ESC to go to session select.")
		return
	}

	g.drawSessionStats(screen)

	session := g.sessions[g.activeSession]
	state := session.state
	if state == nil || len(state.Grid) == 0 {
		ebitenutil.DebugPrintAt(screen, "Loading...", 10, headerHeight)
		return
	}

	size := cellSize(len(state.Grid), len(state.Grid[0]))
	top := float64(headerHeight)

	for r, row := range state.Grid {
		for c, cell := range row {
			ebitenutil.DrawRect(screen, float64(c)*size, top+float64(r)*size, size-1, size-1, getCellColor(cell))
		}
	}

	// Trail of the current maze, newest most opaque
	playerColor := playerColors[g.activeSession%len(playerColors)]
	history := state.CurrentMoves
	for i, move := range history {
		if !move.Success {
			continue
		}
		opacity := float64(i+1) / float64(len(history)) * 0.5
		trail := color.RGBA{playerColor.R, playerColor.G, playerColor.B, uint8(opacity * 255)}
		dot := math.Max(size/4, 2)
		ebitenutil.DrawRect(screen,
			float64(move.ToPos.Col)*size+size/2-dot/2,
			top+float64(move.ToPos.Row)*size+size/2-dot/2,
			dot, dot, trail)
	}

	t := math.Min(session.animationTime, 1.0)
	displayRow := float64(session.prevPos.Row)*(1.0-t) + float64(session.targetPos.Row)*t
	displayCol := float64(session.prevPos.Col)*(1.0-t) + float64(session.targetPos.Col)*t

	// Blocked moves shake the player and flash it red
	var shakeX, shakeY float64
	if session.isBumping {
		progress := time.Since(session.bumpTime).Seconds() / bumpDuration.Seconds()
		intensity := math.Max(size/8, 1) * (1.0 - progress)
		shakeX = intensity * math.Sin(progress*40)
		shakeY = intensity * math.Cos(progress*40)
		flash := (1.0 - progress) * 0.7
		playerColor.R = uint8(float64(playerColor.R)*(1.0-flash) + 255*flash)
	}

	inset := math.Max(size/8, 1)
	ebitenutil.DrawRect(screen,
		displayCol*size+inset+shakeX,
		top+displayRow*size+inset+shakeY,
		size-2*inset, size-2*inset, playerColor)

	if state.Won {
		ebitenutil.DebugPrintAt(screen, "GOAL REACHED! Press R for a new maze.", 10, headerHeight-16)
	}

	ebitenutil.DebugPrintAt(screen, "1-9: Switch | Arrows/WASD: Move | R: New maze | ESC: Menu", 10, screenHeight-18)
}

func (g *Game) drawSessionStats(screen *ebiten.Image) {
	for idx, session := range g.sessions {
		y := 5 + idx*12
		if y > headerHeight-28 {
			break
		}
		ebitenutil.DrawRect(screen, 5, float64(y), 10, 10, playerColors[idx%len(playerColors)])

		marker := "   "
		if idx == g.activeSession {
			marker = ">>>"
		}
		conn := "POLL"
		if session.live {
			conn = "WS"
		}

		info := fmt.Sprintf("%s [%d] %s [%s]", marker, idx+1, session.sessionID, conn)
		if s := session.state; s != nil {
			info += fmt.Sprintf(" %s gen %d moves %d dist %d", s.ConfigName, s.Generation, s.CurrentMovesCount, s.Distance)
			if s.Won {
				info += " SOLVED"
			}
		}
		ebitenutil.DebugPrintAt(screen, info, 20, y-2)
	}
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return screenWidth, screenHeight
}

func getCellColor(cellType string) color.Color {
	switch cellType {
	case "wall":
		return color.RGBA{40, 40, 60, 255}
	case "path":
		return color.RGBA{200, 200, 200, 255}
	case "goal":
		return color.RGBA{0, 200, 0, 255}
	default:
		return color.RGBA{50, 50, 50, 255}
	}
}

func main() {
	server := flag.String("server", "http://localhost:8080", "Maze game server URL")
	flag.Parse()

	game := NewGame(NewAPIClient(*server), flag.Args())

	ebiten.SetWindowSize(screenWidth, screenHeight)
	ebiten.SetWindowTitle("Maze Runner - Desktop Client")
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)

	if err := ebiten.RunGame(game); err != nil {
		log.Fatal(err)
	}
}
