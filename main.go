// Command mazegame starts the maze game server.
//
// It supports two modes:
//  1. "server" (default) runs the HTTP server exposing the REST API, WebSocket, and an /mcp HTTP endpoint
//  2. "stdio-mcp" runs an MCP stdio server and spins up an internal HTTP API if none is available
//
// Sessions are stored as JSON files by default. Pass -storage redis to keep
// them in Redis instead so several server instances can share them.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/server"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/wricardo/mcp-training/mazegame/api"
	"github.com/wricardo/mcp-training/mazegame/game/config"
	"github.com/wricardo/mcp-training/mazegame/game/service"
	"github.com/wricardo/mcp-training/mazegame/game/session"
	"github.com/wricardo/mcp-training/mazegame/transport/mcp"
	"github.com/wricardo/mcp-training/mazegame/transport/websocket"
	"golang.ngrok.com/ngrok"
	ngrokConfig "golang.ngrok.com/ngrok/config"
)

const (
	Version = "1.0.0"
	AppName = "Maze Game Server"
)

var (
	port          = flag.Int("port", 8080, "HTTP server port")
	host          = flag.String("host", "localhost", "HTTP server host")
	configDir     = flag.String("config-dir", envDefault("CONFIG_DIR", "configs"), "Directory containing maze presets")
	defaultConfig = flag.String("default-config", os.Getenv("DEFAULT_CONFIG"), "Preset used when a session names none (default classic)")
	storage       = flag.String("storage", envDefault("STORAGE", "file"), "Session storage backend: file or redis")
	sessionsDir   = flag.String("sessions-dir", envDefault("SESSIONS_DIR", "sessions"), "Directory for file session storage")
	redisAddr     = flag.String("redis-addr", envDefault("REDIS_ADDR", "localhost:6379"), "Redis address for redis session storage")
	redisPassword = flag.String("redis-password", os.Getenv("REDIS_PASSWORD"), "Redis password")
	sessionTTL    = flag.Duration("session-ttl", 24*time.Hour, "Evict sessions idle for longer than this")
	debug         = flag.Bool("debug", false, "Enable debug logging")
	version       = flag.Bool("version", false, "Show version information")
	ngrokEnabled  = flag.Bool("ngrok", false, "Enable ngrok tunnel")
	ngrokAuth     = flag.String("ngrok-auth", "", "Ngrok auth token (or use NGROK_AUTHTOKEN env var)")
	ngrokDomain   = flag.String("ngrok-domain", "", "Custom ngrok domain (optional)")
)

// envDefault returns the environment value for key, or fallback when unset
func envDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func init() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [OPTIONS] [MODE]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "%s v%s\n\n", AppName, Version)
		fmt.Fprintf(os.Stderr, "Available modes:\n")
		fmt.Fprintf(os.Stderr, "  server, http     Run HTTP server with API, WebSocket, and MCP endpoint (default)\n")
		fmt.Fprintf(os.Stderr, "  stdio-mcp        Run MCP stdio server with internal HTTP server\n")
		fmt.Fprintf(os.Stderr, "  mcp-stdio, mcp   Aliases for stdio-mcp\n")
		fmt.Fprintf(os.Stderr, "\nOptions:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s                                   # HTTP server on port 8080, file sessions\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -storage redis -redis-addr r:6379 # share sessions through Redis\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s stdio-mcp                         # MCP stdio server\n", os.Args[0])
	}
}

func main() {
	// A missing .env is fine
	if err := godotenv.Load(); err == nil {
		logrus.Info("Loaded environment variables from .env file")
	} else if !os.IsNotExist(err) {
		logrus.WithError(err).Warn("Error loading .env file")
	}

	flag.Parse()

	if *version {
		fmt.Printf("%s v%s\n", AppName, Version)
		os.Exit(0)
	}

	setupLogging(*debug)

	args := flag.Args()
	mode := "server"
	if len(args) > 0 {
		mode = args[0]
	}

	// stdout belongs to the MCP protocol in stdio mode
	if isStdioMode(mode) {
		logrus.SetOutput(os.Stderr)
	}

	logrus.Infof("Starting %s v%s (mode: %s)", AppName, Version, mode)

	if !isStdioMode(mode) && mode != "server" && mode != "http" {
		logrus.Fatalf("Unknown mode: %s. Use 'server' (default) or 'stdio-mcp'", mode)
	}

	app, err := initializeServices()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to initialize services")
	}
	defer app.shutdown()

	if isStdioMode(mode) {
		runStdioMCPWithInternalServer(app.game)
	} else {
		runHTTPServer(app.game)
	}
}

func isStdioMode(mode string) bool {
	switch mode {
	case "stdio-mcp", "mcp-stdio", "mcp":
		return true
	}
	return false
}

func setupLogging(debug bool) {
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if debug {
		logrus.SetLevel(logrus.DebugLevel)
		logrus.SetReportCaller(true)
		return
	}
	logrus.SetLevel(logrus.InfoLevel)
}

// newMCPHandler serves single JSON-RPC messages posted to /mcp
func newMCPHandler(mcpServer *server.MCPServer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "Failed to read request", http.StatusBadRequest)
			return
		}
		defer r.Body.Close()

		response := mcpServer.HandleMessage(r.Context(), body)

		w.Header().Set("Content-Type", "application/json")
		responseData, err := json.Marshal(response)
		if err != nil {
			http.Error(w, "Failed to marshal response", http.StatusInternalServerError)
			return
		}
		w.Write(responseData)
	}
}

// newRouter mounts the REST API, WebSocket and the /mcp endpoint on one mux
func newRouter(gameService service.GameService, hub *websocket.Hub, baseURL string) *http.ServeMux {
	mainRouter := http.NewServeMux()
	mainRouter.Handle("/", api.NewServer(gameService, hub))
	mainRouter.HandleFunc("/mcp", newMCPHandler(mcp.NewClient(baseURL).GetMCPServer()))
	return mainRouter
}

func runHTTPServer(gameService service.GameService) {
	hub := websocket.NewHub()
	go hub.Run()

	addr := fmt.Sprintf("%s:%d", *host, *port)
	mainRouter := newRouter(gameService, hub, fmt.Sprintf("http://%s", addr))

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      mainRouter,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()

		logrus.Infof("HTTP server listening on %s", addr)
		logrus.Infof("REST API: http://%s/api", addr)
		logrus.Infof("WebSocket: ws://%s/ws?session=<session_id>", addr)
		logrus.Infof("MCP endpoint: http://%s/mcp", addr)

		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.WithError(err).Fatal("HTTP server failed")
		}
	}()

	ngrokShouldRun := *ngrokEnabled
	if env := os.Getenv("NGROK_ENABLED"); env == "true" || env == "1" {
		ngrokShouldRun = true
	}

	if ngrokShouldRun {
		wg.Add(1)
		go func() {
			defer wg.Done()
			runNgrokTunnel(ctx, mainRouter)
		}()
	}

	sig := <-stop
	logrus.Infof("Received signal: %v. Shutting down...", sig)
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logrus.WithError(err).Error("HTTP server shutdown error")
	}

	wg.Wait()
	logrus.Info("Server stopped")
}

// runNgrokTunnel serves handler through a public ngrok endpoint until ctx ends
func runNgrokTunnel(ctx context.Context, handler http.Handler) {
	authToken := *ngrokAuth
	if authToken == "" {
		authToken = os.Getenv("NGROK_AUTHTOKEN")
	}
	if authToken == "" {
		authToken = os.Getenv("NGROK_AUTH_TOKEN")
	}
	if authToken == "" {
		logrus.Warn("Ngrok enabled but no auth token provided (use -ngrok-auth, NGROK_AUTHTOKEN, or NGROK_AUTH_TOKEN)")
		return
	}

	domain := *ngrokDomain
	if domain == "" {
		domain = os.Getenv("NGROK_DOMAIN")
	}

	var tunnel ngrokConfig.Tunnel
	if domain != "" {
		tunnel = ngrokConfig.HTTPEndpoint(ngrokConfig.WithDomain(domain))
		logrus.Infof("Using custom ngrok domain: %s", domain)
	} else {
		tunnel = ngrokConfig.HTTPEndpoint()
	}

	logrus.Info("Starting ngrok tunnel...")
	tun, err := ngrok.Listen(ctx, tunnel, ngrok.WithAuthtoken(authToken))
	if err != nil {
		logrus.WithError(err).Error("Failed to start ngrok tunnel")
		return
	}
	defer func() {
		if err := tun.Close(); err != nil {
			logrus.WithError(err).Warn("Failed to close ngrok tunnel")
		}
	}()

	ngrokURL := tun.URL()
	logrus.WithField("url", ngrokURL).Info("Ngrok tunnel established")
	logrus.Infof("  REST API (ngrok): %s/api", ngrokURL)
	logrus.Infof("  WebSocket (ngrok): %s/ws?session=<session_id>", ngrokURL)
	logrus.Infof("  MCP endpoint (ngrok): %s/mcp", ngrokURL)

	if err := http.Serve(tun, handler); err != nil && err != http.ErrServerClosed {
		logrus.WithError(err).Warn("Ngrok server error")
	}
	logrus.Info("Ngrok tunnel closed")
}

// newPersistence builds the session store selected by -storage. The returned
// func releases the store's connections.
func newPersistence(configManager *config.Manager) (session.SessionPersistence, func() error, error) {
	switch *storage {
	case "file", "":
		store, err := session.NewFilePersistence(*sessionsDir, configManager)
		if err != nil {
			return nil, nil, err
		}
		return store, func() error { return nil }, nil
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     *redisAddr,
			Password: *redisPassword,
		})
		store, err := session.NewRedisPersistence(client, configManager, *sessionTTL)
		if err != nil {
			client.Close()
			return nil, nil, err
		}
		return store, client.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage backend %q (want file or redis)", *storage)
	}
}

// services is everything initializeServices starts; shutdown undoes it
type services struct {
	game       service.GameService
	sessions   *session.Manager
	stop       context.CancelFunc
	closeStore func() error
}

// shutdown stops the background routines, flushes every session to the store
// and closes the store
func (a *services) shutdown() {
	a.stop()
	if err := a.sessions.SaveAllSessions(); err != nil {
		logrus.WithError(err).Warn("Failed to save sessions on shutdown")
	}
	if err := a.closeStore(); err != nil {
		logrus.WithError(err).Warn("Failed to close session store")
	}
}

// initializeServices wires the config manager, session store and game service,
// then starts the background cleanup and sync routines.
func initializeServices() (*services, error) {
	configManager, err := config.NewManager(*configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create config manager: %w", err)
	}
	if *defaultConfig != "" {
		if err := configManager.SetDefault(*defaultConfig); err != nil {
			return nil, err
		}
		logrus.WithField("config", *defaultConfig).Info("Default maze preset set")
	}

	persistence, closeStore, err := newPersistence(configManager)
	if err != nil {
		return nil, fmt.Errorf("failed to create session persistence: %w", err)
	}
	logrus.WithField("storage", *storage).Info("Session persistence ready")

	sessionManager := session.NewManagerWithPersistence(persistence)
	if err := sessionManager.LoadPersistedSessions(); err != nil {
		logrus.WithError(err).Warn("Failed to load persisted sessions")
	}

	ctx, stop := context.WithCancel(context.Background())
	go sessionCleanupRoutine(ctx, sessionManager, *sessionTTL)
	go storeSyncRoutine(ctx, sessionManager)

	return &services{
		game:       service.NewGameService(sessionManager, configManager),
		sessions:   sessionManager,
		stop:       stop,
		closeStore: closeStore,
	}, nil
}

// sessionCleanupRoutine evicts sessions idle for longer than ttl
func sessionCleanupRoutine(ctx context.Context, manager *session.Manager, ttl time.Duration) {
	ticker := time.NewTicker(1 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := manager.CleanupExpiredSessions(ttl); removed > 0 {
				logrus.Infof("Cleaned up %d expired sessions", removed)
			}
		}
	}
}

// storeSyncRoutine drops in-memory sessions whose stored copy was deleted
func storeSyncRoutine(ctx context.Context, manager *session.Manager) {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			pruned, err := manager.SyncWithStore()
			if err != nil {
				logrus.WithError(err).Warn("Session store sync failed")
				continue
			}
			if pruned > 0 {
				logrus.Infof("Store sync: pruned %d orphaned sessions from memory", pruned)
			}
		}
	}
}

// runStdioMCPWithInternalServer runs an MCP stdio server.
// It reuses an API already listening on localhost:8080, otherwise it serves
// one on a random loopback port and targets that.
func runStdioMCPWithInternalServer(gameService service.GameService) {
	baseURL := "http://localhost:8080"
	logrus.Infof("Checking for external API server at %s...", baseURL)

	if apiAvailable(baseURL) {
		logrus.Infof("External API server found at %s, using it for MCP", baseURL)
	} else {
		listener, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			logrus.WithError(err).Fatal("Failed to get available port")
		}
		baseURL = fmt.Sprintf("http://%s", listener.Addr().String())
		logrus.Infof("No external API server found, starting internal HTTP server on %s", listener.Addr())

		hub := websocket.NewHub()
		go hub.Run()

		httpServer := &http.Server{Handler: api.NewServer(gameService, hub)}
		go func() {
			if err := httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
				logrus.WithError(err).Error("Internal HTTP server error")
			}
		}()
	}

	mcpClient := mcp.NewClient(baseURL)
	logrus.Info("MCP stdio server ready")

	if err := server.ServeStdio(mcpClient.GetMCPServer()); err != nil {
		logrus.WithError(err).Error("MCP stdio server error")
	}
}

// apiAvailable probes the health endpoint of a maze API
func apiAvailable(baseURL string) bool {
	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get(baseURL + "/api/health")
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}
