package main

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/wricardo/mcp-training/mazegame/game/config"
	"github.com/wricardo/mcp-training/mazegame/game/session"
)

// withFlag sets a string flag for the duration of the test
func withFlag(t *testing.T, flag *string, value string) {
	t.Helper()
	original := *flag
	*flag = value
	t.Cleanup(func() { *flag = original })
}

func TestConstants(t *testing.T) {
	if Version == "" {
		t.Error("Version should not be empty")
	}
	if AppName != "Maze Game Server" {
		t.Errorf("Expected app name Maze Game Server, got %s", AppName)
	}
}

func TestEnvDefault(t *testing.T) {
	t.Setenv("MAZEGAME_TEST_VALUE", "")
	if got := envDefault("MAZEGAME_TEST_VALUE", "fallback"); got != "fallback" {
		t.Errorf("Expected fallback, got %s", got)
	}

	t.Setenv("MAZEGAME_TEST_VALUE", "set")
	if got := envDefault("MAZEGAME_TEST_VALUE", "fallback"); got != "set" {
		t.Errorf("Expected set, got %s", got)
	}
}

func TestIsStdioMode(t *testing.T) {
	for _, mode := range []string{"stdio-mcp", "mcp-stdio", "mcp"} {
		if !isStdioMode(mode) {
			t.Errorf("Expected %s to be a stdio mode", mode)
		}
	}
	for _, mode := range []string{"server", "http", ""} {
		if isStdioMode(mode) {
			t.Errorf("Expected %s not to be a stdio mode", mode)
		}
	}
}

func TestInitializeServices(t *testing.T) {
	if _, err := os.Stat("configs"); os.IsNotExist(err) {
		t.Skip("Skipping test - configs directory not found")
	}
	withFlag(t, configDir, "configs")
	withFlag(t, storage, "file")
	withFlag(t, sessionsDir, t.TempDir())

	app, err := initializeServices()
	if err != nil {
		t.Fatalf("Failed to initialize services: %v", err)
	}
	defer app.shutdown()
	if app.game == nil {
		t.Fatal("Expected game service to be initialized")
	}
}

func TestInitializeServices_DefaultConfig(t *testing.T) {
	if _, err := os.Stat("configs"); os.IsNotExist(err) {
		t.Skip("Skipping test - configs directory not found")
	}
	withFlag(t, configDir, "configs")
	withFlag(t, storage, "file")
	withFlag(t, sessionsDir, t.TempDir())
	withFlag(t, defaultConfig, "easy")

	app, err := initializeServices()
	if err != nil {
		t.Fatalf("Failed to initialize services: %v", err)
	}
	defer app.shutdown()

	info, err := app.game.CreateSession(context.Background(), "")
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}
	if info.GameConfig.Name != "easy" {
		t.Errorf("Expected the easy preset, got %q", info.GameConfig.Name)
	}

	withFlag(t, defaultConfig, "no-such-preset")
	if _, err := initializeServices(); !errors.Is(err, config.ErrConfigNotFound) {
		t.Errorf("Expected ErrConfigNotFound for an unknown default, got %v", err)
	}
}

func TestServicesShutdownSavesSessions(t *testing.T) {
	if _, err := os.Stat("configs"); os.IsNotExist(err) {
		t.Skip("Skipping test - configs directory not found")
	}
	dir := t.TempDir()
	withFlag(t, configDir, "configs")
	withFlag(t, storage, "file")
	withFlag(t, sessionsDir, dir)

	app, err := initializeServices()
	if err != nil {
		t.Fatalf("Failed to initialize services: %v", err)
	}

	ctx := context.Background()
	info, err := app.game.CreateSession(ctx, "")
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}
	if _, err := app.game.Move(ctx, info.ID, "right", false); err != nil {
		t.Fatalf("Move failed: %v", err)
	}

	file := filepath.Join(dir, strings.ToLower(info.ID)+".json")
	if err := os.Remove(file); err != nil {
		t.Fatalf("Expected session file on disk: %v", err)
	}

	app.shutdown()

	if _, err := os.Stat(file); err != nil {
		t.Errorf("Expected shutdown to write the session back: %v", err)
	}
}

func TestInitializeServices_InvalidConfigDir(t *testing.T) {
	withFlag(t, configDir, "/non/existent/path")

	if _, err := initializeServices(); err == nil {
		t.Error("Expected error for non-existent config directory")
	}
}

func TestNewPersistence(t *testing.T) {
	configManager, err := config.NewManager(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create config manager: %v", err)
	}

	t.Run("file", func(t *testing.T) {
		withFlag(t, storage, "file")
		withFlag(t, sessionsDir, t.TempDir())

		store, closeStore, err := newPersistence(configManager)
		if err != nil {
			t.Fatalf("Expected file store, got error: %v", err)
		}
		if _, ok := store.(*session.FilePersistence); !ok {
			t.Errorf("Expected *session.FilePersistence, got %T", store)
		}
		if err := closeStore(); err != nil {
			t.Errorf("Closing the file store failed: %v", err)
		}
	})

	t.Run("unknown backend", func(t *testing.T) {
		withFlag(t, storage, "tape")

		if _, _, err := newPersistence(configManager); err == nil {
			t.Error("Expected error for unknown storage backend")
		}
	})

	t.Run("redis unreachable", func(t *testing.T) {
		withFlag(t, storage, "redis")
		withFlag(t, redisAddr, "127.0.0.1:1")

		if _, _, err := newPersistence(configManager); err == nil {
			t.Error("Expected error when redis is unreachable")
		}
	})
}

func TestMCPHandler(t *testing.T) {
	client := httptest.NewServer(http.NotFoundHandler())
	defer client.Close()

	handler := newRouter(nil, nil, client.URL)

	t.Run("rejects GET", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest("GET", "/mcp", nil))
		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("Expected 405, got %d", rec.Code)
		}
	})

	t.Run("answers ping", func(t *testing.T) {
		body := strings.NewReader(`{"jsonrpc":"2.0","id":1,"method":"ping"}`)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest("POST", "/mcp", body))

		if rec.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d", rec.Code)
		}
		if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
			t.Errorf("Expected JSON content type, got %s", ct)
		}
		if !strings.Contains(rec.Body.String(), `"jsonrpc":"2.0"`) {
			t.Errorf("Expected JSON-RPC response, got %s", rec.Body.String())
		}
	})
}

func TestAPIAvailable(t *testing.T) {
	healthy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/health" {
			http.NotFound(w, r)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer healthy.Close()

	if !apiAvailable(healthy.URL) {
		t.Error("Expected healthy server to be available")
	}

	unhealthy := httptest.NewServer(http.NotFoundHandler())
	defer unhealthy.Close()

	if apiAvailable(unhealthy.URL) {
		t.Error("Expected server without health endpoint to be unavailable")
	}
}
