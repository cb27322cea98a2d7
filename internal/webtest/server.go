// Package webtest provides end-to-end testing utilities that boot the real
// web server on a loopback port.
package webtest

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/taskdeckapp/taskdeck/internal/app"
	"github.com/taskdeckapp/taskdeck/internal/config"
	"github.com/taskdeckapp/taskdeck/internal/server"
	"github.com/taskdeckapp/taskdeck/internal/storage"
)

// Server is a test server running the app against a throwaway database.
type Server struct {
	baseURL string
	tempDir string
	cancel  context.CancelFunc
	grp     *errgroup.Group
	store   storage.Store
}

// NewServer creates and starts a new test server. It panics on errors so it
// can also be used from TestMain, which cannot use testing.TB.
func NewServer() *Server {
	ctx, cancel := context.WithCancel(context.Background())
	grp, ctx := errgroup.WithContext(ctx)

	logger := slog.New(slog.DiscardHandler)

	tempDir, err := os.MkdirTemp("", "taskdeck-webtest-*")
	if err != nil {
		cancel()
		panic(fmt.Sprintf("failed to create temp dir: %v", err))
	}

	cfg := testConfig(tempDir)
	store, err := storage.NewDB(ctx, cfg, logger)
	if err != nil {
		cancel()
		panic(fmt.Sprintf("failed to create storage: %v", err))
	}

	appServer := app.New(cfg, logger, store)
	listener, err := server.Listen(ctx, "127.0.0.1:0")
	if err != nil {
		cancel()
		_ = store.Close()
		panic(fmt.Sprintf("failed to listen: %v", err))
	}
	addr := listener.Addr().String()
	server.Serve(ctx, grp, appServer.Server, listener, server.ShutdownTimeout)

	return &Server{
		baseURL: "http://" + addr,
		tempDir: tempDir,
		cancel:  cancel,
		grp:     grp,
		store:   store,
	}
}

// BaseURL returns the base URL of the test server.
func (s *Server) BaseURL() string {
	return s.baseURL
}

// URL constructs a full URL from the server base URL and a path.
func (s *Server) URL(path string) string {
	return s.baseURL + path
}

// Store exposes the backing store for test assertions.
func (s *Server) Store() storage.Store {
	return s.store
}

// Close shuts down the test server.
// Errors are ignored since this runs during test cleanup where failures
// are typically unrecoverable.
func (s *Server) Close() {
	s.cancel()
	_ = s.grp.Wait()
	_ = s.store.Close()
	_ = os.RemoveAll(s.tempDir)
}

func testConfig(tempDir string) *config.Config {
	cfg := config.Default()
	cfg.LogLevel = "DEBUG"
	cfg.DBFilepath = filepath.Join(tempDir, "db.sqlite")
	cfg.SessionSecret = "webtest-secret"
	return cfg
}
