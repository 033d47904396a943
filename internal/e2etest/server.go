package e2etest

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/myrjola/loadcoach/internal/logging"

	_ "github.com/mattn/go-sqlite3"
)

// LogAddrKey is the key used to log the address the server is listening on.
const LogAddrKey = "addr"

// LogDsnKey is the key used to log the SQLite DSN so that tests can inspect the database the server uses.
const LogDsnKey = "sqlDsn"

// RunFunc starts the application and blocks until ctx is cancelled.
type RunFunc func(ctx context.Context, logger *slog.Logger, lookupEnv func(string) (string, bool)) error

type Server struct {
	url    string
	client *Client
	// db is nil when the server doesn't use SQLite.
	db     *sql.DB
	cancel context.CancelCauseFunc
	done   chan struct{}
}

// tapHandler forwards records to the wrapped handler and remembers the first value logged for each watched key.
type tapHandler struct {
	slog.Handler
	mu     *sync.Mutex
	seen   map[string]string
	notify chan struct{}
}

func newTapHandler(h slog.Handler, keys ...string) *tapHandler {
	seen := make(map[string]string, len(keys))
	for _, k := range keys {
		seen[k] = ""
	}
	return &tapHandler{Handler: h, mu: &sync.Mutex{}, seen: seen, notify: make(chan struct{}, 1)}
}

func (h *tapHandler) Handle(ctx context.Context, r slog.Record) error {
	r.Attrs(func(a slog.Attr) bool {
		h.mu.Lock()
		defer h.mu.Unlock()
		if v, ok := h.seen[a.Key]; ok && v == "" {
			h.seen[a.Key] = a.Value.String()
			select {
			case h.notify <- struct{}{}:
			default:
			}
		}
		return true
	})
	return h.Handler.Handle(ctx, r) //nolint:wrapcheck // transparent wrapper.
}

func (h *tapHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &tapHandler{Handler: h.Handler.WithAttrs(attrs), mu: h.mu, seen: h.seen, notify: h.notify}
}

func (h *tapHandler) WithGroup(name string) slog.Handler {
	return &tapHandler{Handler: h.Handler.WithGroup(name), mu: h.mu, seen: h.seen, notify: h.notify}
}

func (h *tapHandler) value(key string) string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.seen[key]
}

// StartServer runs the application in the background and returns once it answers /api/healthy.
//
// logSink receives the server logs, usually a testhelpers.NewWriter. The listening address is read from the LogAddrKey
// log attribute. When the server logs a SQLite DSN under LogDsnKey before it starts listening, the database is opened
// for direct inspection through DB. The server shuts down when the test finishes.
func StartServer(t *testing.T, logSink io.Writer, lookupEnv func(string) (string, bool), run RunFunc) (*Server, error) {
	ctx, cancel := context.WithCancelCause(t.Context())
	tap := newTapHandler(slog.NewTextHandler(logSink, &slog.HandlerOptions{
		AddSource:   false,
		Level:       slog.LevelDebug,
		ReplaceAttr: nil,
	}), LogAddrKey, LogDsnKey)
	logger := slog.New(logging.NewContextHandler(tap))

	server := &Server{url: "", client: nil, db: nil, cancel: cancel, done: make(chan struct{})}
	t.Cleanup(server.Shutdown)
	go func() {
		defer close(server.done)
		if err := run(ctx, logger, lookupEnv); err != nil {
			cancel(err)
			return
		}
		cancel(errors.New("server stopped"))
	}()

	for tap.value(LogAddrKey) == "" {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("server exited before listening: %w", context.Cause(ctx))
		case <-tap.notify:
		}
	}

	server.url = "http://" + tap.value(LogAddrKey)
	server.client = NewClient(server.url)
	if err := server.client.WaitForReady(ctx, "/api/healthy"); err != nil {
		return nil, fmt.Errorf("wait for ready: %w", err)
	}
	if dsn := tap.value(LogDsnKey); dsn != "" {
		db, err := sql.Open("sqlite3", dsn)
		if err != nil {
			return nil, fmt.Errorf("open database: %w", err)
		}
		server.db = db
	}
	return server, nil
}

func (s *Server) Client() *Client {
	return s.client
}

func (s *Server) URL() string {
	return s.url
}

func (s *Server) DB() *sql.DB {
	return s.db
}

// Shutdown stops the server and waits for run to return. It's safe to call more than once.
func (s *Server) Shutdown() {
	s.cancel(nil)
	<-s.done
	if s.db != nil {
		_ = s.db.Close()
		s.db = nil
	}
}
