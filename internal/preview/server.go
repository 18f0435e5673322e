// Package preview serves an application folder over HTTP for local testing.
package preview

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"syscall"
	"time"
)

const indexFile = "index.html"

var (
	ErrPortRange   = errors.New("Port number should be in the range 1-65535.")
	ErrInvalidPath = errors.New("Invalid path.")
	ErrNoIndex     = errors.New("Path doesn't contain index.html.")
)

// Server is a static file server confined to a single root directory.
type Server struct {
	root     string
	port     int
	host     string
	watch    bool
	onChange func(string)
	onReady  func(string)
	logger   *slog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithWatch reports file changes under the root while serving.
func WithWatch(enabled bool) Option {
	return func(s *Server) {
		s.watch = enabled
	}
}

// WithChangeHandler is called with the changed path for every watched event.
func WithChangeHandler(fn func(path string)) Option {
	return func(s *Server) {
		s.onChange = fn
	}
}

// WithReadyHandler is called with the listen URL once the socket is bound.
func WithReadyHandler(fn func(url string)) Option {
	return func(s *Server) {
		s.onReady = fn
	}
}

// WithHost binds to a specific interface instead of all of them.
func WithHost(host string) Option {
	return func(s *Server) {
		s.host = host
	}
}

// WithLogger sets the logger for request and watcher traces.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// New validates the port and root folder and returns a Server.
func New(root string, port int, opts ...Option) (*Server, error) {
	if port < 1 || port > 65535 {
		return nil, ErrPortRange
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, ErrInvalidPath
	}
	info, err := os.Stat(abs)
	if err != nil || !info.IsDir() {
		return nil, ErrInvalidPath
	}
	if info, err := os.Stat(filepath.Join(abs, indexFile)); err != nil || info.IsDir() {
		return nil, ErrNoIndex
	}

	s := &Server{
		root:   abs,
		port:   port,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// URL is the address printed once the server is ready. Wildcard hosts are
// shown as localhost.
func (s *Server) URL() string {
	host := s.host
	if ip := net.ParseIP(host); host == "" || (ip != nil && ip.IsUnspecified()) {
		host = "localhost"
	}
	return "http://" + net.JoinHostPort(host, fmt.Sprint(s.port)) + "/"
}

// Listen binds the configured port, translating the common bind failures.
func (s *Server) Listen() (net.Listener, error) {
	ln, err := net.Listen("tcp", net.JoinHostPort(s.host, fmt.Sprint(s.port)))
	if err != nil {
		switch {
		case errors.Is(err, syscall.EADDRINUSE):
			return nil, fmt.Errorf("Port %d is in use.", s.port)
		case errors.Is(err, syscall.EACCES):
			return nil, fmt.Errorf("Current User is not allowed to open port %d.", s.port)
		}
		return nil, err
	}
	return ln, nil
}

// Run serves until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	ln, err := s.Listen()
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	if s.watch {
		stop, err := s.startWatcher(ctx)
		if err != nil {
			_ = ln.Close()
			return err
		}
		defer stop()
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			s.logger.Warn("preview server shutdown failed", "error", err)
		}
	}()

	if s.onReady != nil {
		s.onReady(s.URL())
	}
	s.logger.Debug("preview server listening", "addr", ln.Addr().String(), "root", s.root)

	err = httpServer.Serve(ln)
	if errors.Is(err, http.ErrServerClosed) {
		<-done
		return nil
	}
	return err
}

// Handler returns the file serving handler.
func (s *Server) Handler() http.Handler {
	return http.HandlerFunc(s.serveFile)
}

func (s *Server) serveFile(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		writePlain(w, http.StatusMethodNotAllowed, "405 Method Not Allowed")
		return
	}

	name := path.Clean("/" + r.URL.Path)
	full := filepath.Join(s.root, filepath.FromSlash(name))

	info, err := os.Stat(full)
	if err != nil {
		s.writeFileError(w, name, err)
		return
	}
	if info.IsDir() {
		full = filepath.Join(full, indexFile)
		if info, err = os.Stat(full); err != nil {
			s.writeFileError(w, name, err)
			return
		}
		if info.IsDir() {
			writePlain(w, http.StatusNotFound, "404 Not Found")
			return
		}
	}

	file, err := os.Open(full)
	if err != nil {
		s.writeFileError(w, name, err)
		return
	}
	defer file.Close()

	s.logger.Debug("preview request", "method", r.Method, "path", name)
	http.ServeContent(w, r, filepath.Base(full), info.ModTime(), file)
}

func (s *Server) writeFileError(w http.ResponseWriter, name string, err error) {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		writePlain(w, http.StatusNotFound, "404 Not Found")
	case errors.Is(err, fs.ErrPermission):
		writePlain(w, http.StatusForbidden, "403 Forbidden")
	default:
		s.logger.Warn("preview request failed", "path", name, "error", err)
		writePlain(w, http.StatusInternalServerError, err.Error())
	}
}

func writePlain(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = fmt.Fprintln(w, body)
}
