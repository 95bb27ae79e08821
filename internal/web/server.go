// Package web serves a small admin API in front of the control socket. Every
// request runs one command on a fresh connection.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/rbright/proxenetctl/internal/control"
	"github.com/rbright/proxenetctl/internal/session"
)

const maxValueBytes = 4096

// Config locates the daemon and the plugin directories used by autoload.
type Config struct {
	SocketPath  string
	Control     control.Options
	PluginsDir  string
	AutoloadDir string
	Logger      *slog.Logger
}

// Server routes admin requests to control commands.
type Server struct {
	cfg    Config
	logger *slog.Logger
	router *mux.Router
}

func New(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	s := &Server{cfg: cfg, logger: logger, router: mux.NewRouter()}
	s.routes()
	return s
}

func (s *Server) routes() {
	r := s.router
	r.HandleFunc("/info", s.fixed("info")).Methods(http.MethodGet)
	r.HandleFunc("/plugins", s.fixed("plugin list")).Methods(http.MethodGet)
	r.HandleFunc("/plugins/all", s.fixed("plugin list-all")).Methods(http.MethodGet)
	r.HandleFunc("/threads", s.fixed("threads")).Methods(http.MethodGet)
	r.HandleFunc("/config", s.fixed("config list")).Methods(http.MethodGet)

	r.HandleFunc("/plugins/{id:[0-9]+}/toggle", s.togglePlugin).Methods(http.MethodPost)
	r.HandleFunc("/plugins/load/{name}", s.loadPlugin).Methods(http.MethodPost)
	r.HandleFunc("/threads/{action:inc|dec}", s.threads).Methods(http.MethodPost)
	r.HandleFunc("/config/{key:[A-Za-z0-9_.-]+}", s.setConfig).Methods(http.MethodPost)
	r.HandleFunc("/restart", s.fixed("restart")).Methods(http.MethodPost)
	r.HandleFunc("/quit", s.fixed("quit")).Methods(http.MethodPost)
	r.HandleFunc("/autoload/{name}", s.toggleAutoload).Methods(http.MethodPost)
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves on addr until ctx ends.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts on ln until ctx ends, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(ln) }()
	s.logger.Info("web admin listening", "addr", ln.Addr().String())

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

func (s *Server) fixed(command string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.relay(w, r, command)
	}
}

func (s *Server) togglePlugin(w http.ResponseWriter, r *http.Request) {
	s.relay(w, r, "plugin set "+mux.Vars(r)["id"]+" toggle")
}

func (s *Server) loadPlugin(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	if err := validName(name); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.relay(w, r, "plugin load "+name)
}

func (s *Server) threads(w http.ResponseWriter, r *http.Request) {
	s.relay(w, r, "threads "+mux.Vars(r)["action"])
}

func (s *Server) setConfig(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxValueBytes+1))
	if err != nil {
		http.Error(w, "read body", http.StatusBadRequest)
		return
	}
	if len(body) > maxValueBytes {
		http.Error(w, "value too large", http.StatusRequestEntityTooLarge)
		return
	}
	value := strings.TrimSpace(string(body))
	if value == "" || strings.ContainsAny(value, "\r\n") {
		http.Error(w, "value must be a single non-empty line", http.StatusBadRequest)
		return
	}
	s.relay(w, r, "config set "+mux.Vars(r)["key"]+" "+value)
}

// relay runs command and writes the reply with a content type matching its
// decoded kind.
func (s *Server) relay(w http.ResponseWriter, r *http.Request, command string) {
	if strings.ContainsAny(command, "\r\n") {
		http.Error(w, "control command must be a single line", http.StatusBadRequest)
		return
	}
	s.logger.Info("web control command", "command", session.CommandName(command), "path", r.URL.Path)

	payload, err := control.Exchange(r.Context(), s.cfg.SocketPath, command, s.cfg.Control)
	if err != nil {
		if control.IsUnavailable(err) {
			http.Error(w, "proxenet is not running", http.StatusServiceUnavailable)
			return
		}
		s.logger.Error("web control exchange failed", "command", session.CommandName(command), "error", err)
		http.Error(w, "control exchange failed", http.StatusBadGateway)
		return
	}

	reply := session.DecodeReply(payload)
	switch reply.Kind {
	case session.ReplyJSON:
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, reply.JSON.Raw)
	default:
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = io.WriteString(w, reply.Raw)
	}
}

func (s *Server) toggleAutoload(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	enabled, err := ToggleAutoload(s.cfg.PluginsDir, s.cfg.AutoloadDir, name)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, ErrInvalidName) || errors.Is(err, ErrPluginMissing) {
			status = http.StatusBadRequest
		}
		http.Error(w, err.Error(), status)
		return
	}
	s.logger.Info("autoload toggled", "plugin", name, "enabled", enabled)

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(struct {
		Name     string `json:"name"`
		Autoload bool   `json:"autoload"`
	}{Name: name, Autoload: enabled})
}
