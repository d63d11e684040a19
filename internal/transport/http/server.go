package http

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/feeds"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	sloghttp "github.com/samber/slog-http"

	channelDomain "github.com/reshetovitsme/channel-autoposter/internal/modules/channel/domain"
	feedDomain "github.com/reshetovitsme/channel-autoposter/internal/modules/feed/domain"
	"github.com/reshetovitsme/channel-autoposter/internal/modules/files"
	userDomain "github.com/reshetovitsme/channel-autoposter/internal/modules/user/domain"
	"github.com/reshetovitsme/channel-autoposter/internal/shared/config"
	"github.com/reshetovitsme/channel-autoposter/internal/shared/errors"
)

// Channels is the channel management API served over HTTP.
type Channels interface {
	Create(ctx context.Context, ch *channelDomain.Channel) error
	Get(ctx context.Context, id int64) (*channelDomain.Channel, error)
	GetAll(ctx context.Context) ([]*channelDomain.Channel, error)
	Update(ctx context.Context, id int64, changes *channelDomain.Channel) (*channelDomain.Channel, error)
	Delete(ctx context.Context, id int64, purge bool) error
	Activate(ctx context.Context, id int64) (*channelDomain.Channel, error)
	Deactivate(ctx context.Context, id int64) error
	Files(ctx context.Context, id int64) (map[files.Folder][]string, error)
}

// Feeds builds published-post feeds.
type Feeds interface {
	GenerateFeed(ctx context.Context, channelID int64, baseURL string) (*feeds.Feed, error)
	Render(feed *feeds.Feed, format feedDomain.Format) (string, error)
}

// Authenticator checks operator credentials.
type Authenticator interface {
	Authenticate(ctx context.Context, username, password string) (*userDomain.User, error)
}

// Server serves the channel management API, feeds and metrics
type Server struct {
	cfg      *config.Config
	channels Channels
	feeds    Feeds
	auth     Authenticator
	gatherer prometheus.Gatherer
	logger   *slog.Logger

	mu     sync.Mutex
	server *http.Server
}

// New creates a new HTTP server. A nil authenticator leaves the API open.
func New(cfg *config.Config, channels Channels, feeds Feeds, auth Authenticator, gatherer prometheus.Gatherer) *Server {
	return &Server{
		cfg:      cfg,
		channels: channels,
		feeds:    feeds,
		auth:     auth,
		gatherer: gatherer,
		logger:   slog.Default(),
	}
}

// SetLogger sets the logger
func (s *Server) SetLogger(logger *slog.Logger) {
	s.logger = logger
}

// Handler builds the router with middleware applied.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(sloghttp.Recovery)
	r.Use(sloghttp.New(s.logger))

	r.Get("/ping", s.handlePing)
	r.Get("/health", s.handleHealth)
	r.Get("/rss/{channelID}", s.handleFeed)
	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/channels", func(r chi.Router) {
		if s.auth != nil {
			r.Use(s.basicAuth)
		}
		r.Get("/get_all", s.handleGetAll)
		r.Get("/get/{channelID}", s.handleGet)
		r.Post("/add", s.handleAdd)
		r.Put("/update/{channelID}", s.handleUpdate)
		r.Delete("/delete/{channelID}", s.handleDelete)
		r.Post("/{channelID}/activate", s.handleActivate)
		r.Post("/{channelID}/deactivate", s.handleDeactivate)
		r.Get("/{channelID}/files", s.handleFiles)
	})

	return r
}

// Start serves until Shutdown is called
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%s", s.cfg.HTTPPort)
	s.logger.Info("HTTP server starting", "addr", addr)

	s.mu.Lock()
	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	srv := s.server
	s.mu.Unlock()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting connections and waits for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	srv := s.server
	s.mu.Unlock()
	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}

func (s *Server) basicAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		username, password, ok := r.BasicAuth()
		if ok {
			if _, err := s.auth.Authenticate(r.Context(), username, password); err == nil {
				next.ServeHTTP(w, r)
				return
			}
		}
		w.Header().Set("WWW-Authenticate", `Basic realm="autoposter"`)
		writeError(w, http.StatusUnauthorized, errors.ErrUnauthorized)
	})
}

func (s *Server) handlePing(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"status": true})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleGetAll(w http.ResponseWriter, r *http.Request) {
	channels, err := s.channels.GetAll(r.Context())
	if err != nil {
		s.fail(w, err)
		return
	}
	if channels == nil {
		channels = []*channelDomain.Channel{}
	}
	writeJSON(w, http.StatusOK, channels)
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := channelID(w, r)
	if !ok {
		return
	}
	ch, err := s.channels.Get(r.Context(), id)
	if errors.Is(err, errors.ErrChannelNotFound) {
		writeJSON(w, http.StatusOK, nil)
		return
	}
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ch)
}

func (s *Server) handleAdd(w http.ResponseWriter, r *http.Request) {
	var ch channelDomain.Channel
	if err := json.NewDecoder(r.Body).Decode(&ch); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	ch.ID = 0
	if err := s.channels.Create(r.Context(), &ch); err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"status": "ok", "id": ch.ID})
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := channelID(w, r)
	if !ok {
		return
	}
	var changes channelDomain.Channel
	if err := json.NewDecoder(r.Body).Decode(&changes); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if _, err := s.channels.Update(r.Context(), id, &changes); err != nil {
		s.fail(w, err)
		return
	}
	writeOK(w)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := channelID(w, r)
	if !ok {
		return
	}
	purge, _ := strconv.ParseBool(r.URL.Query().Get("purge"))
	if err := s.channels.Delete(r.Context(), id, purge); err != nil {
		s.fail(w, err)
		return
	}
	writeOK(w)
}

func (s *Server) handleActivate(w http.ResponseWriter, r *http.Request) {
	id, ok := channelID(w, r)
	if !ok {
		return
	}
	if _, err := s.channels.Activate(r.Context(), id); err != nil {
		s.fail(w, err)
		return
	}
	writeOK(w)
}

func (s *Server) handleDeactivate(w http.ResponseWriter, r *http.Request) {
	id, ok := channelID(w, r)
	if !ok {
		return
	}
	if err := s.channels.Deactivate(r.Context(), id); err != nil {
		s.fail(w, err)
		return
	}
	writeOK(w)
}

func (s *Server) handleFiles(w http.ResponseWriter, r *http.Request) {
	id, ok := channelID(w, r)
	if !ok {
		return
	}
	listing, err := s.channels.Files(r.Context(), id)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, listing)
}

func (s *Server) handleFeed(w http.ResponseWriter, r *http.Request) {
	id, ok := channelID(w, r)
	if !ok {
		return
	}

	format := feedDomain.FormatRss
	if q := r.URL.Query().Get("format"); q != "" {
		parsed, err := feedDomain.ParseFormat(q)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		format = parsed
	}

	baseURL := fmt.Sprintf("%s://%s", getScheme(r), r.Host)
	if s.cfg.PublicURL != "" {
		baseURL = s.cfg.BaseURL()
	}

	feed, err := s.feeds.GenerateFeed(r.Context(), id, baseURL)
	if errors.Is(err, errors.ErrChannelNotFound) {
		http.Error(w, "Channel not found", http.StatusNotFound)
		return
	}
	if err != nil {
		s.logger.Error("Error generating feed", "channel_id", id, "error", err)
		http.Error(w, "Failed to generate feed", http.StatusInternalServerError)
		return
	}

	body, err := s.feeds.Render(feed, format)
	if err != nil {
		s.logger.Error("Error rendering feed", "channel_id", id, "format", format, "error", err)
		http.Error(w, "Failed to render feed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Cache-Control", "public, max-age=300")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(body))
}

func (s *Server) fail(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, errors.ErrChannelNotFound):
		status = http.StatusNotFound
	case errors.Is(err, errors.ErrChannelExists):
		status = http.StatusConflict
	case errors.Is(err, errors.ErrInvalidChannel):
		status = http.StatusBadRequest
	}
	if status == http.StatusInternalServerError {
		s.logger.Error("Channel request failed", "error", err)
	}
	writeError(w, status, err)
}

func channelID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "channelID"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid channel id"))
		return 0, false
	}
	return id, true
}

func writeOK(w http.ResponseWriter) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"status": "error", "error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func getScheme(r *http.Request) string {
	if r.TLS != nil {
		return "https"
	}
	if scheme := r.Header.Get("X-Forwarded-Proto"); scheme != "" {
		return scheme
	}
	return "http"
}
