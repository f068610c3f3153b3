// CLAUDE:SUMMARY HTTP surface: turn endpoint, forced-download artifact serving, health check.
// Package httpd wires the whole export pipeline behind a small chi router.
// Artifacts are served from the uploads directory with a forced
// content-disposition so browsers always download, never inline-render.
package httpd

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"gopkg.in/yaml.v3"

	"github.com/hazyhaar/docforge/apply"
	"github.com/hazyhaar/docforge/artifact"
	"github.com/hazyhaar/docforge/convo"
	"github.com/hazyhaar/docforge/dbopen"
	"github.com/hazyhaar/docforge/extract"
	"github.com/hazyhaar/docforge/intent"
	"github.com/hazyhaar/docforge/oracle"
	"github.com/hazyhaar/docforge/pipeline"
	"github.com/hazyhaar/docforge/plan"
	"github.com/hazyhaar/docforge/render"
)

// Config is the whole-service configuration, loadable from yaml.
type Config struct {
	// Addr is the listen address. Default: ":8487".
	Addr string `yaml:"addr"`

	// DBPath is the SQLite conversation database. Default: "docforge.db".
	DBPath string `yaml:"db_path"`

	// UploadsDir holds produced artifacts. Default: "uploads".
	UploadsDir string `yaml:"uploads_dir"`

	// Oracle configures the text-generation service. The API key comes
	// from the OPENAI_API_KEY environment variable, never from the file.
	Oracle oracle.Config `yaml:"oracle"`

	// PandocPath and PDFEngine configure document conversion.
	PandocPath string `yaml:"pandoc_path"`
	PDFEngine  string `yaml:"pdf_engine"`

	// Browser enables headless image rendering when set.
	Browser struct {
		Enabled   bool   `yaml:"enabled"`
		RemoteURL string `yaml:"remote_url"`
	} `yaml:"browser"`

	Logger *slog.Logger `yaml:"-"`
}

func (c *Config) defaults() {
	if c.Addr == "" {
		c.Addr = ":8487"
	}
	if c.DBPath == "" {
		c.DBPath = "docforge.db"
	}
	if c.UploadsDir == "" {
		c.UploadsDir = "uploads"
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// LoadConfigFile reads a yaml config file.
func LoadConfigFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("httpd: read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("httpd: parse config: %w", err)
	}
	return &cfg, nil
}

// Server hosts the pipeline over HTTP.
type Server struct {
	cfg      Config
	db       *sql.DB
	pipeline *pipeline.Pipeline
	browser  *render.Browser
	logger   *slog.Logger
	httpSrv  *http.Server
}

// New builds the full component graph from the configuration.
func New(cfg Config) (*Server, error) {
	cfg.defaults()
	logger := cfg.Logger

	db, err := dbopen.Open(cfg.DBPath, dbopen.WithMkdirAll(), dbopen.WithSchema(convo.Schema))
	if err != nil {
		return nil, err
	}

	uploads, err := artifact.NewStore(cfg.UploadsDir)
	if err != nil {
		db.Close()
		return nil, err
	}

	var orc oracle.Client
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		ocfg := cfg.Oracle
		ocfg.APIKey = key
		ocfg.Logger = logger
		client, err := oracle.NewOpenAI(ocfg)
		if err != nil {
			db.Close()
			return nil, err
		}
		orc = client
	} else {
		logger.Warn("OPENAI_API_KEY not set, oracle-dependent features degrade to deterministic fallbacks")
	}

	var browser *render.Browser
	if cfg.Browser.Enabled {
		browser = render.NewBrowser(render.BrowserConfig{
			RemoteURL: cfg.Browser.RemoteURL,
			Logger:    logger,
		})
	}

	renderer, err := render.New(render.Config{
		Store:      uploads,
		PandocPath: cfg.PandocPath,
		PDFEngine:  cfg.PDFEngine,
		Browser:    browser,
		Logger:     logger,
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	extractor := extract.New(extract.Config{Logger: logger})
	applier, err := apply.New(apply.Config{
		Store:     uploads,
		Extractor: extractor,
		Oracle:    orc,
		Renderer:  renderer,
		Logger:    logger,
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	store := convo.New(db, logger)
	p, err := pipeline.New(pipeline.Config{
		Classifier: intent.New(intent.Config{Oracle: orc, Logger: logger}),
		Extractor:  extractor,
		Planner:    plan.New(plan.Config{Oracle: orc, Logger: logger}),
		Applier:    applier,
		Renderer:   renderer,
		Store:      store,
		Oracle:     orc,
		Logger:     logger,
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Server{cfg: cfg, db: db, pipeline: p, browser: browser, logger: logger}, nil
}

// Router builds the HTTP routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Post("/v1/turns", s.handleTurn)
	r.Get("/uploads/*", s.handleDownload)
	return r
}

// Run serves until the context is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	s.httpSrv = &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("httpd: listening", "addr", s.cfg.Addr)
		if err := s.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("httpd: shutting down")
	shutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.httpSrv.Shutdown(shutCtx)
}

// Close releases the database and browser.
func (s *Server) Close() error {
	if s.browser != nil {
		s.browser.Close()
	}
	return s.db.Close()
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleTurn runs one pipeline turn. Pipeline failures come back as 200s
// with a structured failure body; only transport-level problems are HTTP
// errors.
func (s *Server) handleTurn(w http.ResponseWriter, r *http.Request) {
	var turn pipeline.Turn
	if err := json.NewDecoder(r.Body).Decode(&turn); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if turn.ConversationID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "conversation_id is required"})
		return
	}

	res, err := s.pipeline.Run(r.Context(), turn)
	if err != nil {
		s.logger.Error("httpd: turn aborted", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "turn aborted"})
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// handleDownload serves artifacts with a forced download disposition so an
// html or svg artifact can never render in the caller's browser context.
func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "*")
	clean := filepath.Clean(name)
	if clean == "." || strings.HasPrefix(clean, "..") || filepath.IsAbs(clean) {
		http.NotFound(w, r)
		return
	}

	path := filepath.Join(s.cfg.UploadsDir, clean)
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filepath.Base(clean)))
	w.Header().Set("X-Content-Type-Options", "nosniff")
	http.ServeFile(w, r, path)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
