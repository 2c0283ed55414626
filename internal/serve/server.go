// Package serve exposes the normalized CMS content as a JSON API.
package serve

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"scalesite/internal/app"
	"scalesite/internal/cms"
	"scalesite/internal/domain/config"
	"scalesite/internal/domain/content"
	"scalesite/internal/query"
	"scalesite/internal/render"
)

// Backend is the CMS surface the API needs. *cms.Client implements it.
type Backend interface {
	List(ctx context.Context, req query.Request) (content.Page, error)
	GetBySlug(ctx context.Context, variant content.Variant, slug string) (content.Content, error)
	Categories(ctx context.Context) ([]content.Category, error)
	Tags(ctx context.Context) ([]content.Tag, error)
	IncrementView(ctx context.Context, variant content.Variant, documentID string) (int, error)
	SubmitComment(ctx context.Context, cm cms.Comment) (string, error)
	SubmitLead(ctx context.Context, payload any) error
}

type Options struct {
	// ConfigPath is watched for changes when Serve.Watch is set.
	ConfigPath string
	// NewBackend builds the backend for a (re)loaded config. Defaults to
	// the HTTP CMS client.
	NewBackend func(cfg config.Config, log *zap.Logger) Backend
}

// state is everything derived from one config load. It is replaced as a
// whole on reload.
type state struct {
	cfg     config.Config
	backend Backend
	render  *render.Renderer
}

type Server struct {
	opt    Options
	log    *zap.Logger
	routes *app.RouteBuilder

	cur atomic.Pointer[state]

	watcher   *fsnotify.Watcher
	watchOnce sync.Once
}

func New(cfg config.Config, opt Options, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	if opt.NewBackend == nil {
		opt.NewBackend = func(cfg config.Config, log *zap.Logger) Backend {
			return cms.NewFromConfig(cfg.CMS, log)
		}
	}
	s := &Server{
		opt:    opt,
		log:    log.Named("serve"),
		routes: &app.RouteBuilder{APIPrefix: "/api"},
	}
	s.apply(cfg)
	return s
}

func (s *Server) apply(cfg config.Config) {
	s.cur.Store(&state{
		cfg:     cfg,
		backend: s.opt.NewBackend(cfg, s.log),
		render:  render.New(cfg.CMS.MediaBase()),
	})
}

func (s *Server) state() *state { return s.cur.Load() }

func (s *Server) Close() error {
	if s.watcher != nil {
		return s.watcher.Close()
	}
	return nil
}

func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(s.logRequests)

	r.Get("/healthz", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Get("/categories", s.handleCategories)
		r.Get("/tags", s.handleTags)
		r.Post("/comments", s.handleComment)
		r.Post("/collaboration", s.handleCollaboration)

		r.Get("/{collection}", s.handleList)
		r.Get("/{collection}/{slug}", s.handleDetail)
		r.Post("/{collection}/{documentId}/view", s.handleView)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		notFound(w, "not found")
	})
	return r
}

// ListenAndServe serves until ctx is canceled, reloading the config file on
// change when watching is enabled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	cfg := s.state().cfg
	if cfg.Serve.Watch && s.opt.ConfigPath != "" {
		if err := s.startWatch(ctx); err != nil {
			return err
		}
	}

	srv := &http.Server{
		Addr:              cfg.Serve.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.log.Info("listening", zap.String("addr", cfg.Serve.Addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.log.Debug("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("took", time.Since(start)),
			zap.String("request_id", chimw.GetReqID(r.Context())),
		)
	})
}
