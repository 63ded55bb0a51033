package daemon

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/russross/blackfriday/v2"

	"ruokalista/internal/api"
	"ruokalista/internal/config"
	"ruokalista/internal/logging"
	"ruokalista/internal/metrics"
	"ruokalista/internal/services"
)

//go:embed docs.md
var docsMarkdown []byte

const (
	requestIDHeader   = "X-Request-ID"
	retryAfterSeconds = 30
)

type apiServer struct {
	bind      string
	sourceURL string
	logger    *slog.Logger
	daemon    *Daemon
	handler   http.Handler
	docs      []byte
	writeWait time.Duration

	mu       sync.Mutex
	listener net.Listener
}

func newAPIServer(cfg *config.Config, d *Daemon, logger *slog.Logger) *apiServer {
	s := &apiServer{
		bind:      strings.TrimSpace(cfg.Server.Bind),
		sourceURL: cfg.Source.URL,
		logger:    logging.NewComponentLogger(logger, "api-server"),
		daemon:    d,
		docs:      renderDocs(docsMarkdown),
		// /video may wait for a full render before the first byte.
		writeWait: cfg.RenderTimeout() + time.Minute,
	}
	s.handler = s.routes(cfg.Server.VideoRateLimit)
	return s
}

func (s *apiServer) routes(videoRateLimit int) http.Handler {
	r := chi.NewRouter()
	r.Use(requestContext)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(s.accessLog)

	r.Get("/", s.handleDocs)
	r.Get("/api", s.handleMenu)
	r.Get("/cors", s.handleMenu)
	r.Get("/healthz", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		if videoRateLimit > 0 {
			r.Use(httprate.LimitByIP(videoRateLimit, time.Minute))
		}
		r.Get("/video", s.handleVideo)
	})
	return r
}

// requestContext tags each request with a correlation ID and the request trigger.
func requestContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(requestIDHeader))
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		ctx := services.WithRequestID(r.Context(), id)
		ctx = services.WithTrigger(ctx, services.TriggerRequest)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *apiServer) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		elapsed := time.Since(start)
		metrics.RecordAPIRequest(r.Method, route, strconv.Itoa(status), elapsed)
		logging.WithContext(r.Context(), s.logger).Debug("request served",
			logging.String("method", r.Method),
			logging.String("route", route),
			logging.Int("status", status),
			logging.Int("bytes", ww.BytesWritten()),
			logging.Duration("duration", elapsed),
		)
	})
}

func (s *apiServer) handleMenu(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	snap, err := s.daemon.manager.Menu(r.Context())
	if err != nil {
		logging.ErrorWithContext(logging.WithContext(r.Context(), s.logger), "menu unavailable", "menu_unavailable",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check source.url reachability"),
		)
		s.writeJSON(w, http.StatusInternalServerError, struct{}{})
		return
	}
	now := s.daemon.manager.Clock().Now()
	s.writeJSON(w, http.StatusOK, api.FromRecord(now, snap.Record, s.sourceURL))
}

func (s *apiServer) handleVideo(w http.ResponseWriter, r *http.Request) {
	logger := logging.WithContext(r.Context(), s.logger)
	video, err := s.daemon.manager.Video(r.Context())
	if err != nil {
		switch services.Kind(err) {
		case "busy":
			w.Header().Set("Retry-After", strconv.Itoa(retryAfterSeconds))
			s.writeJSON(w, http.StatusAccepted, api.RenderingResponse{Status: "rendering"})
		case "no_data":
			logger.Error("video unavailable without menu data", logging.Error(err))
			s.writeJSON(w, http.StatusInternalServerError, struct{}{})
		default:
			logging.ErrorWithContext(logger, "video render failed", "render_failed",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check the render engine output in the log"),
			)
			s.writeJSON(w, http.StatusInternalServerError, api.ErrorResponse{Error: err.Error()})
		}
		return
	}
	defer video.Close()

	w.Header().Set("Content-Type", "video/mp4")
	http.ServeContent(w, r, filepath.Base(video.Artifact.Path), video.Artifact.ModTime, video.File)
}

func (s *apiServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := s.daemon.Status(r.Context())
	payload := api.HealthResponse{
		Status:      "ok",
		Breaker:     status.Breaker,
		Workflow:    api.FromStatusSummary(status.Workflow),
		StorageKind: status.Storage,
	}
	if !status.StartedAt.IsZero() {
		payload.StartedAt = status.StartedAt.UTC().Format(time.RFC3339)
		payload.UptimeSecs = int64(time.Since(status.StartedAt).Seconds())
	}
	if !status.NextRun.IsZero() {
		payload.NextRun = status.NextRun.Format(time.RFC3339)
	}
	if status.Breaker == "open" {
		payload.Status = "degraded"
	}
	s.writeJSON(w, http.StatusOK, payload)
}

func (s *apiServer) handleDocs(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(s.docs)
}

func renderDocs(markdown []byte) []byte {
	body := blackfriday.Run(markdown)
	page := make([]byte, 0, len(body)+256)
	page = append(page, "<!doctype html>\n<html lang=\"fi\"><head><meta charset=\"utf-8\"><title>ruokalista</title></head><body>\n"...)
	page = append(page, body...)
	page = append(page, "</body></html>\n"...)
	return page
}

func (s *apiServer) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode response", logging.Error(err))
	}
}

// listen binds the configured address. Serve reuses the listener, or binds
// again after a supervisor restart.
func (s *apiServer) listen() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return nil
	}
	if s.bind == "" {
		return services.Wrap(services.ErrConfiguration, "api-server", "listen", "server.bind is empty", nil)
	}
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener
	s.bind = listener.Addr().String()
	return nil
}

func (s *apiServer) addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Serve runs the HTTP server until ctx is cancelled.
func (s *apiServer) Serve(ctx context.Context) error {
	if err := s.listen(); err != nil {
		return err
	}
	s.mu.Lock()
	listener := s.listener
	s.mu.Unlock()

	server := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      s.writeWait,
		IdleTimeout:       60 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Serve(listener)
	}()
	s.logger.Info("api server listening", logging.String("address", listener.Addr().String()))

	select {
	case err := <-errCh:
		s.dropListener()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			s.logger.Warn("api server shutdown incomplete", logging.Error(err))
		}
		<-errCh
		s.dropListener()
		return ctx.Err()
	}
}

func (s *apiServer) dropListener() {
	s.mu.Lock()
	s.listener = nil
	s.mu.Unlock()
}

func (s *apiServer) String() string { return "api-server" }
