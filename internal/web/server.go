// Package web serves the requirements dashboard, its form endpoints, the
// JSON status endpoint and the exports.
package web

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/NYTimes/gziphandler"
	"github.com/go-playground/form"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/baiirun/reqtrack/internal/metrics"
	"github.com/baiirun/reqtrack/internal/model"
)

// Store is the subset of the requirement store the handlers use.
type Store interface {
	List(ctx context.Context, f model.Filter) (*model.Listing, error)
	Create(ctx context.Context, in model.RequirementInput) (int64, error)
	AddComment(ctx context.Context, requirementID int64, text string) error
	UpdateStatus(ctx context.Context, id int64, status model.Status) (*model.StatusUpdate, error)
	Edit(ctx context.Context, id int64, in model.RequirementInput) error
	ExportRows(ctx context.Context) ([]model.ExportRow, error)
	PingContext(ctx context.Context) error
}

type Options struct {
	Logger *logrus.Logger
	// Metrics receives request and mutation observations. A private set is
	// created when nil.
	Metrics *metrics.Metrics
	// MetricsPath exposes Metrics for scraping when not empty.
	MetricsPath     string
	RequestIDHeader string
}

type Server struct {
	store       Store
	logger      *logrus.Logger
	metrics     *metrics.Metrics
	metricsPath string
	requestID   string
	decoder     *form.Decoder
	tmpl        *template.Template
}

func NewServer(store Store, opts Options) *Server {
	s := &Server{
		store:       store,
		logger:      opts.Logger,
		metrics:     opts.Metrics,
		metricsPath: opts.MetricsPath,
		requestID:   opts.RequestIDHeader,
		decoder:     newDecoder(),
		tmpl:        parseTemplates(),
	}
	if s.logger == nil {
		s.logger = logrus.StandardLogger()
	}
	if s.metrics == nil {
		s.metrics = metrics.New()
	}
	if s.requestID == "" {
		s.requestID = "X-Request-ID"
	}
	return s
}

func (s *Server) middlewares() []mux.MiddlewareFunc {
	return []mux.MiddlewareFunc{
		WithLogger(s.logger, s.requestID),
		WithMetrics(s.metrics),
		WithRecovery(),
	}
}

func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	middlewares := s.middlewares()
	r.Use(middlewares...)

	r.HandleFunc("/", s.handleIndex).Methods(http.MethodGet)
	r.HandleFunc("/add", s.handleAdd).Methods(http.MethodPost)
	r.HandleFunc("/add_comment/{id:[0-9]+}", s.handleAddComment).Methods(http.MethodPost)
	r.HandleFunc("/update_status/{id:[0-9]+}", s.handleUpdateStatus).Methods(http.MethodPost)
	r.HandleFunc("/edit/{id:[0-9]+}", s.handleEdit).Methods(http.MethodPost)
	r.HandleFunc("/export_csv", s.handleExportCSV).Methods(http.MethodGet)
	r.HandleFunc("/export_xlsx", s.handleExportXLSX).Methods(http.MethodGet)
	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	if s.metricsPath != "" {
		r.Handle(s.metricsPath, s.metrics.Handler()).Methods(http.MethodGet)
	}

	var notFound http.Handler = http.NotFoundHandler()
	var notAllowed http.Handler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
	})
	for i := len(middlewares) - 1; i >= 0; i-- {
		notFound = middlewares[i](notFound)
		notAllowed = middlewares[i](notAllowed)
	}
	r.NotFoundHandler = notFound
	r.MethodNotAllowedHandler = notAllowed
	return r
}

func (s *Server) Handler() http.Handler {
	return gziphandler.GzipHandler(s.Router())
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down,
// waiting up to shutdownTimeout for in-flight requests.
func (s *Server) ListenAndServe(ctx context.Context, addr string, shutdownTimeout time.Duration) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.WithField("addr", addr).Info("listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("failed to serve: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down: %w", err)
	}
	return nil
}
