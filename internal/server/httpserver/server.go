// Package httpserver is the JSON-over-HTTP edge of the assessment backend.
package httpserver

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/dmitrijs2005/tissuesalts/internal/logging"
	"github.com/dmitrijs2005/tissuesalts/internal/server/config"
	"github.com/dmitrijs2005/tissuesalts/internal/server/models"
	"github.com/dmitrijs2005/tissuesalts/internal/server/services"
)

// Credentials registers and logs in users.
type Credentials interface {
	Register(ctx context.Context, email, password string) (*models.Identity, error)
	Login(ctx context.Context, email, password string) (*models.Identity, error)
}

// Sessions resolves and revokes session tokens.
type Sessions interface {
	Verify(ctx context.Context, token string) (*models.Identity, error)
	Destroy(ctx context.Context, token string) error
}

// Assessments stores and lists assessments on behalf of a token's owner.
type Assessments interface {
	Save(ctx context.Context, token string, in services.AssessmentInput) (int64, error)
	ListForToken(ctx context.Context, token string) ([]models.Assessment, error)
}

// Pinger reports whether the store is reachable.
type Pinger interface {
	PingContext(ctx context.Context) error
}

const (
	routeIndex          = "/"
	routeRegister       = "/api/register"
	routeLogin          = "/api/login"
	routeVerifySession  = "/api/verify-session"
	routeSaveAssessment = "/api/save-assessment"
	routeGetAssessments = "/api/get-assessments"
	routeLogout         = "/api/logout"
	routeHealth         = "/healthz"
	routeMetrics        = "/metrics"
)

var knownRoutes = map[string]struct{}{
	routeIndex: {}, routeRegister: {}, routeLogin: {}, routeVerifySession: {},
	routeSaveAssessment: {}, routeGetAssessments: {}, routeLogout: {},
	routeHealth: {}, routeMetrics: {},
}

type Server struct {
	address           string
	indexPage         string
	readHeaderTimeout time.Duration
	shutdownTimeout   time.Duration
	logger            logging.Logger
	store             Pinger
	credentials       Credentials
	sessions          Sessions
	assessments       Assessments
	metrics           *Metrics
}

func NewServer(cfg *config.Config, l logging.Logger, store Pinger, cs Credentials, ss Sessions, as Assessments) *Server {
	return &Server{
		address:           cfg.EndpointAddr,
		indexPage:         cfg.IndexPage,
		readHeaderTimeout: cfg.ReadHeaderTimeout,
		shutdownTimeout:   cfg.ShutdownTimeout,
		logger:            l.With("module", "http_server"),
		store:             store,
		credentials:       cs,
		sessions:          ss,
		assessments:       as,
		metrics:           NewMetrics(),
	}
}

// Handler returns the full middleware chain around the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc(routeIndex, s.handleIndex)
	mux.HandleFunc(routeRegister, allow(http.MethodPost, s.handleRegister))
	mux.HandleFunc(routeLogin, allow(http.MethodPost, s.handleLogin))
	mux.HandleFunc(routeVerifySession, allow(http.MethodPost, s.handleVerifySession))
	mux.HandleFunc(routeSaveAssessment, allow(http.MethodPost, s.handleSaveAssessment))
	mux.HandleFunc(routeGetAssessments, allow(http.MethodPost, s.handleGetAssessments))
	mux.HandleFunc(routeLogout, allow(http.MethodPost, s.handleLogout))
	mux.HandleFunc(routeHealth, allow(http.MethodGet, s.handleHealth))
	mux.Handle(routeMetrics, allow(http.MethodGet, s.metrics.Handler().ServeHTTP))

	return withRequestID(s.withAccessLog(withCORS(mux)))
}

// allow rejects every method but m with a JSON 405.
func allow(m string, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != m {
			w.Header().Set("Allow", m)
			writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}
		h(w, r)
	}
}

func (s *Server) requestLogger(r *http.Request) logging.Logger {
	return s.logger.With("request_id", RequestIDFromContext(r.Context()))
}

// Run serves until ctx is cancelled, then shuts down gracefully within the
// configured timeout.
func (s *Server) Run(ctx context.Context) error {

	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: s.readHeaderTimeout,
	}

	stopped := make(chan error, 1)
	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()
		stopped <- srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", listen.Addr().String())

	if err := srv.Serve(listen); !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return <-stopped
}
