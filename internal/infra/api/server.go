package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"creator-checkout/internal/domain/ports/adapter"
	"creator-checkout/internal/infra/metrics"
	"creator-checkout/internal/usecase"
)

// Options configure routes and limits of the HTTP surface.
type Options struct {
	SuccessPath    string
	FailPath       string
	HomeURL        string
	RequestTimeout time.Duration
	RateLimit      int
	RateWindow     time.Duration
	RateKey        func(scope, route string) string
}

// Server is the browser-facing HTTP surface: payment result pages, the
// confirm and checkout APIs and the notification stream proxy.
type Server struct {
	confirmUC  usecase.ConfirmationUseCase
	checkoutUC usecase.CheckoutUseCase
	stream     adapter.NotificationStream
	scopes     *ScopeManager
	limiter    Limiter // optional
	opts       Options
	log        *zerolog.Logger
}

func NewServer(
	confirmUC usecase.ConfirmationUseCase,
	checkoutUC usecase.CheckoutUseCase,
	stream adapter.NotificationStream,
	scopes *ScopeManager,
	limiter Limiter,
	opts Options,
	logger *zerolog.Logger,
) *Server {
	if opts.SuccessPath == "" {
		opts.SuccessPath = "/payments/success"
	}
	if opts.FailPath == "" {
		opts.FailPath = "/payments/fail"
	}
	if opts.HomeURL == "" {
		opts.HomeURL = "/"
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 30 * time.Second
	}
	return &Server{
		confirmUC:  confirmUC,
		checkoutUC: checkoutUC,
		stream:     stream,
		scopes:     scopes,
		limiter:    limiter,
		opts:       opts,
		log:        logger,
	}
}

// Router builds the chi router with the full middleware chain.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(TraceID(s.log), RequestLog(s.log), Recover(s.log))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Group(func(r chi.Router) {
		r.Use(ClientScope(s.scopes, s.log))

		// Long-lived; no request timeout.
		r.Get("/notifications/subscribe", s.handleStream)

		r.Group(func(r chi.Router) {
			r.Use(Timeout(s.opts.RequestTimeout))
			r.Get(s.opts.SuccessPath, s.handleSuccess)
			r.Get(s.opts.FailPath, s.handleFail)

			r.Route("/api", func(r chi.Router) {
				if s.limiter != nil && s.opts.RateLimit > 0 && s.opts.RateKey != nil {
					r.Use(RateLimit(s.limiter, s.opts.RateLimit, s.opts.RateWindow, s.opts.RateKey, s.log))
				}
				r.Post("/payments/confirm", s.handleConfirm)
				r.Post("/checkout", s.handleCheckout)
			})
		})
	})
	return r
}
