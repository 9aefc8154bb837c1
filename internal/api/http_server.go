package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"shareit/internal/config"
	"shareit/internal/domain"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// Services bundles the operations exposed over HTTP.
type Services struct {
	Users    domain.UserService
	Items    domain.ItemService
	Requests domain.ItemRequestService
	Bookings domain.BookingService
}

// HTTPServer serves the ShareIt REST API.
type HTTPServer struct {
	cfg    *config.Config
	server *http.Server
	logger *zerolog.Logger
}

// NewHTTPServer wires the router. quota may be nil to disable per-user limits.
func NewHTTPServer(cfg *config.Config, svc Services, quota domain.RateLimitRepository, logger *zerolog.Logger) *HTTPServer {
	srv := &HTTPServer{cfg: cfg, logger: logger}

	h := &handler{svc: svc, logger: logger, now: time.Now}
	router := chi.NewRouter()
	router.Use(requestID)
	router.Use(loggingMiddleware(logger))
	router.Use(middleware.Recoverer)
	router.Use(metricsMiddleware)
	router.Use(newIPLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst).middleware)
	router.Use(newUserQuota(quota, cfg.RateLimit.UserRequests, cfg.RateLimit.UserWindow(), logger).middleware)

	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, domain.NotFoundf("no route for %s %s", r.Method, r.URL.Path))
	})
	router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeStatusError(w, r, http.StatusMethodNotAllowed, "method not allowed")
	})

	router.Route("/users", func(r chi.Router) {
		r.Post("/", h.createUser)
		r.Get("/", h.listUsers)
		r.Get("/{id}", h.getUser)
		r.Patch("/{id}", h.updateUser)
		r.Delete("/{id}", h.deleteUser)
	})

	router.Route("/items", func(r chi.Router) {
		r.Post("/", h.createItem)
		r.Get("/", h.listOwnerItems)
		r.Get("/search", h.searchItems)
		r.Get("/{id}", h.getItem)
		r.Patch("/{id}", h.updateItem)
		r.Post("/{id}/comment", h.addComment)
	})

	router.Route("/requests", func(r chi.Router) {
		r.Post("/", h.createRequest)
		r.Get("/", h.listOwnRequests)
		r.Get("/all", h.listOtherRequests)
		r.Get("/{id}", h.getRequest)
	})

	router.Route("/bookings", func(r chi.Router) {
		r.Post("/", h.createBooking)
		r.Get("/", h.listBookerBookings)
		r.Get("/owner", h.listOwnerBookings)
		r.Get("/owner/export", h.exportOwnerBookings)
		r.Get("/{id}", h.getBooking)
		r.Patch("/{id}", h.setBookingStatus)
	})

	srv.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:           router,
		ReadHeaderTimeout: cfg.HTTP.ReadHeaderTimeout,
		WriteTimeout:      cfg.HTTP.WriteTimeout,
	}
	return srv
}

func (s *HTTPServer) Addr() string {
	return s.server.Addr
}

// Handler returns the root handler, for tests and embedding.
func (s *HTTPServer) Handler() http.Handler {
	return s.server.Handler
}

func (s *HTTPServer) Start() error {
	if s.server == nil {
		return fmt.Errorf("http server is not initialized")
	}
	s.logger.Info().Str("addr", s.server.Addr).Msg("HTTP API listening")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *HTTPServer) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}
