package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"city-parking/internal/logging"
	"city-parking/internal/parking"
)

type Options struct {
	Port      string
	RateLimit float64
	RateBurst int
}

type Server struct {
	httpServer *http.Server
	handler    *Handler
}

func NewServer(service *parking.InstrumentedService, telemetry *parking.TelemetryProvider, opts Options) *Server {
	handler := NewHandler(service, telemetry.ServiceName())

	return &Server{
		httpServer: &http.Server{
			Addr:         ":" + opts.Port,
			Handler:      NewRouter(handler, telemetry, opts),
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		handler: handler,
	}
}

func NewRouter(handler *Handler, telemetry *parking.TelemetryProvider, opts Options) http.Handler {
	r := chi.NewRouter()

	r.Use(RecoveryMiddleware)
	r.Use(RequestIDMiddleware)
	r.Use(TracingMiddleware(telemetry.ServiceName(), telemetry.TracerProvider()))
	r.Use(LoggingMiddleware)
	r.Use(CORSMiddleware)

	r.Get("/health", handler.HealthCheck)
	r.Method(http.MethodGet, "/metrics", telemetry.MetricsHandler())

	r.Route("/api/parking-lot", func(r chi.Router) {
		r.Use(RateLimitMiddleware(opts.RateLimit, opts.RateBurst))

		r.Get("/status", handler.GetStatus)
		r.Post("/park", handler.ParkVehicle)
		r.Post("/leave", handler.LeaveSlot)
		r.Post("/slots", handler.RegisterSlot)
		r.Get("/find/{plate}", handler.FindByPlate)
		r.Get("/slots/{slotID}/ticket", handler.FindBySlot)
		r.Get("/tickets", handler.ListTickets)
		r.Get("/tickets/{ticketID}", handler.GetTicket)
		r.Get("/history", handler.GetHistory)
		r.Get("/floors", handler.GetFloors)
		r.Get("/revenue", handler.GetRevenue)
		r.Get("/estimate", handler.EstimateFee)
	})

	return r
}

// Run serves until ctx is cancelled, then drains in-flight requests for up
// to shutdownTimeout.
func (s *Server) Run(ctx context.Context, shutdownTimeout time.Duration) error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.httpServer.Addr, err)
	}

	errCh := make(chan error, 1)
	go func() {
		logging.Info(ctx, "starting HTTP server", "addr", s.GetAddress())
		errCh <- s.httpServer.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	logging.Info(ctx, "shutting down HTTP server")
	if err := s.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) GetAddress() string {
	return fmt.Sprintf("http://localhost%s", s.httpServer.Addr)
}
