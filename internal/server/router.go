package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/httprate"
	log "github.com/sirupsen/logrus"

	config "github.com/avvvet/gate-services/configs"
)

type Options struct {
	RateLimit   int // requests per minute per IP, 0 disables
	CORSOrigins []string
}

func logger(r *http.Request) *log.Entry {
	return log.WithField("request_id", middleware.GetReqID(r.Context()))
}

// NewRouter returns a chi router with the middleware stack every service
// shares and JSON answers for unknown routes.
func NewRouter(opts Options) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(config.CustomLoggerMiddleware())
	r.Use(Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	if c := config.CORS(opts.CORSOrigins); c != nil {
		r.Use(c.Handler)
	}

	// to protect the service api from any over requests
	if opts.RateLimit > 0 {
		r.Use(httprate.LimitByIP(opts.RateLimit, 1*time.Minute))
	}

	r.NotFound(NotFound)
	r.MethodNotAllowed(NotFound)

	return r
}

func NotFound(w http.ResponseWriter, r *http.Request) {
	Error(w, http.StatusNotFound, "Route not found")
}

// Recoverer turns a panicking handler into a logged 500.
func Recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rvr := recover(); rvr != nil {
				if rvr == http.ErrAbortHandler {
					panic(rvr)
				}
				logger(r).Errorf("panic: %v\n%s", rvr, debug.Stack())
				Error(w, http.StatusInternalServerError, "Internal error")
			}
		}()

		next.ServeHTTP(w, r)
	})
}

type HealthResponse struct {
	Ok      bool   `json:"ok"`
	Message string `json:"message"`
}

func Health(message string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		JSON(w, http.StatusOK, HealthResponse{Ok: true, Message: message})
	}
}

// Run serves until SIGINT/SIGTERM, then shuts the server down gracefully.
func Run(service string, server *http.Server) error {
	errc := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
	}()
	log.Infof("%s service running at port %s", service, server.Addr)

	// Wait for interrupt signal to gracefully shutdown the server
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(stop)

	select {
	case err := <-errc:
		return err
	case <-stop:
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return err
	}
	log.Infof("%s service gracefully stopped", service)
	return nil
}
