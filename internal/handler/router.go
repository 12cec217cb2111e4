package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"markwave-backend/internal/graph"
	"markwave-backend/internal/util"
)

// NewRouter wires the middleware stack and all routes.
func NewRouter(
	userHandler *UserHandler,
	productHandler *ProductHandler,
	purchaseHandler *PurchaseHandler,
	graphClient graph.Client,
	allowedOrigins []string,
	logger *zap.Logger,
) chi.Router {
	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(LoggerMiddleware(logger))
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(60 * time.Second))

	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	router.Get("/health", healthHandler(graphClient))

	router.Route("/users", func(r chi.Router) {
		r.Post("/", userHandler.Register)
		r.Get("/referrals", userHandler.ListReferrals)
		r.Get("/customers", userHandler.ListCustomers)
		r.Post("/verify", userHandler.Verify)
		r.Get("/id/{id}", userHandler.GetByID)
		r.Put("/id/{id}", userHandler.UpdateByID)
		r.Get("/{mobile}", userHandler.GetByMobile)
		r.Put("/{mobile}", userHandler.UpdateByMobile)
	})

	router.Route("/purchases", func(r chi.Router) {
		r.Post("/", purchaseHandler.Record)
	})

	router.Route("/products", func(r chi.Router) {
		r.Get("/", productHandler.List)
		r.Get("/{id}", productHandler.GetByID)
	})

	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respondWithJSON(w, http.StatusNotFound, Response{Status: statusError, Message: "endpoint not found"})
	})

	router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		respondWithJSON(w, http.StatusMethodNotAllowed, Response{Status: statusError, Message: "method not allowed"})
	})

	return router
}

// healthHandler reports liveness and probes graph connectivity.
func healthHandler(graphClient graph.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		if err := graphClient.VerifyConnectivity(ctx); err != nil {
			respondWithError(w, http.StatusServiceUnavailable, err, "storage unreachable")
			return
		}
		respondWithJSON(w, http.StatusOK, Response{Status: statusSuccess, Message: "healthy"})
	}
}

// LoggerMiddleware logs one line per request with status and latency.
func LoggerMiddleware(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			defer func() {
				logger.Info("HTTP request",
					util.String("method", r.Method),
					util.String("path", r.URL.Path),
					util.String("remote_addr", r.RemoteAddr),
					util.Int("status", ww.Status()),
					util.Duration("duration", time.Since(start)),
				)
			}()
			next.ServeHTTP(ww, r)
		})
	}
}
