package rpc

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"github.com/6529-Collections/salesnode/internal/rpc/handlers"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func StartRPCServer(port int, db *sql.DB, ctx context.Context) func() {
	zap.L().Info("Starting RPC server on port", zap.Int("port", port))
	mux := http.NewServeMux()

	salesHandler := func(r *http.Request) (any, error) {
		return handlers.SalesGetHandler(r, db)
	}

	handlers.SetupHandlers(mux, handlers.MethodHandlers{
		handlers.CreateApiPath(handlers.ApiV1, "status"): {
			handlers.HTTP_GET: func(r *http.Request) (any, error) {
				return handlers.StatusGetHandler(r)
			},
		},
		handlers.CreateApiPath(handlers.ApiV1, "sales"): {
			handlers.HTTP_GET: salesHandler,
		},
		handlers.CreateApiPath(handlers.ApiV1, "sales/"): {
			handlers.HTTP_GET: salesHandler,
		},
		handlers.CreateApiPath(handlers.ApiV1, "sale/"): {
			handlers.HTTP_GET: func(r *http.Request) (any, error) {
				return handlers.SaleGetHandler(r, db)
			},
		},
	})

	mux.Handle("/metrics", promhttp.Handler())

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           loggingMiddleware(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if err := server.ListenAndServe(); err != nil {
			if err == http.ErrServerClosed {
				zap.L().Info("RPC server closed")
			} else {
				zap.L().Fatal("starting RPC server failed", zap.Error(err))
			}
		}
	}()
	return func() {
		zap.L().Info("Closing RPC server...")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			zap.L().Error("server shutdown failed", zap.Error(err))
		}
	}
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rw := &responseWriter{w, http.StatusOK}
		next.ServeHTTP(rw, r)

		zap.L().Info("Request",
			zap.String("ip", r.RemoteAddr),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rw.statusCode),
		)
	})
}
