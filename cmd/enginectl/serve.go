package main

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"vaultscript/core"
)

// newServeCmd starts a local HTTP front end over run-manifest, useful for
// driving the engine from a test harness without shelling out per
// transaction. It is explicitly a development convenience, not a
// production node API (spec Non-goals exclude networking/consensus).
func newServeCmd() *cobra.Command {
	var addr string
	var rps float64
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "run a local HTTP server exposing run-manifest over POST /manifests",
		RunE: func(cmd *cobra.Command, _ []string) error {
			limiter := rate.NewLimiter(rate.Limit(rps), int(rps)+1)

			router := mux.NewRouter()
			router.Use(rateLimitMiddleware(limiter))
			router.HandleFunc("/manifests", handleRunManifest).Methods(http.MethodPost)
			router.HandleFunc("/healthz", handleHealthz).Methods(http.MethodGet)

			srv := &http.Server{
				Addr:         addr,
				Handler:      router,
				ReadTimeout:  5 * time.Second,
				WriteTimeout: 30 * time.Second,
			}
			engineLog.WithField("addr", addr).Info("serving")
			return srv.ListenAndServe()
		},
	}
	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	cmd.Flags().Float64Var(&rps, "rate-limit", 10, "requests per second per process")
	return cmd
}

func rateLimitMiddleware(limiter *rate.Limiter) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func handleRunManifest(w http.ResponseWriter, r *http.Request) {
	var wire []manifestInstruction
	if err := json.NewDecoder(r.Body).Decode(&wire); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	raw, err := json.Marshal(wire)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	instructions, err := decodeManifest(raw)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	process, _, _, err := bootstrap("serve")
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	result := core.RunManifest(process, instructions)
	if result.Err != nil {
		logrus.WithError(result.Err).Warn("manifest execution failed")
		http.Error(w, result.Err.Error(), http.StatusUnprocessableEntity)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"committed": result.Committed,
		"outputs":   len(result.Outputs),
	})
}
