package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/dipwatch/dipwatch/internal/api/handlers"
	"github.com/dipwatch/dipwatch/pkg/logger"
)

// NewRouter wires all operator endpoints.
func NewRouter(
	cronHandler *handlers.CronHandler,
	jobsHandler *handlers.JobsHandler,
	usersHandler *handlers.UsersHandler,
	log *logger.Logger,
) http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/health", healthCheckHandler).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()

	// External cron services hit these when the in-process scheduler
	// is not the trigger of record.
	api.HandleFunc("/cron/scan", cronHandler.Scan).Methods("POST")
	api.HandleFunc("/cron/refresh", cronHandler.Refresh).Methods("POST")

	api.HandleFunc("/jobs", jobsHandler.List).Methods("GET")
	api.HandleFunc("/jobs/{name}/run", jobsHandler.Trigger).Methods("POST")

	api.HandleFunc("/users", usersHandler.Create).Methods("POST")
	api.HandleFunc("/users/{phone}/preferences", usersHandler.GetPreferences).Methods("GET")
	api.HandleFunc("/users/{phone}/preferences", usersHandler.SavePreferences).Methods("PUT")
	api.HandleFunc("/users/{phone}/opportunities", usersHandler.Opportunities).Methods("GET")
	api.HandleFunc("/users/{phone}/watchlist", usersHandler.Watchlist).Methods("GET")
	api.HandleFunc("/users/{phone}/watchlist/{ticker}", usersHandler.AddWatch).Methods("POST")
	api.HandleFunc("/users/{phone}/watchlist/{ticker}", usersHandler.RemoveWatch).Methods("DELETE")

	r.Use(loggingMiddleware(log))
	r.Use(recoveryMiddleware(log))

	return r
}

func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":  "ok",
		"service": "dipwatch-api",
	})
}

// loggingMiddleware logs HTTP requests at debug level.
func loggingMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			next.ServeHTTP(w, r)

			log.WithFields(map[string]interface{}{
				"method":   r.Method,
				"path":     r.URL.Path,
				"duration": time.Since(start),
			}).Debug("HTTP request")
		})
	}
}

// recoveryMiddleware turns handler panics into 500 responses.
func recoveryMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					log.WithFields(map[string]interface{}{
						"error": err,
						"path":  r.URL.Path,
					}).Error("panic recovered")

					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					json.NewEncoder(w).Encode(map[string]string{
						"error": "internal server error",
					})
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
