package routes

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"creditdesk/middleware"
	"creditdesk/utils"

	"github.com/gorilla/mux"
)

// Pinger проверяет доступность хранилища
type Pinger interface {
	Ping(ctx context.Context) error
}

// NewOpsRouter создает служебный роутер: /healthz и /metrics
func NewOpsRouter(db Pinger, metrics *utils.Metrics) *mux.Router {
	router := mux.NewRouter()
	router.Use(middleware.LoggingMiddleware)

	router.HandleFunc("/healthz", healthHandler(db)).Methods("GET")
	router.Handle("/metrics", metrics.Handler()).Methods("GET")

	return router
}

func healthHandler(db Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		w.Header().Set("Content-Type", "application/json")
		if err := db.Ping(ctx); err != nil {
			utils.LogError("healthz: база данных недоступна: %v", err)
			w.WriteHeader(http.StatusServiceUnavailable)
			json.NewEncoder(w).Encode(map[string]string{"status": "unavailable"})
			return
		}
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	}
}
