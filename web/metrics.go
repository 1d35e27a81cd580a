package web

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"betbook/events"
)

var (
	wagersPlaced = promauto.NewCounter(prometheus.CounterOpts{
		Name: "betbook_wagers_placed_total",
		Help: "Wagers successfully recorded.",
	})
	wagersRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "betbook_wagers_rejected_total",
		Help: "Wagers rejected before placement, by reason.",
	}, []string{"reason"})
	usersCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "betbook_users_created_total",
		Help: "Users created, guest or registered.",
	})
)

// SubscribeMetrics feeds the user counter from committed domain events, so
// rebinding to an existing guest is never counted as a creation.
func SubscribeMetrics(bus *events.Bus) {
	bus.Subscribe(events.EventTypeUserCreated, func(ctx context.Context, e events.Event) {
		usersCreated.Inc()
	})
}

// HealthFunc reports backend health for the /healthz endpoint.
type HealthFunc func(ctx context.Context) error

// StartMetricsServer serves /metrics and /healthz on their own listener so
// the public router never exposes them.
func StartMetricsServer(addr string, healthFn HealthFunc) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 500*time.Millisecond)
		defer cancel()

		if err := healthFn(ctx); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("unhealthy: " + err.Error()))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	srv := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Error("metrics server stopped")
		}
	}()

	return srv
}
