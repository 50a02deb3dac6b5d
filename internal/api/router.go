package api

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Mounter adds its own routes to the mux.
type Mounter interface {
	Register(mux *http.ServeMux)
}

func Router(h *Handler, mounts ...Mounter) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /v1/health", h.Health)

	mux.HandleFunc("GET /v1/worker/status", h.WorkerStatus)
	mux.HandleFunc("POST /v1/worker/start", h.WorkerStart)
	mux.HandleFunc("POST /v1/worker/stop", h.WorkerStop)
	mux.HandleFunc("GET /v1/queues", h.QueueDepths)

	mux.Handle("GET /metrics", promhttp.Handler())

	for _, m := range mounts {
		m.Register(mux)
	}

	mux.HandleFunc("GET /", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("relief-admin"))
	})

	return mux
}
