package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/LeventeLantos/relief-admin/internal/queue"
	"github.com/LeventeLantos/relief-admin/internal/scheduler"
)

// QueueDepth reports how many tasks wait on a queue.
type QueueDepth interface {
	Len(ctx context.Context, queue string) (int64, error)
}

var queues = []string{queue.SMS, queue.BulkCSVUpload, queue.VolunteerGroup}

type Handler struct {
	sched  *scheduler.Scheduler
	depths QueueDepth
}

func NewHandler(s *scheduler.Scheduler, d QueueDepth) *Handler {
	return &Handler{sched: s, depths: d}
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (h *Handler) WorkerStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.sched.Status())
}

func (h *Handler) WorkerStart(w http.ResponseWriter, r *http.Request) {
	h.sched.Start()
	writeJSON(w, http.StatusOK, map[string]any{"running": h.sched.IsRunning()})
}

func (h *Handler) WorkerStop(w http.ResponseWriter, r *http.Request) {
	h.sched.Stop()
	writeJSON(w, http.StatusOK, map[string]any{"running": h.sched.IsRunning()})
}

func (h *Handler) QueueDepths(w http.ResponseWriter, r *http.Request) {
	out := make(map[string]int64, len(queues))
	for _, q := range queues {
		n, err := h.depths.Len(r.Context(), q)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		out[q] = n
	}
	writeJSON(w, http.StatusOK, map[string]any{"queues": out})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
