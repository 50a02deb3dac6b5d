package admin

import (
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"

	"github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/LeventeLantos/relief-admin/internal/cache"
	"github.com/LeventeLantos/relief-admin/internal/export"
	"github.com/LeventeLantos/relief-admin/internal/importer"
	"github.com/LeventeLantos/relief-admin/internal/model"
	"github.com/LeventeLantos/relief-admin/internal/queue"
	"github.com/LeventeLantos/relief-admin/internal/repo"
	"github.com/LeventeLantos/relief-admin/internal/service"
)

const maxUploadBytes = 10 << 20

type Handler struct {
	site      *Site
	jobs      repo.SmsJobRepository
	uploads   repo.UploadRepository
	outcomes  cache.OutcomeCache
	queue     queue.Enqueuer
	uploadDir string
	validate  *validator.Validate
	log       *zap.Logger
}

type HandlerConfig struct {
	Site      *Site
	Jobs      repo.SmsJobRepository
	Uploads   repo.UploadRepository
	Outcomes  cache.OutcomeCache
	Queue     queue.Enqueuer
	UploadDir string
}

func NewHandler(cfg HandlerConfig, log *zap.Logger) *Handler {
	return &Handler{
		site:      cfg.Site,
		jobs:      cfg.Jobs,
		uploads:   cfg.Uploads,
		outcomes:  cfg.Outcomes,
		queue:     cfg.Queue,
		uploadDir: cfg.UploadDir,
		validate:  validator.New(),
		log:       log.Named("admin"),
	}
}

func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /admin/{$}", h.Index)
	mux.HandleFunc("GET /admin/entities/{entity}/{$}", h.Changelist)
	mux.HandleFunc("POST /admin/entities/{entity}/actions/{action}", h.RunAction)

	mux.HandleFunc("POST /admin/sms_jobs", h.CreateSmsJob)
	mux.HandleFunc("GET /admin/sms_jobs/{id}", h.GetSmsJob)

	mux.HandleFunc("POST /admin/csv_uploads", h.CreateUpload)
	mux.HandleFunc("GET /admin/csv_uploads/{id}", h.GetUpload)
}

func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"entities": h.site.Entities()})
}

// Changelist stands in for the entity list page: the actions on offer plus
// any flash message left by the last bulk action.
func (h *Handler) Changelist(w http.ResponseWriter, r *http.Request) {
	entity := r.PathValue("entity")
	actions, err := h.site.Actions(r.Context(), entity)
	if err != nil {
		h.fail(w, err)
		return
	}

	resp := map[string]any{"entity": entity, "actions": actions}
	if c, err := r.Cookie(flashCookie); err == nil {
		if msg, err := url.QueryUnescape(c.Value); err == nil {
			resp["message"] = msg
		}
		http.SetCookie(w, &http.Cookie{Name: flashCookie, Path: "/admin/", MaxAge: -1})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) RunAction(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.fail(w, badRequest("invalid form", err.Error()))
		return
	}
	ids, err := parseIDs(r.PostForm["ids"])
	if err != nil {
		h.fail(w, err)
		return
	}

	err = h.site.Run(w, r, r.PathValue("entity"), r.PathValue("action"), ids)
	if errors.Is(err, export.ErrStreamInterrupted) {
		h.log.Error("export aborted mid-stream", zap.Error(err))
		panic(http.ErrAbortHandler)
	}
	if err != nil {
		h.fail(w, err)
	}
}

type smsJobForm struct {
	District string `validate:"omitempty,max=15"`
	Area     string `validate:"omitempty,max=15"`
	GroupID  string `validate:"omitempty,number"`
	Message  string `validate:"required_if=Type normal,max=1000"`
	Type     string `validate:"oneof=normal consent survey"`
}

// CreateSmsJob stores the job and queues its dispatch. A job without any
// filter is accepted; the dispatcher records it as failed.
func (h *Handler) CreateSmsJob(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.fail(w, badRequest("invalid form", err.Error()))
		return
	}
	f := smsJobForm{
		District: r.PostForm.Get("district"),
		Area:     r.PostForm.Get("area"),
		GroupID:  r.PostForm.Get("group_id"),
		Message:  r.PostForm.Get("message"),
		Type:     r.PostForm.Get("sms_type"),
	}
	if f.Type == "" {
		f.Type = string(model.SmsNormal)
	}
	if err := h.validate.Struct(&f); err != nil {
		h.fail(w, validationError(err))
		return
	}

	job := model.SmsJob{
		District: optional(f.District),
		Area:     optional(f.Area),
		Message:  f.Message,
		Type:     model.SmsType(f.Type),
	}
	if f.GroupID != "" {
		id, err := parseFormID("GroupID", f.GroupID)
		if err != nil {
			h.fail(w, err)
			return
		}
		job.GroupID = &id
	}

	id, err := h.jobs.Create(r.Context(), job)
	if err != nil {
		h.fail(w, err)
		return
	}
	job.ID = id

	if _, err := h.queue.Enqueue(r.Context(), queue.SMS, queue.TaskDispatchSMS, service.TaskFromJob(job)); err != nil {
		h.fail(w, errors.Wrapf(err, "queue sms job %d", id))
		return
	}
	h.log.Info("sms job queued", zap.Int64("job_id", id), zap.String("type", f.Type))
	http.Redirect(w, r, "/admin/sms_jobs/"+strconv.FormatInt(id, 10), http.StatusSeeOther)
}

func (h *Handler) GetSmsJob(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.fail(w, err)
		return
	}
	job, err := h.jobs.Get(r.Context(), id)
	if err != nil {
		h.fail(w, err)
		return
	}

	resp := map[string]any{"job": job}
	if h.outcomes != nil {
		o, ok, err := h.outcomes.LoadOutcome(r.Context(), id)
		switch {
		case err != nil:
			h.log.Warn("load sms job outcome", zap.Int64("job_id", id), zap.Error(err))
		case ok:
			resp["outcome"] = o
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

type uploadForm struct {
	Name   string `validate:"required,max=100"`
	CampID string `validate:"required,number"`
}

// CreateUpload saves an inmate CSV for a camp and queues its import.
func (h *Handler) CreateUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		h.fail(w, badRequest("invalid upload", err.Error()))
		return
	}
	f := uploadForm{Name: r.FormValue("name"), CampID: r.FormValue("camp")}
	if err := h.validate.Struct(&f); err != nil {
		h.fail(w, validationError(err))
		return
	}
	campID, err := parseFormID("CampID", f.CampID)
	if err != nil {
		h.fail(w, err)
		return
	}
	file, _, err := r.FormFile("csv_file")
	if err != nil {
		h.fail(w, badRequest("csv_file is required", err.Error()))
		return
	}
	defer file.Close()

	path, err := h.save(file)
	if err != nil {
		h.fail(w, err)
		return
	}

	id, err := h.uploads.CreateUpload(r.Context(), model.CsvBulkUpload{Name: f.Name, CampID: campID, FilePath: path})
	if err != nil {
		h.fail(w, err)
		return
	}
	if _, err := h.queue.Enqueue(r.Context(), queue.BulkCSVUpload, queue.TaskImportInmates, importer.Task{UploadID: id}); err != nil {
		h.fail(w, errors.Wrapf(err, "queue upload %d", id))
		return
	}
	h.log.Info("inmate upload queued", zap.Int64("upload_id", id), zap.Int64("camp_id", campID))
	http.Redirect(w, r, "/admin/csv_uploads/"+strconv.FormatInt(id, 10), http.StatusSeeOther)
}

func (h *Handler) GetUpload(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.fail(w, err)
		return
	}
	u, err := h.uploads.GetUpload(r.Context(), id)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (h *Handler) save(src io.Reader) (string, error) {
	if err := os.MkdirAll(h.uploadDir, 0o755); err != nil {
		return "", errors.Wrap(err, "create upload dir")
	}
	path := filepath.Join(h.uploadDir, uuid.NewString()+".csv")
	dst, err := os.Create(path)
	if err != nil {
		return "", errors.Wrap(err, "create upload file")
	}
	if _, err := io.Copy(dst, src); err != nil {
		_ = dst.Close()
		_ = os.Remove(path)
		return "", errors.Wrap(err, "store upload")
	}
	return path, dst.Close()
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
