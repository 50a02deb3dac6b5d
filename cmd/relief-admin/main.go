package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cockroachdb/errors"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/LeventeLantos/relief-admin/internal/admin"
	"github.com/LeventeLantos/relief-admin/internal/api"
	"github.com/LeventeLantos/relief-admin/internal/cache"
	"github.com/LeventeLantos/relief-admin/internal/client"
	"github.com/LeventeLantos/relief-admin/internal/config"
	"github.com/LeventeLantos/relief-admin/internal/importer"
	"github.com/LeventeLantos/relief-admin/internal/logging"
	"github.com/LeventeLantos/relief-admin/internal/queue"
	"github.com/LeventeLantos/relief-admin/internal/repo"
	"github.com/LeventeLantos/relief-admin/internal/scheduler"
	"github.com/LeventeLantos/relief-admin/internal/service"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.LoadAll()
	if err != nil {
		log.Fatal(err)
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("relief-admin exited", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := sql.Open("pgx", cfg.Database.PostgresURL)
	if err != nil {
		return err
	}
	defer db.Close()

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		return err
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Address,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer rdb.Close()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		return err
	}

	jobs := repo.NewPostgresSmsJobRepo(db)
	volunteers := repo.NewPostgresVolunteerRepo(db)
	uploads := repo.NewPostgresUploadRepo(db)
	outcomes := cache.NewRedisCache(rdb, cfg.Redis.TTL)
	tasks := queue.NewRedisQueue(rdb)

	if !cfg.SMS.RequireConsent {
		logger.Warn("SMS_REQUIRE_CONSENT is off: normal jobs will reach volunteers who have not consented")
	}
	gateway := client.NewGatewayClient(cfg.SMS.APIURL, cfg.SMS.Username, cfg.SMS.Password, cfg.SMS.SuccessMarker, cfg.SMS.Timeout)
	dispatcher := service.NewDispatcher(jobs, volunteers, gateway, service.DispatchOptions{
		Concurrency:    cfg.SMS.Concurrency,
		Timeout:        cfg.SMS.Timeout,
		RequireConsent: cfg.SMS.RequireConsent,
		ConfirmBaseURL: cfg.SMS.ConfirmBaseURL,
	}, logger).WithCache(outcomes)
	inmates := importer.New(uploads, logger)
	groups := service.NewGroupAssigner(volunteers, logger)

	worker := queue.NewWorker(tasks, cfg.Worker.BatchSize, logger)
	worker.Register(queue.SMS, queue.TaskDispatchSMS, queue.Handle(func(ctx context.Context, t service.SmsTask) error {
		_, err := dispatcher.Dispatch(ctx, t)
		return err
	}))
	worker.Register(queue.BulkCSVUpload, queue.TaskImportInmates, queue.Handle(inmates.ImportInmates))
	worker.Register(queue.VolunteerGroup, queue.TaskAssignGroup, queue.Handle(groups.Assign))

	sched, err := scheduler.New(cfg.Worker.Interval, worker.Drain, logger)
	if err != nil {
		return err
	}

	site := admin.NewReliefSite(admin.Tables{
		Requests:          repo.NewRequestTable(db),
		Volunteers:        repo.NewVolunteerTable(db),
		NGOs:              repo.NewNGOTable(db),
		Contributors:      repo.NewContributorTable(db),
		RescueCamps:       repo.NewRescueCampTable(db),
		Persons:           repo.NewPersonTable(db),
		CollectionCenters: repo.NewCollectionCenterTable(db),
	}, volunteers, tasks, logger)
	adminHandler := admin.NewHandler(admin.HandlerConfig{
		Site:      site,
		Jobs:      jobs,
		Uploads:   uploads,
		Outcomes:  outcomes,
		Queue:     tasks,
		UploadDir: cfg.Admin.UploadDir,
	}, logger)

	srv := &http.Server{
		Addr:              cfg.Server.Address,
		Handler:           loggingMiddleware(logger, api.Router(api.NewHandler(sched, tasks), adminHandler)),
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("relief-admin starting",
		zap.String("addr", cfg.Server.Address),
		zap.Duration("interval", cfg.Worker.Interval),
		zap.Int("batch", cfg.Worker.BatchSize),
		zap.Int("sms_concurrency", cfg.SMS.Concurrency),
	)

	sched.Start()
	defer sched.Stop()

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	n, err := r.ResponseWriter.Write(b)
	r.bytes += n
	return n, err
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func loggingMiddleware(logger *zap.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		logger.Info("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Int("bytes", rec.bytes),
			zap.Duration("duration", time.Since(start)),
		)
	})
}
