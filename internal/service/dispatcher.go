package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/LeventeLantos/relief-admin/internal/cache"
	"github.com/LeventeLantos/relief-admin/internal/metrics"
	"github.com/LeventeLantos/relief-admin/internal/model"
	"github.com/LeventeLantos/relief-admin/internal/repo"
)

const (
	// NoFilterFailure is recorded on a job that names no district, area or group.
	NoFilterFailure = "Incorrect Information Provided"

	consentTemplate = "Thank you for registering as a volunteer on keralarescue. Please click here to confirm. "
	surveyTemplate  = "Thanks keralarescue volunteer if willing to conduct damage assessment field survey, Pls click on the link to confirm. "
)

type Gateway interface {
	Send(ctx context.Context, phoneNumber, message string) (body string, err error)
	Delivered(body string) bool
}

// SmsTask is the queued request to run one SMS job.
type SmsTask struct {
	JobID    int64         `json:"jobId"`
	District *string       `json:"district,omitempty"`
	Area     *string       `json:"area,omitempty"`
	GroupID  *int64        `json:"groupId,omitempty"`
	Message  string        `json:"message"`
	Type     model.SmsType `json:"type"`
}

func TaskFromJob(job model.SmsJob) SmsTask {
	return SmsTask{
		JobID:    job.ID,
		District: job.District,
		Area:     job.Area,
		GroupID:  job.GroupID,
		Message:  job.Message,
		Type:     job.Type,
	}
}

type DispatchOptions struct {
	Concurrency    int
	Timeout        time.Duration
	RequireConsent bool
	ConfirmBaseURL string
}

type Result struct {
	Total   int
	Failed  int
	Summary string
	// Skipped is set when the job had already been claimed by another run.
	Skipped bool
}

type Dispatcher struct {
	jobs       repo.SmsJobRepository
	volunteers repo.VolunteerRepository
	gateway    Gateway
	cache      cache.OutcomeCache
	opts       DispatchOptions
	log        *zap.Logger
	now        func() time.Time
}

func NewDispatcher(jobs repo.SmsJobRepository, volunteers repo.VolunteerRepository, gateway Gateway, opts DispatchOptions, log *zap.Logger) *Dispatcher {
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	return &Dispatcher{
		jobs:       jobs,
		volunteers: volunteers,
		gateway:    gateway,
		opts:       opts,
		log:        log.Named("sms"),
		now:        time.Now,
	}
}

func (d *Dispatcher) WithCache(c cache.OutcomeCache) *Dispatcher {
	d.cache = c
	return d
}

func (d *Dispatcher) Dispatch(ctx context.Context, t SmsTask) (Result, error) {
	log := d.log.With(zap.Int64("job_id", t.JobID))

	if _, err := d.jobs.Claim(ctx, t.JobID); err != nil {
		if errors.Is(err, repo.ErrJobClaimed) {
			log.Info("job already claimed or completed")
			metrics.SMSJobs.WithLabelValues("already_claimed").Inc()
			return Result{Skipped: true}, nil
		}
		metrics.SMSJobs.WithLabelValues("error").Inc()
		return Result{}, err
	}

	log.Info("starting sms job",
		zap.Stringp("district", t.District),
		zap.Stringp("area", t.Area),
		zap.Int64p("group_id", t.GroupID),
		zap.String("type", string(t.Type)),
		zap.String("message", t.Message),
	)

	filter := repo.VolunteerFilter{District: t.District, Area: t.Area, GroupID: t.GroupID}
	if filter.Empty() {
		log.Info(NoFilterFailure)
		metrics.SMSJobs.WithLabelValues("no_filter").Inc()
		return Result{Summary: NoFilterFailure}, d.complete(ctx, t.JobID, NoFilterFailure)
	}

	if t.Type != model.SmsConsent {
		if d.opts.RequireConsent {
			filter.ConsentedOnly = true
		} else {
			log.Warn("consent restriction disabled, volunteers without consent will be messaged")
		}
	}

	recipients, err := d.volunteers.Find(ctx, filter)
	if err != nil {
		metrics.SMSJobs.WithLabelValues("error").Inc()
		d.release(ctx, log, t.JobID)
		return Result{}, errors.Wrapf(err, "select recipients for sms job %d", t.JobID)
	}
	log.Info("filtered volunteers", zap.Int("count", len(recipients)))

	delivered := d.fanOut(ctx, log, t, recipients)

	res := Result{Total: len(recipients)}
	for _, ok := range delivered {
		if !ok {
			res.Failed++
		}
	}
	res.Summary = fmt.Sprintf("%d sms failed out of %d", res.Failed, res.Total)
	log.Info(res.Summary)

	if err := d.complete(ctx, t.JobID, res.Summary); err != nil {
		metrics.SMSJobs.WithLabelValues("error").Inc()
		return res, err
	}
	metrics.SMSJobs.WithLabelValues("sent").Inc()

	if d.cache != nil {
		o := cache.Outcome{JobID: t.JobID, Total: res.Total, Failed: res.Failed, Summary: res.Summary, CompletedAt: d.now()}
		if err := d.cache.StoreOutcome(context.WithoutCancel(ctx), o); err != nil {
			log.Warn("failed to cache sms job outcome", zap.Error(err))
		}
	}
	return res, nil
}

// fanOut calls the gateway once per recipient with at most Concurrency calls in
// flight. The returned slice is indexed like recipients.
func (d *Dispatcher) fanOut(ctx context.Context, log *zap.Logger, t SmsTask, recipients []model.Volunteer) []bool {
	delivered := make([]bool, len(recipients))

	var g errgroup.Group
	g.SetLimit(d.opts.Concurrency)

	for i, v := range recipients {
		g.Go(func() error {
			delivered[i] = d.sendOne(ctx, log, v, d.messageFor(t, v))
			return nil
		})
	}
	_ = g.Wait()

	return delivered
}

func (d *Dispatcher) sendOne(ctx context.Context, log *zap.Logger, v model.Volunteer, msg string) bool {
	callCtx := ctx
	if d.opts.Timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, d.opts.Timeout)
		defer cancel()
	}

	body, err := d.gateway.Send(callCtx, v.Phone, msg)
	if err != nil {
		metrics.SMSSent.WithLabelValues("error").Inc()
		log.Warn("sms gateway call failed",
			zap.String("volunteer", v.Name),
			zap.String("phone", v.Phone),
			zap.Error(err),
		)
		return false
	}

	log.Info("sms gateway response",
		zap.String("volunteer", v.Name),
		zap.String("phone", v.Phone),
		zap.String("response", body),
	)
	if !d.gateway.Delivered(body) {
		metrics.SMSSent.WithLabelValues("rejected").Inc()
		return false
	}
	metrics.SMSSent.WithLabelValues("delivered").Inc()
	return true
}

// release hands a claimed job back before any gateway call was made, so the
// next delivery of the task can run it.
func (d *Dispatcher) release(ctx context.Context, log *zap.Logger, jobID int64) {
	if err := d.jobs.Release(context.WithoutCancel(ctx), jobID); err != nil {
		log.Error("failed to release sms job", zap.Error(err))
		return
	}
	log.Info("sms job released for retry")
}

// complete survives cancellation of ctx so an interrupted run is not left in
// processing.
func (d *Dispatcher) complete(ctx context.Context, jobID int64, failure string) error {
	return d.jobs.Complete(context.WithoutCancel(ctx), jobID, failure)
}

func (d *Dispatcher) messageFor(t SmsTask, v model.Volunteer) string {
	if !t.Type.Personalized() {
		return t.Message
	}
	template := surveyTemplate
	if t.Type == model.SmsConsent {
		template = consentTemplate
	}
	return template + ConfirmationLink(d.opts.ConfirmBaseURL, v)
}

// ConfirmationLink builds <base>/c/<volunteer id>/<last four digits of the
// volunteer's join time in UTC epoch seconds>.
func ConfirmationLink(base string, v model.Volunteer) string {
	ts := strconv.FormatInt(v.Joined.UTC().Unix(), 10)
	if len(ts) > 4 {
		ts = ts[len(ts)-4:]
	}
	return fmt.Sprintf("%s/c/%d/%s", base, v.ID, ts)
}
