package service_test

import (
	"context"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/LeventeLantos/relief-admin/internal/cache"
	"github.com/LeventeLantos/relief-admin/internal/model"
	"github.com/LeventeLantos/relief-admin/internal/repo"
)

type fakeJobs struct {
	mu   sync.Mutex
	jobs map[int64]*model.SmsJob

	completes int
	releases  int
}

var _ repo.SmsJobRepository = (*fakeJobs)(nil)

func newFakeJobs(jobs ...model.SmsJob) *fakeJobs {
	f := &fakeJobs{jobs: map[int64]*model.SmsJob{}}
	for _, j := range jobs {
		j := j
		if j.Status == "" {
			j.Status = model.Pending
		}
		f.jobs[j.ID] = &j
	}
	return f
}

func (f *fakeJobs) Create(ctx context.Context, job model.SmsJob) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	job.ID = int64(len(f.jobs) + 1)
	job.Status = model.Pending
	f.jobs[job.ID] = &job
	return job.ID, nil
}

func (f *fakeJobs) Get(ctx context.Context, id int64) (model.SmsJob, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	j, ok := f.jobs[id]
	if !ok {
		return model.SmsJob{}, repo.ErrNotFound
	}
	return *j, nil
}

func (f *fakeJobs) Claim(ctx context.Context, id int64) (model.SmsJob, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	j, ok := f.jobs[id]
	if !ok {
		return model.SmsJob{}, repo.ErrNotFound
	}
	if j.Status != model.Pending || j.HasCompleted {
		return model.SmsJob{}, errors.Wrapf(repo.ErrJobClaimed, "sms job %d", id)
	}
	j.Status = model.Processing
	return *j, nil
}

func (f *fakeJobs) Release(ctx context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	j, ok := f.jobs[id]
	if !ok || j.Status != model.Processing || j.HasCompleted {
		return repo.ErrNotFound
	}
	f.releases++
	j.Status = model.Pending
	return nil
}

func (f *fakeJobs) Complete(ctx context.Context, id int64, failure string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	j, ok := f.jobs[id]
	if !ok {
		return repo.ErrNotFound
	}
	f.completes++
	j.Status = model.Completed
	j.HasCompleted = true
	j.Failure = failure
	return nil
}

type fakeVolunteers struct {
	all     []model.Volunteer
	members map[int64][]int64 // group id -> volunteer ids

	lastFilter repo.VolunteerFilter
	added      map[int64][]int64
	err        error
}

var _ repo.VolunteerRepository = (*fakeVolunteers)(nil)

func (f *fakeVolunteers) Find(ctx context.Context, flt repo.VolunteerFilter) ([]model.Volunteer, error) {
	f.lastFilter = flt
	if f.err != nil {
		return nil, f.err
	}
	var out []model.Volunteer
	for _, v := range f.all {
		if flt.District != nil && v.District != *flt.District {
			continue
		}
		if flt.Area != nil && v.Area != *flt.Area {
			continue
		}
		if flt.GroupID != nil && !slices.Contains(f.members[*flt.GroupID], v.ID) {
			continue
		}
		if flt.ConsentedOnly && !v.HasConsented {
			continue
		}
		out = append(out, v)
	}
	return out, nil
}

func (f *fakeVolunteers) SetActive(ctx context.Context, ids []int64, active bool) (int64, error) {
	return int64(len(ids)), nil
}

func (f *fakeVolunteers) AddToGroup(ctx context.Context, groupID int64, volunteerIDs []int64) error {
	if f.err != nil {
		return f.err
	}
	if f.added == nil {
		f.added = map[int64][]int64{}
	}
	f.added[groupID] = append(f.added[groupID], volunteerIDs...)
	return nil
}

func (f *fakeVolunteers) Groups(ctx context.Context) ([]model.VolunteerGroup, error) {
	return nil, nil
}

type sentSMS struct {
	Phone   string
	Message string
}

// fakeGateway answers "402 ok" unless the phone is listed in reject or fail.
type fakeGateway struct {
	mu     sync.Mutex
	sent   []sentSMS
	reject map[string]bool
	fail   map[string]bool
	delay  time.Duration

	inFlight atomic.Int32
	maxSeen  atomic.Int32
}

func (g *fakeGateway) Send(ctx context.Context, phone, message string) (string, error) {
	n := g.inFlight.Add(1)
	defer g.inFlight.Add(-1)
	for {
		m := g.maxSeen.Load()
		if n <= m || g.maxSeen.CompareAndSwap(m, n) {
			break
		}
	}

	if g.delay > 0 {
		select {
		case <-time.After(g.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	g.mu.Lock()
	g.sent = append(g.sent, sentSMS{Phone: phone, Message: message})
	g.mu.Unlock()

	if g.fail[phone] {
		return "", errors.New("connection reset by peer")
	}
	if g.reject[phone] {
		return "ERROR 301 invalid number", nil
	}
	return "402 ok", nil
}

func (g *fakeGateway) Delivered(body string) bool {
	return strings.Contains(body, "402")
}

func (g *fakeGateway) calls() []sentSMS {
	g.mu.Lock()
	defer g.mu.Unlock()
	return slices.Clone(g.sent)
}

type memCache struct {
	mu    sync.Mutex
	items map[int64]cache.Outcome
}

func (c *memCache) StoreOutcome(ctx context.Context, o cache.Outcome) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.items == nil {
		c.items = map[int64]cache.Outcome{}
	}
	c.items[o.JobID] = o
	return nil
}

func (c *memCache) LoadOutcome(ctx context.Context, jobID int64) (cache.Outcome, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	o, ok := c.items[jobID]
	return o, ok, nil
}
