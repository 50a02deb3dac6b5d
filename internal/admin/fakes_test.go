package admin

import (
	"context"
	"encoding/json"
	"iter"
	"slices"
	"sync"

	"github.com/cockroachdb/errors"

	"github.com/LeventeLantos/relief-admin/internal/cache"
	"github.com/LeventeLantos/relief-admin/internal/model"
	"github.com/LeventeLantos/relief-admin/internal/repo"
)

type statusCall struct {
	column, value string
	ids           []int64
}

type fakeTable[T any] struct {
	rows   []T
	id     func(T) int64
	parent func(T) int64

	err error
	// failAfter makes ByIDsSeq fail once that many rows were yielded.
	failAfter int

	parentColumn string
	updates      []statusCall
}

func (f *fakeTable[T]) ByIDs(ctx context.Context, ids []int64) ([]T, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []T
	for _, r := range f.rows {
		if slices.Contains(ids, f.id(r)) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeTable[T]) ByIDsSeq(ctx context.Context, ids []int64) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		var zero T
		n := 0
		for _, r := range f.rows {
			if !slices.Contains(ids, f.id(r)) {
				continue
			}
			if f.failAfter > 0 && n == f.failAfter {
				yield(zero, errors.New("cursor lost"))
				return
			}
			if !yield(r, nil) {
				return
			}
			n++
		}
	}
}

func (f *fakeTable[T]) ByParent(ctx context.Context, column string, ids []int64) ([]T, error) {
	f.parentColumn = column
	if f.err != nil {
		return nil, f.err
	}
	var out []T
	for _, r := range f.rows {
		if slices.Contains(ids, f.parent(r)) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeTable[T]) SetStatus(ctx context.Context, column, value string, ids []int64) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	f.updates = append(f.updates, statusCall{column: column, value: value, ids: ids})
	return int64(len(ids)), nil
}

type fakeVolunteers struct {
	groups    []model.VolunteerGroup
	groupsErr error

	activeIDs []int64
	active    *bool
}

var _ repo.VolunteerRepository = (*fakeVolunteers)(nil)

func (f *fakeVolunteers) Find(context.Context, repo.VolunteerFilter) ([]model.Volunteer, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeVolunteers) SetActive(ctx context.Context, ids []int64, active bool) (int64, error) {
	f.activeIDs = ids
	f.active = &active
	return int64(len(ids)), nil
}

func (f *fakeVolunteers) AddToGroup(context.Context, int64, []int64) error {
	return errors.New("not implemented")
}

func (f *fakeVolunteers) Groups(context.Context) ([]model.VolunteerGroup, error) {
	return f.groups, f.groupsErr
}

type queued struct {
	queue, taskType string
	payload         json.RawMessage
}

type fakeQueue struct {
	mu    sync.Mutex
	tasks []queued
	err   error
}

func (f *fakeQueue) Enqueue(ctx context.Context, q, taskType string, payload any) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tasks = append(f.tasks, queued{queue: q, taskType: taskType, payload: raw})
	return "task-1", nil
}

type fakeJobs struct {
	created []model.SmsJob
	jobs    map[int64]model.SmsJob
	err     error
}

var _ repo.SmsJobRepository = (*fakeJobs)(nil)

func (f *fakeJobs) Create(ctx context.Context, job model.SmsJob) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	f.created = append(f.created, job)
	return int64(len(f.created)), nil
}

func (f *fakeJobs) Get(ctx context.Context, id int64) (model.SmsJob, error) {
	j, ok := f.jobs[id]
	if !ok {
		return model.SmsJob{}, repo.ErrNotFound
	}
	return j, nil
}

func (f *fakeJobs) Claim(context.Context, int64) (model.SmsJob, error) {
	return model.SmsJob{}, errors.New("not implemented")
}

func (f *fakeJobs) Complete(context.Context, int64, string) error {
	return errors.New("not implemented")
}

func (f *fakeJobs) Release(context.Context, int64) error {
	return errors.New("not implemented")
}

type fakeUploads struct {
	created []model.CsvBulkUpload
	uploads map[int64]model.CsvBulkUpload
}

var _ repo.UploadRepository = (*fakeUploads)(nil)

func (f *fakeUploads) CreateUpload(ctx context.Context, u model.CsvBulkUpload) (int64, error) {
	f.created = append(f.created, u)
	return int64(len(f.created)), nil
}

func (f *fakeUploads) GetUpload(ctx context.Context, id int64) (model.CsvBulkUpload, error) {
	u, ok := f.uploads[id]
	if !ok {
		return model.CsvBulkUpload{}, repo.ErrNotFound
	}
	return u, nil
}

func (f *fakeUploads) CompleteUpload(context.Context, int64, *string) error {
	return errors.New("not implemented")
}

func (f *fakeUploads) InsertPersons(context.Context, int64, []model.Person) error {
	return errors.New("not implemented")
}

type memOutcomes map[int64]cache.Outcome

func (m memOutcomes) StoreOutcome(ctx context.Context, o cache.Outcome) error {
	m[o.JobID] = o
	return nil
}

func (m memOutcomes) LoadOutcome(ctx context.Context, jobID int64) (cache.Outcome, bool, error) {
	o, ok := m[jobID]
	return o, ok, nil
}
