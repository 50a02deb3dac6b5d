package repo

import (
	"context"

	"github.com/cockroachdb/errors"

	"github.com/LeventeLantos/relief-admin/internal/model"
)

var (
	ErrNotFound   = errors.New("record not found")
	ErrJobClaimed = errors.New("sms job already claimed")
)

type SmsJobRepository interface {
	Create(ctx context.Context, job model.SmsJob) (int64, error)
	Get(ctx context.Context, id int64) (model.SmsJob, error)
	// Claim moves a pending job to processing. It returns ErrJobClaimed when the
	// job was already taken or completed.
	Claim(ctx context.Context, id int64) (model.SmsJob, error)
	Complete(ctx context.Context, id int64, failure string) error
	// Release returns a processing job to pending so a later delivery can
	// claim it again.
	Release(ctx context.Context, id int64) error
}

// VolunteerFilter narrows volunteers by the SMS job targets. Nil fields do not
// filter.
type VolunteerFilter struct {
	District      *string
	Area          *string
	GroupID       *int64
	ConsentedOnly bool
}

func (f VolunteerFilter) Empty() bool {
	return f.District == nil && f.Area == nil && f.GroupID == nil
}

type VolunteerRepository interface {
	Find(ctx context.Context, f VolunteerFilter) ([]model.Volunteer, error)
	SetActive(ctx context.Context, ids []int64, active bool) (int64, error)
	AddToGroup(ctx context.Context, groupID int64, volunteerIDs []int64) error
	Groups(ctx context.Context) ([]model.VolunteerGroup, error)
}

type UploadRepository interface {
	CreateUpload(ctx context.Context, u model.CsvBulkUpload) (int64, error)
	GetUpload(ctx context.Context, id int64) (model.CsvBulkUpload, error)
	CompleteUpload(ctx context.Context, id int64, failure *string) error
	InsertPersons(ctx context.Context, campID int64, persons []model.Person) error
}
