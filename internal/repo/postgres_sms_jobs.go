package repo

import (
	"context"
	"database/sql"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/LeventeLantos/relief-admin/internal/model"
)

type PostgresSmsJobRepo struct {
	db *sql.DB
}

func NewPostgresSmsJobRepo(db *sql.DB) *PostgresSmsJobRepo {
	return &PostgresSmsJobRepo{db: db}
}

var smsJobCols, smsJobIndex = dbFields[model.SmsJob]()

func (r *PostgresSmsJobRepo) Create(ctx context.Context, job model.SmsJob) (int64, error) {
	var id int64
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO sms_jobs (district, area, group_id, message, sms_type, status, has_completed, failure, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, 'pending', false, '', now(), now())
		RETURNING id
	`, job.District, job.Area, job.GroupID, job.Message, string(job.Type)).Scan(&id)
	if err != nil {
		return 0, errors.Wrap(err, "insert sms job")
	}
	return id, nil
}

func (r *PostgresSmsJobRepo) Get(ctx context.Context, id int64) (model.SmsJob, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+strings.Join(smsJobCols, ", ")+` FROM sms_jobs WHERE id = $1`, id)
	job, err := scanInto[model.SmsJob](row, smsJobIndex)
	if errors.Is(err, sql.ErrNoRows) {
		return model.SmsJob{}, errors.Wrapf(ErrNotFound, "sms job %d", id)
	}
	if err != nil {
		return model.SmsJob{}, errors.Wrapf(err, "load sms job %d", id)
	}
	return job, nil
}

func (r *PostgresSmsJobRepo) Claim(ctx context.Context, id int64) (model.SmsJob, error) {
	row := r.db.QueryRowContext(ctx, `
		UPDATE sms_jobs
		SET status = 'processing', updated_at = now()
		WHERE id = $1 AND status = 'pending' AND NOT has_completed
		RETURNING `+strings.Join(smsJobCols, ", "), id)

	job, err := scanInto[model.SmsJob](row, smsJobIndex)
	if err == nil {
		return job, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return model.SmsJob{}, errors.Wrapf(err, "claim sms job %d", id)
	}

	// Nothing updated: either the job is gone or someone else holds it.
	if _, err := r.Get(ctx, id); err != nil {
		return model.SmsJob{}, err
	}
	return model.SmsJob{}, errors.Wrapf(ErrJobClaimed, "sms job %d", id)
}

func (r *PostgresSmsJobRepo) Release(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE sms_jobs
		SET status = 'pending',
		    updated_at = now()
		WHERE id = $1
		  AND status = 'processing'
		  AND NOT has_completed
	`, id)
	if err != nil {
		return errors.Wrapf(err, "release sms job %d", id)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return errors.Wrapf(ErrNotFound, "processing sms job %d", id)
	}
	return nil
}

func (r *PostgresSmsJobRepo) Complete(ctx context.Context, id int64, failure string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE sms_jobs
		SET status = 'completed',
		    has_completed = true,
		    failure = $2,
		    updated_at = now()
		WHERE id = $1
	`, id, failure)
	if err != nil {
		return errors.Wrapf(err, "complete sms job %d", id)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return errors.Wrapf(ErrNotFound, "sms job %d", id)
	}
	return nil
}
