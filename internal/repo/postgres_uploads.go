package repo

import (
	"context"
	"database/sql"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/LeventeLantos/relief-admin/internal/model"
)

type PostgresUploadRepo struct {
	db *sql.DB
}

func NewPostgresUploadRepo(db *sql.DB) *PostgresUploadRepo {
	return &PostgresUploadRepo{db: db}
}

func (r *PostgresUploadRepo) CreateUpload(ctx context.Context, u model.CsvBulkUpload) (int64, error) {
	var id int64
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO csv_bulk_uploads (name, camp_id, file_path, is_completed, created_at)
		VALUES ($1, $2, $3, false, now())
		RETURNING id
	`, u.Name, u.CampID, u.FilePath).Scan(&id)
	if err != nil {
		return 0, errors.Wrap(err, "insert csv upload")
	}
	return id, nil
}

func (r *PostgresUploadRepo) GetUpload(ctx context.Context, id int64) (model.CsvBulkUpload, error) {
	var u model.CsvBulkUpload
	var failure sql.NullString
	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, camp_id, file_path, is_completed, failure_reason, created_at
		FROM csv_bulk_uploads
		WHERE id = $1
	`, id).Scan(&u.ID, &u.Name, &u.CampID, &u.FilePath, &u.IsCompleted, &failure, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.CsvBulkUpload{}, errors.Wrapf(ErrNotFound, "csv upload %d", id)
	}
	if err != nil {
		return model.CsvBulkUpload{}, errors.Wrapf(err, "load csv upload %d", id)
	}
	if failure.Valid {
		s := failure.String
		u.FailureReason = &s
	}
	return u, nil
}

func (r *PostgresUploadRepo) CompleteUpload(ctx context.Context, id int64, failure *string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE csv_bulk_uploads
		SET is_completed = true, failure_reason = $2
		WHERE id = $1
	`, id, failure)
	return errors.Wrapf(err, "complete csv upload %d", id)
}

func (r *PostgresUploadRepo) InsertPersons(ctx context.Context, campID int64, persons []model.Person) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin person import")
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UTC()
	for i, p := range persons {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO persons (name, phone, age, gender, address, district, notes, camped_at_id, added_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		`, p.Name, p.Phone, p.Age, p.Gender, p.Address, p.District, p.Notes, campID, now); err != nil {
			return errors.Wrapf(err, "insert person row %d", i+1)
		}
	}

	return errors.Wrap(tx.Commit(), "commit person import")
}
