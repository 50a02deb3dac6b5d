package repo

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/LeventeLantos/relief-admin/internal/model"
)

type PostgresVolunteerRepo struct {
	db *sql.DB
}

func NewPostgresVolunteerRepo(db *sql.DB) *PostgresVolunteerRepo {
	return &PostgresVolunteerRepo{db: db}
}

var volunteerCols, volunteerIndex = dbFields[model.Volunteer]()

func (r *PostgresVolunteerRepo) Find(ctx context.Context, f VolunteerFilter) ([]model.Volunteer, error) {
	var (
		conds []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if f.District != nil {
		conds = append(conds, "v.district = "+arg(*f.District))
	}
	if f.Area != nil {
		conds = append(conds, "v.area = "+arg(*f.Area))
	}
	if f.GroupID != nil {
		conds = append(conds, "EXISTS (SELECT 1 FROM volunteer_group_members m WHERE m.volunteer_id = v.id AND m.group_id = "+arg(*f.GroupID)+")")
	}
	if f.ConsentedOnly {
		conds = append(conds, "v.has_consented")
	}

	q := `SELECT ` + selectList("v", volunteerCols, nil) + ` FROM volunteers v`
	if len(conds) > 0 {
		q += ` WHERE ` + strings.Join(conds, " AND ")
	}
	q += ` ORDER BY v.id`

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, errors.Wrap(err, "query volunteers")
	}
	defer rows.Close()

	var out []model.Volunteer
	for rows.Next() {
		v, err := scanInto[model.Volunteer](rows, volunteerIndex)
		if err != nil {
			return nil, errors.Wrap(err, "scan volunteer")
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (r *PostgresVolunteerRepo) SetActive(ctx context.Context, ids []int64, active bool) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	in, args := inList(ids, 2)
	res, err := r.db.ExecContext(ctx,
		`UPDATE volunteers SET is_active = $1 WHERE id IN (`+in+`)`,
		append([]any{active}, args...)...)
	if err != nil {
		return 0, errors.Wrap(err, "update volunteers is_active")
	}
	return res.RowsAffected()
}

func (r *PostgresVolunteerRepo) AddToGroup(ctx context.Context, groupID int64, volunteerIDs []int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin group assignment")
	}
	defer func() { _ = tx.Rollback() }()

	for _, id := range volunteerIDs {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO volunteer_group_members (volunteer_id, group_id)
			VALUES ($1, $2)
			ON CONFLICT DO NOTHING
		`, id, groupID); err != nil {
			return errors.Wrapf(err, "add volunteer %d to group %d", id, groupID)
		}
	}

	return errors.Wrap(tx.Commit(), "commit group assignment")
}

func (r *PostgresVolunteerRepo) Groups(ctx context.Context) ([]model.VolunteerGroup, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, group_name FROM volunteer_groups ORDER BY group_name`)
	if err != nil {
		return nil, errors.Wrap(err, "query volunteer groups")
	}
	defer rows.Close()

	var out []model.VolunteerGroup
	for rows.Next() {
		var g model.VolunteerGroup
		if err := rows.Scan(&g.ID, &g.GroupName); err != nil {
			return nil, errors.Wrap(err, "scan volunteer group")
		}
		out = append(out, g)
	}
	return out, rows.Err()
}
