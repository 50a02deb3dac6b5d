package repo

import (
	"context"
	"database/sql"
	"iter"

	"github.com/cockroachdb/errors"

	"github.com/LeventeLantos/relief-admin/internal/model"
)

// Table reads admin records of type T. Columns come from T's db tags; every
// identifier is a compile-time constant, never operator input.
type Table[T any] struct {
	db    *sql.DB
	name  string
	from  string
	exprs map[string]string

	cols  []string
	index []int
}

func newTable[T any](db *sql.DB, name, from string, exprs map[string]string) *Table[T] {
	cols, index := dbFields[T]()
	return &Table[T]{db: db, name: name, from: from, exprs: exprs, cols: cols, index: index}
}

func NewRequestTable(db *sql.DB) *Table[model.Request] {
	return newTable[model.Request](db, "requests", "requests r", nil)
}

func NewVolunteerTable(db *sql.DB) *Table[model.Volunteer] {
	return newTable[model.Volunteer](db, "volunteers", "volunteers r", nil)
}

func NewContributorTable(db *sql.DB) *Table[model.Contributor] {
	return newTable[model.Contributor](db, "contributors", "contributors r", nil)
}

func NewRescueCampTable(db *sql.DB) *Table[model.RescueCamp] {
	return newTable[model.RescueCamp](db, "rescue_camps", "rescue_camps r", nil)
}

func NewPersonTable(db *sql.DB) *Table[model.Person] {
	return newTable[model.Person](db, "persons",
		"persons r JOIN rescue_camps c ON c.id = r.camped_at_id",
		map[string]string{"camped_at": "c.name"})
}

func NewNGOTable(db *sql.DB) *Table[model.NGO] {
	return newTable[model.NGO](db, "ngos", "ngos r", nil)
}

func NewCollectionCenterTable(db *sql.DB) *Table[model.CollectionCenter] {
	return newTable[model.CollectionCenter](db, "collection_centers", "collection_centers r", nil)
}

func (t *Table[T]) Name() string { return t.name }

// ByIDs loads the selected rows ordered by id.
func (t *Table[T]) ByIDs(ctx context.Context, ids []int64) ([]T, error) {
	return t.collect(t.ByIDsSeq(ctx, ids))
}

// ByIDsSeq yields the selected rows one at a time from an open cursor.
func (t *Table[T]) ByIDsSeq(ctx context.Context, ids []int64) iter.Seq2[T, error] {
	return t.where(ctx, "r.id", ids)
}

// ByParent loads rows whose column matches one of ids, e.g. persons by camp.
func (t *Table[T]) ByParent(ctx context.Context, column string, ids []int64) ([]T, error) {
	return t.collect(t.where(ctx, "r."+column, ids))
}

// SetStatus writes value into column for the selected rows.
func (t *Table[T]) SetStatus(ctx context.Context, column, value string, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	in, args := inList(ids, 2)
	res, err := t.db.ExecContext(ctx,
		`UPDATE `+t.name+` SET `+column+` = $1 WHERE id IN (`+in+`)`,
		append([]any{value}, args...)...)
	if err != nil {
		return 0, errors.Wrapf(err, "update %s.%s", t.name, column)
	}
	return res.RowsAffected()
}

func (t *Table[T]) where(ctx context.Context, column string, ids []int64) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		var zero T
		if len(ids) == 0 {
			return
		}

		in, args := inList(ids, 1)
		rows, err := t.db.QueryContext(ctx,
			`SELECT `+selectList("r", t.cols, t.exprs)+` FROM `+t.from+
				` WHERE `+column+` IN (`+in+`) ORDER BY r.id`, args...)
		if err != nil {
			yield(zero, errors.Wrapf(err, "query %s", t.name))
			return
		}
		defer rows.Close()

		for rows.Next() {
			rec, err := scanInto[T](rows, t.index)
			if err != nil {
				yield(zero, errors.Wrapf(err, "scan %s", t.name))
				return
			}
			if !yield(rec, nil) {
				return
			}
		}
		if err := rows.Err(); err != nil {
			yield(zero, errors.Wrapf(err, "iterate %s", t.name))
		}
	}
}

func (t *Table[T]) collect(seq iter.Seq2[T, error]) ([]T, error) {
	var out []T
	for rec, err := range seq {
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}
