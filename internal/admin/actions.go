package admin

import (
	"context"
	"fmt"
	"iter"
	"net/http"
	"net/url"

	"github.com/cockroachdb/errors"

	"github.com/LeventeLantos/relief-admin/internal/export"
	"github.com/LeventeLantos/relief-admin/internal/metrics"
)

// Records is the read and bulk-update surface the admin needs for one table.
type Records[T any] interface {
	ByIDs(ctx context.Context, ids []int64) ([]T, error)
	ByIDsSeq(ctx context.Context, ids []int64) iter.Seq2[T, error]
	ByParent(ctx context.Context, column string, ids []int64) ([]T, error)
	SetStatus(ctx context.Context, column, value string, ids []int64) (int64, error)
}

const flashCookie = "relief_flash"

func downloadCSV[T any](entity, filename string, fields []string, load func(context.Context, []int64) ([]T, error)) ActionFunc {
	return func(w http.ResponseWriter, r *http.Request, ids []int64) error {
		recs, err := load(r.Context(), ids)
		if err != nil {
			return err
		}
		if err := export.Buffered(w, filename, fields, recs); err != nil {
			return err
		}
		metrics.Exports.WithLabelValues(entity, "csv").Inc()
		return nil
	}
}

func streamCSV[T any](entity, filename string, fields []string, load func(context.Context, []int64) iter.Seq2[T, error]) ActionFunc {
	return func(w http.ResponseWriter, r *http.Request, ids []int64) error {
		if err := export.Stream(w, filename, fields, load(r.Context(), ids)); err != nil {
			return err
		}
		metrics.Exports.WithLabelValues(entity, "stream").Inc()
		return nil
	}
}

func downloadXLSX[T any](entity, filename string, fields []string, load func(context.Context, []int64) ([]T, error)) ActionFunc {
	return func(w http.ResponseWriter, r *http.Request, ids []int64) error {
		recs, err := load(r.Context(), ids)
		if err != nil {
			return err
		}
		if err := export.XLSX(w, filename, fields, recs); err != nil {
			return err
		}
		metrics.Exports.WithLabelValues(entity, "xlsx").Inc()
		return nil
	}
}

// update applies a bulk write and sends the operator back to the entity list
// with a flash message.
func update(entity, message string, apply func(context.Context, []int64) (int64, error)) ActionFunc {
	return func(w http.ResponseWriter, r *http.Request, ids []int64) error {
		n, err := apply(r.Context(), ids)
		if err != nil {
			return errors.Wrapf(err, "%s bulk update", entity)
		}
		msg := message
		if msg == "" {
			msg = fmt.Sprintf("%d %s updated.", n, entity)
		}
		redirectWithFlash(w, r, "/admin/entities/"+entity+"/", msg)
		return nil
	}
}

func setStatus[T any](entity string, rec Records[T], column, value, message string) ActionFunc {
	return update(entity, message, func(ctx context.Context, ids []int64) (int64, error) {
		return rec.SetStatus(ctx, column, value, ids)
	})
}

func redirectWithFlash(w http.ResponseWriter, r *http.Request, to, message string) {
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookie,
		Value:    url.QueryEscape(message),
		Path:     "/admin/",
		MaxAge:   60,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, to, http.StatusSeeOther)
}
