package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"iter"
	"net/http"
	"strconv"

	"github.com/cockroachdb/errors"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// ErrStreamInterrupted marks a failure after the response headers went out.
// The caller can no longer change the status and should abort the connection.
var ErrStreamInterrupted = errors.New("csv stream interrupted")

const ContentType = "text/csv"

// Buffered renders every record before sending anything, so the response carries
// a Content-Length.
func Buffered[T any](w http.ResponseWriter, filename string, fields []string, records []T) error {
	row, err := columns[T](fields)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := writeTable(&buf, fields, Slice(records), row, nil); err != nil {
		return err
	}

	setHeaders(w, filename, ContentType, ".csv")
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, err = w.Write(buf.Bytes())
	return err
}

// Stream writes one row per record as the sequence yields it, flushing after
// every row. The bytes match Buffered for the same input.
func Stream[T any](w http.ResponseWriter, filename string, fields []string, records iter.Seq2[T, error]) error {
	row, err := columns[T](fields)
	if err != nil {
		return err
	}

	setHeaders(w, filename, ContentType, ".csv")
	w.WriteHeader(http.StatusOK)

	flush := func() {}
	if f, ok := w.(http.Flusher); ok {
		flush = f.Flush
	}

	if err := writeTable(w, fields, records, row, flush); err != nil {
		return errors.Mark(err, ErrStreamInterrupted)
	}
	return nil
}

// Slice adapts a slice to the sequence Stream consumes.
func Slice[T any](records []T) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		for _, r := range records {
			if !yield(r, nil) {
				return
			}
		}
	}
}

func writeTable[T any](dst io.Writer, fields []string, records iter.Seq2[T, error], row extractor[T], flush func()) error {
	enc := transform.NewWriter(dst, unicode.UTF8BOM.NewEncoder())
	cw := csv.NewWriter(enc)

	emit := func(rec []string) error {
		if err := cw.Write(rec); err != nil {
			return err
		}
		if flush != nil {
			cw.Flush()
			if err := cw.Error(); err != nil {
				return err
			}
			flush()
		}
		return nil
	}

	if err := emit(fields); err != nil {
		return errors.Wrap(err, "write csv header")
	}
	for rec, err := range records {
		if err != nil {
			return errors.Wrap(err, "read export records")
		}
		if err := emit(row(rec)); err != nil {
			return errors.Wrap(err, "write csv row")
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return errors.Wrap(err, "flush csv")
	}
	if err := enc.Close(); err != nil {
		return errors.Wrap(err, "flush csv encoder")
	}
	if flush != nil {
		flush()
	}
	return nil
}

func setHeaders(w http.ResponseWriter, filename, contentType, ext string) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename+ext))
}
