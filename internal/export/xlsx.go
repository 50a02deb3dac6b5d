package export

import (
	"net/http"

	"github.com/cockroachdb/errors"
	"github.com/xuri/excelize/v2"
)

const (
	XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	sheet           = "Sheet1"
)

// XLSX writes the same table Buffered would, as a single-sheet workbook.
func XLSX[T any](w http.ResponseWriter, filename string, fields []string, records []T) error {
	row, err := columns[T](fields)
	if err != nil {
		return err
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	put := func(n int, vals []string) error {
		cell, err := excelize.CoordinatesToCellName(1, n)
		if err != nil {
			return err
		}
		cells := make([]any, len(vals))
		for i, v := range vals {
			cells[i] = v
		}
		return f.SetSheetRow(sheet, cell, &cells)
	}

	if err := put(1, fields); err != nil {
		return errors.Wrap(err, "write xlsx header")
	}
	for i, rec := range records {
		if err := put(i+2, row(rec)); err != nil {
			return errors.Wrapf(err, "write xlsx row %d", i+1)
		}
	}

	setHeaders(w, filename, XLSXContentType, ".xlsx")
	w.WriteHeader(http.StatusOK)
	return f.Write(w)
}
