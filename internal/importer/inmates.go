package importer

import (
	"context"
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/LeventeLantos/relief-admin/internal/model"
	"github.com/LeventeLantos/relief-admin/internal/repo"
)

// Task asks the importer to process one uploaded inmate list.
type Task struct {
	UploadID int64 `json:"uploadId"`
}

type Importer struct {
	uploads repo.UploadRepository
	open    func(path string) (io.ReadCloser, error)
	log     *zap.Logger
}

func New(uploads repo.UploadRepository, log *zap.Logger) *Importer {
	return &Importer{
		uploads: uploads,
		open:    func(path string) (io.ReadCloser, error) { return os.Open(path) },
		log:     log.Named("importer"),
	}
}

// ImportInmates loads the upload's CSV into its camp. A file that cannot be
// read or parsed marks the upload completed with the reason. Storage errors
// are returned and leave the upload open so a redelivered task retries it.
func (im *Importer) ImportInmates(ctx context.Context, t Task) error {
	u, err := im.uploads.GetUpload(ctx, t.UploadID)
	if err != nil {
		return err
	}
	log := im.log.With(zap.Int64("upload_id", u.ID), zap.Int64("camp_id", u.CampID))
	if u.IsCompleted {
		log.Info("upload already imported")
		return nil
	}

	persons, err := im.parse(u.FilePath)
	if err == nil {
		if err := im.uploads.InsertPersons(ctx, u.CampID, persons); err != nil {
			log.Error("failed to insert inmates", zap.Error(err))
			return errors.Wrapf(err, "import upload %d", u.ID)
		}
	}

	var failure *string
	if err != nil {
		reason := err.Error()
		failure = &reason
		log.Warn("inmate import failed", zap.Error(err))
	} else {
		log.Info("inmates imported", zap.Int("count", len(persons)))
	}

	return im.uploads.CompleteUpload(context.WithoutCancel(ctx), u.ID, failure)
}

func (im *Importer) parse(path string) ([]model.Person, error) {
	f, err := im.open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open upload")
	}
	defer f.Close()

	return ParseInmates(f)
}

// ParseInmates reads a header row followed by one inmate per row.
func ParseInmates(r io.Reader) ([]model.Person, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, errors.Wrap(err, "read header")
	}
	col := map[string]int{}
	for i, h := range header {
		col[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	if _, ok := col["name"]; !ok {
		return nil, errors.New("header must contain a name column")
	}

	get := func(rec []string, name string) *string {
		i, ok := col[name]
		if !ok || i >= len(rec) {
			return nil
		}
		v := strings.TrimSpace(rec[i])
		if v == "" {
			return nil
		}
		return &v
	}

	var out []model.Person
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, errors.Wrapf(err, "row %d", line)
		}

		name := get(rec, "name")
		if name == nil {
			return nil, errors.Newf("row %d: name is empty", line)
		}
		p := model.Person{
			Name:     *name,
			Phone:    get(rec, "phone"),
			Gender:   get(rec, "gender"),
			Address:  get(rec, "address"),
			District: get(rec, "district"),
			Notes:    get(rec, "notes"),
		}
		if age := get(rec, "age"); age != nil {
			n, err := strconv.ParseInt(*age, 10, 64)
			if err != nil || n < 0 {
				return nil, errors.Newf("row %d: age %q is not a number", line, *age)
			}
			p.Age = &n
		}
		out = append(out, p)
	}
	return out, nil
}
