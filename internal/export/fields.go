package export

import (
	"fmt"
	"reflect"
	"strconv"
	"time"

	"github.com/cockroachdb/errors"
)

var ErrUnknownField = errors.New("unknown export field")

// Fielder lets a record override how a named field is rendered.
type Fielder interface {
	CSVField(name string) (string, bool)
}

type extractor[T any] func(T) []string

// Fields lists every exportable field of T in declaration order.
func Fields[T any]() []string {
	typ := reflect.TypeFor[T]()
	for typ.Kind() == reflect.Pointer {
		typ = typ.Elem()
	}
	var out []string
	for i := 0; i < typ.NumField(); i++ {
		if tag := typ.Field(i).Tag.Get("csv"); tag != "" && tag != "-" {
			out = append(out, tag)
		}
	}
	return out
}

// columns resolves field names against the csv tags of T once, so a bad name
// fails before anything is written.
func columns[T any](fields []string) (extractor[T], error) {
	typ := reflect.TypeFor[T]()
	for typ.Kind() == reflect.Pointer {
		typ = typ.Elem()
	}
	if typ.Kind() != reflect.Struct {
		return nil, errors.Newf("export: %s is not a struct", typ)
	}

	byTag := make(map[string]int, typ.NumField())
	for i := 0; i < typ.NumField(); i++ {
		if tag := typ.Field(i).Tag.Get("csv"); tag != "" && tag != "-" {
			byTag[tag] = i
		}
	}

	idx := make([]int, len(fields))
	for i, name := range fields {
		j, ok := byTag[name]
		if !ok {
			return nil, errors.Wrapf(ErrUnknownField, "%q on %s", name, typ.Name())
		}
		idx[i] = j
	}

	return func(rec T) []string {
		out := make([]string, len(fields))
		custom, _ := any(rec).(Fielder)
		v := reflect.ValueOf(rec)
		for v.Kind() == reflect.Pointer {
			v = v.Elem()
		}
		for i, name := range fields {
			if custom != nil {
				if s, ok := custom.CSVField(name); ok {
					out[i] = s
					continue
				}
			}
			out[i] = format(v.Field(idx[i]))
		}
		return out
	}, nil
}

func format(v reflect.Value) string {
	for v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return ""
		}
		v = v.Elem()
	}

	if t, ok := v.Interface().(time.Time); ok {
		if t.IsZero() {
			return ""
		}
		return t.UTC().Format(time.RFC3339)
	}

	switch v.Kind() {
	case reflect.String:
		return v.String()
	case reflect.Bool:
		return strconv.FormatBool(v.Bool())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(v.Int(), 10)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(v.Uint(), 10)
	case reflect.Float32, reflect.Float64:
		return strconv.FormatFloat(v.Float(), 'f', -1, 64)
	default:
		return fmt.Sprint(v.Interface())
	}
}
