package repo

import (
	"fmt"
	"reflect"
	"strings"
)

// dbFields lists the db-tagged fields of T in declaration order.
func dbFields[T any]() (names []string, index []int) {
	typ := reflect.TypeFor[T]()
	for i := 0; i < typ.NumField(); i++ {
		if tag := typ.Field(i).Tag.Get("db"); tag != "" && tag != "-" {
			names = append(names, tag)
			index = append(index, i)
		}
	}
	return names, index
}

// selectList qualifies every column with alias unless exprs supplies the
// expression producing it.
func selectList(alias string, cols []string, exprs map[string]string) string {
	parts := make([]string, len(cols))
	for i, c := range cols {
		if e, ok := exprs[c]; ok {
			parts[i] = e + " AS " + c
			continue
		}
		parts[i] = alias + "." + c
	}
	return strings.Join(parts, ", ")
}

type scanner interface {
	Scan(dest ...any) error
}

func scanInto[T any](s scanner, index []int) (T, error) {
	var out T
	v := reflect.ValueOf(&out).Elem()
	dest := make([]any, len(index))
	for i, j := range index {
		dest[i] = v.Field(j).Addr().Interface()
	}
	err := s.Scan(dest...)
	return out, err
}

// inList renders "$start, $start+1, ..." for ids and returns them as args.
func inList(ids []int64, start int) (string, []any) {
	ph := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		ph[i] = fmt.Sprintf("$%d", start+i)
		args[i] = id
	}
	return strings.Join(ph, ", "), args
}
