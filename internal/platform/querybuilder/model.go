package querybuilder

import (
	"fmt"
	"reflect"
	"strings"
)

// InsertModel builds an INSERT from the `db` tags of a struct (or pointer to one).
func InsertModel(table string, model any, suffix string) (string, []any, error) {
	cols, vals, err := modelColumns(model)
	if err != nil {
		return "", nil, err
	}
	return InsertInto(table).Columns(cols...).Values(vals...).Suffix(suffix).ToSQL()
}

// InsertModels builds a multi-row INSERT; every model must share the same type.
func InsertModels[T any](table string, models []T, suffix string) (string, []any, error) {
	if len(models) == 0 {
		return "", nil, fmt.Errorf("insert models are required")
	}
	builder := InsertInto(table).Suffix(suffix)
	for i, m := range models {
		cols, vals, err := modelColumns(m)
		if err != nil {
			return "", nil, fmt.Errorf("model %d: %w", i, err)
		}
		if i == 0 {
			builder.Columns(cols...)
		}
		builder.Values(vals...)
	}
	return builder.ToSQL()
}

func modelColumns(model any) ([]string, []any, error) {
	value := reflect.ValueOf(model)
	for value.Kind() == reflect.Pointer {
		if value.IsNil() {
			return nil, nil, fmt.Errorf("model cannot be nil")
		}
		value = value.Elem()
	}
	if value.Kind() != reflect.Struct {
		return nil, nil, fmt.Errorf("model must be struct, got %s", value.Kind())
	}

	typ := value.Type()
	cols := make([]string, 0, typ.NumField())
	vals := make([]any, 0, typ.NumField())
	for i := range typ.NumField() {
		field := typ.Field(i)
		if !field.IsExported() {
			continue
		}
		col, _, _ := strings.Cut(field.Tag.Get("db"), ",")
		col = strings.TrimSpace(col)
		if col == "" || col == "-" {
			continue
		}
		cols = append(cols, col)
		vals = append(vals, value.Field(i).Interface())
	}

	if len(cols) == 0 {
		return nil, nil, fmt.Errorf("model has no db columns")
	}
	return cols, vals, nil
}
