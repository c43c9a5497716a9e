// Package querybuilder assembles Postgres statements with numbered placeholders.
package querybuilder

import (
	"fmt"
	"strconv"
	"strings"
)

// args accumulates bound values and hands out the next $n placeholder.
type args struct {
	values []any
}

func (a *args) bind(v any) string {
	a.values = append(a.values, v)
	return "$" + strconv.Itoa(len(a.values))
}

// expand rewrites every '?' in expr to a numbered placeholder bound to the next value.
func (a *args) expand(expr string, values []any) string {
	if len(values) == 0 {
		return expr
	}
	var out strings.Builder
	next := 0
	for i := 0; i < len(expr); i++ {
		if expr[i] == '?' && next < len(values) {
			out.WriteString(a.bind(values[next]))
			next++
			continue
		}
		out.WriteByte(expr[i])
	}
	return out.String()
}

type Condition interface {
	render(a *args) string
}

type conditionFunc func(a *args) string

func (f conditionFunc) render(a *args) string { return f(a) }

func Eq(column string, value any) Condition {
	return conditionFunc(func(a *args) string {
		return column + " = " + a.bind(value)
	})
}

func NotEq(column string, value any) Condition {
	return conditionFunc(func(a *args) string {
		return column + " <> " + a.bind(value)
	})
}

func In(column string, values []any) Condition {
	return conditionFunc(func(a *args) string {
		if len(values) == 0 {
			return "1=0"
		}
		placeholders := make([]string, 0, len(values))
		for _, v := range values {
			placeholders = append(placeholders, a.bind(v))
		}
		return column + " IN (" + strings.Join(placeholders, ", ") + ")"
	})
}

func IsNull(column string) Condition {
	return conditionFunc(func(*args) string { return column + " IS NULL" })
}

func NotNull(column string) Condition {
	return conditionFunc(func(*args) string { return column + " IS NOT NULL" })
}

// Expr embeds raw SQL; each '?' is bound to the next value.
func Expr(expr string, values ...any) Condition {
	return conditionFunc(func(a *args) string { return a.expand(expr, values) })
}

func writeWhere(buf *strings.Builder, conditions []Condition, a *args) {
	for i, c := range conditions {
		if i == 0 {
			buf.WriteString(" WHERE ")
		} else {
			buf.WriteString(" AND ")
		}
		buf.WriteString(c.render(a))
	}
}

func writeSuffix(buf *strings.Builder, suffix string, a *args) {
	if suffix == "" {
		return
	}
	buf.WriteByte(' ')
	buf.WriteString(a.expand(suffix, nil))
}

type SelectBuilder struct {
	columns   []string
	table     string
	where     []Condition
	groupBy   []string
	orderBy   []string
	limit     int
	forUpdate bool
}

func Select(columns ...string) *SelectBuilder {
	return &SelectBuilder{columns: append([]string(nil), columns...)}
}

func (b *SelectBuilder) From(table string) *SelectBuilder {
	b.table = table
	return b
}

func (b *SelectBuilder) Where(conditions ...Condition) *SelectBuilder {
	b.where = append(b.where, conditions...)
	return b
}

func (b *SelectBuilder) GroupBy(parts ...string) *SelectBuilder {
	b.groupBy = append(b.groupBy, parts...)
	return b
}

func (b *SelectBuilder) OrderBy(parts ...string) *SelectBuilder {
	b.orderBy = append(b.orderBy, parts...)
	return b
}

func (b *SelectBuilder) Limit(limit int) *SelectBuilder {
	b.limit = limit
	return b
}

// ForUpdate appends a row lock; only meaningful inside a transaction.
func (b *SelectBuilder) ForUpdate() *SelectBuilder {
	b.forUpdate = true
	return b
}

func (b *SelectBuilder) ToSQL() (string, []any, error) {
	if len(b.columns) == 0 {
		return "", nil, fmt.Errorf("select columns are required")
	}
	if strings.TrimSpace(b.table) == "" {
		return "", nil, fmt.Errorf("select table is required")
	}

	var (
		buf strings.Builder
		a   args
	)
	buf.WriteString("SELECT ")
	buf.WriteString(strings.Join(b.columns, ", "))
	buf.WriteString(" FROM ")
	buf.WriteString(b.table)
	writeWhere(&buf, b.where, &a)
	if len(b.groupBy) > 0 {
		buf.WriteString(" GROUP BY ")
		buf.WriteString(strings.Join(b.groupBy, ", "))
	}
	if len(b.orderBy) > 0 {
		buf.WriteString(" ORDER BY ")
		buf.WriteString(strings.Join(b.orderBy, ", "))
	}
	if b.limit > 0 {
		buf.WriteString(" LIMIT ")
		buf.WriteString(strconv.Itoa(b.limit))
	}
	if b.forUpdate {
		buf.WriteString(" FOR UPDATE")
	}

	return buf.String(), a.values, nil
}

type InsertBuilder struct {
	table   string
	columns []string
	rows    [][]any
	suffix  string
}

func InsertInto(table string) *InsertBuilder {
	return &InsertBuilder{table: table}
}

func (b *InsertBuilder) Columns(columns ...string) *InsertBuilder {
	b.columns = append([]string(nil), columns...)
	return b
}

func (b *InsertBuilder) Values(values ...any) *InsertBuilder {
	b.rows = append(b.rows, append([]any(nil), values...))
	return b
}

// Suffix appends trailing SQL such as ON CONFLICT or RETURNING.
func (b *InsertBuilder) Suffix(sql string) *InsertBuilder {
	b.suffix = strings.TrimSpace(sql)
	return b
}

func (b *InsertBuilder) ToSQL() (string, []any, error) {
	switch {
	case strings.TrimSpace(b.table) == "":
		return "", nil, fmt.Errorf("insert table is required")
	case len(b.columns) == 0:
		return "", nil, fmt.Errorf("insert columns are required")
	case len(b.rows) == 0:
		return "", nil, fmt.Errorf("insert values are required")
	}

	var (
		buf strings.Builder
		a   args
	)
	buf.WriteString("INSERT INTO ")
	buf.WriteString(b.table)
	buf.WriteString(" (")
	buf.WriteString(strings.Join(b.columns, ", "))
	buf.WriteString(") VALUES ")

	for i, row := range b.rows {
		if len(row) != len(b.columns) {
			return "", nil, fmt.Errorf("insert row %d has %d values, expected %d", i, len(row), len(b.columns))
		}
		if i > 0 {
			buf.WriteString(", ")
		}
		placeholders := make([]string, 0, len(row))
		for _, v := range row {
			placeholders = append(placeholders, a.bind(v))
		}
		buf.WriteString("(" + strings.Join(placeholders, ", ") + ")")
	}
	writeSuffix(&buf, b.suffix, &a)

	return buf.String(), a.values, nil
}

type assignment struct {
	column string
	value  any
	expr   string
	isExpr bool
}

type UpdateBuilder struct {
	table  string
	sets   []assignment
	where  []Condition
	suffix string
}

func Update(table string) *UpdateBuilder {
	return &UpdateBuilder{table: table}
}

func (b *UpdateBuilder) Set(column string, value any) *UpdateBuilder {
	b.sets = append(b.sets, assignment{column: column, value: value})
	return b
}

// SetExpr assigns raw SQL, e.g. SetExpr("updated_at", "NOW()").
func (b *UpdateBuilder) SetExpr(column, expr string, values ...any) *UpdateBuilder {
	b.sets = append(b.sets, assignment{column: column, expr: expr, value: values, isExpr: true})
	return b
}

func (b *UpdateBuilder) Where(conditions ...Condition) *UpdateBuilder {
	b.where = append(b.where, conditions...)
	return b
}

func (b *UpdateBuilder) Suffix(sql string) *UpdateBuilder {
	b.suffix = strings.TrimSpace(sql)
	return b
}

func (b *UpdateBuilder) ToSQL() (string, []any, error) {
	if strings.TrimSpace(b.table) == "" {
		return "", nil, fmt.Errorf("update table is required")
	}
	if len(b.sets) == 0 {
		return "", nil, fmt.Errorf("update sets are required")
	}

	var (
		buf strings.Builder
		a   args
	)
	buf.WriteString("UPDATE ")
	buf.WriteString(b.table)
	buf.WriteString(" SET ")
	for i, s := range b.sets {
		if i > 0 {
			buf.WriteString(", ")
		}
		buf.WriteString(s.column)
		buf.WriteString(" = ")
		if s.isExpr {
			values, _ := s.value.([]any)
			buf.WriteString(a.expand(s.expr, values))
			continue
		}
		buf.WriteString(a.bind(s.value))
	}
	writeWhere(&buf, b.where, &a)
	writeSuffix(&buf, b.suffix, &a)

	return buf.String(), a.values, nil
}

type DeleteBuilder struct {
	table  string
	where  []Condition
	suffix string
}

func DeleteFrom(table string) *DeleteBuilder {
	return &DeleteBuilder{table: table}
}

func (b *DeleteBuilder) Where(conditions ...Condition) *DeleteBuilder {
	b.where = append(b.where, conditions...)
	return b
}

func (b *DeleteBuilder) Suffix(sql string) *DeleteBuilder {
	b.suffix = strings.TrimSpace(sql)
	return b
}

func (b *DeleteBuilder) ToSQL() (string, []any, error) {
	if strings.TrimSpace(b.table) == "" {
		return "", nil, fmt.Errorf("delete table is required")
	}
	if len(b.where) == 0 {
		return "", nil, fmt.Errorf("delete requires at least one condition")
	}

	var (
		buf strings.Builder
		a   args
	)
	buf.WriteString("DELETE FROM ")
	buf.WriteString(b.table)
	writeWhere(&buf, b.where, &a)
	writeSuffix(&buf, b.suffix, &a)

	return buf.String(), a.values, nil
}
