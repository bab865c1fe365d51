package query

import (
	"fmt"
	"strconv"
	"strings"
)

// Dialect captures the SQL differences between the supported stores.
type Dialect interface {
	Placeholder(n int) string
	// Contains is a case-sensitive substring test of column against arg.
	Contains(column, arg string) string
	// Binary forces a byte-wise comparison of column.
	Binary(column string) string
	Bool(v bool) interface{}
}

type postgresDialect struct{}

func (postgresDialect) Placeholder(n int) string { return "$" + strconv.Itoa(n) }
func (postgresDialect) Contains(column, arg string) string { return fmt.Sprintf("strpos(%s, %s) > 0", column, arg) }
func (postgresDialect) Binary(column string) string { return column + ` COLLATE "C"` }
func (postgresDialect) Bool(v bool) interface{} { return v }

type sqliteDialect struct{}

func (sqliteDialect) Placeholder(int) string { return "?" }
func (sqliteDialect) Contains(column, arg string) string { return fmt.Sprintf("instr(%s, %s) > 0", column, arg) }
func (sqliteDialect) Binary(column string) string { return column }
func (sqliteDialect) Bool(v bool) interface{} {
	if v {
		return 1
	}
	return 0
}

var (
	Postgres Dialect = postgresDialect{}
	SQLite   Dialect = sqliteDialect{}
)

// Binder accumulates positional arguments for one statement.
type Binder struct {
	dialect Dialect
	args    []interface{}
}

func NewBinder(d Dialect) *Binder {
	return &Binder{dialect: d}
}

// Bind records v and returns the placeholder that refers to it.
func (b *Binder) Bind(v interface{}) string {
	b.args = append(b.args, v)
	return b.dialect.Placeholder(len(b.args))
}

func (b *Binder) Dialect() Dialect { return b.dialect }
func (b *Binder) Args() []interface{} { return b.args }

// SelectSQL builds the paged read: columns from table matching p, ordered by s.
func SelectSQL(d Dialect, table, columns string, p Predicate, s Sort, limit, offset int) (string, []interface{}) {
	b := NewBinder(d)
	var sb strings.Builder
	fmt.Fprintf(&sb, "SELECT %s FROM %s", columns, table)
	if where := p.Where(b); where != "" {
		sb.WriteString(" WHERE ")
		sb.WriteString(where)
	}
	sb.WriteString(" ORDER BY ")
	sb.WriteString(s.OrderBy(d))
	fmt.Fprintf(&sb, " LIMIT %s OFFSET %s", b.Bind(limit), b.Bind(offset))
	return sb.String(), b.Args()
}

// CountSQL builds the row count of table matching p.
func CountSQL(d Dialect, table string, p Predicate) (string, []interface{}) {
	b := NewBinder(d)
	stmt := "SELECT COUNT(*) FROM " + table
	if where := p.Where(b); where != "" {
		stmt += " WHERE " + where
	}
	return stmt, b.Args()
}

// WhereSQL renders p as a WHERE clause (with leading space) for ad-hoc statements.
func WhereSQL(d Dialect, p Predicate) (string, []interface{}) {
	b := NewBinder(d)
	where := p.Where(b)
	if where == "" {
		return "", nil
	}
	return " WHERE " + where, b.Args()
}
