package store

import (
	"database/sql"
	"errors"
	"fmt"
	"reflect"
	"slices"
	"strings"

	"github.com/richard-senior/matchboard/internal/logger"
)

// ErrNotFound is returned by FindByPrimaryKey when no row matches
var ErrNotFound = errors.New("record not found")

// Persistable is implemented by every record stored through the reflective
// helpers below. Columns come from struct tags:
//
//	column:"name"    column name (default: lower cased field name)
//	dbtype:"TEXT"    column type; fields without one are not persisted
//	primary:"true"   part of the primary key
//	index:"true"     gets its own index
type Persistable interface {
	TableName() string
	PrimaryKey() map[string]any
}

// execer is satisfied by both *sql.DB and *sql.Tx so every helper can run
// inside or outside a transaction
type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
}

type column struct {
	name    string
	dbtype  string
	primary bool
	index   bool
	field   int
}

func columnsOf(obj any) []column {
	t := reflect.TypeOf(obj)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	var cols []column
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() || f.Tag.Get("dbtype") == "" {
			continue
		}
		name := f.Tag.Get("column")
		if name == "" {
			name = strings.ToLower(f.Name)
		}
		cols = append(cols, column{
			name:    name,
			dbtype:  f.Tag.Get("dbtype"),
			primary: f.Tag.Get("primary") == "true",
			index:   f.Tag.Get("index") == "true",
			field:   i,
		})
	}
	return cols
}

func createTable(db execer, obj Persistable) error {
	table := obj.TableName()
	var defs, keys []string
	for _, c := range columnsOf(obj) {
		defs = append(defs, c.name+" "+c.dbtype)
		if c.primary {
			keys = append(keys, c.name)
		}
	}
	if len(keys) > 0 {
		defs = append(defs, fmt.Sprintf("PRIMARY KEY (%s)", strings.Join(keys, ", ")))
	}
	query := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", table, strings.Join(defs, ", "))
	logger.Debug("Creating table with SQL", query)
	if _, err := db.Exec(query); err != nil {
		return fmt.Errorf("failed to create table %s: %w", table, err)
	}

	for _, c := range columnsOf(obj) {
		if !c.index {
			continue
		}
		query := fmt.Sprintf("CREATE INDEX IF NOT EXISTS idx_%s_%s ON %s(%s)", table, c.name, table, c.name)
		if _, err := db.Exec(query); err != nil {
			logger.Warn("Failed to create index", err)
		}
	}
	return nil
}

// save upserts obj. sqlite resolves the conflict on the primary key.
func save(db execer, obj Persistable) error {
	v := reflect.Indirect(reflect.ValueOf(obj))
	var names, marks []string
	var values []any
	for _, c := range columnsOf(obj) {
		names = append(names, c.name)
		marks = append(marks, "?")
		values = append(values, v.Field(c.field).Interface())
	}
	query := fmt.Sprintf("INSERT OR REPLACE INTO %s (%s) VALUES (%s)",
		obj.TableName(), strings.Join(names, ", "), strings.Join(marks, ", "))
	if _, err := db.Exec(query, values...); err != nil {
		return fmt.Errorf("failed to save into %s: %w", obj.TableName(), err)
	}
	return nil
}

func exists(db execer, obj Persistable) (bool, error) {
	where, values := whereClause(obj.PrimaryKey())
	var count int
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE %s", obj.TableName(), where)
	if err := db.QueryRow(query, values...).Scan(&count); err != nil {
		return false, fmt.Errorf("failed to check existence in %s: %w", obj.TableName(), err)
	}
	return count > 0, nil
}

// findByPrimaryKey fills obj from the row matching its current key
func findByPrimaryKey(db execer, obj Persistable) error {
	names, dest := scanTargets(obj)
	where, values := whereClause(obj.PrimaryKey())
	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s", strings.Join(names, ", "), obj.TableName(), where)
	if err := db.QueryRow(query, values...).Scan(dest...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%s: %w", obj.TableName(), ErrNotFound)
		}
		return fmt.Errorf("failed to scan row from %s: %w", obj.TableName(), err)
	}
	return nil
}

// findWhere returns every row of T matching the clause. An empty clause
// selects everything.
func findWhere[T any, P interface {
	*T
	Persistable
}](db execer, clause string, args ...any) ([]*T, error) {
	var zero P = new(T)
	names, _ := scanTargets(zero)
	query := fmt.Sprintf("SELECT %s FROM %s", strings.Join(names, ", "), zero.TableName())
	if clause != "" {
		query += " WHERE " + clause
	}
	logger.Debug("FindWhere SQL", query)

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", zero.TableName(), err)
	}
	defer rows.Close()

	var out []*T
	for rows.Next() {
		obj := new(T)
		_, dest := scanTargets(obj)
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("failed to scan row from %s: %w", zero.TableName(), err)
		}
		out = append(out, obj)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows from %s: %w", zero.TableName(), err)
	}
	return out, nil
}

func scanTargets(obj any) ([]string, []any) {
	v := reflect.Indirect(reflect.ValueOf(obj))
	var names []string
	var dest []any
	for _, c := range columnsOf(obj) {
		names = append(names, c.name)
		dest = append(dest, v.Field(c.field).Addr().Interface())
	}
	return names, dest
}

// whereClause renders the key map in a stable column order
func whereClause(key map[string]any) (string, []any) {
	cols := make([]string, 0, len(key))
	for c := range key {
		cols = append(cols, c)
	}
	slices.Sort(cols)
	var conds []string
	var values []any
	for _, c := range cols {
		conds = append(conds, c+" = ?")
		values = append(values, key[c])
	}
	return strings.Join(conds, " AND "), values
}
