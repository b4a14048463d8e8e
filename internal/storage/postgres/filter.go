package postgres

import (
	"strings"

	"littlebird/internal/domain"
)

const (
	defaultLimit = 50
	maxLimit     = 200
)

// where accumulates filter clauses written with ? placeholders; the final
// query is passed through Rebind.
type where struct {
	clauses []string
	args    []any
}

func (w *where) add(clause string, args ...any) {
	w.clauses = append(w.clauses, clause)
	w.args = append(w.args, args...)
}

func (w *where) String() string {
	if len(w.clauses) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.clauses, " AND ")
}

// orderBy resolves f.OrderBy against an allow-list of sortable columns.
// Unknown columns fall back to fallback.
func orderBy(f domain.ListFilter, allowed map[string]string, fallback string) string {
	col, ok := allowed[f.OrderBy]
	if !ok {
		col = fallback
	}
	dir := "ASC"
	if f.Descending {
		dir = "DESC"
	}
	return " ORDER BY " + col + " " + dir + " NULLS LAST, id " + dir
}

func limitOffset(f domain.ListFilter) (int, int) {
	limit := f.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	offset := f.Offset
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

func likePattern(q string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(q) + "%"
}

// prefixed qualifies a comma-separated column list with a table alias.
func prefixed(alias, columns string) string {
	cols := strings.Split(columns, ",")
	for i, c := range cols {
		cols[i] = alias + "." + strings.TrimSpace(c)
	}
	return strings.Join(cols, ", ")
}
