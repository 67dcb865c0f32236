// Package querysql compiles history queries to parameterized SQLite SQL.
package querysql

import (
	"fmt"
	"strings"

	"github.com/roach88/geometrix/internal/queryir"
)

// orderAsc is the ordering of every compiled query: seq is the logical
// clock and id breaks ties byte-wise.
const (
	orderAsc  = "seq ASC, id COLLATE BINARY ASC"
	orderDesc = "seq DESC, id COLLATE BINARY DESC"
)

// Compile validates q and converts it to SQL with ? placeholders.
// Values are never interpolated into the SQL text.
func Compile(q queryir.Query) (string, []any, error) {
	if err := queryir.Validate(q); err != nil {
		return "", nil, fmt.Errorf("invalid query: %w", err)
	}

	switch query := q.(type) {
	case queryir.Select:
		return compileSelect(query)
	case *queryir.Select:
		return compileSelect(*query)
	default:
		return "", nil, fmt.Errorf("unsupported query type: %T", q)
	}
}

func compileSelect(q queryir.Select) (string, []any, error) {
	columns := strings.Join(q.Columns, ", ")

	var where string
	var params []any
	if q.Filter != nil {
		filterSQL, filterParams, err := compilePredicate(q.Filter)
		if err != nil {
			return "", nil, fmt.Errorf("compile filter: %w", err)
		}
		where = " WHERE " + filterSQL
		params = filterParams
	}

	if q.Limit <= 0 {
		sql := fmt.Sprintf("SELECT %s FROM %s%s ORDER BY %s", columns, q.From, where, orderAsc)
		return sql, params, nil
	}

	// Take the newest rows, then restore ascending order.
	inner := fmt.Sprintf("SELECT %s FROM %s%s ORDER BY %s LIMIT ?", columns, q.From, where, orderDesc)
	sql := fmt.Sprintf("SELECT * FROM (%s) ORDER BY %s", inner, orderAsc)
	return sql, append(params, q.Limit), nil
}

func compilePredicate(p queryir.Predicate) (string, []any, error) {
	switch pred := p.(type) {
	case queryir.Equals:
		return compileEquals(pred)
	case *queryir.Equals:
		return compileEquals(*pred)
	case queryir.And:
		return compileAnd(pred)
	case *queryir.And:
		return compileAnd(*pred)
	default:
		return "", nil, fmt.Errorf("unsupported predicate type: %T", p)
	}
}

func compileEquals(eq queryir.Equals) (string, []any, error) {
	return eq.Field + " = ?", []any{eq.Value}, nil
}

func compileAnd(and queryir.And) (string, []any, error) {
	if len(and.Predicates) == 0 {
		return "1 = 1", nil, nil
	}

	parts := make([]string, 0, len(and.Predicates))
	var params []any
	for _, pred := range and.Predicates {
		sql, predParams, err := compilePredicate(pred)
		if err != nil {
			return "", nil, err
		}
		if _, nested := pred.(queryir.And); nested {
			sql = "(" + sql + ")"
		}
		parts = append(parts, sql)
		params = append(params, predParams...)
	}
	return strings.Join(parts, " AND "), params, nil
}
