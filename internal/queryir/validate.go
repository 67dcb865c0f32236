package queryir

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Validate checks q against Tables and returns every problem found,
// joined. A nil error means q can be compiled.
func Validate(q Query) error {
	v := &validator{}
	v.validateQuery(q)
	return errors.Join(v.errs...)
}

type validator struct {
	errs []error
}

func (v *validator) addError(format string, args ...any) {
	v.errs = append(v.errs, fmt.Errorf(format, args...))
}

func (v *validator) validateQuery(q Query) {
	switch query := q.(type) {
	case Select:
		v.validateSelect(query)
	case *Select:
		if query == nil {
			v.addError("nil query")
			return
		}
		v.validateSelect(*query)
	case nil:
		v.addError("nil query")
	default:
		v.addError("unsupported query type %T", q)
	}
}

func (v *validator) validateSelect(sel Select) {
	columns, ok := Tables[sel.From]
	if !ok {
		v.addError("unknown table %q", sel.From)
		return
	}
	if len(sel.Columns) == 0 {
		v.addError("no columns selected from %s", sel.From)
	}
	for _, c := range sel.Columns {
		if _, ok := columns[c]; !ok {
			v.addError("unknown column %q in %s", c, sel.From)
		}
	}
	if sel.Limit < 0 {
		v.addError("negative limit %d", sel.Limit)
	}
	v.validatePredicate(sel.From, columns, sel.Filter)
}

func (v *validator) validatePredicate(table string, columns map[string]Kind, p Predicate) {
	switch pred := p.(type) {
	case nil:
	case Equals:
		v.validateEquals(table, columns, pred)
	case *Equals:
		v.validateEquals(table, columns, *pred)
	case And:
		for _, sub := range pred.Predicates {
			v.validatePredicate(table, columns, sub)
		}
	case *And:
		for _, sub := range pred.Predicates {
			v.validatePredicate(table, columns, sub)
		}
	default:
		v.addError("unsupported predicate type %T", p)
	}
}

func (v *validator) validateEquals(table string, columns map[string]Kind, eq Equals) {
	kind, ok := columns[eq.Field]
	if !ok {
		v.addError("unknown column %q in %s", eq.Field, table)
		return
	}
	if !kindMatches(kind, eq.Value) {
		v.addError("column %s is %s, got %T", eq.Field, kind, eq.Value)
	}
}

func kindMatches(kind Kind, value any) bool {
	switch value.(type) {
	case string:
		return kind == KindText
	case int64:
		return kind == KindInt
	case bool:
		return kind == KindBool
	default:
		return false
	}
}

// ParseCondition parses "field=value" into an Equals on table, converting
// value to the column kind.
func ParseCondition(table, cond string) (Equals, error) {
	field, raw, ok := strings.Cut(cond, "=")
	field = strings.TrimSpace(field)
	if !ok || field == "" {
		return Equals{}, fmt.Errorf("condition %q is not field=value", cond)
	}
	columns, ok := Tables[table]
	if !ok {
		return Equals{}, fmt.Errorf("unknown table %q", table)
	}
	kind, ok := columns[field]
	if !ok {
		return Equals{}, fmt.Errorf("unknown column %q in %s", field, table)
	}

	raw = strings.TrimSpace(raw)
	switch kind {
	case KindInt:
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return Equals{}, fmt.Errorf("column %s needs an integer, got %q", field, raw)
		}
		return Equals{Field: field, Value: n}, nil
	case KindBool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return Equals{}, fmt.Errorf("column %s needs true or false, got %q", field, raw)
		}
		return Equals{Field: field, Value: b}, nil
	default:
		return Equals{Field: field, Value: raw}, nil
	}
}
