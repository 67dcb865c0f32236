package queryir

// Query is a history query. Select is the only implementation.
type Query interface {
	queryNode()
}

// Predicate is a row filter in a Select.
//
// Predicate types:
//   - Equals: field = literal value
//   - And: every predicate holds
type Predicate interface {
	predicateNode()
}

// Select reads rows from one history table.
//
//	Select{
//	  From:    "renders",
//	  Columns: []string{"id", "seq", "target"},
//	  Filter: And{Predicates: []Predicate{
//	    Equals{Field: "kind", Value: "surface"},
//	    Equals{Field: "frames", Value: int64(0)},
//	  }},
//	  Limit: 5,
//	}
//
// selects the five most recent still surface renders. Columns must be
// explicit. A Limit > 0 keeps the most recent Limit rows by seq; the
// result is still returned in ascending seq order.
type Select struct {
	From    string    // table name, a key of Tables
	Columns []string  // selected columns, in scan order
	Filter  Predicate // nil matches every row
	Limit   int
}

func (Select) queryNode() {}

// Equals holds when the column Field equals Value.
type Equals struct {
	Field string
	Value any // string, int64 or bool, matching the column kind
}

func (Equals) predicateNode() {}

// And holds when every predicate holds. An empty And matches every row.
type And struct {
	Predicates []Predicate
}

func (And) predicateNode() {}

// Where conjoins preds, dropping nils. It returns nil when nothing is
// left and the predicate itself when only one is.
func Where(preds ...Predicate) Predicate {
	kept := make([]Predicate, 0, len(preds))
	for _, p := range preds {
		if p != nil {
			kept = append(kept, p)
		}
	}
	switch len(kept) {
	case 0:
		return nil
	case 1:
		return kept[0]
	default:
		return And{Predicates: kept}
	}
}
