package repository

const NameField QueryField = "name"

// Query narrows a List call. Values are matched per field: NameField is a
// case-insensitive substring match, other fields are compared for equality.
type Query struct {
	Values map[QueryField]string
}

type QueryField string

func NewQuery() *Query {
	return &Query{
		Values: map[QueryField]string{},
	}
}

func (q *Query) With(field QueryField, val string) *Query {
	q.Values[field] = val
	return q
}

// Get returns the value set for field and whether it was set at all.
func (q Query) Get(field QueryField) (string, bool) {
	val, ok := q.Values[field]
	return val, ok
}
