package querybuilder

import "fmt"

// Dialect names accepted by ParseDialect.
const (
	DialectSTWithin   = "st_within"
	DialectUsingIndex = "using_index"
)

// Dialect renders a spatial predicate call into a full query.
type Dialect interface {
	Name() string
	Within(table, call string) string
}

// STWithin renders `SELECT * FROM t WHERE ST_Within(geom, CIRCLE(...))`.
type STWithin struct{}

// Name returns the dialect name.
func (STWithin) Name() string { return DialectSTWithin }

// Within renders the query.
func (STWithin) Within(table, call string) string {
	return fmt.Sprintf("SELECT * FROM %s WHERE ST_Within(geom, %s)", table, call)
}

// UsingIndex renders `SELECT * FROM t WHERE CIRCLE(...) USING rtree`.
type UsingIndex struct{}

// Name returns the dialect name.
func (UsingIndex) Name() string { return DialectUsingIndex }

// Within renders the query.
func (UsingIndex) Within(table, call string) string {
	return fmt.Sprintf("SELECT * FROM %s WHERE %s USING rtree", table, call)
}

// ParseDialect resolves a configured dialect name. Empty selects STWithin.
func ParseDialect(name string) (Dialect, error) {
	switch name {
	case "", DialectSTWithin:
		return STWithin{}, nil
	case DialectUsingIndex:
		return UsingIndex{}, nil
	default:
		return nil, fmt.Errorf("unknown query dialect %q", name)
	}
}
