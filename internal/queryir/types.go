package queryir

import "github.com/roach88/catalog/internal/canon"

// Query represents an abstract read query.
//
// This is a sealed interface - only types in this package implement it.
// The marker method pattern prevents external implementations and enables
// exhaustive type switches in backend compilers.
type Query interface {
	queryNode() // Marker method - seals interface to this package
}

// Source represents a row source in a FROM clause.
//
// Source types:
//   - Table: a plain table
//   - Latest: the newest version row per logical key of a versioned table
//   - Join: an inner equi-join of two sources
type Source interface {
	sourceNode()
}

// Predicate represents a filter condition.
//
// Predicate types:
//   - Equals: column = literal
//   - In: column IN (literal, ...)
//   - InQuery: column IN (subquery)
//   - And: all predicates must be true
//   - After: keyset position, (k1, k2) > (v1, v2)
type Predicate interface {
	predicateNode()
}

// Column is a column reference, optionally qualified by the alias of the
// source it comes from.
type Column struct {
	Source string // Source alias ("" = unqualified)
	Name   string
}

// Col builds a qualified column reference.
func Col(source, name string) Column {
	return Column{Source: source, Name: name}
}

// Cols builds qualified column references that share a source.
func Cols(source string, names ...string) []Column {
	cols := make([]Column, len(names))
	for i, n := range names {
		cols[i] = Column{Source: source, Name: n}
	}
	return cols
}

// Direction is a sort direction. Only Asc and Desc are valid; anything else
// is rejected by Validate before it can reach query text.
type Direction string

const (
	Asc  Direction = "ASC"
	Desc Direction = "DESC"
)

// Order is one ORDER BY term.
type Order struct {
	Column    Column
	Direction Direction
}

// Select represents a projection over a row source.
//
// Semantics:
//
//	SELECT [DISTINCT] <columns> FROM <from> WHERE <where> ORDER BY <order> LIMIT <limit>
//
// Rules:
//   - Columns must be explicit (no SELECT *)
//   - A top-level Select must carry at least one ORDER BY term; the
//     compiler refuses to emit a query with nondeterministic row order
//   - Limit 0 means unbounded; the limit is always a bound parameter
//
// Example:
//
//	Select{
//	  Columns: Cols("links", "id", "artifact", "name", "url", "pos"),
//	  From:    Table{Name: "links"},
//	  Where:   Equals{Column: Col("links", "artifact"), Value: canon.Int(7)},
//	  OrderBy: []Order{{Col("links", "pos"), Asc}, {Col("links", "id"), Asc}},
//	}
//
// Translates to SQL:
//
//	SELECT links.id, links.artifact, links.name, links.url, links.pos
//	FROM links WHERE links.artifact = ?
//	ORDER BY links.pos ASC, links.id ASC
type Select struct {
	Distinct bool
	Columns  []Column
	From     Source
	Where    Predicate // nil = no filter
	OrderBy  []Order
	Limit    int
}

func (Select) queryNode() {}

// Table is a plain table source.
type Table struct {
	Name string
	As   string // Alias ("" = Name)
}

func (Table) sourceNode() {}

// Alias returns the name columns of this source are qualified with.
func (t Table) Alias() string {
	if t.As != "" {
		return t.As
	}
	return t.Name
}

// Latest resolves an append-only version log to exactly one row per
// logical key: the row with the maximum Version.
//
// Semantics:
//
//	(SELECT t.* FROM <table> t
//	 JOIN (SELECT <key>, MAX(<version>) AS <version> FROM <table> GROUP BY <key>) m
//	 ON t.<key> = m.<key> AND t.<version> = m.<version>) AS <as>
//
// Requires UNIQUE(<key>, <version>) on the table so the join yields one row
// per key.
type Latest struct {
	Table   string
	Key     string
	Version string
	As      string // Alias ("" = Table)
}

func (Latest) sourceNode() {}

// Alias returns the name columns of this source are qualified with.
func (l Latest) Alias() string {
	if l.As != "" {
		return l.As
	}
	return l.Table
}

// Join is an inner equi-join. Outer joins are not supported.
type Join struct {
	Left  Source
	Right Source
	On    []ColumnPair // Required, ANDed together
}

func (Join) sourceNode() {}

// ColumnPair is one equality term of a join condition.
type ColumnPair struct {
	Left  Column
	Right Column
}

// Equals represents a column-equals-literal predicate.
type Equals struct {
	Column Column
	Value  canon.Value
}

func (Equals) predicateNode() {}

// In represents membership in a literal list. Values must be non-empty.
type In struct {
	Column Column
	Values []canon.Value
}

func (In) predicateNode() {}

// InQuery represents membership in the single-column result of a subquery.
// The subquery may omit ORDER BY.
type InQuery struct {
	Column Column
	Query  Select
}

func (InQuery) predicateNode() {}

// And represents a conjunction of predicates (empty = always true).
type And struct {
	Predicates []Predicate
}

func (And) predicateNode() {}

// After restricts rows to those strictly past a keyset position in the
// given direction, compared as a row value:
//
//	(<k1>, <k2>) > (?, ?)   for Asc
//	(<k1>, <k2>) < (?, ?)   for Desc
//
// Keys and Values must have the same, non-zero length. Paired with an
// ORDER BY over the same keys in the same direction this yields a
// position that is stable under concurrent inserts.
type After struct {
	Keys      []Column
	Values    []canon.Value
	Direction Direction
}

func (After) predicateNode() {}
