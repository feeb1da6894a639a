package querysql

import (
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/roach88/catalog/internal/canon"
	"github.com/roach88/catalog/internal/queryir"
)

// SQLCompiler compiles QueryIR to parameterized SQL for SQLite.
//
// CRITICAL: Every top-level query has an explicit ORDER BY.
// CRITICAL: All values are parameterized, never interpolated. The only
// text that reaches the query comes from identifiers and directions that
// queryir.Validate has already checked against closed sets.
type SQLCompiler struct{}

// NewSQLCompiler creates a new SQLCompiler.
func NewSQLCompiler() *SQLCompiler {
	return &SQLCompiler{}
}

// Compile converts a query to parameterized SQL.
// Returns (sql, params, error).
func (c *SQLCompiler) Compile(q queryir.Query) (string, []any, error) {
	if err := queryir.Validate(q).Err(); err != nil {
		return "", nil, err
	}

	var sel queryir.Select
	switch query := q.(type) {
	case queryir.Select:
		sel = query
	case *queryir.Select:
		sel = *query
	default:
		return "", nil, errors.Newf("unsupported query type: %T", q)
	}

	b := &builder{}
	if err := b.selectStmt(sel); err != nil {
		return "", nil, err
	}
	return b.sb.String(), b.params, nil
}

// builder accumulates query text and parameters in lockstep, so parameter
// order always matches placeholder order.
type builder struct {
	sb     strings.Builder
	params []any
}

func (b *builder) write(parts ...string) {
	for _, p := range parts {
		b.sb.WriteString(p)
	}
}

func (b *builder) bind(v canon.Value) error {
	param, err := valueToParam(v)
	if err != nil {
		return err
	}
	b.params = append(b.params, param)
	b.write("?")
	return nil
}

func (b *builder) selectStmt(q queryir.Select) error {
	b.write("SELECT ")
	if q.Distinct {
		b.write("DISTINCT ")
	}
	for i, col := range q.Columns {
		if i > 0 {
			b.write(", ")
		}
		b.column(col)
	}

	b.write(" FROM ")
	if err := b.source(q.From); err != nil {
		return errors.Wrap(err, "compile source")
	}

	if q.Where != nil {
		b.write(" WHERE ")
		if err := b.predicate(q.Where); err != nil {
			return errors.Wrap(err, "compile filter")
		}
	}

	if len(q.OrderBy) > 0 {
		b.write(" ORDER BY ")
		for i, o := range q.OrderBy {
			if i > 0 {
				b.write(", ")
			}
			b.orderTerm(o)
		}
	}

	if q.Limit > 0 {
		b.write(" LIMIT ")
		return b.bind(canon.Int(q.Limit))
	}
	return nil
}

// orderTerm renders one ORDER BY term. COLLATE BINARY keeps text ordering
// identical to the row-value comparison used by keyset predicates.
func (b *builder) orderTerm(o queryir.Order) {
	b.column(o.Column)
	b.write(" COLLATE BINARY ", string(o.Direction))
}

func (b *builder) column(c queryir.Column) {
	if c.Source != "" {
		b.write(c.Source, ".")
	}
	b.write(c.Name)
}

func (b *builder) source(s queryir.Source) error {
	switch src := s.(type) {
	case queryir.Table:
		b.write(src.Name)
		if src.As != "" && src.As != src.Name {
			b.write(" AS ", src.As)
		}
		return nil
	case queryir.Latest:
		b.latest(src)
		return nil
	case queryir.Join:
		if err := b.source(src.Left); err != nil {
			return err
		}
		b.write(" INNER JOIN ")
		if err := b.source(src.Right); err != nil {
			return err
		}
		b.write(" ON ")
		for i, p := range src.On {
			if i > 0 {
				b.write(" AND ")
			}
			b.column(p.Left)
			b.write(" = ")
			b.column(p.Right)
		}
		return nil
	default:
		return errors.Newf("unsupported source type: %T", s)
	}
}

// latest renders the version resolver as a derived table holding exactly
// one row per key, the one with the greatest version.
func (b *builder) latest(l queryir.Latest) {
	b.write(
		"(SELECT cur.* FROM ", l.Table, " AS cur",
		" INNER JOIN (SELECT ", l.Key, ", MAX(", l.Version, ") AS ", l.Version,
		" FROM ", l.Table, " GROUP BY ", l.Key, ") AS newest",
		" ON cur.", l.Key, " = newest.", l.Key,
		" AND cur.", l.Version, " = newest.", l.Version,
		") AS ", l.Alias(),
	)
}

func (b *builder) predicate(p queryir.Predicate) error {
	switch pred := p.(type) {
	case queryir.Equals:
		b.column(pred.Column)
		b.write(" = ")
		return b.bind(pred.Value)
	case *queryir.Equals:
		return b.predicate(*pred)
	case queryir.In:
		b.column(pred.Column)
		b.write(" IN (")
		for i, v := range pred.Values {
			if i > 0 {
				b.write(", ")
			}
			if err := b.bind(v); err != nil {
				return err
			}
		}
		b.write(")")
		return nil
	case *queryir.In:
		return b.predicate(*pred)
	case queryir.InQuery:
		b.column(pred.Column)
		b.write(" IN (")
		if err := b.selectStmt(pred.Query); err != nil {
			return errors.Wrap(err, "compile subquery")
		}
		b.write(")")
		return nil
	case *queryir.InQuery:
		return b.predicate(*pred)
	case queryir.And:
		if len(pred.Predicates) == 0 {
			b.write("1 = 1") // vacuous truth
			return nil
		}
		for i, sub := range pred.Predicates {
			if i > 0 {
				b.write(" AND ")
			}
			if err := b.predicate(sub); err != nil {
				return err
			}
		}
		return nil
	case *queryir.And:
		return b.predicate(*pred)
	case queryir.After:
		return b.after(pred)
	case *queryir.After:
		return b.after(*pred)
	default:
		return errors.Newf("unsupported predicate type: %T", p)
	}
}

// after renders a strict row-value comparison. A single key collapses to a
// plain comparison.
func (b *builder) after(a queryir.After) error {
	op := " > "
	if a.Direction == queryir.Desc {
		op = " < "
	}

	if len(a.Keys) == 1 {
		b.column(a.Keys[0])
		b.write(op)
		return b.bind(a.Values[0])
	}

	b.write("(")
	for i, k := range a.Keys {
		if i > 0 {
			b.write(", ")
		}
		b.column(k)
	}
	b.write(")", op, "(")
	for i, v := range a.Values {
		if i > 0 {
			b.write(", ")
		}
		if err := b.bind(v); err != nil {
			return err
		}
	}
	b.write(")")
	return nil
}

// valueToParam converts a canon.Value to a driver parameter. Only scalars
// can be bound.
func valueToParam(v canon.Value) (any, error) {
	switch val := v.(type) {
	case canon.String:
		return string(val), nil
	case canon.Int:
		return int64(val), nil
	case canon.Bool:
		return bool(val), nil
	case canon.Array:
		return nil, errors.New("canon.Array cannot be used as SQL parameter")
	case canon.Object:
		return nil, errors.New("canon.Object cannot be used as SQL parameter")
	default:
		return nil, errors.Newf("unsupported value type for SQL parameter: %T", v)
	}
}
