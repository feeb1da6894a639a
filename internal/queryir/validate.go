package queryir

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/cockroachdb/errors"
)

// ErrInvalidQuery marks every error returned by ValidationResult.Err.
var ErrInvalidQuery = errors.New("invalid query")

// identifierPattern is the closed grammar for table, alias and column names.
// Only strings matching it are ever written into query text.
var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ValidationResult contains the problems found in a query.
type ValidationResult struct {
	// Valid is true when Problems is empty.
	Valid bool

	// Problems lists every rule violation, in traversal order.
	Problems []string
}

// Err folds the problems into a single error, or nil when valid.
func (r ValidationResult) Err() error {
	if r.Valid {
		return nil
	}
	return errors.Mark(
		errors.Newf("invalid query: %s", strings.Join(r.Problems, "; ")),
		ErrInvalidQuery,
	)
}

// Validate checks a query against the rules the SQL backend relies on:
//  1. Identifiers match a closed grammar
//  2. Directions are Asc or Desc
//  3. Columns are explicit and ORDER BY is present at the top level
//  4. In lists are non-empty; After keys and values pair up
//  5. Limits are non-negative
//
// Validate is a pure function with no side effects.
func Validate(query Query) ValidationResult {
	v := &validator{problems: []string{}}
	v.validateQuery(query)

	return ValidationResult{
		Valid:    len(v.problems) == 0,
		Problems: v.problems,
	}
}

// validator accumulates problems during traversal.
type validator struct {
	problems []string
}

func (v *validator) addProblem(format string, args ...any) {
	v.problems = append(v.problems, fmt.Sprintf(format, args...))
}

func (v *validator) validateQuery(q Query) {
	switch query := q.(type) {
	case Select:
		v.validateSelect(query, true)
	case *Select:
		if query == nil {
			v.addProblem("nil query")
			return
		}
		v.validateSelect(*query, true)
	case nil:
		v.addProblem("nil query")
	default:
		v.addProblem("unknown query type %T", q)
	}
}

func (v *validator) validateSelect(sel Select, topLevel bool) {
	if len(sel.Columns) == 0 {
		v.addProblem("select has no columns")
	}
	for _, c := range sel.Columns {
		v.validateColumn(c)
	}

	v.validateSource(sel.From)

	if sel.Where != nil {
		v.validatePredicate(sel.Where)
	}

	if topLevel && len(sel.OrderBy) == 0 {
		v.addProblem("select has no ORDER BY")
	}
	for _, o := range sel.OrderBy {
		v.validateColumn(o.Column)
		v.validateDirection(o.Direction)
	}

	if sel.Limit < 0 {
		v.addProblem("negative limit %d", sel.Limit)
	}
}

func (v *validator) validateSource(s Source) {
	switch src := s.(type) {
	case Table:
		v.validateIdentifier(src.Name)
		v.validateOptionalIdentifier(src.As)
	case Latest:
		v.validateIdentifier(src.Table)
		v.validateIdentifier(src.Key)
		v.validateIdentifier(src.Version)
		v.validateOptionalIdentifier(src.As)
	case Join:
		v.validateSource(src.Left)
		v.validateSource(src.Right)
		if len(src.On) == 0 {
			v.addProblem("join without ON condition")
		}
		for _, p := range src.On {
			v.validateColumn(p.Left)
			v.validateColumn(p.Right)
		}
	case nil:
		v.addProblem("select has no source")
	default:
		v.addProblem("unknown source type %T", s)
	}
}

func (v *validator) validatePredicate(p Predicate) {
	switch pred := p.(type) {
	case Equals:
		v.validateColumn(pred.Column)
		if pred.Value == nil {
			v.addProblem("column %q compared to nil", pred.Column.Name)
		}
	case *Equals:
		v.validatePredicate(*pred)
	case In:
		v.validateColumn(pred.Column)
		if len(pred.Values) == 0 {
			v.addProblem("empty IN list for column %q", pred.Column.Name)
		}
	case *In:
		v.validatePredicate(*pred)
	case InQuery:
		v.validateColumn(pred.Column)
		if len(pred.Query.Columns) != 1 {
			v.addProblem("IN subquery must select exactly one column, got %d", len(pred.Query.Columns))
		}
		v.validateSelect(pred.Query, false)
	case *InQuery:
		v.validatePredicate(*pred)
	case And:
		for _, sub := range pred.Predicates {
			v.validatePredicate(sub)
		}
	case *And:
		v.validatePredicate(*pred)
	case After:
		if len(pred.Keys) == 0 || len(pred.Keys) != len(pred.Values) {
			v.addProblem("keyset has %d keys and %d values", len(pred.Keys), len(pred.Values))
		}
		for _, c := range pred.Keys {
			v.validateColumn(c)
		}
		v.validateDirection(pred.Direction)
	case *After:
		v.validatePredicate(*pred)
	default:
		v.addProblem("unknown predicate type %T", p)
	}
}

func (v *validator) validateColumn(c Column) {
	v.validateOptionalIdentifier(c.Source)
	v.validateIdentifier(c.Name)
}

func (v *validator) validateDirection(d Direction) {
	if d != Asc && d != Desc {
		v.addProblem("invalid direction %q", string(d))
	}
}

func (v *validator) validateIdentifier(name string) {
	if !identifierPattern.MatchString(name) {
		v.addProblem("invalid identifier %q", name)
	}
}

func (v *validator) validateOptionalIdentifier(name string) {
	if name != "" {
		v.validateIdentifier(name)
	}
}
