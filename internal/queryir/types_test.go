package queryir

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/catalog/internal/canon"
)

func TestSealedQueryTypes(t *testing.T) {
	var _ Query = Select{}
	var _ Query = &Select{}
}

func TestSealedSourceTypes(t *testing.T) {
	var _ Source = Table{}
	var _ Source = Latest{}
	var _ Source = Join{}
}

func TestSealedPredicateTypes(t *testing.T) {
	var _ Predicate = Equals{}
	var _ Predicate = In{}
	var _ Predicate = InQuery{}
	var _ Predicate = And{}
	var _ Predicate = After{}
	var _ Predicate = &Equals{}
}

func TestAlias(t *testing.T) {
	assert.Equal(t, "files", Table{Name: "files"}.Alias())
	assert.Equal(t, "f", Table{Name: "files", As: "f"}.Alias())
	assert.Equal(t, "artifacts", Latest{Table: "artifacts", Key: "artifact_id", Version: "version"}.Alias())
	assert.Equal(t, "page", Latest{Table: "artifacts", As: "page"}.Alias())
}

func TestCols(t *testing.T) {
	assert.Equal(t,
		[]Column{{Source: "links", Name: "name"}, {Source: "links", Name: "url"}},
		Cols("links", "name", "url"),
	)
	assert.Equal(t, Column{Source: "tags", Name: "kind"}, Col("tags", "kind"))
}

func TestPredicateTypeSwitch(t *testing.T) {
	preds := []Predicate{
		Equals{Column: Col("t", "a"), Value: canon.String("x")},
		In{Column: Col("t", "a"), Values: []canon.Value{canon.Int(1)}},
		And{},
		After{Keys: Cols("t", "a"), Values: []canon.Value{canon.Int(1)}, Direction: Asc},
	}

	var names []string
	for _, p := range preds {
		switch p.(type) {
		case Equals:
			names = append(names, "equals")
		case In:
			names = append(names, "in")
		case And:
			names = append(names, "and")
		case After:
			names = append(names, "after")
		}
	}
	assert.Equal(t, []string{"equals", "in", "and", "after"}, names)
}
