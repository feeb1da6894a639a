package querysql

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/catalog/internal/canon"
	"github.com/roach88/catalog/internal/queryir"
)

func TestCompile_SimpleSelect(t *testing.T) {
	compiler := NewSQLCompiler()

	query := queryir.Select{
		Columns: queryir.Cols("links", "id", "name"),
		From:    queryir.Table{Name: "links"},
		Where:   queryir.Equals{Column: queryir.Col("links", "name"), Value: canon.String("widgets")},
		OrderBy: []queryir.Order{{Column: queryir.Col("links", "id"), Direction: queryir.Asc}},
	}

	sql, params, err := compiler.Compile(query)
	require.NoError(t, err)

	assert.Equal(t,
		"SELECT links.id, links.name FROM links WHERE links.name = ? ORDER BY links.id COLLATE BINARY ASC",
		sql)
	assert.NotContains(t, sql, "widgets")
	assert.Equal(t, []any{"widgets"}, params)
}

func TestCompile_PointerSelect(t *testing.T) {
	query := &queryir.Select{
		Columns: []queryir.Column{{Name: "id"}},
		From:    queryir.Table{Name: "tags"},
		Where:   &queryir.Equals{Column: queryir.Column{Name: "kind"}, Value: canon.String("person")},
		OrderBy: []queryir.Order{{Column: queryir.Column{Name: "id"}, Direction: queryir.Desc}},
	}

	sql, params, err := NewSQLCompiler().Compile(query)
	require.NoError(t, err)
	assert.Equal(t, "SELECT id FROM tags WHERE kind = ? ORDER BY id COLLATE BINARY DESC", sql)
	assert.Equal(t, []any{"person"}, params)
}

func TestCompile_Latest(t *testing.T) {
	query := queryir.Select{
		Columns: queryir.Cols("artifacts", "artifact_id"),
		From:    queryir.Latest{Table: "artifacts", Key: "artifact_id", Version: "version"},
		OrderBy: []queryir.Order{{Column: queryir.Col("artifacts", "artifact_id"), Direction: queryir.Asc}},
	}

	sql, params, err := NewSQLCompiler().Compile(query)
	require.NoError(t, err)

	assert.Equal(t,
		"SELECT artifacts.artifact_id FROM "+
			"(SELECT cur.* FROM artifacts AS cur INNER JOIN "+
			"(SELECT artifact_id, MAX(version) AS version FROM artifacts GROUP BY artifact_id) AS newest "+
			"ON cur.artifact_id = newest.artifact_id AND cur.version = newest.version) AS artifacts "+
			"ORDER BY artifacts.artifact_id COLLATE BINARY ASC",
		sql)
	assert.Empty(t, params)
}

func TestCompile_JoinAndIn(t *testing.T) {
	query := queryir.Select{
		Distinct: true,
		Columns:  queryir.Cols("tags", "name", "kind"),
		From: queryir.Join{
			Left:  queryir.Table{Name: "artifact_tags"},
			Right: queryir.Table{Name: "tags"},
			On:    []queryir.ColumnPair{{Left: queryir.Col("artifact_tags", "tag"), Right: queryir.Col("tags", "id")}},
		},
		Where: queryir.And{Predicates: []queryir.Predicate{
			queryir.Equals{Column: queryir.Col("tags", "kind"), Value: canon.String("person")},
			queryir.In{Column: queryir.Col("tags", "name"), Values: []canon.Value{canon.String("a"), canon.String("b")}},
		}},
		OrderBy: []queryir.Order{
			{Column: queryir.Col("tags", "kind"), Direction: queryir.Asc},
			{Column: queryir.Col("tags", "name"), Direction: queryir.Asc},
		},
	}

	sql, params, err := NewSQLCompiler().Compile(query)
	require.NoError(t, err)

	assert.Equal(t,
		"SELECT DISTINCT tags.name, tags.kind FROM artifact_tags INNER JOIN tags ON artifact_tags.tag = tags.id "+
			"WHERE tags.kind = ? AND tags.name IN (?, ?) "+
			"ORDER BY tags.kind COLLATE BINARY ASC, tags.name COLLATE BINARY ASC",
		sql)
	assert.Equal(t, []any{"person", "a", "b"}, params)
}

func TestCompile_KeysetAndLimit(t *testing.T) {
	tests := []struct {
		name      string
		direction queryir.Direction
		keys      []string
		wantWhere string
	}{
		{"asc pair", queryir.Asc, []string{"title", "artifact_id"}, "(a.title, a.artifact_id) > (?, ?)"},
		{"desc pair", queryir.Desc, []string{"title", "artifact_id"}, "(a.title, a.artifact_id) < (?, ?)"},
		{"single key", queryir.Asc, []string{"artifact_id"}, "a.artifact_id > ?"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			values := make([]canon.Value, len(tt.keys))
			for i := range values {
				values[i] = canon.String("v")
			}

			query := queryir.Select{
				Columns: queryir.Cols("a", "id"),
				From:    queryir.Table{Name: "artifacts", As: "a"},
				Where:   queryir.After{Keys: queryir.Cols("a", tt.keys...), Values: values, Direction: tt.direction},
				OrderBy: []queryir.Order{{Column: queryir.Col("a", "id"), Direction: tt.direction}},
				Limit:   3,
			}

			sql, params, err := NewSQLCompiler().Compile(query)
			require.NoError(t, err)

			assert.Contains(t, sql, "FROM artifacts AS a WHERE "+tt.wantWhere+" ORDER BY")
			assert.Contains(t, sql, "LIMIT ?")
			assert.Len(t, params, len(tt.keys)+1)
			assert.Equal(t, int64(3), params[len(params)-1])
		})
	}
}

func TestCompile_InQueryParamOrder(t *testing.T) {
	page := queryir.Select{
		Columns: queryir.Cols("artifacts", "id"),
		From:    queryir.Latest{Table: "artifacts", Key: "artifact_id", Version: "version"},
		Where:   queryir.After{Keys: queryir.Cols("artifacts", "artifact_id"), Values: []canon.Value{canon.String("a001")}, Direction: queryir.Asc},
		OrderBy: []queryir.Order{{Column: queryir.Col("artifacts", "artifact_id"), Direction: queryir.Asc}},
		Limit:   11,
	}
	query := queryir.Select{
		Columns: queryir.Cols("links", "id"),
		From:    queryir.Table{Name: "links"},
		Where: queryir.And{Predicates: []queryir.Predicate{
			queryir.InQuery{Column: queryir.Col("links", "artifact"), Query: page},
			queryir.Equals{Column: queryir.Col("links", "name"), Value: canon.String("x")},
		}},
		OrderBy: []queryir.Order{{Column: queryir.Col("links", "id"), Direction: queryir.Asc}},
		Limit:   5,
	}

	sql, params, err := NewSQLCompiler().Compile(query)
	require.NoError(t, err)

	assert.Contains(t, sql, "WHERE links.artifact IN (SELECT artifacts.id FROM (SELECT cur.*")
	assert.Equal(t, []any{"a001", int64(11), "x", int64(5)}, params)
}

func TestCompile_EmptyAnd(t *testing.T) {
	query := queryir.Select{
		Columns: queryir.Cols("tags", "id"),
		From:    queryir.Table{Name: "tags"},
		Where:   queryir.And{},
		OrderBy: []queryir.Order{{Column: queryir.Col("tags", "id"), Direction: queryir.Asc}},
	}

	sql, _, err := NewSQLCompiler().Compile(query)
	require.NoError(t, err)
	assert.Contains(t, sql, "WHERE 1 = 1")
}

func TestCompile_RejectsInvalidQuery(t *testing.T) {
	tests := []struct {
		name  string
		query queryir.Query
	}{
		{"nil", nil},
		{"missing order by", queryir.Select{Columns: queryir.Cols("t", "id"), From: queryir.Table{Name: "t"}}},
		{"bad direction", queryir.Select{
			Columns: queryir.Cols("t", "id"),
			From:    queryir.Table{Name: "t"},
			OrderBy: []queryir.Order{{Column: queryir.Col("t", "id"), Direction: "SIDEWAYS"}},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := NewSQLCompiler().Compile(tt.query)
			assert.Error(t, err)
		})
	}
}

func TestCompile_RejectsNonScalarParam(t *testing.T) {
	query := queryir.Select{
		Columns: queryir.Cols("t", "id"),
		From:    queryir.Table{Name: "t"},
		Where:   queryir.Equals{Column: queryir.Col("t", "id"), Value: canon.Array{}},
		OrderBy: []queryir.Order{{Column: queryir.Col("t", "id"), Direction: queryir.Asc}},
	}

	_, _, err := NewSQLCompiler().Compile(query)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "canon.Array")
}

func TestCompile_Deterministic(t *testing.T) {
	query := queryir.Select{
		Columns: queryir.Cols("t", "b", "a"),
		From:    queryir.Table{Name: "t"},
		OrderBy: []queryir.Order{{Column: queryir.Col("t", "a"), Direction: queryir.Asc}},
	}

	first, _, err := NewSQLCompiler().Compile(query)
	require.NoError(t, err)
	for range 5 {
		again, _, err := NewSQLCompiler().Compile(query)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}
