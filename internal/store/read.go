package store

import (
	"context"
	"database/sql"

	"github.com/cockroachdb/errors"

	"github.com/roach88/catalog/internal/queryir"
)

// Batch is the set of statements that together produce one page of
// artifacts. All of them run inside a single read-only transaction, so
// the parent rows and every child row-set come from the same snapshot.
type Batch struct {
	// Anchor, when set, must return at least one row or the remaining
	// statements are skipped and BatchResult.AnchorFound is false.
	Anchor *queryir.Select

	Artifacts   queryir.Select
	Aliases     queryir.Select
	Files       queryir.Select
	FileAliases queryir.Select
	Links       queryir.Select
	Tags        queryir.Select
}

// BatchResult holds the flat row-sets of a Batch. Every slice is non-nil.
type BatchResult struct {
	AnchorFound bool
	Artifacts   []ArtifactRow
	Aliases     []ArtifactAliasRow
	Files       []FileRow
	FileAliases []FileAliasRow
	Links       []LinkRow
	Tags        []ArtifactTagRow
}

// querier is satisfied by *sql.DB and *sql.Tx.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// ReadBatch executes a batch against one consistent snapshot.
func (s *Store) ReadBatch(ctx context.Context, b Batch) (*BatchResult, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, errors.Wrap(err, "begin read transaction")
	}
	defer tx.Rollback() // No-op if committed

	result := &BatchResult{AnchorFound: true}

	if b.Anchor != nil {
		found, err := s.exists(ctx, tx, *b.Anchor)
		if err != nil {
			return nil, errors.Wrap(err, "read anchor")
		}
		if !found {
			result.AnchorFound = false
			return result, tx.Commit()
		}
	}

	if result.Artifacts, err = queryRows(ctx, s, tx, b.Artifacts, scanArtifact); err != nil {
		return nil, errors.Wrap(err, "read artifacts")
	}
	if result.Aliases, err = queryRows(ctx, s, tx, b.Aliases, scanArtifactAlias); err != nil {
		return nil, errors.Wrap(err, "read artifact aliases")
	}
	if result.Files, err = queryRows(ctx, s, tx, b.Files, scanFile); err != nil {
		return nil, errors.Wrap(err, "read files")
	}
	if result.FileAliases, err = queryRows(ctx, s, tx, b.FileAliases, scanFileAlias); err != nil {
		return nil, errors.Wrap(err, "read file aliases")
	}
	if result.Links, err = queryRows(ctx, s, tx, b.Links, scanLink); err != nil {
		return nil, errors.Wrap(err, "read links")
	}
	if result.Tags, err = queryRows(ctx, s, tx, b.Tags, scanArtifactTag); err != nil {
		return nil, errors.Wrap(err, "read artifact tags")
	}

	if err := tx.Commit(); err != nil {
		return nil, errors.Wrap(err, "commit read transaction")
	}
	return result, nil
}

// ReadTags returns the rows of a tag catalog query.
// Returns an empty slice (not nil) if there are no tags.
func (s *Store) ReadTags(ctx context.Context, q queryir.Select) ([]TagRow, error) {
	tags, err := queryRows(ctx, s, s.db, q, scanTag)
	if err != nil {
		return nil, errors.Wrap(err, "read tags")
	}
	return tags, nil
}

// exists reports whether q returns at least one row.
func (s *Store) exists(ctx context.Context, q querier, sel queryir.Select) (bool, error) {
	query, args, err := s.compiler.Compile(sel)
	if err != nil {
		return false, err
	}

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return false, errors.Wrap(err, "query")
	}
	defer rows.Close()

	found := rows.Next()
	if err := rows.Err(); err != nil {
		return false, errors.Wrap(err, "iterate")
	}
	return found, nil
}

// queryRows compiles sel, runs it and scans every row.
// Returns an empty slice instead of nil.
func queryRows[T any](ctx context.Context, s *Store, q querier, sel queryir.Select, scan func(scanner) (T, error)) ([]T, error) {
	query, args, err := s.compiler.Compile(sel)
	if err != nil {
		return nil, err
	}

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "query")
	}
	defer rows.Close()

	out := []T{}
	for rows.Next() {
		item, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate")
	}
	return out, nil
}
