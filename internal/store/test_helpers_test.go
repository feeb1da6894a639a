package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/roach88/catalog/internal/canon"
	"github.com/roach88/catalog/internal/queryir"
)

// createTestStore creates a new store backed by a temp file.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func ptr[T any](v T) *T { return &v }

// sampleRecord returns a record with one of every child row.
func sampleRecord(id string) ArtifactRecord {
	return ArtifactRecord{
		ArtifactID:  id,
		Slug:        "slug-" + id,
		Title:       "Title " + id,
		Summary:     "Summary " + id,
		Description: ptr("Description " + id),
		FromYear:    1994,
		ToYear:      ptr(int64(1996)),
		Aliases:     []string{"old-" + id},
		Files: []FileRecord{{
			Filename:  "scan.pdf",
			Name:      "Scan",
			MediaType: ptr("application/pdf"),
			Multihash: "1220" + "00000000000000000000000000000000000000000000000000000000000000ff",
			Pos:       0,
			Aliases:   []string{"old-scan.pdf"},
		}},
		Links: []LinkRecord{{Name: "Source", URL: "https://example.org/" + id, Pos: 0}},
		Tags: []TagRecord{
			{Name: "Jane Doe", Kind: "person"},
			{Name: "1990", Kind: "decade"},
		},
	}
}

func mustAppend(t *testing.T, s *Store, rec ArtifactRecord) int64 {
	t.Helper()
	v, err := s.AppendArtifact(context.Background(), rec)
	if err != nil {
		t.Fatalf("AppendArtifact(%s) failed: %v", rec.ArtifactID, err)
	}
	return v
}

func latestArtifacts() queryir.Latest {
	return queryir.Latest{Table: "artifacts", Key: "artifact_id", Version: "version"}
}

func byID(source string) []queryir.Order {
	return []queryir.Order{{Column: queryir.Col(source, "id"), Direction: queryir.Asc}}
}

// allLatestBatch reads every latest artifact with all of its children.
func allLatestBatch() Batch {
	page := queryir.Select{
		Columns: queryir.Cols("artifacts", "id"),
		From:    latestArtifacts(),
	}
	inPage := func(source, column string) queryir.Predicate {
		return queryir.InQuery{Column: queryir.Col(source, column), Query: page}
	}

	return Batch{
		Artifacts: queryir.Select{
			Columns: queryir.Cols("artifacts", ArtifactColumns...),
			From:    latestArtifacts(),
			OrderBy: []queryir.Order{{Column: queryir.Col("artifacts", "artifact_id"), Direction: queryir.Asc}},
		},
		Aliases: queryir.Select{
			Columns: queryir.Cols("artifact_aliases", ArtifactAliasColumns...),
			From:    queryir.Table{Name: "artifact_aliases"},
			Where:   inPage("artifact_aliases", "artifact"),
			OrderBy: []queryir.Order{{Column: queryir.Col("artifact_aliases", "slug"), Direction: queryir.Asc}},
		},
		Files: queryir.Select{
			Columns: queryir.Cols("files", FileColumns...),
			From:    queryir.Table{Name: "files"},
			Where:   inPage("files", "artifact"),
			OrderBy: byID("files"),
		},
		FileAliases: queryir.Select{
			Columns: queryir.Cols("file_aliases", FileAliasColumns...),
			From:    queryir.Table{Name: "file_aliases"},
			Where: queryir.InQuery{
				Column: queryir.Col("file_aliases", "file"),
				Query: queryir.Select{
					Columns: queryir.Cols("files", "id"),
					From:    queryir.Table{Name: "files"},
					Where:   inPage("files", "artifact"),
				},
			},
			OrderBy: []queryir.Order{{Column: queryir.Col("file_aliases", "filename"), Direction: queryir.Asc}},
		},
		Links: queryir.Select{
			Columns: queryir.Cols("links", LinkColumns...),
			From:    queryir.Table{Name: "links"},
			Where:   inPage("links", "artifact"),
			OrderBy: byID("links"),
		},
		Tags: queryir.Select{
			Columns: append(queryir.Cols("artifact_tags", "artifact"), queryir.Cols("tags", TagColumns...)...),
			From: queryir.Join{
				Left:  queryir.Table{Name: "artifact_tags"},
				Right: queryir.Table{Name: "tags"},
				On:    []queryir.ColumnPair{{Left: queryir.Col("artifact_tags", "tag"), Right: queryir.Col("tags", "id")}},
			},
			Where:   inPage("artifact_tags", "artifact"),
			OrderBy: []queryir.Order{{Column: queryir.Col("tags", "name"), Direction: queryir.Asc}},
		},
	}
}

func anchorFor(artifactID string) *queryir.Select {
	return &queryir.Select{
		Columns: queryir.Cols("artifacts", "artifact_id"),
		From:    latestArtifacts(),
		Where:   queryir.Equals{Column: queryir.Col("artifacts", "artifact_id"), Value: canon.String(artifactID)},
		OrderBy: []queryir.Order{{Column: queryir.Col("artifacts", "artifact_id"), Direction: queryir.Asc}},
		Limit:   1,
	}
}
