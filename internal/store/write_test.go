package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppendArtifact_AssignsIncreasingVersions(t *testing.T) {
	s := createTestStore(t)

	assert.Equal(t, int64(1), mustAppend(t, s, sampleRecord("a001")))
	assert.Equal(t, int64(2), mustAppend(t, s, sampleRecord("a001")))
	assert.Equal(t, int64(1), mustAppend(t, s, sampleRecord("a002")))
	assert.Equal(t, int64(3), mustAppend(t, s, sampleRecord("a001")))
}

func TestAppendArtifact_NeverModifiesOldVersions(t *testing.T) {
	s := createTestStore(t)

	mustAppend(t, s, sampleRecord("a001"))
	next := sampleRecord("a001")
	next.Title = "New"
	mustAppend(t, s, next)

	var title string
	err := s.db.QueryRow(`SELECT title FROM artifacts WHERE artifact_id = 'a001' AND version = 1`).Scan(&title)
	require.NoError(t, err)
	assert.Equal(t, "Title a001", title)

	var files int
	err = s.db.QueryRow(`SELECT COUNT(*) FROM files`).Scan(&files)
	require.NoError(t, err)
	assert.Equal(t, 2, files, "each version carries its own file rows")
}

func TestAppendArtifacts_SharesTags(t *testing.T) {
	s := createTestStore(t)

	out, err := s.AppendArtifacts(context.Background(), []ArtifactRecord{sampleRecord("a001"), sampleRecord("a002")})
	require.NoError(t, err)
	assert.Equal(t, []Appended{{ArtifactID: "a001", Version: 1}, {ArtifactID: "a002", Version: 1}}, out)

	var tags, links int
	require.NoError(t, s.db.QueryRow(`SELECT COUNT(*) FROM tags`).Scan(&tags))
	require.NoError(t, s.db.QueryRow(`SELECT COUNT(*) FROM artifact_tags`).Scan(&links))
	assert.Equal(t, 2, tags)
	assert.Equal(t, 4, links)
}

func TestAppendArtifacts_TagDescriptionUpsert(t *testing.T) {
	s := createTestStore(t)

	withDesc := sampleRecord("a001")
	withDesc.Tags = []TagRecord{{Name: "Zines", Kind: "collection", Description: ptr("Self-published")}}
	mustAppend(t, s, withDesc)

	withoutDesc := sampleRecord("a002")
	withoutDesc.Tags = []TagRecord{{Name: "Zines", Kind: "collection"}}
	mustAppend(t, s, withoutDesc)

	var desc string
	require.NoError(t, s.db.QueryRow(`SELECT description FROM tags WHERE name = 'Zines'`).Scan(&desc))
	assert.Equal(t, "Self-published", desc)
}

func TestAppendArtifacts_RollsBackOnFailure(t *testing.T) {
	s := createTestStore(t)

	bad := sampleRecord("a002")
	bad.Tags = []TagRecord{{Name: "x", Kind: "colour"}} // violates CHECK

	_, err := s.AppendArtifacts(context.Background(), []ArtifactRecord{sampleRecord("a001"), bad})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `append artifact "a002"`)

	var count int
	require.NoError(t, s.db.QueryRow(`SELECT COUNT(*) FROM artifacts`).Scan(&count))
	assert.Zero(t, count, "a001 must not be committed when a002 fails")
}

func TestAppendArtifact_DuplicateFilename(t *testing.T) {
	s := createTestStore(t)

	rec := sampleRecord("a001")
	rec.Files = append(rec.Files, rec.Files[0])

	_, err := s.AppendArtifact(context.Background(), rec)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `insert file "scan.pdf"`)
}
