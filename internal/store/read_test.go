package store

import (
	"context"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/catalog/internal/canon"
	"github.com/roach88/catalog/internal/queryir"
)

func TestReadBatch_EmptyStore(t *testing.T) {
	s := createTestStore(t)

	res, err := s.ReadBatch(context.Background(), allLatestBatch())
	require.NoError(t, err)

	assert.True(t, res.AnchorFound)
	assert.NotNil(t, res.Artifacts)
	assert.Empty(t, res.Artifacts)
	assert.NotNil(t, res.Files)
	assert.NotNil(t, res.FileAliases)
	assert.NotNil(t, res.Links)
	assert.NotNil(t, res.Tags)
	assert.NotNil(t, res.Aliases)
}

func TestReadBatch_ReturnsLatestVersionOnly(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	mustAppend(t, s, sampleRecord("a001"))
	corrected := sampleRecord("a001")
	corrected.Title = "Corrected"
	corrected.Files = nil
	mustAppend(t, s, corrected)
	mustAppend(t, s, sampleRecord("a002"))

	res, err := s.ReadBatch(ctx, allLatestBatch())
	require.NoError(t, err)

	require.Len(t, res.Artifacts, 2)
	assert.Equal(t, "a001", res.Artifacts[0].ArtifactID)
	assert.Equal(t, int64(2), res.Artifacts[0].Version)
	assert.Equal(t, "Corrected", res.Artifacts[0].Title)
	assert.Equal(t, "a002", res.Artifacts[1].ArtifactID)

	// Only a002's file survives; a001's latest version has none.
	require.Len(t, res.Files, 1)
	assert.Equal(t, res.Artifacts[1].ID, res.Files[0].Artifact)
}

func TestReadBatch_ScansEveryColumn(t *testing.T) {
	s := createTestStore(t)
	mustAppend(t, s, sampleRecord("a001"))

	res, err := s.ReadBatch(context.Background(), allLatestBatch())
	require.NoError(t, err)

	require.Len(t, res.Artifacts, 1)
	a := res.Artifacts[0]
	assert.Equal(t, "slug-a001", a.Slug)
	require.NotNil(t, a.Description)
	assert.Equal(t, "Description a001", *a.Description)
	assert.Equal(t, int64(1994), a.FromYear)
	require.NotNil(t, a.ToYear)
	assert.Equal(t, int64(1996), *a.ToYear)

	require.Len(t, res.Aliases, 1)
	assert.Equal(t, ArtifactAliasRow{Artifact: a.ID, Slug: "old-a001"}, res.Aliases[0])

	require.Len(t, res.Files, 1)
	f := res.Files[0]
	assert.Equal(t, "scan.pdf", f.Filename)
	require.NotNil(t, f.MediaType)
	assert.Equal(t, "application/pdf", *f.MediaType)
	assert.Nil(t, f.Lang)
	assert.False(t, f.Hidden)

	require.Len(t, res.FileAliases, 1)
	assert.Equal(t, FileAliasRow{File: f.ID, Filename: "old-scan.pdf"}, res.FileAliases[0])

	require.Len(t, res.Links, 1)
	assert.Equal(t, "https://example.org/a001", res.Links[0].URL)

	require.Len(t, res.Tags, 2)
	assert.Equal(t, "1990", res.Tags[0].Name)
	assert.Equal(t, "decade", res.Tags[0].Kind)
	assert.Equal(t, "Jane Doe", res.Tags[1].Name)
	assert.Nil(t, res.Tags[1].Description)
}

func TestReadBatch_AnchorFound(t *testing.T) {
	s := createTestStore(t)
	mustAppend(t, s, sampleRecord("a001"))

	b := allLatestBatch()
	b.Anchor = anchorFor("a001")

	res, err := s.ReadBatch(context.Background(), b)
	require.NoError(t, err)
	assert.True(t, res.AnchorFound)
	assert.Len(t, res.Artifacts, 1)
}

func TestReadBatch_AnchorMissingSkipsRest(t *testing.T) {
	s := createTestStore(t)
	mustAppend(t, s, sampleRecord("a001"))

	b := allLatestBatch()
	b.Anchor = anchorFor("gone")

	res, err := s.ReadBatch(context.Background(), b)
	require.NoError(t, err)
	assert.False(t, res.AnchorFound)
	assert.Empty(t, res.Artifacts)
}

func TestReadBatch_InvalidPlan(t *testing.T) {
	s := createTestStore(t)

	b := allLatestBatch()
	b.Links.OrderBy = nil

	_, err := s.ReadBatch(context.Background(), b)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read links")
	assert.True(t, errors.Is(err, queryir.ErrInvalidQuery))
}

func TestReadBatch_CancelledContext(t *testing.T) {
	s := createTestStore(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.ReadBatch(ctx, allLatestBatch())
	assert.Error(t, err)
}

func TestReadTags(t *testing.T) {
	s := createTestStore(t)
	mustAppend(t, s, sampleRecord("a001"))
	mustAppend(t, s, sampleRecord("a002"))

	q := queryir.Select{
		Distinct: true,
		Columns:  queryir.Cols("tags", TagColumns...),
		From:     queryir.Table{Name: "tags"},
		Where:    queryir.Equals{Column: queryir.Col("tags", "kind"), Value: canon.String("person")},
		OrderBy:  []queryir.Order{{Column: queryir.Col("tags", "name"), Direction: queryir.Asc}},
	}

	tags, err := s.ReadTags(context.Background(), q)
	require.NoError(t, err)
	require.Len(t, tags, 1)
	assert.Equal(t, "Jane Doe", tags[0].Name)
	assert.Equal(t, "person", tags[0].Kind)
}

func TestReadTags_EmptyIsNotNil(t *testing.T) {
	s := createTestStore(t)

	q := queryir.Select{
		Columns: queryir.Cols("tags", TagColumns...),
		From:    queryir.Table{Name: "tags"},
		OrderBy: []queryir.Order{{Column: queryir.Col("tags", "name"), Direction: queryir.Asc}},
	}

	tags, err := s.ReadTags(context.Background(), q)
	require.NoError(t, err)
	assert.NotNil(t, tags)
	assert.Empty(t, tags)
}
