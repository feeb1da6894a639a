package testutil

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/multiformats/go-multihash"

	"github.com/roach88/catalog/internal/cursor"
	"github.com/roach88/catalog/internal/store"
)

// OpenStore opens a store backed by a temp file, closed on cleanup.
func OpenStore(t testing.TB) *store.Store {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "catalog.db"))
	if err != nil {
		t.Fatalf("store.Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// Seed appends every record in one transaction.
func Seed(t testing.TB, s *store.Store, recs ...store.ArtifactRecord) {
	t.Helper()
	if _, err := s.AppendArtifacts(context.Background(), recs); err != nil {
		t.Fatalf("AppendArtifacts() failed: %v", err)
	}
}

// CursorKey returns a fixed AES-128-GCM key.
func CursorKey(t testing.TB) *cursor.Key {
	t.Helper()
	key, err := cursor.NewKey(bytes.Repeat([]byte{0x5a}, 16), cursor.AESGCM)
	if err != nil {
		t.Fatalf("cursor.NewKey() failed: %v", err)
	}
	return key
}

// StableCodec returns a codec whose tokens depend only on the state, for
// golden comparisons.
func StableCodec(t testing.TB) *cursor.Codec {
	t.Helper()
	return cursor.NewCodec(CursorKey(t), cursor.WithRandom(FixedEntropy(0)))
}

// Multihash returns the hex sha2-256 multihash of content.
func Multihash(content string) string {
	mh, err := multihash.Sum([]byte(content), multihash.SHA2_256, -1)
	if err != nil {
		panic(err) // Only fails for unknown codes
	}
	return mh.HexString()
}

// ArtifactBuilder builds a store.ArtifactRecord fluently.
//
//	rec := testutil.Artifact("a001").Title("Pride").FromYear(1994).
//		File("scan.pdf", 0).Tag("person", "Jane Doe").Build()
type ArtifactBuilder struct {
	rec store.ArtifactRecord
}

// Artifact starts a record with the minimum required fields filled from id.
func Artifact(id string) *ArtifactBuilder {
	return &ArtifactBuilder{rec: store.ArtifactRecord{
		ArtifactID: id,
		Slug:       "slug-" + id,
		Title:      "Title " + id,
		Summary:    "Summary of " + id,
		FromYear:   1990,
	}}
}

func (b *ArtifactBuilder) Slug(slug string) *ArtifactBuilder {
	b.rec.Slug = slug
	return b
}

func (b *ArtifactBuilder) Title(title string) *ArtifactBuilder {
	b.rec.Title = title
	return b
}

func (b *ArtifactBuilder) Summary(summary string) *ArtifactBuilder {
	b.rec.Summary = summary
	return b
}

func (b *ArtifactBuilder) Description(description string) *ArtifactBuilder {
	b.rec.Description = &description
	return b
}

func (b *ArtifactBuilder) FromYear(year int64) *ArtifactBuilder {
	b.rec.FromYear = year
	return b
}

func (b *ArtifactBuilder) ToYear(year int64) *ArtifactBuilder {
	b.rec.ToYear = &year
	return b
}

// Alias adds a former slug.
func (b *ArtifactBuilder) Alias(slug string) *ArtifactBuilder {
	b.rec.Aliases = append(b.rec.Aliases, slug)
	return b
}

// File adds a PDF whose multihash is derived from its filename.
func (b *ArtifactBuilder) File(filename string, pos int64, aliases ...string) *ArtifactBuilder {
	mediaType := "application/pdf"
	b.rec.Files = append(b.rec.Files, store.FileRecord{
		Filename:  filename,
		Name:      filename,
		MediaType: &mediaType,
		Multihash: Multihash(b.rec.ArtifactID + "/" + filename),
		Pos:       pos,
		Aliases:   aliases,
	})
	return b
}

// Link adds an external link.
func (b *ArtifactBuilder) Link(name, url string, pos int64) *ArtifactBuilder {
	b.rec.Links = append(b.rec.Links, store.LinkRecord{Name: name, URL: url, Pos: pos})
	return b
}

// Tag adds a tag of the given kind (person, identity, decade, collection).
func (b *ArtifactBuilder) Tag(kind, name string) *ArtifactBuilder {
	b.rec.Tags = append(b.rec.Tags, store.TagRecord{Name: name, Kind: kind})
	return b
}

// Build returns the record.
func (b *ArtifactBuilder) Build() store.ArtifactRecord {
	return b.rec
}
