package store

import (
	"context"
	"database/sql"

	"github.com/cockroachdb/errors"
)

// ArtifactRecord is the full content of one artifact version to append.
type ArtifactRecord struct {
	ArtifactID  string
	Slug        string
	Title       string
	Summary     string
	Description *string
	FromYear    int64
	ToYear      *int64
	Aliases     []string
	Files       []FileRecord
	Links       []LinkRecord
	Tags        []TagRecord
}

// FileRecord is a file of an ArtifactRecord.
type FileRecord struct {
	Filename  string
	Name      string
	MediaType *string
	Multihash string
	Lang      *string
	Hidden    bool
	Pos       int64
	Aliases   []string
}

// LinkRecord is a link of an ArtifactRecord.
type LinkRecord struct {
	Name string
	URL  string
	Pos  int64
}

// TagRecord is a tag of an ArtifactRecord.
type TagRecord struct {
	Name        string
	Kind        string
	Description *string
}

// Appended reports the version assigned to an appended record.
type Appended struct {
	ArtifactID string `json:"artifact_id"`
	Version    int64  `json:"version"`
}

// AppendArtifacts appends a new version of each record in one transaction.
// Existing versions are never modified; the new version is the current
// maximum for the artifact plus one (1 for a new artifact).
//
// Tags are shared across artifacts and upserted by (name, kind). A record
// that carries a tag description overwrites the stored one; a record
// without one leaves it alone.
func (s *Store) AppendArtifacts(ctx context.Context, records []ArtifactRecord) ([]Appended, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, errors.Wrap(err, "append artifacts: begin tx")
	}
	defer tx.Rollback() // No-op if committed

	out := make([]Appended, 0, len(records))
	for _, rec := range records {
		version, err := appendArtifact(ctx, tx, rec)
		if err != nil {
			return nil, errors.Wrapf(err, "append artifact %q", rec.ArtifactID)
		}
		out = append(out, Appended{ArtifactID: rec.ArtifactID, Version: version})
	}

	if err := tx.Commit(); err != nil {
		return nil, errors.Wrap(err, "append artifacts: commit")
	}
	return out, nil
}

// AppendArtifact appends a single record. See AppendArtifacts.
func (s *Store) AppendArtifact(ctx context.Context, rec ArtifactRecord) (int64, error) {
	out, err := s.AppendArtifacts(ctx, []ArtifactRecord{rec})
	if err != nil {
		return 0, err
	}
	return out[0].Version, nil
}

func appendArtifact(ctx context.Context, tx *sql.Tx, rec ArtifactRecord) (int64, error) {
	var version int64
	err := tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(version), 0) + 1 FROM artifacts WHERE artifact_id = ?`,
		rec.ArtifactID,
	).Scan(&version)
	if err != nil {
		return 0, errors.Wrap(err, "next version")
	}

	res, err := tx.ExecContext(ctx, `
		INSERT INTO artifacts
		(artifact_id, version, slug, title, summary, description, from_year, to_year)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		rec.ArtifactID,
		version,
		rec.Slug,
		rec.Title,
		rec.Summary,
		rec.Description,
		rec.FromYear,
		rec.ToYear,
	)
	if err != nil {
		return 0, errors.Wrap(err, "insert artifact")
	}
	rowID, err := res.LastInsertId()
	if err != nil {
		return 0, errors.Wrap(err, "artifact row id")
	}

	for _, slug := range rec.Aliases {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO artifact_aliases (artifact, slug) VALUES (?, ?) ON CONFLICT DO NOTHING`,
			rowID, slug,
		); err != nil {
			return 0, errors.Wrap(err, "insert alias")
		}
	}

	for _, f := range rec.Files {
		if err := insertFile(ctx, tx, rowID, f); err != nil {
			return 0, err
		}
	}

	for _, l := range rec.Links {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO links (artifact, name, url, pos) VALUES (?, ?, ?, ?)`,
			rowID, l.Name, l.URL, l.Pos,
		); err != nil {
			return 0, errors.Wrap(err, "insert link")
		}
	}

	for _, tag := range rec.Tags {
		tagID, err := upsertTag(ctx, tx, tag)
		if err != nil {
			return 0, err
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO artifact_tags (artifact, tag) VALUES (?, ?) ON CONFLICT DO NOTHING`,
			rowID, tagID,
		); err != nil {
			return 0, errors.Wrap(err, "insert artifact tag")
		}
	}

	return version, nil
}

func insertFile(ctx context.Context, tx *sql.Tx, artifact int64, f FileRecord) error {
	res, err := tx.ExecContext(ctx, `
		INSERT INTO files
		(artifact, filename, name, media_type, multihash, lang, hidden, pos)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		artifact,
		f.Filename,
		f.Name,
		f.MediaType,
		f.Multihash,
		f.Lang,
		f.Hidden,
		f.Pos,
	)
	if err != nil {
		return errors.Wrapf(err, "insert file %q", f.Filename)
	}
	fileID, err := res.LastInsertId()
	if err != nil {
		return errors.Wrap(err, "file row id")
	}

	for _, alias := range f.Aliases {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO file_aliases (file, filename) VALUES (?, ?) ON CONFLICT DO NOTHING`,
			fileID, alias,
		); err != nil {
			return errors.Wrapf(err, "insert file alias %q", alias)
		}
	}
	return nil
}

func upsertTag(ctx context.Context, tx *sql.Tx, tag TagRecord) (int64, error) {
	var id int64
	err := tx.QueryRowContext(ctx, `
		INSERT INTO tags (name, kind, description) VALUES (?, ?, ?)
		ON CONFLICT(name, kind) DO UPDATE SET description = COALESCE(excluded.description, tags.description)
		RETURNING id
	`, tag.Name, tag.Kind, tag.Description).Scan(&id)
	if err != nil {
		return 0, errors.Wrapf(err, "upsert tag %s/%s", tag.Kind, tag.Name)
	}
	return id, nil
}
