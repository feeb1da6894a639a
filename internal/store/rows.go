package store

import (
	"database/sql"

	"github.com/cockroachdb/errors"
)

// Column lists, in scan order. Plans must project exactly these columns
// (qualified by whatever alias they use) for the scanners below to line up.
var (
	ArtifactColumns      = []string{"id", "artifact_id", "version", "slug", "title", "summary", "description", "from_year", "to_year"}
	ArtifactAliasColumns = []string{"artifact", "slug"}
	FileColumns          = []string{"id", "artifact", "filename", "name", "media_type", "multihash", "lang", "hidden", "pos"}
	FileAliasColumns     = []string{"file", "filename"}
	LinkColumns          = []string{"id", "artifact", "name", "url", "pos"}
	TagColumns           = []string{"name", "kind", "description"}
)

// ArtifactRow is one version row of an artifact.
type ArtifactRow struct {
	ID          int64 // Version row key; child rows reference this
	ArtifactID  string
	Version     int64
	Slug        string
	Title       string
	Summary     string
	Description *string
	FromYear    int64
	ToYear      *int64
}

// ArtifactAliasRow is a former slug of an artifact version.
type ArtifactAliasRow struct {
	Artifact int64
	Slug     string
}

// FileRow is a file attached to an artifact version.
type FileRow struct {
	ID        int64
	Artifact  int64
	Filename  string
	Name      string
	MediaType *string
	Multihash string // hex-encoded multihash
	Lang      *string
	Hidden    bool
	Pos       int64
}

// FileAliasRow is a former filename of a file.
type FileAliasRow struct {
	File     int64
	Filename string
}

// LinkRow is an external link attached to an artifact version.
type LinkRow struct {
	ID       int64
	Artifact int64
	Name     string
	URL      string
	Pos      int64
}

// TagRow is a catalog tag.
type TagRow struct {
	Name        string
	Kind        string
	Description *string
}

// ArtifactTagRow is a tag attached to an artifact version. Scanned from
// artifact_tags.artifact followed by TagColumns.
type ArtifactTagRow struct {
	Artifact int64
	TagRow
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanArtifact(s scanner) (ArtifactRow, error) {
	var (
		r           ArtifactRow
		description sql.NullString
		toYear      sql.NullInt64
	)
	if err := s.Scan(&r.ID, &r.ArtifactID, &r.Version, &r.Slug, &r.Title, &r.Summary, &description, &r.FromYear, &toYear); err != nil {
		return ArtifactRow{}, errors.Wrap(err, "scan artifact")
	}
	r.Description = nullString(description)
	if toYear.Valid {
		r.ToYear = &toYear.Int64
	}
	return r, nil
}

func scanArtifactAlias(s scanner) (ArtifactAliasRow, error) {
	var r ArtifactAliasRow
	if err := s.Scan(&r.Artifact, &r.Slug); err != nil {
		return ArtifactAliasRow{}, errors.Wrap(err, "scan artifact alias")
	}
	return r, nil
}

func scanFile(s scanner) (FileRow, error) {
	var (
		r         FileRow
		mediaType sql.NullString
		lang      sql.NullString
	)
	if err := s.Scan(&r.ID, &r.Artifact, &r.Filename, &r.Name, &mediaType, &r.Multihash, &lang, &r.Hidden, &r.Pos); err != nil {
		return FileRow{}, errors.Wrap(err, "scan file")
	}
	r.MediaType = nullString(mediaType)
	r.Lang = nullString(lang)
	return r, nil
}

func scanFileAlias(s scanner) (FileAliasRow, error) {
	var r FileAliasRow
	if err := s.Scan(&r.File, &r.Filename); err != nil {
		return FileAliasRow{}, errors.Wrap(err, "scan file alias")
	}
	return r, nil
}

func scanLink(s scanner) (LinkRow, error) {
	var r LinkRow
	if err := s.Scan(&r.ID, &r.Artifact, &r.Name, &r.URL, &r.Pos); err != nil {
		return LinkRow{}, errors.Wrap(err, "scan link")
	}
	return r, nil
}

func scanTag(s scanner) (TagRow, error) {
	var (
		r           TagRow
		description sql.NullString
	)
	if err := s.Scan(&r.Name, &r.Kind, &description); err != nil {
		return TagRow{}, errors.Wrap(err, "scan tag")
	}
	r.Description = nullString(description)
	return r, nil
}

func scanArtifactTag(s scanner) (ArtifactTagRow, error) {
	var (
		r           ArtifactTagRow
		description sql.NullString
	)
	if err := s.Scan(&r.Artifact, &r.Name, &r.Kind, &description); err != nil {
		return ArtifactTagRow{}, errors.Wrap(err, "scan artifact tag")
	}
	r.Description = nullString(description)
	return r, nil
}

func nullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	return &ns.String
}
