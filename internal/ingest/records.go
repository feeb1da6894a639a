package ingest

import (
	"encoding/hex"
	"net/url"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/gosimple/slug"
	"github.com/multiformats/go-multihash"
	"golang.org/x/text/unicode/norm"

	"github.com/roach88/catalog/internal/assemble"
	"github.com/roach88/catalog/internal/catalog"
	"github.com/roach88/catalog/internal/store"
)

var artifactID = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

// Records validates m and converts it to store records, in manifest order.
//
// Every string is trimmed and NFC-normalized. Cursors carry the title of
// the last item in canonical (NFC) form, so a stored title in any other
// form could never be matched as a keyset position.
func (m *Manifest) Records() ([]store.ArtifactRecord, error) {
	descriptions := make(map[[2]string]string, len(m.Tags))
	for _, t := range m.Tags {
		key := [2]string{clean(t.Kind), clean(t.Name)}
		if key[1] == "" {
			return nil, errors.New("tags: name is required")
		}
		descriptions[key] = clean(t.Description)
	}

	seen := make(map[string]bool, len(m.Artifacts))
	used := make(map[[2]string]bool)
	out := make([]store.ArtifactRecord, 0, len(m.Artifacts))
	for i, a := range m.Artifacts {
		rec, err := a.record()
		if err != nil {
			return nil, errors.Wrapf(err, "artifacts[%d]", i)
		}
		if seen[rec.ArtifactID] {
			return nil, errors.Newf("artifacts[%d]: duplicate id %q", i, rec.ArtifactID)
		}
		seen[rec.ArtifactID] = true

		for j, tag := range rec.Tags {
			key := [2]string{tag.Kind, tag.Name}
			used[key] = true
			if d, ok := descriptions[key]; ok {
				rec.Tags[j].Description = &d
			}
		}
		out = append(out, rec)
	}

	for key := range descriptions {
		if !used[key] {
			return nil, errors.Newf("tags: %s %q is described but no artifact uses it", key[0], key[1])
		}
	}
	return out, nil
}

func (a ArtifactManifest) record() (store.ArtifactRecord, error) {
	rec := store.ArtifactRecord{
		ArtifactID:  clean(a.ID),
		Slug:        clean(a.Slug),
		Title:       clean(a.Title),
		Summary:     clean(a.Summary),
		Description: cleanPtr(a.Description),
		FromYear:    a.FromYear,
		ToYear:      a.ToYear,
	}

	if !artifactID.MatchString(rec.ArtifactID) {
		return rec, errors.Newf("id %q must be letters, digits, '.', '_' or '-'", a.ID)
	}
	if rec.Title == "" {
		return rec, errors.Newf("%s: title is required", rec.ArtifactID)
	}
	if rec.Summary == "" {
		return rec, errors.Newf("%s: summary is required", rec.ArtifactID)
	}
	if rec.FromYear <= 0 {
		return rec, errors.Newf("%s: from_year is required", rec.ArtifactID)
	}
	if rec.ToYear != nil && *rec.ToYear < rec.FromYear {
		return rec, errors.Newf("%s: to_year %d is before from_year %d", rec.ArtifactID, *rec.ToYear, rec.FromYear)
	}

	if rec.Slug == "" {
		rec.Slug = slug.Make(rec.Title)
	}
	if !slug.IsSlug(rec.Slug) {
		return rec, errors.Newf("%s: slug %q is not a valid slug", rec.ArtifactID, rec.Slug)
	}
	for _, alias := range a.Aliases {
		alias = clean(alias)
		if !slug.IsSlug(alias) {
			return rec, errors.Newf("%s: alias %q is not a valid slug", rec.ArtifactID, alias)
		}
		if alias != rec.Slug && !slices.Contains(rec.Aliases, alias) {
			rec.Aliases = append(rec.Aliases, alias)
		}
	}

	filenames := make(map[string]bool, len(a.Files))
	for i, f := range a.Files {
		file, err := f.record(int64(i))
		if err != nil {
			return rec, errors.Wrapf(err, "%s: files[%d]", rec.ArtifactID, i)
		}
		if filenames[file.Filename] {
			return rec, errors.Newf("%s: duplicate filename %q", rec.ArtifactID, file.Filename)
		}
		filenames[file.Filename] = true
		rec.Files = append(rec.Files, file)
	}

	for i, l := range a.Links {
		link := store.LinkRecord{Name: clean(l.Name), URL: clean(l.URL), Pos: int64(i)}
		if link.Name == "" {
			return rec, errors.Newf("%s: links[%d]: name is required", rec.ArtifactID, i)
		}
		if u, err := url.Parse(link.URL); err != nil || (u.Scheme != "https" && u.Scheme != "http") || u.Host == "" {
			return rec, errors.Newf("%s: links[%d]: %q is not an absolute http(s) URL", rec.ArtifactID, i, l.URL)
		}
		rec.Links = append(rec.Links, link)
	}

	rec.Tags = tags(catalog.KindPerson, a.People)
	rec.Tags = append(rec.Tags, tags(catalog.KindIdentity, a.Identities)...)
	rec.Tags = append(rec.Tags, tags(catalog.KindCollection, a.Collections)...)
	for _, d := range a.Decades {
		if d < 1000 || d > 9990 || d%10 != 0 {
			return rec, errors.Newf("%s: decade %d must be a four-digit year ending in 0", rec.ArtifactID, d)
		}
	}
	decades := make([]string, len(a.Decades))
	for i, d := range a.Decades {
		decades[i] = strconv.Itoa(d)
	}
	rec.Tags = append(rec.Tags, tags(catalog.KindDecade, decades)...)

	return rec, nil
}

func (f FileManifest) record(pos int64) (store.FileRecord, error) {
	rec := store.FileRecord{
		Filename:  clean(f.Filename),
		Name:      clean(f.Name),
		MediaType: cleanPtr(f.MediaType),
		Lang:      cleanPtr(f.Lang),
		Hidden:    f.Hidden,
		Pos:       pos,
	}
	if rec.Filename == "" || strings.Contains(rec.Filename, "/") {
		return rec, errors.Newf("filename %q must be a non-empty base name", f.Filename)
	}
	if rec.Name == "" {
		rec.Name = rec.Filename
	}

	mh, err := fileMultihash(f)
	if err != nil {
		return rec, err
	}
	rec.Multihash = mh

	for _, alias := range f.Aliases {
		alias = clean(alias)
		if alias == "" || strings.Contains(alias, "/") {
			return rec, errors.Newf("file alias %q must be a non-empty base name", alias)
		}
		if alias != rec.Filename && !slices.Contains(rec.Aliases, alias) {
			rec.Aliases = append(rec.Aliases, alias)
		}
	}
	return rec, nil
}

// fileMultihash returns the hex sha2-256 multihash the store keeps.
func fileMultihash(f FileManifest) (string, error) {
	digest, mh := strings.TrimSpace(f.SHA256), strings.TrimSpace(f.Multihash)
	switch {
	case digest != "" && mh != "":
		return "", errors.New("set only one of sha256 and multihash")
	case digest != "":
		raw, err := hex.DecodeString(digest)
		if err != nil || len(raw) != 32 {
			return "", errors.Newf("sha256 %q is not a 64-character hex digest", digest)
		}
		encoded, err := multihash.Encode(raw, multihash.SHA2_256)
		if err != nil {
			return "", errors.Wrap(err, "encode multihash")
		}
		return hex.EncodeToString(encoded), nil
	case mh != "":
		// Only hashes the API can describe are accepted.
		if _, _, err := assemble.DecodeMultihash(mh); err != nil {
			return "", err
		}
		return strings.ToLower(mh), nil
	default:
		return "", errors.New("one of sha256 and multihash is required")
	}
}

func tags(kind string, names []string) []store.TagRecord {
	var out []store.TagRecord
	for _, n := range names {
		n = clean(n)
		if n == "" || slices.ContainsFunc(out, func(t store.TagRecord) bool { return t.Name == n }) {
			continue
		}
		out = append(out, store.TagRecord{Name: n, Kind: kind})
	}
	return out
}

func clean(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}

func cleanPtr(s *string) *string {
	if s == nil {
		return nil
	}
	c := clean(*s)
	if c == "" {
		return nil
	}
	return &c
}
