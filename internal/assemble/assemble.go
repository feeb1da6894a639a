// Package assemble turns the flat row-sets of a store batch into nested
// catalog artifacts.
//
// Assembly is pure. It never queries, and the only errors it reports are
// for stored data it cannot represent (an unknown multihash, a decade tag
// that is not a year).
package assemble

import (
	"cmp"
	"encoding/hex"
	"net/url"
	"slices"
	"strconv"

	"github.com/cockroachdb/errors"
	"github.com/multiformats/go-multihash"

	"github.com/roach88/catalog/internal/catalog"
	"github.com/roach88/catalog/internal/store"
)

// Options carries the hosts public URLs are built on.
type Options struct {
	SiteDomain  string // Artifact pages: https://{SiteDomain}/artifacts/{slug}
	FilesDomain string // Files: https://{FilesDomain}/artifacts/{slug}/{filename}
}

// Assembler maps store rows to the published model.
type Assembler struct {
	opts Options
}

// New returns an Assembler that builds URLs from opts.
func New(opts Options) *Assembler {
	return &Assembler{opts: opts}
}

// GroupBy buckets rows by key. Rows keep their relative order within a
// bucket.
func GroupBy[K comparable, V any](rows []V, key func(V) K) map[K][]V {
	groups := make(map[K][]V)
	for _, r := range rows {
		k := key(r)
		groups[k] = append(groups[k], r)
	}
	return groups
}

// Artifacts assembles one artifact per parent row, in parent order. An
// empty result has no parents and yields an empty, non-nil slice.
func (a *Assembler) Artifacts(res *store.BatchResult) ([]catalog.Artifact, error) {
	out := make([]catalog.Artifact, 0, len(res.Artifacts))
	if len(res.Artifacts) == 0 {
		return out, nil
	}

	aliases := GroupBy(res.Aliases, func(r store.ArtifactAliasRow) int64 { return r.Artifact })
	files := GroupBy(res.Files, func(r store.FileRow) int64 { return r.Artifact })
	fileAliases := GroupBy(res.FileAliases, func(r store.FileAliasRow) int64 { return r.File })
	links := GroupBy(res.Links, func(r store.LinkRow) int64 { return r.Artifact })
	tags := GroupBy(res.Tags, func(r store.ArtifactTagRow) int64 { return r.Artifact })

	for _, row := range res.Artifacts {
		art, err := a.artifact(row, aliases[row.ID], files[row.ID], fileAliases, links[row.ID], tags[row.ID])
		if err != nil {
			return nil, errors.Wrapf(err, "assemble artifact %q", row.ArtifactID)
		}
		out = append(out, art)
	}
	return out, nil
}

func (a *Assembler) artifact(
	row store.ArtifactRow,
	aliases []store.ArtifactAliasRow,
	files []store.FileRow,
	fileAliases map[int64][]store.FileAliasRow,
	links []store.LinkRow,
	tags []store.ArtifactTagRow,
) (catalog.Artifact, error) {
	art := catalog.Artifact{
		ID:          row.ArtifactID,
		Title:       row.Title,
		Summary:     row.Summary,
		Description: row.Description,
		URL:         a.siteURL(row.Slug),
		URLAliases:  make([]string, 0, len(aliases)),
		Files:       make([]catalog.File, 0, len(files)),
		Links:       make([]catalog.Link, 0, len(links)),
		People:      []string{},
		Identities:  []string{},
		FromYear:    row.FromYear,
		ToYear:      row.ToYear,
		Decades:     []int{},
		Collections: []string{},
	}

	for _, alias := range aliases {
		art.URLAliases = append(art.URLAliases, a.siteURL(alias.Slug))
	}

	// Position is user-visible order; never trust the source order for it.
	files = slices.Clone(files)
	slices.SortStableFunc(files, func(x, y store.FileRow) int {
		return cmp.Or(cmp.Compare(x.Pos, y.Pos), cmp.Compare(x.ID, y.ID))
	})
	for _, f := range files {
		file, err := a.file(row.Slug, f, fileAliases[f.ID])
		if err != nil {
			return catalog.Artifact{}, err
		}
		art.Files = append(art.Files, file)
	}

	links = slices.Clone(links)
	slices.SortStableFunc(links, func(x, y store.LinkRow) int {
		return cmp.Or(cmp.Compare(x.Pos, y.Pos), cmp.Compare(x.ID, y.ID))
	})
	for _, l := range links {
		art.Links = append(art.Links, catalog.Link{Name: l.Name, URL: l.URL})
	}

	for _, t := range tags {
		switch t.Kind {
		case catalog.KindPerson:
			art.People = append(art.People, t.Name)
		case catalog.KindIdentity:
			art.Identities = append(art.Identities, t.Name)
		case catalog.KindDecade:
			decade, err := strconv.Atoi(t.Name)
			if err != nil {
				return catalog.Artifact{}, errors.Wrapf(err, "decade tag %q", t.Name)
			}
			art.Decades = append(art.Decades, decade)
		case catalog.KindCollection:
			art.Collections = append(art.Collections, t.Name)
		default:
			return catalog.Artifact{}, errors.Newf("unknown tag kind %q", t.Kind)
		}
	}

	return art, nil
}

func (a *Assembler) file(slug string, f store.FileRow, aliases []store.FileAliasRow) (catalog.File, error) {
	hash, alg, err := DecodeMultihash(f.Multihash)
	if err != nil {
		return catalog.File{}, errors.Wrapf(err, "file %q", f.Filename)
	}

	file := catalog.File{
		Name:          f.Name,
		Filename:      f.Filename,
		MediaType:     f.MediaType,
		Hash:          hash,
		HashAlgorithm: alg,
		URL:           a.fileURL(slug, f.Filename),
		URLAliases:    make([]string, 0, len(aliases)),
		Lang:          f.Lang,
		Hidden:        f.Hidden,
	}
	for _, alias := range aliases {
		file.URLAliases = append(file.URLAliases, a.fileURL(slug, alias.Filename))
	}
	return file, nil
}

// Tags maps tag catalog rows.
func Tags(rows []store.TagRow) []catalog.Tag {
	out := make([]catalog.Tag, 0, len(rows))
	for _, r := range rows {
		out = append(out, catalog.Tag{Name: r.Name, Kind: r.Kind, Description: r.Description})
	}
	return out
}

// sha2-256 is the only algorithm files are hashed with.
const (
	sha256Name = "sha2-256"
	sha256Len  = 32
)

// DecodeMultihash splits a hex-encoded multihash into its lowercase hex
// digest and algorithm name. Only sha2-256 is accepted.
func DecodeMultihash(s string) (hash, algorithm string, err error) {
	mh, err := multihash.FromHexString(s)
	if err != nil {
		return "", "", errors.Wrap(err, "parse multihash")
	}
	decoded, err := multihash.Decode(mh)
	if err != nil {
		return "", "", errors.Wrap(err, "decode multihash")
	}
	if decoded.Code != multihash.SHA2_256 || len(decoded.Digest) != sha256Len {
		return "", "", errors.Newf("unsupported multihash: code 0x%x, %d byte digest", decoded.Code, len(decoded.Digest))
	}
	return hex.EncodeToString(decoded.Digest), sha256Name, nil
}

func (a *Assembler) siteURL(slug string) string {
	u := url.URL{Scheme: "https", Host: a.opts.SiteDomain, Path: "/artifacts/" + slug}
	return u.String()
}

func (a *Assembler) fileURL(slug, filename string) string {
	u := url.URL{Scheme: "https", Host: a.opts.FilesDomain, Path: "/artifacts/" + slug + "/" + filename}
	return u.String()
}
