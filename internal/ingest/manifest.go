// Package ingest loads catalog manifests and appends them to the store.
//
// A manifest lists artifacts in CUE, YAML or JSON, picked by file
// extension. Every artifact in a manifest becomes a new version of that
// artifact, and one manifest is appended in one transaction: either all of
// its artifacts get a new version or none do.
//
//	artifacts: [{
//		id:        "a001"
//		title:     "Pride Zine"
//		summary:   "A zine."
//		from_year: 1994
//		files: [{filename: "scan.pdf", sha256: "…"}]
//		people: ["Jane Doe"]
//	}]
package ingest

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"
)

// Format is a manifest encoding.
type Format string

const (
	FormatCUE  Format = "cue"
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// FormatOf picks the format from a file extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".cue":
		return FormatCUE, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	default:
		return "", errors.Newf("%s: unsupported manifest extension (want .cue, .yaml, .yml or .json)", path)
	}
}

// Manifest is the decoded content of one manifest file.
type Manifest struct {
	Artifacts []ArtifactManifest `json:"artifacts" yaml:"artifacts"`
	// Tags optionally describes tags used by the artifacts.
	Tags []TagManifest `json:"tags,omitempty" yaml:"tags,omitempty"`
}

// ArtifactManifest describes one artifact version.
type ArtifactManifest struct {
	ID          string   `json:"id" yaml:"id"`
	Slug        string   `json:"slug,omitempty" yaml:"slug,omitempty"`
	Title       string   `json:"title" yaml:"title"`
	Summary     string   `json:"summary" yaml:"summary"`
	Description *string  `json:"description,omitempty" yaml:"description,omitempty"`
	FromYear    int64    `json:"from_year" yaml:"from_year"`
	ToYear      *int64   `json:"to_year,omitempty" yaml:"to_year,omitempty"`
	Aliases     []string `json:"aliases,omitempty" yaml:"aliases,omitempty"`

	Files []FileManifest `json:"files,omitempty" yaml:"files,omitempty"`
	Links []LinkManifest `json:"links,omitempty" yaml:"links,omitempty"`

	People      []string `json:"people,omitempty" yaml:"people,omitempty"`
	Identities  []string `json:"identities,omitempty" yaml:"identities,omitempty"`
	Decades     []int    `json:"decades,omitempty" yaml:"decades,omitempty"`
	Collections []string `json:"collections,omitempty" yaml:"collections,omitempty"`
}

// FileManifest describes a file. Exactly one of SHA256 (hex digest) and
// Multihash (hex multihash) must be set.
type FileManifest struct {
	Filename  string   `json:"filename" yaml:"filename"`
	Name      string   `json:"name,omitempty" yaml:"name,omitempty"`
	MediaType *string  `json:"media_type,omitempty" yaml:"media_type,omitempty"`
	SHA256    string   `json:"sha256,omitempty" yaml:"sha256,omitempty"`
	Multihash string   `json:"multihash,omitempty" yaml:"multihash,omitempty"`
	Lang      *string  `json:"lang,omitempty" yaml:"lang,omitempty"`
	Hidden    bool     `json:"hidden,omitempty" yaml:"hidden,omitempty"`
	Aliases   []string `json:"aliases,omitempty" yaml:"aliases,omitempty"`
}

type LinkManifest struct {
	Name string `json:"name" yaml:"name"`
	URL  string `json:"url" yaml:"url"`
}

type TagManifest struct {
	Name        string `json:"name" yaml:"name"`
	Kind        string `json:"kind" yaml:"kind"`
	Description string `json:"description" yaml:"description"`
}

// LoadFile reads and decodes the manifest at path.
func LoadFile(path string) (*Manifest, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read manifest")
	}
	return Parse(data, format, path)
}

// Parse decodes a manifest. filename is used in error positions only.
// Unknown fields are errors in every format.
func Parse(data []byte, format Format, filename string) (*Manifest, error) {
	var (
		m   Manifest
		err error
	)
	switch format {
	case FormatCUE:
		err = parseCUE(data, filename, &m)
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		err = dec.Decode(&m)
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		err = dec.Decode(&m)
	default:
		err = errors.Newf("unknown manifest format %q", format)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "decode %s manifest %s", format, filename)
	}
	return &m, nil
}

// manifestSchema closes the top level and every artifact, so a misspelled
// field fails instead of being dropped.
const manifestSchema = `
#File: {
	filename:    string
	name?:       string
	media_type?: string
	sha256?:     string
	multihash?:  string
	lang?:       string
	hidden?:     bool
	aliases?: [...string]
}
#Artifact: {
	id:           string
	slug?:        string
	title:        string
	summary:      string
	description?: string
	from_year:    int
	to_year?:     int
	aliases?: [...string]
	files?: [...#File]
	links?: [...{name: string, url: string}]
	people?: [...string]
	identities?: [...string]
	decades?: [...int]
	collections?: [...string]
}
#Manifest: {
	artifacts: [...#Artifact]
	tags?: [...{name: string, kind: "person" | "identity" | "decade" | "collection", description: string}]
}
`

func parseCUE(data []byte, filename string, m *Manifest) error {
	ctx := cuecontext.New()

	schema := ctx.CompileString(manifestSchema, cue.Filename("manifest-schema.cue"))
	if err := schema.Err(); err != nil {
		return errors.Wrap(err, "compile manifest schema")
	}

	v := ctx.CompileBytes(data, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return err
	}

	v = schema.LookupPath(cue.ParsePath("#Manifest")).Unify(v)
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return err
	}
	return v.Decode(m)
}
