// Package catalog defines the published JSON shapes of the catalog API.
//
// These types are the API contract. Collections are always present in
// the JSON (never null), so every slice field must be non-nil when
// marshaled; optional scalars are pointers and omitted when nil.
package catalog

// Tag kinds.
const (
	KindPerson     = "person"
	KindIdentity   = "identity"
	KindDecade     = "decade"
	KindCollection = "collection"
)

// Artifact is one archival record in its latest version.
type Artifact struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Summary     string   `json:"summary"`
	Description *string  `json:"description,omitempty"`
	URL         string   `json:"url"`
	URLAliases  []string `json:"url_aliases"`
	Files       []File   `json:"files"`
	Links       []Link   `json:"links"`
	People      []string `json:"people"`
	Identities  []string `json:"identities"`
	FromYear    int64    `json:"from_year"`
	ToYear      *int64   `json:"to_year,omitempty"`
	Decades     []int    `json:"decades"`
	Collections []string `json:"collections"`
}

// File is a file attached to an artifact.
type File struct {
	Name          string   `json:"name"`
	Filename      string   `json:"filename"`
	MediaType     *string  `json:"media_type,omitempty"`
	Hash          string   `json:"hash"`
	HashAlgorithm string   `json:"hash_algorithm"`
	URL           string   `json:"url"`
	URLAliases    []string `json:"url_aliases"`
	Lang          *string  `json:"lang,omitempty"`
	Hidden        bool     `json:"hidden"`
}

// Link is an external link attached to an artifact.
type Link struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// Tag is an entry of the tag catalog.
type Tag struct {
	Name        string  `json:"name"`
	Kind        string  `json:"kind"`
	Description *string `json:"description,omitempty"`
}

// ArtifactList is one page of the artifact listing. NextCursor is set iff
// more artifacts exist under the same parameters.
type ArtifactList struct {
	Items      []Artifact `json:"items"`
	NextCursor string     `json:"next_cursor,omitempty"`
}

// TagList is the unpaginated tag catalog.
type TagList struct {
	Items []Tag `json:"items"`
}
