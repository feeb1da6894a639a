package listing

import (
	"fmt"
	"net/url"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"github.com/roach88/catalog/internal/problem"
)

// Limit bounds for one page.
const (
	DefaultLimit = 10
	MinLimit     = 1
	MaxLimit     = 250
)

// SortField is the primary sort key of a listing. The artifact id is
// always the final tie-break.
type SortField string

const (
	SortID       SortField = "id"
	SortTitle    SortField = "title"
	SortFromYear SortField = "from_year"
)

// SortFields lists every accepted sort field.
var SortFields = []SortField{SortID, SortTitle, SortFromYear}

// Numeric reports whether the field sorts as an integer.
func (f SortField) Numeric() bool { return f == SortFromYear }

// Direction is the sort direction of a listing.
type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// FilterKind is a tag filter query parameter.
type FilterKind string

const (
	FilterPeople      FilterKind = "people"
	FilterIdentities  FilterKind = "identities"
	FilterDecades     FilterKind = "decades"
	FilterCollections FilterKind = "collections"
)

// FilterKinds lists every filter in a fixed order.
var FilterKinds = []FilterKind{FilterPeople, FilterIdentities, FilterDecades, FilterCollections}

// TagKind returns the tags.kind value the filter matches.
func (k FilterKind) TagKind() string {
	switch k {
	case FilterPeople:
		return "person"
	case FilterIdentities:
		return "identity"
	case FilterDecades:
		return "decade"
	case FilterCollections:
		return "collection"
	}
	return ""
}

// Filters maps a filter kind to the tag names it accepts. Names are OR-ed
// within a kind and kinds are AND-ed together. Kinds with no names are
// absent.
type Filters map[FilterKind][]string

// Normalized returns a copy with names sorted and de-duplicated and empty
// kinds dropped.
func (f Filters) Normalized() Filters {
	out := Filters{}
	for kind, names := range f {
		n := slices.Clone(names)
		slices.Sort(n)
		n = slices.Compact(n)
		if len(n) > 0 {
			out[kind] = n
		}
	}
	return out
}

// Params are the validated parameters of an artifact listing request.
type Params struct {
	Limit     int
	Cursor    string // Raw token; "" on the first page
	Sort      SortField
	Direction Direction
	Filters   Filters // Normalized
}

// Query parameter names.
const (
	paramLimit     = "limit"
	paramCursor    = "cursor"
	paramSort      = "sort"
	paramDirection = "direction"
)

var (
	digits = regexp.MustCompile(`^[0-9]+$`)
	year   = regexp.MustCompile(`^[0-9]{4}$`)
)

// ParseList validates the query string of GET /v0/artifacts/.
//
// instance is the request path, reported back in problem responses.
// Validation never touches storage.
func ParseList(q url.Values, instance string) (Params, error) {
	if err := rejectUnknown(q, instance, listParams()); err != nil {
		return Params{}, err
	}

	p := Params{
		Limit:     DefaultLimit,
		Sort:      SortID,
		Direction: Asc,
		Filters:   Filters{},
	}

	if raw, ok, err := single(q, paramLimit, instance); err != nil {
		return Params{}, err
	} else if ok {
		limit, valid := parseLimit(raw)
		if !valid {
			return Params{}, problem.MalformedRequest(
				fmt.Sprintf("The 'limit' parameter must be an integer between %d and %d.", MinLimit, MaxLimit), instance)
		}
		p.Limit = limit
	}

	if raw, ok, err := single(q, paramCursor, instance); err != nil {
		return Params{}, err
	} else if ok {
		if strings.TrimSpace(raw) == "" {
			return Params{}, problem.MalformedRequest("The 'cursor' parameter must not be blank.", instance)
		}
		p.Cursor = raw
	}

	if raw, ok, err := single(q, paramSort, instance); err != nil {
		return Params{}, err
	} else if ok {
		if !slices.Contains(SortFields, SortField(raw)) {
			return Params{}, problem.MalformedRequest(
				"The 'sort' parameter must be one of 'id', 'title' or 'from_year'.", instance)
		}
		p.Sort = SortField(raw)
	}

	if raw, ok, err := single(q, paramDirection, instance); err != nil {
		return Params{}, err
	} else if ok {
		if raw != string(Asc) && raw != string(Desc) {
			return Params{}, problem.MalformedRequest(
				"The 'direction' parameter must be 'asc' or 'desc'.", instance)
		}
		p.Direction = Direction(raw)
	}

	for _, kind := range FilterKinds {
		names, valid := splitValues(q[string(kind)])
		if !valid {
			return Params{}, problem.MalformedRequest(
				"The '"+string(kind)+"' parameter must be valid UTF-8.", instance)
		}
		if kind == FilterDecades {
			for _, n := range names {
				if !year.MatchString(n) {
					return Params{}, problem.MalformedRequest(
						"The 'decades' parameter must be a list of four-digit years.", instance)
				}
			}
		}
		if len(names) > 0 {
			p.Filters[kind] = names
		}
	}
	p.Filters = p.Filters.Normalized()

	return p, nil
}

// ParseNone validates the query string of an endpoint that takes no
// parameters.
func ParseNone(q url.Values, instance string) error {
	return rejectUnknown(q, instance, nil)
}

func listParams() []string {
	names := []string{paramLimit, paramCursor, paramSort, paramDirection}
	for _, k := range FilterKinds {
		names = append(names, string(k))
	}
	return names
}

func rejectUnknown(q url.Values, instance string, known []string) error {
	var unknown []string
	for name := range q {
		if !slices.Contains(known, name) {
			unknown = append(unknown, name)
		}
	}
	if len(unknown) == 0 {
		return nil
	}
	slices.Sort(unknown)
	return problem.UnrecognizedQueryParams(unknown, instance)
}

// single returns the one value of a scalar parameter.
func single(q url.Values, name, instance string) (string, bool, error) {
	values, ok := q[name]
	if !ok {
		return "", false, nil
	}
	if len(values) != 1 {
		return "", false, problem.MalformedRequest(
			"The '"+name+"' parameter must not be given more than once.", instance)
	}
	return values[0], true, nil
}

// parseLimit accepts decimal digits only, so "+5" and "5.0" fail.
func parseLimit(raw string) (int, bool) {
	if !digits.MatchString(raw) {
		return 0, false
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < MinLimit || n > MaxLimit {
		return 0, false
	}
	return n, true
}

// splitValues accepts both repeated parameters and comma-separated lists.
// Names are NFC normalized, the form tags are stored in, so the query and
// the fingerprint see the same value. It reports false on invalid UTF-8.
func splitValues(values []string) ([]string, bool) {
	var out []string
	for _, v := range values {
		if !utf8.ValidString(v) {
			return nil, false
		}
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, norm.NFC.String(part))
			}
		}
	}
	return out, true
}
