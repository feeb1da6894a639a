package plan

import (
	"github.com/cockroachdb/errors"

	"github.com/roach88/catalog/internal/canon"
	"github.com/roach88/catalog/internal/listing"
	"github.com/roach88/catalog/internal/queryir"
	"github.com/roach88/catalog/internal/store"
)

// Source aliases used by every plan.
const (
	artifacts       = "artifacts"
	artifactAliases = "artifact_aliases"
	files           = "files"
	fileAliases     = "file_aliases"
	links           = "links"
	artifactTags    = "artifact_tags"
	tags            = "tags"
)

// Position is the keyset position a continuation page starts after: the
// sort-key value and artifact id of the last item of the previous page.
type Position struct {
	Sort canon.Value
	ID   string
}

// latest is the version resolver: one row per artifact_id, the greatest
// version. Every artifact plan reads through it.
func latest() queryir.Latest {
	return queryir.Latest{Table: artifacts, Key: "artifact_id", Version: "version"}
}

func col(source, name string) queryir.Column {
	return queryir.Col(source, name)
}

func asc(source, name string) queryir.Order {
	return queryir.Order{Column: col(source, name), Direction: queryir.Asc}
}

// sortColumn maps a listing sort field to its artifacts column. Only the
// closed set of SortFields can reach query text.
func sortColumn(f listing.SortField) (string, error) {
	switch f {
	case listing.SortID:
		return "artifact_id", nil
	case listing.SortTitle:
		return "title", nil
	case listing.SortFromYear:
		return "from_year", nil
	}
	return "", errors.Newf("unknown sort field %q", f)
}

func direction(d listing.Direction) (queryir.Direction, error) {
	switch d {
	case listing.Asc:
		return queryir.Asc, nil
	case listing.Desc:
		return queryir.Desc, nil
	}
	return "", errors.Newf("unknown direction %q", d)
}

// totalOrder is (sort key, artifact_id) in one direction; for the id sort
// it collapses to artifact_id alone.
func totalOrder(f listing.SortField, d listing.Direction) ([]queryir.Column, queryir.Direction, error) {
	name, err := sortColumn(f)
	if err != nil {
		return nil, "", err
	}
	dir, err := direction(d)
	if err != nil {
		return nil, "", err
	}

	keys := []queryir.Column{col(artifacts, name)}
	if f != listing.SortID {
		keys = append(keys, col(artifacts, "artifact_id"))
	}
	return keys, dir, nil
}

// List plans one page of the artifact listing.
//
// The page statement fetches p.Limit+1 rows so the caller can tell whether
// another page exists without a second query. With after set, rows
// strictly past after in the total order are returned and an anchor
// statement checks that after.ID is still in the latest-version set.
func List(p listing.Params, after *Position) (store.Batch, error) {
	if p.Limit < listing.MinLimit || p.Limit > listing.MaxLimit {
		return store.Batch{}, errors.Newf("limit %d out of range", p.Limit)
	}

	keys, dir, err := totalOrder(p.Sort, p.Direction)
	if err != nil {
		return store.Batch{}, err
	}

	var where []queryir.Predicate
	where = append(where, filterPredicates(p.Filters)...)

	var anchor *queryir.Select
	if after != nil {
		pred, err := afterPredicate(p.Sort, keys, dir, *after)
		if err != nil {
			return store.Batch{}, err
		}
		where = append(where, pred)
		anchor = anchorSelect(after.ID)
	}

	order := make([]queryir.Order, len(keys))
	for i, k := range keys {
		order[i] = queryir.Order{Column: k, Direction: dir}
	}

	page := queryir.Select{
		From:    latest(),
		OrderBy: order,
		Limit:   p.Limit + 1,
	}
	if len(where) > 0 {
		page.Where = queryir.And{Predicates: where}
	}

	b := batchFor(page)
	b.Anchor = anchor
	return b, nil
}

// Artifact plans the lookup of one artifact's latest version.
func Artifact(id string) store.Batch {
	return batchFor(queryir.Select{
		From:    latest(),
		Where:   queryir.Equals{Column: col(artifacts, "artifact_id"), Value: canon.String(id)},
		OrderBy: []queryir.Order{asc(artifacts, "artifact_id")},
		Limit:   1,
	})
}

// Tags plans the tag catalog: every tag referenced by at least one latest
// artifact version, ordered by kind then name.
func Tags() queryir.Select {
	return queryir.Select{
		Distinct: true,
		Columns:  queryir.Cols(tags, store.TagColumns...),
		From:     tagJoin(),
		Where: queryir.InQuery{
			Column: col(artifactTags, "artifact"),
			Query: queryir.Select{
				Columns: queryir.Cols(artifacts, "id"),
				From:    latest(),
			},
		},
		OrderBy: []queryir.Order{asc(tags, "kind"), asc(tags, "name")},
	}
}

// filterPredicates builds one membership test per filter kind. Within a
// kind any listed name matches; the kinds are ANDed by the caller.
func filterPredicates(f listing.Filters) []queryir.Predicate {
	var preds []queryir.Predicate
	for _, kind := range listing.FilterKinds {
		names := f[kind]
		if len(names) == 0 {
			continue
		}
		values := make([]canon.Value, len(names))
		for i, n := range names {
			values[i] = canon.String(n)
		}
		preds = append(preds, queryir.InQuery{
			Column: col(artifacts, "id"),
			Query: queryir.Select{
				Columns: queryir.Cols(artifactTags, "artifact"),
				From:    tagJoin(),
				Where: queryir.And{Predicates: []queryir.Predicate{
					queryir.Equals{Column: col(tags, "kind"), Value: canon.String(kind.TagKind())},
					queryir.In{Column: col(tags, "name"), Values: values},
				}},
			},
		})
	}
	return preds
}

func afterPredicate(f listing.SortField, keys []queryir.Column, dir queryir.Direction, pos Position) (queryir.Predicate, error) {
	if pos.ID == "" {
		return nil, errors.New("position has no artifact id")
	}

	id := canon.String(pos.ID)
	if f == listing.SortID {
		return queryir.After{Keys: keys, Values: []canon.Value{id}, Direction: dir}, nil
	}

	switch pos.Sort.(type) {
	case canon.Int:
		if !f.Numeric() {
			return nil, errors.Newf("integer position for lexical sort %q", f)
		}
	case canon.String:
		if f.Numeric() {
			return nil, errors.Newf("string position for numeric sort %q", f)
		}
	default:
		return nil, errors.Newf("unsupported position value %T", pos.Sort)
	}
	return queryir.After{Keys: keys, Values: []canon.Value{pos.Sort, id}, Direction: dir}, nil
}

// anchorSelect looks the previous page's last artifact up in the latest
// set, ignoring filters: the position must exist, whether or not it still
// matches.
func anchorSelect(id string) *queryir.Select {
	return &queryir.Select{
		Columns: queryir.Cols(artifacts, "artifact_id"),
		From:    latest(),
		Where:   queryir.Equals{Column: col(artifacts, "artifact_id"), Value: canon.String(id)},
		OrderBy: []queryir.Order{asc(artifacts, "artifact_id")},
		Limit:   1,
	}
}

func tagJoin() queryir.Join {
	return queryir.Join{
		Left:  queryir.Table{Name: artifactTags},
		Right: queryir.Table{Name: tags},
		On:    []queryir.ColumnPair{{Left: col(artifactTags, "tag"), Right: col(tags, "id")}},
	}
}

// batchFor expands a page selection (source, filter, order, limit; no
// columns) into the parent statement and one statement per child row-set.
// Children are restricted to the page with the same selection projected
// to artifacts.id, so every statement sees the same rows.
func batchFor(page queryir.Select) store.Batch {
	parents := page
	parents.Columns = queryir.Cols(artifacts, store.ArtifactColumns...)

	ids := page
	ids.Columns = queryir.Cols(artifacts, "id")

	inPage := func(source, column string) queryir.Predicate {
		return queryir.InQuery{Column: col(source, column), Query: ids}
	}

	return store.Batch{
		Artifacts: parents,
		Aliases: queryir.Select{
			Columns: queryir.Cols(artifactAliases, store.ArtifactAliasColumns...),
			From:    queryir.Table{Name: artifactAliases},
			Where:   inPage(artifactAliases, "artifact"),
			OrderBy: []queryir.Order{asc(artifactAliases, "artifact"), asc(artifactAliases, "slug")},
		},
		Files: queryir.Select{
			Columns: queryir.Cols(files, store.FileColumns...),
			From:    queryir.Table{Name: files},
			Where:   inPage(files, "artifact"),
			OrderBy: []queryir.Order{asc(files, "artifact"), asc(files, "pos"), asc(files, "id")},
		},
		FileAliases: queryir.Select{
			Columns: queryir.Cols(fileAliases, store.FileAliasColumns...),
			From:    queryir.Table{Name: fileAliases},
			Where: queryir.InQuery{
				Column: col(fileAliases, "file"),
				Query: queryir.Select{
					Columns: queryir.Cols(files, "id"),
					From:    queryir.Table{Name: files},
					Where:   inPage(files, "artifact"),
				},
			},
			OrderBy: []queryir.Order{asc(fileAliases, "file"), asc(fileAliases, "filename")},
		},
		Links: queryir.Select{
			Columns: queryir.Cols(links, store.LinkColumns...),
			From:    queryir.Table{Name: links},
			Where:   inPage(links, "artifact"),
			OrderBy: []queryir.Order{asc(links, "artifact"), asc(links, "pos"), asc(links, "id")},
		},
		Tags: queryir.Select{
			Columns: append(queryir.Cols(artifactTags, "artifact"), queryir.Cols(tags, store.TagColumns...)...),
			From:    tagJoin(),
			Where:   inPage(artifactTags, "artifact"),
			OrderBy: []queryir.Order{asc(artifactTags, "artifact"), asc(tags, "kind"), asc(tags, "name")},
		},
	}
}
