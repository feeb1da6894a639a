// Package paging composes cursor, fingerprint, planner, store and
// assembler into the three catalog read operations.
//
// A listing request runs as:
//
//  1. Decode the cursor, if any (InvalidCursor)
//  2. Compare its fingerprint to the request's (InconsistentSortParams)
//  3. Plan the page and read it in one snapshot
//  4. Fail if the cursor's anchor is gone (CursorPositionLost)
//  5. Assemble, and seal a new cursor when more rows remain
//
// Steps 1 and 2 happen before any storage access. Nothing here writes, so
// every failure is safe to retry.
package paging

import (
	"context"

	"github.com/cockroachdb/errors"

	"github.com/roach88/catalog/internal/assemble"
	"github.com/roach88/catalog/internal/canon"
	"github.com/roach88/catalog/internal/catalog"
	"github.com/roach88/catalog/internal/cursor"
	"github.com/roach88/catalog/internal/listing"
	"github.com/roach88/catalog/internal/plan"
	"github.com/roach88/catalog/internal/problem"
	"github.com/roach88/catalog/internal/queryir"
	"github.com/roach88/catalog/internal/store"
)

// Reader is the storage the service reads from. *store.Store implements
// it; ReadBatch must run the whole batch against one snapshot.
type Reader interface {
	ReadBatch(ctx context.Context, b store.Batch) (*store.BatchResult, error)
	ReadTags(ctx context.Context, q queryir.Select) ([]store.TagRow, error)
}

// Service serves catalog reads. It holds only immutable collaborators and
// is safe for concurrent use.
type Service struct {
	reader    Reader
	codec     *cursor.Codec
	assembler *assemble.Assembler
}

// NewService wires a Service.
func NewService(reader Reader, codec *cursor.Codec, assembler *assemble.Assembler) *Service {
	return &Service{reader: reader, codec: codec, assembler: assembler}
}

// ListArtifacts returns one page of latest artifacts. NextCursor is set iff
// at least one more artifact exists under the same parameters.
func (s *Service) ListArtifacts(ctx context.Context, p listing.Params) (catalog.ArtifactList, error) {
	fingerprint, err := p.Fingerprint()
	if err != nil {
		return catalog.ArtifactList{}, err
	}

	var after *plan.Position
	if p.Cursor != "" {
		state, err := s.codec.Decode(p.Cursor)
		if err != nil {
			return catalog.ArtifactList{}, err
		}
		if state.Fingerprint != fingerprint {
			return catalog.ArtifactList{}, problem.InconsistentSortParams(state.Fingerprint, fingerprint)
		}
		after = &plan.Position{Sort: state.LastSort, ID: state.LastID}
	}

	batch, err := plan.List(p, after)
	if err != nil {
		return catalog.ArtifactList{}, errors.Wrap(err, "plan page")
	}

	res, err := s.reader.ReadBatch(ctx, batch)
	if err != nil {
		return catalog.ArtifactList{}, errors.Wrap(err, "read page")
	}
	if !res.AnchorFound {
		return catalog.ArtifactList{}, problem.CursorPositionLost(after.ID)
	}

	// The plan fetched one row past the page; its presence is the only
	// signal that another page exists.
	more := len(res.Artifacts) > p.Limit
	if more {
		res.Artifacts = res.Artifacts[:p.Limit]
	}

	items, err := s.assembler.Artifacts(res)
	if err != nil {
		return catalog.ArtifactList{}, err
	}

	list := catalog.ArtifactList{Items: items}
	if more {
		last := res.Artifacts[len(res.Artifacts)-1]
		token, err := s.codec.Encode(cursor.State{
			LastSort:    SortValue(p.Sort, last),
			LastID:      last.ArtifactID,
			Fingerprint: fingerprint,
		})
		if err != nil {
			return catalog.ArtifactList{}, err
		}
		list.NextCursor = token
	}
	return list, nil
}

// GetArtifact returns the latest version of one artifact.
func (s *Service) GetArtifact(ctx context.Context, id string) (catalog.Artifact, error) {
	res, err := s.reader.ReadBatch(ctx, plan.Artifact(id))
	if err != nil {
		return catalog.Artifact{}, errors.Wrapf(err, "read artifact %q", id)
	}
	if len(res.Artifacts) == 0 {
		return catalog.Artifact{}, problem.ArtifactNotFound(id)
	}

	items, err := s.assembler.Artifacts(res)
	if err != nil {
		return catalog.Artifact{}, err
	}
	return items[0], nil
}

// ListTags returns every tag referenced by a latest artifact version.
func (s *Service) ListTags(ctx context.Context) (catalog.TagList, error) {
	rows, err := s.reader.ReadTags(ctx, plan.Tags())
	if err != nil {
		return catalog.TagList{}, err
	}
	return catalog.TagList{Items: assemble.Tags(rows)}, nil
}

// SortValue is the value of row's sort key under field, typed the way the
// planner compares it.
func SortValue(field listing.SortField, row store.ArtifactRow) canon.Value {
	switch field {
	case listing.SortTitle:
		return canon.String(row.Title)
	case listing.SortFromYear:
		return canon.Int(row.FromYear)
	default:
		return canon.String(row.ArtifactID)
	}
}
