package ingest

import (
	"context"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/roach88/catalog/internal/logging"
	"github.com/roach88/catalog/internal/store"
)

// Appender is the write side of the store.
type Appender interface {
	AppendArtifacts(ctx context.Context, records []store.ArtifactRecord) ([]store.Appended, error)
}

// Importer appends manifests to a store.
type Importer struct {
	store Appender
	log   *zap.SugaredLogger
}

// NewImporter returns an importer. A nil log discards.
func NewImporter(s Appender, log *zap.SugaredLogger) *Importer {
	if log == nil {
		log = logging.Nop()
	}
	return &Importer{store: s, log: log}
}

// ImportFile appends every artifact in the manifest at path. Nothing is written
// unless the whole manifest is valid and appends cleanly.
func (i *Importer) ImportFile(ctx context.Context, path string) ([]store.Appended, error) {
	m, err := LoadFile(path)
	if err != nil {
		return nil, err
	}
	return i.Import(ctx, m, path)
}

// Import appends an already decoded manifest. source names it in logs.
func (i *Importer) Import(ctx context.Context, m *Manifest, source string) ([]store.Appended, error) {
	records, err := m.Records()
	if err != nil {
		return nil, errors.Wrapf(err, "validate %s", source)
	}
	if len(records) == 0 {
		i.log.Warnw("manifest has no artifacts", "source", source)
		return []store.Appended{}, nil
	}

	appended, err := i.store.AppendArtifacts(ctx, records)
	if err != nil {
		return nil, errors.Wrapf(err, "import %s", source)
	}
	for _, a := range appended {
		i.log.Debugw("artifact appended", "source", source, "artifact_id", a.ArtifactID, "version", a.Version)
	}
	i.log.Infow("manifest imported", "source", source, "artifacts", len(appended))
	return appended, nil
}
