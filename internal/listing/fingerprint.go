package listing

import (
	"github.com/cockroachdb/errors"

	"github.com/roach88/catalog/internal/canon"
)

// FingerprintLen is the length of a params fingerprint in hex characters.
const FingerprintLen = 16

// Fingerprint returns a short hash of the parameters that shape the result
// order and membership of a listing. Limit and cursor are excluded: a
// client may change page size between pages.
//
// The hash is over canonical JSON, so neither field order nor the order of
// filter names affects it. It guards against accidental drift between
// pages, not forgery; cursors are authenticated separately.
func Fingerprint(sort SortField, dir Direction, filters Filters) (string, error) {
	filterObj := canon.Object{}
	for kind, names := range filters.Normalized() {
		filterObj[string(kind)] = canon.Strings(names...)
	}

	digest, err := canon.Hash(canon.DomainQueryParams, canon.Object{
		"sort":      canon.String(sort),
		"direction": canon.String(dir),
		"filters":   filterObj,
	})
	if err != nil {
		return "", errors.Wrap(err, "fingerprint params")
	}
	return digest[:FingerprintLen], nil
}

// Fingerprint returns the fingerprint of p's sort and filter parameters.
func (p Params) Fingerprint() (string, error) {
	return Fingerprint(p.Sort, p.Direction, p.Filters)
}
