package canon

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/cockroachdb/errors"
)

// Domain prefixes for hashing. The version suffix leaves room to migrate
// the algorithm without colliding with old digests.
const (
	DomainQueryParams = "catalog/query-params/v1"
)

// sumWithDomain computes SHA256(domain + 0x00 + data).
// The null byte keeps the domain/data boundary unambiguous.
func sumWithDomain(domain string, data []byte) []byte {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return h.Sum(nil)
}

// Hash returns the hex SHA-256 of v's canonical encoding under domain.
func Hash(domain string, v Value) (string, error) {
	data, err := Marshal(v)
	if err != nil {
		return "", errors.Wrap(err, "hash: canonical marshal")
	}
	return hex.EncodeToString(sumWithDomain(domain, data)), nil
}
