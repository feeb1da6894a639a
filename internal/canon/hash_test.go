package canon

import (
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashIsDeterministic(t *testing.T) {
	a, err := Hash(DomainQueryParams, Object{"x": Int(1), "y": String("z")})
	require.NoError(t, err)

	b, err := Hash(DomainQueryParams, Object{"y": String("z"), "x": Int(1)})
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Len(t, a, 64)
}

func TestHashDomainSeparation(t *testing.T) {
	v := Object{"x": Int(1)}

	a, err := Hash("one/v1", v)
	require.NoError(t, err)
	b, err := Hash("two/v1", v)
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestHashUsesNullSeparator(t *testing.T) {
	got, err := Hash("d", String("x"))
	require.NoError(t, err)

	want := sha256.Sum256([]byte("d\x00\"x\""))
	assert.Equal(t, hex.EncodeToString(want[:]), got)
}

func TestHashPropagatesMarshalError(t *testing.T) {
	_, err := Hash(DomainQueryParams, Array{nil})
	assert.Error(t, err)
}
