package testutil

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/catalog/internal/canon"
	"github.com/roach88/catalog/internal/cursor"
)

func TestIDSequence(t *testing.T) {
	seq := NewIDSequence("")
	assert.Equal(t, "a001", seq.Next())
	assert.Equal(t, "a002", seq.Next())

	seq.Reset()
	assert.Equal(t, "a001", seq.Next())

	assert.Equal(t, "z001", NewIDSequence("z").Next())
}

func TestIDSequence_ThreadSafe(t *testing.T) {
	seq := NewIDSequence("a")
	const goroutines, calls = 20, 50

	var (
		mu   sync.Mutex
		seen = map[string]bool{}
		wg   sync.WaitGroup
	)
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < calls; j++ {
				id := seq.Next()
				mu.Lock()
				seen[id] = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Len(t, seen, goroutines*calls, "every id is unique")
}

func TestFixedEntropy(t *testing.T) {
	buf := make([]byte, 4)
	n, err := FixedEntropy(7).Read(buf)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.Equal(t, []byte{7, 7, 7, 7}, buf)
}

func TestStableCodec_Deterministic(t *testing.T) {
	s := cursor.State{LastSort: canon.String("a001"), LastID: "a001", Fingerprint: "0123456789abcdef"}

	a, err := StableCodec(t).Encode(s)
	require.NoError(t, err)
	b, err := StableCodec(t).Encode(s)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestMultihash(t *testing.T) {
	// sha2-256("abc")
	assert.Equal(t,
		"1220ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad",
		Multihash("abc"))
}

func TestArtifactBuilder_RoundTripsThroughStore(t *testing.T) {
	s := OpenStore(t)

	rec := Artifact("a001").
		Title("Pride").
		Description("Long").
		FromYear(1994).
		ToYear(1995).
		Alias("old").
		File("scan.pdf", 0, "old.pdf").
		Link("Source", "https://example.org", 0).
		Tag("person", "Jane Doe").
		Build()

	assert.Equal(t, "Pride", rec.Title)
	require.Len(t, rec.Files, 1)
	assert.Equal(t, []string{"old.pdf"}, rec.Files[0].Aliases)

	Seed(t, s, rec)

	var count int
	require.NoError(t, s.DB().QueryRowContext(context.Background(), `SELECT COUNT(*) FROM artifacts`).Scan(&count))
	assert.Equal(t, 1, count)
}
