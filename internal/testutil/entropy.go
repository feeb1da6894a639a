package testutil

// FixedEntropy is an io.Reader that yields the same byte forever.
//
// Cursor codecs built with it produce byte-identical tokens for identical
// states, which is what golden snapshots need. Never use it outside tests.
//
// Stateless and safe for concurrent use.
type FixedEntropy byte

// Read fills p with the fixed byte.
func (e FixedEntropy) Read(p []byte) (int, error) {
	for i := range p {
		p[i] = byte(e)
	}
	return len(p), nil
}
