package cursor

import (
	"crypto/rand"
	"encoding/base64"
	"io"

	"github.com/cockroachdb/errors"

	"github.com/roach88/catalog/internal/canon"
	"github.com/roach88/catalog/internal/problem"
)

// payloadVersion is the "v" field of the plaintext. Tokens with any other
// version are rejected.
const payloadVersion = 1

// associatedData binds a sealed token to its purpose, so ciphertext from
// any other use of the same key cannot be replayed as a cursor.
var associatedData = []byte("catalog/cursor/v1")

// tokenEncoding is strict: no padding, and unused trailing bits must be
// zero, so every character of a token is significant.
var tokenEncoding = base64.RawURLEncoding.Strict()

// State is the pagination position carried by a cursor.
type State struct {
	// LastSort is the sort-key value of the last item returned: a
	// canon.String for lexical sorts, a canon.Int for numeric ones.
	LastSort canon.Value
	// LastID is the artifact id of the last item returned; the tie-break.
	LastID string
	// Fingerprint is the params fingerprint of the page that produced the
	// cursor.
	Fingerprint string
}

// Codec seals and opens cursor tokens. It holds no mutable state and is
// safe for concurrent use.
type Codec struct {
	key    *Key
	random io.Reader
}

// Option configures a Codec.
type Option func(*Codec)

// WithRandom replaces the nonce source. Only tests that need byte-stable
// tokens should use it; a repeating nonce breaks AEAD confidentiality.
func WithRandom(r io.Reader) Option {
	return func(c *Codec) { c.random = r }
}

// NewCodec returns a codec that seals with key.
func NewCodec(key *Key, opts ...Option) *Codec {
	c := &Codec{key: key, random: rand.Reader}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Encode serializes s canonically and seals it under a fresh nonce.
// Two encodings of the same state never produce the same token.
//
// Strings are kept byte for byte, not NFC normalized: the sort key is
// compared against stored bytes, so it must come back exactly as read.
func (c *Codec) Encode(s State) (string, error) {
	plaintext, err := canon.MarshalVerbatim(s.payload())
	if err != nil {
		return "", errors.Wrap(err, "encode cursor")
	}

	nonce := make([]byte, NonceSize, NonceSize+len(plaintext)+c.key.aead.Overhead())
	if _, err := io.ReadFull(c.random, nonce); err != nil {
		return "", errors.Wrap(err, "encode cursor: read nonce")
	}

	sealed := c.key.aead.Seal(nonce, nonce, plaintext, associatedData)
	return tokenEncoding.EncodeToString(sealed), nil
}

// Decode opens a token produced by Encode.
//
// Every failure, whatever its cause, is problem.ErrInvalidCursor. The cause
// is attached as a secondary error for logs and never reaches the client.
func (c *Codec) Decode(token string) (State, error) {
	s, err := c.decode(token)
	if err != nil {
		return State{}, problem.InvalidCursor(err)
	}
	return s, nil
}

func (c *Codec) decode(token string) (State, error) {
	raw, err := tokenEncoding.DecodeString(token)
	if err != nil {
		return State{}, errors.Wrap(err, "decode token")
	}
	if len(raw) < NonceSize+c.key.aead.Overhead() {
		return State{}, errors.Newf("token too short: %d bytes", len(raw))
	}

	nonce, ciphertext := raw[:NonceSize], raw[NonceSize:]
	plaintext, err := c.key.aead.Open(nil, nonce, ciphertext, associatedData)
	if err != nil {
		return State{}, errors.Wrap(err, "open token")
	}

	v, err := canon.Decode(plaintext)
	if err != nil {
		return State{}, errors.Wrap(err, "parse payload")
	}
	return stateFromPayload(v)
}

// payload is the canonical plaintext:
//
//	{"last_key":{"id":"a002","sort":"a002"},"params_fingerprint":"…","v":1}
func (s State) payload() canon.Object {
	return canon.Object{
		"v": canon.Int(payloadVersion),
		"last_key": canon.Object{
			"sort": s.LastSort,
			"id":   canon.String(s.LastID),
		},
		"params_fingerprint": canon.String(s.Fingerprint),
	}
}

func stateFromPayload(v canon.Value) (State, error) {
	obj, ok := v.(canon.Object)
	if !ok || len(obj) != 3 {
		return State{}, errors.New("payload is not a cursor object")
	}
	if ver, ok := obj["v"].(canon.Int); !ok || ver != payloadVersion {
		return State{}, errors.Newf("unsupported payload version %v", obj["v"])
	}

	fingerprint, ok := obj["params_fingerprint"].(canon.String)
	if !ok || fingerprint == "" {
		return State{}, errors.New("missing params_fingerprint")
	}

	lastKey, ok := obj["last_key"].(canon.Object)
	if !ok || len(lastKey) != 2 {
		return State{}, errors.New("missing last_key")
	}
	id, ok := lastKey["id"].(canon.String)
	if !ok || id == "" {
		return State{}, errors.New("missing last_key.id")
	}
	sort := lastKey["sort"]
	switch sort.(type) {
	case canon.String, canon.Int:
	default:
		return State{}, errors.Newf("last_key.sort has unsupported type %T", sort)
	}

	return State{LastSort: sort, LastID: string(id), Fingerprint: string(fingerprint)}, nil
}
