package cursor

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"golang.org/x/crypto/chacha20poly1305"
)

// Algorithm names an AEAD construction.
type Algorithm string

const (
	AESGCM           Algorithm = "aes-gcm"
	ChaCha20Poly1305 Algorithm = "chacha20-poly1305"
)

// NonceSize is the nonce length of every supported AEAD.
const NonceSize = 12

// JWK "alg" values, as used by the Web Crypto key format.
var jwkAlgorithms = map[string]struct {
	alg  Algorithm
	size int
}{
	"A128GCM": {AESGCM, 16},
	"A192GCM": {AESGCM, 24},
	"A256GCM": {AESGCM, 32},
	"C20P":    {ChaCha20Poly1305, 32},
}

// Key is an imported cursor key. It is built once at startup and never
// mutated, so one Key may be shared by every request.
type Key struct {
	alg  Algorithm
	aead cipher.AEAD
}

// Algorithm returns the AEAD the key was imported for.
func (k *Key) Algorithm() Algorithm { return k.alg }

// NewKey imports raw key bytes. An empty alg means AESGCM.
//
// AES-GCM accepts 16, 24 or 32 byte keys; ChaCha20-Poly1305 requires 32.
func NewKey(secret []byte, alg Algorithm) (*Key, error) {
	if alg == "" {
		alg = AESGCM
	}

	var (
		aead cipher.AEAD
		err  error
	)
	switch alg {
	case AESGCM:
		var block cipher.Block
		block, err = aes.NewCipher(secret)
		if err != nil {
			return nil, errors.Wrapf(err, "aes-gcm key (%d bytes)", len(secret))
		}
		aead, err = cipher.NewGCM(block)
	case ChaCha20Poly1305:
		aead, err = chacha20poly1305.New(secret)
		if err != nil {
			return nil, errors.Wrapf(err, "chacha20-poly1305 key (%d bytes)", len(secret))
		}
	default:
		return nil, errors.Newf("unknown cursor algorithm %q", alg)
	}
	if err != nil {
		return nil, errors.Wrap(err, "init aead")
	}
	if aead.NonceSize() != NonceSize {
		return nil, errors.Newf("unexpected nonce size %d", aead.NonceSize())
	}
	return &Key{alg: alg, aead: aead}, nil
}

// jwk is the subset of an RFC 7517 symmetric key we read.
type jwk struct {
	Kty string `json:"kty"`
	K   string `json:"k"`
	Alg string `json:"alg,omitempty"`
}

// ParseKey imports a key from its configured text form: either a JSON Web
// Key ({"kty":"oct","k":...}) or the key bytes in base64 or base64url.
//
// A JWK "alg" selects the algorithm; it must agree with alg when both are
// given.
func ParseKey(raw string, alg Algorithm) (*Key, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, errors.New("cursor key is empty")
	}

	if !strings.HasPrefix(raw, "{") {
		secret, err := decodeBase64(raw)
		if err != nil {
			return nil, errors.Wrap(err, "decode cursor key")
		}
		return NewKey(secret, alg)
	}

	var k jwk
	if err := json.Unmarshal([]byte(raw), &k); err != nil {
		return nil, errors.Wrap(err, "parse cursor jwk")
	}
	if k.Kty != "oct" {
		return nil, errors.Newf("cursor jwk: kty must be \"oct\", got %q", k.Kty)
	}
	secret, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(k.K, "="))
	if err != nil {
		return nil, errors.Wrap(err, "cursor jwk: decode k")
	}
	if k.Alg != "" {
		known, ok := jwkAlgorithms[k.Alg]
		if !ok {
			return nil, errors.Newf("cursor jwk: unsupported alg %q", k.Alg)
		}
		if alg != "" && alg != known.alg {
			return nil, errors.Newf("cursor jwk: alg %q does not match configured algorithm %q", k.Alg, alg)
		}
		if len(secret) != known.size {
			return nil, errors.Newf("cursor jwk: alg %q needs a %d byte key, got %d", k.Alg, known.size, len(secret))
		}
		alg = known.alg
	}
	return NewKey(secret, alg)
}

func decodeBase64(s string) ([]byte, error) {
	for _, enc := range []*base64.Encoding{
		base64.RawURLEncoding,
		base64.URLEncoding,
		base64.StdEncoding,
		base64.RawStdEncoding,
	} {
		if b, err := enc.DecodeString(s); err == nil {
			return b, nil
		}
	}
	return nil, errors.New("not valid base64 or base64url")
}

// GenerateJWK returns a fresh random key as a JWK string, ready to paste
// into configuration. bits is 128, 192 or 256 for AES-GCM and must be 256
// for ChaCha20-Poly1305.
func GenerateJWK(alg Algorithm, bits int) (string, error) {
	if alg == "" {
		alg = AESGCM
	}

	var name string
	switch {
	case alg == AESGCM && (bits == 128 || bits == 192 || bits == 256):
		name = "A" + strconv.Itoa(bits) + "GCM"
	case alg == ChaCha20Poly1305 && bits == 256:
		name = "C20P"
	default:
		return "", errors.Newf("unsupported key size %d for %s", bits, alg)
	}

	secret := make([]byte, bits/8)
	if _, err := rand.Read(secret); err != nil {
		return "", errors.Wrap(err, "read random key")
	}

	out, err := json.Marshal(jwk{Kty: "oct", K: base64.RawURLEncoding.EncodeToString(secret), Alg: name})
	if err != nil {
		return "", errors.Wrap(err, "marshal jwk")
	}
	return string(out), nil
}
