// Package cursor seals pagination positions into opaque continuation
// tokens.
//
// A token is base64url(nonce || AEAD(payload)) without padding, where the
// payload is the canonical JSON of
//
//	{"v":1, "last_key":{"sort":<value>, "id":<artifact id>}, "params_fingerprint":<hex>}
//
// Tokens are never stored. Everything needed to resume is inside the token
// plus the server's Key, and because each Encode draws a fresh nonce no two
// tokens are alike, so clients cannot rely on their contents.
//
// Decode reports every failure as problem.ErrInvalidCursor. Bad base64, a
// short token, a forged tag and a malformed payload all look the same to the
// caller.
package cursor
