// Package canon provides the constrained value model and canonical JSON
// encoding used wherever bytes must be reproducible: query fingerprints and
// cursor payloads.
//
// Key constraints:
//   - NO floats and NO null. Integers are int64.
//   - Object keys are ordered by UTF-16 code units (RFC 8785).
//   - Strings are NFC normalized at serialization time.
//
// canon imports nothing internal.
package canon
