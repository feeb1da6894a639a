// Package listing parses and validates the query parameters of the
// artifact listing and derives the params fingerprint that ties a cursor
// to the parameters it was issued for.
package listing
