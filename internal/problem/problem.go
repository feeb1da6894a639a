// Package problem is the error taxonomy of the catalog API and its mapping
// to RFC 9457 problem payloads.
//
// Every failure the API can report is one of the sentinels below. Callers
// attach the sentinel with errors.Mark (or one of the constructors) and
// From picks the matching payload. Anything unmarked is an unexpected
// error.
package problem

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/cockroachdb/errors"
)

// ContentType is the media type of every problem response.
const ContentType = "application/problem+json"

// Sentinels, one per problem type.
var (
	ErrInvalidCursor           = errors.New("invalid cursor")
	ErrInconsistentSortParams  = errors.New("inconsistent sort params")
	ErrMalformedRequest        = errors.New("malformed request")
	ErrUnrecognizedQueryParams = errors.New("unrecognized query params")
	ErrArtifactNotFound        = errors.New("artifact not found")
	ErrEndpointNotFound        = errors.New("endpoint not found")
	ErrMethodNotAllowed        = errors.New("method not allowed")
	ErrRateLimited             = errors.New("rate limited")
	ErrCursorPositionLost      = errors.New("cursor position lost")
)

// Problem is the JSON body of an error response.
type Problem struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail,omitempty"`
	Instance string `json:"instance,omitempty"`
}

// Fixed details. Cursor problems never say which part of the token failed.
const (
	invalidCursorDetail          = "The provided cursor is invalid."
	inconsistentSortParamsDetail = "The sort and filter parameters must be the same as the request that produced the cursor."
	cursorPositionLostDetail     = "Despite the cursor being valid, the next page could not be located. This is likely a server-side bug."
	unexpectedErrorDetail        = "An unexpected error occurred."
	rateLimitedDetail            = "Too many requests. Slow down and try again."
)

type kind struct {
	sentinel error
	slug     string
	title    string
	status   int
	detail   string // Used when the error carries none
}

var kinds = []kind{
	{ErrInvalidCursor, "invalid-cursor", "Invalid Cursor", http.StatusBadRequest, invalidCursorDetail},
	{ErrInconsistentSortParams, "inconsistent-sort-params", "Inconsistent Sort Params", http.StatusBadRequest, inconsistentSortParamsDetail},
	{ErrMalformedRequest, "malformed-request", "Malformed Request", http.StatusBadRequest, ""},
	{ErrUnrecognizedQueryParams, "unrecognized-query-params", "Unrecognized Query Params", http.StatusBadRequest, ""},
	{ErrArtifactNotFound, "artifact-not-found", "Artifact Not Found", http.StatusNotFound, ""},
	{ErrEndpointNotFound, "endpoint-not-found", "Endpoint Not Found", http.StatusNotFound, ""},
	{ErrMethodNotAllowed, "method-not-allowed", "Method Not Allowed", http.StatusMethodNotAllowed, ""},
	{ErrRateLimited, "rate-limited", "Rate Limited", http.StatusTooManyRequests, rateLimitedDetail},
	{ErrCursorPositionLost, "cursor-position-lost", "Cursor Position Lost", http.StatusInternalServerError, cursorPositionLostDetail},
}

var unexpected = kind{nil, "unexpected-error", "Unexpected Error", http.StatusInternalServerError, unexpectedErrorDetail}

// From maps err to exactly one problem payload.
//
// The detail is the most recently attached errors.WithDetail payload, else
// the kind's fixed detail. Unexpected errors never expose their message.
func From(err error) Problem {
	k := classify(err)

	p := Problem{
		Type:   "/problems/" + k.slug,
		Title:  k.title,
		Status: k.status,
		Detail: k.detail,
	}
	if k.sentinel == nil {
		return p
	}

	// Fixed-detail kinds ignore attached details so nothing about the cause
	// can leak through.
	if k.detail == "" {
		if details := errors.GetAllDetails(err); len(details) > 0 {
			p.Detail = details[len(details)-1]
		}
	}
	p.Instance = instanceOf(err)
	return p
}

// IsServerError reports whether err maps to a 5xx problem. Those are the
// ones worth logging with a full stack.
func IsServerError(err error) bool {
	return classify(err).status >= http.StatusInternalServerError
}

func classify(err error) kind {
	if err == nil {
		return unexpected
	}
	for _, k := range kinds {
		if errors.Is(err, k.sentinel) {
			return k
		}
	}
	return unexpected
}

// withInstance attaches the URI of the resource a problem is about.
type withInstance struct {
	cause    error
	instance string
}

func (w *withInstance) Error() string { return w.cause.Error() }
func (w *withInstance) Cause() error  { return w.cause }
func (w *withInstance) Unwrap() error { return w.cause }

// WithInstance annotates err with the problem instance URI.
func WithInstance(err error, instance string) error {
	if err == nil {
		return nil
	}
	return &withInstance{cause: err, instance: instance}
}

func instanceOf(err error) string {
	var w *withInstance
	if errors.As(err, &w) {
		return w.instance
	}
	return ""
}

// newKind builds a marked error with a user-facing detail.
func newKind(sentinel error, detail string) error {
	return errors.WithDetail(errors.Mark(errors.New(detail), sentinel), detail)
}

// InvalidCursor reports an unusable cursor token. cause is kept for logs
// only; it never reaches the response.
func InvalidCursor(cause error) error {
	if cause == nil {
		return ErrInvalidCursor
	}
	return errors.WithSecondaryError(errors.WithStack(ErrInvalidCursor), cause)
}

// InconsistentSortParams reports a cursor used with different parameters
// than the ones it was issued for.
func InconsistentSortParams(cursorFingerprint, requestFingerprint string) error {
	return errors.Wrapf(ErrInconsistentSortParams,
		"cursor fingerprint %s, request fingerprint %s", cursorFingerprint, requestFingerprint)
}

// MalformedRequest reports a bad scalar parameter.
func MalformedRequest(detail, instance string) error {
	return WithInstance(newKind(ErrMalformedRequest, detail), instance)
}

// UnrecognizedQueryParams reports query parameters the endpoint does not
// accept.
func UnrecognizedQueryParams(names []string, instance string) error {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = "'" + n + "'"
	}
	detail := fmt.Sprintf("These query parameters are not recognized: %s.", strings.Join(quoted, ", "))
	return WithInstance(newKind(ErrUnrecognizedQueryParams, detail), instance)
}

// ArtifactNotFound reports a missing artifact.
func ArtifactNotFound(id string) error {
	detail := fmt.Sprintf("Artifact with ID '%s' not found.", id)
	return WithInstance(newKind(ErrArtifactNotFound, detail), "/artifacts/"+id)
}

// EndpointNotFound reports a path no route matches.
func EndpointNotFound(path string) error {
	detail := fmt.Sprintf("There is no such endpoint '%s'.", path)
	return WithInstance(newKind(ErrEndpointNotFound, detail), path)
}

// MethodNotAllowed reports a method the endpoint does not serve.
func MethodNotAllowed(method string) error {
	return newKind(ErrMethodNotAllowed, fmt.Sprintf("The method '%s' is not allowed for this endpoint.", method))
}

// CursorPositionLost reports a valid cursor whose last item is no longer in
// the latest-version set.
func CursorPositionLost(artifactID string) error {
	return errors.Wrapf(ErrCursorPositionLost, "cursor anchor %q not found", artifactID)
}
