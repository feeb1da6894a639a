package problem

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
)

func TestFrom_Taxonomy(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		typ    string
	}{
		{"invalid cursor", InvalidCursor(errors.New("message authentication failed")), http.StatusBadRequest, "/problems/invalid-cursor"},
		{"inconsistent", InconsistentSortParams("aaaa", "bbbb"), http.StatusBadRequest, "/problems/inconsistent-sort-params"},
		{"malformed", MalformedRequest("bad limit", "/artifacts/"), http.StatusBadRequest, "/problems/malformed-request"},
		{"unrecognized", UnrecognizedQueryParams([]string{"foo"}, "/artifacts/"), http.StatusBadRequest, "/problems/unrecognized-query-params"},
		{"not found", ArtifactNotFound("a001"), http.StatusNotFound, "/problems/artifact-not-found"},
		{"no endpoint", EndpointNotFound("/v0/nope"), http.StatusNotFound, "/problems/endpoint-not-found"},
		{"method", MethodNotAllowed("POST"), http.StatusMethodNotAllowed, "/problems/method-not-allowed"},
		{"rate limited", ErrRateLimited, http.StatusTooManyRequests, "/problems/rate-limited"},
		{"position lost", CursorPositionLost("a002"), http.StatusInternalServerError, "/problems/cursor-position-lost"},
		{"unexpected", errors.New("disk I/O error"), http.StatusInternalServerError, "/problems/unexpected-error"},
		{"nil", nil, http.StatusInternalServerError, "/problems/unexpected-error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := From(tt.err)
			assert.Equal(t, tt.status, p.Status)
			assert.Equal(t, tt.typ, p.Type)
			assert.NotEmpty(t, p.Title)
			assert.NotEmpty(t, p.Detail)
		})
	}
}

func TestFrom_SurvivesWrapping(t *testing.T) {
	err := errors.Wrap(ArtifactNotFound("a001"), "get artifact")

	p := From(err)
	assert.Equal(t, http.StatusNotFound, p.Status)
	assert.Equal(t, "Artifact with ID 'a001' not found.", p.Detail)
	assert.Equal(t, "/artifacts/a001", p.Instance)
}

func TestFrom_InvalidCursorHidesCause(t *testing.T) {
	err := InvalidCursor(errors.New("illegal base64 data at input byte 7"))

	p := From(err)
	assert.Equal(t, "Invalid Cursor", p.Title)
	assert.Equal(t, invalidCursorDetail, p.Detail)
	assert.NotContains(t, p.Detail, "base64")
	assert.Empty(t, p.Instance)

	// The cause is still there for the logs.
	assert.Contains(t, fmt.Sprintf("%+v", err), "illegal base64")
}

func TestFrom_FixedDetailIgnoresAttachedDetail(t *testing.T) {
	err := errors.WithDetail(CursorPositionLost("a002"), "row 17 missing")

	p := From(err)
	assert.Equal(t, cursorPositionLostDetail, p.Detail)
}

func TestFrom_UnexpectedHidesMessage(t *testing.T) {
	p := From(errors.New("sql: database is closed"))
	assert.Equal(t, "Unexpected Error", p.Title)
	assert.NotContains(t, p.Detail, "sql")
}

func TestFrom_EndpointNotFound(t *testing.T) {
	p := From(EndpointNotFound("/v1/artifacts"))
	assert.Equal(t, Problem{
		Type:     "/problems/endpoint-not-found",
		Title:    "Endpoint Not Found",
		Status:   http.StatusNotFound,
		Detail:   "There is no such endpoint '/v1/artifacts'.",
		Instance: "/v1/artifacts",
	}, p)
}

func TestUnrecognizedQueryParams_Detail(t *testing.T) {
	p := From(UnrecognizedQueryParams([]string{"page", "size"}, "/artifacts/"))
	assert.Equal(t, "These query parameters are not recognized: 'page', 'size'.", p.Detail)
	assert.Equal(t, "/artifacts/", p.Instance)
}

func TestMethodNotAllowed_Detail(t *testing.T) {
	p := From(MethodNotAllowed("DELETE"))
	assert.Equal(t, "The method 'DELETE' is not allowed for this endpoint.", p.Detail)
}

func TestIsServerError(t *testing.T) {
	assert.True(t, IsServerError(CursorPositionLost("x")))
	assert.True(t, IsServerError(errors.New("boom")))
	assert.False(t, IsServerError(InvalidCursor(nil)))
	assert.False(t, IsServerError(ArtifactNotFound("x")))
}

func TestSentinelsMatch(t *testing.T) {
	assert.True(t, errors.Is(InvalidCursor(errors.New("x")), ErrInvalidCursor))
	assert.True(t, errors.Is(MalformedRequest("d", "/"), ErrMalformedRequest))
	assert.False(t, errors.Is(MalformedRequest("d", "/"), ErrInvalidCursor))
}
