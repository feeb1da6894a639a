package api

import (
	"fmt"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/roach88/catalog/internal/listing"
	"github.com/roach88/catalog/internal/problem"
)

type handlers struct {
	catalog Catalog
	log     *zap.SugaredLogger
}

func (h *handlers) listArtifacts(c *gin.Context) {
	q, err := query(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	p, err := listing.ParseList(q, c.Request.URL.Path)
	if err != nil {
		h.fail(c, err)
		return
	}

	list, err := h.catalog.ListArtifacts(c.Request.Context(), p)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, list)
}

func (h *handlers) getArtifact(c *gin.Context) {
	q, err := query(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	if err := listing.ParseNone(q, c.Request.URL.Path); err != nil {
		h.fail(c, err)
		return
	}

	artifact, err := h.catalog.GetArtifact(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, artifact)
}

func (h *handlers) listTags(c *gin.Context) {
	q, err := query(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	if err := listing.ParseNone(q, c.Request.URL.Path); err != nil {
		h.fail(c, err)
		return
	}

	tags, err := h.catalog.ListTags(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, tags)
}

// query parses the raw query string strictly; URL.Query drops pairs it
// cannot decode.
func query(c *gin.Context) (url.Values, error) {
	q, err := url.ParseQuery(c.Request.URL.RawQuery)
	if err != nil {
		return nil, problem.MalformedRequest("The query string is not valid URL encoding.", c.Request.URL.Path)
	}
	return q, nil
}

// ok writes a 200. HEAD gets the same status and headers with no body.
func (h *handlers) ok(c *gin.Context, body any) {
	if c.Request.Method == http.MethodHead {
		c.Header("Content-Type", "application/json; charset=utf-8")
		c.Status(http.StatusOK)
		return
	}
	c.JSON(http.StatusOK, body)
}

// fail writes err as a problem response and stops the chain. Server
// errors are logged with their full chain; client errors only at debug.
func (h *handlers) fail(c *gin.Context, err error) {
	abortWithProblem(c, h.log, err)
}

func abortWithProblem(c *gin.Context, log *zap.SugaredLogger, err error) {
	p := problem.From(err)

	fields := []any{
		"request_id", c.GetString(requestIDKey),
		"method", c.Request.Method,
		"path", c.Request.URL.Path,
		"status", p.Status,
		"problem", p.Type,
	}
	if problem.IsServerError(err) {
		log.Errorw("request failed", append(fields, "error", fmt.Sprintf("%+v", err))...)
	} else {
		log.Debugw("request rejected", append(fields, "error", err.Error())...)
	}

	if p.Status == http.StatusMethodNotAllowed {
		c.Header("Allow", allowedMethods)
	}
	c.Header("Content-Type", problem.ContentType)
	c.AbortWithStatusJSON(p.Status, p)
}
