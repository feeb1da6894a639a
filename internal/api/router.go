// Package api serves the catalog over HTTP.
//
// Routes:
//
//	GET|HEAD /v0/artifacts/      one page of artifacts
//	GET|HEAD /v0/artifacts/:id   one artifact
//	GET|HEAD /v0/tags/           the tag catalog
//
// Every failure is written as an application/problem+json body built by
// package problem. Unknown paths are 404 endpoint-not-found, known paths
// with another method are 405 with an Allow header.
package api

import (
	"context"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/roach88/catalog/internal/catalog"
	"github.com/roach88/catalog/internal/listing"
	"github.com/roach88/catalog/internal/logging"
	"github.com/roach88/catalog/internal/problem"
)

// Route paths.
const (
	ArtifactsPath = "/v0/artifacts/"
	ArtifactPath  = "/v0/artifacts/:id"
	TagsPath      = "/v0/tags/"
)

// allowedMethods is the Allow header of every 405.
const allowedMethods = "GET, HEAD"

// Catalog is the read side the handlers call. *paging.Service implements
// it.
type Catalog interface {
	ListArtifacts(ctx context.Context, p listing.Params) (catalog.ArtifactList, error)
	GetArtifact(ctx context.Context, id string) (catalog.Artifact, error)
	ListTags(ctx context.Context) (catalog.TagList, error)
}

// Options configures NewRouter.
type Options struct {
	Logger *zap.SugaredLogger
	// RateLimit is the sustained request rate across all clients. Zero
	// disables limiting.
	RateLimit rate.Limit
	Burst     int
}

// NewRouter builds the HTTP handler.
func NewRouter(cat Catalog, opts Options) *gin.Engine {
	log := opts.Logger
	if log == nil {
		log = logging.Nop()
	}

	r := gin.New()
	r.HandleMethodNotAllowed = true
	// "/v0/tags" is not "/v0/tags/"; no redirects.
	r.RedirectTrailingSlash = false
	r.RedirectFixedPath = false

	r.Use(requestID(), accessLog(log), recovery(log))
	if opts.RateLimit > 0 {
		r.Use(rateLimit(rate.NewLimiter(opts.RateLimit, opts.Burst), log))
	}

	h := &handlers{catalog: cat, log: log}
	for _, route := range []struct {
		path    string
		handler gin.HandlerFunc
	}{
		{ArtifactsPath, h.listArtifacts},
		{ArtifactPath, h.getArtifact},
		{TagsPath, h.listTags},
	} {
		r.GET(route.path, route.handler)
		r.HEAD(route.path, route.handler)
	}

	r.NoRoute(func(c *gin.Context) {
		h.fail(c, problem.EndpointNotFound(c.Request.URL.Path))
	})
	r.NoMethod(func(c *gin.Context) {
		h.fail(c, problem.MethodNotAllowed(c.Request.Method))
	})

	return r
}
