package api

import (
	"net/http"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/roach88/catalog/internal/problem"
)

// RequestIDHeader carries the id assigned to each request. Server-side
// logs for a failed request can be found by it.
const RequestIDHeader = "X-Request-Id"

const requestIDKey = "request_id"

// requestID tags the request with a time-ordered UUID.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := uuid.Must(uuid.NewV7()).String()
		c.Set(requestIDKey, id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

// recovery turns a handler panic into an unexpected-error problem.
func recovery(log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			abortWithProblem(c, log, errors.Newf("panic: %v", rec))
		}()
		c.Next()
	}
}

func accessLog(log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Infow("request",
			"request_id", c.GetString(requestIDKey),
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"bytes", c.Writer.Size(),
			"latency", time.Since(start),
		)
	}
}

// rateLimit sheds load above the limiter's rate with a 429 problem.
func rateLimit(limiter *rate.Limiter, log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !limiter.Allow() {
			c.Header("Retry-After", "1")
			abortWithProblem(c, log, errors.WithStack(problem.ErrRateLimited))
			return
		}
		c.Next()
	}
}
