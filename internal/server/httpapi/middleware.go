package httpapi

import (
	"context"
	"time"

	"github.com/dmitrijs2005/studymate/internal/common"
	"github.com/dmitrijs2005/studymate/internal/logging"
	"github.com/dmitrijs2005/studymate/internal/server/access"
	"github.com/dmitrijs2005/studymate/internal/server/metrics"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

const actorKey = "actor"

// TokenResolver turns a bearer token into an actor.
type TokenResolver interface {
	Resolve(ctx context.Context, token string) (access.Actor, error)
}

// authRequired resolves the Authorization header and stores the actor on the
// gin context. Requests without a valid token stop here.
func authRequired(gate TokenResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader(common.AccessTokenHeaderName)
		if header == "" {
			abort(c, common.ErrNotAuthenticated)
			return
		}
		actor, err := gate.Resolve(c.Request.Context(), header)
		if err != nil {
			abort(c, err)
			return
		}
		c.Set(actorKey, actor)
		c.Next()
	}
}

// actorOf returns the actor set by authRequired, or the anonymous actor.
func actorOf(c *gin.Context) access.Actor {
	if v, ok := c.Get(actorKey); ok {
		if a, ok := v.(access.Actor); ok {
			return a
		}
	}
	return access.Anonymous()
}

// requestLogger logs one line per request and records request metrics.
func requestLogger(logger logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		latency := time.Since(start)
		metrics.ObserveHTTP(c.Request.Method, route, status, latency)

		args := []any{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", status,
			"latency", latency,
			"actor", actorOf(c).Name(),
		}
		if len(c.Errors) > 0 {
			args = append(args, "error", c.Errors.String())
		}
		ctx := c.Request.Context()
		switch {
		case status >= 500:
			logger.Error(ctx, "request failed", args...)
		case status >= 400:
			logger.Warn(ctx, "request rejected", args...)
		default:
			logger.Info(ctx, "request", args...)
		}
	}
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	cfg := cors.DefaultConfig()
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	cfg.AllowHeaders = append(cfg.AllowHeaders, common.AccessTokenHeaderName, "Accept-Language")
	cfg.MaxAge = 12 * time.Hour
	return cors.New(cfg)
}
