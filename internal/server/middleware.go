package server

import (
	"crypto/subtle"
	"net/http"
	"slices"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	tokenHeader     = "X-CC-Token"
	requestIDHeader = "X-Request-ID"
	requestIDKey    = "request_id"
)

// requestID tags every request with an id, reusing the caller's when present.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

// accessLog writes one line per request.
func accessLog(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("request_id", c.GetString(requestIDKey)),
		}
		if c.Writer.Status() >= http.StatusInternalServerError {
			logger.Warn("request", fields...)
			return
		}
		logger.Info("request", fields...)
	}
}

// auth checks the shared-secret header against token.
func auth(token string, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token == "" {
			logger.Error("request rejected: no token configured")
			abort(c, http.StatusInternalServerError, "ML service not configured (CC_ML_TOKEN missing)")
			return
		}
		got := c.GetHeader(tokenHeader)
		if got == "" {
			abort(c, http.StatusUnauthorized, "Missing X-CC-Token header")
			return
		}
		if subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
			logger.Warn("invalid token", zap.String("request_id", c.GetString(requestIDKey)))
			abort(c, http.StatusUnauthorized, "Invalid authentication token")
			return
		}
		c.Next()
	}
}

// cors allows browser calls from the listed origins only.
func cors(origins []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		allowed := origin != "" && slices.Contains(origins, origin)
		if allowed {
			h := c.Writer.Header()
			h.Set("Access-Control-Allow-Origin", origin)
			h.Set("Access-Control-Allow-Credentials", "true")
			h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			h.Set("Access-Control-Allow-Headers", "Content-Type, X-CC-Token, X-Request-ID")
			h.Add("Vary", "Origin")
		}
		if c.Request.Method == http.MethodOptions && c.GetHeader("Access-Control-Request-Method") != "" {
			if !allowed {
				c.AbortWithStatus(http.StatusForbidden)
				return
			}
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// limit rejects requests beyond l's rate. A nil limiter lets everything through.
func limit(l *rate.Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if l != nil && !l.Allow() {
			abort(c, http.StatusTooManyRequests, "Too many training requests")
			return
		}
		c.Next()
	}
}

func abort(c *gin.Context, status int, detail string) {
	c.AbortWithStatusJSON(status, errorResponse{Detail: detail})
}
