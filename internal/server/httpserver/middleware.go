package httpserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/giftauth/internal/ratelimit"
	"github.com/dmitrijs2005/giftauth/internal/server/auth"
	"github.com/gin-gonic/gin"
)

const (
	MsgTooManyLogins        = "Too many login attempts. Please try again later."
	MsgTooManyRegistrations = "Too many registration attempts. Please try again later."
	MsgTooManyRequests      = "Too many requests. Please try again later."
	MsgInvalidContentType   = "Invalid Content-Type. Expected application/json"
	MsgBodyTooLarge         = "Request body too large"
	MsgInvalidOrigin        = "CSRF protection: Invalid origin"
	MsgMissingBearer        = "Unauthorized: Missing or invalid token format"
	MsgInvalidAccessToken   = "Unauthorized: Invalid or expired access token"

	// MaxRegisterBody is the largest registration payload accepted.
	MaxRegisterBody = 10240

	defaultClientIP = "127.0.0.1"
	claimsKey       = "claims"
)

// clientIP is the first X-Forwarded-For entry.
func clientIP(c *gin.Context) string {
	xff := c.GetHeader("X-Forwarded-For")
	if xff == "" {
		return defaultClientIP
	}
	first := strings.TrimSpace(strings.Split(xff, ",")[0])
	if first == "" {
		return defaultClientIP
	}
	return first
}

func (s *Server) limit(prefix string, rule ratelimit.Rule, msg string) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := prefix + clientIP(c)
		if !s.limiter.Allow(c.Request.Context(), key, rule) {
			s.logger.Warn(c.Request.Context(), "rate limited", "key", key, "path", c.FullPath())
			s.fail(c, http.StatusTooManyRequests, msg)
			return
		}
		c.Next()
	}
}

// registerGuard applies the content-type, size and origin checks that run
// before a registration body is read.
func (s *Server) registerGuard() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !strings.Contains(c.GetHeader("Content-Type"), "application/json") {
			s.fail(c, http.StatusBadRequest, MsgInvalidContentType)
			return
		}

		if c.Request.ContentLength > MaxRegisterBody {
			s.fail(c, http.StatusRequestEntityTooLarge, MsgBodyTooLarge)
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, MaxRegisterBody)

		if s.opts.CheckOrigin {
			origin := c.GetHeader("Origin")
			host := c.Request.Host
			if origin != "" && host != "" && !strings.Contains(origin, host) {
				s.fail(c, http.StatusForbidden, MsgInvalidOrigin)
				return
			}
		}

		c.Next()
	}
}

func (s *Server) bearerAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			s.fail(c, http.StatusUnauthorized, MsgMissingBearer)
			return
		}

		payload, err := s.tokens.VerifyAccessToken(token)
		if err != nil {
			s.fail(c, http.StatusUnauthorized, MsgInvalidAccessToken)
			return
		}

		c.Set(claimsKey, payload)
		c.Next()
	}
}

func claimsFrom(c *gin.Context) *auth.Payload {
	v, ok := c.Get(claimsKey)
	if !ok {
		return nil
	}
	p, _ := v.(*auth.Payload)
	return p
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug(c.Request.Context(), "http request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}
