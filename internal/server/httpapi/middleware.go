package httpapi

import (
	"net/http"
	"time"

	"github.com/dmitrijs2005/profdocs/internal/server/access"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	requestIDHeader = "X-Request-ID"
	requestIDKey    = "request_id"
	sessionTokenKey = "session_token"
	requestIDMaxLen = 64
)

// requestID takes X-Request-ID from the client when it is sane and makes
// one up otherwise.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader(requestIDHeader)
		if rid == "" || len(rid) > requestIDMaxLen {
			rid = uuid.New().String()
		}
		c.Set(requestIDKey, rid)
		c.Header(requestIDHeader, rid)
		c.Next()
	}
}

func (s *HTTPServer) accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		args := []any{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", status,
			"latency", time.Since(start),
			"request_id", c.GetString(requestIDKey),
			"principal", access.FromContext(c.Request.Context()).String(),
		}
		if len(c.Errors) > 0 {
			args = append(args, "errors", c.Errors.String())
		}

		ctx := c.Request.Context()
		switch {
		case status >= http.StatusInternalServerError:
			s.logger.Error(ctx, "request failed", args...)
		case status >= http.StatusBadRequest:
			s.logger.Warn(ctx, "request rejected", args...)
		default:
			s.logger.Info(ctx, "request served", args...)
		}
	}
}

// sessionMiddleware resolves the session cookie to an identity and stores
// it in the request context. A missing, forged or stale cookie yields the
// anonymous identity; it never aborts the request.
func (s *HTTPServer) sessionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := access.AnonymousIdentity

		if raw, err := c.Cookie(s.opts.CookieName); err == nil && raw != "" {
			var token string
			if err := s.cookies.Decode(s.opts.CookieName, raw, &token); err == nil {
				c.Set(sessionTokenKey, token)
				id = s.svc.Sessions.Resolve(c.Request.Context(), token)
			}
		}

		c.Request = c.Request.WithContext(access.WithIdentity(c.Request.Context(), id))
		c.Next()
	}
}

func identity(c *gin.Context) access.Identity {
	return access.FromContext(c.Request.Context())
}

func (s *HTTPServer) setSessionCookie(c *gin.Context, token string, expires time.Time) error {
	encoded, err := s.cookies.Encode(s.opts.CookieName, token)
	if err != nil {
		return err
	}
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     s.opts.CookieName,
		Value:    encoded,
		Path:     "/",
		Expires:  expires,
		MaxAge:   int(time.Until(expires) / time.Second),
		HttpOnly: true,
		Secure:   s.opts.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

func (s *HTTPServer) clearSessionCookie(c *gin.Context) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     s.opts.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.opts.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}
