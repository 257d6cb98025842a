package security

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Meizuno/Chat/tools/errs"
)

// Context keys for downstream handlers.
const (
	CtxUserIDKey = "authUserID"
	CtxTokenKey  = "authToken"
)

// Authenticator validates a bearer token and returns the user ID it belongs
// to. The auth service provides the real one; tests plug in fakes.
type Authenticator func(ctx context.Context, token string) (string, error)

type Options struct {
	// HeaderToken is the request header carrying the raw token
	// (default "Authorization", with "Bearer " prefix handling).
	HeaderToken               string
	EnableAuthorizationBearer bool
}

func DefaultOptions() *Options {
	return &Options{
		HeaderToken:               "Authorization",
		EnableAuthorizationBearer: true,
	}
}

// Middleware gates protected routes: it extracts the bearer token, runs the
// authenticator, and stashes the user ID in the gin context. Missing or
// rejected tokens answer 401 with a JSON error body.
func Middleware(opts *Options, auth Authenticator) gin.HandlerFunc {
	if opts == nil {
		opts = DefaultOptions()
	}
	return func(c *gin.Context) {
		token := ExtractBearer(c, opts)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
			return
		}

		userID, err := auth(c.Request.Context(), token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": errs.Msg(err)})
			return
		}

		c.Set(CtxUserIDKey, userID)
		c.Set(CtxTokenKey, token)
		c.Next()
	}
}

// ExtractBearer pulls the raw token out of the configured header, stripping
// a "Bearer " prefix when enabled.
func ExtractBearer(c *gin.Context, opts *Options) string {
	raw := strings.TrimSpace(c.GetHeader(opts.HeaderToken))
	if raw == "" {
		return ""
	}
	if opts.EnableAuthorizationBearer && strings.HasPrefix(strings.ToLower(raw), "bearer ") {
		return strings.TrimSpace(raw[len("bearer "):])
	}
	return raw
}

// UserID reads the authenticated user ID set by Middleware.
func UserID(c *gin.Context) string {
	return c.GetString(CtxUserIDKey)
}

// Token reads the raw bearer token set by Middleware.
func Token(c *gin.Context) string {
	return c.GetString(CtxTokenKey)
}
