package middleware // package middleware contains reusable HTTP middleware functions

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/dohyun-ko/animal-care-api/internal/auth"
)

// principalKey is the echo context key the resolver stores the request
// principal under.
const principalKey = "principal"

// ResolvePrincipal turns a bearer access token into a principal and attaches
// it to the request context.  It NEVER fails the request: a missing,
// malformed or expired token degrades to the anonymous principal and the
// route-level guards decide whether anonymous is acceptable.  The outcomes
// differ only in diagnostics:
//
//	no Authorization header        -> anonymous
//	malformed / bad signature      -> anonymous (debug log)
//	expired                        -> anonymous (debug log)
//	valid                          -> principal with normalized authorities
//
// The middleware is idempotent: a principal already attached upstream (a
// test harness, a gateway) is left untouched.  Always-public route groups
// such as /auth are registered without this middleware at all.
func ResolvePrincipal(codec *auth.Codec, log zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if _, ok := c.Get(principalKey).(auth.Principal); ok {
				return next(c)
			}

			header := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				c.Set(principalKey, auth.Anonymous)
				return next(c)
			}

			raw := strings.TrimPrefix(header, "Bearer ")
			claims, err := codec.Verify(raw)
			if err != nil {
				// Invalid and expired tokens share one outcome; only the
				// log line tells them apart.
				evt := log.Debug()
				if errors.Is(err, auth.ErrTokenExpired) {
					evt = log.Warn()
				}
				evt.Err(err).Str("path", c.Path()).Msg("bearer token rejected, proceeding anonymous")
				c.Set(principalKey, auth.Anonymous)
				return next(c)
			}

			subject := auth.SubjectOf(claims)
			if subject == "" {
				log.Debug().Str("path", c.Path()).Msg("bearer token has no subject, proceeding anonymous")
				c.Set(principalKey, auth.Anonymous)
				return next(c)
			}

			c.Set(principalKey, auth.Principal{
				Subject: subject,
				Roles:   auth.RolesOf(claims),
			})
			return next(c)
		}
	}
}

// PrincipalFrom returns the principal the resolver attached, or the
// anonymous principal when none is present.
func PrincipalFrom(c echo.Context) auth.Principal {
	if p, ok := c.Get(principalKey).(auth.Principal); ok {
		return p
	}
	return auth.Anonymous
}

// SetPrincipal attaches a principal directly.  Used by tests and by
// upstream adapters that authenticate out of band.
func SetPrincipal(c echo.Context, p auth.Principal) {
	c.Set(principalKey, p)
}

// RequireAuth rejects anonymous requests with the standard 401 envelope.
func RequireAuth() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if PrincipalFrom(c).IsAnonymous() {
				return unauthorized(c)
			}
			return next(c)
		}
	}
}

// RequireRole rejects requests whose principal holds none of the given
// authorities.  Anonymous principals get 401; authenticated principals
// lacking the role get 403, since being logged in is not the same as being
// allowed.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[auth.NormalizeRole(r)] = true
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			p := PrincipalFrom(c)
			if p.IsAnonymous() {
				return unauthorized(c)
			}
			for _, r := range p.Roles {
				if allowed[r] {
					return next(c)
				}
			}
			return c.JSON(http.StatusForbidden, map[string]interface{}{
				"status": "error", "statusCode": http.StatusForbidden, "message": "FORBIDDEN",
			})
		}
	}
}

func unauthorized(c echo.Context) error {
	return c.JSON(http.StatusUnauthorized, map[string]interface{}{
		"status": "error", "statusCode": http.StatusUnauthorized, "message": "UNAUTHORIZED",
	})
}
