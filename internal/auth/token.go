package auth // package auth provides token issuing, verification and credential hashing

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5" // JWT library for creating and parsing signed tokens
	"github.com/google/uuid"
)

// Token kinds carried in the "typ" claim.  Access tokens authorize API calls
// and carry role claims; refresh tokens are only ever exchanged for a new
// token pair and never hit protected endpoints directly.
const (
	KindAccess  = "access"
	KindRefresh = "refresh"
)

// Token lifetimes.  Access tokens are deliberately short so a leaked bearer
// string ages out quickly; refresh tokens live server-side as a hash and are
// rotated on every use.
const (
	AccessTTL  = 15 * time.Minute
	RefreshTTL = 14 * 24 * time.Hour
)

// Verification outcomes.  Verify never returns library internals to callers;
// they get exactly one of these and decide what to do.
var (
	ErrTokenExpired = errors.New("token expired")
	ErrTokenInvalid = errors.New("token invalid")
)

// Codec signs and verifies HS256 tokens with a single static key loaded at
// process start.  The key is never mutated after construction.
type Codec struct {
	key []byte
}

// NewCodec builds a Codec from the configured signing secret.
func NewCodec(secret string) *Codec {
	return &Codec{key: []byte(secret)}
}

// IssueAccessToken signs a short-lived access token.  The subject is the
// identity's login id.  Both the legacy single "role" claim (bare name) and
// the newer "roles" array (ROLE_-prefixed) are written so old and new
// clients can read whichever shape they expect.
func (c *Codec) IssueAccessToken(subject, role string) (string, error) {
	now := time.Now().UTC()
	prefixed := NormalizeRole(role)
	claims := jwt.MapClaims{
		"sub":   subject,
		"iat":   now.Unix(),
		"exp":   now.Add(AccessTTL).Unix(),
		"typ":   KindAccess,
		"role":  strings.TrimPrefix(prefixed, "ROLE_"),
		"roles": []string{prefixed},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(c.key)
}

// IssueRefreshToken signs a long-lived refresh token.  The subject is the
// identity's nickname, not its login id: the refresh ledger is keyed by
// nickname, which keeps sessions intact even if login ids were ever made
// editable.
func (c *Codec) IssueRefreshToken(subject string) (string, error) {
	now := time.Now().UTC()
	claims := jwt.MapClaims{
		"sub": subject,
		"iat": now.Unix(),
		"exp": now.Add(RefreshTTL).Unix(),
		"typ": KindRefresh,
		// iat only has second granularity, so without a per-token id two
		// refresh tokens minted in the same second would be byte-identical
		// and rotation would silently hand back the token it was meant to
		// retire.
		"jti": uuid.NewString(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(c.key)
}

// Verify parses and validates a token.  It returns the claims on success,
// ErrTokenExpired for a well-formed but stale token, and ErrTokenInvalid for
// everything else (bad signature, wrong algorithm, garbage input).
func (c *Codec) Verify(raw string) (jwt.MapClaims, error) {
	tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrTokenInvalid
		}
		return c.key, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok || !tok.Valid {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}

// IsRefreshKind reports whether the claims describe a refresh token.
func IsRefreshKind(claims jwt.MapClaims) bool {
	typ, _ := claims["typ"].(string)
	return typ == KindRefresh
}

// SubjectOf returns the "sub" claim or the empty string.
func SubjectOf(claims jwt.MapClaims) string {
	sub, _ := claims["sub"].(string)
	return sub
}

// RolesOf extracts the normalized role set from the claims.  The "roles"
// array wins; a single "role" claim is the fallback; an empty result
// defaults to ROLE_USER so an authenticated principal always holds at least
// one authority.
func RolesOf(claims jwt.MapClaims) []string {
	var out []string
	if raw, ok := claims["roles"].([]interface{}); ok {
		for _, v := range raw {
			s, _ := v.(string)
			if s = strings.TrimSpace(s); s != "" {
				out = appendUnique(out, NormalizeRole(s))
			}
		}
	}
	if len(out) == 0 {
		if single, ok := claims["role"].(string); ok && strings.TrimSpace(single) != "" {
			out = append(out, NormalizeRole(single))
		}
	}
	if len(out) == 0 {
		out = append(out, "ROLE_USER")
	}
	return out
}

// NormalizeRole maps a bare or prefixed role name to its canonical
// uppercase ROLE_ form: "admin" and "ROLE_ADMIN" both become "ROLE_ADMIN".
// Blank input maps to ROLE_USER.
func NormalizeRole(r string) string {
	r = strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(r), " ", "_"))
	if r == "" {
		return "ROLE_USER"
	}
	if strings.HasPrefix(r, "ROLE_") {
		return r
	}
	return "ROLE_" + r
}

func appendUnique(dst []string, s string) []string {
	for _, v := range dst {
		if v == s {
			return dst
		}
	}
	return append(dst, s)
}
