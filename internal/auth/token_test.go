package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	codec := NewCodec("test-secret")

	raw, err := codec.IssueAccessToken("alice", "USER")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	claims, err := codec.Verify(raw)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if got := SubjectOf(claims); got != "alice" {
		t.Errorf("subject = %q, want alice", got)
	}
	if IsRefreshKind(claims) {
		t.Error("access token verified as refresh kind")
	}
	roles := RolesOf(claims)
	if len(roles) != 1 || roles[0] != "ROLE_USER" {
		t.Errorf("roles = %v, want [ROLE_USER]", roles)
	}
	if role, _ := claims["role"].(string); role != "USER" {
		t.Errorf("legacy role claim = %q, want USER", role)
	}
}

func TestRefreshTokenKind(t *testing.T) {
	codec := NewCodec("test-secret")

	raw, err := codec.IssueRefreshToken("alice-nick")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	claims, err := codec.Verify(raw)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if !IsRefreshKind(claims) {
		t.Error("refresh token not recognized as refresh kind")
	}
	if got := SubjectOf(claims); got != "alice-nick" {
		t.Errorf("subject = %q, want alice-nick", got)
	}
}

func TestRefreshTokensAreUnique(t *testing.T) {
	// Two tokens minted back to back share sub, typ, and second-granularity
	// iat/exp. They must still differ, otherwise rotating a session would
	// reissue the exact token that was just spent.
	codec := NewCodec("test-secret")

	first, err := codec.IssueRefreshToken("alice-nick")
	if err != nil {
		t.Fatalf("issue first: %v", err)
	}
	second, err := codec.IssueRefreshToken("alice-nick")
	if err != nil {
		t.Fatalf("issue second: %v", err)
	}
	if first == second {
		t.Fatal("consecutive refresh tokens are identical")
	}
	if HashRefreshToken(first) == HashRefreshToken(second) {
		t.Error("consecutive refresh tokens hash to the same ledger value")
	}
}

func TestVerifyRejectsWrongKey(t *testing.T) {
	raw, err := NewCodec("key-a").IssueAccessToken("alice", "USER")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := NewCodec("key-b").Verify(raw); !errors.Is(err, ErrTokenInvalid) {
		t.Errorf("err = %v, want ErrTokenInvalid", err)
	}
}

func TestVerifyRejectsGarbage(t *testing.T) {
	codec := NewCodec("test-secret")
	for _, raw := range []string{"", "not-a-token", "a.b.c"} {
		if _, err := codec.Verify(raw); !errors.Is(err, ErrTokenInvalid) {
			t.Errorf("Verify(%q) err = %v, want ErrTokenInvalid", raw, err)
		}
	}
}

func TestVerifyExpired(t *testing.T) {
	// Sign a token whose exp is already in the past with the codec's key.
	secret := "test-secret"
	past := time.Now().UTC().Add(-time.Hour)
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "alice",
		"iat": past.Add(-AccessTTL).Unix(),
		"exp": past.Unix(),
		"typ": KindAccess,
	}).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	if _, err := NewCodec(secret).Verify(raw); !errors.Is(err, ErrTokenExpired) {
		t.Errorf("err = %v, want ErrTokenExpired", err)
	}
}

func TestVerifyRejectsNonHMAC(t *testing.T) {
	// alg=none style tokens must not pass.
	raw, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"sub": "alice",
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := NewCodec("test-secret").Verify(raw); !errors.Is(err, ErrTokenInvalid) {
		t.Errorf("err = %v, want ErrTokenInvalid", err)
	}
}

func TestRolesOfFallbacks(t *testing.T) {
	cases := []struct {
		name   string
		claims jwt.MapClaims
		want   []string
	}{
		{"roles array wins", jwt.MapClaims{"roles": []interface{}{"ROLE_ADMIN", "admin"}, "role": "USER"}, []string{"ROLE_ADMIN"}},
		{"single role fallback", jwt.MapClaims{"role": "admin"}, []string{"ROLE_ADMIN"}},
		{"empty defaults to user", jwt.MapClaims{}, []string{"ROLE_USER"}},
		{"blank entries ignored", jwt.MapClaims{"roles": []interface{}{" ", ""}}, []string{"ROLE_USER"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := RolesOf(tc.claims)
			if len(got) != len(tc.want) {
				t.Fatalf("roles = %v, want %v", got, tc.want)
			}
			for i := range got {
				if got[i] != tc.want[i] {
					t.Fatalf("roles = %v, want %v", got, tc.want)
				}
			}
		})
	}
}

func TestNormalizeRole(t *testing.T) {
	cases := map[string]string{
		"admin":      "ROLE_ADMIN",
		"ADMIN":      "ROLE_ADMIN",
		"ROLE_ADMIN": "ROLE_ADMIN",
		"user":       "ROLE_USER",
		"":           "ROLE_USER",
		"  admin  ":  "ROLE_ADMIN",
	}
	for in, want := range cases {
		if got := NormalizeRole(in); got != want {
			t.Errorf("NormalizeRole(%q) = %q, want %q", in, got, want)
		}
	}
}
