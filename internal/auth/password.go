package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
)

// Passwords are stored as hex(SHA-256(salt || plaintext)) with a per-user
// random salt assigned once at signup.  The raw password never touches the
// database.

// GenerateSalt returns 32 bytes of secure random data, base64-encoded for
// storage alongside the hash.
func GenerateSalt() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(buf), nil
}

// HashPassword computes the hex digest of salt concatenated with the
// plaintext password.
func HashPassword(salt, plain string) string {
	sum := sha256.Sum256([]byte(salt + plain))
	return hex.EncodeToString(sum[:])
}

// VerifyPassword recomputes the digest with the stored salt and compares it
// against the stored hash in constant time.
func VerifyPassword(salt, storedHash, plain string) bool {
	computed := HashPassword(salt, plain)
	return subtle.ConstantTimeCompare([]byte(computed), []byte(storedHash)) == 1
}

// HashRefreshToken digests a raw refresh token for ledger storage.  Only the
// hash is persisted so a leaked database row cannot be replayed as a token.
func HashRefreshToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
