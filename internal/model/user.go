package model

import "time"

// Roles stored on the user row.  The bare value goes into the single "role"
// token claim; middleware normalizes it to the ROLE_-prefixed authority.
const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

// User mirrors the `user` table.  login_id and nickname are both unique;
// the password is stored as a salted SHA-256 digest next to its salt.
type User struct {
	ID           uint64    // user.id
	LoginID      string    // user.login_id (unique)
	Nickname     string    // user.nickname (unique)
	Email        string    // user.email
	PasswordHash string    // user.password_hash
	Salt         string    // user.salt (base64, replaced on password change)
	Role         string    // user.role (USER | ADMIN)
	CreatedAt    time.Time // user.created_at
}

// RefreshToken mirrors the `refresh_token` table.  The table holds at most
// one row per nickname (UNIQUE constraint); login and refresh overwrite the
// row in place instead of appending.  Only the SHA-256 hash of the raw
// token is stored.
type RefreshToken struct {
	ID        uint64    // refresh_token.id
	Nickname  string    // refresh_token.nickname (unique)
	TokenHash string    // refresh_token.token_hash
	ExpiresAt time.Time // refresh_token.expires_at
	Revoked   bool      // refresh_token.revoked (soft revoke, row kept)
}
