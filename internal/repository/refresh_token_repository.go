package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/dohyun-ko/animal-care-api/internal/model"
)

// RefreshTokenRepo is the refresh-token ledger: at most one row per
// nickname, enforced by a UNIQUE constraint.  Login and refresh overwrite
// the row in place; logout soft-revokes it; expired rows are simply never
// returned by FindActive (no background sweeper).
type RefreshTokenRepo struct{ DB *sql.DB }

func NewRefreshTokenRepo(db *sql.DB) *RefreshTokenRepo { return &RefreshTokenRepo{DB: db} }

// Upsert writes the hash and expiry for a nickname's single ledger row,
// resetting the revoked flag.  The single INSERT ... ON DUPLICATE KEY
// UPDATE statement is atomic, so a login never hands out a refresh token
// whose hash failed to persist.
func (r *RefreshTokenRepo) Upsert(ctx context.Context, nickname, tokenHash string, expiresAt time.Time) error {
	_, err := r.DB.ExecContext(ctx,
		`INSERT INTO refresh_token (nickname, token_hash, expires_at, revoked)
		 VALUES (?,?,?,FALSE)
		 ON DUPLICATE KEY UPDATE token_hash=VALUES(token_hash), expires_at=VALUES(expires_at), revoked=FALSE`,
		nickname, tokenHash, expiresAt)
	return err
}

// FindActive returns the ledger row matching the hash only if it is neither
// revoked nor expired.  Revoked, expired and absent all collapse into
// ErrSessionNotFound.
func (r *RefreshTokenRepo) FindActive(ctx context.Context, tokenHash string) (model.RefreshToken, error) {
	var t model.RefreshToken
	err := r.DB.QueryRowContext(ctx,
		"SELECT id, nickname, token_hash, expires_at, revoked FROM refresh_token WHERE token_hash=? LIMIT 1",
		tokenHash).Scan(&t.ID, &t.Nickname, &t.TokenHash, &t.ExpiresAt, &t.Revoked)
	if err == sql.ErrNoRows {
		return model.RefreshToken{}, ErrSessionNotFound
	}
	if err != nil {
		return model.RefreshToken{}, err
	}
	if t.Revoked || !t.ExpiresAt.After(time.Now().UTC()) {
		return model.RefreshToken{}, ErrSessionNotFound
	}
	return t, nil
}

// Rotate atomically exchanges the active row matching oldHash for a row
// holding newHash.  The SELECT ... FOR UPDATE serializes concurrent
// refreshes and a refresh racing a revoke: whichever transaction wins the
// row lock decides the final state, and the loser sees the changed hash or
// the revoked flag and fails with ErrSessionNotFound.  The nickname of the
// locked row must match the refresh token's subject.
func (r *RefreshTokenRepo) Rotate(ctx context.Context, oldHash, nickname, newHash string, expiresAt time.Time) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var t model.RefreshToken
	err = tx.QueryRowContext(ctx,
		"SELECT id, nickname, expires_at, revoked FROM refresh_token WHERE token_hash=? LIMIT 1 FOR UPDATE",
		oldHash).Scan(&t.ID, &t.Nickname, &t.ExpiresAt, &t.Revoked)
	if err == sql.ErrNoRows {
		return ErrSessionNotFound
	}
	if err != nil {
		return err
	}
	if t.Revoked || !t.ExpiresAt.After(time.Now().UTC()) || t.Nickname != nickname {
		return ErrSessionNotFound
	}

	if _, err := tx.ExecContext(ctx,
		"UPDATE refresh_token SET token_hash=?, expires_at=?, revoked=FALSE WHERE id=?",
		newHash, expiresAt, t.ID); err != nil {
		return err
	}
	return tx.Commit()
}

// Revoke soft-revokes the nickname's ledger row.  The row is kept for
// inspection; FindActive treats it as missing.
func (r *RefreshTokenRepo) Revoke(ctx context.Context, nickname string) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE refresh_token SET revoked=TRUE WHERE nickname=?", nickname)
	return err
}

// RevokeByHash soft-revokes the row holding the given hash.  Missing rows
// are not an error: logout is idempotent.
func (r *RefreshTokenRepo) RevokeByHash(ctx context.Context, tokenHash string) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE refresh_token SET revoked=TRUE WHERE token_hash=?", tokenHash)
	return err
}
