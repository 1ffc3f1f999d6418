package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/dohyun-ko/animal-care-api/internal/model"
)

// UserRepo persists identities in the `user` table.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

const userColumns = "id, login_id, nickname, email, password_hash, salt, role, created_at"

// Create inserts a new identity and returns its id.  Duplicate login id or
// nickname surface as the matching sentinel; MySQL reports both through
// error 1062, so the violated key name decides which.
func (r *UserRepo) Create(ctx context.Context, u *model.User) (uint64, error) {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO user (login_id, nickname, email, password_hash, salt, role, created_at) VALUES (?,?,?,?,?,?,?)",
		u.LoginID, u.Nickname, u.Email, u.PasswordHash, u.Salt, u.Role, time.Now().UTC())
	if err != nil {
		msg := err.Error()
		if strings.Contains(msg, "1062") {
			if strings.Contains(msg, "nickname") {
				return 0, ErrDuplicateNickname
			}
			return 0, ErrDuplicateLoginID
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByLoginID fetches an identity by login id.
func (r *UserRepo) GetByLoginID(ctx context.Context, loginID string) (model.User, error) {
	return r.getOne(ctx, "SELECT "+userColumns+" FROM user WHERE login_id=? LIMIT 1", loginID)
}

// GetByNickname fetches an identity by nickname.  The refresh flow resolves
// identities this way because refresh tokens carry the nickname as subject.
func (r *UserRepo) GetByNickname(ctx context.Context, nickname string) (model.User, error) {
	return r.getOne(ctx, "SELECT "+userColumns+" FROM user WHERE nickname=? LIMIT 1", nickname)
}

// GetByID fetches an identity by primary key.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	return r.getOne(ctx, "SELECT "+userColumns+" FROM user WHERE id=? LIMIT 1", id)
}

func (r *UserRepo) getOne(ctx context.Context, query string, arg interface{}) (model.User, error) {
	var u model.User
	err := r.DB.QueryRowContext(ctx, query, arg).
		Scan(&u.ID, &u.LoginID, &u.Nickname, &u.Email, &u.PasswordHash, &u.Salt, &u.Role, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return model.User{}, ErrNotFound
	}
	return u, err
}

// ExistsByLoginID reports whether a login id is already taken.
func (r *UserRepo) ExistsByLoginID(ctx context.Context, loginID string) (bool, error) {
	return r.exists(ctx, "SELECT 1 FROM user WHERE login_id=? LIMIT 1", loginID)
}

// ExistsByNickname reports whether a nickname is already taken.
func (r *UserRepo) ExistsByNickname(ctx context.Context, nickname string) (bool, error) {
	return r.exists(ctx, "SELECT 1 FROM user WHERE nickname=? LIMIT 1", nickname)
}

// ExistsByEmail reports whether an email is already registered.
func (r *UserRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return r.exists(ctx, "SELECT 1 FROM user WHERE email=? LIMIT 1", email)
}

func (r *UserRepo) exists(ctx context.Context, query string, arg interface{}) (bool, error) {
	var one int
	err := r.DB.QueryRowContext(ctx, query, arg).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// UpdateProfile applies self-service edits to nickname, email and password.
// Empty values leave the column untouched.  A password change supplies hash
// and salt together; the salt column follows the hash's emptiness check so
// the pair always changes atomically.  A nickname collision surfaces as
// ErrDuplicateNickname.
func (r *UserRepo) UpdateProfile(ctx context.Context, id uint64, nickname, email, passwordHash, salt string) error {
	_, err := r.DB.ExecContext(ctx,
		`UPDATE user SET
			nickname = IF(? = '', nickname, ?),
			email = IF(? = '', email, ?),
			password_hash = IF(? = '', password_hash, ?),
			salt = IF(? = '', salt, ?)
		WHERE id = ?`,
		nickname, nickname, email, email, passwordHash, passwordHash, passwordHash, salt, id)
	if err != nil && strings.Contains(err.Error(), "1062") {
		return ErrDuplicateNickname
	}
	return err
}

// UpdateRole changes an identity's role.  Admin console use only.
func (r *UserRepo) UpdateRole(ctx context.Context, id uint64, role string) error {
	res, err := r.DB.ExecContext(ctx, "UPDATE user SET role=? WHERE id=?", role, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		var one int
		if err := r.DB.QueryRowContext(ctx, "SELECT 1 FROM user WHERE id=? LIMIT 1", id).Scan(&one); err == sql.ErrNoRows {
			return ErrNotFound
		} else if err != nil {
			return err
		}
	}
	return nil
}

// ListAll returns every identity, newest first.  Admin console use only.
func (r *UserRepo) ListAll(ctx context.Context) ([]model.User, error) {
	rows, err := r.DB.QueryContext(ctx, "SELECT "+userColumns+" FROM user ORDER BY created_at DESC, id DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.User
	for rows.Next() {
		var u model.User
		if err := rows.Scan(&u.ID, &u.LoginID, &u.Nickname, &u.Email, &u.PasswordHash, &u.Salt, &u.Role, &u.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// Delete removes an identity.  Owned inquiries, replies and lost reports go
// with it via ON DELETE CASCADE on the member_no foreign keys.
func (r *UserRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM user WHERE id=?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
