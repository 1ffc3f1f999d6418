package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/dohyun-ko/animal-care-api/internal/model"
)

// ReplyRepo persists admin replies to inquiries.  The is_public column is
// never taken from the caller's input: Create and Update both receive the
// value the write path derived from the parent inquiry.
type ReplyRepo struct{ DB *sql.DB }

func NewReplyRepo(db *sql.DB) *ReplyRepo { return &ReplyRepo{DB: db} }

// Create inserts a reply and returns its id.
func (r *ReplyRepo) Create(ctx context.Context, rep *model.InquiryReply) (uint64, error) {
	now := time.Now().UTC()
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO inquiry_reply (inquiry_id, admin_user_id, nickname, content, is_public, created_at, updated_at)
		 VALUES (?,?,?,?,?,?,?)`,
		rep.InquiryID, rep.AdminUserID, rep.AdminNickname, rep.Content, rep.IsPublic, now, now)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByID fetches one reply.
func (r *ReplyRepo) GetByID(ctx context.Context, id uint64) (model.InquiryReply, error) {
	var rep model.InquiryReply
	err := r.DB.QueryRowContext(ctx,
		`SELECT id, inquiry_id, admin_user_id, nickname, content, is_public, created_at, updated_at
		 FROM inquiry_reply WHERE id=? LIMIT 1`, id).
		Scan(&rep.ID, &rep.InquiryID, &rep.AdminUserID, &rep.AdminNickname, &rep.Content, &rep.IsPublic,
			&rep.CreatedAt, &rep.UpdatedAt)
	if err == sql.ErrNoRows {
		return model.InquiryReply{}, ErrNotFound
	}
	return rep, err
}

// ListByInquiry returns every reply of an inquiry, oldest first.
func (r *ReplyRepo) ListByInquiry(ctx context.Context, inquiryID uint64) ([]model.InquiryReply, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT id, inquiry_id, admin_user_id, nickname, content, is_public, created_at, updated_at
		 FROM inquiry_reply WHERE inquiry_id=? ORDER BY created_at ASC, id ASC`, inquiryID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.InquiryReply
	for rows.Next() {
		var rep model.InquiryReply
		if err := rows.Scan(&rep.ID, &rep.InquiryID, &rep.AdminUserID, &rep.AdminNickname, &rep.Content,
			&rep.IsPublic, &rep.CreatedAt, &rep.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, rep)
	}
	return out, rows.Err()
}

// Update rewrites the body and re-applies the visibility derived from the
// parent.
func (r *ReplyRepo) Update(ctx context.Context, id uint64, content string, isPublic bool) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE inquiry_reply SET content=?, is_public=?, updated_at=? WHERE id=?",
		content, isPublic, time.Now().UTC(), id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		var one int
		if err := r.DB.QueryRowContext(ctx, "SELECT 1 FROM inquiry_reply WHERE id=? LIMIT 1", id).Scan(&one); err == sql.ErrNoRows {
			return ErrNotFound
		} else if err != nil {
			return err
		}
	}
	return nil
}

// Delete removes a reply.
func (r *ReplyRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM inquiry_reply WHERE id=?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
