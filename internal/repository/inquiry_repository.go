package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/dohyun-ko/animal-care-api/internal/model"
)

// InquiryRepo persists member inquiries.
type InquiryRepo struct{ DB *sql.DB }

func NewInquiryRepo(db *sql.DB) *InquiryRepo { return &InquiryRepo{DB: db} }

// Create inserts an inquiry with its owner snapshots and returns the id.
func (r *InquiryRepo) Create(ctx context.Context, q *model.Inquiry) (uint64, error) {
	now := time.Now().UTC()
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO inquiry (member_no, user_id, nickname, title, content, is_public, created_at, updated_at)
		 VALUES (?,?,?,?,?,?,?,?)`,
		q.MemberID, q.OwnerLoginID, q.OwnerNickname, q.Title, q.Content, q.IsPublic, now, now)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByID fetches one inquiry.
func (r *InquiryRepo) GetByID(ctx context.Context, id uint64) (model.Inquiry, error) {
	var q model.Inquiry
	err := r.DB.QueryRowContext(ctx,
		`SELECT id, member_no, user_id, nickname, title, content, is_public, created_at, updated_at
		 FROM inquiry WHERE id=? LIMIT 1`, id).
		Scan(&q.ID, &q.MemberID, &q.OwnerLoginID, &q.OwnerNickname, &q.Title, &q.Content, &q.IsPublic, &q.CreatedAt, &q.UpdatedAt)
	if err == sql.ErrNoRows {
		return model.Inquiry{}, ErrNotFound
	}
	return q, err
}

// ListPaged returns one page of inquiries in creation order with stable
// ascending display numbers and the answered flag.  Private rows are
// included; the handler decides whether their titles are shown.
func (r *InquiryRepo) ListPaged(ctx context.Context, page, size int) ([]model.InquiryListRow, uint64, error) {
	offset := page * size
	rows, err := r.DB.QueryContext(ctx,
		`SELECT display_no, id, title, user_id, nickname, is_public, answered, created_at FROM (
			SELECT i.id, i.title, i.user_id, i.nickname, i.is_public, i.created_at,
			       ROW_NUMBER() OVER (ORDER BY i.created_at ASC, i.id ASC) AS display_no,
			       EXISTS(SELECT 1 FROM inquiry_reply r WHERE r.inquiry_id = i.id) AS answered
			FROM inquiry i
		 ) t
		 ORDER BY display_no ASC
		 LIMIT ? OFFSET ?`, size, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []model.InquiryListRow
	for rows.Next() {
		var row model.InquiryListRow
		if err := rows.Scan(&row.DisplayNo, &row.ID, &row.Title, &row.OwnerLoginID, &row.OwnerNickname,
			&row.IsPublic, &row.Answered, &row.CreatedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	var total uint64
	if err := r.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM inquiry").Scan(&total); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// ListByOwner returns all inquiries authored by the given login id, newest
// first.  Used by the my-page endpoints.
func (r *InquiryRepo) ListByOwner(ctx context.Context, ownerLoginID string) ([]model.Inquiry, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT id, member_no, user_id, nickname, title, content, is_public, created_at, updated_at
		 FROM inquiry WHERE user_id=? ORDER BY created_at DESC, id DESC`, ownerLoginID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Inquiry
	for rows.Next() {
		var q model.Inquiry
		if err := rows.Scan(&q.ID, &q.MemberID, &q.OwnerLoginID, &q.OwnerNickname, &q.Title, &q.Content,
			&q.IsPublic, &q.CreatedAt, &q.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

// Update rewrites title, content and the public flag.  The public flag also
// cascades onto every reply of the inquiry in the same transaction so the
// reply-visibility invariant survives parent edits.
func (r *InquiryRepo) Update(ctx context.Context, id uint64, title, content string, isPublic bool) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UTC()
	res, err := tx.ExecContext(ctx,
		"UPDATE inquiry SET title=?, content=?, is_public=?, updated_at=? WHERE id=?",
		title, content, isPublic, now, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// RowsAffected is 0 for a no-op update as well, so confirm absence.
		var one int
		if err := tx.QueryRowContext(ctx, "SELECT 1 FROM inquiry WHERE id=? LIMIT 1", id).Scan(&one); err == sql.ErrNoRows {
			return ErrNotFound
		} else if err != nil {
			return err
		}
	}
	if _, err := tx.ExecContext(ctx,
		"UPDATE inquiry_reply SET is_public=?, updated_at=? WHERE inquiry_id=?",
		isPublic, now, id); err != nil {
		return err
	}
	return tx.Commit()
}

// Delete removes an inquiry; replies go via ON DELETE CASCADE.
func (r *InquiryRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM inquiry WHERE id=?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
