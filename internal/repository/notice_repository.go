package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/dohyun-ko/animal-care-api/internal/model"
)

// NoticeRepo persists admin notices.
type NoticeRepo struct{ DB *sql.DB }

func NewNoticeRepo(db *sql.DB) *NoticeRepo { return &NoticeRepo{DB: db} }

// Create inserts a notice and returns its id.
func (r *NoticeRepo) Create(ctx context.Context, n *model.Notice) (uint64, error) {
	now := time.Now().UTC()
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO notice (title, content, author, views, created_at, updated_at) VALUES (?,?,?,0,?,?)",
		n.Title, n.Content, n.Author, now, now)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetAndCountView bumps the view counter and returns the notice.  The
// increment runs first so a concurrent read cannot observe the row without
// its own view counted.
func (r *NoticeRepo) GetAndCountView(ctx context.Context, id uint64) (model.Notice, error) {
	res, err := r.DB.ExecContext(ctx, "UPDATE notice SET views = views + 1 WHERE id=?", id)
	if err != nil {
		return model.Notice{}, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return model.Notice{}, ErrNotFound
	}
	return r.getByID(ctx, id)
}

func (r *NoticeRepo) getByID(ctx context.Context, id uint64) (model.Notice, error) {
	var n model.Notice
	err := r.DB.QueryRowContext(ctx,
		"SELECT id, title, content, author, views, created_at, updated_at FROM notice WHERE id=? LIMIT 1", id).
		Scan(&n.ID, &n.Title, &n.Content, &n.Author, &n.Views, &n.CreatedAt, &n.UpdatedAt)
	if err == sql.ErrNoRows {
		return model.Notice{}, ErrNotFound
	}
	return n, err
}

// ListPaged returns one page of notices, newest first, with display numbers
// counted from the oldest notice.  searchType narrows the keyword match to
// "title" or "content"; anything else matches either.  An empty keyword
// lists everything.
func (r *NoticeRepo) ListPaged(ctx context.Context, page, size int, searchType, keyword string) ([]model.NoticeListRow, uint64, error) {
	where := "1=1"
	args := []interface{}{}
	if keyword != "" {
		like := "%" + keyword + "%"
		switch searchType {
		case "title":
			where = "title LIKE ?"
			args = append(args, like)
		case "content":
			where = "content LIKE ?"
			args = append(args, like)
		default:
			where = "(title LIKE ? OR content LIKE ?)"
			args = append(args, like, like)
		}
	}

	query := `SELECT display_no, id, title, content, author, views, created_at, updated_at FROM (
			SELECT n.*, ROW_NUMBER() OVER (ORDER BY n.created_at ASC, n.id ASC) AS display_no
			FROM notice n WHERE ` + where + `
		) t
		ORDER BY display_no DESC
		LIMIT ? OFFSET ?`
	rows, err := r.DB.QueryContext(ctx, query, append(args, size, page*size)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []model.NoticeListRow
	for rows.Next() {
		var row model.NoticeListRow
		if err := rows.Scan(&row.DisplayNo, &row.ID, &row.Title, &row.Content, &row.Author, &row.Views,
			&row.CreatedAt, &row.UpdatedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	var total uint64
	if err := r.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM notice WHERE "+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// Update rewrites title and content.
func (r *NoticeRepo) Update(ctx context.Context, id uint64, title, content string) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE notice SET title=?, content=?, updated_at=? WHERE id=?",
		title, content, time.Now().UTC(), id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		var one int
		if err := r.DB.QueryRowContext(ctx, "SELECT 1 FROM notice WHERE id=? LIMIT 1", id).Scan(&one); err == sql.ErrNoRows {
			return ErrNotFound
		} else if err != nil {
			return err
		}
	}
	return nil
}

// Delete removes a notice.
func (r *NoticeRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM notice WHERE id=?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
