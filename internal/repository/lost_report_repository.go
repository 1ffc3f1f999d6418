package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/dohyun-ko/animal-care-api/internal/model"
)

// LostReportRepo persists lost-pet reports.
type LostReportRepo struct{ DB *sql.DB }

func NewLostReportRepo(db *sql.DB) *LostReportRepo { return &LostReportRepo{DB: db} }

const lostReportColumns = `id, member_no, user_id, nickname, dog_name, content, species, gender,
	date_lost, place_lost, phone, image_path, created_at, updated_at`

// Create inserts a report with its owner snapshots and returns the id.
func (r *LostReportRepo) Create(ctx context.Context, p *model.LostReport) (uint64, error) {
	now := time.Now().UTC()
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO lost_report (member_no, user_id, nickname, dog_name, content, species, gender,
			date_lost, place_lost, phone, image_path, created_at, updated_at)
		 VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		p.MemberID, p.OwnerLoginID, p.OwnerNickname, p.DogName, p.Content, p.Species, p.Gender,
		p.DateLost, p.PlaceLost, p.Phone, p.ImagePath, now, now)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByID fetches one report.
func (r *LostReportRepo) GetByID(ctx context.Context, id uint64) (model.LostReport, error) {
	row := r.DB.QueryRowContext(ctx,
		"SELECT "+lostReportColumns+" FROM lost_report WHERE id=? LIMIT 1", id)
	p, err := scanLostReport(row)
	if err == sql.ErrNoRows {
		return model.LostReport{}, ErrNotFound
	}
	return p, err
}

// ListPaged returns one page of reports, newest first, plus the total count.
func (r *LostReportRepo) ListPaged(ctx context.Context, page, size int) ([]model.LostReport, uint64, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+lostReportColumns+" FROM lost_report ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?",
		size, page*size)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []model.LostReport
	for rows.Next() {
		p, err := scanLostReport(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	var total uint64
	if err := r.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM lost_report").Scan(&total); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// ListByOwner returns all reports authored by the given login id, newest
// first.
func (r *LostReportRepo) ListByOwner(ctx context.Context, ownerLoginID string) ([]model.LostReport, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+lostReportColumns+" FROM lost_report WHERE user_id=? ORDER BY created_at DESC, id DESC",
		ownerLoginID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.LostReport
	for rows.Next() {
		p, err := scanLostReport(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Update writes the full field set of an already-merged report.  The
// handler loads the record, applies partial input, then saves it back.
func (r *LostReportRepo) Update(ctx context.Context, p *model.LostReport) error {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE lost_report SET dog_name=?, content=?, species=?, gender=?, date_lost=?,
			place_lost=?, phone=?, image_path=?, updated_at=?
		 WHERE id=?`,
		p.DogName, p.Content, p.Species, p.Gender, p.DateLost,
		p.PlaceLost, p.Phone, p.ImagePath, time.Now().UTC(), p.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		var one int
		if err := r.DB.QueryRowContext(ctx, "SELECT 1 FROM lost_report WHERE id=? LIMIT 1", p.ID).Scan(&one); err == sql.ErrNoRows {
			return ErrNotFound
		} else if err != nil {
			return err
		}
	}
	return nil
}

// Delete removes a report.
func (r *LostReportRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM lost_report WHERE id=?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface{ Scan(dest ...interface{}) error }

func scanLostReport(row rowScanner) (model.LostReport, error) {
	var p model.LostReport
	var imagePath sql.NullString
	err := row.Scan(&p.ID, &p.MemberID, &p.OwnerLoginID, &p.OwnerNickname, &p.DogName, &p.Content,
		&p.Species, &p.Gender, &p.DateLost, &p.PlaceLost, &p.Phone, &imagePath, &p.CreatedAt, &p.UpdatedAt)
	p.ImagePath = imagePath.String
	return p, err
}
