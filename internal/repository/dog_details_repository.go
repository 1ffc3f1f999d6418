package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/dohyun-ko/animal-care-api/internal/model"
)

// DogDetailsRepo reads the shelter-dog catalog used by the image search.
// The table is loaded out of band; this service only reads it.
type DogDetailsRepo struct{ DB *sql.DB }

func NewDogDetailsRepo(db *sql.DB) *DogDetailsRepo { return &DogDetailsRepo{DB: db} }

const dogColumns = "id, name, species, gender, age, shelter, image_url, feature"

// GetByID fetches one catalog entry.
func (r *DogDetailsRepo) GetByID(ctx context.Context, id uint64) (model.DogDetails, error) {
	var d model.DogDetails
	err := r.DB.QueryRowContext(ctx,
		"SELECT "+dogColumns+" FROM dog_details WHERE id=? LIMIT 1", id).
		Scan(&d.ID, &d.Name, &d.Species, &d.Gender, &d.Age, &d.Shelter, &d.ImageURL, &d.Feature)
	if err == sql.ErrNoRows {
		return model.DogDetails{}, ErrNotFound
	}
	return d, err
}

// GetByIDs fetches the entries matching the given ids in one query.  Order
// is unspecified; callers re-rank the result themselves.
func (r *DogDetailsRepo) GetByIDs(ctx context.Context, ids []uint64) ([]model.DogDetails, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+dogColumns+" FROM dog_details WHERE id IN ("+placeholders+")", args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.DogDetails
	for rows.Next() {
		var d model.DogDetails
		if err := rows.Scan(&d.ID, &d.Name, &d.Species, &d.Gender, &d.Age, &d.Shelter, &d.ImageURL, &d.Feature); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}
