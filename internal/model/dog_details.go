package model

// DogDetails mirrors the `dog_details` table: shelter dogs indexed by the
// AI image-search sidecar.  Rows are read-only from this service's point of
// view; the dataset is loaded out of band.
type DogDetails struct {
	ID       uint64 // dog_details.id
	Name     string // dog_details.name
	Species  string // dog_details.species
	Gender   string // dog_details.gender
	Age      string // dog_details.age
	Shelter  string // dog_details.shelter
	ImageURL string // dog_details.image_url
	Feature  string // dog_details.feature
}
