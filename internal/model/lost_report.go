package model

import "time"

// LostReport mirrors the `lost_report` table: a member's report of a lost
// pet.  Owner snapshots follow the same rules as Inquiry.  ImagePath is the
// web path of the stored upload, empty when no image was attached.
type LostReport struct {
	ID            uint64    // lost_report.id
	MemberID      uint64    // lost_report.member_no (FK -> user.id)
	OwnerLoginID  string    // lost_report.user_id (login id snapshot)
	OwnerNickname string    // lost_report.nickname (snapshot)
	DogName       string    // lost_report.dog_name
	Content       string    // lost_report.content
	Species       string    // lost_report.species
	Gender        string    // lost_report.gender
	DateLost      string    // lost_report.date_lost (YYYY-MM-DD)
	PlaceLost     string    // lost_report.place_lost
	Phone         string    // lost_report.phone
	ImagePath     string    // lost_report.image_path
	CreatedAt     time.Time // lost_report.created_at
	UpdatedAt     time.Time // lost_report.updated_at
}
