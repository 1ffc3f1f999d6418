package model

import "time"

// Inquiry mirrors the `inquiry` table.  OwnerLoginID and OwnerNickname are
// snapshots taken when the post is created; they are never re-synced if the
// author later edits their profile.  Display values come from the snapshot,
// ownership checks key on the login id snapshot.
type Inquiry struct {
	ID            uint64    // inquiry.id
	MemberID      uint64    // inquiry.member_no (FK -> user.id)
	OwnerLoginID  string    // inquiry.user_id (login id snapshot)
	OwnerNickname string    // inquiry.nickname (snapshot)
	Title         string    // inquiry.title
	Content       string    // inquiry.content
	IsPublic      bool      // inquiry.is_public
	CreatedAt     time.Time // inquiry.created_at
	UpdatedAt     time.Time // inquiry.updated_at
}

// InquiryListRow is one row of the paged inquiry list: the entity fields the
// list needs plus the computed display number (ascending by creation) and
// the answered flag (the inquiry has at least one reply).
type InquiryListRow struct {
	DisplayNo     uint64
	ID            uint64
	Title         string
	OwnerLoginID  string
	OwnerNickname string
	IsPublic      bool
	Answered      bool
	CreatedAt     time.Time
}

// InquiryReply mirrors the `inquiry_reply` table.  Replies are authored by
// admins only.  IsPublic is always forced equal to the parent inquiry's
// is_public at create and update time; it is stored denormalized so list
// queries never join just to decide exposure.
type InquiryReply struct {
	ID            uint64    // inquiry_reply.id
	InquiryID     uint64    // inquiry_reply.inquiry_id (FK, required)
	AdminUserID   uint64    // inquiry_reply.admin_user_id (FK -> user.id)
	AdminNickname string    // inquiry_reply.nickname (snapshot)
	Content       string    // inquiry_reply.content
	IsPublic      bool      // inquiry_reply.is_public (== parent.is_public)
	CreatedAt     time.Time // inquiry_reply.created_at
	UpdatedAt     time.Time // inquiry_reply.updated_at
}
