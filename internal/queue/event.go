// Package queue defines message payloads exchanged over the message broker
// and the background consumer that processes them.
package queue

// ReplyCreatedQueue is the durable queue notification events are published
// to when an admin answers an inquiry.
const ReplyCreatedQueue = "inquiry.reply.created"

// ReplyCreatedEvent is published after an admin reply is persisted.  It
// carries enough for downstream notification or analytics consumers without
// another database round trip.  Private inquiries keep their title out of
// the event; the placeholder travels instead.
type ReplyCreatedEvent struct {
	InquiryID     uint64 `json:"inquiry_id"`
	InquiryTitle  string `json:"inquiry_title"`
	OwnerNickname string `json:"owner_nickname"`
	ReplyID       uint64 `json:"reply_id"`
	AdminNickname string `json:"admin_nickname"`
	CreatedAt     string `json:"created_at"`
}
