package model

import "time"

// Notice mirrors the `notice` table.  Notices are written by admins; Author
// snapshots the writing admin's nickname.  Views is bumped on every detail
// read.
type Notice struct {
	ID        uint64    // notice.id
	Title     string    // notice.title
	Content   string    // notice.content
	Author    string    // notice.author (admin nickname snapshot)
	Views     uint64    // notice.views
	CreatedAt time.Time // notice.created_at
	UpdatedAt time.Time // notice.updated_at
}

// NoticeListRow is a notice list entry carrying the display number computed
// for the current listing (oldest post = 1, shown newest first).
type NoticeListRow struct {
	DisplayNo uint64
	Notice
}
