// Package policy holds the pure visibility decisions for user-authored
// content.  Handlers own persistence and serialization; this package only
// answers "may this viewer see this record in full" and its derivatives.
// Every function takes the viewer explicitly so the decisions are testable
// without any request machinery.
package policy

import "github.com/dohyun-ko/animal-care-api/internal/auth"

// PrivateTitlePlaceholder replaces the title of a private post in list
// views.  It deliberately discloses nothing about the real title; the author
// nickname is still shown so the row remains attributable.
const PrivateTitlePlaceholder = "Private post"

// CanViewFull reports whether the viewer may see the record's real content:
// the record is public, or the viewer owns it, or the viewer is an admin.
func CanViewFull(isPublic bool, ownerLoginID string, viewer auth.Principal) bool {
	return isPublic || viewer.Owns(ownerLoginID) || viewer.IsAdmin()
}

// TitleOrPlaceholder returns the real title when the viewer may see it and
// the fixed placeholder otherwise.  Used by list endpoints so private rows
// still appear without leaking title text.
func TitleOrPlaceholder(title string, isPublic bool, ownerLoginID string, viewer auth.Principal) string {
	if CanViewFull(isPublic, ownerLoginID, viewer) {
		return title
	}
	return PrivateTitlePlaceholder
}

// ReplyContent returns the reply body when the viewer may see the PARENT in
// full, and nil otherwise.  Reply visibility is never evaluated on the reply
// itself: it cascades from the parent record.  Returning nil (rather than
// failing) lets list responses keep the entry structurally present with a
// null content field.
func ReplyContent(body string, parentPublic bool, parentOwnerLoginID string, viewer auth.Principal) *string {
	if CanViewFull(parentPublic, parentOwnerLoginID, viewer) {
		return &body
	}
	return nil
}

// CanMutate reports whether the actor may update or delete the record:
// owner or admin only.  Handlers map a false result to 403.
func CanMutate(ownerLoginID string, actor auth.Principal) bool {
	return actor.Owns(ownerLoginID) || actor.IsAdmin()
}

// ReplyVisibility gives the only legal is_public value for a reply: its
// parent's.  Write paths call this on create and on every update, ignoring
// any client-supplied flag, so the cascade invariant holds at rest.
func ReplyVisibility(parentPublic bool) bool {
	return parentPublic
}
