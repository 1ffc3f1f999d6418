package auth

// Principal is the resolved identity of the current request.  The zero value
// is the anonymous principal: no subject, no authorities.  It is attached to
// the request context by the authentication middleware and passed explicitly
// to every policy decision; there is no ambient global.
type Principal struct {
	Subject string   // login id from the access token's sub claim
	Roles   []string // normalized ROLE_-prefixed authorities
}

// Anonymous is the principal used for unauthenticated requests.
var Anonymous = Principal{}

// IsAnonymous reports whether the principal carries no authenticated subject.
func (p Principal) IsAnonymous() bool { return p.Subject == "" }

// IsAdmin reports whether the principal holds the admin authority.
func (p Principal) IsAdmin() bool {
	for _, r := range p.Roles {
		if r == "ROLE_ADMIN" {
			return true
		}
	}
	return false
}

// Owns reports whether the principal is the owner identified by the given
// login id snapshot.  Anonymous principals own nothing.
func (p Principal) Owns(ownerLoginID string) bool {
	return !p.IsAnonymous() && ownerLoginID != "" && p.Subject == ownerLoginID
}
