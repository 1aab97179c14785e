package domain

// Caller is the authenticated identity an operation runs on behalf of.
// It is supplied by the transport layer and passed explicitly.
type Caller struct {
	ID   string
	Role Role
}

// IsAdmin reports whether the caller has administrative rights.
func (c Caller) IsAdmin() bool {
	return c.Role == RoleAdmin
}
