package domain

import "time"

// User is the credential record returned by the user store.
type User struct {
	ID         string
	Username   string
	Credential string
	Role       Role
	Active     bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// ClaimInput builds the codec input for this user.
func (u *User) ClaimInput() ClaimInput {
	return ClaimInput{SubjectID: u.ID, PrincipalName: u.Username, Role: u.Role}
}
