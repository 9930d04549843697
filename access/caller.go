package access

import "github.com/google/uuid"

type Role string

const (
	RoleAnonymous  Role = ""
	RoleStudent    Role = "student"
	RoleInstructor Role = "instructor"
	RoleAdmin      Role = "admin"
)

// Caller is the identity behind a request. The zero value is an anonymous caller.
type Caller struct {
	ID   uuid.UUID
	Role Role
}

func Anonymous() Caller { return Caller{} }

func (c Caller) IsAnonymous() bool {
	return c.Role == RoleAnonymous || c.ID == uuid.Nil
}
