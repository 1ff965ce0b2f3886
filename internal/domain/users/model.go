package users

import "time"

type Role string

const (
	RoleWorker Role = "worker"
	RoleAdmin  Role = "admin"
)

func (r Role) Valid() bool { return r == RoleWorker || r == RoleAdmin }

type User struct {
	ID        int64
	Name      string
	Email     string
	Role      Role
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Caller is the identity every mutation runs on behalf of. It is resolved
// upstream; this package only checks what the role may do.
type Caller struct {
	UserID int64
	Role   Role
}

func (c Caller) IsAdmin() bool { return c.Role == RoleAdmin }

func (c Caller) Valid() bool { return c.UserID > 0 && c.Role.Valid() }
