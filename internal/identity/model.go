package identity

import "time"

// RoleAdmin is the stored role value that grants admin capability.
const RoleAdmin = "admin"

// User is a persisted identity record keyed by email. An empty Role means an
// ordinary user.
type User struct {
	ID        string
	Email     string
	Name      string
	PhotoURL  string
	Role      string
	CreatedAt time.Time
}

// Registration is the payload accepted when a user signs up.
type Registration struct {
	Email    string
	Name     string
	PhotoURL string
}
