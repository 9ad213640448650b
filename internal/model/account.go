package model

import "time"

// Role is the dashboard persona an account acts as. It is only ever taken
// from a verified session, never from request input.
type Role string

const (
	RoleClient       Role = "client"
	RoleNutritionist Role = "nutritionist"
	RoleCEO          Role = "ceo"
	RoleSysAdmin     Role = "sysadmin"
	RoleAthlete      Role = "athlete"
)

// Roles lists every valid role.
var Roles = []Role{RoleClient, RoleNutritionist, RoleCEO, RoleSysAdmin, RoleAthlete}

func (r Role) Valid() bool {
	for _, known := range Roles {
		if r == known {
			return true
		}
	}
	return false
}

// Account is a staff or client login.
type Account struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	DisplayName  string    `json:"display_name"`
	Role         Role      `json:"role"`
	PasswordHash string    `json:"-"`
	GitHubID     *int64    `json:"github_id,omitempty"` // set once the account signs in with GitHub
	ClientID     *int64    `json:"client_id,omitempty"` // for RoleClient: the client row this login belongs to
	CreatedAt    time.Time `json:"created_at"`
}
