package model

import "github.com/google/uuid"

type Role string

const (
	RoleAdmin      Role = "ADMIN"
	RoleSales      Role = "SALES"
	RoleFSM        Role = "FSM"
	RoleAccounting Role = "ACCOUNTING"
	RoleClient     Role = "CLIENT"
)

// Principal is the authenticated actor extracted from the access token.
// RoleClient principals are synthesized server-side for the public
// quote-review flow and never come from a token.
type Principal struct {
	UserID uuid.UUID
	Name   string
	Role   Role
}

func (p Principal) IsAdmin() bool      { return p.Role == RoleAdmin }
func (p Principal) IsSales() bool      { return p.Role == RoleSales }
func (p Principal) IsFSM() bool        { return p.Role == RoleFSM }
func (p Principal) IsAccounting() bool { return p.Role == RoleAccounting }
func (p Principal) IsClient() bool     { return p.Role == RoleClient }
