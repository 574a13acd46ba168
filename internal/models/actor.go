package models

const (
	RoleWaiter  = "waiter"
	RoleCashier = "cashier"
	RoleManager = "manager"
)

// Actor is the authenticated identity behind every mutating call. How
// it is authenticated is the gateway's problem; the core only needs the
// id for audit rows and the role for void-on-completed checks.
type Actor struct {
	ID   string `json:"id"`
	Role string `json:"role"`
}
