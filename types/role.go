package types

// AppRole is the name of a role in the fixed role enumeration.
type AppRole string

const (
	RoleUser  AppRole = "USER"
	RoleAdmin AppRole = "ADMIN"
)

// AuthorityPrefix is prepended to a role name to form its granted authority.
const AuthorityPrefix = "ROLE_"

// Role is a row of the roles lookup table. Rows are seeded by migrations
// and never written through user operations.
type Role struct {
	ID   int64   `json:"id" db:"role_id"`
	Name AppRole `json:"roleName" db:"role_name"`
}

// Authority returns the granted authority string for the role, e.g. "ROLE_ADMIN".
func (r Role) Authority() string {
	return AuthorityPrefix + string(r.Name)
}
