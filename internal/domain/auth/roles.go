package auth

const (
	RoleEmployee   = "employee"
	RoleAdmin      = "admin"
	RoleSuperAdmin = "super_admin"
)

var Roles = []string{RoleEmployee, RoleAdmin, RoleSuperAdmin}

// UserContext is the authenticated caller placed on the request context.
type UserContext struct {
	UserID    string
	CompanyID string
	Role      string
}

func (u UserContext) IsAdmin() bool {
	return u.Role == RoleAdmin || u.Role == RoleSuperAdmin
}

func (u UserContext) IsSuperAdmin() bool {
	return u.Role == RoleSuperAdmin
}

// CanAccessCompany reports whether the caller may read or write rows that
// belong to companyID.
func (u UserContext) CanAccessCompany(companyID string) bool {
	if u.IsSuperAdmin() {
		return true
	}
	return companyID != "" && companyID == u.CompanyID
}
