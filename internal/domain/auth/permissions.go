package auth

import "context"

const (
	PermAttendanceRead    = "attendance.read"
	PermAttendanceWrite   = "attendance.write"
	PermAttendanceManage  = "attendance.manage"
	PermVacationRead      = "vacation.read"
	PermVacationWrite     = "vacation.write"
	PermVacationApprove   = "vacation.approve"
	PermExtraHoursRead    = "extrahours.read"
	PermExtraHoursWrite   = "extrahours.write"
	PermExtraHoursManage  = "extrahours.manage"
	PermScheduleRead      = "schedule.read"
	PermScheduleWrite     = "schedule.write"
	PermScheduleApprove   = "schedule.approve"
	PermPayrollRead       = "payroll.read"
	PermPayrollWrite      = "payroll.write"
	PermEmployeesRead     = "employees.read"
	PermEmployeesWrite    = "employees.write"
	PermReportsRead       = "reports.read"
	PermExportsRead       = "exports.read"
	PermNotificationsRead = "notifications.read"
	PermAuditRead         = "audit.read"
	PermCompaniesManage   = "companies.manage"
	PermCompaniesMigrate  = "companies.migrate"
	PermMetricsRead       = "metrics.read"
)

var DefaultPermissions = []string{
	PermAttendanceRead,
	PermAttendanceWrite,
	PermAttendanceManage,
	PermVacationRead,
	PermVacationWrite,
	PermVacationApprove,
	PermExtraHoursRead,
	PermExtraHoursWrite,
	PermExtraHoursManage,
	PermScheduleRead,
	PermScheduleWrite,
	PermScheduleApprove,
	PermPayrollRead,
	PermPayrollWrite,
	PermEmployeesRead,
	PermEmployeesWrite,
	PermReportsRead,
	PermExportsRead,
	PermNotificationsRead,
	PermAuditRead,
	PermCompaniesManage,
	PermCompaniesMigrate,
	PermMetricsRead,
}

var employeePermissions = []string{
	PermAttendanceRead,
	PermAttendanceWrite,
	PermVacationRead,
	PermVacationWrite,
	PermExtraHoursRead,
	PermExtraHoursWrite,
	PermScheduleRead,
	PermScheduleWrite,
	PermPayrollRead,
	PermReportsRead,
	PermNotificationsRead,
}

var adminPermissions = append(append([]string{}, employeePermissions...),
	PermAttendanceManage,
	PermVacationApprove,
	PermExtraHoursManage,
	PermScheduleApprove,
	PermPayrollWrite,
	PermEmployeesRead,
	PermEmployeesWrite,
	PermExportsRead,
	PermAuditRead,
	PermMetricsRead,
)

var RolePermissions = map[string][]string{
	RoleEmployee:   employeePermissions,
	RoleAdmin:      adminPermissions,
	RoleSuperAdmin: append(append([]string{}, adminPermissions...), PermCompaniesManage, PermCompaniesMigrate),
}

// StaticPermissions resolves permissions from RolePermissions without a
// database round trip.
type StaticPermissions struct {
	index map[string]map[string]struct{}
}

func NewStaticPermissions() *StaticPermissions {
	index := make(map[string]map[string]struct{}, len(RolePermissions))
	for role, perms := range RolePermissions {
		set := make(map[string]struct{}, len(perms))
		for _, perm := range perms {
			set[perm] = struct{}{}
		}
		index[role] = set
	}
	return &StaticPermissions{index: index}
}

func (p *StaticPermissions) HasPermission(_ context.Context, role, permission string) (bool, error) {
	set, ok := p.index[role]
	if !ok {
		return false, nil
	}
	_, ok = set[permission]
	return ok, nil
}
