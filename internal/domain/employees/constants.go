package employees

const MinPasswordLength = 6

// DependentTables is the deletion order for an employee's rows. profiles
// comes last so that foreign keys from the other tables are gone first.
var DependentTables = []string{
	"notifications",
	"time_entries",
	"vacation_requests",
	"vacation_balances",
	"extra_hours",
	"extra_hours_requests",
	"compensatory_days",
	"schedule_change_requests",
	"payroll_records",
	"profiles",
}

func ownerColumn(table string) string {
	switch table {
	case "notifications":
		return "user_id"
	case "profiles":
		return "id"
	}
	return "employee_id"
}

func isDependentTable(table string) bool {
	for _, t := range DependentTables {
		if t == table {
			return true
		}
	}
	return false
}
