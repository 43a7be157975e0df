package companies

// LegacyTables are the tenant-scoped tables whose rows may predate
// multi-tenancy and carry a NULL company_id.
var LegacyTables = []string{
	"profiles",
	"time_entries",
	"vacation_requests",
	"vacation_balances",
	"extra_hours",
	"extra_hours_requests",
	"compensatory_days",
	"schedule_change_requests",
	"payroll_records",
	"notifications",
}

func isLegacyTable(table string) bool {
	for _, candidate := range LegacyTables {
		if candidate == table {
			return true
		}
	}
	return false
}
