package exports

const (
	KindAttendance      = "attendance"
	KindVacations       = "vacations"
	KindScheduleChanges = "schedule-changes"
)

const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
)

var (
	attendanceHeaders = []string{"Employee", "Email", "Date", "Check In", "Check Out", "Total Hours", "Status"}
	vacationHeaders   = []string{"Employee", "Email", "Start Date", "End Date", "Total Days", "Status", "Reason", "Admin Comments"}
	scheduleHeaders   = []string{"Employee", "Email", "Date", "Current Check In", "Current Check Out",
		"Requested Check In", "Requested Check Out", "Reason", "Status"}
)

const (
	dateLayout  = "2006-01-02"
	clockLayout = "15:04"
)
