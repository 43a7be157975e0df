package notifications

const (
	TypeVacationSubmitted   = "vacation_submitted"
	TypeVacationApproved    = "vacation_approved"
	TypeVacationRejected    = "vacation_rejected"
	TypeExtraHoursSubmitted = "extra_hours_submitted"
	TypeExtraHoursApproved  = "extra_hours_approved"
	TypeExtraHoursRejected  = "extra_hours_rejected"
	TypeExtraHoursGranted   = "extra_hours_granted"
	TypeScheduleSubmitted   = "schedule_change_submitted"
	TypeScheduleApproved    = "schedule_change_approved"
	TypeScheduleRejected    = "schedule_change_rejected"
	TypePayrollPublished    = "payroll_published"
)

const (
	RelatedVacationRequest   = "vacation_request"
	RelatedExtraHoursRequest = "extra_hours_request"
	RelatedExtraHours        = "extra_hours"
	RelatedScheduleChange    = "schedule_change_request"
	RelatedPayrollRecord     = "payroll_record"
)
