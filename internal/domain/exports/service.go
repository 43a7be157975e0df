package exports

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"time"

	"timeclock/internal/domain/attendance"
	"timeclock/internal/domain/schedulechanges"
	"timeclock/internal/domain/vacation"
)

type AttendanceLister interface {
	List(ctx context.Context, filter attendance.ListFilter) ([]attendance.Entry, error)
}

type VacationLister interface {
	List(ctx context.Context, filter vacation.ListFilter) ([]vacation.Request, error)
}

type ScheduleChangeLister interface {
	List(ctx context.Context, filter schedulechanges.ListFilter) ([]schedulechanges.Request, error)
}

// Filter narrows an export. Zero values mean no restriction; CompanyID is
// empty only for super admins.
type Filter struct {
	CompanyID  string
	EmployeeID string
	Status     string
	From       *time.Time
	To         *time.Time
}

type Service struct {
	attendance AttendanceLister
	vacations  VacationLister
	schedule   ScheduleChangeLister
	Location   *time.Location
}

func NewService(att AttendanceLister, vac VacationLister, sched ScheduleChangeLister, loc *time.Location) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{attendance: att, vacations: vac, schedule: sched, Location: loc}
}

func ValidFormat(format string) bool {
	return format == FormatCSV || format == FormatXLSX
}

// Build loads the rows of kind matching filter.
func (s *Service) Build(ctx context.Context, kind string, filter Filter) (Table, error) {
	switch kind {
	case KindAttendance:
		entries, err := s.attendance.List(ctx, attendance.ListFilter{
			CompanyID: filter.CompanyID, EmployeeID: filter.EmployeeID, From: filter.From, To: filter.To,
		})
		if err != nil {
			return Table{}, err
		}
		return s.attendanceTable(entries), nil
	case KindVacations:
		requests, err := s.vacations.List(ctx, vacation.ListFilter{
			CompanyID: filter.CompanyID, EmployeeID: filter.EmployeeID, Status: filter.Status, From: filter.From, To: filter.To,
		})
		if err != nil {
			return Table{}, err
		}
		return vacationTable(requests), nil
	case KindScheduleChanges:
		requests, err := s.schedule.List(ctx, schedulechanges.ListFilter{
			CompanyID: filter.CompanyID, EmployeeID: filter.EmployeeID, Status: filter.Status, From: filter.From, To: filter.To,
		})
		if err != nil {
			return Table{}, err
		}
		return s.scheduleTable(requests), nil
	}
	return Table{}, ErrUnknownKind
}

// Write builds kind and encodes it to w in format.
func (s *Service) Write(ctx context.Context, w io.Writer, kind, format string, filter Filter) error {
	if !ValidFormat(format) {
		return ErrUnknownFormat
	}
	table, err := s.Build(ctx, kind, filter)
	if err != nil {
		return err
	}
	if format == FormatXLSX {
		return WriteXLSX(w, table)
	}
	return WriteCSV(w, table)
}

// Filename is the attachment name for an export produced at now.
func Filename(kind, format string, now time.Time) string {
	return fmt.Sprintf("%s-%s.%s", kind, now.Format(dateLayout), format)
}

func (s *Service) attendanceTable(entries []attendance.Entry) Table {
	t := Table{Sheet: "Attendance", Headers: attendanceHeaders, Rows: make([][]string, 0, len(entries))}
	for _, e := range entries {
		hours := ""
		if e.CheckOut != nil {
			hours = strconv.FormatFloat(e.TotalHours, 'f', 2, 64)
		}
		t.Rows = append(t.Rows, []string{
			e.EmployeeName, e.EmployeeEmail, e.Date.Format(dateLayout),
			s.clock(&e.CheckIn), s.clock(e.CheckOut), hours, e.Status,
		})
	}
	return t
}

func vacationTable(requests []vacation.Request) Table {
	t := Table{Sheet: "Vacations", Headers: vacationHeaders, Rows: make([][]string, 0, len(requests))}
	for _, r := range requests {
		t.Rows = append(t.Rows, []string{
			r.EmployeeName, r.EmployeeEmail, r.StartDate.Format(dateLayout), r.EndDate.Format(dateLayout),
			strconv.Itoa(r.TotalDays), r.Status, r.Reason, r.AdminComments,
		})
	}
	return t
}

func (s *Service) scheduleTable(requests []schedulechanges.Request) Table {
	t := Table{Sheet: "Schedule changes", Headers: scheduleHeaders, Rows: make([][]string, 0, len(requests))}
	for _, r := range requests {
		t.Rows = append(t.Rows, []string{
			r.EmployeeName, r.EmployeeEmail, r.RequestedDate.Format(dateLayout),
			s.clock(r.CurrentCheckIn), s.clock(r.CurrentCheckOut),
			s.clock(&r.RequestedCheckIn), s.clock(&r.RequestedCheckOut), r.Reason, r.Status,
		})
	}
	return t
}

func (s *Service) clock(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.In(s.Location).Format(clockLayout)
}
