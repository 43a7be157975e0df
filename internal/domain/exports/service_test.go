package exports

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"timeclock/internal/domain/attendance"
	"timeclock/internal/domain/schedulechanges"
	"timeclock/internal/domain/vacation"
)

type fakeAttendance struct {
	filter attendance.ListFilter
	items  []attendance.Entry
}

func (f *fakeAttendance) List(_ context.Context, filter attendance.ListFilter) ([]attendance.Entry, error) {
	f.filter = filter
	return f.items, nil
}

type fakeVacations struct{ items []vacation.Request }

func (f fakeVacations) List(context.Context, vacation.ListFilter) ([]vacation.Request, error) {
	return f.items, nil
}

type fakeSchedule struct{ items []schedulechanges.Request }

func (f fakeSchedule) List(context.Context, schedulechanges.ListFilter) ([]schedulechanges.Request, error) {
	return f.items, nil
}

func TestAttendanceExportUsesLocalClock(t *testing.T) {
	madrid, err := time.LoadLocation("Europe/Madrid")
	require.NoError(t, err)
	checkIn := time.Date(2024, 6, 10, 6, 0, 0, 0, time.UTC)
	checkOut := time.Date(2024, 6, 10, 14, 30, 0, 0, time.UTC)
	att := &fakeAttendance{items: []attendance.Entry{
		{EmployeeName: "Ana", EmployeeEmail: "ana@example.com", Date: time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC),
			CheckIn: checkIn, CheckOut: &checkOut, TotalHours: 8.5, Status: attendance.StatusCheckedOut},
		{EmployeeName: "Luis", EmployeeEmail: "luis@example.com", Date: time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC),
			CheckIn: checkIn, Status: attendance.StatusCheckedIn},
	}}
	svc := NewService(att, fakeVacations{}, fakeSchedule{}, madrid)

	var buf bytes.Buffer
	require.NoError(t, svc.Write(context.Background(), &buf, KindAttendance, FormatCSV, Filter{CompanyID: "c1"}))

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, `"Employee","Email","Date","Check In","Check Out","Total Hours","Status"`, lines[0])
	assert.Equal(t, `"Ana","ana@example.com","2024-06-10","08:00","16:30","8.50","checked_out"`, lines[1])
	assert.Equal(t, `"Luis","luis@example.com","2024-06-10","08:00","","","checked_in"`, lines[2])
	assert.Equal(t, "c1", att.filter.CompanyID)
	assert.Zero(t, att.filter.Limit)
}

func TestVacationAndScheduleHeaders(t *testing.T) {
	svc := NewService(&fakeAttendance{}, fakeVacations{items: []vacation.Request{{
		EmployeeName: "Ana", StartDate: time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC), EndDate: time.Date(2024, 7, 5, 0, 0, 0, 0, time.UTC),
		TotalDays: 5, Status: vacation.StatusPending, Reason: "Trip",
	}}}, fakeSchedule{}, time.UTC)

	vac, err := svc.Build(context.Background(), KindVacations, Filter{})
	require.NoError(t, err)
	assert.Equal(t, []string{"Employee", "Email", "Start Date", "End Date", "Total Days", "Status", "Reason", "Admin Comments"}, vac.Headers)
	assert.Equal(t, []string{"Ana", "", "2024-07-01", "2024-07-05", "5", "pending", "Trip", ""}, vac.Rows[0])

	sched, err := svc.Build(context.Background(), KindScheduleChanges, Filter{})
	require.NoError(t, err)
	assert.Len(t, sched.Headers, 9)
	assert.Empty(t, sched.Rows)
}

func TestUnknownKindAndFormat(t *testing.T) {
	svc := NewService(&fakeAttendance{}, fakeVacations{}, fakeSchedule{}, time.UTC)
	var buf bytes.Buffer

	assert.ErrorIs(t, svc.Write(context.Background(), &buf, "payroll", FormatCSV, Filter{}), ErrUnknownKind)
	assert.ErrorIs(t, svc.Write(context.Background(), &buf, KindAttendance, "pdf", Filter{}), ErrUnknownFormat)
}

func TestFilename(t *testing.T) {
	assert.Equal(t, "vacations-2024-06-10.xlsx", Filename(KindVacations, FormatXLSX, time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC)))
}
