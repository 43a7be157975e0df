package reports

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"timeclock/internal/domain/vacation"
)

type fakeStore struct {
	today      time.Time
	monthStart time.Time
	monthEnd   time.Time
	counters   EmployeeDashboard
}

func (f *fakeStore) AdminCounters(_ context.Context, _ string, today time.Time) (AdminDashboard, error) {
	f.today = today
	return AdminDashboard{ActiveEmployees: 3}, nil
}

func (f *fakeStore) EmployeeCounters(_ context.Context, _ string, today, start, end time.Time) (EmployeeDashboard, error) {
	f.today, f.monthStart, f.monthEnd = today, start, end
	return f.counters, nil
}

func (f *fakeStore) ListJobRuns(context.Context, string, JobRunFilter, int, int) ([]JobRun, error) {
	return []JobRun{{ID: "j1"}}, nil
}

func (f *fakeStore) CountJobRuns(context.Context, string, JobRunFilter) (int, error) { return 1, nil }

func (f *fakeStore) JobRunByID(context.Context, string, string) (JobRun, error) {
	return JobRun{}, ErrJobRunNotFound
}

type fakeVacations struct{ err error }

func (f fakeVacations) CurrentBalance(context.Context, string, string) (vacation.Balance, error) {
	return vacation.Balance{Year: 2024, RemainingDays: 17}, f.err
}

type fakeExtraHours float64

func (f fakeExtraHours) AvailableHours(context.Context, string) (float64, error) { return float64(f), nil }

func TestEmployeeDashboardUsesBusinessDay(t *testing.T) {
	madrid, err := time.LoadLocation("Europe/Madrid")
	require.NoError(t, err)
	store := &fakeStore{counters: EmployeeDashboard{TodayStatus: "checked_in", MonthHours: 40}}
	svc := NewService(store, fakeVacations{}, fakeExtraHours(12.5), madrid)
	// 23:30 UTC on Jan 31 is already February 1 in Madrid.
	svc.Now = func() time.Time { return time.Date(2024, 1, 31, 23, 30, 0, 0, time.UTC) }

	d, err := svc.EmployeeDashboard(context.Background(), "e1", "c1")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), store.today)
	assert.Equal(t, time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC), store.monthEnd)
	assert.Equal(t, 17, d.VacationRemaining)
	assert.Equal(t, 12.5, d.ExtraHoursAvailable)
	assert.Equal(t, "checked_in", d.TodayStatus)
}

func TestEmployeeDashboardToleratesBalanceFailure(t *testing.T) {
	svc := NewService(&fakeStore{}, fakeVacations{err: errors.New("down")}, nil, time.UTC)

	d, err := svc.EmployeeDashboard(context.Background(), "e1", "c1")
	require.NoError(t, err)
	assert.Zero(t, d.VacationRemaining)
}

func TestJobRunsReturnsTotal(t *testing.T) {
	svc := NewService(&fakeStore{}, nil, nil, time.UTC)

	runs, total, err := svc.JobRuns(context.Background(), "c1", JobRunFilter{}, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Len(t, runs, 1)

	_, err = svc.JobRun(context.Background(), "c1", "missing")
	assert.ErrorIs(t, err, ErrJobRunNotFound)
}
