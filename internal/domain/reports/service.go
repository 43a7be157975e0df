package reports

import (
	"context"
	"time"

	"timeclock/internal/domain/vacation"
	"timeclock/internal/platform/logger"
)

type StoreAPI interface {
	AdminCounters(ctx context.Context, companyID string, today time.Time) (AdminDashboard, error)
	EmployeeCounters(ctx context.Context, employeeID string, today, monthStart, monthEnd time.Time) (EmployeeDashboard, error)
	ListJobRuns(ctx context.Context, companyID string, filter JobRunFilter, limit, offset int) ([]JobRun, error)
	CountJobRuns(ctx context.Context, companyID string, filter JobRunFilter) (int, error)
	JobRunByID(ctx context.Context, companyID, runID string) (JobRun, error)
}

type VacationBalances interface {
	CurrentBalance(ctx context.Context, employeeID, companyID string) (vacation.Balance, error)
}

type ExtraHoursBalances interface {
	AvailableHours(ctx context.Context, employeeID string) (float64, error)
}

type Service struct {
	store      StoreAPI
	vacations  VacationBalances
	extraHours ExtraHoursBalances
	Location   *time.Location
	Now        func() time.Time
}

func NewService(store StoreAPI, vacations VacationBalances, extraHours ExtraHoursBalances, loc *time.Location) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{store: store, vacations: vacations, extraHours: extraHours, Location: loc, Now: time.Now}
}

func (s *Service) today() time.Time {
	local := s.Now().In(s.Location)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC)
}

func (s *Service) AdminDashboard(ctx context.Context, companyID string) (AdminDashboard, error) {
	return s.store.AdminCounters(ctx, companyID, s.today())
}

// EmployeeDashboard combines the stored counters with the vacation and
// extra-hours balances. A failing balance lookup leaves its field at zero.
func (s *Service) EmployeeDashboard(ctx context.Context, employeeID, companyID string) (EmployeeDashboard, error) {
	today := s.today()
	monthStart := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, time.UTC)
	monthEnd := monthStart.AddDate(0, 1, -1)

	d, err := s.store.EmployeeCounters(ctx, employeeID, today, monthStart, monthEnd)
	if err != nil {
		return EmployeeDashboard{}, err
	}
	if s.vacations != nil {
		balance, err := s.vacations.CurrentBalance(ctx, employeeID, companyID)
		if err != nil {
			logger.From(ctx).Warn().Err(err).Str("employeeId", employeeID).Msg("dashboard vacation balance failed")
		} else {
			d.VacationRemaining = balance.RemainingDays
			d.VacationYear = balance.Year
		}
	}
	if s.extraHours != nil {
		hours, err := s.extraHours.AvailableHours(ctx, employeeID)
		if err != nil {
			logger.From(ctx).Warn().Err(err).Str("employeeId", employeeID).Msg("dashboard extra hours failed")
		} else {
			d.ExtraHoursAvailable = hours
		}
	}
	return d, nil
}

func (s *Service) JobRuns(ctx context.Context, companyID string, filter JobRunFilter, limit, offset int) ([]JobRun, int, error) {
	total, err := s.store.CountJobRuns(ctx, companyID, filter)
	if err != nil {
		return nil, 0, err
	}
	runs, err := s.store.ListJobRuns(ctx, companyID, filter, limit, offset)
	return runs, total, err
}

func (s *Service) JobRun(ctx context.Context, companyID, runID string) (JobRun, error) {
	return s.store.JobRunByID(ctx, companyID, runID)
}
