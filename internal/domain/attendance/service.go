package attendance

import (
	"context"
	"fmt"
	"strings"
	"time"

	"timeclock/internal/platform/logger"
)

type Service struct {
	store         StoreAPI
	Template      ShiftTemplate
	MonthlyTarget float64
	Location      *time.Location
	Now           func() time.Time
}

func NewService(store StoreAPI, template ShiftTemplate, monthlyTarget float64, loc *time.Location) *Service {
	if loc == nil {
		loc = time.UTC
	}
	if monthlyTarget <= 0 {
		monthlyTarget = DefaultMonthlyTarget
	}
	if len(template.Slots) == 0 {
		template = DefaultShiftTemplate()
	}
	return &Service{store: store, Template: template, MonthlyTarget: monthlyTarget, Location: loc, Now: time.Now}
}

func (s *Service) now() time.Time {
	return s.Now().In(s.Location)
}

// calendarDate is the business-local date of t as a UTC midnight, the form
// DATE columns are written in.
func calendarDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func (s *Service) CheckIn(ctx context.Context, in PunchInput) (Entry, error) {
	now := s.now()
	in.Notes = strings.TrimSpace(in.Notes)
	return s.store.CheckIn(ctx, in, calendarDate(now), now)
}

func (s *Service) CheckOut(ctx context.Context, in PunchInput) (Entry, error) {
	in.Notes = strings.TrimSpace(in.Notes)
	return s.store.CheckOut(ctx, in, s.now())
}

// Today returns today's entry for the employee, or nil.
func (s *Service) Today(ctx context.Context, employeeID string) (*Entry, error) {
	return s.store.EntryForDate(ctx, employeeID, calendarDate(s.now()))
}

func (s *Service) List(ctx context.Context, filter ListFilter) ([]Entry, error) {
	return s.store.List(ctx, filter)
}

func (s *Service) Get(ctx context.Context, companyID, entryID string) (Entry, error) {
	return s.store.Get(ctx, companyID, entryID)
}

// AdminUpdate edits the times or notes of an entry in companyID. Clearing
// the check-out is not supported.
func (s *Service) AdminUpdate(ctx context.Context, companyID, entryID string, in AdminUpdateInput) (before, after Entry, err error) {
	before, err = s.store.Get(ctx, companyID, entryID)
	if err != nil {
		return Entry{}, Entry{}, err
	}
	checkIn := before.CheckIn
	if in.CheckIn != nil {
		checkIn = *in.CheckIn
	}
	checkOut := before.CheckOut
	if in.CheckOut != nil {
		out := *in.CheckOut
		checkOut = &out
	}
	notes := before.Notes
	if in.Notes != nil {
		notes = strings.TrimSpace(*in.Notes)
	}
	if checkOut != nil && !checkOut.After(checkIn) {
		return Entry{}, Entry{}, ErrInvalidTimes
	}
	after, err = s.store.Update(ctx, entryID, checkIn, checkOut, notes)
	return before, after, err
}

func (s *Service) AdminDelete(ctx context.Context, companyID, entryID string) (Entry, error) {
	entry, err := s.store.Get(ctx, companyID, entryID)
	if err != nil {
		return Entry{}, err
	}
	ok, err := s.store.Delete(ctx, companyID, entryID)
	if err != nil {
		return Entry{}, err
	}
	if !ok {
		return Entry{}, ErrNotFound
	}
	return entry, nil
}

func monthBounds(now time.Time) (time.Time, time.Time) {
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 1, -1)
}

func (s *Service) MonthSummary(ctx context.Context, employeeID string) (MonthSummary, error) {
	now := s.now()
	from, to := monthBounds(now)
	entries, err := s.store.EntriesBetween(ctx, employeeID, from, to)
	if err != nil {
		return MonthSummary{}, err
	}
	summary := MonthSummary{EmployeeID: employeeID, Month: from, TargetHours: s.MonthlyTarget}
	for _, e := range entries {
		summary.WorkedHours += e.TotalHours
		summary.DaysWorked++
		if e.Status == StatusCheckedIn {
			summary.OpenEntry = true
		}
	}
	summary.WorkedHours = round2(summary.WorkedHours)
	if remaining := s.MonthlyTarget - summary.WorkedHours; remaining > 0 {
		summary.RemainingHours = round2(remaining)
	}
	return summary, nil
}

// Regularize synthesizes closed entries for the current month until the
// employee reaches the monthly target.
func (s *Service) Regularize(ctx context.Context, employeeID, companyID string) (RegularizationResult, error) {
	now := s.now()
	from, _ := monthBounds(now)
	existing, err := s.store.EntriesBetween(ctx, employeeID, from, calendarDate(now))
	if err != nil {
		return RegularizationResult{}, fmt.Errorf("load month entries: %w", err)
	}

	plan, err := PlanRegularization(now, existing, s.Template, s.MonthlyTarget)
	if err != nil {
		return RegularizationResult{}, err
	}
	result := RegularizationResult{
		EmployeeID:     employeeID,
		WorkedBefore:   plan.WorkedHours,
		HoursAdded:     plan.HoursAdded,
		RemainingAfter: plan.RemainingHours,
		Entries:        plan.Entries,
	}
	if len(plan.Entries) == 0 {
		return result, nil
	}

	inserted, err := s.store.InsertRegularized(ctx, employeeID, companyID, plan.Entries)
	if err != nil {
		return RegularizationResult{}, err
	}
	result.EntriesCreated = inserted
	if inserted != int64(len(plan.Entries)) {
		logger.From(ctx).Warn().
			Str("employeeId", employeeID).
			Int64("inserted", inserted).
			Int("planned", len(plan.Entries)).
			Msg("some regularized days gained an entry concurrently")
	}
	return result, nil
}
