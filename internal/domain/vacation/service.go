package vacation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"timeclock/internal/domain/notifications"
	"timeclock/internal/platform/logger"
)

type Notifier interface {
	Notify(ctx context.Context, n notifications.Notification) error
	NotifyAdmins(ctx context.Context, companyID, actorID string, n notifications.Notification)
}

type Service struct {
	store       StoreAPI
	notifier    Notifier
	DefaultDays int
	Location    *time.Location
	Now         func() time.Time
}

func NewService(store StoreAPI, notifier Notifier, defaultDays int, loc *time.Location) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{store: store, notifier: notifier, DefaultDays: defaultDays, Location: loc, Now: time.Now}
}

func (s *Service) now() time.Time {
	return s.Now().In(s.Location)
}

func (s *Service) List(ctx context.Context, filter ListFilter) ([]Request, error) {
	return s.store.ListRequests(ctx, filter)
}

// CreateRequest validates and files a request. A request larger than the
// remaining balance is still created, annotated with ExceedsMarker, and the
// result carries a Warning for the caller.
func (s *Service) CreateRequest(ctx context.Context, in CreateInput) (CreateResult, error) {
	in.StartDate = dateOnly(in.StartDate)
	in.EndDate = dateOnly(in.EndDate)
	in.Reason = strings.TrimSpace(in.Reason)

	totalDays, err := TotalDays(in.StartDate, in.EndDate)
	if err != nil {
		return CreateResult{}, err
	}
	if !periodAllowed(s.now(), in.StartDate) {
		return CreateResult{}, ErrPeriodNotAllowed
	}

	existing, err := s.store.NonRejectedRequests(ctx, in.EmployeeID)
	if err != nil {
		return CreateResult{}, fmt.Errorf("load existing requests: %w", err)
	}
	for _, r := range existing {
		if Overlaps(r.StartDate, r.EndDate, in.StartDate, in.EndDate) {
			return CreateResult{}, ErrOverlap
		}
	}

	period := PeriodYear(in.StartDate)
	balance, err := s.Balance(ctx, in.EmployeeID, in.CompanyID, period)
	if err != nil {
		return CreateResult{}, err
	}

	var warning *Warning
	if totalDays > balance.RemainingDays {
		in.Reason = annotateExceeds(in.Reason)
		warning = &Warning{
			Code:      WarningExceedsDays,
			Message:   fmt.Sprintf("requested %d days but only %d remain in the %d period", totalDays, balance.RemainingDays, period),
			Requested: totalDays,
			Available: balance.RemainingDays,
		}
	}

	req, err := s.store.CreateRequest(ctx, in, totalDays)
	if err != nil {
		return CreateResult{}, err
	}

	if s.notifier != nil {
		s.notifier.NotifyAdmins(ctx, in.CompanyID, in.EmployeeID, notifications.Notification{
			Type:        notifications.TypeVacationSubmitted,
			Title:       "New vacation request",
			Message:     fmt.Sprintf("Vacation requested from %s to %s (%d days)", in.StartDate.Format("2006-01-02"), in.EndDate.Format("2006-01-02"), totalDays),
			RelatedType: notifications.RelatedVacationRequest,
			RelatedID:   req.ID,
		})
	}
	return CreateResult{Request: req, Warning: warning}, nil
}

func (s *Service) Approve(ctx context.Context, companyID, requestID, approverID, comments string) (Request, error) {
	return s.decide(ctx, companyID, requestID, approverID, comments, StatusApproved)
}

func (s *Service) Reject(ctx context.Context, companyID, requestID, approverID, comments string) (Request, error) {
	return s.decide(ctx, companyID, requestID, approverID, comments, StatusRejected)
}

func (s *Service) decide(ctx context.Context, companyID, requestID, approverID, comments, status string) (Request, error) {
	req, err := s.store.GetRequest(ctx, companyID, requestID)
	if err != nil {
		return Request{}, err
	}
	if req.Status != StatusPending {
		return Request{}, ErrInvalidState
	}
	period := PeriodYear(req.StartDate)
	start, end := PeriodBounds(period)
	ok, err := s.store.DecideRequest(ctx, Decision{
		RequestID:   requestID,
		Status:      status,
		ApproverID:  approverID,
		Comments:    comments,
		EmployeeID:  req.EmployeeID,
		CompanyID:   req.CompanyID,
		Year:        period,
		PeriodStart: start,
		PeriodEnd:   end,
		DefaultDays: s.DefaultDays,
	})
	if err != nil {
		return Request{}, err
	}
	if !ok {
		return Request{}, ErrInvalidState
	}

	now := s.now()
	req.Status = status
	req.ApprovedBy = approverID
	req.ApprovedAt = &now
	req.AdminComments = comments

	if s.notifier != nil {
		n := notifications.Notification{
			UserID:      req.EmployeeID,
			CompanyID:   req.CompanyID,
			Type:        notifications.TypeVacationApproved,
			Title:       "Vacation request approved",
			RelatedType: notifications.RelatedVacationRequest,
			RelatedID:   req.ID,
		}
		if status == StatusRejected {
			n.Type = notifications.TypeVacationRejected
			n.Title = "Vacation request rejected"
		}
		n.Message = fmt.Sprintf("Your vacation from %s to %s was %s.", req.StartDate.Format("2006-01-02"), req.EndDate.Format("2006-01-02"), status)
		if comments != "" {
			n.Message += " " + comments
		}
		if err := s.notifier.Notify(ctx, n); err != nil {
			logger.From(ctx).Warn().Err(err).Str("requestId", req.ID).Msg("vacation decision notification failed")
		}
	}
	return req, nil
}

// Cancel removes a pending request owned by employeeID.
func (s *Service) Cancel(ctx context.Context, companyID, employeeID, requestID string) error {
	req, err := s.store.GetRequest(ctx, companyID, requestID)
	if err != nil {
		return err
	}
	if req.EmployeeID != employeeID {
		return ErrForbidden
	}
	if req.Status != StatusPending {
		return ErrInvalidState
	}
	ok, err := s.store.DeletePendingRequest(ctx, employeeID, requestID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrInvalidState
	}
	return nil
}

// Balance returns the stored balance of year or, when none exists yet, the
// default allowance with nothing used.
func (s *Service) Balance(ctx context.Context, employeeID, companyID string, year int) (Balance, error) {
	start, end := PeriodBounds(year)
	b, err := s.store.GetBalance(ctx, employeeID, year)
	if errors.Is(err, ErrBalanceNotFound) {
		b = Balance{
			EmployeeID:    employeeID,
			CompanyID:     companyID,
			Year:          year,
			TotalDays:     s.DefaultDays,
			RemainingDays: s.DefaultDays,
		}
	} else if err != nil {
		return Balance{}, err
	}
	b.PeriodStart, b.PeriodEnd = start, end
	return b, nil
}

// CurrentBalance is Balance for the period containing today.
func (s *Service) CurrentBalance(ctx context.Context, employeeID, companyID string) (Balance, error) {
	return s.Balance(ctx, employeeID, companyID, PeriodYear(s.now()))
}

func (s *Service) SetBalance(ctx context.Context, employeeID, companyID string, year, totalDays int) (Balance, error) {
	start, end := PeriodBounds(year)
	b, err := s.store.SetBalanceTotal(ctx, employeeID, companyID, year, start, end, totalDays)
	if err != nil {
		return Balance{}, err
	}
	b.PeriodStart, b.PeriodEnd = start, end
	return b, nil
}

// OpenCurrentPeriod opens the current period's balance for every active
// employee lacking one.
func (s *Service) OpenCurrentPeriod(ctx context.Context) (int, int64, error) {
	year := PeriodYear(s.now())
	opened, err := s.store.OpenPeriod(ctx, year, s.DefaultDays)
	return year, opened, err
}
