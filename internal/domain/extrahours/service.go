package extrahours

import (
	"context"
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
	store    StoreAPI
	notifier Notifier
	Location *time.Location
	Now      func() time.Time
}

func NewService(store StoreAPI, notifier Notifier, loc *time.Location) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{store: store, notifier: notifier, Location: loc, Now: time.Now}
}

func (s *Service) today() time.Time {
	return s.Now().In(s.Location)
}

func (s *Service) Summary(ctx context.Context, employeeID string) (Summary, error) {
	totals, err := s.store.Totals(ctx, employeeID)
	if err != nil {
		return Summary{}, err
	}
	return summarize(employeeID, totals), nil
}

func (s *Service) AvailableHours(ctx context.Context, employeeID string) (float64, error) {
	totals, err := s.store.Totals(ctx, employeeID)
	if err != nil {
		return 0, err
	}
	return Available(totals), nil
}

func (s *Service) ListGrants(ctx context.Context, filter ListFilter) ([]Grant, error) {
	return s.store.ListGrants(ctx, filter)
}

func (s *Service) ListCompensatory(ctx context.Context, filter ListFilter) ([]CompensatoryDay, error) {
	return s.store.ListCompensatory(ctx, filter)
}

func (s *Service) ListRequests(ctx context.Context, filter ListFilter) ([]UsageRequest, error) {
	return s.store.ListRequests(ctx, filter)
}

// Grant credits hours to an employee. It never checks the balance.
func (s *Service) Grant(ctx context.Context, in GrantInput) (Grant, error) {
	if in.Hours <= 0 {
		return Grant{}, ErrInvalidHours
	}
	in.Reason = strings.TrimSpace(in.Reason)
	g, err := s.store.CreateGrant(ctx, in)
	if err != nil {
		return Grant{}, err
	}
	s.notify(ctx, notifications.Notification{
		UserID:      in.EmployeeID,
		CompanyID:   in.CompanyID,
		Type:        notifications.TypeExtraHoursGranted,
		Title:       "Extra hours granted",
		Message:     fmt.Sprintf("%.2f extra hours were added to your balance.", in.Hours),
		RelatedType: notifications.RelatedExtraHours,
		RelatedID:   g.ID,
	})
	return g, nil
}

// GrantCompensatory credits days worth HoursPerDay each.
func (s *Service) GrantCompensatory(ctx context.Context, in CompensatoryInput) (CompensatoryDay, error) {
	if in.Days <= 0 {
		return CompensatoryDay{}, ErrInvalidDays
	}
	in.Reason = strings.TrimSpace(in.Reason)
	c, err := s.store.CreateCompensatory(ctx, in)
	if err != nil {
		return CompensatoryDay{}, err
	}
	s.notify(ctx, notifications.Notification{
		UserID:      in.EmployeeID,
		CompanyID:   in.CompanyID,
		Type:        notifications.TypeExtraHoursGranted,
		Title:       "Compensatory days granted",
		Message:     fmt.Sprintf("%.2f compensatory days (%.2f hours) were added to your balance.", in.Days, in.Days*HoursPerDay),
		RelatedType: notifications.RelatedExtraHours,
		RelatedID:   c.ID,
	})
	return c, nil
}

// RequestUsage files a pending request to spend hours on a future date.
func (s *Service) RequestUsage(ctx context.Context, in UsageInput) (UsageRequest, error) {
	if in.Hours <= 0 {
		return UsageRequest{}, ErrInvalidHours
	}
	available, err := s.AvailableHours(ctx, in.EmployeeID)
	if err != nil {
		return UsageRequest{}, err
	}
	if err := validateUsage(in.Hours, in.Date, s.today(), available); err != nil {
		return UsageRequest{}, err
	}

	in.Reason = strings.TrimSpace(in.Reason)
	req, err := s.store.CreateRequest(ctx, in)
	if err != nil {
		return UsageRequest{}, err
	}
	if s.notifier != nil {
		s.notifier.NotifyAdmins(ctx, in.CompanyID, in.EmployeeID, notifications.Notification{
			Type:        notifications.TypeExtraHoursSubmitted,
			Title:       "New extra hours request",
			Message:     fmt.Sprintf("%.2f hours requested for %s", in.Hours, in.Date.Format("2006-01-02")),
			RelatedType: notifications.RelatedExtraHoursRequest,
			RelatedID:   req.ID,
		})
	}
	return req, nil
}

// Approve debits the balance. It is refused when the request no longer fits
// the available hours.
func (s *Service) Approve(ctx context.Context, companyID, requestID, approverID, comments string) (UsageRequest, error) {
	req, err := s.pending(ctx, companyID, requestID)
	if err != nil {
		return UsageRequest{}, err
	}
	available, err := s.AvailableHours(ctx, req.EmployeeID)
	if err != nil {
		return UsageRequest{}, err
	}
	if req.HoursRequested > available {
		return UsageRequest{}, ErrInsufficientBalance
	}
	return s.decide(ctx, req, StatusApproved, approverID, comments)
}

func (s *Service) Reject(ctx context.Context, companyID, requestID, approverID, comments string) (UsageRequest, error) {
	req, err := s.pending(ctx, companyID, requestID)
	if err != nil {
		return UsageRequest{}, err
	}
	return s.decide(ctx, req, StatusRejected, approverID, comments)
}

func (s *Service) pending(ctx context.Context, companyID, requestID string) (UsageRequest, error) {
	req, err := s.store.GetRequest(ctx, companyID, requestID)
	if err != nil {
		return UsageRequest{}, err
	}
	if req.Status != StatusPending {
		return UsageRequest{}, ErrInvalidState
	}
	return req, nil
}

func (s *Service) decide(ctx context.Context, req UsageRequest, status, approverID, comments string) (UsageRequest, error) {
	ok, err := s.store.DecideRequest(ctx, req.ID, status, approverID, comments)
	if err != nil {
		return UsageRequest{}, err
	}
	if !ok {
		return UsageRequest{}, ErrInvalidState
	}
	now := s.Now()
	req.Status = status
	req.ApprovedBy = approverID
	req.ApprovedAt = &now
	req.AdminComments = comments

	n := notifications.Notification{
		UserID:      req.EmployeeID,
		CompanyID:   req.CompanyID,
		Type:        notifications.TypeExtraHoursApproved,
		Title:       "Extra hours request approved",
		RelatedType: notifications.RelatedExtraHoursRequest,
		RelatedID:   req.ID,
	}
	if status == StatusRejected {
		n.Type = notifications.TypeExtraHoursRejected
		n.Title = "Extra hours request rejected"
	}
	n.Message = fmt.Sprintf("Your request to use %.2f hours on %s was %s.", req.HoursRequested, req.RequestedDate.Format("2006-01-02"), status)
	s.notify(ctx, n)
	return req, nil
}

func (s *Service) notify(ctx context.Context, n notifications.Notification) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Notify(ctx, n); err != nil {
		logger.From(ctx).Warn().Err(err).Str("type", n.Type).Msg("extra hours notification failed")
	}
}
