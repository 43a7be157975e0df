package schedulechanges

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
	Now      func() time.Time
}

func NewService(store StoreAPI, notifier Notifier) *Service {
	return &Service{store: store, notifier: notifier, Now: time.Now}
}

func (s *Service) List(ctx context.Context, filter ListFilter) ([]Request, error) {
	return s.store.List(ctx, filter)
}

// Create files a request, snapshotting the current times of the employee's
// entry on that date when there is one.
func (s *Service) Create(ctx context.Context, in CreateInput) (Request, error) {
	if !in.RequestedCheckOut.After(in.RequestedCheckIn) {
		return Request{}, ErrInvalidTimes
	}
	in.RequestedDate = time.Date(in.RequestedDate.Year(), in.RequestedDate.Month(), in.RequestedDate.Day(), 0, 0, 0, 0, time.UTC)
	in.Reason = strings.TrimSpace(in.Reason)

	currentIn, currentOut, err := s.store.CurrentTimes(ctx, in.EmployeeID, in.RequestedDate)
	if err != nil {
		return Request{}, fmt.Errorf("load current entry: %w", err)
	}
	req, err := s.store.Create(ctx, in, currentIn, currentOut)
	if err != nil {
		return Request{}, err
	}

	if s.notifier != nil {
		s.notifier.NotifyAdmins(ctx, in.CompanyID, in.EmployeeID, notifications.Notification{
			Type:        notifications.TypeScheduleSubmitted,
			Title:       "New schedule change request",
			Message:     fmt.Sprintf("Schedule change requested for %s: %s-%s", in.RequestedDate.Format("2006-01-02"), in.RequestedCheckIn.Format("15:04"), in.RequestedCheckOut.Format("15:04")),
			RelatedType: notifications.RelatedScheduleChange,
			RelatedID:   req.ID,
		})
	}
	return req, nil
}

func (s *Service) Approve(ctx context.Context, companyID, requestID, approverID, comments string) (Decision, error) {
	return s.decide(ctx, companyID, requestID, approverID, comments, StatusApproved)
}

func (s *Service) Reject(ctx context.Context, companyID, requestID, approverID, comments string) (Decision, error) {
	return s.decide(ctx, companyID, requestID, approverID, comments, StatusRejected)
}

func (s *Service) decide(ctx context.Context, companyID, requestID, approverID, comments, status string) (Decision, error) {
	req, err := s.store.Get(ctx, companyID, requestID)
	if err != nil {
		return Decision{}, err
	}
	if req.Status != StatusPending {
		return Decision{}, ErrInvalidState
	}
	applied, err := s.store.Decide(ctx, req, status, approverID, comments)
	if err != nil {
		return Decision{}, err
	}

	now := s.Now()
	req.Status = status
	req.ApprovedBy = approverID
	req.ApprovedAt = &now
	req.AdminComments = comments

	if s.notifier != nil {
		n := notifications.Notification{
			UserID:      req.EmployeeID,
			CompanyID:   req.CompanyID,
			Type:        notifications.TypeScheduleApproved,
			Title:       "Schedule change approved",
			Message:     fmt.Sprintf("Your schedule change for %s was %s.", req.RequestedDate.Format("2006-01-02"), status),
			RelatedType: notifications.RelatedScheduleChange,
			RelatedID:   req.ID,
		}
		if status == StatusRejected {
			n.Type = notifications.TypeScheduleRejected
			n.Title = "Schedule change rejected"
		}
		if err := s.notifier.Notify(ctx, n); err != nil {
			logger.From(ctx).Warn().Err(err).Str("requestId", req.ID).Msg("schedule change notification failed")
		}
	}
	return Decision{Request: req, EntryUpdated: applied}, nil
}
