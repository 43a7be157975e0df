package notifications

import (
	"context"

	"timeclock/internal/platform/logger"
)

type Mailer interface {
	Send(ctx context.Context, from, to, subject, body string) error
}

type Service struct {
	store       StoreAPI
	Mailer      Mailer
	DefaultFrom string
}

func New(store StoreAPI, mailer Mailer, from string) *Service {
	if from == "" {
		from = "no-reply@example.com"
	}
	return &Service{store: store, Mailer: mailer, DefaultFrom: from}
}

// Notify stores an in-app notification and, when a mailer is configured,
// mirrors it by e-mail. Mail failures are logged and never fail the caller.
func (s *Service) Notify(ctx context.Context, n Notification) error {
	if err := s.store.Create(ctx, n); err != nil {
		return err
	}
	if s.Mailer == nil {
		return nil
	}

	email, err := s.store.UserEmail(ctx, n.UserID)
	if err != nil {
		logger.From(ctx).Warn().Err(err).Str("userId", n.UserID).Msg("notification email lookup failed")
		return nil
	}
	if email == "" {
		return nil
	}
	if err := s.Mailer.Send(ctx, s.DefaultFrom, email, n.Title, n.Message); err != nil {
		logger.From(ctx).Warn().Err(err).Str("userId", n.UserID).Msg("notification email send failed")
	}
	return nil
}

// NotifyAdmins fans n out to every admin of companyID, skipping the actor.
func (s *Service) NotifyAdmins(ctx context.Context, companyID, actorID string, n Notification) {
	admins, err := s.store.AdminIDs(ctx, companyID)
	if err != nil {
		logger.From(ctx).Warn().Err(err).Str("companyId", companyID).Msg("admin lookup for notification failed")
		return
	}
	for _, adminID := range admins {
		if adminID == actorID {
			continue
		}
		msg := n
		msg.UserID = adminID
		msg.CompanyID = companyID
		if err := s.Notify(ctx, msg); err != nil {
			logger.From(ctx).Warn().Err(err).Str("userId", adminID).Msg("admin notification failed")
		}
	}
}

func (s *Service) List(ctx context.Context, userID string, unreadOnly bool, limit, offset int) ([]Notification, error) {
	return s.store.List(ctx, userID, unreadOnly, limit, offset)
}

func (s *Service) UnreadCount(ctx context.Context, userID string) (int, error) {
	return s.store.UnreadCount(ctx, userID)
}

func (s *Service) MarkRead(ctx context.Context, userID, notificationID string) (bool, error) {
	return s.store.MarkRead(ctx, userID, notificationID)
}

func (s *Service) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	return s.store.MarkAllRead(ctx, userID)
}
