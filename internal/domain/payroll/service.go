package payroll

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"timeclock/internal/domain/notifications"
	"timeclock/internal/platform/logger"
)

type Notifier interface {
	Notify(ctx context.Context, n notifications.Notification) error
}

type Service struct {
	store    StoreAPI
	objects  ObjectStore
	notifier Notifier
	Now      func() time.Time
}

func NewService(store StoreAPI, objects ObjectStore, notifier Notifier) *Service {
	return &Service{store: store, objects: objects, notifier: notifier, Now: time.Now}
}

func (s *Service) List(ctx context.Context, filter ListFilter) ([]Record, error) {
	return s.store.List(ctx, filter)
}

func (s *Service) Get(ctx context.Context, companyID, recordID string) (Record, error) {
	return s.store.Get(ctx, companyID, recordID)
}

func (s *Service) Create(ctx context.Context, companyID string, in RecordInput) (Record, error) {
	if err := validateInput(in); err != nil {
		return Record{}, err
	}
	return s.store.Create(ctx, companyID, in, NetSalary(in.BaseSalary, in.Overtime, in.Bonuses, in.Deductions))
}

func (s *Service) Update(ctx context.Context, companyID, recordID string, in RecordInput) (before, after Record, err error) {
	before, err = s.store.Get(ctx, companyID, recordID)
	if err != nil {
		return Record{}, Record{}, err
	}
	if before.Status != StatusDraft {
		return Record{}, Record{}, ErrNotEditable
	}
	in.EmployeeID = before.EmployeeID
	if err := validateInput(in); err != nil {
		return Record{}, Record{}, err
	}
	after, err = s.store.Update(ctx, recordID, in, NetSalary(in.BaseSalary, in.Overtime, in.Bonuses, in.Deductions))
	return before, after, err
}

func (s *Service) SetStatus(ctx context.Context, companyID, recordID, status string) (Record, error) {
	rec, err := s.store.Get(ctx, companyID, recordID)
	if err != nil {
		return Record{}, err
	}
	if !CanTransition(rec.Status, status) {
		return Record{}, ErrInvalidTransition
	}
	ok, err := s.store.SetStatus(ctx, recordID, rec.Status, status)
	if err != nil {
		return Record{}, err
	}
	if !ok {
		return Record{}, ErrInvalidTransition
	}
	rec.Status = status

	if s.notifier != nil {
		n := notifications.Notification{
			UserID:      rec.EmployeeID,
			CompanyID:   rec.CompanyID,
			Type:        notifications.TypePayrollPublished,
			Title:       "Payroll updated",
			Message:     fmt.Sprintf("Your payroll for %02d/%d is now %s.", rec.Month, rec.Year, status),
			RelatedType: notifications.RelatedPayrollRecord,
			RelatedID:   rec.ID,
		}
		if err := s.notifier.Notify(ctx, n); err != nil {
			logger.From(ctx).Warn().Err(err).Str("recordId", rec.ID).Msg("payroll notification failed")
		}
	}
	return rec, nil
}

// Delete removes a draft record and its stored document.
func (s *Service) Delete(ctx context.Context, companyID, recordID string) (Record, error) {
	rec, err := s.store.Get(ctx, companyID, recordID)
	if err != nil {
		return Record{}, err
	}
	if rec.Status != StatusDraft {
		return Record{}, ErrNotEditable
	}
	ok, err := s.store.Delete(ctx, recordID)
	if err != nil {
		return Record{}, err
	}
	if !ok {
		return Record{}, ErrNotEditable
	}
	if rec.DocumentPath != "" {
		if err := s.objects.Delete(ctx, rec.DocumentPath); err != nil {
			logger.From(ctx).Warn().Err(err).Str("path", rec.DocumentPath).Msg("payroll document cleanup failed")
		}
	}
	return rec, nil
}

// UploadDocument stores data as the record's PDF document.
func (s *Service) UploadDocument(ctx context.Context, companyID, recordID string, data []byte) (Record, error) {
	if len(data) > MaxDocumentBytes {
		return Record{}, ErrDocumentTooLarge
	}
	if http.DetectContentType(data) != documentContentType {
		return Record{}, ErrInvalidDocument
	}
	rec, err := s.store.Get(ctx, companyID, recordID)
	if err != nil {
		return Record{}, err
	}
	return s.storeDocument(ctx, rec, data)
}

// GenerateDocument renders a payslip from the record and stores it as the
// record's document, replacing any previous one.
func (s *Service) GenerateDocument(ctx context.Context, companyID, recordID string) (Record, error) {
	rec, err := s.store.Get(ctx, companyID, recordID)
	if err != nil {
		return Record{}, err
	}
	data, err := RenderPayslip(rec, s.Now())
	if err != nil {
		return Record{}, err
	}
	return s.storeDocument(ctx, rec, data)
}

func (s *Service) storeDocument(ctx context.Context, rec Record, data []byte) (Record, error) {
	key := DocumentKey(rec.ID)
	if err := s.objects.Put(ctx, key, data); err != nil {
		return Record{}, fmt.Errorf("store payroll document: %w", err)
	}
	if err := s.store.SetDocumentPath(ctx, rec.ID, key); err != nil {
		return Record{}, err
	}
	rec.DocumentPath = key
	rec.HasDocument = true
	return rec, nil
}

// Document returns the stored PDF of a record.
func (s *Service) Document(ctx context.Context, companyID, recordID string) (Record, []byte, error) {
	rec, err := s.store.Get(ctx, companyID, recordID)
	if err != nil {
		return Record{}, nil, err
	}
	if rec.DocumentPath == "" {
		return Record{}, nil, ErrDocumentMissing
	}
	data, err := s.objects.Get(ctx, rec.DocumentPath)
	if err != nil {
		if errors.Is(err, ctx.Err()) {
			return Record{}, nil, err
		}
		return Record{}, nil, fmt.Errorf("%w: %v", ErrDocumentMissing, err)
	}
	return rec, data, nil
}
