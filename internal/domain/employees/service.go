package employees

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"timeclock/internal/domain/auth"
	"timeclock/internal/domain/vacation"
	"timeclock/internal/platform/logger"
)

type Service struct {
	store       StoreAPI
	objects     ObjectRemover
	DefaultDays int
	Location    *time.Location
	Now         func() time.Time
}

func NewService(store StoreAPI, objects ObjectRemover, defaultDays int, loc *time.Location) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{store: store, objects: objects, DefaultDays: defaultDays, Location: loc, Now: time.Now}
}

func (s *Service) List(ctx context.Context, filter ListFilter) ([]Employee, error) {
	return s.store.List(ctx, filter)
}

func (s *Service) Get(ctx context.Context, companyID, employeeID string) (Employee, error) {
	return s.store.Get(ctx, companyID, employeeID)
}

// Update edits profile fields. An empty role keeps the current one.
func (s *Service) Update(ctx context.Context, actor auth.UserContext, companyID, employeeID string, in UpdateInput) (before, after Employee, err error) {
	before, err = s.store.Get(ctx, companyID, employeeID)
	if err != nil {
		return Employee{}, Employee{}, err
	}
	if in.Role == "" {
		in.Role = before.Role
	}
	if in.Role != before.Role {
		if err := CanAssignRole(actor, in.Role); err != nil {
			return Employee{}, Employee{}, err
		}
	}
	if before.Role == auth.RoleSuperAdmin && !actor.IsSuperAdmin() {
		return Employee{}, Employee{}, ErrRoleNotAllowed
	}
	in.FullName = strings.TrimSpace(in.FullName)
	if in.FullName == "" {
		in.FullName = before.FullName
	}
	after, err = s.store.Update(ctx, employeeID, in)
	return before, after, err
}

func (s *Service) SetActive(ctx context.Context, companyID, employeeID string, active bool) error {
	if _, err := s.store.Get(ctx, companyID, employeeID); err != nil {
		return err
	}
	return s.store.SetActive(ctx, employeeID, active)
}

// Create registers a new identity and profile on behalf of actor and opens
// the current vacation period for it.
func (s *Service) Create(ctx context.Context, actor auth.UserContext, in CreateInput) (Employee, error) {
	if err := CanCreate(actor, in); err != nil {
		return Employee{}, err
	}
	if in.Role == "" {
		in.Role = auth.RoleEmployee
	}
	if !actor.IsSuperAdmin() {
		in.CompanyID = actor.CompanyID
	}
	in.Email = normalizeEmail(in.Email)
	in.FullName = strings.TrimSpace(in.FullName)

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return Employee{}, fmt.Errorf("hash password: %w", err)
	}
	year := vacation.PeriodYear(s.Now().In(s.Location))
	emp, err := s.store.CreateWithIdentity(ctx, in, hash, year, s.DefaultDays)
	if err != nil {
		return Employee{}, err
	}
	logger.From(ctx).Info().Str("employeeId", emp.ID).Str("companyId", emp.CompanyID).Str("role", emp.Role).Msg("employee created")
	return emp, nil
}

// Delete removes every row belonging to the employee, table by table. When
// any table fails the identity is kept and ErrDeleteFailed is returned with
// the report; otherwise the identity and stored payroll documents go too.
func (s *Service) Delete(ctx context.Context, actor auth.UserContext, employeeID string) (DeletionReport, error) {
	if !actor.IsAdmin() {
		return DeletionReport{}, ErrForbidden
	}
	companyID := actor.CompanyID
	if actor.IsSuperAdmin() {
		companyID = ""
	}
	emp, err := s.store.Get(ctx, companyID, employeeID)
	if err != nil {
		return DeletionReport{}, err
	}
	if emp.Role == auth.RoleSuperAdmin && !actor.IsSuperAdmin() {
		return DeletionReport{}, ErrRoleNotAllowed
	}

	documents, err := s.store.PayrollDocumentPaths(ctx, employeeID)
	if err != nil {
		return DeletionReport{}, err
	}

	report := DeletionReport{EmployeeID: employeeID, Deleted: map[string]int64{}, Errors: map[string]string{}}
	var errs []error
	for _, table := range DependentTables {
		n, err := s.store.DeleteRows(ctx, table, employeeID)
		if err != nil {
			logger.From(ctx).Error().Err(err).Str("table", table).Str("employeeId", employeeID).Msg("employee delete step failed")
			report.Errors[table] = err.Error()
			errs = append(errs, fmt.Errorf("%s: %w", table, err))
			continue
		}
		report.Deleted[table] = n
	}
	if len(errs) > 0 {
		return report, fmt.Errorf("%w: %w", ErrDeleteFailed, errors.Join(errs...))
	}

	if err := s.store.DeleteIdentity(ctx, employeeID); err != nil {
		return report, fmt.Errorf("%w: users: %w", ErrDeleteFailed, err)
	}
	report.IdentityDeleted = true

	for _, path := range documents {
		if s.objects == nil {
			break
		}
		if err := s.objects.Delete(ctx, path); err != nil {
			logger.From(ctx).Warn().Err(err).Str("path", path).Msg("payroll document cleanup failed")
			continue
		}
		report.DocumentsRemoved++
	}
	return report, nil
}

// CompanyOf returns the company of employeeID, which must be visible within
// companyScope.
func (s *Service) CompanyOf(ctx context.Context, companyScope, employeeID string) (string, error) {
	emp, err := s.store.Get(ctx, companyScope, employeeID)
	if err != nil {
		return "", err
	}
	return emp.CompanyID, nil
}
