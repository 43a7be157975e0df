package companies

import (
	"context"
	"strings"

	"timeclock/internal/platform/logger"
)

type Service struct {
	store StoreAPI
}

func NewService(store StoreAPI) *Service {
	return &Service{store: store}
}

func (s *Service) List(ctx context.Context, includeInactive bool) ([]Company, error) {
	return s.store.List(ctx, includeInactive)
}

func (s *Service) Get(ctx context.Context, id string) (Company, error) {
	return s.store.Get(ctx, id)
}

func (s *Service) Create(ctx context.Context, in CompanyInput) (Company, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.TaxID = strings.TrimSpace(in.TaxID)
	return s.store.Create(ctx, in)
}

func (s *Service) Update(ctx context.Context, id string, in CompanyInput) (Company, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.TaxID = strings.TrimSpace(in.TaxID)
	return s.store.Update(ctx, id, in)
}

func (s *Service) SetActive(ctx context.Context, id string, active bool) error {
	return s.store.SetActive(ctx, id, active)
}

func (s *Service) Stats(ctx context.Context, id string) (Stats, error) {
	if _, err := s.store.Get(ctx, id); err != nil {
		return Stats{}, err
	}
	return s.store.Stats(ctx, id)
}

// MigrateLegacyData assigns every legacy row (NULL company_id) of each
// tenant-scoped table to companyID, one table at a time. A failing table is
// logged and counted as 0; the run continues with the next table.
func (s *Service) MigrateLegacyData(ctx context.Context, companyID string) (MigrationResult, error) {
	company, err := s.store.Get(ctx, companyID)
	if err != nil {
		return MigrationResult{}, err
	}
	if !company.IsActive {
		return MigrationResult{}, ErrInactive
	}

	result := MigrationResult{Details: make(map[string]int64, len(LegacyTables))}
	failures := 0
	for _, table := range LegacyTables {
		updated, err := s.store.BackfillCompany(ctx, table, companyID)
		if err != nil {
			failures++
			result.Details[table] = 0
			if result.Errors == nil {
				result.Errors = map[string]string{}
			}
			result.Errors[table] = err.Error()
			logger.From(ctx).Error().Err(err).Str("table", table).Str("companyId", companyID).Msg("legacy backfill failed")
			continue
		}
		result.Details[table] = updated
		result.TotalUpdated += updated
		logger.From(ctx).Info().Str("table", table).Int64("updated", updated).Msg("legacy rows adopted")
	}
	result.Success = failures < len(LegacyTables)
	return result, nil
}
