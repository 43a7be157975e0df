package jobs

import (
	"context"
	"encoding/json"
	"time"

	"timeclock/internal/platform/logger"
	"timeclock/internal/platform/querier"
)

const (
	JobVacationPeriodOpen = "vacation_period_open"
	JobCompanyMigration   = "company_migration"
)

const (
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// RunFunc does the work of one job and returns details stored on its run.
type RunFunc func(context.Context) (any, error)

// PeriodOpener opens vacation balances for the current period.
type PeriodOpener interface {
	OpenCurrentPeriod(ctx context.Context) (int, int64, error)
}

type Service struct {
	DB       querier.Querier
	Vacation PeriodOpener
	Interval time.Duration
	queue    chan job
}

type job struct {
	Type      string
	CompanyID string
	Run       RunFunc
}

func New(db querier.Querier, vacation PeriodOpener, interval time.Duration) *Service {
	return &Service{
		DB:       db,
		Vacation: vacation,
		Interval: interval,
		queue:    make(chan job, 128),
	}
}

// Start runs the queue worker and, when an interval is set, the vacation
// period scheduler. The first period check runs immediately.
func (s *Service) Start(ctx context.Context) {
	go s.worker(ctx)
	if s.Interval > 0 && s.Vacation != nil {
		go s.scheduleVacationPeriods(ctx, s.Interval)
	}
}

func (s *Service) Enqueue(jobType, companyID string, run RunFunc) bool {
	select {
	case s.queue <- job{Type: jobType, CompanyID: companyID, Run: run}:
		return true
	default:
		logger.From(context.Background()).Warn().Str("jobType", jobType).Str("companyId", companyID).Msg("job queue full")
		return false
	}
}

// RunNow runs a job synchronously and records it like a queued one.
func (s *Service) RunNow(ctx context.Context, jobType, companyID string, run RunFunc) (any, error) {
	return s.runJob(ctx, job{Type: jobType, CompanyID: companyID, Run: run})
}

func (s *Service) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case j := <-s.queue:
			if _, err := s.runJob(ctx, j); err != nil {
				logger.From(ctx).Warn().Err(err).Str("jobType", j.Type).Str("companyId", j.CompanyID).Msg("job run failed")
			}
		}
	}
}

func (s *Service) runJob(ctx context.Context, j job) (any, error) {
	log := logger.From(ctx)
	runID := ""
	if err := s.DB.QueryRow(ctx, `
    INSERT INTO job_runs (company_id, job_type, status)
    VALUES ($1,$2,$3)
    RETURNING id
  `, nullIfEmpty(j.CompanyID), j.Type, StatusRunning).Scan(&runID); err != nil {
		log.Warn().Err(err).Str("jobType", j.Type).Msg("job run insert failed")
	}

	details, err := j.Run(ctx)
	status := StatusCompleted
	if err != nil {
		status = StatusFailed
		details = map[string]any{"error": err.Error(), "result": details}
	}
	detailsJSON, marshalErr := json.Marshal(details)
	if marshalErr != nil {
		log.Warn().Err(marshalErr).Msg("job details marshal failed")
		detailsJSON = []byte("{}")
	}
	if runID != "" {
		if _, updErr := s.DB.Exec(ctx, `
      UPDATE job_runs
      SET status = $1, details_json = $2, completed_at = now()
      WHERE id = $3
    `, status, detailsJSON, runID); updErr != nil {
			log.Warn().Err(updErr).Str("runId", runID).Msg("job run update failed")
		}
	}
	log.Info().Str("jobType", j.Type).Str("companyId", j.CompanyID).Str("status", status).Msg("job finished")
	return details, err
}

func (s *Service) openVacationPeriod() RunFunc {
	return func(ctx context.Context) (any, error) {
		year, opened, err := s.Vacation.OpenCurrentPeriod(ctx)
		return map[string]any{"year": year, "opened": opened}, err
	}
}

func (s *Service) scheduleVacationPeriods(ctx context.Context, interval time.Duration) {
	s.Enqueue(JobVacationPeriodOpen, "", s.openVacationPeriod())
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Enqueue(JobVacationPeriodOpen, "", s.openVacationPeriod())
		}
	}
}

func nullIfEmpty(value string) any {
	if value == "" {
		return nil
	}
	return value
}
