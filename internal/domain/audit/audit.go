package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"timeclock/internal/platform/querier"
)

// Actions recorded by the HTTP layer.
const (
	ActionEmployeeCreate     = "employee.create"
	ActionEmployeeUpdate     = "employee.update"
	ActionEmployeeStatus     = "employee.status"
	ActionEmployeeDelete     = "employee.delete"
	ActionCompanyCreate      = "company.create"
	ActionCompanyUpdate      = "company.update"
	ActionCompanyMigrate     = "company.migrate_legacy"
	ActionVacationDecision   = "vacation.decision"
	ActionVacationBalanceSet = "vacation.balance.set"
	ActionExtraHoursGrant    = "extrahours.grant"
	ActionCompensatoryGrant  = "extrahours.compensatory_grant"
	ActionExtraHoursDecision = "extrahours.decision"
	ActionScheduleDecision   = "schedule.decision"
	ActionAttendanceEdit     = "attendance.edit"
	ActionAttendanceDelete   = "attendance.delete"
	ActionRegularize         = "attendance.regularize"
	ActionPayrollWrite       = "payroll.write"
	ActionPayrollStatus      = "payroll.status"
	ActionPayrollDelete      = "payroll.delete"
	ActionPayrollDocument    = "payroll.document"
)

type Event struct {
	ID         string          `json:"id"`
	CompanyID  string          `json:"companyId,omitempty"`
	ActorID    string          `json:"actorId"`
	Action     string          `json:"action"`
	EntityType string          `json:"entityType"`
	EntityID   string          `json:"entityId"`
	RequestID  string          `json:"requestId"`
	IP         string          `json:"ip"`
	CreatedAt  time.Time       `json:"createdAt"`
	Before     json.RawMessage `json:"before,omitempty"`
	After      json.RawMessage `json:"after,omitempty"`
}

type Filter struct {
	Action     string
	EntityType string
	ActorUser  string
}

type Service struct {
	DB querier.Querier
}

func New(db querier.Querier) *Service {
	return &Service{DB: db}
}

func (s *Service) Record(ctx context.Context, companyID, actorID, action, entityType, entityID, requestID, ip string, before, after any) error {
	beforeJSON, err := marshalOptional(before)
	if err != nil {
		return err
	}
	afterJSON, err := marshalOptional(after)
	if err != nil {
		return err
	}

	_, err = s.DB.Exec(ctx, `
    INSERT INTO audit_events (company_id, actor_user_id, action, entity_type, entity_id, before_json, after_json, request_id, ip)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
  `, nullIfEmpty(companyID), nullIfEmpty(actorID), action, entityType, entityID, beforeJSON, afterJSON, requestID, ip)
	return err
}

func (s *Service) Count(ctx context.Context, companyID string, filter Filter) (int, error) {
	query, args := buildBaseQuery("SELECT COUNT(1)", companyID, filter)
	var total int
	if err := s.DB.QueryRow(ctx, query, args...).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

// List returns events newest first. An empty companyID lists every company
// and is only used for super admins.
func (s *Service) List(ctx context.Context, companyID string, filter Filter, includeDetails bool, limit, offset int) ([]Event, error) {
	selectCols := "SELECT id, COALESCE(company_id::text, ''), COALESCE(actor_user_id::text, ''), action, entity_type, entity_id, request_id, ip, created_at"
	if includeDetails {
		selectCols += ", before_json, after_json"
	}
	query, args := buildBaseQuery(selectCols, companyID, filter)
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Event{}
	for rows.Next() {
		var evt Event
		dest := []any{&evt.ID, &evt.CompanyID, &evt.ActorID, &evt.Action, &evt.EntityType, &evt.EntityID, &evt.RequestID, &evt.IP, &evt.CreatedAt}
		if includeDetails {
			dest = append(dest, &evt.Before, &evt.After)
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		out = append(out, evt)
	}
	return out, rows.Err()
}

func buildBaseQuery(prefix, companyID string, filter Filter) (string, []any) {
	query := prefix + " FROM audit_events WHERE 1=1"
	var args []any
	if companyID != "" {
		args = append(args, companyID)
		query += fmt.Sprintf(" AND company_id::text = $%d", len(args))
	}
	if filter.Action != "" {
		args = append(args, filter.Action)
		query += fmt.Sprintf(" AND action = $%d", len(args))
	}
	if filter.EntityType != "" {
		args = append(args, filter.EntityType)
		query += fmt.Sprintf(" AND entity_type = $%d", len(args))
	}
	if filter.ActorUser != "" {
		args = append(args, filter.ActorUser)
		query += fmt.Sprintf(" AND actor_user_id::text = $%d", len(args))
	}
	return query, args
}

func marshalOptional(value any) ([]byte, error) {
	if value == nil {
		return nil, nil
	}
	return json.Marshal(value)
}

func nullIfEmpty(value string) any {
	if value == "" {
		return nil
	}
	return value
}
