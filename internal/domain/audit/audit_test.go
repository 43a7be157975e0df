package audit

import (
	"context"
	"strings"
	"testing"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildBaseQueryNumbersArguments(t *testing.T) {
	query, args := buildBaseQuery("SELECT COUNT(1)", "c1", Filter{Action: ActionEmployeeDelete, ActorUser: "u1"})
	if !strings.Contains(query, "company_id::text = $1") || !strings.Contains(query, "action = $2") || !strings.Contains(query, "actor_user_id::text = $3") {
		t.Fatalf("unexpected query %q", query)
	}
	if len(args) != 3 {
		t.Fatalf("expected 3 args, got %d", len(args))
	}
}

func TestBuildBaseQueryAllCompanies(t *testing.T) {
	query, args := buildBaseQuery("SELECT COUNT(1)", "", Filter{EntityType: "employee"})
	if strings.Contains(query, "company_id") {
		t.Fatalf("did not expect company filter: %q", query)
	}
	if len(args) != 1 || args[0] != "employee" {
		t.Fatalf("unexpected args %v", args)
	}
}

func TestRecordMarshalsSnapshots(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec("INSERT INTO audit_events").
		WithArgs("c1", "u1", ActionCompanyMigrate, "company", "c1", []byte(nil), []byte(`{"totalUpdated":4}`), "req-1", "127.0.0.1").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	svc := New(mock)
	err = svc.Record(context.Background(), "c1", "u1", ActionCompanyMigrate, "company", "c1", "req-1", "127.0.0.1", nil, map[string]int{"totalUpdated": 4})
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
