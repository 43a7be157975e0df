package shared

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"timeclock/internal/domain/auth"
)

func TestCompanyScope(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?companyId=c9", nil)
	if got := CompanyScope(req, auth.UserContext{CompanyID: "c1", Role: auth.RoleAdmin}); got != "c1" {
		t.Fatalf("admin scope should stay on own company, got %q", got)
	}
	if got := CompanyScope(req, auth.UserContext{Role: auth.RoleSuperAdmin}); got != "c9" {
		t.Fatalf("super admin scope should follow query, got %q", got)
	}
}

func TestTargetEmployee(t *testing.T) {
	employee := auth.UserContext{UserID: "e1", Role: auth.RoleEmployee}
	admin := auth.UserContext{UserID: "a1", Role: auth.RoleAdmin}
	if got := TargetEmployee(employee, "e2"); got != "e1" {
		t.Fatalf("employee must not target others, got %q", got)
	}
	if got := TargetEmployee(admin, "e2"); got != "e2" {
		t.Fatalf("admin should target e2, got %q", got)
	}
	if got := TargetEmployee(admin, " "); got != "a1" {
		t.Fatalf("admin without target acts on self, got %q", got)
	}
}

func TestOptionalDate(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?from=2024-06-01&to=junk", nil)
	from, err := OptionalDate(req, "from")
	if err != nil || from == nil || !from.Equal(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected from %v %v", from, err)
	}
	if _, err := OptionalDate(req, "to"); err == nil {
		t.Fatal("expected error for malformed date")
	}
	if missing, err := OptionalDate(req, "until"); err != nil || missing != nil {
		t.Fatalf("expected nil for absent date, got %v %v", missing, err)
	}
}
