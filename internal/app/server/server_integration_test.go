package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"timeclock/internal/app/server"
	"timeclock/internal/platform/config"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code string `json:"code"`
	} `json:"error"`
}

func newIntegrationApp(t *testing.T) *server.App {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	cfg := config.Config{
		DatabaseURL:            dsn,
		JWTSecret:              "integration-secret",
		TokenTTL:               time.Hour,
		Environment:            "development",
		Timezone:               "UTC",
		RunMigrations:          true,
		MigrationsDir:          "../../../migrations",
		RunSeed:                true,
		SeedCompanyName:        "Integration Co",
		SeedSuperAdminEmail:    "root@integration.test",
		SeedSuperAdminPassword: "root-password",
		DefaultVacationDays:    22,
		MonthlyHoursTarget:     160,
		StorageDir:             t.TempDir(),
		MaxBodyBytes:           1 << 20,
		MaxUploadBytes:         10 << 20,
		RateLimitPerMinute:     10000,
	}
	app, err := server.New(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(app.Close)
	return app
}

func call(t *testing.T, h http.Handler, method, path, token string, body any) (int, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return rec.Code, env
}

func login(t *testing.T, h http.Handler, email, password string) string {
	t.Helper()
	status, env := call(t, h, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email":    email,
		"password": password,
	})
	require.Equal(t, http.StatusOK, status)
	var data struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	return data.Token
}

func TestEmployeeClockJourney(t *testing.T) {
	app := newIntegrationApp(t)
	h := app.Router
	suffix := time.Now().UnixNano()

	root := login(t, h, "root@integration.test", "root-password")

	status, env := call(t, h, http.MethodPost, "/api/v1/companies", root, map[string]string{
		"name": fmt.Sprintf("Journey %d", suffix),
	})
	require.Equal(t, http.StatusCreated, status)
	var company struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &company))

	email := fmt.Sprintf("worker-%d@integration.test", suffix)
	status, _ = call(t, h, http.MethodPost, "/api/v1/functions/create-employee", root, map[string]string{
		"full_name":  "Journey Worker",
		"email":      email,
		"role":       "employee",
		"password":   "secret1",
		"company_id": company.ID,
	})
	require.Equal(t, http.StatusCreated, status)

	worker := login(t, h, email, "secret1")

	status, _ = call(t, h, http.MethodPost, "/api/v1/attendance/check-in", worker, nil)
	require.Equal(t, http.StatusCreated, status)

	status, env = call(t, h, http.MethodPost, "/api/v1/attendance/check-in", worker, nil)
	require.Equal(t, http.StatusConflict, status)
	require.Equal(t, "already_checked_in", env.Error.Code)

	status, _ = call(t, h, http.MethodPost, "/api/v1/attendance/check-out", worker, nil)
	require.Equal(t, http.StatusOK, status)

	status, env = call(t, h, http.MethodPost, "/api/v1/attendance/check-out", worker, nil)
	require.Equal(t, http.StatusConflict, status)
	require.Equal(t, "not_checked_in", env.Error.Code)

	status, _ = call(t, h, http.MethodGet, "/api/v1/vacations/balance", worker, nil)
	require.Equal(t, http.StatusOK, status)

	status, _ = call(t, h, http.MethodGet, "/api/v1/companies", worker, nil)
	require.Equal(t, http.StatusForbidden, status)
}
