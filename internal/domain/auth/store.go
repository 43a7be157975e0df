package auth

import (
	"context"

	"timeclock/internal/platform/querier"
)

type Store struct {
	DB querier.Querier
}

func NewStore(db querier.Querier) *Store {
	return &Store{DB: db}
}

type AuthUser struct {
	ID           string
	CompanyID    string
	Role         string
	FullName     string
	Email        string
	PasswordHash string
}

// FindActiveUserByEmail joins the identity with its profile; deactivated
// profiles cannot sign in.
func (s *Store) FindActiveUserByEmail(ctx context.Context, email string) (AuthUser, error) {
	var out AuthUser
	err := s.DB.QueryRow(ctx, `
    SELECT u.id, COALESCE(p.company_id::text, ''), p.role, p.full_name, u.email, u.password_hash
    FROM users u
    JOIN profiles p ON p.id = u.id
    WHERE lower(u.email) = lower($1) AND p.is_active = true
  `, email).Scan(&out.ID, &out.CompanyID, &out.Role, &out.FullName, &out.Email, &out.PasswordHash)
	return out, err
}

func (s *Store) Profile(ctx context.Context, userID string) (AuthUser, error) {
	var out AuthUser
	err := s.DB.QueryRow(ctx, `
    SELECT p.id, COALESCE(p.company_id::text, ''), p.role, p.full_name, p.email
    FROM profiles p
    WHERE p.id = $1
  `, userID).Scan(&out.ID, &out.CompanyID, &out.Role, &out.FullName, &out.Email)
	return out, err
}
