package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"timeclock/internal/platform/querier"
)

// DefaultIdempotencyWindow is how long a stored response is replayed.
const DefaultIdempotencyWindow = 24 * time.Hour

var ErrIdempotencyConflict = errors.New("idempotency key conflicts with existing request")

// IdempotencyStore remembers the response of privileged mutations keyed by
// the caller's Idempotency-Key header. A retry inside Window replays the
// first response; once the window has passed the key may be reused freely.
type IdempotencyStore struct {
	db     querier.Querier
	Window time.Duration
	Now    func() time.Time
}

func NewIdempotencyStore(db querier.Querier) *IdempotencyStore {
	return &IdempotencyStore{db: db, Window: DefaultIdempotencyWindow, Now: time.Now}
}

// RequestHash fingerprints a request body. JSON bodies are compacted first so
// whitespace differences between retries do not count as a new payload.
func RequestHash(payload []byte) string {
	var compact bytes.Buffer
	if json.Compact(&compact, payload) == nil {
		payload = compact.Bytes()
	}
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}

func (s *IdempotencyStore) cutoff() time.Time {
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	window := s.Window
	if window <= 0 {
		window = DefaultIdempotencyWindow
	}
	return now().Add(-window)
}

// Check looks up a live key. found is false for unknown or expired keys; a
// live key recorded with another payload yields ErrIdempotencyConflict.
func (s *IdempotencyStore) Check(ctx context.Context, companyID, userID, endpoint, key, requestHash string) (json.RawMessage, bool, error) {
	if s == nil || s.db == nil {
		return nil, false, nil
	}
	var storedHash string
	var stored json.RawMessage
	err := s.db.QueryRow(ctx, `
    SELECT request_hash, response_json
    FROM idempotency_keys
    WHERE company_id = $1 AND user_id = $2 AND endpoint = $3 AND key = $4
      AND created_at > $5
  `, companyID, userID, endpoint, key, s.cutoff()).Scan(&storedHash, &stored)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return nil, false, nil
	case err != nil:
		return nil, false, err
	case storedHash != requestHash:
		return nil, false, ErrIdempotencyConflict
	}
	return stored, true, nil
}

// Save records response for key. An expired row under the same key is
// replaced; a live row with a different payload is left alone.
func (s *IdempotencyStore) Save(ctx context.Context, companyID, userID, endpoint, key, requestHash string, response json.RawMessage) error {
	if s == nil || s.db == nil {
		return nil
	}
	tag, err := s.db.Exec(ctx, `
    INSERT INTO idempotency_keys (company_id, user_id, endpoint, key, request_hash, response_json)
    VALUES ($1, $2, $3, $4, $5, $6)
    ON CONFLICT (company_id, user_id, key, endpoint) DO UPDATE
      SET request_hash = EXCLUDED.request_hash,
          response_json = EXCLUDED.response_json,
          created_at = now()
      WHERE idempotency_keys.request_hash = EXCLUDED.request_hash
         OR idempotency_keys.created_at <= $7
  `, companyID, userID, endpoint, key, requestHash, response, s.cutoff())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrIdempotencyConflict
	}
	return nil
}
