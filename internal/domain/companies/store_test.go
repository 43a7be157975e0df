package companies

import (
	"context"
	"errors"
	"testing"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackfillCompanyUpdatesNullRows(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec("UPDATE time_entries SET company_id = \\$1 WHERE company_id IS NULL").
		WithArgs("c1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 12))

	updated, err := NewStore(mock).BackfillCompany(context.Background(), "time_entries", "c1")
	require.NoError(t, err)
	assert.Equal(t, int64(12), updated)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBackfillCompanyRejectsUnknownTable(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	_, err = NewStore(mock).BackfillCompany(context.Background(), "users; DROP TABLE users", "c1")
	assert.True(t, errors.Is(err, ErrUnknownTable))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSetActiveMissingCompany(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec("UPDATE companies SET is_active").
		WithArgs("c9", false).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err = NewStore(mock).SetActive(context.Background(), "c9", false)
	assert.ErrorIs(t, err, ErrNotFound)
}
