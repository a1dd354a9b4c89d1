package store

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ghgledger/internal/businessmetric/models"
	"ghgledger/internal/sentinel"
	"ghgledger/pkg/domain"
)

var march1 = domain.NewDate(2024, time.March, 1)

func TestInMemoryFindByNameDate(t *testing.T) {
	store := NewInMemory()
	ctx := context.Background()

	first := &models.Metric{Date: march1, Name: "revenue", Value: 100}
	second := &models.Metric{Date: march1, Name: "revenue", Value: 200}
	other := &models.Metric{Date: march1, Name: "units", Value: 5}
	for _, m := range []*models.Metric{first, second, other} {
		require.NoError(t, store.Create(ctx, m))
	}

	got, err := store.FindByNameDate(ctx, "revenue", march1)
	require.NoError(t, err)
	assert.Equal(t, first.ID, got.ID)

	_, err = store.FindByNameDate(ctx, "revenue", domain.NewDate(2024, time.March, 2))
	assert.ErrorIs(t, err, sentinel.ErrNotFound)

	require.NoError(t, store.Delete(ctx, first.ID))
	got, err = store.FindByNameDate(ctx, "revenue", march1)
	require.NoError(t, err)
	assert.Equal(t, second.ID, got.ID)

	assert.ErrorIs(t, store.Delete(ctx, first.ID), sentinel.ErrNotFound)

	all, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, second.ID, all[0].ID)
}

func TestPostgresStore(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	store := NewPostgres(db)
	ctx := context.Background()

	m := &models.Metric{Date: march1, Name: "revenue", Value: 1000}
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO business_metrics")).
		WithArgs(march1.Time(), "revenue", 1000.0).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(3)))
	require.NoError(t, store.Create(ctx, m))
	assert.Equal(t, domain.MetricID(3), m.ID)

	mock.ExpectQuery(`WHERE metric_name = \$1 AND metric_date = \$2\s+ORDER BY id\s+LIMIT 1`).
		WithArgs("revenue", march1.Time()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "metric_date", "metric_name", "value"}).
			AddRow(int64(3), march1.Time(), "revenue", 1000.0))
	got, err := store.FindByNameDate(ctx, "revenue", march1)
	require.NoError(t, err)
	assert.Equal(t, march1, got.Date)

	mock.ExpectQuery("FROM business_metrics").WillReturnError(sql.ErrNoRows)
	_, err = store.FindByNameDate(ctx, "units", march1)
	assert.ErrorIs(t, err, sentinel.ErrNotFound)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM business_metrics")).
		WithArgs(int64(9)).WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, store.Delete(ctx, 9), sentinel.ErrNotFound)

	require.NoError(t, mock.ExpectationsWereMet())
}
