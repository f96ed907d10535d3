package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v3"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func catalogColumns() []string {
	return []string{"model", "battery", "range", "accelarate", "topspeed",
		"efficiency", "fastcharge", "estimatedthbvalue", "seats", "driveconfiguration"}
}

func TestCatalogStore_FetchCandidates(t *testing.T) {
	mockDB, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mockDB.Close()

	store := NewCatalogStore(mockDB, nil, testRankingConfig(), 0, nil, testLogger())

	t.Run("clean rows scanned into candidates", func(t *testing.T) {
		rows := pgxmock.NewRows(catalogColumns()).
			AddRow("Tesla Model 3", "82", "491", "4.4", "233", "167", "700", "1,890,000", 5, "RWD").
			AddRow("BYD Atto 3 ", "60.5", "420", "7.3", "160", "144", "380", "1,199,900", 5, "FWD")

		mockDB.ExpectQuery("SELECT model, battery").WillReturnRows(rows)

		candidates, err := store.FetchCandidates(context.Background())
		require.NoError(t, err)
		require.Len(t, candidates, 2)

		assert.Equal(t, "Tesla Model 3", candidates[0].Model)
		assert.Equal(t, 82.0, candidates[0].Battery)
		// Thousands separators stripped during cleaning.
		assert.Equal(t, 1890000.0, candidates[0].EstimatedTHBValue)

		// Model names arrive trimmed.
		assert.Equal(t, "BYD Atto 3", candidates[1].Model)
		assert.Equal(t, 60.5, candidates[1].Battery)

		require.NoError(t, mockDB.ExpectationsWereMet())
	})

	t.Run("rows with bad numerics are dropped", func(t *testing.T) {
		rows := pgxmock.NewRows(catalogColumns()).
			AddRow("Good EV", "75", "400", "5.0", "200", "150", "500", "1,500,000", 5, "AWD").
			AddRow("Bad EV", "N/A", "400", "5.0", "200", "150", "500", "1,500,000", 5, "AWD").
			AddRow("Empty EV", "", "400", "5.0", "200", "150", "500", "1,500,000", 5, "AWD")

		mockDB.ExpectQuery("SELECT model, battery").WillReturnRows(rows)

		candidates, err := store.FetchCandidates(context.Background())
		require.NoError(t, err)
		require.Len(t, candidates, 1)
		assert.Equal(t, "Good EV", candidates[0].Model)

		require.NoError(t, mockDB.ExpectationsWereMet())
	})

	t.Run("empty catalog is a valid result", func(t *testing.T) {
		mockDB.ExpectQuery("SELECT model, battery").
			WillReturnRows(pgxmock.NewRows(catalogColumns()))

		candidates, err := store.FetchCandidates(context.Background())
		assert.NoError(t, err)
		assert.Empty(t, candidates)

		require.NoError(t, mockDB.ExpectationsWereMet())
	})

	t.Run("query failure wraps catalog unavailable", func(t *testing.T) {
		mockDB.ExpectQuery("SELECT model, battery").
			WillReturnError(fmt.Errorf("connection refused"))

		_, err := store.FetchCandidates(context.Background())
		assert.ErrorIs(t, err, ErrCatalogUnavailable)

		require.NoError(t, mockDB.ExpectationsWereMet())
	})
}

func TestCatalogStore_DroppedRowsCounted(t *testing.T) {
	mockDB, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mockDB.Close()

	metrics := NewMetricsCollector()
	store := NewCatalogStore(mockDB, nil, testRankingConfig(), 0, metrics, testLogger())

	before := testutil.ToFloat64(metrics.catalogDropped)

	rows := pgxmock.NewRows(catalogColumns()).
		AddRow("Good EV", "75", "400", "5.0", "200", "150", "500", "1,500,000", 5, "AWD").
		AddRow("Bad EV", "N/A", "400", "5.0", "200", "150", "500", "1,500,000", 5, "AWD").
		AddRow("Worse EV", "", "400", "5.0", "200", "150", "500", "1,500,000", 5, "AWD")
	mockDB.ExpectQuery("SELECT model, battery").WillReturnRows(rows)

	candidates, err := store.FetchCandidates(context.Background())
	require.NoError(t, err)
	require.Len(t, candidates, 1)

	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.catalogDropped)-before)
	require.NoError(t, mockDB.ExpectationsWereMet())
}

func TestCatalogStore_QueryTimeout(t *testing.T) {
	mockDB, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mockDB.Close()

	store := NewCatalogStore(mockDB, nil, testRankingConfig(), 5*time.Millisecond, nil, testLogger())

	mockDB.ExpectQuery("SELECT model, battery").
		WillReturnRows(pgxmock.NewRows(catalogColumns())).
		WillDelayFor(200 * time.Millisecond)

	_, err = store.FetchCandidates(context.Background())
	assert.ErrorIs(t, err, ErrCatalogUnavailable)
}

func TestCleanNumeric(t *testing.T) {
	cases := []struct {
		in      string
		want    float64
		wantErr bool
	}{
		{"82", 82, false},
		{" 420 ", 420, false},
		{"1,890,000", 1890000, false},
		{"4.4", 4.4, false},
		{"", 0, true},
		{"N/A", 0, true},
		{"-", 0, true},
		{"NaN", 0, true},
		{"Inf", 0, true},
	}

	for _, tc := range cases {
		got, err := cleanNumeric(tc.in)
		if tc.wantErr {
			assert.Error(t, err, "input %q", tc.in)
			continue
		}
		require.NoError(t, err, "input %q", tc.in)
		assert.Equal(t, tc.want, got, "input %q", tc.in)
	}
}

func TestCleanCategory(t *testing.T) {
	assert.Equal(t, "AWD", cleanCategory("  AWD "))
	assert.Equal(t, "", cleanCategory("   "))
}
