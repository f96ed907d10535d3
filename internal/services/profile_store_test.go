package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voltmatch/voltmatch/pkg/models"
)

func TestUserProfileStore_FetchHistoricalProfiles(t *testing.T) {
	mockDB, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mockDB.Close()

	store := NewUserProfileStore(mockDB, nil, testRankingConfig(), 0, testLogger())

	rows := pgxmock.NewRows([]string{"gender", "age_range", "occupation", "marital_status",
		"family_status", "income_range", "vehicle_status", "drive_config", "seats"}).
		AddRow("male", "26-35", "employee", "single", "without_children", "medium", "no_vehicle", "FWD", 5).
		AddRow("", "", "", "", "", "", "", "", 0)

	mockDB.ExpectQuery("SELECT gender, age_range").WillReturnRows(rows)

	profiles, err := store.FetchHistoricalProfiles(context.Background())
	require.NoError(t, err)
	require.Len(t, profiles, 2)

	assert.Equal(t, "male", profiles[0].Gender)

	// Empty fields are repaired before training.
	assert.Equal(t, models.CategoryUnknown, profiles[1].Gender)
	assert.Equal(t, models.DefaultSeats, profiles[1].Seats)

	require.NoError(t, mockDB.ExpectationsWereMet())
}

func TestUserProfileStore_FetchSegmentAverageWeights(t *testing.T) {
	mockDB, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mockDB.Close()

	store := NewUserProfileStore(mockDB, nil, testRankingConfig(), 0, testLogger())

	t.Run("populated segment", func(t *testing.T) {
		rows := pgxmock.NewRows([]string{"avg1", "avg2", "avg3", "avg4", "avg5", "avg6", "avg7"}).
			AddRow(20.0, 15.0, 10.0, 10.0, 10.0, 15.0, 20.0)

		mockDB.ExpectQuery("SELECT").WithArgs(3).WillReturnRows(rows)

		weights, err := store.FetchSegmentAverageWeights(context.Background(), 3)
		require.NoError(t, err)

		assert.True(t, weights.Complete())
		assert.Equal(t, 20.0, weights[models.CriterionBattery])
		assert.Equal(t, 20.0, weights[models.CriterionEstimatedTHB])

		require.NoError(t, mockDB.ExpectationsWereMet())
	})

	t.Run("empty segment yields incomplete vector", func(t *testing.T) {
		rows := pgxmock.NewRows([]string{"avg1", "avg2", "avg3", "avg4", "avg5", "avg6", "avg7"}).
			AddRow(nil, nil, nil, nil, nil, nil, nil)

		mockDB.ExpectQuery("SELECT").WithArgs(9).WillReturnRows(rows)

		weights, err := store.FetchSegmentAverageWeights(context.Background(), 9)
		require.NoError(t, err)
		assert.False(t, weights.Complete())

		require.NoError(t, mockDB.ExpectationsWereMet())
	})
}

func TestUserProfileStore_AppendUserRecord(t *testing.T) {
	mockDB, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mockDB.Close()

	store := NewUserProfileStore(mockDB, nil, testRankingConfig(), 0, testLogger())

	record := &models.UserRecord{
		RecordID: uuid.New(),
		UserID:   "u-1",
		Profile: models.UserProfile{
			Gender: "female", AgeRange: "26-35", Occupation: "employee",
			MaritalStatus: "single", FamilyStatus: "without_children",
			IncomeRange: "medium", VehicleStatus: "no_vehicle",
			DriveConfig: "AWD", Seats: 5,
		},
		RawWeights:        models.NeutralWeights(),
		HybridWeights:     models.NeutralWeights(),
		ClusterID:         2,
		Seats:             5,
		Drivetrain:        "AWD",
		RecommendedModels: []string{"Tesla Model 3", "BYD Seal", "MG4"},
		SelectedModel:     "Tesla Model 3",
		SatisfactionScore: 0.83,
		Timestamp:         time.Now().UTC(),
	}

	t.Run("writes both rows in one transaction", func(t *testing.T) {
		mockDB.ExpectBegin()
		mockDB.ExpectExec("INSERT INTO user_records").
			WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
				pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
				pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
		mockDB.ExpectExec("INSERT INTO user_profiles").
			WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
				pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
				pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
				pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
				pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
		mockDB.ExpectCommit()

		require.NoError(t, store.AppendUserRecord(context.Background(), record))
		require.NoError(t, mockDB.ExpectationsWereMet())
	})

	t.Run("record insert failure rolls back", func(t *testing.T) {
		mockDB.ExpectBegin()
		mockDB.ExpectExec("INSERT INTO user_records").
			WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
				pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
				pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
			WillReturnError(fmt.Errorf("disk full"))
		mockDB.ExpectRollback()

		assert.Error(t, store.AppendUserRecord(context.Background(), record))
		require.NoError(t, mockDB.ExpectationsWereMet())
	})

	t.Run("profile insert failure rolls back the record row", func(t *testing.T) {
		mockDB.ExpectBegin()
		mockDB.ExpectExec("INSERT INTO user_records").
			WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
				pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
				pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
		mockDB.ExpectExec("INSERT INTO user_profiles").
			WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
				pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
				pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
				pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
				pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
			WillReturnError(fmt.Errorf("constraint violation"))
		mockDB.ExpectRollback()

		assert.Error(t, store.AppendUserRecord(context.Background(), record))
		require.NoError(t, mockDB.ExpectationsWereMet())
	})
}
