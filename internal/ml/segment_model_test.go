package ml

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voltmatch/voltmatch/pkg/models"
)

func TestTrainSegmentModel_SyntheticFallback(t *testing.T) {
	// Two real rows are below the minimum; training proceeds on the
	// synthetic set instead of failing.
	profiles := SyntheticProfiles(2, rand.New(rand.NewSource(1)))

	model, err := TrainSegmentModel(profiles, TrainingConfig{Seed: 42})
	require.NoError(t, err)

	assert.True(t, model.Synthetic)
	assert.Equal(t, 24, model.TrainingRows)
	assert.GreaterOrEqual(t, model.K(), 2)
	assert.NotEmpty(t, model.Version)
	assert.False(t, model.TrainedAt.IsZero())
}

func TestTrainSegmentModel_RealRows(t *testing.T) {
	profiles := SyntheticProfiles(40, rand.New(rand.NewSource(3)))

	model, err := TrainSegmentModel(profiles, TrainingConfig{Seed: 42})
	require.NoError(t, err)

	assert.False(t, model.Synthetic)
	assert.Equal(t, 40, model.TrainingRows)
	assert.GreaterOrEqual(t, model.K(), 2)
	assert.LessOrEqual(t, model.K(), 10)
}

func TestTrainSegmentModel_DeterministicUnderSeed(t *testing.T) {
	profiles := SyntheticProfiles(30, rand.New(rand.NewSource(9)))

	first, err := TrainSegmentModel(profiles, TrainingConfig{Seed: 42})
	require.NoError(t, err)
	second, err := TrainSegmentModel(profiles, TrainingConfig{Seed: 42})
	require.NoError(t, err)

	assert.Equal(t, first.KMeans.Centroids, second.KMeans.Centroids)
	assert.Equal(t, first.K(), second.K())
}

func TestSegmentModel_Assign(t *testing.T) {
	profiles := SyntheticProfiles(30, rand.New(rand.NewSource(5)))
	model, err := TrainSegmentModel(profiles, TrainingConfig{Seed: 42})
	require.NoError(t, err)

	profile := &models.UserProfile{
		Gender:      "male",
		AgeRange:    "26-35",
		Occupation:  "employee",
		IncomeRange: "medium",
		Seats:       5,
	}

	cluster, err := model.Assign(profile)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, cluster, 0)
	assert.Less(t, cluster, model.K())

	// Assignment is stable for the same profile.
	again, err := model.Assign(profile)
	require.NoError(t, err)
	assert.Equal(t, cluster, again)
}

func TestSegmentModel_MarshalRoundTrip(t *testing.T) {
	profiles := SyntheticProfiles(30, rand.New(rand.NewSource(11)))
	model, err := TrainSegmentModel(profiles, TrainingConfig{Seed: 42})
	require.NoError(t, err)

	data, err := model.Marshal()
	require.NoError(t, err)

	restored, err := UnmarshalSegmentModel(data)
	require.NoError(t, err)

	assert.Equal(t, model.Version, restored.Version)
	assert.Equal(t, model.K(), restored.K())

	// The restored artifact assigns identically to the original.
	for i := range profiles {
		want, err := model.Assign(&profiles[i])
		require.NoError(t, err)
		got, err := restored.Assign(&profiles[i])
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestUnmarshalSegmentModel_Invalid(t *testing.T) {
	_, err := UnmarshalSegmentModel([]byte("not json"))
	assert.Error(t, err)

	_, err = UnmarshalSegmentModel([]byte(`{"version":"x"}`))
	assert.Error(t, err)
}

func TestSyntheticProfiles_VocabularyBound(t *testing.T) {
	profiles := SyntheticProfiles(50, rand.New(rand.NewSource(2)))
	require.Len(t, profiles, 50)

	valid := make(map[string]bool)
	for _, f := range models.ProfileFields {
		for _, v := range f.Values {
			valid[v] = true
		}
	}

	for _, p := range profiles {
		for _, v := range p.CategoricalValues() {
			assert.True(t, valid[v], "unexpected value %q", v)
		}
		assert.GreaterOrEqual(t, p.Seats, 2)
		assert.LessOrEqual(t, p.Seats, 7)
	}
}
