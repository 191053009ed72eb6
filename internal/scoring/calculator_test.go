package scoring

import (
	"testing"

	"fantasy_nhl/ingestion/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestCalculate_WeightedSum(t *testing.T) {
	s := models.Scoring{models.StatGoals: 3, models.StatAssists: 2, models.StatPowerPlayPoints: 1}
	raw := models.StatLine{models.StatGoals: 2, models.StatAssists: 1, models.StatPowerPlayPoints: 1}

	res := Calculate(raw, s)

	assert.Equal(t, 9.0, res.Total)
	assert.False(t, res.Fallback)
}

func TestCalculate_FallbackOnEmptyScoring(t *testing.T) {
	raw := models.StatLine{models.StatGoals: 2, models.StatAssists: 3, models.StatHits: 40}

	res := Calculate(raw, models.Scoring{})

	assert.Equal(t, 5.0, res.Total)
	assert.True(t, res.Fallback, "fallback totals must be flagged")

	assert.Equal(t, res, Calculate(raw, nil))
}

func TestCalculate_MissingRawCountsAreZero(t *testing.T) {
	s := models.Scoring{models.StatGoals: 2, models.StatShutouts: 5}
	raw := models.StatLine{models.StatGoals: 4}

	assert.Equal(t, 8.0, Calculate(raw, s).Total)
}

func TestCalculate_IgnoresUnweightedCategories(t *testing.T) {
	s := models.Scoring{models.StatBlocks: 0.5}
	raw := models.StatLine{models.StatBlocks: 10, models.StatGoals: 30}

	assert.Equal(t, 5.0, Calculate(raw, s).Total)
}

func TestCalculate_OverlappingCategoriesCountIndependently(t *testing.T) {
	s := models.Scoring{
		models.StatGoals:           2,
		models.StatPowerPlayGoals:  1,
		models.StatPowerPlayPoints: 0.5,
	}
	raw := models.StatLine{
		models.StatGoals:           1,
		models.StatPowerPlayGoals:  1,
		models.StatPowerPlayPoints: 1,
	}

	assert.Equal(t, 3.5, Calculate(raw, s).Total)
}

func TestCalculate_NegativeWeights(t *testing.T) {
	s := models.Scoring{models.StatPlusMinus: 1, models.StatLosses: -1}
	raw := models.StatLine{models.StatPlusMinus: -4, models.StatLosses: 3}

	assert.Equal(t, -7.0, Calculate(raw, s).Total)
}
