package core

import (
	"maps"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/will-wright-eng/social-signals/internal/contract"
	"github.com/will-wright-eng/social-signals/schema"
)

func TestNormalize(t *testing.T) {
	raw := schema.RawMetrics{
		AgeDays:             912.5,
		UpdateFrequencyDays: 3,
		ContributorCount:    100,
		Stars:               -5,
		CommitCount:         1000,
		LinesOfCode:         0,
		OpenIssues:          250,
	}
	got, err := Normalize(raw, schema.DefaultCeilings)
	require.NoError(t, err)

	assert.InDelta(t, 0.5, got[schema.MetricAge], 1e-9)
	assert.InDelta(t, 0.9, got[schema.MetricUpdateFrequency], 1e-9, "lower update interval is healthier")
	assert.Equal(t, 1.0, got[schema.MetricContributors], "saturates at ceiling")
	assert.Equal(t, 0.0, got[schema.MetricStars], "negative clamps to zero")
	assert.Equal(t, 1.0, got[schema.MetricCommits])
	assert.Equal(t, 0.0, got[schema.MetricLinesOfCode])
	assert.InDelta(t, 0.25, got[schema.MetricOpenIssues], 1e-9)
	assert.Len(t, got, len(schema.AllMetrics))
}

func TestNormalize_StaleUpdatesInvertToZero(t *testing.T) {
	got, err := Normalize(schema.RawMetrics{UpdateFrequencyDays: 400}, schema.DefaultCeilings)
	require.NoError(t, err)
	assert.Equal(t, 0.0, got[schema.MetricUpdateFrequency])
}

func TestNormalize_BadCeilings(t *testing.T) {
	tests := []struct {
		name  string
		value float64
	}{
		{name: "zero", value: 0},
		{name: "negative", value: -1},
		{name: "nan", value: math.NaN()},
		{name: "inf", value: math.Inf(1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ceilings := maps.Clone(schema.DefaultCeilings)
			ceilings[schema.MetricStars] = tt.value
			_, err := Normalize(schema.RawMetrics{}, ceilings)
			var cfgErr *contract.ConfigurationError
			require.ErrorAs(t, err, &cfgErr)
			assert.Equal(t, "ceilings.stars", cfgErr.Field)
		})
	}

	t.Run("missing", func(t *testing.T) {
		ceilings := maps.Clone(schema.DefaultCeilings)
		delete(ceilings, schema.MetricCommits)
		_, err := Normalize(schema.RawMetrics{}, ceilings)
		assert.Error(t, err)
	})
}

func TestScore(t *testing.T) {
	t.Run("weighted sum", func(t *testing.T) {
		normalized := schema.NormalizedMetrics{schema.MetricAge: 0.4, schema.MetricStars: 0.6}
		weights := map[schema.MetricKey]float64{schema.MetricAge: 0.5, schema.MetricStars: 0.5}
		got, err := Score(normalized, weights)
		require.NoError(t, err)
		assert.InDelta(t, 50.0, got, 1e-9)
	})

	t.Run("all saturated is 100", func(t *testing.T) {
		normalized := make(schema.NormalizedMetrics)
		for _, k := range schema.AllMetrics {
			normalized[k] = 1
		}
		got, err := Score(normalized, schema.DefaultWeights)
		require.NoError(t, err)
		assert.Equal(t, 100.0, got)
	})

	t.Run("all zero is 0", func(t *testing.T) {
		normalized := make(schema.NormalizedMetrics)
		for _, k := range schema.AllMetrics {
			normalized[k] = 0
		}
		got, err := Score(normalized, schema.DefaultWeights)
		require.NoError(t, err)
		assert.Equal(t, 0.0, got)
	})

	t.Run("missing weight", func(t *testing.T) {
		normalized := schema.NormalizedMetrics{schema.MetricOpenIssues: 0.5}
		_, err := Score(normalized, map[schema.MetricKey]float64{schema.MetricAge: 1})
		var cfgErr *contract.ConfigurationError
		require.ErrorAs(t, err, &cfgErr)
		assert.Equal(t, "weights.open_issues", cfgErr.Field)
	})
}

func TestIsFresh(t *testing.T) {
	ttl := time.Hour
	analyzed := testNow.Add(-ttl)
	record := schema.MetricsRecord{LastAnalyzed: analyzed}

	assert.True(t, IsFresh(record, ttl, analyzed.Add(ttl-time.Second)))
	assert.False(t, IsFresh(record, ttl, analyzed.Add(ttl)), "exactly ttl old is stale")
	assert.False(t, IsFresh(record, ttl, analyzed.Add(ttl+time.Second)))
	assert.False(t, IsFresh(schema.MetricsRecord{}, ttl, testNow), "never analyzed is stale")
}

func FuzzNormalizeScoreBounds(f *testing.F) {
	f.Add(0.0, 0.0, 0, 0, 0, 0, 0)
	f.Add(5000.0, 0.5, 3, 12000, 40, 2_000_000, 9)
	f.Add(-10.0, -3.0, -1, -1, -1, -1, -1)
	f.Fuzz(func(t *testing.T, age, freq float64, contributors, stars, commits, loc, issues int) {
		if math.IsNaN(age) || math.IsNaN(freq) {
			t.Skip()
		}
		raw := schema.RawMetrics{
			AgeDays:             age,
			UpdateFrequencyDays: freq,
			ContributorCount:    contributors,
			Stars:               stars,
			CommitCount:         commits,
			LinesOfCode:         loc,
			OpenIssues:          issues,
		}
		normalized, err := Normalize(raw, schema.DefaultCeilings)
		require.NoError(t, err)
		for k, v := range normalized {
			if v < 0 || v > 1 {
				t.Fatalf("normalized %s = %v out of [0,1]", k, v)
			}
		}
		signal, err := Score(normalized, schema.DefaultWeights)
		require.NoError(t, err)
		if signal < 0 || signal > 100 {
			t.Fatalf("signal %v out of [0,100]", signal)
		}
	})
}

func BenchmarkNormalizeAndScore(b *testing.B) {
	raw := schema.RawMetrics{AgeDays: 700, UpdateFrequencyDays: 2, ContributorCount: 12, Stars: 340, CommitCount: 900, LinesOfCode: 54_000, OpenIssues: 30}
	for b.Loop() {
		normalized, _ := Normalize(raw, schema.DefaultCeilings)
		_, _ = Score(normalized, schema.DefaultWeights)
	}
}
