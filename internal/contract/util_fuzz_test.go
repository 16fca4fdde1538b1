package contract

import (
	"math"
	"testing"

	"github.com/will-wright-eng/social-signals/schema"
)

// FuzzProcessWeights checks that any accepted weights map sums to one within tolerance.
func FuzzProcessWeights(f *testing.F) {
	f.Add(0.15, 0.25, 0.15, 0.15, 0.1, 0.1, 0.1)
	f.Add(1.0, 0.0, 0.0, 0.0, 0.0, 0.0, 0.0)
	f.Add(0.5, 0.5, 0.5, 0.0, 0.0, 0.0, 0.0)
	f.Add(-0.1, 0.2, 0.2, 0.2, 0.2, 0.2, 0.1)

	f.Fuzz(func(t *testing.T, a, b, c, d, e, g, h float64) {
		raw := map[string]float64{
			string(schema.MetricAge):             a,
			string(schema.MetricUpdateFrequency): b,
			string(schema.MetricContributors):    c,
			string(schema.MetricStars):           d,
			string(schema.MetricCommits):         e,
			string(schema.MetricLinesOfCode):     g,
			string(schema.MetricOpenIssues):      h,
		}
		weights, err := ProcessWeights(raw)
		if err != nil {
			return
		}
		sum := 0.0
		for _, w := range weights {
			if w < 0 {
				t.Fatalf("accepted negative weight %v", w)
			}
			sum += w
		}
		if math.Abs(sum-1) > WeightSumTolerance {
			t.Fatalf("accepted weights summing to %v", sum)
		}
	})
}

// FuzzParseBoolString ensures parsing never panics.
func FuzzParseBoolString(f *testing.F) {
	for _, s := range []string{"yes", "no", "1", "0", "", "TRUE"} {
		f.Add(s)
	}
	f.Fuzz(func(_ *testing.T, s string) {
		_, _ = ParseBoolString(s)
	})
}
