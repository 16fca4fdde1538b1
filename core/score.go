package core

import (
	"fmt"
	"math"
	"time"

	"github.com/will-wright-eng/social-signals/internal/contract"
	"github.com/will-wright-eng/social-signals/schema"
)

// Normalize maps each raw metric onto [0, 1] using its ceiling.
// Values above the ceiling saturate at 1 and negatives clamp to 0. Inverted
// metrics (lower is better) are reported as 1 minus their ratio.
func Normalize(raw schema.RawMetrics, ceilings map[schema.MetricKey]float64) (schema.NormalizedMetrics, error) {
	values := raw.Values()
	normalized := make(schema.NormalizedMetrics, len(values))
	for key, v := range values {
		c, ok := ceilings[key]
		if !ok || !(c > 0) || math.IsInf(c, 0) {
			return nil, &contract.ConfigurationError{
				Field:   "ceilings." + string(key),
				Message: fmt.Sprintf("ceiling must be a positive number, got %v", c),
			}
		}
		ratio := math.Min(math.Max(v, 0)/c, 1)
		if _, inverted := schema.InvertedMetrics[key]; inverted {
			ratio = 1 - ratio
		}
		normalized[key] = ratio
	}
	return normalized, nil
}

// Score combines normalized metrics into the 0-100 social signal.
// Every normalized metric needs a weight; extra weights are ignored.
func Score(normalized schema.NormalizedMetrics, weights map[schema.MetricKey]float64) (float64, error) {
	var sum float64
	for key, n := range normalized {
		w, ok := weights[key]
		if !ok {
			return 0, &contract.ConfigurationError{
				Field:   "weights." + string(key),
				Message: "no weight configured for metric",
			}
		}
		sum += w * n
	}
	// Float error can push a perfect score a hair past 100.
	return math.Min(math.Max(100*sum, 0), 100), nil
}

// IsFresh reports whether a stored record is young enough to reuse.
// A record that was never analyzed is always stale.
func IsFresh(record schema.MetricsRecord, ttl time.Duration, now time.Time) bool {
	if record.LastAnalyzed.IsZero() {
		return false
	}
	return now.Sub(record.LastAnalyzed) < ttl
}
