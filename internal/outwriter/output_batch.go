package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/will-wright-eng/social-signals/internal/contract"
	"github.com/will-wright-eng/social-signals/schema"
)

// WriteBatchResult outputs a batch analysis, dispatching based on the output format configured.
func WriteBatchResult(result schema.BatchResult, cfg *contract.Config) error {
	fmtFloat, intFmt := createFormatters(cfg.Precision)

	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeBatchJSON(w, result)
		}, "Wrote JSON")
	case schema.CSVOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeBatchCSV(w, result, fmtFloat)
		}, "Wrote CSV")
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeBatchText(w, result, cfg, fmtFloat, intFmt)
		}, "Wrote table")
	}
}

// writeBatchText prints the successful records as a table followed by one line per path.
func writeBatchText(w io.Writer, result schema.BatchResult, cfg *contract.Config, fmtFloat func(float64) string, intFmt string) error {
	if len(result.Records) > 0 {
		if err := writeRecordsTable(w, result.Records, cfg, false, fmtFloat, intFmt); err != nil {
			return err
		}
	}

	for _, r := range result.Records {
		if _, err := fmt.Fprintf(w, "✅ %s (%s)\n", r.Path, fmtFloat(r.SocialSignal)); err != nil {
			return err
		}
	}
	for _, f := range result.Failures {
		if _, err := fmt.Fprintf(w, "❌ %s: %s\n", f.Path, f.Error); err != nil {
			return err
		}
	}

	_, err := fmt.Fprintf(w, "Analyzed %d of %d repositories (%d cached, %d failed) in %v with %d workers\n",
		result.Succeeded(), result.Total(), result.Cached, len(result.Failures), result.Duration, max(cfg.Workers, 1))
	return err
}

// writeBatchCSV writes one row per path with its outcome.
func writeBatchCSV(w io.Writer, result schema.BatchResult, fmtFloat func(float64) string) error {
	header := []string{"path", "status", "social_signal", "label", "error"}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for _, r := range result.Records {
			rec := []string{r.Path, string(schema.OutcomeOK), fmtFloat(r.SocialSignal), contract.GetPlainLabel(r.SocialSignal), ""}
			if err := cw.Write(rec); err != nil {
				return fmt.Errorf("failed to write CSV record: %w", err)
			}
		}
		for _, f := range result.Failures {
			if err := cw.Write([]string{f.Path, string(schema.OutcomeError), "", "", f.Error}); err != nil {
				return fmt.Errorf("failed to write CSV record: %w", err)
			}
		}
		return nil
	})
}

// writeBatchJSON writes the batch with ranked, labeled records.
func writeBatchJSON(w io.Writer, result schema.BatchResult) error {
	failures := result.Failures
	if failures == nil {
		failures = []schema.PathFailure{}
	}
	output := struct {
		RunID      string               `json:"run_id,omitempty"`
		Records    []jsonRecord         `json:"records"`
		Failures   []schema.PathFailure `json:"failures"`
		Succeeded  int                  `json:"succeeded"`
		Cached     int                  `json:"cached"`
		Failed     int                  `json:"failed"`
		DurationMs int64                `json:"duration_ms"`
	}{
		RunID:      result.RunID,
		Records:    toJSONRecords(result.Records),
		Failures:   failures,
		Succeeded:  result.Succeeded(),
		Cached:     result.Cached,
		Failed:     len(result.Failures),
		DurationMs: result.Duration.Milliseconds(),
	}
	return writeJSON(w, output)
}
