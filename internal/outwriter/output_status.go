package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/will-wright-eng/social-signals/internal/contract"
	"github.com/will-wright-eng/social-signals/schema"
)

// WriteStoreStatus outputs metrics store statistics in the configured format.
func WriteStoreStatus(status schema.StoreStatus, cfg *contract.Config) error {
	fmtFloat, _ := createFormatters(cfg.Precision)

	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, status)
		}, "Wrote JSON")
	case schema.CSVOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeCSVWithHeader(w, []string{"key", "value"}, func(cw *csv.Writer) error {
				return cw.WriteAll(statusRows(status, fmtFloat))
			})
		}, "Wrote CSV")
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeStatusText(w, status, fmtFloat)
		}, "Wrote status")
	}
}

func statusRows(status schema.StoreStatus, fmtFloat func(float64) string) [][]string {
	return [][]string{
		{"backend", status.Backend},
		{"connected", strconv.FormatBool(status.Connected)},
		{"total_records", strconv.Itoa(status.TotalRecords)},
		{"average_signal", fmtFloat(status.AverageSignal)},
		{"average_stars", fmtFloat(status.AverageStars)},
		{"last_analyzed", formatTime(status.LastAnalyzedTime)},
		{"oldest_analyzed", formatTime(status.OldestAnalyzedTime)},
		{"table_size_bytes", strconv.FormatInt(status.TableSizeBytes, 10)},
	}
}

func writeStatusText(w io.Writer, status schema.StoreStatus, fmtFloat func(float64) string) error {
	lines := []string{
		fmt.Sprintf("Backend: %s", status.Backend),
		fmt.Sprintf("Connected: %t", status.Connected),
	}
	if status.Connected {
		lines = append(lines,
			fmt.Sprintf("Total Repositories: %d", status.TotalRecords),
			fmt.Sprintf("Average Social Signal: %s", fmtFloat(status.AverageSignal)),
			fmt.Sprintf("Average Stars: %s", fmtFloat(status.AverageStars)),
		)
		if status.TotalRecords > 0 {
			lines = append(lines,
				fmt.Sprintf("Last Analyzed: %s", formatTime(status.LastAnalyzedTime)),
				fmt.Sprintf("Oldest Analyzed: %s", formatTime(status.OldestAnalyzedTime)),
			)
		}
		lines = append(lines, fmt.Sprintf("Table Size: %d bytes", status.TableSizeBytes))
	}
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}
