package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/will-wright-eng/social-signals/internal/contract"
	"github.com/will-wright-eng/social-signals/schema"
)

// WriteRecords outputs records, dispatching based on the output format configured.
func WriteRecords(records []schema.MetricsRecord, cfg *contract.Config, detail bool) error {
	fmtFloat, intFmt := createFormatters(cfg.Precision)

	switch cfg.Output {
	case schema.JSONOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeRecordsJSON(w, records)
		}, "Wrote JSON"); err != nil {
			return fmt.Errorf("error writing JSON output: %w", err)
		}
	case schema.CSVOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeRecordsCSV(w, records, fmtFloat, intFmt)
		}, "Wrote CSV"); err != nil {
			return fmt.Errorf("error writing CSV output: %w", err)
		}
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			if err := writeRecordsTable(w, records, cfg, detail, fmtFloat, intFmt); err != nil {
				return err
			}
			_, err := fmt.Fprintf(w, "Showing %d repositories\n", len(records))
			return err
		}, "Wrote table")
	}
	return nil
}

// writeRecordsTable generates and writes the human-readable table.
func writeRecordsTable(w io.Writer, records []schema.MetricsRecord, cfg *contract.Config, detail bool, fmtFloat func(float64) string, intFmt string) error {
	table := tablewriter.NewWriter(w)

	headers := []string{"Rank", "Name", "Path", "Signal", "Label", "Stars", "Issues", "Group"}
	if detail {
		headers = append(headers, "Owner", "Age", "Freq", "Contrib", "Commits", "LOC", "Analyzed")
	}
	table.Header(headers)

	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	pathWidth := getMaxTablePathWidth(cfg, detail)
	var data [][]string
	for i, r := range records {
		row := []string{
			strconv.Itoa(i + 1),
			r.Name,
			contract.TruncatePath(r.Path, pathWidth),
			fmtFloat(r.SocialSignal),
			label(r.SocialSignal, cfg.UseColors),
			fmt.Sprintf(intFmt, r.Stars),
			fmt.Sprintf(intFmt, r.OpenIssues),
			r.Group,
		}
		if detail {
			row = append(row,
				r.Username,
				fmtFloat(r.AgeDays),
				fmtFloat(r.UpdateFrequencyDays),
				fmt.Sprintf(intFmt, r.ContributorCount),
				fmt.Sprintf(intFmt, r.CommitCount),
				fmt.Sprintf(intFmt, r.LinesOfCode),
				formatTime(r.LastAnalyzed),
			)
		}
		data = append(data, row)
	}

	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}

// label picks the colored or plain label for a signal.
func label(signal float64, useColors bool) string {
	if useColors {
		return contract.GetColorLabel(signal)
	}
	return contract.GetPlainLabel(signal)
}

var recordsCSVHeader = []string{
	"rank",
	"name",
	"path",
	"username",
	"age_days",
	"update_frequency_days",
	"contributor_count",
	"stars",
	"commit_count",
	"lines_of_code",
	"open_issues",
	"social_signal",
	"label",
	"group",
	"last_analyzed",
	"date_created",
}

// writeRecordsCSV writes every stored field of each record in CSV format.
func writeRecordsCSV(w io.Writer, records []schema.MetricsRecord, fmtFloat func(float64) string, intFmt string) error {
	return writeCSVWithHeader(w, recordsCSVHeader, func(cw *csv.Writer) error {
		for i, r := range records {
			rec := []string{
				strconv.Itoa(i + 1),
				r.Name,
				r.Path,
				r.Username,
				fmtFloat(r.AgeDays),
				fmtFloat(r.UpdateFrequencyDays),
				fmt.Sprintf(intFmt, r.ContributorCount),
				fmt.Sprintf(intFmt, r.Stars),
				fmt.Sprintf(intFmt, r.CommitCount),
				fmt.Sprintf(intFmt, r.LinesOfCode),
				fmt.Sprintf(intFmt, r.OpenIssues),
				fmtFloat(r.SocialSignal),
				contract.GetPlainLabel(r.SocialSignal),
				r.Group,
				formatTime(r.LastAnalyzed),
				formatTime(r.DateCreated),
			}
			if err := cw.Write(rec); err != nil {
				return fmt.Errorf("failed to write CSV record: %w", err)
			}
		}
		return nil
	})
}

// jsonRecord is a record with its rank and label added.
type jsonRecord struct {
	Rank  int    `json:"rank"`
	Label string `json:"label"`
	schema.MetricsRecord
}

func toJSONRecords(records []schema.MetricsRecord) []jsonRecord {
	output := make([]jsonRecord, len(records))
	for i, r := range records {
		output[i] = jsonRecord{
			Rank:          i + 1,
			Label:         contract.GetPlainLabel(r.SocialSignal),
			MetricsRecord: r,
		}
	}
	return output
}

// writeRecordsJSON writes the records in JSON format.
func writeRecordsJSON(w io.Writer, records []schema.MetricsRecord) error {
	return writeJSON(w, toJSONRecords(records))
}
