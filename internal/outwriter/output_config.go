package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/will-wright-eng/social-signals/internal/contract"
	"github.com/will-wright-eng/social-signals/schema"
)

// configView is the printable form of the resolved configuration. Secrets are masked.
type configView struct {
	Formula            string             `json:"formula"`
	Weights            map[string]float64 `json:"weights"`
	Ceilings           map[string]float64 `json:"ceilings"`
	CacheTTL           string             `json:"cache_ttl"`
	CommandTimeout     string             `json:"command_timeout"`
	RemoteTimeout      string             `json:"remote_timeout"`
	GitHubAPIURL       string             `json:"github_api_url"`
	GitHubToken        string             `json:"github_token"`
	AllowMissingRemote bool               `json:"allow_missing_remote"`
	DBBackend          string             `json:"db_backend"`
	DBConnect          string             `json:"db_connect"`
	RunsBackend        string             `json:"runs_backend"`
	RunsConnect        string             `json:"runs_connect"`
	Workers            int                `json:"workers"`
}

// WriteConfig outputs the resolved configuration in the configured format.
func WriteConfig(cfg *contract.Config) error {
	view := buildConfigView(cfg)

	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, view)
		}, "Wrote JSON")
	case schema.CSVOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeConfigCSV(w, view)
		}, "Wrote CSV")
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeConfigText(w, view)
		}, "Wrote text")
	}
}

func buildConfigView(cfg *contract.Config) configView {
	weights := make(map[string]float64, len(cfg.Weights))
	for k, v := range cfg.Weights {
		weights[string(k)] = v
	}
	ceilings := make(map[string]float64, len(cfg.Ceilings))
	for k, v := range cfg.Ceilings {
		ceilings[string(k)] = v
	}
	apiURL := cfg.GitHubAPIURL
	if apiURL == "" {
		apiURL = "https://api.github.com/"
	}
	runsBackend := string(cfg.RunsBackend)
	if runsBackend == "" {
		runsBackend = string(schema.NoneBackend)
	}
	return configView{
		Formula:            formatWeights(cfg.Weights),
		Weights:            weights,
		Ceilings:           ceilings,
		CacheTTL:           cfg.CacheTTL.String(),
		CommandTimeout:     cfg.CommandTimeout.String(),
		RemoteTimeout:      cfg.RemoteTimeout.String(),
		GitHubAPIURL:       apiURL,
		GitHubToken:        maskSecret(cfg.GitHubToken),
		AllowMissingRemote: cfg.AllowMissingRemote,
		DBBackend:          string(cfg.DBBackend),
		DBConnect:          cfg.DBConnect,
		RunsBackend:        runsBackend,
		RunsConnect:        cfg.RunsConnect,
		Workers:            cfg.Workers,
	}
}

// formatWeights formats weights for display as a scoring formula.
func formatWeights(weights map[schema.MetricKey]float64) string {
	var parts []string
	for _, key := range schema.AllMetrics {
		if weight, ok := weights[key]; ok && weight > 0 {
			term := string(key)
			if _, inverted := schema.InvertedMetrics[key]; inverted {
				term = "(1-" + term + ")"
			}
			parts = append(parts, fmt.Sprintf("%.2f*%s", weight, term))
		}
	}
	return "100 * (" + strings.Join(parts, " + ") + ")"
}

func maskSecret(s string) string {
	if s == "" {
		return "(unset)"
	}
	return "********"
}

func writeConfigText(w io.Writer, view configView) error {
	var b strings.Builder
	b.WriteString("📡 Social Signal Configuration\n")
	b.WriteString("==============================\n\n")
	fmt.Fprintf(&b, "Formula: signal = %s\n\n", view.Formula)

	b.WriteString("Metric             Weight    Ceiling\n")
	for _, key := range schema.AllMetrics {
		fmt.Fprintf(&b, "%-18s %6.2f  %9s\n", key, view.Weights[string(key)], strconv.FormatFloat(view.Ceilings[string(key)], 'f', -1, 64))
	}
	b.WriteString("\n")

	fmt.Fprintf(&b, "Cache TTL:            %s\n", view.CacheTTL)
	fmt.Fprintf(&b, "Command Timeout:      %s\n", view.CommandTimeout)
	fmt.Fprintf(&b, "Remote Timeout:       %s\n", view.RemoteTimeout)
	fmt.Fprintf(&b, "GitHub API:           %s\n", view.GitHubAPIURL)
	fmt.Fprintf(&b, "GitHub Token:         %s\n", view.GitHubToken)
	fmt.Fprintf(&b, "Allow Missing Remote: %t\n", view.AllowMissingRemote)
	fmt.Fprintf(&b, "Metrics Store:        %s %s\n", view.DBBackend, view.DBConnect)
	fmt.Fprintf(&b, "Runs Store:           %s %s\n", view.RunsBackend, view.RunsConnect)
	fmt.Fprintf(&b, "Workers:              %d\n", view.Workers)

	_, err := io.WriteString(w, b.String())
	return err
}

func writeConfigCSV(w io.Writer, view configView) error {
	return writeCSVWithHeader(w, []string{"key", "value"}, func(cw *csv.Writer) error {
		rows := [][]string{{"formula", view.Formula}}
		for _, key := range schema.AllMetrics {
			rows = append(rows,
				[]string{"weights." + string(key), strconv.FormatFloat(view.Weights[string(key)], 'f', -1, 64)},
				[]string{"ceilings." + string(key), strconv.FormatFloat(view.Ceilings[string(key)], 'f', -1, 64)},
			)
		}
		rows = append(rows,
			[]string{"cache_ttl", view.CacheTTL},
			[]string{"command_timeout", view.CommandTimeout},
			[]string{"remote_timeout", view.RemoteTimeout},
			[]string{"github_api_url", view.GitHubAPIURL},
			[]string{"github_token", view.GitHubToken},
			[]string{"allow_missing_remote", strconv.FormatBool(view.AllowMissingRemote)},
			[]string{"db_backend", view.DBBackend},
			[]string{"db_connect", view.DBConnect},
			[]string{"runs_backend", view.RunsBackend},
			[]string{"runs_connect", view.RunsConnect},
			[]string{"workers", strconv.Itoa(view.Workers)},
		)
		return cw.WriteAll(rows)
	})
}
