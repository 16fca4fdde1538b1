package contract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
)

// Signal label constants.
const (
	ThrivingValue = "Thriving" // Thriving value
	HealthyValue  = "Healthy"  // Healthy value
	ModerateValue = "Moderate" // Moderate value
	WeakValue     = "Weak"     // Weak value
)

// Color variables for console output.
var (
	ThrivingColor = color.New(color.FgGreen, color.Bold) // ThrivingColor marks well-maintained, popular repositories.
	HealthyColor  = color.New(color.FgCyan, color.Bold)
	ModerateColor = color.New(color.FgYellow)
	WeakColor     = color.New(color.FgRed)
)

// GetPlainLabel returns a plain text label for a social signal score.
// This is the core logic used for CSV, JSON, and table printing.
func GetPlainLabel(score float64) string {
	switch {
	case score >= 80:
		return ThrivingValue
	case score >= 60:
		return HealthyValue
	case score >= 40:
		return ModerateValue
	default:
		return WeakValue
	}
}

// GetColorLabel returns a colored text label for console output (table).
func GetColorLabel(score float64) string {
	text := GetPlainLabel(score)

	switch text {
	case ThrivingValue:
		return ThrivingColor.Sprint(text)
	case HealthyValue:
		return HealthyColor.Sprint(text)
	case ModerateValue:
		return ModerateColor.Sprint(text)
	default:
		return WeakColor.Sprint(text)
	}
}

// SelectOutputFile returns the appropriate file handle for output, based on the provided
// file path. An empty path selects os.Stdout.
func SelectOutputFile(filePath string) (*os.File, error) {
	if filePath == "" {
		return os.Stdout, nil
	}
	return os.Create(filePath)
}

// GetDataDir returns the sosig data directory, honoring XDG_DATA_HOME.
func GetDataDir() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "sosig")
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".sosig"
	}
	return filepath.Join(homeDir, ".local", "share", "sosig")
}

// GetDBFilePath returns the path to the SQLite DB file for repository metrics.
func GetDBFilePath() string {
	return filepath.Join(GetDataDir(), "github_metrics.db")
}

// GetRunsDBFilePath returns the path to the SQLite DB file for run history.
func GetRunsDBFilePath() string {
	return filepath.Join(GetDataDir(), "runs.db")
}

// TruncatePath truncates a path to a maximum width with ellipsis prefix.
// Requires maxWidth > 3 so there is room for the prefix and at least one character.
func TruncatePath(path string, maxWidth int) string {
	runes := []rune(path)
	if len(runes) > maxWidth && maxWidth > 3 {
		return "..." + string(runes[len(runes)-maxWidth+3:])
	}
	return path
}

// ParseBoolString parses a string value into a boolean.
// Accepts "yes", "no", "true", "false", "1", "0" (case-insensitive).
func ParseBoolString(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "yes", "true", "1":
		return true, nil
	case "no", "false", "0":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean string: %s (expected yes/no/true/false/1/0)", s)
	}
}
