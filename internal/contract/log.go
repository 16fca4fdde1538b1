package contract

import (
	"os"

	"github.com/charmbracelet/log"
)

var logger = log.NewWithOptions(os.Stderr, log.Options{
	Prefix: "sosig",
})

// Logger returns the process-wide structured logger.
func Logger() *log.Logger {
	return logger
}

// SetDebug toggles debug-level logging.
func SetDebug(enabled bool) {
	if enabled {
		logger.SetLevel(log.DebugLevel)
		logger.SetReportTimestamp(true)
		return
	}
	logger.SetLevel(log.InfoLevel)
	logger.SetReportTimestamp(false)
}

// LogFatal logs an error and exits the program.
func LogFatal(msg string, err error) {
	logger.Error(msg, "err", err)
	os.Exit(1)
}

// LogWarn logs a warning with its cause.
func LogWarn(msg string, err error) {
	logger.Warn(msg, "err", err)
}
