package contract

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/huangsam/coverwatch/schema"
	"github.com/sirupsen/logrus"
)

// Exit codes shared by every command.
const (
	ExitOK      = 0 // Everything passed
	ExitFailure = 1 // Regression found or gate failed
	ExitError   = 2 // Could not complete the analysis
)

// Color variables for console output.
var (
	CriticalColor = color.New(color.FgRed, color.Bold)     // CriticalColor represents standard danger.
	HighColor     = color.New(color.FgMagenta, color.Bold) // HighColor represents strong, distinct warning.
	ModerateColor = color.New(color.FgYellow)              // ModerateColor represents standard caution, not bold.
	LowColor      = color.New(color.FgCyan)                // LowColor represents informational / low-priority signal.
	GoodColor     = color.New(color.FgGreen)               // GoodColor represents a healthy value.
)

// CodedError carries the process exit code a failed command maps to.
type CodedError struct {
	Code int
	Err  error
}

func (e *CodedError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("exit status %d", e.Code)
	}
	return e.Err.Error()
}

func (e *CodedError) Unwrap() error { return e.Err }

// WithExitCode wraps err so that the command exits with code.
func WithExitCode(code int, err error) error {
	return &CodedError{Code: code, Err: err}
}

// ExitCodeOf maps an error returned by a command to a process exit code.
// Untyped errors are internal errors.
func ExitCodeOf(err error) int {
	if err == nil {
		return ExitOK
	}
	var coded *CodedError
	if errors.As(err, &coded) {
		return coded.Code
	}
	return ExitError
}

// GetActionLabel returns the gate action, colored for console output when asked.
func GetActionLabel(action schema.Action, useColors bool) string {
	text := string(action)
	if !useColors {
		return text
	}
	switch action {
	case schema.FailAction:
		return CriticalColor.Sprint(text)
	case schema.WarnAction:
		return ModerateColor.Sprint(text)
	default:
		return GoodColor.Sprint(text)
	}
}

// GetSeverityLabel returns the regression severity, colored for console output when asked.
func GetSeverityLabel(sev schema.Severity, useColors bool) string {
	text := strings.ToUpper(string(sev))
	if !useColors {
		return text
	}
	switch sev {
	case schema.MajorSeverity:
		return CriticalColor.Sprint(text)
	case schema.ModerateSeverity:
		return HighColor.Sprint(text)
	default:
		return ModerateColor.Sprint(text)
	}
}

// GetDirectionLabel returns the trend direction with an arrow, colored when asked.
func GetDirectionLabel(d schema.Direction, useColors bool) string {
	var text string
	switch d {
	case schema.Improving:
		text = "↑ " + string(d)
	case schema.Declining:
		text = "↓ " + string(d)
	default:
		text = "→ " + string(d)
	}
	if !useColors {
		return text
	}
	switch d {
	case schema.Improving:
		return GoodColor.Sprint(text)
	case schema.Declining:
		return CriticalColor.Sprint(text)
	default:
		return LowColor.Sprint(text)
	}
}

// GetAlertLabel returns the alert level, colored for console output when asked.
func GetAlertLabel(level schema.AlertLevel, useColors bool) string {
	text := string(level)
	if !useColors {
		return text
	}
	switch level {
	case schema.CriticalAlert:
		return CriticalColor.Sprint(text)
	case schema.WarningAlert:
		return HighColor.Sprint(text)
	case schema.InfoAlert:
		return LowColor.Sprint(text)
	default:
		return GoodColor.Sprint(text)
	}
}

// SelectOutputFile returns the appropriate file handle for output, based on the provided
// file path. An empty path means os.Stdout.
func SelectOutputFile(filePath string) (*os.File, error) {
	if filePath == "" {
		return os.Stdout, nil
	}
	return os.Create(filePath)
}

// LogFatal logs an error and exits the program.
func LogFatal(msg string, err error) {
	_, _ = fmt.Fprintf(os.Stderr, "Fatal %s: %v\n", msg, err)
	os.Exit(ExitError)
}

// LogWarn logs a warning message to stderr.
func LogWarn(msg string, err error) {
	_, _ = fmt.Fprintf(os.Stderr, "Warn %s: %v\n", msg, err)
}

// NewLogger builds the diagnostic logger. Quiet mode only lets errors through.
func NewLogger(level string, quiet bool, out io.Writer) (*logrus.Logger, error) {
	logger := logrus.New()
	logger.SetOutput(out)
	logger.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})

	if level == "" {
		level = "info"
	}
	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	if quiet && parsed > logrus.ErrorLevel {
		parsed = logrus.ErrorLevel
	}
	logger.SetLevel(parsed)
	return logger, nil
}

// GetHistoryDBFilePath returns the path to the SQLite DB file for run history.
func GetHistoryDBFilePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".coverwatch_history.db"
	}
	return filepath.Join(homeDir, ".coverwatch_history.db")
}

// TruncateName truncates a name to a maximum width with an ellipsis suffix.
// Requires maxWidth > 3 so there is space for the ellipsis and at least one character.
func TruncateName(name string, maxWidth int) string {
	runes := []rune(name)
	if len(runes) > maxWidth && maxWidth > 3 {
		return string(runes[:maxWidth-3]) + "..."
	}
	return name
}

// ParseBoolString parses a string value into a boolean.
// Accepts "yes", "no", "true", "false", "1", "0" (case-insensitive).
// Returns an error for invalid values.
func ParseBoolString(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "yes", "true", "1":
		return true, nil
	case "no", "false", "0":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean string: %s (expected yes/no/true/false/1/0)", s)
	}
}
