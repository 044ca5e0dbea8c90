// Package rlog is ralph's structured logging sink, a parallel channel to
// internal/display's human-facing output. It wraps sirupsen/logrus so
// supervisor transitions, executor progress, and verification results are
// machine-parseable (JSON lines) independent of how they're rendered to a
// terminal.
package rlog

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/ralphcore/ralph/internal/types"
)

var std = logrus.New()

func init() {
	std.SetFormatter(&logrus.JSONFormatter{TimestampFormat: "2006-01-02T15:04:05.000Z07:00"})
	std.SetOutput(os.Stderr)
}

// SetOutput redirects the logger, e.g. to a file under .ralph/logs/.
func SetOutput(w io.Writer) { std.SetOutput(w) }

// SetLevel parses and applies a level name ("debug", "info", "warn", "error").
func SetLevel(level string) error {
	l, err := logrus.ParseLevel(level)
	if err != nil {
		return err
	}
	std.SetLevel(l)
	return nil
}

// Transition logs a supervisor state change.
func Transition(taskID string, from, to types.SupervisorState, reason string) {
	std.WithFields(logrus.Fields{
		"taskId": taskID,
		"from":   from,
		"to":     to,
		"reason": reason,
	}).Info("supervisor transition")
}

// SubtaskStarted logs a subtask beginning execution.
func SubtaskStarted(taskID, subtaskID string) {
	std.WithFields(logrus.Fields{"taskId": taskID, "subtaskId": subtaskID}).Info("subtask started")
}

// SubtaskFinished logs a subtask's terminal outcome.
func SubtaskFinished(taskID, subtaskID string, success bool, durationMs int64) {
	entry := std.WithFields(logrus.Fields{
		"taskId":     taskID,
		"subtaskId":  subtaskID,
		"success":    success,
		"durationMs": durationMs,
	})
	if success {
		entry.Info("subtask finished")
	} else {
		entry.Warn("subtask failed")
	}
}

// VerificationCompleted logs a verification report's headline numbers.
func VerificationCompleted(taskID string, summary types.VerificationSummary, overallPass bool) {
	std.WithFields(logrus.Fields{
		"taskId":      taskID,
		"passed":      summary.Passed,
		"failed":      summary.Failed,
		"warnings":    summary.Warnings,
		"skipped":     summary.Skipped,
		"overallPass": overallPass,
	}).Info("verification completed")
}

// Error logs an unstructured error with context fields.
func Error(msg string, fields map[string]interface{}) {
	std.WithFields(fields).Error(msg)
}
