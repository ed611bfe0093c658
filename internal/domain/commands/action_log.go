package commands

import (
	"fmt"
	"strings"

	logger "github.com/sirupsen/logrus"
)

const previewLength = 60

// actionLog collects the chronological, human-readable log of one repository
// and mirrors every line to logrus.
type actionLog struct {
	entry *logger.Entry
	lines []string
}

func newActionLog(repoFullName string) *actionLog {
	return &actionLog{entry: logger.WithField("repo", repoFullName)}
}

func (l *actionLog) Info(format string, args ...any) {
	message := fmt.Sprintf(format, args...)
	l.lines = append(l.lines, "- INFO: "+message)
	l.entry.Info(message)
}

func (l *actionLog) Debug(format string, args ...any) {
	message := fmt.Sprintf(format, args...)
	l.lines = append(l.lines, "- INFO: "+message)
	l.entry.Debug(message)
}

func (l *actionLog) Warn(format string, args ...any) {
	message := fmt.Sprintf(format, args...)
	l.lines = append(l.lines, "- WARNING: "+message)
	l.entry.Warn(message)
}

func (l *actionLog) Error(format string, args ...any) {
	message := fmt.Sprintf(format, args...)
	l.lines = append(l.lines, "- ERROR: "+message)
	l.entry.Error(message)
}

func (l *actionLog) Success(format string, args ...any) {
	message := fmt.Sprintf(format, args...)
	l.lines = append(l.lines, "- SUCCESS: "+message)
	l.entry.Info(message)
}

// Extend appends lines produced by another step; they were already mirrored.
func (l *actionLog) Extend(lines []string) {
	l.lines = append(l.lines, lines...)
}

func (l *actionLog) Lines() []string {
	return l.lines
}

func (l *actionLog) String() string {
	return strings.Join(l.lines, "\n")
}

// preview shortens long parameter values for log output.
func preview(value string) string {
	value = strings.ReplaceAll(value, "\n", `\n`)
	if len(value) <= previewLength {
		return value
	}
	return value[:previewLength] + "..."
}
