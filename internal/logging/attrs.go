package logging

import (
	"context"
	"log/slog"
	"time"

	"crosscheck/internal/incident"
)

type Attr = slog.Attr

func Bool(key string, value bool) Attr { return slog.Bool(key, value) }

func Duration(key string, value time.Duration) Attr { return slog.Duration(key, value) }

func Int(key string, value int) Attr { return slog.Int(key, value) }

func Int64(key string, value int64) Attr { return slog.Int64(key, value) }

func String(key string, value string) Attr { return slog.String(key, value) }

func Group(key string, attrs ...Attr) Attr { return slog.GroupAttrs(key, attrs...) }

// Error records err under "error"; a nil error is kept visible as "<nil>".
func Error(err error) Attr {
	if err == nil {
		return slog.String("error", "<nil>")
	}
	return slog.Any("error", err)
}

// Incident tags a line with the dataset/case id it concerns.
func Incident(id incident.IncidentID) Attr {
	return slog.String(FieldIncidentID, id.String())
}

// NewNop returns a logger that discards everything.
func NewNop() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// NewComponentLogger creates a logger with a standardized component attribute.
// If logger is nil, a no-op logger is used as the base.
func NewComponentLogger(logger *slog.Logger, component string) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	return logger.With(String(FieldComponent, component))
}

// MatchDecision logs the verdict reached for one incident at debug level.
func MatchDecision(logger *slog.Logger, id incident.IncidentID, verdict incident.Verdict, reason string, attrs ...Attr) {
	if logger == nil {
		return
	}
	all := make([]any, 0, len(attrs)+4)
	all = append(all,
		Incident(id),
		String(FieldDecisionType, "match"),
		String(FieldDecisionResult, string(verdict)),
		String(FieldDecisionReason, reason),
	)
	for _, attr := range attrs {
		all = append(all, attr)
	}
	logger.Debug("incident "+verdictWord(verdict), all...)
}

func verdictWord(v incident.Verdict) string {
	if v == incident.VerdictMatch {
		return "matched"
	}
	return "unmatched"
}

// Warn logs a warning tagged with its event type and what the operator
// should check next.
func Warn(logger *slog.Logger, event, msg, hint string, attrs ...Attr) {
	logEvent(logger, slog.LevelWarn, event, msg, hint, attrs)
}

// Fail logs an error tagged with its event type and what the operator should
// check next.
func Fail(logger *slog.Logger, event, msg, hint string, attrs ...Attr) {
	logEvent(logger, slog.LevelError, event, msg, hint, attrs)
}

func logEvent(logger *slog.Logger, level slog.Level, event, msg, hint string, attrs []Attr) {
	if logger == nil {
		return
	}
	all := make([]Attr, 0, len(attrs)+2)
	all = append(all, String(FieldEventType, event))
	if hint != "" {
		all = append(all, String(FieldErrorHint, hint))
	}
	all = append(all, attrs...)
	logger.LogAttrs(context.Background(), level, msg, all...)
}
