package errors

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
)

// FormatForCLI formats an error for terminal output.
func FormatForCLI(err error) string {
	if err == nil {
		return ""
	}

	pe, ok := asError(err)
	if !ok {
		pe = Wrap(ErrCodeInternal, err)
	}

	var sb strings.Builder

	// Prefer the outer message so fmt.Errorf context is kept
	sb.WriteString(fmt.Sprintf("Error: %s\n", messageOf(err, pe)))

	if pe.Cause != nil && pe.Cause.Error() != pe.Message {
		sb.WriteString(fmt.Sprintf("  Cause: %s\n", pe.Cause.Error()))
	}

	if pe.Suggestion != "" {
		sb.WriteString(fmt.Sprintf("  Hint: %s\n", pe.Suggestion))
	}

	sb.WriteString(fmt.Sprintf("  Code: %s\n", pe.Code))

	return sb.String()
}

// FormatForLog returns slog attributes describing err.
func FormatForLog(err error) []slog.Attr {
	if err == nil {
		return nil
	}

	pe, ok := asError(err)
	if !ok {
		return []slog.Attr{slog.String("error", err.Error())}
	}

	attrs := []slog.Attr{
		slog.String("error_code", pe.Code),
		slog.String("message", pe.Message),
		slog.String("category", string(pe.Category)),
		slog.String("severity", string(pe.Severity)),
	}

	if pe.Cause != nil {
		attrs = append(attrs, slog.String("cause", pe.Cause.Error()))
	}

	keys := make([]string, 0, len(pe.Details))
	for k := range pe.Details {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		attrs = append(attrs, slog.String("detail_"+k, pe.Details[k]))
	}

	return attrs
}

// messageOf returns the message to show for err: the Error's own message
// when err is the Error itself, otherwise the full wrapped chain without the
// code prefix.
func messageOf(err error, pe *Error) string {
	if err == error(pe) {
		return pe.Message
	}
	return strings.Replace(err.Error(), fmt.Sprintf("[%s] ", pe.Code), "", 1)
}
