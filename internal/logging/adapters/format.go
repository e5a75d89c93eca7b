package adapters

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"careerarc/internal/logging/types"
)

const textTimeLayout = "2006-01-02T15:04:05.000Z07:00"

// formatEntry renders an entry as a single line in the given format
func formatEntry(entry *types.LogEntry, format string, colorized bool) (string, error) {
	if strings.EqualFold(format, "text") {
		return formatText(entry, colorized), nil
	}
	return formatJSON(entry)
}

func formatJSON(entry *types.LogEntry) (string, error) {
	payload := make(map[string]interface{}, len(entry.Fields)+3)
	for k, v := range entry.Fields {
		if err, ok := v.(error); ok {
			v = err.Error()
		}
		payload[k] = v
	}
	payload["level"] = entry.Level.String()
	payload["message"] = entry.Message
	payload["time"] = entry.Timestamp.Format(time.RFC3339)

	data, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func formatText(entry *types.LogEntry, colorized bool) string {
	level := strings.ToUpper(entry.Level.String())
	if colorized {
		level = colorizeLevel(entry.Level, level)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s [%s] %s", entry.Timestamp.Format(textTimeLayout), level, entry.Message)

	keys := make([]string, 0, len(entry.Fields))
	for k := range entry.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%v", k, entry.Fields[k])
	}

	return b.String()
}

func colorizeLevel(level types.LogLevel, label string) string {
	const reset = "\033[0m"

	var color string
	switch level {
	case types.DebugLevel:
		color = "\033[90m"
	case types.InfoLevel:
		color = "\033[34m"
	case types.WarnLevel:
		color = "\033[33m"
	default:
		color = "\033[31m"
	}
	return color + label + reset
}
