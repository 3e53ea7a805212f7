package logx

import (
	"fmt"
	"strings"
)

const (
	colorReset = "\033[0m"
	colorRed   = "\033[31m"
	colorCyan  = "\033[36m"
	colorGray  = "\033[90m"
	colorWhite = "\033[97m"

	colorBoldRed    = "\033[1;31m"
	colorBoldYellow = "\033[1;33m"
	colorBoldCyan   = "\033[1;36m"
	colorBoldGreen  = "\033[1;32m"
)

// ConsoleFormatter formats logs for console output with colors
type ConsoleFormatter struct {
	config *Config
}

// NewConsoleFormatter creates a new console formatter
func NewConsoleFormatter(config *Config) *ConsoleFormatter {
	return &ConsoleFormatter{config: config}
}

// Format formats a log entry for console output
func (f *ConsoleFormatter) Format(entry *LogEntry) ([]byte, error) {
	var b strings.Builder

	f.paint(&b, colorGray, formatTimestamp(entry.Timestamp, f.config.TimeFormat))
	b.WriteString(" ")
	b.WriteString(f.formatLevel(entry.Level))
	b.WriteString(" ")

	if f.config.EnableCaller && entry.Caller != "" {
		f.paint(&b, colorGray, "["+entry.Caller+"]")
		b.WriteString(" ")
	}

	f.paint(&b, colorWhite, entry.Message)

	if len(entry.Fields) > 0 {
		pairs := make([]string, 0, len(entry.Fields))
		for _, k := range entry.Fields.sortedKeys() {
			if k == "error" && entry.Error != nil {
				continue
			}
			pairs = append(pairs, fmt.Sprintf("%s=%v", k, entry.Fields[k]))
		}
		if len(pairs) > 0 {
			b.WriteString(" ")
			f.paint(&b, colorCyan, strings.Join(pairs, " "))
		}
	}

	if entry.Error != nil {
		b.WriteString("\n")
		if f.config.EnableColors {
			f.paint(&b, colorRed, "  ╰─→ error: "+entry.Error.Error())
		} else {
			b.WriteString("  error: " + entry.Error.Error())
		}
	}

	b.WriteString("\n")
	return []byte(b.String()), nil
}

func (f *ConsoleFormatter) paint(b *strings.Builder, color, s string) {
	if !f.config.EnableColors {
		b.WriteString(s)
		return
	}
	b.WriteString(color)
	b.WriteString(s)
	b.WriteString(colorReset)
}

func (f *ConsoleFormatter) formatLevel(level Level) string {
	if !f.config.EnableColors {
		return fmt.Sprintf("[%-5s]", level.String())
	}

	switch level {
	case LevelDebug:
		return fmt.Sprintf("%s[DEBUG]%s", colorBoldCyan, colorReset)
	case LevelInfo:
		return fmt.Sprintf("%s[INFO ]%s", colorBoldGreen, colorReset)
	case LevelWarn:
		return fmt.Sprintf("%s[WARN ]%s", colorBoldYellow, colorReset)
	case LevelError, LevelFatal:
		return fmt.Sprintf("%s[%-5s]%s", colorBoldRed, level.String(), colorReset)
	default:
		return fmt.Sprintf("[%s]", level.String())
	}
}
