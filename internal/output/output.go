// Package output provides output formatting for the CLI.
package output

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/fatih/color"
)

// Format represents the output format mode.
type Format string

const (
	FormatDefault Format = "default"
	FormatCompact Format = "compact"
	FormatJSON    Format = "json"
)

// Config holds output configuration.
type Config struct {
	Format   Format
	NoColor  bool
	MaxItems int
}

// DefaultConfig returns the default output configuration.
func DefaultConfig() *Config {
	return &Config{
		Format:   FormatDefault,
		MaxItems: 0,
	}
}

var (
	globalConfig   = DefaultConfig()
	globalConfigMu sync.RWMutex
)

// SetConfig sets the output configuration.
func SetConfig(cfg *Config) {
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = cfg
	color.NoColor = cfg.NoColor || cfg.Format == FormatJSON
}

// ConfigureFromFlags sets the output configuration from parsed CLI flags.
func ConfigureFromFlags(format string, noColor bool) {
	cfg := DefaultConfig()
	switch format {
	case "json":
		cfg.Format = FormatJSON
	case "compact":
		cfg.Format = FormatCompact
	}
	cfg.NoColor = noColor
	SetConfig(cfg)
}

// Result represents a structured result for JSON output.
type Result struct {
	Success bool   `json:"success"`
	Command string `json:"command,omitempty"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}

// IsJSON returns true if JSON output mode is enabled.
func IsJSON() bool {
	globalConfigMu.RLock()
	defer globalConfigMu.RUnlock()
	return globalConfig.Format == FormatJSON
}

// Data outputs data in the configured format.
func Data(command string, data any) {
	globalConfigMu.RLock()
	format := globalConfig.Format
	globalConfigMu.RUnlock()

	switch format {
	case FormatJSON:
		result := Result{Success: true, Command: command, Data: data}
		jsonBytes, _ := json.Marshal(result)
		fmt.Println(string(jsonBytes))
	default:
		jsonBytes, _ := json.MarshalIndent(data, "", "  ")
		fmt.Println(string(jsonBytes))
	}
}

// Message outputs a simple message.
func Message(msg string) {
	globalConfigMu.RLock()
	format := globalConfig.Format
	globalConfigMu.RUnlock()

	switch format {
	case FormatJSON:
		result := Result{Success: true, Message: msg}
		jsonBytes, _ := json.Marshal(result)
		fmt.Println(string(jsonBytes))
	default:
		fmt.Println(msg)
	}
}

// Error outputs an error message.
func Error(err error, code string) {
	msg := err.Error()

	globalConfigMu.RLock()
	format := globalConfig.Format
	globalConfigMu.RUnlock()

	switch format {
	case FormatJSON:
		result := Result{Success: false, Error: msg}
		jsonBytes, _ := json.Marshal(result)
		fmt.Println(string(jsonBytes))
	case FormatCompact:
		if code != "" {
			fmt.Fprintf(os.Stderr, "[%s] %s\n", code, msg)
		} else {
			fmt.Fprintln(os.Stderr, msg)
		}
	default:
		if code != "" {
			fmt.Fprintf(os.Stderr, "Error [%s]: %s\n", code, msg)
		} else {
			fmt.Fprintf(os.Stderr, "Error: %s\n", msg)
		}
	}
}

// SunEvent is one row of the events command output.
type SunEvent struct {
	Event string    `json:"event"`
	Time  time.Time `json:"time,omitempty"`
	OK    bool      `json:"occurs"`
}

var (
	eventName = color.New(color.FgCyan)
	eventMiss = color.New(color.FgYellow)
)

// Events prints a day's sun events.
func Events(date string, events []SunEvent) {
	globalConfigMu.RLock()
	format := globalConfig.Format
	globalConfigMu.RUnlock()

	switch format {
	case FormatJSON:
		result := Result{Success: true, Command: "events", Data: map[string]any{
			"date":   date,
			"events": events,
		}}
		jsonBytes, _ := json.Marshal(result)
		fmt.Println(string(jsonBytes))
	case FormatCompact:
		for _, e := range events {
			if e.OK {
				fmt.Printf("%s=%s\n", e.Event, e.Time.Format(time.RFC3339))
			} else {
				fmt.Printf("%s=none\n", e.Event)
			}
		}
	default:
		fmt.Printf("Sun events for %s:\n\n", date)
		for _, e := range events {
			name := eventName.Sprintf("%-20s", e.Event)
			if e.OK {
				fmt.Printf("  %s %s\n", name, e.Time.Format("15:04:05 MST"))
			} else {
				fmt.Printf("  %s %s\n", name, eventMiss.Sprint("does not occur"))
			}
		}
	}
}
