package audit

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"os"
)

// StdLogger emits events as JSON lines via the standard library log package,
// suitable for ingestion by log aggregation systems.
type StdLogger struct {
	logger *log.Logger
}

// StdLoggerConfig configures a StdLogger.
type StdLoggerConfig struct {
	// Logger is the underlying log.Logger. When nil, a logger writing to
	// Output (or os.Stderr) is created.
	Logger *log.Logger

	// Output is the destination writer when Logger is nil.
	Output io.Writer

	// Prefix is added to each log line.
	Prefix string

	// Flags are log.Logger flags; defaults to log.LstdFlags|log.LUTC when 0.
	Flags int
}

// NewStdLogger creates a standard library audit logger.
func NewStdLogger(cfg StdLoggerConfig) *StdLogger {
	logger := cfg.Logger
	if logger == nil {
		output := cfg.Output
		if output == nil {
			output = os.Stderr
		}

		flags := cfg.Flags
		if flags == 0 {
			flags = log.LstdFlags | log.LUTC
		}

		logger = log.New(output, cfg.Prefix, flags)
	}

	return &StdLogger{logger: logger}
}

// Log writes the event as one JSON line.
func (s *StdLogger) Log(ctx context.Context, event *Event) error {
	if event == nil {
		return nil
	}

	data, err := json.Marshal(event)
	if err != nil {
		s.logger.Printf("ERROR: failed to marshal audit event: %v", err)
		return err
	}

	s.logger.Println(string(data))
	return nil
}
