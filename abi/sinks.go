package abi

import (
	"encoding/json"
	"log/slog"
	"os"
	"sync"
	"time"

	"wasmguard/logging"

	wasmerrors "wasmguard/errors"
)

// alertRecord is one line of a FileAlertSink's JSON-lines output.
type alertRecord struct {
	Level     int       `json:"level"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// FileAlertSink appends each alert as a JSON line to a file. A network
// alert sink is deliberately not provided: dialing out would itself
// require NetworkAccess, a capability this engine never grants.
type FileAlertSink struct {
	mu   sync.Mutex
	f    *os.File
	path string
}

// NewFileAlertSink opens (creating/appending) the file at path.
func NewFileAlertSink(path string) (*FileAlertSink, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, wasmerrors.Wrap(err, wasmerrors.ErrIo, "open alert sink file")
	}
	return &FileAlertSink{f: f, path: path}, nil
}

// HandleAlert appends one JSON-encoded alertRecord line.
func (s *FileAlertSink) HandleAlert(level int, msg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.Marshal(alertRecord{Level: level, Message: msg, Timestamp: time.Now()})
	if err != nil {
		return wasmerrors.Wrap(err, wasmerrors.ErrInternal, "marshal alert record")
	}
	data = append(data, '\n')
	if _, err := s.f.Write(data); err != nil {
		return wasmerrors.Wrap(err, wasmerrors.ErrIo, "write alert sink file")
	}
	return nil
}

// Close releases the underlying file handle.
func (s *FileAlertSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.f.Close()
}

// SlogLogSink bridges HostInterface.Log into the ambient structured logger.
type SlogLogSink struct {
	logger *slog.Logger
}

// NewSlogLogSink wraps logger (or the package default, if nil).
func NewSlogLogSink(logger *slog.Logger) *SlogLogSink {
	if logger == nil {
		logger = logging.Default()
	}
	return &SlogLogSink{logger: logger}
}

// HandleLog emits msg as an info-level structured record tagged as module
// output.
func (s *SlogLogSink) HandleLog(msg string) error {
	s.logger.Info("module log", "source", "wasm_log", "message", msg)
	return nil
}

// SlogAlertSink bridges HostInterface.SendAlert into the ambient structured
// logger, at a level derived from the alert's severity.
type SlogAlertSink struct {
	logger *slog.Logger
}

// NewSlogAlertSink wraps logger (or the package default, if nil).
func NewSlogAlertSink(logger *slog.Logger) *SlogAlertSink {
	if logger == nil {
		logger = logging.Default()
	}
	return &SlogAlertSink{logger: logger}
}

// HandleAlert logs at a level proportional to the alert's severity.
func (s *SlogAlertSink) HandleAlert(level int, msg string) error {
	switch level {
	case AlertCritical, AlertError:
		s.logger.Error("module alert", "level", level, "message", msg)
	case AlertWarning:
		s.logger.Warn("module alert", "level", level, "message", msg)
	default:
		s.logger.Info("module alert", "level", level, "message", msg)
	}
	return nil
}
