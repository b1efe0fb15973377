package abi

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestFileAlertSink_AppendsJSONLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "alerts.jsonl")
	sink, err := NewFileAlertSink(path)
	if err != nil {
		t.Fatalf("NewFileAlertSink() error = %v", err)
	}
	defer sink.Close()

	if err := sink.HandleAlert(AlertWarning, "first"); err != nil {
		t.Fatalf("HandleAlert() error = %v", err)
	}
	if err := sink.HandleAlert(AlertCritical, "second"); err != nil {
		t.Fatalf("HandleAlert() error = %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer f.Close()

	var lines []alertRecord
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var rec alertRecord
		if err := json.Unmarshal(scanner.Bytes(), &rec); err != nil {
			t.Fatalf("Unmarshal() error = %v", err)
		}
		lines = append(lines, rec)
	}

	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2", len(lines))
	}
	if lines[0].Message != "first" || lines[1].Message != "second" {
		t.Errorf("unexpected lines: %+v", lines)
	}
}

func TestSlogSinks_DoNotError(t *testing.T) {
	logSink := NewSlogLogSink(nil)
	if err := logSink.HandleLog("hello"); err != nil {
		t.Errorf("HandleLog() error = %v", err)
	}

	alertSink := NewSlogAlertSink(nil)
	for _, level := range []int{AlertInfo, AlertWarning, AlertError, AlertCritical} {
		if err := alertSink.HandleAlert(level, "msg"); err != nil {
			t.Errorf("HandleAlert(%d) error = %v", level, err)
		}
	}
}
