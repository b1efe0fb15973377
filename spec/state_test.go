package spec

import (
	"path/filepath"
	"testing"
	"time"
)

func TestInstanceStateSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "state.json")

	result := int32(7)
	s := &InstanceState{
		State: State{
			Version:    Version,
			ID:         "inst-1",
			Status:     StatusRunning,
			ModulePath: "testdata/module.wasm",
		},
		Created:    time.Now(),
		PolicyName: "strict",
		ModuleHash: 0xdeadbeef,
		RiskLevel:  "Warning",
		ExitResult: &result,
	}

	if err := s.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := LoadState(path)
	if err != nil {
		t.Fatalf("LoadState: %v", err)
	}

	if loaded.ID != s.ID {
		t.Errorf("expected ID %q, got %q", s.ID, loaded.ID)
	}
	if loaded.Status != StatusRunning {
		t.Errorf("expected status running, got %s", loaded.Status)
	}
	if loaded.ModuleHash != s.ModuleHash {
		t.Errorf("expected module hash %x, got %x", s.ModuleHash, loaded.ModuleHash)
	}
	if loaded.ExitResult == nil || *loaded.ExitResult != 7 {
		t.Errorf("expected exit result 7, got %v", loaded.ExitResult)
	}
}

func TestInstanceStateSaveAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "state.json")

	s := &InstanceState{State: State{ID: "inst-2", Status: StatusCreated}}
	if err := s.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	entries, err := filepath.Glob(filepath.Join(dir, ".state-*.tmp"))
	if err != nil {
		t.Fatalf("glob: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("expected no leftover temp files, found %v", entries)
	}
}

func TestToExternalState(t *testing.T) {
	s := &InstanceState{State: State{ID: "inst-3", Status: StatusKilled}}
	ext := s.ToExternalState()
	if ext.ID != "inst-3" || ext.Status != StatusKilled {
		t.Errorf("unexpected external state: %+v", ext)
	}
}

func TestLoadStateMissingFile(t *testing.T) {
	if _, err := LoadState("/nonexistent/state.json"); err == nil {
		t.Fatal("expected error loading nonexistent state")
	}
}
