package spec

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultManifest(t *testing.T) {
	m := DefaultManifest()

	if m.SchemaVersion != Version {
		t.Errorf("expected schema version %s, got %s", Version, m.SchemaVersion)
	}
	if m.PolicyName != "strict" {
		t.Errorf("expected default policy 'strict', got %s", m.PolicyName)
	}
	if m.EntryExport != "main" {
		t.Errorf("expected default entry export 'main', got %s", m.EntryExport)
	}
}

func TestManifestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "manifest.json")

	m := DefaultManifest()
	m.ModulePath = "testdata/module.wasm"
	m.Args = []int32{1, 2, 3}
	m.Annotations = map[string]string{"owner": "test"}

	if err := m.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := LoadManifest(path)
	if err != nil {
		t.Fatalf("LoadManifest: %v", err)
	}

	if loaded.ModulePath != m.ModulePath {
		t.Errorf("expected module path %q, got %q", m.ModulePath, loaded.ModulePath)
	}
	if loaded.PolicyName != m.PolicyName {
		t.Errorf("expected policy %q, got %q", m.PolicyName, loaded.PolicyName)
	}
	if len(loaded.Args) != 3 {
		t.Errorf("expected 3 args, got %d", len(loaded.Args))
	}
	if loaded.Annotations["owner"] != "test" {
		t.Errorf("expected annotation owner=test, got %q", loaded.Annotations["owner"])
	}
}

func TestLoadManifestRequiresModulePath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "manifest.json")

	m := DefaultManifest()
	if err := m.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	if _, err := LoadManifest(path); err == nil {
		t.Fatal("expected error for manifest missing modulePath")
	}
}

func TestLoadManifestMissingFile(t *testing.T) {
	if _, err := LoadManifest("/nonexistent/manifest.json"); err == nil {
		t.Fatal("expected error loading nonexistent manifest")
	}
}

func TestLoadManifestMalformedJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "manifest.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	if _, err := LoadManifest(path); err == nil {
		t.Fatal("expected error for malformed manifest JSON")
	}
}
