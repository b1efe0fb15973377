//go:build linux

package sandbox

import "testing"

func TestHostRSSBytes(t *testing.T) {
	rss, err := HostRSSBytes()
	if err != nil {
		t.Fatalf("HostRSSBytes: %v", err)
	}
	if rss <= 0 {
		t.Errorf("expected positive RSS, got %d", rss)
	}
}
