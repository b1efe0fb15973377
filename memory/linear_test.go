package memory

import (
	"testing"

	wasmerrors "wasmguard/errors"
)

func TestNew_ValidatesBounds(t *testing.T) {
	max := uint32(2)
	tests := []struct {
		name    string
		min     uint32
		max     *uint32
		wantErr bool
	}{
		{"zero min no max", 0, nil, false},
		{"min within max", 1, &max, false},
		{"min exceeds max", 3, &max, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.min, tt.max)
			if (err != nil) != tt.wantErr {
				t.Errorf("New(%d, %v) error = %v, wantErr %v", tt.min, tt.max, err, tt.wantErr)
			}
		})
	}
}

func TestMemoryBounds(t *testing.T) {
	m, err := New(1, nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if _, err := m.ReadU32(PageSize); !wasmerrors.IsKind(err, wasmerrors.ErrMemoryOutOfBounds) {
		t.Errorf("ReadU32(PageSize) error = %v, want ErrMemoryOutOfBounds", err)
	}

	if _, err := m.ReadU32(PageSize - 4); err != nil {
		t.Errorf("ReadU32(PageSize-4) error = %v, want nil", err)
	}

	if err := m.WriteU32(PageSize-3, 1); !wasmerrors.IsKind(err, wasmerrors.ErrMemoryOutOfBounds) {
		t.Errorf("WriteU32 straddling the end should fail, got %v", err)
	}
}

func TestMemoryBounds_PartialWriteRejected(t *testing.T) {
	m, err := New(1, nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	before, _ := m.ReadBytes(PageSize-2, 2)

	if err := m.WriteBytes(PageSize-2, []byte{0xAA, 0xBB, 0xCC}); err == nil {
		t.Fatal("expected out-of-bounds write to fail")
	}

	after, _ := m.ReadBytes(PageSize-2, 2)
	if string(before) != string(after) {
		t.Error("failed write must not partially mutate memory")
	}
}

func TestGrow_Monotonicity(t *testing.T) {
	m, err := New(1, nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	prev, err := m.Grow(2)
	if err != nil {
		t.Fatalf("Grow() error = %v", err)
	}
	if prev != 1 {
		t.Errorf("Grow() prev = %d, want 1", prev)
	}
	if m.Size() != 3 {
		t.Errorf("Size() = %d, want 3", m.Size())
	}

	b, err := m.ReadBytes(PageSize, PageSize)
	if err != nil {
		t.Fatalf("ReadBytes() error = %v", err)
	}
	for _, v := range b {
		if v != 0 {
			t.Fatal("newly grown pages must be zero")
		}
	}
}

func TestGrow_OverLimit(t *testing.T) {
	max := uint32(2)
	m, err := New(1, &max)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if _, err := m.Grow(1); err != nil {
		t.Fatalf("first Grow() error = %v", err)
	}
	if m.Size() != 2 {
		t.Fatalf("Size() = %d, want 2", m.Size())
	}

	if _, err := m.Grow(1); err == nil {
		t.Fatal("second Grow() should fail: exceeds max")
	}
	if m.Size() != 2 {
		t.Errorf("Size() after failed grow = %d, want 2", m.Size())
	}
}

func TestFloatRoundTrip(t *testing.T) {
	m, err := New(1, nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if err := m.WriteF32(0, 3.5); err != nil {
		t.Fatalf("WriteF32() error = %v", err)
	}
	v, err := m.ReadF32(0)
	if err != nil || v != 3.5 {
		t.Errorf("ReadF32() = (%v, %v), want (3.5, nil)", v, err)
	}

	if err := m.WriteF64(8, 2.25); err != nil {
		t.Fatalf("WriteF64() error = %v", err)
	}
	d, err := m.ReadF64(8)
	if err != nil || d != 2.25 {
		t.Errorf("ReadF64() = (%v, %v), want (2.25, nil)", d, err)
	}
}

func TestManager(t *testing.T) {
	mgr := NewManager()

	id1, _, err := mgr.Create(1, nil)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	id2, _, err := mgr.Create(2, nil)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if id1 == id2 {
		t.Error("Create() should assign distinct ids")
	}
	if mgr.Count() != 2 {
		t.Errorf("Count() = %d, want 2", mgr.Count())
	}

	if !mgr.Remove(id1) {
		t.Error("Remove() should succeed for a registered id")
	}
	if _, ok := mgr.Get(id1); ok {
		t.Error("Get() should not find a removed id")
	}
	if mgr.Remove(id1) {
		t.Error("Remove() should fail for an already-removed id")
	}
}
