package wasmmodule

import (
	"testing"

	wasmerrors "wasmguard/errors"
)

func TestDecode_MinimalModule(t *testing.T) {
	bytes := []byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00}

	m, err := Decode(bytes)
	if err != nil {
		t.Fatalf("Decode() error = %v, want nil", err)
	}
	if len(m.Types) != 0 || len(m.Functions) != 0 || len(m.Exports) != 0 || len(m.Code) != 0 {
		t.Errorf("expected empty module, got %+v", m)
	}
	if m.Memory != nil {
		t.Errorf("expected nil memory, got %+v", m.Memory)
	}
}

func TestDecode_InvalidMagic(t *testing.T) {
	bytes := []byte{0x00, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00}

	_, err := Decode(bytes)
	if !wasmerrors.Is(err, wasmerrors.ErrBadMagic) {
		t.Errorf("Decode() error = %v, want ErrBadMagic", err)
	}
}

func TestDecode_UnsupportedVersion(t *testing.T) {
	bytes := []byte{0x00, 0x61, 0x73, 0x6d, 0x02, 0x00, 0x00, 0x00}

	_, err := Decode(bytes)
	if !wasmerrors.IsKind(err, wasmerrors.ErrUnsupportedVersion) {
		t.Errorf("Decode() error = %v, want ErrUnsupportedVersion", err)
	}
}

func leb128(v uint32) []byte {
	var out []byte
	for {
		b := byte(v & 0x7F)
		v >>= 7
		if v != 0 {
			b |= 0x80
		}
		out = append(out, b)
		if v == 0 {
			break
		}
	}
	return out
}

func section(id byte, payload []byte) []byte {
	out := []byte{id}
	out = append(out, leb128(uint32(len(payload)))...)
	out = append(out, payload...)
	return out
}

func header() []byte {
	return []byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00}
}

func TestDecode_TypeFunctionExportRoundTrip(t *testing.T) {
	// One type (no params, one i32 result), one function referencing it,
	// one export naming that function.
	typePayload := append(leb128(1), 0x60)
	typePayload = append(typePayload, leb128(0)...)       // 0 params
	typePayload = append(typePayload, leb128(1)...)       // 1 result
	typePayload = append(typePayload, byte(I32))          // i32
	funcPayload := append(leb128(1), leb128(0)...)        // 1 function, type idx 0
	exportName := []byte("main")
	exportPayload := leb128(1)
	exportPayload = append(exportPayload, leb128(uint32(len(exportName)))...)
	exportPayload = append(exportPayload, exportName...)
	exportPayload = append(exportPayload, 0x00) // function kind
	exportPayload = append(exportPayload, leb128(0)...)

	data := header()
	data = append(data, section(sectionType, typePayload)...)
	data = append(data, section(sectionFunction, funcPayload)...)
	data = append(data, section(sectionExport, exportPayload)...)

	m, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if len(m.Types) != 1 || len(m.Functions) != 1 || len(m.Exports) != 1 {
		t.Fatalf("unexpected module shape: %+v", m)
	}
	if m.Functions[0].TypeIdx != 0 {
		t.Errorf("Functions[0].TypeIdx = %d, want 0", m.Functions[0].TypeIdx)
	}
	if m.Exports[0].Name != "main" || m.Exports[0].Index != 0 {
		t.Errorf("unexpected export: %+v", m.Exports[0])
	}

	// Round-trip floor: every function's type_idx < type count.
	for _, fn := range m.Functions {
		if fn.TypeIdx >= uint32(len(m.Types)) {
			t.Errorf("function type_idx %d out of range", fn.TypeIdx)
		}
	}
}

func TestDecode_OutOfRangeFunctionTypeIdx(t *testing.T) {
	funcPayload := append(leb128(1), leb128(7)...) // type idx 7, no types declared
	data := header()
	data = append(data, section(sectionFunction, funcPayload)...)

	_, err := Decode(data)
	if !wasmerrors.IsKind(err, wasmerrors.ErrInvalidModule) {
		t.Errorf("Decode() error = %v, want ErrInvalidModule", err)
	}
}

func TestDecode_MemorySection(t *testing.T) {
	// flags=1 (has max), min=1, max=2
	payload := append(leb128(1), 0x01)
	payload = append(payload, leb128(1)...)
	payload = append(payload, leb128(2)...)

	data := header()
	data = append(data, section(sectionMemory, payload)...)

	m, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if m.Memory == nil {
		t.Fatal("expected memory section, got nil")
	}
	if m.Memory.Min != 1 || m.Memory.Max == nil || *m.Memory.Max != 2 {
		t.Errorf("unexpected memory: %+v", m.Memory)
	}
}

func TestDecode_CodeSectionBodyLength(t *testing.T) {
	// One function body: 1 local group (2 x i32), body = [0x41, 0x01] (i32.const 1).
	localsPayload := append(leb128(1), leb128(2)...)
	localsPayload = append(localsPayload, byte(I32))
	body := []byte{0x41, 0x01}
	fullBody := append(localsPayload, body...)

	codePayload := leb128(1) // 1 code entry
	codePayload = append(codePayload, leb128(uint32(len(fullBody)))...)
	codePayload = append(codePayload, fullBody...)

	data := header()
	data = append(data, section(sectionCode, codePayload)...)

	m, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if len(m.Code) != 1 {
		t.Fatalf("expected 1 code section, got %d", len(m.Code))
	}
	if len(m.Code[0].Locals) != 1 || m.Code[0].Locals[0].Count != 2 {
		t.Errorf("unexpected locals: %+v", m.Code[0].Locals)
	}
	if string(m.Code[0].Body) != string(body) {
		t.Errorf("Body = %v, want %v", m.Code[0].Body, body)
	}
}

func TestDecode_UnknownSectionSkipped(t *testing.T) {
	data := header()
	data = append(data, section(99, []byte{0xAA, 0xBB, 0xCC})...)

	m, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode() error = %v, want nil", err)
	}
	if len(m.Types) != 0 {
		t.Errorf("unknown section should not affect module, got %+v", m)
	}
}
