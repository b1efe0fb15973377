// Package wasmmodule decodes the binary section stream of the supported
// module subset (types, functions, memory, exports, code) into an
// in-memory description.
package wasmmodule

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	wasmerrors "wasmguard/errors"
)

const (
	magic   uint32 = 0x6d736100 // "\0asm"
	version uint32 = 1

	sectionType     = 1
	sectionFunction = 3
	sectionMemory   = 5
	sectionExport   = 7
	sectionCode     = 10
)

// ValueType is one of the four scalar value types the subset supports.
type ValueType byte

const (
	I32 ValueType = 0x7F
	I64 ValueType = 0x7E
	F32 ValueType = 0x7D
	F64 ValueType = 0x7C
)

func (v ValueType) String() string {
	switch v {
	case I32:
		return "i32"
	case I64:
		return "i64"
	case F32:
		return "f32"
	case F64:
		return "f64"
	default:
		return fmt.Sprintf("valuetype(0x%02x)", byte(v))
	}
}

// FunctionType is a function signature: parameter and result value types.
type FunctionType struct {
	Params  []ValueType
	Results []ValueType
}

// Function points a declared function at its signature in the type section.
type Function struct {
	TypeIdx uint32
}

// MemoryType describes the module's single optional memory declaration.
type MemoryType struct {
	Min uint32
	Max *uint32
}

// ExportKind distinguishes what an export entry refers to.
type ExportKind byte

const (
	ExportFunction ExportKind = 0
	ExportTable    ExportKind = 1
	ExportMemory   ExportKind = 2
	ExportGlobal   ExportKind = 3
)

// Export binds a name to an entity of a given kind and index.
type Export struct {
	Name  string
	Kind  ExportKind
	Index uint32
}

// LocalEntry declares a run of locals of one value type.
type LocalEntry struct {
	Count     uint32
	ValueType ValueType
}

// CodeSection is one function body: its local declarations and raw opcode bytes.
type CodeSection struct {
	Locals []LocalEntry
	Body   []byte
}

// Module is the immutable, decoded description of a module binary.
type Module struct {
	Types     []FunctionType
	Functions []Function
	Memory    *MemoryType
	Exports   []Export
	Code      []CodeSection
}

// Decode parses a module binary into a Module description.
//
// The decoder-round-trip floor invariant (every Function.TypeIdx < len(Types),
// every function export's Index < len(Functions)) is checked by validate
// after all sections are read, so that out-of-range references in any
// section ordering are caught uniformly. Exports of other kinds are not
// range-checked.
func Decode(data []byte) (*Module, error) {
	r := bytes.NewReader(data)

	var hdr [4]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return nil, wasmerrors.Wrap(err, wasmerrors.ErrIo, "read magic")
	}
	if binary.LittleEndian.Uint32(hdr[:]) != magic {
		return nil, wasmerrors.ErrBadMagic
	}

	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return nil, wasmerrors.Wrap(err, wasmerrors.ErrIo, "read version")
	}
	v := binary.LittleEndian.Uint32(hdr[:])
	if v != version {
		return nil, wasmerrors.WrapWithDetail(nil, wasmerrors.ErrUnsupportedVersion, "decode",
			fmt.Sprintf("unsupported module version %d", v))
	}

	m := &Module{}
	for r.Len() > 0 {
		id, err := r.ReadByte()
		if err != nil {
			return nil, wasmerrors.Wrap(err, wasmerrors.ErrIo, "read section id")
		}
		size, err := readLEB128U32(r)
		if err != nil {
			return nil, err
		}
		if uint64(size) > uint64(r.Len()) {
			return nil, wasmerrors.ErrTruncatedSection
		}

		sectionBytes := make([]byte, size)
		if _, err := io.ReadFull(r, sectionBytes); err != nil {
			return nil, wasmerrors.Wrap(err, wasmerrors.ErrIo, "read section body")
		}
		sr := bytes.NewReader(sectionBytes)

		switch id {
		case sectionType:
			m.Types, err = parseTypeSection(sr)
		case sectionFunction:
			m.Functions, err = parseFunctionSection(sr)
		case sectionMemory:
			m.Memory, err = parseMemorySection(sr)
		case sectionCode:
			m.Code, err = parseCodeSection(sr)
		case sectionExport:
			m.Exports, err = parseExportSection(sr)
		default:
			// Unknown sections are skipped; the bytes were already consumed above.
		}
		if err != nil {
			return nil, err
		}
	}

	if err := validate(m); err != nil {
		return nil, err
	}
	return m, nil
}

func validate(m *Module) error {
	typeCount := uint32(len(m.Types))
	for _, fn := range m.Functions {
		if fn.TypeIdx >= typeCount {
			return wasmerrors.WrapWithDetail(nil, wasmerrors.ErrInvalidModule, "validate",
				fmt.Sprintf("function type index %d out of range (%d types)", fn.TypeIdx, typeCount))
		}
	}
	functionCount := uint32(len(m.Functions))
	for _, exp := range m.Exports {
		if exp.Kind == ExportFunction && exp.Index >= functionCount {
			return wasmerrors.WrapWithDetail(nil, wasmerrors.ErrInvalidModule, "validate",
				fmt.Sprintf("export %q function index %d out of range (%d functions)", exp.Name, exp.Index, functionCount))
		}
	}
	return nil
}

func parseTypeSection(r *bytes.Reader) ([]FunctionType, error) {
	count, err := readLEB128U32(r)
	if err != nil {
		return nil, err
	}
	types := make([]FunctionType, 0, count)
	for i := uint32(0); i < count; i++ {
		form, err := r.ReadByte()
		if err != nil {
			return nil, wasmerrors.Wrap(err, wasmerrors.ErrIo, "read type form")
		}
		if form != 0x60 {
			return nil, wasmerrors.WrapWithDetail(nil, wasmerrors.ErrInvalidModule, "parse type section",
				fmt.Sprintf("unexpected type form byte 0x%02x", form))
		}

		params, err := readValueTypeVec(r)
		if err != nil {
			return nil, err
		}
		results, err := readValueTypeVec(r)
		if err != nil {
			return nil, err
		}
		types = append(types, FunctionType{Params: params, Results: results})
	}
	return types, nil
}

func readValueTypeVec(r *bytes.Reader) ([]ValueType, error) {
	n, err := readLEB128U32(r)
	if err != nil {
		return nil, err
	}
	vals := make([]ValueType, 0, n)
	for i := uint32(0); i < n; i++ {
		vt, err := readValueType(r)
		if err != nil {
			return nil, err
		}
		vals = append(vals, vt)
	}
	return vals, nil
}

func parseFunctionSection(r *bytes.Reader) ([]Function, error) {
	count, err := readLEB128U32(r)
	if err != nil {
		return nil, err
	}
	functions := make([]Function, 0, count)
	for i := uint32(0); i < count; i++ {
		typeIdx, err := readLEB128U32(r)
		if err != nil {
			return nil, err
		}
		functions = append(functions, Function{TypeIdx: typeIdx})
	}
	return functions, nil
}

func parseMemorySection(r *bytes.Reader) (*MemoryType, error) {
	count, err := readLEB128U32(r)
	if err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, nil
	}

	flags, err := r.ReadByte()
	if err != nil {
		return nil, wasmerrors.Wrap(err, wasmerrors.ErrIo, "read memory flags")
	}
	min, err := readLEB128U32(r)
	if err != nil {
		return nil, err
	}
	var max *uint32
	if flags&0x01 != 0 {
		m, err := readLEB128U32(r)
		if err != nil {
			return nil, err
		}
		max = &m
	}
	return &MemoryType{Min: min, Max: max}, nil
}

func parseExportSection(r *bytes.Reader) ([]Export, error) {
	count, err := readLEB128U32(r)
	if err != nil {
		return nil, err
	}
	exports := make([]Export, 0, count)
	for i := uint32(0); i < count; i++ {
		nameLen, err := readLEB128U32(r)
		if err != nil {
			return nil, err
		}
		nameBytes := make([]byte, nameLen)
		if _, err := io.ReadFull(r, nameBytes); err != nil {
			return nil, wasmerrors.Wrap(err, wasmerrors.ErrIo, "read export name")
		}

		kindByte, err := r.ReadByte()
		if err != nil {
			return nil, wasmerrors.Wrap(err, wasmerrors.ErrIo, "read export kind")
		}
		var kind ExportKind
		switch kindByte {
		case 0:
			kind = ExportFunction
		case 1:
			kind = ExportTable
		case 2:
			kind = ExportMemory
		case 3:
			kind = ExportGlobal
		default:
			return nil, wasmerrors.WrapWithDetail(nil, wasmerrors.ErrInvalidModule, "parse export section",
				fmt.Sprintf("unknown export kind byte 0x%02x", kindByte))
		}

		index, err := readLEB128U32(r)
		if err != nil {
			return nil, err
		}
		exports = append(exports, Export{Name: string(nameBytes), Kind: kind, Index: index})
	}
	return exports, nil
}

// parseCodeSection tracks the bytes consumed for the locals header
// directly and subtracts that from the declared body size, so the raw
// opcode bytes read always fill the body exactly.
func parseCodeSection(r *bytes.Reader) ([]CodeSection, error) {
	count, err := readLEB128U32(r)
	if err != nil {
		return nil, err
	}
	sections := make([]CodeSection, 0, count)
	for i := uint32(0); i < count; i++ {
		bodySize, err := readLEB128U32(r)
		if err != nil {
			return nil, err
		}
		startLen := r.Len()

		localCount, err := readLEB128U32(r)
		if err != nil {
			return nil, err
		}
		locals := make([]LocalEntry, 0, localCount)
		for j := uint32(0); j < localCount; j++ {
			c, err := readLEB128U32(r)
			if err != nil {
				return nil, err
			}
			vt, err := readValueType(r)
			if err != nil {
				return nil, err
			}
			locals = append(locals, LocalEntry{Count: c, ValueType: vt})
		}

		localsHeaderBytes := uint32(startLen - r.Len())
		if localsHeaderBytes > bodySize {
			return nil, wasmerrors.ErrTruncatedSection
		}
		remaining := bodySize - localsHeaderBytes

		body := make([]byte, remaining)
		if _, err := io.ReadFull(r, body); err != nil {
			return nil, wasmerrors.Wrap(err, wasmerrors.ErrIo, "read function body")
		}

		sections = append(sections, CodeSection{Locals: locals, Body: body})
	}
	return sections, nil
}

func readValueType(r *bytes.Reader) (ValueType, error) {
	b, err := r.ReadByte()
	if err != nil {
		return 0, wasmerrors.Wrap(err, wasmerrors.ErrIo, "read value type")
	}
	switch ValueType(b) {
	case I32, I64, F32, F64:
		return ValueType(b), nil
	default:
		return 0, wasmerrors.ErrBadValueType
	}
}

func readLEB128U32(r *bytes.Reader) (uint32, error) {
	var result uint32
	var shift uint
	for {
		b, err := r.ReadByte()
		if err != nil {
			return 0, wasmerrors.Wrap(err, wasmerrors.ErrIo, "read LEB128")
		}
		result |= uint32(b&0x7F) << shift
		if b&0x80 == 0 {
			break
		}
		shift += 7
		if shift >= 32 {
			return 0, wasmerrors.ErrBadLEB128
		}
	}
	return result, nil
}
