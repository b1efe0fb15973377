package instance

import (
	"os"

	"wasmguard/spec"
)

// leb128 and section mirror the encoding helpers used by the wasmmodule
// package's own decoder tests; duplicated here since those helpers are
// unexported and this package builds fixture modules independently.
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

// buildMinimalModule returns a valid encoded module with one zero-arg,
// one-result (i32) function exported under exportName, and a 1-page memory.
func buildMinimalModule(exportName string) []byte {
	typePayload := append(leb128(1), 0x60)
	typePayload = append(typePayload, leb128(0)...) // 0 params
	typePayload = append(typePayload, leb128(1)...) // 1 result
	typePayload = append(typePayload, 0x7F)         // i32

	funcPayload := append(leb128(1), leb128(0)...)

	nameBytes := []byte(exportName)
	exportPayload := leb128(1)
	exportPayload = append(exportPayload, leb128(uint32(len(nameBytes)))...)
	exportPayload = append(exportPayload, nameBytes...)
	exportPayload = append(exportPayload, 0x00) // function kind
	exportPayload = append(exportPayload, leb128(0)...)

	memPayload := append(leb128(1), 0x00) // flags=0, no max
	memPayload = append(memPayload, leb128(1)...)

	data := []byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00}
	data = append(data, section(1, typePayload)...)
	data = append(data, section(3, funcPayload)...)
	data = append(data, section(5, memPayload)...)
	data = append(data, section(7, exportPayload)...)
	return data
}

// writeModuleFile writes a minimal module to a temp file and returns its path.
func writeModuleFile(dir, exportName string) (string, error) {
	path := dir + "/module.wasm"
	if err := os.WriteFile(path, buildMinimalModule(exportName), 0o644); err != nil {
		return "", err
	}
	return path, nil
}

// writeManifest writes a manifest naming modulePath/policyName/entryExport.
func writeManifest(path, modulePath, policyName, entryExport string) error {
	m := &spec.Manifest{
		SchemaVersion: spec.Version,
		ModulePath:    modulePath,
		PolicyName:    policyName,
		EntryExport:   entryExport,
	}
	return m.Save(path)
}
