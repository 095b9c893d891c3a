package dat

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"math"
	"testing"

	"github.com/nao1215/desyncdiff/internal/model"
)

// fixture builds little-endian binary records for decoder tests.
type fixture struct {
	b []byte
}

func (f *fixture) u8(v byte)      { f.b = append(f.b, v) }
func (f *fixture) u16(v uint16)   { f.b = binary.LittleEndian.AppendUint16(f.b, v) }
func (f *fixture) u32(v uint32)   { f.b = binary.LittleEndian.AppendUint32(f.b, v) }
func (f *fixture) f64(v float64)  { f.b = binary.LittleEndian.AppendUint64(f.b, math.Float64bits(v)) }
func (f *fixture) varint(v int64) { f.b = AppendVarInt(f.b, v) }
func (f *fixture) raw(p []byte)   { f.b = append(f.b, p...) }

// pstr appends a 1-byte-length Latin-1 string.
func (f *fixture) pstr(s string) {
	f.u8(byte(len(s)))
	f.b = append(f.b, s...)
}

// version appends a 9-byte version header (1.1.110).
func (f *fixture) version() {
	f.u16(1)
	f.u16(1)
	f.u16(110)
	f.u16(0)
	f.u8(0)
}

// scriptDat builds a script.dat with a single named entry whose dump
// holds one double value.
func scriptDat(name string, value float64) []byte {
	var dump fixture
	dump.version()
	dump.u8(0x03) // double
	dump.f64(value)

	var f fixture
	f.version()
	f.u32(1) // entry count
	f.pstr(name)
	f.varint(int64(len(dump.b)))
	f.raw(dump.b)
	f.u8(0) // entry trailer
	return f.b
}

// TestVarIntRoundTrip tests the variable-width integer encoding against
// its known wire forms.
func TestVarIntRoundTrip(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name    string
		value   int64
		encoded []byte
	}{
		{"small value", 17, []byte{0x11}},
		{"zero", 0, []byte{0x00}},
		{"largest single byte", 254, []byte{0xfe}},
		{"escaped value", 300, []byte{0xff, 0x2c, 0x01, 0x00, 0x00}},
		{"negative", -1, []byte{0xff, 0xff, 0xff, 0xff, 0xff}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			encoded := AppendVarInt(nil, tc.value)
			if !bytes.Equal(encoded, tc.encoded) {
				t.Errorf("encoded = %x, expected %x", encoded, tc.encoded)
			}

			decoded, err := NewCursor(bytes.NewReader(tc.encoded)).VarInt()
			if err != nil {
				t.Fatalf("VarInt() error: %v", err)
			}
			if decoded != tc.value {
				t.Errorf("decoded = %d, expected %d", decoded, tc.value)
			}
		})
	}
}

// TestDecodeUnknownFormat tests that unregistered formats are rejected,
// not inferred.
func TestDecodeUnknownFormat(t *testing.T) {
	t.Parallel()

	_, err := Decode("crop-cache", bytes.NewReader(nil))
	if !errors.Is(err, ErrUnknownFormat) {
		t.Fatalf("expected ErrUnknownFormat, got %v", err)
	}
	var fe *FormatError
	if !errors.As(err, &fe) || fe.Format != "crop-cache" {
		t.Errorf("expected FormatError for crop-cache, got %#v", err)
	}
}

// TestDecodeScript tests an end-to-end script.dat decode.
func TestDecodeScript(t *testing.T) {
	t.Parallel()

	v, err := Decode("script", bytes.NewReader(scriptDat("level", 42.5)))
	if err != nil {
		t.Fatalf("Decode() error: %v", err)
	}

	typ, _ := v.Get("_type")
	if typ.AsString() != "script" {
		t.Errorf("_type = %s, expected script", typ)
	}

	data, ok := v.Get("data")
	if !ok || data.Len() != 1 {
		t.Fatalf("data = %v, expected one entry", data)
	}
	entry := data.Index(0)
	name, _ := entry.Get("name")
	if name.AsString() != "level" {
		t.Errorf("name = %s, expected level", name)
	}

	dump, _ := entry.Get("dump")
	inner, _ := dump.Get("data")
	payload, _ := inner.Get("data")
	if payload.AsNumber() != 42.5 {
		t.Errorf("payload = %s, expected 42.5", payload)
	}

	// The wrapper record {type, data} unwraps to the plain double.
	generic := ToGenericValue(v)
	entry = mustIndex(t, generic, "data", 0)
	dump, _ = entry.Get("dump")
	unwrapped, _ := dump.Get("data")
	if unwrapped.Kind() != model.KindNumber || unwrapped.AsNumber() != 42.5 {
		t.Errorf("unwrapped dump data = %s, expected 42.5", unwrapped)
	}
}

// TestDecodeScriptMapping tests nested mapping values with varint counts
// and string keys.
func TestDecodeScriptMapping(t *testing.T) {
	t.Parallel()

	var dump fixture
	dump.version()
	dump.u8(0x05) // mapping
	dump.varint(1)
	// key: string "count", value: double 3
	dump.u8(0x04)
	dump.varint(5)
	dump.raw([]byte("count"))
	dump.u8(0x03)
	dump.f64(3)

	var f fixture
	f.version()
	f.u32(1)
	f.pstr("mod")
	f.varint(int64(len(dump.b)))
	f.raw(dump.b)
	f.u8(0)

	v, err := Decode("script", bytes.NewReader(f.b))
	if err != nil {
		t.Fatalf("Decode() error: %v", err)
	}

	generic := ToGenericValue(v)
	entry := mustIndex(t, generic, "data", 0)
	dumpV, _ := entry.Get("dump")
	mapping, _ := dumpV.Get("data")
	if mapping.Kind() != model.KindList || mapping.Len() != 1 {
		t.Fatalf("mapping = %s, expected one pair", mapping)
	}
	pair := mapping.Index(0)
	key, _ := pair.Get("key")
	value, _ := pair.Get("value")
	if key.AsString() != "count" || value.AsNumber() != 3 {
		t.Errorf("pair = %s, expected count->3", pair)
	}
}

// TestDecodeTruncated tests that input shorter than a length prefix
// declares fails with a FormatError wrapping an unexpected EOF.
func TestDecodeTruncated(t *testing.T) {
	t.Parallel()

	full := scriptDat("level", 1)
	_, err := Decode("script", bytes.NewReader(full[:len(full)-4]))
	if err == nil {
		t.Fatal("expected error for truncated input")
	}
	var fe *FormatError
	if !errors.As(err, &fe) {
		t.Fatalf("expected FormatError, got %v", err)
	}
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Errorf("expected unexpected EOF cause, got %v", err)
	}
}

// TestDecodeTrailingData tests that a record must consume the entire
// stream.
func TestDecodeTrailingData(t *testing.T) {
	t.Parallel()

	_, err := Decode("script", bytes.NewReader(append(scriptDat("level", 1), 0x00)))
	if !errors.Is(err, ErrTrailingData) {
		t.Errorf("expected ErrTrailingData, got %v", err)
	}
}

// TestDecodeUnknownDiscriminant tests the switch-table miss path.
func TestDecodeUnknownDiscriminant(t *testing.T) {
	t.Parallel()

	var dump fixture
	dump.version()
	dump.u8(0x07) // no such serialized value type

	var f fixture
	f.version()
	f.u32(1)
	f.pstr("bad")
	f.varint(int64(len(dump.b)))
	f.raw(dump.b)
	f.u8(0)

	_, err := Decode("script", bytes.NewReader(f.b))
	if !errors.Is(err, ErrNoSwitchCase) {
		t.Errorf("expected ErrNoSwitchCase, got %v", err)
	}
}

// TestDecodeRegionUnderflow tests that a prefixed region left partially
// unconsumed is a schema violation.
func TestDecodeRegionUnderflow(t *testing.T) {
	t.Parallel()

	var dump fixture
	dump.version()
	dump.u8(0x03)
	dump.f64(1)
	dump.u8(0xaa) // spare byte the inner schema will not consume

	var f fixture
	f.version()
	f.u32(1)
	f.pstr("level")
	f.varint(int64(len(dump.b)))
	f.raw(dump.b)
	f.u8(0)

	_, err := Decode("script", bytes.NewReader(f.b))
	if !errors.Is(err, ErrRegionUnderflow) {
		t.Errorf("expected ErrRegionUnderflow, got %v", err)
	}
}

// TestDecodeModSettings tests the generic serialized value formats,
// including that the boolean wrapper is not unwrapped.
func TestDecodeModSettings(t *testing.T) {
	t.Parallel()

	var f fixture
	f.version()
	f.u8(0x01) // boolean
	f.u8(0)    // wrapper byte
	f.u8(1)    // value

	v, err := Decode("mod-settings", bytes.NewReader(f.b))
	if err != nil {
		t.Fatalf("Decode() error: %v", err)
	}

	settings, _ := v.Get("settings")
	generic := ToGenericValue(settings)
	if generic.Kind() != model.KindMap || !generic.Has("type") {
		t.Errorf("boolean wrapper must stay wrapped, got %s", generic)
	}
}

// TestDecodeAchievements tests id resolution through the id table and
// per-kind payload dispatch.
func TestDecodeAchievements(t *testing.T) {
	t.Parallel()

	var f fixture
	f.version()
	// id table: one kind with one name.
	f.u16(1)
	f.pstr("kill-achievement")
	f.u16(1)
	f.pstr("steamrolled")
	f.u16(7)
	// achievements: one entry referencing id 7.
	f.u32(1)
	f.u16(7)
	f.f64(128) // kill-achievement payload is a double

	v, err := Decode("achievements", bytes.NewReader(f.b))
	if err != nil {
		t.Fatalf("Decode() error: %v", err)
	}

	entry := mustIndex(t, v, "achievements", 0)
	name, _ := entry.Get("_name")
	typ, _ := entry.Get("_type")
	data, _ := entry.Get("data")
	if name.AsString() != "steamrolled" {
		t.Errorf("_name = %s, expected steamrolled", name)
	}
	if typ.AsString() != "kill-achievement" {
		t.Errorf("_type = %s, expected kill-achievement", typ)
	}
	if data.AsNumber() != 128 {
		t.Errorf("data = %s, expected 128", data)
	}
}

// TestDecodeAchievementsUnknownID tests that an id missing from the id
// table aborts decoding.
func TestDecodeAchievementsUnknownID(t *testing.T) {
	t.Parallel()

	var f fixture
	f.version()
	f.u16(0) // empty id table
	f.u32(1)
	f.u16(9)

	_, err := Decode("achievements", bytes.NewReader(f.b))
	var fe *FormatError
	if !errors.As(err, &fe) {
		t.Fatalf("expected FormatError, got %v", err)
	}
}

// TestFormats tests the registry listing.
func TestFormats(t *testing.T) {
	t.Parallel()

	expected := []string{
		"achievements",
		"achievements-modded",
		"blueprint-storage",
		"mod-settings",
		"script",
	}
	got := Formats()
	if len(got) != len(expected) {
		t.Fatalf("got %v, expected %v", got, expected)
	}
	for i := range expected {
		if got[i] != expected[i] {
			t.Errorf("format %d = %q, expected %q", i, got[i], expected[i])
		}
	}
}

// mustIndex fetches field[i] from a map value holding a list.
func mustIndex(t *testing.T, v *model.Value, field string, i int) *model.Value {
	t.Helper()
	list, ok := v.Get(field)
	if !ok || list.Len() <= i {
		t.Fatalf("missing %s[%d] in %s", field, i, v)
	}
	return list.Index(i)
}
