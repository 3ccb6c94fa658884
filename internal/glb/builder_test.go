package glb

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"testing"
)

const (
	compFloat  = 5126
	compUShort = 5123
	compUInt   = 5125
)

// glbBuilder packs a glTF JSON document and its binary buffer into a GLB
// container by hand, for fixtures that need animations or skins.
type glbBuilder struct {
	bin       bytes.Buffer
	views     []map[string]any
	accessors []map[string]any
}

func (b *glbBuilder) add(t *testing.T, data any, component int, typ string, count int) int {
	t.Helper()
	offset := b.bin.Len()
	if err := binary.Write(&b.bin, binary.LittleEndian, data); err != nil {
		t.Fatalf("pack accessor: %v", err)
	}
	length := b.bin.Len() - offset
	for b.bin.Len()%4 != 0 {
		b.bin.WriteByte(0)
	}
	b.views = append(b.views, map[string]any{"buffer": 0, "byteOffset": offset, "byteLength": length})
	b.accessors = append(b.accessors, map[string]any{
		"bufferView":    len(b.views) - 1,
		"componentType": component,
		"type":          typ,
		"count":         count,
	})
	return len(b.accessors) - 1
}

func (b *glbBuilder) build(t *testing.T, doc map[string]any) []byte {
	t.Helper()
	doc["asset"] = map[string]any{"version": "2.0"}
	doc["buffers"] = []map[string]any{{"byteLength": b.bin.Len()}}
	doc["bufferViews"] = b.views
	doc["accessors"] = b.accessors

	js, err := json.Marshal(doc)
	if err != nil {
		t.Fatalf("marshal fixture: %v", err)
	}
	for len(js)%4 != 0 {
		js = append(js, ' ')
	}

	var out bytes.Buffer
	total := 12 + 8 + len(js) + 8 + b.bin.Len()
	le := binary.LittleEndian
	_ = binary.Write(&out, le, [3]uint32{magic, version, uint32(total)})
	_ = binary.Write(&out, le, [2]uint32{uint32(len(js)), 0x4E4F534A})
	out.Write(js)
	_ = binary.Write(&out, le, [2]uint32{uint32(b.bin.Len()), 0x004E4942})
	out.Write(b.bin.Bytes())
	return out.Bytes()
}

func triangle(b *glbBuilder, t *testing.T, pts [3][3]float32) (pos, idx int) {
	pos = b.add(t, pts[:], compFloat, "VEC3", 3)
	idx = b.add(t, []uint16{0, 1, 2}, compUShort, "SCALAR", 3)
	return pos, idx
}
