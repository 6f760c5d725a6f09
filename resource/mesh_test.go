package resource

import (
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// writeTriangle writes a minimal .gltf with an embedded buffer holding one
// triangle, optionally indexed.
func writeTriangle(t *testing.T, indexed bool) string {
	t.Helper()
	positions := []float32{0, 0, 0, 1, 0, 0, 0, 1, 0}
	raw := make([]byte, 0, 48)
	for _, f := range positions {
		raw = binary.LittleEndian.AppendUint32(raw, math.Float32bits(f))
	}

	primitive := `{"attributes":{"POSITION":0}}`
	views := `{"buffer":0,"byteLength":36}`
	accessors := `{"bufferView":0,"componentType":5126,"count":3,"type":"VEC3","min":[0,0,0],"max":[1,1,0]}`
	if indexed {
		for _, i := range []uint16{0, 1, 2, 2, 1, 0} {
			raw = binary.LittleEndian.AppendUint16(raw, i)
		}
		primitive = `{"attributes":{"POSITION":0},"indices":1}`
		views += `,{"buffer":0,"byteOffset":36,"byteLength":12}`
		accessors += `,{"bufferView":1,"componentType":5123,"count":6,"type":"SCALAR"}`
	}

	doc := fmt.Sprintf(`{
  "asset": {"version": "2.0"},
  "buffers": [{"byteLength": %d, "uri": "data:application/octet-stream;base64,%s"}],
  "bufferViews": [%s],
  "accessors": [%s],
  "meshes": [{"primitives": [%s]}]
}`, len(raw), base64.StdEncoding.EncodeToString(raw), views, accessors, primitive)

	path := filepath.Join(t.TempDir(), "triangle.gltf")
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadMesh(t *testing.T) {
	data, count, err := LoadMesh(writeTriangle(t, false))
	if err != nil {
		t.Fatalf("LoadMesh: %v", err)
	}
	if count != 3 || len(data) != 9 {
		t.Fatalf("LoadMesh: expected 3 vertices, got %d (%d floats)", count, len(data))
	}
	if data[3] != 1 || data[7] != 1 {
		t.Errorf("LoadMesh: unexpected positions %v", data)
	}
}

func TestLoadMeshIndexed(t *testing.T) {
	data, count, err := LoadMesh(writeTriangle(t, true))
	if err != nil {
		t.Fatalf("LoadMesh: %v", err)
	}
	if count != 6 {
		t.Fatalf("LoadMesh: expected 6 vertices, got %d", count)
	}
	// Second triangle is the first one reversed.
	if data[9] != 0 || data[10] != 1 || data[15] != 0 || data[16] != 0 {
		t.Errorf("LoadMesh: unexpected expansion %v", data)
	}
}

func TestMeshBuffer(t *testing.T) {
	r, ctx, _ := newRegistry(64, 64)
	buf, count, err := r.MeshBuffer("triangle", writeTriangle(t, false))
	if err != nil {
		t.Fatalf("MeshBuffer: %v", err)
	}
	if count != 3 || len(ctx.Buffer(buf).Data) != 9 {
		t.Errorf("MeshBuffer: unexpected count %d", count)
	}
	if _, _, err := r.MeshBuffer("missing", filepath.Join(t.TempDir(), "none.gltf")); err == nil {
		t.Error("MeshBuffer: expected error for missing file")
	}
}

const quadOBJ = `# unit quad
o quad
v 0 0 0
v 1 0 0
v 1 1 0
v 0 1 0
vn 0 0 1
f 1/1/1 2//1 -2 -1
`

func TestLoadMeshOBJ(t *testing.T) {
	path := filepath.Join(t.TempDir(), "quad.OBJ")
	if err := os.WriteFile(path, []byte(quadOBJ), 0o644); err != nil {
		t.Fatal(err)
	}
	data, count, err := LoadMesh(path)
	if err != nil {
		t.Fatalf("LoadMesh: %v", err)
	}
	expected := []float32{
		0, 0, 0, 1, 0, 0, 1, 1, 0,
		0, 0, 0, 1, 1, 0, 0, 1, 0,
	}
	if count != 6 || len(data) != len(expected) {
		t.Fatalf("LoadMesh: expected 6 vertices, got %d (%v)", count, data)
	}
	for i := range expected {
		if data[i] != expected[i] {
			t.Fatalf("LoadMesh: expected %v, got %v", expected, data)
		}
	}
}

func TestParseOBJErrors(t *testing.T) {
	for name, src := range map[string]string{
		"out of range": "v 0 0 0\nv 1 0 0\nf 1 2 3\n",
		"bad float":    "v 0 x 0\n",
		"short face":   "v 0 0 0\nf 1 1\n",
		"no faces":     "v 0 0 0\n",
	} {
		if _, _, err := parseOBJ(strings.NewReader(src)); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}
