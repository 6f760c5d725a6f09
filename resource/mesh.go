package resource

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
)

// LoadMesh reads triangle positions from a .obj, .gltf or .glb file. It
// returns tightly packed xyz floats and the vertex count, ready for a plain
// array draw.
func LoadMesh(path string) ([]float32, int, error) {
	if strings.EqualFold(filepath.Ext(path), ".obj") {
		return loadOBJ(path)
	}
	return loadGLTF(path)
}

// loadGLTF reads the first primitive of the first mesh. Indexed primitives
// are expanded.
func loadGLTF(path string) ([]float32, int, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("gltf open %q: %w", path, err)
	}
	if len(doc.Meshes) == 0 || len(doc.Meshes[0].Primitives) == 0 {
		return nil, 0, fmt.Errorf("gltf %q: no mesh primitives", path)
	}
	prim := doc.Meshes[0].Primitives[0]

	posIdx, ok := prim.Attributes["POSITION"]
	if !ok {
		return nil, 0, fmt.Errorf("gltf %q: primitive has no POSITION", path)
	}
	positions, err := modeler.ReadPosition(doc, doc.Accessors[posIdx], nil)
	if err != nil {
		return nil, 0, fmt.Errorf("gltf %q: read positions: %w", path, err)
	}

	if prim.Indices != nil {
		indices, err := modeler.ReadIndices(doc, doc.Accessors[*prim.Indices], nil)
		if err != nil {
			return nil, 0, fmt.Errorf("gltf %q: read indices: %w", path, err)
		}
		expanded := make([][3]float32, 0, len(indices))
		for _, i := range indices {
			if int(i) >= len(positions) {
				return nil, 0, fmt.Errorf("gltf %q: index %d out of range", path, i)
			}
			expanded = append(expanded, positions[i])
		}
		positions = expanded
	}

	data := make([]float32, 0, len(positions)*3)
	for _, p := range positions {
		data = append(data, p[0], p[1], p[2])
	}
	return data, len(positions), nil
}
