package resource

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// loadOBJ reads the positions of every face in a Wavefront .obj file.
// Polygons are fan-triangulated. Normals, texture coordinates, groups and
// materials are ignored.
func loadOBJ(path string) ([]float32, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("open obj %q: %w", path, err)
	}
	defer f.Close()

	data, count, err := parseOBJ(f)
	if err != nil {
		return nil, 0, fmt.Errorf("obj %q: %w", path, err)
	}
	return data, count, nil
}

func parseOBJ(r io.Reader) ([]float32, int, error) {
	var positions [][3]float32
	var data []float32

	scanner := bufio.NewScanner(r)
	for lineNo := 1; scanner.Scan(); lineNo++ {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
			continue
		}

		switch fields[0] {
		case "v":
			if len(fields) < 4 {
				return nil, 0, fmt.Errorf("line %d: vertex needs 3 coordinates", lineNo)
			}
			var p [3]float32
			for i := range p {
				v, err := strconv.ParseFloat(fields[i+1], 32)
				if err != nil {
					return nil, 0, fmt.Errorf("line %d: %w", lineNo, err)
				}
				p[i] = float32(v)
			}
			positions = append(positions, p)

		case "f":
			if len(fields) < 4 {
				return nil, 0, fmt.Errorf("line %d: face needs 3 vertices", lineNo)
			}
			idx := make([]int, 0, len(fields)-1)
			for _, tok := range fields[1:] {
				i, err := faceIndex(tok, len(positions))
				if err != nil {
					return nil, 0, fmt.Errorf("line %d: %w", lineNo, err)
				}
				idx = append(idx, i)
			}
			// 0-1-2, 0-2-3, ...
			for i := 1; i+1 < len(idx); i++ {
				for _, v := range [3]int{idx[0], idx[i], idx[i+1]} {
					p := positions[v]
					data = append(data, p[0], p[1], p[2])
				}
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, 0, err
	}
	if len(data) == 0 {
		return nil, 0, fmt.Errorf("no faces")
	}
	return data, len(data) / 3, nil
}

// faceIndex resolves the position part of a face token ("v", "v/vt",
// "v//vn" or "v/vt/vn") to a 0-based index. Negative indices count back
// from the last vertex read so far.
func faceIndex(tok string, seen int) (int, error) {
	v, _, _ := strings.Cut(tok, "/")
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("face vertex %q: %w", tok, err)
	}
	switch {
	case n > 0 && n <= seen:
		return n - 1, nil
	case n < 0 && -n <= seen:
		return seen + n, nil
	}
	return 0, fmt.Errorf("face vertex %q out of range (%d vertices)", tok, seen)
}
