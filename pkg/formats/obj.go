package formats

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// OBJ format errors.
var (
	ErrMalformedOBJ = errors.New("malformed OBJ data")
)

// OBJVertex is a "v" record. Color channels are in [0, 1].
type OBJVertex struct {
	Position [3]float64
	Color    [3]float64
}

// OBJFace is an "f" record holding 1-based vertex indices as stored in the file.
type OBJFace struct {
	Indices [3]int
}

// OBJ represents a parsed or to-be-written OBJ file.
type OBJ struct {
	Comments []string
	Vertices []OBJVertex
	Faces    []OBJFace
	Colored  bool // every vertex carries a color
}

// Validate checks that every face index addresses a vertex.
func (o *OBJ) Validate() error {
	for i, f := range o.Faces {
		for _, idx := range f.Indices {
			if idx < 1 || idx > len(o.Vertices) {
				return fmt.Errorf("%w: face %d references vertex %d of %d", ErrIndexOutOfRange, i, idx, len(o.Vertices))
			}
		}
	}
	return nil
}

// GetPositionRange returns the component-wise minimum and maximum vertex position.
func (o *OBJ) GetPositionRange() (min, max [3]float64) {
	if len(o.Vertices) == 0 {
		return min, max
	}
	min = o.Vertices[0].Position
	max = o.Vertices[0].Position
	for _, v := range o.Vertices {
		for k, p := range v.Position {
			if p < min[k] {
				min[k] = p
			}
			if p > max[k] {
				max[k] = p
			}
		}
	}
	return min, max
}

// WriteOBJ writes o as text: "v x y z [r g b]" lines then "f i j k" lines.
func WriteOBJ(w io.Writer, o *OBJ) error {
	if err := o.Validate(); err != nil {
		return err
	}

	bw := bufio.NewWriter(w)
	for _, c := range o.Comments {
		fmt.Fprintf(bw, "# %s\n", c)
	}

	var line []byte
	for _, v := range o.Vertices {
		line = append(line[:0], 'v')
		for _, p := range v.Position {
			line = append(line, ' ')
			line = strconv.AppendFloat(line, p, 'g', -1, 64)
		}
		if o.Colored {
			for _, c := range v.Color {
				line = append(line, ' ')
				line = strconv.AppendFloat(line, c, 'g', -1, 64)
			}
		}
		line = append(line, '\n')
		if _, err := bw.Write(line); err != nil {
			return err
		}
	}

	for _, f := range o.Faces {
		line = append(line[:0], 'f')
		for _, idx := range f.Indices {
			line = append(line, ' ')
			line = strconv.AppendInt(line, int64(idx), 10)
		}
		line = append(line, '\n')
		if _, err := bw.Write(line); err != nil {
			return err
		}
	}

	return bw.Flush()
}

// WriteOBJFile writes o to path, replacing any existing file.
func WriteOBJFile(path string, o *OBJ) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating OBJ file: %w", err)
	}
	if err := WriteOBJ(f, o); err != nil {
		f.Close()
		return fmt.Errorf("writing OBJ file: %w", err)
	}
	return f.Close()
}

// ParseOBJ parses OBJ text. Only v and f records are kept; texture
// coordinates, normals and grouping statements are skipped. Polygons with
// more than three corners are split into a triangle fan.
func ParseOBJ(data []byte) (*OBJ, error) {
	o := &OBJ{}
	colored, plain := 0, 0

	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "#") {
			o.Comments = append(o.Comments, strings.TrimSpace(line[1:]))
			continue
		}

		fields := strings.Fields(line)
		switch fields[0] {
		case "v":
			v, hasColor, err := parseOBJVertex(fields[1:])
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, err)
			}
			if hasColor {
				colored++
			} else {
				plain++
			}
			o.Vertices = append(o.Vertices, v)
		case "f":
			faces, err := parseOBJFace(fields[1:], len(o.Vertices))
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, err)
			}
			o.Faces = append(o.Faces, faces...)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedOBJ, err)
	}

	if colored > 0 && plain > 0 {
		return nil, fmt.Errorf("%w: %d colored, %d plain vertices", ErrColorCountMismatch, colored, plain)
	}
	o.Colored = colored > 0

	if err := o.Validate(); err != nil {
		return nil, err
	}
	return o, nil
}

// parseOBJVertex accepts "x y z", "x y z w" and "x y z r g b".
func parseOBJVertex(fields []string) (OBJVertex, bool, error) {
	var v OBJVertex
	if len(fields) != 3 && len(fields) != 4 && len(fields) != 6 {
		return v, false, fmt.Errorf("%w: vertex has %d components", ErrMalformedOBJ, len(fields))
	}

	vals := make([]float64, len(fields))
	for i, f := range fields {
		x, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return v, false, fmt.Errorf("%w: vertex component %q", ErrMalformedOBJ, f)
		}
		vals[i] = x
	}

	copy(v.Position[:], vals[:3])
	if len(vals) == 6 {
		copy(v.Color[:], vals[3:])
		return v, true, nil
	}
	return v, false, nil
}

// parseOBJFace resolves "i", "i/t", "i//n" and negative (relative) indices.
func parseOBJFace(fields []string, vertexCount int) ([]OBJFace, error) {
	if len(fields) < 3 {
		return nil, fmt.Errorf("%w: face has %d corners", ErrMalformedOBJ, len(fields))
	}

	idx := make([]int, len(fields))
	for i, f := range fields {
		if slash := strings.IndexByte(f, '/'); slash >= 0 {
			f = f[:slash]
		}
		n, err := strconv.Atoi(f)
		if err != nil || n == 0 {
			return nil, fmt.Errorf("%w: face index %q", ErrMalformedOBJ, fields[i])
		}
		if n < 0 {
			n = vertexCount + n + 1
		}
		idx[i] = n
	}

	faces := make([]OBJFace, 0, len(idx)-2)
	for k := 1; k+1 < len(idx); k++ {
		faces = append(faces, OBJFace{Indices: [3]int{idx[0], idx[k], idx[k+1]}})
	}
	return faces, nil
}

// ParseOBJFile parses an OBJ file from disk.
func ParseOBJFile(path string) (*OBJ, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading OBJ file: %w", err)
	}
	return ParseOBJ(data)
}
