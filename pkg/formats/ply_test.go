package formats

import (
	"bytes"
	"encoding/binary"
	"errors"
	"math"
	"path/filepath"
	"strings"
	"testing"
)

func trianglePLY(format PLYFormat) *PLY {
	return &PLY{
		Format:       format,
		Comments:     []string{"triangle"},
		VertexColors: true,
		FaceColors:   true,
		Vertices: []PLYVertex{
			{Position: [3]float32{-1, -0.75, -1}, Color: [3]uint8{0, 0, 255}},
			{Position: [3]float32{1, -0.75, -1}, Color: [3]uint8{230, 220, 170}},
			{Position: [3]float32{0.5, -0.25, 1}, Color: [3]uint8{250, 250, 250}},
		},
		Faces: []PLYFace{
			{Indices: [3]int32{2, 1, 0}, Color: [3]uint8{120, 120, 120}},
		},
	}
}

// createTestPLY builds a binary PLY with an extra element and an unknown
// vertex property, both of which the parser must skip.
func createTestPLY(order binary.ByteOrder) []byte {
	buf := new(bytes.Buffer)
	format := "binary_little_endian"
	if order == binary.BigEndian {
		format = "binary_big_endian"
	}

	buf.WriteString("ply\n")
	buf.WriteString("format " + format + " 1.0\n")
	buf.WriteString("comment handmade\n")
	buf.WriteString("element vertex 4\n")
	buf.WriteString("property double x\nproperty double y\nproperty double z\n")
	buf.WriteString("property short confidence\n")
	buf.WriteString("element face 1\n")
	buf.WriteString("property list uchar uint vertex_indices\n")
	buf.WriteString("element material 2\n")
	buf.WriteString("property float shine\n")
	buf.WriteString("end_header\n")

	positions := [][3]float64{{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 1, 0}}
	for i, p := range positions {
		binary.Write(buf, order, p)
		binary.Write(buf, order, int16(-i))
	}

	// One quad, fan-split on read
	buf.WriteByte(4)
	binary.Write(buf, order, []uint32{0, 1, 2, 3})

	// Materials
	binary.Write(buf, order, []float32{0.5, 0.25})

	return buf.Bytes()
}

func TestWritePLY_ASCIIHeader(t *testing.T) {
	var buf bytes.Buffer
	if err := WritePLY(&buf, trianglePLY("")); err != nil {
		t.Fatalf("WritePLY failed: %v", err)
	}

	out := buf.String()
	header, body, ok := strings.Cut(out, "end_header\n")
	if !ok {
		t.Fatalf("missing end_header:\n%s", out)
	}
	for _, want := range []string{
		"ply\nformat ascii 1.0\n",
		"comment triangle\n",
		"element vertex 3\n",
		"property uchar red\n",
		"element face 1\n",
		"property list uchar int vertex_indices\n",
	} {
		if !strings.Contains(header, want) {
			t.Errorf("expected %q in header:\n%s", want, header)
		}
	}

	lines := strings.Split(strings.TrimSpace(body), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected 4 body lines, got %d", len(lines))
	}
	if lines[0] != "-1 -0.75 -1 0 0 255" {
		t.Errorf("unexpected vertex line %q", lines[0])
	}
	if lines[3] != "3 2 1 0 120 120 120" {
		t.Errorf("unexpected face line %q", lines[3])
	}
}

func TestPLY_RoundTrip(t *testing.T) {
	for _, format := range []PLYFormat{PLYASCII, PLYBinaryLE, PLYBinaryBE} {
		t.Run(string(format), func(t *testing.T) {
			want := trianglePLY(format)
			var buf bytes.Buffer
			if err := WritePLY(&buf, want); err != nil {
				t.Fatalf("WritePLY failed: %v", err)
			}

			got, err := ParsePLY(buf.Bytes())
			if err != nil {
				t.Fatalf("ParsePLY failed: %v", err)
			}
			if got.Format != format {
				t.Errorf("expected format %s, got %s", format, got.Format)
			}
			if !got.VertexColors || !got.FaceColors {
				t.Error("expected vertex and face colors")
			}
			if len(got.Comments) != 1 || got.Comments[0] != "triangle" {
				t.Errorf("unexpected comments %v", got.Comments)
			}
			if len(got.Vertices) != 3 || len(got.Faces) != 1 {
				t.Fatalf("expected 3 vertices and 1 face, got %d and %d", len(got.Vertices), len(got.Faces))
			}
			for i := range want.Vertices {
				if got.Vertices[i] != want.Vertices[i] {
					t.Errorf("vertex %d: got %+v, want %+v", i, got.Vertices[i], want.Vertices[i])
				}
			}
			if got.Faces[0] != want.Faces[0] {
				t.Errorf("face: got %+v, want %+v", got.Faces[0], want.Faces[0])
			}
		})
	}
}

func TestPLY_FileRoundTripWithoutColors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plain.ply")
	want := trianglePLY(PLYBinaryLE)
	want.VertexColors = false
	want.FaceColors = false
	for i := range want.Vertices {
		want.Vertices[i].Color = [3]uint8{}
	}
	want.Faces[0].Color = [3]uint8{}

	if err := WritePLYFile(path, want); err != nil {
		t.Fatalf("WritePLYFile failed: %v", err)
	}
	got, err := ParsePLYFile(path)
	if err != nil {
		t.Fatalf("ParsePLYFile failed: %v", err)
	}
	if got.VertexColors || got.FaceColors {
		t.Error("expected no colors")
	}
	if got.Vertices[2] != want.Vertices[2] {
		t.Errorf("got %+v, want %+v", got.Vertices[2], want.Vertices[2])
	}
}

func TestParsePLY_BinaryForeignLayout(t *testing.T) {
	for _, order := range []binary.ByteOrder{binary.LittleEndian, binary.BigEndian} {
		t.Run(order.String(), func(t *testing.T) {
			p, err := ParsePLY(createTestPLY(order))
			if err != nil {
				t.Fatalf("ParsePLY failed: %v", err)
			}
			if len(p.Vertices) != 4 {
				t.Fatalf("expected 4 vertices, got %d", len(p.Vertices))
			}
			if p.Vertices[2].Position != [3]float32{1, 1, 0} {
				t.Errorf("unexpected vertex 2 %v", p.Vertices[2].Position)
			}
			if p.VertexColors || p.FaceColors {
				t.Error("expected no colors")
			}
			want := []PLYFace{
				{Indices: [3]int32{0, 1, 2}},
				{Indices: [3]int32{0, 2, 3}},
			}
			if len(p.Faces) != len(want) {
				t.Fatalf("expected %d faces, got %d", len(want), len(p.Faces))
			}
			for i := range want {
				if p.Faces[i] != want[i] {
					t.Errorf("face %d: got %v, want %v", i, p.Faces[i].Indices, want[i].Indices)
				}
			}
		})
	}
}

func TestParsePLY_Errors(t *testing.T) {
	valid := createTestPLY(binary.LittleEndian)

	tests := []struct {
		name string
		data []byte
		err  error
	}{
		{"empty", nil, ErrInvalidPLYMagic},
		{"wrong magic", []byte("obj\nformat ascii 1.0\nend_header\n"), ErrInvalidPLYMagic},
		{"no end_header", []byte("ply\nformat ascii 1.0\n"), ErrMalformedPLYHeader},
		{"no format", []byte("ply\nelement vertex 0\nend_header\n"), ErrMalformedPLYHeader},
		{"bad format", []byte("ply\nformat binary_middle_endian 1.0\nend_header\n"), ErrUnsupportedPLYFormat},
		{"bad version", []byte("ply\nformat ascii 2.0\nend_header\n"), ErrUnsupportedPLYFormat},
		{"orphan property", []byte("ply\nformat ascii 1.0\nproperty float x\nend_header\n"), ErrMalformedPLYHeader},
		{"bad type", []byte("ply\nformat ascii 1.0\nelement vertex 1\nproperty quad x\nend_header\n"), ErrMalformedPLYHeader},
		{"no xyz", []byte("ply\nformat ascii 1.0\nelement vertex 1\nproperty float x\nend_header\n1\n"), ErrMalformedPLYHeader},
		{"truncated ascii", []byte("ply\nformat ascii 1.0\nelement vertex 2\nproperty float x\nproperty float y\nproperty float z\nend_header\n0 0 0\n1 1\n"), ErrTruncatedPLYData},
		{"truncated binary", valid[:len(valid)-12], ErrTruncatedPLYData},
		{"huge vertex count", []byte("ply\nformat ascii 1.0\nelement vertex 9000000000000000000\nproperty float x\nproperty float y\nproperty float z\nend_header\n0 0 0\n"), ErrTruncatedPLYData},
		{"huge face count", []byte("ply\nformat binary_little_endian 1.0\nelement vertex 0\nproperty float x\nproperty float y\nproperty float z\nelement face 9000000000000000000\nproperty list uchar int vertex_indices\nend_header\n\x03"), ErrTruncatedPLYData},
		{"dangling index", []byte("ply\nformat ascii 1.0\nelement vertex 1\nproperty float x\nproperty float y\nproperty float z\nelement face 1\nproperty list uchar int vertex_indices\nend_header\n0 0 0\n3 0 0 7\n"), ErrIndexOutOfRange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParsePLY(tt.data)
			if !errors.Is(err, tt.err) {
				t.Errorf("expected %v, got %v", tt.err, err)
			}
		})
	}
}

func TestParsePLY_EmptyElementIgnoresCount(t *testing.T) {
	data := []byte("ply\nformat ascii 1.0\nelement marker 9000000000000000000\nelement vertex 1\nproperty float x\nproperty float y\nproperty float z\nend_header\n1 2 3\n")
	p, err := ParsePLY(data)
	if err != nil {
		t.Fatalf("ParsePLY failed: %v", err)
	}
	if len(p.Vertices) != 1 || p.Vertices[0].Position != [3]float32{1, 2, 3} {
		t.Errorf("unexpected vertices %v", p.Vertices)
	}
}

func TestWritePLY_Errors(t *testing.T) {
	p := trianglePLY("binary_middle_endian")
	if err := WritePLY(&bytes.Buffer{}, p); !errors.Is(err, ErrUnsupportedPLYFormat) {
		t.Errorf("expected ErrUnsupportedPLYFormat, got %v", err)
	}

	p = trianglePLY(PLYASCII)
	p.Faces[0].Indices[1] = 3
	if err := WritePLY(&bytes.Buffer{}, p); !errors.Is(err, ErrIndexOutOfRange) {
		t.Errorf("expected ErrIndexOutOfRange, got %v", err)
	}
}

func TestPLY_GetPositionRange(t *testing.T) {
	min, max := trianglePLY(PLYASCII).GetPositionRange()
	if min != [3]float32{-1, -0.75, -1} {
		t.Errorf("unexpected min %v", min)
	}
	if max != [3]float32{1, -0.25, 1} {
		t.Errorf("unexpected max %v", max)
	}
	if math.IsNaN(float64(max[0])) {
		t.Error("range must not be NaN")
	}
}
