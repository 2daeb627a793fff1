package mesh

import (
	"fmt"
	stdmath "math"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/Faultbox/dsterrain/internal/biome"
	"github.com/Faultbox/dsterrain/internal/logger"
	"github.com/Faultbox/dsterrain/pkg/formats"
	"github.com/Faultbox/dsterrain/pkg/math"
)

// Format selects the exporter.
type Format string

// Export formats.
const (
	FormatOBJ       Format = "obj"
	FormatPLY       Format = "ply"
	FormatPLYBinary Format = "ply-binary"
)

// ParseFormat validates a format name.
func ParseFormat(name string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(name))); f {
	case FormatOBJ, FormatPLY, FormatPLYBinary:
		return f, nil
	default:
		return "", fmt.Errorf("%w: %q", formats.ErrUnknownFormat, name)
	}
}

// Ext returns the file extension, with its leading dot, that Load maps back to f.
func (f Format) Ext() string {
	if f == FormatOBJ {
		return ".obj"
	}
	return ".ply"
}

// Export writes m to path in the given format, replacing any existing file.
func Export(path string, format Format, m *Mesh) error {
	done := logger.Stage("export", zap.String("path", path), zap.String("format", string(format)))
	defer done()

	var write func(*os.File) error
	switch format {
	case FormatOBJ:
		o, err := ToOBJ(m)
		if err != nil {
			return err
		}
		write = func(f *os.File) error { return formats.WriteOBJ(f, o) }
	case FormatPLY, FormatPLYBinary:
		plyFormat := formats.PLYASCII
		if format == FormatPLYBinary {
			plyFormat = formats.PLYBinaryLE
		}
		p, err := ToPLY(m, plyFormat)
		if err != nil {
			return err
		}
		write = func(f *os.File) error { return formats.WritePLY(f, p) }
	default:
		return fmt.Errorf("%w: %q", formats.ErrUnknownFormat, format)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrExportFailed, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("%w: writing %s: %w", ErrExportFailed, path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("%w: %w", ErrExportFailed, err)
	}

	logger.Info("mesh exported",
		zap.String("path", path),
		zap.Int("vertices", len(m.Vertices)),
		zap.Int("faces", len(m.Faces)))
	return nil
}

// Load reads an OBJ or PLY file, choosing the parser by extension.
func Load(path string) (*Mesh, error) {
	kind, err := formats.DetectKind(path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	switch kind {
	case formats.KindOBJ:
		o, err := formats.ParseOBJFile(path)
		if err != nil {
			return nil, err
		}
		return FromOBJ(o), nil
	default:
		p, err := formats.ParsePLYFile(path)
		if err != nil {
			return nil, err
		}
		return FromPLY(p), nil
	}
}

func checkFaceColors(m *Mesh) error {
	if m.FaceColors != nil && len(m.FaceColors) != len(m.Faces) {
		return fmt.Errorf("%w: %d face colors for %d faces", ErrVertexColorMismatch, len(m.FaceColors), len(m.Faces))
	}
	return nil
}

// ToOBJ converts m to OBJ records. Faces are written with reversed winding
// and 1-based indices. Face colors have no OBJ representation and are dropped.
func ToOBJ(m *Mesh) (*formats.OBJ, error) {
	o := &formats.OBJ{
		Comments: []string{fmt.Sprintf("dsterrain mesh %dx%d", m.Size, m.Size)},
		Vertices: make([]formats.OBJVertex, len(m.Vertices)),
		Faces:    make([]formats.OBJFace, len(m.Faces)),
		Colored:  m.Colored(),
	}
	for i, v := range m.Vertices {
		o.Vertices[i].Position = [3]float64{v.Position.X, v.Position.Y, v.Position.Z}
		if o.Colored {
			o.Vertices[i].Color = v.Color.Floats()
		}
	}
	for i, f := range m.Faces {
		o.Faces[i].Indices = [3]int{int(f[2]) + 1, int(f[1]) + 1, int(f[0]) + 1}
	}
	if err := o.Validate(); err != nil {
		return nil, err
	}
	return o, nil
}

// ToPLY converts m to PLY records in the given body encoding, reversing the
// face winding like ToOBJ.
func ToPLY(m *Mesh, format formats.PLYFormat) (*formats.PLY, error) {
	if err := checkFaceColors(m); err != nil {
		return nil, err
	}
	p := &formats.PLY{
		Format:       format,
		Comments:     []string{fmt.Sprintf("dsterrain mesh %dx%d", m.Size, m.Size)},
		Vertices:     make([]formats.PLYVertex, len(m.Vertices)),
		Faces:        make([]formats.PLYFace, len(m.Faces)),
		VertexColors: m.Colored(),
		FaceColors:   m.FaceColors != nil,
	}
	for i, v := range m.Vertices {
		p.Vertices[i].Position = v.Position.Float32()
		if p.VertexColors {
			p.Vertices[i].Color = [3]uint8{v.Color.R, v.Color.G, v.Color.B}
		}
	}
	for i, f := range m.Faces {
		p.Faces[i].Indices = [3]int32{int32(f[2]), int32(f[1]), int32(f[0])}
		if p.FaceColors {
			c := m.FaceColors[i]
			p.Faces[i].Color = [3]uint8{c.R, c.G, c.B}
		}
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// FromOBJ rebuilds a mesh from OBJ records, undoing ToOBJ.
func FromOBJ(o *formats.OBJ) *Mesh {
	m := &Mesh{
		Vertices: make([]Vertex, len(o.Vertices)),
		Faces:    make([]Face, len(o.Faces)),
	}
	for i, v := range o.Vertices {
		m.Vertices[i].Position = math.Vec3{X: v.Position[0], Y: v.Position[1], Z: v.Position[2]}
		if o.Colored {
			m.Vertices[i].Color = rgbFromFloats(v.Color)
			m.Vertices[i].Colored = true
		}
	}
	for i, f := range o.Faces {
		m.Faces[i] = Face{uint32(f.Indices[2] - 1), uint32(f.Indices[1] - 1), uint32(f.Indices[0] - 1)}
	}
	m.Size = latticeSide(len(m.Vertices))
	return m
}

// FromPLY rebuilds a mesh from PLY records, undoing ToPLY.
func FromPLY(p *formats.PLY) *Mesh {
	m := &Mesh{
		Vertices: make([]Vertex, len(p.Vertices)),
		Faces:    make([]Face, len(p.Faces)),
	}
	for i, v := range p.Vertices {
		m.Vertices[i].Position = math.FromFloat32(v.Position)
		if p.VertexColors {
			m.Vertices[i].Color = biome.RGB{R: v.Color[0], G: v.Color[1], B: v.Color[2]}
			m.Vertices[i].Colored = true
		}
	}
	if p.FaceColors {
		m.FaceColors = make([]biome.RGB, len(p.Faces))
	}
	for i, f := range p.Faces {
		m.Faces[i] = Face{uint32(f.Indices[2]), uint32(f.Indices[1]), uint32(f.Indices[0])}
		if p.FaceColors {
			m.FaceColors[i] = biome.RGB{R: f.Color[0], G: f.Color[1], B: f.Color[2]}
		}
	}
	m.Size = latticeSide(len(m.Vertices))
	return m
}

func rgbFromFloats(c [3]float64) biome.RGB {
	channel := func(x float64) uint8 {
		return uint8(stdmath.Round(stdmath.Max(0, stdmath.Min(1, x)) * 255))
	}
	return biome.RGB{R: channel(c[0]), G: channel(c[1]), B: channel(c[2])}
}

// latticeSide returns n when count is n*n for some n >= 2, else 0.
func latticeSide(count int) int {
	n := int(stdmath.Round(stdmath.Sqrt(float64(count))))
	if n >= 2 && n*n == count {
		return n
	}
	return 0
}
