package formats

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
)

// PLY format errors.
var (
	ErrInvalidPLYMagic      = errors.New("invalid PLY magic: expected 'ply'")
	ErrUnsupportedPLYFormat = errors.New("unsupported PLY format")
	ErrMalformedPLYHeader   = errors.New("malformed PLY header")
	ErrTruncatedPLYData     = errors.New("truncated PLY data")
)

// PLYFormat is the body encoding declared in the header.
type PLYFormat string

// Supported body encodings.
const (
	PLYASCII    PLYFormat = "ascii"
	PLYBinaryLE PLYFormat = "binary_little_endian"
	PLYBinaryBE PLYFormat = "binary_big_endian"
)

const plyVersion10 = "1.0"

type plyByteOrder interface {
	binary.ByteOrder
	binary.AppendByteOrder
}

func (f PLYFormat) byteOrder() plyByteOrder {
	if f == PLYBinaryBE {
		return binary.BigEndian
	}
	return binary.LittleEndian
}

func (f PLYFormat) valid() bool {
	return f == PLYASCII || f == PLYBinaryLE || f == PLYBinaryBE
}

// PLYVertex is one row of the vertex element.
type PLYVertex struct {
	Position [3]float32
	Color    [3]uint8
}

// PLYFace is one row of the face element: a triangle plus an optional flat color.
type PLYFace struct {
	Indices [3]int32
	Color   [3]uint8
}

// PLY represents a parsed or to-be-written PLY file.
type PLY struct {
	Format       PLYFormat
	Comments     []string
	Vertices     []PLYVertex
	Faces        []PLYFace
	VertexColors bool // vertex element carries red, green, blue
	FaceColors   bool // face element carries red, green, blue
}

// Validate checks that every face index addresses a vertex.
func (p *PLY) Validate() error {
	for i, f := range p.Faces {
		for _, idx := range f.Indices {
			if idx < 0 || int(idx) >= len(p.Vertices) {
				return fmt.Errorf("%w: face %d references vertex %d of %d", ErrIndexOutOfRange, i, idx, len(p.Vertices))
			}
		}
	}
	return nil
}

// GetPositionRange returns the component-wise minimum and maximum vertex position.
func (p *PLY) GetPositionRange() (min, max [3]float32) {
	if len(p.Vertices) == 0 {
		return min, max
	}
	min = p.Vertices[0].Position
	max = p.Vertices[0].Position
	for _, v := range p.Vertices {
		for k, c := range v.Position {
			min[k] = float32(math.Min(float64(min[k]), float64(c)))
			max[k] = float32(math.Max(float64(max[k]), float64(c)))
		}
	}
	return min, max
}

// WritePLY writes the header and body of p in p.Format (ascii if unset).
func WritePLY(w io.Writer, p *PLY) error {
	format := p.Format
	if format == "" {
		format = PLYASCII
	}
	if !format.valid() {
		return fmt.Errorf("%w: %s", ErrUnsupportedPLYFormat, format)
	}
	if err := p.Validate(); err != nil {
		return err
	}

	bw := bufio.NewWriter(w)
	writePLYHeader(bw, p, format)

	if format == PLYASCII {
		writePLYASCII(bw, p)
	} else {
		writePLYBinary(bw, p, format.byteOrder())
	}
	return bw.Flush()
}

func writePLYHeader(w *bufio.Writer, p *PLY, format PLYFormat) {
	fmt.Fprintf(w, "ply\nformat %s %s\n", format, plyVersion10)
	for _, c := range p.Comments {
		fmt.Fprintf(w, "comment %s\n", c)
	}
	fmt.Fprintf(w, "element vertex %d\n", len(p.Vertices))
	w.WriteString("property float x\nproperty float y\nproperty float z\n")
	if p.VertexColors {
		w.WriteString("property uchar red\nproperty uchar green\nproperty uchar blue\n")
	}
	fmt.Fprintf(w, "element face %d\n", len(p.Faces))
	w.WriteString("property list uchar int vertex_indices\n")
	if p.FaceColors {
		w.WriteString("property uchar red\nproperty uchar green\nproperty uchar blue\n")
	}
	w.WriteString("end_header\n")
}

func writePLYASCII(w *bufio.Writer, p *PLY) {
	var line []byte
	for _, v := range p.Vertices {
		line = line[:0]
		for k, c := range v.Position {
			if k > 0 {
				line = append(line, ' ')
			}
			line = strconv.AppendFloat(line, float64(c), 'g', -1, 32)
		}
		if p.VertexColors {
			line = appendColor(line, v.Color)
		}
		line = append(line, '\n')
		w.Write(line)
	}
	for _, f := range p.Faces {
		line = append(line[:0], '3')
		for _, idx := range f.Indices {
			line = append(line, ' ')
			line = strconv.AppendInt(line, int64(idx), 10)
		}
		if p.FaceColors {
			line = appendColor(line, f.Color)
		}
		line = append(line, '\n')
		w.Write(line)
	}
}

func appendColor(line []byte, c [3]uint8) []byte {
	for _, ch := range c {
		line = append(line, ' ')
		line = strconv.AppendUint(line, uint64(ch), 10)
	}
	return line
}

func writePLYBinary(w *bufio.Writer, p *PLY, order plyByteOrder) {
	var buf []byte
	for _, v := range p.Vertices {
		buf = buf[:0]
		for _, c := range v.Position {
			buf = order.AppendUint32(buf, math.Float32bits(c))
		}
		if p.VertexColors {
			buf = append(buf, v.Color[:]...)
		}
		w.Write(buf)
	}
	for _, f := range p.Faces {
		buf = append(buf[:0], 3)
		for _, idx := range f.Indices {
			buf = order.AppendUint32(buf, uint32(idx))
		}
		if p.FaceColors {
			buf = append(buf, f.Color[:]...)
		}
		w.Write(buf)
	}
}

// WritePLYFile writes p to path, replacing any existing file.
func WritePLYFile(path string, p *PLY) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating PLY file: %w", err)
	}
	if err := WritePLY(f, p); err != nil {
		f.Close()
		return fmt.Errorf("writing PLY file: %w", err)
	}
	return f.Close()
}

// plyScalar is a PLY scalar property type.
type plyScalar uint8

const (
	plyInt8 plyScalar = iota + 1
	plyUint8
	plyInt16
	plyUint16
	plyInt32
	plyUint32
	plyFloat32
	plyFloat64
)

var plyScalarNames = map[string]plyScalar{
	"char": plyInt8, "int8": plyInt8,
	"uchar": plyUint8, "uint8": plyUint8,
	"short": plyInt16, "int16": plyInt16,
	"ushort": plyUint16, "uint16": plyUint16,
	"int": plyInt32, "int32": plyInt32,
	"uint": plyUint32, "uint32": plyUint32,
	"float": plyFloat32, "float32": plyFloat32,
	"double": plyFloat64, "float64": plyFloat64,
}

func (s plyScalar) size() int {
	switch s {
	case plyInt8, plyUint8:
		return 1
	case plyInt16, plyUint16:
		return 2
	case plyInt32, plyUint32, plyFloat32:
		return 4
	default:
		return 8
	}
}

// plyProperty is one property declaration. List properties have a count type.
type plyProperty struct {
	name      string
	typ       plyScalar
	countType plyScalar // zero for scalar properties
}

type plyElement struct {
	name       string
	count      int
	properties []plyProperty
}

func (e *plyElement) index(name string) int {
	for i, p := range e.properties {
		if p.name == name {
			return i
		}
	}
	return -1
}

type plyHeader struct {
	format   PLYFormat
	comments []string
	elements []*plyElement
}

// ParsePLY parses a PLY file from raw bytes. Elements other than vertex and
// face are read and discarded; unknown properties are ignored.
func ParsePLY(data []byte) (*PLY, error) {
	if len(data) < 4 || string(data[:3]) != "ply" || (data[3] != '\n' && data[3] != '\r') {
		return nil, ErrInvalidPLYMagic
	}

	header, body, err := parsePLYHeader(data)
	if err != nil {
		return nil, err
	}

	var r plyValueReader
	if header.format == PLYASCII {
		r = &plyASCIIReader{fields: strings.Fields(string(body))}
	} else {
		r = &plyBinaryReader{r: bytes.NewReader(body), order: header.format.byteOrder()}
	}

	p := &PLY{Format: header.format, Comments: header.comments}
	for _, el := range header.elements {
		switch el.name {
		case "vertex":
			err = readPLYVertices(r, el, p)
		case "face":
			err = readPLYFaces(r, el, p)
		default:
			err = skipPLYElement(r, el)
		}
		if err != nil {
			return nil, fmt.Errorf("reading %s element: %w", el.name, err)
		}
	}

	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

func parsePLYHeader(data []byte) (*plyHeader, []byte, error) {
	h := &plyHeader{}
	rest := data
	lineNo := 0
	for {
		nl := bytes.IndexByte(rest, '\n')
		if nl < 0 {
			return nil, nil, fmt.Errorf("%w: missing end_header", ErrMalformedPLYHeader)
		}
		line := strings.TrimSpace(string(rest[:nl]))
		rest = rest[nl+1:]
		lineNo++
		if lineNo == 1 {
			continue // magic, checked by the caller
		}

		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		switch fields[0] {
		case "end_header":
			if h.format == "" {
				return nil, nil, fmt.Errorf("%w: missing format line", ErrMalformedPLYHeader)
			}
			return h, rest, nil
		case "format":
			if len(fields) != 3 {
				return nil, nil, fmt.Errorf("%w: line %d: %q", ErrMalformedPLYHeader, lineNo, line)
			}
			h.format = PLYFormat(fields[1])
			if !h.format.valid() || fields[2] != plyVersion10 {
				return nil, nil, fmt.Errorf("%w: %s %s", ErrUnsupportedPLYFormat, fields[1], fields[2])
			}
		case "comment", "obj_info":
			h.comments = append(h.comments, strings.TrimSpace(strings.TrimPrefix(line, fields[0])))
		case "element":
			if len(fields) != 3 {
				return nil, nil, fmt.Errorf("%w: line %d: %q", ErrMalformedPLYHeader, lineNo, line)
			}
			count, err := strconv.Atoi(fields[2])
			if err != nil || count < 0 {
				return nil, nil, fmt.Errorf("%w: element count %q", ErrMalformedPLYHeader, fields[2])
			}
			h.elements = append(h.elements, &plyElement{name: fields[1], count: count})
		case "property":
			if len(h.elements) == 0 {
				return nil, nil, fmt.Errorf("%w: property before element", ErrMalformedPLYHeader)
			}
			prop, err := parsePLYProperty(fields[1:])
			if err != nil {
				return nil, nil, fmt.Errorf("line %d: %w", lineNo, err)
			}
			el := h.elements[len(h.elements)-1]
			el.properties = append(el.properties, prop)
		default:
			return nil, nil, fmt.Errorf("%w: unknown keyword %q", ErrMalformedPLYHeader, fields[0])
		}
	}
}

func parsePLYProperty(fields []string) (plyProperty, error) {
	if len(fields) == 4 && fields[0] == "list" {
		ct, ok1 := plyScalarNames[fields[1]]
		it, ok2 := plyScalarNames[fields[2]]
		if !ok1 || !ok2 || ct == plyFloat32 || ct == plyFloat64 {
			return plyProperty{}, fmt.Errorf("%w: list types %s %s", ErrMalformedPLYHeader, fields[1], fields[2])
		}
		return plyProperty{name: fields[3], typ: it, countType: ct}, nil
	}
	if len(fields) == 2 {
		t, ok := plyScalarNames[fields[0]]
		if !ok {
			return plyProperty{}, fmt.Errorf("%w: property type %s", ErrMalformedPLYHeader, fields[0])
		}
		return plyProperty{name: fields[1], typ: t}, nil
	}
	return plyProperty{}, fmt.Errorf("%w: property %v", ErrMalformedPLYHeader, fields)
}

// plyValueReader yields successive values of the body regardless of encoding.
type plyValueReader interface {
	next(t plyScalar) (float64, error)
	// remaining is an upper bound on the values left in the body.
	remaining() int
}

// rowCapacity bounds a slice preallocation by the rows the body can still hold,
// so a forged element count cannot force a huge allocation.
func rowCapacity(r plyValueReader, count, valuesPerRow int) int {
	return min(count, r.remaining()/max(valuesPerRow, 1))
}

type plyASCIIReader struct {
	fields []string
	pos    int
}

func (r *plyASCIIReader) next(plyScalar) (float64, error) {
	if r.pos >= len(r.fields) {
		return 0, ErrTruncatedPLYData
	}
	tok := r.fields[r.pos]
	r.pos++
	v, err := strconv.ParseFloat(tok, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: bad value %q", ErrTruncatedPLYData, tok)
	}
	return v, nil
}

func (r *plyASCIIReader) remaining() int { return len(r.fields) - r.pos }

type plyBinaryReader struct {
	r     *bytes.Reader
	order binary.ByteOrder
	buf   [8]byte
}

func (r *plyBinaryReader) remaining() int { return r.r.Len() }

func (r *plyBinaryReader) next(t plyScalar) (float64, error) {
	b := r.buf[:t.size()]
	if _, err := io.ReadFull(r.r, b); err != nil {
		return 0, ErrTruncatedPLYData
	}
	switch t {
	case plyInt8:
		return float64(int8(b[0])), nil
	case plyUint8:
		return float64(b[0]), nil
	case plyInt16:
		return float64(int16(r.order.Uint16(b))), nil
	case plyUint16:
		return float64(r.order.Uint16(b)), nil
	case plyInt32:
		return float64(int32(r.order.Uint32(b))), nil
	case plyUint32:
		return float64(r.order.Uint32(b)), nil
	case plyFloat32:
		return float64(math.Float32frombits(r.order.Uint32(b))), nil
	default:
		return math.Float64frombits(r.order.Uint64(b)), nil
	}
}

// readPLYRow reads one element row; list properties land in lists[i].
func readPLYRow(r plyValueReader, el *plyElement, scalars []float64, lists [][]float64) error {
	for i, prop := range el.properties {
		if prop.countType == 0 {
			v, err := r.next(prop.typ)
			if err != nil {
				return err
			}
			scalars[i] = v
			continue
		}
		n, err := r.next(prop.countType)
		if err != nil {
			return err
		}
		if n < 0 {
			return fmt.Errorf("%w: negative list length", ErrTruncatedPLYData)
		}
		lists[i] = lists[i][:0]
		for k := 0; k < int(n); k++ {
			v, err := r.next(prop.typ)
			if err != nil {
				return err
			}
			lists[i] = append(lists[i], v)
		}
	}
	return nil
}

func colorIndices(el *plyElement) ([3]int, bool) {
	idx := [3]int{el.index("red"), el.index("green"), el.index("blue")}
	return idx, idx[0] >= 0 && idx[1] >= 0 && idx[2] >= 0
}

func readPLYVertices(r plyValueReader, el *plyElement, p *PLY) error {
	pos := [3]int{el.index("x"), el.index("y"), el.index("z")}
	if pos[0] < 0 || pos[1] < 0 || pos[2] < 0 {
		return fmt.Errorf("%w: vertex element lacks x, y or z", ErrMalformedPLYHeader)
	}
	col, hasColor := colorIndices(el)
	p.VertexColors = hasColor

	scalars := make([]float64, len(el.properties))
	lists := make([][]float64, len(el.properties))
	p.Vertices = make([]PLYVertex, 0, rowCapacity(r, el.count, len(el.properties)))
	for n := 0; n < el.count; n++ {
		if err := readPLYRow(r, el, scalars, lists); err != nil {
			return fmt.Errorf("vertex %d: %w", n, err)
		}
		var v PLYVertex
		for k := range 3 {
			v.Position[k] = float32(scalars[pos[k]])
			if hasColor {
				v.Color[k] = uint8(scalars[col[k]])
			}
		}
		p.Vertices = append(p.Vertices, v)
	}
	return nil
}

func readPLYFaces(r plyValueReader, el *plyElement, p *PLY) error {
	li := el.index("vertex_indices")
	if li < 0 {
		li = el.index("vertex_index")
	}
	if li < 0 || el.properties[li].countType == 0 {
		return fmt.Errorf("%w: face element lacks a vertex_indices list", ErrMalformedPLYHeader)
	}
	col, hasColor := colorIndices(el)
	p.FaceColors = hasColor

	scalars := make([]float64, len(el.properties))
	lists := make([][]float64, len(el.properties))
	// A triangle row holds at least a count and three indices.
	p.Faces = make([]PLYFace, 0, rowCapacity(r, el.count, 4))
	for n := 0; n < el.count; n++ {
		if err := readPLYRow(r, el, scalars, lists); err != nil {
			return fmt.Errorf("face %d: %w", n, err)
		}
		corners := lists[li]
		if len(corners) < 3 {
			return fmt.Errorf("%w: face %d has %d corners", ErrMalformedPLYHeader, n, len(corners))
		}
		var color [3]uint8
		if hasColor {
			for k := range 3 {
				color[k] = uint8(scalars[col[k]])
			}
		}
		// Fan-split polygons into triangles.
		for k := 1; k+1 < len(corners); k++ {
			p.Faces = append(p.Faces, PLYFace{
				Indices: [3]int32{int32(corners[0]), int32(corners[k]), int32(corners[k+1])},
				Color:   color,
			})
		}
	}
	return nil
}

func skipPLYElement(r plyValueReader, el *plyElement) error {
	if len(el.properties) == 0 {
		return nil
	}
	scalars := make([]float64, len(el.properties))
	lists := make([][]float64, len(el.properties))
	for n := 0; n < el.count; n++ {
		if err := readPLYRow(r, el, scalars, lists); err != nil {
			return err
		}
	}
	return nil
}

// ParsePLYFile parses a PLY file from disk.
func ParsePLYFile(path string) (*PLY, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading PLY file: %w", err)
	}
	return ParsePLY(data)
}
