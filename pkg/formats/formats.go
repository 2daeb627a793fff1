// Package formats reads and writes the mesh interchange formats produced by
// the terrain pipeline: Wavefront-style OBJ text and PLY (ascii or binary).
package formats

import (
	"errors"
	"path/filepath"
	"strings"
)

// Shared format errors.
var (
	ErrIndexOutOfRange    = errors.New("face index out of range")
	ErrColorCountMismatch = errors.New("vertex color count does not match vertex count")
	ErrUnknownFormat      = errors.New("unknown mesh format")
)

// Note: OBJ text is implemented in obj.go
// Note: PLY (ascii, binary little/big endian) is implemented in ply.go

// Kind identifies a mesh file format by file extension.
type Kind string

// Known mesh file kinds.
const (
	KindOBJ Kind = "obj"
	KindPLY Kind = "ply"
)

// DetectKind returns the format implied by a file name.
func DetectKind(path string) (Kind, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".obj":
		return KindOBJ, nil
	case ".ply":
		return KindPLY, nil
	default:
		return "", ErrUnknownFormat
	}
}
