package viewer

import (
	"fmt"
	"image"

	"github.com/go-gl/gl/v4.1-core/gl"
)

// Surface holds an RGBA texture attached to a read framebuffer so it can be
// copied to the window with BlitFramebuffer, with no shader pipeline.
type Surface struct {
	fbo     uint32
	texture uint32
	width   int32
	height  int32
}

// NewSurface creates an empty surface.
func NewSurface() (*Surface, error) {
	s := &Surface{}
	gl.GenFramebuffers(1, &s.fbo)
	gl.GenTextures(1, &s.texture)

	gl.BindTexture(gl.TEXTURE_2D, s.texture)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.NEAREST)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.NEAREST)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)

	// A 1x1 placeholder makes the framebuffer complete before the first upload.
	if err := s.Upload(image.NewRGBA(image.Rect(0, 0, 1, 1))); err != nil {
		s.Destroy()
		return nil, err
	}
	return s, nil
}

// Upload replaces the texture contents with img.
func (s *Surface) Upload(img *image.RGBA) error {
	b := img.Bounds()
	s.width, s.height = int32(b.Dx()), int32(b.Dy())

	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 1)
	gl.PixelStorei(gl.UNPACK_ROW_LENGTH, int32(img.Stride/4))
	gl.BindTexture(gl.TEXTURE_2D, s.texture)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA8, s.width, s.height, 0, gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(img.Pix))
	gl.PixelStorei(gl.UNPACK_ROW_LENGTH, 0)

	gl.BindFramebuffer(gl.READ_FRAMEBUFFER, s.fbo)
	gl.FramebufferTexture2D(gl.READ_FRAMEBUFFER, gl.COLOR_ATTACHMENT0, gl.TEXTURE_2D, s.texture, 0)
	status := gl.CheckFramebufferStatus(gl.READ_FRAMEBUFFER)
	gl.BindFramebuffer(gl.READ_FRAMEBUFFER, 0)
	if status != gl.FRAMEBUFFER_COMPLETE {
		return fmt.Errorf("framebuffer incomplete: 0x%x", status)
	}
	return nil
}

// Size returns the texture dimensions.
func (s *Surface) Size() (width, height int32) {
	return s.width, s.height
}

// BlitTo copies the surface into dst of the default framebuffer. Image row 0
// is the top row, so the destination is flipped to match GL's bottom-left origin.
func (s *Surface) BlitTo(dst image.Rectangle, drawableHeight int) {
	gl.BindFramebuffer(gl.READ_FRAMEBUFFER, s.fbo)
	gl.BindFramebuffer(gl.DRAW_FRAMEBUFFER, 0)

	y0 := int32(drawableHeight - dst.Min.Y)
	y1 := int32(drawableHeight - dst.Max.Y)
	gl.BlitFramebuffer(
		0, 0, s.width, s.height,
		int32(dst.Min.X), y0, int32(dst.Max.X), y1,
		gl.COLOR_BUFFER_BIT, gl.NEAREST,
	)

	gl.BindFramebuffer(gl.READ_FRAMEBUFFER, 0)
}

// Destroy releases all OpenGL resources.
func (s *Surface) Destroy() {
	if s.fbo != 0 {
		gl.DeleteFramebuffers(1, &s.fbo)
		s.fbo = 0
	}
	if s.texture != 0 {
		gl.DeleteTextures(1, &s.texture)
		s.texture = 0
	}
}
