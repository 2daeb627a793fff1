package viewer

import (
	"fmt"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/veandco/go-sdl2/sdl"
	"go.uber.org/zap"

	"github.com/Faultbox/dsterrain/internal/heightmap"
	"github.com/Faultbox/dsterrain/internal/logger"
	"github.com/Faultbox/dsterrain/internal/preview"
)

// Params are the generator inputs the viewer can change interactively.
type Params struct {
	Seed     int64
	Boundary string
}

// Generator produces the biome map for p.
type Generator func(p Params) (*heightmap.ColorMap, error)

// Config configures a Viewer.
type Config struct {
	Window        WindowConfig
	Params        Params
	ScreenshotDir string
}

var boundaries = []string{"periodic", "fixed"}

// Viewer displays generated biome maps and regenerates them on request.
type Viewer struct {
	cfg      Config
	generate Generator
	window   *Window
	surface  *Surface
	input    *Input
	params   Params
	current  *heightmap.ColorMap
}

// New opens the window and renders the first map.
func New(cfg Config, generate Generator) (*Viewer, error) {
	w, err := NewWindow(cfg.Window)
	if err != nil {
		return nil, err
	}
	s, err := NewSurface()
	if err != nil {
		w.Close()
		return nil, err
	}

	v := &Viewer{
		cfg:      cfg,
		generate: generate,
		window:   w,
		surface:  s,
		input:    NewInput(),
		params:   cfg.Params,
	}
	if err := v.regenerate(); err != nil {
		v.Close()
		return nil, err
	}
	return v, nil
}

// Close releases GL resources and the window.
func (v *Viewer) Close() {
	if v.surface != nil {
		v.surface.Destroy()
		v.surface = nil
	}
	if v.window != nil {
		v.window.Close()
		v.window = nil
	}
}

// Run processes input and redraws until the window is closed.
func (v *Viewer) Run() error {
	dirty := true
	for {
		for _, a := range v.input.Update() {
			switch a {
			case ActionQuit:
				return nil
			case ActionResize:
				dirty = true
			case ActionReseed, ActionPrevSeed, ActionCycleBoundary:
				v.params = nextParams(v.params, a)
				if err := v.regenerate(); err != nil {
					return err
				}
				dirty = true
			case ActionScreenshot:
				v.screenshot()
			}
		}

		if dirty {
			v.draw()
			dirty = false
		}
		sdl.Delay(16)
	}
}

// nextParams applies a parameter-changing action.
func nextParams(p Params, a Action) Params {
	switch a {
	case ActionReseed:
		p.Seed++
	case ActionPrevSeed:
		p.Seed--
	case ActionCycleBoundary:
		next := 0
		for i, b := range boundaries {
			if b == p.Boundary {
				next = (i + 1) % len(boundaries)
			}
		}
		p.Boundary = boundaries[next]
	}
	return p
}

func (v *Viewer) regenerate() error {
	done := logger.Stage("viewer regenerate", zap.Int64("seed", v.params.Seed), zap.String("boundary", v.params.Boundary))
	cm, err := v.generate(v.params)
	done()
	if err != nil {
		return fmt.Errorf("generating seed %d: %w", v.params.Seed, err)
	}

	if err := v.surface.Upload(preview.ColorImage(cm)); err != nil {
		return err
	}
	v.current = cm
	v.window.SetTitle(fmt.Sprintf("%s - seed %d, %s, %dx%d",
		v.cfg.Window.Title, v.params.Seed, v.params.Boundary, cm.Size(), cm.Size()))
	return nil
}

func (v *Viewer) draw() {
	dw, dh := v.window.DrawableSize()
	gl.Viewport(0, 0, int32(dw), int32(dh))
	gl.ClearColor(0.08, 0.08, 0.1, 1)
	gl.Clear(gl.COLOR_BUFFER_BIT)

	sw, sh := v.surface.Size()
	v.surface.BlitTo(preview.Fit(int(sw), int(sh), dw, dh), dh)
	v.window.SwapBuffers()
}

func (v *Viewer) screenshot() {
	if v.current == nil {
		return
	}
	path, err := preview.Capture(v.cfg.ScreenshotDir, fmt.Sprintf("terrain_%d", v.params.Seed), preview.ColorImage(v.current))
	if err != nil {
		logger.Warn("screenshot failed", zap.Error(err))
		return
	}
	logger.Info("screenshot saved", zap.String("path", path))
}
