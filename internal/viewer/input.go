package viewer

import (
	"github.com/veandco/go-sdl2/sdl"
)

// Action is a viewer command derived from input events.
type Action int

const (
	ActionNone Action = iota
	ActionQuit
	ActionResize
	ActionReseed
	ActionPrevSeed
	ActionScreenshot
	ActionCycleBoundary
)

// keyActions maps key presses to viewer commands.
var keyActions = map[sdl.Scancode]Action{
	sdl.SCANCODE_ESCAPE: ActionQuit,
	sdl.SCANCODE_Q:      ActionQuit,
	sdl.SCANCODE_R:      ActionReseed,
	sdl.SCANCODE_SPACE:  ActionReseed,
	sdl.SCANCODE_P:      ActionPrevSeed,
	sdl.SCANCODE_S:      ActionScreenshot,
	sdl.SCANCODE_B:      ActionCycleBoundary,
}

// Input collects the actions of one frame.
type Input struct {
	actions []Action
}

// NewInput creates a new input handler.
func NewInput() *Input {
	return &Input{
		actions: make([]Action, 0, 8),
	}
}

// Update polls SDL events and converts them to actions.
func (i *Input) Update() []Action {
	i.actions = i.actions[:0]

	for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
		switch e := event.(type) {
		case *sdl.QuitEvent:
			i.actions = append(i.actions, ActionQuit)

		case *sdl.WindowEvent:
			if e.Event == sdl.WINDOWEVENT_RESIZED || e.Event == sdl.WINDOWEVENT_SIZE_CHANGED {
				i.actions = append(i.actions, ActionResize)
			}

		case *sdl.KeyboardEvent:
			if e.Type != sdl.KEYDOWN || e.Repeat != 0 {
				continue
			}
			if a, ok := keyActions[e.Keysym.Scancode]; ok {
				i.actions = append(i.actions, a)
			}
		}
	}

	return i.actions
}
