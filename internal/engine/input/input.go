// Package input turns SDL2 events into viewer commands and camera motion.
package input

import (
	"github.com/veandco/go-sdl2/sdl"
)

// Command is a discrete viewer action bound to a key.
type Command int

const (
	CommandNone Command = iota
	CommandQuit
	CommandTogglePerf     // P: engine on/off
	CommandToggleAdaptive // T: adaptive quality
	CommandToggleOctree   // O: leaf wireframes
	CommandToggleVSync    // V
	CommandQualityDown    // -
	CommandQualityUp      // =
	CommandForceOptimize  // F
	CommandSnapshot       // F12
	CommandResetCamera    // R
	CommandSaveConfig     // F5
)

// DefaultBindings maps scancodes to commands.
var DefaultBindings = map[sdl.Scancode]Command{
	sdl.SCANCODE_ESCAPE: CommandQuit,
	sdl.SCANCODE_P:      CommandTogglePerf,
	sdl.SCANCODE_T:      CommandToggleAdaptive,
	sdl.SCANCODE_O:      CommandToggleOctree,
	sdl.SCANCODE_V:      CommandToggleVSync,
	sdl.SCANCODE_MINUS:  CommandQualityDown,
	sdl.SCANCODE_EQUALS: CommandQualityUp,
	sdl.SCANCODE_F:      CommandForceOptimize,
	sdl.SCANCODE_F12:    CommandSnapshot,
	sdl.SCANCODE_R:      CommandResetCamera,
	sdl.SCANCODE_F5:     CommandSaveConfig,
}

// Frame is everything that happened since the previous Update.
type Frame struct {
	Commands []Command
	Resized  bool
	Width    int
	Height   int

	// DragX/DragY accumulate mouse motion while the left button is held.
	DragX, DragY float32
	// Wheel is positive when scrolling away from the user.
	Wheel float32
	// Move is WASD/QE movement: forward, right, up in [-1, 1].
	Move [3]float32
}

// Input handles all input processing.
type Input struct {
	bindings map[sdl.Scancode]Command
	dragging bool
	frame    Frame
}

// New creates an input handler with DefaultBindings.
func New() *Input {
	return &Input{bindings: DefaultBindings}
}

// Update polls SDL events. Returns true if the viewer should quit.
func (i *Input) Update() bool {
	i.frame = Frame{Commands: i.frame.Commands[:0]}
	quit := false

	for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
		switch e := event.(type) {
		case *sdl.QuitEvent:
			quit = true

		case *sdl.WindowEvent:
			if e.Event == sdl.WINDOWEVENT_SIZE_CHANGED {
				i.frame.Resized = true
				i.frame.Width = int(e.Data1)
				i.frame.Height = int(e.Data2)
			}

		case *sdl.KeyboardEvent:
			if e.Type != sdl.KEYDOWN || e.Repeat != 0 {
				continue
			}
			if cmd, ok := i.bindings[e.Keysym.Scancode]; ok {
				if cmd == CommandQuit {
					quit = true
				}
				i.frame.Commands = append(i.frame.Commands, cmd)
			}

		case *sdl.MouseButtonEvent:
			if e.Button == sdl.BUTTON_LEFT {
				i.dragging = e.Type == sdl.MOUSEBUTTONDOWN
			}

		case *sdl.MouseMotionEvent:
			if i.dragging {
				i.frame.DragX += float32(e.XRel)
				i.frame.DragY += float32(e.YRel)
			}

		case *sdl.MouseWheelEvent:
			i.frame.Wheel += float32(e.Y)
		}
	}

	keys := sdl.GetKeyboardState()
	i.frame.Move = [3]float32{
		axis(keys, sdl.SCANCODE_W, sdl.SCANCODE_S),
		axis(keys, sdl.SCANCODE_D, sdl.SCANCODE_A),
		axis(keys, sdl.SCANCODE_E, sdl.SCANCODE_Q),
	}
	return quit
}

// Frame returns the state gathered by the last Update.
func (i *Input) Frame() Frame {
	return i.frame
}

func axis(keys []uint8, pos, neg sdl.Scancode) float32 {
	var v float32
	if keys[pos] != 0 {
		v++
	}
	if keys[neg] != 0 {
		v--
	}
	return v
}
