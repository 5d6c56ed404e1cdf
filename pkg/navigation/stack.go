package navigation

import (
	"errors"
	"fmt"
	"maps"

	"github.com/aretw0/pipeforge/pkg/domain"
)

// ErrInvalidDistance is returned when Pop is called with a non-positive distance.
var ErrInvalidDistance = errors.New("pop distance must be positive")

// ErrClosed is returned when operating on a closed stack.
var ErrClosed = errors.New("navigation stack is closed")

// Props are the inputs a frame was opened with.
type Props map[string]any

// String returns the string stored under key, or "".
func (p Props) String(key string) string {
	s, _ := p[key].(string)
	return s
}

// Component identifies what a frame renders and how it is labelled.
type Component interface {
	ID() string
	Label(props Props) string
	Icon(props Props) string
}

// Frame is one entry of the stack.
type Frame struct {
	Component   Component
	Props       Props
	PassThrough map[string]any
}

// Crumb is one breadcrumb entry.
type Crumb struct {
	Label string `json:"label"`
	Icon  string `json:"icon"`
}

// Stack is the ordered history of editing frames. Index 0 is the root.
type Stack struct {
	frames []Frame
}

// New opens a stack on its root frame.
func New(root Frame) *Stack {
	return &Stack{frames: []Frame{root}}
}

// Push appends a frame. A non-nil passThrough is attached to it, replacing
// any payload the frame already carried.
func (s *Stack) Push(frame Frame, passThrough map[string]any) error {
	if len(s.frames) == 0 {
		return ErrClosed
	}
	if passThrough != nil {
		frame.PassThrough = maps.Clone(passThrough)
	}
	s.frames = append(s.frames, frame)
	return nil
}

// Pop removes distance frames from the top. The root frame is never popped:
// asking for more than Depth()-1 frames returns ErrStackUnderflow and leaves
// the stack untouched. Popped frames are discarded.
func (s *Stack) Pop(distance int) error {
	if distance <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidDistance, distance)
	}
	if len(s.frames) == 0 {
		return ErrClosed
	}
	if distance > len(s.frames)-1 {
		return fmt.Errorf("%w: cannot pop %d of %d frames", domain.ErrStackUnderflow, distance, len(s.frames))
	}
	keep := len(s.frames) - distance
	clear(s.frames[keep:])
	s.frames = s.frames[:keep]
	return nil
}

// Current returns the top frame.
func (s *Stack) Current() (Frame, bool) {
	if len(s.frames) == 0 {
		return Frame{}, false
	}
	return s.frames[len(s.frames)-1], true
}

// Depth returns the number of frames, root included.
func (s *Stack) Depth() int {
	return len(s.frames)
}

// Frames returns a copy of the stack from root to current.
func (s *Stack) Frames() []Frame {
	out := make([]Frame, len(s.frames))
	copy(out, s.frames)
	return out
}

// Breadcrumbs projects the stack, root to current, through each frame's own
// label and icon resolvers. Nothing is cached between calls.
func (s *Stack) Breadcrumbs() []Crumb {
	crumbs := make([]Crumb, 0, len(s.frames))
	for _, f := range s.frames {
		crumbs = append(crumbs, Crumb{
			Label: f.Component.Label(f.Props),
			Icon:  f.Component.Icon(f.Props),
		})
	}
	return crumbs
}

// PassThrough returns the value stored under key by the nearest frame,
// searching from the top of the stack down.
func (s *Stack) PassThrough(key string) (any, bool) {
	for i := len(s.frames) - 1; i >= 0; i-- {
		if v, ok := s.frames[i].PassThrough[key]; ok {
			return v, true
		}
	}
	return nil, false
}

// Close empties the stack. The editor is closed afterwards.
func (s *Stack) Close() {
	clear(s.frames)
	s.frames = nil
}

// Open reports whether the stack still has a root frame.
func (s *Stack) Open() bool {
	return len(s.frames) > 0
}
