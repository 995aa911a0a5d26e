// Package metadata implements the scoped metadata stack that asset
// registration reads from.
//
// Every generation unit owns one Stack. Scopes push named frames of
// key/value pairs; the effective metadata of a registered asset is the
// deep merge of all frames from bottom to top.
package metadata

import (
	"fmt"

	oerrors "github.com/pharaoh-reports/pharaoh/internal/errors"
	"github.com/pharaoh-reports/pharaoh/internal/mergedeep"
)

// Frame is one scope on a Stack.
type Frame struct {
	stack *Stack
	name  string
	data  map[string]any
}

// Name returns the frame name, empty for unnamed frames.
func (f *Frame) Name() string {
	return f.name
}

// Get returns a top-level value of the frame.
func (f *Frame) Get(key string) (any, bool) {
	v, ok := f.data[key]
	return v, ok
}

// Set stores a top-level value in the frame.
func (f *Frame) Set(key string, value any) {
	f.data[key] = value
}

// Data returns a deep copy of the frame contents.
func (f *Frame) Data() map[string]any {
	return mergedeep.DeepCopy(f.data)
}

// Update applies fn to the frame contents in place.
func (f *Frame) Update(fn func(data map[string]any)) {
	fn(f.data)
}

// Close removes this frame from its stack. Frames above it stay in place.
// Closing a frame that is no longer on the stack is a no-op.
func (f *Frame) Close() {
	f.stack.remove(f)
}

// Activate pushes a previously closed frame back onto its stack.
func (f *Frame) Activate() *Frame {
	if !f.stack.contains(f) {
		f.stack.frames = append(f.stack.frames, f)
	}
	return f
}

// Stack is a LIFO of metadata frames. A Stack is not safe for concurrent
// use; give each goroutine its own.
type Stack struct {
	frames []*Frame
}

// New returns an empty Stack.
func New() *Stack {
	return &Stack{}
}

// Push opens a new scope carrying a copy of kv and returns its frame.
func (s *Stack) Push(name string, kv map[string]any) *Frame {
	f := &Frame{stack: s, name: name, data: mergedeep.DeepCopy(kv)}
	s.frames = append(s.frames, f)
	return f
}

// With runs fn inside a new scope. The frame is removed when fn returns,
// also when fn fails or panics.
func (s *Stack) With(name string, kv map[string]any, fn func(*Frame) error) error {
	f := s.Push(name, kv)
	defer f.Close()
	return fn(f)
}

// Current returns the innermost frame.
func (s *Stack) Current() (*Frame, error) {
	if len(s.frames) == 0 {
		return nil, oerrors.Wrap(oerrors.ErrNotFound, "metadata stack is empty")
	}
	return s.frames[len(s.frames)-1], nil
}

// Find returns the innermost frame with the given name.
func (s *Stack) Find(name string) (*Frame, error) {
	for i := len(s.frames) - 1; i >= 0; i-- {
		if s.frames[i].name == name {
			return s.frames[i], nil
		}
	}
	return nil, oerrors.Wrap(oerrors.ErrNotFound, fmt.Sprintf("no metadata frame named %q", name))
}

// At returns the frame at index, counting from the bottom. Negative
// indexes count from the top, -1 being the innermost frame.
func (s *Stack) At(index int) (*Frame, error) {
	if index < 0 {
		index += len(s.frames)
	}
	if index < 0 || index >= len(s.frames) {
		return nil, oerrors.Wrap(oerrors.ErrNotFound, fmt.Sprintf("no metadata frame at index %d", index))
	}
	return s.frames[index], nil
}

// Merge returns the effective metadata: all frames deep-merged from bottom
// to top, inner values overriding outer ones. The result shares no state
// with the frames.
func (s *Stack) Merge() map[string]any {
	out := map[string]any{}
	for _, f := range s.frames {
		out = mergedeep.Merge(out, f.data)
	}
	return out
}

// Len returns the number of frames.
func (s *Stack) Len() int {
	return len(s.frames)
}

// Reset drops all frames.
func (s *Stack) Reset() {
	s.frames = nil
}

func (s *Stack) remove(f *Frame) {
	for i := len(s.frames) - 1; i >= 0; i-- {
		if s.frames[i] == f {
			s.frames = append(s.frames[:i], s.frames[i+1:]...)
			return
		}
	}
}

func (s *Stack) contains(f *Frame) bool {
	for _, cur := range s.frames {
		if cur == f {
			return true
		}
	}
	return false
}
