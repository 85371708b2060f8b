package eval

import (
	"fmt"

	"six09asm/value"
)

// PositionalStack is the macro-argument frame stack of §4.3, grounded on
// original_source/src/interp.c's interp_push/interp_pop/interp_get.
type PositionalStack struct {
	frames []*value.Value
}

// Push installs a new top frame. Only array or undef values are legal
// frames; anything else is a programming error in the caller.
func (s *PositionalStack) Push(frame *value.Value) error {
	k := value.TypeOf(frame)
	if k != value.KindArray && k != value.KindUndef {
		return fmt.Errorf("internal: pushing non-array onto positional stack")
	}
	s.frames = append(s.frames, frame)
	return nil
}

// Pop removes the top frame.
func (s *PositionalStack) Pop() error {
	if len(s.frames) == 0 {
		return fmt.Errorf("internal: popping off empty positional stack")
	}
	s.frames = s.frames[:len(s.frames)-1]
	return nil
}

// Get returns the 1-based index-th positional argument of the top frame.
func (s *PositionalStack) Get(index int) (*value.Value, error) {
	if len(s.frames) == 0 {
		return nil, fmt.Errorf("no positional variables on stack")
	}
	top := s.frames[len(s.frames)-1]
	nargs := 0
	if top != nil && top.Kind == value.KindArray {
		nargs = len(top.Kids)
	}
	if index < 1 || index > nargs {
		return nil, fmt.Errorf("invalid positional variable: %d", index)
	}
	return top.Kids[index-1], nil
}
