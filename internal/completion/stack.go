package completion

// stack is the request-scoped context stack, bottom first.
type stack struct {
	frames []Frame
}

func (s *stack) push(f Frame) {
	s.frames = append(s.frames, f)
}

func (s *stack) pop() (Frame, bool) {
	if len(s.frames) == 0 {
		return nil, false
	}
	f := s.frames[len(s.frames)-1]
	s.frames = s.frames[:len(s.frames)-1]
	return f, true
}

// peek returns the frame n positions below the top; peek(0) is the top.
func (s *stack) peek(n int) (Frame, bool) {
	i := len(s.frames) - 1 - n
	if i < 0 {
		return nil, false
	}
	return s.frames[i], true
}

// replace pops n frames and pushes f in their place.
func (s *stack) replace(n int, f Frame) {
	s.frames = append(s.frames[:len(s.frames)-n], f)
}

func (s *stack) len() int {
	return len(s.frames)
}
