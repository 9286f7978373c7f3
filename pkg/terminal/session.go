package terminal

import (
	"errors"

	"github.com/pockees/dnSpy/pkg/cordbg/simdbg"
	"github.com/pockees/dnSpy/pkg/dndbg"
	"github.com/pockees/dnSpy/pkg/metadata"
)

var errNoFrames = errors.New("no frames on the current thread")

// Session holds the inspection state of the REPL: the debuggee, the
// thread under inspection, and the frame selected by frame/up/down.
// Frame wrappers are re-issued after every operation that resumes the
// debuggee, since the old handles go stale.
type Session struct {
	dbg    *simdbg.Debuggee
	store  *metadata.Store
	thread *simdbg.Thread
	frames []*dndbg.Frame
	frame  int
}

func NewSession(dbg *simdbg.Debuggee, store *metadata.Store) (*Session, error) {
	threads := dbg.Threads()
	if len(threads) == 0 {
		return nil, errors.New("debuggee has no threads")
	}
	s := &Session{dbg: dbg, store: store, thread: threads[0]}
	s.Reload()
	return s, nil
}

// Reload re-issues frame wrappers for the current thread and resets
// the selected frame to the top of the stack.
func (s *Session) Reload() {
	s.frames = s.frames[:0]
	for _, raw := range s.thread.Frames() {
		s.frames = append(s.frames, dndbg.NewFrame(raw))
	}
	s.frame = 0
}

func (s *Session) Store() *metadata.Store { return s.store }

func (s *Session) Frames() []*dndbg.Frame { return s.frames }

// FrameIndex returns the index selected by the frame command.
func (s *Session) FrameIndex() int { return s.frame }

func (s *Session) CurrentFrame() (*dndbg.Frame, error) {
	if len(s.frames) == 0 {
		return nil, errNoFrames
	}
	return s.frames[s.frame], nil
}

func (s *Session) SelectFrame(i int) error {
	if i < 0 || i >= len(s.frames) {
		return errors.New("frame index out of range")
	}
	s.frame = i
	return nil
}

// MoveFrame selects the frame delta entries away from the current one.
// Positive delta moves towards the caller.
func (s *Session) MoveFrame(delta int) error {
	return s.SelectFrame(s.frame + delta)
}

// Resume lets the debuggee run. Every handle issued before the resume
// is invalidated, so the session re-issues its frames.
func (s *Session) Resume() {
	s.dbg.Resume()
	s.Reload()
}
