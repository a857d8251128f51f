// Package history keeps the undo/redo record of reversible edits.
package history

import "log/slog"

// DefaultDepth is the number of edits kept when no depth is configured.
const DefaultDepth = 100

// Edit is one reversible change. Undo and Redo report whether the change
// could be replayed; an edit whose target has gone away returns false.
type Edit interface {
	Undo() bool
	Redo() bool
	Describe() string
}

// Discarder is implemented by edits that own state to release once the
// stack has forgotten them, such as a removed subtree kept for undo.
type Discarder interface {
	Discard()
}

func discard(e Edit) {
	if d, ok := e.(Discarder); ok {
		d.Discard()
	}
}

// Stack is the undo manager. Edits at indices [0, idx) have been applied;
// edits at [idx, len) have been undone and can be redone.
type Stack struct {
	edits     []Edit
	idx       int
	depth     int
	blocked   int
	replaying bool
	logger    *slog.Logger
}

// NewStack returns a stack that keeps at most depth edits.
func NewStack(depth int) *Stack {
	if depth <= 0 {
		depth = DefaultDepth
	}
	return &Stack{depth: depth, logger: slog.Default()}
}

// SetLogger replaces the logger used for dropped-edit diagnostics.
func (s *Stack) SetLogger(l *slog.Logger) {
	if l != nil {
		s.logger = l
	}
}

// Post records e as the next edit to undo and discards the redo tail.
// Edits posted while blocked or while an undo/redo is replaying are dropped.
// Every edit the stack lets go of, e included, is discarded.
func (s *Stack) Post(e Edit) bool {
	if e == nil {
		return false
	}
	if s.blocked > 0 || s.replaying {
		s.logger.Debug("edit dropped", "edit", e.Describe(), "blocked", s.blocked, "replaying", s.replaying)
		discard(e)
		return false
	}
	s.truncate(s.idx)
	s.edits = append(s.edits, e)
	if len(s.edits) > s.depth {
		drop := len(s.edits) - s.depth
		for _, old := range s.edits[:drop] {
			discard(old)
		}
		copy(s.edits, s.edits[drop:])
		for i := len(s.edits) - drop; i < len(s.edits); i++ {
			s.edits[i] = nil
		}
		s.edits = s.edits[:s.depth]
	}
	s.idx = len(s.edits)
	return true
}

// Block suppresses posting until a matching Unblock. Calls nest.
func (s *Stack) Block() {
	s.blocked++
}

// Unblock ends one Block.
func (s *Stack) Unblock() {
	if s.blocked > 0 {
		s.blocked--
	}
}

// Blocked reports whether posting is currently suppressed.
func (s *Stack) Blocked() bool {
	return s.blocked > 0 || s.replaying
}

// CanUndo reports whether there is an edit to undo.
func (s *Stack) CanUndo() bool { return s.idx > 0 }

// CanRedo reports whether there is an undone edit to redo.
func (s *Stack) CanRedo() bool { return s.idx < len(s.edits) }

// Len returns the number of recorded edits.
func (s *Stack) Len() int { return len(s.edits) }

// UndoDescription describes the edit Undo would revert, or "".
func (s *Stack) UndoDescription() string {
	if !s.CanUndo() {
		return ""
	}
	return s.edits[s.idx-1].Describe()
}

// RedoDescription describes the edit Redo would reapply, or "".
func (s *Stack) RedoDescription() string {
	if !s.CanRedo() {
		return ""
	}
	return s.edits[s.idx].Describe()
}

// Undo reverts the most recent edit. An edit that fails to replay is removed
// together with the redo tail.
func (s *Stack) Undo() bool {
	if !s.CanUndo() {
		return false
	}
	e := s.edits[s.idx-1]
	s.replaying = true
	ok := e.Undo()
	s.replaying = false
	if !ok {
		s.logger.Warn("undo failed, discarding history tail", "edit", e.Describe())
		s.truncate(s.idx - 1)
		return false
	}
	s.idx--
	return true
}

// Redo reapplies the most recently undone edit.
func (s *Stack) Redo() bool {
	if !s.CanRedo() {
		return false
	}
	e := s.edits[s.idx]
	s.replaying = true
	ok := e.Redo()
	s.replaying = false
	if !ok {
		s.logger.Warn("redo failed, discarding redo tail", "edit", e.Describe())
		s.truncate(s.idx)
		return false
	}
	s.idx++
	return true
}

// Clear forgets every edit.
func (s *Stack) Clear() {
	s.truncate(0)
}

func (s *Stack) truncate(n int) {
	// Newest first, so a discarded edit never sees state a later one
	// still refers to.
	for i := len(s.edits) - 1; i >= n; i-- {
		discard(s.edits[i])
		s.edits[i] = nil
	}
	s.edits = s.edits[:n]
	s.idx = n
}

// Compound groups edits that were produced by one gesture. Undo runs in
// reverse order.
type Compound struct {
	Name  string
	Edits []Edit
}

func (c *Compound) Undo() bool {
	ok := true
	for i := len(c.Edits) - 1; i >= 0; i-- {
		ok = c.Edits[i].Undo() && ok
	}
	return ok
}

func (c *Compound) Redo() bool {
	ok := true
	for _, e := range c.Edits {
		ok = e.Redo() && ok
	}
	return ok
}

func (c *Compound) Describe() string { return c.Name }

func (c *Compound) Discard() {
	for i := len(c.Edits) - 1; i >= 0; i-- {
		discard(c.Edits[i])
	}
}
