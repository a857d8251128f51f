package history

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// counterEdit sets *target between old and new.
type counterEdit struct {
	target   *int
	old, new int
	fail     bool
}

func (e *counterEdit) Undo() bool {
	if e.fail {
		return false
	}
	*e.target = e.old
	return true
}

func (e *counterEdit) Redo() bool {
	*e.target = e.new
	return true
}

func (e *counterEdit) Describe() string { return "set " + strconv.Itoa(e.new) }

func TestUndoRedo(t *testing.T) {
	v := 0
	s := NewStack(10)
	v = 1
	require.True(t, s.Post(&counterEdit{target: &v, old: 0, new: 1}))
	v = 2
	require.True(t, s.Post(&counterEdit{target: &v, old: 1, new: 2}))

	assert.Equal(t, "set 2", s.UndoDescription())
	require.True(t, s.Undo())
	assert.Equal(t, 1, v)
	require.True(t, s.Undo())
	assert.Equal(t, 0, v)
	assert.False(t, s.Undo())

	require.True(t, s.Redo())
	assert.Equal(t, 1, v)
	assert.Equal(t, "set 2", s.RedoDescription())

	// posting discards the redo tail
	v = 5
	require.True(t, s.Post(&counterEdit{target: &v, old: 1, new: 5}))
	assert.False(t, s.CanRedo())
	assert.Equal(t, 2, s.Len())
}

func TestBlockDropsPosts(t *testing.T) {
	v := 0
	s := NewStack(10)
	s.Block()
	s.Block()
	assert.False(t, s.Post(&counterEdit{target: &v}))
	s.Unblock()
	assert.True(t, s.Blocked())
	s.Unblock()
	assert.True(t, s.Post(&counterEdit{target: &v}))
	assert.Equal(t, 1, s.Len())
}

func TestDepthBound(t *testing.T) {
	v := 0
	s := NewStack(3)
	for i := 1; i <= 5; i++ {
		s.Post(&counterEdit{target: &v, old: i - 1, new: i})
	}
	assert.Equal(t, 3, s.Len())
	assert.Equal(t, "set 5", s.UndoDescription())
}

func TestFailedUndoTruncates(t *testing.T) {
	v := 0
	s := NewStack(10)
	s.Post(&counterEdit{target: &v, new: 1})
	s.Post(&counterEdit{target: &v, old: 1, new: 2, fail: true})
	assert.False(t, s.Undo())
	assert.Equal(t, 1, s.Len())
	assert.False(t, s.CanRedo())
}

type postingEdit struct {
	s *Stack
}

func (e *postingEdit) Undo() bool       { return e.s.Post(&counterEdit{target: new(int)}) == false }
func (e *postingEdit) Redo() bool       { return true }
func (e *postingEdit) Describe() string { return "posting" }

func TestReplayDoesNotRecord(t *testing.T) {
	s := NewStack(10)
	s.Post(&postingEdit{s: s})
	assert.True(t, s.Undo())
	assert.Equal(t, 1, s.Len())
}

func TestCompound(t *testing.T) {
	a, b := 1, 1
	c := &Compound{Name: "both", Edits: []Edit{
		&counterEdit{target: &a, old: 0, new: 1},
		&counterEdit{target: &b, old: 0, new: 1},
	}}
	assert.True(t, c.Undo())
	assert.Equal(t, 0, a)
	assert.Equal(t, 0, b)
	assert.True(t, c.Redo())
	assert.Equal(t, 1, a+b-1)
	assert.Equal(t, "both", c.Describe())
}

type discardEdit struct {
	name string
	log  *[]string
}

func (e *discardEdit) Undo() bool       { return true }
func (e *discardEdit) Redo() bool       { return true }
func (e *discardEdit) Describe() string { return e.name }
func (e *discardEdit) Discard()         { *e.log = append(*e.log, e.name) }

func TestForgottenEditsAreDiscarded(t *testing.T) {
	var log []string
	edit := func(name string) Edit { return &discardEdit{name: name, log: &log} }

	s := NewStack(2)
	s.Post(edit("a"))
	s.Post(edit("b"))
	s.Post(edit("c"))
	assert.Equal(t, []string{"a"}, log, "evicted by depth")

	require.True(t, s.Undo())
	s.Post(edit("d"))
	assert.Equal(t, []string{"a", "c"}, log, "redo tail")

	s.Block()
	assert.False(t, s.Post(edit("e")))
	s.Unblock()
	assert.Equal(t, []string{"a", "c", "e"}, log, "dropped while blocked")

	s.Post(&Compound{Name: "pair", Edits: []Edit{edit("f"), edit("g")}})
	s.Clear()
	assert.Equal(t, []string{"a", "c", "e", "b", "g", "f", "d"}, log)
}
