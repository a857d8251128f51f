// Package document is the containing document of a figure tree: it owns the
// tree, the undo history, the selection and the pending repaint region, and
// runs the multi-node gestures of the editor as single reversible edits.
package document

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/inamate/figcore/internal/figure"
	"github.com/inamate/figcore/internal/geom"
	"github.com/inamate/figcore/internal/history"
	"github.com/inamate/figcore/internal/style"
	"github.com/inamate/figcore/internal/units"
)

var (
	ErrUnknownNode = errors.New("unknown node")
	ErrDetached    = errors.New("node is not in the document")
)

// Options configures a Document. Zero values select the defaults.
type Options struct {
	HistoryDepth  int
	Measurer      figure.Measurer
	ResizeFloor   float64
	FocusMargin   float64
	MaxDirtyRects int
	Logger        *slog.Logger
}

// Change is the notification a Document passes to its listeners.
type Change struct {
	Node        string            `json:"node"`
	Kind        figure.ChangeKind `json:"-"`
	NeedsRender bool              `json:"needsRender"`
	Dirty       []geom.Rect       `json:"dirty,omitempty"`
}

// Listener observes document changes. It runs on the editing goroutine and
// must not mutate the document.
type Listener func(Change)

// Document implements figure.Host for one figure tree. It is not safe for
// concurrent use; all calls come from the single editing goroutine.
type Document struct {
	info FigureInfo
	tree *figure.Tree
	root *figure.Node
	hist *history.Stack
	mc   figure.Measurer
	log  *slog.Logger

	selection  []*figure.Node
	batchMode  bool
	dispatched bool
	clipboard  *figure.StyleSet
	collecting *history.Compound

	dirty     dirtyRegion
	listeners map[int]Listener
	nextID    int
}

var _ figure.Host = (*Document)(nil)

// New creates a document holding an empty figure page of the given size.
func New(info FigureInfo, defaults style.Defaults, width, height units.Measure, opts Options) *Document {
	tree := figure.NewTree(defaults)
	root := tree.NewFigure(width, height)
	return attach(info, tree, root, opts)
}

// Open rebuilds a document from a snapshot.
func Open(snap *Snapshot, defaults style.Defaults, opts Options) (*Document, error) {
	tree, root, err := snap.Build(defaults)
	if err != nil {
		return nil, fmt.Errorf("open figure %s: %w", snap.Figure.ID, err)
	}
	return attach(snap.Figure, tree, root, opts), nil
}

func attach(info FigureInfo, tree *figure.Tree, root *figure.Node, opts Options) *Document {
	if opts.Measurer == nil {
		opts.Measurer = figure.ApproxMeasurer{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.MaxDirtyRects <= 0 {
		opts.MaxDirtyRects = DefaultMaxDirtyRects
	}
	if opts.ResizeFloor > 0 {
		tree.SetResizeFloor(opts.ResizeFloor)
	}
	if opts.FocusMargin > 0 {
		tree.SetFocusMargin(opts.FocusMargin)
	}
	d := &Document{
		info:      info,
		tree:      tree,
		root:      root,
		hist:      history.NewStack(opts.HistoryDepth),
		mc:        opts.Measurer,
		log:       opts.Logger.With("figure", info.ID),
		dirty:     dirtyRegion{max: opts.MaxDirtyRects},
		listeners: make(map[int]Listener),
	}
	d.hist.SetLogger(d.log)
	tree.SetHost(d)
	root.RenderBounds(true)
	d.dirty.MarkAll()
	return d
}

func (d *Document) Info() FigureInfo        { return d.info }
func (d *Document) Tree() *figure.Tree      { return d.tree }
func (d *Document) Root() *figure.Node      { return d.root }
func (d *Document) History() *history.Stack { return d.hist }

// Rename changes the figure name recorded in snapshots.
func (d *Document) Rename(name string) {
	d.info.Name = name
}

// Snapshot captures the current state for persistence.
func (d *Document) Snapshot() (*Snapshot, error) {
	return Capture(d.root, d.info)
}

// Node looks up an attached node by key.
func (d *Document) Node(key string) (*figure.Node, error) {
	n := d.tree.NodeByKey(key)
	if n == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownNode, key)
	}
	if n.Root() != d.root {
		return nil, fmt.Errorf("%w: %s", ErrDetached, key)
	}
	return n, nil
}

// Subscribe registers l and returns the function that removes it.
func (d *Document) Subscribe(l Listener) func() {
	id := d.nextID
	d.nextID++
	d.listeners[id] = l
	return func() { delete(d.listeners, id) }
}

// --- figure.Host ---

func (d *Document) NodeChanged(origin *figure.Node, kind figure.ChangeKind, needsRender bool, dirty []geom.Rect) {
	if needsRender {
		d.dirty.Add(dirty...)
	}
	if kind == figure.ChangeRemoved {
		d.deselectSubtree(origin)
	}
	if len(d.listeners) == 0 {
		return
	}
	ch := Change{Node: origin.Key(), Kind: kind, NeedsRender: needsRender, Dirty: dirty}
	for _, l := range d.listeners {
		l(ch)
	}
}

func (d *Document) BlockEdits()   { d.hist.Block() }
func (d *Document) UnblockEdits() { d.hist.Unblock() }

func (d *Document) PostEdit(e history.Edit) {
	if d.collecting != nil && !d.hist.Blocked() {
		d.collecting.Edits = append(d.collecting.Edits, e)
		return
	}
	d.hist.Post(e)
}

// DispatchBatch fans a property change on a selected node out to the whole
// selection while batch mode is on.
func (d *Document) DispatchBatch(origin *figure.Node, p figure.Property, v any) bool {
	if !d.batchMode || d.dispatched || len(d.selection) < 2 || !d.isSelected(origin) {
		return false
	}
	d.dispatched = true
	defer func() { d.dispatched = false }()
	d.setOnSelection(p, v)
	return true
}

func (d *Document) IDInUse(id string, except *figure.Node) bool {
	if id == "" {
		return false
	}
	found := false
	figure.Walk(d.root, func(n *figure.Node) bool {
		if found {
			return false
		}
		if n != except && n.IDValue() == id {
			found = true
		}
		return !found
	})
	return found
}

func (d *Document) Measurer() figure.Measurer { return d.mc }

// --- history ---

// EnsureUniqueID returns base, or base with the smallest numeric suffix that
// no node carries yet.
func (d *Document) EnsureUniqueID(base string) string {
	if !d.IDInUse(base, nil) {
		return base
	}
	for i := 2; ; i++ {
		id := base + "-" + strconv.Itoa(i)
		if !d.IDInUse(id, nil) {
			return id
		}
	}
}

func (d *Document) Undo() bool {
	if !d.hist.CanUndo() {
		return false
	}
	desc := d.hist.UndoDescription()
	ok := d.hist.Undo()
	d.log.Debug("undo", "edit", desc, "ok", ok)
	return ok
}

func (d *Document) Redo() bool {
	if !d.hist.CanRedo() {
		return false
	}
	desc := d.hist.RedoDescription()
	ok := d.hist.Redo()
	d.log.Debug("redo", "edit", desc, "ok", ok)
	return ok
}

// group runs fn and posts every edit it produces as one compound edit.
func (d *Document) group(name string, fn func() bool) bool {
	if d.collecting != nil {
		return fn()
	}
	c := &history.Compound{Name: name}
	d.collecting = c
	ok := func() bool {
		defer func() { d.collecting = nil }()
		return fn()
	}()
	switch len(c.Edits) {
	case 0:
	case 1:
		d.hist.Post(c.Edits[0])
	default:
		d.hist.Post(c)
	}
	return ok
}

// --- repaint ---

// TakeDirty returns the root-coordinate rectangles to repaint since the last
// call. full reports that the whole page must be repainted instead.
func (d *Document) TakeDirty() (rects []geom.Rect, full bool) {
	return d.dirty.GetAndClear()
}

// HasDirty reports whether a repaint is pending.
func (d *Document) HasDirty() bool {
	return !d.dirty.Empty()
}

// InvalidateAll schedules a full repaint.
func (d *Document) InvalidateAll() {
	d.dirty.MarkAll()
}
