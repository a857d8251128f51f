package engine

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/inamate/figcore/internal/document"
	"github.com/inamate/figcore/internal/figure"
	"github.com/inamate/figcore/internal/geom"
	"github.com/inamate/figcore/internal/style"
)

// ErrNoDocument is returned by commands issued before a document is loaded.
var ErrNoDocument = errors.New("no document loaded")

// Engine is the editing session of one figure on the frontend side. It owns
// the document and answers the frontend's commands and queries with JSON.
type Engine struct {
	defaults style.Defaults
	opts     document.Options

	doc *document.Document
}

// NewEngine creates a new engine instance.
func NewEngine(defaults style.Defaults, opts document.Options) *Engine {
	return &Engine{defaults: defaults, opts: opts}
}

// Document returns the loaded document, or nil.
func (e *Engine) Document() *document.Document {
	return e.doc
}

// --- Commands (frontend → backend) ---

// LoadDocument loads a document snapshot from JSON.
func (e *Engine) LoadDocument(jsonData string) error {
	var snap document.Snapshot
	if err := json.Unmarshal([]byte(jsonData), &snap); err != nil {
		return err
	}
	doc, err := document.Open(&snap, e.defaults, e.opts)
	if err != nil {
		return err
	}
	e.doc = doc
	return nil
}

// LoadSampleDocument loads the built-in sample document.
func (e *Engine) LoadSampleDocument(figureID string) {
	e.doc = document.NewSampleDocument(figureID, e.defaults, e.opts)
	e.doc.InvalidateAll()
}

// SetSelection sets the selected node keys.
func (e *Engine) SetSelection(keys []string) error {
	if e.doc == nil {
		return ErrNoDocument
	}
	return e.doc.Select(keys...)
}

// SelectAt selects the node under (x, y) and returns its key, or "".
func (e *Engine) SelectAt(x, y float64) string {
	if e.doc == nil {
		return ""
	}
	if n := e.doc.SelectAt(geom.Point{X: x, Y: y}); n != nil {
		return n.Key()
	}
	return ""
}

// Move drags the selection by (dx, dy) page points.
func (e *Engine) Move(dx, dy float64) bool {
	return e.doc != nil && e.doc.Move(dx, dy)
}

// Resize drags the named handle ("n", "se", ...) of the selection.
func (e *Engine) Resize(handle string, dx, dy float64) error {
	if e.doc == nil {
		return ErrNoDocument
	}
	h, ok := figure.ParseHandle(handle)
	if !ok {
		return fmt.Errorf("unknown handle %q", handle)
	}
	e.doc.Resize(h, dx, dy)
	return nil
}

// Align aligns the selection on the named locus ("left", "vcenter", ...).
func (e *Engine) Align(locus string) error {
	if e.doc == nil {
		return ErrNoDocument
	}
	l, ok := figure.ParseLocus(locus)
	if !ok {
		return fmt.Errorf("unknown locus %q", locus)
	}
	e.doc.Align(l)
	return nil
}

// Rescale scales the selection by pct percent.
func (e *Engine) Rescale(pct float64) bool {
	return e.doc != nil && e.doc.Rescale(pct)
}

// SetProperty assigns a property to the selection. value is the JSON
// snapshot form of the value; null restores the inherited value.
func (e *Engine) SetProperty(name, value string) error {
	if e.doc == nil {
		return ErrNoDocument
	}
	p, ok := figure.ParseProperty(name)
	if !ok {
		return fmt.Errorf("unknown property %q", name)
	}
	var v any
	if value != "null" {
		var err error
		if v, err = document.DecodeValue(p, json.RawMessage(value)); err != nil {
			return fmt.Errorf("decode %s: %w", name, err)
		}
	}
	e.doc.SetProperty(p, v)
	return nil
}

func (e *Engine) CopyStyle() bool  { return e.doc != nil && e.doc.CopyStyle() }
func (e *Engine) PasteStyle() bool { return e.doc != nil && e.doc.PasteStyle() }
func (e *Engine) Undo() bool       { return e.doc != nil && e.doc.Undo() }
func (e *Engine) Redo() bool       { return e.doc != nil && e.doc.Redo() }

// --- Queries (frontend ← backend) ---

// Render compiles the whole page and returns draw commands as JSON.
func (e *Engine) Render() string {
	if e.doc == nil {
		return "[]"
	}
	e.doc.TakeDirty()
	result, _ := DrawCommandsToJSON(CompileDrawCommands(e.doc.Root(), nil))
	return result
}

// RenderUpdate is the incremental form of Render: the pending dirty
// rectangles and the commands of the nodes that meet them.
type RenderUpdate struct {
	Full     bool          `json:"full"`
	Dirty    []geom.Rect   `json:"dirty,omitempty"`
	Commands []DrawCommand `json:"commands"`
}

// RenderDirty returns the repaint needed since the previous render as JSON.
func (e *Engine) RenderDirty() string {
	if e.doc == nil || !e.doc.HasDirty() {
		return `{"full":false,"commands":[]}`
	}
	rects, full := e.doc.TakeDirty()
	upd := RenderUpdate{Full: full, Dirty: rects}
	if full {
		upd.Commands = CompileDrawCommands(e.doc.Root(), nil)
	} else {
		upd.Commands = CompileDrawCommands(e.doc.Root(), rects)
	}
	if upd.Commands == nil {
		upd.Commands = []DrawCommand{}
	}
	data, _ := json.Marshal(upd)
	return string(data)
}

// HitTest performs a hit test at the given page coordinates.
// Returns the key of the smallest node containing the point, or empty string.
func (e *Engine) HitTest(x, y float64) string {
	if e.doc == nil {
		return ""
	}
	if n := e.doc.HitTest(geom.Point{X: x, Y: y}); n != nil {
		return n.Key()
	}
	return ""
}

// GetSelectionBounds returns the bounding box of the current selection as JSON.
func (e *Engine) GetSelectionBounds() string {
	if e.doc == nil {
		return RectToJSON(geom.Rect{})
	}
	return RectToJSON(e.doc.SelectionBounds())
}

// GetDocument returns the document snapshot as JSON (for saving/sync).
func (e *Engine) GetDocument() string {
	if e.doc == nil {
		return "{}"
	}
	snap, err := e.doc.Snapshot()
	if err != nil {
		return "{}"
	}
	data, _ := json.Marshal(snap)
	return string(data)
}

// GetSelection returns the current selection as JSON.
func (e *Engine) GetSelection() string {
	if e.doc == nil {
		return "[]"
	}
	data, _ := json.Marshal(e.doc.SelectionKeys())
	return string(data)
}

// GetHistory returns the undo/redo state as JSON.
func (e *Engine) GetHistory() string {
	if e.doc == nil {
		return "{}"
	}
	h := e.doc.History()
	data, _ := json.Marshal(map[string]interface{}{
		"canUndo": h.CanUndo(),
		"canRedo": h.CanRedo(),
		"undo":    h.UndoDescription(),
		"redo":    h.RedoDescription(),
	})
	return string(data)
}
