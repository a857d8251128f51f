package collab

import (
	"errors"
	"fmt"
	"time"

	"github.com/inamate/figcore/internal/document"
	"github.com/inamate/figcore/internal/figure"
	"github.com/inamate/figcore/internal/geom"
)

// ErrRejected is returned for operations the document refused or that
// changed nothing.
var ErrRejected = errors.New("operation rejected")

// DocumentState holds the authoritative document of a room. It is owned by
// the hub goroutine.
type DocumentState struct {
	doc       *document.Document
	serverSeq int64
	unsaved   bool
}

// NewDocumentState creates a new document state from a loaded document
func NewDocumentState(doc *document.Document) *DocumentState {
	return &DocumentState{doc: doc}
}

// Document returns the room's document. Callers on other goroutines must
// not touch it.
func (ds *DocumentState) Document() *document.Document {
	return ds.doc
}

// ApplyOperation applies an operation to the document and returns the server
// sequence and the operation's result.
func (ds *DocumentState) ApplyOperation(op Operation) (int64, string, error) {
	result, err := ds.apply(op)
	if err != nil {
		return 0, "", err
	}
	ds.serverSeq++
	if op.Type != OpHitTest {
		ds.unsaved = true
	}
	return ds.serverSeq, result, nil
}

func (ds *DocumentState) apply(op Operation) (string, error) {
	switch op.Type {
	case OpEditUndo:
		return "", check(ds.doc.Undo())
	case OpEditRedo:
		return "", check(ds.doc.Redo())
	case OpHitTest:
		if n := ds.doc.HitTest(geom.Point{X: op.X, Y: op.Y}); n != nil {
			return n.Key(), nil
		}
		return "", nil
	case OpFigureRename:
		if op.Name == "" {
			return "", fmt.Errorf("%w: empty name", ErrRejected)
		}
		ds.doc.Rename(op.Name)
		return "", nil
	case OpNodeInsert:
		return ds.applyInsert(op)
	case OpNodeZOrder:
		if len(op.Nodes) != 1 {
			return "", fmt.Errorf("%w: zorder takes one node", ErrRejected)
		}
		return "", ds.doc.SetZOrder(op.Nodes[0], op.Position)
	}

	if err := ds.doc.Select(op.Nodes...); err != nil {
		return "", err
	}
	if len(op.Nodes) == 0 {
		return "", fmt.Errorf("%w: no nodes", ErrRejected)
	}

	switch op.Type {
	case OpNodeSet:
		return "", ds.applySet(op)
	case OpNodeMove:
		return "", check(ds.doc.Move(op.DX, op.DY))
	case OpNodeResize:
		h, ok := figure.ParseHandle(op.Handle)
		if !ok {
			return "", fmt.Errorf("%w: unknown handle %q", ErrRejected, op.Handle)
		}
		return "", check(ds.doc.Resize(h, op.DX, op.DY))
	case OpNodeAlign:
		l, ok := figure.ParseLocus(op.Locus)
		if !ok {
			return "", fmt.Errorf("%w: unknown locus %q", ErrRejected, op.Locus)
		}
		return "", check(ds.doc.Align(l))
	case OpNodeRescale:
		return "", check(ds.doc.Rescale(op.Percent))
	case OpNodeRestoreDefaults:
		ps := make([]figure.Property, 0, len(op.Properties))
		for _, name := range op.Properties {
			p, ok := figure.ParseProperty(name)
			if !ok {
				return "", fmt.Errorf("%w: unknown property %q", ErrRejected, name)
			}
			ps = append(ps, p)
		}
		return "", check(ds.doc.RestoreDefaultStyles(op.Descendants, ps...))
	case OpNodeRemove:
		return "", check(ds.doc.DeleteSelection())
	case OpStyleCopy:
		return "", check(ds.doc.CopyStyle())
	case OpStylePaste:
		return "", check(ds.doc.PasteStyle())
	default:
		return "", fmt.Errorf("unknown operation type: %s", op.Type)
	}
}

func (ds *DocumentState) applySet(op Operation) error {
	p, ok := figure.ParseProperty(op.Property)
	if !ok {
		return fmt.Errorf("%w: unknown property %q", ErrRejected, op.Property)
	}
	var v any
	if len(op.Value) > 0 && string(op.Value) != "null" {
		var err error
		if v, err = document.DecodeValue(p, op.Value); err != nil {
			return fmt.Errorf("invalid %s: %w", op.Property, err)
		}
	}
	return check(ds.doc.SetProperty(p, v))
}

func (ds *DocumentState) applyInsert(op Operation) (string, error) {
	if op.Node == nil {
		return "", fmt.Errorf("%w: no node", ErrRejected)
	}
	index := -1
	if op.Index != nil {
		index = *op.Index
	}
	n, err := ds.doc.InsertRecord(op.ParentID, *op.Node, index)
	if n != nil {
		return n.Key(), err
	}
	return "", err
}

func check(ok bool) error {
	if !ok {
		return ErrRejected
	}
	return nil
}

// GetServerTimestamp returns the current server timestamp
func GetServerTimestamp() int64 {
	return time.Now().UnixMilli()
}
