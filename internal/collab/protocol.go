package collab

import (
	"encoding/json"

	"github.com/inamate/figcore/internal/document"
	"github.com/inamate/figcore/internal/geom"
)

type Message struct {
	Type     string          `json:"type"`
	FigureID string          `json:"figureId,omitempty"`
	ClientID string          `json:"clientId,omitempty"`
	UserID   string          `json:"userId,omitempty"`
	Seq      int64           `json:"seq,omitempty"`
	Payload  json.RawMessage `json:"payload"`
}

// newMessage wraps payload, which must marshal, in a message of type t.
func newMessage(t string, payload any) *Message {
	raw, _ := json.Marshal(payload)
	return &Message{Type: t, Payload: raw}
}

type PresencePayload struct {
	Cursor      *CursorPos `json:"cursor,omitempty"`
	Selection   []string   `json:"selection,omitempty"`
	DisplayName string     `json:"displayName,omitempty"`
}

type CursorPos struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type PresenceStatePayload struct {
	Presences map[string]*PresencePayload `json:"presences"`
}

type PresenceJoinPayload struct {
	UserID      string `json:"userId"`
	DisplayName string `json:"displayName"`
}

type PresenceLeavePayload struct {
	UserID string `json:"userId"`
}

const (
	TypePresenceUpdate = "presence.update"
	TypePresenceState  = "presence.state"
	TypePresenceJoin   = "presence.join"
	TypePresenceLeave  = "presence.leave"
	TypeError          = "error"

	// Connection
	TypeWelcome = "welcome"

	// Document sync
	TypeDocSync  = "doc.sync"
	TypeDocDirty = "doc.dirty"

	// Operation message types
	TypeOpSubmit    = "op.submit"
	TypeOpAck       = "op.ack"
	TypeOpNack      = "op.nack"
	TypeOpBroadcast = "op.broadcast"
)

// Operation types
const (
	OpNodeSet             = "node.set"
	OpNodeMove            = "node.move"
	OpNodeResize          = "node.resize"
	OpNodeAlign           = "node.align"
	OpNodeRescale         = "node.rescale"
	OpNodeRestoreDefaults = "node.restoreDefaults"
	OpNodeInsert          = "node.insert"
	OpNodeRemove          = "node.remove"
	OpNodeZOrder          = "node.zorder"
	OpStyleCopy           = "style.copy"
	OpStylePaste          = "style.paste"
	OpEditUndo            = "edit.undo"
	OpEditRedo            = "edit.redo"
	OpHitTest             = "hit.test"
	OpFigureRename        = "figure.rename"
)

// --- Operation Types ---

// Operation is an editing gesture submitted by a client. Nodes lists the
// keys the gesture applies to; it becomes the document selection before the
// operation runs.
type Operation struct {
	ID        string   `json:"id"`
	Type      string   `json:"type"`
	Timestamp int64    `json:"timestamp"`
	ClientSeq int64    `json:"clientSeq"`
	Nodes     []string `json:"nodes,omitempty"`

	// For node.set; a null value restores the inherited value
	Property string          `json:"property,omitempty"`
	Value    json.RawMessage `json:"value,omitempty"`

	// For node.move / node.resize
	DX     float64 `json:"dx,omitempty"`
	DY     float64 `json:"dy,omitempty"`
	Handle string  `json:"handle,omitempty"`

	// For node.align
	Locus string `json:"locus,omitempty"`

	// For node.rescale
	Percent float64 `json:"percent,omitempty"`

	// For node.restoreDefaults
	Properties  []string `json:"properties,omitempty"`
	Descendants bool     `json:"descendants,omitempty"`

	// For node.insert
	ParentID string               `json:"parentId,omitempty"`
	Index    *int                 `json:"index,omitempty"`
	Node     *document.NodeRecord `json:"node,omitempty"`

	// For node.zorder
	Position int `json:"position,omitempty"`

	// For hit.test
	X float64 `json:"x,omitempty"`
	Y float64 `json:"y,omitempty"`

	// For figure.rename
	Name string `json:"name,omitempty"`
}

// OperationSubmitPayload is the payload for op.submit messages
type OperationSubmitPayload struct {
	Operation Operation `json:"operation"`
}

// OperationAckPayload is the payload for op.ack messages. Result carries
// the answer of query operations (hit.test) and the key of inserted nodes.
type OperationAckPayload struct {
	OperationID     string `json:"operationId"`
	ServerSeq       int64  `json:"serverSeq"`
	ServerTimestamp int64  `json:"serverTimestamp"`
	Result          string `json:"result,omitempty"`
}

// OperationNackPayload is the payload for op.nack messages
type OperationNackPayload struct {
	OperationID string `json:"operationId"`
	Reason      string `json:"reason"`
}

// OperationBroadcastPayload is the payload for op.broadcast messages
type OperationBroadcastPayload struct {
	Operation Operation `json:"operation"`
	UserID    string    `json:"userId"`
	ServerSeq int64     `json:"serverSeq"`
}

// DocSyncPayload is sent to a joining client.
type DocSyncPayload struct {
	Document  *document.Snapshot `json:"document"`
	ServerSeq int64              `json:"serverSeq"`
}

// DocDirtyPayload tells clients which page regions an operation repainted.
type DocDirtyPayload struct {
	Full      bool        `json:"full"`
	Rects     []geom.Rect `json:"rects,omitempty"`
	ServerSeq int64       `json:"serverSeq"`
}

type WelcomePayload struct {
	ClientID string `json:"clientId"`
	UserID   string `json:"userId"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}
