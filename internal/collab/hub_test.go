package collab

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inamate/figcore/internal/document"
	"github.com/inamate/figcore/internal/style"
)

type memoryStore struct {
	mu    sync.Mutex
	snaps map[string]*document.Snapshot
	saves int
}

func newMemoryStore() *memoryStore {
	doc := document.NewSampleDocument("fig_test", style.Builtin(), document.Options{})
	snap, _ := doc.Snapshot()
	return &memoryStore{snaps: map[string]*document.Snapshot{"fig_test": snap}}
}

func (s *memoryStore) load(_ context.Context, id string) (*document.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap, ok := s.snaps[id]
	if !ok {
		return nil, errors.New("not found")
	}
	return snap, nil
}

func (s *memoryStore) save(_ context.Context, snap *document.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snaps[snap.Figure.ID] = snap
	s.saves++
	return nil
}

func startHub(t *testing.T, store *memoryStore) *Hub {
	t.Helper()
	h := NewHub(store.load, store.save, HubOptions{Defaults: style.Builtin(), SaveInterval: time.Hour})
	go h.Run(context.Background())
	t.Cleanup(h.Stop)
	return h
}

func join(t *testing.T, h *Hub, user, figureID string) *Client {
	t.Helper()
	c := NewClient(h, nil, user, user, figureID, user+"-client")
	h.Register(c)
	return c
}

// recv returns the next message of type typ sent to c, skipping others.
func recv(t *testing.T, c *Client, typ string) *Message {
	t.Helper()
	timeout := time.After(2 * time.Second)
	for {
		select {
		case data, ok := <-c.send:
			require.True(t, ok, "send channel closed waiting for %s", typ)
			var msg Message
			require.NoError(t, json.Unmarshal(data, &msg))
			if msg.Type == typ {
				return &msg
			}
		case <-timeout:
			t.Fatalf("no %s message", typ)
			return nil
		}
	}
}

func submit(h *Hub, c *Client, op Operation) {
	payload, _ := json.Marshal(OperationSubmitPayload{Operation: op})
	h.submit(c, &Message{Type: TypeOpSubmit, Payload: payload})
}

func TestJoinSyncsDocument(t *testing.T) {
	store := newMemoryStore()
	h := startHub(t, store)
	c := join(t, h, "alice", "fig_test")

	recv(t, c, TypeWelcome)
	msg := recv(t, c, TypeDocSync)
	var sync DocSyncPayload
	require.NoError(t, json.Unmarshal(msg.Payload, &sync))
	assert.Equal(t, store.snaps["fig_test"].Nodes, sync.Document.Nodes)
}

func TestJoinUnknownFigure(t *testing.T) {
	h := startHub(t, newMemoryStore())
	c := join(t, h, "alice", "fig_missing")
	recv(t, c, TypeError)
	_, ok := <-c.send
	assert.False(t, ok, "the connection is closed")
}

func TestOperationAckBroadcastAndDirty(t *testing.T) {
	store := newMemoryStore()
	h := startHub(t, store)
	alice := join(t, h, "alice", "fig_test")
	bob := join(t, h, "bob", "fig_test")
	recv(t, alice, TypePresenceJoin)

	snap := store.snaps["fig_test"]
	graph := snap.Nodes[snap.Root].Children[0]
	legend := snap.Nodes[graph].Children[1]

	submit(h, alice, Operation{ID: "op1", Type: OpNodeMove, Nodes: []string{legend}, DX: 12})

	var ack OperationAckPayload
	require.NoError(t, json.Unmarshal(recv(t, alice, TypeOpAck).Payload, &ack))
	assert.Equal(t, "op1", ack.OperationID)
	assert.Equal(t, int64(1), ack.ServerSeq)

	var bc OperationBroadcastPayload
	require.NoError(t, json.Unmarshal(recv(t, bob, TypeOpBroadcast).Payload, &bc))
	assert.Equal(t, "alice", bc.UserID)
	assert.Equal(t, OpNodeMove, bc.Operation.Type)

	var dirty DocDirtyPayload
	require.NoError(t, json.Unmarshal(recv(t, bob, TypeDocDirty).Payload, &dirty))
	assert.False(t, dirty.Full)
	assert.NotEmpty(t, dirty.Rects)
	recv(t, alice, TypeDocDirty)
}

func TestOperationNack(t *testing.T) {
	h := startHub(t, newMemoryStore())
	c := join(t, h, "alice", "fig_test")

	submit(h, c, Operation{ID: "bad", Type: OpNodeMove, Nodes: []string{"ghost"}, DX: 1})
	var nack OperationNackPayload
	require.NoError(t, json.Unmarshal(recv(t, c, TypeOpNack).Payload, &nack))
	assert.Equal(t, "bad", nack.OperationID)
	assert.Contains(t, nack.Reason, "unknown node")

	submit(h, c, Operation{ID: "undo", Type: OpEditUndo})
	require.NoError(t, json.Unmarshal(recv(t, c, TypeOpNack).Payload, &nack))
	assert.Equal(t, "undo", nack.OperationID, "nothing to undo")
}

func TestHitTestOperation(t *testing.T) {
	store := newMemoryStore()
	h := startHub(t, store)
	c := join(t, h, "alice", "fig_test")

	submit(h, c, Operation{ID: "hit", Type: OpHitTest, X: 5, Y: 5})
	var ack OperationAckPayload
	require.NoError(t, json.Unmarshal(recv(t, c, TypeOpAck).Payload, &ack))
	assert.Equal(t, store.snaps["fig_test"].Root, ack.Result)
}

func TestInsertThenSaveOnStop(t *testing.T) {
	store := newMemoryStore()
	h := NewHub(store.load, store.save, HubOptions{Defaults: style.Builtin(), SaveInterval: time.Hour})
	go h.Run(context.Background())
	c := join(t, h, "alice", "fig_test")

	root := store.snaps["fig_test"].Root
	submit(h, c, Operation{ID: "ins", Type: OpNodeInsert, ParentID: root, Node: &document.NodeRecord{
		Kind: "label",
		Props: map[string]json.RawMessage{
			"title": json.RawMessage(`"Panel A"`),
			"x":     json.RawMessage(`"36pt"`),
			"y":     json.RawMessage(`"36pt"`),
		},
	}})
	var ack OperationAckPayload
	require.NoError(t, json.Unmarshal(recv(t, c, TypeOpAck).Payload, &ack))
	require.NotEmpty(t, ack.Result)

	h.Stop()
	store.mu.Lock()
	defer store.mu.Unlock()
	assert.Equal(t, 1, store.saves)
	saved := store.snaps["fig_test"]
	assert.Contains(t, saved.Nodes[saved.Root].Children, ack.Result)
	assert.JSONEq(t, `"Panel A"`, string(saved.Nodes[ack.Result].Props["title"]))
}

func TestPresenceRelayed(t *testing.T) {
	h := startHub(t, newMemoryStore())
	alice := join(t, h, "alice", "fig_test")
	bob := join(t, h, "bob", "fig_test")

	payload, _ := json.Marshal(PresencePayload{Cursor: &CursorPos{X: 1, Y: 2}})
	h.submit(alice, &Message{Type: TypePresenceUpdate, Payload: payload})

	msg := recv(t, bob, TypePresenceUpdate)
	var p PresencePayload
	require.NoError(t, json.Unmarshal(msg.Payload, &p))
	assert.Equal(t, "alice", p.DisplayName)
	assert.Equal(t, &CursorPos{X: 1, Y: 2}, p.Cursor)
}

func TestMessageAfterLeaveIsDropped(t *testing.T) {
	store := newMemoryStore()
	h := NewHub(store.load, store.save, HubOptions{Defaults: style.Builtin()})
	ctx := context.Background()
	alice := NewClient(h, nil, "alice", "alice", "fig_test", "alice-client")
	bob := NewClient(h, nil, "bob", "bob", "fig_test", "bob-client")
	h.addClient(ctx, alice)
	h.addClient(ctx, bob)
	h.removeClient(ctx, alice)

	snap := store.snaps["fig_test"]
	graph := snap.Nodes[snap.Root].Children[0]
	legend := snap.Nodes[graph].Children[1]
	payload, _ := json.Marshal(OperationSubmitPayload{Operation: Operation{
		ID: "late", Type: OpNodeMove, Nodes: []string{legend}, DX: 12,
	}})

	assert.NotPanics(t, func() {
		h.handleMessage(alice, &Message{Type: TypeOpSubmit, Payload: payload})
	})
	room := h.rooms["fig_test"]
	require.NotNil(t, room)
	assert.Equal(t, int64(0), room.state.serverSeq, "the late op is not applied")
	assert.False(t, room.state.unsaved)
}
