package collab

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/inamate/figcore/internal/document"
	"github.com/inamate/figcore/internal/style"
)

// DocLoader loads the latest snapshot of a figure.
type DocLoader func(ctx context.Context, figureID string) (*document.Snapshot, error)

// DocSaver persists a snapshot of a figure.
type DocSaver func(ctx context.Context, snap *document.Snapshot) error

type Room struct {
	figureID string
	clients  map[string]*Client // clientID -> client
	presence *PresenceManager
	state    *DocumentState
}

func NewRoom(figureID string, state *DocumentState) *Room {
	return &Room{
		figureID: figureID,
		clients:  make(map[string]*Client),
		presence: NewPresenceManager(),
		state:    state,
	}
}

type inbound struct {
	client *Client
	msg    *Message
}

// HubOptions configures document handling in a Hub.
type HubOptions struct {
	Defaults     style.Defaults
	Document     document.Options
	SaveInterval time.Duration
}

// Hub runs every open figure on one goroutine. Documents are only touched
// from Run, so operations from different clients are applied in arrival
// order and no document needs a lock.
type Hub struct {
	load DocLoader
	save DocSaver
	opts HubOptions

	rooms      map[string]*Room // figureID -> room
	register   chan *Client
	unregister chan *Client
	messages   chan inbound
	stop       chan struct{}
	done       chan struct{}
}

func NewHub(load DocLoader, save DocSaver, opts HubOptions) *Hub {
	if opts.SaveInterval <= 0 {
		opts.SaveInterval = 30 * time.Second
	}
	return &Hub{
		load:       load,
		save:       save,
		opts:       opts,
		rooms:      make(map[string]*Room),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		messages:   make(chan inbound, 256),
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
	}
}

// Run processes registrations, messages and periodic saves until Stop is
// called or ctx ends. Unsaved documents are saved before it returns.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	ticker := time.NewTicker(h.opts.SaveInterval)
	defer ticker.Stop()

	for {
		select {
		case client := <-h.register:
			h.addClient(ctx, client)
		case client := <-h.unregister:
			h.removeClient(ctx, client)
		case in := <-h.messages:
			h.handleMessage(in.client, in.msg)
		case <-ticker.C:
			h.saveAll(ctx)
		case <-h.stop:
			h.saveAll(context.WithoutCancel(ctx))
			return
		case <-ctx.Done():
			h.saveAll(context.WithoutCancel(ctx))
			return
		}
	}
}

// Stop ends Run and waits for the final save.
func (h *Hub) Stop() {
	select {
	case <-h.stop:
	default:
		close(h.stop)
	}
	<-h.done
}

func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
		close(client.send)
	}
}

func (h *Hub) leave(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

func (h *Hub) submit(client *Client, msg *Message) {
	select {
	case h.messages <- inbound{client, msg}:
	case <-h.done:
	}
}

func (h *Hub) openRoom(ctx context.Context, figureID string) (*Room, error) {
	if room, ok := h.rooms[figureID]; ok {
		return room, nil
	}
	snap, err := h.load(ctx, figureID)
	if err != nil {
		return nil, err
	}
	doc, err := document.Open(snap, h.opts.Defaults, h.opts.Document)
	if err != nil {
		return nil, err
	}
	doc.TakeDirty()
	room := NewRoom(figureID, NewDocumentState(doc))
	h.rooms[figureID] = room
	slog.Info("figure opened", "figure", figureID, "nodes", doc.Tree().Len())
	return room, nil
}

func (h *Hub) addClient(ctx context.Context, client *Client) {
	room, err := h.openRoom(ctx, client.FigureID)
	if err != nil {
		slog.Error("open figure", "error", err, "figure", client.FigureID)
		client.Send(errorMessage("figure could not be opened"))
		close(client.send)
		return
	}
	room.clients[client.ClientID] = client

	welcome, _ := json.Marshal(WelcomePayload{ClientID: client.ClientID, UserID: client.UserID})
	client.Send(&Message{Type: TypeWelcome, FigureID: room.figureID, Payload: welcome})

	// Send the current document, then presence, to the new client
	if snap, err := room.state.doc.Snapshot(); err != nil {
		slog.Error("capture figure", "error", err, "figure", room.figureID)
	} else {
		sync, _ := json.Marshal(DocSyncPayload{Document: snap, ServerSeq: room.state.serverSeq})
		client.Send(&Message{Type: TypeDocSync, FigureID: room.figureID, Payload: sync})
	}
	if stateMsg := room.presence.StateMessage(); stateMsg != nil {
		client.Send(stateMsg)
	}

	// Broadcast join to other clients
	joinPayload, _ := json.Marshal(PresenceJoinPayload{
		UserID:      client.UserID,
		DisplayName: client.DisplayName,
	})
	joinMsg := &Message{
		Type:    TypePresenceJoin,
		UserID:  client.UserID,
		Payload: joinPayload,
	}
	h.broadcastToRoom(room, joinMsg, client.ClientID)

	slog.Info("client joined", "user", client.UserID, "figure", client.FigureID)
}

func (h *Hub) removeClient(ctx context.Context, client *Client) {
	room, ok := h.rooms[client.FigureID]
	if !ok {
		return
	}
	if _, ok := room.clients[client.ClientID]; !ok {
		return
	}

	delete(room.clients, client.ClientID)
	close(client.send)
	room.presence.Remove(client.UserID)

	if len(room.clients) == 0 {
		h.saveRoom(ctx, room)
		delete(h.rooms, client.FigureID)
		slog.Info("figure closed", "figure", client.FigureID)
		return
	}

	// Broadcast leave to remaining clients
	leavePayload, _ := json.Marshal(PresenceLeavePayload{
		UserID: client.UserID,
	})
	leaveMsg := &Message{
		Type:    TypePresenceLeave,
		UserID:  client.UserID,
		Payload: leavePayload,
	}
	h.broadcastToRoom(room, leaveMsg, "")

	slog.Info("client left", "user", client.UserID, "figure", client.FigureID)
}

func (h *Hub) handleMessage(sender *Client, msg *Message) {
	room, ok := h.rooms[sender.FigureID]
	if !ok || room.clients[sender.ClientID] != sender {
		// Queued before the sender left; its send channel is closed.
		slog.Debug("message from departed client dropped", "type", msg.Type, "user", sender.UserID)
		return
	}
	switch msg.Type {
	case TypePresenceUpdate:
		h.handlePresenceUpdate(room, sender, msg)
	case TypeOpSubmit:
		h.handleOperation(room, sender, msg)
	default:
		slog.Warn("unknown message type", "type", msg.Type, "user", sender.UserID)
	}
}

func (h *Hub) handlePresenceUpdate(room *Room, sender *Client, msg *Message) {
	var presence PresencePayload
	if err := json.Unmarshal(msg.Payload, &presence); err != nil {
		slog.Warn("invalid presence payload", "error", err)
		return
	}

	presence.DisplayName = sender.DisplayName
	room.presence.Update(sender.UserID, &presence)

	// Broadcast to other clients in room
	outPayload, _ := json.Marshal(presence)
	outMsg := &Message{
		Type:    TypePresenceUpdate,
		UserID:  sender.UserID,
		Payload: outPayload,
	}
	h.broadcastToRoom(room, outMsg, sender.ClientID)
}

func (h *Hub) handleOperation(room *Room, sender *Client, msg *Message) {
	var submit OperationSubmitPayload
	if err := json.Unmarshal(msg.Payload, &submit); err != nil {
		slog.Warn("invalid operation payload", "error", err, "user", sender.UserID)
		sender.Send(errorMessage("invalid operation payload"))
		return
	}
	op := submit.Operation

	seq, result, err := room.state.ApplyOperation(op)
	if err != nil {
		reason := err.Error()
		if !errors.Is(err, ErrRejected) {
			slog.Debug("operation failed", "error", err, "op", op.Type, "user", sender.UserID)
		}
		nack, _ := json.Marshal(OperationNackPayload{OperationID: op.ID, Reason: reason})
		sender.Send(&Message{Type: TypeOpNack, Payload: nack})
		return
	}

	ack, _ := json.Marshal(OperationAckPayload{
		OperationID:     op.ID,
		ServerSeq:       seq,
		ServerTimestamp: GetServerTimestamp(),
		Result:          result,
	})
	sender.Send(&Message{Type: TypeOpAck, Seq: seq, Payload: ack})
	if op.Type == OpHitTest {
		return
	}

	broadcast, _ := json.Marshal(OperationBroadcastPayload{Operation: op, UserID: sender.UserID, ServerSeq: seq})
	h.broadcastToRoom(room, &Message{Type: TypeOpBroadcast, UserID: sender.UserID, Seq: seq, Payload: broadcast}, sender.ClientID)

	rects, full := room.state.doc.TakeDirty()
	if full || len(rects) > 0 {
		dirty, _ := json.Marshal(DocDirtyPayload{Full: full, Rects: rects, ServerSeq: seq})
		h.broadcastToRoom(room, &Message{Type: TypeDocDirty, Seq: seq, Payload: dirty}, "")
	}
}

func (h *Hub) saveAll(ctx context.Context) {
	for _, room := range h.rooms {
		h.saveRoom(ctx, room)
	}
}

func (h *Hub) saveRoom(ctx context.Context, room *Room) {
	if !room.state.unsaved {
		return
	}
	snap, err := room.state.doc.Snapshot()
	if err != nil {
		slog.Error("capture figure", "error", err, "figure", room.figureID)
		return
	}
	if err := h.save(ctx, snap); err != nil {
		slog.Error("save figure", "error", err, "figure", room.figureID)
		return
	}
	room.state.unsaved = false
	slog.Debug("figure saved", "figure", room.figureID, "seq", room.state.serverSeq)
}

func (h *Hub) broadcastToRoom(room *Room, msg *Message, excludeClientID string) {
	for _, c := range room.clients {
		if c.ClientID != excludeClientID {
			c.Send(msg)
		}
	}
}

func errorMessage(text string) *Message {
	return newMessage(TypeError, ErrorPayload{Message: text})
}
