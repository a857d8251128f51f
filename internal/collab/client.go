package collab

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/coder/websocket"
)

const (
	writeWait    = 10 * time.Second
	pingInterval = 30 * time.Second
	readLimit    = 256 * 1024
	sendBuffer   = 256
)

// Client is one websocket connection editing a figure. Its pumps run on
// their own goroutines and reach the document only through the hub.
//
// A client that falls behind loses dirty notifications first: they collapse
// into a single full-repaint hint. Losing anything else would leave its copy
// of the figure stale, so the connection is closed and the client is
// expected to reconnect and resync.
type Client struct {
	hub     *Hub
	conn    *websocket.Conn
	send    chan []byte
	repaint chan struct{}

	UserID      string
	DisplayName string
	FigureID    string
	ClientID    string
}

func NewClient(hub *Hub, conn *websocket.Conn, userID, displayName, figureID, clientID string) *Client {
	return &Client{
		hub:         hub,
		conn:        conn,
		send:        make(chan []byte, sendBuffer),
		repaint:     make(chan struct{}, 1),
		UserID:      userID,
		DisplayName: displayName,
		FigureID:    figureID,
		ClientID:    clientID,
	}
}

// ReadPump decodes incoming messages and hands them to the hub until the
// connection closes.
func (c *Client) ReadPump(ctx context.Context) {
	defer func() {
		c.hub.leave(c)
		c.conn.Close(websocket.StatusNormalClosure, "")
	}()

	c.conn.SetReadLimit(readLimit)
	log := c.logger()

	for {
		_, data, err := c.conn.Read(ctx)
		if err != nil {
			switch websocket.CloseStatus(err) {
			case websocket.StatusNormalClosure, websocket.StatusGoingAway:
			default:
				if !errors.Is(err, context.Canceled) {
					log.Debug("read failed", "error", err)
				}
			}
			return
		}

		msg, err := c.decode(data)
		if err != nil {
			log.Warn("invalid message", "error", err)
			continue
		}
		c.hub.submit(c, msg)
	}
}

// decode parses a client frame and stamps it with the connection's
// identity; clients cannot speak for other users or figures.
func (c *Client) decode(data []byte) (*Message, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.Type == "" {
		return nil, errors.New("missing message type")
	}
	msg.UserID = c.UserID
	msg.ClientID = c.ClientID
	msg.FigureID = c.FigureID
	return &msg, nil
}

// WritePump writes queued messages, repaint hints and keepalive pings.
func (c *Client) WritePump(ctx context.Context) {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close(websocket.StatusNormalClosure, "")
	}()

	for {
		select {
		case data, ok := <-c.send:
			if !ok {
				return
			}
			if err := c.write(ctx, data); err != nil {
				c.logger().Debug("write failed", "error", err)
				return
			}

		case <-c.repaint:
			data, err := json.Marshal(newMessage(TypeDocDirty, DocDirtyPayload{Full: true}))
			if err != nil {
				return
			}
			if err := c.write(ctx, data); err != nil {
				return
			}

		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, writeWait)
			err := c.conn.Ping(pingCtx)
			cancel()
			if err != nil {
				return
			}

		case <-ctx.Done():
			return
		}
	}
}

func (c *Client) write(ctx context.Context, data []byte) error {
	writeCtx, cancel := context.WithTimeout(ctx, writeWait)
	defer cancel()
	return c.conn.Write(writeCtx, websocket.MessageText, data)
}

// Send queues msg without blocking the hub.
func (c *Client) Send(msg *Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		slog.Error("marshal message", "error", err, "type", msg.Type)
		return
	}

	select {
	case c.send <- data:
		return
	default:
	}

	if msg.Type == TypeDocDirty {
		select {
		case c.repaint <- struct{}{}:
		default:
		}
		return
	}

	c.logger().Warn("client too slow, closing", "type", msg.Type)
	if c.conn != nil {
		c.conn.Close(websocket.StatusTryAgainLater, "fell behind, reconnect to resync")
	}
}

func (c *Client) logger() *slog.Logger {
	return slog.With("user", c.UserID, "client", c.ClientID, "figure", c.FigureID)
}
