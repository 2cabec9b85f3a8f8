package netsync

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/evan-idocoding/livetune/rt/tuning"
)

// Client is a control channel client. Requests are serialized: one request
// and its reply at a time.
type Client struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

// Dial connects to a control channel, e.g. "ws://127.0.0.1:4451/".
func Dial(ctx context.Context, url string) (*Client, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("netsync: dial %s: %w", url, err)
	}
	return &Client{conn: conn}, nil
}

// ListAll returns the server's full snapshot.
func (c *Client) ListAll(ctx context.Context) (tuning.State, error) {
	reply, err := c.roundTrip(ctx, ListAll{})
	if err != nil {
		return nil, err
	}
	t, ok := reply.(Tuneables)
	if !ok {
		return nil, fmt.Errorf("%w: got %s, want Tuneables", ErrUnexpected, reply.tag())
	}
	return t.State, nil
}

// Delta asks the server to set (category, name) to t's current value and
// waits for the acknowledgement.
//
// An Ok reply does not mean the value was applied: the server acknowledges
// unknown keys and kind mismatches too.
func (c *Client) Delta(ctx context.Context, category, name string, t tuning.Tuneable) error {
	reply, err := c.roundTrip(ctx, Delta{Category: category, Name: name, Value: t})
	if err != nil {
		return err
	}
	ok, isOk := reply.(Ok)
	if !isOk {
		return fmt.Errorf("%w: got %s, want Ok", ErrUnexpected, reply.tag())
	}
	if ok.Category != category || ok.Name != name {
		return fmt.Errorf("%w: Ok for %s/%s, want %s/%s", ErrUnexpected, ok.Category, ok.Name, category, name)
	}
	return nil
}

// Send writes m without waiting for a reply.
func (c *Client) Send(ctx context.Context, m Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.write(ctx, m)
}

// Close sends a normal close frame and releases the connection.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	return c.conn.Close()
}

func (c *Client) roundTrip(ctx context.Context, m Message) (Message, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.write(ctx, m); err != nil {
		return nil, err
	}
	if dl, ok := ctx.Deadline(); ok {
		_ = c.conn.SetReadDeadline(dl)
	} else {
		_ = c.conn.SetReadDeadline(time.Time{})
	}
	for {
		mt, data, err := c.conn.ReadMessage()
		if err != nil {
			return nil, fmt.Errorf("netsync: read: %w", err)
		}
		if mt != websocket.TextMessage {
			continue
		}
		return Decode(data)
	}
}

func (c *Client) write(ctx context.Context, m Message) error {
	b, err := Encode(m)
	if err != nil {
		return err
	}
	if dl, ok := ctx.Deadline(); ok {
		_ = c.conn.SetWriteDeadline(dl)
	} else {
		_ = c.conn.SetWriteDeadline(time.Time{})
	}
	if err := c.conn.WriteMessage(websocket.TextMessage, b); err != nil {
		return fmt.Errorf("netsync: write: %w", err)
	}
	return nil
}
