// Package ws provides a WebSocket client for the todoglass gateway.
package ws

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/coder/websocket"

	wsprotocol "github.com/dohr-michael/todoglass/internal/gateway/ws"
)

// Client is a WebSocket client for the todoglass gateway.
type Client struct {
	conn   *websocket.Conn
	reqSeq uint64
	ctx    context.Context
	cancel context.CancelFunc
}

// Dial connects to the gateway WebSocket endpoint. baseURL may be the http
// address of the gateway; the scheme and /api/ws path are filled in.
func Dial(ctx context.Context, baseURL string) (*Client, error) {
	conn, _, err := websocket.Dial(ctx, EndpointURL(baseURL), nil)
	if err != nil {
		return nil, fmt.Errorf("ws dial: %w", err)
	}

	clientCtx, cancel := context.WithCancel(ctx)

	return &Client{
		conn:   conn,
		ctx:    clientCtx,
		cancel: cancel,
	}, nil
}

// EndpointURL maps a gateway base URL to its WebSocket endpoint.
func EndpointURL(baseURL string) string {
	u := strings.TrimRight(baseURL, "/")
	switch {
	case strings.HasPrefix(u, "http://"):
		u = "ws://" + strings.TrimPrefix(u, "http://")
	case strings.HasPrefix(u, "https://"):
		u = "wss://" + strings.TrimPrefix(u, "https://")
	case !strings.HasPrefix(u, "ws://") && !strings.HasPrefix(u, "wss://"):
		u = "ws://" + u
	}
	if !strings.HasSuffix(u, "/api/ws") {
		u += "/api/ws"
	}
	return u
}

// Send writes a request frame and returns its id.
func (c *Client) Send(method wsprotocol.Method, params any) (string, error) {
	seq := atomic.AddUint64(&c.reqSeq, 1)

	frame, err := wsprotocol.NewRequestFrame(fmt.Sprintf("req-%d", seq), method, params)
	if err != nil {
		return "", err
	}

	data, err := wsprotocol.MarshalFrame(frame)
	if err != nil {
		return "", err
	}

	if err := c.conn.Write(c.ctx, websocket.MessageText, data); err != nil {
		return "", err
	}
	return frame.ID, nil
}

// Call sends a request and reads frames until its response arrives. Event
// frames received meanwhile are passed to onEvent when it is non-nil.
func (c *Client) Call(method wsprotocol.Method, params any, onEvent func(wsprotocol.Frame)) (wsprotocol.Frame, error) {
	id, err := c.Send(method, params)
	if err != nil {
		return wsprotocol.Frame{}, err
	}
	for {
		f, err := c.ReadFrame()
		if err != nil {
			return wsprotocol.Frame{}, err
		}
		switch {
		case f.Type == wsprotocol.FrameTypeResponse && f.ID == id:
			return f, nil
		case f.Type == wsprotocol.FrameTypeEvent && onEvent != nil:
			onEvent(f)
		}
	}
}

// ReadFrame reads the next frame from the connection.
func (c *Client) ReadFrame() (wsprotocol.Frame, error) {
	_, data, err := c.conn.Read(c.ctx)
	if err != nil {
		return wsprotocol.Frame{}, err
	}
	return wsprotocol.UnmarshalFrame(data)
}

// Close gracefully closes the connection.
func (c *Client) Close() error {
	c.cancel()
	return c.conn.Close(websocket.StatusNormalClosure, "bye")
}
