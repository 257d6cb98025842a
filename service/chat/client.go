package chat

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Meizuno/Chat/logger"
)

const writeDeadline = 5 * time.Second

// Client represents one realtime peer connected to the relay.
// Every client owns a buffered outbound queue consumed by a single writer
// goroutine, so broadcasting never blocks on a slow socket.
type Client struct {
	ConnID string          // unique connection ID (snowflake)
	WS     *websocket.Conn // nil in tests that only exercise the queue
	Send   chan []byte     // outbound queue, single writer

	closeOnce sync.Once
	done      chan struct{}
}

// NewClient creates a client around an accepted connection.
func NewClient(connID string, ws *websocket.Conn, sendQueueSize int) *Client {
	if sendQueueSize <= 0 {
		sendQueueSize = 256
	}
	return &Client{
		ConnID: connID,
		WS:     ws,
		Send:   make(chan []byte, sendQueueSize),
		done:   make(chan struct{}),
	}
}

// Enqueue offers a frame to the outbound queue. A full queue drops the frame
// and reports false; the room's broadcast loop must never stall on one peer.
func (c *Client) Enqueue(data []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.Send <- data:
		return true
	default:
		return false
	}
}

// WritePump drains the outbound queue onto the socket. Runs as the client's
// only writer; returns when the client closes or a write fails.
func (c *Client) WritePump() {
	for {
		select {
		case <-c.done:
			return
		case data, ok := <-c.Send:
			if !ok {
				return
			}
			if err := c.writeText(data); err != nil {
				logger.Debugf("[chat] write failed connID=%s err=%v", c.ConnID, err)
				c.Close()
				return
			}
		}
	}
}

func (c *Client) writeText(data []byte) error {
	if c.WS == nil {
		return nil
	}
	if err := c.WS.SetWriteDeadline(time.Now().Add(writeDeadline)); err != nil {
		return err
	}
	return c.WS.WriteMessage(websocket.TextMessage, data)
}

// Close tears the client down once: the writer unblocks and the socket
// closes. Safe to call from any goroutine and multiple times.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
		if c.WS != nil {
			_ = c.WS.Close()
		}
	})
}

// Closed reports whether Close has run.
func (c *Client) Closed() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}
