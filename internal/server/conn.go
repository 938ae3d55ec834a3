package server

import (
	"bufio"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/XR-stb/GMatch/pkg/logger"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Outbound buffer per connection; notifications beyond this are dropped
	sendBufferSize = 256

	// Longest accepted request line
	maxLineSize = 64 * 1024
)

// tcpConn is one accepted TCP session. A read loop consumes
// newline-delimited JSON requests; a write pump drains the send channel so
// pushes never block the engine.
type tcpConn struct {
	id   string
	conn net.Conn
	send chan []byte

	closeOnce sync.Once
	closed    chan struct{}
}

func newTCPConn(conn net.Conn) *tcpConn {
	return &tcpConn{
		id:     uuid.NewString(),
		conn:   conn,
		send:   make(chan []byte, sendBufferSize),
		closed: make(chan struct{}),
	}
}

func (c *tcpConn) ID() string {
	return c.id
}

// Send queues a payload for delivery. Returns false if the buffer is full
// or the connection is closed.
func (c *tcpConn) Send(payload []byte) bool {
	select {
	case <-c.closed:
		return false
	default:
	}
	select {
	case c.send <- payload:
		return true
	default:
		return false
	}
}

// Close tears the connection down. Safe to call from any goroutine, any
// number of times.
func (c *tcpConn) Close() {
	c.closeOnce.Do(func() {
		close(c.closed)
		_ = c.conn.Close()
	})
}

// readLoop delivers each request line to handle until the peer disconnects.
func (c *tcpConn) readLoop(handle func(line []byte)) {
	defer c.Close()

	scanner := bufio.NewScanner(c.conn)
	scanner.Buffer(make([]byte, 4096), maxLineSize)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		// Scanner reuses its buffer across Scan calls.
		req := make([]byte, len(line))
		copy(req, line)
		handle(req)
	}

	if err := scanner.Err(); err != nil {
		logger.Debug("Connection read error", "conn_id", c.id, "error", err)
	}
}

// writePump sends queued payloads, one line each, until Close.
func (c *tcpConn) writePump() {
	defer c.Close()

	for {
		select {
		case payload := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			// One payload may fan out to several connections; never
			// append into its backing array.
			line := make([]byte, 0, len(payload)+1)
			line = append(line, payload...)
			line = append(line, '\n')
			if _, err := c.conn.Write(line); err != nil {
				logger.Debug("Connection write error", "conn_id", c.id, "error", err)
				return
			}
		case <-c.closed:
			return
		}
	}
}
