// Package ws maintains the websocket connection to the agent runtime.
// Frames are flat JSON objects in both directions.
package ws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/thajpo/ceo-dashboard/internal/metrics"
	"github.com/thajpo/ceo-dashboard/internal/queue"
)

var (
	ErrClosed       = errors.New("websocket client closed")
	ErrNotConnected = errors.New("not connected")
)

const (
	DefaultReconnectDelay = 2 * time.Second
	DefaultWriteTimeout   = 5 * time.Second
)

type MessageHandler func(data []byte)

type Client struct {
	url       string
	token     string
	delay     time.Duration
	writeWait time.Duration
	conn      *websocket.Conn
	mu        sync.Mutex
	onMessage MessageHandler
	onConnect func()
	queue     *queue.Queue
	metrics   *metrics.Metrics
	done      chan struct{}
	closeOnce sync.Once
}

func NewClient(url, token string, reconnectDelay time.Duration) *Client {
	if reconnectDelay <= 0 {
		reconnectDelay = DefaultReconnectDelay
	}
	return &Client{
		url:       url,
		token:     token,
		delay:     reconnectDelay,
		writeWait: DefaultWriteTimeout,
		done:      make(chan struct{}),
	}
}

// SetWriteTimeout bounds how long a single frame write may block.
func (c *Client) SetWriteTimeout(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if d > 0 {
		c.writeWait = d
	}
}

// SetQueue enables buffering of frames sent while disconnected.
func (c *Client) SetQueue(q *queue.Queue) {
	c.queue = q
}

func (c *Client) SetMetrics(m *metrics.Metrics) {
	c.metrics = m
}

func (c *Client) SetMessageHandler(handler MessageHandler) {
	c.onMessage = handler
}

// SetOnConnect registers a callback run after every successful connect,
// once buffered frames have been flushed.
func (c *Client) SetOnConnect(handler func()) {
	c.onConnect = handler
}

// Run connects and reads until ctx is cancelled or Close is called,
// reconnecting after a fixed delay whenever the connection drops.
func (c *Client) Run(ctx context.Context) error {
	go func() {
		select {
		case <-ctx.Done():
			c.dropConn()
		case <-c.done:
		}
	}()

	for {
		if err := c.Connect(ctx); err != nil {
			log.Printf("Failed to connect to runtime: %v", err)
		} else {
			c.reader()
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-c.done:
			return ErrClosed
		case <-time.After(c.delay):
		}
		log.Printf("Reconnecting to runtime at %s", c.url)
	}
}

func (c *Client) Connect(ctx context.Context) error {
	select {
	case <-c.done:
		return ErrClosed
	default:
	}

	headers := http.Header{}
	if c.token != "" {
		headers.Set("Authorization", "Bearer "+c.token)
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.url, headers)
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}

	c.mu.Lock()
	c.conn = conn
	c.flushLocked()
	c.mu.Unlock()

	c.metrics.SetConnected(true)
	log.Printf("Connected to runtime at %s", c.url)

	if c.onConnect != nil {
		c.onConnect()
	}
	return nil
}

func (c *Client) reader() {
	defer func() {
		c.dropConn()
		c.metrics.SetConnected(false)
	}()

	for {
		c.mu.Lock()
		conn := c.conn
		c.mu.Unlock()
		if conn == nil {
			return
		}

		_, message, err := conn.ReadMessage()
		if err != nil {
			select {
			case <-c.done:
			default:
				log.Printf("WebSocket read error: %v", err)
			}
			return
		}
		if c.onMessage != nil {
			c.onMessage(message)
		}
	}
}

// Send writes v as one JSON frame. While disconnected the frame is buffered
// and delivered on the next connect; without a queue ErrNotConnected is
// returned.
func (c *Client) Send(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal frame: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	select {
	case <-c.done:
		return ErrClosed
	default:
	}

	if c.conn != nil {
		err := c.writeLocked(data)
		if err == nil {
			c.metrics.OutboundSent(false, nil)
			return nil
		}
		log.Printf("WebSocket write error, buffering frame: %v", err)
		// the reader sees the closed socket and Run reconnects
		c.conn.Close()
		c.conn = nil
	}

	if c.queue == nil {
		c.metrics.OutboundSent(false, ErrNotConnected)
		return ErrNotConnected
	}
	if err := c.queue.Push(data); err != nil {
		c.metrics.OutboundSent(true, err)
		return fmt.Errorf("failed to buffer frame: %w", err)
	}
	c.metrics.OutboundSent(true, nil)
	return nil
}

func (c *Client) writeLocked(data []byte) error {
	if err := c.conn.SetWriteDeadline(time.Now().Add(c.writeWait)); err != nil {
		return err
	}
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

func (c *Client) flushLocked() {
	if c.queue == nil || c.conn == nil {
		return
	}
	msgs, err := c.queue.Drain()
	if err != nil {
		log.Printf("Failed to drain outbox: %v", err)
	}
	for i, msg := range msgs {
		if err := c.writeLocked(msg.Frame); err != nil {
			log.Printf("Failed to flush outbox (%d frames left): %v", len(msgs)-i, err)
			if err := c.queue.Requeue(msgs[i:]); err != nil {
				log.Printf("Failed to requeue frames: %v", err)
			}
			return
		}
	}
	if len(msgs) > 0 {
		log.Printf("Flushed %d buffered frames", len(msgs))
	}
}

func (c *Client) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn != nil
}

func (c *Client) dropConn() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
}

func (c *Client) Close() {
	c.closeOnce.Do(func() { close(c.done) })
	c.dropConn()
}
