// Package queue buffers outbound runtime frames while the connection is down.
// The buffer is bounded, drops its oldest frame on overflow and, when given a
// state directory, survives restarts as a JSONL file.
package queue

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

const (
	DefaultMaxSize = 500
	fileName       = "outbox.jsonl"
)

type Message struct {
	Seq   int64           `json:"seq"`
	Frame json.RawMessage `json:"frame"`
}

type Queue struct {
	path     string
	maxSize  int
	messages []Message
	seq      int64
	dropped  int
	mu       sync.Mutex
	append   *os.File
}

// NewQueue opens the outbox. An empty stateDir keeps it in memory only.
func NewQueue(stateDir string, maxSize int) (*Queue, error) {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	q := &Queue{maxSize: maxSize}
	if stateDir == "" {
		return q, nil
	}

	if err := os.MkdirAll(stateDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create state directory: %w", err)
	}
	q.path = filepath.Join(stateDir, fileName)

	if err := q.load(); err != nil {
		return nil, err
	}
	if err := q.openAppend(); err != nil {
		return nil, err
	}
	return q, nil
}

func (q *Queue) load() error {
	file, err := os.Open(q.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to open outbox file: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 1024*1024)
	for scanner.Scan() {
		var msg Message
		if err := json.Unmarshal(scanner.Bytes(), &msg); err != nil {
			continue // Skip invalid lines
		}
		q.messages = append(q.messages, msg)
		if msg.Seq > q.seq {
			q.seq = msg.Seq
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	if len(q.messages) > q.maxSize {
		q.messages = q.messages[len(q.messages)-q.maxSize:]
	}
	return nil
}

func (q *Queue) openAppend() error {
	if q.path == "" || q.append != nil {
		return nil
	}
	file, err := os.OpenFile(q.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open outbox file for append: %w", err)
	}
	q.append = file
	return nil
}

func (q *Queue) appendMessage(msg Message) error {
	if q.path == "" {
		return nil
	}
	if err := q.openAppend(); err != nil {
		return err
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	data = append(data, '\n')
	_, err = q.append.Write(data)
	return err
}

// compact rewrites the file so it holds exactly the buffered messages.
func (q *Queue) compact() error {
	if q.path == "" {
		return nil
	}
	tmpPath := q.path + ".tmp"
	file, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("failed to create outbox file: %w", err)
	}
	w := bufio.NewWriter(file)
	for _, msg := range q.messages {
		data, err := json.Marshal(msg)
		if err != nil {
			continue
		}
		w.Write(data)
		w.WriteByte('\n')
	}
	if err := w.Flush(); err != nil {
		file.Close()
		return err
	}
	if err := file.Close(); err != nil {
		return err
	}
	if q.append != nil {
		_ = q.append.Close()
		q.append = nil
	}
	if err := os.Rename(tmpPath, q.path); err != nil {
		return err
	}
	return q.openAppend()
}

// Push buffers a frame. When full, the oldest frame is discarded.
func (q *Queue) Push(frame json.RawMessage) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	needsCompact := false
	if len(q.messages) >= q.maxSize {
		q.messages = q.messages[1:]
		q.dropped++
		needsCompact = true
	}

	q.seq++
	msg := Message{Seq: q.seq, Frame: frame}
	q.messages = append(q.messages, msg)
	if needsCompact {
		return q.compact()
	}
	return q.appendMessage(msg)
}

// Drain removes and returns every buffered frame, oldest first.
func (q *Queue) Drain() ([]Message, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := q.messages
	q.messages = nil
	if len(out) == 0 {
		return nil, nil
	}
	return out, q.compact()
}

// Requeue puts undelivered frames back at the front, keeping the bound.
func (q *Queue) Requeue(msgs []Message) error {
	if len(msgs) == 0 {
		return nil
	}
	q.mu.Lock()
	defer q.mu.Unlock()

	merged := append(append([]Message(nil), msgs...), q.messages...)
	if over := len(merged) - q.maxSize; over > 0 {
		merged = merged[over:]
		q.dropped += over
	}
	q.messages = merged
	return q.compact()
}

func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.messages)
}

// Dropped reports how many frames were discarded on overflow.
func (q *Queue) Dropped() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.dropped
}

func (q *Queue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.append == nil {
		return nil
	}
	err := q.append.Close()
	q.append = nil
	return err
}
