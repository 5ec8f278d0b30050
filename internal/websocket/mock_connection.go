package websocket

import (
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

var errMockClosed = errors.New("connection closed")

// MockConnection is an in-memory Connection for tests. ReadMessage blocks
// until a message is injected or the connection is closed.
type MockConnection struct {
	mu       sync.Mutex
	written  []MockMessage
	closed   bool
	incoming chan MockMessage
	closedCh chan struct{}

	// WriteErr, when set, fails every write
	WriteErr error

	RemoteAddress string
	ReadLimit     int64
	PongHandler   func(string) error
}

// MockMessage is one frame written to or read from a MockConnection
type MockMessage struct {
	Type int
	Data []byte
}

// NewMockConnection creates a new mock connection
func NewMockConnection() *MockConnection {
	return &MockConnection{
		incoming:      make(chan MockMessage, 16),
		closedCh:      make(chan struct{}),
		RemoteAddress: "127.0.0.1:50000",
	}
}

func (m *MockConnection) WriteMessage(messageType int, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return errMockClosed
	}
	if m.WriteErr != nil {
		return m.WriteErr
	}
	m.written = append(m.written, MockMessage{Type: messageType, Data: append([]byte(nil), data...)})
	return nil
}

func (m *MockConnection) ReadMessage() (int, []byte, error) {
	select {
	case msg := <-m.incoming:
		return msg.Type, msg.Data, nil
	case <-m.closedCh:
		return 0, nil, &websocket.CloseError{Code: websocket.CloseNormalClosure}
	}
}

// Inject queues a message for ReadMessage
func (m *MockConnection) Inject(data []byte) {
	m.incoming <- MockMessage{Type: websocket.TextMessage, Data: data}
}

func (m *MockConnection) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.closed {
		m.closed = true
		close(m.closedCh)
	}
	return nil
}

// IsClosed reports whether Close has been called
func (m *MockConnection) IsClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// Messages returns the text frames written so far
func (m *MockConnection) Messages() [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out [][]byte
	for _, msg := range m.written {
		if msg.Type == websocket.TextMessage {
			out = append(out, msg.Data)
		}
	}
	return out
}

func (m *MockConnection) SetReadDeadline(time.Time) error  { return nil }
func (m *MockConnection) SetWriteDeadline(time.Time) error { return nil }

func (m *MockConnection) SetReadLimit(limit int64) {
	m.mu.Lock()
	m.ReadLimit = limit
	m.mu.Unlock()
}

// Limit returns the read limit set by the client
func (m *MockConnection) Limit() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ReadLimit
}

func (m *MockConnection) SetPongHandler(h func(string) error) {
	m.mu.Lock()
	m.PongHandler = h
	m.mu.Unlock()
}

func (m *MockConnection) RemoteAddr() string {
	return m.RemoteAddress
}
