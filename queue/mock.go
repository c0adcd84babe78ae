package queue

import "sync"

// MockService for tests. It keeps messages in memory so a test can receive what was sent.
type MockService struct {
	mu      sync.Mutex
	pending []UpdateMessage
	sent    []UpdateMessage
	deleted int
}

// make sure it satisfies the interface
var _ Service = (*MockService)(nil)

func NewMockService() *MockService {
	return &MockService{}
}

// SendUpdate on mock queue always succeeds
func (q *MockService) SendUpdate(msg UpdateMessage) error {
	log.Infof("Sending update for container %s to mock queue", msg.ContainerName)

	q.mu.Lock()
	defer q.mu.Unlock()

	q.pending = append(q.pending, msg)
	q.sent = append(q.sent, msg)
	return nil
}

// ReceiveUpdate returns the oldest message, or nil if there aren't any
func (q *MockService) ReceiveUpdate() *UpdateMessage {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.pending) == 0 {
		return nil
	}

	msg := q.pending[0]
	q.pending = q.pending[1:]
	log.Infof("Received update for container %s from mock queue.", msg.ContainerName)
	return &msg
}

// DeleteUpdate on mock queue always succeeds
func (q *MockService) DeleteUpdate(msg *UpdateMessage) error {
	log.Infof("Deleted update for container %s from queue.", msg.ContainerName)

	q.mu.Lock()
	defer q.mu.Unlock()

	q.deleted++
	return nil
}

// Sent is every message sent so far
func (q *MockService) Sent() []UpdateMessage {
	q.mu.Lock()
	defer q.mu.Unlock()

	return append([]UpdateMessage(nil), q.sent...)
}

// Deleted is how many messages have been deleted
func (q *MockService) Deleted() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	return q.deleted
}
