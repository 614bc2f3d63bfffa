package backend

import (
	"sync"

	"github.com/sirupsen/logrus"
)

// Memory is an in-memory blob store, useful for tests and as the
// reference implementation of the contract: every operation is
// trivially correct, so it doubles as the oracle the other backends are
// checked against.
type Memory struct {
	queue *writeQueue

	mu    sync.RWMutex
	blobs map[string][]byte

	log *logrus.Entry
}

// NewMemory builds an empty in-memory backend with the given store
// concurrency bound (0 selects DefaultConcurrency).
func NewMemory(concurrency int) *Memory {
	return &Memory{
		queue: newWriteQueue(concurrency),
		blobs: make(map[string][]byte),
		log:   logrus.WithField("backend", "memory"),
	}
}

func (m *Memory) Store(name []byte, ciphertext []byte, done DoneFunc) error {
	key := string(name)
	data := append([]byte(nil), ciphertext...)

	m.queue.submit(func() error {
		m.mu.Lock()
		m.blobs[key] = data
		m.mu.Unlock()

		m.log.WithField("blob", key).Debug("stored blob")
		if done != nil {
			done()
		}
		return nil
	})

	return nil
}

func (m *Memory) Retrieve(name []byte) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, ok := m.blobs[string(name)]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), data...), true, nil
}

func (m *Memory) Delete(name []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.blobs, string(name))
	return nil
}

func (m *Memory) List() ([][]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([][]byte, 0, len(m.blobs))
	for k := range m.blobs {
		names = append(names, []byte(k))
	}
	return names, nil
}

func (m *Memory) Flush() error {
	return m.queue.flush()
}

var _ Backend = (*Memory)(nil)
