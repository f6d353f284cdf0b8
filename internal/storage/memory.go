package storage

import (
	"context"
	"sync"
	"time"

	"github.com/claude/liftplan/internal/models"
)

// MemoryStore keeps the document in process memory. The document is held
// in its encoded form so callers never share pointers with the store.
type MemoryStore struct {
	mu     sync.Mutex
	data   []byte
	logs   []ImportLog
	nextID int64
}

// NewMemory creates an empty in-memory store.
func NewMemory() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Load(_ context.Context) (*models.ProfilesData, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data == nil {
		return nil, ErrNoDocument
	}
	return decodeDocument(m.data)
}

func (m *MemoryStore) Save(_ context.Context, doc *models.ProfilesData) error {
	data, err := encodeDocument(doc)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.data = data
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) InsertImportLog(_ context.Context, log ImportLog) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	log.ID = m.nextID
	if log.CreatedAt.IsZero() {
		log.CreatedAt = time.Now().UTC()
	}
	m.logs = append(m.logs, log)
	return log.ID, nil
}

func (m *MemoryStore) QueryImportLogs(_ context.Context, limit int) ([]ImportLog, error) {
	if limit <= 0 {
		limit = defaultImportLogLimit
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []ImportLog
	for i := len(m.logs) - 1; i >= 0 && len(result) < limit; i-- {
		result = append(result, m.logs[i])
	}
	return result, nil
}

func (m *MemoryStore) Close() error { return nil }
