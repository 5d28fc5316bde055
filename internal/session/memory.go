package session

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/tidwall/shardmap"
)

// MemoryStore keeps sessions in a sharded in-process map. Sessions are lost
// on restart, which logs everyone out.
type MemoryStore struct {
	sessions *shardmap.Map
	now      func() time.Time
}

// NewMemoryStore creates an empty in-process store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: shardmap.New(0), now: time.Now}
}

func (m *MemoryStore) Save(_ context.Context, s *Session) error {
	cp := *s
	m.sessions.Set(s.ID, &cp)
	return nil
}

func (m *MemoryStore) Get(_ context.Context, id string) (*Session, error) {
	v, ok := m.sessions.Get(id)
	if !ok {
		return nil, nil
	}
	s := v.(*Session)
	if s.Expired(m.now()) {
		m.sessions.Delete(id)
		return nil, nil
	}
	cp := *s
	return &cp, nil
}

func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.sessions.Delete(id)
	return nil
}

func (m *MemoryStore) DeleteByAccount(_ context.Context, accountID uuid.UUID) (int, error) {
	return m.deleteWhere(func(s *Session) bool { return s.AccountID == accountID }), nil
}

func (m *MemoryStore) Sweep(_ context.Context) (int, error) {
	now := m.now()
	return m.deleteWhere(func(s *Session) bool { return s.Expired(now) }), nil
}

// Len returns the number of stored sessions, expired ones included.
func (m *MemoryStore) Len() int {
	return m.sessions.Len()
}

// deleteWhere collects matching ids first; shardmap holds shard locks
// during Range.
func (m *MemoryStore) deleteWhere(match func(*Session) bool) int {
	var ids []string
	m.sessions.Range(func(key string, value interface{}) bool {
		if match(value.(*Session)) {
			ids = append(ids, key)
		}
		return true
	})
	n := 0
	for _, id := range ids {
		if _, deleted := m.sessions.Delete(id); deleted {
			n++
		}
	}
	return n
}
