package remote

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/smartcook/syncengine/internal/models"
)

// MemoryStore is an in-memory Store used by tests and offline development.
// SetOnline(false) makes every operation fail with ErrUnavailable,
// simulating a network partition.
type MemoryStore struct {
	mu      sync.Mutex
	online  bool
	byKey   map[models.Kind]map[string]*Document // natural key -> doc
	byID    map[models.Kind]map[string]*Document
	applied int // mutating calls observed, for test assertions
}

// NewMemoryStore returns an online, empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		online: true,
		byKey:  make(map[models.Kind]map[string]*Document),
		byID:   make(map[models.Kind]map[string]*Document),
	}
}

// SetOnline toggles the simulated network partition.
func (s *MemoryStore) SetOnline(online bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.online = online
}

// Applied returns the number of mutating calls the store has served.
func (s *MemoryStore) Applied() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.applied
}

// Len returns the number of documents of the given kind.
func (s *MemoryStore) Len(kind models.Kind) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byKey[kind])
}

func (s *MemoryStore) Ping(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.online {
		return ErrUnavailable
	}
	return nil
}

func (s *MemoryStore) UpsertByNaturalKey(ctx context.Context, kind models.Kind, key, ownerID string, doc []byte) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.online {
		return "", ErrUnavailable
	}
	s.applied++

	if existing, ok := s.byKey[kind][key]; ok {
		existing.Doc = append([]byte(nil), doc...)
		existing.OwnerID = ownerID
		existing.UpdatedAt = time.Now().UTC()
		return existing.ID, nil
	}

	d := &Document{
		ID:         uuid.NewString(),
		Kind:       kind,
		OwnerID:    ownerID,
		NaturalKey: key,
		Doc:        append([]byte(nil), doc...),
		UpdatedAt:  time.Now().UTC(),
	}
	s.kindKeyMap(kind)[key] = d
	s.kindIDMap(kind)[d.ID] = d
	return d.ID, nil
}

func (s *MemoryStore) UpsertByID(ctx context.Context, kind models.Kind, id string, doc []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.online {
		return ErrUnavailable
	}
	s.applied++

	if existing, ok := s.byID[kind][id]; ok {
		existing.Doc = append([]byte(nil), doc...)
		existing.UpdatedAt = time.Now().UTC()
	}
	return nil
}

func (s *MemoryStore) DeleteByID(ctx context.Context, kind models.Kind, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.online {
		return ErrUnavailable
	}
	s.applied++

	if d, ok := s.byID[kind][id]; ok {
		delete(s.byID[kind], id)
		delete(s.byKey[kind], d.NaturalKey)
	}
	return nil
}

func (s *MemoryStore) DeleteByNaturalKey(ctx context.Context, kind models.Kind, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.online {
		return ErrUnavailable
	}
	s.applied++

	if d, ok := s.byKey[kind][key]; ok {
		delete(s.byKey[kind], key)
		delete(s.byID[kind], d.ID)
	}
	return nil
}

func (s *MemoryStore) GetByID(ctx context.Context, kind models.Kind, id string) (*Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.online {
		return nil, ErrUnavailable
	}
	d, ok := s.byID[kind][id]
	if !ok {
		return nil, ErrNotFound
	}
	return copyDoc(d), nil
}

func (s *MemoryStore) GetByNaturalKey(ctx context.Context, kind models.Kind, key string) (*Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.online {
		return nil, ErrUnavailable
	}
	d, ok := s.byKey[kind][key]
	if !ok {
		return nil, ErrNotFound
	}
	return copyDoc(d), nil
}

func (s *MemoryStore) FindMany(ctx context.Context, kind models.Kind, ownerID string, limit int) ([]*Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.online {
		return nil, ErrUnavailable
	}

	var result []*Document
	for _, d := range s.byKey[kind] {
		if ownerID != "" && d.OwnerID != ownerID {
			continue
		}
		result = append(result, copyDoc(d))
		if limit > 0 && len(result) == limit {
			break
		}
	}
	return result, nil
}

func (s *MemoryStore) kindKeyMap(kind models.Kind) map[string]*Document {
	if s.byKey[kind] == nil {
		s.byKey[kind] = make(map[string]*Document)
	}
	return s.byKey[kind]
}

func (s *MemoryStore) kindIDMap(kind models.Kind) map[string]*Document {
	if s.byID[kind] == nil {
		s.byID[kind] = make(map[string]*Document)
	}
	return s.byID[kind]
}

func copyDoc(d *Document) *Document {
	c := *d
	c.Doc = append([]byte(nil), d.Doc...)
	return &c
}
