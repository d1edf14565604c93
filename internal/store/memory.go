package store

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStore is an in-memory implementation of the same contract as
// PostgresStore. It backs unit tests and makes the server runnable without
// a database.
type MemoryStore struct {
	mu       sync.RWMutex
	users    map[string]User
	docs     map[string]Document
	controls map[string]DocControl // key: userID + "\x00" + docID
	now      func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:    make(map[string]User),
		docs:     make(map[string]Document),
		controls: make(map[string]DocControl),
		now:      time.Now,
	}
}

// SetClock overrides the store clock; tests use it to make updated_at
// deterministic.
func (s *MemoryStore) SetClock(now func() time.Time) {
	s.now = now
}

func (s *MemoryStore) Ping(ctx context.Context) error { return nil }

func controlKey(userID, docID string) string {
	return userID + "\x00" + docID
}

func (s *MemoryStore) CreateUser(ctx context.Context, u User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	u.CreatedAt, u.UpdatedAt = now, now
	s.users[u.ID] = u
	return nil
}

func (s *MemoryStore) GetUser(ctx context.Context, id string) (User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return User{}, ErrNotFound
	}
	return u, nil
}

func (s *MemoryStore) GetUserByUsername(ctx context.Context, username string) (User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.Username == username {
			return u, nil
		}
	}
	return User{}, ErrNotFound
}

func (s *MemoryStore) UpdateUser(ctx context.Context, id string, patch UserPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return ErrNotFound
	}
	apply := func(dst *string, v *string) {
		if v != nil {
			*dst = *v
		}
	}
	apply(&u.Nickname, patch.Nickname)
	apply(&u.Avatar, patch.Avatar)
	apply(&u.Email, patch.Email)
	apply(&u.JobTitle, patch.JobTitle)
	apply(&u.OrgName, patch.OrgName)
	apply(&u.OrgID, patch.OrgID)
	apply(&u.Password, patch.Password)
	u.UpdatedAt = s.now()
	s.users[id] = u
	return nil
}

func (s *MemoryStore) ListUsers(ctx context.Context) ([]User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	users := make([]User, 0, len(s.users))
	for _, u := range s.users {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].CreatedAt.Before(users[j].CreatedAt) })
	return users, nil
}

func (s *MemoryStore) CreateDocument(ctx context.Context, d Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	d.CreatedAt, d.UpdatedAt = now, now
	d.CreatedBy, d.Owner = nil, nil
	s.docs[d.ID] = d
	return nil
}

func (s *MemoryStore) GetDocument(ctx context.Context, id string) (Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.docs[id]
	if !ok {
		return Document{}, ErrNotFound
	}
	return s.withJoinedUsers(d), nil
}

func (s *MemoryStore) GetDocumentByName(ctx context.Context, name string) (Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, d := range s.docs {
		if d.Name == name && !d.IsDeleted {
			return s.withJoinedUsers(d), nil
		}
	}
	return Document{}, ErrNotFound
}

func (s *MemoryStore) ListDocuments(ctx context.Context, userID, shareID string) ([]Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var docs []Document
	for _, d := range s.docs {
		if d.IsDeleted {
			continue
		}
		if d.CreatedByID == userID || d.OwnerID == userID ||
			d.CreatedByID == shareID || d.OwnerID == shareID {
			docs = append(docs, s.withJoinedUsers(d))
		}
	}
	sort.Slice(docs, func(i, j int) bool {
		a, b := docs[i], docs[j]
		switch {
		case a.ModifiedAt != nil && b.ModifiedAt != nil && !a.ModifiedAt.Equal(*b.ModifiedAt):
			return a.ModifiedAt.After(*b.ModifiedAt)
		case a.ModifiedAt != nil && b.ModifiedAt == nil:
			return true
		case a.ModifiedAt == nil && b.ModifiedAt != nil:
			return false
		default:
			return a.CreatedAt.After(b.CreatedAt)
		}
	})
	return docs, nil
}

func (s *MemoryStore) UpdateDocument(ctx context.Context, id string, patch DocumentPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.docs[id]
	if !ok {
		return ErrNotFound
	}
	if patch.Name != nil {
		d.Name = *patch.Name
	}
	if patch.Path != nil {
		d.Path = *patch.Path
	}
	if patch.Size != nil {
		d.Size = *patch.Size
	}
	if patch.MimeType != nil {
		d.MimeType = *patch.MimeType
	}
	if patch.Version != nil {
		d.Version = *patch.Version
	}
	if patch.IsDeleted != nil {
		d.IsDeleted = *patch.IsDeleted
	}
	if patch.ModifiedAt != nil {
		t := *patch.ModifiedAt
		d.ModifiedAt = &t
	}
	d.UpdatedAt = s.now()
	s.docs[id] = d
	return nil
}

func (s *MemoryStore) GetControl(ctx context.Context, userID, docID string) (DocControl, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.controls[controlKey(userID, docID)]
	if !ok {
		return DocControl{}, ErrNotFound
	}
	return c, nil
}

func (s *MemoryStore) PutControl(ctx context.Context, c DocControl) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := controlKey(c.UserID, c.DocID)
	now := s.now()
	if prev, ok := s.controls[key]; ok {
		c.ID = prev.ID
		c.CreatedAt = prev.CreatedAt
	} else {
		c.CreatedAt = now
	}
	c.UpdatedAt = now
	s.controls[key] = c
	return nil
}

// withJoinedUsers mirrors the LEFT JOINs the Postgres store performs.
// Callers hold at least a read lock.
func (s *MemoryStore) withJoinedUsers(d Document) Document {
	if u, ok := s.users[d.CreatedByID]; ok && d.CreatedByID != "" {
		copied := u
		d.CreatedBy = &copied
	}
	if u, ok := s.users[d.OwnerID]; ok && d.OwnerID != "" {
		copied := u
		d.Owner = &copied
	}
	return d
}
