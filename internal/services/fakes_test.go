package services

import (
	"bytes"
	"context"
	"io"
	"sort"
	"sync"

	"github.com/securenotes/apiserver/internal/storage"
	"github.com/securenotes/apiserver/internal/store"
	"github.com/securenotes/apiserver/types"
)

type memNotes struct {
	mu     sync.Mutex
	nextID int64
	notes  map[int64]types.Note
}

func newMemNotes() *memNotes {
	return &memNotes{notes: make(map[int64]types.Note)}
}

func (m *memNotes) ListByOwner(_ context.Context, owner string) ([]types.Note, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]types.Note, 0)
	for _, n := range m.notes {
		if n.OwnerUsername == owner {
			out = append(out, n)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memNotes) Get(_ context.Context, id int64) (types.Note, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.notes[id]
	if !ok {
		return types.Note{}, store.ErrNotFound
	}
	return n, nil
}

func (m *memNotes) ExistsByContentAndOwner(_ context.Context, content, owner string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, n := range m.notes {
		if n.Content == content && n.OwnerUsername == owner {
			return true, nil
		}
	}
	return false, nil
}

func (m *memNotes) Create(_ context.Context, note types.Note) (types.Note, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	note.ID = m.nextID
	m.notes[note.ID] = note
	return note, nil
}

func (m *memNotes) Update(_ context.Context, note types.Note) (types.Note, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.notes[note.ID]
	if !ok || existing.OwnerUsername != note.OwnerUsername {
		return types.Note{}, store.ErrNotFound
	}
	m.notes[note.ID] = note
	return note, nil
}

func (m *memNotes) Delete(_ context.Context, id int64, owner string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.notes[id]
	if !ok || existing.OwnerUsername != owner {
		return store.ErrNotFound
	}
	delete(m.notes, id)
	return nil
}

type memUsers struct {
	mu     sync.Mutex
	nextID int64
	users  map[string]types.User
}

func newMemUsers() *memUsers {
	return &memUsers{users: make(map[string]types.User)}
}

func (m *memUsers) GetByID(_ context.Context, id int64) (types.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.ID == id {
			return u, nil
		}
	}
	return types.User{}, store.ErrNotFound
}

func (m *memUsers) GetByUsername(_ context.Context, username string) (types.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[username]
	if !ok {
		return types.User{}, store.ErrNotFound
	}
	return u, nil
}

func (m *memUsers) List(_ context.Context) ([]types.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]types.User, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memUsers) ExistsByUsername(_ context.Context, username string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.users[username]
	return ok, nil
}

func (m *memUsers) ExistsByEmail(_ context.Context, email string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (m *memUsers) Create(_ context.Context, user types.User) (types.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[user.Username]; ok {
		return types.User{}, store.ErrConflict
	}
	m.nextID++
	user.ID = m.nextID
	m.users[user.Username] = user
	return user, nil
}

type memRoles map[types.AppRole]types.Role

func (m memRoles) GetByName(_ context.Context, name types.AppRole) (types.Role, error) {
	role, ok := m[name]
	if !ok {
		return types.Role{}, store.ErrNotFound
	}
	return role, nil
}

func seededRoles() memRoles {
	return memRoles{
		types.RoleUser:  {ID: 1, Name: types.RoleUser},
		types.RoleAdmin: {ID: 2, Name: types.RoleAdmin},
	}
}

type plainEncoder struct{}

func (plainEncoder) Encode(plain string) (string, error) {
	return "hashed:" + plain, nil
}

type memObjects struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newMemObjects() *memObjects {
	return &memObjects{objects: make(map[string][]byte)}
}

func (m *memObjects) Put(_ context.Context, key string, r io.Reader, _ int64, _ string) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = data
	return nil
}

func (m *memObjects) Get(_ context.Context, key string) (io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[key]
	if !ok {
		return nil, storage.ErrObjectNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *memObjects) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.objects[key]; !ok {
		return storage.ErrObjectNotFound
	}
	delete(m.objects, key)
	return nil
}
