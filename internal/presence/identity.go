package presence

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
)

// Store is the key-value capability identities persist through. Keys are
// room ids. Injected so the engine is testable without touching disk.
type Store interface {
	Get(key string) (string, bool)
	Set(key, value string) error
	Delete(key string) error
}

// LoadOrCreate rehydrates this client's identity for the room, or mints a
// fresh one (random id, name and color from the fixed palettes) and
// persists it for the next join.
func LoadOrCreate(store Store, roomID string) (User, error) {
	if raw, ok := store.Get(roomID); ok {
		var u User
		if err := json.Unmarshal([]byte(raw), &u); err == nil && u.ID != "" {
			return u, nil
		}
		// Corrupt record: fall through and mint a replacement.
	}

	u := User{
		ID:     uuid.NewString(),
		Name:   displayNames[rand.Intn(len(displayNames))],
		Color:  userColors[rand.Intn(len(userColors))],
		Active: true,
	}
	raw, err := json.Marshal(u)
	if err != nil {
		return User{}, fmt.Errorf("encode identity: %w", err)
	}
	if err := store.Set(roomID, string(raw)); err != nil {
		return User{}, fmt.Errorf("persist identity: %w", err)
	}
	return u, nil
}

// Forget discards the persisted identity for the room, so the next join
// starts over with a fresh user.
func Forget(store Store, roomID string) error {
	return store.Delete(roomID)
}

// MemoryStore is the in-memory Store used by tests.
type MemoryStore map[string]string

func (m MemoryStore) Get(key string) (string, bool) { v, ok := m[key]; return v, ok }
func (m MemoryStore) Set(key, value string) error   { m[key] = value; return nil }
func (m MemoryStore) Delete(key string) error       { delete(m, key); return nil }

// FileStore keeps identities in a single JSON file under the user config
// dir, one entry per room.
type FileStore struct {
	path string
	mu   sync.Mutex
}

// NewFileStore opens (or prepares) the identity file. The default location
// is <user config dir>/sketchroom/identities.json.
func NewFileStore(path string) (*FileStore, error) {
	if path == "" {
		dir, err := os.UserConfigDir()
		if err != nil {
			return nil, fmt.Errorf("resolve config dir: %w", err)
		}
		path = filepath.Join(dir, "sketchroom", "identities.json")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create identity dir: %w", err)
	}
	return &FileStore{path: path}, nil
}

func (f *FileStore) Get(key string) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m := f.read()
	v, ok := m[key]
	return v, ok
}

func (f *FileStore) Set(key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	m := f.read()
	m[key] = value
	return f.write(m)
}

func (f *FileStore) Delete(key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	m := f.read()
	delete(m, key)
	return f.write(m)
}

func (f *FileStore) read() map[string]string {
	m := make(map[string]string)
	raw, err := os.ReadFile(f.path)
	if err != nil {
		return m
	}
	_ = json.Unmarshal(raw, &m) // unreadable file behaves like an empty one
	return m
}

func (f *FileStore) write(m map[string]string) error {
	raw, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(f.path, raw, 0o644)
}
