package artifact

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rbright/glimpse/internal/kv"
)

const catalogKey = "file_catalog"

// Entry is one long-term catalog record. Unlike a staged Artifact, the
// payload lives inside the record so it survives staging-dir purges.
type Entry struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	MimeType   string    `json:"mime_type"`
	ByteLength int64     `json:"byte_length"`
	Data       []byte    `json:"data"`
	CreatedAt  time.Time `json:"created_at"`
	ModifiedAt time.Time `json:"modified_at"`
}

// Catalog is the persistent file listing backed by the key-value surface.
// Every mutation is flushed immediately.
type Catalog struct {
	mu      sync.Mutex
	store   *kv.Store
	entries []Entry
}

// NewCatalog loads any persisted entries from the kv surface.
func NewCatalog(store *kv.Store) (*Catalog, error) {
	c := &Catalog{store: store}

	raw, err := store.Get(catalogKey)
	if errors.Is(err, kv.ErrKeyNotFound) {
		return c, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load file catalog: %w", err)
	}
	if err := json.Unmarshal(raw, &c.entries); err != nil {
		return nil, fmt.Errorf("decode file catalog: %w", err)
	}
	return c, nil
}

// Add stores a new entry and returns it with generated identity.
func (c *Catalog) Add(name string, mimeType string, data []byte) (Entry, error) {
	if mimeType == "" {
		mimeType = MimeTypeForName(name)
	}

	now := time.Now()
	entry := Entry{
		ID:         uuid.NewString(),
		Name:       name,
		MimeType:   mimeType,
		ByteLength: int64(len(data)),
		Data:       data,
		CreatedAt:  now,
		ModifiedAt: now,
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = append(c.entries, entry)
	if err := c.flushLocked(); err != nil {
		c.entries = c.entries[:len(c.entries)-1]
		return Entry{}, err
	}
	return entry, nil
}

// Get returns the entry with the given id.
func (c *Catalog) Get(id string) (Entry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, entry := range c.entries {
		if entry.ID == id {
			return entry, nil
		}
	}
	return Entry{}, fmt.Errorf("%w: %s", ErrNotFound, id)
}

// List returns a snapshot of all entries in insertion order.
func (c *Catalog) List() []Entry {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Entry, len(c.entries))
	copy(out, c.entries)
	return out
}

// Remove deletes the entry with the given id. Missing ids succeed silently.
func (c *Catalog) Remove(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, entry := range c.entries {
		if entry.ID == id {
			c.entries = append(c.entries[:i], c.entries[i+1:]...)
			return c.flushLocked()
		}
	}
	return nil
}

func (c *Catalog) flushLocked() error {
	raw, err := json.Marshal(c.entries)
	if err != nil {
		return fmt.Errorf("encode file catalog: %w", err)
	}
	if err := c.store.Set(catalogKey, raw); err != nil {
		return fmt.Errorf("persist file catalog: %w", err)
	}
	return nil
}
