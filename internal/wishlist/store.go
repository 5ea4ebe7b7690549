package wishlist

import (
	"context"
	"sort"
	"sync"

	"github.com/rotisserie/eris"
)

var (
	ErrNotFound = eris.New("wishlist item not found")
	// ErrDuplicate is returned by Insert when the URL or listing id is
	// already stored.
	ErrDuplicate = eris.New("wishlist item already stored")
)

// Store persists wishlist items. Find methods return (nil, nil) when nothing
// matches; Update and Delete return ErrNotFound for unknown ids.
type Store interface {
	Get(ctx context.Context, id int64) (*Item, error)
	FindByURL(ctx context.Context, url string) (*Item, error)
	FindByListingID(ctx context.Context, listingID string) (*Item, error)
	// Insert assigns it.ID. It returns ErrDuplicate when the URL or the
	// listing id is already stored.
	Insert(ctx context.Context, it *Item) error
	Update(ctx context.Context, it Item) error
	// List returns every item ordered by id.
	List(ctx context.Context) ([]Item, error)
	ListByStatus(ctx context.Context, status Status, limit int) ([]Item, error)
	Delete(ctx context.Context, id int64) (Item, error)
	Clear(ctx context.Context) (int, error)
	Count(ctx context.Context) (int, error)
}

// MemoryStore is a Store kept in process memory.
type MemoryStore struct {
	mu     sync.Mutex
	nextID int64
	items  map[int64]Item
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: map[int64]Item{}}
}

func (m *MemoryStore) find(match func(Item) bool) *Item {
	for _, it := range m.sorted() {
		if match(it) {
			c := it
			return &c
		}
	}
	return nil
}

func (m *MemoryStore) sorted() []Item {
	out := make([]Item, 0, len(m.items))
	for _, it := range m.items {
		out = append(out, it)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (m *MemoryStore) Get(_ context.Context, id int64) (*Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	it, ok := m.items[id]
	if !ok {
		return nil, nil
	}
	return &it, nil
}

func (m *MemoryStore) FindByURL(_ context.Context, url string) (*Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.find(func(it Item) bool { return it.SourceURL == url }), nil
}

func (m *MemoryStore) FindByListingID(_ context.Context, listingID string) (*Item, error) {
	if listingID == "" {
		return nil, nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.find(func(it Item) bool { return it.ListingID == listingID }), nil
}

func (m *MemoryStore) Insert(_ context.Context, it *Item) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, stored := range m.items {
		if stored.SourceURL == it.SourceURL || (it.ListingID != "" && stored.ListingID == it.ListingID) {
			return eris.Wrapf(ErrDuplicate, "insert %s", it.SourceURL)
		}
	}
	m.nextID++
	it.ID = m.nextID
	m.items[it.ID] = *it
	return nil
}

func (m *MemoryStore) Update(_ context.Context, it Item) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[it.ID]; !ok {
		return eris.Wrapf(ErrNotFound, "update item %d", it.ID)
	}
	m.items[it.ID] = it
	return nil
}

func (m *MemoryStore) List(_ context.Context) ([]Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sorted(), nil
}

func (m *MemoryStore) ListByStatus(_ context.Context, status Status, limit int) ([]Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Item
	for _, it := range m.sorted() {
		if it.Status != status {
			continue
		}
		out = append(out, it)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (m *MemoryStore) Delete(_ context.Context, id int64) (Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	it, ok := m.items[id]
	if !ok {
		return Item{}, eris.Wrapf(ErrNotFound, "delete item %d", id)
	}
	delete(m.items, id)
	return it, nil
}

func (m *MemoryStore) Clear(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := len(m.items)
	m.items = map[int64]Item{}
	return n, nil
}

func (m *MemoryStore) Count(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items), nil
}
