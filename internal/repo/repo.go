// Package repo owns the canonical in-memory item collection. Every
// successful mutation writes the whole collection back through the storage
// port; nothing else persists items.
package repo

import (
	"encoding/json"
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"

	"taskdeck/internal/storage"
	"taskdeck/internal/task"
)

// DefaultKey is the storage entry the item list is serialized under.
const DefaultKey = "taskdeck:items"

// ErrNotFound marks a mutation against an unknown item id.
var ErrNotFound = errors.New("item not found")

type Repository struct {
	store  storage.Store
	key    string
	logger *log.Logger
	items  map[string]*task.Item
}

// New hydrates the collection from the store once. Absent or non-list
// content yields an empty collection; individual malformed records are
// skipped with a warning rather than failing the load.
func New(store storage.Store, key string, logger *log.Logger) *Repository {
	r := &Repository{
		store:  store,
		key:    key,
		logger: logger,
		items:  make(map[string]*task.Item),
	}
	r.hydrate()
	return r
}

func (r *Repository) hydrate() {
	raw, ok := r.store.Load(r.key)
	if !ok || raw == "" {
		return
	}
	var records []json.RawMessage
	if err := json.Unmarshal([]byte(raw), &records); err != nil {
		r.logger.WithError(err).Warn("stored item list unreadable, starting empty")
		return
	}
	for _, entry := range records {
		var rec task.Record
		if err := json.Unmarshal(entry, &rec); err != nil {
			r.logger.WithError(err).Warn("skipping malformed item record")
			continue
		}
		it, err := task.FromRecord(rec)
		if err != nil {
			r.logger.WithError(err).WithField("id", rec.ID).Warn("skipping invalid item record")
			continue
		}
		r.items[it.ID] = it
	}
}

// persist serializes the entire collection and saves it. Storage faults are
// swallowed by the port, so this never fails the in-memory operation.
func (r *Repository) persist() {
	records := make([]task.Record, 0, len(r.items))
	for _, it := range r.items {
		records = append(records, it.Record())
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		r.logger.WithError(err).Error("item list marshal failed, not persisted")
		return
	}
	r.store.Save(r.key, string(data))
}

func (r *Repository) Add(it *task.Item) {
	r.items[it.ID] = it
	r.persist()
}

func (r *Repository) GetByID(id string) (*task.Item, bool) {
	it, ok := r.items[id]
	return it, ok
}

// GetAll returns a snapshot slice; callers may reorder it freely. Iteration
// order is indeterminate.
func (r *Repository) GetAll() []*task.Item {
	out := make([]*task.Item, 0, len(r.items))
	for _, it := range r.items {
		out = append(out, it)
	}
	return out
}

// Update applies mutate to the item with the given id. A failed mutator
// propagates its error and nothing is persisted; persistence happens only
// after the mutator returns cleanly.
func (r *Repository) Update(id string, mutate func(*task.Item) error) (*task.Item, error) {
	it, ok := r.items[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err := mutate(it); err != nil {
		return nil, err
	}
	r.persist()
	return it, nil
}

func (r *Repository) Remove(id string) bool {
	if _, ok := r.items[id]; !ok {
		return false
	}
	delete(r.items, id)
	r.persist()
	return true
}

// RemoveWhere deletes every matching item and persists once, or not at all
// when nothing matched.
func (r *Repository) RemoveWhere(match func(*task.Item) bool) int {
	removed := 0
	for id, it := range r.items {
		if match(it) {
			delete(r.items, id)
			removed++
		}
	}
	if removed > 0 {
		r.persist()
	}
	return removed
}

func (r *Repository) Count() int {
	return len(r.items)
}

func (r *Repository) CountWhere(match func(*task.Item) bool) int {
	n := 0
	for _, it := range r.items {
		if match(it) {
			n++
		}
	}
	return n
}
