package sserver

import (
	"encoding/json"
	"sync"

	"github.com/mongodb/grip"
	"github.com/mongodb/grip/message"
	"github.com/pkg/errors"
	bolt "go.etcd.io/bbolt"
)

// ErrRegionFull is returned by Put and PutNew when the region already
// holds its full capacity of items and the key is not present.
var ErrRegionFull = errors.New("cache region is full")

// RegionCache provides thread-safe, in-memory access to a named,
// capacity-bound cache region. Regions optionally persist their
// contents to an on-disk store whenever an entry is removed.
type RegionCache interface {
	// Name returns the region name.
	Name() string
	// Put stores a (key, value) pair, overwriting any existing value.
	Put(string, interface{}) error
	// PutNew adds a new (key, value) pair, returning false if the key
	// already exists.
	PutNew(string, interface{}) (bool, error)
	// Get returns the value of the given key.
	Get(string) (interface{}, bool)
	// Pop returns the value of the given key and removes it.
	Pop(string) (interface{}, bool)
	// Delete removes the given key from the region.
	Delete(string)
	// Clear removes every key from the region.
	Clear()
	// Count returns the number of items in the region.
	Count() int
	// Keys returns the keys currently held in the region.
	Keys() []string
	// Load restores the region's contents from the backing store.
	Load() error
	// Close releases the backing store, if any.
	Close() error
}

// RegionOptions describes how to construct a cache region.
type RegionOptions struct {
	Name     string
	Capacity int

	// StorePath names an on-disk store for the region's contents. When
	// StoreOnDelete is set the surviving entries are written to the
	// store after every Delete, Pop, or Clear. Values that cannot be
	// serialized are skipped with a logged warning.
	StorePath     string
	StoreOnDelete bool
}

func (opts *RegionOptions) Validate() error {
	catcher := grip.NewBasicCatcher()

	if opts.Name == "" {
		opts.Name = DefaultCacheRegion
	}
	if opts.Capacity == 0 {
		opts.Capacity = DefaultCacheCapacity
	}
	if opts.Capacity < 0 {
		catcher.Add(errors.New("capacity must be positive"))
	}
	if opts.StoreOnDelete && opts.StorePath == "" {
		catcher.Add(errors.New("store-on-delete requires a store path"))
	}

	return catcher.Resolve()
}

type cacheRegion struct {
	mu    sync.RWMutex
	opts  RegionOptions
	items map[string]interface{}
	store *bolt.DB
}

// NewRegion constructs a cache region from the given options, opening
// the backing store when one is configured.
func NewRegion(opts RegionOptions) (RegionCache, error) {
	if err := opts.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid region options")
	}

	r := &cacheRegion{
		opts:  opts,
		items: map[string]interface{}{},
	}

	if opts.StorePath != "" {
		store, err := bolt.Open(opts.StorePath, 0600, nil)
		if err != nil {
			return nil, errors.Wrapf(err, "problem opening cache store '%s'", opts.StorePath)
		}
		r.store = store
	}

	return r, nil
}

func (r *cacheRegion) Name() string { return r.opts.Name }

func (r *cacheRegion) Put(key string, value interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[key]; !ok && len(r.items) >= r.opts.Capacity {
		return errors.Wrapf(ErrRegionFull, "cannot add key '%s' to region '%s'", key, r.opts.Name)
	}

	r.items[key] = value
	return nil
}

func (r *cacheRegion) PutNew(key string, value interface{}) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[key]; ok {
		return false, nil
	}
	if len(r.items) >= r.opts.Capacity {
		return false, errors.Wrapf(ErrRegionFull, "cannot add key '%s' to region '%s'", key, r.opts.Name)
	}

	r.items[key] = value
	return true, nil
}

func (r *cacheRegion) Get(key string) (interface{}, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	value, ok := r.items[key]
	return value, ok
}

func (r *cacheRegion) Pop(key string) (interface{}, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	value, ok := r.items[key]
	if !ok {
		return nil, false
	}

	delete(r.items, key)
	r.persist()
	return value, true
}

func (r *cacheRegion) Delete(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[key]; !ok {
		return
	}

	delete(r.items, key)
	r.persist()
}

func (r *cacheRegion) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.items = map[string]interface{}{}
	r.persist()
}

func (r *cacheRegion) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.items)
}

func (r *cacheRegion) Keys() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	keys := make([]string, 0, len(r.items))
	for key := range r.items {
		keys = append(keys, key)
	}
	return keys
}

func (r *cacheRegion) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.store == nil {
		return nil
	}

	err := r.store.Close()
	r.store = nil
	return errors.Wrapf(err, "problem closing cache store for region '%s'", r.opts.Name)
}

// persist writes the surviving entries to the backing store. Callers
// must hold the write lock.
func (r *cacheRegion) persist() {
	if !r.opts.StoreOnDelete || r.store == nil {
		return
	}

	err := r.store.Update(func(tx *bolt.Tx) error {
		if tx.Bucket([]byte(r.opts.Name)) != nil {
			if err := tx.DeleteBucket([]byte(r.opts.Name)); err != nil {
				return errors.Wrap(err, "problem resetting region bucket")
			}
		}

		bucket, err := tx.CreateBucket([]byte(r.opts.Name))
		if err != nil {
			return errors.Wrap(err, "problem creating region bucket")
		}

		for key, value := range r.items {
			data, err := json.Marshal(value)
			if err != nil {
				grip.Warning(message.Fields{
					"message": "skipping unserializable cache value",
					"region":  r.opts.Name,
					"key":     key,
				})
				continue
			}

			if err := bucket.Put([]byte(key), data); err != nil {
				return errors.Wrapf(err, "problem storing key '%s'", key)
			}
		}

		return nil
	})

	grip.Error(message.WrapError(err, message.Fields{
		"message": "problem persisting cache region",
		"region":  r.opts.Name,
		"path":    r.opts.StorePath,
	}))
}

// Load restores the region's contents from its backing store. Values
// round-trip through JSON, so restored values use JSON's generic types.
// Entries that would exceed the region's capacity are dropped.
func (r *cacheRegion) Load() error {
	if r.store == nil {
		return errors.New("region has no backing store")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	return r.store.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(r.opts.Name))
		if bucket == nil {
			return nil
		}

		return bucket.ForEach(func(key, data []byte) error {
			if len(r.items) >= r.opts.Capacity {
				return nil
			}

			var value interface{}
			if err := json.Unmarshal(data, &value); err != nil {
				return errors.Wrapf(err, "problem decoding stored value for key '%s'", string(key))
			}

			r.items[string(key)] = value
			return nil
		})
	})
}
