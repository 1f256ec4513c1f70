package storefakes

import (
	"context"
	"sync"
	"time"

	"github.com/tmcampion/go-content-auth/store"
)

var _ store.Store = (*FakeStore)(nil)

type entry struct {
	value     string
	expiresAt time.Time // zero means no expiry
}

// FakeStore is an in-memory stand-in for the redis-backed store with
// real TTL semantics. NowFunc is injectable so tests can move the clock
// instead of sleeping. Setting Err makes every call fail, which is how
// the fail-closed paths are exercised.
type FakeStore struct {
	kv      map[string]entry
	hashes  map[string]map[string]string
	sets    map[string]map[string]struct{}
	lock    sync.Mutex
	NowFunc func() time.Time
	Err     error
}

func NewFakeStore() *FakeStore {
	return &FakeStore{
		kv:      make(map[string]entry),
		hashes:  make(map[string]map[string]string),
		sets:    make(map[string]map[string]struct{}),
		NowFunc: time.Now,
	}
}

func (f *FakeStore) Get(_ context.Context, key string) (string, bool, error) {
	f.lock.Lock()
	defer f.lock.Unlock()
	if f.Err != nil {
		return "", false, f.Err
	}
	e, ok := f.live(key)
	if !ok {
		return "", false, nil
	}
	return e.value, true, nil
}

func (f *FakeStore) Set(_ context.Context, key, value string, ttl time.Duration) error {
	f.lock.Lock()
	defer f.lock.Unlock()
	if f.Err != nil {
		return f.Err
	}
	f.kv[key] = entry{value: value, expiresAt: f.deadline(ttl)}
	return nil
}

func (f *FakeStore) SetNX(_ context.Context, key, value string, ttl time.Duration) (bool, error) {
	f.lock.Lock()
	defer f.lock.Unlock()
	if f.Err != nil {
		return false, f.Err
	}
	if _, ok := f.live(key); ok {
		return false, nil
	}
	f.kv[key] = entry{value: value, expiresAt: f.deadline(ttl)}
	return true, nil
}

func (f *FakeStore) Delete(_ context.Context, keys ...string) (int64, error) {
	f.lock.Lock()
	defer f.lock.Unlock()
	if f.Err != nil {
		return 0, f.Err
	}
	var n int64
	for _, key := range keys {
		if _, ok := f.live(key); ok {
			n++
		}
		if _, ok := f.hashes[key]; ok {
			n++
		}
		delete(f.kv, key)
		delete(f.hashes, key)
		delete(f.sets, key)
	}
	return n, nil
}

func (f *FakeStore) Exists(_ context.Context, key string) (bool, error) {
	f.lock.Lock()
	defer f.lock.Unlock()
	if f.Err != nil {
		return false, f.Err
	}
	_, ok := f.live(key)
	return ok, nil
}

func (f *FakeStore) Expire(_ context.Context, key string, ttl time.Duration) error {
	f.lock.Lock()
	defer f.lock.Unlock()
	if f.Err != nil {
		return f.Err
	}
	if e, ok := f.live(key); ok {
		e.expiresAt = f.deadline(ttl)
		f.kv[key] = e
	}
	return nil
}

func (f *FakeStore) HGetAll(_ context.Context, key string) (map[string]string, error) {
	f.lock.Lock()
	defer f.lock.Unlock()
	if f.Err != nil {
		return nil, f.Err
	}
	out := make(map[string]string, len(f.hashes[key]))
	for k, v := range f.hashes[key] {
		out[k] = v
	}
	return out, nil
}

func (f *FakeStore) HSet(_ context.Context, key string, fields map[string]string) error {
	f.lock.Lock()
	defer f.lock.Unlock()
	if f.Err != nil {
		return f.Err
	}
	h, ok := f.hashes[key]
	if !ok {
		h = make(map[string]string)
		f.hashes[key] = h
	}
	for k, v := range fields {
		h[k] = v
	}
	return nil
}

func (f *FakeStore) SAdd(_ context.Context, key string, members ...string) (int64, error) {
	f.lock.Lock()
	defer f.lock.Unlock()
	if f.Err != nil {
		return 0, f.Err
	}
	s, ok := f.sets[key]
	if !ok {
		s = make(map[string]struct{})
		f.sets[key] = s
	}
	var added int64
	for _, m := range members {
		if _, exists := s[m]; !exists {
			s[m] = struct{}{}
			added++
		}
	}
	return added, nil
}

func (f *FakeStore) SRem(_ context.Context, key string, members ...string) error {
	f.lock.Lock()
	defer f.lock.Unlock()
	if f.Err != nil {
		return f.Err
	}
	for _, m := range members {
		delete(f.sets[key], m)
	}
	return nil
}

func (f *FakeStore) SIsMember(_ context.Context, key, member string) (bool, error) {
	f.lock.Lock()
	defer f.lock.Unlock()
	if f.Err != nil {
		return false, f.Err
	}
	_, ok := f.sets[key][member]
	return ok, nil
}

func (f *FakeStore) SMembers(_ context.Context, key string) ([]string, error) {
	f.lock.Lock()
	defer f.lock.Unlock()
	if f.Err != nil {
		return nil, f.Err
	}
	members := make([]string, 0, len(f.sets[key]))
	for m := range f.sets[key] {
		members = append(members, m)
	}
	return members, nil
}

// live returns the entry for key if it exists and has not passed its
// expiry, lazily dropping expired entries. Callers hold the lock.
func (f *FakeStore) live(key string) (entry, bool) {
	e, ok := f.kv[key]
	if !ok {
		return entry{}, false
	}
	if !e.expiresAt.IsZero() && !f.NowFunc().Before(e.expiresAt) {
		delete(f.kv, key)
		return entry{}, false
	}
	return e, true
}

func (f *FakeStore) deadline(ttl time.Duration) time.Time {
	if ttl <= 0 {
		return time.Time{}
	}
	return f.NowFunc().Add(ttl)
}
