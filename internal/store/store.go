// Package store holds the session state. Every change goes through one
// mutex-guarded transition over an immutable Snapshot, so observers never
// see a half-applied update.
package store

import (
	"errors"
	"sync"
	"time"

	"github.com/alexbeattie/cautious-fishstick-only/internal/listing"
	"github.com/alexbeattie/cautious-fishstick-only/internal/mapview"
	"github.com/alexbeattie/cautious-fishstick-only/internal/selection"
)

type FeedState struct {
	Listings  []listing.Listing `json:"listings"`
	Loading   bool              `json:"loading"`
	Started   uint64            `json:"started_seq"`
	Applied   uint64            `json:"applied_seq"`
	Err       error             `json:"-"`
	Error     string            `json:"error,omitempty"`
	Retryable bool              `json:"retryable"`
	UpdatedAt time.Time         `json:"updated_at,omitzero"`
}

// Snapshot is a consistent view of the session. Listings slices are shared
// between snapshots and must not be modified.
type Snapshot struct {
	Version   uint64           `json:"version"`
	Feed      FeedState        `json:"feed"`
	Selection selection.State  `json:"selection"`
	Map       mapview.MapState `json:"map"`
}

type Store struct {
	mu     sync.Mutex
	snap   Snapshot
	index  map[string]int
	subs   map[int]chan Snapshot
	nextID int
	closed bool
	now    func() time.Time
}

func New() *Store {
	return &Store{
		subs:  make(map[int]chan Snapshot),
		index: map[string]int{},
		now:   time.Now,
	}
}

func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap
}

// Update applies fn as one transition and notifies subscribers.
func (s *Store) Update(fn func(Snapshot) Snapshot) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.apply(fn)
}

func (s *Store) apply(fn func(Snapshot) Snapshot) Snapshot {
	next := fn(s.snap)
	next.Version = s.snap.Version + 1
	s.snap = next
	for _, ch := range s.subs {
		select {
		case <-ch:
		default:
		}
		ch <- next
	}
	return next
}

// Subscribe returns a channel that always holds the latest snapshot.
// Intermediate snapshots may be skipped when the reader is slow.
func (s *Store) Subscribe() (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, 1)
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	id := s.nextID
	s.nextID++
	s.subs[id] = ch
	ch <- s.snap
	s.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			if c, ok := s.subs[id]; ok {
				delete(s.subs, id)
				close(c)
			}
		})
	}
}

// Close ends every subscription.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	for id, ch := range s.subs {
		delete(s.subs, id)
		close(ch)
	}
}

func (s *Store) UpdateSelection(fn func(selection.State) selection.State) selection.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.apply(func(sn Snapshot) Snapshot {
		sn.Selection = fn(sn.Selection)
		return sn
	}).Selection
}

func (s *Store) UpdateMap(fn func(mapview.MapState) mapview.MapState) mapview.MapState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.apply(func(sn Snapshot) Snapshot {
		sn.Map = fn(sn.Map)
		return sn
	}).Map
}

// OpenListing selects key, shows its detail and points the map at it in one
// transition. It reports false, changing nothing, when key is not in the
// published feed.
func (s *Store) OpenListing(key string) (selection.State, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.lookup(key)
	if !ok {
		return s.snap.Selection, false
	}
	return s.apply(func(sn Snapshot) Snapshot {
		sn.Selection = sn.Selection.TapRow(key)
		sn.Map = sn.Map.Show(l)
		return sn
	}).Selection, true
}

// CloseListing hides the detail and clears the map in one transition.
func (s *Store) CloseListing() selection.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.apply(func(sn Snapshot) Snapshot {
		sn.Selection = sn.Selection.Dismiss()
		sn.Map = sn.Map.Cleared()
		return sn
	}).Selection
}

// ClearListing drops the selection and clears the map in one transition.
func (s *Store) ClearListing() selection.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.apply(func(sn Snapshot) Snapshot {
		sn.Selection = selection.None()
		sn.Map = sn.Map.Cleared()
		return sn
	}).Selection
}

func (s *Store) MapState() mapview.MapState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap.Map
}

func (s *Store) Listing(key string) (listing.Listing, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lookup(key)
}

func (s *Store) lookup(key string) (listing.Listing, bool) {
	i, ok := s.index[key]
	if !ok {
		return listing.Listing{}, false
	}
	return s.snap.Feed.Listings[i], true
}

// BeginFetch records seq as the latest initiated fetch. Older or repeated
// sequence numbers are ignored.
func (s *Store) BeginFetch(seq uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if seq <= s.snap.Feed.Started {
		return false
	}
	s.apply(func(sn Snapshot) Snapshot {
		sn.Feed.Started = seq
		sn.Feed.Loading = true
		return sn
	})
	return true
}

// PublishListings replaces the feed with ls if seq is the latest initiated
// fetch. Selection and map state are reconciled in the same transition.
func (s *Store) PublishListings(seq uint64, ls []listing.Listing) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if seq != s.snap.Feed.Started {
		return false
	}
	idx := listing.Index(ls)
	find := func(k string) (listing.Listing, bool) {
		i, ok := idx[k]
		if !ok {
			return listing.Listing{}, false
		}
		return ls[i], true
	}
	s.index = idx
	s.apply(func(sn Snapshot) Snapshot {
		sn.Feed = FeedState{
			Listings:  ls,
			Started:   seq,
			Applied:   seq,
			UpdatedAt: s.now(),
		}
		sn.Selection = sn.Selection.Reconcile(func(k string) bool {
			_, ok := idx[k]
			return ok
		})
		sn.Map = sn.Map.Reconcile(find)
		return sn
	})
	return true
}

// FailFetch records a failed fetch if seq is the latest initiated one. The
// published listings stay in place.
func (s *Store) FailFetch(seq uint64, err error) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if seq != s.snap.Feed.Started {
		return false
	}
	s.apply(func(sn Snapshot) Snapshot {
		sn.Feed.Loading = false
		sn.Feed.Err = err
		sn.Feed.Error = err.Error()
		sn.Feed.Retryable = errors.Is(err, listing.ErrNetwork)
		return sn
	})
	return true
}
