package graph

import (
	"slices"

	"github.com/TFMV/graphsketch/models"
)

// ChangeKind names the mutation a Change describes
type ChangeKind int

const (
	NodeAdded ChangeKind = iota
	NodeUpdated
	NodeRemoved
	EdgeAdded
	EdgeUpdated
	EdgeRemoved
)

func (k ChangeKind) String() string {
	switch k {
	case NodeAdded:
		return "node_added"
	case NodeUpdated:
		return "node_updated"
	case NodeRemoved:
		return "node_removed"
	case EdgeAdded:
		return "edge_added"
	case EdgeUpdated:
		return "edge_updated"
	case EdgeRemoved:
		return "edge_removed"
	default:
		return "unknown"
	}
}

// Change is published once per applied mutation. Node is set for node
// changes, Edge for edge changes.
type Change struct {
	Kind ChangeKind
	Node string
	Edge models.EdgeKey
}

// Observer receives changes synchronously, on the goroutine that mutated the
// store. Observers may read the store but must not mutate it.
type Observer func(Change)

// Subscribe registers an observer and returns a function that removes it.
func (s *Store) Subscribe(o Observer) (cancel func()) {
	s.obsMu.Lock()
	id := s.nextObs
	s.nextObs++
	s.observers[id] = o
	s.obsMu.Unlock()

	return func() {
		s.obsMu.Lock()
		delete(s.observers, id)
		s.obsMu.Unlock()
	}
}

// SubscriberCount returns the number of registered observers.
func (s *Store) SubscriberCount() int {
	s.obsMu.Lock()
	defer s.obsMu.Unlock()
	return len(s.observers)
}

func (s *Store) emit(changes ...Change) {
	// Snapshot the observers so one may unsubscribe from inside its callback
	s.obsMu.Lock()
	ids := make([]int, 0, len(s.observers))
	for id := range s.observers {
		ids = append(ids, id)
	}
	obs := make([]Observer, 0, len(ids))
	slices.Sort(ids)
	for _, id := range ids {
		obs = append(obs, s.observers[id])
	}
	s.obsMu.Unlock()

	for _, c := range changes {
		for _, o := range obs {
			o(c)
		}
	}
}
