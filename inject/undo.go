package inject

import (
	"errors"
	"sync"
)

// ErrNothingToUndo is returned when the undo slot is empty.
var ErrNothingToUndo = errors.New("nothing to undo")

// UndoStore is the single-slot memory of the most recent paste. A new paste
// overwrites the slot unconditionally; a successful undo consumes it.
type UndoStore struct {
	mu  sync.Mutex
	rec *Record
}

// NewUndoStore creates an empty store
func NewUndoStore() *UndoStore {
	return &UndoStore{}
}

// Set overwrites the slot with rec
func (s *UndoStore) Set(rec Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rec = &rec
}

// Take returns and clears the current record
func (s *UndoStore) Take() (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.rec == nil {
		return Record{}, ErrNothingToUndo
	}
	rec := *s.rec
	s.rec = nil
	return rec, nil
}

// Has reports whether an undo is currently available
func (s *UndoStore) Has() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rec != nil
}
