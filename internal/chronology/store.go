package chronology

import "wallet-chronicle/internal/domain"

// Store is the ordered collection of chronology parts for one wallet.
// Merging replaces a part in place rather than deleting and reinserting,
// so an external reader never observes a moment with a missing part.
type Store struct {
	parts []domain.ChronologyPart
}

// NewStore creates a store seeded with previously persisted parts.
func NewStore(parts []domain.ChronologyPart) *Store {
	owned := make([]domain.ChronologyPart, len(parts))
	copy(owned, parts)
	return &Store{parts: owned}
}

// Len returns the number of parts.
func (s *Store) Len() int {
	return len(s.parts)
}

// At returns the part at index i.
func (s *Store) At(i int) domain.ChronologyPart {
	return s.parts[i]
}

// Parts returns a copy of all parts in order.
func (s *Store) Parts() []domain.ChronologyPart {
	out := make([]domain.ChronologyPart, len(s.parts))
	copy(out, s.parts)
	return out
}

// Append adds a new part at the end.
func (s *Store) Append(part domain.ChronologyPart) {
	s.parts = append(s.parts, part)
}

// ReplaceAt swaps the part at index i for a merged replacement.
func (s *Store) ReplaceAt(i int, part domain.ChronologyPart) {
	s.parts[i] = part
}

// RemoveAt deletes the part at index i, shifting later parts down.
func (s *Store) RemoveAt(i int) {
	s.parts = append(s.parts[:i], s.parts[i+1:]...)
}
