package routing

import "sync/atomic"

// FlagStore holds the current ServiceFlags. Readers never block; a config
// reload replaces the whole value.
type FlagStore struct {
	v atomic.Pointer[ServiceFlags]
}

// NewFlagStore returns a store holding flags.
func NewFlagStore(flags ServiceFlags) *FlagStore {
	s := &FlagStore{}
	s.Store(flags)
	return s
}

// Load returns the current flags.
func (s *FlagStore) Load() ServiceFlags {
	if p := s.v.Load(); p != nil {
		return *p
	}
	return ServiceFlags{}
}

// Store replaces the current flags and reports whether they changed.
func (s *FlagStore) Store(flags ServiceFlags) bool {
	old := s.v.Swap(&flags)
	return old == nil || *old != flags
}
