// Package selection tracks hierarchical multi-select state for bulk file
// operations: per-file membership plus derived tri-state folder indicators.
// The set is the single source of truth; folder states are always computed
// from file membership, never stored.
package selection

import (
	"sync"

	"policylens/pkg/policytypes"
)

// Set is an in-memory set of selected file paths. Paths are
// "folder/filename", or bare file names for the implicit root folder. The
// set must be cleared on every listing reload so it never references paths
// that are no longer rendered.
type Set struct {
	mu    sync.Mutex
	paths map[string]struct{}
}

// NewSet creates an empty selection set.
func NewSet() *Set {
	return &Set{paths: make(map[string]struct{})}
}

// ToggleFile flips one path's membership.
func (s *Set) ToggleFile(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.paths[path]; ok {
		delete(s.paths, path)
		return
	}
	s.paths[path] = struct{}{}
}

// SetFile drives one path to the given state.
func (s *Set) SetFile(path string, selected bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.set(path, selected)
}

// ToggleFolder drives every listed path of a folder to the target state:
// checked adds them all, unchecked removes them all.
func (s *Set) ToggleFolder(pathsInFolder []string, checked bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, path := range pathsInFolder {
		s.set(path, checked)
	}
}

// ToggleAll applies the target state to the full currently-rendered path
// set. Paths hidden by a filter are the caller's concern: only the paths
// passed in are touched.
func (s *Set) ToggleAll(allPaths []string, checked bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, path := range allPaths {
		s.set(path, checked)
	}
}

// Clear empties the set. Called on every full reload of the listing.
func (s *Set) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.paths = make(map[string]struct{})
}

// FolderState derives the tri-state indicator for a folder from current
// membership of the paths listed under it. A folder with no listed paths
// reads as none-selected.
func (s *Set) FolderState(pathsInFolder []string) policytypes.FolderState {
	s.mu.Lock()
	defer s.mu.Unlock()

	selected := 0
	for _, path := range pathsInFolder {
		if _, ok := s.paths[path]; ok {
			selected++
		}
	}
	switch {
	case selected == 0:
		return policytypes.FolderNone
	case selected == len(pathsInFolder):
		return policytypes.FolderAll
	default:
		return policytypes.FolderPartial
	}
}

// Contains reports one path's membership.
func (s *Set) Contains(path string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.paths[path]
	return ok
}

// Selected filters the given listing-ordered paths down to the selected
// ones, preserving listing order.
func (s *Set) Selected(listingOrder []string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]string, 0, len(s.paths))
	for _, path := range listingOrder {
		if _, ok := s.paths[path]; ok {
			out = append(out, path)
		}
	}
	return out
}

// Len returns the number of selected paths.
func (s *Set) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.paths)
}

func (s *Set) set(path string, selected bool) {
	if selected {
		s.paths[path] = struct{}{}
		return
	}
	delete(s.paths, path)
}
