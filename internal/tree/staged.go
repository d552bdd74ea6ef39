package tree

import "maps"

type set = map[string]struct{}

// staged is the overlay of a tree on top of its host. files holds every staged entry keyed by
// its current path and hidden masks host files that were deleted or renamed away. The remaining
// maps track what kind of change each path carries relative to the host, which is what Merge
// consults to detect conflicts.
type staged struct {
	files      map[string]*FileEntry
	hidden     set
	creates    set
	overwrites set
	deletes    set
	renames    map[string]string // host path -> current path
	origins    map[string]string // current path -> host path
}

func newStaged() *staged {
	return &staged{
		files:      map[string]*FileEntry{},
		hidden:     set{},
		creates:    set{},
		overwrites: set{},
		deletes:    set{},
		renames:    map[string]string{},
		origins:    map[string]string{},
	}
}

func (s *staged) clone() *staged {
	return &staged{
		files:      maps.Clone(s.files),
		hidden:     maps.Clone(s.hidden),
		creates:    maps.Clone(s.creates),
		overwrites: maps.Clone(s.overwrites),
		deletes:    maps.Clone(s.deletes),
		renames:    maps.Clone(s.renames),
		origins:    maps.Clone(s.origins),
	}
}

func has(s set, p string) bool {
	_, ok := s[p]
	return ok
}

func (s *staged) create(p string, e *FileEntry) {
	if has(s.deletes, p) {
		delete(s.deletes, p)
		s.overwrites[p] = struct{}{}
	} else {
		s.creates[p] = struct{}{}
	}
	s.files[p] = e
	delete(s.hidden, p)
}

func (s *staged) overwrite(p string, e *FileEntry) {
	if !has(s.creates, p) {
		s.overwrites[p] = struct{}{}
	}
	s.files[p] = e
}

func (s *staged) remove(p string, onHost bool) {
	delete(s.files, p)
	if onHost {
		s.hidden[p] = struct{}{}
	}

	if has(s.creates, p) {
		delete(s.creates, p)
		return
	}
	delete(s.overwrites, p)

	if origin, ok := s.origins[p]; ok {
		delete(s.origins, p)
		delete(s.renames, origin)
		s.deletes[origin] = struct{}{}
		return
	}
	s.deletes[p] = struct{}{}
}

func (s *staged) rename(from, to string, e *FileEntry, fromOnHost bool) {
	delete(s.files, from)
	if fromOnHost {
		s.hidden[from] = struct{}{}
	}
	s.files[to] = e.moved(to)
	delete(s.hidden, to)

	if has(s.creates, from) {
		delete(s.creates, from)
		if has(s.deletes, to) {
			delete(s.deletes, to)
			s.overwrites[to] = struct{}{}
		} else {
			s.creates[to] = struct{}{}
		}
		return
	}

	overwritten := has(s.overwrites, from)
	delete(s.overwrites, from)

	origin := from
	if o, ok := s.origins[from]; ok {
		delete(s.origins, from)
		delete(s.renames, o)
		origin = o
	}

	switch {
	case has(s.deletes, to):
		// Moving onto a deleted host path replaces it in place.
		delete(s.deletes, to)
		s.deletes[origin] = struct{}{}
		overwritten = true
	case origin == to:
	default:
		s.renames[origin] = to
		s.origins[to] = origin
	}

	if overwritten {
		s.overwrites[to] = struct{}{}
	}
}
