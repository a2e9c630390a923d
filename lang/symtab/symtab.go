// Package symtab implements the compiler core's symbol table: an FNV-1a
// hashed, open-addressed table with tombstones, plus the active-scope stack
// used to resolve names by lexical depth (spec.md §4.3).
package symtab

import "hash/fnv"

// Entry is one symbol table record.
type Entry struct {
	Name  string
	Index int // register or global slot, assigned by the caller
	Depth int // lexical scope depth at declaration
}

const maxLoadFactor = 0.75

type slotState uint8

const (
	slotEmpty slotState = iota
	slotFull
	slotTombstone
)

type slot struct {
	state slotState
	entry Entry
}

// Table is an open-addressed hash table of Entry, probed linearly, keyed by
// (name, depth) so that shadowing across scopes is representable
// simultaneously.
type Table struct {
	slots    []slot
	count    int // full slots
	occupied int // full + tombstone, drives the rehash threshold
	scopes   []int
}

// New returns an empty table with sixteen initial buckets.
func New() *Table {
	t := &Table{slots: make([]slot, 16)}
	return t
}

func hashKey(name string, depth int) uint64 {
	h := fnv.New64a()
	h.Write([]byte(name))
	h.Write([]byte{byte(depth), byte(depth >> 8), byte(depth >> 16), byte(depth >> 24)})
	return h.Sum64()
}

func (t *Table) probe(name string, depth int) (idx int, found bool, firstTombstone int) {
	n := len(t.slots)
	h := hashKey(name, depth)
	firstTombstone = -1
	for i := 0; i < n; i++ {
		idx = int((h + uint64(i)) % uint64(n))
		s := &t.slots[idx]
		switch s.state {
		case slotEmpty:
			return idx, false, firstTombstone
		case slotTombstone:
			if firstTombstone < 0 {
				firstTombstone = idx
			}
		case slotFull:
			if s.entry.Name == name && s.entry.Depth == depth {
				return idx, true, firstTombstone
			}
		}
	}
	return -1, false, firstTombstone
}

func (t *Table) loadFactor() float64 {
	return float64(t.occupied) / float64(len(t.slots))
}

func (t *Table) rehash() {
	old := t.slots
	t.slots = make([]slot, len(old)*2)
	t.occupied = 0
	t.count = 0
	for _, s := range old {
		if s.state == slotFull {
			t.insert(s.entry)
		}
	}
}

func (t *Table) insert(e Entry) {
	idx, found, tomb := t.probe(e.Name, e.Depth)
	if found {
		t.slots[idx].entry = e
		return
	}
	if tomb >= 0 {
		idx = tomb
	} else {
		t.occupied++
	}
	t.slots[idx] = slot{state: slotFull, entry: e}
	t.count++
}

// Set inserts or updates name at depth. It rejects same-name, same-depth
// duplicates only when depth is 0 (module/global scope); shadowing at any
// other depth, or updating an existing entry's index, is always allowed.
func (t *Table) Set(name string, index, depth int) (ok bool) {
	_, found, _ := t.probe(name, depth)
	if depth == 0 && found {
		return false
	}
	if t.loadFactor() >= maxLoadFactor {
		t.rehash()
	}
	t.insert(Entry{Name: name, Index: index, Depth: depth})
	return true
}

// GetInScope returns the entry for name with the greatest depth <= maxDepth,
// searching from maxDepth down to 0.
func (t *Table) GetInScope(name string, maxDepth int) (Entry, bool) {
	for d := maxDepth; d >= 0; d-- {
		if e, ok := t.GetExactScope(name, d); ok {
			return e, true
		}
	}
	return Entry{}, false
}

// GetExactScope returns the entry for name at exactly depth.
func (t *Table) GetExactScope(name string, depth int) (Entry, bool) {
	idx, found, _ := t.probe(name, depth)
	if !found {
		return Entry{}, false
	}
	return t.slots[idx].entry, true
}

// PushScope begins a new lexical scope at depth and records it on the
// active-scope stack.
func (t *Table) PushScope(depth int) {
	t.scopes = append(t.scopes, depth)
}

// PopScope ends the innermost active scope, removing every entry whose
// depth equals the ending depth and that is no longer reachable from any
// remaining active scope. Removal is tombstone-based so probe chains for
// colliding keys stay intact.
func (t *Table) PopScope() {
	if len(t.scopes) == 0 {
		return
	}
	ending := t.scopes[len(t.scopes)-1]
	t.scopes = t.scopes[:len(t.scopes)-1]

	stillReachable := false
	for _, d := range t.scopes {
		if d == ending {
			stillReachable = true
			break
		}
	}
	if stillReachable {
		return
	}
	for i := range t.slots {
		if t.slots[i].state == slotFull && t.slots[i].entry.Depth == ending {
			t.slots[i] = slot{state: slotTombstone}
			t.count--
		}
	}
}

// Depth returns the current active-scope depth, or -1 if no scope is open.
func (t *Table) Depth() int {
	if len(t.scopes) == 0 {
		return -1
	}
	return t.scopes[len(t.scopes)-1]
}

// Len returns the number of live (non-tombstoned) entries.
func (t *Table) Len() int { return t.count }
