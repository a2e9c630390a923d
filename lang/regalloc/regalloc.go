// Package regalloc implements the register allocator of spec.md §4.5:
// given the scope analyzer's lifetime and interference information, it
// assigns 8-bit register indices, spilling to globals when the 256-register
// pool is exhausted.
package regalloc

import (
	"github.com/bits-and-blooms/bitset"
	"golang.org/x/exp/slices"

	"github.com/mna/orus/lang/scopeanalyzer"
)

const (
	numRegisters   = 256
	reservedRegister = 0 // never assigned to a live variable
)

// Allocation is the result of running the allocator over one compilation
// unit's scope tree.
type Allocation struct {
	// Register maps a variable to its assigned register, or -1 if spilled.
	Register map[*scopeanalyzer.Variable]int
	Spilled  []*scopeanalyzer.Variable

	// SavedRegisters counts registers reclaimed by the global coalescing
	// pass (spec.md §3.6's saved_registers).
	SavedRegisters int

	// conflicts is the compile-time register file view of spec.md §3.6: a
	// 256x256 bit-matrix where bit (i,j) set means registers i and j were,
	// at some point, simultaneously live for interfering variables.
	conflicts *interferenceSet
}

// RegisterConflicts reports whether registers a and b were ever assigned to
// interfering variables during this allocation.
func (al *Allocation) RegisterConflicts(a, b int) bool {
	if al.conflicts == nil {
		return false
	}
	return al.conflicts.rows[a].Test(uint(b))
}

// interferenceSet is a 256x256 symmetric bit-matrix of register conflicts
// built once all assignments up to the current point are known, backed by
// github.com/bits-and-blooms/bitset the same way the pack's register/VM
// examples size their live-range matrices.
type interferenceSet struct {
	rows [numRegisters]*bitset.BitSet
}

func newInterferenceSet() *interferenceSet {
	is := &interferenceSet{}
	for i := range is.rows {
		is.rows[i] = bitset.New(numRegisters)
	}
	return is
}

func (is *interferenceSet) mark(a, b int) {
	is.rows[a].Set(uint(b))
	is.rows[b].Set(uint(a))
}

// Allocate assigns registers to every variable recorded by the scope
// analyzer, honoring res.Interfering.
func Allocate(res *scopeanalyzer.Result) *Allocation {
	alloc := &Allocation{Register: make(map[*scopeanalyzer.Variable]int)}

	vars := res.AllVariables()
	live := make([]*scopeanalyzer.Variable, 0, len(vars))
	for _, v := range vars {
		if !v.IsDead {
			live = append(live, v)
		}
	}

	// loop induction variables first (spec.md §4.5: always register-resident
	// for the duration of the loop body), then priority descending, stable so
	// declaration order breaks ties within each group.
	slices.SortStableFunc(live, func(a, b *scopeanalyzer.Variable) int {
		if a.IsLoopVar != b.IsLoopVar {
			if a.IsLoopVar {
				return -1
			}
			return 1
		}
		return int(b.Priority - a.Priority)
	})

	interferesWith := buildInterferenceIndex(res)
	regSet := newInterferenceSet()
	regOwner := make(map[int]*scopeanalyzer.Variable, numRegisters)

	for _, v := range live {
		reg := pickRegister(v, interferesWith, regOwner)
		if reg == -1 && v.IsLoopVar {
			// processing loop vars first already avoids most of this, but a
			// loop var can still be the one forced out if an earlier,
			// non-loop-var-interference-heavy pass saturated every register;
			// forcibly evict a non-loop-var occupant instead of spilling the
			// loop var itself.
			reg = evictForLoopVar(regOwner, alloc)
		}
		if reg == -1 {
			alloc.Spilled = append(alloc.Spilled, v)
			alloc.Register[v] = -1
			continue
		}
		v.Reg = reg
		alloc.Register[v] = reg
		for otherReg, otherVar := range regOwner {
			if interferesWith[v][otherVar] {
				regSet.mark(reg, otherReg)
			}
		}
		regOwner[reg] = v
	}

	alloc.SavedRegisters = coalesce(live, interferesWith, alloc.Register)
	alloc.conflicts = regSet
	return alloc
}

// buildInterferenceIndex turns res.Interfering into an adjacency set keyed
// by variable, for O(1)-ish interference checks during allocation.
func buildInterferenceIndex(res *scopeanalyzer.Result) map[*scopeanalyzer.Variable]map[*scopeanalyzer.Variable]bool {
	idx := make(map[*scopeanalyzer.Variable]map[*scopeanalyzer.Variable]bool)
	add := func(a, b *scopeanalyzer.Variable) {
		if idx[a] == nil {
			idx[a] = make(map[*scopeanalyzer.Variable]bool)
		}
		idx[a][b] = true
	}
	for _, pair := range res.Interfering {
		add(pair[0], pair[1])
		add(pair[1], pair[0])
	}
	return idx
}

// pickRegister returns the lowest-numbered register that is either unused
// so far in this allocation, or assigned to a variable that does not
// interfere with v (spec.md §4.5). Register 0 is reserved.
func pickRegister(v *scopeanalyzer.Variable, interferesWith map[*scopeanalyzer.Variable]map[*scopeanalyzer.Variable]bool, owner map[int]*scopeanalyzer.Variable) int {
	for reg := reservedRegister + 1; reg < numRegisters; reg++ {
		cur, used := owner[reg]
		if !used {
			return reg
		}
		if !interferesWith[v][cur] {
			return reg
		}
	}
	return -1
}

// evictForLoopVar forces a register free for a loop induction variable that
// pickRegister could not place, by spilling the lowest-numbered register's
// occupant — as long as that occupant is not itself a loop var. Loop
// induction variables are always register-resident for the duration of the
// loop body and never spilled (spec.md §4.5); ordinary variables give way
// instead. Returns -1 only if every occupied register already holds another
// loop var, the one case this allocator cannot avoid falling through on.
func evictForLoopVar(owner map[int]*scopeanalyzer.Variable, alloc *Allocation) int {
	for reg := reservedRegister + 1; reg < numRegisters; reg++ {
		cur, used := owner[reg]
		if !used {
			return reg
		}
		if cur.IsLoopVar {
			continue
		}
		alloc.Spilled = append(alloc.Spilled, cur)
		alloc.Register[cur] = -1
		cur.Reg = -1
		delete(owner, reg)
		return reg
	}
	return -1
}

// coalesce merges registers whose users never interfere across the entire
// program, reporting how many registers were reclaimed. Two registers are
// merged only when no variable assigned to one interferes with any
// variable assigned to the other; spilled variables are never merged.
func coalesce(live []*scopeanalyzer.Variable, interferesWith map[*scopeanalyzer.Variable]map[*scopeanalyzer.Variable]bool, regOf map[*scopeanalyzer.Variable]int) int {
	saved := 0
	merged := make(map[int]int) // old register -> canonical register

	canon := func(r int) int {
		for {
			c, ok := merged[r]
			if !ok {
				return r
			}
			r = c
		}
	}

	for i := 0; i < len(live); i++ {
		a := live[i]
		ra := regOf[a]
		if ra < 0 {
			continue
		}
		for j := i + 1; j < len(live); j++ {
			b := live[j]
			rb := regOf[b]
			if rb < 0 || canon(ra) == canon(rb) {
				continue
			}
			if interferesWith[a][b] {
				continue
			}
			ca, cb := canon(ra), canon(rb)
			clash := false
			for _, x := range live {
				for _, y := range live {
					rx, ry := regOf[x], regOf[y]
					if rx >= 0 && ry >= 0 && canon(rx) == ca && canon(ry) == cb && interferesWith[x][y] {
						clash = true
					}
				}
			}
			if clash {
				continue
			}
			merged[cb] = ca
			saved++
		}
	}

	for v, r := range regOf {
		if r < 0 {
			continue
		}
		nr := canon(r)
		regOf[v] = nr
		v.Reg = nr
	}
	return saved
}
