package vm

import (
	"maps"
	"slices"
	"sync"
)

// Breakpoints is the set of addresses at which execution suspends before
// decoding. It may be modified while the engine runs.
type Breakpoints struct {
	mutex sync.Mutex
	addr  map[Word]struct{}
}

// Add inserts pc into the set. Adding an existing breakpoint has no effect.
func (bp *Breakpoints) Add(pc Word) {
	bp.mutex.Lock()
	defer bp.mutex.Unlock()

	if bp.addr == nil {
		bp.addr = make(map[Word]struct{}, 4)
	}
	bp.addr[pc] = struct{}{}
}

// Remove deletes pc from the set.
func (bp *Breakpoints) Remove(pc Word) {
	bp.mutex.Lock()
	defer bp.mutex.Unlock()

	delete(bp.addr, pc)
}

// Has returns true if pc is a breakpoint.
func (bp *Breakpoints) Has(pc Word) (ok bool) {
	bp.mutex.Lock()
	defer bp.mutex.Unlock()

	_, ok = bp.addr[pc]
	return
}

// List returns the breakpoints in ascending order.
func (bp *Breakpoints) List() []Word {
	bp.mutex.Lock()
	defer bp.mutex.Unlock()

	return slices.Sorted(maps.Keys(bp.addr))
}
