package cpp

// Arena is a bump allocator for the short-lived, size-bounded byte blocks
// the scanner and expander churn through: literal spellings being
// accumulated, stringize output, paste buffers. Blocks are carved from
// chained regions; growing the most recent block extends it in place, so
// the accumulate-byte-by-byte pattern costs one allocation per region, not
// one per literal. Requests above the size-class limit bypass the arena and
// come from the ordinary heap, so oversized literals are never a
// correctness problem.
type Arena struct {
	limit   int // requests larger than this go straight to the heap
	size    int // capacity of the next region to be chained
	regions []*arenaRegion

	// Most recent arena allocation; only this block can be grown in place
	// or released back to the bump pointer.
	lastRegion *arenaRegion
	lastOff    int
	lastLen    int

	allocs int // arena allocations served (stats)
}

type arenaRegion struct {
	buf []byte // len = bytes used, cap = region capacity
}

// NewArena returns an arena whose first region holds size bytes and which
// sends requests larger than limit to the heap.
func NewArena(limit, size int) *Arena {
	if limit <= 0 {
		limit = 1024
	}
	if size < limit {
		size = limit
	}
	return &Arena{limit: limit, size: size}
}

// Alloc returns a zeroed block of n bytes. Blocks up to the size-class
// limit come from the newest region in O(1); a full region chains a new
// one of double capacity.
func (a *Arena) Alloc(n int) []byte {
	if n > a.limit {
		return make([]byte, n)
	}
	if n == 0 {
		return nil
	}
	r := a.tip()
	if r == nil || len(r.buf)+n > cap(r.buf) {
		r = a.chain(n)
	}
	off := len(r.buf)
	r.buf = r.buf[:off+n]
	b := r.buf[off : off+n : off+n]
	a.lastRegion, a.lastOff, a.lastLen = r, off, n
	a.allocs++
	return b
}

// Grow resizes b to n bytes, preserving its contents. The most recently
// allocated block extends in place when its region has room; any other
// block, and any heap block, is copied into fresh space.
func (a *Arena) Grow(b []byte, n int) []byte {
	if n <= len(b) {
		return b[:n]
	}
	if a.isLast(b) && n <= a.limit {
		r := a.lastRegion
		if a.lastOff+n <= cap(r.buf) {
			r.buf = r.buf[:a.lastOff+n]
			a.lastLen = n
			return r.buf[a.lastOff : a.lastOff+n : a.lastOff+n]
		}
	}
	nb := a.Alloc(n)
	copy(nb, b)
	return nb
}

// Release returns b to the arena. Only the most recent allocation actually
// rewinds the bump pointer; releasing anything else is a no-op and the
// memory is reclaimed when the arena itself is dropped.
func (a *Arena) Release(b []byte) {
	if !a.isLast(b) {
		return
	}
	a.lastRegion.buf = a.lastRegion.buf[:a.lastOff]
	a.lastRegion = nil
	a.lastOff, a.lastLen = 0, 0
}

func (a *Arena) isLast(b []byte) bool {
	if a.lastRegion == nil || len(b) == 0 || len(b) != a.lastLen {
		return false
	}
	return &b[0] == &a.lastRegion.buf[a.lastOff]
}

func (a *Arena) tip() *arenaRegion {
	if len(a.regions) == 0 {
		return nil
	}
	return a.regions[len(a.regions)-1]
}

// chain appends a fresh region able to hold at least n bytes. Each region
// doubles the previous capacity so long runs settle into few allocations.
func (a *Arena) chain(n int) *arenaRegion {
	size := a.size
	for size < n {
		size *= 2
	}
	a.size = size * 2
	r := &arenaRegion{buf: make([]byte, 0, size)}
	a.regions = append(a.regions, r)
	return r
}

// ArenaStats reports arena occupancy for tests and debugging.
type ArenaStats struct {
	Regions int
	Used    int
	Allocs  int
}

func (a *Arena) Stats() ArenaStats {
	st := ArenaStats{Regions: len(a.regions), Allocs: a.allocs}
	for _, r := range a.regions {
		st.Used += len(r.buf)
	}
	return st
}
