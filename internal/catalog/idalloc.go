package catalog

import (
	"sync"
	"time"
)

// idAllocator hands out scan ids derived from wall-clock milliseconds,
// bumped past the last id so two scans in the same millisecond never
// collide.
type idAllocator struct {
	mu   sync.Mutex
	last int64
}

func (a *idAllocator) next(now time.Time) int64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	id := now.UnixMilli()
	if id <= a.last {
		id = a.last + 1
	}
	a.last = id
	return id
}

// observe records an id loaded from a snapshot.
func (a *idAllocator) observe(id int64) {
	a.mu.Lock()
	if id > a.last {
		a.last = id
	}
	a.mu.Unlock()
}
