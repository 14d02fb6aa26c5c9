package app

import "sync"

// propertyLocks serializes check-then-insert per property within this
// process. The MySQL repository adds an advisory lock for the cross-process
// case; together they close the double-booking race between the availability
// check and the reservation insert.
type propertyLocks struct {
	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

func newPropertyLocks() *propertyLocks {
	return &propertyLocks{locks: map[int64]*sync.Mutex{}}
}

// acquire blocks until the property's lock is held and returns the release.
func (p *propertyLocks) acquire(propertyID int64) func() {
	p.mu.Lock()
	l, ok := p.locks[propertyID]
	if !ok {
		l = &sync.Mutex{}
		p.locks[propertyID] = l
	}
	p.mu.Unlock()

	l.Lock()
	return l.Unlock
}
