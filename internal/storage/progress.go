package storage

import (
	"sync"
	"time"
)

const progressInterval = 200 * time.Millisecond

// progressReporter counts bytes flowing through an upload and throttles callbacks.
type progressReporter struct {
	total    int64
	done     int64
	cb       func(done, total int64)
	mu       sync.Mutex
	lastFire time.Time
	now      func() time.Time
}

func newProgressReporter(total int64, cb func(done, total int64)) *progressReporter {
	if cb == nil {
		return nil
	}
	return &progressReporter{
		total: total,
		cb:    cb,
		now:   time.Now,
	}
}

func (p *progressReporter) Write(b []byte) (int, error) {
	if len(b) == 0 {
		return 0, nil
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	p.done += int64(len(b))
	now := p.now()
	if now.Sub(p.lastFire) >= progressInterval || p.done == p.total {
		p.lastFire = now
		p.cb(p.done, p.total)
	}

	return len(b), nil
}

func (p *progressReporter) start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.lastFire = p.now()
	p.cb(0, p.total)
}
