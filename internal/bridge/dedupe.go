package bridge

import "sync"

// dedupe remembers the last N message ids so a front end retrying a
// delivered message does not run the command twice.
type dedupe struct {
	mu     sync.Mutex
	window int
	seen   map[string]struct{}
	order  []string
}

func newDedupe(window int) *dedupe {
	if window <= 0 {
		window = DefaultDedupeWindow
	}
	return &dedupe{
		window: window,
		seen:   make(map[string]struct{}, window),
		order:  make([]string, 0, window),
	}
}

// claim records id and reports whether it was new.
func (d *dedupe) claim(id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.seen[id]; ok {
		return false
	}
	d.seen[id] = struct{}{}
	d.order = append(d.order, id)
	if len(d.order) > d.window {
		oldest := d.order[0]
		d.order = d.order[1:]
		delete(d.seen, oldest)
	}
	return true
}

// release forgets id so a failed command can be retried.
func (d *dedupe) release(id string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.seen[id]; !ok {
		return
	}
	delete(d.seen, id)
	for i, candidate := range d.order {
		if candidate == id {
			d.order = append(d.order[:i], d.order[i+1:]...)
			break
		}
	}
}
