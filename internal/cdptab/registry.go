package cdptab

import (
	"sort"
	"sync"

	"github.com/chromedp/cdproto/target"
)

// Registry maps opaque CDP target IDs to stable int64 ordinals. Ordinals are
// assigned once per target in the order targets are first observed and never
// reused, so a tab created later always carries a higher ordinal than one
// created earlier within the same process.
type Registry struct {
	mu      sync.Mutex
	next    int64
	byTgt   map[target.ID]*TabInfo
	byOrdID map[int64]target.ID
}

func NewRegistry() *Registry {
	return &Registry{
		byTgt:   make(map[target.ID]*TabInfo),
		byOrdID: make(map[int64]target.ID),
	}
}

// Observe records a target sighting. New targets get the next ordinal; known
// targets have their URL and title refreshed. Returns the tab's ordinal.
func (r *Registry) Observe(targetID target.ID, url, title string) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	if info, ok := r.byTgt[targetID]; ok {
		info.URL = url
		info.Title = title
		return info.ID
	}

	r.next++
	info := &TabInfo{
		ID:       r.next,
		TargetID: string(targetID),
		URL:      url,
		Title:    title,
	}
	r.byTgt[targetID] = info
	r.byOrdID[info.ID] = targetID
	return info.ID
}

// Remove forgets a destroyed target. Its ordinal is retired, not recycled.
func (r *Registry) Remove(targetID target.ID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	info, ok := r.byTgt[targetID]
	if !ok {
		return
	}
	delete(r.byOrdID, info.ID)
	delete(r.byTgt, targetID)
}

// Lookup resolves an ordinal back to its target ID.
func (r *Registry) Lookup(id int64) (target.ID, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	tgt, ok := r.byOrdID[id]
	return tgt, ok
}

// Get returns a copy of the tab info for an ordinal.
func (r *Registry) Get(id int64) (TabInfo, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	tgt, ok := r.byOrdID[id]
	if !ok {
		return TabInfo{}, false
	}
	return *r.byTgt[tgt], true
}

// All returns copies of every known tab, ascending by ordinal.
func (r *Registry) All() []TabInfo {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]TabInfo, 0, len(r.byTgt))
	for _, info := range r.byTgt {
		out = append(out, *info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Count returns the number of live tabs.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byTgt)
}
