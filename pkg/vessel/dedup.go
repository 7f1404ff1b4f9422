package vessel

import "sync"

// positionHistory implements spec §4.7's position duplicate suppression:
// a small table of (mmsi -> last position timestamp), expanding from 128
// up to 32768 entries as distinct MMSIs are seen, used to decide whether
// a new position report for the same vessel arrived within
// PositionIntervalSeconds of the last one.
type positionHistory struct {
	mu                     sync.Mutex
	lastSeenUS             map[uint32]int64
	positionIntervalMicros int64
	maxEntries             int
}

const (
	positionHistoryInitialCap = 128
	positionHistoryMaxCap     = 32768
)

func newPositionHistory() *positionHistory {
	return &positionHistory{
		lastSeenUS: make(map[uint32]int64, positionHistoryInitialCap),
		maxEntries: positionHistoryMaxCap,
	}
}

// SetPositionInterval sets the minimum gap, in seconds, below which a
// repeated position report for the same MMSI is treated as a duplicate.
func (h *positionHistory) SetPositionInterval(seconds int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.positionIntervalMicros = int64(seconds) * 1_000_000
}

func (h *positionHistory) isDuplicate(mmsi uint32, nowUS int64) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	last, ok := h.lastSeenUS[mmsi]
	dup := ok && h.positionIntervalMicros > 0 && nowUS-last < h.positionIntervalMicros

	if len(h.lastSeenUS) >= h.maxEntries && !ok {
		// table full and this is a new key: evict arbitrarily (map
		// iteration order) rather than grow past the spec's hard cap.
		for k := range h.lastSeenUS {
			delete(h.lastSeenUS, k)
			break
		}
	}
	h.lastSeenUS[mmsi] = nowUS
	return dup
}

// MessageDedup implements spec §4.7's message duplicate suppression used
// upstream of the DB when peering feeds: a Message.GetHash() history
// with a 2 second max age.
type MessageDedup struct {
	mu      sync.Mutex
	seen    map[uint64]int64
	maxAgeUS int64
}

// NewMessageDedup creates a dedup table with the spec's 2 second max age.
func NewMessageDedup() *MessageDedup {
	return &MessageDedup{seen: make(map[uint64]int64), maxAgeUS: 2_000_000}
}

// IsDuplicate reports whether hash was already seen within the max age
// window, recording it either way and evicting entries older than the
// window as it goes.
func (d *MessageDedup) IsDuplicate(hash uint64, nowUS int64) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	for h, t := range d.seen {
		if nowUS-t > d.maxAgeUS {
			delete(d.seen, h)
		}
	}

	last, ok := d.seen[hash]
	dup := ok && nowUS-last <= d.maxAgeUS
	d.seen[hash] = nowUS
	return dup
}
