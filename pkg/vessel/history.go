package vessel

import (
	"sync"
	"time"
)

// MessageStatistics is one snapshot slot in a History ring (spec §4.7).
type MessageStatistics struct {
	TimeUS      int64
	MessageCount uint32
	VesselCount  uint32
}

// ringSpec names one of the four History rings (spec §4.7).
type ringSpec struct {
	slots    int
	interval time.Duration
}

var (
	secondRing = ringSpec{slots: 60, interval: time.Second}
	minuteRing = ringSpec{slots: 60, interval: time.Minute}
	hourRing   = ringSpec{slots: 24, interval: time.Hour}
	dayRing    = ringSpec{slots: 90, interval: 24 * time.Hour}
)

// ring is one fixed-size circular buffer of MessageStatistics, advancing
// its head whenever floor(now/interval) increments (spec §4.7). mu
// covers every mutating/reading access to slots/head/lastSlot: Record is
// called from whichever producer goroutine last touched the shared
// router (spec §5), and Snapshot/Save/Load can run concurrently with it.
type ring struct {
	mu       sync.Mutex
	spec     ringSpec
	slots    []MessageStatistics
	head     int
	lastSlot int64 // floor(now/interval) at last Advance, -1 if unset
}

func newRing(spec ringSpec) *ring {
	return &ring{spec: spec, slots: make([]MessageStatistics, spec.slots), lastSlot: -1}
}

// Advance records one message (and optionally a distinct vessel count)
// at now, rotating the ring forward by however many interval boundaries
// have elapsed since the last call.
func (r *ring) Advance(now time.Time, vesselCount uint32) {
	r.mu.Lock()
	defer r.mu.Unlock()

	slot := now.UnixNano() / r.spec.interval.Nanoseconds()
	if r.lastSlot == -1 {
		r.lastSlot = slot
	}
	steps := int(slot - r.lastSlot)
	if steps > len(r.slots) {
		steps = len(r.slots)
	}
	for i := 0; i < steps; i++ {
		r.head = (r.head + 1) % len(r.slots)
		r.slots[r.head] = MessageStatistics{}
	}
	r.lastSlot = slot

	cur := &r.slots[r.head]
	cur.TimeUS = now.UnixMicro()
	cur.MessageCount++
	if vesselCount > cur.VesselCount {
		cur.VesselCount = vesselCount
	}
}

// Snapshot returns the ring's slots in chronological order, oldest
// first.
func (r *ring) Snapshot() []MessageStatistics {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]MessageStatistics, len(r.slots))
	for i := range r.slots {
		out[i] = r.slots[(r.head+1+i)%len(r.slots)]
	}
	return out
}

// History bundles the four rings from spec §4.7: second(60x1s),
// minute(60x60s), hour(24x3600s), day(90x86400s).
type History struct {
	Second *ring
	Minute *ring
	Hour   *ring
	Day    *ring
	now    func() time.Time
}

// NewHistory creates the four rings, empty.
func NewHistory() *History {
	return &History{
		Second: newRing(secondRing),
		Minute: newRing(minuteRing),
		Hour:   newRing(hourRing),
		Day:    newRing(dayRing),
		now:    time.Now,
	}
}

// Record advances all four rings for one received message.
func (h *History) Record(vesselCount uint32) {
	now := h.now()
	h.Second.Advance(now, vesselCount)
	h.Minute.Advance(now, vesselCount)
	h.Hour.Advance(now, vesselCount)
	h.Day.Advance(now, vesselCount)
}
