package vessel

import (
	"sync"
	"time"

	"github.com/aiscatcherd/aiscatcherd/pkg/ais"
	"github.com/aiscatcherd/aiscatcherd/pkg/stream"
)

// DefaultCapacity is N from spec §4.7 ("fixed capacity N=4096 typical").
const DefaultCapacity = 4096

const pathRingSize = 64
const nmeaRingSize = 16

// minPositionDeltaDeg is the minimum lat/lon change (spec §4.7 step 5,
// "changed by >= a min-delta threshold") before a new path point is
// appended, avoiding a path ring saturated by GPS jitter at anchor.
const minPositionDeltaDeg = 0.0001

// PathPoint is one breadcrumb in a vessel's position history.
type PathPoint struct {
	TimeUS int64
	Lat    float64
	Lon    float64
}

// Vessel is one DB entry (spec §3 "Vessel (DB entry)").
type Vessel struct {
	MMSI         uint32
	FirstSeenUS  int64
	LastSeenUS   int64
	Lat, Lon     float64
	COG          float64
	SOG          float64
	Heading      float64
	NavStatus    uint8
	ShipType     uint8
	Name         string
	Callsign     string
	Destination  string
	MsgHistory   uint32 // bit i set => a type-i message was seen
	NMEAHistory  []string
	Path         []PathPoint

	hashPrev, hashNext int // index-based hash chain links; -1 == end
	timePrev, timeNext int // index-based time-order (LRU) links; -1 == end
	inUse              bool
}

// DB is the fixed-capacity hashed LRU vessel database (spec §4.7),
// grounded on original_source's PlaneDB: a flat array of entries linked
// two ways — a per-bucket hash chain for O(1) lookup by key, and a
// single time-ordered doubly-linked list for O(1) least-recently-used
// eviction.
type DB struct {
	mu sync.Mutex

	items    []Vessel
	hashHead []int // hashHead[h] = index of first entry in bucket h, or -1

	first, last int // time-order list head (most recent) / tail (oldest)
	count       int
	n           int

	stationLat, stationLon float64
	hasStationPos          bool
	cutoffKm               float64

	posHistory *positionHistory
	now        func() time.Time

	groupsIn uint64
}

// GroupsIn implements stream.StreamIn[*ais.Message]; the DB is wired to
// receive every decoded message by default (spec §4.7 has no group
// filtering of its own — that belongs to the output streamers).
func (db *DB) GroupsIn() uint64 {
	if db.groupsIn == 0 {
		return ^uint64(0)
	}
	return db.groupsIn
}

// SetGroupsIn narrows the group mask the DB subscribes to.
func (db *DB) SetGroupsIn(mask uint64) { db.groupsIn = mask }

// NewDB creates a vessel DB with the given capacity (spec default 4096)
// and spoofed-range cutoff in km (spec §4.7 step 4).
func NewDB(capacity int, cutoffKm float64) *DB {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	db := &DB{
		items:      make([]Vessel, capacity),
		hashHead:   make([]int, capacity),
		n:          capacity,
		cutoffKm:   cutoffKm,
		posHistory: newPositionHistory(),
		now:        time.Now,
	}
	for i := range db.hashHead {
		db.hashHead[i] = -1
	}
	for i := range db.items {
		db.items[i].timeNext = i - 1
		db.items[i].timePrev = i + 1
		db.items[i].hashPrev = -1
		db.items[i].hashNext = -1
	}
	db.items[capacity-1].timePrev = -1
	db.first = capacity - 1
	db.last = 0
	return db
}

// SetStationPosition sets the receiving station's own position, used for
// distance/bearing computation (spec §4.7 step 4).
func (db *DB) SetStationPosition(lat, lon float64) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.stationLat, db.stationLon = lat, lon
	db.hasStationPos = true
}

// StationDistanceBearing reports the great-circle distance (km) and
// bearing (degrees) from the configured station position to (lat, lon),
// or ok=false if no station position is known. Exposed so callers outside
// this package (the statistics-feeding stage of the pipeline) can reuse
// the same station-position bookkeeping Receive uses internally, without
// duplicating it.
func (db *DB) StationDistanceBearing(lat, lon float64) (km, bearingDeg float64, ok bool) {
	db.mu.Lock()
	stationLat, stationLon, hasStation := db.stationLat, db.stationLon, db.hasStationPos
	db.mu.Unlock()
	if !hasStation {
		return 0, 0, false
	}
	km, bearingDeg = greatCircle(stationLat, stationLon, lat, lon)
	return km, bearingDeg, true
}

func (db *DB) hash(mmsi uint32) int {
	return int(mmsi) % db.n
}

func (db *DB) find(mmsi uint32) int {
	h := db.hash(mmsi)
	ptr := db.hashHead[h]
	for ptr != -1 {
		if db.items[ptr].MMSI == mmsi && db.items[ptr].inUse {
			return ptr
		}
		ptr = db.items[ptr].hashNext
	}
	return -1
}

// moveToFront relinks ptr to the head of the time-order list (spec §4.7
// step 2 "move to head of time-order doubly-linked list").
func (db *DB) moveToFront(ptr int) {
	if ptr == db.first {
		return
	}
	v := &db.items[ptr]
	if v.timeNext != -1 {
		db.items[v.timeNext].timePrev = v.timePrev
	} else {
		db.last = v.timePrev
	}
	if v.timePrev != -1 {
		db.items[v.timePrev].timeNext = v.timeNext
	}

	v.timeNext = db.first
	v.timePrev = -1
	db.items[db.first].timePrev = ptr
	db.first = ptr
}

// create evicts the tail entry (if occupied) and reinserts it at the
// head, keyed to mmsi (spec §4.7 step 2 "evict tail entry ... reinsert
// at head with new mmsi").
func (db *DB) create(mmsi uint32) int {
	ptr := db.last
	v := &db.items[ptr]

	if v.inUse {
		oldHash := db.hash(v.MMSI)
		db.unlinkHash(ptr, oldHash)
	}

	newHash := db.hash(mmsi)
	v.hashPrev = -1
	v.hashNext = db.hashHead[newHash]
	if db.hashHead[newHash] != -1 {
		db.items[db.hashHead[newHash]].hashPrev = ptr
	}
	db.hashHead[newHash] = ptr

	if db.count < db.n {
		db.count++
	}

	*v = Vessel{
		MMSI:      mmsi,
		hashPrev:  v.hashPrev,
		hashNext:  v.hashNext,
		timePrev:  v.timePrev,
		timeNext:  v.timeNext,
		inUse:     true,
		NavStatus: 15,
		COG:       Undefined,
		SOG:       Undefined,
		Heading:   Undefined,
	}
	return ptr
}

func (db *DB) unlinkHash(ptr, bucket int) {
	v := &db.items[ptr]
	if v.hashNext != -1 {
		db.items[v.hashNext].hashPrev = v.hashPrev
	}
	if v.hashPrev != -1 {
		db.items[v.hashPrev].hashNext = v.hashNext
	} else {
		db.hashHead[bucket] = v.hashNext
	}
}

// Receive implements spec §4.7's Receive(Message) algorithm: find-or-
// evict-and-create, merge position/voyage fields, duplicate-suppress
// positions, compute distance/bearing from the station, and append to
// the path ring when position moved enough.
func (db *DB) Receive(msg *ais.Message, tag stream.Tag) {
	db.mu.Lock()
	defer db.mu.Unlock()

	mmsi := msg.MMSI()
	ptr := db.find(mmsi)
	if ptr == -1 {
		ptr = db.create(mmsi)
	}
	db.moveToFront(ptr)

	v := &db.items[ptr]
	now := db.now()
	nowUS := now.UnixMicro()
	if v.FirstSeenUS == 0 {
		v.FirstSeenUS = nowUS
	}
	v.LastSeenUS = nowUS
	v.MsgHistory |= 1 << (msg.Type() & 31)

	if len(v.NMEAHistory) > 0 || len(msg.NMEALines) > 0 {
		v.NMEAHistory = appendRing(v.NMEAHistory, msg.NMEALines, nmeaRingSize)
	}

	if pr, ok := DecodePositionReport(msg); ok {
		db.mergePosition(v, mmsi, pr, tag, nowUS)
	}
	if sd, ok := DecodeStaticData(msg); ok {
		v.Callsign = sd.Callsign
		v.Name = sd.Name
		v.ShipType = sd.ShipType
		v.Destination = sd.Destination
	}
	if name, ok := DecodeType24Name(msg); ok {
		v.Name = name
	}
}

func (db *DB) mergePosition(v *Vessel, mmsi uint32, pr PositionReport, tag stream.Tag, nowUS int64) {
	v.NavStatus = pr.NavStatus
	v.COG = pr.COG
	v.SOG = pr.SOG
	v.Heading = pr.Heading

	if !pr.HasPos {
		return
	}

	if db.posHistory.isDuplicate(mmsi, nowUS) {
		return
	}

	stationLat, stationLon, hasStation := db.stationLat, db.stationLon, db.hasStationPos
	if tag.HasStationPos {
		stationLat, stationLon, hasStation = tag.StationLat, tag.StationLon, true
	}
	if hasStation {
		dist, _ := greatCircle(stationLat, stationLon, pr.Lat, pr.Lon)
		if db.cutoffKm > 0 && dist > db.cutoffKm {
			return // spoofed-range poisoning guard, spec §4.7 step 4
		}
	}

	moved := v.Lat == 0 && v.Lon == 0 ||
		abs(pr.Lat-v.Lat) >= minPositionDeltaDeg || abs(pr.Lon-v.Lon) >= minPositionDeltaDeg
	v.Lat, v.Lon = pr.Lat, pr.Lon

	if moved {
		v.Path = appendPath(v.Path, PathPoint{TimeUS: nowUS, Lat: pr.Lat, Lon: pr.Lon}, pathRingSize)
	}
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}

func appendPath(ring []PathPoint, p PathPoint, max int) []PathPoint {
	ring = append(ring, p)
	if len(ring) > max {
		ring = ring[len(ring)-max:]
	}
	return ring
}

func appendRing(ring []string, lines []string, max int) []string {
	ring = append(ring, lines...)
	if len(ring) > max {
		ring = ring[len(ring)-max:]
	}
	return ring
}

// Get returns a copy of the vessel entry for mmsi, if present.
func (db *DB) Get(mmsi uint32) (Vessel, bool) {
	db.mu.Lock()
	defer db.mu.Unlock()
	ptr := db.find(mmsi)
	if ptr == -1 {
		return Vessel{}, false
	}
	return db.items[ptr], true
}

// Len reports the number of occupied entries.
func (db *DB) Len() int {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.count
}

// Snapshot returns a copy of every occupied vessel, most-recently-used
// first.
func (db *DB) Snapshot() []Vessel {
	db.mu.Lock()
	defer db.mu.Unlock()
	out := make([]Vessel, 0, db.count)
	ptr := db.first
	for ptr != -1 {
		if db.items[ptr].inUse {
			out = append(out, db.items[ptr])
		}
		ptr = db.items[ptr].timeNext
	}
	return out
}
