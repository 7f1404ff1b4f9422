package vessel

import (
	"bufio"
	"encoding/binary"
	"errors"
	"io"
	"math"
)

// Magic values from spec §4.7/§6: "binary save/load format guarded by
// magic 0x4f82b (stats) / 0x4f80b (history) and a version field; on
// mismatch, load fails and the DB starts empty." The DB section reuses
// the stats magic (it is, structurally, per-vessel statistics) — see
// DESIGN.md's Open Question resolution.
const (
	magicStats   uint32 = 0x4f82b
	magicHistory uint32 = 0x4f80b
	magicDB      uint32 = 0x4f82b

	formatVersion uint32 = 1
)

var errMagicMismatch = errors.New("vessel: snapshot magic/version mismatch")

func writeSection(w io.Writer, magic uint32, body []byte) error {
	if err := binary.Write(w, binary.BigEndian, magic); err != nil {
		return err
	}
	if err := binary.Write(w, binary.BigEndian, formatVersion); err != nil {
		return err
	}
	if err := binary.Write(w, binary.BigEndian, uint32(len(body))); err != nil {
		return err
	}
	_, err := w.Write(body)
	return err
}

// readSection reads one magic+version+length-prefixed section, verifying
// the magic and version match, and returns its raw body. A truncated or
// mismatched section is reported via errMagicMismatch/io errors, and the
// caller starts fresh per spec ("on mismatch, load fails and the DB
// starts empty" / "truncated files cause a fresh start").
func readSection(r io.Reader, wantMagic uint32) ([]byte, error) {
	var magic, version, length uint32
	if err := binary.Read(r, binary.BigEndian, &magic); err != nil {
		return nil, err
	}
	if err := binary.Read(r, binary.BigEndian, &version); err != nil {
		return nil, err
	}
	if err := binary.Read(r, binary.BigEndian, &length); err != nil {
		return nil, err
	}
	if magic != wantMagic || version != formatVersion {
		return nil, errMagicMismatch
	}
	body := make([]byte, length)
	if _, err := io.ReadFull(r, body); err != nil {
		return nil, err
	}
	return body, nil
}

// Save writes Statistics in the stats binary format.
func (s *Statistics) Save(w io.Writer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	buf := make([]byte, 0, 512)
	app := func(v any) {
		tmp := make([]byte, 8)
		switch x := v.(type) {
		case uint64:
			binary.BigEndian.PutUint64(tmp, x)
			buf = append(buf, tmp...)
		case float64:
			binary.BigEndian.PutUint64(tmp, math.Float64bits(x))
			buf = append(buf, tmp...)
		}
	}
	for _, v := range s.PerType {
		app(v)
	}
	for _, v := range s.PerChannel {
		app(v)
	}
	for _, v := range s.RadarClassA {
		app(v)
	}
	for _, v := range s.RadarClassB {
		app(v)
	}
	app(s.levelSum)
	app(s.levelCount)
	app(s.LevelMin)
	app(s.LevelMax)
	app(s.ppmSum)
	app(s.ppmCount)
	app(s.LongestDistanceKm)

	return writeSection(w, magicStats, buf)
}

// Load restores Statistics from the stats binary format, leaving s
// untouched (effectively "DB starts empty") on any error.
func (s *Statistics) Load(r io.Reader) error {
	body, err := readSection(r, magicStats)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	off := 0
	nextU64 := func() uint64 {
		v := binary.BigEndian.Uint64(body[off:])
		off += 8
		return v
	}
	nextF64 := func() float64 { return math.Float64frombits(nextU64()) }

	for i := range s.PerType {
		s.PerType[i] = nextU64()
	}
	for i := range s.PerChannel {
		s.PerChannel[i] = nextU64()
	}
	for i := range s.RadarClassA {
		s.RadarClassA[i] = nextF64()
	}
	for i := range s.RadarClassB {
		s.RadarClassB[i] = nextF64()
	}
	s.levelSum = nextF64()
	s.levelCount = nextU64()
	s.LevelMin = nextF64()
	s.LevelMax = nextF64()
	s.ppmSum = nextF64()
	s.ppmCount = nextU64()
	s.LongestDistanceKm = nextF64()
	return nil
}

// Save writes all four History rings in the history binary format.
func (h *History) Save(w io.Writer) error {
	buf := &countingBuffer{}
	bw := bufio.NewWriter(buf)
	for _, r := range []*ring{h.Second, h.Minute, h.Hour, h.Day} {
		r.mu.Lock()
		slots := append([]MessageStatistics(nil), r.slots...)
		r.mu.Unlock()
		for _, slot := range slots {
			_ = binary.Write(bw, binary.BigEndian, slot.TimeUS)
			_ = binary.Write(bw, binary.BigEndian, slot.MessageCount)
			_ = binary.Write(bw, binary.BigEndian, slot.VesselCount)
		}
	}
	_ = bw.Flush()
	return writeSection(w, magicHistory, buf.data)
}

// Load restores all four History rings from the history binary format.
func (h *History) Load(r io.Reader) error {
	body, err := readSection(r, magicHistory)
	if err != nil {
		return err
	}
	off := 0
	for _, ring := range []*ring{h.Second, h.Minute, h.Hour, h.Day} {
		ring.mu.Lock()
		for i := range ring.slots {
			if off+16 > len(body) {
				ring.mu.Unlock()
				return errMagicMismatch
			}
			ring.slots[i].TimeUS = int64(binary.BigEndian.Uint64(body[off:]))
			off += 8
			ring.slots[i].MessageCount = binary.BigEndian.Uint32(body[off:])
			off += 4
			ring.slots[i].VesselCount = binary.BigEndian.Uint32(body[off:])
			off += 4
		}
		ring.mu.Unlock()
	}
	return nil
}

// Save writes a snapshot of every occupied vessel entry (mmsi + merged
// fields) in the DB binary format.
func (db *DB) Save(w io.Writer) error {
	db.mu.Lock()
	entries := make([]Vessel, 0, db.count)
	ptr := db.first
	for ptr != -1 {
		if db.items[ptr].inUse {
			entries = append(entries, db.items[ptr])
		}
		ptr = db.items[ptr].timeNext
	}
	db.mu.Unlock()

	buf := &countingBuffer{}
	_ = binary.Write(buf, binary.BigEndian, uint32(len(entries)))
	for _, v := range entries {
		_ = binary.Write(buf, binary.BigEndian, v.MMSI)
		_ = binary.Write(buf, binary.BigEndian, v.FirstSeenUS)
		_ = binary.Write(buf, binary.BigEndian, v.LastSeenUS)
		_ = binary.Write(buf, binary.BigEndian, math.Float64bits(v.Lat))
		_ = binary.Write(buf, binary.BigEndian, math.Float64bits(v.Lon))
		_ = binary.Write(buf, binary.BigEndian, v.MsgHistory)
	}
	return writeSection(w, magicDB, buf.data)
}

// Load restores vessel entries from the DB binary format, inserting each
// one via the normal create/moveToFront path so hash and time-order
// chains stay consistent.
func (db *DB) Load(r io.Reader) error {
	body, err := readSection(r, magicDB)
	if err != nil {
		return err
	}
	if len(body) < 4 {
		return errMagicMismatch
	}
	count := binary.BigEndian.Uint32(body)
	off := 4

	db.mu.Lock()
	defer db.mu.Unlock()
	for i := uint32(0); i < count; i++ {
		if off+36 > len(body) {
			return errMagicMismatch
		}
		mmsi := binary.BigEndian.Uint32(body[off:])
		off += 4
		firstSeen := int64(binary.BigEndian.Uint64(body[off:]))
		off += 8
		lastSeen := int64(binary.BigEndian.Uint64(body[off:]))
		off += 8
		lat := math.Float64frombits(binary.BigEndian.Uint64(body[off:]))
		off += 8
		lon := math.Float64frombits(binary.BigEndian.Uint64(body[off:]))
		off += 8
		msgHistory := binary.BigEndian.Uint32(body[off:])
		off += 4

		ptr := db.create(mmsi)
		db.moveToFront(ptr)
		v := &db.items[ptr]
		v.FirstSeenUS = firstSeen
		v.LastSeenUS = lastSeen
		v.Lat, v.Lon = lat, lon
		v.MsgHistory = msgHistory
	}
	return nil
}

type countingBuffer struct{ data []byte }

func (b *countingBuffer) Write(p []byte) (int, error) {
	b.data = append(b.data, p...)
	return len(p), nil
}
