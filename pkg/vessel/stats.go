package vessel

import (
	"sync"

	"github.com/aiscatcherd/aiscatcherd/pkg/ais"
	"github.com/aiscatcherd/aiscatcherd/pkg/stream"
)

// radarBuckets is the 18 angular buckets (20 degrees each) from spec
// §3 "Radar = 18 angular buckets x {class-A, class-B} holding max
// observed distance".
const radarBuckets = 18

// Statistics accumulates the counters from spec §3: per-type message
// counts, per-channel counts, level/ppm running stats, longest distance,
// and the radar max-distance buckets.
type Statistics struct {
	mu sync.Mutex

	PerType    [28]uint64 // index 1..27 used
	PerChannel [4]uint64  // 'A'..'D'

	RadarClassA [radarBuckets]float64
	RadarClassB [radarBuckets]float64

	levelSum   float64
	levelCount uint64
	LevelMin   float64
	LevelMax   float64

	ppmSum   float64
	ppmCount uint64

	LongestDistanceKm float64
}

// NewStatistics returns a zeroed Statistics (LevelMin starts at +Inf-like
// sentinel so the first sample always lowers it).
func NewStatistics() *Statistics {
	return &Statistics{LevelMin: Undefined}
}

// isClassB identifies the AIS message types carried by class-B
// transceivers, used to route a position fix into the correct radar
// bucket array.
func isClassB(msgType uint8) bool {
	return msgType == 18 || msgType == 19
}

// Observe folds one received message (plus its enriched distance/angle
// tag and optional decoded position) into the statistics.
func (s *Statistics) Observe(msg *ais.Message, tag stream.Tag, distanceKm float64, bearingDeg float64, hasPosition bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := msg.Type()
	if t < uint8(len(s.PerType)) {
		s.PerType[t]++
	}
	if idx := int(msg.Channel - 'A'); idx >= 0 && idx < len(s.PerChannel) {
		s.PerChannel[idx]++
	}

	if tag.HasLevel {
		s.levelSum += float64(tag.Level)
		s.levelCount++
		if s.LevelMin == Undefined || float64(tag.Level) < s.LevelMin {
			s.LevelMin = float64(tag.Level)
		}
		if float64(tag.Level) > s.LevelMax {
			s.LevelMax = float64(tag.Level)
		}
	}
	if tag.HasPPM {
		s.ppmSum += float64(tag.PPM)
		s.ppmCount++
	}

	if !hasPosition {
		return
	}
	if distanceKm > s.LongestDistanceKm {
		s.LongestDistanceKm = distanceKm
	}

	bucket := int(bearingDeg/20.0) % radarBuckets
	if bucket < 0 {
		bucket += radarBuckets
	}
	target := &s.RadarClassA
	if isClassB(t) {
		target = &s.RadarClassB
	}
	if distanceKm > target[bucket] {
		target[bucket] = distanceKm
	}
}

// LevelMean returns the running mean signal level, or 0 if no samples
// carried a level.
func (s *Statistics) LevelMean() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.levelCount == 0 {
		return 0
	}
	return s.levelSum / float64(s.levelCount)
}

// PPMMean returns the running mean clock-drift estimate in parts per
// million, or 0 if no samples carried one.
func (s *Statistics) PPMMean() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ppmCount == 0 {
		return 0
	}
	return s.ppmSum / float64(s.ppmCount)
}

// Snapshot returns a consistent copy of the exported counters, safe to
// read concurrently with Observe (used by pkg/httpserver's /api/stat.json
// handler, which otherwise has no lock of its own over these fields).
func (s *Statistics) Snapshot() Statistics {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := *s
	out.mu = sync.Mutex{}
	return out
}
