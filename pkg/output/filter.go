// Package output implements the streaming output layer from spec §4.6:
// per-streamer message filtering/formatting and the UDP, TCP-client,
// TCP-listener, HTTP POST, and MQTT streamers built on pkg/transport.
package output

import (
	"strings"
	"time"

	"github.com/aiscatcherd/aiscatcherd/pkg/ais"
)

// Filter gates which messages a streamer accepts, grounded on the
// original AIS-catcher's Filter::include (type/repeat bitmasks, channel
// allow-list, MMSI allow/block lists, VDO downsampling).
type Filter struct {
	On             bool
	AllowType      uint32 // bit i set => type i allowed; 0 means "all" when On is false
	AllowRepeat    uint32 // bit i set => repeat i allowed
	AllowedChannel string // e.g. "AB"; empty means any
	MMSIAllowed    []uint32
	MMSIBlocked    []uint32
	RemoveEmpty    bool

	Downsample     bool
	DownsampleTime time.Duration
	lastOwn        time.Time
}

// NewFilter returns a permissive filter (everything passes) matching the
// original's default-constructed Filter{on=false}.
func NewFilter() *Filter {
	return &Filter{AllowType: 0xFFFFFFFF, AllowRepeat: 0xFFFFFFFF}
}

// Include reports whether msg should be emitted by a streamer using this
// filter, evaluated in the same order as the original: downsample check
// first (independent of On), then the On-gated predicates.
func (f *Filter) Include(msg *ais.Message, isOwn bool, now time.Time) bool {
	if f.Downsample && isOwn {
		if !f.lastOwn.IsZero() && now.Sub(f.lastOwn) < f.DownsampleTime {
			return false
		}
		f.lastOwn = now
	}

	if !f.On {
		return true
	}

	if f.RemoveEmpty && msg.LengthBits == 0 {
		return false
	}

	if f.AllowedChannel != "" && !strings.ContainsRune(f.AllowedChannel, rune(msg.Channel)) {
		return false
	}

	if len(f.MMSIAllowed) > 0 {
		ok := false
		for _, m := range f.MMSIAllowed {
			if msg.MMSI() == m {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}

	for _, m := range f.MMSIBlocked {
		if msg.MMSI() == m {
			return false
		}
	}

	t := uint(msg.Type()) & 31
	r := uint(msg.Repeat()) & 3
	return (f.AllowType&(1<<t)) != 0 && (f.AllowRepeat&(1<<r)) != 0
}
