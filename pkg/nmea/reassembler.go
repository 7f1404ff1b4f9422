// Package nmea implements the byte-stream reassembler: it turns a
// possibly-fragmented, possibly-interleaved byte stream containing
// AIVDM/AIVDO NMEA sentences (optionally tag-block-prefixed), a custom
// binary framing, or bare JSON objects into complete ais.Message and GPS
// frames (spec §4.4).
package nmea

import (
	"fmt"
	"time"

	"github.com/aiscatcherd/aiscatcherd/internal/utils"
	"github.com/aiscatcherd/aiscatcherd/pkg/ais"
	"github.com/aiscatcherd/aiscatcherd/pkg/stream"
)

// maxLineBytes is the bounded line buffer size; overflow resets to IDLE
// unconditionally (spec §4.4/§7 Oversize).
const maxLineBytes = 1024

// fragmentTTL is how long an in-progress multi-fragment assembly is kept
// before being garbage-collected (spec §4.4 step 4).
const fragmentTTL = 3 * time.Second

type state uint8

const (
	stateIdle state = iota
	stateNMEA
	stateBinary
	stateJSON
	stateTagBlock
)

// GPS is a decoded position frame, sourced either from a $-sentence or a
// bare JSON object (spec §3).
type GPS struct {
	Lat, Lon   float32
	SourceNMEA string
	SourceJSON string
}

// Stats are the reassembler's running error/drop counters, read under no
// lock — callers should only read these from the goroutine driving Feed,
// or take their own snapshot lock around Feed+Stats access.
type Stats struct {
	ChecksumErrors   uint64
	ProtocolErrors   uint64
	OversizeDrops     uint64
	FragmentsDropped uint64
	MessagesEmitted  uint64
}

// Reassembler is one instance of the byte-stream state machine. It is
// not safe for concurrent use from multiple goroutines — one instance
// per input byte stream, matching spec §5's "one worker thread per
// device" ownership model.
type Reassembler struct {
	state state
	line  []byte
	prev  byte
	atBOL bool // true when the next byte would be at start-of-line

	jsonDepth int

	// tagBlock accumulates tag-block text between the first and second
	// backslash; once the second backslash is seen we fall through into
	// NMEA completeness detection for the remainder.
	tagBlockDone bool
	tagBlockText []byte

	pending map[string]*pendingGroup

	CRCCheck bool // when true, checksum-bad sentences are dropped, not just flagged
	Warnings bool

	StationID int32
	OwnMMSI   int32

	Now func() time.Time

	OnMessage func(*ais.Message, stream.Tag)
	OnGPS     func(GPS, stream.Tag)

	// OnWarning, if set, is called once per dropped/malformed frame with a
	// human-readable description (spec §7: "a malformed upstream produces
	// a logged warning and does not tear the pipeline down").
	OnWarning func(msg string)

	Stats Stats
}

func (r *Reassembler) warn(format string, args ...any) {
	if r.OnWarning != nil {
		r.OnWarning(fmt.Sprintf(format, args...))
	}
}

type pendingGroup struct {
	count        int
	nextExpected int
	payload      []byte
	fill         int
	createdAt    time.Time
	rxTimeUS     int64
	stationID    int32
	channel      byte
}

// New creates a ready-to-use Reassembler.
func New() *Reassembler {
	return &Reassembler{
		atBOL:   true,
		pending: make(map[string]*pendingGroup),
		Now:     time.Now,
	}
}

// Feed processes an arbitrary chunk of bytes, dispatching OnMessage/OnGPS
// as complete frames are recognized. It never panics on malformed input;
// malformed branches are dropped and the state machine resets to IDLE.
func (r *Reassembler) Feed(data []byte) {
	for _, b := range data {
		r.feedByte(b)
	}
}

func (r *Reassembler) feedByte(b byte) {
	switch r.state {
	case stateIdle:
		r.feedIdle(b)
	case stateNMEA:
		r.feedLineBuffered(b, r.completeNMEA)
	case stateTagBlock:
		r.feedTagBlock(b)
	case stateBinary:
		r.feedBinary(b)
	case stateJSON:
		r.feedJSON(b)
	}
	if b == '\n' {
		r.atBOL = true
	} else {
		r.atBOL = false
	}
	r.prev = b
}

func (r *Reassembler) feedIdle(b byte) {
	switch {
	case b == '{' && (r.atBOL || r.prev == '}' || r.prev == 0):
		r.resetLine()
		r.jsonDepth = 0
		r.state = stateJSON
		r.feedJSON(b)
	case b == '\\' && (r.atBOL || r.prev == 0):
		r.resetLine()
		r.tagBlockDone = false
		r.tagBlockText = r.tagBlockText[:0]
		r.state = stateTagBlock
	case b == '$' || b == '!':
		r.resetLine()
		r.state = stateNMEA
		r.appendLine(b)
	case b == 0xAC:
		r.resetLine()
		r.state = stateBinary
		r.appendLine(b)
	default:
		// stray byte outside any recognized frame; ignore.
	}
}

func (r *Reassembler) resetLine() {
	r.line = r.line[:0]
}

// appendLine appends to the bounded line buffer, resetting to IDLE on
// overflow (spec §7 Oversize).
func (r *Reassembler) appendLine(b byte) bool {
	if len(r.line) >= maxLineBytes {
		r.Stats.OversizeDrops++
		r.warn("oversize frame dropped (>%d bytes): %q", maxLineBytes, utils.FormatSpaces(r.line))
		r.state = stateIdle
		r.resetLine()
		return false
	}
	r.line = append(r.line, b)
	return true
}

func (r *Reassembler) feedLineBuffered(b byte, complete func() bool) {
	if !r.appendLine(b) {
		return
	}
	if complete() {
		r.dispatchLine()
	}
}

// completeNMEA detects the end of a plain (non tag-block-prefixed) NMEA
// sentence: a VDM/VDO sentence dispatches as soon as its *XX checksum
// tail is present; any other sentence type waits for the newline.
func (r *Reassembler) completeNMEA() bool {
	return nmeaLineComplete(r.line)
}

// nmeaLineComplete implements spec §4.4's completeness test, shared by
// the plain-NMEA and tag-block branches.
func nmeaLineComplete(line []byte) bool {
	if n := len(line); n >= 3 && line[n-3] == '*' && isHex(line[n-2]) && isHex(line[n-1]) {
		if isVDMVDO(line) {
			return true
		}
	}
	return len(line) > 0 && line[len(line)-1] == '\n'
}

func isHex(b byte) bool {
	return (b >= '0' && b <= '9') || (b >= 'A' && b <= 'F') || (b >= 'a' && b <= 'f')
}

func isVDMVDO(line []byte) bool {
	// line looks like "$..VDM,...*XX" or "!..VDM,...*XX"; find the first
	// comma to isolate the sentence tag.
	for i := 1; i < len(line); i++ {
		if line[i] == ',' {
			tag := line[1:i]
			if len(tag) >= 3 {
				suffix := string(tag[len(tag)-3:])
				return suffix == "VDM" || suffix == "VDO"
			}
			return false
		}
	}
	return false
}

func (r *Reassembler) feedTagBlock(b byte) {
	if !r.tagBlockDone {
		if b == '\\' {
			r.tagBlockDone = true
			return
		}
		if len(r.tagBlockText) >= maxLineBytes {
			r.Stats.OversizeDrops++
			r.state = stateIdle
			return
		}
		r.tagBlockText = append(r.tagBlockText, b)
		return
	}
	// after the second backslash: accumulate the following NMEA sentence
	// using the same completeness test.
	r.feedLineBuffered(b, r.completeNMEA)
}

func (r *Reassembler) feedBinary(b byte) {
	if !r.appendLine(b) {
		return
	}
	if b == 0x0A {
		r.dispatchLine()
	}
}

func (r *Reassembler) feedJSON(b byte) {
	if !r.appendLine(b) {
		return
	}
	switch b {
	case '{':
		r.jsonDepth++
	case '}':
		r.jsonDepth--
		if r.jsonDepth <= 0 {
			r.dispatchLine()
			return
		}
	case '\n':
		// newline inside an open JSON object aborts the branch.
		r.Stats.ProtocolErrors++
		r.state = stateIdle
		r.resetLine()
		return
	}
}

// dispatchLine hands a complete line buffer off to the appropriate
// parser and resets to IDLE.
func (r *Reassembler) dispatchLine() {
	line := make([]byte, len(r.line))
	copy(line, r.line)
	st := r.state
	tagText := make([]byte, len(r.tagBlockText))
	copy(tagText, r.tagBlockText)

	r.state = stateIdle
	r.resetLine()
	r.tagBlockText = r.tagBlockText[:0]

	switch st {
	case stateNMEA, stateTagBlock:
		r.handleNMEALine(line, tagText)
	case stateBinary:
		r.handleBinaryLine(line)
	case stateJSON:
		r.handleJSONLine(line)
	}
}
