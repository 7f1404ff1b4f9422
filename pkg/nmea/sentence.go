package nmea

import (
	"strconv"
	"strings"

	"github.com/aiscatcherd/aiscatcherd/pkg/ais"
	"github.com/aiscatcherd/aiscatcherd/pkg/stream"
)

// sentence is one parsed AIVDM/AIVDO sentence, spec §4.4 step 2.
type sentence struct {
	talkerID string
	sentType string // "VDM" or "VDO"
	count    int
	number   int
	groupID  int // -1 if absent
	hasGroup bool
	channel  byte
	payload  string
	fill     int
	checksumOK bool
}

// parseSentence splits an AIVDM/AIVDO line on commas, validating field
// widths per spec §4.4 step 1-2. raw must not include the trailing CRLF.
func parseSentence(raw string) (sentence, bool, error) {
	if len(raw) < 1 || (raw[0] != '$' && raw[0] != '!') {
		return sentence{}, false, ais.ErrProtocolViolation
	}
	star := strings.LastIndexByte(raw, '*')
	if star < 0 || star+3 > len(raw) {
		return sentence{}, false, ais.ErrProtocolViolation
	}
	checksumHex := raw[star+1:]
	checksumHex = strings.TrimRight(checksumHex, "\r\n")
	if len(checksumHex) != 2 {
		return sentence{}, false, ais.ErrProtocolViolation
	}
	wantCksum, err := strconv.ParseUint(checksumHex, 16, 8)
	if err != nil {
		return sentence{}, false, ais.ErrProtocolViolation
	}
	body := raw[:star]
	gotCksum := ais.NMEAChecksum(body + "*")
	checksumOK := byte(wantCksum) == gotCksum

	fields := strings.Split(body, ",")
	if len(fields) != 7 {
		return sentence{}, false, ais.ErrProtocolViolation
	}

	tag := fields[0][1:] // drop leading '$'/'!'
	if len(tag) < 5 {
		return sentence{}, false, ais.ErrProtocolViolation
	}
	talkerID := tag[:2]
	sentType := tag[2:]
	isVDMVDO := sentType == "VDM" || sentType == "VDO"

	s := sentence{talkerID: talkerID, sentType: sentType, checksumOK: checksumOK}

	if !isVDMVDO {
		return s, false, nil
	}

	count, err := strconv.Atoi(fields[1])
	if err != nil || count < 1 || count > 9 {
		return sentence{}, false, ais.ErrProtocolViolation
	}
	number, err := strconv.Atoi(fields[2])
	if err != nil || number < 1 || number > 9 {
		return sentence{}, false, ais.ErrProtocolViolation
	}
	s.count = count
	s.number = number

	if fields[3] != "" {
		gid, err := strconv.Atoi(fields[3])
		if err != nil || gid < 0 || gid > 9 {
			return sentence{}, false, ais.ErrProtocolViolation
		}
		s.groupID = gid
		s.hasGroup = true
	} else {
		s.groupID = -1
	}

	if len(fields[4]) != 1 {
		return sentence{}, false, ais.ErrProtocolViolation
	}
	s.channel = fields[4][0]

	s.payload = fields[5]
	for i := 0; i < len(s.payload); i++ {
		c := s.payload[i]
		validLow := c >= 48 && c <= 87   // '0'..'W'
		validHigh := c >= 96 && c <= 119 // '`'..'w'
		if !validLow && !validHigh {
			return sentence{}, false, ais.ErrProtocolViolation
		}
	}

	fill, err := strconv.Atoi(fields[6])
	if err != nil || fill < 0 || fill > 5 {
		return sentence{}, false, ais.ErrProtocolViolation
	}
	s.fill = fill

	return s, true, nil
}

// handleNMEALine parses a complete NMEA line (optionally preceded by an
// IEC 61162-450 tag block) and dispatches a Message when a sentence
// sequence completes. tagBlockText is nil when there was no tag block.
func (r *Reassembler) handleNMEALine(line, tagBlockText []byte) {
	var tb tagBlock
	var haveTagBlock bool
	if len(tagBlockText) > 0 {
		parsed, ok := parseTagBlock(string(tagBlockText))
		if !ok {
			r.Stats.ProtocolErrors++
			return
		}
		tb = parsed
		haveTagBlock = true
	}

	raw := strings.TrimRight(string(line), "\r\n")
	s, isVDMVDO, err := parseSentence(raw)
	if err != nil {
		r.Stats.ProtocolErrors++
		if r.Warnings {
			r.warn("malformed NMEA sentence %q: %v", raw, err)
		}
		return
	}
	if !isVDMVDO {
		// non-AIS NMEA sentence (e.g. GPS fix); no further handling in
		// this reassembler beyond acknowledging receipt.
		return
	}

	tag := stream.Tag{Group: 1}
	if !s.checksumOK {
		tag.Error |= stream.ErrNMEAChecksumBad
		r.Stats.ChecksumErrors++
		if r.Warnings {
			r.warn("checksum mismatch on %q", raw)
		}
		if r.CRCCheck {
			return
		}
	}

	rxTimeUS := r.Now().UnixMicro()
	stationID := r.StationID
	if haveTagBlock {
		rxTimeUS = tb.rxTimeUS
		if tb.hasStation {
			stationID = tb.stationID
		}
	}

	if s.count == 1 {
		m, err := ais.DecodePayload(s.payload, s.fill, s.channel)
		if err != nil {
			r.Stats.ProtocolErrors++
			return
		}
		r.emit(m, raw, rxTimeUS, stationID, tag)
		return
	}

	r.gcPending()

	key := fragmentKey(s, tb, haveTagBlock)
	pg, ok := r.pending[key]
	if s.number == 1 {
		pg = &pendingGroup{
			count:        s.count,
			nextExpected: 1,
			createdAt:    r.Now(),
			rxTimeUS:     rxTimeUS,
			stationID:    stationID,
			channel:      s.channel,
		}
		r.pending[key] = pg
	} else if !ok || s.number != pg.nextExpected {
		// fragment out of order / no matching in-progress group: drop it.
		delete(r.pending, key)
		r.Stats.FragmentsDropped++
		if r.Warnings {
			r.warn("out-of-order fragment %d/%d for key %q dropped", s.number, s.count, key)
		}
		return
	}

	pg.payload = append(pg.payload, s.payload...)
	pg.fill = s.fill
	pg.nextExpected++

	if s.number < s.count {
		return
	}

	delete(r.pending, key)
	m, err := ais.DecodePayload(string(pg.payload), pg.fill, pg.channel)
	if err != nil {
		r.Stats.ProtocolErrors++
		return
	}
	r.emit(m, raw, pg.rxTimeUS, pg.stationID, tag)
}

func fragmentKey(s sentence, tb tagBlock, haveTagBlock bool) string {
	if haveTagBlock && tb.hasGroup {
		return "g:" + strconv.Itoa(tb.groupID)
	}
	return "ct:" + string(s.channel) + ":" + s.talkerID
}

func (r *Reassembler) gcPending() {
	threshold := r.Now().Add(-fragmentTTL)
	for k, pg := range r.pending {
		if pg.createdAt.Before(threshold) {
			delete(r.pending, k)
			r.Stats.FragmentsDropped++
		}
	}
}

func (r *Reassembler) emit(m *ais.Message, rawLine string, rxTimeUS int64, stationID int32, tag stream.Tag) {
	if err := m.Validate(); err != nil {
		if r.Warnings {
			r.warn("dropping invalid message from %q: %v", rawLine, err)
		}
		r.Stats.ProtocolErrors++
		return
	}
	m.RxTimeUS = rxTimeUS
	m.StationID = stationID
	m.OwnMMSI = r.OwnMMSI
	m.NMEALines = []string{rawLine}
	r.Stats.MessagesEmitted++
	if r.OnMessage != nil {
		r.OnMessage(m, tag)
	}
}
