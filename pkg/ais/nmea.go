package ais

import (
	"fmt"
	"strings"
	"sync/atomic"
)

// sentenceGroupID is the process-wide multi-sentence sequence id counter
// (spec §4.3/§6: "cycles 1..9 across the process"). Modeled as an atomic
// counter rather than a global mutable variable so BuildNMEA is safe to
// call concurrently from multiple streamer goroutines.
var sentenceGroupID uint32

// nextSentenceGroupID returns the next value in the 1..9 cycle.
func nextSentenceGroupID() uint8 {
	v := atomic.AddUint32(&sentenceGroupID, 1)
	return uint8((v-1)%9 + 1)
}

// NMEAChecksum computes the XOR of all bytes in s after the leading '!'
// or '$' up to (but excluding) the trailing '*'.
func NMEAChecksum(s string) byte {
	var c byte
	start := 0
	if len(s) > 0 && (s[0] == '!' || s[0] == '$') {
		start = 1
	}
	end := len(s)
	if idx := strings.LastIndexByte(s, '*'); idx >= 0 {
		end = idx
	}
	for i := start; i < end; i++ {
		c ^= s[i]
	}
	return c
}

// DecodePayload decodes a concatenated AIS armored payload (the
// concatenation of one or more sentences' payload fields) into a
// Message, dropping the trailing fillBits padding bits. channel is
// stamped onto the resulting Message as-is.
func DecodePayload(payload string, fillBits int, channel byte) (*Message, error) {
	m := &Message{Channel: channel}
	bit := uint(0)
	for i := 0; i < len(payload); i++ {
		v, err := decodeChar(payload[i])
		if err != nil {
			return nil, err
		}
		if int(bit)+6 > MaxLengthBits {
			return nil, ErrOversize
		}
		m.SetUint(bit, 6, uint32(v))
		bit += 6
	}
	total := int(bit) - fillBits
	if total < 0 {
		total = 0
	}
	m.LengthBits = uint16(total)
	return m, nil
}

// BuildNMEA rebuilds the !AIVDM (or !AIVDO for own-ship traffic) sentence
// set for m, splitting the packed payload into 56-character sentences per
// spec §4.3. talkerID is normally "AI"; sentenceType is "VDM" or "VDO".
func (m *Message) BuildNMEA(talkerID, sentenceType string, channel byte) []string {
	totalSextets := (int(m.LengthBits) + 5) / 6
	payload := make([]byte, totalSextets)
	for i := 0; i < totalSextets; i++ {
		v := byte(m.GetUint(uint(i*6), 6))
		// last sextet may be partially beyond LengthBits; zero-pad the tail.
		if uint(i*6+6) > uint(m.LengthBits) {
			shift := uint(i*6+6) - uint(m.LengthBits)
			v = (v >> shift) << shift
		}
		payload[i] = encodeSextet(v)
	}

	const maxCharsPerSentence = 56
	count := (totalSextets + maxCharsPerSentence - 1) / maxCharsPerSentence
	if count == 0 {
		count = 1
	}
	fillBits := totalSextets*6 - int(m.LengthBits)

	var gid uint8
	if count > 1 {
		gid = nextSentenceGroupID()
	}

	sentences := make([]string, 0, count)
	for i := 0; i < count; i++ {
		start := i * maxCharsPerSentence
		end := start + maxCharsPerSentence
		if end > len(payload) {
			end = len(payload)
		}
		fill := 0
		if i == count-1 {
			fill = fillBits
		}

		var gidField string
		if count > 1 {
			gidField = fmt.Sprintf("%d", gid)
		}

		body := fmt.Sprintf("!%s%s,%d,%d,%s,%c,%s,%d", talkerID, sentenceType,
			count, i+1, gidField, channel, payload[start:end], fill)
		cksum := NMEAChecksum(body)
		sentences = append(sentences, fmt.Sprintf("%s*%02X", body, cksum))
	}
	return sentences
}
