package ais

import (
	"encoding/binary"

	"github.com/aiscatcherd/aiscatcherd/pkg/stream"
)

// Binary framing constants (spec §6).
const (
	binaryMagic   = 0xAC
	binaryVersion = 0x00
	binaryTerm    = 0x0A

	binaryFlagSignal = 1 << 0
	binaryFlagCRC    = 1 << 1
)

// crc16IBM computes the CRC-16/IBM checksum (polynomial 0xA001 reflected,
// init 0xFFFF) used by the binary framing's optional trailer.
func crc16IBM(data []byte) uint16 {
	crc := uint16(0xFFFF)
	for _, b := range data {
		crc ^= uint16(b)
		for i := 0; i < 8; i++ {
			if crc&1 != 0 {
				crc = (crc >> 1) ^ 0xA001
			} else {
				crc >>= 1
			}
		}
	}
	return crc
}

// escapeBinary applies the wire byte-stuffing rules: 0x0A -> 0xAD 0xAE,
// 0x0D -> 0xAD 0xAF, 0xAD -> 0xAD 0xAD. The caller appends the
// unescaped terminating 0x0A afterwards.
func escapeBinary(in []byte) []byte {
	out := make([]byte, 0, len(in)+len(in)/8+2)
	for _, b := range in {
		switch b {
		case 0x0A:
			out = append(out, 0xAD, 0xAE)
		case 0x0D:
			out = append(out, 0xAD, 0xAF)
		case 0xAD:
			out = append(out, 0xAD, 0xAD)
		default:
			out = append(out, b)
		}
	}
	return out
}

// unescapeBinary reverses escapeBinary. It returns ErrProtocolViolation
// on a dangling/invalid escape sequence.
func unescapeBinary(in []byte) ([]byte, error) {
	out := make([]byte, 0, len(in))
	for i := 0; i < len(in); i++ {
		b := in[i]
		if b != 0xAD {
			out = append(out, b)
			continue
		}
		if i+1 >= len(in) {
			return nil, ErrProtocolViolation
		}
		i++
		switch in[i] {
		case 0xAE:
			out = append(out, 0x0A)
		case 0xAF:
			out = append(out, 0x0D)
		case 0xAD:
			out = append(out, 0xAD)
		default:
			return nil, ErrProtocolViolation
		}
	}
	return out, nil
}

// GetBinaryNMEA encodes m using the custom binary framing from spec §6.
// When withCRC is true a CRC16 trailer is appended and its presence bit
// set in flags.
func (m *Message) GetBinaryNMEA(level float32, hasLevel bool, ppm int8, hasPPM bool, withCRC bool) []byte {
	var flags byte
	if hasLevel || hasPPM {
		flags |= binaryFlagSignal
	}
	if withCRC {
		flags |= binaryFlagCRC
	}

	body := make([]byte, 0, 16+m.LengthBytes())
	body = append(body, binaryMagic, binaryVersion, flags)

	ts := make([]byte, 8)
	binary.BigEndian.PutUint64(ts, uint64(m.RxTimeUS))
	body = append(body, ts...)

	if flags&binaryFlagSignal != 0 {
		lvl := make([]byte, 2)
		binary.BigEndian.PutUint16(lvl, uint16(int16(level*100)))
		body = append(body, lvl...)
		body = append(body, byte(int8(ppm)))
	}
	body = append(body, m.Channel)

	lb := make([]byte, 2)
	binary.BigEndian.PutUint16(lb, m.LengthBits)
	body = append(body, lb...)
	body = append(body, m.Data[:m.LengthBytes()]...)

	if withCRC {
		crc := crc16IBM(body)
		crcBytes := make([]byte, 2)
		binary.BigEndian.PutUint16(crcBytes, crc)
		body = append(body, crcBytes...)
	}

	out := escapeBinary(body)
	out = append(out, binaryTerm)
	return out
}

// ProcessBinaryPacket decodes one unescaped binary frame (magic byte
// through, but not including, the terminating 0x0A) into a Message and
// its out-of-band Tag (signal level/ppm, spec §6), so the round-trip law
// in spec §8 ("decode(encode(m, crc=true)) == m including tag.level and
// tag.ppm to within ±0.05") has somewhere to put the values it decodes.
func ProcessBinaryPacket(escaped []byte) (*Message, stream.Tag, error) {
	raw, err := unescapeBinary(escaped)
	if err != nil {
		return nil, stream.Tag{}, err
	}
	if len(raw) < 3 || raw[0] != binaryMagic {
		return nil, stream.Tag{}, ErrProtocolViolation
	}
	if raw[1] != binaryVersion {
		return nil, stream.Tag{}, ErrProtocolViolation
	}
	flags := raw[2]

	pos := 3
	if len(raw) < pos+8 {
		return nil, stream.Tag{}, ErrProtocolViolation
	}
	rxTime := int64(binary.BigEndian.Uint64(raw[pos : pos+8]))
	pos += 8

	var tag stream.Tag
	if flags&binaryFlagSignal != 0 {
		if len(raw) < pos+3 {
			return nil, stream.Tag{}, ErrProtocolViolation
		}
		level := int16(binary.BigEndian.Uint16(raw[pos : pos+2]))
		ppm := int8(raw[pos+2])
		tag.HasLevel = true
		tag.Level = float32(level) / 100
		tag.HasPPM = true
		tag.PPM = float32(ppm)
		pos += 3
	}

	if len(raw) < pos+1 {
		return nil, stream.Tag{}, ErrProtocolViolation
	}
	channel := raw[pos]
	pos++

	if len(raw) < pos+2 {
		return nil, stream.Tag{}, ErrProtocolViolation
	}
	lengthBits := binary.BigEndian.Uint16(raw[pos : pos+2])
	pos += 2
	if lengthBits > MaxLengthBits {
		return nil, stream.Tag{}, ErrOversize
	}

	dataLen := int((lengthBits + 7) / 8)
	if len(raw) < pos+dataLen {
		return nil, stream.Tag{}, ErrProtocolViolation
	}
	data := raw[pos : pos+dataLen]
	pos += dataLen

	if flags&binaryFlagCRC != 0 {
		if len(raw) < pos+2 {
			return nil, stream.Tag{}, ErrProtocolViolation
		}
		want := binary.BigEndian.Uint16(raw[pos : pos+2])
		got := crc16IBM(raw[:pos])
		if want != got {
			return nil, stream.Tag{}, ErrChecksumBad
		}
	}

	m := &Message{
		RxTimeUS:   rxTime,
		LengthBits: lengthBits,
		Channel:    channel,
	}
	copy(m.Data[:dataLen], data)
	return m, tag, nil
}
