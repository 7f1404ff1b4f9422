package ais

import "errors"

// Sentinel errors classified per spec §7. Callers use errors.Is to branch
// on kind; packages higher up the pipeline map these onto their own
// retry/drop/reset policy.
var (
	// ErrProtocolViolation marks malformed framing or an invalid NMEA/binary
	// structure: the current message/sentence/frame must be discarded.
	ErrProtocolViolation = errors.New("ais: protocol violation")

	// ErrChecksumBad marks an NMEA checksum or CRC16 mismatch.
	ErrChecksumBad = errors.New("ais: checksum mismatch")

	// ErrOversize marks a frame exceeding a hard size bound (binary frame
	// over 1192 bits, line buffer over 1024 bytes, etc).
	ErrOversize = errors.New("ais: oversize frame")
)
