package nmea

import (
	"strconv"
	"strings"
)

// tagBlock is the parsed content of an IEC 61162-450 tag block prefix,
// \s:<src>,c:<ts>,g:<seq>-<total>-<gid>*XX\ (spec §4.4/§6).
type tagBlock struct {
	source     string
	rxTimeUS   int64
	hasStation bool
	stationID  int32
	hasGroup   bool
	groupID    int
}

// parseTagBlock parses the text between the two backslashes (not
// including them). It returns ok=false on a checksum mismatch or
// unparsable structure; the caller treats that as a protocol violation.
func parseTagBlock(inner string) (tagBlock, bool) {
	star := strings.LastIndexByte(inner, '*')
	if star < 0 || star+3 > len(inner) {
		return tagBlock{}, false
	}
	cksumHex := inner[star+1:]
	want, err := strconv.ParseUint(cksumHex, 16, 8)
	if err != nil {
		return tagBlock{}, false
	}
	body := inner[:star]
	var got byte
	for i := 0; i < len(body); i++ {
		got ^= body[i]
	}
	if byte(want) != got {
		return tagBlock{}, false
	}

	var tb tagBlock
	for _, field := range strings.Split(body, ",") {
		if len(field) < 2 || field[1] != ':' {
			continue
		}
		key, val := field[0], field[2:]
		switch key {
		case 's':
			tb.source = val
			if n, err := strconv.Atoi(strings.TrimPrefix(val, "r")); err == nil {
				tb.hasStation = true
				tb.stationID = int32(n)
			}
		case 'c':
			if us, ok := parseTagBlockTime(val); ok {
				tb.rxTimeUS = us
			}
		case 'g':
			parts := strings.Split(val, "-")
			if len(parts) == 3 {
				if gid, err := strconv.Atoi(parts[2]); err == nil {
					tb.hasGroup = true
					tb.groupID = gid
				}
			}
		}
	}
	return tb, true
}

// parseTagBlockTime auto-detects the c: field's units per spec §6:
// integer seconds, milliseconds (magnitude > 1e11), or fractional
// seconds.
func parseTagBlockTime(val string) (int64, bool) {
	if strings.Contains(val, ".") {
		f, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return 0, false
		}
		return int64(f * 1_000_000), true
	}
	n, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, false
	}
	if n > 100_000_000_000 { // > 1e11: milliseconds
		return n * 1_000, true
	}
	return n * 1_000_000, true
}
