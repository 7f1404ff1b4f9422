// Package vessel implements the fixed-capacity hashed LRU vessel
// database, its four history rings, and spatial statistics from spec
// §4.7.
package vessel

import (
	"math"

	"github.com/aiscatcherd/aiscatcherd/pkg/ais"
)

// Sentinel raw field values per the AIS standard encoding (spec §4.7:
// "lon = 0x6791AC0 → LON_UNDEFINED"); lat's analogous sentinel is
// 0x3412140 (91 * 600000).
const (
	lonUndefinedRaw = 0x6791AC0
	latUndefinedRaw = 0x3412140

	sogUndefinedRaw     = 1023
	cogUndefinedRaw     = 3600
	headingUndefinedRaw = 511
	rotUndefinedRaw     = -128
)

// Undefined is the sentinel float64 stored in a Vessel field that was
// never received or was received as the standard "not available" code.
const Undefined = math.MaxFloat64

// PositionReport holds the fields common to AIS position reports
// (types 1/2/3 class A, 18/19 class B), decoded with the Message bit
// accessors per the standard AIS field layout.
type PositionReport struct {
	NavStatus uint8
	Lat, Lon  float64 // degrees, or Undefined
	COG       float64 // degrees, or Undefined
	SOG       float64 // knots, or Undefined
	Heading   float64 // degrees, or Undefined
	HasPos    bool
}

// DecodePositionReport decodes the position-report fields out of msg
// according to its type (spec §4.7 step 3). Class A (1/2/3) and class B
// (18/19) share the same lon/lat/cog/sog/heading bit widths but differ
// in offsets and in which fields exist at all.
func DecodePositionReport(msg *ais.Message) (PositionReport, bool) {
	switch msg.Type() {
	case 1, 2, 3:
		return decodeClassA(msg), true
	case 18, 19:
		return decodeClassB(msg), true
	default:
		return PositionReport{}, false
	}
}

func decodeClassA(msg *ais.Message) PositionReport {
	var r PositionReport
	r.NavStatus = uint8(msg.GetUint(38, 4))
	r.SOG = scaleSOG(msg.GetUint(50, 10))
	lon := msg.GetInt(61, 28)
	lat := msg.GetInt(89, 27)
	r.Lat, r.Lon, r.HasPos = scaleLatLon(lat, lon)
	r.COG = scaleCOG(msg.GetUint(116, 12))
	r.Heading = scaleHeading(msg.GetUint(128, 9))
	return r
}

func decodeClassB(msg *ais.Message) PositionReport {
	var r PositionReport
	r.NavStatus = 15 // class B carries no navigational status
	r.SOG = scaleSOG(msg.GetUint(46, 10))
	lon := msg.GetInt(57, 28)
	lat := msg.GetInt(85, 27)
	r.Lat, r.Lon, r.HasPos = scaleLatLon(lat, lon)
	r.COG = scaleCOG(msg.GetUint(112, 12))
	r.Heading = scaleHeading(msg.GetUint(124, 9))
	return r
}

func scaleLatLon(lat, lon int32) (float64, float64, bool) {
	if int32(lon) == lonUndefinedRaw || int32(lat) == latUndefinedRaw {
		return Undefined, Undefined, false
	}
	return float64(lat) / 600000.0, float64(lon) / 600000.0, true
}

func scaleSOG(raw uint32) float64 {
	if raw == sogUndefinedRaw {
		return Undefined
	}
	return float64(raw) / 10.0
}

func scaleCOG(raw uint32) float64 {
	if raw == cogUndefinedRaw {
		return Undefined
	}
	return float64(raw) / 10.0
}

func scaleHeading(raw uint32) float64 {
	if raw == headingUndefinedRaw {
		return Undefined
	}
	return float64(raw)
}

// StaticData holds the voyage-related static fields from type 5. The
// type 24A name is decoded separately by DecodeType24Name.
type StaticData struct {
	IMO         uint32
	Callsign    string
	Name        string
	ShipType    uint8
	Destination string
}

// DecodeStaticData decodes type 5 (Static and Voyage Related Data).
func DecodeStaticData(msg *ais.Message) (StaticData, bool) {
	if msg.Type() != 5 {
		return StaticData{}, false
	}
	var d StaticData
	d.IMO = msg.GetUint(40, 30)
	d.Callsign = decodeSixBitText(msg, 70, 7)
	d.Name = decodeSixBitText(msg, 112, 20)
	d.ShipType = uint8(msg.GetUint(232, 8))
	d.Destination = decodeSixBitText(msg, 302, 20)
	return d, true
}

// DecodeType24Name decodes the shipname field of a type 24A (Static Data
// Report, part A), the class-B analogue of type 5's name field.
func DecodeType24Name(msg *ais.Message) (string, bool) {
	if msg.Type() != 24 {
		return "", false
	}
	partNo := msg.GetUint(38, 2)
	if partNo != 0 {
		return "", false
	}
	return decodeSixBitText(msg, 40, 20), true
}

// sixBitAlphabet is the AIS 6-bit ASCII table used for name/callsign/
// destination text fields (distinct from the armoring alphabet in
// pkg/ais/alphabet.go, which encodes raw payload bytes, not text).
const sixBitAlphabet = "@ABCDEFGHIJKLMNOPQRSTUVWXYZ[\\]^_ !\"#$%&'()*+,-./0123456789:;<=>?"

func decodeSixBitText(msg *ais.Message, startBit uint, maxChars int) string {
	b := make([]byte, 0, maxChars)
	for i := 0; i < maxChars; i++ {
		v := msg.GetUint(startBit+uint(i)*6, 6)
		if int(v) >= len(sixBitAlphabet) {
			break
		}
		c := sixBitAlphabet[v]
		if c == '@' {
			break
		}
		b = append(b, c)
	}
	return trimTrailingSpace(string(b))
}

func trimTrailingSpace(s string) string {
	end := len(s)
	for end > 0 && s[end-1] == ' ' {
		end--
	}
	return s[:end]
}
