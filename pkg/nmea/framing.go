package nmea

import (
	"encoding/json"

	"github.com/aiscatcherd/aiscatcherd/pkg/ais"
	"github.com/aiscatcherd/aiscatcherd/pkg/stream"
)

// handleBinaryLine decodes one complete custom-binary frame (including
// its trailing 0x0A terminator, which is stripped here) per spec §6.
func (r *Reassembler) handleBinaryLine(line []byte) {
	if len(line) == 0 || line[len(line)-1] != 0x0A {
		r.Stats.ProtocolErrors++
		return
	}
	body := line[:len(line)-1]
	m, tag, err := ais.ProcessBinaryPacket(body)
	if err != nil {
		r.Stats.ProtocolErrors++
		if r.Warnings {
			r.warn("malformed binary frame: %v", err)
		}
		return
	}
	tag.Group = 1
	r.emit(m, "", m.RxTimeUS, r.StationID, tag)
}

// jsonPosition is the shape of a bare JSON GPS object this branch
// recognizes; anything else is accepted as framed but otherwise ignored
// (spec §4.4 only specifies framing for the JSON branch, not a payload
// schema beyond GPS enrichment).
type jsonPosition struct {
	Lat *float32 `json:"lat"`
	Lon *float32 `json:"lon"`
}

func (r *Reassembler) handleJSONLine(line []byte) {
	var pos jsonPosition
	if err := json.Unmarshal(line, &pos); err != nil {
		r.Stats.ProtocolErrors++
		return
	}
	if pos.Lat == nil || pos.Lon == nil {
		return
	}
	if r.OnGPS != nil {
		r.OnGPS(GPS{Lat: *pos.Lat, Lon: *pos.Lon, SourceJSON: string(line)}, stream.Tag{Group: 1})
	}
}
