package output

import (
	"encoding/json"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/aiscatcherd/aiscatcherd/pkg/ais"
	"github.com/aiscatcherd/aiscatcherd/pkg/stream"
)

// MessageFormat selects how a streamer renders a Message onto the wire
// (spec §4.6).
type MessageFormat int

const (
	FormatNMEA MessageFormat = iota
	FormatNMEATag
	FormatBinaryNMEA
	FormatJSONNMEA
	FormatJSONSparse
	FormatJSONFull
	FormatCommunityHub
	FormatSilent
)

// peerMessage is the AIS-Catcher peer JSON shape (spec §6), one line per
// decoded Message, used by FormatJSONNMEA/FormatJSONFull/FormatCommunityHub
// and the HTTP POSTer's aiscatcher/airframes/aprs bodies.
type peerMessage struct {
	Class       string   `json:"class"`
	Device      string   `json:"device"`
	Version     int      `json:"version"`
	Driver      int      `json:"driver"`
	Hardware    string   `json:"hardware"`
	UUID        string   `json:"uuid,omitempty"`
	Channel     string   `json:"channel"`
	Repeat      uint8    `json:"repeat"`
	MMSI        uint32   `json:"mmsi"`
	Type        uint8    `json:"type"`
	RxTime      string   `json:"rxtime"`
	RxUXTime    int64    `json:"rxuxtime"`
	SignalPower *float32 `json:"signalpower"`
	PPM         *float32 `json:"ppm"`
	StationID   int32    `json:"station_id"`
	IPv4        string   `json:"ipv4,omitempty"`
	NMEA        []string `json:"nmea"`
}

// PeerJSON builder configuration shared across output streamers. Version/
// Driver/Hardware describe this receiver and are used whenever a
// message's Tag doesn't already carry values of its own (e.g. relayed
// from an upstream AIS-Catcher-compatible peer). UUID is always taken
// from here; Tag has no uuid field.
type PeerJSONConfig struct {
	Version  int
	Driver   int
	Hardware string
	UUID     string
}

// FormatMessage renders msg per format, returning the bytes to write to
// the wire (possibly empty for FormatSilent, which emits nothing). tag
// carries the per-frame signal level/ppm/station metadata (spec §6) that
// the JSON formats surface as "signalpower"/"ppm"/"station_id"/"ipv4";
// "uuid" comes from cfg.
func FormatMessage(msg *ais.Message, format MessageFormat, cfg PeerJSONConfig, tag stream.Tag, regenerate bool, talkerID, sentenceType string) []byte {
	switch format {
	case FormatSilent:
		return nil
	case FormatNMEA, FormatNMEATag:
		lines := nmeaLines(msg, regenerate, talkerID, sentenceType)
		return []byte(strings.Join(lines, "\r\n") + "\r\n")
	case FormatBinaryNMEA:
		return msg.GetBinaryNMEA(tag.Level, tag.HasLevel, int8(tag.PPM), tag.HasPPM, true)
	case FormatJSONNMEA, FormatJSONFull, FormatCommunityHub:
		pm := buildPeerJSON(msg, cfg, tag, regenerate, talkerID, sentenceType)
		b, _ := json.Marshal(pm)
		return append(b, '\n')
	case FormatJSONSparse:
		b, _ := json.Marshal(map[string]any{
			"mmsi": msg.MMSI(),
			"type": msg.Type(),
		})
		return append(b, '\n')
	default:
		return nil
	}
}

func nmeaLines(msg *ais.Message, regenerate bool, talkerID, sentenceType string) []string {
	if !regenerate && len(msg.NMEALines) > 0 {
		return msg.NMEALines
	}
	return msg.BuildNMEA(talkerID, sentenceType, msg.Channel)
}

func buildPeerJSON(msg *ais.Message, cfg PeerJSONConfig, tag stream.Tag, regenerate bool, talkerID, sentenceType string) peerMessage {
	hardware := cfg.Hardware
	if tag.Hardware != "" {
		hardware = tag.Hardware
	}
	driver := cfg.Driver
	if tag.Driver != 0 {
		driver = tag.Driver
	}
	version := cfg.Version
	if tag.Version != 0 {
		version = tag.Version
	}
	stationID := msg.StationID
	if tag.StationID != 0 {
		stationID = tag.StationID
	}

	var signalPower, ppm *float32
	if tag.HasLevel {
		level := tag.Level
		signalPower = &level
	}
	if tag.HasPPM {
		p := tag.PPM
		ppm = &p
	}

	var ipv4 string
	if tag.IPv4 != 0 {
		ipv4 = net.IPv4(byte(tag.IPv4>>24), byte(tag.IPv4>>16), byte(tag.IPv4>>8), byte(tag.IPv4)).String()
	}

	return peerMessage{
		Class:       "AIS",
		Device:      "aiscatcherd",
		Version:     version,
		Driver:      driver,
		Hardware:    hardware,
		UUID:        cfg.UUID,
		Channel:     string(msg.Channel),
		Repeat:      msg.Repeat(),
		MMSI:        msg.MMSI(),
		Type:        msg.Type(),
		RxTime:      time.UnixMicro(msg.RxTimeUS).UTC().Format("20060102150405"),
		RxUXTime:    msg.RxTimeUS,
		SignalPower: signalPower,
		PPM:         ppm,
		StationID:   stationID,
		IPv4:        ipv4,
		NMEA:        nmeaLines(msg, regenerate, talkerID, sentenceType),
	}
}

// AircatcherEnvelope is the {protocol, encodetime, stationid, ...} HTTP
// POSTer container body for the AISCATCHER/AIRFRAMES formats (spec §4.6).
type AircatcherEnvelope struct {
	Protocol   string        `json:"protocol"`
	EncodeTime string        `json:"encodetime"`
	StationID  int32         `json:"stationid"`
	StationLat float64       `json:"station_lat,omitempty"`
	StationLon float64       `json:"station_lon,omitempty"`
	Receiver   ReceiverInfo  `json:"receiver"`
	Device     DeviceInfo    `json:"device"`
	Messages   []peerMessage `json:"msgs"`
}

type ReceiverInfo struct {
	Description string `json:"description"`
}

type DeviceInfo struct {
	Product string `json:"product"`
	Vendor  string `json:"vendor"`
	Serial  string `json:"serial"`
}

// BuildAircatcherBody builds the AISCATCHER/AIRFRAMES container for a
// batch of messages, per spec §4.6.
func BuildAircatcherBody(msgs []*ais.Message, tags []stream.Tag, cfg PeerJSONConfig, stationID int32, lat, lon float64, now time.Time) ([]byte, error) {
	pms := make([]peerMessage, len(msgs))
	for i, m := range msgs {
		pms[i] = buildPeerJSON(m, cfg, tags[i], true, "AI", "VDM")
	}
	env := AircatcherEnvelope{
		Protocol:   "aiscatcher",
		EncodeTime: now.UTC().Format("2006-01-02 15:04:05 GMT"),
		StationID:  stationID,
		StationLat: lat,
		StationLon: lon,
		Receiver:   ReceiverInfo{Description: "aiscatcherd"},
		Device:     DeviceInfo{Product: "aiscatcherd", Vendor: "aiscatcherd"},
		Messages:   pms,
	}
	return json.Marshal(env)
}

// BuildNMEABody newline-joins raw NMEA sentences for the NMEA HTTP POSTer
// container format.
func BuildNMEABody(msgs []*ais.Message) []byte {
	var sb strings.Builder
	for _, m := range msgs {
		for _, line := range nmeaLines(m, false, "AI", "VDM") {
			sb.WriteString(line)
			sb.WriteString("\r\n")
		}
	}
	return []byte(sb.String())
}

// BuildAPRSBody builds the jsonais group-of-paths payload posted as the
// "jsonais" multipart form field (spec §4.6).
func BuildAPRSBody(msgs []*ais.Message, tags []stream.Tag, cfg PeerJSONConfig) ([]byte, error) {
	paths := make([]peerMessage, len(msgs))
	for i, m := range msgs {
		paths[i] = buildPeerJSON(m, cfg, tags[i], true, "AI", "VDM")
	}
	return json.Marshal(map[string]any{
		"protocol": "jsonais",
		"paths":    paths,
	})
}

// TopicTemplate substitutes ${mmsi}, ${channel}, ${type}, ${station} in
// an MQTT topic template with fields from msg (spec §4.6).
func TopicTemplate(template string, msg *ais.Message) string {
	r := strings.NewReplacer(
		"${mmsi}", fmt.Sprintf("%d", msg.MMSI()),
		"${channel}", string(msg.Channel),
		"${type}", fmt.Sprintf("%d", msg.Type()),
		"${station}", fmt.Sprintf("%d", msg.StationID),
	)
	return r.Replace(template)
}
