package ais

import "errors"

// ErrUnknownEnumValue is returned by lookup tables for an out-of-range code.
var ErrUnknownEnumValue = errors.New("ais: unknown enum value")

// EnumValue is one entry of a lookup table: a wire code plus its label.
type EnumValue struct {
	Value uint32
	Label string
}

// LookupEnumeration is an ordered set of EnumValue entries for one field
// (navigation status, ship type, EPFD fix type, ...). The shape mirrors
// canboat's Enum/EnumValue lookup tables, generalized from NMEA2000 PGN
// fields to AIS bitfields.
type LookupEnumeration []EnumValue

// Find returns the label for value, or ErrUnknownEnumValue if value isn't
// a defined code (undefined/reserved codes still decode to a concrete
// "Unknown"/"Reserved" label in the tables below, so this mostly guards
// against genuinely out-of-range codes).
func (le LookupEnumeration) Find(value uint32) (string, error) {
	for _, v := range le {
		if v.Value == value {
			return v.Label, nil
		}
	}
	return "", ErrUnknownEnumValue
}

// NavigationStatus is the AIS navigation status field (message types 1-3).
var NavigationStatus = LookupEnumeration{
	{0, "under way using engine"},
	{1, "at anchor"},
	{2, "not under command"},
	{3, "restricted manoeuverability"},
	{4, "constrained by her draught"},
	{5, "moored"},
	{6, "aground"},
	{7, "engaged in fishing"},
	{8, "under way sailing"},
	{9, "reserved for HSC"},
	{10, "reserved for WIG"},
	{11, "power-driven vessel towing astern"},
	{12, "power-driven vessel pushing ahead"},
	{13, "reserved"},
	{14, "AIS-SART/MOB/EPIRB"},
	{15, "undefined"},
}

// ShipType is the AIS ship and cargo type field (message type 5).
var ShipType = LookupEnumeration{
	{0, "not available"},
	{30, "fishing"},
	{31, "towing"},
	{36, "sailing"},
	{37, "pleasure craft"},
	{40, "high speed craft"},
	{60, "passenger"},
	{70, "cargo"},
	{80, "tanker"},
	{90, "other"},
}

// EPFDFixType is the electronic position fixing device type field.
var EPFDFixType = LookupEnumeration{
	{0, "undefined"},
	{1, "GPS"},
	{2, "GLONASS"},
	{3, "combined GPS/GLONASS"},
	{4, "Loran-C"},
	{5, "Chayka"},
	{6, "integrated navigation system"},
	{7, "surveyed"},
	{8, "Galileo"},
}

// ShipTypeLabel classifies a raw ship-type code into the coarse bucket
// used by radar statistics (class-A/class-B is determined separately by
// message type; this only maps the numeric field to a human label,
// falling back to the nearest decade bucket like AIS-catcher's JSON
// formatter does).
func ShipTypeLabel(code uint32) string {
	bucket := (code / 10) * 10
	if label, err := ShipType.Find(bucket); err == nil {
		return label
	}
	return "unknown"
}
