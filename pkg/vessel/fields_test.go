package vessel_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aiscatcherd/aiscatcherd/pkg/ais"
	"github.com/aiscatcherd/aiscatcherd/pkg/vessel"
)

func TestDecodePositionReport_ClassA(t *testing.T) {
	m, err := ais.DecodePayload("13aEOK?P00PD2wVMdLDRhgvL289?", 0, 'A')
	require.NoError(t, err)

	pr, ok := vessel.DecodePositionReport(m)
	require.True(t, ok)
	assert.True(t, pr.HasPos)
	assert.InDelta(t, 51.89475, pr.Lat, 0.001)
	assert.InDelta(t, 4.379285, pr.Lon, 0.001)
	assert.Equal(t, uint8(15), pr.NavStatus)
	assert.Equal(t, vessel.Undefined, pr.Heading) // raw 511 == not available
}

func TestDecodePositionReport_UndefinedLonSentinel(t *testing.T) {
	var m ais.Message
	m.SetUint(0, 6, 1)
	m.SetUint(61, 28, uint32(0x6791AC0)&0xFFFFFFF)
	m.LengthBits = 168

	pr, ok := vessel.DecodePositionReport(&m)
	require.True(t, ok)
	assert.False(t, pr.HasPos)
	assert.Equal(t, vessel.Undefined, pr.Lat)
	assert.Equal(t, vessel.Undefined, pr.Lon)
}

func TestDecodePositionReport_NonPositionTypeReturnsFalse(t *testing.T) {
	var m ais.Message
	m.SetUint(0, 6, 5)
	m.LengthBits = 424
	_, ok := vessel.DecodePositionReport(&m)
	assert.False(t, ok)
}

func TestDecodeStaticData_NameAndCallsign(t *testing.T) {
	var m ais.Message
	m.SetUint(0, 6, 5)
	m.LengthBits = 424
	writeSixBit(&m, 70, "TEST1")
	writeSixBit(&m, 112, "MY SHIP")
	m.SetUint(232, 8, 70)
	writeSixBit(&m, 302, "ROTTERDAM")

	sd, ok := vessel.DecodeStaticData(&m)
	require.True(t, ok)
	assert.Equal(t, "TEST1", sd.Callsign)
	assert.Equal(t, "MY SHIP", sd.Name)
	assert.Equal(t, uint8(70), sd.ShipType)
	assert.Equal(t, "ROTTERDAM", sd.Destination)
}

const sixBitAlphabet = "@ABCDEFGHIJKLMNOPQRSTUVWXYZ[\\]^_ !\"#$%&'()*+,-./0123456789:;<=>?"

func writeSixBit(m *ais.Message, startBit uint, s string) {
	for i, c := range []byte(s) {
		idx := indexByte(sixBitAlphabet, c)
		m.SetUint(startBit+uint(i)*6, 6, uint32(idx))
	}
}

func indexByte(s string, b byte) int {
	for i := 0; i < len(s); i++ {
		if s[i] == b {
			return i
		}
	}
	return 0
}
