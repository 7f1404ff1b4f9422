package nmea_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aiscatcherd/aiscatcherd/pkg/ais"
	"github.com/aiscatcherd/aiscatcherd/pkg/nmea"
	"github.com/aiscatcherd/aiscatcherd/pkg/stream"
)

func newTestReassembler() (*nmea.Reassembler, *[]*ais.Message) {
	r := nmea.New()
	var got []*ais.Message
	r.OnMessage = func(m *ais.Message, tag stream.Tag) {
		got = append(got, m)
	}
	return r, &got
}

func TestReassembler_Scenario1_SingleSentence(t *testing.T) {
	r, got := newTestReassembler()
	r.Feed([]byte("!AIVDM,1,1,,A,13aEOK?P00PD2wVMdLDRhgvL289?,0*26\r\n"))

	require.Len(t, *got, 1)
	m := (*got)[0]
	assert.Equal(t, uint8(1), m.Type())
	assert.Equal(t, uint32(244670316), m.MMSI())
	assert.Equal(t, byte('A'), m.Channel)
	assert.Equal(t, stream.ErrorFlags(0), stream.Tag{}.Error) // sanity: zero value has no flags
}

func TestReassembler_Scenario2_MultiFragment(t *testing.T) {
	r, got := newTestReassembler()
	r.Feed([]byte("!AIVDM,2,1,3,B,55P5TL01VIaAL@7WKO@mBplU@<PDhh000000001S;AJ::4A80?4i@E53,0*3E\r\n"))
	require.Len(t, *got, 0)
	r.Feed([]byte("!AIVDM,2,2,3,B,1@0000000000000,2*55\r\n"))

	require.Len(t, *got, 1)
	m := (*got)[0]
	assert.Equal(t, uint8(5), m.Type())
	assert.Equal(t, uint32(369190000), m.MMSI())
}

func TestReassembler_Scenario3_TagBlockStationAndTime(t *testing.T) {
	r, got := newTestReassembler()
	r.Now = func() time.Time { return time.Unix(0, 0) }
	r.Feed([]byte("\\s:r003669945,c:1681812049*41\\!AIVDM,1,1,,B,13P88o?P00PD@PJMdH3@0?vH28K4,0*4D\r\n"))

	require.Len(t, *got, 1)
	m := (*got)[0]
	assert.Equal(t, int64(1681812049)*1_000_000, m.RxTimeUS)
	assert.Equal(t, int32(3669945), m.StationID)
}

func TestReassembler_Scenario4_DuplicateSuppressionByHash(t *testing.T) {
	r, got := newTestReassembler()
	line := "!AIVDM,1,1,,A,13aEOK?P00PD2wVMdLDRhgvL289?,0*26\r\n"
	seen := make(map[uint64]bool)
	var deduped []*ais.Message
	r.OnMessage = func(m *ais.Message, tag stream.Tag) {
		*got = append(*got, m)
		if !seen[m.GetHash()] {
			seen[m.GetHash()] = true
			deduped = append(deduped, m)
		}
	}
	r.Feed([]byte(line))
	r.Feed([]byte(line))

	require.Len(t, *got, 2)
	assert.Len(t, deduped, 1)
}

func TestReassembler_BadChecksumFlaggedNotDroppedByDefault(t *testing.T) {
	r, got := newTestReassembler()
	r.Feed([]byte("!AIVDM,1,1,,A,13aEOK?P00PD2wVMdLDRhgvL289?,0*00\r\n"))
	require.Len(t, *got, 1)
	assert.NotZero(t, r.Stats.ChecksumErrors)
}

func TestReassembler_BadChecksumDroppedWhenCRCCheckEnabled(t *testing.T) {
	r, got := newTestReassembler()
	r.CRCCheck = true
	r.Feed([]byte("!AIVDM,1,1,,A,13aEOK?P00PD2wVMdLDRhgvL289?,0*00\r\n"))
	require.Len(t, *got, 0)
}

func TestReassembler_LineOverflowResets(t *testing.T) {
	r, got := newTestReassembler()
	junk := make([]byte, 2000)
	for i := range junk {
		junk[i] = 'A'
	}
	r.Feed([]byte("!"))
	r.Feed(junk)
	// recovers and parses a fresh sentence afterwards
	r.Feed([]byte("!AIVDM,1,1,,A,13aEOK?P00PD2wVMdLDRhgvL289?,0*26\r\n"))
	require.Len(t, *got, 1)
}

func TestReassembler_MismatchedFragmentNumberDropsAssembly(t *testing.T) {
	r, got := newTestReassembler()
	r.Feed([]byte("!AIVDM,2,1,3,B,55P5TL01VIaAL@7WKO@mBplU@<PDhh000000001S;AJ::4A80?4i@E53,0*3E\r\n"))
	// fragment 3 of 3 on the same channel arrives where fragment 2 was expected: the assembly resets
	r.Feed([]byte("!AIVDM,3,3,3,B,1@0000000000000,2*54\r\n"))
	require.Len(t, *got, 0)
}

func TestReassembler_BinaryFraming(t *testing.T) {
	r, got := newTestReassembler()

	var m ais.Message
	m.SetUint(0, 6, 1)
	m.SetUint(8, 30, 111222333)
	m.Channel = 'A'
	m.LengthBits = 168
	encoded := m.GetBinaryNMEA(0, false, 0, false, false)

	r.Feed(encoded)
	require.Len(t, *got, 1)
	assert.Equal(t, uint32(111222333), (*got)[0].MMSI())
}

func TestReassembler_JSONObjectGPS(t *testing.T) {
	r := nmea.New()
	var got []nmea.GPS
	r.OnGPS = func(g nmea.GPS, tag stream.Tag) {
		got = append(got, g)
	}
	r.Feed([]byte(`{"lat":51.5,"lon":4.4}` + "\n"))
	require.Len(t, got, 1)
	assert.InDelta(t, 51.5, got[0].Lat, 0.001)
}

func TestReassembler_JSONNewlineInsideAborts(t *testing.T) {
	r := nmea.New()
	var calls int
	r.OnGPS = func(g nmea.GPS, tag stream.Tag) { calls++ }
	r.Feed([]byte("{\"lat\":1\n,\"lon\":2}"))
	assert.Equal(t, 0, calls)
	assert.NotZero(t, r.Stats.ProtocolErrors)
}

func TestReassembler_BoundaryPayloadExactly56Chars(t *testing.T) {
	var m ais.Message
	m.SetUint(0, 6, 1)
	m.LengthBits = 56 * 6
	sentences := m.BuildNMEA("AI", "VDM", 'A')
	require.Len(t, sentences, 1)

	r, got := newTestReassembler()
	r.Feed([]byte(sentences[0] + "\r\n"))
	require.Len(t, *got, 1)
}

func TestReassembler_OnWarningFiresOnChecksumMismatch(t *testing.T) {
	r, _ := newTestReassembler()
	r.Warnings = true
	var warnings []string
	r.OnWarning = func(msg string) { warnings = append(warnings, msg) }

	r.Feed([]byte("!AIVDM,1,1,,A,13aEOK?P00PD2wVMdLDRhgvL289?,0*00\r\n")) // wrong checksum
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "checksum")
}

func TestReassembler_OnWarningSilentWhenWarningsDisabled(t *testing.T) {
	r, _ := newTestReassembler()
	var warnings []string
	r.OnWarning = func(msg string) { warnings = append(warnings, msg) }

	r.Feed([]byte("!AIVDM,1,1,,A,13aEOK?P00PD2wVMdLDRhgvL289?,0*00\r\n"))
	assert.Empty(t, warnings, "Warnings defaults to false")
}

func TestReassembler_BoundaryPayload57CharsTwoSentences(t *testing.T) {
	var m ais.Message
	m.SetUint(0, 6, 1)
	m.LengthBits = 57 * 6
	sentences := m.BuildNMEA("AI", "VDM", 'A')
	require.Len(t, sentences, 2)

	r, got := newTestReassembler()
	for _, s := range sentences {
		r.Feed([]byte(s + "\r\n"))
	}
	require.Len(t, *got, 1)
}
