package httpserver

import (
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aiscatcherd/aiscatcherd/pkg/stream"
	"github.com/aiscatcherd/aiscatcherd/pkg/vessel"
)

func TestParseMMSIQuery_ParsesCommaSeparatedList(t *testing.T) {
	got := parseMMSIQuery("244670316,366123456")
	assert.Equal(t, []uint32{244670316, 366123456}, got)
}

func TestParseMMSIQuery_SkipsGarbageEntries(t *testing.T) {
	got := parseMMSIQuery("1,not-a-number,3")
	assert.Equal(t, []uint32{1, 3}, got)
}

func TestParseMMSIQuery_EmptyQueryReturnsNil(t *testing.T) {
	assert.Nil(t, parseMMSIQuery(""))
}

func TestParseMMSIQuery_CapsAtMaxPathMMSIs(t *testing.T) {
	q := ""
	for i := 0; i < maxPathMMSIs+10; i++ {
		if i > 0 {
			q += ","
		}
		q += "1"
	}
	got := parseMMSIQuery(q)
	assert.Len(t, got, maxPathMMSIs)
}

func TestHandlePath_ReturnsPathForKnownMMSIOnly(t *testing.T) {
	s := newTestServer()
	s.DB.Receive(positionMessage(1, 10, 10), stream.Tag{})

	rr := httptest.NewRecorder()
	s.handlePath(rr, httptest.NewRequest("GET", "/api/path.json?1,2", nil))

	var out map[string][]vessel.PathPoint
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out))
	_, hasOne := out["1"]
	_, hasTwo := out["2"]
	assert.True(t, hasOne)
	assert.False(t, hasTwo)
}
