package vessel_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aiscatcherd/aiscatcherd/pkg/ais"
	"github.com/aiscatcherd/aiscatcherd/pkg/stream"
	"github.com/aiscatcherd/aiscatcherd/pkg/vessel"
)

func TestStatistics_ObserveCountsByTypeAndChannel(t *testing.T) {
	s := vessel.NewStatistics()
	var m ais.Message
	m.SetUint(0, 6, 1)
	m.Channel = 'A'

	s.Observe(&m, stream.Tag{}, 0, 0, false)
	s.Observe(&m, stream.Tag{}, 0, 0, false)

	assert.Equal(t, uint64(2), s.PerType[1])
	assert.Equal(t, uint64(2), s.PerChannel[0])
}

func TestStatistics_ObserveTracksLevelMinMaxMean(t *testing.T) {
	s := vessel.NewStatistics()
	var m ais.Message
	m.SetUint(0, 6, 1)

	s.Observe(&m, stream.Tag{Level: 10, HasLevel: true}, 0, 0, false)
	s.Observe(&m, stream.Tag{Level: 30, HasLevel: true}, 0, 0, false)

	assert.Equal(t, 10.0, s.LevelMin)
	assert.Equal(t, 30.0, s.LevelMax)
	assert.Equal(t, 20.0, s.LevelMean())
}

func TestStatistics_ObservePPMMean(t *testing.T) {
	s := vessel.NewStatistics()
	var m ais.Message
	m.SetUint(0, 6, 1)

	s.Observe(&m, stream.Tag{PPM: 2, HasPPM: true}, 0, 0, false)
	s.Observe(&m, stream.Tag{PPM: 4, HasPPM: true}, 0, 0, false)

	assert.InDelta(t, 3.0, s.PPMMean(), 0.0001)
}

func TestStatistics_ObserveWithoutSamplesMeansZero(t *testing.T) {
	s := vessel.NewStatistics()
	assert.Equal(t, 0.0, s.LevelMean())
	assert.Equal(t, 0.0, s.PPMMean())
}

func TestStatistics_RadarBucketAssignsClassAAndB(t *testing.T) {
	s := vessel.NewStatistics()
	var classA ais.Message
	classA.SetUint(0, 6, 1)
	var classB ais.Message
	classB.SetUint(0, 6, 18)

	s.Observe(&classA, stream.Tag{}, 100, 10, true)
	s.Observe(&classB, stream.Tag{}, 50, 370, true) // bearing wraps past 360

	assert.Equal(t, 100.0, s.RadarClassA[0])
	assert.Equal(t, 50.0, s.RadarClassB[0])
	assert.Equal(t, 100.0, s.LongestDistanceKm)
}

func TestStatistics_RadarKeepsMaxDistancePerBucket(t *testing.T) {
	s := vessel.NewStatistics()
	var m ais.Message
	m.SetUint(0, 6, 1)

	s.Observe(&m, stream.Tag{}, 10, 5, true)
	s.Observe(&m, stream.Tag{}, 5, 5, true) // same bucket, smaller distance

	assert.Equal(t, 10.0, s.RadarClassA[0])
}
