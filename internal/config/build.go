package config

import (
	"time"

	"github.com/aiscatcherd/aiscatcherd/pkg/output"
)

// Build compiles a Filter config entry into a runtime pkg/output.Filter,
// converting the allow-lists into the bitmasks Filter.Include expects.
func (f Filter) Build() *output.Filter {
	rf := output.NewFilter()
	rf.On = f.On
	rf.RemoveEmpty = f.RemoveEmpty
	rf.AllowedChannel = f.Channels
	rf.MMSIAllowed = f.MMSIAllowed
	rf.MMSIBlocked = f.MMSIBlocked
	rf.Downsample = f.Downsample
	rf.DownsampleTime = time.Duration(f.DownsampleSecs) * time.Second

	if len(f.AllowedTypes) > 0 {
		var mask uint32
		for _, t := range f.AllowedTypes {
			mask |= 1 << uint(t)
		}
		rf.AllowType = mask
	}
	if len(f.AllowedRepeats) > 0 {
		var mask uint32
		for _, r := range f.AllowedRepeats {
			mask |= 1 << uint(r)
		}
		rf.AllowRepeat = mask
	}
	return rf
}

// formatByName maps the YAML format string onto pkg/output.MessageFormat
// (spec §4.6).
var formatByName = map[string]output.MessageFormat{
	"nmea":          output.FormatNMEA,
	"nmea_tag":      output.FormatNMEATag,
	"binary_nmea":   output.FormatBinaryNMEA,
	"json_nmea":     output.FormatJSONNMEA,
	"json_sparse":   output.FormatJSONSparse,
	"json_full":     output.FormatJSONFull,
	"community_hub": output.FormatCommunityHub,
	"silent":        output.FormatSilent,
}

// BuildFormat returns the MessageFormat this entry names, defaulting to
// FormatNMEA when unset (Validate rejects anything else unrecognized).
func (o Output) BuildFormat() output.MessageFormat {
	if f, ok := formatByName[o.Format]; ok {
		return f
	}
	return output.FormatNMEA
}

var containerByName = map[string]output.HTTPContainer{
	"aiscatcher": output.ContainerAISCatcher,
	"airframes":  output.ContainerAirframes,
	"aprs":       output.ContainerAPRS,
	"nmea":       output.ContainerNMEA,
}

// BuildContainer returns the HTTPContainer this entry names, defaulting
// to ContainerAISCatcher.
func (o Output) BuildContainer() output.HTTPContainer {
	if c, ok := containerByName[o.Container]; ok {
		return c
	}
	return output.ContainerAISCatcher
}
